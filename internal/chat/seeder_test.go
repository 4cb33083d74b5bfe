package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// --- モック ---

type mockChatRepo struct {
	listSendersFn             func(ctx context.Context, donationID string) ([]string, error)
	insertSeedFn              func(ctx context.Context, msg *model.ChatMessage) (bool, error)
	insertFn                  func(ctx context.Context, msg *model.ChatMessage) error
	markReadFn                func(ctx context.Context, donationID, readerID string) ([]*model.ChatMessage, error)
	markDeliveredFn           func(ctx context.Context, donationID, recipientID string) ([]*model.ChatMessage, error)
	listForParticipantSinceFn func(ctx context.Context, stakeholderID string, since time.Time) ([]repository.ChatMessageWithDonation, error)
}

func (m *mockChatRepo) ListSenders(ctx context.Context, donationID string) ([]string, error) {
	if m.listSendersFn != nil {
		return m.listSendersFn(ctx, donationID)
	}
	return nil, nil
}
func (m *mockChatRepo) InsertSeed(ctx context.Context, msg *model.ChatMessage) (bool, error) {
	if m.insertSeedFn != nil {
		return m.insertSeedFn(ctx, msg)
	}
	return true, nil
}
func (m *mockChatRepo) Insert(ctx context.Context, msg *model.ChatMessage) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, msg)
	}
	return nil
}
func (m *mockChatRepo) MarkRead(ctx context.Context, donationID, readerID string) ([]*model.ChatMessage, error) {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, donationID, readerID)
	}
	return nil, nil
}
func (m *mockChatRepo) MarkDelivered(ctx context.Context, donationID, recipientID string) ([]*model.ChatMessage, error) {
	if m.markDeliveredFn != nil {
		return m.markDeliveredFn(ctx, donationID, recipientID)
	}
	return nil, nil
}
func (m *mockChatRepo) ListForParticipantSince(ctx context.Context, stakeholderID string, since time.Time) ([]repository.ChatMessageWithDonation, error) {
	if m.listForParticipantSinceFn != nil {
		return m.listForParticipantSinceFn(ctx, stakeholderID, since)
	}
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDonation() *model.Donation {
	return &model.Donation{
		ID:        "d1",
		DonorID:   "h1",
		CharityID: "c1",
		Status:    model.DonationStatusApproved,
	}
}

// --- テスト ---

func TestSeeder_EnsureSeeded_InsertsBothParticipants(t *testing.T) {
	var inserted []*model.ChatMessage
	repo := &mockChatRepo{
		insertSeedFn: func(ctx context.Context, msg *model.ChatMessage) (bool, error) {
			inserted = append(inserted, msg)
			return true, nil
		},
	}
	seeder := NewSeeder(repo, testLogger())

	got, err := seeder.EnsureSeeded(context.Background(), testDonation())
	if err != nil {
		t.Fatalf("EnsureSeeded() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("inserted %d seeds, want 2", len(got))
	}
	if inserted[0].SenderID != "h1" || inserted[1].SenderID != "c1" {
		t.Errorf("sender order = %q, %q", inserted[0].SenderID, inserted[1].SenderID)
	}
	for _, msg := range inserted {
		if !msg.IsSeed() {
			t.Errorf("seed payload should be empty, got %q", msg.Payload)
		}
		if msg.Icon != IconFor("d1") {
			t.Errorf("Icon = %q, want %q", msg.Icon, IconFor("d1"))
		}
		if msg.ID == "" {
			t.Error("seed should have an ID")
		}
	}
}

func TestSeeder_EnsureSeeded_SecondRunInsertsNothing(t *testing.T) {
	// 1回目の実行で両当事者が送信者になった状態
	repo := &mockChatRepo{
		listSendersFn: func(ctx context.Context, donationID string) ([]string, error) {
			return []string{"h1", "c1"}, nil
		},
		insertSeedFn: func(ctx context.Context, msg *model.ChatMessage) (bool, error) {
			t.Errorf("InsertSeed should not be called, got sender %q", msg.SenderID)
			return false, nil
		},
	}
	seeder := NewSeeder(repo, testLogger())

	got, err := seeder.EnsureSeeded(context.Background(), testDonation())
	if err != nil {
		t.Fatalf("EnsureSeeded() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("second run inserted %d seeds, want 0", len(got))
	}
}

func TestSeeder_EnsureSeeded_OnlyMissingParticipant(t *testing.T) {
	repo := &mockChatRepo{
		listSendersFn: func(ctx context.Context, donationID string) ([]string, error) {
			return []string{"h1"}, nil
		},
	}
	seeder := NewSeeder(repo, testLogger())

	got, err := seeder.EnsureSeeded(context.Background(), testDonation())
	if err != nil {
		t.Fatalf("EnsureSeeded() error = %v", err)
	}
	if len(got) != 1 || got[0].SenderID != "c1" {
		t.Fatalf("got %d seeds, want 1 for c1", len(got))
	}
}

func TestSeeder_EnsureSeeded_ConcurrentConflictTreatedAsSuccess(t *testing.T) {
	// 部分一意制約違反（false, nil）は冪等成功として扱う
	repo := &mockChatRepo{
		insertSeedFn: func(ctx context.Context, msg *model.ChatMessage) (bool, error) {
			return false, nil
		},
	}
	seeder := NewSeeder(repo, testLogger())

	got, err := seeder.EnsureSeeded(context.Background(), testDonation())
	if err != nil {
		t.Fatalf("EnsureSeeded() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("conflicting seeds reported as inserted: %d", len(got))
	}
}

func TestSeeder_EnsureSeeded_OneFailureDoesNotStopOther(t *testing.T) {
	var attempts []string
	repo := &mockChatRepo{
		insertSeedFn: func(ctx context.Context, msg *model.ChatMessage) (bool, error) {
			attempts = append(attempts, msg.SenderID)
			if msg.SenderID == "h1" {
				return false, errors.New("connection reset")
			}
			return true, nil
		},
	}
	seeder := NewSeeder(repo, testLogger())

	got, err := seeder.EnsureSeeded(context.Background(), testDonation())
	if err == nil {
		t.Error("expected error for failed seed")
	}
	if len(attempts) != 2 {
		t.Fatalf("attempted %d inserts, want 2", len(attempts))
	}
	if len(got) != 1 || got[0].SenderID != "c1" {
		t.Errorf("got %d inserted seeds, want 1 for c1", len(got))
	}
}
