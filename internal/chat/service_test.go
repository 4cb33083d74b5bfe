package chat

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// --- モック ---

type mockDonationRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Donation, error)
}

func (m *mockDonationRepo) FindByID(ctx context.Context, id string) (*model.Donation, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockDonationRepo) Create(ctx context.Context, d *model.Donation) error { return nil }
func (m *mockDonationRepo) UpdateStatus(ctx context.Context, id string, status model.DonationStatus) (bool, error) {
	return false, nil
}
func (m *mockDonationRepo) ListByStatus(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error) {
	return nil, nil
}
func (m *mockDonationRepo) ListByStatusAndCharity(ctx context.Context, status model.DonationStatus, charityID string) ([]*model.Donation, error) {
	return nil, nil
}
func (m *mockDonationRepo) ListByStatusAndParticipant(ctx context.Context, status model.DonationStatus, stakeholderID string) ([]*model.Donation, error) {
	return nil, nil
}
func (m *mockDonationRepo) CountByStatusAndCharity(ctx context.Context, status model.DonationStatus, charityID string) (int, error) {
	return 0, nil
}

type mockStakeholderRepo struct {
	namesByIDsFn func(ctx context.Context, ids []string) (map[string]string, error)
}

func (m *mockStakeholderRepo) FindByID(ctx context.Context, id string) (*model.Stakeholder, error) {
	return nil, nil
}
func (m *mockStakeholderRepo) FindByEmail(ctx context.Context, email string) (*model.Stakeholder, error) {
	return nil, nil
}
func (m *mockStakeholderRepo) Create(ctx context.Context, s *model.Stakeholder) error { return nil }
func (m *mockStakeholderRepo) NextIDForPrefix(ctx context.Context, prefix string) (string, error) {
	return "", nil
}
func (m *mockStakeholderRepo) List(ctx context.Context) ([]*model.Stakeholder, error) {
	return nil, nil
}
func (m *mockStakeholderRepo) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	if m.namesByIDsFn != nil {
		return m.namesByIDsFn(ctx, ids)
	}
	return map[string]string{}, nil
}

type mockEmitter struct {
	events []string
}

func (m *mockEmitter) Emit(event string, payload any) {
	m.events = append(m.events, event)
}

func donationRepoWith(d *model.Donation) *mockDonationRepo {
	return &mockDonationRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Donation, error) {
			if d != nil && d.ID == id {
				return d, nil
			}
			return nil, nil
		},
	}
}

// --- テスト ---

func TestService_Append(t *testing.T) {
	t.Run("サーバー側でタイムスタンプを採番する", func(t *testing.T) {
		var saved *model.ChatMessage
		chatRepo := &mockChatRepo{
			insertFn: func(ctx context.Context, msg *model.ChatMessage) error {
				saved = msg
				return nil
			},
		}
		emitter := &mockEmitter{}
		svc := NewService(chatRepo, donationRepoWith(testDonation()), &mockStakeholderRepo{}, emitter, testLogger())
		fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return fixed }

		msg, err := svc.Append(context.Background(), "h1", "d1", "ciphertext", "iv123")
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if !saved.SentAt.Equal(fixed) {
			t.Errorf("SentAt = %v, want %v", saved.SentAt, fixed)
		}
		if msg.Payload != "ciphertext" || msg.IV != "iv123" {
			t.Errorf("payload/iv not preserved: %+v", msg)
		}
		if msg.Icon != IconFor("d1") {
			t.Errorf("Icon = %q, want %q", msg.Icon, IconFor("d1"))
		}
		if len(emitter.events) != 1 || emitter.events[0] != "chat:message" {
			t.Errorf("events = %v", emitter.events)
		}
	})

	t.Run("空フィールドは拒否する", func(t *testing.T) {
		svc := NewService(&mockChatRepo{}, donationRepoWith(testDonation()), &mockStakeholderRepo{}, nil, testLogger())
		cases := []struct {
			name                           string
			senderID, donationID, payload, iv string
		}{
			{"payloadなし", "h1", "d1", "", "iv"},
			{"ivなし", "h1", "d1", "x", ""},
			{"donationIdなし", "h1", "", "x", "iv"},
		}
		for _, tc := range cases {
			_, err := svc.Append(context.Background(), tc.senderID, tc.donationID, tc.payload, tc.iv)
			apiErr, ok := err.(*model.APIError)
			if !ok || apiErr.Code != model.ErrCodeValidationFailed {
				t.Errorf("%s: error = %v, want VALIDATION_FAILED", tc.name, err)
			}
		}
	})

	t.Run("存在しない寄付", func(t *testing.T) {
		svc := NewService(&mockChatRepo{}, donationRepoWith(nil), &mockStakeholderRepo{}, nil, testLogger())
		_, err := svc.Append(context.Background(), "h1", "missing", "x", "iv")
		apiErr, ok := err.(*model.APIError)
		if !ok || apiErr.Code != model.ErrCodeDonationNotFound {
			t.Fatalf("error = %v, want DONATION_NOT_FOUND", err)
		}
	})

	t.Run("当事者以外は拒否する", func(t *testing.T) {
		svc := NewService(&mockChatRepo{}, donationRepoWith(testDonation()), &mockStakeholderRepo{}, nil, testLogger())
		_, err := svc.Append(context.Background(), "b99", "d1", "x", "iv")
		apiErr, ok := err.(*model.APIError)
		if !ok || apiErr.Code != model.ErrCodeForbidden {
			t.Fatalf("error = %v, want FORBIDDEN", err)
		}
	})
}

func TestService_MarkRead_EmitsOnlyWhenUpdated(t *testing.T) {
	updatedRows := []*model.ChatMessage{{ID: "m1", DonationID: "d1", SenderID: "c1", ReadReceipt: true}}
	chatRepo := &mockChatRepo{
		markReadFn: func(ctx context.Context, donationID, readerID string) ([]*model.ChatMessage, error) {
			return updatedRows, nil
		},
	}
	emitter := &mockEmitter{}
	svc := NewService(chatRepo, donationRepoWith(testDonation()), &mockStakeholderRepo{}, emitter, testLogger())

	got, err := svc.MarkRead(context.Background(), "d1", "h1")
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if len(emitter.events) != 1 || emitter.events[0] != "chat:read" {
		t.Errorf("events = %v", emitter.events)
	}

	// 更新0件のときはイベントを出さない
	chatRepo.markReadFn = func(ctx context.Context, donationID, readerID string) ([]*model.ChatMessage, error) {
		return nil, nil
	}
	if _, err := svc.MarkRead(context.Background(), "d1", "h1"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if len(emitter.events) != 1 {
		t.Errorf("no-op mark should not emit, events = %v", emitter.events)
	}
}

func TestService_MarkDelivered_RequiresParticipant(t *testing.T) {
	svc := NewService(&mockChatRepo{}, donationRepoWith(testDonation()), &mockStakeholderRepo{}, nil, testLogger())
	_, err := svc.MarkDelivered(context.Background(), "d1", "b99")
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeForbidden {
		t.Fatalf("error = %v, want FORBIDDEN", err)
	}
}

func TestService_ListSince_ResolvesNamesAndDirection(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	chatRepo := &mockChatRepo{
		listForParticipantSinceFn: func(ctx context.Context, stakeholderID string, since time.Time) ([]repository.ChatMessageWithDonation, error) {
			return []repository.ChatMessageWithDonation{
				{
					ChatMessage: model.ChatMessage{ID: "m1", DonationID: "d1", SenderID: "h1", Payload: "enc1", SentAt: base},
					DonorID:     "h1",
					CharityID:   "c1",
				},
				{
					ChatMessage: model.ChatMessage{ID: "m2", DonationID: "d1", SenderID: "c1", Payload: "enc2", SentAt: base.Add(time.Minute)},
					DonorID:     "h1",
					CharityID:   "c1",
				},
			}, nil
		},
	}
	stakeholderRepo := &mockStakeholderRepo{
		namesByIDsFn: func(ctx context.Context, ids []string) (map[string]string, error) {
			return map[string]string{"h1": "Alice", "c1": "Food Bank"}, nil
		},
	}
	svc := NewService(chatRepo, &mockDonationRepo{}, stakeholderRepo, nil, testLogger())

	got, err := svc.ListSince(context.Background(), "h1", base)
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	if !got[0].IsOutgoing {
		t.Error("m1 should be outgoing for h1")
	}
	if got[0].SenderName != "Alice" || got[0].RecipientName != "Food Bank" {
		t.Errorf("m1 names = %q -> %q", got[0].SenderName, got[0].RecipientName)
	}
	if got[0].RecipientID != "c1" {
		t.Errorf("m1 RecipientID = %q, want c1", got[0].RecipientID)
	}

	if got[1].IsOutgoing {
		t.Error("m2 should be incoming for h1")
	}
	if got[1].SenderName != "Food Bank" || got[1].RecipientID != "h1" {
		t.Errorf("m2 sender = %q, recipient = %q", got[1].SenderName, got[1].RecipientID)
	}
}

func TestService_ListSince_EmptyResult(t *testing.T) {
	stakeholderRepo := &mockStakeholderRepo{
		namesByIDsFn: func(ctx context.Context, ids []string) (map[string]string, error) {
			t.Error("NamesByIDs should not be called for empty result")
			return nil, nil
		},
	}
	svc := NewService(&mockChatRepo{}, &mockDonationRepo{}, stakeholderRepo, nil, testLogger())

	got, err := svc.ListSince(context.Background(), "h1", time.Time{})
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
