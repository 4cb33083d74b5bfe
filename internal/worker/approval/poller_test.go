package approval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/foodsave/internal/model"
)

// --- モック ---

type mockDonationRepo struct {
	listByStatusFn func(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error)
}

func (m *mockDonationRepo) FindByID(ctx context.Context, id string) (*model.Donation, error) {
	return nil, nil
}
func (m *mockDonationRepo) Create(ctx context.Context, d *model.Donation) error { return nil }
func (m *mockDonationRepo) UpdateStatus(ctx context.Context, id string, status model.DonationStatus) (bool, error) {
	return false, nil
}
func (m *mockDonationRepo) ListByStatus(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status)
	}
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

type mockSeeder struct {
	ensureSeededFn func(ctx context.Context, d *model.Donation) ([]*model.ChatMessage, error)
	calls          []string
}

func (m *mockSeeder) EnsureSeeded(ctx context.Context, d *model.Donation) ([]*model.ChatMessage, error) {
	m.calls = append(m.calls, d.ID)
	if m.ensureSeededFn != nil {
		return m.ensureSeededFn(ctx, d)
	}
	return nil, nil
}

type mockCycleRecorder struct {
	successes int
	failures  int
	inserted  int
}

func (m *mockCycleRecorder) RecordSeedCycleSuccess()       { m.successes++ }
func (m *mockCycleRecorder) RecordSeedCycleFailure()       { m.failures++ }
func (m *mockCycleRecorder) RecordSeedsInserted(count int) { m.inserted += count }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- テスト ---

func TestPoller_RunOnce_QueriesApprovedOnly(t *testing.T) {
	var queried model.DonationStatus
	repo := &mockDonationRepo{
		listByStatusFn: func(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error) {
			queried = status
			return nil, nil
		},
	}
	p := NewPoller(repo, &mockSeeder{}, testLogger())

	if err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if queried != model.DonationStatusApproved {
		t.Errorf("queried status = %q, want approved", queried)
	}
}

func TestPoller_RunOnce_SeedsEachApprovedDonation(t *testing.T) {
	repo := &mockDonationRepo{
		listByStatusFn: func(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error) {
			return []*model.Donation{
				{ID: "d1", DonorID: "h1", CharityID: "c1", Status: model.DonationStatusApproved},
				{ID: "d2", DonorID: "h2", CharityID: "c1", Status: model.DonationStatusApproved},
			}, nil
		},
	}
	seeder := &mockSeeder{
		ensureSeededFn: func(ctx context.Context, d *model.Donation) ([]*model.ChatMessage, error) {
			return []*model.ChatMessage{
				{DonationID: d.ID, SenderID: d.DonorID},
				{DonationID: d.ID, SenderID: d.CharityID},
			}, nil
		},
	}
	p := NewPoller(repo, seeder, testLogger())

	if err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(seeder.calls) != 2 || seeder.calls[0] != "d1" || seeder.calls[1] != "d2" {
		t.Errorf("seeded donations = %v", seeder.calls)
	}
}

func TestPoller_RunOnce_OneFailureDoesNotStopOthers(t *testing.T) {
	repo := &mockDonationRepo{
		listByStatusFn: func(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error) {
			return []*model.Donation{
				{ID: "d1"}, {ID: "d2"}, {ID: "d3"},
			}, nil
		},
	}
	seeder := &mockSeeder{
		ensureSeededFn: func(ctx context.Context, d *model.Donation) ([]*model.ChatMessage, error) {
			if d.ID == "d2" {
				return nil, errors.New("connection reset")
			}
			return nil, nil
		},
	}
	p := NewPoller(repo, seeder, testLogger())

	if err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() should not fail for individual seed errors: %v", err)
	}
	if len(seeder.calls) != 3 {
		t.Errorf("seeder called %d times, want 3", len(seeder.calls))
	}
}

func TestPoller_RunOnce_PartialSeedStillCounted(t *testing.T) {
	repo := &mockDonationRepo{
		listByStatusFn: func(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error) {
			return []*model.Donation{
				{ID: "d1", DonorID: "h1", CharityID: "c1"},
			}, nil
		},
	}
	// 寄付者側だけ投入できて慈善団体側で失敗したケース
	seeder := &mockSeeder{
		ensureSeededFn: func(ctx context.Context, d *model.Donation) ([]*model.ChatMessage, error) {
			return []*model.ChatMessage{
				{DonationID: d.ID, SenderID: d.DonorID},
			}, errors.New("connection reset")
		},
	}
	recorder := &mockCycleRecorder{}
	p := NewPoller(repo, seeder, testLogger())
	p.Metrics = recorder

	if err := p.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if recorder.inserted != 1 {
		t.Errorf("inserted = %d, want 1: partially seeded rows must be counted", recorder.inserted)
	}
}

func TestPoller_RunOnce_ListFailureReturnsError(t *testing.T) {
	repo := &mockDonationRepo{
		listByStatusFn: func(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error) {
			return nil, errors.New("connection refused")
		},
	}
	p := NewPoller(repo, &mockSeeder{}, testLogger())

	if err := p.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error when listing fails")
	}
}

func TestPoller_Start_StopsOnContextCancel(t *testing.T) {
	repo := &mockDonationRepo{}
	p := NewPoller(repo, &mockSeeder{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not stop after context cancel")
	}
}
