package donation

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hitoshi/foodsave/internal/model"
)

type mockDonationRepo struct {
	findByIDFn                 func(ctx context.Context, id string) (*model.Donation, error)
	createFn                   func(ctx context.Context, d *model.Donation) error
	updateStatusFn             func(ctx context.Context, id string, status model.DonationStatus) (bool, error)
	countByStatusAndCharityFn  func(ctx context.Context, status model.DonationStatus, charityID string) (int, error)
}

func (m *mockDonationRepo) FindByID(ctx context.Context, id string) (*model.Donation, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockDonationRepo) Create(ctx context.Context, d *model.Donation) error {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return nil
}
func (m *mockDonationRepo) UpdateStatus(ctx context.Context, id string, status model.DonationStatus) (bool, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return true, nil
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
	if m.countByStatusAndCharityFn != nil {
		return m.countByStatusAndCharityFn(ctx, status, charityID)
	}
	return 0, nil
}

type mockStakeholderRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Stakeholder, error)
}

func (m *mockStakeholderRepo) FindByID(ctx context.Context, id string) (*model.Stakeholder, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockStakeholderRepo) FindByEmail(ctx context.Context, email string) (*model.Stakeholder, error) {
	return nil, nil
}
func (m *mockStakeholderRepo) Create(ctx context.Context, s *model.Stakeholder) error {
	return nil
}
func (m *mockStakeholderRepo) NextIDForPrefix(ctx context.Context, prefix string) (string, error) {
	return "", nil
}
func (m *mockStakeholderRepo) List(ctx context.Context) ([]*model.Stakeholder, error) {
	return nil, nil
}
func (m *mockStakeholderRepo) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func charityRepo() *mockStakeholderRepo {
	return &mockStakeholderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Stakeholder, error) {
			return &model.Stakeholder{ID: id, Name: "Charity"}, nil
		},
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != code {
		t.Fatalf("error = %v, want code %s", err, code)
	}
}

func TestService_Create(t *testing.T) {
	var created *model.Donation
	repo := &mockDonationRepo{
		createFn: func(ctx context.Context, d *model.Donation) error {
			created = d
			return nil
		},
	}
	svc := NewService(repo, charityRepo(), testLogger())

	d, err := svc.Create(context.Background(), "h1", "c1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if d.Status != model.DonationStatusPending {
		t.Errorf("Status = %s, want pending", d.Status)
	}
	if created.DonorID != "h1" || created.CharityID != "c1" {
		t.Errorf("created = %+v", created)
	}
	if created.ID == "" {
		t.Error("donation should be assigned an ID")
	}
}

func TestService_Create_SelfDonation(t *testing.T) {
	svc := NewService(&mockDonationRepo{}, charityRepo(), testLogger())

	_, err := svc.Create(context.Background(), "c1", "c1")
	assertCode(t, err, model.ErrCodeValidationFailed)
}

func TestService_Create_TargetMustBeCharity(t *testing.T) {
	repo := &mockStakeholderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Stakeholder, error) {
			return &model.Stakeholder{ID: "h2", Name: "Household"}, nil
		},
	}
	svc := NewService(&mockDonationRepo{}, repo, testLogger())

	_, err := svc.Create(context.Background(), "h1", "h2")
	assertCode(t, err, model.ErrCodeValidationFailed)
}

func TestService_Get_NonParticipantForbidden(t *testing.T) {
	repo := &mockDonationRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Donation, error) {
			return &model.Donation{ID: id, DonorID: "h1", CharityID: "c1", Status: model.DonationStatusPending}, nil
		},
	}
	svc := NewService(repo, charityRepo(), testLogger())

	if _, err := svc.Get(context.Background(), "h1", "d1"); err != nil {
		t.Fatalf("participant Get() error = %v", err)
	}
	_, err := svc.Get(context.Background(), "h9", "d1")
	assertCode(t, err, model.ErrCodeForbidden)
}

func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(&mockDonationRepo{}, charityRepo(), testLogger())

	_, err := svc.Get(context.Background(), "h1", "missing")
	assertCode(t, err, model.ErrCodeDonationNotFound)
}

func TestService_UpdateStatus(t *testing.T) {
	pending := func(ctx context.Context, id string) (*model.Donation, error) {
		return &model.Donation{ID: id, DonorID: "h1", CharityID: "c1", Status: model.DonationStatusPending}, nil
	}

	t.Run("慈善団体が承認できる", func(t *testing.T) {
		repo := &mockDonationRepo{findByIDFn: pending}
		svc := NewService(repo, charityRepo(), testLogger())

		d, err := svc.UpdateStatus(context.Background(), "c1", "d1", model.DonationStatusApproved)
		if err != nil {
			t.Fatalf("UpdateStatus() error = %v", err)
		}
		if d.Status != model.DonationStatusApproved {
			t.Errorf("Status = %s, want approved", d.Status)
		}
	})

	t.Run("ドナーは承認できない", func(t *testing.T) {
		repo := &mockDonationRepo{findByIDFn: pending}
		svc := NewService(repo, charityRepo(), testLogger())

		_, err := svc.UpdateStatus(context.Background(), "h1", "d1", model.DonationStatusApproved)
		assertCode(t, err, model.ErrCodeForbidden)
	})

	t.Run("pending以外からは遷移できない", func(t *testing.T) {
		repo := &mockDonationRepo{
			findByIDFn: func(ctx context.Context, id string) (*model.Donation, error) {
				return &model.Donation{ID: id, DonorID: "h1", CharityID: "c1", Status: model.DonationStatusApproved}, nil
			},
		}
		svc := NewService(repo, charityRepo(), testLogger())

		_, err := svc.UpdateStatus(context.Background(), "c1", "d1", model.DonationStatusRejected)
		assertCode(t, err, model.ErrCodeValidationFailed)
	})

	t.Run("不正なステータスは拒否する", func(t *testing.T) {
		svc := NewService(&mockDonationRepo{findByIDFn: pending}, charityRepo(), testLogger())

		_, err := svc.UpdateStatus(context.Background(), "c1", "d1", model.DonationStatusPending)
		assertCode(t, err, model.ErrCodeValidationFailed)
	})
}

func TestService_PendingCount(t *testing.T) {
	repo := &mockDonationRepo{
		countByStatusAndCharityFn: func(ctx context.Context, status model.DonationStatus, charityID string) (int, error) {
			if status != model.DonationStatusPending || charityID != "c1" {
				t.Errorf("queried status=%s charity=%s", status, charityID)
			}
			return 3, nil
		},
	}
	svc := NewService(repo, charityRepo(), testLogger())

	count, err := svc.PendingCount(context.Background(), "c1")
	if err != nil {
		t.Fatalf("PendingCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}
