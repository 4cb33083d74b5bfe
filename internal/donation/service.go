// Package donation は寄付の作成・参照・状態遷移を提供する。
package donation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// Service は寄付のライフサイクル操作を提供する。
type Service struct {
	donationRepo    repository.DonationRepository
	stakeholderRepo repository.StakeholderRepository
	logger          *slog.Logger
}

// NewService は寄付サービスを生成する。
func NewService(donationRepo repository.DonationRepository, stakeholderRepo repository.StakeholderRepository, logger *slog.Logger) *Service {
	return &Service{
		donationRepo:    donationRepo,
		stakeholderRepo: stakeholderRepo,
		logger:          logger,
	}
}

// Get は寄付を取得する。当事者以外からの参照は拒否する。
func (s *Service) Get(ctx context.Context, stakeholderID, donationID string) (*model.Donation, error) {
	d, err := s.donationRepo.FindByID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("寄付の取得に失敗しました: %w", err)
	}
	if d == nil {
		return nil, model.NewDonationNotFoundError(donationID)
	}
	if !d.Involves(stakeholderID) {
		return nil, model.NewForbiddenError("この寄付の当事者ではありません")
	}
	return d, nil
}

// Create はドナーから慈善団体への寄付をpending状態で作成する。
func (s *Service) Create(ctx context.Context, donorID, charityID string) (*model.Donation, error) {
	if charityID == "" {
		return nil, model.NewValidationError("charityIdは必須です")
	}
	if donorID == charityID {
		return nil, model.NewValidationError("自分自身への寄付はできません")
	}

	charity, err := s.stakeholderRepo.FindByID(ctx, charityID)
	if err != nil {
		return nil, fmt.Errorf("慈善団体の取得に失敗しました: %w", err)
	}
	if charity == nil || !charity.IsCharity() {
		return nil, model.NewValidationError("寄付先は慈善団体である必要があります")
	}

	d := &model.Donation{
		ID:        uuid.New().String(),
		DonorID:   donorID,
		CharityID: charityID,
		Status:    model.DonationStatusPending,
	}
	if err := s.donationRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("寄付の作成に失敗しました: %w", err)
	}

	s.logger.Info("donation created",
		"donation_id", d.ID, "donor_id", donorID, "charity_id", charityID)
	return d, nil
}

// UpdateStatus は寄付の状態を遷移させる。承認・却下は宛先の慈善団体のみ行える。
// pending以外からの遷移は受け付けない。
func (s *Service) UpdateStatus(ctx context.Context, stakeholderID, donationID string, status model.DonationStatus) (*model.Donation, error) {
	if status != model.DonationStatusApproved && status != model.DonationStatusRejected {
		return nil, model.NewValidationError("statusはapprovedまたはrejectedです")
	}

	d, err := s.donationRepo.FindByID(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("寄付の取得に失敗しました: %w", err)
	}
	if d == nil {
		return nil, model.NewDonationNotFoundError(donationID)
	}
	if d.CharityID != stakeholderID {
		return nil, model.NewForbiddenError("寄付の承認・却下は宛先の慈善団体のみ行えます")
	}
	if d.Status != model.DonationStatusPending {
		return nil, model.NewValidationError(fmt.Sprintf("%s状態の寄付は遷移できません", d.Status))
	}

	updated, err := s.donationRepo.UpdateStatus(ctx, donationID, status)
	if err != nil {
		return nil, fmt.Errorf("寄付状態の更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewDonationNotFoundError(donationID)
	}

	d.Status = status
	s.logger.Info("donation status updated",
		"donation_id", donationID, "status", string(status))
	return d, nil
}

// PendingCount は慈善団体宛の承認待ち寄付数を返す。慈善団体以外は0件。
func (s *Service) PendingCount(ctx context.Context, stakeholderID string) (int, error) {
	count, err := s.donationRepo.CountByStatusAndCharity(ctx, model.DonationStatusPending, stakeholderID)
	if err != nil {
		return 0, fmt.Errorf("承認待ち件数の取得に失敗しました: %w", err)
	}
	return count, nil
}
