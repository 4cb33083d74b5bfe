// Package fooditem は食品アイテムのCRUD操作を提供する。
package fooditem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// Input はアイテムの作成・更新に使う入力。
type Input struct {
	Name           string
	ExpiryDate     time.Time
	Quantity       int
	Category       string
	DonationID     string
	MeasurePerUnit string
	Unit           string
}

// Service は食品アイテムのCRUDを提供する。
// 更新と削除は所有者条件付きの単一UPDATEで行い、
// 他人のアイテムは存在しないアイテムと区別なくNOT_FOUNDになる。
type Service struct {
	foodItemRepo repository.FoodItemRepository
	logger       *slog.Logger
}

// NewService は食品アイテムサービスを生成する。
func NewService(foodItemRepo repository.FoodItemRepository, logger *slog.Logger) *Service {
	return &Service{
		foodItemRepo: foodItemRepo,
		logger:       logger,
	}
}

func validate(in Input) error {
	if in.Name == "" {
		return model.NewValidationError("nameは必須です")
	}
	if in.ExpiryDate.IsZero() {
		return model.NewValidationError("expiryDateは必須です")
	}
	if in.Quantity <= 0 {
		return model.NewValidationError("quantityは1以上の整数です")
	}
	return nil
}

// List はステークホルダーの全アイテムをID昇順で返す。
func (s *Service) List(ctx context.Context, stakeholderID string) ([]*model.FoodItem, error) {
	items, err := s.foodItemRepo.ListByStakeholder(ctx, stakeholderID)
	if err != nil {
		return nil, fmt.Errorf("食品アイテムの取得に失敗しました: %w", err)
	}
	return items, nil
}

// Create はアイテムを作成する。
func (s *Service) Create(ctx context.Context, stakeholderID string, in Input) (*model.FoodItem, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	item := &model.FoodItem{
		ID:             uuid.New().String(),
		StakeholderID:  stakeholderID,
		Name:           in.Name,
		ExpiryDate:     in.ExpiryDate,
		Quantity:       in.Quantity,
		Category:       in.Category,
		DonationID:     in.DonationID,
		MeasurePerUnit: in.MeasurePerUnit,
		Unit:           in.Unit,
	}
	if err := s.foodItemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("食品アイテムの作成に失敗しました: %w", err)
	}

	s.logger.Info("food item created",
		"stakeholder_id", stakeholderID, "item_id", item.ID)
	return item, nil
}

// Update は所有者が一致する場合のみアイテムを更新する。
// 所有者不一致と不存在は区別せず、どちらもFOOD_ITEM_NOT_FOUNDを返す。
// IDがUUIDとして不正な場合も存在しないアイテムとして扱う。
func (s *Service) Update(ctx context.Context, stakeholderID, itemID string, in Input) (*model.FoodItem, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(itemID); err != nil {
		return nil, model.NewFoodItemNotFoundError(itemID)
	}

	item := &model.FoodItem{
		ID:             itemID,
		StakeholderID:  stakeholderID,
		Name:           in.Name,
		ExpiryDate:     in.ExpiryDate,
		Quantity:       in.Quantity,
		Category:       in.Category,
		DonationID:     in.DonationID,
		MeasurePerUnit: in.MeasurePerUnit,
		Unit:           in.Unit,
	}
	updated, err := s.foodItemRepo.UpdateOwned(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("食品アイテムの更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewFoodItemNotFoundError(itemID)
	}
	return item, nil
}

// Delete は所有者が一致する場合のみアイテムを削除する。
func (s *Service) Delete(ctx context.Context, stakeholderID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return model.NewFoodItemNotFoundError(itemID)
	}
	deleted, err := s.foodItemRepo.DeleteOwned(ctx, stakeholderID, itemID)
	if err != nil {
		return fmt.Errorf("食品アイテムの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewFoodItemNotFoundError(itemID)
	}
	s.logger.Info("food item deleted",
		"stakeholder_id", stakeholderID, "item_id", itemID)
	return nil
}
