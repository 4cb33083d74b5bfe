// Package notification は賞味期限接近アイテムの通知フィードを提供する。
// 通知は独立した行ではなく、食品アイテム行の分類と既読・削除フラグから導出される。
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/foodsave/internal/expiry"
	"github.com/hitoshi/foodsave/internal/model"
	"github.com/hitoshi/foodsave/internal/repository"
)

// Notification は通知フィードの1件を表す。
type Notification struct {
	ItemID     string        // 食品アイテムID
	ItemLabel  string        // "{quantity} {name}" 形式の表示ラベル
	ExpiryDate time.Time     // 賞味期限
	DiffDays   int           // 今日からの日数差
	Status     expiry.Status // 期限の状態ティア
	Message    string        // 表示用メッセージ
	Read       bool          // 既読フラグ
}

// InventoryItem は在庫一覧の1件（全アイテム＋期限注釈）を表す。
type InventoryItem struct {
	Item           *model.FoodItem
	Classification expiry.Classification
}

// Service は通知フィードの構築と既読・削除操作を提供する。
type Service struct {
	foodItemRepo repository.FoodItemRepository
	windowDays   int
	now          func() time.Time
	logger       *slog.Logger
}

// NewService は通知サービスを生成する。
// windowDaysが0以下の場合は既定値を使う。
func NewService(foodItemRepo repository.FoodItemRepository, windowDays int, logger *slog.Logger) *Service {
	if windowDays <= 0 {
		windowDays = expiry.DefaultNotifyWindowDays
	}
	return &Service{
		foodItemRepo: foodItemRepo,
		windowDays:   windowDays,
		now:          time.Now,
		logger:       logger,
	}
}

// ListNotifiable はステークホルダーの通知フィードを返す。
// 削除済みを除外し、diffDays <= maxDays のアイテムだけをID昇順で返す。
// maxDaysが0以下の場合はサービス既定のウィンドウを使う。
// 期限切れ（diffDays <= 0）も通知対象に含まれる。
func (s *Service) ListNotifiable(ctx context.Context, stakeholderID string, maxDays int) ([]*Notification, error) {
	if maxDays <= 0 {
		maxDays = s.windowDays
	}
	items, err := s.foodItemRepo.ListByStakeholder(ctx, stakeholderID)
	if err != nil {
		return nil, fmt.Errorf("食品アイテムの取得に失敗しました: %w", err)
	}

	today := s.now()
	notifications := make([]*Notification, 0, len(items))
	for _, item := range items {
		if item.NotificationDeleted {
			continue
		}
		c := expiry.Classify(item.ExpiryDate, today)
		if c.DiffDays > maxDays {
			continue
		}
		notifications = append(notifications, &Notification{
			ItemID:     item.ID,
			ItemLabel:  fmt.Sprintf("%d %s", item.Quantity, item.Name),
			ExpiryDate: item.ExpiryDate,
			DiffDays:   c.DiffDays,
			Status:     c.Status,
			Message:    c.Message,
			Read:       item.NotificationRead,
		})
	}
	return notifications, nil
}

// ListInventory は全アイテムを期限分類の注釈付きで返す。
// 通知フィードと違い、削除フラグやウィンドウによる絞り込みは行わない。
func (s *Service) ListInventory(ctx context.Context, stakeholderID string) ([]*InventoryItem, error) {
	items, err := s.foodItemRepo.ListByStakeholder(ctx, stakeholderID)
	if err != nil {
		return nil, fmt.Errorf("食品アイテムの取得に失敗しました: %w", err)
	}

	today := s.now()
	inventory := make([]*InventoryItem, 0, len(items))
	for _, item := range items {
		inventory = append(inventory, &InventoryItem{
			Item:           item,
			Classification: expiry.Classify(item.ExpiryDate, today),
		})
	}
	return inventory, nil
}

// MarkRead は通知を既読にする。
// 所有者不一致と不存在は区別せず、どちらもNOTIFICATION_NOT_FOUNDを返す。
// IDがUUIDとして不正な場合も存在しない通知として扱う。
func (s *Service) MarkRead(ctx context.Context, stakeholderID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return model.NewNotificationNotFoundError(itemID)
	}
	updated, err := s.foodItemRepo.MarkNotificationRead(ctx, stakeholderID, itemID)
	if err != nil {
		return fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	if !updated {
		return model.NewNotificationNotFoundError(itemID)
	}
	s.logger.Info("notification marked as read", "stakeholder_id", stakeholderID, "item_id", itemID)
	return nil
}

// MarkDeleted は通知を削除済みにする。アイテム行そのものは残る。
// 未検出時のセマンティクスはMarkReadと同一だがメッセージは分ける。
func (s *Service) MarkDeleted(ctx context.Context, stakeholderID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return model.NewNotificationDeleteNotFoundError(itemID)
	}
	updated, err := s.foodItemRepo.MarkNotificationDeleted(ctx, stakeholderID, itemID)
	if err != nil {
		return fmt.Errorf("通知の削除に失敗しました: %w", err)
	}
	if !updated {
		return model.NewNotificationDeleteNotFoundError(itemID)
	}
	s.logger.Info("notification deleted", "stakeholder_id", stakeholderID, "item_id", itemID)
	return nil
}
