package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodsave/internal/model"
)

// PostgresFoodItemRepo はPostgreSQLを使用した食品アイテムリポジトリ。
type PostgresFoodItemRepo struct {
	db *sql.DB
}

// NewPostgresFoodItemRepo はPostgresFoodItemRepoを生成する。
func NewPostgresFoodItemRepo(db *sql.DB) *PostgresFoodItemRepo {
	return &PostgresFoodItemRepo{db: db}
}

const foodItemColumns = `id, stakeholder_id, name, expiry_date, quantity, category,
	COALESCE(donation_id, ''), measure_per_unit, unit,
	notification_read, notification_deleted, created_at`

func scanFoodItem(scanner interface{ Scan(...any) error }) (*model.FoodItem, error) {
	item := &model.FoodItem{}
	err := scanner.Scan(
		&item.ID, &item.StakeholderID, &item.Name, &item.ExpiryDate,
		&item.Quantity, &item.Category, &item.DonationID,
		&item.MeasurePerUnit, &item.Unit,
		&item.NotificationRead, &item.NotificationDeleted, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID は指定IDのアイテムを取得する。見つからない場合はnilを返す。
func (r *PostgresFoodItemRepo) FindByID(ctx context.Context, id string) (*model.FoodItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+foodItemColumns+` FROM food_items WHERE id = $1`, id)

	item, err := scanFoodItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("食品アイテムの取得に失敗しました: %w", err)
	}
	return item, nil
}

// ListByStakeholder はステークホルダーの全アイテムをID昇順で返す。
// 順序はIDで安定・決定的に保つ（通知フィードの順序保証）。
func (r *PostgresFoodItemRepo) ListByStakeholder(ctx context.Context, stakeholderID string) ([]*model.FoodItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+foodItemColumns+` FROM food_items
		 WHERE stakeholder_id = $1 ORDER BY id ASC`,
		stakeholderID,
	)
	if err != nil {
		return nil, fmt.Errorf("食品アイテム一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.FoodItem
	for rows.Next() {
		item, err := scanFoodItem(rows)
		if err != nil {
			return nil, fmt.Errorf("食品アイテム行のスキャンに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("食品アイテム一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// Create はアイテムを作成する。
func (r *PostgresFoodItemRepo) Create(ctx context.Context, item *model.FoodItem) error {
	return insertFoodItem(ctx, r.db, item)
}

// CreateBatch は複数アイテムを単一トランザクションで作成する。
// 1件でも失敗した場合は全体をロールバックする。
func (r *PostgresFoodItemRepo) CreateBatch(ctx context.Context, items []*model.FoodItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		if err := insertFoodItem(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// execer は*sql.DBと*sql.Txの共通部分を抽象化する。
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertFoodItem(ctx context.Context, ex execer, item *model.FoodItem) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO food_items
		 (id, stakeholder_id, name, expiry_date, quantity, category, donation_id,
		  measure_per_unit, unit, notification_read, notification_deleted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12)`,
		item.ID, item.StakeholderID, item.Name, item.ExpiryDate,
		item.Quantity, item.Category, item.DonationID,
		item.MeasurePerUnit, item.Unit,
		item.NotificationRead, item.NotificationDeleted, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("食品アイテムの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateOwned は所有者が一致する場合のみアイテムを更新する。
func (r *PostgresFoodItemRepo) UpdateOwned(ctx context.Context, item *model.FoodItem) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE food_items
		 SET name = $1, expiry_date = $2, quantity = $3, category = $4,
		     donation_id = NULLIF($5, ''), measure_per_unit = $6, unit = $7
		 WHERE id = $8 AND stakeholder_id = $9`,
		item.Name, item.ExpiryDate, item.Quantity, item.Category,
		item.DonationID, item.MeasurePerUnit, item.Unit,
		item.ID, item.StakeholderID,
	)
	if err != nil {
		return false, fmt.Errorf("食品アイテムの更新に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// DeleteOwned は所有者が一致する場合のみアイテムを削除する。
func (r *PostgresFoodItemRepo) DeleteOwned(ctx context.Context, stakeholderID, itemID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM food_items WHERE id = $1 AND stakeholder_id = $2`,
		itemID, stakeholderID,
	)
	if err != nil {
		return false, fmt.Errorf("食品アイテムの削除に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// MarkNotificationRead は所有者条件付きの単一UPDATEで既読フラグを立てる。
// 所有権チェックと更新を分離しないことで、チェックと更新の間の
// 所有者変更レースを構造的に排除する。
func (r *PostgresFoodItemRepo) MarkNotificationRead(ctx context.Context, stakeholderID, itemID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE food_items SET notification_read = true
		 WHERE id = $1 AND stakeholder_id = $2`,
		itemID, stakeholderID,
	)
	if err != nil {
		return false, fmt.Errorf("通知既読フラグの更新に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// MarkNotificationDeleted は所有者条件付きの単一UPDATEで削除フラグを立てる。
func (r *PostgresFoodItemRepo) MarkNotificationDeleted(ctx context.Context, stakeholderID, itemID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE food_items SET notification_deleted = true
		 WHERE id = $1 AND stakeholder_id = $2`,
		itemID, stakeholderID,
	)
	if err != nil {
		return false, fmt.Errorf("通知削除フラグの更新に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}
