package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/foodsave/internal/model"
)

// PostgresDonationRepo はPostgreSQLを使用した寄付リポジトリ。
type PostgresDonationRepo struct {
	db *sql.DB
}

// NewPostgresDonationRepo はPostgresDonationRepoを生成する。
func NewPostgresDonationRepo(db *sql.DB) *PostgresDonationRepo {
	return &PostgresDonationRepo{db: db}
}

const donationColumns = `donation_id, donor_id, charity_id, status, created_at, updated_at`

// FindByID は指定IDの寄付を取得する。見つからない場合はnilを返す。
func (r *PostgresDonationRepo) FindByID(ctx context.Context, id string) (*model.Donation, error) {
	d := &model.Donation{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE donation_id = $1`, id,
	).Scan(&d.ID, &d.DonorID, &d.CharityID, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("寄付の取得に失敗しました: %w", err)
	}
	return d, nil
}

// Create は寄付を作成する。
func (r *PostgresDonationRepo) Create(ctx context.Context, d *model.Donation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO donations (donation_id, donor_id, charity_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		d.ID, d.DonorID, d.CharityID, d.Status, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("寄付の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus は寄付の状態を更新する。更新された場合はtrueを返す。
func (r *PostgresDonationRepo) UpdateStatus(ctx context.Context, id string, status model.DonationStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE donations SET status = $1, updated_at = now() WHERE donation_id = $2`,
		status, id,
	)
	if err != nil {
		return false, fmt.Errorf("寄付状態の更新に失敗しました: %w", err)
	}
	return rowsAffected(result)
}

// ListByStatus は指定状態の全寄付をID昇順で返す。
func (r *PostgresDonationRepo) ListByStatus(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error) {
	return r.list(ctx,
		`SELECT `+donationColumns+` FROM donations
		 WHERE status = $1 ORDER BY donation_id ASC`,
		status)
}

// ListByStatusAndCharity は指定状態かつ指定慈善団体宛の寄付を返す。
func (r *PostgresDonationRepo) ListByStatusAndCharity(ctx context.Context, status model.DonationStatus, charityID string) ([]*model.Donation, error) {
	return r.list(ctx,
		`SELECT `+donationColumns+` FROM donations
		 WHERE status = $1 AND charity_id = $2 ORDER BY donation_id ASC`,
		status, charityID)
}

// ListByStatusAndParticipant は指定状態かつ指定ステークホルダーが当事者の寄付を返す。
func (r *PostgresDonationRepo) ListByStatusAndParticipant(ctx context.Context, status model.DonationStatus, stakeholderID string) ([]*model.Donation, error) {
	return r.list(ctx,
		`SELECT `+donationColumns+` FROM donations
		 WHERE status = $1 AND (donor_id = $2 OR charity_id = $2)
		 ORDER BY donation_id ASC`,
		status, stakeholderID)
}

// CountByStatusAndCharity は指定状態かつ指定慈善団体宛の寄付数を返す。
func (r *PostgresDonationRepo) CountByStatusAndCharity(ctx context.Context, status model.DonationStatus, charityID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM donations WHERE status = $1 AND charity_id = $2`,
		status, charityID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("寄付数の取得に失敗しました: %w", err)
	}
	return count, nil
}

func (r *PostgresDonationRepo) list(ctx context.Context, query string, args ...any) ([]*model.Donation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("寄付一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []*model.Donation
	for rows.Next() {
		d := &model.Donation{}
		if err := rows.Scan(&d.ID, &d.DonorID, &d.CharityID, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("寄付行のスキャンに失敗しました: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("寄付一覧の走査に失敗しました: %w", err)
	}
	return result, nil
}
