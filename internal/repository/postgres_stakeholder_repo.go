package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/foodsave/internal/model"
)

// PostgresStakeholderRepo はPostgreSQLを使用したステークホルダーリポジトリ。
type PostgresStakeholderRepo struct {
	db *sql.DB
}

// NewPostgresStakeholderRepo はPostgresStakeholderRepoを生成する。
func NewPostgresStakeholderRepo(db *sql.DB) *PostgresStakeholderRepo {
	return &PostgresStakeholderRepo{db: db}
}

// FindByID は指定IDのステークホルダーを取得する。見つからない場合はnilを返す。
func (r *PostgresStakeholderRepo) FindByID(ctx context.Context, id string) (*model.Stakeholder, error) {
	return r.findOne(ctx,
		`SELECT stakeholder_id, name, email, password_hash, region, capacity
		 FROM stakeholders WHERE stakeholder_id = $1`, id)
}

// FindByEmail はメールアドレスでステークホルダーを検索する。見つからない場合はnilを返す。
func (r *PostgresStakeholderRepo) FindByEmail(ctx context.Context, email string) (*model.Stakeholder, error) {
	return r.findOne(ctx,
		`SELECT stakeholder_id, name, email, password_hash, region, capacity
		 FROM stakeholders WHERE email = $1`, email)
}

func (r *PostgresStakeholderRepo) findOne(ctx context.Context, query string, arg any) (*model.Stakeholder, error) {
	s := &model.Stakeholder{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Region, &s.Capacity,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ステークホルダーの取得に失敗しました: %w", err)
	}
	return s, nil
}

// Create はステークホルダーを作成する。
func (r *PostgresStakeholderRepo) Create(ctx context.Context, s *model.Stakeholder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stakeholders (stakeholder_id, name, email, password_hash, region, capacity)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Name, s.Email, s.PasswordHash, s.Region, s.Capacity,
	)
	if err != nil {
		return fmt.Errorf("ステークホルダーの作成に失敗しました: %w", err)
	}
	return nil
}

// NextIDForPrefix はプレフィックス配下の次の連番IDを返す。
// 数値部を長さ優先で比較して最大値を求める（"h9" < "h10" を正しく扱う）。
func (r *PostgresStakeholderRepo) NextIDForPrefix(ctx context.Context, prefix string) (string, error) {
	var lastID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT stakeholder_id FROM stakeholders
		 WHERE stakeholder_id LIKE $1 || '%'
		 ORDER BY length(stakeholder_id) DESC, stakeholder_id DESC
		 LIMIT 1`,
		prefix,
	).Scan(&lastID)
	if err == sql.ErrNoRows {
		return prefix + "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("ID採番に失敗しました: %w", err)
	}

	var lastNum int
	if _, err := fmt.Sscanf(lastID.String[len(prefix):], "%d", &lastNum); err != nil {
		return "", fmt.Errorf("既存IDの解析に失敗しました (%q): %w", lastID.String, err)
	}
	return fmt.Sprintf("%s%d", prefix, lastNum+1), nil
}

// List は全ステークホルダーをID昇順で返す。
func (r *PostgresStakeholderRepo) List(ctx context.Context) ([]*model.Stakeholder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT stakeholder_id, name, email, password_hash, region, capacity
		 FROM stakeholders ORDER BY stakeholder_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("ステークホルダー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []*model.Stakeholder
	for rows.Next() {
		s := &model.Stakeholder{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Region, &s.Capacity); err != nil {
			return nil, fmt.Errorf("ステークホルダー行のスキャンに失敗しました: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ステークホルダー一覧の走査に失敗しました: %w", err)
	}
	return result, nil
}

// NamesByIDs は指定IDの表示名マップを返す。存在しないIDは含まれない。
func (r *PostgresStakeholderRepo) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT stakeholder_id, name FROM stakeholders WHERE stakeholder_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("表示名の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("表示名行のスキャンに失敗しました: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("表示名の走査に失敗しました: %w", err)
	}
	return names, nil
}
