package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/foodsave/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresChatMessageRepo はPostgreSQLを使用したチャットメッセージリポジトリ。
type PostgresChatMessageRepo struct {
	db *sql.DB
}

// NewPostgresChatMessageRepo はPostgresChatMessageRepoを生成する。
func NewPostgresChatMessageRepo(db *sql.DB) *PostgresChatMessageRepo {
	return &PostgresChatMessageRepo{db: db}
}

const chatColumns = `id, donation_id, sender_id, payload, iv, icon, sent_at, read_receipt, delivered`

// ListSenders は寄付に既にメッセージ行を持つ送信者IDの集合を返す。
func (r *PostgresChatMessageRepo) ListSenders(ctx context.Context, donationID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT sender_id FROM chat_messages WHERE donation_id = $1`,
		donationID,
	)
	if err != nil {
		return nil, fmt.Errorf("送信者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var senders []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("送信者行のスキャンに失敗しました: %w", err)
		}
		senders = append(senders, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("送信者一覧の走査に失敗しました: %w", err)
	}
	return senders, nil
}

// InsertSeed はシード行を挿入する。
// 部分一意制約 (donation_id, sender_id) WHERE payload = '' への衝突は
// 別の書き込み側が先にシード済みだったことを意味するので、false, nil を返す。
func (r *PostgresChatMessageRepo) InsertSeed(ctx context.Context, msg *model.ChatMessage) (bool, error) {
	if err := r.insert(ctx, msg); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Insert は通常メッセージ行を挿入する。
func (r *PostgresChatMessageRepo) Insert(ctx context.Context, msg *model.ChatMessage) error {
	return r.insert(ctx, msg)
}

func (r *PostgresChatMessageRepo) insert(ctx context.Context, msg *model.ChatMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages
		 (id, donation_id, sender_id, payload, iv, icon, sent_at, read_receipt, delivered)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		msg.ID, msg.DonationID, msg.SenderID, msg.Payload, msg.IV,
		msg.Icon, msg.SentAt, msg.ReadReceipt, msg.Delivered,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			// 呼び出し側で一意制約違反を判別できるよう元のエラーを保持する
			return fmt.Errorf("メッセージの挿入に失敗しました: %w", pqErr)
		}
		return fmt.Errorf("メッセージの挿入に失敗しました: %w", err)
	}
	return nil
}

// MarkRead は寄付のメッセージのうち sender != readerID の行を既読化して返す。
func (r *PostgresChatMessageRepo) MarkRead(ctx context.Context, donationID, readerID string) ([]*model.ChatMessage, error) {
	return r.updateFlags(ctx,
		`UPDATE chat_messages SET read_receipt = true
		 WHERE donation_id = $1 AND sender_id <> $2
		 RETURNING `+chatColumns,
		donationID, readerID)
}

// MarkDelivered は寄付のメッセージのうち sender != recipientID の行を配達済みにして返す。
func (r *PostgresChatMessageRepo) MarkDelivered(ctx context.Context, donationID, recipientID string) ([]*model.ChatMessage, error) {
	return r.updateFlags(ctx,
		`UPDATE chat_messages SET delivered = true
		 WHERE donation_id = $1 AND sender_id <> $2
		 RETURNING `+chatColumns,
		donationID, recipientID)
}

func (r *PostgresChatMessageRepo) updateFlags(ctx context.Context, query, donationID, otherID string) ([]*model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, donationID, otherID)
	if err != nil {
		return nil, fmt.Errorf("メッセージフラグの更新に失敗しました: %w", err)
	}
	defer rows.Close()

	var updated []*model.ChatMessage
	for rows.Next() {
		msg := &model.ChatMessage{}
		if err := rows.Scan(
			&msg.ID, &msg.DonationID, &msg.SenderID, &msg.Payload, &msg.IV,
			&msg.Icon, &msg.SentAt, &msg.ReadReceipt, &msg.Delivered,
		); err != nil {
			return nil, fmt.Errorf("メッセージ行のスキャンに失敗しました: %w", err)
		}
		updated = append(updated, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("更新行の走査に失敗しました: %w", err)
	}
	return updated, nil
}

// ListForParticipantSince は指定ステークホルダーが当事者である寄付の
// sent_at >= since のメッセージを昇順で返す。
// 同時刻のメッセージはID昇順で安定化する。
func (r *PostgresChatMessageRepo) ListForParticipantSince(ctx context.Context, stakeholderID string, since time.Time) ([]ChatMessageWithDonation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.donation_id, m.sender_id, m.payload, m.iv, m.icon,
		        m.sent_at, m.read_receipt, m.delivered,
		        d.donor_id, d.charity_id
		 FROM chat_messages m
		 JOIN donations d ON d.donation_id = m.donation_id
		 WHERE (d.donor_id = $1 OR d.charity_id = $1) AND m.sent_at >= $2
		 ORDER BY m.sent_at ASC, m.id ASC`,
		stakeholderID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("メッセージ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []ChatMessageWithDonation
	for rows.Next() {
		var row ChatMessageWithDonation
		if err := rows.Scan(
			&row.ID, &row.DonationID, &row.SenderID, &row.Payload, &row.IV,
			&row.Icon, &row.SentAt, &row.ReadReceipt, &row.Delivered,
			&row.DonorID, &row.CharityID,
		); err != nil {
			return nil, fmt.Errorf("メッセージ行のスキャンに失敗しました: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メッセージ一覧の走査に失敗しました: %w", err)
	}
	return result, nil
}
