// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/foodsave/internal/model"
)

// StakeholderRepository はステークホルダーデータの永続化インターフェース。
type StakeholderRepository interface {
	// FindByID は指定IDのステークホルダーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Stakeholder, error)

	// FindByEmail はメールアドレスでステークホルダーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Stakeholder, error)

	// Create はステークホルダーを作成する。
	Create(ctx context.Context, s *model.Stakeholder) error

	// NextIDForPrefix はプレフィックス配下の次の連番IDを返す（例: "h0", "h1", ...）。
	// 数値部の長さを考慮して最大値を求める（"h9"と"h10"の辞書順問題を回避）。
	NextIDForPrefix(ctx context.Context, prefix string) (string, error)

	// List は全ステークホルダーを返す。ダイジェストポーラーの走査に使う。
	List(ctx context.Context) ([]*model.Stakeholder, error)

	// NamesByIDs は指定IDの表示名マップを返す。存在しないIDは含まれない。
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// FoodItemRepository は食品アイテムデータの永続化インターフェース。
// 所有者条件付きの更新はすべて単一のconditional UPDATEで行い、
// read-then-writeの競合を排除する。
type FoodItemRepository interface {
	// FindByID は指定IDのアイテムを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.FoodItem, error)

	// ListByStakeholder はステークホルダーの全アイテムをID昇順で返す。
	ListByStakeholder(ctx context.Context, stakeholderID string) ([]*model.FoodItem, error)

	// Create はアイテムを作成する。
	Create(ctx context.Context, item *model.FoodItem) error

	// CreateBatch は複数アイテムを単一トランザクションで作成する。
	// 1件でも失敗した場合は全体をロールバックする。
	CreateBatch(ctx context.Context, items []*model.FoodItem) error

	// UpdateOwned は所有者が一致する場合のみアイテムを更新する。
	// 更新された場合はtrueを返す。
	UpdateOwned(ctx context.Context, item *model.FoodItem) (bool, error)

	// DeleteOwned は所有者が一致する場合のみアイテムを削除する。
	// 削除された場合はtrueを返す。
	DeleteOwned(ctx context.Context, stakeholderID, itemID string) (bool, error)

	// MarkNotificationRead は所有者が一致する場合のみnotification_readをtrueにする。
	// WHERE id AND stakeholder_id の単一UPDATEで原子的に行う。
	// 更新された場合はtrueを返す（所有者不一致と不存在は区別しない）。
	MarkNotificationRead(ctx context.Context, stakeholderID, itemID string) (bool, error)

	// MarkNotificationDeleted は所有者が一致する場合のみnotification_deletedをtrueにする。
	// セマンティクスはMarkNotificationReadと同一。
	MarkNotificationDeleted(ctx context.Context, stakeholderID, itemID string) (bool, error)
}

// DonationRepository は寄付データの永続化インターフェース。
type DonationRepository interface {
	// FindByID は指定IDの寄付を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Donation, error)

	// Create は寄付を作成する。
	Create(ctx context.Context, d *model.Donation) error

	// UpdateStatus は寄付の状態を更新する。更新された場合はtrueを返す。
	UpdateStatus(ctx context.Context, id string, status model.DonationStatus) (bool, error)

	// ListByStatus は指定状態の全寄付を返す。承認ポーラーの走査に使う。
	ListByStatus(ctx context.Context, status model.DonationStatus) ([]*model.Donation, error)

	// ListByStatusAndCharity は指定状態かつ指定慈善団体宛の寄付を返す。
	ListByStatusAndCharity(ctx context.Context, status model.DonationStatus, charityID string) ([]*model.Donation, error)

	// ListByStatusAndParticipant は指定状態かつ指定ステークホルダーが
	// ドナーまたは慈善団体である寄付を返す。
	ListByStatusAndParticipant(ctx context.Context, status model.DonationStatus, stakeholderID string) ([]*model.Donation, error)

	// CountByStatusAndCharity は指定状態かつ指定慈善団体宛の寄付数を返す。
	CountByStatusAndCharity(ctx context.Context, status model.DonationStatus, charityID string) (int, error)
}

// ChatMessageWithDonation は寄付の当事者情報付きのメッセージ行。
// ListSinceの表示名解決に使う。
type ChatMessageWithDonation struct {
	model.ChatMessage

	DonorID   string
	CharityID string
}

// ChatMessageRepository はチャットメッセージの永続化インターフェース。
// メッセージは追記専用で、既読・配達フラグの更新のみ許す。
type ChatMessageRepository interface {
	// ListSenders は寄付に既にメッセージ行を持つ送信者IDの集合を返す。
	ListSenders(ctx context.Context, donationID string) ([]string, error)

	// InsertSeed はシード行（空payload）を挿入する。
	// (donation_id, sender_id) の部分一意制約に衝突した場合は
	// 挿入済みとみなし false, nil を返す（冪等）。
	InsertSeed(ctx context.Context, msg *model.ChatMessage) (bool, error)

	// Insert は通常メッセージ行を挿入する。
	Insert(ctx context.Context, msg *model.ChatMessage) error

	// MarkRead は寄付のメッセージのうち sender != readerID の行の
	// read_receiptをtrueにし、更新後の行を返す。
	MarkRead(ctx context.Context, donationID, readerID string) ([]*model.ChatMessage, error)

	// MarkDelivered は寄付のメッセージのうち sender != recipientID の行の
	// deliveredをtrueにし、更新後の行を返す。
	MarkDelivered(ctx context.Context, donationID, recipientID string) ([]*model.ChatMessage, error)

	// ListForParticipantSince は指定ステークホルダーが当事者である寄付の
	// sent_at >= since のメッセージを、sent_at昇順（同時刻はID昇順）で返す。
	ListForParticipantSince(ctx context.Context, stakeholderID string, since time.Time) ([]ChatMessageWithDonation, error)
}
