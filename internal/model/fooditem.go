package model

import "time"

// FoodItem はステークホルダーが登録した食品在庫を表す。
// 通知の既読・削除フラグはアイテム行そのものに載る（通知＝期限接近アイテム）。
type FoodItem struct {
	ID             string
	StakeholderID  string
	Name           string
	ExpiryDate     time.Time
	Quantity       int
	Category       string
	DonationID     string // 寄付に紐付かない場合は空
	MeasurePerUnit string
	Unit           string

	NotificationRead    bool
	NotificationDeleted bool

	CreatedAt time.Time
}
