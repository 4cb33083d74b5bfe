package model

import "time"

// ChatMessage は寄付スレッドの追記専用メッセージ行を表す。
// (donation_id, sender_id, sent_at) をキーとする。
// Payloadはクライアント側で暗号化された本文（シード行は空文字）。
type ChatMessage struct {
	ID         string
	DonationID string
	SenderID   string
	Payload    string // ciphertext。サーバーは復号しない
	IV         string // 暗号化の初期化ベクトル
	Icon       string
	SentAt     time.Time

	ReadReceipt bool
	Delivered   bool
}

// IsSeed はメッセージがシード（プレースホルダ）行かどうかを返す。
// 承認済み寄付の両当事者に先行挿入される空メッセージをシードと呼ぶ。
func (m *ChatMessage) IsSeed() bool {
	return m.Payload == ""
}

// ChatMessageView はListSince用の表示名解決済みメッセージ。
type ChatMessageView struct {
	ChatMessage

	SenderName    string
	RecipientID   string
	RecipientName string
	IsOutgoing    bool
}
