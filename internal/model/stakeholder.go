// Package model はドメインモデルを定義する。
package model

import "strings"

// CapacityNone は非慈善団体ステークホルダーのcapacity番兵値。
const CapacityNone = -1

// Stakeholder は登録済み参加者（家庭・事業者・慈善団体）を表す。
// IDは登録時に採番され、以後不変。ロール別のプレフィックスを持つ
// （h=家庭、b=事業者、c=慈善団体）。
type Stakeholder struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Region       string
	// Capacity は慈善団体の受け入れ能力（0以上）。
	// 慈善団体以外はCapacityNone（-1）を保持する。
	Capacity int
}

// IsCharity はステークホルダーが慈善団体かどうかを返す。
func (s *Stakeholder) IsCharity() bool {
	return strings.HasPrefix(s.ID, "c")
}

// RolePrefix はアカウント種別に対応するIDプレフィックスを返す。
// 未知の種別の場合は空文字を返す。
func RolePrefix(accountType string) string {
	t := strings.ToLower(accountType)
	switch {
	case strings.Contains(t, "household"):
		return "h"
	case strings.Contains(t, "business"):
		return "b"
	case strings.Contains(t, "charity"):
		return "c"
	}
	return ""
}
