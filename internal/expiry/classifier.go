// Package expiry は食品の賞味期限分類を提供する。
// 時刻成分を捨てた日単位の差分だけに依存する純粋な計算で、
// 通知フィードの構築と在庫表示の注釈の両方から呼ばれる。
package expiry

import (
	"fmt"
	"math"
	"time"
)

// Status は期限の状態ティアを表す。
type Status string

const (
	// StatusExpired は期限切れ（diffDays <= 0）。diffDays == 0 も期限切れ扱い。
	StatusExpired Status = "expired"
	// StatusWarning は期限接近（0 < diffDays <= 3）。
	StatusWarning Status = "warning"
	// StatusGood は期限に余裕がある状態。
	StatusGood Status = "good"
)

// DefaultNotifyWindowDays は通知フィードに含める日数の既定値。
// diffDays <= 2 のアイテムだけが通知対象になる。
const DefaultNotifyWindowDays = 2

// Classification は分類結果を表す。
type Classification struct {
	DiffDays int    // 今日からの日数差（当日・過去は0以下）
	Status   Status // 状態ティア
	Message  string // 表示用メッセージ
}

// Classify は賞味期限と基準日を日単位に切り詰めて分類する。
// 両日付の時刻成分は無視され、結果は日数差だけで決まる。
// 日数差は切り上げ除算で計算する（真夜中同士の差なら常に整数日）。
func Classify(expiryDate, today time.Time) Classification {
	expMidnight := truncateToDay(expiryDate)
	todayMidnight := truncateToDay(today)

	diffDays := int(math.Ceil(expMidnight.Sub(todayMidnight).Hours() / 24))

	switch {
	case diffDays <= 0:
		return Classification{
			DiffDays: diffDays,
			Status:   StatusExpired,
			Message:  fmt.Sprintf("Expired %d days ago", -diffDays),
		}
	case diffDays <= 3:
		return Classification{
			DiffDays: diffDays,
			Status:   StatusWarning,
			Message:  fmt.Sprintf("Expires in %d days", diffDays),
		}
	default:
		return Classification{
			DiffDays: diffDays,
			Status:   StatusGood,
			Message:  fmt.Sprintf("Expires in %d days", diffDays),
		}
	}
}

// truncateToDay は時刻成分を捨ててその日の0時に正規化する。
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
