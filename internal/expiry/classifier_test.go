package expiry

import (
	"strings"
	"testing"
	"time"
)

// TestClassify_Boundary はdiffDays==0が常にexpiredになることを検証する。
func TestClassify_Boundary(t *testing.T) {
	today := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	// 同日はexpired（warningでもgoodでもない）
	c := Classify(time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC), today)
	if c.Status != StatusExpired {
		t.Errorf("status = %q, want %q", c.Status, StatusExpired)
	}
	if c.DiffDays != 0 {
		t.Errorf("diffDays = %d, want 0", c.DiffDays)
	}
	if c.Message != "Expired 0 days ago" {
		t.Errorf("message = %q", c.Message)
	}
}

// TestClassify_Tiers は各状態ティアの境界を検証する。
func TestClassify_Tiers(t *testing.T) {
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		expiry     time.Time
		wantDiff   int
		wantStatus Status
	}{
		{"1日前", today.AddDate(0, 0, -1), -1, StatusExpired},
		{"5日前", today.AddDate(0, 0, -5), -5, StatusExpired},
		{"翌日", today.AddDate(0, 0, 1), 1, StatusWarning},
		{"3日後", today.AddDate(0, 0, 3), 3, StatusWarning},
		{"4日後", today.AddDate(0, 0, 4), 4, StatusGood},
		{"30日後", today.AddDate(0, 0, 30), 30, StatusGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.expiry, today)
			if c.DiffDays != tt.wantDiff {
				t.Errorf("diffDays = %d, want %d", c.DiffDays, tt.wantDiff)
			}
			if c.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", c.Status, tt.wantStatus)
			}
		})
	}
}

// TestClassify_TimeOfDayIndependence は時刻成分が結果に影響しないことを検証する。
func TestClassify_TimeOfDayIndependence(t *testing.T) {
	expiry := time.Date(2025, 6, 17, 0, 0, 1, 0, time.UTC)

	base := Classify(expiry, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	for hour := 0; hour < 24; hour++ {
		today := time.Date(2025, 6, 15, hour, 59, 59, 0, time.UTC)
		c := Classify(expiry, today)
		if c != base {
			t.Errorf("hour=%d: classification = %+v, want %+v", hour, c, base)
		}
	}
}

// TestClassify_ExpiredMessage は1日前の期限切れメッセージに"1"が含まれることを検証する。
func TestClassify_ExpiredMessage(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	c := Classify(today.AddDate(0, 0, -1), today)

	if c.Status != StatusExpired {
		t.Fatalf("status = %q, want %q", c.Status, StatusExpired)
	}
	if !strings.Contains(c.Message, "1") {
		t.Errorf("message = %q, want it to contain %q", c.Message, "1")
	}
}
