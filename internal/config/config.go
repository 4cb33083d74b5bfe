package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort        string
	FrontendURL       string
	CORSAllowedOrigin string

	// SMTP（ダイジェストメール送信）
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	// 通知
	NotifyWindowDays int // 通知フィードに含める期限接近日数

	// ワーカー
	ApprovalPollInterval time.Duration // 承認済み寄付のポーリング間隔
	DigestPollInterval   time.Duration // ダイジェストメールのポーリング間隔
	PendingCooldown      time.Duration // 承認待ちリマインダーのクールダウン
	ApprovedCooldown     time.Duration // チャット開通通知のクールダウン

	// Rate Limit（req/min単位）
	RateLimitGeneral int
	RateLimitUpload  int

	// 一括取込
	UploadMaxBytes int64
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.FrontendURL = os.Getenv("FRONTEND_URL")
	if cfg.FrontendURL == "" {
		missing = append(missing, "FRONTEND_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", cfg.FrontendURL)

	cfg.SMTPHost = getEnvString("SMTP_HOST", "localhost")
	cfg.SMTPPort = getEnvInt("SMTP_PORT", 587)
	cfg.SMTPUsername = getEnvString("SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnvString("SMTP_PASSWORD", "")
	cfg.EmailFrom = getEnvString("EMAIL_FROM", "Donation Platform <noreply@foodsave.example>")

	cfg.NotifyWindowDays = getEnvInt("NOTIFY_WINDOW_DAYS", 2)

	cfg.ApprovalPollInterval = getEnvDuration("APPROVAL_POLL_INTERVAL", 5*time.Second)
	cfg.DigestPollInterval = getEnvDuration("DIGEST_POLL_INTERVAL", 10*time.Minute)
	cfg.PendingCooldown = getEnvDuration("PENDING_COOLDOWN", 24*time.Hour)
	cfg.ApprovedCooldown = getEnvDuration("APPROVED_COOLDOWN", time.Hour)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitUpload = getEnvInt("RATE_LIMIT_UPLOAD", 10)

	cfg.UploadMaxBytes = getEnvInt64("UPLOAD_MAX_BYTES", 10485760)

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
