// Package email はダイジェストメールの作成と送信を提供する。
package email

import (
	"gopkg.in/gomail.v2"

	"github.com/hitoshi/foodsave/internal/config"
)

// Sender はメール送信インターフェース。
// ダイジェストポーラーのテストでは偽実装に差し替える。
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender はgomail経由でSMTPサーバーにメールを送る。
type SMTPSender struct {
	cfg *config.Config
}

// NewSMTPSender はSMTP送信者を生成する。
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send はHTMLメールを1通送信する。
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.EmailFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUsername,
		s.cfg.SMTPPassword,
	)
	return d.DialAndSend(m)
}
