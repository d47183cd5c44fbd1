package mail

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// SMTPConfig はSMTPメーラーの接続設定。
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// From は送信元アドレス。空の場合はUserを使用する。
	From string
}

// SMTPMailer はSMTP経由でメールを送信する。
// Mailgunを使わないセルフホスト構成向け（EMAIL_PROVIDER=smtp）。
type SMTPMailer struct {
	dialer *gomail.Dialer
	logger *slog.Logger
	from   string
}

// NewSMTPMailer はSMTPMailerの新しいインスタンスを生成する。
func NewSMTPMailer(config SMTPConfig, logger *slog.Logger) *SMTPMailer {
	from := config.From
	if from == "" {
		from = config.User
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(config.Host, config.Port, config.User, config.Password),
		logger: logger,
		from:   from,
	}
}

// SendMotivationalEmail はSMTPでメールを送信する。
// gomailのDialAndSendはコンテキストを受け取らないため、送信中のキャンセルはできない。
func (m *SMTPMailer) SendMotivationalEmail(ctx context.Context, toEmail, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", defaultSubject)
	msg.SetBody("text/plain", composeBody(message))

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("SMTPメール送信に失敗しました",
			slog.String("to", toEmail),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("smtp send failed: %w", err)
	}

	m.logger.Info("メールを送信しました", slog.String("to", toEmail))
	return nil
}

// compile-time interface check
var _ Mailer = (*SMTPMailer)(nil)
