// Package mail はモチベーションメッセージのメール送信を提供する。
// Mailgun HTTP APIとSMTPの2つの実装を含む。
package mail

import (
	"context"
	"fmt"
)

const (
	// defaultSubject はモチベーションメールの件名。
	defaultSubject = "Your daily motivational message"
	// defaultGreeting は本文冒頭の挨拶。
	defaultGreeting = "Hey,"
	// defaultSalutation は本文末尾の結び。
	defaultSalutation = "Good morning!"
)

// Mailer はモチベーションメール送信のインターフェース。
// テスト時にモックに差し替え可能。
type Mailer interface {
	// SendMotivationalEmail は生成されたメッセージを指定アドレスに送信する。
	SendMotivationalEmail(ctx context.Context, toEmail, message string) error
}

// composeBody は挨拶・メッセージ・結びを結合したメール本文を構築する。
func composeBody(message string) string {
	return fmt.Sprintf("%s\n\n%s\n\n%s", defaultGreeting, message, defaultSalutation)
}
