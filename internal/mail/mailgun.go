package mail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const defaultMailgunBaseURL = "https://api.mailgun.net/v3"

// MailgunMailer はMailgunのメッセージAPIでメールを送信する。
type MailgunMailer struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	domain     string
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewMailgunMailer はMailgunMailerの新しいインスタンスを生成する。
func NewMailgunMailer(httpClient *http.Client, logger *slog.Logger, apiKey, domain string) *MailgunMailer {
	return &MailgunMailer{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		domain:     domain,
		baseURL:    defaultMailgunBaseURL,
	}
}

// SendMotivationalEmail はMailgunのメッセージAPIでメールを送信する。
// 認証は("api", APIキー)のBasic認証。
func (m *MailgunMailer) SendMotivationalEmail(ctx context.Context, toEmail, message string) error {
	if m.apiKey == "" || m.domain == "" {
		return fmt.Errorf("mailgun API key or domain not configured")
	}

	form := url.Values{
		"from":    {fmt.Sprintf("Jurn AI <help@%s>", m.domain)},
		"to":      {toEmail},
		"subject": {defaultSubject},
		"text":    {composeBody(message)},
	}

	endpoint := fmt.Sprintf("%s/%s/messages", m.baseURL, m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create mailgun request: %w", err)
	}
	req.SetBasicAuth("api", m.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Error("メール送信リクエストに失敗しました",
			slog.String("to", toEmail),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("mailgun request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		m.logger.Error("Mailgun APIがエラーステータスを返しました",
			slog.String("to", toEmail),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("mailgun returned status %d: %s", resp.StatusCode, string(body))
	}

	m.logger.Info("メールを送信しました", slog.String("to", toEmail))
	return nil
}

// compile-time interface check
var _ Mailer = (*MailgunMailer)(nil)
