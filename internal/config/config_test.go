package config

import (
	"strings"
	"testing"
	"time"
)

// setRequiredEnv は必須環境変数を一通り設定する。
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/jurnal")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TOKEN_CIPHER_KEY", "dGVzdC1rZXk=")
	t.Setenv("NOTION_CLIENT_ID", "client-id")
	t.Setenv("NOTION_CLIENT_SECRET", "client-secret")
	t.Setenv("NOTION_REDIRECT_URL", "https://app.example.com/callback")
	t.Setenv("GENAI_API_KEY", "genai-key")
	t.Setenv("SCHEDULER_AUTH_TOKEN", "scheduler-token")
	t.Setenv("MAILGUN_API_KEY", "mailgun-key")
	t.Setenv("MAILGUN_DOMAIN", "mg.example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}

	if cfg.GenAIModel != "gemini-2.5-flash" {
		t.Errorf("GenAIModel = %q, want %q", cfg.GenAIModel, "gemini-2.5-flash")
	}
	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.BatchSize)
	}
	if cfg.BatchInterval != 24*time.Hour {
		t.Errorf("BatchInterval = %v, want 24h", cfg.BatchInterval)
	}
	if cfg.InactiveThresholdDays != 3 {
		t.Errorf("InactiveThresholdDays = %d, want 3", cfg.InactiveThresholdDays)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitPrediction != 10 {
		t.Errorf("RateLimitPrediction = %d, want 10", cfg.RateLimitPrediction)
	}
	if cfg.EmailProvider != "mailgun" {
		t.Errorf("EmailProvider = %q, want %q", cfg.EmailProvider, "mailgun")
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.PromptMaxLength != 2000 {
		t.Errorf("PromptMaxLength = %d, want 2000", cfg.PromptMaxLength)
	}
}

func TestLoad_MissingRequiredVariables(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("必須環境変数なしでLoad()はエラーを返すべき")
	}

	// 欠けている変数名がすべてエラーに列挙される
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("エラーにDATABASE_URLが含まれない: %v", err)
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("エラーにJWT_SECRETが含まれない: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BATCH_SIZE", "10")
	t.Setenv("BATCH_INTERVAL", "1h")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}

	if cfg.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.BatchSize)
	}
	if cfg.BatchInterval != time.Hour {
		t.Errorf("BatchInterval = %v, want 1h", cfg.BatchInterval)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9090")
	}
}

func TestLoad_InvalidNumericFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BATCH_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}
	if cfg.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.BatchSize)
	}
}

func TestLoad_MailgunProviderRequiresCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAILGUN_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("mailgunプロバイダでAPIキーなしはエラーを返すべき")
	}
}

func TestLoad_SMTPProviderRequiresHost(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_PROVIDER", "smtp")

	_, err := Load()
	if err == nil {
		t.Fatal("smtpプロバイダでホストなしはエラーを返すべき")
	}

	t.Setenv("SMTP_HOST", "smtp.example.com")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() がエラーを返した: %v", err)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
}

func TestLoad_UnknownEmailProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_PROVIDER", "carrier-pigeon")

	_, err := Load()
	if err == nil {
		t.Fatal("未知のメールプロバイダはエラーを返すべき")
	}
}
