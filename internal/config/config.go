// Package config は環境変数からのアプリケーション設定読み込みを提供する。
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

	// Auth
	JWTSecret      string
	TokenCipherKey string // base64エンコードされた32バイト鍵

	// Notion OAuth
	NotionClientID     string
	NotionClientSecret string
	NotionRedirectURL  string

	// GenAI
	GenAIAPIKey   string
	GenAIModel    string
	GenMaxRetries int
	GenRetryDelay time.Duration

	// Prompt
	PromptMaxLength int

	// Email
	EmailProvider string // "mailgun" または "smtp"
	MailgunAPIKey string
	MailgunDomain string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string

	// Batch
	SchedulerAuthToken    string
	BatchSize             int
	BatchInterval         time.Duration
	InactiveThresholdDays int
	SweepInterval         time.Duration

	// Rate Limit（req/min/user）
	RateLimitGeneral    int
	RateLimitPrediction int

	// Server
	ServerPort        string
	CORSAllowedOrigin string
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

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.TokenCipherKey = os.Getenv("TOKEN_CIPHER_KEY")
	if cfg.TokenCipherKey == "" {
		missing = append(missing, "TOKEN_CIPHER_KEY")
	}

	cfg.NotionClientID = os.Getenv("NOTION_CLIENT_ID")
	if cfg.NotionClientID == "" {
		missing = append(missing, "NOTION_CLIENT_ID")
	}

	cfg.NotionClientSecret = os.Getenv("NOTION_CLIENT_SECRET")
	if cfg.NotionClientSecret == "" {
		missing = append(missing, "NOTION_CLIENT_SECRET")
	}

	cfg.NotionRedirectURL = os.Getenv("NOTION_REDIRECT_URL")
	if cfg.NotionRedirectURL == "" {
		missing = append(missing, "NOTION_REDIRECT_URL")
	}

	cfg.GenAIAPIKey = os.Getenv("GENAI_API_KEY")
	if cfg.GenAIAPIKey == "" {
		missing = append(missing, "GENAI_API_KEY")
	}

	cfg.SchedulerAuthToken = os.Getenv("SCHEDULER_AUTH_TOKEN")
	if cfg.SchedulerAuthToken == "" {
		missing = append(missing, "SCHEDULER_AUTH_TOKEN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.GenAIModel = getEnvString("GENAI_MODEL", "gemini-2.5-flash")
	cfg.GenMaxRetries = getEnvInt("GEN_MAX_RETRIES", 1)
	cfg.GenRetryDelay = getEnvDuration("GEN_RETRY_DELAY", 2*time.Second)
	cfg.PromptMaxLength = getEnvInt("PROMPT_MAX_LENGTH", 2000)
	cfg.EmailProvider = getEnvString("EMAIL_PROVIDER", "mailgun")
	cfg.MailgunAPIKey = getEnvString("MAILGUN_API_KEY", "")
	cfg.MailgunDomain = getEnvString("MAILGUN_DOMAIN", "")
	cfg.SMTPHost = getEnvString("SMTP_HOST", "")
	cfg.SMTPPort = getEnvInt("SMTP_PORT", 587)
	cfg.SMTPUser = getEnvString("SMTP_USER", "")
	cfg.SMTPPassword = getEnvString("SMTP_PASSWORD", "")
	cfg.BatchSize = getEnvInt("BATCH_SIZE", 5)
	cfg.BatchInterval = getEnvDuration("BATCH_INTERVAL", 24*time.Hour)
	cfg.InactiveThresholdDays = getEnvInt("INACTIVE_THRESHOLD_DAYS", 3)
	cfg.SweepInterval = getEnvDuration("SWEEP_INTERVAL", 24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitPrediction = getEnvInt("RATE_LIMIT_PREDICTION", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	// メール送信プロバイダごとの必須項目を検証する
	switch cfg.EmailProvider {
	case "mailgun":
		if cfg.MailgunAPIKey == "" || cfg.MailgunDomain == "" {
			return nil, fmt.Errorf("MAILGUN_API_KEY and MAILGUN_DOMAIN are required when EMAIL_PROVIDER=mailgun")
		}
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER=smtp")
		}
	default:
		return nil, fmt.Errorf("invalid EMAIL_PROVIDER: %s (choose 'mailgun' or 'smtp')", cfg.EmailProvider)
	}

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
