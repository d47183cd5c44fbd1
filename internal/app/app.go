// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/jurnal/internal/auth"
	"github.com/hitoshi/jurnal/internal/config"
	"github.com/hitoshi/jurnal/internal/database"
	"github.com/hitoshi/jurnal/internal/genai"
	"github.com/hitoshi/jurnal/internal/handler"
	"github.com/hitoshi/jurnal/internal/journal"
	"github.com/hitoshi/jurnal/internal/logger"
	"github.com/hitoshi/jurnal/internal/mail"
	"github.com/hitoshi/jurnal/internal/metrics"
	"github.com/hitoshi/jurnal/internal/middleware"
	"github.com/hitoshi/jurnal/internal/notion"
	"github.com/hitoshi/jurnal/internal/prediction"
	"github.com/hitoshi/jurnal/internal/repository"
	"github.com/hitoshi/jurnal/internal/security"
	"github.com/hitoshi/jurnal/internal/worker/batch"
	"github.com/hitoshi/jurnal/internal/worker/sweep"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// services はserveとworkerで共有する依存関係一式。
type services struct {
	userRepo        repository.UserRepository
	integrationRepo repository.IntegrationRepository
	journalRepo     repository.JournalRepository
	predictionRepo  repository.PredictionRepository

	cipher    *security.TokenCipher
	sanitizer *security.ContentSanitizer

	notionClient  *notion.Client
	oauthProvider *notion.OAuthProvider
	genaiClient   *genai.Client
	generator     *genai.Generator
	mailer        mail.Mailer

	authService       *auth.Service
	journalService    *journal.Service
	predictionService *prediction.Service

	registry       *prometheus.Registry
	metrics        *metrics.Metrics
	batchProcessor *batch.Processor
	sweepJob       *sweep.SweepJob
}

// buildServices は全サービスの依存関係をワイヤリングする。
func buildServices(cfg *config.Config, db *sql.DB) (*services, error) {
	log := slog.Default()

	cipher, err := security.NewTokenCipher(cfg.TokenCipherKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cipher: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	s := &services{
		userRepo:        repository.NewPostgresUserRepo(db),
		integrationRepo: repository.NewPostgresIntegrationRepo(db),
		journalRepo:     repository.NewPostgresJournalRepo(db),
		predictionRepo:  repository.NewPostgresPredictionRepo(db),
		cipher:          cipher,
		sanitizer:       security.NewContentSanitizer(),
	}

	s.notionClient = notion.NewClient(httpClient, log)
	s.oauthProvider = notion.NewOAuthProvider(notion.OAuthConfig{
		ClientID:     cfg.NotionClientID,
		ClientSecret: cfg.NotionClientSecret,
		RedirectURL:  cfg.NotionRedirectURL,
	}, httpClient)

	s.genaiClient = genai.NewClient(httpClient, log, cfg.GenAIAPIKey, cfg.GenAIModel)
	s.generator = genai.NewGenerator(s.genaiClient, log, genai.GeneratorConfig{
		MaxRetries:      cfg.GenMaxRetries,
		RetryDelay:      cfg.GenRetryDelay,
		PromptMaxLength: cfg.PromptMaxLength,
	})

	switch cfg.EmailProvider {
	case "smtp":
		s.mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}, log)
	default:
		s.mailer = mail.NewMailgunMailer(httpClient, log, cfg.MailgunAPIKey, cfg.MailgunDomain)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, auth.DefaultTokenTTL)
	s.authService = auth.NewService(s.userRepo, tokens, log)

	s.journalService = journal.NewService(
		s.userRepo, s.integrationRepo, s.journalRepo,
		s.cipher, s.sanitizer,
		s.notionClient, s.generator, s.mailer,
		log,
	)

	s.predictionService = prediction.NewService(s.predictionRepo, s.genaiClient, log)

	s.registry = prometheus.NewRegistry()
	s.metrics = metrics.New(s.registry)
	s.batchProcessor = batch.NewProcessor(s.userRepo, s.journalService, s.metrics, log, cfg.BatchSize)
	s.sweepJob = sweep.NewSweepJob(s.userRepo, log, cfg.InactiveThresholdDays)

	return s, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. サービスのワイヤリング
	svcs, err := buildServices(cfg, db)
	if err != nil {
		return err
	}

	// 3. レート制限（req/min -> req/sec に変換）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.PredictionRate = rate.Limit(float64(cfg.RateLimitPrediction) / 60.0)
	rateLimiterCfg.PredictionBurst = cfg.RateLimitPrediction

	// 4. ルーターの構築
	deps := &handler.RouterDeps{
		Logger: slog.Default(),

		TokenVerifier:     svcs.authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),
		SchedulerSecret:   cfg.SchedulerAuthToken,

		AuthService:   svcs.authService,
		NotionUsers:   svcs.authService,
		OAuthProvider: svcs.oauthProvider,
		UserRepo:      svcs.userRepo,
		Integrations:  svcs.integrationRepo,
		TokenCipher:   svcs.cipher,

		JournalService:    svcs.journalService,
		PredictionService: svcs.predictionService,

		GenAIClient: svcs.genaiClient,
		BatchRunner: svcs.batchProcessor,
		SweepRunner: svcs.sweepJob,

		DB:       db,
		Gatherer: svcs.registry,
	}

	router := handler.NewRouter(deps)

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、ジャーナルバッチワーカーと非アクティブ化ワーカーを起動する。
// 外部スケジューラを使わないセルフホスト構成向け。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. サービスのワイヤリング
	svcs, err := buildServices(cfg, db)
	if err != nil {
		return err
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("batch_interval", cfg.BatchInterval),
		slog.Duration("sweep_interval", cfg.SweepInterval),
		slog.Int("batch_size", cfg.BatchSize),
	)

	// 非アクティブ化ワーカーをバックグラウンドで起動
	go svcs.sweepJob.Start(ctx, cfg.SweepInterval)

	// ジャーナルバッチワーカーをメインgoroutineで実行（ブロッキング）
	svcs.batchProcessor.Start(ctx, cfg.BatchInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
