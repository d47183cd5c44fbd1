package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/jurnal/internal/metrics"
	"github.com/hitoshi/jurnal/internal/middleware"
	"github.com/hitoshi/jurnal/internal/notion"
	"github.com/hitoshi/jurnal/internal/repository"
	"github.com/hitoshi/jurnal/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	SchedulerSecret   string

	// 認証・Notion連携
	AuthService   AuthServiceInterface
	NotionUsers   NotionUserService
	OAuthProvider notion.OAuthExchanger
	UserRepo      repository.UserRepository
	Integrations  repository.IntegrationRepository
	TokenCipher   *security.TokenCipher

	// ジャーナル・予測
	JournalService    JournalServiceInterface
	PredictionService PredictionServiceInterface

	// 生成AI・ジョブ
	GenAIClient GenAIClientInterface
	BatchRunner BatchRunner
	SweepRunner SweepRunner

	// ヘルスチェック・メトリクス
	DB       Pinger
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging
//
// 認証が必要なルートには Auth → RateLimit(General) を追加で適用する。
// スケジューラルート（/scheduler/*）は共有シークレット認証の背後に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService)
	notionHandler := NewNotionHandler(
		deps.OAuthProvider,
		deps.NotionUsers,
		deps.UserRepo,
		deps.Integrations,
		deps.TokenCipher,
		deps.Logger,
	)
	journalHandler := NewJournalHandler(deps.JournalService, deps.AuthService)
	predictionHandler := NewPredictionHandler(deps.PredictionService)
	schedulerHandler := NewSchedulerHandler(deps.BatchRunner, deps.SweepRunner, deps.Logger)
	genaiHandler := NewGenAIHandler(deps.GenAIClient, deps.Logger)
	healthHandler := NewHealthHandler(deps.DB)

	authMW := middleware.NewAuthMiddleware(deps.TokenVerifier)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Health)
	r.Get("/genai/health", genaiHandler.Health)
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.With(authMW).Get("/me", authHandler.Me)
	})

	// Notion OAuthコールバックからの呼び出し（この時点ではトークン未発行）
	r.Post("/notion/authorize", notionHandler.Authorize)

	// 昇進予測は認証不要だが専用レート制限を適用する
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.PredictionMiddleware())
		r.Post("/predict", predictionHandler.Predict)
		r.Post("/genai/generate", genaiHandler.Generate)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(authMW)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/journal", func(r chi.Router) {
			r.Post("/", journalHandler.CreateEntry)
			r.Get("/", journalHandler.ListEntries)
			r.Get("/today", journalHandler.TodayEntry)
			r.Post("/generate-message", journalHandler.GenerateMessage)
		})
	})

	// --- スケジューラ専用ルート ---
	// 外部スケジューラからの共有シークレット認証
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSchedulerAuthMiddleware(deps.SchedulerSecret))

		r.Post("/scheduler/process-notion-journals", schedulerHandler.ProcessJournals)
		r.Post("/scheduler/deactivate-inactive-users", schedulerHandler.DeactivateInactiveUsers)
	})

	return r
}
