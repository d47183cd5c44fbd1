package handler

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/jurnal/internal/middleware"
	"github.com/hitoshi/jurnal/internal/security"
)

// mockRouterVerifier はTokenVerifierのモック実装。
type mockRouterVerifier struct{}

func (m *mockRouterVerifier) VerifyToken(tokenString string) (string, error) {
	if tokenString == "valid-token" {
		return "user-1", nil
	}
	return "", http.ErrNoCookie
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	cipher, err := security.NewTokenCipher(key)
	if err != nil {
		t.Fatalf("テスト用暗号器の生成に失敗: %v", err)
	}

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(100),
		GeneralBurst:    100,
		PredictionRate:  rate.Limit(100),
		PredictionBurst: 100,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Logger:            newTestLogger(),
		TokenVerifier:     &mockRouterVerifier{},
		CORSAllowedOrigin: "*",
		RateLimiter:       rl,
		SchedulerSecret:   "scheduler-secret",
		AuthService:       &mockAuthService{},
		NotionUsers:       &mockNotionUsers{},
		OAuthProvider:     &mockExchanger{},
		UserRepo:          &mockUserRepo{},
		Integrations:      &mockIntegrationRepo{},
		TokenCipher:       cipher,
		JournalService:    &mockJournalService{},
		PredictionService: &mockPredictionService{},
		GenAIClient:       &mockGenAIClient{},
		BatchRunner:       &mockBatchRunner{},
		SweepRunner:       &mockSweepRunner{},
		DB:                &mockPinger{},
		Gatherer:          prometheus.NewRegistry(),
	})
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/genai/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodPost, "/auth/signup", `{"email":"a@example.com","username":"someone","password":"password123"}`, http.StatusCreated},
		{http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"password123"}`, http.StatusOK},
		{http.MethodPost, "/notion/authorize", `{"code":"auth-code"}`, http.StatusOK},
		{http.MethodPost, "/predict", `{"company":"Acme","designation":"Engineer","performanceRating":3}`, http.StatusOK},
		{http.MethodPost, "/genai/generate", `{"prompt":"hello"}`, http.StatusOK},
	}

	for _, tt := range tests {
		var req *http.Request
		if tt.body == "" {
			req = httptest.NewRequest(tt.method, tt.path, nil)
		} else {
			req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d (body: %s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestRouter_JournalRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/journal", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("未認証のGET /api/journal = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/journal", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("認証済みのGET /api/journal = %d, want %d", rec.Code, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/journal/generate-message", strings.NewReader(`{"content":"Today was good."}`))
	req.Header.Set("Authorization", "Bearer valid-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("認証済みのPOST /api/journal/generate-message = %d, want %d", rec.Code, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/journal/today", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("未認証のGET /api/journal/today = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRouter_MeRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("未認証のGET /auth/me = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRouter_SchedulerRequiresSharedSecret(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/scheduler/deactivate-inactive-users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("トークンなし = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest(http.MethodPost, "/scheduler/deactivate-inactive-users", nil)
	req.Header.Set("X-Auth-Token", "scheduler-secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("正しいトークン = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want %q", got, "no-store")
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /unknown = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
