package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/jurnal/internal/middleware"
	"github.com/hitoshi/jurnal/internal/model"
	"github.com/hitoshi/jurnal/internal/notion"
	"github.com/hitoshi/jurnal/internal/repository"
	"github.com/hitoshi/jurnal/internal/security"
)

// NotionUserService はNotion連携ハンドラーが必要とするユーザー操作のインターフェース。
type NotionUserService interface {
	GetOrCreateByEmail(ctx context.Context, email string) (*model.User, bool, error)
	IssueToken(userID string) (string, error)
}

// NotionHandler はNotion OAuth連携のHTTPハンドラー。
type NotionHandler struct {
	exchanger    notion.OAuthExchanger
	users        NotionUserService
	userRepo     repository.UserRepository
	integrations repository.IntegrationRepository
	cipher       *security.TokenCipher
	logger       *slog.Logger
}

// NewNotionHandler はNotionHandlerを生成する。
func NewNotionHandler(
	exchanger notion.OAuthExchanger,
	users NotionUserService,
	userRepo repository.UserRepository,
	integrations repository.IntegrationRepository,
	cipher *security.TokenCipher,
	logger *slog.Logger,
) *NotionHandler {
	return &NotionHandler{
		exchanger:    exchanger,
		users:        users,
		userRepo:     userRepo,
		integrations: integrations,
		cipher:       cipher,
		logger:       logger,
	}
}

// authorizeRequest はNotion認可リクエストのボディ。
type authorizeRequest struct {
	Code string `json:"code"`
}

// authorizeResponse はNotion認可のAPIレスポンス。
type authorizeResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExistingUser bool   `json:"existing_user"`
}

// Authorize はNotion OAuth認可コード交換を処理する。
//
// 認可コードをアクセストークンに交換し、ワークスペースオーナーのメール
// アドレスでユーザーを検索または自動作成する。トークンは暗号化して保存し、
// サービスのアクセストークンを発行して返す。
// POST /notion/authorize
func (h *NotionHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Code == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewNotionAuthFailedError("認可コードが空です"))
		return
	}

	result, err := h.exchanger.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		h.logger.Error("Notion認可コードの交換に失敗しました",
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusBadGateway,
			model.NewNotionAuthFailedError("コード交換に失敗しました"))
		return
	}

	user, existing, err := h.users.GetOrCreateByEmail(r.Context(), result.OwnerEmail)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	encrypted, err := h.cipher.Encrypt(result.AccessToken)
	if err != nil {
		h.logger.Error("アクセストークンの暗号化に失敗しました",
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	// 再認可時は新しいレコードを作成し、created_at最新のものが有効になる
	now := time.Now()
	integration := &model.NotionIntegration{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		AccessToken: encrypted,
		PageID:      result.PageID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.integrations.Create(r.Context(), integration); err != nil {
		handleServiceError(w, err)
		return
	}

	if user.JournalMedium != model.MediumNotion {
		if err := h.userRepo.UpdateJournalMedium(r.Context(), user.ID, model.MediumNotion); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	token, err := h.users.IssueToken(user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.logger.Info("Notion連携を作成しました",
		slog.String("user_id", user.ID),
		slog.Bool("existing_user", existing),
	)

	writeJSON(w, http.StatusOK, authorizeResponse{
		AccessToken:  token,
		TokenType:    "bearer",
		ExistingUser: existing,
	})
}
