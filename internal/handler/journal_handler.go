package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hitoshi/jurnal/internal/middleware"
	"github.com/hitoshi/jurnal/internal/model"
)

// JournalServiceInterface はジャーナルハンドラーが必要とするサービスインターフェース。
type JournalServiceInterface interface {
	CreateWebEntry(ctx context.Context, user *model.User, content string) (*model.JournalEntry, string, error)
	ListEntries(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error)
	TodayEntry(ctx context.Context, userID string) (*model.JournalEntry, error)
	GenerateMessage(ctx context.Context, content string) (string, error)
}

// UserFinder は認証済みユーザーの取得インターフェース。
type UserFinder interface {
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// JournalHandler はWebジャーナルのHTTPハンドラー。
type JournalHandler struct {
	service JournalServiceInterface
	users   UserFinder
}

// NewJournalHandler はJournalHandlerを生成する。
func NewJournalHandler(service JournalServiceInterface, users UserFinder) *JournalHandler {
	return &JournalHandler{service: service, users: users}
}

// createEntryRequest はジャーナル作成リクエストのボディ。
type createEntryRequest struct {
	Content string `json:"content"`
}

// entryResponse はジャーナルエントリのAPIレスポンス。
type entryResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// createEntryResponse はジャーナル作成のAPIレスポンス。
// 生成されたモチベーションメッセージを含む。
type createEntryResponse struct {
	Entry   entryResponse `json:"entry"`
	Message string        `json:"message"`
}

// CreateEntry はWebジャーナルエントリの作成を処理する。
// POST /api/journal
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	user, err := h.users.CurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	entry, message, err := h.service.CreateWebEntry(r.Context(), user, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createEntryResponse{
		Entry:   toEntryResponse(entry),
		Message: message,
	})
}

// ListEntries はユーザーのジャーナルエントリ一覧を返す。
// GET /api/journal
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	entries, err := h.service.ListEntries(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, toEntryResponse(entry))
	}

	writeJSON(w, http.StatusOK, responses)
}

// TodayEntry はユーザーの当日のエントリを返す。
// GET /api/journal/today
func (h *JournalHandler) TodayEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	entry, err := h.service.TodayEntry(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if entry == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "ENTRY_NOT_FOUND",
			Message:  "今日のジャーナルエントリはまだありません。",
			Category: "journal",
			Action:   "ジャーナルを記入してください。",
		})
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

// generateMessageRequest はメッセージ生成リクエストのボディ。
type generateMessageRequest struct {
	Content string `json:"content"`
}

// generateMessageResponse はメッセージ生成のAPIレスポンス。
type generateMessageResponse struct {
	Message string `json:"message"`
}

// GenerateMessage はジャーナル本文からモチベーションメッセージを生成する。
// エントリは永続化しない。
// POST /api/journal/generate-message
func (h *JournalHandler) GenerateMessage(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req generateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	message, err := h.service.GenerateMessage(r.Context(), req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateMessageResponse{Message: message})
}

// toEntryResponse はmodel.JournalEntryからAPIレスポンスに変換する。
func toEntryResponse(entry *model.JournalEntry) entryResponse {
	return entryResponse{
		ID:        entry.ID,
		Content:   entry.Content,
		CreatedAt: entry.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
