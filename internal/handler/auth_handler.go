package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/jurnal/internal/auth"
	"github.com/hitoshi/jurnal/internal/middleware"
	"github.com/hitoshi/jurnal/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Signup(ctx context.Context, input auth.SignupInput) (*model.User, string, error)
	Login(ctx context.Context, input auth.LoginInput) (*model.User, string, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler は認証のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	validate *validator.Validate
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service:  service,
		validate: validator.New(),
	}
}

// tokenResponse はトークン発行のAPIレスポンス。
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Username      string `json:"username,omitempty"`
	JournalMedium string `json:"journal_medium"`
}

// Signup は新規ユーザー登録を処理する。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input auth.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.validate.Struct(input); err != nil {
		middleware.WriteValidationError(w, err)
		return
	}

	_, token, err := h.service.Signup(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Login はログインを処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input auth.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.validate.Struct(input); err != nil {
		middleware.WriteValidationError(w, err)
		return
	}

	_, token, err := h.service.Login(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me は認証済みユーザーの情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		JournalMedium: string(user.JournalMedium),
	}
}
