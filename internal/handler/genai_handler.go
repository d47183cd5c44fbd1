package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/jurnal/internal/middleware"
	"github.com/hitoshi/jurnal/internal/model"
)

// GenAIClientInterface は生成AIハンドラーが必要とするクライアントインターフェース。
type GenAIClientInterface interface {
	Generate(ctx context.Context, userPrompt, systemInstruction string) (string, error)
	HealthCheck(ctx context.Context) (string, error)
	Model() string
}

// GenAIHandler は生成AIの疎通確認と任意プロンプト生成のHTTPハンドラー。
type GenAIHandler struct {
	client GenAIClientInterface
	logger *slog.Logger
}

// NewGenAIHandler はGenAIHandlerを生成する。
func NewGenAIHandler(client GenAIClientInterface, logger *slog.Logger) *GenAIHandler {
	return &GenAIHandler{client: client, logger: logger}
}

// generateRequest は任意プロンプト生成リクエストのボディ。
type generateRequest struct {
	Prompt string `json:"prompt"`
}

// Health は生成APIへのラウンドトリップ呼び出しで疎通を確認する。
// GET /genai/health
func (h *GenAIHandler) Health(w http.ResponseWriter, r *http.Request) {
	text, err := h.client.HealthCheck(r.Context())
	if err != nil {
		h.logger.Error("生成APIの疎通確認に失敗しました",
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"model":  h.client.Model(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"model":    h.client.Model(),
		"response": text,
	})
}

// Generate は任意プロンプトからテキストを生成する。
// POST /genai/generate
func (h *GenAIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Prompt == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "プロンプトが空です。",
			Category: "validation",
			Action:   "promptフィールドを指定してください。",
		})
		return
	}

	text, err := h.client.Generate(r.Context(), req.Prompt, "")
	if err != nil {
		h.logger.Error("テキスト生成に失敗しました",
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": text,
	})
}
