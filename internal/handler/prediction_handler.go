package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/jurnal/internal/middleware"
	"github.com/hitoshi/jurnal/internal/model"
)

// PredictionServiceInterface は昇進予測ハンドラーが必要とするサービスインターフェース。
type PredictionServiceInterface interface {
	Predict(ctx context.Context, input model.PredictionInput) (*model.PredictionOutput, error)
}

// PredictionHandler は昇進予測のHTTPハンドラー。
type PredictionHandler struct {
	service  PredictionServiceInterface
	validate *validator.Validate
}

// NewPredictionHandler はPredictionHandlerを生成する。
func NewPredictionHandler(service PredictionServiceInterface) *PredictionHandler {
	return &PredictionHandler{
		service:  service,
		validate: validator.New(),
	}
}

// Predict は昇進予測を処理する。
// POST /predict
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var input model.PredictionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.validate.Struct(input); err != nil {
		middleware.WriteValidationError(w, err)
		return
	}

	output, err := h.service.Predict(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
