package handler

import (
	"context"
	"net/http"
)

// Pinger はデータベース疎通確認のインターフェース。
// *sql.DB を受け付けることができる。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はサービスのヘルスチェックを処理する。
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health はデータベースへの疎通を含むヘルスチェックを返す。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
