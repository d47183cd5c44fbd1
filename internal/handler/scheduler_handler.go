package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/jurnal/internal/journal"
)

// schedulerRunTimeout はバックグラウンド実行するバッチ処理の上限時間。
const schedulerRunTimeout = 15 * time.Minute

// BatchRunner はジャーナルバッチ処理の実行インターフェース。
type BatchRunner interface {
	RunOnce(ctx context.Context) ([]*journal.Result, error)
}

// SweepRunner は非アクティブ化ジョブの実行インターフェース。
type SweepRunner interface {
	Run(ctx context.Context) (int64, error)
}

// SchedulerHandler は外部スケジューラから起動されるジョブのHTTPハンドラー。
// 共有シークレット認証ミドルウェアの背後に配置する。
type SchedulerHandler struct {
	batch  BatchRunner
	sweep  SweepRunner
	logger *slog.Logger
}

// NewSchedulerHandler はSchedulerHandlerを生成する。
func NewSchedulerHandler(batch BatchRunner, sweep SweepRunner, logger *slog.Logger) *SchedulerHandler {
	return &SchedulerHandler{batch: batch, sweep: sweep, logger: logger}
}

// ProcessJournals は全アクティブNotionユーザーのジャーナル処理を起動する。
// 処理は数分かかりうるため、バックグラウンドで実行して即座に202を返す。
// POST /scheduler/process-notion-journals
func (h *SchedulerHandler) ProcessJournals(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), schedulerRunTimeout)
		defer cancel()

		if _, err := h.batch.RunOnce(ctx); err != nil {
			h.logger.Error("スケジューラ起動のバッチ処理に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
	})
}

// DeactivateInactiveUsers は長期間エントリのないユーザーを非アクティブ化する。
// POST /scheduler/deactivate-inactive-users
func (h *SchedulerHandler) DeactivateInactiveUsers(w http.ResponseWriter, r *http.Request) {
	deactivated, err := h.sweep.Run(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"deactivated_count": deactivated,
	})
}
