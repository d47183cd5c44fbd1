// Package sweep は長期間エントリのないユーザーの自動非アクティブ化ジョブを提供する。
// 非アクティブカウンターが閾値（デフォルト3日）以上のユーザーを
// 日次バッチで非アクティブ化する。
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/jurnal/internal/repository"
)

// DefaultThresholdDays は非アクティブ化の既定閾値（日数）。
const DefaultThresholdDays = 3

// SweepJob は非アクティブユーザーの自動非アクティブ化ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な更新処理を保証する。
type SweepJob struct {
	users         repository.UserRepository
	logger        *slog.Logger
	ThresholdDays int // 非アクティブ化までの連続エントリなし日数（デフォルト: 3）
}

// NewSweepJob は新しいSweepJobを生成する。
// thresholdDaysが0以下の場合はデフォルト値3を使用する。
func NewSweepJob(users repository.UserRepository, logger *slog.Logger, thresholdDays int) *SweepJob {
	if thresholdDays <= 0 {
		thresholdDays = DefaultThresholdDays
	}
	return &SweepJob{
		users:         users,
		logger:        logger,
		ThresholdDays: thresholdDays,
	}
}

// Run は閾値以上のアクティブユーザーを1回の一括更新で非アクティブ化し、
// 件数を返す。冪等: 対象がない場合でもエラーにならない。
func (j *SweepJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	deactivated, err := j.users.DeactivateInactive(ctx, j.ThresholdDays)
	if err != nil {
		j.logger.Error("非アクティブ化ジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("threshold_days", j.ThresholdDays),
		)
		return 0, fmt.Errorf("非アクティブ化の実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("非アクティブ化ジョブが完了しました",
		slog.Int64("deactivated_count", deactivated),
		slog.Int("threshold_days", j.ThresholdDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return deactivated, nil
}

// Start は指定間隔のティッカーでジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *SweepJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("非アクティブ化ワーカーを開始しました",
		slog.Duration("interval", interval),
		slog.Int("threshold_days", j.ThresholdDays),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("非アクティブ化ワーカーを停止しました")
			return
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				j.logger.Error("非アクティブ化サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
