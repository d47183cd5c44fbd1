// Package batch は全アクティブNotionユーザーの日次ジャーナル処理を提供する。
// 固定サイズのチャンクに分割し、チャンク内は並列、チャンク間は直列で実行する。
package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/jurnal/internal/journal"
	"github.com/hitoshi/jurnal/internal/metrics"
	"github.com/hitoshi/jurnal/internal/model"
	"github.com/hitoshi/jurnal/internal/repository"
)

// DefaultBatchSize はチャンクあたりの既定ユーザー数。
const DefaultBatchSize = 5

// UserProcessor は1ユーザーの処理パス実行のインターフェース。
type UserProcessor interface {
	ProcessUser(ctx context.Context, user *model.User) (*journal.Result, error)
}

// Processor はジャーナルバッチ処理のオーケストレーター。
// 外部プロバイダーのレート制限を超えないよう、同時実行数は
// チャンクサイズで制限される。
type Processor struct {
	users     repository.UserRepository
	pipeline  UserProcessor
	metrics   *metrics.Metrics
	logger    *slog.Logger
	batchSize int
}

// NewProcessor はProcessorの新しいインスタンスを生成する。
// batchSizeが0以下の場合はデフォルト値5を使用する。
func NewProcessor(
	users repository.UserRepository,
	pipeline UserProcessor,
	m *metrics.Metrics,
	logger *slog.Logger,
	batchSize int,
) *Processor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Processor{
		users:     users,
		pipeline:  pipeline,
		metrics:   m,
		logger:    logger,
		batchSize: batchSize,
	}
}

// Start は指定間隔のティッカーでバッチ処理を起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (p *Processor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info("ジャーナルバッチワーカーを開始しました",
		slog.Duration("interval", interval),
		slog.Int("batch_size", p.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ジャーナルバッチワーカーを停止しました")
			return
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil {
				p.logger.Error("バッチ処理の実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は全アクティブNotionユーザーを1回処理し、結果リストを返す。
//
// ユーザーリストをbatchSizeごとのチャンクに分割し、チャンク内の全ユーザーを
// 並列に処理する。次のチャンクは前のチャンクの全goroutineが完了してから
// 開始する。1ユーザーの失敗やpanicは記録した上で他のユーザーの処理を
// 妨げない。結果の順序は入力のユーザー順と一致する。
func (p *Processor) RunOnce(ctx context.Context) ([]*journal.Result, error) {
	start := time.Now()

	users, err := p.users.ListActiveNotionUsers(ctx)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		p.logger.Info("処理対象のユーザーはいません")
		return []*journal.Result{}, nil
	}

	p.logger.Info("ジャーナルバッチ処理を開始します",
		slog.Int("user_count", len(users)),
		slog.Int("batch_size", p.batchSize),
	)

	results := make([]*journal.Result, len(users))

	for offset := 0; offset < len(users); offset += p.batchSize {
		end := offset + p.batchSize
		if end > len(users) {
			end = len(users)
		}

		var wg sync.WaitGroup
		for i := offset; i < end; i++ {
			wg.Add(1)
			go func(idx int, user *model.User) {
				defer wg.Done()
				results[idx] = p.processOne(ctx, user)
			}(i, users[i])
		}
		wg.Wait()
	}

	succeeded := 0
	for _, r := range results {
		if r.Status == journal.StatusProcessed {
			succeeded++
		}
	}

	duration := time.Since(start)
	p.logger.Info("ジャーナルバッチ処理が完了しました",
		slog.Int("user_count", len(users)),
		slog.Int("processed_count", succeeded),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	p.metrics.ObserveBatchRun(len(users), duration)

	return results, nil
}

// processOne は1ユーザーの処理を実行し、常に非nilのResultを返す。
// panicはここで回収し、他ユーザーのgoroutineに影響させない。
func (p *Processor) processOne(ctx context.Context, user *model.User) (result *journal.Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("ユーザー処理中にpanicが発生しました",
				slog.String("user_id", user.ID),
				slog.Any("panic", r),
			)
			p.metrics.IncPipelineFailure()
			result = &journal.Result{
				UserID: user.ID,
				Email:  user.Email,
				Status: "Processing failed",
			}
		}
	}()

	res, err := p.pipeline.ProcessUser(ctx, user)
	if err != nil {
		p.logger.Error("ユーザー処理に失敗しました",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		p.metrics.IncPipelineFailure()
		return &journal.Result{
			UserID: user.ID,
			Email:  user.Email,
			Status: "Processing failed",
		}
	}

	switch res.Status {
	case journal.StatusProcessed:
		p.metrics.IncPipelineSuccess()
	default:
		p.metrics.IncPipelineSkip()
	}

	return res
}
