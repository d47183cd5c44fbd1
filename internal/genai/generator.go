package genai

import (
	"context"
	_ "embed"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/jurnal/internal/model"
	"github.com/hitoshi/jurnal/internal/prompt"
)

//go:embed prompts/journal_prompt.md
var journalSystemPrompt string

// fallbackMessages は生成が全試行で失敗した場合に返す定型メッセージのプール。
var fallbackMessages = []string{
	"Hey, I hear you. It's completely understandable to feel overwhelmed and exhausted when you have a lot on your plate. Remember it's okay to rest and recharge. You don't have to do it all, all the time. Be kind to yourself and take a break.",
	"It sounds like you're carrying a really heavy load right now. It's completely valid to feel tired when you're trying to do so much. Maybe it's a good time to take a step back and see if there's anything you can delegate, postpone, or even let go of entirely. Your well-being is the most important thing. You deserve to rest and take care of yourself. Even small moments of self-care can make a difference. You've got this, and remember it's okay to ask for help if you need it.",
}

// GeneratorConfig はGeneratorの設定パラメータ。
type GeneratorConfig struct {
	// MaxRetries は初回試行後の再試行回数（デフォルト: 1）。
	MaxRetries int
	// RetryDelay は再試行までの待機時間（デフォルト: 2秒）。
	RetryDelay time.Duration
	// PromptMaxLength はプロンプト本文の文字数上限（デフォルト: 2000）。
	PromptMaxLength int
}

// DefaultGeneratorConfig はデフォルトのGenerator設定を返す。
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxRetries:      1,
		RetryDelay:      2 * time.Second,
		PromptMaxLength: prompt.DefaultMaxLength,
	}
}

// Generator はジャーナルスナップショットからモチベーションメッセージを生成する。
// 生成APIの失敗と空レスポンスは再試行で吸収し、全試行が失敗した場合は
// 定型メッセージにフォールバックする。呼び出し元にエラーは伝播しない。
type Generator struct {
	client TextGenerator
	logger *slog.Logger
	config GeneratorConfig

	// rngはバッチ処理の複数goroutineから参照されるためmuで保護する
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator はGeneratorの新しいインスタンスを生成する。
// 設定のゼロ値はデフォルト値で補完する。
func NewGenerator(client TextGenerator, logger *slog.Logger, config GeneratorConfig) *Generator {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 2 * time.Second
	}
	if config.PromptMaxLength <= 0 {
		config.PromptMaxLength = prompt.DefaultMaxLength
	}
	return &Generator{
		client: client,
		logger: logger,
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// MotivationalMessage はスナップショットからモチベーションメッセージを生成する。
// 最大MaxRetries+1回試行し、非空テキストが得られた時点で返す。
// 全試行が失敗した場合はフォールバックプールから一様ランダムに1件返す。
// 常に非空のメッセージを返し、エラーは返さない。
func (g *Generator) MotivationalMessage(ctx context.Context, snapshot *model.Snapshot) string {
	body := prompt.Build(snapshot, g.config.PromptMaxLength)
	return g.generateWithRetry(ctx, body)
}

// FromContent は生のジャーナル本文からモチベーションメッセージを生成する。
// Web媒体のエントリ用。本文は文字数上限まで単純に切り詰める。
func (g *Generator) FromContent(ctx context.Context, content string) string {
	runes := []rune(content)
	if len(runes) > g.config.PromptMaxLength {
		content = string(runes[:g.config.PromptMaxLength]) + "... (truncated)"
	}
	return g.generateWithRetry(ctx, content)
}

func (g *Generator) generateWithRetry(ctx context.Context, body string) string {
	attempts := g.config.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := g.client.Generate(ctx, body, journalSystemPrompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}

		if err != nil {
			g.logger.Warn("メッセージ生成に失敗しました",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", attempts),
				slog.String("error", err.Error()),
			)
		} else {
			g.logger.Warn("メッセージ生成が空のテキストを返しました",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", attempts),
			)
		}

		// 最終試行後は待たない
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return g.fallback()
			case <-time.After(g.config.RetryDelay):
			}
		}
	}

	return g.fallback()
}

// fallback は定型メッセージプールから一様ランダムに1件返す。
func (g *Generator) fallback() string {
	g.logger.Info("全試行が失敗したためフォールバックメッセージを使用します")
	g.mu.Lock()
	defer g.mu.Unlock()
	return fallbackMessages[g.rng.Intn(len(fallbackMessages))]
}
