// Package journal はジャーナル処理のコアパイプラインを提供する。
// Notionからのエントリ取得、メッセージ生成、メール送信、
// およびWeb媒体のエントリ作成を担当する。
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/jurnal/internal/model"
	"github.com/hitoshi/jurnal/internal/notion"
	"github.com/hitoshi/jurnal/internal/repository"
	"github.com/hitoshi/jurnal/internal/security"
)

// 処理結果ステータス。APIレスポンスにそのまま載るため文言は固定。
const (
	StatusNoIntegration = "No Notion integration found"
	StatusNoEntry       = "No journal entry found from the last 24 hours."
	StatusProcessed     = "Journal processed and email sent"
)

// Result は1ユーザーの処理パスの結果を表す。
type Result struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// MessageGenerator はモチベーションメッセージ生成のインターフェース。
// テスト時にモックに差し替え可能。
type MessageGenerator interface {
	// MotivationalMessage はスナップショットからメッセージを生成する。常に非空。
	MotivationalMessage(ctx context.Context, snapshot *model.Snapshot) string
	// FromContent は生のジャーナル本文からメッセージを生成する。常に非空。
	FromContent(ctx context.Context, content string) string
}

// Mailer はメール送信のインターフェース。
type Mailer interface {
	SendMotivationalEmail(ctx context.Context, toEmail, message string) error
}

// Service はジャーナル処理サービス。
type Service struct {
	users        repository.UserRepository
	integrations repository.IntegrationRepository
	journals     repository.JournalRepository
	cipher       *security.TokenCipher
	sanitizer    *security.ContentSanitizer
	fetcher      notion.JournalFetcher
	generator    MessageGenerator
	mailer       Mailer
	logger       *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	users repository.UserRepository,
	integrations repository.IntegrationRepository,
	journals repository.JournalRepository,
	cipher *security.TokenCipher,
	sanitizer *security.ContentSanitizer,
	fetcher notion.JournalFetcher,
	generator MessageGenerator,
	mailer Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:        users,
		integrations: integrations,
		journals:     journals,
		cipher:       cipher,
		sanitizer:    sanitizer,
		fetcher:      fetcher,
		generator:    generator,
		mailer:       mailer,
		logger:       logger,
	}
}

// ProcessUser は1ユーザーの日次処理パスを実行する。
//
// Notion連携を検索し、直近24時間のエントリを取得する。エントリがあれば
// 非アクティブカウンターをリセットしてメッセージを生成・送信し、
// なければカウンターを1増やす。どの経路でも必ずResultを返し、
// エラーはインフラ障害（DB、メール送信）の場合のみ返す。
func (s *Service) ProcessUser(ctx context.Context, user *model.User) (*Result, error) {
	result := &Result{UserID: user.ID, Email: user.Email}

	integration, err := s.integrations.FindLatestByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find integration for user %s: %w", user.ID, err)
	}
	if integration == nil {
		s.logger.Info("Notion連携が未設定のためスキップします", slog.String("user_id", user.ID))
		result.Status = StatusNoIntegration
		return result, nil
	}

	accessToken, err := s.cipher.Decrypt(integration.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token for user %s: %w", user.ID, err)
	}

	snapshot := s.fetcher.LatestEntry(ctx, accessToken, integration.PageID)
	if snapshot == nil {
		if err := s.users.IncrementInactiveCounter(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to increment inactive counter for user %s: %w", user.ID, err)
		}
		s.logger.Info("直近24時間のエントリが見つかりませんでした",
			slog.String("user_id", user.ID),
			slog.Int("inactive_days", user.InactiveDaysCounter+1),
		)
		result.Status = StatusNoEntry
		return result, nil
	}

	if user.InactiveDaysCounter > 0 {
		if err := s.users.ResetInactiveCounter(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to reset inactive counter for user %s: %w", user.ID, err)
		}
	}

	message := s.generator.MotivationalMessage(ctx, snapshot)

	if err := s.mailer.SendMotivationalEmail(ctx, user.Email, message); err != nil {
		return nil, fmt.Errorf("failed to send email to user %s: %w", user.ID, err)
	}

	s.logger.Info("ジャーナルを処理してメールを送信しました", slog.String("user_id", user.ID))
	result.Status = StatusProcessed
	return result, nil
}

// CreateWebEntry はWebフォームから投稿されたジャーナルエントリを作成する。
// 本文をサニタイズして永続化し、モチベーションメッセージを生成して返す。
// メール送信は処理を遅らせないようバックグラウンドで行う。
func (s *Service) CreateWebEntry(ctx context.Context, user *model.User, content string) (*model.JournalEntry, string, error) {
	sanitized := s.sanitizer.Sanitize(content)
	if sanitized == "" {
		return nil, "", model.NewJournalCreateFailedError()
	}

	entry := &model.JournalEntry{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Content:   sanitized,
		CreatedAt: time.Now(),
	}
	if err := s.journals.Create(ctx, entry); err != nil {
		return nil, "", fmt.Errorf("failed to create journal entry: %w", err)
	}

	message := s.generator.FromContent(ctx, sanitized)

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendMotivationalEmail(sendCtx, user.Email, message); err != nil {
			s.logger.Error("Webエントリのメール送信に失敗しました",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}()

	s.logger.Info("Webジャーナルエントリを作成しました",
		slog.String("user_id", user.ID),
		slog.String("entry_id", entry.ID),
	)
	return entry, message, nil
}

// TodayEntry はユーザーの当日の最新エントリを取得する。存在しない場合はnilを返す。
func (s *Service) TodayEntry(ctx context.Context, userID string) (*model.JournalEntry, error) {
	entry, err := s.journals.FindTodayByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find today's journal entry: %w", err)
	}
	return entry, nil
}

// GenerateMessage は与えられたジャーナル本文からモチベーションメッセージを生成する。
// エントリは永続化しない。サニタイズ後に本文が空の場合はエラーを返す。
func (s *Service) GenerateMessage(ctx context.Context, content string) (string, error) {
	sanitized := s.sanitizer.Sanitize(content)
	if sanitized == "" {
		return "", model.NewJournalCreateFailedError()
	}
	return s.generator.FromContent(ctx, sanitized), nil
}

// ListEntries はユーザーのWebジャーナルエントリを作成日時降順で取得する。
func (s *Service) ListEntries(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	entries, err := s.journals.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	return entries, nil
}
