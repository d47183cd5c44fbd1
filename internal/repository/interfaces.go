// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/jurnal/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// ListActiveNotionUsers はis_active=true かつ journal_medium='notion' の
	// 全ユーザーを取得する。バッチ処理の対象リスト。
	ListActiveNotionUsers(ctx context.Context) ([]*model.User, error)

	// IncrementInactiveCounter は非アクティブカウンターを1増やす。
	IncrementInactiveCounter(ctx context.Context, userID string) error

	// ResetInactiveCounter は非アクティブカウンターを0にリセットする。
	ResetInactiveCounter(ctx context.Context, userID string) error

	// DeactivateInactive は非アクティブカウンターがthreshold以上の
	// アクティブユーザーを1回の一括更新で非アクティブ化し、件数を返す。
	DeactivateInactive(ctx context.Context, threshold int) (int64, error)

	// UpdateJournalMedium はユーザーのジャーナル記録媒体を更新する。
	UpdateJournalMedium(ctx context.Context, userID string, medium model.JournalMedium) error
}

// IntegrationRepository はNotion連携データの永続化インターフェース。
type IntegrationRepository interface {
	// Create はNotion連携を作成する。access_tokenは暗号化済みであること。
	Create(ctx context.Context, integration *model.NotionIntegration) error

	// FindLatestByUserID は指定ユーザーの最新のNotion連携を取得する。
	// 見つからない場合はnilを返す。
	FindLatestByUserID(ctx context.Context, userID string) (*model.NotionIntegration, error)
}

// JournalRepository はWebジャーナルエントリの永続化インターフェース。
type JournalRepository interface {
	// Create はジャーナルエントリを作成する。
	Create(ctx context.Context, entry *model.JournalEntry) error

	// ListByUserID はユーザーのジャーナルエントリを作成日時降順で取得する。
	ListByUserID(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error)

	// FindTodayByUserID は当日作成された最新のエントリを取得する。
	// 見つからない場合はnilを返す。
	FindTodayByUserID(ctx context.Context, userID string) (*model.JournalEntry, error)
}

// PredictionRepository は昇進予測の入力ログの永続化インターフェース。
type PredictionRepository interface {
	// Create は予測入力データを記録する。
	Create(ctx context.Context, input *model.PredictionInput) error
}
