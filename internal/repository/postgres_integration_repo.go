package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/jurnal/internal/model"
)

// PostgresIntegrationRepo はPostgreSQLを使用したNotion連携リポジトリ。
type PostgresIntegrationRepo struct {
	db *sql.DB
}

// NewPostgresIntegrationRepo はPostgresIntegrationRepoを生成する。
func NewPostgresIntegrationRepo(db *sql.DB) *PostgresIntegrationRepo {
	return &PostgresIntegrationRepo{db: db}
}

// Create はNotion連携を作成する。access_tokenは暗号化済みであること。
func (r *PostgresIntegrationRepo) Create(ctx context.Context, integration *model.NotionIntegration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notion_integrations (id, user_id, access_token, page_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		integration.ID, integration.UserID, integration.AccessToken,
		integration.PageID, integration.CreatedAt, integration.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notion integration: %w", err)
	}
	return nil
}

// FindLatestByUserID は指定ユーザーの最新のNotion連携を取得する。
// 再認可のたびにレコードが追加されるため、created_at降順の先頭を有効な連携とする。
// 見つからない場合はnilを返す。
func (r *PostgresIntegrationRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.NotionIntegration, error) {
	integration := &model.NotionIntegration{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, access_token, page_id, created_at, updated_at
		 FROM notion_integrations
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(
		&integration.ID, &integration.UserID, &integration.AccessToken,
		&integration.PageID, &integration.CreatedAt, &integration.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notion integration: %w", err)
	}
	return integration, nil
}

// compile-time interface check
var _ IntegrationRepository = (*PostgresIntegrationRepo)(nil)
