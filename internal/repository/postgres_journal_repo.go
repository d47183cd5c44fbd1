package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/jurnal/internal/model"
)

// PostgresJournalRepo はPostgreSQLを使用したジャーナルエントリリポジトリ。
type PostgresJournalRepo struct {
	db *sql.DB
}

// NewPostgresJournalRepo はPostgresJournalRepoを生成する。
func NewPostgresJournalRepo(db *sql.DB) *PostgresJournalRepo {
	return &PostgresJournalRepo{db: db}
}

// Create はジャーナルエントリを作成する。
func (r *PostgresJournalRepo) Create(ctx context.Context, entry *model.JournalEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, user_id, content, created_at)
		 VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.UserID, entry.Content, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// ListByUserID はユーザーのジャーナルエントリを作成日時降順で取得する。
func (r *PostgresJournalRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, content, created_at
		 FROM journal_entries
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.JournalEntry
	for rows.Next() {
		entry := &model.JournalEntry{}
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Content, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}

	return entries, nil
}

// FindTodayByUserID は当日作成された最新のエントリを取得する。見つからない場合はnilを返す。
func (r *PostgresJournalRepo) FindTodayByUserID(ctx context.Context, userID string) (*model.JournalEntry, error) {
	entry := &model.JournalEntry{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, created_at
		 FROM journal_entries
		 WHERE user_id = $1 AND created_at >= CURRENT_DATE
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&entry.ID, &entry.UserID, &entry.Content, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find today's journal entry: %w", err)
	}
	return entry, nil
}

// compile-time interface check
var _ JournalRepository = (*PostgresJournalRepo)(nil)
