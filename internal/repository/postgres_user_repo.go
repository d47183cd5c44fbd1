package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/jurnal/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
var ErrDuplicateEmail = errors.New("user with this email already exists")

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, COALESCE(username, ''), COALESCE(hashed_password, ''),
	is_active, inactive_days_counter, journal_medium, created_at, updated_at`

// scanUser は1行分のユーザーレコードをスキャンする。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.HashedPassword,
		&user.IsActive, &user.InactiveDaysCounter, &user.JournalMedium,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateEmailを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, hashed_password, is_active,
		                    inactive_days_counter, journal_medium, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)`,
		user.ID, user.Email, user.Username, user.HashedPassword, user.IsActive,
		user.InactiveDaysCounter, user.JournalMedium, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		// 23505 = unique_violation
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// ListActiveNotionUsers はis_active=true かつ journal_medium='notion' の全ユーザーを取得する。
func (r *PostgresUserRepo) ListActiveNotionUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE is_active = TRUE AND journal_medium = 'notion'
		 ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active notion users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(
			&user.ID, &user.Email, &user.Username, &user.HashedPassword,
			&user.IsActive, &user.InactiveDaysCounter, &user.JournalMedium,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// IncrementInactiveCounter は非アクティブカウンターを1増やす。
func (r *PostgresUserRepo) IncrementInactiveCounter(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET inactive_days_counter = inactive_days_counter + 1, updated_at = now()
		 WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment inactive counter: %w", err)
	}
	return nil
}

// ResetInactiveCounter は非アクティブカウンターを0にリセットする。
func (r *PostgresUserRepo) ResetInactiveCounter(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET inactive_days_counter = 0, updated_at = now()
		 WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset inactive counter: %w", err)
	}
	return nil
}

// DeactivateInactive は非アクティブカウンターがthreshold以上のアクティブユーザーを
// 1回の一括更新で非アクティブ化し、更新件数を返す。
func (r *PostgresUserRepo) DeactivateInactive(ctx context.Context, threshold int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET is_active = FALSE, updated_at = now()
		 WHERE is_active = TRUE AND inactive_days_counter >= $1`,
		threshold,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate inactive users: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// UpdateJournalMedium はユーザーのジャーナル記録媒体を更新する。
func (r *PostgresUserRepo) UpdateJournalMedium(ctx context.Context, userID string, medium model.JournalMedium) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET journal_medium = $2, updated_at = now() WHERE id = $1`,
		userID, medium,
	)
	if err != nil {
		return fmt.Errorf("failed to update journal medium: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
