package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/jurnal/internal/model"
)

// PostgresPredictionRepo はPostgreSQLを使用した予測入力ログリポジトリ。
type PostgresPredictionRepo struct {
	db *sql.DB
}

// NewPostgresPredictionRepo はPostgresPredictionRepoを生成する。
func NewPostgresPredictionRepo(db *sql.DB) *PostgresPredictionRepo {
	return &PostgresPredictionRepo{db: db}
}

// Create は予測入力データを記録する。
func (r *PostgresPredictionRepo) Create(ctx context.Context, input *model.PredictionInput) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO predictions (id, company, designation, current_ctc,
		                          total_yoe, designation_yoe, performance_rating, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New().String(), input.Company, input.Designation, input.CurrentCTC,
		input.TotalYoE, input.DesignationYoE, input.PerformanceRating, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction input: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PredictionRepository = (*PostgresPredictionRepo)(nil)
