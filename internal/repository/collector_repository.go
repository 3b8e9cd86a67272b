package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/formloop/formloop-api/internal/models"
)

// CollectorRepository handles persistence of collectors.
type CollectorRepository struct {
	db *sqlx.DB
}

// NewCollectorRepository constructs the repository.
func NewCollectorRepository(db *sqlx.DB) *CollectorRepository {
	return &CollectorRepository{db: db}
}

const collectorColumns = `id, survey_id, token, collector_type, is_active, allow_multiple_responses, response_count, expires_at, created_at`

// Create inserts a new collector and assigns its ID.
func (r *CollectorRepository) Create(ctx context.Context, collector *models.Collector) error {
	if collector.ID == "" {
		collector.ID = uuid.NewString()
	}
	collector.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO collectors (id, survey_id, token, collector_type, is_active, allow_multiple_responses, response_count, expires_at, created_at)
        VALUES (:id, :survey_id, :token, :collector_type, :is_active, :allow_multiple_responses, :response_count, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, collector); err != nil {
		return fmt.Errorf("create collector: %w", err)
	}
	return nil
}

// FindByToken returns the collector addressed by an opaque token.
func (r *CollectorRepository) FindByToken(ctx context.Context, token string) (*models.Collector, error) {
	query := fmt.Sprintf(`SELECT %s FROM collectors WHERE token = $1 LIMIT 1`, collectorColumns)
	var collector models.Collector
	if err := r.db.GetContext(ctx, &collector, query, token); err != nil {
		return nil, err
	}
	return &collector, nil
}

// FindByID returns a collector by its ID.
func (r *CollectorRepository) FindByID(ctx context.Context, id string) (*models.Collector, error) {
	query := fmt.Sprintf(`SELECT %s FROM collectors WHERE id = $1 LIMIT 1`, collectorColumns)
	var collector models.Collector
	if err := r.db.GetContext(ctx, &collector, query, id); err != nil {
		return nil, err
	}
	return &collector, nil
}

// ListBySurvey returns all collectors of a survey.
func (r *CollectorRepository) ListBySurvey(ctx context.Context, surveyID string) ([]models.Collector, error) {
	query := fmt.Sprintf(`SELECT %s FROM collectors WHERE survey_id = $1 ORDER BY created_at DESC`, collectorColumns)
	var collectors []models.Collector
	if err := r.db.SelectContext(ctx, &collectors, query, surveyID); err != nil {
		return nil, fmt.Errorf("list collectors: %w", err)
	}
	return collectors, nil
}

// TokenExists reports whether a collector token is already taken.
func (r *CollectorRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM collectors WHERE token = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, token); err != nil {
		return false, fmt.Errorf("check collector token: %w", err)
	}
	return exists, nil
}

// SetActive flips the is_active flag.
func (r *CollectorRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE collectors SET is_active = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("set collector active: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set collector active: collector %s not found", id)
	}
	return nil
}

// IncrementResponseCount bumps the response counter atomically in SQL. The
// counter is shared between concurrent submissions; an application-level
// read-modify-write would lose updates.
func (r *CollectorRepository) IncrementResponseCount(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE collectors SET response_count = response_count + 1 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment collector response count: %w", err)
	}
	return nil
}

// LockForSubmission takes a row lock on the collector inside the submission
// transaction, serializing concurrent duplicate-response checks for the same
// collector.
func (r *CollectorRepository) LockForSubmission(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `SELECT id FROM collectors WHERE id = $1 FOR UPDATE`
	var locked string
	if err := tx.GetContext(ctx, &locked, query, id); err != nil {
		return fmt.Errorf("lock collector: %w", err)
	}
	return nil
}
