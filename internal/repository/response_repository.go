package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/formloop/formloop-api/internal/models"
)

// ResponseRepository handles persistence of responses and their answers.
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository constructs the repository.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// DB exposes the underlying handle for transaction scoping by the
// submission orchestrator.
func (r *ResponseRepository) DB() *sqlx.DB {
	return r.db
}

const responseColumns = `id, survey_id, collector_id, respondent_id, session_id, status, started_at, last_activity_at, completed_at`

// Create inserts a new response in state started.
func (r *ResponseRepository) Create(ctx context.Context, response *models.Response) error {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	const query = `INSERT INTO responses (id, survey_id, collector_id, respondent_id, session_id, status, started_at, last_activity_at, completed_at)
        VALUES (:id, :survey_id, :collector_id, :respondent_id, :session_id, :status, :started_at, :last_activity_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, response); err != nil {
		return fmt.Errorf("create response: %w", err)
	}
	return nil
}

// FindByID returns a response by its ID.
func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*models.Response, error) {
	query := fmt.Sprintf(`SELECT %s FROM responses WHERE id = $1 LIMIT 1`, responseColumns)
	var response models.Response
	if err := r.db.GetContext(ctx, &response, query, id); err != nil {
		return nil, err
	}
	return &response, nil
}

// UpdateLastActivity stamps last_activity_at on a still-started response.
func (r *ResponseRepository) UpdateLastActivity(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE responses SET last_activity_at = $2 WHERE id = $1 AND status = $3`
	if _, err := r.db.ExecContext(ctx, query, id, ts, models.ResponseStatusStarted); err != nil {
		return fmt.Errorf("touch response: %w", err)
	}
	return nil
}

// Complete transitions a started response to completed. It returns
// sql.ErrNoRows when the response is absent or not in state started, so the
// service can distinguish an invalid transition from success.
func (r *ResponseRepository) Complete(ctx context.Context, id string, ts time.Time) (*models.Response, error) {
	query := fmt.Sprintf(`UPDATE responses SET status = $2, completed_at = $3, last_activity_at = $3
        WHERE id = $1 AND status = $4 RETURNING %s`, responseColumns)
	var response models.Response
	if err := r.db.GetContext(ctx, &response, query, id, models.ResponseStatusCompleted, ts, models.ResponseStatusStarted); err != nil {
		return nil, err
	}
	return &response, nil
}

// SweepAbandoned bulk-transitions started responses with no activity since
// the cutoff to abandoned and returns the number of rows flipped.
func (r *ResponseRepository) SweepAbandoned(ctx context.Context, surveyID string, cutoff time.Time) (int, error) {
	const query = `UPDATE responses SET status = $3 WHERE survey_id = $1 AND status = $2 AND last_activity_at < $4`
	res, err := r.db.ExecContext(ctx, query, surveyID, models.ResponseStatusStarted, models.ResponseStatusAbandoned, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep abandoned responses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep abandoned responses: %w", err)
	}
	return int(n), nil
}

// CountByStatus aggregates response counts for a survey.
func (r *ResponseRepository) CountByStatus(ctx context.Context, surveyID string) (*models.ResponseStats, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE status = 'started') AS started,
        COUNT(*) FILTER (WHERE status = 'completed') AS completed,
        COUNT(*) FILTER (WHERE status = 'abandoned') AS abandoned,
        COUNT(*) AS total
        FROM responses WHERE survey_id = $1`
	var stats models.ResponseStats
	if err := r.db.GetContext(ctx, &stats, query, surveyID); err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}
	return &stats, nil
}

// ExistsCompleted reports whether a completed response exists for the
// (collector, respondent | session) pair.
func (r *ResponseRepository) ExistsCompleted(ctx context.Context, collectorID string, respondentID, sessionID *string) (bool, error) {
	return existsCompleted(ctx, r.db, collectorID, respondentID, sessionID)
}

// ExistsCompletedTx is the transaction-scoped variant used under the
// collector row lock during submission.
func (r *ResponseRepository) ExistsCompletedTx(ctx context.Context, tx *sqlx.Tx, collectorID string, respondentID, sessionID *string) (bool, error) {
	return existsCompleted(ctx, tx, collectorID, respondentID, sessionID)
}

type rowGetter interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func existsCompleted(ctx context.Context, q rowGetter, collectorID string, respondentID, sessionID *string) (bool, error) {
	var (
		query string
		key   string
	)
	switch {
	case respondentID != nil:
		query = `SELECT EXISTS (SELECT 1 FROM responses WHERE collector_id = $1 AND respondent_id = $2 AND status = 'completed')`
		key = *respondentID
	case sessionID != nil:
		query = `SELECT EXISTS (SELECT 1 FROM responses WHERE collector_id = $1 AND session_id = $2 AND status = 'completed')`
		key = *sessionID
	default:
		return false, nil
	}
	var exists bool
	if err := q.GetContext(ctx, &exists, query, collectorID, key); err != nil {
		return false, fmt.Errorf("check duplicate response: %w", err)
	}
	return exists, nil
}

// FindStartedTx returns the existing started response for the identity, if
// any, inside the submission transaction.
func (r *ResponseRepository) FindStartedTx(ctx context.Context, tx *sqlx.Tx, collectorID string, respondentID, sessionID *string) (*models.Response, error) {
	var (
		query string
		key   string
	)
	switch {
	case respondentID != nil:
		query = fmt.Sprintf(`SELECT %s FROM responses WHERE collector_id = $1 AND respondent_id = $2 AND status = 'started' LIMIT 1`, responseColumns)
		key = *respondentID
	case sessionID != nil:
		query = fmt.Sprintf(`SELECT %s FROM responses WHERE collector_id = $1 AND session_id = $2 AND status = 'started' LIMIT 1`, responseColumns)
		key = *sessionID
	default:
		return nil, sql.ErrNoRows
	}
	var response models.Response
	if err := tx.GetContext(ctx, &response, query, collectorID, key); err != nil {
		return nil, err
	}
	return &response, nil
}

// CreateTx inserts a started response inside the submission transaction.
func (r *ResponseRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, response *models.Response) error {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	const query = `INSERT INTO responses (id, survey_id, collector_id, respondent_id, session_id, status, started_at, last_activity_at, completed_at)
        VALUES (:id, :survey_id, :collector_id, :respondent_id, :session_id, :status, :started_at, :last_activity_at, :completed_at)`
	if _, err := tx.NamedExecContext(ctx, query, response); err != nil {
		return fmt.Errorf("create response: %w", err)
	}
	return nil
}

// InsertAnswersTx persists the coerced answer rows inside the submission
// transaction.
func (r *ResponseRepository) InsertAnswersTx(ctx context.Context, tx *sqlx.Tx, answers []models.Answer) error {
	const query = `INSERT INTO answers (id, response_id, question_id, option_id, text_value, numeric_value)
        VALUES (:id, :response_id, :question_id, :option_id, :text_value, :numeric_value)`
	for i := range answers {
		if answers[i].ID == "" {
			answers[i].ID = uuid.NewString()
		}
		if _, err := tx.NamedExecContext(ctx, query, &answers[i]); err != nil {
			return fmt.Errorf("insert answer for question %s: %w", answers[i].QuestionID, err)
		}
	}
	return nil
}

// CompleteTx transitions a started response to completed inside the
// submission transaction. Returns sql.ErrNoRows when the row is not in
// state started.
func (r *ResponseRepository) CompleteTx(ctx context.Context, tx *sqlx.Tx, id string, ts time.Time) (*models.Response, error) {
	query := fmt.Sprintf(`UPDATE responses SET status = $2, completed_at = $3, last_activity_at = $3
        WHERE id = $1 AND status = $4 RETURNING %s`, responseColumns)
	var response models.Response
	if err := tx.GetContext(ctx, &response, query, id, models.ResponseStatusCompleted, ts, models.ResponseStatusStarted); err != nil {
		return nil, err
	}
	return &response, nil
}

// ListAnswers returns the answers of a response.
func (r *ResponseRepository) ListAnswers(ctx context.Context, responseID string) ([]models.Answer, error) {
	const query = `SELECT id, response_id, question_id, option_id, text_value, numeric_value FROM answers WHERE response_id = $1`
	var answers []models.Answer
	if err := r.db.SelectContext(ctx, &answers, query, responseID); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}
