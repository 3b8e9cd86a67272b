package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/formloop/formloop-api/internal/models"
)

// SurveyRepository handles persistence of surveys.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository constructs the repository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

const surveyColumns = `id, workspace_id, owner_id, title, description, visibility, identity_mode, status, start_date, end_date, created_at, updated_at`

// FindByID returns a survey by its ID.
func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	query := fmt.Sprintf(`SELECT %s FROM surveys WHERE id = $1`, surveyColumns)
	var survey models.Survey
	if err := r.db.GetContext(ctx, &survey, query, id); err != nil {
		return nil, err
	}
	return &survey, nil
}

// Create inserts a new survey and assigns its ID.
func (r *SurveyRepository) Create(ctx context.Context, survey *models.Survey) error {
	if survey.ID == "" {
		survey.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	survey.CreatedAt = now
	survey.UpdatedAt = now
	const query = `INSERT INTO surveys (id, workspace_id, owner_id, title, description, visibility, identity_mode, status, start_date, end_date, created_at, updated_at)
        VALUES (:id, :workspace_id, :owner_id, :title, :description, :visibility, :identity_mode, :status, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, survey); err != nil {
		return fmt.Errorf("create survey: %w", err)
	}
	return nil
}

// UpdateStatus moves a survey to a new publication status.
func (r *SurveyRepository) UpdateStatus(ctx context.Context, id string, status models.SurveyStatus) error {
	const query = `UPDATE surveys SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update survey status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update survey status: survey %s not found", id)
	}
	return nil
}

// List returns surveys matching the filter.
func (r *SurveyRepository) List(ctx context.Context, filter models.SurveyFilter) ([]models.Survey, int, error) {
	var conditions []string
	var args []interface{}

	if filter.WorkspaceID != "" {
		conditions = append(conditions, fmt.Sprintf("workspace_id = $%d", len(args)+1))
		args = append(args, filter.WorkspaceID)
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM surveys%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, surveyColumns, clause, size, offset)
	var surveys []models.Survey
	if err := r.db.SelectContext(ctx, &surveys, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list surveys: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM surveys" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count surveys: %w", err)
	}
	return surveys, total, nil
}

// HasResponses reports whether any response rows exist for the survey.
func (r *SurveyRepository) HasResponses(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM responses WHERE survey_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check survey responses: %w", err)
	}
	return exists, nil
}

// Delete removes a survey row. Callers must enforce the no-responses guard
// before invoking this.
func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM surveys WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete survey: survey %s not found", id)
	}
	return nil
}
