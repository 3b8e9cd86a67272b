package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/formloop/formloop-api/internal/models"
)

// InviteRepository handles persistence of survey invites.
type InviteRepository struct {
	db *sqlx.DB
}

// NewInviteRepository constructs the repository.
func NewInviteRepository(db *sqlx.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

const inviteColumns = `id, survey_id, email, token, status, invited_by, expires_at, responded_at, created_at`

// Upsert creates an invite or refreshes an existing one for the same
// (survey_id, email) pair. Re-inviting resets the token, expiry and status
// unless the invite was already responded.
func (r *InviteRepository) Upsert(ctx context.Context, invite *models.Invite) error {
	if invite.ID == "" {
		invite.ID = uuid.NewString()
	}
	invite.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO invites (id, survey_id, email, token, status, invited_by, expires_at, responded_at, created_at)
        VALUES (:id, :survey_id, :email, :token, :status, :invited_by, :expires_at, :responded_at, :created_at)
        ON CONFLICT (survey_id, email) DO UPDATE
        SET token = EXCLUDED.token, status = EXCLUDED.status, invited_by = EXCLUDED.invited_by, expires_at = EXCLUDED.expires_at
        WHERE invites.status <> 'responded'`
	if _, err := r.db.NamedExecContext(ctx, query, invite); err != nil {
		return fmt.Errorf("upsert invite: %w", err)
	}
	return nil
}

// FindByToken returns an invite by its opaque token.
func (r *InviteRepository) FindByToken(ctx context.Context, token string) (*models.Invite, error) {
	query := fmt.Sprintf(`SELECT %s FROM invites WHERE token = $1 LIMIT 1`, inviteColumns)
	var invite models.Invite
	if err := r.db.GetContext(ctx, &invite, query, token); err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindBySurveyAndEmail returns the invite for a (survey, email) pair.
func (r *InviteRepository) FindBySurveyAndEmail(ctx context.Context, surveyID, email string) (*models.Invite, error) {
	query := fmt.Sprintf(`SELECT %s FROM invites WHERE survey_id = $1 AND email = $2 LIMIT 1`, inviteColumns)
	var invite models.Invite
	if err := r.db.GetContext(ctx, &invite, query, surveyID, email); err != nil {
		return nil, err
	}
	return &invite, nil
}

// ListBySurvey returns all invites of a survey.
func (r *InviteRepository) ListBySurvey(ctx context.Context, surveyID string) ([]models.Invite, error) {
	query := fmt.Sprintf(`SELECT %s FROM invites WHERE survey_id = $1 ORDER BY created_at DESC`, inviteColumns)
	var invites []models.Invite
	if err := r.db.SelectContext(ctx, &invites, query, surveyID); err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

// MarkResponded transitions a pending invite to responded. The status guard
// keeps responded and expired terminal.
func (r *InviteRepository) MarkResponded(ctx context.Context, token string, respondedAt time.Time) error {
	const query = `UPDATE invites SET status = $2, responded_at = $3 WHERE token = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, token, models.InviteStatusResponded, respondedAt, models.InviteStatusPending)
	if err != nil {
		return fmt.Errorf("mark invite responded: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark invite responded: invite not pending")
	}
	return nil
}

// MarkExpired flips a single pending invite to expired.
func (r *InviteRepository) MarkExpired(ctx context.Context, id string) error {
	const query = `UPDATE invites SET status = $2 WHERE id = $1 AND status = $3`
	if _, err := r.db.ExecContext(ctx, query, id, models.InviteStatusExpired, models.InviteStatusPending); err != nil {
		return fmt.Errorf("mark invite expired: %w", err)
	}
	return nil
}

// SweepExpired bulk-transitions pending invites past their expiry to
// expired and returns the number of rows flipped.
func (r *InviteRepository) SweepExpired(ctx context.Context, surveyID string, now time.Time) (int, error) {
	const query = `UPDATE invites SET status = $3 WHERE survey_id = $1 AND status = $2 AND expires_at < $4`
	res, err := r.db.ExecContext(ctx, query, surveyID, models.InviteStatusPending, models.InviteStatusExpired, now)
	if err != nil {
		return 0, fmt.Errorf("sweep expired invites: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep expired invites: %w", err)
	}
	return int(n), nil
}

// CountByStatus aggregates invite counts for a survey.
func (r *InviteRepository) CountByStatus(ctx context.Context, surveyID string) (*models.InviteStats, error) {
	const query = `SELECT
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'pending') AS pending,
        COUNT(*) FILTER (WHERE status = 'responded') AS responded,
        COUNT(*) FILTER (WHERE status = 'expired') AS expired
        FROM invites WHERE survey_id = $1`
	var stats models.InviteStats
	if err := r.db.GetContext(ctx, &stats, query, surveyID); err != nil {
		return nil, fmt.Errorf("count invites: %w", err)
	}
	return &stats, nil
}
