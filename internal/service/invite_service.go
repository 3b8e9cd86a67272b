package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/formloop/formloop-api/internal/models"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
	"github.com/formloop/formloop-api/pkg/token"
)

type inviteRepository interface {
	Upsert(ctx context.Context, invite *models.Invite) error
	FindByToken(ctx context.Context, token string) (*models.Invite, error)
	FindBySurveyAndEmail(ctx context.Context, surveyID, email string) (*models.Invite, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Invite, error)
	MarkResponded(ctx context.Context, token string, respondedAt time.Time) error
	MarkExpired(ctx context.Context, id string) error
	SweepExpired(ctx context.Context, surveyID string, now time.Time) (int, error)
	CountByStatus(ctx context.Context, surveyID string) (*models.InviteStats, error)
}

// InviteService is the invite ledger for private surveys.
type InviteService struct {
	repo      inviteRepository
	surveys   surveyReader
	metrics   *MetricsService
	ttl       time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewInviteService constructs InviteService.
func NewInviteService(repo inviteRepository, surveys surveyReader, metrics *MetricsService, ttl time.Duration, validate *validator.Validate, logger *zap.Logger) *InviteService {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InviteService{
		repo:      repo,
		surveys:   surveys,
		metrics:   metrics,
		ttl:       ttl,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvites creates or refreshes one invite per email for the survey. At
// most one invite exists per (survey, email); re-inviting a pending or
// expired address issues a fresh token and expiry.
func (s *InviteService) CreateInvites(ctx context.Context, surveyID string, emails []string, invitedBy string) ([]models.Invite, error) {
	if len(emails) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no emails provided")
	}
	if _, err := s.surveys.FindByID(ctx, surveyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}

	now := s.now()
	invites := make([]models.Invite, 0, len(emails))
	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if err := s.validator.Var(email, "required,email"); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid email %q", raw))
		}

		value, err := token.Generate(token.MinBytes)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate invite token")
		}
		invite := &models.Invite{
			SurveyID:  surveyID,
			Email:     email,
			Token:     value,
			Status:    models.InviteStatusPending,
			InvitedBy: invitedBy,
			ExpiresAt: now.Add(s.ttl),
		}
		if err := s.repo.Upsert(ctx, invite); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invite")
		}

		// The upsert leaves responded invites untouched; reload to return
		// the row as stored.
		stored, err := s.repo.FindBySurveyAndEmail(ctx, surveyID, email)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invite")
		}
		invites = append(invites, *stored)
	}
	return invites, nil
}

// ValidateInvite resolves a token for a respondent. Not-found, expired and
// already-responded outcomes surface as distinct errors. A pending invite
// past its expiry is lazily flipped to expired before being rejected.
func (s *InviteService) ValidateInvite(ctx context.Context, tokenValue string) (*models.InviteValidation, error) {
	invite, err := s.repo.FindByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInviteNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve invite")
	}

	switch invite.Status {
	case models.InviteStatusResponded:
		return nil, appErrors.Clone(appErrors.ErrInviteAlreadyUsed, "")
	case models.InviteStatusExpired:
		return nil, appErrors.Clone(appErrors.ErrInviteExpired, "")
	}
	if invite.ExpiredAt(s.now()) {
		if err := s.repo.MarkExpired(ctx, invite.ID); err != nil {
			s.logger.Warn("failed to lazily expire invite", zap.String("invite_id", invite.ID), zap.Error(err))
		}
		s.metrics.RecordSweep(0, 1)
		return nil, appErrors.Clone(appErrors.ErrInviteExpired, "")
	}

	survey, err := s.surveys.FindByID(ctx, invite.SurveyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}

	return &models.InviteValidation{
		Valid: true,
		Email: invite.Email,
		Survey: &models.SurveySnapshot{
			ID:           survey.ID,
			Title:        survey.Title,
			Description:  survey.Description,
			AccessType:   survey.Visibility.AccessType(),
			RequireLogin: survey.Visibility != models.VisibilityPublic,
			WorkspaceID:  survey.WorkspaceID,
		},
	}, nil
}

// MarkResponded transitions a pending invite to responded. Invoked
// post-commit by the submission orchestrator; the caller treats failures as
// best-effort.
func (s *InviteService) MarkResponded(ctx context.Context, tokenValue string) error {
	if err := s.repo.MarkResponded(ctx, tokenValue, s.now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark invite responded")
	}
	return nil
}

// SweepExpired bulk-expires pending invites past their expiry.
func (s *InviteService) SweepExpired(ctx context.Context, surveyID string) (int, error) {
	count, err := s.repo.SweepExpired(ctx, surveyID, s.now())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep invites")
	}
	if count > 0 {
		s.logger.Info("swept expired invites", zap.String("survey_id", surveyID), zap.Int("count", count))
		s.metrics.RecordSweep(0, count)
	}
	return count, nil
}

// Stats sweeps first, then aggregates invite counts so expiry is reflected
// up to this instant.
func (s *InviteService) Stats(ctx context.Context, surveyID string) (*models.InviteStats, error) {
	if _, err := s.SweepExpired(ctx, surveyID); err != nil {
		return nil, err
	}
	stats, err := s.repo.CountByStatus(ctx, surveyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count invites")
	}
	return stats, nil
}

// ListBySurvey returns the invites of a survey.
func (s *InviteService) ListBySurvey(ctx context.Context, surveyID string) ([]models.Invite, error) {
	invites, err := s.repo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invites")
	}
	return invites, nil
}
