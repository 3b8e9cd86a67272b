package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/formloop/formloop-api/internal/models"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
)

type lifecycleRepository interface {
	Create(ctx context.Context, response *models.Response) error
	FindByID(ctx context.Context, id string) (*models.Response, error)
	UpdateLastActivity(ctx context.Context, id string, ts time.Time) error
	Complete(ctx context.Context, id string, ts time.Time) (*models.Response, error)
	SweepAbandoned(ctx context.Context, surveyID string, cutoff time.Time) (int, error)
	CountByStatus(ctx context.Context, surveyID string) (*models.ResponseStats, error)
}

// DefaultAbandonTimeout is applied when the configured timeout is zero:
// 1440 minutes of inactivity.
const DefaultAbandonTimeout = 24 * time.Hour

// LifecycleService owns the response state machine: started -> completed or
// started -> abandoned, with lazy on-read sweeping instead of a scheduler.
type LifecycleService struct {
	repo           lifecycleRepository
	abandonTimeout time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewLifecycleService constructs the lifecycle manager.
func NewLifecycleService(repo lifecycleRepository, abandonTimeout time.Duration, logger *zap.Logger) *LifecycleService {
	if abandonTimeout <= 0 {
		abandonTimeout = DefaultAbandonTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		repo:           repo,
		abandonTimeout: abandonTimeout,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Start creates a response in state started with both timestamps set to now.
func (s *LifecycleService) Start(ctx context.Context, surveyID string, collectorID, respondentID, sessionID *string) (*models.Response, error) {
	now := s.now()
	response := &models.Response{
		SurveyID:       surveyID,
		CollectorID:    collectorID,
		RespondentID:   respondentID,
		SessionID:      sessionID,
		Status:         models.ResponseStatusStarted,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if err := s.repo.Create(ctx, response); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start response")
	}
	return response, nil
}

// Touch updates last_activity_at on a started response. It is best-effort:
// failures are logged and swallowed so the caller's path is never aborted.
func (s *LifecycleService) Touch(ctx context.Context, responseID string) {
	if err := s.repo.UpdateLastActivity(ctx, responseID, s.now()); err != nil {
		s.logger.Warn("failed to touch response", zap.String("response_id", responseID), zap.Error(err))
	}
}

// Complete transitions a started response to completed. Any other current
// status fails with INVALID_TRANSITION; terminal states never move.
func (s *LifecycleService) Complete(ctx context.Context, responseID string) (*models.Response, error) {
	response, err := s.repo.Complete(ctx, responseID, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "response is not in state started")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete response")
	}
	return response, nil
}

// SweepAbandoned transitions every started response whose last activity
// predates the abandon timeout to abandoned and returns the count. It is
// invoked synchronously before any aggregate read; there is no scheduler.
func (s *LifecycleService) SweepAbandoned(ctx context.Context, surveyID string) (int, error) {
	cutoff := s.now().Add(-s.abandonTimeout)
	count, err := s.repo.SweepAbandoned(ctx, surveyID, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep abandoned responses")
	}
	if count > 0 {
		s.logger.Info("swept abandoned responses", zap.String("survey_id", surveyID), zap.Int("count", count))
	}
	return count, nil
}

// Stats sweeps first, then counts responses by status so the aggregate
// reflects abandonment up to this instant.
func (s *LifecycleService) Stats(ctx context.Context, surveyID string) (*models.ResponseStats, error) {
	if _, err := s.SweepAbandoned(ctx, surveyID); err != nil {
		return nil, err
	}
	stats, err := s.repo.CountByStatus(ctx, surveyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count responses")
	}
	return stats, nil
}

// CompletionRate derives the completed share from Stats. The rate is zero,
// not NaN, when no responses exist.
func (s *LifecycleService) CompletionRate(ctx context.Context, surveyID string) (*models.CompletionRate, error) {
	stats, err := s.Stats(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	rate := &models.CompletionRate{Completed: stats.Completed, Total: stats.Total}
	if stats.Total > 0 {
		rate.Rate = float64(stats.Completed) / float64(stats.Total)
	}
	return rate, nil
}

// Find returns a response by id.
func (s *LifecycleService) Find(ctx context.Context, responseID string) (*models.Response, error) {
	response, err := s.repo.FindByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "response not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load response")
	}
	return response, nil
}
