package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/formloop/formloop-api/internal/models"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
	"github.com/formloop/formloop-api/pkg/token"
)

type collectorRepository interface {
	Create(ctx context.Context, collector *models.Collector) error
	FindByToken(ctx context.Context, token string) (*models.Collector, error)
	FindByID(ctx context.Context, id string) (*models.Collector, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Collector, error)
	TokenExists(ctx context.Context, token string) (bool, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type surveyReader interface {
	FindByID(ctx context.Context, id string) (*models.Survey, error)
}

type questionReader interface {
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error)
}

// CreateCollectorRequest describes collector creation.
type CreateCollectorRequest struct {
	SurveyID               string               `json:"survey_id" validate:"required"`
	Type                   models.CollectorType `json:"collector_type" validate:"required"`
	AllowMultipleResponses bool                 `json:"allow_multiple_responses"`
	ExpiresAt              *time.Time           `json:"expires_at,omitempty"`
}

// tokenCollisionRetries bounds the regenerate loop. With 128-bit tokens a
// second collision is effectively unreachable.
const tokenCollisionRetries = 3

// CollectorService is the collector registry: token generation, resolution
// and the respondent-facing snapshot.
type CollectorService struct {
	repo       collectorRepository
	surveys    surveyReader
	questions  questionReader
	cache      *CacheService
	tokenBytes int
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCollectorService constructs CollectorService.
func NewCollectorService(repo collectorRepository, surveys surveyReader, questions questionReader, cache *CacheService, tokenBytes int, validate *validator.Validate, logger *zap.Logger) *CollectorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollectorService{
		repo:       repo,
		surveys:    surveys,
		questions:  questions,
		cache:      cache,
		tokenBytes: tokenBytes,
		validator:  validate,
		logger:     logger,
	}
}

// Create registers a collector for a survey with a fresh opaque token.
func (s *CollectorService) Create(ctx context.Context, req CreateCollectorRequest) (*models.Collector, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collector payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown collector type %q", req.Type))
	}
	if _, err := s.surveys.FindByID(ctx, req.SurveyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}

	value, err := s.generateToken(ctx)
	if err != nil {
		return nil, err
	}

	collector := &models.Collector{
		SurveyID:               req.SurveyID,
		Token:                  value,
		Type:                   req.Type,
		IsActive:               true,
		AllowMultipleResponses: req.AllowMultipleResponses,
		ExpiresAt:              req.ExpiresAt,
	}
	if err := s.repo.Create(ctx, collector); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create collector")
	}
	return collector, nil
}

// generateToken produces a unique opaque token, retrying on the negligible
// chance of a collision.
func (s *CollectorService) generateToken(ctx context.Context) (string, error) {
	for attempt := 0; attempt < tokenCollisionRetries; attempt++ {
		value, err := token.Generate(s.tokenBytes)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate collector token")
		}
		exists, err := s.repo.TokenExists(ctx, value)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check token uniqueness")
		}
		if !exists {
			return value, nil
		}
		s.logger.Warn("collector token collision, regenerating", zap.Int("attempt", attempt+1))
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "exhausted collector token generation attempts")
}

// ResolveToken returns the collector behind an opaque token.
func (s *CollectorService) ResolveToken(ctx context.Context, tokenValue string) (*models.Collector, error) {
	collector, err := s.repo.FindByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reasonError(models.Deny(models.ReasonCollectorNotFound))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve collector token")
	}
	return collector, nil
}

// Snapshot assembles the respondent-facing survey view for a collector
// token: 404 when the collector is unknown, 403 when it or its survey is not
// accepting responses. Served from cache when warm.
func (s *CollectorService) Snapshot(ctx context.Context, tokenValue string) (*models.CollectorSnapshot, error) {
	cacheKey := snapshotCacheKey(tokenValue)
	if s.cache.Enabled() {
		var cached models.CollectorSnapshot
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	collector, err := s.ResolveToken(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !collector.IsActive {
		return nil, reasonError(models.Deny(models.ReasonCollectorInactive))
	}
	if collector.Expired(now) {
		return nil, reasonError(models.Deny(models.ReasonCollectorExpired))
	}

	survey, err := s.surveys.FindByID(ctx, collector.SurveyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reasonError(models.Deny(models.ReasonSurveyNotFound))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}
	if !survey.AcceptingAt(now) {
		return nil, reasonError(models.Deny(models.ReasonSurveyInactive))
	}

	questions, err := s.questions.ListBySurvey(ctx, survey.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}

	snapshot := &models.CollectorSnapshot{
		Collector: *collector,
		Survey: models.SurveySnapshot{
			ID:           survey.ID,
			Title:        survey.Title,
			Description:  survey.Description,
			AccessType:   survey.Visibility.AccessType(),
			RequireLogin: survey.Visibility != models.VisibilityPublic,
			WorkspaceID:  survey.WorkspaceID,
			Questions:    questions,
		},
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, snapshot); err != nil {
			s.logger.Warn("failed to cache collector snapshot", zap.Error(err))
		}
	}
	return snapshot, nil
}

// InvalidateSnapshot drops the cached snapshot for a collector token, called
// after survey or collector mutations.
func (s *CollectorService) InvalidateSnapshot(ctx context.Context, tokenValue string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, snapshotCacheKey(tokenValue)); err != nil {
		s.logger.Warn("failed to invalidate collector snapshot", zap.Error(err))
	}
}

// ListBySurvey returns all collectors of a survey.
func (s *CollectorService) ListBySurvey(ctx context.Context, surveyID string) ([]models.Collector, error) {
	collectors, err := s.repo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list collectors")
	}
	return collectors, nil
}

// SetActive flips a collector's active flag and drops its cached snapshot.
func (s *CollectorService) SetActive(ctx context.Context, id string, active bool) error {
	collector, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "collector not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collector")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update collector")
	}
	s.InvalidateSnapshot(ctx, collector.Token)
	return nil
}

func snapshotCacheKey(tokenValue string) string {
	return "collector:snapshot:" + tokenValue
}

// reasonError converts a deny decision into the boundary error carrying its
// reason code and the fixed HTTP status for that reason.
func reasonError(d models.Decision) *appErrors.Error {
	status, ok := models.ReasonStatus[d.Reason]
	if !ok {
		status = appErrors.ErrForbidden.Status
	}
	message := d.Detail
	if message == "" {
		message = "access denied"
	}
	return appErrors.New(string(d.Reason), status, message)
}
