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
)

type surveyRepository interface {
	Create(ctx context.Context, survey *models.Survey) error
	FindByID(ctx context.Context, id string) (*models.Survey, error)
	UpdateStatus(ctx context.Context, id string, status models.SurveyStatus) error
	List(ctx context.Context, filter models.SurveyFilter) ([]models.Survey, int, error)
	HasResponses(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// CreateSurveyRequest describes survey creation. Either the canonical
// visibility or the legacy access_type may be supplied; access_type is
// translated on input.
type CreateSurveyRequest struct {
	Title        string                    `json:"title" validate:"required"`
	Description  string                    `json:"description"`
	Visibility   models.SurveyVisibility   `json:"visibility"`
	AccessType   string                    `json:"access_type"`
	IdentityMode models.SurveyIdentityMode `json:"identity_mode"`
	WorkspaceID  *string                   `json:"workspace_id,omitempty"`
	StartDate    *time.Time                `json:"start_date,omitempty"`
	EndDate      *time.Time                `json:"end_date,omitempty"`
}

// SurveyService owns survey configuration validation and the admin-facing
// survey operations this core needs.
type SurveyService struct {
	repo      surveyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSurveyService constructs SurveyService.
func NewSurveyService(repo surveyRepository, validate *validator.Validate, logger *zap.Logger) *SurveyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyService{repo: repo, validator: validate, logger: logger}
}

// ValidateConfig enforces the structural invariants on a survey's access
// configuration:
//   - workspace_id is required exactly when visibility is workspace_members
//   - identified_only is incompatible with public visibility
func ValidateConfig(visibility models.SurveyVisibility, identityMode models.SurveyIdentityMode, workspaceID *string) error {
	if !visibility.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown visibility %q", visibility))
	}
	if !identityMode.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown identity mode %q", identityMode))
	}
	if visibility == models.VisibilityWorkspaceMembers && workspaceID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "workspace_members surveys require a workspace_id")
	}
	if visibility != models.VisibilityWorkspaceMembers && workspaceID != nil {
		return appErrors.Clone(appErrors.ErrValidation, "workspace_id is only valid for workspace_members surveys")
	}
	if identityMode == models.IdentityIdentifiedOnly && visibility == models.VisibilityPublic {
		return appErrors.Clone(appErrors.ErrValidation, "identified_only surveys cannot be public")
	}
	return nil
}

// Create validates and persists a new survey in draft state.
func (s *SurveyService) Create(ctx context.Context, ownerID string, req CreateSurveyRequest) (*models.Survey, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid survey payload")
	}

	visibility := req.Visibility
	if visibility == "" && req.AccessType != "" {
		visibility = models.VisibilityFromAccessType(req.AccessType)
		if visibility == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown access_type %q", req.AccessType))
		}
	}
	identityMode := req.IdentityMode
	if identityMode == "" {
		identityMode = models.IdentityMixed
	}

	if err := ValidateConfig(visibility, identityMode, req.WorkspaceID); err != nil {
		return nil, err
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}

	survey := &models.Survey{
		WorkspaceID:  req.WorkspaceID,
		OwnerID:      ownerID,
		Title:        req.Title,
		Description:  req.Description,
		Visibility:   visibility,
		IdentityMode: identityMode,
		Status:       models.SurveyStatusDraft,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if err := s.repo.Create(ctx, survey); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create survey")
	}
	return survey, nil
}

// Get returns a survey by id.
func (s *SurveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	survey, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "survey not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}
	return survey, nil
}

// List returns surveys with pagination metadata.
func (s *SurveyService) List(ctx context.Context, filter models.SurveyFilter) ([]models.Survey, *models.Pagination, error) {
	surveys, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list surveys")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return surveys, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// UpdateStatus moves a survey between publication states.
func (s *SurveyService) UpdateStatus(ctx context.Context, id string, status models.SurveyStatus) (*models.Survey, error) {
	switch status {
	case models.SurveyStatusDraft, models.SurveyStatusActive, models.SurveyStatusClosed, models.SurveyStatusAnalyzed:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown survey status %q", status))
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update survey status")
	}
	return s.Get(ctx, id)
}

// Delete removes a survey. Deletion is blocked while responses exist; the
// guard lives here, not only in the database.
func (s *SurveyService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	hasResponses, err := s.repo.HasResponses(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check survey responses")
	}
	if hasResponses {
		return appErrors.Clone(appErrors.ErrSurveyHasResponses, "")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete survey")
	}
	return nil
}
