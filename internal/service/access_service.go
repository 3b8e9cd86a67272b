package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/formloop/formloop-api/internal/models"
)

type accessInviteReader interface {
	FindByToken(ctx context.Context, token string) (*models.Invite, error)
	MarkExpired(ctx context.Context, id string) error
}

type membershipReader interface {
	IsMember(ctx context.Context, workspaceID, userID string) (bool, error)
}

type duplicateReader interface {
	ExistsCompleted(ctx context.Context, collectorID string, respondentID, sessionID *string) (bool, error)
}

// DecideInput bundles everything the decision engine evaluates for one
// respondent request.
type DecideInput struct {
	Survey      *models.Survey
	Collector   *models.Collector
	Identity    models.IdentityContext
	InviteToken string

	// RespondentID or SessionID identify the respondent for the
	// duplicate-response check. Both may be nil for a first contact.
	RespondentID *string
	SessionID    *string
}

// AccessService is the survey access decision engine. Policy denials come
// back as Decision values; only I/O failures return errors.
type AccessService struct {
	invites    accessInviteReader
	membership membershipReader
	responses  duplicateReader
	logger     *zap.Logger
	now        func() time.Time
}

// NewAccessService constructs the decision engine with its injected readers.
func NewAccessService(invites accessInviteReader, membership membershipReader, responses duplicateReader, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{
		invites:    invites,
		membership: membership,
		responses:  responses,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Decide evaluates the ordered access checks. The first failing check wins;
// later checks are not evaluated.
func (s *AccessService) Decide(ctx context.Context, in DecideInput) (models.Decision, error) {
	now := s.now()

	if d, ok := s.checkSurvey(in.Survey, now); !ok {
		return d, nil
	}
	if d, ok := s.checkCollector(in.Collector, now); !ok {
		return d, nil
	}
	if d, ok, err := s.checkVisibility(ctx, in.Survey, in.Identity); err != nil {
		return models.Decision{}, err
	} else if !ok {
		return d, nil
	}
	if in.Survey.Visibility == models.VisibilityPrivate {
		if d, ok, err := s.checkInvite(ctx, in.Survey, in.InviteToken, now); err != nil {
			return models.Decision{}, err
		} else if !ok {
			return d, nil
		}
	}
	if d, ok, err := s.checkDuplicate(ctx, in); err != nil {
		return models.Decision{}, err
	} else if !ok {
		return d, nil
	}

	return models.Allow(), nil
}

func (s *AccessService) checkSurvey(survey *models.Survey, now time.Time) (models.Decision, bool) {
	if survey == nil {
		return models.Deny(models.ReasonSurveyNotFound), false
	}
	if survey.Status != models.SurveyStatusActive {
		return models.Deny(models.ReasonSurveyInactive), false
	}
	if survey.StartDate != nil && now.Before(*survey.StartDate) {
		return models.Deny(models.ReasonSurveyNotStarted), false
	}
	if survey.EndDate != nil && now.After(*survey.EndDate) {
		return models.Deny(models.ReasonSurveyEnded), false
	}
	return models.Decision{}, true
}

func (s *AccessService) checkCollector(collector *models.Collector, now time.Time) (models.Decision, bool) {
	if collector == nil {
		return models.Deny(models.ReasonCollectorNotFound), false
	}
	if !collector.IsActive {
		return models.Deny(models.ReasonCollectorInactive), false
	}
	if collector.Expired(now) {
		return models.Deny(models.ReasonCollectorExpired), false
	}
	return models.Decision{}, true
}

func (s *AccessService) checkVisibility(ctx context.Context, survey *models.Survey, identity models.IdentityContext) (models.Decision, bool, error) {
	switch survey.Visibility {
	case models.VisibilityPublic, models.VisibilityPrivate:
		// Public is open; private gates on the invite, checked next.
	case models.VisibilityAuthenticated:
		if !identity.Authenticated {
			return models.Deny(models.ReasonAuthRequired), false, nil
		}
	case models.VisibilityWorkspaceMembers:
		if !identity.Authenticated {
			return models.Deny(models.ReasonAuthRequired), false, nil
		}
		if survey.WorkspaceID == nil {
			return models.DenyDetail(models.ReasonInvalidSurveyConfig, "workspace survey has no workspace"), false, nil
		}
		member, err := s.membership.IsMember(ctx, *survey.WorkspaceID, identity.UserID)
		if err != nil {
			return models.Decision{}, false, err
		}
		if !member {
			return models.Deny(models.ReasonNotWorkspaceMember), false, nil
		}
	default:
		return models.DenyDetail(models.ReasonInvalidSurveyConfig, "unknown visibility"), false, nil
	}

	// Survey creation validation rejects identified_only on public surveys,
	// so this normally only bites for authenticated visibilities with a
	// missing identity.
	if survey.IdentityMode == models.IdentityIdentifiedOnly && !identity.Authenticated {
		return models.Deny(models.ReasonAuthRequired), false, nil
	}

	return models.Decision{}, true, nil
}

func (s *AccessService) checkInvite(ctx context.Context, survey *models.Survey, inviteToken string, now time.Time) (models.Decision, bool, error) {
	if inviteToken == "" {
		return models.Deny(models.ReasonInviteMissing), false, nil
	}
	invite, err := s.invites.FindByToken(ctx, inviteToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DenyDetail(models.ReasonInviteMissing, "invite token did not resolve"), false, nil
		}
		return models.Decision{}, false, err
	}
	if invite.SurveyID != survey.ID {
		return models.Deny(models.ReasonInviteWrongSurvey), false, nil
	}
	switch invite.Status {
	case models.InviteStatusResponded:
		return models.Deny(models.ReasonInviteAlreadyUsed), false, nil
	case models.InviteStatusExpired:
		return models.Deny(models.ReasonInviteExpired), false, nil
	}
	if invite.ExpiredAt(now) {
		// Lazy expiry on read; the flip is best-effort.
		if err := s.invites.MarkExpired(ctx, invite.ID); err != nil {
			s.logger.Warn("failed to lazily expire invite", zap.String("invite_id", invite.ID), zap.Error(err))
		}
		return models.Deny(models.ReasonInviteExpired), false, nil
	}
	return models.Decision{}, true, nil
}

func (s *AccessService) checkDuplicate(ctx context.Context, in DecideInput) (models.Decision, bool, error) {
	if in.Collector.AllowMultipleResponses {
		return models.Decision{}, true, nil
	}
	exists, err := s.responses.ExistsCompleted(ctx, in.Collector.ID, in.RespondentID, in.SessionID)
	if err != nil {
		return models.Decision{}, false, err
	}
	if exists {
		return models.Deny(models.ReasonDuplicateResponse), false, nil
	}
	return models.Decision{}, true, nil
}
