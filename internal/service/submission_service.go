package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/formloop/formloop-api/internal/models"
	"github.com/formloop/formloop-api/internal/repository"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
)

type submissionCollectorRepository interface {
	FindByToken(ctx context.Context, token string) (*models.Collector, error)
	LockForSubmission(ctx context.Context, tx *sqlx.Tx, id string) error
	IncrementResponseCount(ctx context.Context, tx *sqlx.Tx, id string) error
}

type submissionResponseRepository interface {
	DB() *sqlx.DB
	ExistsCompletedTx(ctx context.Context, tx *sqlx.Tx, collectorID string, respondentID, sessionID *string) (bool, error)
	FindStartedTx(ctx context.Context, tx *sqlx.Tx, collectorID string, respondentID, sessionID *string) (*models.Response, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, response *models.Response) error
	InsertAnswersTx(ctx context.Context, tx *sqlx.Tx, answers []models.Answer) error
	CompleteTx(ctx context.Context, tx *sqlx.Tx, id string, ts time.Time) (*models.Response, error)
}

type accessDecider interface {
	Decide(ctx context.Context, in DecideInput) (models.Decision, error)
}

type inviteResponder interface {
	MarkResponded(ctx context.Context, token string) error
}

type snapshotInvalidator interface {
	InvalidateSnapshot(ctx context.Context, token string)
}

// AnswerInput is one raw answer as received from the respondent.
type AnswerInput struct {
	QuestionID string      `json:"questionId" validate:"required"`
	Value      interface{} `json:"value"`
}

// SubmitRequest transports a full submission into the orchestrator.
type SubmitRequest struct {
	CollectorToken string
	InviteToken    string
	SessionID      string
	Answers        []AnswerInput
	Identity       models.IdentityContext
}

// SubmissionService composes the access decision engine, the response
// lifecycle and answer persistence into one transactional submit.
type SubmissionService struct {
	collectors submissionCollectorRepository
	responses  submissionResponseRepository
	surveys    surveyReader
	questions  questionReader
	access     accessDecider
	invites    inviteResponder
	snapshots  snapshotInvalidator
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewSubmissionService constructs SubmissionService.
func NewSubmissionService(
	collectors submissionCollectorRepository,
	responses submissionResponseRepository,
	surveys surveyReader,
	questions questionReader,
	access accessDecider,
	invites inviteResponder,
	snapshots snapshotInvalidator,
	metrics *MetricsService,
	logger *zap.Logger,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		collectors: collectors,
		responses:  responses,
		surveys:    surveys,
		questions:  questions,
		access:     access,
		invites:    invites,
		snapshots:  snapshots,
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit runs the full submission. A deny decision or validation failure
// aborts before any write; the transactional phase spans the duplicate
// check, the response row, all answer rows and the collector counter. The
// invite side effect is post-commit and best-effort.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*models.SubmissionReceipt, error) {
	collector, err := s.collectors.FindByToken(ctx, req.CollectorToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.deny(models.Deny(models.ReasonCollectorNotFound))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve collector")
	}

	survey, err := s.surveys.FindByID(ctx, collector.SurveyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.deny(models.Deny(models.ReasonSurveyNotFound))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey")
	}

	respondentID, sessionID := respondentKeys(survey, req.Identity, req.SessionID)

	decision, err := s.access.Decide(ctx, DecideInput{
		Survey:       survey,
		Collector:    collector,
		Identity:     req.Identity,
		InviteToken:  req.InviteToken,
		RespondentID: respondentID,
		SessionID:    sessionID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "access decision failed")
	}
	if !decision.Allowed {
		return nil, s.deny(decision)
	}

	// The question set is loaded once so coercion and the required-answer
	// check see one consistent type mapping.
	questions, err := s.questions.ListBySurvey(ctx, survey.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
	}

	answers, answered, err := coerceAnswers(questions, req.Answers)
	if err != nil {
		s.metrics.RecordSubmission("validation_failed")
		return nil, err
	}
	for _, q := range questions {
		if q.Required && !answered[q.ID] {
			s.metrics.RecordSubmission("validation_failed")
			return nil, appErrors.Clone(appErrors.ErrMissingRequiredAnswer, fmt.Sprintf("question %s requires an answer", q.ID))
		}
	}

	now := s.now()
	var completed *models.Response
	err = repository.WithTx(ctx, s.responses.DB(), func(tx *sqlx.Tx) error {
		// Row lock on the collector serializes concurrent submissions for
		// the same collector, closing the duplicate check-then-act window.
		if err := s.collectors.LockForSubmission(ctx, tx, collector.ID); err != nil {
			return err
		}

		if !collector.AllowMultipleResponses {
			exists, err := s.responses.ExistsCompletedTx(ctx, tx, collector.ID, respondentID, sessionID)
			if err != nil {
				return err
			}
			if exists {
				return appErrors.Clone(appErrors.ErrDuplicateResponse, "")
			}
		}

		response, err := s.responses.FindStartedTx(ctx, tx, collector.ID, respondentID, sessionID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			response = &models.Response{
				SurveyID:       survey.ID,
				CollectorID:    &collector.ID,
				RespondentID:   respondentID,
				SessionID:      sessionID,
				Status:         models.ResponseStatusStarted,
				StartedAt:      now,
				LastActivityAt: now,
			}
			if err := s.responses.CreateTx(ctx, tx, response); err != nil {
				return err
			}
		}

		for i := range answers {
			answers[i].ResponseID = response.ID
		}
		if err := s.responses.InsertAnswersTx(ctx, tx, answers); err != nil {
			return err
		}

		completed, err = s.responses.CompleteTx(ctx, tx, response.ID, now)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrInvalidTransition, "response is not in state started")
			}
			return err
		}

		return s.collectors.IncrementResponseCount(ctx, tx, collector.ID)
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			s.metrics.RecordSubmission(appErr.Code)
			return nil, appErr
		}
		s.metrics.RecordSubmission("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "submission failed")
	}

	// Post-commit phase: the response is already durable, so failures here
	// are logged, never surfaced to the respondent.
	if req.InviteToken != "" {
		if err := s.invites.MarkResponded(ctx, req.InviteToken); err != nil {
			s.logger.Warn("failed to mark invite responded after submission",
				zap.String("response_id", completed.ID), zap.Error(err))
		}
	}
	if s.snapshots != nil {
		s.snapshots.InvalidateSnapshot(ctx, req.CollectorToken)
	}

	s.metrics.RecordSubmission("completed")
	return &models.SubmissionReceipt{
		ResponseID:  completed.ID,
		SurveyID:    survey.ID,
		SubmittedAt: *completed.CompletedAt,
	}, nil
}

func (s *SubmissionService) deny(d models.Decision) *appErrors.Error {
	s.metrics.RecordAccessDenial(string(d.Reason))
	s.metrics.RecordSubmission(string(d.Reason))
	return reasonError(d)
}

// respondentKeys derives the de-duplication identity. Surveys in
// anonymous_only mode never record who responded, so only the session key is
// kept for those.
func respondentKeys(survey *models.Survey, identity models.IdentityContext, session string) (respondentID, sessionID *string) {
	if identity.Authenticated && survey.IdentityMode != models.IdentityAnonymousOnly {
		id := identity.UserID
		respondentID = &id
	}
	if session != "" {
		sessionID = &session
	}
	return respondentID, sessionID
}

// coerceAnswers maps raw inputs onto typed answer rows using each question's
// type. It returns the rows plus the set of question ids that produced at
// least one row.
func coerceAnswers(questions []models.Question, inputs []AnswerInput) ([]models.Answer, map[string]bool, error) {
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	var answers []models.Answer
	answered := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		q, ok := byID[in.QuestionID]
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s does not belong to this survey", in.QuestionID))
		}
		rows, err := coerceAnswer(q, in.Value)
		if err != nil {
			return nil, nil, err
		}
		if len(rows) > 0 {
			answered[q.ID] = true
			answers = append(answers, rows...)
		}
	}
	return answers, answered, nil
}

// coerceAnswer converts one raw value into answer rows per the question
// type. The switch is exhaustive; an unknown type is rejected rather than
// silently treated as text.
func coerceAnswer(q models.Question, value interface{}) ([]models.Answer, error) {
	if value == nil {
		return nil, nil
	}
	switch q.Type {
	case models.QuestionSingleChoice, models.QuestionDropdown:
		optionID, err := resolveOption(q, value, false)
		if err != nil {
			return nil, err
		}
		return []models.Answer{{QuestionID: q.ID, OptionID: &optionID}}, nil

	case models.QuestionYesNo:
		optionID, err := resolveOption(q, value, true)
		if err != nil {
			return nil, err
		}
		return []models.Answer{{QuestionID: q.ID, OptionID: &optionID}}, nil

	case models.QuestionMultiChoice, models.QuestionCheckbox:
		items, ok := value.([]interface{})
		if !ok {
			items = []interface{}{value}
		}
		rows := make([]models.Answer, 0, len(items))
		for _, item := range items {
			optionID, err := resolveOption(q, item, false)
			if err != nil {
				return nil, err
			}
			rows = append(rows, models.Answer{QuestionID: q.ID, OptionID: &optionID})
		}
		return rows, nil

	case models.QuestionRating, models.QuestionLikert:
		numeric := parseNumeric(value)
		return []models.Answer{{QuestionID: q.ID, NumericValue: numeric}}, nil

	case models.QuestionOpenText:
		text := fmt.Sprintf("%v", value)
		return []models.Answer{{QuestionID: q.ID, TextValue: &text}}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported question type %q", q.Type))
}

// resolveOption maps a raw value to one of the question's own options. When
// byLabel is set (yes/no questions), a case-insensitive label match is tried
// before falling back to an id match.
func resolveOption(q models.Question, value interface{}, byLabel bool) (string, error) {
	raw := strings.TrimSpace(fmt.Sprintf("%v", value))
	if byLabel {
		for _, opt := range q.Options {
			if strings.EqualFold(opt.Label, raw) {
				return opt.ID, nil
			}
		}
	}
	for _, opt := range q.Options {
		if opt.ID == raw {
			return opt.ID, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("value %q is not an option of question %s", raw, q.ID))
}

// parseNumeric extracts a float from a JSON number or numeric string,
// returning nil when unparseable.
func parseNumeric(value interface{}) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return &f
		}
	}
	return nil
}
