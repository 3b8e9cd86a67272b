package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloop/formloop-api/internal/models"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
)

type mockQuestionReader struct {
	questions map[string][]models.Question
}

func (m *mockQuestionReader) ListBySurvey(ctx context.Context, surveyID string) ([]models.Question, error) {
	return m.questions[surveyID], nil
}

type mockCollectorRepo struct {
	byToken    map[string]*models.Collector
	collisions int
	seq        int
}

func newMockCollectorRepo() *mockCollectorRepo {
	return &mockCollectorRepo{byToken: map[string]*models.Collector{}}
}

func (m *mockCollectorRepo) Create(ctx context.Context, collector *models.Collector) error {
	if collector.ID == "" {
		m.seq++
		collector.ID = fmt.Sprintf("collector-%d", m.seq)
	}
	cp := *collector
	m.byToken[collector.Token] = &cp
	return nil
}

func (m *mockCollectorRepo) FindByToken(ctx context.Context, token string) (*models.Collector, error) {
	if collector, ok := m.byToken[token]; ok {
		cp := *collector
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCollectorRepo) FindByID(ctx context.Context, id string) (*models.Collector, error) {
	for _, collector := range m.byToken {
		if collector.ID == id {
			cp := *collector
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCollectorRepo) ListBySurvey(ctx context.Context, surveyID string) ([]models.Collector, error) {
	var collectors []models.Collector
	for _, collector := range m.byToken {
		if collector.SurveyID == surveyID {
			collectors = append(collectors, *collector)
		}
	}
	return collectors, nil
}

func (m *mockCollectorRepo) TokenExists(ctx context.Context, token string) (bool, error) {
	if m.collisions > 0 {
		m.collisions--
		return true, nil
	}
	_, ok := m.byToken[token]
	return ok, nil
}

func (m *mockCollectorRepo) SetActive(ctx context.Context, id string, active bool) error {
	for _, collector := range m.byToken {
		if collector.ID == id {
			collector.IsActive = active
			return nil
		}
	}
	return fmt.Errorf("set collector active: collector %s not found", id)
}

func newCollectorFixture() (*CollectorService, *mockCollectorRepo, *mockSurveyReader, *mockQuestionReader) {
	repo := newMockCollectorRepo()
	surveys := &mockSurveyReader{surveys: map[string]*models.Survey{
		"survey-1": {ID: "survey-1", Title: "Pulse", Visibility: models.VisibilityPublic, Status: models.SurveyStatusActive},
	}}
	questions := &mockQuestionReader{questions: map[string][]models.Question{
		"survey-1": {{ID: "q1", SurveyID: "survey-1", Label: "How was it?", Type: models.QuestionOpenText, Position: 1}},
	}}
	svc := NewCollectorService(repo, surveys, questions, nil, 16, nil, nil)
	return svc, repo, surveys, questions
}

func TestCollectorCreate(t *testing.T) {
	svc, repo, _, _ := newCollectorFixture()

	collector, err := svc.Create(context.Background(), CreateCollectorRequest{SurveyID: "survey-1", Type: models.CollectorWebLink})
	require.NoError(t, err)
	assert.True(t, collector.IsActive)
	assert.Equal(t, "survey-1", collector.SurveyID)
	// 16 bytes of entropy yields 22 characters of unpadded URL-safe base64.
	assert.Len(t, collector.Token, 22)
	assert.Len(t, repo.byToken, 1)
}

func TestCollectorCreateRetriesOnTokenCollision(t *testing.T) {
	svc, repo, _, _ := newCollectorFixture()
	repo.collisions = 2

	collector, err := svc.Create(context.Background(), CreateCollectorRequest{SurveyID: "survey-1", Type: models.CollectorWebLink})
	require.NoError(t, err)
	assert.NotEmpty(t, collector.Token)
	assert.Zero(t, repo.collisions)
}

func TestCollectorCreateExhaustsRetries(t *testing.T) {
	svc, repo, _, _ := newCollectorFixture()
	repo.collisions = tokenCollisionRetries

	_, err := svc.Create(context.Background(), CreateCollectorRequest{SurveyID: "survey-1", Type: models.CollectorWebLink})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestCollectorCreateUnknownSurvey(t *testing.T) {
	svc, _, _, _ := newCollectorFixture()

	_, err := svc.Create(context.Background(), CreateCollectorRequest{SurveyID: "missing", Type: models.CollectorWebLink})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCollectorCreateRejectsUnknownType(t *testing.T) {
	svc, _, _, _ := newCollectorFixture()

	_, err := svc.Create(context.Background(), CreateCollectorRequest{SurveyID: "survey-1", Type: "carrier_pigeon"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSnapshotHappyPath(t *testing.T) {
	svc, repo, _, _ := newCollectorFixture()
	repo.byToken["tok"] = &models.Collector{ID: "c1", SurveyID: "survey-1", Token: "tok", Type: models.CollectorWebLink, IsActive: true}

	snapshot, err := svc.Snapshot(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "c1", snapshot.Collector.ID)
	assert.Equal(t, "survey-1", snapshot.Survey.ID)
	assert.Equal(t, "public", snapshot.Survey.AccessType)
	assert.False(t, snapshot.Survey.RequireLogin)
	require.Len(t, snapshot.Survey.Questions, 1)
	assert.Equal(t, "q1", snapshot.Survey.Questions[0].ID)
}

func TestSnapshotUnknownTokenIs404(t *testing.T) {
	svc, _, _, _ := newCollectorFixture()

	_, err := svc.Snapshot(context.Background(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, string(models.ReasonCollectorNotFound), appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestSnapshotHiddenResources(t *testing.T) {
	svc, repo, surveys, _ := newCollectorFixture()
	expired := time.Now().UTC().Add(-time.Hour)
	repo.byToken["inactive"] = &models.Collector{ID: "c1", SurveyID: "survey-1", Token: "inactive", IsActive: false}
	repo.byToken["expired"] = &models.Collector{ID: "c2", SurveyID: "survey-1", Token: "expired", IsActive: true, ExpiresAt: &expired}
	repo.byToken["draft"] = &models.Collector{ID: "c3", SurveyID: "survey-2", Token: "draft", IsActive: true}
	surveys.surveys["survey-2"] = &models.Survey{ID: "survey-2", Visibility: models.VisibilityPublic, Status: models.SurveyStatusDraft}

	cases := []struct {
		token string
		code  models.ReasonCode
	}{
		{"inactive", models.ReasonCollectorInactive},
		{"expired", models.ReasonCollectorExpired},
		{"draft", models.ReasonSurveyInactive},
	}
	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			_, err := svc.Snapshot(context.Background(), tc.token)
			var appErr *appErrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, string(tc.code), appErr.Code)
			assert.Equal(t, models.ReasonStatus[tc.code], appErr.Status)
		})
	}
}

func TestSnapshotRequireLoginForGatedSurveys(t *testing.T) {
	svc, repo, surveys, _ := newCollectorFixture()
	surveys.surveys["survey-3"] = &models.Survey{ID: "survey-3", Visibility: models.VisibilityAuthenticated, Status: models.SurveyStatusActive}
	repo.byToken["gated"] = &models.Collector{ID: "c4", SurveyID: "survey-3", Token: "gated", IsActive: true}

	snapshot, err := svc.Snapshot(context.Background(), "gated")
	require.NoError(t, err)
	assert.True(t, snapshot.Survey.RequireLogin)
	assert.Equal(t, "public_with_login", snapshot.Survey.AccessType)
}

func TestSetActiveUnknownCollector(t *testing.T) {
	svc, _, _, _ := newCollectorFixture()

	err := svc.SetActive(context.Background(), "missing", false)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSetActiveFlipsFlag(t *testing.T) {
	svc, repo, _, _ := newCollectorFixture()
	repo.byToken["tok"] = &models.Collector{ID: "c1", SurveyID: "survey-1", Token: "tok", IsActive: true}

	require.NoError(t, svc.SetActive(context.Background(), "c1", false))
	assert.False(t, repo.byToken["tok"].IsActive)
}
