package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloop/formloop-api/internal/models"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
)

type mockLifecycleRepo struct {
	items   map[string]*models.Response
	touched []string
	seq     int
}

func newMockLifecycleRepo() *mockLifecycleRepo {
	return &mockLifecycleRepo{items: map[string]*models.Response{}}
}

func (m *mockLifecycleRepo) Create(ctx context.Context, response *models.Response) error {
	if response.ID == "" {
		m.seq++
		response.ID = fmt.Sprintf("response-%d", m.seq)
	}
	cp := *response
	m.items[response.ID] = &cp
	return nil
}

func (m *mockLifecycleRepo) FindByID(ctx context.Context, id string) (*models.Response, error) {
	if response, ok := m.items[id]; ok {
		cp := *response
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLifecycleRepo) UpdateLastActivity(ctx context.Context, id string, ts time.Time) error {
	m.touched = append(m.touched, id)
	if response, ok := m.items[id]; ok && response.Status == models.ResponseStatusStarted {
		response.LastActivityAt = ts
	}
	return nil
}

func (m *mockLifecycleRepo) Complete(ctx context.Context, id string, ts time.Time) (*models.Response, error) {
	response, ok := m.items[id]
	if !ok || response.Status != models.ResponseStatusStarted {
		return nil, sql.ErrNoRows
	}
	response.Status = models.ResponseStatusCompleted
	response.CompletedAt = &ts
	response.LastActivityAt = ts
	cp := *response
	return &cp, nil
}

func (m *mockLifecycleRepo) SweepAbandoned(ctx context.Context, surveyID string, cutoff time.Time) (int, error) {
	count := 0
	for _, response := range m.items {
		if response.SurveyID == surveyID && response.Status == models.ResponseStatusStarted && response.LastActivityAt.Before(cutoff) {
			response.Status = models.ResponseStatusAbandoned
			count++
		}
	}
	return count, nil
}

func (m *mockLifecycleRepo) CountByStatus(ctx context.Context, surveyID string) (*models.ResponseStats, error) {
	stats := &models.ResponseStats{}
	for _, response := range m.items {
		if response.SurveyID != surveyID {
			continue
		}
		stats.Total++
		switch response.Status {
		case models.ResponseStatusStarted:
			stats.Started++
		case models.ResponseStatusCompleted:
			stats.Completed++
		case models.ResponseStatusAbandoned:
			stats.Abandoned++
		}
	}
	return stats, nil
}

func newLifecycleFixture(timeout time.Duration) (*LifecycleService, *mockLifecycleRepo, time.Time) {
	repo := newMockLifecycleRepo()
	svc := NewLifecycleService(repo, timeout, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, repo, now
}

func TestLifecycleStart(t *testing.T) {
	svc, repo, now := newLifecycleFixture(time.Hour)

	response, err := svc.Start(context.Background(), "survey-1", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusStarted, response.Status)
	assert.Equal(t, now, response.StartedAt)
	assert.Equal(t, now, response.LastActivityAt)
	assert.Len(t, repo.items, 1)
}

func TestLifecycleCompleteOnlyFromStarted(t *testing.T) {
	svc, repo, now := newLifecycleFixture(time.Hour)
	repo.items["r1"] = &models.Response{ID: "r1", SurveyID: "survey-1", Status: models.ResponseStatusStarted, LastActivityAt: now}

	completed, err := svc.Complete(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	// Terminal states never move.
	_, err = svc.Complete(context.Background(), "r1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)

	_, err = svc.Complete(context.Background(), "missing")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
}

func TestLifecycleSweepAbandoned(t *testing.T) {
	svc, repo, now := newLifecycleFixture(time.Hour)
	repo.items["stale"] = &models.Response{ID: "stale", SurveyID: "survey-1", Status: models.ResponseStatusStarted, LastActivityAt: now.Add(-2 * time.Hour)}
	repo.items["fresh"] = &models.Response{ID: "fresh", SurveyID: "survey-1", Status: models.ResponseStatusStarted, LastActivityAt: now.Add(-30 * time.Minute)}
	repo.items["done"] = &models.Response{ID: "done", SurveyID: "survey-1", Status: models.ResponseStatusCompleted, LastActivityAt: now.Add(-3 * time.Hour)}

	count, err := svc.SweepAbandoned(context.Background(), "survey-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, models.ResponseStatusAbandoned, repo.items["stale"].Status)
	assert.Equal(t, models.ResponseStatusStarted, repo.items["fresh"].Status)
	assert.Equal(t, models.ResponseStatusCompleted, repo.items["done"].Status)

	// Sweeping again finds nothing; the transition is one-way.
	count, err = svc.SweepAbandoned(context.Background(), "survey-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLifecycleStatsSweepsFirst(t *testing.T) {
	svc, repo, now := newLifecycleFixture(time.Hour)
	repo.items["stale"] = &models.Response{ID: "stale", SurveyID: "survey-1", Status: models.ResponseStatusStarted, LastActivityAt: now.Add(-2 * time.Hour)}
	repo.items["done"] = &models.Response{ID: "done", SurveyID: "survey-1", Status: models.ResponseStatusCompleted, LastActivityAt: now}

	stats, err := svc.Stats(context.Background(), "survey-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Abandoned)
	assert.Zero(t, stats.Started)
}

func TestLifecycleCompletionRate(t *testing.T) {
	svc, repo, now := newLifecycleFixture(time.Hour)
	repo.items["a"] = &models.Response{ID: "a", SurveyID: "survey-1", Status: models.ResponseStatusCompleted, LastActivityAt: now}
	repo.items["b"] = &models.Response{ID: "b", SurveyID: "survey-1", Status: models.ResponseStatusStarted, LastActivityAt: now}

	rate, err := svc.CompletionRate(context.Background(), "survey-1")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rate.Rate, 1e-9)
	assert.Equal(t, 1, rate.Completed)
	assert.Equal(t, 2, rate.Total)
}

func TestLifecycleCompletionRateNoResponses(t *testing.T) {
	svc, _, _ := newLifecycleFixture(time.Hour)

	rate, err := svc.CompletionRate(context.Background(), "survey-1")
	require.NoError(t, err)
	assert.Zero(t, rate.Rate)
	assert.Zero(t, rate.Total)
}

func TestLifecycleTouchSwallowsAndRecords(t *testing.T) {
	svc, repo, now := newLifecycleFixture(time.Hour)
	repo.items["r1"] = &models.Response{ID: "r1", SurveyID: "survey-1", Status: models.ResponseStatusStarted, LastActivityAt: now.Add(-time.Minute)}

	svc.Touch(context.Background(), "r1")
	assert.Equal(t, []string{"r1"}, repo.touched)
	assert.Equal(t, now, repo.items["r1"].LastActivityAt)
}

func TestLifecycleDefaultTimeout(t *testing.T) {
	svc := NewLifecycleService(newMockLifecycleRepo(), 0, nil)
	assert.Equal(t, DefaultAbandonTimeout, svc.abandonTimeout)
}
