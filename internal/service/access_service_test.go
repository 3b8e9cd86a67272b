package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloop/formloop-api/internal/models"
)

type mockAccessInvites struct {
	invites map[string]*models.Invite
	expired []string
}

func (m *mockAccessInvites) FindByToken(ctx context.Context, token string) (*models.Invite, error) {
	if invite, ok := m.invites[token]; ok {
		cp := *invite
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccessInvites) MarkExpired(ctx context.Context, id string) error {
	m.expired = append(m.expired, id)
	if invite, ok := m.invitesByID(id); ok {
		invite.Status = models.InviteStatusExpired
	}
	return nil
}

func (m *mockAccessInvites) invitesByID(id string) (*models.Invite, bool) {
	for _, invite := range m.invites {
		if invite.ID == id {
			return invite, true
		}
	}
	return nil, false
}

type mockMembership struct {
	members map[string]bool
}

func (m *mockMembership) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	return m.members[workspaceID+"/"+userID], nil
}

type mockDuplicates struct {
	completed map[string]bool
}

func (m *mockDuplicates) ExistsCompleted(ctx context.Context, collectorID string, respondentID, sessionID *string) (bool, error) {
	key := collectorID
	switch {
	case respondentID != nil:
		key += "/" + *respondentID
	case sessionID != nil:
		key += "/" + *sessionID
	}
	return m.completed[key], nil
}

func newAccessFixture() (*AccessService, *mockAccessInvites, *mockMembership, *mockDuplicates) {
	invites := &mockAccessInvites{invites: map[string]*models.Invite{}}
	membership := &mockMembership{members: map[string]bool{}}
	duplicates := &mockDuplicates{completed: map[string]bool{}}
	svc := NewAccessService(invites, membership, duplicates, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, invites, membership, duplicates
}

func activeSurvey(visibility models.SurveyVisibility) *models.Survey {
	return &models.Survey{
		ID:           "survey-1",
		Title:        "Pulse",
		Visibility:   visibility,
		IdentityMode: models.IdentityMixed,
		Status:       models.SurveyStatusActive,
	}
}

func activeCollector() *models.Collector {
	return &models.Collector{
		ID:       "collector-1",
		SurveyID: "survey-1",
		Token:    "tok",
		Type:     models.CollectorWebLink,
		IsActive: true,
	}
}

func TestDecideDenyReasons(t *testing.T) {
	svc, _, _, _ := newAccessFixture()
	now := svc.now()
	before := now.Add(time.Hour)
	after := now.Add(-time.Hour)

	draft := activeSurvey(models.VisibilityPublic)
	draft.Status = models.SurveyStatusDraft

	notStarted := activeSurvey(models.VisibilityPublic)
	notStarted.StartDate = &before

	ended := activeSurvey(models.VisibilityPublic)
	ended.EndDate = &after

	inactiveCollector := activeCollector()
	inactiveCollector.IsActive = false

	expiredCollector := activeCollector()
	expiredCollector.ExpiresAt = &after

	cases := []struct {
		name      string
		input     DecideInput
		reason    models.ReasonCode
	}{
		{"missing survey", DecideInput{Survey: nil, Collector: activeCollector()}, models.ReasonSurveyNotFound},
		{"inactive survey", DecideInput{Survey: draft, Collector: activeCollector()}, models.ReasonSurveyInactive},
		{"not yet started", DecideInput{Survey: notStarted, Collector: activeCollector()}, models.ReasonSurveyNotStarted},
		{"ended", DecideInput{Survey: ended, Collector: activeCollector()}, models.ReasonSurveyEnded},
		{"missing collector", DecideInput{Survey: activeSurvey(models.VisibilityPublic), Collector: nil}, models.ReasonCollectorNotFound},
		{"inactive collector", DecideInput{Survey: activeSurvey(models.VisibilityPublic), Collector: inactiveCollector}, models.ReasonCollectorInactive},
		{"expired collector", DecideInput{Survey: activeSurvey(models.VisibilityPublic), Collector: expiredCollector}, models.ReasonCollectorExpired},
		{"auth required", DecideInput{Survey: activeSurvey(models.VisibilityAuthenticated), Collector: activeCollector()}, models.ReasonAuthRequired},
		{"invite missing", DecideInput{Survey: activeSurvey(models.VisibilityPrivate), Collector: activeCollector()}, models.ReasonInviteMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := svc.Decide(context.Background(), tc.input)
			require.NoError(t, err)
			assert.False(t, decision.Allowed)
			assert.Equal(t, tc.reason, decision.Reason)
		})
	}
}

func TestDecideSurveyChecksWinOverCollectorChecks(t *testing.T) {
	svc, _, _, _ := newAccessFixture()

	draft := activeSurvey(models.VisibilityPublic)
	draft.Status = models.SurveyStatusDraft
	inactive := activeCollector()
	inactive.IsActive = false

	decision, err := svc.Decide(context.Background(), DecideInput{Survey: draft, Collector: inactive})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonSurveyInactive, decision.Reason)
}

func TestDecidePublicSurveyAllowsAnonymous(t *testing.T) {
	svc, _, _, _ := newAccessFixture()

	decision, err := svc.Decide(context.Background(), DecideInput{
		Survey:    activeSurvey(models.VisibilityPublic),
		Collector: activeCollector(),
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Reason)
}

func TestDecideAuthenticatedVisibility(t *testing.T) {
	svc, _, _, _ := newAccessFixture()

	decision, err := svc.Decide(context.Background(), DecideInput{
		Survey:    activeSurvey(models.VisibilityAuthenticated),
		Collector: activeCollector(),
		Identity:  models.IdentityContext{Authenticated: true, UserID: "user-1"},
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestDecideWorkspaceMembership(t *testing.T) {
	svc, _, membership, _ := newAccessFixture()
	workspaceID := "workspace-1"
	survey := activeSurvey(models.VisibilityWorkspaceMembers)
	survey.WorkspaceID = &workspaceID

	identity := models.IdentityContext{Authenticated: true, UserID: "user-1"}

	decision, err := svc.Decide(context.Background(), DecideInput{Survey: survey, Collector: activeCollector(), Identity: identity})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonNotWorkspaceMember, decision.Reason)

	membership.members["workspace-1/user-1"] = true
	decision, err = svc.Decide(context.Background(), DecideInput{Survey: survey, Collector: activeCollector(), Identity: identity})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestDecideWorkspaceSurveyWithoutWorkspace(t *testing.T) {
	svc, _, _, _ := newAccessFixture()
	survey := activeSurvey(models.VisibilityWorkspaceMembers)

	decision, err := svc.Decide(context.Background(), DecideInput{
		Survey:    survey,
		Collector: activeCollector(),
		Identity:  models.IdentityContext{Authenticated: true, UserID: "user-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonInvalidSurveyConfig, decision.Reason)
}

func TestDecideIdentifiedOnlyRequiresIdentity(t *testing.T) {
	svc, _, _, _ := newAccessFixture()
	survey := activeSurvey(models.VisibilityAuthenticated)
	survey.IdentityMode = models.IdentityIdentifiedOnly

	decision, err := svc.Decide(context.Background(), DecideInput{Survey: survey, Collector: activeCollector()})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonAuthRequired, decision.Reason)
}

func TestDecidePrivateInviteFlows(t *testing.T) {
	svc, invites, _, _ := newAccessFixture()
	now := svc.now()
	survey := activeSurvey(models.VisibilityPrivate)

	invites.invites["good"] = &models.Invite{ID: "inv-1", SurveyID: "survey-1", Token: "good", Status: models.InviteStatusPending, ExpiresAt: now.Add(time.Hour)}
	invites.invites["used"] = &models.Invite{ID: "inv-2", SurveyID: "survey-1", Token: "used", Status: models.InviteStatusResponded, ExpiresAt: now.Add(time.Hour)}
	invites.invites["stale"] = &models.Invite{ID: "inv-3", SurveyID: "survey-1", Token: "stale", Status: models.InviteStatusPending, ExpiresAt: now.Add(-time.Hour)}
	invites.invites["other"] = &models.Invite{ID: "inv-4", SurveyID: "survey-2", Token: "other", Status: models.InviteStatusPending, ExpiresAt: now.Add(time.Hour)}

	cases := []struct {
		name   string
		token  string
		reason models.ReasonCode
		allow  bool
	}{
		{"valid invite", "good", "", true},
		{"unknown token", "nope", models.ReasonInviteMissing, false},
		{"already used", "used", models.ReasonInviteAlreadyUsed, false},
		{"expired", "stale", models.ReasonInviteExpired, false},
		{"wrong survey", "other", models.ReasonInviteWrongSurvey, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := svc.Decide(context.Background(), DecideInput{Survey: survey, Collector: activeCollector(), InviteToken: tc.token})
			require.NoError(t, err)
			assert.Equal(t, tc.allow, decision.Allowed)
			assert.Equal(t, tc.reason, decision.Reason)
		})
	}
}

func TestDecideLazilyExpiresInvite(t *testing.T) {
	svc, invites, _, _ := newAccessFixture()
	now := svc.now()
	survey := activeSurvey(models.VisibilityPrivate)
	invites.invites["stale"] = &models.Invite{ID: "inv-3", SurveyID: "survey-1", Token: "stale", Status: models.InviteStatusPending, ExpiresAt: now.Add(-time.Minute)}

	decision, err := svc.Decide(context.Background(), DecideInput{Survey: survey, Collector: activeCollector(), InviteToken: "stale"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonInviteExpired, decision.Reason)
	assert.Equal(t, []string{"inv-3"}, invites.expired)
}

func TestDecideDuplicateResponse(t *testing.T) {
	svc, _, _, duplicates := newAccessFixture()
	respondent := "user-1"
	duplicates.completed["collector-1/user-1"] = true

	decision, err := svc.Decide(context.Background(), DecideInput{
		Survey:       activeSurvey(models.VisibilityPublic),
		Collector:    activeCollector(),
		RespondentID: &respondent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonDuplicateResponse, decision.Reason)
}

func TestDecideAllowMultipleSkipsDuplicateCheck(t *testing.T) {
	svc, _, _, duplicates := newAccessFixture()
	respondent := "user-1"
	duplicates.completed["collector-1/user-1"] = true

	collector := activeCollector()
	collector.AllowMultipleResponses = true

	decision, err := svc.Decide(context.Background(), DecideInput{
		Survey:       activeSurvey(models.VisibilityPublic),
		Collector:    collector,
		RespondentID: &respondent,
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestReasonStatusCoversAllReasons(t *testing.T) {
	reasons := []models.ReasonCode{
		models.ReasonSurveyNotFound, models.ReasonSurveyInactive, models.ReasonSurveyNotStarted,
		models.ReasonSurveyEnded, models.ReasonCollectorNotFound, models.ReasonCollectorInactive,
		models.ReasonCollectorExpired, models.ReasonAuthRequired, models.ReasonNotWorkspaceMember,
		models.ReasonInvalidSurveyConfig, models.ReasonInviteMissing, models.ReasonInviteExpired,
		models.ReasonInviteWrongSurvey, models.ReasonInviteAlreadyUsed, models.ReasonDuplicateResponse,
	}
	for _, reason := range reasons {
		status, ok := models.ReasonStatus[reason]
		require.True(t, ok, "reason %s has no status", reason)
		assert.Contains(t, []int{404, 403}, status)
	}
}
