package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formloop/formloop-api/internal/middleware"
	"github.com/formloop/formloop-api/internal/models"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
)

type inviteServiceMock struct {
	createResp    []models.Invite
	createErr     error
	validateResp  *models.InviteValidation
	validateErr   error
	statsResp     *models.InviteStats
	statsErr      error
	listResp      []models.Invite
	listErr       error
	lastSurveyID  string
	lastEmails    []string
	lastInvitedBy string
}

func (m *inviteServiceMock) CreateInvites(ctx context.Context, surveyID string, emails []string, invitedBy string) ([]models.Invite, error) {
	m.lastSurveyID = surveyID
	m.lastEmails = emails
	m.lastInvitedBy = invitedBy
	return m.createResp, m.createErr
}

func (m *inviteServiceMock) ValidateInvite(ctx context.Context, tokenValue string) (*models.InviteValidation, error) {
	return m.validateResp, m.validateErr
}

func (m *inviteServiceMock) Stats(ctx context.Context, surveyID string) (*models.InviteStats, error) {
	return m.statsResp, m.statsErr
}

func (m *inviteServiceMock) ListBySurvey(ctx context.Context, surveyID string) ([]models.Invite, error) {
	return m.listResp, m.listErr
}

func TestInviteHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &inviteServiceMock{
		createResp: []models.Invite{{Email: "alice@example.com"}},
	}
	handler := NewInviteHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/surveys/survey-1/invites", bytes.NewBufferString(`{"emails":["alice@example.com"]}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "survey-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1"})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "survey-1", mockSvc.lastSurveyID)
	assert.Equal(t, []string{"alice@example.com"}, mockSvc.lastEmails)
	assert.Equal(t, "admin-1", mockSvc.lastInvitedBy)
}

func TestInviteHandlerCreateEmptyEmails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewInviteHandler(&inviteServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/surveys/survey-1/invites", bytes.NewBufferString(`{"emails":[]}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "survey-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1"})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInviteHandlerValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &inviteServiceMock{
		validateResp: &models.InviteValidation{Valid: true, Email: "alice@example.com"},
	}
	handler := NewInviteHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/invites/tok-1/validate", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "token", Value: "tok-1"}}

	handler.Validate(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestInviteHandlerValidateExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &inviteServiceMock{validateErr: appErrors.ErrInviteExpired}
	handler := NewInviteHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/invites/tok-1/validate", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "token", Value: "tok-1"}}

	handler.Validate(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
