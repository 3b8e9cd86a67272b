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
	"github.com/formloop/formloop-api/internal/service"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
)

type surveyServiceMock struct {
	createResp  *models.Survey
	createErr   error
	getResp     *models.Survey
	getErr      error
	listResp    []models.Survey
	listPages   *models.Pagination
	listErr     error
	updateResp  *models.Survey
	updateErr   error
	deleteErr   error
	lastOwner   string
	lastFilter  models.SurveyFilter
	lastStatus  models.SurveyStatus
	createCalls int
}

func (m *surveyServiceMock) Create(ctx context.Context, ownerID string, req service.CreateSurveyRequest) (*models.Survey, error) {
	m.createCalls++
	m.lastOwner = ownerID
	return m.createResp, m.createErr
}

func (m *surveyServiceMock) Get(ctx context.Context, id string) (*models.Survey, error) {
	return m.getResp, m.getErr
}

func (m *surveyServiceMock) List(ctx context.Context, filter models.SurveyFilter) ([]models.Survey, *models.Pagination, error) {
	m.lastFilter = filter
	return m.listResp, m.listPages, m.listErr
}

func (m *surveyServiceMock) UpdateStatus(ctx context.Context, id string, status models.SurveyStatus) (*models.Survey, error) {
	m.lastStatus = status
	return m.updateResp, m.updateErr
}

func (m *surveyServiceMock) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func TestSurveyHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &surveyServiceMock{
		createResp: &models.Survey{ID: "survey-1", Title: "Pulse"},
	}
	handler := NewSurveyHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/surveys", bytes.NewBufferString(`{"title":"Pulse"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "user-1", mockSvc.lastOwner)
}

func TestSurveyHandlerCreateWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &surveyServiceMock{}
	handler := NewSurveyHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/surveys", bytes.NewBufferString(`{"title":"Pulse"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, mockSvc.createCalls)
}

func TestSurveyHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &surveyServiceMock{}
	handler := NewSurveyHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/surveys?status=active&workspace_id=ws-1&page=2&page_size=5", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SurveyStatusActive, mockSvc.lastFilter.Status)
	assert.Equal(t, "ws-1", mockSvc.lastFilter.WorkspaceID)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 5, mockSvc.lastFilter.PageSize)
}

func TestSurveyHandlerUpdateStatusInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSurveyHandler(&surveyServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/surveys/survey-1/status", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "survey-1"}}

	handler.UpdateStatus(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSurveyHandlerDeleteConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &surveyServiceMock{deleteErr: appErrors.ErrSurveyHasResponses}
	handler := NewSurveyHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/surveys/survey-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "survey-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusConflict, w.Code)
}
