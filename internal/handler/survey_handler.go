package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/formloop/formloop-api/internal/middleware"
	"github.com/formloop/formloop-api/internal/models"
	"github.com/formloop/formloop-api/internal/service"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
	"github.com/formloop/formloop-api/pkg/response"
)

type surveyService interface {
	Create(ctx context.Context, ownerID string, req service.CreateSurveyRequest) (*models.Survey, error)
	Get(ctx context.Context, id string) (*models.Survey, error)
	List(ctx context.Context, filter models.SurveyFilter) ([]models.Survey, *models.Pagination, error)
	UpdateStatus(ctx context.Context, id string, status models.SurveyStatus) (*models.Survey, error)
	Delete(ctx context.Context, id string) error
}

// SurveyHandler exposes the admin survey endpoints.
type SurveyHandler struct {
	surveys surveyService
}

// NewSurveyHandler constructs SurveyHandler.
func NewSurveyHandler(surveys surveyService) *SurveyHandler {
	return &SurveyHandler{surveys: surveys}
}

// Create godoc
// @Summary Create a survey
// @Tags Surveys
// @Accept json
// @Produce json
// @Param payload body service.CreateSurveyRequest true "Survey payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /surveys [post]
func (h *SurveyHandler) Create(c *gin.Context) {
	var req service.CreateSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	survey, err := h.surveys.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, survey)
}

// Get godoc
// @Summary Get a survey by ID
// @Tags Surveys
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /surveys/{id} [get]
func (h *SurveyHandler) Get(c *gin.Context) {
	survey, err := h.surveys.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, survey, nil)
}

// List godoc
// @Summary List surveys
// @Tags Surveys
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "Status filter"
// @Param workspace_id query string false "Workspace filter"
// @Success 200 {object} response.Envelope
// @Router /surveys [get]
func (h *SurveyHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := models.SurveyFilter{
		WorkspaceID: c.Query("workspace_id"),
		OwnerID:     c.Query("owner_id"),
		Status:      models.SurveyStatus(c.Query("status")),
		Page:        page,
		PageSize:    pageSize,
	}
	surveys, pagination, err := h.surveys.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, surveys, pagination)
}

// UpdateStatus godoc
// @Summary Update survey status
// @Tags Surveys
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Router /surveys/{id}/status [put]
func (h *SurveyHandler) UpdateStatus(c *gin.Context) {
	var body struct {
		Status models.SurveyStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	survey, err := h.surveys.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, survey, nil)
}

// Delete godoc
// @Summary Delete a survey without responses
// @Tags Surveys
// @Param id path string true "Survey ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /surveys/{id} [delete]
func (h *SurveyHandler) Delete(c *gin.Context) {
	if err := h.surveys.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
