package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formloop/formloop-api/internal/models"
	"github.com/formloop/formloop-api/pkg/response"
)

type lifecycleService interface {
	Stats(ctx context.Context, surveyID string) (*models.ResponseStats, error)
	CompletionRate(ctx context.Context, surveyID string) (*models.CompletionRate, error)
	Find(ctx context.Context, responseID string) (*models.Response, error)
}

// ResponseHandler exposes the response lifecycle endpoints.
type ResponseHandler struct {
	lifecycle lifecycleService
}

// NewResponseHandler constructs ResponseHandler.
func NewResponseHandler(lifecycle lifecycleService) *ResponseHandler {
	return &ResponseHandler{lifecycle: lifecycle}
}

// Stats godoc
// @Summary Response counts by status for a survey
// @Tags Responses
// @Produce json
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Router /responses/stats/{surveyId} [get]
func (h *ResponseHandler) Stats(c *gin.Context) {
	stats, err := h.lifecycle.Stats(c.Request.Context(), c.Param("surveyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// CompletionRate godoc
// @Summary Completion rate for a survey
// @Tags Responses
// @Produce json
// @Param surveyId path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Router /responses/completion-rate/{surveyId} [get]
func (h *ResponseHandler) CompletionRate(c *gin.Context) {
	rate, err := h.lifecycle.CompletionRate(c.Request.Context(), c.Param("surveyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rate, nil)
}

// Get godoc
// @Summary Get a response by ID
// @Tags Responses
// @Produce json
// @Param id path string true "Response ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /responses/{id} [get]
func (h *ResponseHandler) Get(c *gin.Context) {
	resp, err := h.lifecycle.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
