package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formloop/formloop-api/internal/middleware"
	"github.com/formloop/formloop-api/internal/models"
	"github.com/formloop/formloop-api/internal/service"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
	"github.com/formloop/formloop-api/pkg/response"
)

type collectorService interface {
	Snapshot(ctx context.Context, tokenValue string) (*models.CollectorSnapshot, error)
	Create(ctx context.Context, req service.CreateCollectorRequest) (*models.Collector, error)
	SetActive(ctx context.Context, id string, active bool) error
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Collector, error)
}

type submissionService interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*models.SubmissionReceipt, error)
}

// CollectorHandler exposes collector endpoints, both the respondent-facing
// token routes and the admin routes.
type CollectorHandler struct {
	collectors  collectorService
	submissions submissionService
}

// NewCollectorHandler constructs CollectorHandler.
func NewCollectorHandler(collectors collectorService, submissions submissionService) *CollectorHandler {
	return &CollectorHandler{collectors: collectors, submissions: submissions}
}

// submitBody is the inbound submission payload.
type submitBody struct {
	Answers     []service.AnswerInput `json:"answers" validate:"required"`
	InviteToken string                `json:"invite_token"`
	SessionID   string                `json:"session_id"`
}

// Snapshot godoc
// @Summary Resolve a collector token to its survey snapshot
// @Tags Collectors
// @Produce json
// @Param token path string true "Collector token"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /collector/token/{token} [get]
func (h *CollectorHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.collectors.Snapshot(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Submit godoc
// @Summary Submit a response through a collector
// @Tags Collectors
// @Accept json
// @Produce json
// @Param token path string true "Collector token"
// @Param payload body submitBody true "Answers payload"
// @Success 201 {object} response.Envelope
// @Router /collector/token/{token}/responses [post]
func (h *CollectorHandler) Submit(c *gin.Context) {
	var body submitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = c.GetHeader("X-Session-ID")
	}

	receipt, err := h.submissions.Submit(c.Request.Context(), service.SubmitRequest{
		CollectorToken: c.Param("token"),
		InviteToken:    body.InviteToken,
		SessionID:      sessionID,
		Answers:        body.Answers,
		Identity:       middleware.Identity(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// Create godoc
// @Summary Create a collector for a survey
// @Tags Collectors
// @Accept json
// @Produce json
// @Param payload body service.CreateCollectorRequest true "Collector payload"
// @Success 201 {object} response.Envelope
// @Router /collectors [post]
func (h *CollectorHandler) Create(c *gin.Context) {
	var req service.CreateCollectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	collector, err := h.collectors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, collector)
}

// SetActive godoc
// @Summary Activate or deactivate a collector
// @Tags Collectors
// @Accept json
// @Produce json
// @Param id path string true "Collector ID"
// @Success 200 {object} response.Envelope
// @Router /collectors/{id}/active [put]
func (h *CollectorHandler) SetActive(c *gin.Context) {
	var body struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.collectors.SetActive(c.Request.Context(), c.Param("id"), body.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListBySurvey godoc
// @Summary List collectors of a survey
// @Tags Collectors
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Router /surveys/{id}/collectors [get]
func (h *CollectorHandler) ListBySurvey(c *gin.Context) {
	collectors, err := h.collectors.ListBySurvey(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, collectors, nil)
}
