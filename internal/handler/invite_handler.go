package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formloop/formloop-api/internal/middleware"
	"github.com/formloop/formloop-api/internal/models"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
	"github.com/formloop/formloop-api/pkg/response"
)

type inviteService interface {
	CreateInvites(ctx context.Context, surveyID string, emails []string, invitedBy string) ([]models.Invite, error)
	ValidateInvite(ctx context.Context, tokenValue string) (*models.InviteValidation, error)
	Stats(ctx context.Context, surveyID string) (*models.InviteStats, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]models.Invite, error)
}

// InviteHandler exposes the invite ledger endpoints.
type InviteHandler struct {
	invites inviteService
}

// NewInviteHandler constructs InviteHandler.
func NewInviteHandler(invites inviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

type createInvitesBody struct {
	Emails []string `json:"emails" binding:"required,min=1"`
}

// Create godoc
// @Summary Issue invites for a private survey
// @Tags Invites
// @Accept json
// @Produce json
// @Param id path string true "Survey ID"
// @Param payload body createInvitesBody true "Recipient emails"
// @Success 201 {object} response.Envelope
// @Router /surveys/{id}/invites [post]
func (h *InviteHandler) Create(c *gin.Context) {
	var body createInvitesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	invites, err := h.invites.CreateInvites(c.Request.Context(), c.Param("id"), body.Emails, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invites)
}

// Validate godoc
// @Summary Validate an invite token
// @Tags Invites
// @Produce json
// @Param token path string true "Invite token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /invites/{token}/validate [get]
func (h *InviteHandler) Validate(c *gin.Context) {
	validation, err := h.invites.ValidateInvite(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, validation, nil)
}

// Stats godoc
// @Summary Invite counts by status for a survey
// @Tags Invites
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Router /surveys/{id}/invites/stats [get]
func (h *InviteHandler) Stats(c *gin.Context) {
	stats, err := h.invites.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// List godoc
// @Summary List invites of a survey
// @Tags Invites
// @Produce json
// @Param id path string true "Survey ID"
// @Success 200 {object} response.Envelope
// @Router /surveys/{id}/invites [get]
func (h *InviteHandler) List(c *gin.Context) {
	invites, err := h.invites.ListBySurvey(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invites, nil)
}
