package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type coachService interface {
	List(ctx context.Context, ownerID string) ([]models.CoachDetail, error)
	Create(ctx context.Context, ownerID string, req service.CreateCoachRequest) (*models.Coach, error)
	Update(ctx context.Context, ownerID, coachID string, req service.UpdateCoachRequest) (*models.Coach, error)
	ToggleStatus(ctx context.Context, ownerID, coachID string) (models.CoachStatus, error)
}

// CoachHandler lets owners manage their coaches.
type CoachHandler struct {
	coaches coachService
}

// NewCoachHandler constructs CoachHandler.
func NewCoachHandler(coaches coachService) *CoachHandler {
	return &CoachHandler{coaches: coaches}
}

// List godoc
// @Summary Coaches of the owner's institute
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /owner/coaches [get]
func (h *CoachHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	coaches, err := h.coaches.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, coaches)
}

// Create godoc
// @Summary Create a coach account
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateCoachRequest true "Coach"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /owner/coaches [post]
func (h *CoachHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.CreateCoachRequest
	if !bindJSON(c, &req, "invalid coach payload") {
		return
	}
	coach, err := h.coaches.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, coach)
}

// Update godoc
// @Summary Update a coach profile
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Coach ID"
// @Param payload body service.UpdateCoachRequest true "Coach"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /owner/coaches/{id} [put]
func (h *CoachHandler) Update(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.UpdateCoachRequest
	if !bindJSON(c, &req, "invalid coach payload") {
		return
	}
	coach, err := h.coaches.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, coach)
}

// ToggleStatus godoc
// @Summary Activate or deactivate a coach
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Param id path string true "Coach ID"
// @Success 200 {object} response.Envelope
// @Router /owner/coaches/{id}/toggle-status [put]
func (h *CoachHandler) ToggleStatus(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	status, err := h.coaches.ToggleStatus(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"status": status})
}
