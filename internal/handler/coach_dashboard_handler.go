package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type coachDashboardService interface {
	Dashboard(ctx context.Context, userID string) (*service.CoachDashboard, error)
	StudentDetails(ctx context.Context, userID, enrollmentID string) (*service.StudentDetails, error)
}

// CoachDashboardHandler serves the coach landing page and student views.
type CoachDashboardHandler struct {
	dashboard coachDashboardService
}

// NewCoachDashboardHandler constructs CoachDashboardHandler.
func NewCoachDashboardHandler(dashboard coachDashboardService) *CoachDashboardHandler {
	return &CoachDashboardHandler{dashboard: dashboard}
}

// Dashboard godoc
// @Summary Coach dashboard
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /coach/dashboard [get]
func (h *CoachDashboardHandler) Dashboard(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	dash, err := h.dashboard.Dashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dash)
}

// StudentDetails godoc
// @Summary One student in the coach's programs
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /coach/student/{enrollmentId} [get]
func (h *CoachDashboardHandler) StudentDetails(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	details, err := h.dashboard.StudentDetails(c.Request.Context(), claims.UserID, c.Param("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, details)
}
