package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type gamificationService interface {
	Award(ctx context.Context, coachUserID string, req service.AwardPointsRequest) (*models.GamificationLedger, error)
	SetReward(ctx context.Context, coachUserID string, req service.SetRewardRequest) (*models.ProgramReward, error)
	Summary(ctx context.Context, parentID string) (*models.GamificationSummary, error)
}

// GamificationHandler exposes points, badges and rewards.
type GamificationHandler struct {
	gamification gamificationService
}

// NewGamificationHandler constructs GamificationHandler.
func NewGamificationHandler(gamification gamificationService) *GamificationHandler {
	return &GamificationHandler{gamification: gamification}
}

// Award godoc
// @Summary Award points and a badge to a parent
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AwardPointsRequest true "Points"
// @Success 200 {object} response.Envelope
// @Router /coach/gamification [post]
func (h *GamificationHandler) Award(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.AwardPointsRequest
	if !bindJSON(c, &req, "invalid gamification payload") {
		return
	}
	ledger, err := h.gamification.Award(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ledger)
}

// SetReward godoc
// @Summary Set the reward of a program
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SetRewardRequest true "Reward"
// @Success 200 {object} response.Envelope
// @Router /coach/reward [post]
func (h *GamificationHandler) SetReward(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.SetRewardRequest
	if !bindJSON(c, &req, "invalid reward payload") {
		return
	}
	reward, err := h.gamification.SetReward(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reward)
}

// Summary godoc
// @Summary Parent's points, badges and available rewards
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parent/gamification [get]
func (h *GamificationHandler) Summary(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	summary, err := h.gamification.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
