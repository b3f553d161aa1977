package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type reviewService interface {
	Create(ctx context.Context, parentID string, req service.CreateReviewRequest) (*models.Review, error)
	ListForParent(ctx context.Context, parentID, programID string) ([]models.Review, error)
}

// ReviewHandler exposes parent reviews.
type ReviewHandler struct {
	reviews reviewService
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(reviews reviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Create godoc
// @Summary Review a program and its coach
// @Tags Parent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateReviewRequest true "Review"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Router /parent/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.CreateReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// List godoc
// @Summary Caller's reviews of a program
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /parent/reviews/{programId} [get]
func (h *ReviewHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.reviews.ListForParent(c.Request.Context(), claims.UserID, c.Param("programId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}
