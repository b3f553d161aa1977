package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type programService interface {
	ListForOwner(ctx context.Context, ownerID string) ([]models.ProgramDetail, error)
	Create(ctx context.Context, ownerID string, req service.ProgramRequest) (*models.ProgramDetail, error)
	Update(ctx context.Context, ownerID, programID string, req service.ProgramRequest) (*models.ProgramDetail, error)
	Delete(ctx context.Context, ownerID, programID string) error
}

// ProgramHandler exposes the owner's program endpoints.
type ProgramHandler struct {
	programs programService
}

// NewProgramHandler constructs ProgramHandler.
func NewProgramHandler(programs programService) *ProgramHandler {
	return &ProgramHandler{programs: programs}
}

// List godoc
// @Summary Programs of the owner's institute
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /owner/programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	programs, err := h.programs.ListForOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, programs)
}

// Create godoc
// @Summary Create program
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ProgramRequest true "Program"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Router /owner/programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ProgramRequest
	if !bindJSON(c, &req, "invalid program payload") {
		return
	}
	program, err := h.programs.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Update godoc
// @Summary Update program
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param payload body service.ProgramRequest true "Program"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /owner/programs/{id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ProgramRequest
	if !bindJSON(c, &req, "invalid program payload") {
		return
	}
	program, err := h.programs.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, program)
}

// Delete godoc
// @Summary Delete program
// @Tags Owner
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 204
// @Failure 404 {object} response.ErrorEnvelope
// @Router /owner/programs/{id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.programs.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
