package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type instituteService interface {
	Profile(ctx context.Context, ownerID string) (*models.Institute, error)
	SaveProfile(ctx context.Context, ownerID string, req service.InstituteProfileRequest, images []service.UploadedFile) (*models.Institute, error)
	Search(ctx context.Context, filter models.InstituteFilter) ([]models.Institute, error)
	Programs(ctx context.Context, instituteID string) ([]models.ProgramDetail, error)
	OwnerContacts(ctx context.Context, parentID string) ([]models.OwnerContact, error)
}

// InstituteHandler serves the owner's institute profile and the parent catalogue.
type InstituteHandler struct {
	institutes instituteService
}

// NewInstituteHandler constructs InstituteHandler.
func NewInstituteHandler(institutes instituteService) *InstituteHandler {
	return &InstituteHandler{institutes: institutes}
}

// Profile godoc
// @Summary Owner's institute
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /owner/profile [get]
func (h *InstituteHandler) Profile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	institute, err := h.institutes.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, institute)
}

// SaveProfile godoc
// @Summary Create or update the owner's institute
// @Tags Owner
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param images formData file false "Up to 5 images"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Router /owner/profile [put]
func (h *InstituteHandler) SaveProfile(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.InstituteProfileRequest
	if !bindForm(c, &req, "invalid institute payload") {
		return
	}
	images, ok := formFiles(c, "images")
	if !ok {
		return
	}
	institute, err := h.institutes.SaveProfile(c.Request.Context(), claims.UserID, req, images)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, institute)
}

// Search godoc
// @Summary Find institutes
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param location query string false "Address contains"
// @Param sport query string false "Sports offered contains"
// @Success 200 {object} response.Envelope
// @Router /parent/institutes [get]
func (h *InstituteHandler) Search(c *gin.Context) {
	institutes, err := h.institutes.Search(c.Request.Context(), models.InstituteFilter{
		Location: c.Query("location"),
		Sport:    c.Query("sport"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, institutes)
}

// Programs godoc
// @Summary Programs of an institute
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param instituteId path string true "Institute ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /parent/programs/{instituteId} [get]
func (h *InstituteHandler) Programs(c *gin.Context) {
	programs, err := h.institutes.Programs(c.Request.Context(), c.Param("instituteId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, programs)
}

// Owners godoc
// @Summary Owners of the parent's institutes
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parent/owner [get]
func (h *InstituteHandler) Owners(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	contacts, err := h.institutes.OwnerContacts(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, contacts)
}
