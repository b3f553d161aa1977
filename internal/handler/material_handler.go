package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type materialService interface {
	Upload(ctx context.Context, coachUserID string, req service.UploadMaterialRequest, file service.UploadedFile) (*models.TrainingMaterial, error)
	ListForParent(ctx context.Context, parentID, programID string) (*service.ParentMaterials, error)
	Download(ctx context.Context, token string) (*service.MediaDownload, error)
}

type imageOpener interface {
	OpenImage(ctx context.Context, key string) (*service.MediaDownload, error)
}

// MediaHandler serves training materials and uploaded images.
type MediaHandler struct {
	materials materialService
	images    imageOpener
}

// NewMediaHandler constructs MediaHandler.
func NewMediaHandler(materials materialService, images imageOpener) *MediaHandler {
	return &MediaHandler{materials: materials, images: images}
}

// UploadMaterial godoc
// @Summary Upload a PDF training material
// @Tags Coach
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param programId formData string true "Program ID"
// @Param title formData string true "Title"
// @Param file formData file true "PDF"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /coach/training-material [post]
func (h *MediaHandler) UploadMaterial(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.UploadMaterialRequest
	if !bindForm(c, &req, "invalid material payload") {
		return
	}
	file, ok := formFile(c, "file")
	if !ok {
		return
	}
	if file == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	material, err := h.materials.Upload(c.Request.Context(), claims.UserID, req, *file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// ParentMaterials godoc
// @Summary Materials of an enrolled program
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /parent/materials/{programId} [get]
func (h *MediaHandler) ParentMaterials(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	materials, err := h.materials.ListForParent(c.Request.Context(), claims.UserID, c.Param("programId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, materials)
}

// DownloadMaterial godoc
// @Summary Download a material through a signed link
// @Tags Media
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorEnvelope
// @Router /materials/download/{token} [get]
func (h *MediaHandler) DownloadMaterial(c *gin.Context) {
	file, err := h.materials.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamDownload(c, file, false)
}

// Image godoc
// @Summary Serve an uploaded image
// @Tags Media
// @Param key path string true "Object key"
// @Success 200 {file} file
// @Failure 404 {object} response.ErrorEnvelope
// @Router /uploads/{key} [get]
func (h *MediaHandler) Image(c *gin.Context) {
	file, err := h.images.OpenImage(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	streamDownload(c, file, true)
}
