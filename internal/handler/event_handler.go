package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type eventService interface {
	ListForOwner(ctx context.Context, ownerID string) ([]models.Event, error)
	Create(ctx context.Context, ownerID string, req service.EventRequest, images []service.UploadedFile) (*models.Event, error)
	Update(ctx context.Context, ownerID, eventID string, req service.EventRequest, images []service.UploadedFile) (*models.Event, error)
	Delete(ctx context.Context, ownerID, eventID string) error
	Enrollments(ctx context.Context, ownerID, eventID string) ([]models.EventEnrollment, error)
	ListUpcoming(ctx context.Context) ([]models.EventDetail, error)
	Enroll(ctx context.Context, parentID string, req service.EventEnrollRequest) (*models.EventEnrollment, error)
}

// EventHandler exposes owner event management and parent sign-ups.
type EventHandler struct {
	events eventService
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(events eventService) *EventHandler {
	return &EventHandler{events: events}
}

// List godoc
// @Summary Events of the owner's institute
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /owner/events [get]
func (h *EventHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	events, err := h.events.ListForOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Create godoc
// @Summary Create event
// @Tags Owner
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param images formData file false "Up to 5 images"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Router /owner/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.EventRequest
	if !bindForm(c, &req, "invalid event payload") {
		return
	}
	images, ok := formFiles(c, "images")
	if !ok {
		return
	}
	event, err := h.events.Create(c.Request.Context(), claims.UserID, req, images)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Owner
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param images formData file false "Replacement images"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /owner/events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.EventRequest
	if !bindForm(c, &req, "invalid event payload") {
		return
	}
	images, ok := formFiles(c, "images")
	if !ok {
		return
	}
	event, err := h.events.Update(c.Request.Context(), claims.UserID, c.Param("id"), req, images)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Delete godoc
// @Summary Delete event
// @Tags Owner
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Router /owner/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.events.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enrollments godoc
// @Summary Sign-ups for an event
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /owner/events/{id}/enrollments [get]
func (h *EventHandler) Enrollments(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.events.Enrollments(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Upcoming godoc
// @Summary Upcoming events
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parent/events [get]
func (h *EventHandler) Upcoming(c *gin.Context) {
	events, err := h.events.ListUpcoming(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Enroll godoc
// @Summary Sign up for an event
// @Tags Parent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EventEnrollRequest true "Participant"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /parent/event-enroll [post]
func (h *EventHandler) Enroll(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.EventEnrollRequest
	if !bindJSON(c, &req, "invalid event enrollment payload") {
		return
	}
	enrollment, err := h.events.Enroll(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}
