package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type scheduleService interface {
	Upsert(ctx context.Context, coachUserID string, req service.UpsertScheduleRequest) (*models.ProgramSchedule, error)
	ListForCoach(ctx context.Context, coachUserID string) ([]models.ScheduleRecord, error)
}

type calendarService interface {
	ParentEvents(ctx context.Context, parentID string) ([]models.CalendarEvent, error)
	CoachEvents(ctx context.Context, coachUserID string) ([]models.CalendarEvent, error)
}

// ScheduleHandler serves coach schedules and the calendars projected from them.
type ScheduleHandler struct {
	schedules scheduleService
	calendar  calendarService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules scheduleService, calendar calendarService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, calendar: calendar}
}

// Upsert godoc
// @Summary Create or replace the coach's schedule for a program
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpsertScheduleRequest true "Schedule"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorEnvelope
// @Router /coach/schedule [post]
func (h *ScheduleHandler) Upsert(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.UpsertScheduleRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	schedule, err := h.schedules.Upsert(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

// ListForCoach godoc
// @Summary Coach's schedules
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /coach/schedule [get]
func (h *ScheduleHandler) ListForCoach(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.schedules.ListForCoach(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// ParentCalendar godoc
// @Summary Upcoming sessions of the parent's enrolled programs
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parent/calendar-events [get]
func (h *ScheduleHandler) ParentCalendar(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	events, err := h.calendar.ParentEvents(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// CoachCalendar godoc
// @Summary Upcoming sessions of the coach
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /coach/calendar-events [get]
func (h *ScheduleHandler) CoachCalendar(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	events, err := h.calendar.CoachEvents(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}
