package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/response"
)

type attendanceService interface {
	Record(ctx context.Context, coachUserID string, req service.RecordAttendanceRequest) (*models.Attendance, error)
	ListForParent(ctx context.Context, parentID, enrollmentID string) ([]models.Attendance, error)
	ListForCoach(ctx context.Context, coachUserID, enrollmentID string) ([]models.Attendance, error)
}

type progressService interface {
	Record(ctx context.Context, coachUserID string, req service.RecordProgressRequest) (*models.Progress, error)
	ListForParent(ctx context.Context, parentID, enrollmentID string) ([]models.Progress, error)
	ListForCoach(ctx context.Context, coachUserID, enrollmentID string) ([]models.Progress, error)
	Report(ctx context.Context, coachUserID, enrollmentID, format string) (*service.ProgressReport, error)
}

// ActivityHandler exposes attendance and progress tracking.
type ActivityHandler struct {
	attendance attendanceService
	progress   progressService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(attendance attendanceService, progress progressService) *ActivityHandler {
	return &ActivityHandler{attendance: attendance, progress: progress}
}

// RecordAttendance godoc
// @Summary Mark attendance for an enrollment
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RecordAttendanceRequest true "Attendance"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /coach/attendance [post]
func (h *ActivityHandler) RecordAttendance(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.RecordAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	attendance, err := h.attendance.Record(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attendance)
}

// Attendance godoc
// @Summary Attendance history of an enrollment
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /parent/attendance/{enrollmentId} [get]
func (h *ActivityHandler) Attendance(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var (
		rows []models.Attendance
		err  error
	)
	if claims.Role == models.RoleCoach {
		rows, err = h.attendance.ListForCoach(c.Request.Context(), claims.UserID, c.Param("enrollmentId"))
	} else {
		rows, err = h.attendance.ListForParent(c.Request.Context(), claims.UserID, c.Param("enrollmentId"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// RecordProgress godoc
// @Summary Record a progress note
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RecordProgressRequest true "Progress"
// @Success 201 {object} response.Envelope
// @Router /coach/progress [post]
func (h *ActivityHandler) RecordProgress(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.RecordProgressRequest
	if !bindJSON(c, &req, "invalid progress payload") {
		return
	}
	progress, err := h.progress.Record(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, progress)
}

// Progress godoc
// @Summary Progress history of an enrollment
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /parent/progress/{enrollmentId} [get]
func (h *ActivityHandler) Progress(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var (
		rows []models.Progress
		err  error
	)
	if claims.Role == models.RoleCoach {
		rows, err = h.progress.ListForCoach(c.Request.Context(), claims.UserID, c.Param("enrollmentId"))
	} else {
		rows, err = h.progress.ListForParent(c.Request.Context(), claims.UserID, c.Param("enrollmentId"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// ProgressReport godoc
// @Summary Export progress history
// @Tags Coach
// @Produce application/pdf,text/csv
// @Security BearerAuth
// @Param enrollmentId path string true "Enrollment ID"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorEnvelope
// @Router /coach/progress/{enrollmentId}/report [get]
func (h *ActivityHandler) ProgressReport(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	report, err := h.progress.Report(c.Request.Context(), claims.UserID, c.Param("enrollmentId"), c.DefaultQuery("format", "pdf"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Content)
}
