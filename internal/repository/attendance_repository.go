package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/playpulse/playpulse-api/internal/models"
)

// AttendanceRepository persists one attendance row per enrollment per UTC day.
type AttendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ExistsForDay is the fast-path duplicate check; the unique constraint is authoritative.
func (r *AttendanceRepository) ExistsForDay(ctx context.Context, enrollmentID string, day time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM attendance WHERE enrollment_id = $1 AND date = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, enrollmentID, models.UTCDay(day)); err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return exists, nil
}

// Insert adds the row unless one already exists for the day, reporting whether it was written.
func (r *AttendanceRepository) Insert(ctx context.Context, exec sqlx.ExtContext, attendance *models.Attendance) (bool, error) {
	if exec == nil {
		exec = r.db
	}
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	attendance.Date = models.UTCDay(attendance.Date)
	attendance.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO attendance (id, enrollment_id, date, status, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (enrollment_id, date) DO NOTHING
RETURNING id`
	var id string
	err := sqlx.GetContext(ctx, exec, &id, query, attendance.ID, attendance.EnrollmentID, attendance.Date, attendance.Status, attendance.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return true, nil
}

func (r *AttendanceRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error) {
	const query = `SELECT id, enrollment_id, date, status, created_at FROM attendance WHERE enrollment_id = $1 ORDER BY date DESC`
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}
