package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/playpulse/playpulse-api/internal/models"
)

const (
	scheduleColumns = `id, program_id, coach_id, duration, start_date, schedule, created_at, updated_at`

	scheduleRecordSelect = `SELECT ps.id, ps.program_id, ps.coach_id, ps.duration, ps.start_date, ps.schedule, ps.created_at, ps.updated_at,
	p.name AS program_name, c.name AS coach_name
FROM program_schedules ps
LEFT JOIN programs p ON p.id = ps.program_id
LEFT JOIN coaches c ON c.id = ps.coach_id`
)

// ScheduleRepository persists program schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Upsert creates or replaces the single schedule of a (program, coach) pair.
// A nil StartDate keeps the stored one on update.
func (r *ScheduleRepository) Upsert(ctx context.Context, schedule *models.ProgramSchedule, startDate *time.Time) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	query := `INSERT INTO program_schedules (` + scheduleColumns + `)
VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, $7), $6, $7, $7)
ON CONFLICT (program_id, coach_id) DO UPDATE SET
	duration = EXCLUDED.duration,
	schedule = EXCLUDED.schedule,
	start_date = COALESCE($5::timestamptz, program_schedules.start_date),
	updated_at = EXCLUDED.updated_at
RETURNING ` + scheduleColumns

	if err := r.db.GetContext(ctx, schedule, query,
		schedule.ID, schedule.ProgramID, schedule.CoachID, schedule.Duration, startDate, schedule.Schedule, now,
	); err != nil {
		return fmt.Errorf("upsert program schedule: %w", err)
	}
	return nil
}

// ListByCoach returns the coach's schedules with program names.
func (r *ScheduleRepository) ListByCoach(ctx context.Context, coachID string) ([]models.ScheduleRecord, error) {
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, scheduleRecordSelect+` WHERE ps.coach_id = $1 ORDER BY ps.created_at ASC`, coachID); err != nil {
		return nil, fmt.Errorf("list coach schedules: %w", err)
	}
	return records, nil
}

// ListForParent returns schedules of every program the parent has an enrollment in,
// in a stable order so repeated projections match.
func (r *ScheduleRepository) ListForParent(ctx context.Context, parentID string) ([]models.ScheduleRecord, error) {
	query := scheduleRecordSelect + `
WHERE ps.program_id IN (SELECT program_id FROM enrollments WHERE parent_id = $1)
ORDER BY ps.created_at ASC, ps.id ASC`
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, parentID); err != nil {
		return nil, fmt.Errorf("list parent schedules: %w", err)
	}
	return records, nil
}
