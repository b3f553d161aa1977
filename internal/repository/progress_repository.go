package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/playpulse/playpulse-api/internal/models"
)

// ProgressRepository persists coach progress notes.
type ProgressRepository struct {
	db *sqlx.DB
}

func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Create(ctx context.Context, progress *models.Progress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	progress.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO progress (id, enrollment_id, coach_id, date, metrics, notes, created_at)
VALUES (:id, :enrollment_id, :coach_id, :date, :metrics, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("create progress: %w", err)
	}
	return nil
}

// ListByEnrollment returns entries oldest first with the recording coach's name.
func (r *ProgressRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Progress, error) {
	const query = `SELECT pr.id, pr.enrollment_id, pr.coach_id, c.name AS coach_name, pr.date, pr.metrics, pr.notes, pr.created_at
FROM progress pr JOIN coaches c ON c.id = pr.coach_id
WHERE pr.enrollment_id = $1 ORDER BY pr.date ASC, pr.created_at ASC`
	var rows []models.Progress
	if err := r.db.SelectContext(ctx, &rows, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return rows, nil
}
