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

const coachColumns = `id, institute_id, user_id, name, email, qualification, achievements, experience, salary, contact_number, image, status, created_at, updated_at`

// CoachRepository persists coach profiles.
type CoachRepository struct {
	db *sqlx.DB
}

func NewCoachRepository(db *sqlx.DB) *CoachRepository {
	return &CoachRepository{db: db}
}

func (r *CoachRepository) FindByID(ctx context.Context, id string) (*models.Coach, error) {
	return r.findOne(ctx, `SELECT `+coachColumns+` FROM coaches WHERE id = $1`, id)
}

// FindByUserID resolves the coach profile behind an authenticated coach user.
func (r *CoachRepository) FindByUserID(ctx context.Context, userID string) (*models.Coach, error) {
	return r.findOne(ctx, `SELECT `+coachColumns+` FROM coaches WHERE user_id = $1`, userID)
}

func (r *CoachRepository) findOne(ctx context.Context, query string, arg string) (*models.Coach, error) {
	var coach models.Coach
	if err := r.db.GetContext(ctx, &coach, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find coach: %w", err)
	}
	return &coach, nil
}

func (r *CoachRepository) ListByInstitute(ctx context.Context, instituteID string) ([]models.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches WHERE institute_id = $1 ORDER BY created_at DESC`
	var coaches []models.Coach
	if err := r.db.SelectContext(ctx, &coaches, query, instituteID); err != nil {
		return nil, fmt.Errorf("list coaches: %w", err)
	}
	return coaches, nil
}

// Create inserts a coach profile using db or an open transaction.
func (r *CoachRepository) Create(ctx context.Context, exec sqlx.ExtContext, coach *models.Coach) error {
	if exec == nil {
		exec = r.db
	}
	if coach.ID == "" {
		coach.ID = uuid.NewString()
	}
	if coach.Status == "" {
		coach.Status = models.CoachStatusActive
	}
	now := time.Now().UTC()
	coach.CreatedAt = now
	coach.UpdatedAt = now

	query := `INSERT INTO coaches (` + coachColumns + `)
VALUES (:id, :institute_id, :user_id, :name, :email, :qualification, :achievements, :experience, :salary, :contact_number, :image, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, coach); err != nil {
		return fmt.Errorf("create coach: %w", err)
	}
	return nil
}

// Update rewrites the editable fields of a coach in the given institute.
func (r *CoachRepository) Update(ctx context.Context, coach *models.Coach) error {
	coach.UpdatedAt = time.Now().UTC()
	const query = `UPDATE coaches SET name = :name, qualification = :qualification, achievements = :achievements, experience = :experience,
salary = :salary, contact_number = :contact_number, image = :image, updated_at = :updated_at
WHERE id = :id AND institute_id = :institute_id`
	res, err := r.db.NamedExecContext(ctx, query, coach)
	if err != nil {
		return fmt.Errorf("update coach: %w", err)
	}
	return expectAffected(res, "update coach")
}

// ToggleStatus flips active/inactive and returns the new status.
func (r *CoachRepository) ToggleStatus(ctx context.Context, instituteID, id string) (models.CoachStatus, error) {
	const query = `UPDATE coaches SET status = CASE WHEN status = 'active' THEN 'inactive' ELSE 'active' END, updated_at = $3
WHERE id = $1 AND institute_id = $2 RETURNING status`
	var status models.CoachStatus
	if err := r.db.GetContext(ctx, &status, query, id, instituteID, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("toggle coach status: %w", err)
	}
	return status, nil
}

// AssignedProgramIDs lists the programs a coach is assigned to.
func (r *CoachRepository) AssignedProgramIDs(ctx context.Context, coachID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT program_id FROM program_coaches WHERE coach_id = $1 ORDER BY program_id`, coachID); err != nil {
		return nil, fmt.Errorf("list assigned programs: %w", err)
	}
	return ids, nil
}
