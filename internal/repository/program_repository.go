package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/playpulse/playpulse-api/internal/models"
)

const programColumns = `id, institute_id, name, sport, pricing, start_date, duration, age_group, description, seats_available, created_at, updated_at`

// ProgramRepository persists programs and their coach assignments.
type ProgramRepository struct {
	db *sqlx.DB
}

func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find program: %w", err)
	}
	return &program, nil
}

func (r *ProgramRepository) ListByInstitute(ctx context.Context, instituteID string) ([]models.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE institute_id = $1 ORDER BY created_at DESC`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query, instituteID); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// Create inserts a program using db or an open transaction.
func (r *ProgramRepository) Create(ctx context.Context, exec sqlx.ExtContext, program *models.Program) error {
	if exec == nil {
		exec = r.db
	}
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	query := `INSERT INTO programs (` + programColumns + `)
VALUES (:id, :institute_id, :name, :sport, :pricing, :start_date, :duration, :age_group, :description, :seats_available, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update rewrites a program scoped to its institute.
func (r *ProgramRepository) Update(ctx context.Context, exec sqlx.ExtContext, program *models.Program) error {
	if exec == nil {
		exec = r.db
	}
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programs SET name = :name, sport = :sport, pricing = :pricing, start_date = :start_date, duration = :duration,
age_group = :age_group, description = :description, seats_available = :seats_available, updated_at = :updated_at
WHERE id = :id AND institute_id = :institute_id`
	res, err := sqlx.NamedExecContext(ctx, exec, query, program)
	if err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return expectAffected(res, "update program")
}

// Delete removes a program of the given institute.
func (r *ProgramRepository) Delete(ctx context.Context, instituteID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE id = $1 AND institute_id = $2`, id, instituteID)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return expectAffected(res, "delete program")
}

// ReplaceCoaches sets the program's coach assignments to exactly coachIDs.
func (r *ProgramRepository) ReplaceCoaches(ctx context.Context, exec sqlx.ExtContext, programID string, coachIDs []string) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM program_coaches WHERE program_id = $1`, programID); err != nil {
		return fmt.Errorf("clear program coaches: %w", err)
	}
	if len(coachIDs) == 0 {
		return nil
	}
	const query = `INSERT INTO program_coaches (program_id, coach_id)
SELECT $1, UNNEST($2::text[]) ON CONFLICT (program_id, coach_id) DO NOTHING`
	if _, err := exec.ExecContext(ctx, query, programID, pq.Array(coachIDs)); err != nil {
		return fmt.Errorf("assign program coaches: %w", err)
	}
	return nil
}

// ListCoaches returns assignments for the given programs.
func (r *ProgramRepository) ListCoaches(ctx context.Context, programIDs []string) ([]models.ProgramCoach, error) {
	if len(programIDs) == 0 {
		return []models.ProgramCoach{}, nil
	}
	const query = `SELECT pc.program_id, pc.coach_id, c.name AS coach_name, pc.role
FROM program_coaches pc JOIN coaches c ON c.id = pc.coach_id
WHERE pc.program_id = ANY($1) ORDER BY c.name ASC`
	var coaches []models.ProgramCoach
	if err := r.db.SelectContext(ctx, &coaches, query, pq.Array(programIDs)); err != nil {
		return nil, fmt.Errorf("list program coaches: %w", err)
	}
	return coaches, nil
}

// IsCoachAssigned reports whether coachID is assigned to programID.
func (r *ProgramRepository) IsCoachAssigned(ctx context.Context, programID, coachID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM program_coaches WHERE program_id = $1 AND coach_id = $2)`
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, programID, coachID); err != nil {
		return false, fmt.Errorf("check coach assignment: %w", err)
	}
	return ok, nil
}
