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

const (
	enrollmentColumns = `id, parent_id, child_name, program_id, institute_id, status, payment_status, payment_token, created_at, updated_at`

	enrollmentDetailSelect = `SELECT e.id, e.parent_id, e.child_name, e.program_id, e.institute_id, e.status, e.payment_status, e.payment_token,
	e.created_at, e.updated_at, p.name AS program_name, p.pricing AS program_pricing, i.name AS institute_name,
	u.name AS parent_name, u.email AS parent_email
FROM enrollments e
JOIN programs p ON p.id = e.program_id
JOIN institutes i ON i.id = e.institute_id
JOIN users u ON u.id = e.parent_id`
)

// EnrollmentRepository persists enrollments. State transitions are conditional updates.
type EnrollmentRepository struct {
	db *sqlx.DB
}

func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts a pending enrollment using db or an open transaction.
func (r *EnrollmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if exec == nil {
		exec = r.db
	}
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	query := `INSERT INTO enrollments (` + enrollmentColumns + `)
VALUES (:id, :parent_id, :child_name, :program_id, :institute_id, :status, :payment_status, :payment_token, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, enrollmentDetailSelect+` WHERE e.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment detail: %w", err)
	}
	return &detail, nil
}

func (r *EnrollmentRepository) ListByParent(ctx context.Context, parentID string) ([]models.EnrollmentDetail, error) {
	return r.list(ctx, ` WHERE e.parent_id = $1 ORDER BY e.created_at DESC`, parentID)
}

func (r *EnrollmentRepository) ListByInstitute(ctx context.Context, instituteID string) ([]models.EnrollmentDetail, error) {
	return r.list(ctx, ` WHERE e.institute_id = $1 ORDER BY e.created_at DESC`, instituteID)
}

// ListByPrograms returns enrollments in any of programIDs.
func (r *EnrollmentRepository) ListByPrograms(ctx context.Context, programIDs []string) ([]models.EnrollmentDetail, error) {
	if len(programIDs) == 0 {
		return []models.EnrollmentDetail{}, nil
	}
	return r.list(ctx, ` WHERE e.program_id = ANY($1) ORDER BY e.created_at DESC`, pq.Array(programIDs))
}

func (r *EnrollmentRepository) list(ctx context.Context, where string, arg interface{}) ([]models.EnrollmentDetail, error) {
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, enrollmentDetailSelect+where, arg); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return details, nil
}

// FindLatestForParentProgram returns the parent's most recent enrollment in a program.
func (r *EnrollmentRepository) FindLatestForParentProgram(ctx context.Context, parentID, programID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE parent_id = $1 AND program_id = $2 ORDER BY created_at DESC LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, parentID, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find parent enrollment: %w", err)
	}
	return &enrollment, nil
}

// CompletePayment moves a pending/pending enrollment to approved/completed.
// It reports false when the row was not in that state, so concurrent payers cannot both win.
func (r *EnrollmentRepository) CompletePayment(ctx context.Context, exec sqlx.ExtContext, id, parentID, token string) (bool, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `UPDATE enrollments SET status = 'approved', payment_status = 'completed', payment_token = $3, updated_at = $4
WHERE id = $1 AND parent_id = $2 AND status = 'pending' AND payment_status = 'pending'`
	res, err := exec.ExecContext(ctx, query, id, parentID, token, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("complete enrollment payment: %w", err)
	}
	return affectedOne(res, "complete enrollment payment")
}

// Decide moves a pending enrollment of the institute to approved or rejected.
func (r *EnrollmentRepository) Decide(ctx context.Context, exec sqlx.ExtContext, id, instituteID string, status models.EnrollmentStatus) (bool, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `UPDATE enrollments SET status = $3, updated_at = $4
WHERE id = $1 AND institute_id = $2 AND status = 'pending'`
	res, err := exec.ExecContext(ctx, query, id, instituteID, status, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("decide enrollment: %w", err)
	}
	return affectedOne(res, "decide enrollment")
}

func affectedOne(res sql.Result, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return n == 1, nil
}
