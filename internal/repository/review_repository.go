package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/playpulse/playpulse-api/internal/models"
)

// ReviewRepository persists parent reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO reviews (id, parent_id, institute_id, program_id, coach_id, rating, comment, created_at)
VALUES (:id, :parent_id, :institute_id, :program_id, :coach_id, :rating, :comment, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// ListByParentProgram returns the parent's reviews of one program, newest first.
func (r *ReviewRepository) ListByParentProgram(ctx context.Context, parentID, programID string) ([]models.Review, error) {
	const query = `SELECT id, parent_id, institute_id, program_id, coach_id, rating, comment, created_at
FROM reviews WHERE parent_id = $1 AND program_id = $2 ORDER BY created_at DESC`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, parentID, programID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
