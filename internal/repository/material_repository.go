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

const materialColumns = `id, program_id, coach_id, title, storage_key, size_bytes, created_at`

// MaterialRepository persists training material metadata; file bytes live in the storage backend.
type MaterialRepository struct {
	db *sqlx.DB
}

func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) Create(ctx context.Context, material *models.TrainingMaterial) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	material.CreatedAt = time.Now().UTC()
	query := `INSERT INTO training_materials (` + materialColumns + `)
VALUES (:id, :program_id, :coach_id, :title, :storage_key, :size_bytes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create training material: %w", err)
	}
	return nil
}

func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.TrainingMaterial, error) {
	var material models.TrainingMaterial
	if err := r.db.GetContext(ctx, &material, `SELECT `+materialColumns+` FROM training_materials WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find training material: %w", err)
	}
	return &material, nil
}

// ListByProgram returns newest first.
func (r *MaterialRepository) ListByProgram(ctx context.Context, programID string) ([]models.TrainingMaterial, error) {
	var materials []models.TrainingMaterial
	query := `SELECT ` + materialColumns + ` FROM training_materials WHERE program_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &materials, query, programID); err != nil {
		return nil, fmt.Errorf("list training materials: %w", err)
	}
	return materials, nil
}
