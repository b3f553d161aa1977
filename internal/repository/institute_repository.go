package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/playpulse/playpulse-api/internal/models"
)

const instituteColumns = `id, owner_id, name, address, sports_offered, facilities, staff, estd_date, rewards, branches, total_staff, contact_number, images, created_at, updated_at`

// InstituteRepository persists institutes.
type InstituteRepository struct {
	db *sqlx.DB
}

func NewInstituteRepository(db *sqlx.DB) *InstituteRepository {
	return &InstituteRepository{db: db}
}

// FindByOwner returns the institute owned by ownerID.
func (r *InstituteRepository) FindByOwner(ctx context.Context, ownerID string) (*models.Institute, error) {
	query := `SELECT ` + instituteColumns + ` FROM institutes WHERE owner_id = $1`
	var inst models.Institute
	if err := r.db.GetContext(ctx, &inst, query, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find institute by owner: %w", err)
	}
	return &inst, nil
}

func (r *InstituteRepository) FindByID(ctx context.Context, id string) (*models.Institute, error) {
	query := `SELECT ` + instituteColumns + ` FROM institutes WHERE id = $1`
	var inst models.Institute
	if err := r.db.GetContext(ctx, &inst, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find institute: %w", err)
	}
	return &inst, nil
}

// Upsert creates or replaces the owner's institute. The owner_id constraint keeps one per owner.
func (r *InstituteRepository) Upsert(ctx context.Context, inst *models.Institute) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now
	if inst.Images == nil {
		inst.Images = []string{}
	}

	query := `INSERT INTO institutes (` + instituteColumns + `)
VALUES (:id, :owner_id, :name, :address, :sports_offered, :facilities, :staff, :estd_date, :rewards, :branches, :total_staff, :contact_number, :images, :created_at, :updated_at)
ON CONFLICT (owner_id) DO UPDATE SET
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	sports_offered = EXCLUDED.sports_offered,
	facilities = EXCLUDED.facilities,
	staff = EXCLUDED.staff,
	estd_date = EXCLUDED.estd_date,
	rewards = EXCLUDED.rewards,
	branches = EXCLUDED.branches,
	total_staff = EXCLUDED.total_staff,
	contact_number = EXCLUDED.contact_number,
	images = CASE WHEN cardinality(EXCLUDED.images) > 0 THEN EXCLUDED.images ELSE institutes.images END,
	updated_at = EXCLUDED.updated_at
RETURNING ` + instituteColumns

	rows, err := r.db.NamedQueryContext(ctx, query, inst)
	if err != nil {
		return fmt.Errorf("upsert institute: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.StructScan(inst); err != nil {
			return fmt.Errorf("scan institute: %w", err)
		}
	}
	return rows.Err()
}

// Search matches address and sports case-insensitively as substrings.
func (r *InstituteRepository) Search(ctx context.Context, filter models.InstituteFilter) ([]models.Institute, error) {
	query := `SELECT ` + instituteColumns + ` FROM institutes WHERE 1=1`
	var args []interface{}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		args = append(args, "%"+escapeLike(loc)+"%")
		query += fmt.Sprintf(" AND address ILIKE $%d", len(args))
	}
	if sport := strings.TrimSpace(filter.Sport); sport != "" {
		args = append(args, "%"+escapeLike(sport)+"%")
		query += fmt.Sprintf(" AND sports_offered ILIKE $%d", len(args))
	}
	query += " ORDER BY name ASC"

	var institutes []models.Institute
	if err := r.db.SelectContext(ctx, &institutes, query, args...); err != nil {
		return nil, fmt.Errorf("search institutes: %w", err)
	}
	return institutes, nil
}

// OwnerContactsForParent returns one row per institute the parent has any enrollment with.
func (r *InstituteRepository) OwnerContactsForParent(ctx context.Context, parentID string) ([]models.OwnerContact, error) {
	const query = `SELECT DISTINCT i.id AS institute_id, i.name AS institute_name, i.contact_number,
	u.id AS owner_id, u.name AS owner_name, u.email AS owner_email
FROM enrollments e
JOIN institutes i ON i.id = e.institute_id
JOIN users u ON u.id = i.owner_id
WHERE e.parent_id = $1
ORDER BY i.name ASC`

	var contacts []models.OwnerContact
	if err := r.db.SelectContext(ctx, &contacts, query, parentID); err != nil {
		return nil, fmt.Errorf("list owner contacts: %w", err)
	}
	return contacts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
