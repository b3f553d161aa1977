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
	eventColumns = `id, institute_id, name, place, type, date, description, status, images, created_at, updated_at`

	eventDetailSelect = `SELECT e.id, e.institute_id, e.name, e.place, e.type, e.date, e.description, e.status, e.images,
	e.created_at, e.updated_at, i.name AS institute_name, i.address AS institute_address
FROM events e JOIN institutes i ON i.id = e.institute_id`
)

// EventRepository persists institute events and parent sign-ups.
type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Status == "" {
		event.Status = models.EventStatusUpcoming
	}
	if event.Images == nil {
		event.Images = pq.StringArray{}
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	query := `INSERT INTO events (` + eventColumns + `)
VALUES (:id, :institute_id, :name, :place, :type, :date, :description, :status, :images, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update rewrites an event owned by the institute. Empty images keep the stored ones.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	if event.Images == nil {
		event.Images = pq.StringArray{}
	}
	const query = `UPDATE events SET name = $1, place = $2, type = $3, date = $4, description = $5, status = $6,
	images = CASE WHEN cardinality($7::text[]) = 0 THEN images ELSE $7::text[] END,
	updated_at = $8
WHERE id = $9 AND institute_id = $10`
	res, err := r.db.ExecContext(ctx, query, event.Name, event.Place, event.Type, event.Date, event.Description,
		event.Status, event.Images, event.UpdatedAt, event.ID, event.InstituteID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return expectAffected(res, "update event")
}

func (r *EventRepository) Delete(ctx context.Context, instituteID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND institute_id = $2`, id, instituteID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return expectAffected(res, "delete event")
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

func (r *EventRepository) ListByInstitute(ctx context.Context, instituteID string) ([]models.Event, error) {
	var events []models.Event
	query := `SELECT ` + eventColumns + ` FROM events WHERE institute_id = $1 ORDER BY date DESC`
	if err := r.db.SelectContext(ctx, &events, query, instituteID); err != nil {
		return nil, fmt.Errorf("list institute events: %w", err)
	}
	return events, nil
}

// ListUpcoming returns upcoming events across institutes, soonest first.
func (r *EventRepository) ListUpcoming(ctx context.Context) ([]models.EventDetail, error) {
	var events []models.EventDetail
	query := eventDetailSelect + ` WHERE e.status = 'upcoming' ORDER BY e.date ASC`
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// CreateEnrollment inserts a sign-up using db or an open transaction.
func (r *EventRepository) CreateEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollment *models.EventEnrollment) error {
	if exec == nil {
		exec = r.db
	}
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusPending
	}
	enrollment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO event_enrollments (id, parent_id, event_id, name, contact_number, age, status, created_at)
VALUES (:id, :parent_id, :event_id, :name, :contact_number, :age, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, enrollment); err != nil {
		return fmt.Errorf("create event enrollment: %w", err)
	}
	return nil
}

// ListEnrollments returns sign-ups for an event with the parent's contact details.
func (r *EventRepository) ListEnrollments(ctx context.Context, eventID string) ([]models.EventEnrollment, error) {
	const query = `SELECT ee.id, ee.parent_id, ee.event_id, ee.name, ee.contact_number, ee.age, ee.status, ee.created_at,
	u.name AS parent_name, u.email AS parent_email
FROM event_enrollments ee JOIN users u ON u.id = ee.parent_id
WHERE ee.event_id = $1 ORDER BY ee.created_at ASC`
	var rows []models.EventEnrollment
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("list event enrollments: %w", err)
	}
	return rows, nil
}
