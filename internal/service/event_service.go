package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/pkg/database"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

const eventEnrollmentNotification = "event_enrollment"

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, instituteID, id string) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]models.Event, error)
	ListUpcoming(ctx context.Context) ([]models.EventDetail, error)
	CreateEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollment *models.EventEnrollment) error
	ListEnrollments(ctx context.Context, eventID string) ([]models.EventEnrollment, error)
}

// EventRequest is the owner's event form. Images arrive as separate multipart files.
type EventRequest struct {
	Name        string             `form:"name" json:"name" validate:"required,max=200"`
	Place       string             `form:"place" json:"place" validate:"required,max=200"`
	Type        string             `form:"type" json:"type" validate:"required,max=100"`
	Date        string             `form:"date" json:"date" validate:"required"`
	Description *string            `form:"description" json:"description"`
	Status      models.EventStatus `form:"status" json:"status" validate:"omitempty,oneof=upcoming completed"`
}

// EventEnrollRequest signs a participant up for an event.
type EventEnrollRequest struct {
	EventID       string `json:"eventId" validate:"required"`
	Name          string `json:"name" validate:"required,max=120"`
	ContactNumber string `json:"contactNumber" validate:"required,max=30"`
	Age           int    `json:"age" validate:"required,min=1,max=120"`
}

// EventService manages institute events and parent sign-ups.
type EventService struct {
	tx         txProvider
	repo       eventRepository
	institutes instituteOwnerReader
	images     imageStore
	notifier   notifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewEventService constructs EventService.
func NewEventService(tx txProvider, repo eventRepository, institutes instituteOwnerReader, images imageStore, notifier notifier, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{tx: tx, repo: repo, institutes: institutes, images: images, notifier: notifier, validator: validate, logger: logger}
}

// ListForOwner returns every event of the owner's institute.
func (s *EventService) ListForOwner(ctx context.Context, ownerID string) ([]models.Event, error) {
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.ListByInstitute(ctx, institute.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

// Create adds an event to the owner's institute.
func (s *EventService) Create(ctx context.Context, ownerID string, req EventRequest, images []UploadedFile) (*models.Event, error) {
	event, err := s.prepare(ctx, ownerID, req, images)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.logger.Info("event created", zap.String("event_id", event.ID), zap.String("institute_id", event.InstituteID))
	return event, nil
}

// Update replaces an event of the owner's institute. Without new images the stored ones stay.
func (s *EventService) Update(ctx context.Context, ownerID, eventID string, req EventRequest, images []UploadedFile) (*models.Event, error) {
	event, err := s.prepare(ctx, ownerID, req, images)
	if err != nil {
		return nil, err
	}
	event.ID = eventID
	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	return s.find(ctx, eventID)
}

// Delete removes an event of the owner's institute.
func (s *EventService) Delete(ctx context.Context, ownerID, eventID string) error {
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, institute.ID, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	return nil
}

// Enrollments lists sign-ups for an event of the owner's institute.
func (s *EventService) Enrollments(ctx context.Context, ownerID, eventID string) ([]models.EventEnrollment, error) {
	event, err := s.find(ctx, eventID)
	if err != nil {
		return nil, err
	}
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, err
	}
	if event.InstituteID != institute.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "event belongs to another institute")
	}
	rows, err := s.repo.ListEnrollments(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list event enrollments")
	}
	if rows == nil {
		rows = []models.EventEnrollment{}
	}
	return rows, nil
}

// ListUpcoming returns upcoming events of every institute, soonest first.
func (s *EventService) ListUpcoming(ctx context.Context) ([]models.EventDetail, error) {
	events, err := s.repo.ListUpcoming(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	if events == nil {
		events = []models.EventDetail{}
	}
	return events, nil
}

// Enroll signs a participant up for an upcoming event and notifies the parent.
func (s *EventService) Enroll(ctx context.Context, parentID string, req EventEnrollRequest) (*models.EventEnrollment, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event enrollment payload")
	}
	event, err := s.find(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusUpcoming {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot enroll in a completed event")
	}

	enrollment := &models.EventEnrollment{
		ParentID:      parentID,
		EventID:       event.ID,
		Name:          req.Name,
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		Age:           req.Age,
		Status:        models.EnrollmentStatusPending,
	}
	var notification *models.Notification
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.CreateEnrollment(ctx, tx, enrollment); err != nil {
			return err
		}
		details := "Pending approval"
		n, err := s.notifier.Record(ctx, tx, parentID, eventEnrollmentNotification,
			fmt.Sprintf("Enrollment request for %s in %s submitted", enrollment.Name, event.Name), &details)
		if err != nil {
			return err
		}
		notification = n
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll in event")
	}
	s.notifier.Dispatch(notification)
	return enrollment, nil
}

func (s *EventService) prepare(ctx context.Context, ownerID string, req EventRequest, images []UploadedFile) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	date, err := parseTimestamp(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event date")
	}
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, err
	}
	var urls []string
	if len(images) > 0 {
		if s.images == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "image uploads are disabled")
		}
		if urls, err = s.images.SaveImages(ctx, images); err != nil {
			return nil, err
		}
	}
	status := req.Status
	if status == "" {
		status = models.EventStatusUpcoming
	}
	return &models.Event{
		InstituteID: institute.ID,
		Name:        strings.TrimSpace(req.Name),
		Place:       strings.TrimSpace(req.Place),
		Type:        strings.TrimSpace(req.Type),
		Date:        date,
		Description: req.Description,
		Status:      status,
		Images:      urls,
	}, nil
}

func (s *EventService) find(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}
