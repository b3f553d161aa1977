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
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/jobs"
	"github.com/playpulse/playpulse-api/pkg/mailer"
)

const emailJobType = "notification_email"

type notificationRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type jobSubmitter interface {
	Submit(job jobs.Job) error
}

// notifier is what state-changing services need: record inside their transaction, dispatch after commit.
type notifier interface {
	Record(ctx context.Context, exec sqlx.ExtContext, userID, kind, message string, details *string) (*models.Notification, error)
	Dispatch(notifications ...*models.Notification)
}

// SendNotificationRequest is a coach's direct notification to a user.
type SendNotificationRequest struct {
	UserID  string  `json:"userId" validate:"required"`
	Type    string  `json:"type"`
	Message string  `json:"message" validate:"required,max=1000"`
	Details *string `json:"details"`
}

// NotificationService stores in-app notifications and emails them in the background.
type NotificationService struct {
	repo      notificationRepository
	users     userReader
	sender    mailer.Sender
	queue     jobSubmitter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs NotificationService. Call UseQueue to enable email delivery.
func NewNotificationService(repo notificationRepository, users userReader, sender mailer.Sender, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, sender: sender, metrics: metrics, validator: validate, logger: logger}
}

// UseQueue sets the queue email jobs are submitted to. The queue's handler should be HandleEmailJob.
func (s *NotificationService) UseQueue(queue jobSubmitter) {
	s.queue = queue
}

// Record persists a notification using exec, which may be an open transaction.
func (s *NotificationService) Record(ctx context.Context, exec sqlx.ExtContext, userID, kind, message string, details *string) (*models.Notification, error) {
	n := &models.Notification{UserID: userID, Type: kind, Message: message, Details: details}
	if err := s.repo.Create(ctx, exec, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Dispatch queues an email per notification. Delivery problems are logged and never returned.
func (s *NotificationService) Dispatch(notifications ...*models.Notification) {
	for _, n := range notifications {
		if n == nil {
			continue
		}
		if s.queue == nil {
			s.logger.Debug("email queue not configured, skipping notification email", zap.String("notification_id", n.ID))
			continue
		}
		if err := s.queue.Submit(jobs.Job{Type: emailJobType, Payload: *n}); err != nil {
			s.metrics.RecordEmail(false)
			s.logger.Warn("failed to queue notification email", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
}

// HandleEmailJob delivers one queued notification email. Returned errors are retried by the queue.
func (s *NotificationService) HandleEmailJob(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected email job payload", zap.String("job_id", job.ID))
		return nil
	}
	user, err := s.users.FindByID(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("notification recipient not found", zap.String("user_id", n.UserID))
			return nil
		}
		return err
	}
	if user.Email == "" {
		return nil
	}

	if err := s.sender.Send(ctx, notificationEmail(user.Email, n)); err != nil {
		s.metrics.RecordEmail(false)
		return err
	}
	s.metrics.RecordEmail(true)
	return nil
}

func notificationEmail(to string, n models.Notification) mailer.Message {
	details := "None"
	if n.Details != nil && *n.Details != "" {
		details = *n.Details
	}
	return mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("New Notification: %s", strings.ToUpper(n.Type)),
		Text:    fmt.Sprintf("%s\n\nDetails: %s", n.Message, details),
	}
}

// Send lets a coach notify a user directly.
func (s *NotificationService) Send(ctx context.Context, req SendNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	kind := strings.TrimSpace(req.Type)
	if kind == "" {
		kind = models.NotificationCoach
	}
	n, err := s.Record(ctx, nil, req.UserID, kind, req.Message, req.Details)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	s.Dispatch(n)
	return n, nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	rows, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if rows == nil {
		rows = []models.Notification{}
	}
	return rows, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	return nil
}
