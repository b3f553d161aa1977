package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/pkg/database"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/payment"
)

const purchaseOrderPrefix = "Enrollment_"

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type enrollmentRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListByParent(ctx context.Context, parentID string) ([]models.EnrollmentDetail, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]models.EnrollmentDetail, error)
	CompletePayment(ctx context.Context, exec sqlx.ExtContext, id, parentID, token string) (bool, error)
	Decide(ctx context.Context, exec sqlx.ExtContext, id, instituteID string, status models.EnrollmentStatus) (bool, error)
}

type programReader interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type instituteOwnerReader interface {
	FindByOwner(ctx context.Context, ownerID string) (*models.Institute, error)
}

// CreateEnrollmentRequest is a parent's enrollment of a child into a program.
type CreateEnrollmentRequest struct {
	ChildName string `json:"childName" validate:"required,max=120"`
	ProgramID string `json:"programId" validate:"required"`
}

// ProcessPaymentRequest is the strict payment confirmation.
type ProcessPaymentRequest struct {
	EnrollmentID string  `json:"enrollmentId" validate:"required"`
	Amount       float64 `json:"amount" validate:"gte=0,lte=100000000"`
	PaymentToken string  `json:"paymentToken"`
}

// InitiatePaymentRequest starts a demo gateway checkout.
type InitiatePaymentRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required"`
}

// InitiatePaymentResult carries the gateway redirect.
type InitiatePaymentResult struct {
	PaymentURL string             `json:"paymentUrl"`
	Enrollment *models.Enrollment `json:"enrollment"`
}

// DecisionRequest is an owner's approve or reject.
type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,enrollment_decision"`
}

// EnrollmentConfig holds the payment settings the state machine needs.
type EnrollmentConfig struct {
	SentinelToken string
	FrontendURL   string
}

// EnrollmentService owns the enrollment lifecycle: create, pay, approve or reject.
type EnrollmentService struct {
	tx         txProvider
	repo       enrollmentRepository
	programs   programReader
	institutes instituteOwnerReader
	notifier   notifier
	gateway    payment.Gateway
	metrics    *MetricsService
	cache      *CacheService
	config     EnrollmentConfig
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewEnrollmentService constructs EnrollmentService. gateway may be nil when demo payments are disabled.
func NewEnrollmentService(
	tx txProvider,
	repo enrollmentRepository,
	programs programReader,
	institutes instituteOwnerReader,
	notifier notifier,
	gateway payment.Gateway,
	metrics *MetricsService,
	config EnrollmentConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerEnrollmentValidators(validate)
	return &EnrollmentService{
		tx:         tx,
		repo:       repo,
		programs:   programs,
		institutes: institutes,
		notifier:   notifier,
		gateway:    gateway,
		metrics:    metrics,
		config:     config,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// UseCache lets enrollments drop the parent's cached calendar. A nil cache disables invalidation.
func (s *EnrollmentService) UseCache(cache *CacheService) {
	s.cache = cache
}

func registerEnrollmentValidators(v *validator.Validate) {
	_ = v.RegisterValidation("enrollment_decision", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "approve", "reject":
			return true
		}
		return false
	})
}

// Create enrolls a child as pending/pending and notifies the parent.
func (s *EnrollmentService) Create(ctx context.Context, parentID string, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	enrollment := &models.Enrollment{
		ParentID:      parentID,
		ChildName:     strings.TrimSpace(req.ChildName),
		ProgramID:     program.ID,
		InstituteID:   program.InstituteID,
		Status:        models.EnrollmentStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}

	var notification *models.Notification
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, enrollment); err != nil {
			return err
		}
		details := "Pending payment"
		notification, err = s.notifier.Record(ctx, tx, parentID, models.NotificationEnrollment,
			fmt.Sprintf("Enrollment request for %s in %s submitted", enrollment.ChildName, program.Name), &details)
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.notifier.Dispatch(notification)
	// The new program's sessions belong on the parent's calendar right away.
	_ = s.cache.InvalidateParentCalendar(ctx, parentID)
	return enrollment, nil
}

// ProcessPayment confirms payment for a pending enrollment. Checks run in order:
// existence, ownership, state, token, then amount to the cent.
func (s *EnrollmentService) ProcessPayment(ctx context.Context, parentID string, req ProcessPaymentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	enrollment, program, err := s.loadOwned(ctx, parentID, req.EnrollmentID)
	if err != nil {
		s.metrics.RecordPayment("strict", "rejected")
		return nil, err
	}
	if !enrollment.AwaitingPayment() {
		s.metrics.RecordPayment("strict", "rejected")
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment is not awaiting payment")
	}
	if req.PaymentToken == "" || req.PaymentToken != s.config.SentinelToken {
		s.metrics.RecordPayment("strict", "rejected")
		return nil, appErrors.Clone(appErrors.ErrInvalidPaymentToken, "payment failed: invalid token")
	}
	if models.Cents(req.Amount) != models.Cents(program.Pricing) {
		s.metrics.RecordPayment("strict", "rejected")
		return nil, appErrors.Clone(appErrors.ErrAmountMismatch, "payment amount mismatch")
	}

	message := fmt.Sprintf("Payment of NPR %.2f for %s in %s completed", program.Pricing, enrollment.ChildName, program.Name)
	if err := s.complete(ctx, enrollment, req.PaymentToken, message); err != nil {
		s.metrics.RecordPayment("strict", "failed")
		return nil, err
	}
	s.metrics.RecordPayment("strict", "completed")
	return enrollment, nil
}

// InitiatePayment is the demo checkout: it asks the gateway for a redirect URL and then marks
// the enrollment paid without verifying the amount or a token. It must only be mounted in demo mode.
func (s *EnrollmentService) InitiatePayment(ctx context.Context, parent models.UserInfo, req InitiatePaymentRequest) (*InitiatePaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if s.gateway == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "demo payments are disabled")
	}
	enrollment, program, err := s.loadOwned(ctx, parent.ID, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, appErrors.ErrForbidden) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, err
	}
	if !enrollment.AwaitingPayment() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already completed or invalid")
	}

	checkout, err := s.gateway.Initiate(ctx, payment.InitiateRequest{
		OrderID:   purchaseOrderPrefix + enrollment.ID,
		OrderName: program.Name,
		Amount:    program.Pricing,
		Customer: payment.CustomerInfo{
			Name:  enrollment.ChildName,
			Email: parent.Email,
		},
	})
	if err != nil {
		s.metrics.RecordPayment("demo", "upstream_error")
		s.logger.Warn("payment gateway initiate failed", zap.String("enrollment_id", enrollment.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to initiate payment")
	}

	token := fmt.Sprintf("khalti-demo-%d", s.now().UnixMilli())
	message := fmt.Sprintf("Payment of NPR %.2f for %s in %s completed", program.Pricing, enrollment.ChildName, program.Name)
	if err := s.complete(ctx, enrollment, token, message); err != nil {
		s.metrics.RecordPayment("demo", "failed")
		return nil, err
	}
	s.metrics.RecordPayment("demo", "completed")
	return &InitiatePaymentResult{PaymentURL: checkout.PaymentURL, Enrollment: enrollment}, nil
}

// PaymentReturnURL maps the gateway's return query to the frontend page the parent lands on.
func (s *EnrollmentService) PaymentReturnURL(ctx context.Context, purchaseOrderID string) string {
	base := strings.TrimRight(s.config.FrontendURL, "/") + "/parent"
	query := url.Values{}
	query.Set("tab", "enrollments")

	enrollmentID := strings.TrimPrefix(purchaseOrderID, purchaseOrderPrefix)
	if purchaseOrderID == "" || enrollmentID == "" {
		query.Set("payment", "error")
		return base + "?" + query.Encode()
	}
	query.Set("enrollmentId", enrollmentID)

	if _, err := s.repo.FindByID(ctx, enrollmentID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load enrollment for payment return", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		}
		query.Set("payment", "error")
		return base + "?" + query.Encode()
	}
	query.Set("payment", "success")
	return base + "?" + query.Encode()
}

// ListForParent returns the parent's enrollments, newest first.
func (s *EnrollmentService) ListForParent(ctx context.Context, parentID string) ([]models.EnrollmentDetail, error) {
	rows, err := s.repo.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return normaliseEnrollments(rows), nil
}

// ListForOwner returns enrollments of the owner's institute.
func (s *EnrollmentService) ListForOwner(ctx context.Context, ownerID string) ([]models.EnrollmentDetail, error) {
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByInstitute(ctx, institute.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return normaliseEnrollments(rows), nil
}

// GetForOwner returns one enrollment of the owner's institute.
func (s *EnrollmentService) GetForOwner(ctx context.Context, ownerID, id string) (*models.EnrollmentDetail, error) {
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, err
	}
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if detail.InstituteID != institute.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	detail.Status = detail.EffectiveStatus()
	return detail, nil
}

// Decide approves or rejects a pending enrollment of the owner's institute. Decided enrollments never change.
func (s *EnrollmentService) Decide(ctx context.Context, ownerID, id string, req DecisionRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "decision must be approve or reject")
	}
	detail, err := s.GetForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if detail.Status != models.EnrollmentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment has already been decided")
	}
	target := models.EnrollmentStatusApproved
	if req.Decision == "reject" {
		target = models.EnrollmentStatusRejected
	}

	var notification *models.Notification
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		changed, err := s.repo.Decide(ctx, tx, id, detail.InstituteID, target)
		if err != nil {
			return err
		}
		if !changed {
			return appErrors.Clone(appErrors.ErrConflict, "enrollment has already been decided")
		}
		notification, err = s.notifier.Record(ctx, tx, detail.ParentID, models.NotificationDecision,
			fmt.Sprintf("Enrollment for %s in %s was %s", detail.ChildName, detail.ProgramName, target), nil)
		return err
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	s.notifier.Dispatch(notification)
	detail.Status = target
	return detail, nil
}

// loadOwned returns the enrollment and its program when parentID owns it.
func (s *EnrollmentService) loadOwned(ctx context.Context, parentID, enrollmentID string) (*models.Enrollment, *models.Program, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.ParentID != parentID {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another parent")
	}
	program, err := s.programs.FindByID(ctx, enrollment.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return enrollment, program, nil
}

// complete writes approved/completed and the payment notification in one transaction.
func (s *EnrollmentService) complete(ctx context.Context, enrollment *models.Enrollment, token, message string) error {
	var notification *models.Notification
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		won, err := s.repo.CompletePayment(ctx, tx, enrollment.ID, enrollment.ParentID, token)
		if err != nil {
			return err
		}
		if !won {
			return appErrors.Clone(appErrors.ErrConflict, "enrollment is not awaiting payment")
		}
		details := "Enrollment approved"
		notification, err = s.notifier.Record(ctx, tx, enrollment.ParentID, models.NotificationPayment, message, &details)
		return err
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete payment")
	}

	enrollment.Status = models.EnrollmentStatusApproved
	enrollment.PaymentStatus = models.PaymentStatusCompleted
	enrollment.PaymentToken = &token
	s.notifier.Dispatch(notification)
	return nil
}

// ownerInstitute resolves the institute run by ownerID.
func ownerInstitute(ctx context.Context, institutes instituteOwnerReader, ownerID string) (*models.Institute, error) {
	institute, err := institutes.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institute not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institute")
	}
	return institute, nil
}

func normaliseEnrollments(rows []models.EnrollmentDetail) []models.EnrollmentDetail {
	if rows == nil {
		return []models.EnrollmentDetail{}
	}
	for i := range rows {
		rows[i].Status = rows[i].EffectiveStatus()
	}
	return rows
}
