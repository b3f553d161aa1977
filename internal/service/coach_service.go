package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/pkg/database"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type coachRepository interface {
	FindByID(ctx context.Context, id string) (*models.Coach, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]models.Coach, error)
	Create(ctx context.Context, exec sqlx.ExtContext, coach *models.Coach) error
	Update(ctx context.Context, coach *models.Coach) error
	ToggleStatus(ctx context.Context, instituteID, id string) (models.CoachStatus, error)
	AssignedProgramIDs(ctx context.Context, coachID string) ([]string, error)
}

type userCreator interface {
	Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error
}

// CreateCoachRequest registers a coach login together with the coach profile.
type CreateCoachRequest struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=6"`
	Qualification string  `json:"qualification" validate:"required"`
	Achievements  *string `json:"achievements"`
	Experience    string  `json:"experience" validate:"required"`
	Salary        float64 `json:"salary" validate:"gte=0"`
	ContactNumber *string `json:"contactNumber" validate:"omitempty,max=30"`
}

// UpdateCoachRequest edits a coach profile. The login email is fixed.
type UpdateCoachRequest struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Qualification string  `json:"qualification" validate:"required"`
	Achievements  *string `json:"achievements"`
	Experience    string  `json:"experience" validate:"required"`
	Salary        float64 `json:"salary" validate:"gte=0"`
	ContactNumber *string `json:"contactNumber" validate:"omitempty,max=30"`
}

// CoachService lets owners manage the coaches of their institute.
type CoachService struct {
	tx         txProvider
	repo       coachRepository
	users      userCreator
	institutes instituteOwnerReader
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCoachService constructs CoachService.
func NewCoachService(tx txProvider, repo coachRepository, users userCreator, institutes instituteOwnerReader, validate *validator.Validate, logger *zap.Logger) *CoachService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoachService{tx: tx, repo: repo, users: users, institutes: institutes, validator: validate, logger: logger}
}

// List returns the institute's coaches with their assigned program ids.
func (s *CoachService) List(ctx context.Context, ownerID string) ([]models.CoachDetail, error) {
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, err
	}
	coaches, err := s.repo.ListByInstitute(ctx, institute.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coaches")
	}
	details := make([]models.CoachDetail, 0, len(coaches))
	for _, c := range coaches {
		programs, err := s.repo.AssignedProgramIDs(ctx, c.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list coach programs")
		}
		if programs == nil {
			programs = []string{}
		}
		details = append(details, models.CoachDetail{Coach: c, AssignedPrograms: programs})
	}
	return details, nil
}

// Create makes the coach's user account and profile in one transaction.
// A taken email rolls both back and surfaces as a conflict.
func (s *CoachService) Create(ctx context.Context, ownerID string, req CreateCoachRequest) (*models.Coach, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coach payload")
	}
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	name := strings.TrimSpace(req.Name)
	user := &models.User{Name: name, Email: req.Email, PasswordHash: string(hash), Role: models.RoleCoach}
	coach := &models.Coach{
		InstituteID:   institute.ID,
		Name:          name,
		Email:         req.Email,
		Qualification: req.Qualification,
		Achievements:  req.Achievements,
		Experience:    req.Experience,
		Salary:        req.Salary,
		ContactNumber: req.ContactNumber,
		Status:        models.CoachStatusActive,
	}
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.users.Create(ctx, tx, user); err != nil {
			return err
		}
		coach.UserID = user.ID
		return s.repo.Create(ctx, tx, coach)
	})
	if err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a user with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create coach")
	}
	s.logger.Info("coach created", zap.String("coach_id", coach.ID), zap.String("institute_id", institute.ID))
	return coach, nil
}

// Update edits a coach of the owner's institute.
func (s *CoachService) Update(ctx context.Context, ownerID, coachID string, req UpdateCoachRequest) (*models.Coach, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coach payload")
	}
	coach, err := s.institutionCoach(ctx, ownerID, coachID)
	if err != nil {
		return nil, err
	}
	coach.Name = strings.TrimSpace(req.Name)
	coach.Qualification = req.Qualification
	coach.Achievements = req.Achievements
	coach.Experience = req.Experience
	coach.Salary = req.Salary
	coach.ContactNumber = req.ContactNumber
	if err := s.repo.Update(ctx, coach); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coach not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update coach")
	}
	_, _ = s.cache.InvalidateCalendars(ctx)
	return coach, nil
}

// UseCache lets coach edits drop cached calendars, which show coach names.
func (s *CoachService) UseCache(cache *CacheService) {
	s.cache = cache
}

// ToggleStatus flips a coach between active and inactive.
func (s *CoachService) ToggleStatus(ctx context.Context, ownerID, coachID string) (models.CoachStatus, error) {
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return "", err
	}
	status, err := s.repo.ToggleStatus(ctx, institute.ID, coachID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "coach not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle coach status")
	}
	s.logger.Info("coach status changed", zap.String("coach_id", coachID), zap.String("status", string(status)))
	return status, nil
}

func (s *CoachService) institutionCoach(ctx context.Context, ownerID, coachID string) (*models.Coach, error) {
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, err
	}
	coach, err := s.repo.FindByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "coach not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coach")
	}
	if coach.InstituteID != institute.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "coach not found")
	}
	return coach, nil
}
