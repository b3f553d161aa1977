package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/pkg/database"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type programRepository interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]models.Program, error)
	Create(ctx context.Context, exec sqlx.ExtContext, program *models.Program) error
	Update(ctx context.Context, exec sqlx.ExtContext, program *models.Program) error
	Delete(ctx context.Context, instituteID, id string) error
	ReplaceCoaches(ctx context.Context, exec sqlx.ExtContext, programID string, coachIDs []string) error
	ListCoaches(ctx context.Context, programIDs []string) ([]models.ProgramCoach, error)
}

type coachByIDReader interface {
	FindByID(ctx context.Context, id string) (*models.Coach, error)
}

// ProgramRequest creates or replaces a program and its coach assignments.
type ProgramRequest struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Sport          string   `json:"sport" validate:"required,max=100"`
	Pricing        float64  `json:"pricing" validate:"gte=0,lte=100000000"`
	StartDate      string   `json:"startDate" validate:"required"`
	Duration       string   `json:"duration" validate:"required,max=100"`
	AgeGroup       string   `json:"ageGroup" validate:"required,max=100"`
	Description    *string  `json:"description"`
	SeatsAvailable int      `json:"seatsAvailable" validate:"gte=0"`
	CoachIDs       []string `json:"coachIds" validate:"omitempty,dive,required"`
}

// ProgramService manages an owner's programs.
type ProgramService struct {
	tx         txProvider
	repo       programRepository
	institutes instituteOwnerReader
	coaches    coachByIDReader
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewProgramService constructs ProgramService.
func NewProgramService(tx txProvider, repo programRepository, institutes instituteOwnerReader, coaches coachByIDReader, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{tx: tx, repo: repo, institutes: institutes, coaches: coaches, validator: validate, logger: logger}
}

// UseCache lets program changes drop cached calendars, whose titles carry program names.
func (s *ProgramService) UseCache(cache *CacheService) {
	s.cache = cache
}

// ListForOwner returns the owner's programs with assigned coaches.
func (s *ProgramService) ListForOwner(ctx context.Context, ownerID string) ([]models.ProgramDetail, error) {
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, err
	}
	return s.ListByInstitute(ctx, institute.ID)
}

// ListByInstitute returns an institute's programs with assigned coaches, newest first.
func (s *ProgramService) ListByInstitute(ctx context.Context, instituteID string) ([]models.ProgramDetail, error) {
	programs, err := s.repo.ListByInstitute(ctx, instituteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	ids := make([]string, len(programs))
	for i, p := range programs {
		ids[i] = p.ID
	}
	assignments, err := s.repo.ListCoaches(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list program coaches")
	}
	byProgram := make(map[string][]models.ProgramCoach, len(programs))
	for _, a := range assignments {
		byProgram[a.ProgramID] = append(byProgram[a.ProgramID], a)
	}

	details := make([]models.ProgramDetail, 0, len(programs))
	for _, p := range programs {
		coaches := byProgram[p.ID]
		if coaches == nil {
			coaches = []models.ProgramCoach{}
		}
		details = append(details, models.ProgramDetail{Program: p, Coaches: coaches})
	}
	return details, nil
}

// Create adds a program to the owner's institute and assigns its coaches in one transaction.
func (s *ProgramService) Create(ctx context.Context, ownerID string, req ProgramRequest) (*models.ProgramDetail, error) {
	program, coachIDs, err := s.prepare(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, program); err != nil {
			return err
		}
		return s.repo.ReplaceCoaches(ctx, tx, program.ID, coachIDs)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	s.logger.Info("program created", zap.String("program_id", program.ID), zap.Int("coaches", len(coachIDs)))
	return s.detail(ctx, program)
}

// Update replaces a program of the owner's institute and its coach assignments.
func (s *ProgramService) Update(ctx context.Context, ownerID, programID string, req ProgramRequest) (*models.ProgramDetail, error) {
	program, coachIDs, err := s.prepare(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}
	program.ID = programID
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.Update(ctx, tx, program); err != nil {
			return err
		}
		return s.repo.ReplaceCoaches(ctx, tx, program.ID, coachIDs)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	_, _ = s.cache.InvalidateCalendars(ctx)
	return s.detail(ctx, program)
}

// Delete removes a program of the owner's institute.
func (s *ProgramService) Delete(ctx context.Context, ownerID, programID string) error {
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, institute.ID, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	_, _ = s.cache.InvalidateCalendars(ctx)
	s.logger.Info("program deleted", zap.String("program_id", programID))
	return nil
}

func (s *ProgramService) prepare(ctx context.Context, ownerID string, req ProgramRequest) (*models.Program, []string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	if math.IsNaN(req.Pricing) || math.IsInf(req.Pricing, 0) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "pricing must be a finite amount")
	}
	start, err := parseTimestamp(req.StartDate)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
	}
	institute, err := ownerInstitute(ctx, s.institutes, ownerID)
	if err != nil {
		return nil, nil, err
	}

	coachIDs := dedupe(req.CoachIDs)
	for _, id := range coachIDs {
		coach, err := s.coaches.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown coach "+id)
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coach")
		}
		if coach.InstituteID != institute.ID {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "coach "+id+" belongs to another institute")
		}
	}

	return &models.Program{
		InstituteID:    institute.ID,
		Name:           strings.TrimSpace(req.Name),
		Sport:          strings.TrimSpace(req.Sport),
		Pricing:        req.Pricing,
		StartDate:      start,
		Duration:       req.Duration,
		AgeGroup:       req.AgeGroup,
		Description:    req.Description,
		SeatsAvailable: req.SeatsAvailable,
	}, coachIDs, nil
}

func (s *ProgramService) detail(ctx context.Context, program *models.Program) (*models.ProgramDetail, error) {
	coaches, err := s.repo.ListCoaches(ctx, []string{program.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list program coaches")
	}
	if coaches == nil {
		coaches = []models.ProgramCoach{}
	}
	return &models.ProgramDetail{Program: *program, Coaches: coaches}, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
