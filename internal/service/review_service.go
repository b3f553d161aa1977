package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByParentProgram(ctx context.Context, parentID, programID string) ([]models.Review, error)
}

// CreateReviewRequest rates a program and its coach.
type CreateReviewRequest struct {
	InstituteID string `json:"instituteId" validate:"required"`
	CoachID     string `json:"coachId" validate:"required"`
	ProgramID   string `json:"programId" validate:"required"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Comment     string `json:"comment" validate:"required,max=2000"`
}

// ReviewService stores parent reviews.
type ReviewService struct {
	repo        reviewRepository
	programs    programReader
	assignments assignmentChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReviewService constructs ReviewService.
func NewReviewService(repo reviewRepository, programs programReader, assignments assignmentChecker, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, programs: programs, assignments: assignments, validator: validate, logger: logger}
}

// Create stores a review. The program must belong to the institute and the coach must teach it.
func (s *ReviewService) Create(ctx context.Context, parentID string, req CreateReviewRequest) (*models.Review, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	program, err := s.program(ctx, req.ProgramID)
	if err != nil {
		return nil, err
	}
	if program.InstituteID != req.InstituteID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "program does not belong to this institute")
	}
	assigned, err := s.assignments.IsCoachAssigned(ctx, req.ProgramID, req.CoachID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrValidation, "coach does not teach this program")
	}

	coachID := req.CoachID
	review := &models.Review{
		ParentID:    parentID,
		InstituteID: req.InstituteID,
		ProgramID:   req.ProgramID,
		CoachID:     &coachID,
		Rating:      req.Rating,
		Comment:     req.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save review")
	}
	return review, nil
}

// ListForParent returns the parent's own reviews of a program.
func (s *ReviewService) ListForParent(ctx context.Context, parentID, programID string) ([]models.Review, error) {
	if _, err := s.program(ctx, programID); err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListByParentProgram(ctx, parentID, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

func (s *ReviewService) program(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}
