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

type gamificationRepository interface {
	pointsLedger
	FindLedger(ctx context.Context, userID string) (*models.GamificationLedger, error)
	UpsertReward(ctx context.Context, reward *models.ProgramReward) error
	ListRewardsForParent(ctx context.Context, parentID string) ([]models.ProgramReward, error)
	ListRewardsByCoach(ctx context.Context, coachID string) ([]models.ProgramReward, error)
}

// AwardPointsRequest is a coach's manual award to a parent.
type AwardPointsRequest struct {
	UserID string `json:"userId" validate:"required"`
	Points int    `json:"points" validate:"gte=0,lte=10000"`
	Badge  string `json:"badge" validate:"max=64"`
}

// SetRewardRequest sets the reward a coach offers on a program.
type SetRewardRequest struct {
	ProgramID      string `json:"programId" validate:"required"`
	Reward         string `json:"reward" validate:"required,max=200"`
	PointsRequired int    `json:"pointsRequired" validate:"gte=0"`
}

// GamificationService manages parent point ledgers and program rewards.
type GamificationService struct {
	repo      gamificationRepository
	users     userReader
	access    coachAccess
	validator *validator.Validate
	logger    *zap.Logger
}

func NewGamificationService(repo gamificationRepository, users userReader, coaches coachLookup, assignments assignmentChecker, validate *validator.Validate, logger *zap.Logger) *GamificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GamificationService{
		repo:      repo,
		users:     users,
		access:    coachAccess{coaches: coaches, assignments: assignments},
		validator: validate,
		logger:    logger,
	}
}

// Award credits points, and optionally a badge, to a parent's ledger.
func (s *GamificationService) Award(ctx context.Context, coachUserID string, req AwardPointsRequest) (*models.GamificationLedger, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gamification payload")
	}
	req.Badge = strings.TrimSpace(req.Badge)
	if req.Points == 0 && req.Badge == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "points or badge is required")
	}
	coach, err := s.access.activeCoach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	if user.Role != models.RoleParent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
	}

	ledger, err := s.repo.AddPoints(ctx, nil, user.ID, req.Points, req.Badge)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update gamification")
	}
	s.logger.Info("gamification awarded",
		zap.String("coach_id", coach.ID),
		zap.String("user_id", user.ID),
		zap.Int("points", req.Points),
		zap.String("badge", req.Badge),
	)
	return ledger, nil
}

// SetReward creates or replaces the coach's reward on an assigned program.
func (s *GamificationService) SetReward(ctx context.Context, coachUserID string, req SetRewardRequest) (*models.ProgramReward, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reward payload")
	}
	coach, err := s.access.activeCoach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireAssigned(ctx, coach, req.ProgramID); err != nil {
		return nil, err
	}
	reward := &models.ProgramReward{
		ProgramID:      req.ProgramID,
		CoachID:        coach.ID,
		Reward:         strings.TrimSpace(req.Reward),
		PointsRequired: req.PointsRequired,
	}
	if err := s.repo.UpsertReward(ctx, reward); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save reward")
	}
	return reward, nil
}

// Summary returns the parent's ledger, zero valued when nothing was earned yet, and the rewards on offer.
func (s *GamificationService) Summary(ctx context.Context, parentID string) (*models.GamificationSummary, error) {
	summary := &models.GamificationSummary{Ledger: models.GamificationLedger{UserID: parentID, Badges: []string{}}}
	ledger, err := s.repo.FindLedger(ctx, parentID)
	switch {
	case err == nil:
		summary.Ledger = *ledger
		if summary.Ledger.Badges == nil {
			summary.Ledger.Badges = []string{}
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gamification")
	}

	rewards, err := s.repo.ListRewardsForParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rewards")
	}
	if rewards == nil {
		rewards = []models.ProgramReward{}
	}
	summary.Rewards = rewards
	return summary, nil
}

// CoachRewards lists the rewards the coach has configured.
func (s *GamificationService) CoachRewards(ctx context.Context, coachID string) ([]models.ProgramReward, error) {
	rewards, err := s.repo.ListRewardsByCoach(ctx, coachID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rewards")
	}
	if rewards == nil {
		rewards = []models.ProgramReward{}
	}
	return rewards, nil
}
