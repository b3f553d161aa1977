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

// GamificationRepository persists point ledgers and program rewards.
type GamificationRepository struct {
	db *sqlx.DB
}

func NewGamificationRepository(db *sqlx.DB) *GamificationRepository {
	return &GamificationRepository{db: db}
}

// AddPoints increments the user's ledger, creating it on first use. A non-empty badge is added once.
func (r *GamificationRepository) AddPoints(ctx context.Context, exec sqlx.ExtContext, userID string, points int, badge string) (*models.GamificationLedger, error) {
	if exec == nil {
		exec = r.db
	}
	badges := pq.StringArray{}
	if badge != "" {
		badges = pq.StringArray{badge}
	}

	const query = `INSERT INTO gamification_ledgers (id, user_id, points, badges, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
	points = gamification_ledgers.points + EXCLUDED.points,
	badges = ARRAY(SELECT DISTINCT b FROM unnest(gamification_ledgers.badges || EXCLUDED.badges) AS b ORDER BY b),
	updated_at = EXCLUDED.updated_at
RETURNING id, user_id, points, badges, updated_at`
	var ledger models.GamificationLedger
	if err := sqlx.GetContext(ctx, exec, &ledger, query, uuid.NewString(), userID, points, badges, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("add gamification points: %w", err)
	}
	return &ledger, nil
}

// FindLedger returns sql.ErrNoRows when the user has never earned points.
func (r *GamificationRepository) FindLedger(ctx context.Context, userID string) (*models.GamificationLedger, error) {
	const query = `SELECT id, user_id, points, badges, updated_at FROM gamification_ledgers WHERE user_id = $1`
	var ledger models.GamificationLedger
	if err := r.db.GetContext(ctx, &ledger, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find gamification ledger: %w", err)
	}
	return &ledger, nil
}

// UpsertReward sets the coach's reward on a program.
func (r *GamificationRepository) UpsertReward(ctx context.Context, reward *models.ProgramReward) error {
	if reward.ID == "" {
		reward.ID = uuid.NewString()
	}
	reward.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO program_rewards (id, program_id, coach_id, reward, points_required, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (program_id, coach_id) DO UPDATE SET
	reward = EXCLUDED.reward,
	points_required = EXCLUDED.points_required,
	updated_at = EXCLUDED.updated_at
RETURNING id, program_id, coach_id, reward, points_required, updated_at`
	if err := r.db.GetContext(ctx, reward, query, reward.ID, reward.ProgramID, reward.CoachID, reward.Reward, reward.PointsRequired, reward.UpdatedAt); err != nil {
		return fmt.Errorf("upsert program reward: %w", err)
	}
	return nil
}

// ListRewardsForParent returns rewards on programs the parent is enrolled in.
func (r *GamificationRepository) ListRewardsForParent(ctx context.Context, parentID string) ([]models.ProgramReward, error) {
	const query = `SELECT id, program_id, coach_id, reward, points_required, updated_at FROM program_rewards
WHERE program_id IN (SELECT program_id FROM enrollments WHERE parent_id = $1)
ORDER BY points_required ASC`
	var rewards []models.ProgramReward
	if err := r.db.SelectContext(ctx, &rewards, query, parentID); err != nil {
		return nil, fmt.Errorf("list parent rewards: %w", err)
	}
	return rewards, nil
}

// ListRewardsByCoach returns the rewards a coach has configured.
func (r *GamificationRepository) ListRewardsByCoach(ctx context.Context, coachID string) ([]models.ProgramReward, error) {
	const query = `SELECT id, program_id, coach_id, reward, points_required, updated_at FROM program_rewards WHERE coach_id = $1 ORDER BY updated_at DESC`
	var rewards []models.ProgramReward
	if err := r.db.SelectContext(ctx, &rewards, query, coachID); err != nil {
		return nil, fmt.Errorf("list coach rewards: %w", err)
	}
	return rewards, nil
}
