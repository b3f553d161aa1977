package models

import (
	"time"

	"github.com/lib/pq"
)

// GamificationLedger is the per-parent point balance and badge set.
type GamificationLedger struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Points    int            `db:"points" json:"points"`
	Badges    pq.StringArray `db:"badges" json:"badges"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ProgramReward is the reward a coach offers on a program.
type ProgramReward struct {
	ID             string    `db:"id" json:"id"`
	ProgramID      string    `db:"program_id" json:"program_id"`
	CoachID        string    `db:"coach_id" json:"coach_id"`
	Reward         string    `db:"reward" json:"reward"`
	PointsRequired int       `db:"points_required" json:"points_required"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// GamificationSummary is what a parent sees.
type GamificationSummary struct {
	Ledger  GamificationLedger `json:"ledger"`
	Rewards []ProgramReward    `json:"rewards"`
}
