package models

import (
	"math"
	"time"
)

// Program is a paid training course offered by an institute.
type Program struct {
	ID             string    `db:"id" json:"id"`
	InstituteID    string    `db:"institute_id" json:"institute_id"`
	Name           string    `db:"name" json:"name"`
	Sport          string    `db:"sport" json:"sport"`
	Pricing        float64   `db:"pricing" json:"pricing"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	Duration       string    `db:"duration" json:"duration"`
	AgeGroup       string    `db:"age_group" json:"age_group"`
	Description    *string   `db:"description" json:"description,omitempty"`
	SeatsAvailable int       `db:"seats_available" json:"seats_available"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ProgramCoach is one coach assignment on a program.
type ProgramCoach struct {
	ProgramID string `db:"program_id" json:"program_id"`
	CoachID   string `db:"coach_id" json:"coach_id"`
	CoachName string `db:"coach_name" json:"coach_name"`
	Role      string `db:"role" json:"role"`
}

// ProgramDetail is a program with its coach assignments.
type ProgramDetail struct {
	Program
	Coaches []ProgramCoach `json:"coaches"`
}

// Cents converts a currency amount to integer minor units, rounding half away from zero.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
