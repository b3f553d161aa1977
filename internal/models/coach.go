package models

import "time"

// CoachStatus toggles whether a coach can be assigned work.
type CoachStatus string

const (
	CoachStatusActive   CoachStatus = "active"
	CoachStatusInactive CoachStatus = "inactive"
)

// Coach is the profile attached to a coach user account.
type Coach struct {
	ID            string      `db:"id" json:"id"`
	InstituteID   string      `db:"institute_id" json:"institute_id"`
	UserID        string      `db:"user_id" json:"user_id"`
	Name          string      `db:"name" json:"name"`
	Email         string      `db:"email" json:"email"`
	Qualification string      `db:"qualification" json:"qualification"`
	Achievements  *string     `db:"achievements" json:"achievements,omitempty"`
	Experience    string      `db:"experience" json:"experience"`
	Salary        float64     `db:"salary" json:"salary"`
	ContactNumber *string     `db:"contact_number" json:"contact_number,omitempty"`
	Image         *string     `db:"image" json:"image,omitempty"`
	Status        CoachStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// CoachDetail adds the programs the coach is assigned to.
type CoachDetail struct {
	Coach
	AssignedPrograms []string `json:"assigned_programs"`
}
