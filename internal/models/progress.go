package models

import "time"

// Progress is a coach's scored observation of an enrolled child.
type Progress struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	CoachID      string    `db:"coach_id" json:"coach_id"`
	CoachName    string    `db:"coach_name" json:"coach_name,omitempty"`
	Date         time.Time `db:"date" json:"date"`
	Metrics      float64   `db:"metrics" json:"metrics"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
