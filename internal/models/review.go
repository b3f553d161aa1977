package models

import "time"

type Review struct {
	ID          string    `db:"id" json:"id"`
	ParentID    string    `db:"parent_id" json:"parent_id"`
	InstituteID string    `db:"institute_id" json:"institute_id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	CoachID     *string   `db:"coach_id" json:"coach_id,omitempty"`
	Rating      int       `db:"rating" json:"rating"`
	Comment     string    `db:"comment" json:"comment"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
