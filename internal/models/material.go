package models

import "time"

// TrainingMaterial is a PDF a coach shares with a program.
type TrainingMaterial struct {
	ID         string    `db:"id" json:"id"`
	ProgramID  string    `db:"program_id" json:"program_id"`
	CoachID    string    `db:"coach_id" json:"coach_id"`
	Title      string    `db:"title" json:"title"`
	StorageKey string    `db:"storage_key" json:"-"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	// FileURL is a signed download link filled in on read.
	FileURL string `db:"-" json:"file_url"`
}
