package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleEntry is one session in a coach's program schedule. Time is a display label only.
type ScheduleEntry struct {
	Date     string `json:"date" validate:"required"`
	Activity string `json:"activity" validate:"required"`
	Time     string `json:"time,omitempty"`
}

// ProgramSchedule is a coach's schedule for one program. Schedule holds the raw entry array.
type ProgramSchedule struct {
	ID        string         `db:"id" json:"id"`
	ProgramID *string        `db:"program_id" json:"program_id"`
	CoachID   string         `db:"coach_id" json:"coach_id"`
	Duration  *float64       `db:"duration" json:"duration"`
	StartDate time.Time      `db:"start_date" json:"start_date"`
	Schedule  types.JSONText `db:"schedule" json:"schedule"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleRecord is a ProgramSchedule joined with the names the calendar shows.
// ProgramName and CoachName are nil when the referenced row is gone.
type ScheduleRecord struct {
	ProgramSchedule
	ProgramName *string `db:"program_name" json:"program_name"`
	CoachName   *string `db:"coach_name" json:"coach_name"`
}

// CalendarEvent is computed from a schedule entry on read and never stored.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Type        string    `json:"type"`
	ProgramID   string    `json:"programId"`
	ProgramName string    `json:"programName"`
	CoachName   string    `json:"coachName"`
	Time        string    `json:"time"`
	Activity    string    `json:"activity"`
	Color       string    `json:"color"`
}
