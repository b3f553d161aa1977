package models

import (
	"time"

	"github.com/lib/pq"
)

// EventStatus is whether parents may still sign up.
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusCompleted EventStatus = "completed"
)

// Event is a one-off institute event such as a tournament.
type Event struct {
	ID          string         `db:"id" json:"id"`
	InstituteID string         `db:"institute_id" json:"institute_id"`
	Name        string         `db:"name" json:"name"`
	Place       string         `db:"place" json:"place"`
	Type        string         `db:"type" json:"type"`
	Date        time.Time      `db:"date" json:"date"`
	Description *string        `db:"description" json:"description,omitempty"`
	Status      EventStatus    `db:"status" json:"status"`
	Images      pq.StringArray `db:"images" json:"images"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// EventDetail adds the hosting institute.
type EventDetail struct {
	Event
	InstituteName    string `db:"institute_name" json:"institute_name"`
	InstituteAddress string `db:"institute_address" json:"institute_address"`
}

// EventEnrollment is a parent's sign-up for an event.
type EventEnrollment struct {
	ID            string           `db:"id" json:"id"`
	ParentID      string           `db:"parent_id" json:"parent_id"`
	EventID       string           `db:"event_id" json:"event_id"`
	Name          string           `db:"name" json:"name"`
	ContactNumber string           `db:"contact_number" json:"contact_number"`
	Age           int              `db:"age" json:"age"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	ParentName    string           `db:"parent_name" json:"parent_name,omitempty"`
	ParentEmail   string           `db:"parent_email" json:"parent_email,omitempty"`
}
