package models

import "time"

// Notification types.
const (
	NotificationEnrollment      = "enrollment"
	NotificationPayment         = "payment"
	NotificationEventEnrollment = "event_enrollment"
	NotificationDecision        = "enrollment_decision"
	NotificationCoach           = "coach"
)

// Notification is an in-app message, also delivered by email.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Message   string    `db:"message" json:"message"`
	Details   *string   `db:"details" json:"details,omitempty"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
