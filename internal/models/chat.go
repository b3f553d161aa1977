package models

import "time"

// ChatMessage is a direct message between a parent and a coach.
type ChatMessage struct {
	ID           string    `db:"id" json:"id"`
	SenderID     string    `db:"sender_id" json:"sender_id"`
	ReceiverID   string    `db:"receiver_id" json:"receiver_id"`
	Content      string    `db:"content" json:"content"`
	EnrollmentID *string   `db:"enrollment_id" json:"enrollment_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ChatMessageDetail carries participant names for display.
type ChatMessageDetail struct {
	ChatMessage
	SenderName   string   `db:"sender_name" json:"sender_name"`
	SenderRole   UserRole `db:"sender_role" json:"sender_role"`
	ReceiverName string   `db:"receiver_name" json:"receiver_name"`
	ReceiverRole UserRole `db:"receiver_role" json:"receiver_role"`
}
