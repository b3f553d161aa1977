package models

import "time"

// EnrollmentStatus is the approval state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusApproved EnrollmentStatus = "approved"
	EnrollmentStatusRejected EnrollmentStatus = "rejected"
)

// PaymentStatus is the payment state of an enrollment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// Enrollment is one child's request to join one program.
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	ParentID      string           `db:"parent_id" json:"parent_id"`
	ChildName     string           `db:"child_name" json:"child_name"`
	ProgramID     string           `db:"program_id" json:"program_id"`
	InstituteID   string           `db:"institute_id" json:"institute_id"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	PaymentStatus PaymentStatus    `db:"payment_status" json:"payment_status"`
	PaymentToken  *string          `db:"payment_token" json:"-"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// EffectiveStatus reads a pending/completed row, which only older data can hold, as approved.
func (e Enrollment) EffectiveStatus() EnrollmentStatus {
	if e.Status == EnrollmentStatusPending && e.PaymentStatus == PaymentStatusCompleted {
		return EnrollmentStatusApproved
	}
	return e.Status
}

// AwaitingPayment reports whether the enrollment can still be paid for.
func (e Enrollment) AwaitingPayment() bool {
	return e.Status == EnrollmentStatusPending && e.PaymentStatus == PaymentStatusPending
}

// EnrollmentDetail joins the names shown on enrollment lists.
type EnrollmentDetail struct {
	Enrollment
	ProgramName    string  `db:"program_name" json:"program_name"`
	ProgramPricing float64 `db:"program_pricing" json:"program_pricing"`
	InstituteName  string  `db:"institute_name" json:"institute_name"`
	ParentName     string  `db:"parent_name" json:"parent_name"`
	ParentEmail    string  `db:"parent_email" json:"parent_email"`
}
