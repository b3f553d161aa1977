package models

import (
	"time"

	"github.com/lib/pq"
)

// Institute is the sports institute an owner runs. Each owner has at most one.
type Institute struct {
	ID            string         `db:"id" json:"id"`
	OwnerID       string         `db:"owner_id" json:"owner_id"`
	Name          string         `db:"name" json:"name"`
	Address       string         `db:"address" json:"address"`
	SportsOffered string         `db:"sports_offered" json:"sports_offered"`
	Facilities    string         `db:"facilities" json:"facilities"`
	Staff         *string        `db:"staff" json:"staff,omitempty"`
	EstdDate      *time.Time     `db:"estd_date" json:"estd_date,omitempty"`
	Rewards       *string        `db:"rewards" json:"rewards,omitempty"`
	Branches      *string        `db:"branches" json:"branches,omitempty"`
	TotalStaff    *int           `db:"total_staff" json:"total_staff,omitempty"`
	ContactNumber string         `db:"contact_number" json:"contact_number"`
	Images        pq.StringArray `db:"images" json:"images"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// InstituteFilter narrows the parent-facing institute search.
type InstituteFilter struct {
	Location string
	Sport    string
}

// OwnerContact is the owner of an institute a parent has enrolled with.
type OwnerContact struct {
	InstituteID   string `db:"institute_id" json:"institute_id"`
	InstituteName string `db:"institute_name" json:"institute_name"`
	ContactNumber string `db:"contact_number" json:"contact_number"`
	OwnerID       string `db:"owner_id" json:"owner_id"`
	OwnerName     string `db:"owner_name" json:"owner_name"`
	OwnerEmail    string `db:"owner_email" json:"owner_email"`
}
