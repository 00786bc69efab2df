package models

import "time"

// Instructor teaches courses and may declare preferred time slots consulted
// by the targeted reschedule operation.
type Instructor struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	UserID       *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	Preferences []TimeSlot `db:"-" json:"preferences,omitempty"`
}

// FullName returns the display name used on result rows.
func (i Instructor) FullName() string {
	return i.FirstName + " " + i.LastName
}
