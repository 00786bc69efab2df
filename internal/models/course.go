package models

import "time"

// Course is a catalog entry scheduled once per (semester, year) run. RoomSpec
// constrains the room type when set; CommonID groups cross-listed courses that
// share a single lecture across programs.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Year         int       `db:"year" json:"year"`
	Semester     int       `db:"semester" json:"semester"`
	RoomSpec     *string   `db:"room_spec" json:"room_spec,omitempty"`
	CommonID     *string   `db:"common_id" json:"common_id,omitempty"`
	ProgramID    string    `db:"program_id" json:"program_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	InstructorID *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsCommon reports whether the course belongs to a cross-listed group.
func (c Course) IsCommon() bool {
	return c.CommonID != nil && *c.CommonID != ""
}

// CourseFilter describes query params for listing courses.
type CourseFilter struct {
	Semester  int
	Year      int
	ProgramID string
	Search    string
	Page      int
	PageSize  int
}
