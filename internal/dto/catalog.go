package dto

// CreateCourseRequest creates a catalog course.
type CreateCourseRequest struct {
	Code         string  `json:"code" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Year         int     `json:"year" validate:"required,min=1,max=4"`
	Semester     int     `json:"semester" validate:"required,min=1,max=2"`
	RoomSpec     *string `json:"room_spec,omitempty"`
	CommonID     *string `json:"common_id,omitempty"`
	ProgramID    string  `json:"program_id" validate:"required"`
	DepartmentID string  `json:"department_id" validate:"required"`
	InstructorID *string `json:"instructor_id,omitempty"`
}

// UpdateCourseRequest mirrors the create payload for full updates.
type UpdateCourseRequest struct {
	Name         string  `json:"name" validate:"required"`
	Year         int     `json:"year" validate:"required,min=1,max=4"`
	Semester     int     `json:"semester" validate:"required,min=1,max=2"`
	RoomSpec     *string `json:"room_spec,omitempty"`
	CommonID     *string `json:"common_id,omitempty"`
	ProgramID    string  `json:"program_id" validate:"required"`
	DepartmentID string  `json:"department_id" validate:"required"`
	InstructorID *string `json:"instructor_id,omitempty"`
}

// CreateRoomRequest creates a bookable room.
type CreateRoomRequest struct {
	Name          string   `json:"name" validate:"required"`
	Capacity      int      `json:"capacity" validate:"required,min=1"`
	RoomType      string   `json:"room_type" validate:"required"`
	Available     *bool    `json:"available,omitempty"`
	DepartmentIDs []string `json:"department_ids" validate:"required,min=1"`
}

// UpdateRoomRequest mirrors the create payload for full updates.
type UpdateRoomRequest struct {
	Name          string   `json:"name" validate:"required"`
	Capacity      int      `json:"capacity" validate:"required,min=1"`
	RoomType      string   `json:"room_type" validate:"required"`
	Available     bool     `json:"available"`
	DepartmentIDs []string `json:"department_ids" validate:"required,min=1"`
}

// CreateTimeSlotRequest adds a catalog time slot.
type CreateTimeSlotRequest struct {
	Day       string `json:"day" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// CreateInstructorRequest registers an instructor.
type CreateInstructorRequest struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
}

// UpdateInstructorRequest updates instructor master data.
type UpdateInstructorRequest struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
}

// AddPreferenceRequest attaches a preferred time slot to an instructor.
type AddPreferenceRequest struct {
	TimeSlotID string `json:"time_slot_id" validate:"required"`
}
