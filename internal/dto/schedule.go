package dto

// GenerateScheduleRequest triggers an asynchronous generation run for one
// (semester, year) key.
type GenerateScheduleRequest struct {
	Semester int `json:"semester" form:"semester" validate:"required,min=1,max=2"`
	Year     int `json:"year" form:"year" validate:"required,min=1"`
}

// ScheduleScopeQuery scopes status and result reads.
type ScheduleScopeQuery struct {
	Semester int `form:"semester" validate:"omitempty,min=1,max=2"`
	Year     int `form:"year" validate:"omitempty,min=1"`
}

// RescheduleRequest moves one already-scheduled course onto one of the owning
// instructor's preferred time slots.
type RescheduleRequest struct {
	ResultID string `json:"result_id" validate:"required"`
}

// ScheduleStatusResponse is returned by the status polling endpoint.
type ScheduleStatusResponse struct {
	Semester int    `json:"semester"`
	Year     int    `json:"year"`
	Status   string `json:"status"`
}
