package models

import (
	"strings"
	"time"
)

// Generation status values persisted per (semester, year) key. Failure states
// append a human-readable reason after the FAILED prefix.
const (
	StatusPending      = "PENDING"
	StatusInProgress   = "IN_PROGRESS"
	StatusCompleted    = "COMPLETED"
	StatusFailedPrefix = "FAILED: "
)

// maxStatusLen bounds the stored status string, reasons included.
const maxStatusLen = 255

// FailedStatus renders a FAILED status with the reason truncated so the whole
// value fits the storage bound.
func FailedStatus(reason string) string {
	status := StatusFailedPrefix + strings.TrimSpace(reason)
	if len(status) > maxStatusLen {
		status = status[:maxStatusLen]
	}
	return status
}

// IsTerminalStatus reports whether a run has finished, successfully or not.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || strings.HasPrefix(status, StatusFailedPrefix)
}

// ScheduleStatus is the single current generation status row for a
// (semester, year) key. Overwritten by each new run; no history is kept.
type ScheduleStatus struct {
	ID        string    `db:"id" json:"id"`
	Semester  int       `db:"semester" json:"semester"`
	Year      int       `db:"year" json:"year"`
	Status    string    `db:"status" json:"status"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleResult is one denormalized timetable row produced by a successful
// generation run: a course pinned to a room and a time slot. Rows are never
// mutated, only superseded wholesale by a rerun or removed by a reset.
type ScheduleResult struct {
	ID             string    `db:"id" json:"id"`
	Semester       int       `db:"semester" json:"semester"`
	Year           int       `db:"year" json:"year"`
	CourseCode     string    `db:"course_code" json:"course_code"`
	CourseName     string    `db:"course_name" json:"course_name"`
	ProgramID      string    `db:"program_id" json:"program_id"`
	InstructorID   string    `db:"instructor_id" json:"instructor_id"`
	InstructorName string    `db:"instructor_name" json:"instructor_name"`
	RoomID         string    `db:"room_id" json:"room_id"`
	RoomName       string    `db:"room_name" json:"room_name"`
	TimeSlotID     string    `db:"time_slot_id" json:"time_slot_id"`
	SlotDay        string    `db:"slot_day" json:"slot_day"`
	SlotStart      string    `db:"slot_start" json:"slot_start"`
	SlotEnd        string    `db:"slot_end" json:"slot_end"`
	SlotLabel      string    `db:"slot_label" json:"slot_label"`
	Message        string    `db:"message" json:"message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SlotKey recovers the structural slot identity from the stored columns.
func (r ScheduleResult) SlotKey() (SlotKey, error) {
	return NewSlotKey(r.SlotDay, r.SlotStart, r.SlotEnd)
}

// ResultFilter scopes result queries; zero values mean "no constraint".
type ResultFilter struct {
	Semester     int
	Year         int
	InstructorID string
}

// Assignment is the transient (course, room, slot) tuple considered during
// search; only its committed form becomes a ScheduleResult row.
type Assignment struct {
	Course Course
	Room   Room
	Slot   TimeSlot
	Key    SlotKey
}
