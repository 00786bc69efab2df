package service

import (
	"github.com/acadplan/timetable-api/internal/models"
)

type instructorSlot struct {
	instructorID string
	key          models.SlotKey
}

type roomSlot struct {
	roomID string
	key    models.SlotKey
}

type cohortSlot struct {
	programID string
	year      int
	key       models.SlotKey
}

// conflictTracker is the in-memory occupancy state of a single generation
// run. Each run builds its own tracker from scratch; nothing here is shared
// across runs or persisted.
type conflictTracker struct {
	instructors map[instructorSlot]struct{}
	rooms       map[roomSlot]struct{}
	cohorts     map[cohortSlot]struct{}
}

func newConflictTracker() *conflictTracker {
	return &conflictTracker{
		instructors: make(map[instructorSlot]struct{}),
		rooms:       make(map[roomSlot]struct{}),
		cohorts:     make(map[cohortSlot]struct{}),
	}
}

// InstructorBusy reports whether the instructor already teaches at the slot.
func (t *conflictTracker) InstructorBusy(instructorID string, key models.SlotKey) bool {
	if instructorID == "" {
		return false
	}
	_, ok := t.instructors[instructorSlot{instructorID: instructorID, key: key}]
	return ok
}

// RoomBusy reports whether the room is already occupied at the slot.
func (t *conflictTracker) RoomBusy(roomID string, key models.SlotKey) bool {
	_, ok := t.rooms[roomSlot{roomID: roomID, key: key}]
	return ok
}

// CohortConflict reports whether the (program, year) student cohort already
// sits in a class at the slot.
func (t *conflictTracker) CohortConflict(programID string, year int, key models.SlotKey) bool {
	_, ok := t.cohorts[cohortSlot{programID: programID, year: year, key: key}]
	return ok
}

// Commit records an accepted assignment across all three dimensions.
func (t *conflictTracker) Commit(instructorID, roomID, programID string, year int, key models.SlotKey) {
	if instructorID != "" {
		t.instructors[instructorSlot{instructorID: instructorID, key: key}] = struct{}{}
	}
	t.rooms[roomSlot{roomID: roomID, key: key}] = struct{}{}
	t.cohorts[cohortSlot{programID: programID, year: year, key: key}] = struct{}{}
}

// Release undoes a previously committed assignment. Used when a tentative
// placement is withdrawn during search.
func (t *conflictTracker) Release(instructorID, roomID, programID string, year int, key models.SlotKey) {
	if instructorID != "" {
		delete(t.instructors, instructorSlot{instructorID: instructorID, key: key})
	}
	delete(t.rooms, roomSlot{roomID: roomID, key: key})
	delete(t.cohorts, cohortSlot{programID: programID, year: year, key: key})
}
