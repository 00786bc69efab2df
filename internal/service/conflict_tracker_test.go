package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/models"
)

func mustKey(t *testing.T, day, start, end string) models.SlotKey {
	t.Helper()
	key, err := models.NewSlotKey(day, start, end)
	require.NoError(t, err)
	return key
}

func TestConflictTrackerCommitAndCheck(t *testing.T) {
	tracker := newConflictTracker()
	monday := mustKey(t, "MONDAY", "09:00", "11:00")
	tuesday := mustKey(t, "TUESDAY", "09:00", "11:00")

	tracker.Commit("inst-1", "room-1", "prog-1", 2, monday)

	assert.True(t, tracker.InstructorBusy("inst-1", monday))
	assert.True(t, tracker.RoomBusy("room-1", monday))
	assert.True(t, tracker.CohortConflict("prog-1", 2, monday))

	assert.False(t, tracker.InstructorBusy("inst-1", tuesday))
	assert.False(t, tracker.RoomBusy("room-2", monday))
	assert.False(t, tracker.CohortConflict("prog-1", 3, monday))
	assert.False(t, tracker.CohortConflict("prog-2", 2, monday))
}

func TestConflictTrackerStructuralSlotIdentity(t *testing.T) {
	tracker := newConflictTracker()
	a := mustKey(t, "monday", "09:00", "11:00")
	b := mustKey(t, "MONDAY", "09:00", "11:00")

	tracker.Commit("inst-1", "room-1", "prog-1", 1, a)
	assert.True(t, tracker.InstructorBusy("inst-1", b), "keys built from equivalent slots must collide")
}

func TestConflictTrackerRelease(t *testing.T) {
	tracker := newConflictTracker()
	key := mustKey(t, "WEDNESDAY", "13:00", "15:00")

	tracker.Commit("inst-1", "room-1", "prog-1", 1, key)
	tracker.Release("inst-1", "room-1", "prog-1", 1, key)

	assert.False(t, tracker.InstructorBusy("inst-1", key))
	assert.False(t, tracker.RoomBusy("room-1", key))
	assert.False(t, tracker.CohortConflict("prog-1", 1, key))
}

func TestConflictTrackerIgnoresUnassignedInstructor(t *testing.T) {
	tracker := newConflictTracker()
	key := mustKey(t, "FRIDAY", "08:00", "10:00")

	tracker.Commit("", "room-1", "prog-1", 1, key)
	assert.False(t, tracker.InstructorBusy("", key), "empty instructor id never conflicts")
	assert.True(t, tracker.RoomBusy("room-1", key))
}
