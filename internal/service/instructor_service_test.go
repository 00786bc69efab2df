package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type stubInstructorCatalog struct {
	instructors []models.Instructor
	preferences map[string][]models.TimeSlot
}

func (s *stubInstructorCatalog) ListAll(context.Context) ([]models.Instructor, error) {
	return s.instructors, nil
}

func (s *stubInstructorCatalog) FindByID(_ context.Context, id string) (*models.Instructor, error) {
	for i := range s.instructors {
		if s.instructors[i].ID == id {
			inst := s.instructors[i]
			return &inst, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubInstructorCatalog) Create(_ context.Context, instructor *models.Instructor) error {
	s.instructors = append(s.instructors, *instructor)
	return nil
}

func (s *stubInstructorCatalog) Update(context.Context, *models.Instructor) error { return nil }
func (s *stubInstructorCatalog) Delete(context.Context, string) error             { return nil }

func (s *stubInstructorCatalog) ListPreferences(_ context.Context, instructorID string) ([]models.TimeSlot, error) {
	return s.preferences[instructorID], nil
}

func (s *stubInstructorCatalog) AddPreference(_ context.Context, instructorID, timeSlotID string) error {
	if s.preferences == nil {
		s.preferences = map[string][]models.TimeSlot{}
	}
	s.preferences[instructorID] = append(s.preferences[instructorID], models.TimeSlot{ID: timeSlotID})
	return nil
}

func (s *stubInstructorCatalog) RemovePreference(_ context.Context, instructorID, timeSlotID string) error {
	kept := s.preferences[instructorID][:0]
	for _, slot := range s.preferences[instructorID] {
		if slot.ID != timeSlotID {
			kept = append(kept, slot)
		}
	}
	s.preferences[instructorID] = kept
	return nil
}

type stubDepartmentChecker struct{}

func (stubDepartmentChecker) Exists(context.Context, string) (bool, error) { return true, nil }

func TestInstructorServicePreferences(t *testing.T) {
	store := &stubInstructorCatalog{
		instructors: []models.Instructor{{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"}},
		preferences: map[string][]models.TimeSlot{
			"inst-1": {
				{ID: "slot-1", Day: "MONDAY", StartTime: "09:00", EndTime: "11:00"},
				{ID: "slot-2", Day: "FRIDAY", StartTime: "09:00", EndTime: "11:00"},
			},
		},
	}
	svc := NewInstructorService(store, nil, stubDepartmentChecker{}, nil)

	slots, err := svc.Preferences(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "slot-1", slots[0].ID)
	assert.Equal(t, "slot-2", slots[1].ID)
}

func TestInstructorServicePreferencesUnknownInstructor(t *testing.T) {
	svc := NewInstructorService(&stubInstructorCatalog{}, nil, stubDepartmentChecker{}, nil)

	_, err := svc.Preferences(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
