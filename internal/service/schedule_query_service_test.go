package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type resettableResultStore struct {
	stubResultStore
	deletedAll bool
}

func (s *resettableResultStore) DeleteAll(context.Context) error {
	s.deletedAll = true
	s.rows = nil
	return nil
}

type resettableStatusStore struct {
	*stubStatusStore
	deletedAll bool
}

func (s *resettableStatusStore) DeleteAll(context.Context) error {
	s.deletedAll = true
	s.statuses = make(map[string]string)
	return nil
}

func newQueryFixture() (*resettableResultStore, *resettableStatusStore, *QueryService) {
	results := &resettableResultStore{}
	statuses := &resettableStatusStore{stubStatusStore: newStubStatusStore()}
	svc := NewQueryService(results, statuses, NewScheduleCache(nil, 0, nil), nil)
	return results, statuses, svc
}

func TestQueryServiceStatusDefaultsToPending(t *testing.T) {
	_, _, svc := newQueryFixture()

	status, err := svc.GetStatus(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status.Status)
	assert.Equal(t, 1, status.Semester)
}

func TestQueryServiceStatusReportsStoredValue(t *testing.T) {
	_, statuses, svc := newQueryFixture()
	require.NoError(t, statuses.Upsert(context.Background(), 1, 1, models.StatusCompleted))

	status, err := svc.GetStatus(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
}

func TestQueryServiceInstructorViewIsScoped(t *testing.T) {
	results, _, svc := newQueryFixture()
	results.rows = []models.ScheduleResult{
		scheduledRow("res-1", "CS101", "inst-1", "room-1", "slot-1", "MONDAY", "09:00", "11:00"),
		scheduledRow("res-2", "CS102", "inst-2", "room-2", "slot-1", "MONDAY", "09:00", "11:00"),
	}

	rows, err := svc.ListForInstructor(context.Background(), 1, 2024, "inst-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CS101", rows[0].CourseCode)
}

func TestQueryServiceInstructorViewRequiresProfile(t *testing.T) {
	_, _, svc := newQueryFixture()

	_, err := svc.ListForInstructor(context.Background(), 1, 2024, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestQueryServiceStudentViewIsUnfiltered(t *testing.T) {
	results, _, svc := newQueryFixture()
	results.rows = []models.ScheduleResult{
		scheduledRow("res-1", "CS101", "inst-1", "room-1", "slot-1", "MONDAY", "09:00", "11:00"),
		scheduledRow("res-2", "CS102", "inst-2", "room-2", "slot-1", "MONDAY", "09:00", "11:00"),
	}

	rows, err := svc.ListForStudent(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestQueryServiceResetClearsEverything(t *testing.T) {
	results, statuses, svc := newQueryFixture()
	results.rows = []models.ScheduleResult{scheduledRow("res-1", "CS101", "inst-1", "room-1", "slot-1", "MONDAY", "09:00", "11:00")}
	require.NoError(t, statuses.Upsert(context.Background(), 1, 2024, models.StatusCompleted))

	require.NoError(t, svc.Reset(context.Background()))
	assert.True(t, results.deletedAll)
	assert.True(t, statuses.deletedAll)

	status, err := svc.GetStatus(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status.Status)
}
