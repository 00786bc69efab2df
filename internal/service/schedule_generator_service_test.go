package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type stubCourseStore struct {
	courses []models.Course
}

func (s *stubCourseStore) ListForTerm(_ context.Context, semester, year int) ([]models.Course, error) {
	var out []models.Course
	for _, c := range s.courses {
		if c.Semester == semester && c.Year == year {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCourseStore) FindByCode(_ context.Context, code string) (*models.Course, error) {
	for i := range s.courses {
		if s.courses[i].Code == code {
			c := s.courses[i]
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubRoomStore struct {
	rooms []models.Room
}

func (s *stubRoomStore) ListAll(context.Context) ([]models.Room, error) {
	out := make([]models.Room, len(s.rooms))
	copy(out, s.rooms)
	return out, nil
}

type stubSlotStore struct {
	slots []models.TimeSlot
}

func (s *stubSlotStore) ListAll(context.Context) ([]models.TimeSlot, error) {
	out := make([]models.TimeSlot, len(s.slots))
	copy(out, s.slots)
	return out, nil
}

type stubInstructorStore struct {
	instructors []models.Instructor
}

func (s *stubInstructorStore) ListAll(context.Context) ([]models.Instructor, error) {
	return s.instructors, nil
}

func (s *stubInstructorStore) FindByID(_ context.Context, id string) (*models.Instructor, error) {
	for i := range s.instructors {
		if s.instructors[i].ID == id {
			inst := s.instructors[i]
			return &inst, nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubResultStore struct {
	rows         []models.ScheduleResult
	saveErr      error
	deletedTerms int
}

func (s *stubResultStore) SaveBatch(_ context.Context, results []models.ScheduleResult) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.rows = append(s.rows, results...)
	return nil
}

func (s *stubResultStore) List(_ context.Context, filter models.ResultFilter) ([]models.ScheduleResult, error) {
	var out []models.ScheduleResult
	for _, r := range s.rows {
		if filter.Semester > 0 && r.Semester != filter.Semester {
			continue
		}
		if filter.Year > 0 && r.Year != filter.Year {
			continue
		}
		if filter.InstructorID != "" && r.InstructorID != filter.InstructorID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *stubResultStore) FindByID(_ context.Context, id string) (*models.ScheduleResult, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			r := s.rows[i]
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubResultStore) DeleteByTerm(_ context.Context, semester, year int) error {
	s.deletedTerms++
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.Semester != semester || r.Year != year {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}

func (s *stubResultStore) Replace(_ context.Context, oldID string, replacement models.ScheduleResult) error {
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.ID != oldID {
			kept = append(kept, r)
		}
	}
	s.rows = append(kept, replacement)
	return nil
}

type stubStatusStore struct {
	statuses map[string]string
}

func newStubStatusStore() *stubStatusStore {
	return &stubStatusStore{statuses: make(map[string]string)}
}

func statusKey(semester, year int) string {
	return fmt.Sprintf("%d/%d", semester, year)
}

func (s *stubStatusStore) Upsert(_ context.Context, semester, year int, status string) error {
	s.statuses[statusKey(semester, year)] = status
	return nil
}

func (s *stubStatusStore) Get(_ context.Context, semester, year int) (*models.ScheduleStatus, error) {
	status, ok := s.statuses[statusKey(semester, year)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ScheduleStatus{Semester: semester, Year: year, Status: status}, nil
}

type generatorFixture struct {
	courses     *stubCourseStore
	rooms       *stubRoomStore
	slots       *stubSlotStore
	instructors *stubInstructorStore
	results     *stubResultStore
	statuses    *stubStatusStore
	svc         *GeneratorService
}

func newGeneratorFixture(cfg GeneratorConfig) *generatorFixture {
	f := &generatorFixture{
		courses:     &stubCourseStore{},
		rooms:       &stubRoomStore{},
		slots:       &stubSlotStore{},
		instructors: &stubInstructorStore{},
		results:     &stubResultStore{},
		statuses:    newStubStatusStore(),
	}
	f.svc = NewGeneratorService(
		f.courses, f.rooms, f.slots, f.instructors, f.results, f.statuses,
		NewScheduleCache(nil, 0, nil), NewMetricsService(nil), cfg, nil,
	)
	return f
}

func strPtr(s string) *string { return &s }

func slot(id, day, start, end string) models.TimeSlot {
	return models.TimeSlot{ID: id, Day: day, StartTime: start, EndTime: end}
}

func room(id, name, roomType string) models.Room {
	return models.Room{ID: id, Name: name, RoomType: roomType, Capacity: 40, Available: true}
}

func course(code, programID string, year int, instructorID string) models.Course {
	c := models.Course{ID: "id-" + code, Code: code, Name: "Course " + code, Year: year, Semester: 1, ProgramID: programID, DepartmentID: "dept-1"}
	if instructorID != "" {
		c.InstructorID = strPtr(instructorID)
	}
	return c
}

func TestRunGenerationProducesConflictFreeTimetable(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	f.courses.courses = []models.Course{
		course("CS101", "prog-1", 1, "inst-1"),
		course("CS102", "prog-1", 1, "inst-1"),
		course("EE101", "prog-2", 1, "inst-2"),
	}
	f.rooms.rooms = []models.Room{room("room-1", "A101", "LECTURE"), room("room-2", "A102", "LECTURE")}
	f.slots.slots = []models.TimeSlot{
		slot("slot-1", "MONDAY", "09:00", "11:00"),
		slot("slot-2", "MONDAY", "11:00", "13:00"),
		slot("slot-3", "TUESDAY", "09:00", "11:00"),
	}
	f.instructors.instructors = []models.Instructor{
		{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"},
		{ID: "inst-2", FirstName: "Alan", LastName: "Turing"},
	}

	f.svc.runGeneration(context.Background(), 1, 1)

	status, err := f.statuses.Get(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status.Status)
	require.Len(t, f.results.rows, 3)

	seenRoom := make(map[string]bool)
	seenInstructor := make(map[string]bool)
	seenCohort := make(map[string]bool)
	for _, r := range f.results.rows {
		key, keyErr := r.SlotKey()
		require.NoError(t, keyErr)
		roomKey := fmt.Sprintf("%s@%v", r.RoomID, key)
		assert.False(t, seenRoom[roomKey], "room double booked: %s", roomKey)
		seenRoom[roomKey] = true
		instKey := fmt.Sprintf("%s@%v", r.InstructorID, key)
		assert.False(t, seenInstructor[instKey], "instructor double booked: %s", instKey)
		seenInstructor[instKey] = true
		cohortKey := fmt.Sprintf("%s/%d@%v", r.ProgramID, r.Year, key)
		assert.False(t, seenCohort[cohortKey], "cohort double booked: %s", cohortKey)
		seenCohort[cohortKey] = true
		assert.Equal(t, "Scheduled successfully", r.Message)
	}
}

func TestRunGenerationAbortsWhenCapacityExhausted(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	f.courses.courses = []models.Course{
		course("CS101", "prog-1", 1, "inst-1"),
		course("CS102", "prog-1", 1, "inst-2"),
	}
	f.rooms.rooms = []models.Room{room("room-1", "A101", "LECTURE")}
	f.slots.slots = []models.TimeSlot{slot("slot-1", "MONDAY", "09:00", "11:00")}
	f.instructors.instructors = []models.Instructor{
		{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"},
		{ID: "inst-2", FirstName: "Alan", LastName: "Turing"},
	}

	f.svc.runGeneration(context.Background(), 1, 1)

	status, err := f.statuses.Get(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(status.Status, models.StatusFailedPrefix))
	assert.Contains(t, status.Status, "Insufficient time slots or rooms for course CS102")
	assert.Empty(t, f.results.rows, "aborted run must not persist partial timetables")
}

func TestRunGenerationHonorsRoomSpec(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	lab := course("CH101", "prog-1", 1, "inst-1")
	lab.RoomSpec = strPtr("LAB")
	f.courses.courses = []models.Course{lab}
	f.rooms.rooms = []models.Room{room("room-1", "A101", "LECTURE"), room("room-2", "L201", "LAB")}
	f.slots.slots = []models.TimeSlot{slot("slot-1", "MONDAY", "09:00", "11:00")}
	f.instructors.instructors = []models.Instructor{{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"}}

	f.svc.runGeneration(context.Background(), 1, 1)

	require.Len(t, f.results.rows, 1)
	assert.Equal(t, "room-2", f.results.rows[0].RoomID)
}

func TestRunGenerationCommonCoursesShareRoomAndSlot(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	a := course("MA101", "prog-1", 1, "inst-1")
	a.CommonID = strPtr("common-1")
	b := course("MA101B", "prog-2", 1, "inst-1")
	b.CommonID = strPtr("common-1")
	f.courses.courses = []models.Course{a, b}
	f.rooms.rooms = []models.Room{room("room-1", "A101", "LECTURE")}
	f.slots.slots = []models.TimeSlot{slot("slot-1", "MONDAY", "09:00", "11:00")}
	f.instructors.instructors = []models.Instructor{{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"}}

	f.svc.runGeneration(context.Background(), 1, 1)

	status, err := f.statuses.Get(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, status.Status)
	require.Len(t, f.results.rows, 2)
	assert.Equal(t, f.results.rows[0].RoomID, f.results.rows[1].RoomID)
	assert.Equal(t, f.results.rows[0].TimeSlotID, f.results.rows[1].TimeSlotID)
}

func TestRunGenerationCommonCoursesShareInstructor(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	a := course("MA101", "prog-1", 1, "inst-1")
	a.CommonID = strPtr("common-1")
	b := course("MA101B", "prog-2", 1, "inst-1")
	b.CommonID = strPtr("common-1")
	c := course("MA101C", "prog-3", 1, "inst-1")
	c.CommonID = strPtr("common-1")
	f.courses.courses = []models.Course{a, b, c}
	f.rooms.rooms = []models.Room{room("room-1", "A101", "LECTURE")}
	f.slots.slots = []models.TimeSlot{slot("slot-1", "MONDAY", "09:00", "11:00")}
	f.instructors.instructors = []models.Instructor{{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"}}

	f.svc.runGeneration(context.Background(), 1, 1)

	status, err := f.statuses.Get(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, status.Status)
	require.Len(t, f.results.rows, 3)
	for _, r := range f.results.rows {
		assert.Equal(t, "inst-1", r.InstructorID)
		assert.Equal(t, "slot-1", r.TimeSlotID)
	}
}

func TestRunGenerationCommonCoursesRejectBusyOutsideInstructor(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	a := course("MA101", "prog-1", 1, "inst-1")
	a.CommonID = strPtr("common-1")
	b := course("MA101B", "prog-2", 1, "inst-2")
	b.CommonID = strPtr("common-1")
	f.courses.courses = []models.Course{
		// inst-2 takes the only slot before the common group is placed.
		course("CS900", "prog-9", 1, "inst-2"),
		a, b,
	}
	f.rooms.rooms = []models.Room{room("room-1", "A101", "LECTURE"), room("room-2", "A102", "LECTURE")}
	f.slots.slots = []models.TimeSlot{slot("slot-1", "MONDAY", "09:00", "11:00")}
	f.instructors.instructors = []models.Instructor{
		{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"},
		{ID: "inst-2", FirstName: "Alan", LastName: "Turing"},
	}

	f.svc.runGeneration(context.Background(), 1, 1)

	status, err := f.statuses.Get(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(status.Status, models.StatusFailedPrefix))
	assert.Contains(t, status.Status, "Insufficient time slots or rooms for course MA101B")
	assert.Empty(t, f.results.rows)
}

func TestRunGenerationFailsOnMalformedTimeSlot(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	f.courses.courses = []models.Course{course("CS101", "prog-1", 1, "inst-1")}
	f.rooms.rooms = []models.Room{room("room-1", "A101", "LECTURE")}
	f.slots.slots = []models.TimeSlot{
		slot("slot-1", "MONDAY", "09:00", "11:00"),
		slot("slot-bad", "SOMEDAY", "09:00", "11:00"),
	}
	f.instructors.instructors = []models.Instructor{{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"}}

	f.svc.runGeneration(context.Background(), 1, 1)

	status, err := f.statuses.Get(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(status.Status, models.StatusFailedPrefix))
	assert.Contains(t, status.Status, "Time slot slot-bad is malformed")
	assert.Empty(t, f.results.rows)
}

func TestRunGenerationClearsStaleRows(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	f.results.rows = []models.ScheduleResult{{ID: "old-1", Semester: 1, Year: 2024, SlotDay: "MONDAY", SlotStart: "09:00", SlotEnd: "11:00"}}

	f.svc.runGeneration(context.Background(), 1, 2024)

	status, err := f.statuses.Get(context.Background(), 1, 2024)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(status.Status, models.StatusFailedPrefix))
	assert.Equal(t, 1, f.results.deletedTerms)
	assert.Empty(t, f.results.rows, "stale rows must not survive a failed rerun")
}

func TestRunGenerationDeterministicModeIsRepeatable(t *testing.T) {
	build := func() *generatorFixture {
		f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
		f.courses.courses = []models.Course{
			course("CS101", "prog-1", 1, "inst-1"),
			course("CS102", "prog-1", 1, "inst-2"),
			course("CS103", "prog-2", 1, "inst-1"),
		}
		f.rooms.rooms = []models.Room{room("room-2", "B202", "LECTURE"), room("room-1", "A101", "LECTURE")}
		f.slots.slots = []models.TimeSlot{
			slot("slot-2", "TUESDAY", "09:00", "11:00"),
			slot("slot-1", "MONDAY", "09:00", "11:00"),
		}
		f.instructors.instructors = []models.Instructor{
			{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"},
			{ID: "inst-2", FirstName: "Alan", LastName: "Turing"},
		}
		return f
	}

	first := build()
	first.svc.runGeneration(context.Background(), 1, 1)
	second := build()
	second.svc.runGeneration(context.Background(), 1, 1)

	require.Len(t, second.results.rows, len(first.results.rows))
	for i := range first.results.rows {
		assert.Equal(t, first.results.rows[i].RoomID, second.results.rows[i].RoomID)
		assert.Equal(t, first.results.rows[i].TimeSlotID, second.results.rows[i].TimeSlotID)
	}
}

func TestGenerateRejectsConcurrentRun(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	require.NoError(t, f.statuses.Upsert(context.Background(), 1, 2024, models.StatusInProgress))

	err := f.svc.Generate(context.Background(), 1, 2024)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrGenerationRunning.Code, appErr.Code)
}

func scheduledRow(id, code, instructorID, roomID, slotID, day, start, end string) models.ScheduleResult {
	return models.ScheduleResult{
		ID: id, Semester: 1, Year: 2024,
		CourseCode: code, CourseName: "Course " + code,
		ProgramID: "prog-1",
		InstructorID: instructorID, InstructorName: "Ada Lovelace",
		RoomID: roomID, RoomName: roomID,
		TimeSlotID: slotID, SlotDay: day, SlotStart: start, SlotEnd: end,
		SlotLabel: day + " " + start + " - " + end,
	}
}

func TestRescheduleMovesCourseToPreferredSlot(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	f.courses.courses = []models.Course{course("CS101", "prog-1", 1, "inst-1")}
	f.rooms.rooms = []models.Room{room("room-1", "A101", "LECTURE")}
	f.instructors.instructors = []models.Instructor{{
		ID: "inst-1", FirstName: "Ada", LastName: "Lovelace",
		Preferences: []models.TimeSlot{slot("slot-9", "FRIDAY", "09:00", "11:00")},
	}}
	f.results.rows = []models.ScheduleResult{scheduledRow("res-1", "CS101", "inst-1", "room-1", "slot-1", "MONDAY", "09:00", "11:00")}

	moved, err := f.svc.Reschedule(context.Background(), "res-1", "")
	require.NoError(t, err)
	assert.Equal(t, "slot-9", moved.TimeSlotID)
	assert.Equal(t, "FRIDAY", moved.SlotDay)
	assert.Equal(t, "room-1", moved.RoomID)
	assert.Equal(t, "Rescheduled successfully", moved.Message)

	remaining, err := f.results.List(context.Background(), models.ResultFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, moved.ID, remaining[0].ID)
}

func TestRescheduleRequiresPreferences(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	f.courses.courses = []models.Course{course("CS101", "prog-1", 1, "inst-1")}
	f.instructors.instructors = []models.Instructor{{ID: "inst-1", FirstName: "Ada", LastName: "Lovelace"}}
	f.results.rows = []models.ScheduleResult{scheduledRow("res-1", "CS101", "inst-1", "room-1", "slot-1", "MONDAY", "09:00", "11:00")}

	_, err := f.svc.Reschedule(context.Background(), "res-1", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestRescheduleRejectsOtherInstructors(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	f.results.rows = []models.ScheduleResult{scheduledRow("res-1", "CS101", "inst-1", "room-1", "slot-1", "MONDAY", "09:00", "11:00")}

	_, err := f.svc.Reschedule(context.Background(), "res-1", "inst-2")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestRescheduleRejectsWhenEveryPreferenceConflicts(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	f.courses.courses = []models.Course{course("CS101", "prog-1", 1, "inst-1")}
	f.rooms.rooms = []models.Room{room("room-1", "A101", "LECTURE")}
	f.instructors.instructors = []models.Instructor{{
		ID: "inst-1", FirstName: "Ada", LastName: "Lovelace",
		Preferences: []models.TimeSlot{slot("slot-9", "FRIDAY", "09:00", "11:00")},
	}}
	f.results.rows = []models.ScheduleResult{
		scheduledRow("res-1", "CS101", "inst-1", "room-1", "slot-1", "MONDAY", "09:00", "11:00"),
		// The instructor already teaches another course at the only preferred slot.
		scheduledRow("res-2", "CS202", "inst-1", "room-2", "slot-9", "FRIDAY", "09:00", "11:00"),
	}

	_, err := f.svc.Reschedule(context.Background(), "res-1", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestRescheduleUnknownResult(t *testing.T) {
	f := newGeneratorFixture(GeneratorConfig{Deterministic: true})
	_, err := f.svc.Reschedule(context.Background(), "missing", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
