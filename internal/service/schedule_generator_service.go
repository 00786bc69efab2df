package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
	"github.com/acadplan/timetable-api/pkg/jobs"
)

type generatorCourseStore interface {
	ListForTerm(ctx context.Context, semester, year int) ([]models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
}

type generatorRoomStore interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type generatorSlotStore interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
}

type generatorInstructorStore interface {
	ListAll(ctx context.Context) ([]models.Instructor, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

type generatorResultStore interface {
	SaveBatch(ctx context.Context, results []models.ScheduleResult) error
	List(ctx context.Context, filter models.ResultFilter) ([]models.ScheduleResult, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleResult, error)
	DeleteByTerm(ctx context.Context, semester, year int) error
	Replace(ctx context.Context, oldID string, replacement models.ScheduleResult) error
}

type generatorStatusStore interface {
	Upsert(ctx context.Context, semester, year int, status string) error
	Get(ctx context.Context, semester, year int) (*models.ScheduleStatus, error)
}

const messageScheduled = "Scheduled successfully"

// GeneratorConfig tunes the generation engine.
type GeneratorConfig struct {
	// Deterministic disables candidate shuffling so identical catalogs yield
	// identical timetables. Shuffling spreads courses across the week.
	Deterministic bool
	Workers       int
	QueueSize     int
}

// GeneratorService runs asynchronous timetable generation and targeted
// reschedules for one (semester, year) key at a time.
type GeneratorService struct {
	courses     generatorCourseStore
	rooms       generatorRoomStore
	slots       generatorSlotStore
	instructors generatorInstructorStore
	results     generatorResultStore
	statuses    generatorStatusStore
	cache       *ScheduleCache
	metrics     *MetricsService
	cfg         GeneratorConfig
	logger      *zap.Logger
	queue       *jobs.Queue
	rng         *rand.Rand
}

type generateJob struct {
	Semester int
	Year     int
}

// NewGeneratorService wires the engine and its background queue.
func NewGeneratorService(
	courses generatorCourseStore,
	rooms generatorRoomStore,
	slots generatorSlotStore,
	instructors generatorInstructorStore,
	results generatorResultStore,
	statuses generatorStatusStore,
	cache *ScheduleCache,
	metrics *MetricsService,
	cfg GeneratorConfig,
	logger *zap.Logger,
) *GeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &GeneratorService{
		courses:     courses,
		rooms:       rooms,
		slots:       slots,
		instructors: instructors,
		results:     results,
		statuses:    statuses,
		cache:       cache,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.queue = jobs.NewQueue("schedule-generation", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.QueueSize,
		MaxRetries: 0,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *GeneratorService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background workers.
func (s *GeneratorService) Stop() {
	s.queue.Stop()
}

// Generate marks the key IN_PROGRESS and queues the run. It returns before
// the search begins; callers poll the status endpoint for the outcome.
func (s *GeneratorService) Generate(ctx context.Context, semester, year int) error {
	current, err := s.statuses.Get(ctx, semester, year)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read generation status")
	}
	if current != nil && current.Status == models.StatusInProgress {
		return appErrors.ErrGenerationRunning
	}

	if err := s.statuses.Upsert(ctx, semester, year, models.StatusInProgress); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation start")
	}

	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "generate",
		Payload: generateJob{Semester: semester, Year: year},
	}
	if err := s.queue.Enqueue(job); err != nil {
		reason := models.FailedStatus("could not queue generation run")
		if upErr := s.statuses.Upsert(ctx, semester, year, reason); upErr != nil {
			s.logger.Error("failed to record queue failure", zap.Error(upErr))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation run")
	}
	return nil
}

// handleJob always reports success to the queue: a failed run records its own
// FAILED status and must not be retried with the same inputs.
func (s *GeneratorService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generateJob)
	if !ok {
		s.logger.Error("unexpected generation payload", zap.String("job_id", job.ID))
		return nil
	}
	s.runGeneration(ctx, payload.Semester, payload.Year)
	return nil
}

func (s *GeneratorService) runGeneration(ctx context.Context, semester, year int) {
	start := time.Now()
	log := s.logger.With(zap.Int("semester", semester), zap.Int("year", year))

	defer func() {
		if r := recover(); r != nil {
			log.Error("generation run panicked", zap.Any("panic", r))
			s.finishRun(ctx, semester, year, models.FailedStatus(fmt.Sprintf("internal error: %v", r)), "failed", start, 0)
		}
	}()

	// Stale rows from an earlier run must not leak into readers while the
	// new search is underway.
	if err := s.results.DeleteByTerm(ctx, semester, year); err != nil {
		log.Error("failed to clear previous results", zap.Error(err))
		s.finishRun(ctx, semester, year, models.FailedStatus("could not clear previous results"), "failed", start, 0)
		return
	}
	s.cache.Invalidate(ctx, semester, year)

	courses, err := s.courses.ListForTerm(ctx, semester, year)
	if err != nil {
		log.Error("failed to load courses", zap.Error(err))
		s.finishRun(ctx, semester, year, models.FailedStatus("could not load courses"), "failed", start, 0)
		return
	}
	if len(courses) == 0 {
		s.finishRun(ctx, semester, year, models.FailedStatus(fmt.Sprintf("No courses found for semester %d year %d", semester, year)), "failed", start, 0)
		return
	}

	rooms, slots, err := s.loadCandidates(ctx)
	if err != nil {
		var badSlot *malformedSlotError
		if errors.As(err, &badSlot) {
			log.Warn("generation preconditions not met", zap.Error(err))
			s.finishRun(ctx, semester, year, models.FailedStatus(fmt.Sprintf("Time slot %s is malformed", badSlot.id)), "failed", start, 0)
			return
		}
		log.Error("failed to load candidates", zap.Error(err))
		s.finishRun(ctx, semester, year, models.FailedStatus("could not load rooms and time slots"), "failed", start, 0)
		return
	}

	instructorsByID, err := s.loadInstructors(ctx)
	if err != nil {
		log.Error("failed to load instructors", zap.Error(err))
		s.finishRun(ctx, semester, year, models.FailedStatus("could not load instructors"), "failed", start, 0)
		return
	}

	if reason := checkPreconditions(courses, rooms, slots, instructorsByID); reason != "" {
		log.Warn("generation preconditions not met", zap.String("reason", reason))
		s.finishRun(ctx, semester, year, models.FailedStatus(reason), "failed", start, 0)
		return
	}

	assigned, failedCourse := s.assignAll(courses, rooms, slots)
	if failedCourse != "" {
		log.Warn("generation aborted", zap.String("course", failedCourse))
		s.finishRun(ctx, semester, year, models.FailedStatus(fmt.Sprintf("Insufficient time slots or rooms for course %s", failedCourse)), "failed", start, 0)
		return
	}

	results := make([]models.ScheduleResult, 0, len(assigned))
	now := time.Now().UTC()
	for _, a := range assigned {
		results = append(results, s.buildResult(a, semester, year, instructorsByID, now))
	}
	if err := s.results.SaveBatch(ctx, results); err != nil {
		log.Error("failed to persist timetable", zap.Error(err))
		s.finishRun(ctx, semester, year, models.FailedStatus("could not persist timetable"), "failed", start, 0)
		return
	}

	s.finishRun(ctx, semester, year, models.StatusCompleted, "completed", start, len(results))
	log.Info("generation completed",
		zap.Int("courses", len(results)),
		zap.Duration("took", time.Since(start)))
}

func (s *GeneratorService) finishRun(ctx context.Context, semester, year int, status, metricResult string, start time.Time, assigned int) {
	if err := s.statuses.Upsert(ctx, semester, year, status); err != nil {
		s.logger.Error("failed to record run outcome", zap.Error(err))
	}
	s.cache.Invalidate(ctx, semester, year)
	s.metrics.RecordRun(metricResult, time.Since(start), assigned)
}

type slotOption struct {
	slot models.TimeSlot
	key  models.SlotKey
}

type malformedSlotError struct {
	id  string
	err error
}

func (e *malformedSlotError) Error() string { return fmt.Sprintf("time slot %s: %v", e.id, e.err) }
func (e *malformedSlotError) Unwrap() error { return e.err }

// loadCandidates returns usable rooms and slots in search order. A time slot
// that does not parse is a precondition violation and fails the run.
func (s *GeneratorService) loadCandidates(ctx context.Context) ([]models.Room, []slotOption, error) {
	allRooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	rooms := make([]models.Room, 0, len(allRooms))
	for _, room := range allRooms {
		if room.Available {
			rooms = append(rooms, room)
		}
	}

	allSlots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	options := make([]slotOption, 0, len(allSlots))
	for _, slot := range allSlots {
		key, err := slot.Key()
		if err != nil {
			return nil, nil, &malformedSlotError{id: slot.ID, err: err}
		}
		options = append(options, slotOption{slot: slot, key: key})
	}

	if s.cfg.Deterministic {
		sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
		sort.Slice(options, func(i, j int) bool {
			a, b := options[i].key, options[j].key
			if a.Day != b.Day {
				return a.Day < b.Day
			}
			return a.Start < b.Start
		})
	} else {
		s.rng.Shuffle(len(rooms), func(i, j int) { rooms[i], rooms[j] = rooms[j], rooms[i] })
		s.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	}
	return rooms, options, nil
}

func (s *GeneratorService) loadInstructors(ctx context.Context) (map[string]models.Instructor, error) {
	all, err := s.instructors.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Instructor, len(all))
	for _, inst := range all {
		byID[inst.ID] = inst
	}
	return byID, nil
}

// checkPreconditions validates the catalog before any search work: all four
// input lists must be non-empty and every course must name a known
// instructor. Violations abort the run with no partial writes.
func checkPreconditions(courses []models.Course, rooms []models.Room, slots []slotOption, instructors map[string]models.Instructor) string {
	if len(rooms) == 0 {
		return "No available rooms defined"
	}
	if len(slots) == 0 {
		return "No time slots defined"
	}
	if len(instructors) == 0 {
		return "No instructors defined"
	}
	for _, course := range courses {
		if course.InstructorID == nil || *course.InstructorID == "" {
			return fmt.Sprintf("Course %s has no assigned instructor", course.Code)
		}
		if _, ok := instructors[*course.InstructorID]; !ok {
			return fmt.Sprintf("Course %s references an unknown instructor", course.Code)
		}
	}
	return ""
}

type commonPlacement struct {
	room        models.Room
	slot        slotOption
	instructors map[string]struct{}
}

// assignAll greedily places every course. It returns the placed assignments,
// or the code of the first unplaceable course when the run must abort.
func (s *GeneratorService) assignAll(courses []models.Course, rooms []models.Room, slots []slotOption) ([]models.Assignment, string) {
	tracker := newConflictTracker()
	commons := make(map[string]commonPlacement)
	assigned := make([]models.Assignment, 0, len(courses))

	for _, course := range courses {
		instructorID := ""
		if course.InstructorID != nil {
			instructorID = *course.InstructorID
		}

		// Cross-listed siblings share one lecture: reuse the group's room and
		// slot, waiving the room-occupancy check inside the group. An
		// instructor already teaching the shared lecture is not a clash
		// either; only an instructor from outside the group who is busy
		// elsewhere at the slot blocks the reuse. The cohort check always
		// applies, the sibling programs are distinct audiences.
		if course.IsCommon() {
			if placed, ok := commons[*course.CommonID]; ok {
				key := placed.slot.key
				if _, teachesGroup := placed.instructors[instructorID]; !teachesGroup && tracker.InstructorBusy(instructorID, key) {
					return nil, course.Code
				}
				if tracker.CohortConflict(course.ProgramID, course.Year, key) {
					return nil, course.Code
				}
				tracker.Commit(instructorID, placed.room.ID, course.ProgramID, course.Year, key)
				placed.instructors[instructorID] = struct{}{}
				assigned = append(assigned, models.Assignment{Course: course, Room: placed.room, Slot: placed.slot.slot, Key: key})
				continue
			}
		}

		placed := false
		for _, option := range slots {
			if tracker.InstructorBusy(instructorID, option.key) {
				continue
			}
			if tracker.CohortConflict(course.ProgramID, course.Year, option.key) {
				continue
			}
			for _, room := range rooms {
				if !s.roomEligible(course, room) {
					continue
				}
				if tracker.RoomBusy(room.ID, option.key) {
					continue
				}
				tracker.Commit(instructorID, room.ID, course.ProgramID, course.Year, option.key)
				assigned = append(assigned, models.Assignment{Course: course, Room: room, Slot: option.slot, Key: option.key})
				if course.IsCommon() {
					commons[*course.CommonID] = commonPlacement{
						room:        room,
						slot:        option,
						instructors: map[string]struct{}{instructorID: {}},
					}
				}
				placed = true
				break
			}
			if placed {
				break
			}
		}
		if !placed {
			return nil, course.Code
		}
	}
	return assigned, ""
}

// roomEligible applies static constraints: room type when the course demands
// one, and department affiliation. A room with no department links serves
// every department.
func (s *GeneratorService) roomEligible(course models.Course, room models.Room) bool {
	if !room.Available {
		return false
	}
	if course.RoomSpec != nil && *course.RoomSpec != "" && room.RoomType != *course.RoomSpec {
		return false
	}
	if len(room.DepartmentIDs) > 0 && !room.ServesDepartment(course.DepartmentID) {
		return false
	}
	return true
}

func (s *GeneratorService) buildResult(a models.Assignment, semester, year int, instructors map[string]models.Instructor, now time.Time) models.ScheduleResult {
	instructorID := ""
	instructorName := ""
	if a.Course.InstructorID != nil {
		instructorID = *a.Course.InstructorID
		if inst, ok := instructors[instructorID]; ok {
			instructorName = inst.FullName()
		}
	}
	return models.ScheduleResult{
		ID:             uuid.NewString(),
		Semester:       semester,
		Year:           year,
		CourseCode:     a.Course.Code,
		CourseName:     a.Course.Name,
		ProgramID:      a.Course.ProgramID,
		InstructorID:   instructorID,
		InstructorName: instructorName,
		RoomID:         a.Room.ID,
		RoomName:       a.Room.Name,
		TimeSlotID:     a.Slot.ID,
		SlotDay:        a.Slot.Day,
		SlotStart:      a.Slot.StartTime,
		SlotEnd:        a.Slot.EndTime,
		SlotLabel:      a.Slot.Label(),
		Message:        messageScheduled,
		CreatedAt:      now,
	}
}

// Reschedule moves one scheduled course onto one of its instructor's
// preferred time slots, keeping every other row fixed. The swap is atomic;
// readers never see the course missing. A non-empty requestedBy restricts the
// operation to the instructor assigned to the row; admins pass "".
func (s *GeneratorService) Reschedule(ctx context.Context, resultID, requestedBy string) (*models.ScheduleResult, error) {
	row, err := s.results.FindByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule result")
	}
	if row.InstructorID == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course has no assigned instructor")
	}
	if requestedBy != "" && requestedBy != row.InstructorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned instructor can reschedule this course")
	}

	instructor, err := s.instructors.FindByID(ctx, row.InstructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if len(instructor.Preferences) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "instructor has no preferred time slots")
	}

	course, err := s.courses.FindByCode(ctx, row.CourseCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	siblings, err := s.results.List(ctx, models.ResultFilter{Semester: row.Semester, Year: row.Year})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	tracker := newConflictTracker()
	for _, sibling := range siblings {
		if sibling.ID == row.ID {
			continue
		}
		key, keyErr := sibling.SlotKey()
		if keyErr != nil {
			s.logger.Warn("skipping malformed result row", zap.String("result_id", sibling.ID), zap.Error(keyErr))
			continue
		}
		tracker.Commit(sibling.InstructorID, sibling.RoomID, sibling.ProgramID, sibling.Year, key)
	}

	allRooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	sort.Slice(allRooms, func(i, j int) bool { return allRooms[i].Name < allRooms[j].Name })

	currentKey, err := row.SlotKey()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored slot is malformed")
	}

	for _, pref := range instructor.Preferences {
		key, keyErr := pref.Key()
		if keyErr != nil {
			s.logger.Warn("skipping malformed preference", zap.String("slot_id", pref.ID), zap.Error(keyErr))
			continue
		}
		if key == currentKey {
			continue
		}
		if tracker.InstructorBusy(row.InstructorID, key) {
			continue
		}
		if tracker.CohortConflict(row.ProgramID, row.Year, key) {
			continue
		}
		room, ok := s.pickRescheduleRoom(*course, row.RoomID, allRooms, tracker, key)
		if !ok {
			continue
		}

		replacement := models.ScheduleResult{
			ID:             uuid.NewString(),
			Semester:       row.Semester,
			Year:           row.Year,
			CourseCode:     row.CourseCode,
			CourseName:     row.CourseName,
			ProgramID:      row.ProgramID,
			InstructorID:   row.InstructorID,
			InstructorName: row.InstructorName,
			RoomID:         room.ID,
			RoomName:       room.Name,
			TimeSlotID:     pref.ID,
			SlotDay:        pref.Day,
			SlotStart:      pref.StartTime,
			SlotEnd:        pref.EndTime,
			SlotLabel:      pref.Label(),
			Message:        "Rescheduled successfully",
			CreatedAt:      time.Now().UTC(),
		}
		if err := s.results.Replace(ctx, row.ID, replacement); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reschedule")
		}
		s.cache.Invalidate(ctx, row.Semester, row.Year)
		return &replacement, nil
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "no preferred time slot can host this course without conflicts")
}

// pickRescheduleRoom keeps the course in its current room when possible and
// falls back to the first free eligible room otherwise.
func (s *GeneratorService) pickRescheduleRoom(course models.Course, currentRoomID string, rooms []models.Room, tracker *conflictTracker, key models.SlotKey) (models.Room, bool) {
	for _, room := range rooms {
		if room.ID != currentRoomID {
			continue
		}
		if s.roomEligible(course, room) && !tracker.RoomBusy(room.ID, key) {
			return room, true
		}
		break
	}
	for _, room := range rooms {
		if !s.roomEligible(course, room) {
			continue
		}
		if tracker.RoomBusy(room.ID, key) {
			continue
		}
		return room, true
	}
	return models.Room{}, false
}
