package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/acadplan/timetable-api/internal/dto"
	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type queryResultStore interface {
	List(ctx context.Context, filter models.ResultFilter) ([]models.ScheduleResult, error)
	DeleteAll(ctx context.Context) error
}

type queryStatusStore interface {
	Get(ctx context.Context, semester, year int) (*models.ScheduleStatus, error)
	DeleteAll(ctx context.Context) error
}

// QueryService serves role-scoped reads over the generated timetable and the
// destructive reset operation.
type QueryService struct {
	results  queryResultStore
	statuses queryStatusStore
	cache    *ScheduleCache
	logger   *zap.Logger
}

// NewQueryService creates a query service.
func NewQueryService(results queryResultStore, statuses queryStatusStore, cache *ScheduleCache, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{results: results, statuses: statuses, cache: cache, logger: logger}
}

// GetStatus reports the generation status for a key. A key that never ran
// reads as PENDING, not as an error.
func (s *QueryService) GetStatus(ctx context.Context, semester, year int) (*dto.ScheduleStatusResponse, error) {
	resp := &dto.ScheduleStatusResponse{Semester: semester, Year: year, Status: models.StatusPending}
	current, err := s.statuses.Get(ctx, semester, year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resp, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read generation status")
	}
	resp.Status = current.Status
	return resp, nil
}

// ListResults returns timetable rows for a scope. Full (semester, year) reads
// are served from cache when possible; instructor-scoped reads always hit the
// database since they are a small slice of the whole.
func (s *QueryService) ListResults(ctx context.Context, filter models.ResultFilter) ([]models.ScheduleResult, error) {
	cacheable := filter.InstructorID == "" && filter.Semester > 0 && filter.Year > 0
	if cacheable {
		if cached, ok := s.cache.GetResults(ctx, filter.Semester, filter.Year); ok {
			return cached, nil
		}
	}

	results, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if cacheable {
		s.cache.SetResults(ctx, filter.Semester, filter.Year, results)
	}
	return results, nil
}

// ListForInstructor returns only the rows taught by one instructor.
func (s *QueryService) ListForInstructor(ctx context.Context, semester, year int, instructorID string) ([]models.ScheduleResult, error) {
	if instructorID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to an instructor profile")
	}
	return s.ListResults(ctx, models.ResultFilter{Semester: semester, Year: year, InstructorID: instructorID})
}

// ListForStudent returns the timetable visible to students. The whole scope
// is returned unfiltered; cohort narrowing happens client side.
func (s *QueryService) ListForStudent(ctx context.Context, semester, year int) ([]models.ScheduleResult, error) {
	return s.ListResults(ctx, models.ResultFilter{Semester: semester, Year: year})
}

// Reset wipes every result and status row and drops all cached timetables.
// The next status read for any key reports PENDING.
func (s *QueryService) Reset(ctx context.Context) error {
	if err := s.results.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear schedule results")
	}
	if err := s.statuses.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear schedule statuses")
	}
	s.cache.InvalidateAll(ctx)
	s.logger.Info("schedule data reset")
	return nil
}
