package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/acadplan/timetable-api/internal/models"
)

const resultColumns = `id, semester, year, course_code, course_name, program_id,
	instructor_id, instructor_name, room_id, room_name, time_slot_id,
	slot_day, slot_start, slot_end, slot_label, message, created_at`

const insertResultQuery = `INSERT INTO schedule_results
	(id, semester, year, course_code, course_name, program_id,
	 instructor_id, instructor_name, room_id, room_name, time_slot_id,
	 slot_day, slot_start, slot_end, slot_label, message, created_at)
	VALUES (:id, :semester, :year, :course_code, :course_name, :program_id,
	 :instructor_id, :instructor_name, :room_id, :room_name, :time_slot_id,
	 :slot_day, :slot_start, :slot_end, :slot_label, :message, :created_at)`

// ScheduleResultRepository stores the denormalized timetable rows produced by
// generation runs.
type ScheduleResultRepository struct {
	db *sqlx.DB
}

// NewScheduleResultRepository creates a new schedule result repository.
func NewScheduleResultRepository(db *sqlx.DB) *ScheduleResultRepository {
	return &ScheduleResultRepository{db: db}
}

// SaveBatch inserts a run's full result set in one transaction so readers
// never observe a partially written timetable.
func (r *ScheduleResultRepository) SaveBatch(ctx context.Context, results []models.ScheduleResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save results: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range results {
		if _, err = tx.NamedExecContext(ctx, insertResultQuery, results[i]); err != nil {
			return fmt.Errorf("insert schedule result: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save results: %w", err)
	}
	return nil
}

// List returns result rows matching the filter, ordered for stable display.
func (r *ScheduleResultRepository) List(ctx context.Context, filter models.ResultFilter) ([]models.ScheduleResult, error) {
	base := fmt.Sprintf("SELECT %s FROM schedule_results WHERE 1=1", resultColumns)
	var conditions []string
	var args []interface{}

	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	query := base
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY CASE slot_day
		WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3
		WHEN 'THURSDAY' THEN 4 WHEN 'FRIDAY' THEN 5 WHEN 'SATURDAY' THEN 6
		ELSE 7 END, slot_start ASC, course_code ASC`

	var results []models.ScheduleResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule results: %w", err)
	}
	return results, nil
}

// FindByID loads one result row.
func (r *ScheduleResultRepository) FindByID(ctx context.Context, id string) (*models.ScheduleResult, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_results WHERE id = $1", resultColumns)
	var result models.ScheduleResult
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteByTerm removes every result row for a (semester, year) key. A new run
// clears the previous timetable before searching.
func (r *ScheduleResultRepository) DeleteByTerm(ctx context.Context, semester, year int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_results WHERE semester = $1 AND year = $2`, semester, year); err != nil {
		return fmt.Errorf("delete schedule results for term: %w", err)
	}
	return nil
}

// DeleteAll removes every result row. Used by the full reset operation.
func (r *ScheduleResultRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_results`); err != nil {
		return fmt.Errorf("delete schedule results: %w", err)
	}
	return nil
}

// Replace swaps one result row for its rescheduled successor in a single
// transaction, so the course is never absent from the timetable.
func (r *ScheduleResultRepository) Replace(ctx context.Context, oldID string, replacement models.ScheduleResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace result: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM schedule_results WHERE id = $1`, oldID); err != nil {
		return fmt.Errorf("delete replaced result: %w", err)
	}
	if _, err = tx.NamedExecContext(ctx, insertResultQuery, replacement); err != nil {
		return fmt.Errorf("insert replacement result: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace result: %w", err)
	}
	return nil
}
