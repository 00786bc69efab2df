package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/timetable-api/internal/models"
)

// ScheduleStatusRepository stores the single current generation status per
// (semester, year) key.
type ScheduleStatusRepository struct {
	db *sqlx.DB
}

// NewScheduleStatusRepository creates a new schedule status repository.
func NewScheduleStatusRepository(db *sqlx.DB) *ScheduleStatusRepository {
	return &ScheduleStatusRepository{db: db}
}

// Upsert writes the status for a key, overwriting any previous value. There
// is at most one row per key so readers always see the latest run.
func (r *ScheduleStatusRepository) Upsert(ctx context.Context, semester, year int, status string) error {
	record := models.ScheduleStatus{
		ID:        uuid.NewString(),
		Semester:  semester,
		Year:      year,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO schedule_statuses (id, semester, year, status, updated_at)
		VALUES (:id, :semester, :year, :status, :updated_at)
		ON CONFLICT (semester, year) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert schedule status: %w", err)
	}
	return nil
}

// Get returns the stored status for a key. A missing row surfaces as
// sql.ErrNoRows for the caller to interpret.
func (r *ScheduleStatusRepository) Get(ctx context.Context, semester, year int) (*models.ScheduleStatus, error) {
	const query = `SELECT id, semester, year, status, updated_at FROM schedule_statuses WHERE semester = $1 AND year = $2`
	var status models.ScheduleStatus
	if err := r.db.GetContext(ctx, &status, query, semester, year); err != nil {
		return nil, err
	}
	return &status, nil
}

// DeleteAll removes every status row. Used by the full reset operation.
func (r *ScheduleStatusRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_statuses`); err != nil {
		return fmt.Errorf("delete schedule statuses: %w", err)
	}
	return nil
}
