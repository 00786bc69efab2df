package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/timetable-api/internal/models"
)

const instructorColumns = "id, first_name, last_name, department_id, user_id, created_at, updated_at"

// InstructorRepository provides persistence for instructors and their
// preferred time slots.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new instructor repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// ListAll returns every instructor with preferences attached.
func (r *InstructorRepository) ListAll(ctx context.Context) ([]models.Instructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors ORDER BY last_name ASC, first_name ASC", instructorColumns)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	for i := range instructors {
		prefs, err := r.ListPreferences(ctx, instructors[i].ID)
		if err != nil {
			return nil, err
		}
		instructors[i].Preferences = prefs
	}
	return instructors, nil
}

// FindByID loads an instructor with preferences attached.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors WHERE id = $1", instructorColumns)
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	prefs, err := r.ListPreferences(ctx, id)
	if err != nil {
		return nil, err
	}
	instructor.Preferences = prefs
	return &instructor, nil
}

// Create stores a new instructor.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	instructor.CreatedAt = now
	instructor.UpdatedAt = now

	const query = `INSERT INTO instructors (id, first_name, last_name, department_id, user_id, created_at, updated_at)
		VALUES (:id, :first_name, :last_name, :department_id, :user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// Update modifies instructor master data.
func (r *InstructorRepository) Update(ctx context.Context, instructor *models.Instructor) error {
	instructor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE instructors SET first_name = :first_name, last_name = :last_name, department_id = :department_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	return nil
}

// Delete removes an instructor; preference links cascade at the schema level.
func (r *InstructorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM instructors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete instructor: %w", err)
	}
	return nil
}

// ListPreferences returns the instructor's preferred time slots in weekday
// order, earliest start first.
func (r *InstructorRepository) ListPreferences(ctx context.Context, instructorID string) ([]models.TimeSlot, error) {
	const query = `SELECT ts.id, ts.day, ts.start_time, ts.end_time, ts.created_at
		FROM time_slots ts
		JOIN instructor_preferences ip ON ip.time_slot_id = ts.id
		WHERE ip.instructor_id = $1
		ORDER BY CASE ts.day
			WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3
			WHEN 'THURSDAY' THEN 4 WHEN 'FRIDAY' THEN 5 WHEN 'SATURDAY' THEN 6
			ELSE 7 END, ts.start_time ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor preferences: %w", err)
	}
	return slots, nil
}

// AddPreference links a time slot to an instructor; duplicates are ignored.
func (r *InstructorRepository) AddPreference(ctx context.Context, instructorID, timeSlotID string) error {
	const query = `INSERT INTO instructor_preferences (instructor_id, time_slot_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, instructorID, timeSlotID); err != nil {
		return fmt.Errorf("add instructor preference: %w", err)
	}
	return nil
}

// RemovePreference unlinks a time slot from an instructor.
func (r *InstructorRepository) RemovePreference(ctx context.Context, instructorID, timeSlotID string) error {
	const query = `DELETE FROM instructor_preferences WHERE instructor_id = $1 AND time_slot_id = $2`
	if _, err := r.db.ExecContext(ctx, query, instructorID, timeSlotID); err != nil {
		return fmt.Errorf("remove instructor preference: %w", err)
	}
	return nil
}
