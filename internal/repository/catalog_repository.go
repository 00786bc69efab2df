package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acadplan/timetable-api/internal/models"
)

// ProgramRepository provides read access to study programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository creates a new program repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// ListAll returns every program in code order.
func (r *ProgramRepository) ListAll(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, `SELECT id, code, name, created_at FROM programs ORDER BY code ASC`); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// Exists reports whether a program id is known.
func (r *ProgramRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM programs WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("check program: %w", err)
	}
	return count > 0, nil
}

// DepartmentRepository provides read access to departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// ListAll returns every department in name order.
func (r *DepartmentRepository) ListAll(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, `SELECT id, name, created_at FROM departments ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// Exists reports whether a department id is known.
func (r *DepartmentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM departments WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("check department: %w", err)
	}
	return count > 0, nil
}
