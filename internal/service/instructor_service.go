package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/acadplan/timetable-api/internal/dto"
	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type instructorStore interface {
	ListAll(ctx context.Context) ([]models.Instructor, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor) error
	Delete(ctx context.Context, id string) error
	ListPreferences(ctx context.Context, instructorID string) ([]models.TimeSlot, error)
	AddPreference(ctx context.Context, instructorID, timeSlotID string) error
	RemovePreference(ctx context.Context, instructorID, timeSlotID string) error
}

type preferenceSlotStore interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

// InstructorService manages instructors and the preferred slots consulted by
// targeted reschedules.
type InstructorService struct {
	instructors instructorStore
	slots       preferenceSlotStore
	departments departmentChecker
	validate    *validator.Validate
}

// NewInstructorService creates an instructor service.
func NewInstructorService(instructors instructorStore, slots preferenceSlotStore, departments departmentChecker, validate *validator.Validate) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	return &InstructorService{instructors: instructors, slots: slots, departments: departments, validate: validate}
}

// List returns every instructor with preferences attached.
func (s *InstructorService) List(ctx context.Context) ([]models.Instructor, error) {
	instructors, err := s.instructors.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return instructors, nil
}

// Get loads one instructor.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.instructors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return instructor, nil
}

// Create registers a new instructor.
func (s *InstructorService) Create(ctx context.Context, req dto.CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	instructor := &models.Instructor{FirstName: req.FirstName, LastName: req.LastName, DepartmentID: req.DepartmentID}
	if err := s.instructors.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	return instructor, nil
}

// Update modifies instructor master data.
func (s *InstructorService) Update(ctx context.Context, id string, req dto.UpdateInstructorRequest) (*models.Instructor, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	instructor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	instructor.FirstName = req.FirstName
	instructor.LastName = req.LastName
	instructor.DepartmentID = req.DepartmentID
	if err := s.instructors.Update(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}
	return instructor, nil
}

// Delete removes an instructor.
func (s *InstructorService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.instructors.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instructor")
	}
	return nil
}

// Preferences returns the instructor's preferred time slots in weekday order.
func (s *InstructorService) Preferences(ctx context.Context, instructorID string) ([]models.TimeSlot, error) {
	if _, err := s.Get(ctx, instructorID); err != nil {
		return nil, err
	}
	slots, err := s.instructors.ListPreferences(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list preferences")
	}
	return slots, nil
}

// AddPreference links a time slot to the instructor's preferred set.
func (s *InstructorService) AddPreference(ctx context.Context, instructorID string, req dto.AddPreferenceRequest) (*models.Instructor, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}
	if _, err := s.Get(ctx, instructorID); err != nil {
		return nil, err
	}
	if _, err := s.slots.FindByID(ctx, req.TimeSlotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}
	if err := s.instructors.AddPreference(ctx, instructorID, req.TimeSlotID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add preference")
	}
	return s.Get(ctx, instructorID)
}

// RemovePreference unlinks a time slot from the instructor's preferred set.
func (s *InstructorService) RemovePreference(ctx context.Context, instructorID, timeSlotID string) (*models.Instructor, error) {
	if _, err := s.Get(ctx, instructorID); err != nil {
		return nil, err
	}
	if err := s.instructors.RemovePreference(ctx, instructorID, timeSlotID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove preference")
	}
	return s.Get(ctx, instructorID)
}

func (s *InstructorService) checkDepartment(ctx context.Context, id string) error {
	ok, err := s.departments.Exists(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown department")
	}
	return nil
}
