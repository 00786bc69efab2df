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

type courseStore interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type programChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type departmentChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type instructorChecker interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

// CourseService manages the course catalog consumed by the generation engine.
type CourseService struct {
	courses     courseStore
	programs    programChecker
	departments departmentChecker
	instructors instructorChecker
	validate    *validator.Validate
}

// NewCourseService creates a course service.
func NewCourseService(courses courseStore, programs programChecker, departments departmentChecker, instructors instructorChecker, validate *validator.Validate) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{courses: courses, programs: programs, departments: departments, instructors: instructors, validate: validate}
}

// List returns a filtered course page.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create validates references and stores a new course.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Code:         req.Code,
		Name:         req.Name,
		Year:         req.Year,
		Semester:     req.Semester,
		RoomSpec:     req.RoomSpec,
		CommonID:     req.CommonID,
		ProgramID:    req.ProgramID,
		DepartmentID: req.DepartmentID,
		InstructorID: req.InstructorID,
	}
	if err := s.checkReferences(ctx, course); err != nil {
		return nil, err
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update validates references and modifies an existing course.
func (s *CourseService) Update(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Name = req.Name
	course.Year = req.Year
	course.Semester = req.Semester
	course.RoomSpec = req.RoomSpec
	course.CommonID = req.CommonID
	course.ProgramID = req.ProgramID
	course.DepartmentID = req.DepartmentID
	course.InstructorID = req.InstructorID
	if err := s.checkReferences(ctx, course); err != nil {
		return nil, err
	}
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course from the catalog.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

func (s *CourseService) checkReferences(ctx context.Context, course *models.Course) error {
	ok, err := s.programs.Exists(ctx, course.ProgramID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check program")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown program")
	}
	ok, err = s.departments.Exists(ctx, course.DepartmentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "unknown department")
	}
	if course.InstructorID != nil && *course.InstructorID != "" {
		if _, err := s.instructors.FindByID(ctx, *course.InstructorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "unknown instructor")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check instructor")
		}
	}
	return nil
}
