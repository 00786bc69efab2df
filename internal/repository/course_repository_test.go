package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/models"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "code", "name", "year", "semester", "room_spec", "common_id",
		"program_id", "department_id", "instructor_id", "created_at", "updated_at",
	})
}

func TestCourseRepositoryListForTerm(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	rows := courseRows().
		AddRow("c-1", "CS101", "Algorithms", 2, 1, nil, nil, "prog-1", "dept-1", "inst-1", time.Now(), time.Now()).
		AddRow("c-2", "CS102", "Databases", 2, 1, "LAB", nil, "prog-1", "dept-1", "inst-2", time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM courses WHERE semester = \\$1 AND year = \\$2").
		WithArgs(1, 2).
		WillReturnRows(rows)

	courses, err := repo.ListForTerm(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, "CS101", courses[0].Code)
	require.NotNil(t, courses[1].RoomSpec)
	require.Equal(t, "LAB", *courses[1].RoomSpec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectQuery("SELECT .+ FROM courses WHERE 1=1").
		WithArgs(1, "prog-1").
		WillReturnRows(courseRows().
			AddRow("c-1", "CS101", "Algorithms", 2, 1, nil, nil, "prog-1", "dept-1", nil, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses")).
		WithArgs(1, "prog-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Semester: 1, ProgramID: "prog-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, courses, 1)
	require.Nil(t, courses[0].InstructorID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()

	repo := NewCourseRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courses")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	course := &models.Course{Code: "CS101", Name: "Algorithms", Year: 2, Semester: 1, ProgramID: "prog-1", DepartmentID: "dept-1"}
	require.NoError(t, repo.Create(context.Background(), course))
	require.NotEmpty(t, course.ID)
	require.False(t, course.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
