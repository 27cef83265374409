package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("INSERT INTO students").
		WithArgs("Jane Doe", "Computer Science", nil, 0, "jane@example.com", nil, "Active").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	student := &models.Student{
		FullName: "Jane Doe",
		DeptName: "Computer Science",
		Email:    "jane@example.com",
		Status:   "Active",
	}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.Equal(t, int64(12), student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	major := "Databases"
	credits := 42
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET major = $1, total_credits = $2 WHERE id = $3")).
		WithArgs(major, credits, int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), 12, models.StudentUpdate{Major: &major, TotalCredits: &credits})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateNothingToDo(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	err := repo.Update(context.Background(), 12, models.StudentUpdate{})
	assert.ErrorIs(t, err, appErrors.ErrIncorrectValue)
}

func TestStudentRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	name := "New Name"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET full_name = $1 WHERE id = $2")).
		WithArgs(name, int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), 999, models.StudentUpdate{FullName: &name})
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 12))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 12), appErrors.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "dept_name", "major", "total_credits", "email", "enrollment_date", "status"}).
		AddRow(int64(1), "Jane Doe", "Computer Science", nil, 30, "jane@example.com", time.Now(), "Active")
	mock.ExpectQuery("SELECT id, full_name, dept_name, major, total_credits, email, enrollment_date, status").
		WithArgs("Computer Science").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE dept_name = $1")).
		WithArgs("Computer Science").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.Search(context.Background(), models.StudentFilter{DeptName: "Computer Science"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryTranscriptFiltersCancelledAndUngraded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(`t\.cancelled = FALSE AND t\.grade IS NOT NULL`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"course_id", "title", "credits", "semester", "academic_year", "grade", "enrollment_date"}).
			AddRow("CS101", "Intro to CS", 3, "Fall", 2024, "A", time.Now()))

	entries, err := repo.Transcript(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CS101", entries[0].CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryGradedCredits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT c.credits, t.grade").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"credits", "grade"}).
			AddRow(3, "A").
			AddRow(4, "B-"))

	rows, err := repo.GradedCredits(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}
