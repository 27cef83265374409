package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/validation"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testKey() models.EnrollmentKey {
	return models.EnrollmentKey{
		StudentID:    7,
		CourseID:     "CS101",
		SectionID:    "1",
		Semester:     validation.SemesterFall,
		AcademicYear: 2025,
	}
}

func expectSectionLock(mock sqlmock.Sqlmock, key models.EnrollmentKey, capacity, enrolled int) {
	mock.ExpectQuery("SELECT capacity, enrolled FROM sections").
		WithArgs(key.CourseID, key.SectionID, key.Semester, key.AcademicYear).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "enrolled"}).AddRow(capacity, enrolled))
}

func expectDuplicateCheck(mock sqlmock.Sqlmock, key models.EnrollmentKey, active bool) {
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM takes`).
		WithArgs(key.StudentID, key.CourseID, key.SectionID, key.Semester, key.AcademicYear).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(active))
}

func expectPrereqCheck(mock sqlmock.Sqlmock, key models.EnrollmentKey, unsatisfied int) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM prerequisites")).
		WithArgs(key.CourseID, key.StudentID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(unsatisfied))
}

func TestEnrollmentRepositoryEnroll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()
	enrolledAt := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	expectSectionLock(mock, key, 30, 12)
	expectDuplicateCheck(mock, key, false)
	expectPrereqCheck(mock, key, 0)
	mock.ExpectExec("INSERT INTO takes").
		WithArgs(key.StudentID, key.CourseID, key.SectionID, key.Semester, key.AcademicYear, enrolledAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sections SET enrolled = enrolled \+ 1`).
		WithArgs(key.CourseID, key.SectionID, key.Semester, key.AcademicYear).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	takes, err := repo.Enroll(context.Background(), key, enrolledAt)
	require.NoError(t, err)
	assert.Equal(t, key.StudentID, takes.StudentID)
	assert.False(t, takes.Cancelled)
	assert.Nil(t, takes.Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollSectionMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT capacity, enrolled FROM sections").
		WithArgs(key.CourseID, key.SectionID, key.Semester, key.AcademicYear).
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "enrolled"}))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), key, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	expectSectionLock(mock, key, 30, 12)
	expectDuplicateCheck(mock, key, true)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), key, time.Now())
	assert.ErrorIs(t, err, appErrors.ErrDuplicateEnrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollSectionFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	expectSectionLock(mock, key, 30, 30)
	expectDuplicateCheck(mock, key, false)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), key, time.Now())
	assert.ErrorIs(t, err, appErrors.ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The duplicate check runs before the capacity check, so an already-enrolled
// student in a full section sees the duplicate error.
func TestEnrollmentRepositoryEnrollDuplicateBeatsCapacity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	expectSectionLock(mock, key, 30, 30)
	expectDuplicateCheck(mock, key, true)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), key, time.Now())
	assert.ErrorIs(t, err, appErrors.ErrDuplicateEnrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollPrerequisiteNotMet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	expectSectionLock(mock, key, 30, 12)
	expectDuplicateCheck(mock, key, false)
	expectPrereqCheck(mock, key, 2)
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), key, time.Now())
	assert.ErrorIs(t, err, appErrors.ErrPrerequisiteNotMet)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A concurrent transaction can take the last seat between the read and the
// guarded increment; the increment then matches no rows and the enrollment
// aborts instead of overfilling the section.
func TestEnrollmentRepositoryEnrollIncrementRejected(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	expectSectionLock(mock, key, 30, 29)
	expectDuplicateCheck(mock, key, false)
	expectPrereqCheck(mock, key, 0)
	mock.ExpectExec("INSERT INTO takes").
		WithArgs(key.StudentID, key.CourseID, key.SectionID, key.Semester, key.AcademicYear, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sections SET enrolled = enrolled \+ 1`).
		WithArgs(key.CourseID, key.SectionID, key.Semester, key.AcademicYear).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), key, time.Now())
	assert.ErrorIs(t, err, appErrors.ErrDatabase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCancel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	expectSectionLock(mock, key, 30, 12)
	mock.ExpectExec("UPDATE takes SET cancelled = TRUE").
		WithArgs(key.StudentID, key.CourseID, key.SectionID, key.Semester, key.AcademicYear).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sections SET enrolled = enrolled - 1`).
		WithArgs(key.CourseID, key.SectionID, key.Semester, key.AcademicYear).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Cancel(context.Background(), key))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCancelNoActiveRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectBegin()
	expectSectionLock(mock, key, 30, 12)
	mock.ExpectExec("UPDATE takes SET cancelled = TRUE").
		WithArgs(key.StudentID, key.CourseID, key.SectionID, key.Semester, key.AcademicYear).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Cancel(context.Background(), key)
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAssignGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectExec(`UPDATE takes SET grade = \$6`).
		WithArgs(key.StudentID, key.CourseID, key.SectionID, key.Semester, key.AcademicYear, "B+").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AssignGrade(context.Background(), key, "B+"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryAssignGradeMissingEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	key := testKey()

	mock.ExpectExec(`UPDATE takes SET grade = \$6`).
		WithArgs(key.StudentID, key.CourseID, key.SectionID, key.Semester, key.AcademicYear, "A").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AssignGrade(context.Background(), key, "A")
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUnsatisfiedPrereqs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM prerequisites")).
		WithArgs("CS301", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := repo.UnsatisfiedPrereqs(context.Background(), 7, "CS301")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
