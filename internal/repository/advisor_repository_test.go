package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
)

func TestAdvisorRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdvisorRepository(db)

	instructorID := int64(42)
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO advisors").
		WithArgs(int64(7), instructorID, start, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Advisor{
		StudentID:    7,
		InstructorID: &instructorID,
		StartDate:    &start,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisorRepositoryUpsertClearsAdvisor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdvisorRepository(db)

	mock.ExpectExec("INSERT INTO advisors").
		WithArgs(int64(7), nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.Advisor{StudentID: 7})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisorRepositoryFindInfo(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdvisorRepository(db)

	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"student_id", "instructor_id", "start_date", "end_date",
		"student_name", "advisor_name", "advisor_email", "advisor_office",
	}).AddRow(int64(7), int64(42), start, nil, "Jane Doe", "Prof. Chen", "chen@example.edu", "Olin 310")
	mock.ExpectQuery("FROM advisors a").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	info, err := repo.FindInfo(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", info.StudentName)
	require.NotNil(t, info.AdvisorName)
	assert.Equal(t, "Prof. Chen", *info.AdvisorName)
	assert.Nil(t, info.EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisorRepositoryFindInfoMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAdvisorRepository(db)

	mock.ExpectQuery("FROM advisors a").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}))

	_, err := repo.FindInfo(context.Background(), 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
