package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

func TestDepartmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec("INSERT INTO departments").
		WithArgs("Computer Science", "555-0120", 1200000.0, "Taylor", "Dr. Adams").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Department{
		Name:     "Computer Science",
		Phone:    "555-0120",
		Budget:   1200000,
		Building: "Taylor",
		DeanName: "Dr. Adams",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	budget := 950000.0
	dean := "Dr. Brooks"
	mock.ExpectExec("UPDATE departments SET budget =").
		WithArgs(budget, dean, "Physics").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "Physics", models.DepartmentUpdate{Budget: &budget, DeanName: &dean})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryDeleteStillReferenced(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec("DELETE FROM departments").
		WithArgs("Computer Science").
		WillReturnError(&pq.Error{Code: "23503"})

	err := repo.Delete(context.Background(), "Computer Science")
	assert.ErrorIs(t, err, appErrors.ErrDatabase)
	assert.Contains(t, err.Error(), "still referenced")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec("DELETE FROM departments").
		WithArgs("History").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "History")
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM departments`).
		WithArgs("Computer Science").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), "Computer Science")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
