package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/validation"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type fakeStudentStore struct {
	students   map[int64]models.Student
	nextID     int64
	transcript map[int64][]models.TranscriptEntry
	grades     map[int64][]models.GradeCredit
}

func newFakeStudentStore() *fakeStudentStore {
	return &fakeStudentStore{
		students:   make(map[int64]models.Student),
		nextID:     1,
		transcript: make(map[int64][]models.TranscriptEntry),
		grades:     make(map[int64][]models.GradeCredit),
	}
}

func (f *fakeStudentStore) Create(ctx context.Context, student *models.Student) error {
	student.ID = f.nextID
	f.nextID++
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentStore) Update(ctx context.Context, id int64, upd models.StudentUpdate) error {
	if _, ok := f.students[id]; !ok {
		return appErrors.ErrRecordNotFound
	}
	return nil
}

func (f *fakeStudentStore) Delete(ctx context.Context, id int64) error {
	if _, ok := f.students[id]; !ok {
		return appErrors.ErrRecordNotFound
	}
	delete(f.students, id)
	return nil
}

func (f *fakeStudentStore) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (f *fakeStudentStore) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := f.students[id]
	return ok, nil
}

func (f *fakeStudentStore) Search(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range f.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (f *fakeStudentStore) Transcript(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error) {
	return f.transcript[studentID], nil
}

func (f *fakeStudentStore) GradedCredits(ctx context.Context, studentID int64) ([]models.GradeCredit, error) {
	return f.grades[studentID], nil
}

type fakeDeptChecker struct {
	known map[string]bool
}

func (f *fakeDeptChecker) Exists(ctx context.Context, name string) (bool, error) {
	return f.known[name], nil
}

func newTestStudentService(store *fakeStudentStore) *StudentService {
	depts := &fakeDeptChecker{known: map[string]bool{"Computer Science": true}}
	return NewStudentService(store, depts, nil, nil, nil)
}

func seedStudent(store *fakeStudentStore) int64 {
	id := store.nextID
	store.nextID++
	store.students[id] = models.Student{
		ID:       id,
		FullName: "Jane Doe",
		DeptName: "Computer Science",
		Email:    "jane@example.com",
		Status:   validation.StatusActive,
	}
	return id
}

func TestStudentServiceCreate(t *testing.T) {
	store := newFakeStudentStore()
	svc := newTestStudentService(store)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName:       "Jane Doe",
		DeptName:       "Computer Science",
		Email:          "jane@example.com",
		EnrollmentDate: "2024-09-01",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), student.ID)
	assert.Equal(t, validation.StatusActive, student.Status)
	require.NotNil(t, student.EnrollmentDate)
}

func TestStudentServiceCreateRejectsBadInput(t *testing.T) {
	svc := newTestStudentService(newFakeStudentStore())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Jane Doe",
		DeptName: "Computer Science",
		Email:    "not-an-email",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidEmail)

	_, err = svc.Create(context.Background(), CreateStudentRequest{
		FullName:       "Jane Doe",
		DeptName:       "Computer Science",
		Email:          "jane@example.com",
		EnrollmentDate: "09/01/2024",
	})
	assert.ErrorIs(t, err, appErrors.ErrUnsupportedDateFormat)

	_, err = svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Jane Doe",
		DeptName: "History",
		Email:    "jane@example.com",
	})
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
}

func TestStudentServiceGetMissing(t *testing.T) {
	svc := newTestStudentService(newFakeStudentStore())
	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
}

func TestStudentServiceCalculateGPA(t *testing.T) {
	store := newFakeStudentStore()
	svc := newTestStudentService(store)
	id := seedStudent(store)

	// 3 credits of A and 4 credits of B-: (3*4.0 + 4*2.7) / 7.
	store.grades[id] = []models.GradeCredit{
		{Credits: 3, Grade: "A"},
		{Credits: 4, Grade: "B-"},
	}

	result, err := svc.CalculateGPA(context.Background(), id)
	require.NoError(t, err)
	assert.InDelta(t, 22.8/7.0, result.GPA, 1e-9)
	assert.Equal(t, 7, result.GradedCredits)
	assert.Equal(t, id, result.StudentID)
}

func TestStudentServiceCalculateGPAAllFails(t *testing.T) {
	store := newFakeStudentStore()
	svc := newTestStudentService(store)
	id := seedStudent(store)

	store.grades[id] = []models.GradeCredit{
		{Credits: 3, Grade: "F"},
		{Credits: 4, Grade: "F"},
	}

	result, err := svc.CalculateGPA(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.GPA)
	assert.Equal(t, 7, result.GradedCredits)
}

func TestStudentServiceCalculateGPANoGradedCourses(t *testing.T) {
	store := newFakeStudentStore()
	svc := newTestStudentService(store)
	id := seedStudent(store)

	_, err := svc.CalculateGPA(context.Background(), id)
	assert.ErrorIs(t, err, appErrors.ErrNoGradedCourses)
}

func TestStudentServiceCalculateGPAUnknownStudent(t *testing.T) {
	svc := newTestStudentService(newFakeStudentStore())
	_, err := svc.CalculateGPA(context.Background(), 404)
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
}

func TestStudentServiceTranscript(t *testing.T) {
	store := newFakeStudentStore()
	svc := newTestStudentService(store)
	id := seedStudent(store)

	store.transcript[id] = []models.TranscriptEntry{
		{CourseID: "CS101", Title: "Intro", Credits: 3, Semester: validation.SemesterFall, AcademicYear: 2024, Grade: "A"},
	}

	entries, err := svc.Transcript(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CS101", entries[0].CourseID)

	// An existing student with no grades gets an empty list, not an error.
	other := seedStudent(store)
	entries, err = svc.Transcript(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.Transcript(context.Background(), 404)
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
}
