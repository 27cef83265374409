package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/validation"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// fakeEnrollmentStore mirrors the store's transactional semantics in memory:
// a mutex stands in for the section row lock, and checks run in the same
// fixed order.
type fakeEnrollmentStore struct {
	mu       sync.Mutex
	capacity int
	enrolled int
	takes    map[models.EnrollmentKey]*models.Takes
	prereqs  map[string]int
}

func newFakeEnrollmentStore(capacity int) *fakeEnrollmentStore {
	return &fakeEnrollmentStore{
		capacity: capacity,
		takes:    make(map[models.EnrollmentKey]*models.Takes),
		prereqs:  make(map[string]int),
	}
}

func (f *fakeEnrollmentStore) Enroll(ctx context.Context, key models.EnrollmentKey, enrolledAt time.Time) (*models.Takes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.takes[key]; ok && !row.Cancelled {
		return nil, appErrors.ErrDuplicateEnrollment
	}
	if f.enrolled >= f.capacity {
		return nil, appErrors.ErrCapacityExceeded
	}
	if f.prereqs[key.CourseID] > 0 {
		return nil, appErrors.ErrPrerequisiteNotMet
	}
	row := &models.Takes{
		StudentID:      key.StudentID,
		CourseID:       key.CourseID,
		SectionID:      key.SectionID,
		Semester:       key.Semester,
		AcademicYear:   key.AcademicYear,
		EnrollmentDate: enrolledAt,
	}
	f.takes[key] = row
	f.enrolled++
	return row, nil
}

func (f *fakeEnrollmentStore) Cancel(ctx context.Context, key models.EnrollmentKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.takes[key]
	if !ok || row.Cancelled {
		return appErrors.ErrRecordNotFound
	}
	row.Cancelled = true
	row.Grade = nil
	f.enrolled--
	return nil
}

func (f *fakeEnrollmentStore) AssignGrade(ctx context.Context, key models.EnrollmentKey, grade string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.takes[key]
	if !ok || row.Cancelled {
		return appErrors.ErrRecordNotFound
	}
	g := validation.Grade(grade)
	row.Grade = &g
	return nil
}

func (f *fakeEnrollmentStore) FindDetail(ctx context.Context, key models.EnrollmentKey) (*models.EnrollmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.takes[key]
	if !ok {
		return nil, appErrors.ErrRecordNotFound
	}
	return &models.EnrollmentDetail{Takes: *row, StudentName: "Test Student"}, nil
}

func (f *fakeEnrollmentStore) UnsatisfiedPrereqs(ctx context.Context, studentID int64, courseID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prereqs[courseID], nil
}

type fakeTeachingStore struct {
	assigned map[models.Teaches]bool
}

func (f *fakeTeachingStore) Assign(ctx context.Context, row *models.Teaches) error {
	if f.assigned == nil {
		f.assigned = make(map[models.Teaches]bool)
	}
	f.assigned[*row] = true
	return nil
}

func (f *fakeTeachingStore) Unassign(ctx context.Context, row *models.Teaches) error {
	if !f.assigned[*row] {
		return appErrors.ErrRecordNotFound
	}
	delete(f.assigned, *row)
	return nil
}

type fakeExistsChecker struct {
	known map[int64]bool
}

func (f *fakeExistsChecker) Exists(ctx context.Context, id int64) (bool, error) {
	return f.known[id], nil
}

func fallClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, time.October, 6, 9, 0, 0, 0, time.UTC)
	}
}

func newTestEnrollmentService(store *fakeEnrollmentStore, teaching *fakeTeachingStore) *EnrollmentService {
	students := &fakeExistsChecker{known: map[int64]bool{7: true, 8: true}}
	instructors := &fakeExistsChecker{known: map[int64]bool{42: true}}
	return NewEnrollmentService(store, teaching, students, instructors, nil, nil, nil, nil, fallClock())
}

func fallRequest(studentID int64) EnrollmentRequest {
	return EnrollmentRequest{
		StudentID:    studentID,
		CourseID:     "CS101",
		SectionID:    "1",
		Semester:     "Fall",
		AcademicYear: 2025,
	}
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	store := newFakeEnrollmentStore(30)
	svc := newTestEnrollmentService(store, &fakeTeachingStore{})

	takes, err := svc.Enroll(context.Background(), fallRequest(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), takes.StudentID)
	assert.Equal(t, validation.SemesterFall, takes.Semester)
	assert.Equal(t, 1, store.enrolled)
}

func TestEnrollmentServiceEnrollUnknownStudent(t *testing.T) {
	store := newFakeEnrollmentStore(30)
	svc := newTestEnrollmentService(store, &fakeTeachingStore{})

	_, err := svc.Enroll(context.Background(), fallRequest(99))
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
	assert.Equal(t, 0, store.enrolled)
}

func TestEnrollmentServiceEnrollInvalidSemester(t *testing.T) {
	svc := newTestEnrollmentService(newFakeEnrollmentStore(30), &fakeTeachingStore{})

	req := fallRequest(7)
	req.Semester = "Autumn"
	_, err := svc.Enroll(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrIncorrectValue)
}

func TestEnrollmentServiceEnrollOutsideActiveTerm(t *testing.T) {
	store := newFakeEnrollmentStore(30)
	svc := newTestEnrollmentService(store, &fakeTeachingStore{})

	req := fallRequest(7)
	req.Semester = "Spring"
	_, err := svc.Enroll(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrIncorrectValue)

	req = fallRequest(7)
	req.AcademicYear = 2024
	_, err = svc.Enroll(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrIncorrectValue)
	assert.Equal(t, 0, store.enrolled)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	store := newFakeEnrollmentStore(30)
	svc := newTestEnrollmentService(store, &fakeTeachingStore{})

	_, err := svc.Enroll(context.Background(), fallRequest(7))
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), fallRequest(7))
	assert.ErrorIs(t, err, appErrors.ErrDuplicateEnrollment)
	assert.Equal(t, 1, store.enrolled)
}

func TestEnrollmentServiceEnrollPrerequisiteNotMet(t *testing.T) {
	store := newFakeEnrollmentStore(30)
	store.prereqs["CS101"] = 1
	svc := newTestEnrollmentService(store, &fakeTeachingStore{})

	_, err := svc.Enroll(context.Background(), fallRequest(7))
	assert.ErrorIs(t, err, appErrors.ErrPrerequisiteNotMet)
}

// Two students race for the last seat; exactly one wins and the other gets
// the capacity error.
func TestEnrollmentServiceLastSeatRace(t *testing.T) {
	store := newFakeEnrollmentStore(1)
	svc := newTestEnrollmentService(store, &fakeTeachingStore{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, studentID := range []int64{7, 8} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = svc.Enroll(context.Background(), fallRequest(id))
		}(i, studentID)
	}
	wg.Wait()

	var successes, fulls int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, appErrors.ErrCapacityExceeded):
			fulls++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, fulls)
	assert.Equal(t, 1, store.enrolled)
}

func TestEnrollmentServiceCancelAndReEnroll(t *testing.T) {
	store := newFakeEnrollmentStore(1)
	svc := newTestEnrollmentService(store, &fakeTeachingStore{})

	_, err := svc.Enroll(context.Background(), fallRequest(7))
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), fallRequest(7)))
	assert.Equal(t, 0, store.enrolled)

	// The seat is free again and the cancelled row revives.
	takes, err := svc.Enroll(context.Background(), fallRequest(7))
	require.NoError(t, err)
	assert.False(t, takes.Cancelled)
	assert.Nil(t, takes.Grade)
	assert.Equal(t, 1, store.enrolled)
}

func TestEnrollmentServiceCancelMissing(t *testing.T) {
	svc := newTestEnrollmentService(newFakeEnrollmentStore(30), &fakeTeachingStore{})
	err := svc.Cancel(context.Background(), fallRequest(7))
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
}

func TestEnrollmentServiceAssignGrade(t *testing.T) {
	store := newFakeEnrollmentStore(30)
	svc := newTestEnrollmentService(store, &fakeTeachingStore{})

	_, err := svc.Enroll(context.Background(), fallRequest(7))
	require.NoError(t, err)

	req := GradeRequest{EnrollmentRequest: fallRequest(7), Grade: "B+"}
	require.NoError(t, svc.AssignGrade(context.Background(), req))

	key := models.EnrollmentKey{StudentID: 7, CourseID: "CS101", SectionID: "1", Semester: validation.SemesterFall, AcademicYear: 2025}
	require.NotNil(t, store.takes[key].Grade)
	assert.Equal(t, validation.Grade("B+"), *store.takes[key].Grade)

	// Overwrite is allowed.
	req.Grade = "A"
	require.NoError(t, svc.AssignGrade(context.Background(), req))
	assert.Equal(t, validation.Grade("A"), *store.takes[key].Grade)
}

func TestEnrollmentServiceAssignGradeInvalidSymbol(t *testing.T) {
	svc := newTestEnrollmentService(newFakeEnrollmentStore(30), &fakeTeachingStore{})
	req := GradeRequest{EnrollmentRequest: fallRequest(7), Grade: "E"}
	err := svc.AssignGrade(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrIncorrectValue)
}

func TestEnrollmentServiceAssignGradeMissingEnrollment(t *testing.T) {
	svc := newTestEnrollmentService(newFakeEnrollmentStore(30), &fakeTeachingStore{})
	req := GradeRequest{EnrollmentRequest: fallRequest(7), Grade: "A"}
	err := svc.AssignGrade(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
}

func TestEnrollmentServiceIsEligible(t *testing.T) {
	store := newFakeEnrollmentStore(30)
	svc := newTestEnrollmentService(store, &fakeTeachingStore{})

	eligible, err := svc.IsEligible(context.Background(), 7, "CS101")
	require.NoError(t, err)
	assert.True(t, eligible)

	store.prereqs["CS301"] = 2
	eligible, err = svc.IsEligible(context.Background(), 7, "CS301")
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestEnrollmentServiceTeachingAssignment(t *testing.T) {
	teaching := &fakeTeachingStore{}
	svc := newTestEnrollmentService(newFakeEnrollmentStore(30), teaching)

	req := TeachingRequest{
		InstructorID: 42,
		CourseID:     "CS101",
		SectionID:    "1",
		Semester:     "Fall",
		AcademicYear: 2025,
	}
	require.NoError(t, svc.AssignInstructor(context.Background(), req))
	assert.Len(t, teaching.assigned, 1)

	require.NoError(t, svc.UnassignInstructor(context.Background(), req))
	assert.Empty(t, teaching.assigned)

	err := svc.UnassignInstructor(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
}

func TestEnrollmentServiceTeachingUnknownInstructor(t *testing.T) {
	svc := newTestEnrollmentService(newFakeEnrollmentStore(30), &fakeTeachingStore{})
	req := TeachingRequest{
		InstructorID: 999,
		CourseID:     "CS101",
		SectionID:    "1",
		Semester:     "Fall",
		AcademicYear: 2025,
	}
	err := svc.AssignInstructor(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)
}
