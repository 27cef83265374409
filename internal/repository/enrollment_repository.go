package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// EnrollmentRepository handles takes rows and the transactional enrollment
// workflow. Enroll and Cancel are the only writers of sections.enrolled, and
// both mutate it inside a transaction holding the section row lock, so the
// roster count always equals the number of non-cancelled takes rows and
// never exceeds capacity.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentKeyClause = `student_id = $1 AND course_id = $2 AND sec_id = $3 AND semester = $4 AND academic_year = $5`

func enrollmentKeyArgs(key models.EnrollmentKey) []interface{} {
	return []interface{}{key.StudentID, key.CourseID, key.SectionID, key.Semester, key.AcademicYear}
}

func enrollmentLabel(key models.EnrollmentKey) string {
	return fmt.Sprintf("%d-%s-%s-%s-%d", key.StudentID, key.CourseID, key.SectionID, key.Semester, key.AcademicYear)
}

// lockSection loads capacity and enrolled under FOR UPDATE so the
// check-then-increment sequence cannot interleave with a concurrent enroll
// or cancel against the same section.
func lockSection(ctx context.Context, tx *sqlx.Tx, key models.SectionKey) (capacity, enrolled int, err error) {
	const query = `SELECT capacity, enrolled FROM sections
        WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND academic_year = $4
        FOR UPDATE`
	row := tx.QueryRowxContext(ctx, query, key.CourseID, key.SectionID, key.Semester, key.AcademicYear)
	if err := row.Scan(&capacity, &enrolled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, appErrors.Clone(appErrors.ErrRecordNotFound,
				fmt.Sprintf("section '%s' not found", sectionLabel(key)))
		}
		return 0, 0, appErrors.FromSQL(err, "lock section")
	}
	return capacity, enrolled, nil
}

// Enroll registers a student into a section atomically. Checks run in a
// fixed order: section existence, duplicate active enrollment, capacity,
// prerequisites. The first violation aborts the transaction; nothing
// partially applies.
func (r *EnrollmentRepository) Enroll(ctx context.Context, key models.EnrollmentKey, enrolledAt time.Time) (*models.Takes, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.FromSQL(err, "begin enrollment")
	}
	defer tx.Rollback() //nolint:errcheck

	sectionKey := models.SectionKey{
		CourseID:     key.CourseID,
		SectionID:    key.SectionID,
		Semester:     key.Semester,
		AcademicYear: key.AcademicYear,
	}
	capacity, enrolled, err := lockSection(ctx, tx, sectionKey)
	if err != nil {
		return nil, err
	}

	var active bool
	dupQuery := `SELECT EXISTS(SELECT 1 FROM takes WHERE ` + enrollmentKeyClause + ` AND cancelled = FALSE)`
	if err := tx.GetContext(ctx, &active, dupQuery, enrollmentKeyArgs(key)...); err != nil {
		return nil, appErrors.FromSQL(err, "check duplicate enrollment")
	}
	if active {
		return nil, appErrors.ErrDuplicateEnrollment
	}

	if enrolled >= capacity {
		return nil, appErrors.ErrCapacityExceeded
	}

	unsatisfied, err := r.unsatisfiedPrereqs(ctx, tx, key.StudentID, key.CourseID)
	if err != nil {
		return nil, err
	}
	if unsatisfied > 0 {
		return nil, appErrors.Clone(appErrors.ErrPrerequisiteNotMet,
			fmt.Sprintf("course '%s' has %d unsatisfied prerequisite(s)", key.CourseID, unsatisfied))
	}

	// A cancelled row for the same key stays on record; enrolling again
	// revives it rather than inserting a second row for the key.
	const insertQuery = `INSERT INTO takes (student_id, course_id, sec_id, semester, academic_year, cancelled, grade, enrollment_date)
        VALUES ($1, $2, $3, $4, $5, FALSE, NULL, $6)
        ON CONFLICT (student_id, course_id, sec_id, semester, academic_year)
        DO UPDATE SET cancelled = FALSE, grade = NULL, enrollment_date = EXCLUDED.enrollment_date`
	args := append(enrollmentKeyArgs(key), enrolledAt)
	if _, err := tx.ExecContext(ctx, insertQuery, args...); err != nil {
		return nil, appErrors.FromSQL(err, "insert enrollment")
	}

	const bumpQuery = `UPDATE sections SET enrolled = enrolled + 1
        WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND academic_year = $4 AND enrolled < capacity`
	res, err := tx.ExecContext(ctx, bumpQuery, key.CourseID, key.SectionID, key.Semester, key.AcademicYear)
	if err != nil {
		return nil, appErrors.FromSQL(err, "increment roster")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, appErrors.Clone(appErrors.ErrDatabase, "roster increment rejected")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.FromSQL(err, "commit enrollment")
	}

	return &models.Takes{
		StudentID:      key.StudentID,
		CourseID:       key.CourseID,
		SectionID:      key.SectionID,
		Semester:       key.Semester,
		AcademicYear:   key.AcademicYear,
		EnrollmentDate: enrolledAt,
	}, nil
}

// Cancel marks a takes row cancelled and releases its seat in the same
// transaction. The row itself stays on record.
func (r *EnrollmentRepository) Cancel(ctx context.Context, key models.EnrollmentKey) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.FromSQL(err, "begin cancellation")
	}
	defer tx.Rollback() //nolint:errcheck

	sectionKey := models.SectionKey{
		CourseID:     key.CourseID,
		SectionID:    key.SectionID,
		Semester:     key.Semester,
		AcademicYear: key.AcademicYear,
	}
	// Lock order matches Enroll: section row first, then takes.
	if _, _, err := lockSection(ctx, tx, sectionKey); err != nil {
		return err
	}

	cancelQuery := `UPDATE takes SET cancelled = TRUE WHERE ` + enrollmentKeyClause + ` AND cancelled = FALSE`
	res, err := tx.ExecContext(ctx, cancelQuery, enrollmentKeyArgs(key)...)
	if err != nil {
		return appErrors.FromSQL(err, "cancel enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound,
			fmt.Sprintf("active enrollment '%s' not found", enrollmentLabel(key)))
	}

	const dropQuery = `UPDATE sections SET enrolled = enrolled - 1
        WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND academic_year = $4 AND enrolled > 0`
	res, err = tx.ExecContext(ctx, dropQuery, key.CourseID, key.SectionID, key.Semester, key.AcademicYear)
	if err != nil {
		return appErrors.FromSQL(err, "decrement roster")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrDatabase, "roster decrement rejected")
	}

	if err := tx.Commit(); err != nil {
		return appErrors.FromSQL(err, "commit cancellation")
	}
	return nil
}

// AssignGrade overwrites the stored grade on an active takes row. The roster
// count is untouched.
func (r *EnrollmentRepository) AssignGrade(ctx context.Context, key models.EnrollmentKey, grade string) error {
	query := `UPDATE takes SET grade = $6 WHERE ` + enrollmentKeyClause + ` AND cancelled = FALSE`
	args := append(enrollmentKeyArgs(key), grade)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return appErrors.FromSQL(err, "assign grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound,
			fmt.Sprintf("active enrollment '%s' not found", enrollmentLabel(key)))
	}
	return nil
}

// FindDetail returns one enrollment with student and section context.
func (r *EnrollmentRepository) FindDetail(ctx context.Context, key models.EnrollmentKey) (*models.EnrollmentDetail, error) {
	const query = `SELECT t.student_id, t.course_id, t.sec_id, t.semester, t.academic_year,
            t.cancelled, t.grade, t.enrollment_date,
            st.full_name AS student_name, s.time_slot, s.room
        FROM takes t
        JOIN students st ON st.id = t.student_id
        JOIN sections s ON s.course_id = t.course_id
            AND s.sec_id = t.sec_id
            AND s.semester = t.semester
            AND s.academic_year = t.academic_year
        WHERE t.student_id = $1 AND t.course_id = $2 AND t.sec_id = $3
            AND t.semester = $4 AND t.academic_year = $5`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, enrollmentKeyArgs(key)...); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UnsatisfiedPrereqs counts direct prerequisites of the course the student
// has not passed. A prerequisite counts as satisfied only with a
// non-cancelled takes row carrying a grade other than F; an in-progress,
// ungraded course does not satisfy it.
func (r *EnrollmentRepository) UnsatisfiedPrereqs(ctx context.Context, studentID int64, courseID string) (int, error) {
	return r.unsatisfiedPrereqs(ctx, r.db, studentID, courseID)
}

func (r *EnrollmentRepository) unsatisfiedPrereqs(ctx context.Context, q sqlx.QueryerContext, studentID int64, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM prerequisites p
        WHERE p.course_id = $1
            AND NOT EXISTS (
                SELECT 1 FROM takes t
                WHERE t.student_id = $2
                    AND t.course_id = p.prereq_id
                    AND t.cancelled = FALSE
                    AND t.grade IS NOT NULL
                    AND t.grade <> 'F')`
	var count int
	if err := sqlx.GetContext(ctx, q, &count, query, courseID, studentID); err != nil {
		return 0, appErrors.FromSQL(err, "check prerequisites")
	}
	return count, nil
}
