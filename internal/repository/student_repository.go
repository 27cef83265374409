package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create persists a new student and fills in the store-generated id.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (full_name, dept_name, major, total_credits, email, enrollment_date, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.GetContext(ctx, &student.ID, query,
		student.FullName, student.DeptName, student.Major, student.TotalCredits,
		student.Email, student.EnrollmentDate, student.Status)
	if err != nil {
		if appErrors.IsUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status,
				fmt.Sprintf("student email '%s' is already registered", student.Email))
		}
		return appErrors.FromSQL(err, "create student")
	}
	return nil
}

// Update applies the provided field changes. The id is unchangeable.
func (r *StudentRepository) Update(ctx context.Context, id int64, upd models.StudentUpdate) error {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.DeptName != nil {
		add("dept_name", *upd.DeptName)
	}
	if upd.Major != nil {
		add("major", *upd.Major)
	}
	if upd.TotalCredits != nil {
		add("total_credits", *upd.TotalCredits)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.EnrollmentDate != nil {
		add("enrollment_date", *upd.EnrollmentDate)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if len(sets) == 0 {
		return appErrors.Clone(appErrors.ErrIncorrectValue, "no updates provided")
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return appErrors.FromSQL(err, "update student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("student %d not found", id))
	}
	return nil
}

// Delete removes a student. The store cascades removal of the student's
// takes and advisor rows.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return appErrors.FromSQL(err, "delete student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("student %d not found", id))
	}
	return nil
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	const query = `SELECT id, full_name, dept_name, major, total_credits, email, enrollment_date, status
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Exists reports whether a student exists.
func (r *StudentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check student: %w", err)
	}
	return exists, nil
}

// Search returns students matching the filter criteria.
func (r *StudentRepository) Search(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students"
	var conditions []string
	var args []interface{}

	if filter.DeptName != "" {
		args = append(args, filter.DeptName)
		conditions = append(conditions, fmt.Sprintf("dept_name = $%d", len(args)))
	}
	if filter.Major != "" {
		args = append(args, filter.Major)
		conditions = append(conditions, fmt.Sprintf("major = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		conditions = append(conditions, fmt.Sprintf("email = $%d", len(args)))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, full_name, dept_name, major, total_credits, email, enrollment_date, status
        %s ORDER BY id LIMIT %d OFFSET %d`, base+clause, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Transcript returns the student's non-cancelled graded coursework ordered
// by term.
func (r *StudentRepository) Transcript(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error) {
	const query = `SELECT t.course_id, c.title, c.credits, t.semester, t.academic_year, t.grade, t.enrollment_date
        FROM takes t
        JOIN courses c ON c.course_id = t.course_id
        WHERE t.student_id = $1 AND t.cancelled = FALSE AND t.grade IS NOT NULL
        ORDER BY t.academic_year, t.semester, t.course_id`
	var entries []models.TranscriptEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	return entries, nil
}

// GradedCredits returns grade/credit pairs for GPA computation over all
// non-cancelled graded takes rows.
func (r *StudentRepository) GradedCredits(ctx context.Context, studentID int64) ([]models.GradeCredit, error) {
	const query = `SELECT c.credits, t.grade
        FROM takes t
        JOIN courses c ON c.course_id = t.course_id
        WHERE t.student_id = $1 AND t.cancelled = FALSE AND t.grade IS NOT NULL`
	var rows []models.GradeCredit
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("load graded credits: %w", err)
	}
	return rows, nil
}
