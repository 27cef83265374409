package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/validation"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// InstructorRepository handles persistence of instructors.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs the repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// Create persists a new instructor and fills in the store-generated id.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	const query = `INSERT INTO instructors (full_name, dept_name, academic_rank, salary, email, hire_date, office_number)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.GetContext(ctx, &instructor.ID, query,
		instructor.FullName, instructor.DeptName, instructor.AcademicRank, instructor.Salary,
		instructor.Email, instructor.HireDate, instructor.OfficeNumber)
	if err != nil {
		if appErrors.IsUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status,
				fmt.Sprintf("instructor email '%s' is already registered", instructor.Email))
		}
		return appErrors.FromSQL(err, "create instructor")
	}
	return nil
}

// Update applies the provided field changes.
func (r *InstructorRepository) Update(ctx context.Context, id int64, upd models.InstructorUpdate) error {
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
	if upd.AcademicRank != nil {
		add("academic_rank", *upd.AcademicRank)
	}
	if upd.Salary != nil {
		add("salary", *upd.Salary)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.HireDate != nil {
		add("hire_date", *upd.HireDate)
	}
	if upd.OfficeNumber != nil {
		add("office_number", *upd.OfficeNumber)
	}
	if len(sets) == 0 {
		return appErrors.Clone(appErrors.ErrIncorrectValue, "no updates provided")
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE instructors SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return appErrors.FromSQL(err, "update instructor")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("instructor %d not found", id))
	}
	return nil
}

// Delete removes an instructor. The store cascades removal of teaches rows
// and nulls the instructor reference on advisor rows.
func (r *InstructorRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM instructors WHERE id = $1", id)
	if err != nil {
		return appErrors.FromSQL(err, "delete instructor")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("instructor %d not found", id))
	}
	return nil
}

// FindByID returns an instructor by id.
func (r *InstructorRepository) FindByID(ctx context.Context, id int64) (*models.Instructor, error) {
	const query = `SELECT id, full_name, dept_name, academic_rank, salary, email, hire_date, office_number
        FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// Exists reports whether an instructor exists.
func (r *InstructorRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM instructors WHERE id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check instructor: %w", err)
	}
	return exists, nil
}

// List returns instructors, optionally filtered by department.
func (r *InstructorRepository) List(ctx context.Context, deptName string) ([]models.Instructor, error) {
	query := `SELECT id, full_name, dept_name, academic_rank, salary, email, hire_date, office_number FROM instructors`
	var args []interface{}
	if deptName != "" {
		query += " WHERE dept_name = $1"
		args = append(args, deptName)
	}
	query += " ORDER BY id"
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

// Workload returns the sections an instructor teaches in a term.
func (r *InstructorRepository) Workload(ctx context.Context, instructorID int64, semester validation.Semester, year int) ([]models.WorkloadEntry, error) {
	const query = `SELECT t.course_id, t.sec_id, s.time_slot, s.room
        FROM teaches t
        JOIN sections s ON s.course_id = t.course_id
            AND s.sec_id = t.sec_id
            AND s.semester = t.semester
            AND s.academic_year = t.academic_year
        WHERE t.instructor_id = $1 AND t.semester = $2 AND t.academic_year = $3
        ORDER BY t.course_id, t.sec_id`
	var entries []models.WorkloadEntry
	if err := r.db.SelectContext(ctx, &entries, query, instructorID, semester, year); err != nil {
		return nil, fmt.Errorf("load workload: %w", err)
	}
	return entries, nil
}
