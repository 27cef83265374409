package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// DepartmentRepository handles persistence of departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// Create persists a new department.
func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	const query = `INSERT INTO departments (dept_name, phone, budget, building, dean_name)
        VALUES (:dept_name, :phone, :budget, :building, :dean_name)`
	if _, err := r.db.NamedExecContext(ctx, query, dept); err != nil {
		return appErrors.FromSQL(err, "create department")
	}
	return nil
}

// Update applies the provided field changes to an existing department.
func (r *DepartmentRepository) Update(ctx context.Context, name string, upd models.DepartmentUpdate) error {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Budget != nil {
		add("budget", *upd.Budget)
	}
	if upd.Building != nil {
		add("building", *upd.Building)
	}
	if upd.DeanName != nil {
		add("dean_name", *upd.DeanName)
	}
	if len(sets) == 0 {
		return appErrors.Clone(appErrors.ErrIncorrectValue, "no updates provided")
	}
	args = append(args, name)
	query := fmt.Sprintf("UPDATE departments SET %s WHERE dept_name = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return appErrors.FromSQL(err, "update department")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("department '%s' not found", name))
	}
	return nil
}

// Delete removes a department. The store rejects the delete while any
// student, instructor or course still references it.
func (r *DepartmentRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM departments WHERE dept_name = $1", name)
	if err != nil {
		if appErrors.IsForeignKeyViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status,
				fmt.Sprintf("department '%s' is still referenced by students, instructors or courses", name))
		}
		return appErrors.FromSQL(err, "delete department")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("department '%s' not found", name))
	}
	return nil
}

// FindByName returns a department by its name.
func (r *DepartmentRepository) FindByName(ctx context.Context, name string) (*models.Department, error) {
	const query = `SELECT dept_name, phone, budget, building, dean_name FROM departments WHERE dept_name = $1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, name); err != nil {
		return nil, err
	}
	return &dept, nil
}

// List returns all departments ordered by name.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT dept_name, phone, budget, building, dean_name FROM departments ORDER BY dept_name`
	var depts []models.Department
	if err := r.db.SelectContext(ctx, &depts, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return depts, nil
}

// Exists reports whether a department exists.
func (r *DepartmentRepository) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM departments WHERE dept_name = $1)`
	if err := r.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("check department: %w", err)
	}
	return exists, nil
}
