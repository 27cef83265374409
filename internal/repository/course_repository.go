package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// CourseRepository handles persistence of courses and prerequisite edges.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (course_id, title, credits, dept_name, description)
        VALUES (:course_id, :title, :credits, :dept_name, :description)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return appErrors.FromSQL(err, "create course")
	}
	return nil
}

// Update applies the provided field changes.
func (r *CourseRepository) Update(ctx context.Context, id string, upd models.CourseUpdate) error {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Credits != nil {
		add("credits", *upd.Credits)
	}
	if upd.DeptName != nil {
		add("dept_name", *upd.DeptName)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if len(sets) == 0 {
		return appErrors.Clone(appErrors.ErrIncorrectValue, "no updates provided")
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE courses SET %s WHERE course_id = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return appErrors.FromSQL(err, "update course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("course '%s' not found", id))
	}
	return nil
}

// Delete removes a course. The store cascades removal of prerequisite edges
// where this course is the dependent, and leaves edges dangling where it is
// the prerequisite; that asymmetry is the declared schema policy.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE course_id = $1", id)
	if err != nil {
		return appErrors.FromSQL(err, "delete course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("course '%s' not found", id))
	}
	return nil
}

// FindByID returns a course by its catalog id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT course_id, title, credits, dept_name, description FROM courses WHERE course_id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Exists reports whether a course exists.
func (r *CourseRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM courses WHERE course_id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check course: %w", err)
	}
	return exists, nil
}

// List returns courses, optionally filtered by department.
func (r *CourseRepository) List(ctx context.Context, deptName string) ([]models.Course, error) {
	query := `SELECT course_id, title, credits, dept_name, description FROM courses`
	var args []interface{}
	if deptName != "" {
		query += " WHERE dept_name = $1"
		args = append(args, deptName)
	}
	query += " ORDER BY course_id"
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// AddPrerequisite inserts a directed edge requiring prereqID before courseID.
func (r *CourseRepository) AddPrerequisite(ctx context.Context, courseID, prereqID string) error {
	const query = `INSERT INTO prerequisites (course_id, prereq_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, courseID, prereqID); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrDatabase.Code, appErrors.ErrDatabase.Status,
				fmt.Sprintf("course '%s' already requires '%s'", courseID, prereqID))
		}
		return appErrors.FromSQL(err, "add prerequisite")
	}
	return nil
}

// RemovePrerequisite deletes a prerequisite edge.
func (r *CourseRepository) RemovePrerequisite(ctx context.Context, courseID, prereqID string) error {
	const query = `DELETE FROM prerequisites WHERE course_id = $1 AND prereq_id = $2`
	res, err := r.db.ExecContext(ctx, query, courseID, prereqID)
	if err != nil {
		return appErrors.FromSQL(err, "remove prerequisite")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound,
			fmt.Sprintf("prerequisite edge '%s' -> '%s' not found", courseID, prereqID))
	}
	return nil
}

// ListPrerequisites returns the direct prerequisites of a course.
func (r *CourseRepository) ListPrerequisites(ctx context.Context, courseID string) ([]models.Prerequisite, error) {
	const query = `SELECT course_id, prereq_id FROM prerequisites WHERE course_id = $1 ORDER BY prereq_id`
	var edges []models.Prerequisite
	if err := r.db.SelectContext(ctx, &edges, query, courseID); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	return edges, nil
}
