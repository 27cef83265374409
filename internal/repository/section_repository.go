package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// SectionRepository handles persistence of course sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func sectionKeyClause(firstArg int) string {
	return fmt.Sprintf("course_id = $%d AND sec_id = $%d AND semester = $%d AND academic_year = $%d",
		firstArg, firstArg+1, firstArg+2, firstArg+3)
}

func keyArgs(key models.SectionKey) []interface{} {
	return []interface{}{key.CourseID, key.SectionID, key.Semester, key.AcademicYear}
}

// Create persists a new section with an empty roster.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	section.Enrolled = 0
	const query = `INSERT INTO sections (course_id, sec_id, semester, academic_year, time_slot, room, capacity, enrolled)
        VALUES (:course_id, :sec_id, :semester, :academic_year, :time_slot, :room, :capacity, :enrolled)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return appErrors.FromSQL(err, "create section")
	}
	return nil
}

// Update applies the provided field changes. Capacity shrinks below the
// current roster are rejected by the store's check constraint.
func (r *SectionRepository) Update(ctx context.Context, key models.SectionKey, upd models.SectionUpdate) error {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.TimeSlot != nil {
		add("time_slot", *upd.TimeSlot)
	}
	if upd.Room != nil {
		add("room", *upd.Room)
	}
	if upd.Capacity != nil {
		add("capacity", *upd.Capacity)
	}
	if len(sets) == 0 {
		return appErrors.Clone(appErrors.ErrIncorrectValue, "no updates provided")
	}
	clause := sectionKeyClause(len(args) + 1)
	args = append(args, keyArgs(key)...)
	query := fmt.Sprintf("UPDATE sections SET %s WHERE %s", strings.Join(sets, ", "), clause)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return appErrors.FromSQL(err, "update section")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("section '%s' not found", sectionLabel(key)))
	}
	return nil
}

// Delete removes a section.
func (r *SectionRepository) Delete(ctx context.Context, key models.SectionKey) error {
	query := "DELETE FROM sections WHERE " + sectionKeyClause(1)
	res, err := r.db.ExecContext(ctx, query, keyArgs(key)...)
	if err != nil {
		return appErrors.FromSQL(err, "delete section")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("section '%s' not found", sectionLabel(key)))
	}
	return nil
}

// Find returns a bare section row.
func (r *SectionRepository) Find(ctx context.Context, key models.SectionKey) (*models.Section, error) {
	query := `SELECT course_id, sec_id, semester, academic_year, time_slot, room, capacity, enrolled
        FROM sections WHERE ` + sectionKeyClause(1)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, keyArgs(key)...); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindDetail returns a section with course and instructor context.
func (r *SectionRepository) FindDetail(ctx context.Context, key models.SectionKey) (*models.SectionDetail, error) {
	query := `SELECT s.course_id, s.sec_id, s.semester, s.academic_year,
            s.time_slot, s.room, s.capacity, s.enrolled,
            c.title, c.credits, c.dept_name,
            i.id AS instructor_id, i.full_name AS instructor_name
        FROM sections s
        JOIN courses c ON c.course_id = s.course_id
        LEFT JOIN teaches t ON t.course_id = s.course_id
            AND t.sec_id = s.sec_id
            AND t.semester = s.semester
            AND t.academic_year = s.academic_year
        LEFT JOIN instructors i ON i.id = t.instructor_id
        WHERE s.course_id = $1 AND s.sec_id = $2 AND s.semester = $3 AND s.academic_year = $4`
	var detail models.SectionDetail
	if err := r.db.GetContext(ctx, &detail, query, keyArgs(key)...); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns sections with course and instructor detail, optionally
// filtered by term.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	query := `SELECT s.course_id, s.sec_id, s.semester, s.academic_year,
            s.time_slot, s.room, s.capacity, s.enrolled,
            c.title, c.credits, c.dept_name,
            i.id AS instructor_id, i.full_name AS instructor_name
        FROM sections s
        JOIN courses c ON c.course_id = s.course_id
        LEFT JOIN teaches t ON t.course_id = s.course_id
            AND t.sec_id = s.sec_id
            AND t.semester = s.semester
            AND t.academic_year = s.academic_year
        LEFT JOIN instructors i ON i.id = t.instructor_id`

	var conditions []string
	var args []interface{}
	if filter.Semester != "" {
		args = append(args, filter.Semester)
		conditions = append(conditions, fmt.Sprintf("s.semester = $%d", len(args)))
	}
	if filter.AcademicYear != 0 {
		args = append(args, filter.AcademicYear)
		conditions = append(conditions, fmt.Sprintf("s.academic_year = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.academic_year, s.semester, s.course_id, s.sec_id"

	var sections []models.SectionDetail
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

func sectionLabel(key models.SectionKey) string {
	return fmt.Sprintf("%s-%s-%s-%d", key.CourseID, key.SectionID, key.Semester, key.AcademicYear)
}
