package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// TeachingRepository handles teaches rows.
type TeachingRepository struct {
	db *sqlx.DB
}

// NewTeachingRepository constructs the repository.
func NewTeachingRepository(db *sqlx.DB) *TeachingRepository {
	return &TeachingRepository{db: db}
}

// Assign links an instructor to a section. Assigning an already-assigned
// pair is a no-op.
func (r *TeachingRepository) Assign(ctx context.Context, row *models.Teaches) error {
	var exists bool
	const checkQuery = `SELECT EXISTS(SELECT 1 FROM sections
        WHERE course_id = $1 AND sec_id = $2 AND semester = $3 AND academic_year = $4)`
	if err := r.db.GetContext(ctx, &exists, checkQuery, row.CourseID, row.SectionID, row.Semester, row.AcademicYear); err != nil {
		return appErrors.FromSQL(err, "check section")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrRecordNotFound,
			fmt.Sprintf("section '%s-%s-%s-%d' not found", row.CourseID, row.SectionID, row.Semester, row.AcademicYear))
	}

	const query = `INSERT INTO teaches (instructor_id, course_id, sec_id, semester, academic_year)
        VALUES (:instructor_id, :course_id, :sec_id, :semester, :academic_year)
        ON CONFLICT (instructor_id, course_id, sec_id, semester, academic_year) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return appErrors.FromSQL(err, "assign instructor")
	}
	return nil
}

// Unassign removes an instructor from a section.
func (r *TeachingRepository) Unassign(ctx context.Context, row *models.Teaches) error {
	const query = `DELETE FROM teaches
        WHERE instructor_id = $1 AND course_id = $2 AND sec_id = $3 AND semester = $4 AND academic_year = $5`
	res, err := r.db.ExecContext(ctx, query, row.InstructorID, row.CourseID, row.SectionID, row.Semester, row.AcademicYear)
	if err != nil {
		return appErrors.FromSQL(err, "unassign instructor")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appErrors.Clone(appErrors.ErrRecordNotFound,
			fmt.Sprintf("teaches row '%d-%s-%s-%s-%d' not found",
				row.InstructorID, row.CourseID, row.SectionID, row.Semester, row.AcademicYear))
	}
	return nil
}
