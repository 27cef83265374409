package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/campusworks/registrar-api/internal/models"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// AdvisorRepository handles advisor rows, one per student.
type AdvisorRepository struct {
	db *sqlx.DB
}

// NewAdvisorRepository constructs the repository.
func NewAdvisorRepository(db *sqlx.DB) *AdvisorRepository {
	return &AdvisorRepository{db: db}
}

// Upsert writes the student's advisor row. The table is keyed by student id
// alone, so an existing row is overwritten wholesale, prior start and end
// dates included.
func (r *AdvisorRepository) Upsert(ctx context.Context, advisor *models.Advisor) error {
	const query = `INSERT INTO advisors (student_id, instructor_id, start_date, end_date)
        VALUES (:student_id, :instructor_id, :start_date, :end_date)
        ON CONFLICT (student_id)
        DO UPDATE SET instructor_id = EXCLUDED.instructor_id,
            start_date = EXCLUDED.start_date,
            end_date = EXCLUDED.end_date`
	if _, err := r.db.NamedExecContext(ctx, query, advisor); err != nil {
		return appErrors.FromSQL(err, "assign advisor")
	}
	return nil
}

// FindInfo returns a student's advisor row with student and instructor
// detail.
func (r *AdvisorRepository) FindInfo(ctx context.Context, studentID int64) (*models.AdvisorInfo, error) {
	const query = `SELECT a.student_id, a.instructor_id, a.start_date, a.end_date,
            s.full_name AS student_name,
            i.full_name AS advisor_name, i.email AS advisor_email, i.office_number AS advisor_office
        FROM advisors a
        JOIN students s ON s.id = a.student_id
        LEFT JOIN instructors i ON i.id = a.instructor_id
        WHERE a.student_id = $1`
	var info models.AdvisorInfo
	if err := r.db.GetContext(ctx, &info, query, studentID); err != nil {
		return nil, err
	}
	return &info, nil
}
