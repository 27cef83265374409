package models

import "github.com/campusworks/registrar-api/internal/validation"

// Teaches links an instructor to a section. It has no capacity semantics.
type Teaches struct {
	InstructorID int64               `db:"instructor_id" json:"instructor_id"`
	CourseID     string              `db:"course_id" json:"course_id"`
	SectionID    string              `db:"sec_id" json:"section_id"`
	Semester     validation.Semester `db:"semester" json:"semester"`
	AcademicYear int                 `db:"academic_year" json:"academic_year"`
}
