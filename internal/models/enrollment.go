package models

import (
	"time"

	"github.com/campusworks/registrar-api/internal/validation"
)

// Takes is one student's enrollment in one section. Cancelled rows stay on
// record but never count toward rosters or GPA.
type Takes struct {
	StudentID      int64               `db:"student_id" json:"student_id"`
	CourseID       string              `db:"course_id" json:"course_id"`
	SectionID      string              `db:"sec_id" json:"section_id"`
	Semester       validation.Semester `db:"semester" json:"semester"`
	AcademicYear   int                 `db:"academic_year" json:"academic_year"`
	Cancelled      bool                `db:"cancelled" json:"cancelled"`
	Grade          *validation.Grade   `db:"grade" json:"grade,omitempty"`
	EnrollmentDate time.Time           `db:"enrollment_date" json:"enrollment_date"`
}

// EnrollmentKey identifies one Takes row.
type EnrollmentKey struct {
	StudentID    int64               `json:"student_id"`
	CourseID     string              `json:"course_id"`
	SectionID    string              `json:"section_id"`
	Semester     validation.Semester `json:"semester"`
	AcademicYear int                 `json:"academic_year"`
}

// EnrollmentDetail enriches Takes with student and section context.
type EnrollmentDetail struct {
	Takes
	StudentName string              `db:"student_name" json:"student_name"`
	TimeSlot    validation.TimeSlot `db:"time_slot" json:"time_slot"`
	Room        string              `db:"room" json:"room"`
}
