package models

import "github.com/campusworks/registrar-api/internal/validation"

// SectionKey identifies a scheduled course offering.
type SectionKey struct {
	CourseID     string              `db:"course_id" json:"course_id"`
	SectionID    string              `db:"sec_id" json:"section_id"`
	Semester     validation.Semester `db:"semester" json:"semester"`
	AcademicYear int                 `db:"academic_year" json:"academic_year"`
}

// Section is a scheduled offering with its own roster and capacity. The store
// and the orchestrator jointly maintain 0 <= Enrolled <= Capacity on every
// mutation, not only at creation.
type Section struct {
	SectionKey
	TimeSlot validation.TimeSlot `db:"time_slot" json:"time_slot"`
	Room     string              `db:"room" json:"room"`
	Capacity int                 `db:"capacity" json:"capacity"`
	Enrolled int                 `db:"enrolled" json:"enrolled"`
}

// SectionDetail enriches Section with course and instructor context.
type SectionDetail struct {
	Section
	Title          string  `db:"title" json:"title"`
	Credits        int     `db:"credits" json:"credits"`
	DeptName       string  `db:"dept_name" json:"dept_name"`
	InstructorID   *int64  `db:"instructor_id" json:"instructor_id,omitempty"`
	InstructorName *string `db:"instructor_name" json:"instructor_name,omitempty"`
}

// SectionUpdate carries mutable section fields; nil means unchanged.
// Capacity changes are still subject to the roster invariant.
type SectionUpdate struct {
	TimeSlot *string `json:"time_slot"`
	Room     *string `json:"room"`
	Capacity *int    `json:"capacity"`
}

// SectionFilter narrows section listings by term.
type SectionFilter struct {
	Semester     string
	AcademicYear int
}
