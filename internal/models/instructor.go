package models

import (
	"time"

	"github.com/campusworks/registrar-api/internal/validation"
)

// Instructor is keyed by a store-generated numeric id.
type Instructor struct {
	ID           int64                   `db:"id" json:"id"`
	FullName     string                  `db:"full_name" json:"full_name"`
	DeptName     string                  `db:"dept_name" json:"dept_name"`
	AcademicRank validation.AcademicRank `db:"academic_rank" json:"academic_rank"`
	Salary       float64                 `db:"salary" json:"salary"`
	Email        validation.Email        `db:"email" json:"email"`
	HireDate     *time.Time              `db:"hire_date" json:"hire_date,omitempty"`
	OfficeNumber *string                 `db:"office_number" json:"office_number,omitempty"`
}

// InstructorUpdate carries mutable instructor fields; nil means unchanged.
type InstructorUpdate struct {
	FullName     *string  `json:"full_name"`
	DeptName     *string  `json:"dept_name"`
	AcademicRank *string  `json:"academic_rank"`
	Salary       *float64 `json:"salary"`
	Email        *string  `json:"email"`
	HireDate     *string  `json:"hire_date"`
	OfficeNumber *string  `json:"office_number"`
}

// WorkloadEntry is one section an instructor teaches in a term.
type WorkloadEntry struct {
	CourseID  string              `db:"course_id" json:"course_id"`
	SectionID string              `db:"sec_id" json:"section_id"`
	TimeSlot  validation.TimeSlot `db:"time_slot" json:"time_slot"`
	Room      string              `db:"room" json:"room"`
}
