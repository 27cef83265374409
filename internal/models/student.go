package models

import (
	"time"

	"github.com/campusworks/registrar-api/internal/validation"
)

// Student is keyed by a store-generated numeric id.
type Student struct {
	ID             int64                    `db:"id" json:"id"`
	FullName       string                   `db:"full_name" json:"full_name"`
	DeptName       string                   `db:"dept_name" json:"dept_name"`
	Major          *string                  `db:"major" json:"major,omitempty"`
	TotalCredits   int                      `db:"total_credits" json:"total_credits"`
	Email          validation.Email         `db:"email" json:"email"`
	EnrollmentDate *time.Time               `db:"enrollment_date" json:"enrollment_date,omitempty"`
	Status         validation.StudentStatus `db:"status" json:"status"`
}

// StudentUpdate carries mutable student fields; the id is unchangeable.
type StudentUpdate struct {
	FullName       *string `json:"full_name"`
	DeptName       *string `json:"dept_name"`
	Major          *string `json:"major"`
	TotalCredits   *int    `json:"total_credits"`
	Email          *string `json:"email"`
	EnrollmentDate *string `json:"enrollment_date"`
	Status         *string `json:"status"`
}

// StudentFilter narrows student listings and searches.
type StudentFilter struct {
	DeptName string
	Major    string
	Status   string
	Email    string
	Page     int
	PageSize int
}

// TranscriptEntry is one graded, non-cancelled enrollment on a transcript.
type TranscriptEntry struct {
	CourseID       string              `db:"course_id" json:"course_id"`
	Title          string              `db:"title" json:"title"`
	Credits        int                 `db:"credits" json:"credits"`
	Semester       validation.Semester `db:"semester" json:"semester"`
	AcademicYear   int                 `db:"academic_year" json:"academic_year"`
	Grade          validation.Grade    `db:"grade" json:"grade"`
	EnrollmentDate time.Time           `db:"enrollment_date" json:"enrollment_date"`
}

// GradeCredit pairs a stored grade with its course's credit weight.
type GradeCredit struct {
	Credits int              `db:"credits"`
	Grade   validation.Grade `db:"grade"`
}

// GPAResult is the computed grade point average over graded coursework.
type GPAResult struct {
	StudentID     int64   `json:"student_id"`
	GPA           float64 `json:"gpa"`
	GradedCredits int     `json:"graded_credits"`
}
