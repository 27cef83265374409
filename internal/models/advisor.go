package models

import "time"

// Advisor records a student's current advisor. The store keys this by student
// id alone, so a student has at most one row and reassignment overwrites the
// previous one, history included.
type Advisor struct {
	StudentID    int64      `db:"student_id" json:"student_id"`
	InstructorID *int64     `db:"instructor_id" json:"instructor_id,omitempty"`
	StartDate    *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
}

// AdvisorInfo enriches Advisor with student and instructor detail.
type AdvisorInfo struct {
	Advisor
	StudentName   string  `db:"student_name" json:"student_name"`
	AdvisorName   *string `db:"advisor_name" json:"advisor_name,omitempty"`
	AdvisorEmail  *string `db:"advisor_email" json:"advisor_email,omitempty"`
	AdvisorOffice *string `db:"advisor_office" json:"advisor_office,omitempty"`
}
