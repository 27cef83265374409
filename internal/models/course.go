package models

import "github.com/campusworks/registrar-api/internal/validation"

// Course is keyed by its catalog id, e.g. "CS101".
type Course struct {
	ID          string             `db:"course_id" json:"id"`
	Title       string             `db:"title" json:"title"`
	Credits     validation.Credits `db:"credits" json:"credits"`
	DeptName    string             `db:"dept_name" json:"dept_name"`
	Description *string            `db:"description" json:"description,omitempty"`
}

// CourseUpdate carries mutable course fields; nil means unchanged.
type CourseUpdate struct {
	Title       *string `json:"title"`
	Credits     *int    `json:"credits"`
	DeptName    *string `json:"dept_name"`
	Description *string `json:"description"`
}

// Prerequisite is one directed edge in the course dependency graph: taking
// CourseID requires PrereqID first. Deleting the dependent course removes the
// edge; deleting the prerequisite course leaves the edge dangling.
type Prerequisite struct {
	CourseID string `db:"course_id" json:"course_id"`
	PrereqID string `db:"prereq_id" json:"prereq_id"`
}
