package models

// Department owns students, instructors and courses by foreign reference.
// Deleting one is rejected by the store while any of them still point at it.
type Department struct {
	Name     string  `db:"dept_name" json:"name"`
	Phone    string  `db:"phone" json:"phone"`
	Budget   float64 `db:"budget" json:"budget"`
	Building string  `db:"building" json:"building"`
	DeanName string  `db:"dean_name" json:"dean_name"`
}

// DepartmentUpdate carries the mutable department fields; nil means unchanged.
type DepartmentUpdate struct {
	Phone    *string  `json:"phone"`
	Budget   *float64 `json:"budget"`
	Building *string  `json:"building"`
	DeanName *string  `json:"dean_name"`
}
