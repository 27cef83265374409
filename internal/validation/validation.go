// Package validation defines the typed field values used across registrar
// records. Each type has a single constructor that validates the raw input,
// so an invalid email, grade or time slot is unrepresentable past this
// boundary. Constructors are pure and safe to call outside any transaction.
package validation

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

// DateLayout is the only accepted date format.
const DateLayout = "2006-01-02"

// Email is a validated address of the form local@domain.
type Email string

// Semester names one of the four academic terms.
type Semester string

// Valid semesters.
const (
	SemesterFall   Semester = "Fall"
	SemesterWinter Semester = "Winter"
	SemesterSpring Semester = "Spring"
	SemesterSummer Semester = "Summer"
)

// Grade is one letter of the fixed twelve-symbol scale.
type Grade string

// AcademicRank is an instructor's rank.
type AcademicRank string

// Valid academic ranks.
const (
	RankAssistantProfessor AcademicRank = "Assistant Professor"
	RankAssociateProfessor AcademicRank = "Associate Professor"
	RankProfessor          AcademicRank = "Professor"
	RankLecturer           AcademicRank = "Lecturer"
	RankAdjunct            AcademicRank = "Adjunct"
)

// StudentStatus is a student's registration status.
type StudentStatus string

// Valid student statuses.
const (
	StatusActive    StudentStatus = "Active"
	StatusInactive  StudentStatus = "Inactive"
	StatusGraduated StudentStatus = "Graduated"
	StatusSuspended StudentStatus = "Suspended"
)

// TimeSlot is a validated meeting pattern, e.g. "TTh 14:00-15:15".
type TimeSlot string

// AcademicYear is a calendar year strictly between 1701 and 2100.
type AcademicYear int

// Credits is a course credit count in [1,4].
type Credits int

var gradePoints = map[Grade]float64{
	"A+": 4.0, "A": 4.0, "A-": 3.7,
	"B+": 3.3, "B": 3.0, "B-": 2.7,
	"C+": 2.3, "C": 2.0, "C-": 1.7,
	"D+": 1.3, "D": 1.0, "F": 0.0,
}

// Points returns the numeric grade point for GPA computation.
func (g Grade) Points() float64 {
	return gradePoints[g]
}

// IsPassing reports whether the grade satisfies a prerequisite. Only F fails;
// an absent grade is handled by callers, not by this type.
func (g Grade) IsPassing() bool {
	return g != "F"
}

func incorrectValue(field string, value interface{}) error {
	return appErrors.Clone(appErrors.ErrIncorrectValue,
		fmt.Sprintf("the value '%v' for field '%s' is not valid", value, field))
}

// ParseEmail validates a local@domain address with a non-empty local part and
// a dotted domain.
func ParseEmail(raw string) (Email, error) {
	at := strings.Index(raw, "@")
	if at <= 0 || at != strings.LastIndex(raw, "@") {
		return "", appErrors.Clone(appErrors.ErrInvalidEmail, fmt.Sprintf("email '%s' is not valid", raw))
	}
	domain := raw[at+1:]
	dot := strings.Index(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return "", appErrors.Clone(appErrors.ErrInvalidEmail, fmt.Sprintf("email '%s' is not valid", raw))
	}
	return Email(raw), nil
}

// ParseDate accepts YYYY-MM-DD only.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrUnsupportedDateFormat,
			fmt.Sprintf("date '%s' is not in YYYY-MM-DD format or is invalid", raw))
	}
	return t, nil
}

// ParseSemester validates the term name.
func ParseSemester(raw string) (Semester, error) {
	switch Semester(raw) {
	case SemesterFall, SemesterWinter, SemesterSpring, SemesterSummer:
		return Semester(raw), nil
	}
	return "", incorrectValue("semester", raw)
}

// ParseGrade validates one symbol of the letter scale.
func ParseGrade(raw string) (Grade, error) {
	if _, ok := gradePoints[Grade(raw)]; !ok {
		return "", incorrectValue("grade", raw)
	}
	return Grade(raw), nil
}

// ParseRank validates an academic rank.
func ParseRank(raw string) (AcademicRank, error) {
	switch AcademicRank(raw) {
	case RankAssistantProfessor, RankAssociateProfessor, RankProfessor, RankLecturer, RankAdjunct:
		return AcademicRank(raw), nil
	}
	return "", incorrectValue("academic rank", raw)
}

// ParseStudentStatus validates a student status.
func ParseStudentStatus(raw string) (StudentStatus, error) {
	switch StudentStatus(raw) {
	case StatusActive, StatusInactive, StatusGraduated, StatusSuspended:
		return StudentStatus(raw), nil
	}
	return "", incorrectValue("status", raw)
}

// ParseAcademicYear validates a year strictly between 1701 and 2100.
func ParseAcademicYear(year int) (AcademicYear, error) {
	if year <= 1701 || year >= 2100 {
		return 0, incorrectValue("academic_year", year)
	}
	return AcademicYear(year), nil
}

// ParseCredits validates a credit count in [1,4].
func ParseCredits(credits int) (Credits, error) {
	if credits < 1 || credits > 4 {
		return 0, incorrectValue("credits", credits)
	}
	return Credits(credits), nil
}

// NonNegativeAmount rejects negative money values (salary, budget).
func NonNegativeAmount(field string, amount float64) error {
	if amount < 0 {
		return incorrectValue(field, amount)
	}
	return nil
}

// PositiveCapacity rejects non-positive section capacities.
func PositiveCapacity(capacity int) error {
	if capacity <= 0 {
		return incorrectValue("capacity", capacity)
	}
	return nil
}

// ParseTimeSlot validates "<days> <HH:MM>-<HH:MM>" where <days> is a
// non-empty run of day codes (M, T, W, Th, F, S, Su) and the start time
// precedes the end time.
func ParseTimeSlot(raw string) (TimeSlot, error) {
	fail := func() (TimeSlot, error) {
		return "", appErrors.Clone(appErrors.ErrIncorrectTimeslot,
			fmt.Sprintf("timeslot '%s' is not of correct format; example of an acceptable timeslot: TTh 14:00-15:15", raw))
	}

	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !validDayCodes(parts[0]) {
		return fail()
	}

	times := strings.SplitN(parts[1], "-", 2)
	if len(times) != 2 {
		return fail()
	}
	start, err := minutesOfDay(times[0])
	if err != nil {
		return fail()
	}
	end, err := minutesOfDay(times[1])
	if err != nil {
		return fail()
	}
	if start >= end {
		return fail()
	}
	return TimeSlot(raw), nil
}

// validDayCodes scans the day pattern greedily; two-letter codes (Th, Su)
// take precedence over their single-letter prefixes.
func validDayCodes(days string) bool {
	if days == "" {
		return false
	}
	for i := 0; i < len(days); {
		rest := days[i:]
		if strings.HasPrefix(rest, "Th") || strings.HasPrefix(rest, "Su") {
			i += 2
			continue
		}
		switch days[i] {
		case 'M', 'T', 'W', 'F', 'S':
			i++
		default:
			return false
		}
	}
	return true
}

func minutesOfDay(raw string) (int, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// TermOf maps a point in time to the academic term it falls in.
func TermOf(t time.Time) (Semester, int) {
	switch t.Month() {
	case time.January, time.February:
		return SemesterWinter, t.Year()
	case time.March, time.April, time.May:
		return SemesterSpring, t.Year()
	case time.June, time.July, time.August:
		return SemesterSummer, t.Year()
	default:
		return SemesterFall, t.Year()
	}
}
