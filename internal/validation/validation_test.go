package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

func TestParseEmail(t *testing.T) {
	valid := []string{"jane@example.com", "a.b@dept.university.edu", "x@y.co"}
	for _, raw := range valid {
		email, err := ParseEmail(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Email(raw), email)
	}

	invalid := []string{"", "plain", "@example.com", "a@b", "a@b.", "a@@b.com", "two@at@b.com"}
	for _, raw := range invalid {
		_, err := ParseEmail(raw)
		assert.ErrorIs(t, err, appErrors.ErrInvalidEmail, raw)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-09-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), d)

	for _, raw := range []string{"2025/09/01", "01-09-2025", "2025-13-01", "2025-02-30", "yesterday", ""} {
		_, err := ParseDate(raw)
		assert.ErrorIs(t, err, appErrors.ErrUnsupportedDateFormat, raw)
	}
}

func TestParseSemester(t *testing.T) {
	for _, raw := range []string{"Fall", "Winter", "Spring", "Summer"} {
		sem, err := ParseSemester(raw)
		require.NoError(t, err)
		assert.Equal(t, Semester(raw), sem)
	}
	for _, raw := range []string{"fall", "Autumn", ""} {
		_, err := ParseSemester(raw)
		assert.ErrorIs(t, err, appErrors.ErrIncorrectValue, raw)
	}
}

func TestParseGrade(t *testing.T) {
	for _, raw := range []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "F"} {
		g, err := ParseGrade(raw)
		require.NoError(t, err)
		assert.Equal(t, Grade(raw), g)
	}
	for _, raw := range []string{"E", "a", "F-", "A++", ""} {
		_, err := ParseGrade(raw)
		assert.ErrorIs(t, err, appErrors.ErrIncorrectValue, raw)
	}
}

func TestGradePoints(t *testing.T) {
	assert.Equal(t, 4.0, Grade("A+").Points())
	assert.Equal(t, 4.0, Grade("A").Points())
	assert.Equal(t, 3.7, Grade("A-").Points())
	assert.Equal(t, 2.7, Grade("B-").Points())
	assert.Equal(t, 1.0, Grade("D").Points())
	assert.Equal(t, 0.0, Grade("F").Points())
}

func TestGradeIsPassing(t *testing.T) {
	assert.True(t, Grade("D").IsPassing())
	assert.True(t, Grade("A+").IsPassing())
	assert.False(t, Grade("F").IsPassing())
}

func TestParseAcademicYear(t *testing.T) {
	for _, year := range []int{1702, 2025, 2099} {
		parsed, err := ParseAcademicYear(year)
		require.NoError(t, err)
		assert.Equal(t, AcademicYear(year), parsed)
	}
	for _, year := range []int{1701, 1700, 2100, 2500, 0, -1} {
		_, err := ParseAcademicYear(year)
		assert.ErrorIs(t, err, appErrors.ErrIncorrectValue, year)
	}
}

func TestParseCredits(t *testing.T) {
	for _, c := range []int{1, 2, 3, 4} {
		parsed, err := ParseCredits(c)
		require.NoError(t, err)
		assert.Equal(t, Credits(c), parsed)
	}
	for _, c := range []int{0, 5, -3} {
		_, err := ParseCredits(c)
		assert.ErrorIs(t, err, appErrors.ErrIncorrectValue, c)
	}
}

func TestParseTimeSlot(t *testing.T) {
	valid := []string{
		"TTh 14:00-15:15",
		"MWF 09:00-09:50",
		"Su 08:00-10:00",
		"M 23:00-23:59",
		"ThSu 10:30-11:45",
	}
	for _, raw := range valid {
		slot, err := ParseTimeSlot(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, TimeSlot(raw), slot)
	}

	invalid := []string{
		"",
		"TTh",
		"TTh 14:00",
		"TTh 15:15-14:00",
		"TTh 14:00-14:00",
		"XYZ 14:00-15:15",
		"TTh 25:00-26:00",
		"TTh 14:00 15:15",
		"h 14:00-15:15",
	}
	for _, raw := range invalid {
		_, err := ParseTimeSlot(raw)
		assert.ErrorIs(t, err, appErrors.ErrIncorrectTimeslot, raw)
	}
}

func TestParseRank(t *testing.T) {
	ranks := []string{"Assistant Professor", "Associate Professor", "Professor", "Lecturer", "Adjunct"}
	for _, raw := range ranks {
		rank, err := ParseRank(raw)
		require.NoError(t, err)
		assert.Equal(t, AcademicRank(raw), rank)
	}
	_, err := ParseRank("Dean")
	assert.ErrorIs(t, err, appErrors.ErrIncorrectValue)
}

func TestParseStudentStatus(t *testing.T) {
	for _, raw := range []string{"Active", "Inactive", "Graduated", "Suspended"} {
		status, err := ParseStudentStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, StudentStatus(raw), status)
	}
	_, err := ParseStudentStatus("Expelled")
	assert.ErrorIs(t, err, appErrors.ErrIncorrectValue)
}

func TestNonNegativeAmount(t *testing.T) {
	assert.NoError(t, NonNegativeAmount("budget", 0))
	assert.NoError(t, NonNegativeAmount("budget", 120000.50))
	assert.ErrorIs(t, NonNegativeAmount("salary", -1), appErrors.ErrIncorrectValue)
}

func TestPositiveCapacity(t *testing.T) {
	assert.NoError(t, PositiveCapacity(1))
	assert.NoError(t, PositiveCapacity(300))
	assert.ErrorIs(t, PositiveCapacity(0), appErrors.ErrIncorrectValue)
	assert.ErrorIs(t, PositiveCapacity(-10), appErrors.ErrIncorrectValue)
}

func TestTermOf(t *testing.T) {
	cases := []struct {
		month    time.Month
		semester Semester
	}{
		{time.January, SemesterWinter},
		{time.February, SemesterWinter},
		{time.March, SemesterSpring},
		{time.May, SemesterSpring},
		{time.June, SemesterSummer},
		{time.August, SemesterSummer},
		{time.September, SemesterFall},
		{time.December, SemesterFall},
	}
	for _, tc := range cases {
		sem, year := TermOf(time.Date(2025, tc.month, 15, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, tc.semester, sem, tc.month.String())
		assert.Equal(t, 2025, year)
	}
}
