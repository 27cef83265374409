package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/validation"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type fakeTranscriptReader struct {
	entries []models.TranscriptEntry
	gpa     *models.GPAResult
	gpaErr  error
}

func (f *fakeTranscriptReader) Transcript(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error) {
	return f.entries, nil
}

func (f *fakeTranscriptReader) CalculateGPA(ctx context.Context, studentID int64) (*models.GPAResult, error) {
	if f.gpaErr != nil {
		return nil, f.gpaErr
	}
	return f.gpa, nil
}

func TestExportServiceTranscriptCSV(t *testing.T) {
	reader := &fakeTranscriptReader{
		entries: []models.TranscriptEntry{
			{CourseID: "CS101", Title: "Intro to CS", Credits: 3, Semester: validation.SemesterFall, AcademicYear: 2024, Grade: "A"},
			{CourseID: "MA201", Title: "Linear Algebra", Credits: 4, Semester: validation.SemesterSpring, AcademicYear: 2025, Grade: "B-"},
		},
		gpa: &models.GPAResult{StudentID: 7, GPA: 22.8 / 7.0, GradedCredits: 7},
	}
	svc := NewExportService(reader, true, nil)

	file, err := svc.TranscriptExport(context.Background(), 7, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.FileName, "transcript-7-"))
	assert.True(t, strings.HasSuffix(file.FileName, ".csv"))

	body := string(file.Content)
	assert.Contains(t, body, "Course,Title,Credits,Semester,Year,Grade")
	assert.Contains(t, body, "CS101,Intro to CS,3,Fall,2024,A")
	assert.Contains(t, body, "MA201,Linear Algebra,4,Spring,2025,B-")
	assert.Contains(t, body, "GPA,3.26 over 7 credits")
}

func TestExportServiceTranscriptCSVNoGrades(t *testing.T) {
	reader := &fakeTranscriptReader{
		gpaErr: appErrors.ErrNoGradedCourses,
	}
	svc := NewExportService(reader, true, nil)

	file, err := svc.TranscriptExport(context.Background(), 7, "csv")
	require.NoError(t, err)
	assert.NotContains(t, string(file.Content), "GPA")
}

func TestExportServiceTranscriptPDF(t *testing.T) {
	reader := &fakeTranscriptReader{
		entries: []models.TranscriptEntry{
			{CourseID: "CS101", Title: "Intro to CS", Credits: 3, Semester: validation.SemesterFall, AcademicYear: 2024, Grade: "A"},
		},
		gpa: &models.GPAResult{StudentID: 7, GPA: 4.0, GradedCredits: 3},
	}
	svc := NewExportService(reader, true, nil)

	file, err := svc.TranscriptExport(context.Background(), 7, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc := NewExportService(&fakeTranscriptReader{gpaErr: appErrors.ErrNoGradedCourses}, true, nil)
	_, err := svc.TranscriptExport(context.Background(), 7, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrIncorrectValue)
}

func TestExportServiceDisabled(t *testing.T) {
	svc := NewExportService(&fakeTranscriptReader{}, false, nil)
	_, err := svc.TranscriptExport(context.Background(), 7, "csv")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "EXPORTS_DISABLED", appErr.Code)
}
