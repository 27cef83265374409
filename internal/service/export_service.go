package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/pkg/export"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type transcriptReader interface {
	Transcript(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error)
	CalculateGPA(ctx context.Context, studentID int64) (*models.GPAResult, error)
}

// ExportFile is a rendered document ready to stream to a client.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders student transcripts as CSV or PDF downloads.
type ExportService struct {
	transcripts transcriptReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	enabled     bool
	logger      *zap.Logger
}

func NewExportService(transcripts transcriptReader, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		transcripts: transcripts,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		enabled:     enabled,
		logger:      logger,
	}
}

var transcriptHeaders = []string{"Course", "Title", "Credits", "Semester", "Year", "Grade"}

// TranscriptExport renders the student's transcript in the requested format
// ("csv" or "pdf"). The GPA line is appended when the student has graded
// coursework and omitted otherwise.
func (s *ExportService) TranscriptExport(ctx context.Context, studentID int64, format string) (*ExportFile, error) {
	if !s.enabled {
		return nil, appErrors.New("EXPORTS_DISABLED", 403, "transcript exports are disabled")
	}
	entries, err := s.transcripts.Transcript(ctx, studentID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{Headers: transcriptHeaders}
	for _, entry := range entries {
		data.Rows = append(data.Rows, map[string]string{
			"Course":   entry.CourseID,
			"Title":    entry.Title,
			"Credits":  strconv.Itoa(entry.Credits),
			"Semester": string(entry.Semester),
			"Year":     strconv.Itoa(entry.AcademicYear),
			"Grade":    string(entry.Grade),
		})
	}
	gpa, err := s.transcripts.CalculateGPA(ctx, studentID)
	switch {
	case err == nil:
		data.Rows = append(data.Rows, map[string]string{
			"Course": "GPA",
			"Title":  fmt.Sprintf("%.2f over %d credits", gpa.GPA, gpa.GradedCredits),
		})
	case errors.Is(err, appErrors.ErrNoGradedCourses):
		// empty transcripts export without a GPA line
	default:
		return nil, err
	}

	stamp := uuid.NewString()[:8]
	var file *ExportFile
	switch format {
	case "csv":
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render transcript csv")
		}
		file = &ExportFile{
			FileName:    fmt.Sprintf("transcript-%d-%s.csv", studentID, stamp),
			ContentType: "text/csv",
			Content:     content,
		}
	case "pdf":
		content, err := s.pdf.Render(data, fmt.Sprintf("Transcript - Student %d", studentID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render transcript pdf")
		}
		file = &ExportFile{
			FileName:    fmt.Sprintf("transcript-%d-%s.pdf", studentID, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrIncorrectValue, fmt.Sprintf("unsupported export format '%s'", format))
	}

	s.logger.Info("transcript exported",
		zap.Int64("student_id", studentID),
		zap.String("format", format),
		zap.String("file", file.FileName),
	)
	return file, nil
}
