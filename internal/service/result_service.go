package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Kirusnabavani/UCMS/internal/models"
	appErrors "github.com/Kirusnabavani/UCMS/pkg/errors"
	"github.com/Kirusnabavani/UCMS/pkg/export"
)

type resultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	FindByPair(ctx context.Context, studentID, courseID string) (*models.Result, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ResultDetail, error)
}

type registrationReader interface {
	FindByPair(ctx context.Context, studentID, courseID string) (*models.Registration, error)
}

// AssignResultRequest describes a result assignment payload.
type AssignResultRequest struct {
	StudentID      string  `json:"studentId" validate:"required"`
	CourseID       string  `json:"courseId" validate:"required"`
	RegistrationID string  `json:"registrationId" validate:"required"`
	Grade          string  `json:"grade" validate:"required"`
	Score          float64 `json:"score"`
	Feedback       *string `json:"feedback"`
}

// gradePoints maps letter grades to 4.0-scale points for the transcript
// GPA summary.
var gradePoints = map[string]float64{
	"A+": 4.0, "A": 4.0, "A-": 3.7,
	"B+": 3.3, "B": 3.0, "B-": 2.7,
	"C+": 2.3, "C": 2.0, "C-": 1.7,
	"D+": 1.3, "D": 1.0, "D-": 0.7,
	"F": 0.0,
}

// ResultService records finalized grades. A result never mutates the
// registration it references; the two ledgers stay independent.
type ResultService struct {
	repo          resultRepository
	registrations registrationReader
	validator     *validator.Validate
	pdf           *export.PDFExporter
	logger        *zap.Logger
}

// NewResultService constructs ResultService.
func NewResultService(repo resultRepository, registrations registrationReader, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{repo: repo, registrations: registrations, validator: validate, pdf: export.NewPDFExporter(), logger: logger}
}

// Assign creates a result for a (student, course) pair. At most one result
// may exist per pair; results are immutable once created.
func (s *ResultService) Assign(ctx context.Context, claims *models.JWTClaims, req AssignResultRequest) (*models.Result, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}

	var fields []appErrors.FieldError
	if !models.ValidResultGrade(req.Grade) {
		fields = append(fields, appErrors.FieldError{Field: "grade", Message: "Invalid grade"})
	}
	if req.Score < 0 || req.Score > 100 {
		fields = append(fields, appErrors.FieldError{Field: "score", Message: "Score must be between 0 and 100"})
	}
	if len(fields) > 0 {
		return nil, appErrors.WithFields("invalid result payload", fields)
	}

	registration, err := s.registrations.FindByPair(ctx, req.StudentID, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if registration.ID != req.RegistrationID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Registration not found")
	}

	result := &models.Result{
		StudentID:      req.StudentID,
		CourseID:       req.CourseID,
		RegistrationID: req.RegistrationID,
		Grade:          req.Grade,
		Score:          req.Score,
		Feedback:       req.Feedback,
		AssignedBy:     claims.UserID,
	}
	if err := s.repo.Create(ctx, result); err != nil {
		return nil, passthrough(err, "failed to create result")
	}
	s.logger.Info("result assigned",
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
		zap.String("grade", req.Grade),
	)
	return result, nil
}

// ListForStudent returns the authenticated student's results with course
// details.
func (s *ResultService) ListForStudent(ctx context.Context, claims *models.JWTClaims) ([]models.ResultDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	results, err := s.repo.ListByStudent(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// Transcript renders the authenticated student's results as a PDF with a
// GPA and credit summary.
func (s *ResultService) Transcript(ctx context.Context, claims *models.JWTClaims) ([]byte, error) {
	results, err := s.ListForStudent(ctx, claims)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Course", "Semester", "Credits", "Grade", "Score"},
	}
	totalCredits := 0
	weighted := 0.0
	for _, res := range results {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":   res.CourseTitle,
			"Semester": fmt.Sprintf("%s %d", res.CourseSemester, res.CourseYear),
			"Credits":  fmt.Sprintf("%d", res.CourseCredits),
			"Grade":    res.Grade,
			"Score":    fmt.Sprintf("%.1f", res.Score),
		})
		totalCredits += res.CourseCredits
		weighted += gradePoints[res.Grade] * float64(res.CourseCredits)
	}

	summary := []string{fmt.Sprintf("Total credits: %d", totalCredits)}
	if totalCredits > 0 {
		summary = append(summary, fmt.Sprintf("GPA: %.2f", weighted/float64(totalCredits)))
	}

	payload, err := s.pdf.Render(dataset, "Academic Transcript", summary...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}
	return payload, nil
}
