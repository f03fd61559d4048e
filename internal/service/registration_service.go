package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kirusnabavani/UCMS/internal/models"
	appErrors "github.com/Kirusnabavani/UCMS/pkg/errors"
	"github.com/Kirusnabavani/UCMS/pkg/export"
)

type registrationRepository interface {
	Register(ctx context.Context, studentID, courseID string) (*models.Registration, error)
	Drop(ctx context.Context, studentID, courseID string) (*models.Registration, error)
	FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseRegistration, error)
}

type registrationObserver interface {
	ObserveRegistration(operation, outcome string)
}

// RegistrationService mediates every state change touching both a course's
// capacity and a student's enrollment ledger. The caller identity is passed
// explicitly; the service never reads ambient request state.
type RegistrationService struct {
	repo    registrationRepository
	csv     *export.CSVExporter
	metrics registrationObserver
	logger  *zap.Logger
}

// NewRegistrationService constructs RegistrationService. metrics may be nil.
func NewRegistrationService(repo registrationRepository, metrics registrationObserver, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, csv: export.NewCSVExporter(), metrics: metrics, logger: logger}
}

// Register enrolls the authenticated student into a course. Preconditions
// are evaluated inside the repository transaction in a fixed order:
// existence, course status, capacity, duplicate pair.
func (s *RegistrationService) Register(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.RegistrationDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	registration, err := s.repo.Register(ctx, claims.UserID, courseID)
	if err != nil {
		s.observe("register", outcomeOf(err))
		return nil, passthrough(err, "failed to register for course")
	}
	s.observe("register", "success")

	detail, err := s.repo.FindDetailByID(ctx, registration.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration detail")
	}
	s.logger.Info("student registered",
		zap.String("student_id", claims.UserID),
		zap.String("course_id", courseID),
		zap.String("registration_id", registration.ID),
	)
	return detail, nil
}

// Drop marks the authenticated student's registration as dropped. The
// record is retained; only an active registration may be dropped.
func (s *RegistrationService) Drop(ctx context.Context, claims *models.JWTClaims, courseID string) (*models.Registration, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	registration, err := s.repo.Drop(ctx, claims.UserID, courseID)
	if err != nil {
		s.observe("drop", outcomeOf(err))
		return nil, passthrough(err, "failed to drop course")
	}
	s.observe("drop", "success")
	s.logger.Info("student dropped course",
		zap.String("student_id", claims.UserID),
		zap.String("course_id", courseID),
	)
	return registration, nil
}

// ListForStudent returns the authenticated student's registrations with
// course details, newest first.
func (s *RegistrationService) ListForStudent(ctx context.Context, claims *models.JWTClaims) ([]models.RegistrationDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	registrations, err := s.repo.ListByStudent(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}

// ListForCourse returns all registrations for a course with minimal
// student identity. Restricted to administrators.
func (s *RegistrationService) ListForCourse(ctx context.Context, claims *models.JWTClaims, courseID string) ([]models.CourseRegistration, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Access denied")
	}
	registrations, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course registrations")
	}
	return registrations, nil
}

// ExportCourseRoster renders the course registration roster as CSV.
func (s *RegistrationService) ExportCourseRoster(ctx context.Context, claims *models.JWTClaims, courseID string) ([]byte, error) {
	registrations, err := s.ListForCourse(ctx, claims, courseID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Student No", "First Name", "Last Name", "Email", "Status", "Registered At"},
	}
	for _, reg := range registrations {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student No":    reg.StudentNo,
			"First Name":    reg.StudentFirstName,
			"Last Name":     reg.StudentLastName,
			"Email":         reg.StudentEmail,
			"Status":        string(reg.Status),
			"Registered At": reg.RegistrationDate.Format("2006-01-02 15:04"),
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
	}
	return payload, nil
}

func (s *RegistrationService) observe(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveRegistration(operation, outcome)
	}
}

func outcomeOf(err error) string {
	var e *appErrors.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return appErrors.ErrInternal.Code
}

// passthrough keeps typed domain errors intact and wraps anything else as
// an internal error without leaking store details.
func passthrough(err error, msg string) error {
	var e *appErrors.Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	return appErrors.Wrap(fmt.Errorf("%s: %w", msg, err), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
}
