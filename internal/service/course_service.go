package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kirusnabavani/UCMS/internal/models"
	appErrors "github.com/Kirusnabavani/UCMS/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	CountRegistrations(ctx context.Context, courseID string) (int, error)
	DeleteIfUnreferenced(ctx context.Context, id string) (bool, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const catalogCachePrefix = "courses:"

// CreateCourseRequest describes a course creation payload.
type CreateCourseRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Instructor  string  `json:"instructor"`
	Credits     int     `json:"credits"`
	Semester    string  `json:"semester"`
	Year        int     `json:"year"`
	MaxStudents int     `json:"maxStudents"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Syllabus    *string `json:"syllabus"`
}

// UpdateCourseRequest describes a partial course update. Absent fields are
// left untouched; the enrollment counter is not accepted on this path.
type UpdateCourseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Instructor  *string `json:"instructor"`
	Credits     *int    `json:"credits"`
	Semester    *string `json:"semester"`
	Year        *int    `json:"year"`
	MaxStudents *int    `json:"maxStudents"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Status      *string `json:"status"`
	Syllabus    *string `json:"syllabus"`
}

// CourseService handles the administrative course lifecycle and the
// catalog listing.
type CourseService struct {
	repo     courseRepository
	cache    catalogCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCourseService constructs CourseService. cache may be nil when catalog
// caching is disabled.
func NewCourseService(repo courseRepository, cache catalogCache, cacheTTL time.Duration, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns the filtered catalog, served from cache when possible.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	key := catalogKey(filter)
	if s.cache != nil {
		var cached []models.Course
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
	}

	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, courses, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return courses, nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create validates and persists a new course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	var fields []appErrors.FieldError
	if strings.TrimSpace(req.Title) == "" {
		fields = append(fields, appErrors.FieldError{Field: "title", Message: "Title is required"})
	}
	if strings.TrimSpace(req.Description) == "" {
		fields = append(fields, appErrors.FieldError{Field: "description", Message: "Description is required"})
	}
	if strings.TrimSpace(req.Instructor) == "" {
		fields = append(fields, appErrors.FieldError{Field: "instructor", Message: "Instructor is required"})
	}
	if req.Credits < 1 || req.Credits > 5 {
		fields = append(fields, appErrors.FieldError{Field: "credits", Message: "Credits must be between 1 and 5"})
	}
	if !models.ValidSemester(models.Semester(req.Semester)) {
		fields = append(fields, appErrors.FieldError{Field: "semester", Message: "Invalid semester"})
	}
	if req.Year < time.Now().Year() {
		fields = append(fields, appErrors.FieldError{Field: "year", Message: "Invalid year"})
	}
	if req.MaxStudents < 1 {
		fields = append(fields, appErrors.FieldError{Field: "maxStudents", Message: "Max students must be at least 1"})
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		fields = append(fields, appErrors.FieldError{Field: "startDate", Message: "Invalid start date"})
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		fields = append(fields, appErrors.FieldError{Field: "endDate", Message: "Invalid end date"})
	}
	if len(fields) > 0 {
		return nil, appErrors.WithFields("invalid course payload", fields)
	}

	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Instructor:  strings.TrimSpace(req.Instructor),
		Credits:     req.Credits,
		Semester:    models.Semester(req.Semester),
		Year:        req.Year,
		MaxStudents: req.MaxStudents,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      models.CourseStatusActive,
		Syllabus:    req.Syllabus,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidateCatalog(ctx)
	return course, nil
}

// Update applies the present fields of a partial update, re-validating
// each one.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	var fields []appErrors.FieldError
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			fields = append(fields, appErrors.FieldError{Field: "title", Message: "Title cannot be empty"})
		} else {
			course.Title = strings.TrimSpace(*req.Title)
		}
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			fields = append(fields, appErrors.FieldError{Field: "description", Message: "Description cannot be empty"})
		} else {
			course.Description = *req.Description
		}
	}
	if req.Instructor != nil {
		if strings.TrimSpace(*req.Instructor) == "" {
			fields = append(fields, appErrors.FieldError{Field: "instructor", Message: "Instructor cannot be empty"})
		} else {
			course.Instructor = strings.TrimSpace(*req.Instructor)
		}
	}
	if req.Credits != nil {
		if *req.Credits < 1 || *req.Credits > 5 {
			fields = append(fields, appErrors.FieldError{Field: "credits", Message: "Credits must be between 1 and 5"})
		} else {
			course.Credits = *req.Credits
		}
	}
	if req.Semester != nil {
		if !models.ValidSemester(models.Semester(*req.Semester)) {
			fields = append(fields, appErrors.FieldError{Field: "semester", Message: "Invalid semester"})
		} else {
			course.Semester = models.Semester(*req.Semester)
		}
	}
	if req.Year != nil {
		if *req.Year < time.Now().Year() {
			fields = append(fields, appErrors.FieldError{Field: "year", Message: "Invalid year"})
		} else {
			course.Year = *req.Year
		}
	}
	if req.MaxStudents != nil {
		if *req.MaxStudents < 1 {
			fields = append(fields, appErrors.FieldError{Field: "maxStudents", Message: "Max students must be at least 1"})
		} else {
			course.MaxStudents = *req.MaxStudents
		}
	}
	if req.StartDate != nil {
		if parsed, err := parseDate(*req.StartDate); err != nil {
			fields = append(fields, appErrors.FieldError{Field: "startDate", Message: "Invalid start date"})
		} else {
			course.StartDate = parsed
		}
	}
	if req.EndDate != nil {
		if parsed, err := parseDate(*req.EndDate); err != nil {
			fields = append(fields, appErrors.FieldError{Field: "endDate", Message: "Invalid end date"})
		} else {
			course.EndDate = parsed
		}
	}
	if req.Status != nil {
		if !models.ValidCourseStatus(models.CourseStatus(*req.Status)) {
			fields = append(fields, appErrors.FieldError{Field: "status", Message: "Invalid status"})
		} else {
			course.Status = models.CourseStatus(*req.Status)
		}
	}
	if req.Syllabus != nil {
		course.Syllabus = req.Syllabus
	}
	if len(fields) > 0 {
		return nil, appErrors.WithFields("invalid course payload", fields)
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidateCatalog(ctx)
	return course, nil
}

// Delete removes a course unless any registration references it, dropped
// registrations included.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	count, err := s.repo.CountRegistrations(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registrations")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrCourseInUse, "")
	}

	deleted, err := s.repo.DeleteIfUnreferenced(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if !deleted {
		// A registration appeared between the count and the delete.
		return appErrors.Clone(appErrors.ErrCourseInUse, "")
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, catalogCachePrefix+"*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func catalogKey(filter models.CourseFilter) string {
	return fmt.Sprintf("%slist:%s:%s:%d:%s", catalogCachePrefix, filter.Status, filter.Semester, filter.Year, strings.ToLower(filter.Search))
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
