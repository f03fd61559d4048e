package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kirusnabavani/UCMS/internal/models"
	appErrors "github.com/Kirusnabavani/UCMS/pkg/errors"
)

type mockCourseRepo struct {
	courses       map[string]models.Course
	registrations map[string]int
	listCalls     int
	created       *models.Course
	updated       *models.Course
	deleteBlocked bool
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	m.listCalls++
	var list []models.Course
	for _, c := range m.courses {
		list = append(list, c)
	}
	return list, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "new-course"
	}
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	m.courses[course.ID] = *course
	m.created = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = *course
	m.updated = course
	return nil
}

func (m *mockCourseRepo) CountRegistrations(ctx context.Context, courseID string) (int, error) {
	return m.registrations[courseID], nil
}

func (m *mockCourseRepo) DeleteIfUnreferenced(ctx context.Context, id string) (bool, error) {
	if m.deleteBlocked {
		return false, nil
	}
	delete(m.courses, id)
	return true, nil
}

type mockCatalogCache struct {
	entries     map[string][]models.Course
	invalidated []string
}

func (m *mockCatalogCache) Get(ctx context.Context, key string, dest interface{}) error {
	if cached, ok := m.entries[key]; ok {
		*dest.(*[]models.Course) = cached
		return nil
	}
	return appErrors.ErrCacheMiss
}

func (m *mockCatalogCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]models.Course)
	}
	m.entries[key] = value.([]models.Course)
	return nil
}

func (m *mockCatalogCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	m.entries = nil
	return nil
}

func validCreateCourseRequest() CreateCourseRequest {
	year := time.Now().Year() + 1
	return CreateCourseRequest{
		Title:       "Intro to CS",
		Description: "Fundamentals",
		Instructor:  "Dr. Johnson",
		Credits:     3,
		Semester:    "Spring",
		Year:        year,
		MaxStudents: 30,
		StartDate:   fmt.Sprintf("%d-01-15", year),
		EndDate:     fmt.Sprintf("%d-05-15", year),
	}
}

func TestCourseServiceListCaches(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{"course-1": {ID: "course-1", Title: "Intro to CS"}}}
	cache := &mockCatalogCache{}
	svc := NewCourseService(repo, cache, time.Minute, zap.NewNop())

	filter := models.CourseFilter{Status: models.CourseStatusActive}
	first, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, repo.listCalls)
}

func TestCourseServiceListWithoutCache(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{"course-1": {ID: "course-1"}}}
	svc := NewCourseService(repo, nil, time.Minute, zap.NewNop())

	_, err := svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestCourseServiceGetNotFound(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, nil, time.Minute, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "Course not found", appErr.Message)
}

func TestCourseServiceCreate(t *testing.T) {
	repo := &mockCourseRepo{}
	cache := &mockCatalogCache{}
	svc := NewCourseService(repo, cache, time.Minute, zap.NewNop())

	course, err := svc.Create(context.Background(), validCreateCourseRequest())
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusActive, course.Status)
	assert.NotNil(t, repo.created)
	assert.Contains(t, cache.invalidated, "courses:*")
}

func TestCourseServiceCreateValidation(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, nil, time.Minute, zap.NewNop())

	req := validCreateCourseRequest()
	req.Title = "  "
	req.Credits = 6
	req.Semester = "Autumn"
	req.Year = 2000
	req.MaxStudents = 0
	req.StartDate = "not-a-date"

	_, err := svc.Create(context.Background(), req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	seen := make(map[string]bool)
	for _, field := range appErr.Fields {
		seen[field.Field] = true
	}
	for _, want := range []string{"title", "credits", "semester", "year", "maxStudents", "startDate"} {
		assert.True(t, seen[want], "missing field error for %s", want)
	}
}

func TestCourseServiceUpdatePartial(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{"course-1": {
		ID: "course-1", Title: "Intro to CS", Description: "Fundamentals", Instructor: "Dr. Johnson",
		Credits: 3, Semester: models.SemesterSpring, Year: time.Now().Year() + 1, MaxStudents: 30,
		Status: models.CourseStatusActive,
	}}}
	svc := NewCourseService(repo, nil, time.Minute, zap.NewNop())

	newMax := 40
	newStatus := "inactive"
	course, err := svc.Update(context.Background(), "course-1", UpdateCourseRequest{
		MaxStudents: &newMax,
		Status:      &newStatus,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, course.MaxStudents)
	assert.Equal(t, models.CourseStatusInactive, course.Status)
	assert.Equal(t, "Intro to CS", course.Title)
}

func TestCourseServiceUpdateInvalidCredits(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{"course-1": {ID: "course-1", Credits: 3}}}
	svc := NewCourseService(repo, nil, time.Minute, zap.NewNop())

	badCredits := 9
	_, err := svc.Update(context.Background(), "course-1", UpdateCourseRequest{Credits: &badCredits})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Nil(t, repo.updated)
}

func TestCourseServiceDeleteBlockedByRegistrations(t *testing.T) {
	repo := &mockCourseRepo{
		courses:       map[string]models.Course{"course-1": {ID: "course-1"}},
		registrations: map[string]int{"course-1": 2},
	}
	svc := NewCourseService(repo, nil, time.Minute, zap.NewNop())

	err := svc.Delete(context.Background(), "course-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCourseInUse.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrCourseInUse.Message, appErr.Message)
	assert.Contains(t, repo.courses, "course-1")
}

func TestCourseServiceDelete(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{"course-1": {ID: "course-1"}}}
	cache := &mockCatalogCache{}
	svc := NewCourseService(repo, cache, time.Minute, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "course-1"))
	assert.NotContains(t, repo.courses, "course-1")
	assert.Contains(t, cache.invalidated, "courses:*")
}

func TestCourseServiceDeleteGuardRace(t *testing.T) {
	repo := &mockCourseRepo{
		courses:       map[string]models.Course{"course-1": {ID: "course-1"}},
		deleteBlocked: true,
	}
	svc := NewCourseService(repo, nil, time.Minute, zap.NewNop())

	err := svc.Delete(context.Background(), "course-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCourseInUse.Code, appErr.Code)
}
