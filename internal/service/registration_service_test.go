package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kirusnabavani/UCMS/internal/models"
	appErrors "github.com/Kirusnabavani/UCMS/pkg/errors"
)

type fakeCourse struct {
	status   models.CourseStatus
	enrolled int
	max      int
}

// fakeRegistrationRepo mirrors the transactional registration semantics in
// memory: ordered precondition checks and a unique (student, course) pair
// that survives drops.
type fakeRegistrationRepo struct {
	courses       map[string]*fakeCourse
	registrations map[string]*models.Registration
	byCourse      map[string][]models.CourseRegistration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		courses:       make(map[string]*fakeCourse),
		registrations: make(map[string]*models.Registration),
	}
}

func pairKey(studentID, courseID string) string {
	return studentID + "|" + courseID
}

func (f *fakeRegistrationRepo) Register(ctx context.Context, studentID, courseID string) (*models.Registration, error) {
	course, ok := f.courses[courseID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
	}
	if course.status != models.CourseStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Course is not available for registration")
	}
	if course.enrolled >= course.max {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "Course is full")
	}
	if _, exists := f.registrations[pairKey(studentID, courseID)]; exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "You are already registered for this course")
	}
	registration := &models.Registration{
		ID:               "reg-" + pairKey(studentID, courseID),
		StudentID:        studentID,
		CourseID:         courseID,
		RegistrationDate: time.Now(),
		Status:           models.RegistrationStatusRegistered,
	}
	f.registrations[pairKey(studentID, courseID)] = registration
	course.enrolled++
	return registration, nil
}

func (f *fakeRegistrationRepo) Drop(ctx context.Context, studentID, courseID string) (*models.Registration, error) {
	if _, ok := f.courses[courseID]; !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Registration not found")
	}
	registration, ok := f.registrations[pairKey(studentID, courseID)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Registration not found")
	}
	if registration.Status != models.RegistrationStatusRegistered {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Registration is not active")
	}
	registration.Status = models.RegistrationStatusDropped
	f.courses[courseID].enrolled--
	return registration, nil
}

func (f *fakeRegistrationRepo) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	for _, registration := range f.registrations {
		if registration.ID == id {
			return &models.RegistrationDetail{Registration: *registration, CourseTitle: "Intro to CS"}, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Registration not found")
}

func (f *fakeRegistrationRepo) ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationDetail, error) {
	var list []models.RegistrationDetail
	for _, registration := range f.registrations {
		if registration.StudentID == studentID {
			list = append(list, models.RegistrationDetail{Registration: *registration})
		}
	}
	return list, nil
}

func (f *fakeRegistrationRepo) ListByCourse(ctx context.Context, courseID string) ([]models.CourseRegistration, error) {
	return f.byCourse[courseID], nil
}

type recordingObserver struct {
	observed []string
}

func (r *recordingObserver) ObserveRegistration(operation, outcome string) {
	r.observed = append(r.observed, operation+":"+outcome)
}

func studentClaims(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleStudent}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestRegistrationServiceRegister(t *testing.T) {
	repo := newFakeRegistrationRepo()
	repo.courses["course-1"] = &fakeCourse{status: models.CourseStatusActive, enrolled: 0, max: 2}
	observer := &recordingObserver{}
	svc := NewRegistrationService(repo, observer, zap.NewNop())

	detail, err := svc.Register(context.Background(), studentClaims("s1"), "course-1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusRegistered, detail.Status)
	assert.Equal(t, 1, repo.courses["course-1"].enrolled)
	assert.Contains(t, observer.observed, "register:success")
}

func TestRegistrationServiceRegisterNilClaims(t *testing.T) {
	svc := NewRegistrationService(newFakeRegistrationRepo(), nil, zap.NewNop())

	_, err := svc.Register(context.Background(), nil, "course-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestRegistrationServiceRegisterCourseFull(t *testing.T) {
	repo := newFakeRegistrationRepo()
	repo.courses["course-1"] = &fakeCourse{status: models.CourseStatusActive, enrolled: 0, max: 1}
	observer := &recordingObserver{}
	svc := NewRegistrationService(repo, observer, zap.NewNop())

	_, err := svc.Register(context.Background(), studentClaims("s1"), "course-1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), studentClaims("s2"), "course-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Equal(t, "Course is full", appErr.Message)
	assert.Contains(t, observer.observed, "register:CAPACITY_EXCEEDED")
}

func TestRegistrationServiceRegisterAfterDropIsRejected(t *testing.T) {
	repo := newFakeRegistrationRepo()
	repo.courses["course-1"] = &fakeCourse{status: models.CourseStatusActive, enrolled: 0, max: 5}
	svc := NewRegistrationService(repo, nil, zap.NewNop())

	_, err := svc.Register(context.Background(), studentClaims("s1"), "course-1")
	require.NoError(t, err)

	_, err = svc.Drop(context.Background(), studentClaims("s1"), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 0, repo.courses["course-1"].enrolled)

	// The (student, course) pair stays unique even after a drop.
	_, err = svc.Register(context.Background(), studentClaims("s1"), "course-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
}

func TestRegistrationServiceDropFreesSlotForOthers(t *testing.T) {
	repo := newFakeRegistrationRepo()
	repo.courses["course-1"] = &fakeCourse{status: models.CourseStatusActive, enrolled: 0, max: 1}
	svc := NewRegistrationService(repo, nil, zap.NewNop())

	_, err := svc.Register(context.Background(), studentClaims("s1"), "course-1")
	require.NoError(t, err)
	_, err = svc.Drop(context.Background(), studentClaims("s1"), "course-1")
	require.NoError(t, err)

	// The freed slot is available to a different student.
	_, err = svc.Register(context.Background(), studentClaims("s2"), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.courses["course-1"].enrolled)
}

func TestRegistrationServiceDoubleDrop(t *testing.T) {
	repo := newFakeRegistrationRepo()
	repo.courses["course-1"] = &fakeCourse{status: models.CourseStatusActive, enrolled: 0, max: 5}
	observer := &recordingObserver{}
	svc := NewRegistrationService(repo, observer, zap.NewNop())

	_, err := svc.Register(context.Background(), studentClaims("s1"), "course-1")
	require.NoError(t, err)
	_, err = svc.Drop(context.Background(), studentClaims("s1"), "course-1")
	require.NoError(t, err)

	_, err = svc.Drop(context.Background(), studentClaims("s1"), "course-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	assert.Equal(t, "Registration is not active", appErr.Message)
	// The counter is not decremented twice.
	assert.Equal(t, 0, repo.courses["course-1"].enrolled)
}

func TestRegistrationServiceListForCourseRequiresAdmin(t *testing.T) {
	repo := newFakeRegistrationRepo()
	svc := NewRegistrationService(repo, nil, zap.NewNop())

	_, err := svc.ListForCourse(context.Background(), studentClaims("s1"), "course-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "Access denied", appErr.Message)

	_, err = svc.ListForCourse(context.Background(), adminClaims(), "course-1")
	require.NoError(t, err)
}

func TestRegistrationServiceExportCourseRoster(t *testing.T) {
	repo := newFakeRegistrationRepo()
	repo.byCourse = map[string][]models.CourseRegistration{
		"course-1": {
			{
				Registration: models.Registration{
					ID: "reg-1", StudentID: "s1", CourseID: "course-1",
					RegistrationDate: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC),
					Status:           models.RegistrationStatusRegistered,
				},
				StudentFirstName: "Student1",
				StudentLastName:  "Test",
				StudentEmail:     "student1@university.edu",
				StudentNo:        "STU001",
			},
		},
	}
	svc := NewRegistrationService(repo, nil, zap.NewNop())

	payload, err := svc.ExportCourseRoster(context.Background(), adminClaims(), "course-1")
	require.NoError(t, err)

	body := string(payload)
	assert.True(t, strings.HasPrefix(body, "Student No,First Name,Last Name,Email,Status,Registered At"))
	assert.Contains(t, body, "STU001,Student1,Test,student1@university.edu,registered,2024-01-20 10:00")
}
