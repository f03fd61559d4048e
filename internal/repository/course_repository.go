package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Kirusnabavani/UCMS/internal/models"
)

const courseColumns = `id, title, description, instructor, credits, semester, year, max_students, enrolled_students, start_date, end_date, status, syllabus, created_at, updated_at`

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses filtered by the provided criteria, newest first.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Year != 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR instructor ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s FROM courses%s ORDER BY created_at DESC", courseColumns, clause)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a new course with a zeroed enrollment counter.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.Status == "" {
		course.Status = models.CourseStatusActive
	}
	course.EnrolledStudents = 0
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, title, description, instructor, credits, semester, year, max_students, enrolled_students, start_date, end_date, status, syllabus, created_at, updated_at)
        VALUES (:id, :title, :description, :instructor, :credits, :semester, :year, :max_students, :enrolled_students, :start_date, :end_date, :status, :syllabus, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update persists the mutable columns of a course. The enrollment counter
// is registration-service-owned and is never written here.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, instructor = :instructor,
        credits = :credits, semester = :semester, year = :year, max_students = :max_students,
        start_date = :start_date, end_date = :end_date, status = :status, syllabus = :syllabus,
        updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// CountRegistrations returns how many registrations reference a course,
// dropped ones included.
func (r *CourseRepository) CountRegistrations(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM registrations WHERE course_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count course registrations: %w", err)
	}
	return count, nil
}

// DeleteIfUnreferenced removes a course only when no registration of any
// status references it. Returns false when the guard blocked the delete.
func (r *CourseRepository) DeleteIfUnreferenced(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM courses
        WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM registrations WHERE course_id = $1)`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete course rows affected: %w", err)
	}
	return affected > 0, nil
}
