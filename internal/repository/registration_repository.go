package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Kirusnabavani/UCMS/internal/models"
	appErrors "github.com/Kirusnabavani/UCMS/pkg/errors"
)

const registrationColumns = `id, student_id, course_id, registration_date, status, grade, score, feedback, created_at, updated_at`

// RegistrationRepository handles persistence of registrations and owns the
// course enrollment counter. Register and Drop run their precondition
// checks and writes inside one transaction with the course row locked, so
// two concurrent registrations for the last slot serialize instead of both
// succeeding.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

type courseSlot struct {
	Status           models.CourseStatus `db:"status"`
	EnrolledStudents int                 `db:"enrolled_students"`
	MaxStudents      int                 `db:"max_students"`
}

// Register creates a registration for (studentID, courseID) and increments
// the course counter atomically. Preconditions are checked in a fixed
// order so error reporting stays deterministic: course existence, course
// status, capacity, then the unique-pair check.
func (r *RegistrationRepository) Register(ctx context.Context, studentID, courseID string) (*models.Registration, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin register: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	var slot courseSlot
	const lockQuery = `SELECT status, enrolled_students, max_students FROM courses WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &slot, lockQuery, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found")
		}
		return nil, fmt.Errorf("lock course: %w", err)
	}
	if slot.Status != models.CourseStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Course is not available for registration")
	}
	if slot.EnrolledStudents >= slot.MaxStudents {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "Course is full")
	}

	var exists int
	const dupQuery = `SELECT 1 FROM registrations WHERE student_id = $1 AND course_id = $2 LIMIT 1`
	err = tx.GetContext(ctx, &exists, dupQuery, studentID, courseID)
	if err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "You are already registered for this course")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check existing registration: %w", err)
	}

	now := time.Now().UTC()
	registration := &models.Registration{
		ID:               uuid.NewString(),
		StudentID:        studentID,
		CourseID:         courseID,
		RegistrationDate: now,
		Status:           models.RegistrationStatusRegistered,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	const insertQuery = `INSERT INTO registrations (id, student_id, course_id, registration_date, status, grade, score, feedback, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :registration_date, :status, :grade, :score, :feedback, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, registration); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicate, "You are already registered for this course")
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}

	const incrementQuery = `UPDATE courses SET enrolled_students = enrolled_students + 1, updated_at = $2
        WHERE id = $1 AND enrolled_students < max_students`
	res, err := tx.ExecContext(ctx, incrementQuery, courseID, now)
	if err != nil {
		return nil, fmt.Errorf("increment enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("increment enrollment rows affected: %w", err)
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "Course is full")
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit register: %w", err)
	}
	commit = true
	return registration, nil
}

// Drop marks the student's registration dropped and decrements the course
// counter in the same transaction. The record itself is retained. Dropping
// a registration that is not in the registered state is rejected so the
// counter cannot be decremented twice.
func (r *RegistrationRepository) Drop(ctx context.Context, studentID, courseID string) (*models.Registration, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin drop: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	// Same lock order as Register: course row first.
	var slot courseSlot
	const lockQuery = `SELECT status, enrolled_students, max_students FROM courses WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &slot, lockQuery, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Registration not found")
		}
		return nil, fmt.Errorf("lock course: %w", err)
	}

	var registration models.Registration
	findQuery := fmt.Sprintf("SELECT %s FROM registrations WHERE student_id = $1 AND course_id = $2", registrationColumns)
	if err := tx.GetContext(ctx, &registration, findQuery, studentID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Registration not found")
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	if registration.Status != models.RegistrationStatusRegistered {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "Registration is not active")
	}

	now := time.Now().UTC()
	const updateQuery = `UPDATE registrations SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, registration.ID, models.RegistrationStatusDropped, now); err != nil {
		return nil, fmt.Errorf("drop registration: %w", err)
	}

	const decrementQuery = `UPDATE courses SET enrolled_students = enrolled_students - 1, updated_at = $2
        WHERE id = $1 AND enrolled_students > 0`
	if _, err := tx.ExecContext(ctx, decrementQuery, courseID, now); err != nil {
		return nil, fmt.Errorf("decrement enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit drop: %w", err)
	}
	commit = true

	registration.Status = models.RegistrationStatusDropped
	registration.UpdatedAt = now
	return &registration, nil
}

// FindByPair returns the registration for a (student, course) pair.
func (r *RegistrationRepository) FindByPair(ctx context.Context, studentID, courseID string) (*models.Registration, error) {
	query := fmt.Sprintf("SELECT %s FROM registrations WHERE student_id = $1 AND course_id = $2", registrationColumns)
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &registration, nil
}

// FindDetailByID returns a registration with its course resolved.
func (r *RegistrationRepository) FindDetailByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	const query = `SELECT r.id, r.student_id, r.course_id, r.registration_date, r.status, r.grade, r.score, r.feedback, r.created_at, r.updated_at,
        c.title AS course_title, c.instructor AS course_instructor, c.credits AS course_credits,
        c.semester AS course_semester, c.year AS course_year, c.status AS course_status
        FROM registrations r
        JOIN courses c ON c.id = r.course_id
        WHERE r.id = $1`
	var detail models.RegistrationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByStudent returns a student's registrations with course info, newest
// registration first.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationDetail, error) {
	const query = `SELECT r.id, r.student_id, r.course_id, r.registration_date, r.status, r.grade, r.score, r.feedback, r.created_at, r.updated_at,
        c.title AS course_title, c.instructor AS course_instructor, c.credits AS course_credits,
        c.semester AS course_semester, c.year AS course_year, c.status AS course_status
        FROM registrations r
        JOIN courses c ON c.id = r.course_id
        WHERE r.student_id = $1
        ORDER BY r.registration_date DESC`
	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, studentID); err != nil {
		return nil, fmt.Errorf("list student registrations: %w", err)
	}
	return registrations, nil
}

// ListByCourse returns all registrations for a course with minimal student
// identity, newest registration first.
func (r *RegistrationRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CourseRegistration, error) {
	const query = `SELECT r.id, r.student_id, r.course_id, r.registration_date, r.status, r.grade, r.score, r.feedback, r.created_at, r.updated_at,
        u.first_name AS student_first_name, u.last_name AS student_last_name,
        u.email AS student_email, COALESCE(u.student_no, '') AS student_no
        FROM registrations r
        JOIN users u ON u.id = r.student_id
        WHERE r.course_id = $1
        ORDER BY r.registration_date DESC`
	var registrations []models.CourseRegistration
	if err := r.db.SelectContext(ctx, &registrations, query, courseID); err != nil {
		return nil, fmt.Errorf("list course registrations: %w", err)
	}
	return registrations, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
