package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Kirusnabavani/UCMS/internal/models"
	appErrors "github.com/Kirusnabavani/UCMS/pkg/errors"
)

// ResultRepository handles persistence of finalized results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs the repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Create persists a result. The unique (student_id, course_id) index makes
// a second result for the same pair fail with a DUPLICATE error.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	now := time.Now().UTC()
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.AssignedAt.IsZero() {
		result.AssignedAt = now
	}
	result.CreatedAt = now
	const query = `INSERT INTO results (id, student_id, course_id, registration_id, grade, score, feedback, assigned_by, assigned_at, created_at)
        VALUES (:id, :student_id, :course_id, :registration_id, :grade, :score, :feedback, :assigned_by, :assigned_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clone(appErrors.ErrDuplicate, "Result already exists for this student and course")
		}
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// FindByPair returns the result for a (student, course) pair.
func (r *ResultRepository) FindByPair(ctx context.Context, studentID, courseID string) (*models.Result, error) {
	const query = `SELECT id, student_id, course_id, registration_id, grade, score, feedback, assigned_by, assigned_at, created_at
        FROM results WHERE student_id = $1 AND course_id = $2`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListByStudent returns a student's results with course info, most recent
// assignment first.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ResultDetail, error) {
	const query = `SELECT rs.id, rs.student_id, rs.course_id, rs.registration_id, rs.grade, rs.score, rs.feedback, rs.assigned_by, rs.assigned_at, rs.created_at,
        c.title AS course_title, c.credits AS course_credits, c.semester AS course_semester, c.year AS course_year
        FROM results rs
        JOIN courses c ON c.id = rs.course_id
        WHERE rs.student_id = $1
        ORDER BY rs.assigned_at DESC`
	var results []models.ResultDetail
	if err := r.db.SelectContext(ctx, &results, query, studentID); err != nil {
		return nil, fmt.Errorf("list student results: %w", err)
	}
	return results, nil
}
