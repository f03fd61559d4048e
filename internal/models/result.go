package models

import "time"

// ResultGrades lists the letter grades a result may carry, best to worst.
var ResultGrades = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "F"}

// ValidResultGrade reports whether the given letter grade is known.
func ValidResultGrade(grade string) bool {
	for _, g := range ResultGrades {
		if g == grade {
			return true
		}
	}
	return false
}

// Result is the finalized grade for a (student, course) pair. Results are
// immutable once created and are kept as a ledger independent from the
// registration record.
type Result struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"studentId"`
	CourseID       string    `db:"course_id" json:"courseId"`
	RegistrationID string    `db:"registration_id" json:"registrationId"`
	Grade          string    `db:"grade" json:"grade"`
	Score          float64   `db:"score" json:"score"`
	Feedback       *string   `db:"feedback" json:"feedback,omitempty"`
	AssignedBy     string    `db:"assigned_by" json:"assignedBy"`
	AssignedAt     time.Time `db:"assigned_at" json:"assignedAt"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// ResultDetail enriches Result with course info for transcript display.
type ResultDetail struct {
	Result
	CourseTitle    string   `db:"course_title" json:"courseTitle"`
	CourseCredits  int      `db:"course_credits" json:"courseCredits"`
	CourseSemester Semester `db:"course_semester" json:"courseSemester"`
	CourseYear     int      `db:"course_year" json:"courseYear"`
}
