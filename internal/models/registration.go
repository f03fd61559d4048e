package models

import "time"

// RegistrationStatus represents the lifecycle of a registration.
type RegistrationStatus string

// Possible registration statuses. Dropped registrations are retained; the
// (student, course) pair stays unique regardless of status.
const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusCompleted  RegistrationStatus = "completed"
	RegistrationStatusDropped    RegistrationStatus = "dropped"
)

// Registration captures a student's enrollment attempt for a course.
type Registration struct {
	ID               string             `db:"id" json:"id"`
	StudentID        string             `db:"student_id" json:"studentId"`
	CourseID         string             `db:"course_id" json:"courseId"`
	RegistrationDate time.Time          `db:"registration_date" json:"registrationDate"`
	Status           RegistrationStatus `db:"status" json:"status"`

	// Legacy grading fields, superseded by Result.
	Grade    *string  `db:"grade" json:"grade,omitempty"`
	Score    *float64 `db:"score" json:"score,omitempty"`
	Feedback *string  `db:"feedback" json:"feedback,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// RegistrationDetail enriches Registration with the course for display.
type RegistrationDetail struct {
	Registration
	CourseTitle      string       `db:"course_title" json:"courseTitle"`
	CourseInstructor string       `db:"course_instructor" json:"courseInstructor"`
	CourseCredits    int          `db:"course_credits" json:"courseCredits"`
	CourseSemester   Semester     `db:"course_semester" json:"courseSemester"`
	CourseYear       int          `db:"course_year" json:"courseYear"`
	CourseStatus     CourseStatus `db:"course_status" json:"courseStatus"`
}

// CourseRegistration pairs a registration with minimal student identity,
// for the admin roster view.
type CourseRegistration struct {
	Registration
	StudentFirstName string `db:"student_first_name" json:"studentFirstName"`
	StudentLastName  string `db:"student_last_name" json:"studentLastName"`
	StudentEmail     string `db:"student_email" json:"studentEmail"`
	StudentNo        string `db:"student_no" json:"studentNo"`
}
