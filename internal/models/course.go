package models

import "time"

// Semester enumerates the academic terms a course can run in.
type Semester string

const (
	SemesterSpring Semester = "Spring"
	SemesterSummer Semester = "Summer"
	SemesterFall   Semester = "Fall"
	SemesterWinter Semester = "Winter"
)

// Semesters lists every valid semester value.
var Semesters = []Semester{SemesterSpring, SemesterSummer, SemesterFall, SemesterWinter}

// ValidSemester reports whether the given value is a known semester.
func ValidSemester(s Semester) bool {
	for _, known := range Semesters {
		if s == known {
			return true
		}
	}
	return false
}

// CourseStatus represents the lifecycle of a course offering.
type CourseStatus string

const (
	CourseStatusActive    CourseStatus = "active"
	CourseStatusInactive  CourseStatus = "inactive"
	CourseStatusCompleted CourseStatus = "completed"
)

// ValidCourseStatus reports whether the given value is a known status.
func ValidCourseStatus(s CourseStatus) bool {
	return s == CourseStatusActive || s == CourseStatusInactive || s == CourseStatusCompleted
}

// Course is a catalog entry with its enrollment counter.
//
// EnrolledStudents is owned exclusively by the registration service; no
// course write path accepts it as input.
type Course struct {
	ID               string       `db:"id" json:"id"`
	Title            string       `db:"title" json:"title"`
	Description      string       `db:"description" json:"description"`
	Instructor       string       `db:"instructor" json:"instructor"`
	Credits          int          `db:"credits" json:"credits"`
	Semester         Semester     `db:"semester" json:"semester"`
	Year             int          `db:"year" json:"year"`
	MaxStudents      int          `db:"max_students" json:"maxStudents"`
	EnrolledStudents int          `db:"enrolled_students" json:"enrolledStudents"`
	StartDate        time.Time    `db:"start_date" json:"startDate"`
	EndDate          time.Time    `db:"end_date" json:"endDate"`
	Status           CourseStatus `db:"status" json:"status"`
	Syllabus         *string      `db:"syllabus" json:"syllabus,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updatedAt"`
}

// CourseFilter provides filters for listing the catalog.
type CourseFilter struct {
	Status   CourseStatus
	Semester Semester
	Year     int
	Search   string
}
