// Command seed loads a small development dataset: one admin, five
// students, four courses, and a handful of registrations with the
// enrollment counters set to match.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kirusnabavani/UCMS/pkg/config"
	"github.com/Kirusnabavani/UCMS/pkg/database"
)

type seedCourse struct {
	Title       string
	Description string
	Instructor  string
	Credits     int
	Semester    string
	Year        int
	MaxStudents int
	StartDate   string
	EndDate     string
	Status      string
}

var courses = []seedCourse{
	{
		Title:       "Introduction to Computer Science",
		Description: "Fundamental concepts of computer science including programming, algorithms, and data structures.",
		Instructor:  "Dr. Sarah Johnson",
		Credits:     3,
		Semester:    "Spring",
		Year:        2024,
		MaxStudents: 30,
		StartDate:   "2024-01-15",
		EndDate:     "2024-05-15",
		Status:      "active",
	},
	{
		Title:       "Advanced Mathematics",
		Description: "Advanced mathematical concepts including calculus, linear algebra, and statistical analysis.",
		Instructor:  "Prof. Michael Chen",
		Credits:     4,
		Semester:    "Spring",
		Year:        2024,
		MaxStudents: 25,
		StartDate:   "2024-01-15",
		EndDate:     "2024-05-15",
		Status:      "active",
	},
	{
		Title:       "Web Development Fundamentals",
		Description: "Learn HTML, CSS, JavaScript, and modern web development frameworks.",
		Instructor:  "Dr. Emily Rodriguez",
		Credits:     3,
		Semester:    "Spring",
		Year:        2024,
		MaxStudents: 35,
		StartDate:   "2024-01-15",
		EndDate:     "2024-05-15",
		Status:      "active",
	},
	{
		Title:       "Database Management Systems",
		Description: "Comprehensive study of database design, implementation, and management.",
		Instructor:  "Dr. Robert Kim",
		Credits:     4,
		Semester:    "Fall",
		Year:        2024,
		MaxStudents: 28,
		StartDate:   "2024-08-15",
		EndDate:     "2024-12-15",
		Status:      "inactive",
	},
}

func main() {
	var wipe bool
	flag.BoolVar(&wipe, "wipe", true, "delete existing rows before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seed(ctx, db, wipe); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	log.Println("database seeded")
	log.Println("admin credentials: admin@university.edu / admin123")
	log.Println("student credentials: student1@university.edu / student123")
}

func seed(ctx context.Context, db *sqlx.DB, wipe bool) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if wipe {
		for _, table := range []string{"results", "registrations", "courses", "users"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin123"), 12)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := insertUser(ctx, tx, "John", "Administrator", "admin@university.edu", string(adminHash), "admin", nil); err != nil {
		return err
	}

	studentHash, err := bcrypt.GenerateFromPassword([]byte("student123"), 12)
	if err != nil {
		return fmt.Errorf("hash student password: %w", err)
	}
	studentIDs := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		studentNo := fmt.Sprintf("STU00%d", i)
		id, err := insertStudent(ctx, tx,
			fmt.Sprintf("Student%d", i), "Test",
			fmt.Sprintf("student%d@university.edu", i),
			string(studentHash), studentNo)
		if err != nil {
			return err
		}
		studentIDs = append(studentIDs, id)
	}

	courseIDs := make([]string, 0, len(courses))
	for _, c := range courses {
		id := uuid.NewString()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO courses (id, title, description, instructor, credits, semester, year,
			                     max_students, enrolled_students, start_date, end_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11)`,
			id, c.Title, c.Description, c.Instructor, c.Credits, c.Semester, c.Year,
			c.MaxStudents, c.StartDate, c.EndDate, c.Status)
		if err != nil {
			return fmt.Errorf("insert course %q: %w", c.Title, err)
		}
		courseIDs = append(courseIDs, id)
	}

	pairs := [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 2}}
	for _, p := range pairs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO registrations (id, student_id, course_id, status)
			VALUES ($1, $2, $3, 'registered')`,
			uuid.NewString(), studentIDs[p[0]], courseIDs[p[1]])
		if err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE courses SET enrolled_students = enrolled_students + 1 WHERE id = $1`,
			courseIDs[p[1]])
		if err != nil {
			return fmt.Errorf("bump enrollment: %w", err)
		}
	}

	return tx.Commit()
}

func insertUser(ctx context.Context, tx *sqlx.Tx, first, last, email, hash, role string, studentNo *string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, student_no, role, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)`,
		uuid.NewString(), email, hash, first, last, studentNo, role)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", email, err)
	}
	return nil
}

func insertStudent(ctx context.Context, tx *sqlx.Tx, first, last, email, hash, studentNo string) (string, error) {
	id := uuid.NewString()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, student_no, role, active)
		VALUES ($1, $2, $3, $4, $5, $6, 'student', TRUE)`,
		id, email, hash, first, last, studentNo)
	if err != nil {
		return "", fmt.Errorf("insert student %s: %w", email, err)
	}
	return id, nil
}
