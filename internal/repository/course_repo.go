package repository

import (
	"context"
	"database/sql"

	"mentora/internal/model"
)

// CourseRepository defines the interface for interacting with course data
type CourseRepository interface {
	// GetCourseByID retrieves a course by its ID
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
}

type courseRepo struct {
	db *sql.DB
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(db *sql.DB) CourseRepository {
	return &courseRepo{db: db}
}

// GetCourseByID retrieves a course by its ID
func (r *courseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	query := `
		SELECT id, title, description, created_at, updated_at
		FROM courses
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, courseID)
	var course model.Course
	if err := row.Scan(
		&course.CourseID,
		&course.Title,
		&course.Description,
		&course.CreatedAt,
		&course.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}
