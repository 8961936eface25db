package service

import (
	"context"

	"mentora/internal/model"
	"mentora/internal/repository"
)

// CourseService defines the interface for course operations
type CourseService interface {
	// GetCourseByID retrieves a course by its ID
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
}

// courseService is the implementation of CourseService
type courseService struct {
	repo repository.CourseRepository
}

// NewCourseService creates a new CourseService
func NewCourseService(repo repository.CourseRepository) CourseService {
	return &courseService{repo: repo}
}

// GetCourseByID retrieves a course by its ID
func (s *courseService) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	return s.repo.GetCourseByID(ctx, courseID)
}
