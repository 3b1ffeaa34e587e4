package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/target/courseshop/internal/data"
	"github.com/target/courseshop/internal/domain/model"
	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/ports"
)

// CourseServiceOptions groups dependencies for CourseService.
type CourseServiceOptions struct {
	Courses ports.CourseRepository
}

// CourseService manages the course catalog and enforces ownership on changes.
type CourseService struct {
	courses ports.CourseRepository
}

// NewCourseService constructs a CourseService.
func NewCourseService(opts CourseServiceOptions) *CourseService {
	if opts.Courses == nil {
		panic("CourseRepository is required")
	}
	return &CourseService{courses: opts.Courses}
}

// List returns every course.
func (s *CourseService) List(ctx context.Context) ([]*model.Course, error) {
	return s.courses.List(ctx)
}

// Get returns one course or a not_found AppError.
func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if errors.Is(err, data.ErrCourseNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// Create validates and stores a course owned by ownerID.
func (s *CourseService) Create(ctx context.Context, ownerID string, in model.CourseInput) (*model.Course, error) {
	if err := in.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	c, err := s.courses.Create(ctx, ownerID, in)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return c, nil
}

// GetOwned returns the course if userID owns it, otherwise a forbidden AppError.
func (s *CourseService) GetOwned(ctx context.Context, userID, id string) (*model.Course, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != userID {
		return nil, apperrors.Forbidden("only the course owner can change it")
	}
	return c, nil
}

// Update changes a course owned by userID.
func (s *CourseService) Update(ctx context.Context, userID, id string, in model.CourseInput) (*model.Course, error) {
	if _, err := s.GetOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	c, err := s.courses.Update(ctx, id, in)
	if errors.Is(err, data.ErrCourseNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return c, nil
}

// Delete removes a course owned by userID.
func (s *CourseService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.GetOwned(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.courses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
