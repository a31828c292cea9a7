package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service validates input and delegates persistence to the Store.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source. Only useful in tests.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the quiz service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("quiz: store is required")
	}
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateTest persists a new test with its questions and options.
func (s *Service) CreateTest(ctx context.Context, input TestCreate) (Test, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Test{}, fmt.Errorf("%w: test title is required", ErrInvalidInput)
	}
	input.Description = strings.TrimSpace(input.Description)
	for i, q := range input.Questions {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return Test{}, fmt.Errorf("%w: question %d has no text", ErrInvalidInput, i+1)
		}
		for j, o := range q.Options {
			o.Text = strings.TrimSpace(o.Text)
			if o.Text == "" {
				return Test{}, fmt.Errorf("%w: question %d option %d has no text", ErrInvalidInput, i+1, j+1)
			}
			q.Options[j] = o
		}
		input.Questions[i] = q
	}
	return s.store.CreateTest(ctx, input)
}

// GetTest returns a test with nested questions and options.
func (s *Service) GetTest(ctx context.Context, id string) (Test, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Test{}, fmt.Errorf("%w: test id is required", ErrInvalidInput)
	}
	return s.store.GetTest(ctx, id)
}

// ListTests returns all tests without their question bodies.
func (s *Service) ListTests(ctx context.Context) ([]Test, error) {
	return s.store.ListTests(ctx)
}

// Assign schedules a test for a user. The window must be ordered.
func (s *Service) Assign(ctx context.Context, assignment Assignment) error {
	assignment.Username = strings.TrimSpace(assignment.Username)
	assignment.TestID = strings.TrimSpace(assignment.TestID)
	if assignment.Username == "" || assignment.TestID == "" {
		return fmt.Errorf("%w: username and test_id are required", ErrInvalidInput)
	}
	if !assignment.StartTime.IsZero() && !assignment.EndTime.IsZero() && assignment.EndTime.Before(assignment.StartTime) {
		return fmt.Errorf("%w: end_time precedes start_time", ErrInvalidInput)
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = s.now().UTC()
	}
	return s.store.Assign(ctx, assignment)
}

// AssignmentsForUser returns one user's assigned tests.
func (s *Service) AssignmentsForUser(ctx context.Context, username string) ([]Assignment, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	return s.store.AssignmentsForUser(ctx, username)
}

// AssignmentsByUser groups every assignment by username.
func (s *Service) AssignmentsByUser(ctx context.Context) (map[string][]Assignment, error) {
	assignments, err := s.store.Assignments(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]Assignment)
	for _, a := range assignments {
		grouped[a.Username] = append(grouped[a.Username], a)
	}
	return grouped, nil
}
