package quiz

import "context"

// Store describes the persistence operations behind the quiz feature.
type Store interface {
	// CreateTest persists a test with its questions and options atomically.
	CreateTest(ctx context.Context, input TestCreate) (Test, error)
	// GetTest returns a test with nested questions/options or ErrNotFound.
	GetTest(ctx context.Context, id string) (Test, error)
	// ListTests returns tests without their questions, newest last.
	ListTests(ctx context.Context) ([]Test, error)
	// Assign links a test to a user for a time window.
	Assign(ctx context.Context, assignment Assignment) error
	// AssignmentsForUser returns the tests assigned to one user.
	AssignmentsForUser(ctx context.Context, username string) ([]Assignment, error)
	// Assignments returns every assignment, ordered by creation time.
	Assignments(ctx context.Context) ([]Assignment, error)
}
