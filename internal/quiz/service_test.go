package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"examhub.org/internal/ids"
)

type memStore struct {
	mu          sync.Mutex
	tests       map[string]Test
	assignments []Assignment
}

func newMemStore() *memStore {
	return &memStore{tests: make(map[string]Test)}
}

func (m *memStore) CreateTest(_ context.Context, input TestCreate) (Test, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	test := Test{
		ID:          ids.New(),
		Title:       input.Title,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}
	for _, q := range input.Questions {
		question := Question{ID: ids.New(), Text: q.Text}
		for _, o := range q.Options {
			question.Options = append(question.Options, Option{ID: ids.New(), Text: o.Text, IsCorrect: o.IsCorrect})
		}
		test.Questions = append(test.Questions, question)
	}
	m.tests[test.ID] = test
	return test, nil
}

func (m *memStore) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	test, ok := m.tests[id]
	if !ok {
		return Test{}, ErrNotFound
	}
	return test, nil
}

func (m *memStore) ListTests(_ context.Context) ([]Test, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Test, 0, len(m.tests))
	for _, t := range m.tests {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) Assign(_ context.Context, a Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments = append(m.assignments, a)
	return nil
}

func (m *memStore) AssignmentsForUser(_ context.Context, username string) ([]Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Assignment
	for _, a := range m.assignments {
		if a.Username == username {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) Assignments(_ context.Context) ([]Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Assignment, len(m.assignments))
	copy(out, m.assignments)
	return out, nil
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func TestCreateTestWithQuestions(t *testing.T) {
	svc, _ := newTestService(t)
	test, err := svc.CreateTest(context.Background(), TestCreate{
		Title:       "  Networking basics ",
		Description: "TCP/IP fundamentals",
		Questions: []QuestionCreate{
			{
				Text: "What does TCP stand for?",
				Options: []OptionCreate{
					{Text: "Transmission Control Protocol", IsCorrect: true},
					{Text: "Transfer Check Program"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	if test.Title != "Networking basics" {
		t.Fatalf("title not trimmed: %q", test.Title)
	}
	if len(test.Questions) != 1 || len(test.Questions[0].Options) != 2 {
		t.Fatalf("nested structure lost: %+v", test)
	}

	fetched, err := svc.GetTest(context.Background(), test.ID)
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if !fetched.Questions[0].Options[0].IsCorrect {
		t.Fatalf("correct flag lost")
	}
}

func TestCreateTestValidation(t *testing.T) {
	svc, _ := newTestService(t)
	cases := []TestCreate{
		{Title: "   "},
		{Title: "ok", Questions: []QuestionCreate{{Text: ""}}},
		{Title: "ok", Questions: []QuestionCreate{{Text: "q", Options: []OptionCreate{{Text: "  "}}}}},
	}
	for i, input := range cases {
		if _, err := svc.CreateTest(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestAssignAndGroup(t *testing.T) {
	svc, _ := newTestService(t)
	test, err := svc.CreateTest(context.Background(), TestCreate{Title: "T1"})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}

	start := time.Now().UTC()
	end := start.Add(time.Hour)
	for _, username := range []string{"alice", "bob", "alice"} {
		if err := svc.Assign(context.Background(), Assignment{
			Username:  username,
			TestID:    test.ID,
			StartTime: start,
			EndTime:   end,
		}); err != nil {
			t.Fatalf("Assign(%s): %v", username, err)
		}
	}

	grouped, err := svc.AssignmentsByUser(context.Background())
	if err != nil {
		t.Fatalf("AssignmentsByUser: %v", err)
	}
	if len(grouped["alice"]) != 2 || len(grouped["bob"]) != 1 {
		t.Fatalf("unexpected grouping: %+v", grouped)
	}

	mine, err := svc.AssignmentsForUser(context.Background(), "bob")
	if err != nil {
		t.Fatalf("AssignmentsForUser: %v", err)
	}
	if len(mine) != 1 || mine[0].TestID != test.ID {
		t.Fatalf("unexpected assignments: %+v", mine)
	}
}

func TestAssignValidation(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Assign(context.Background(), Assignment{Username: "", TestID: "t"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	start := time.Now()
	if err := svc.Assign(context.Background(), Assignment{
		Username:  "alice",
		TestID:    "t",
		StartTime: start,
		EndTime:   start.Add(-time.Hour),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted window, got %v", err)
	}
}

func TestAssignmentExpired(t *testing.T) {
	now := time.Now().UTC()
	a := Assignment{StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour)}
	if !a.Expired(now) {
		t.Fatalf("expected expired window")
	}
	open := Assignment{StartTime: now, EndTime: now.Add(time.Hour)}
	if open.Expired(now) {
		t.Fatalf("open window reported expired")
	}
}
