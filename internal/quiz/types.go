package quiz

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("quiz: not found")
	ErrInvalidInput = errors.New("quiz: invalid input")
)

// Test is a quiz with its questions.
type Test struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Question belongs to one test and owns its answer options.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options,omitempty"`
}

// Option is one answer choice. IsCorrect is stored but never serialized to
// regular users; the admin API returns it.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Assignment schedules a test for a user inside a time window.
type Assignment struct {
	Username  string    `json:"username"`
	TestID    string    `json:"test_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the assignment window has closed.
func (a Assignment) Expired(now time.Time) bool {
	return !a.EndTime.IsZero() && now.After(a.EndTime)
}

// TestCreate is the input for creating a test with nested questions.
type TestCreate struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Questions   []QuestionCreate `json:"questions"`
}

type QuestionCreate struct {
	Text    string         `json:"text"`
	Options []OptionCreate `json:"options"`
}

type OptionCreate struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}
