// Package todo holds the todo entity and its relational storage.
package todo

import (
	"errors"
	"time"
)

// Todo is a single task tracked by the application.
type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	// ErrNotFound is returned when no todo matches the requested id.
	ErrNotFound = errors.New("todo not found")
	// ErrValidation is returned when input fails validation (empty title).
	ErrValidation = errors.New("title is required")
)

// ValidateTitle reports ErrValidation for an empty title.
// Whitespace-only titles are accepted here; trimming is a client concern.
func ValidateTitle(title string) error {
	if title == "" {
		return ErrValidation
	}
	return nil
}
