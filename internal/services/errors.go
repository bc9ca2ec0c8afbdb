package services

import (
	"errors"
	"fmt"
)

var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError reports the id that update or toggle could not find.
// It matches ErrTodoNotFound under errors.Is.
type NotFoundError struct {
	ID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("todo with id %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrTodoNotFound
}

func invalidInput(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}
