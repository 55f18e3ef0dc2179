package rag

import (
	"errors"
	"fmt"
)

// ErrValidation marks missing or malformed request input, detected
// before any collaborator call.
var ErrValidation = errors.New("invalid input")

// ErrTimeout marks a collaborator call that exceeded its deadline.
var ErrTimeout = errors.New("llm call timed out")

// AnswerError wraps a failed or empty answer generation. It is
// surfaced to the caller; the turn is never silently retried past the
// bounded retry policy.
type AnswerError struct {
	Err error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("generate answer: %v", e.Err)
}

func (e *AnswerError) Unwrap() error { return e.Err }
