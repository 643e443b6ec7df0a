package services

import (
	"errors"
	"fmt"
)

// Sentinel errors detected by explicit precondition checks. Handlers map
// these to 4xx responses; anything else becomes a 500.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrInvalidState = errors.New("operation not valid for current status")
	ErrValidation   = errors.New("invalid input")
)

// UpstreamCallError means the model provider call failed or timed out
type UpstreamCallError struct {
	Err error
}

func (e *UpstreamCallError) Error() string {
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *UpstreamCallError) Unwrap() error { return e.Err }

// UpstreamParseError means the model response was not valid JSON when
// structured output was required. No fallback content is substituted.
type UpstreamParseError struct {
	Err error
}

func (e *UpstreamParseError) Error() string {
	return fmt.Sprintf("model response was not valid JSON: %v", e.Err)
}

func (e *UpstreamParseError) Unwrap() error { return e.Err }
