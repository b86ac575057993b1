package mutation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMutationInFlight is returned while another write to the same collection runs.
	ErrMutationInFlight = errors.New("another write to this collection is in progress")
	// ErrNotConfirmed is returned for a delete that was not explicitly confirmed.
	ErrNotConfirmed = errors.New("delete requires confirmation")
	// ErrMissingID is returned for an update or delete without a record id.
	ErrMissingID = errors.New("record id is required")
)

// ValidationError lists every required field left empty. It is raised before any
// network call.
type ValidationError struct {
	Key    string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Key, strings.Join(e.Fields, ", "))
}

// MutationError is a rejected or failed write. Nothing was cached or invalidated.
type MutationError struct {
	Method     Method
	Key        string
	ID         string
	StatusCode int
	Message    string
	Err        error
}

func (e *MutationError) Error() string {
	target := e.Key
	if e.ID != "" {
		target += "/" + e.ID
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Method, target, e.Message)
}

func (e *MutationError) Unwrap() error { return e.Err }
