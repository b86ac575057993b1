package datasync

import (
	"errors"
	"fmt"

	"catalog-console/core/apiclient"
	"catalog-console/core/session"
)

// FetchError is a non-fatal read failure of one source. The source falls back to
// its cached snapshot.
type FetchError struct {
	Source Source
	Key    string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s) failed: %s", e.Key, e.Source, apiclient.Message(e.Err))
}

func (e *FetchError) Unwrap() error { return e.Err }

// isSessionFailure reports whether err means the bearer token is no longer accepted.
func isSessionFailure(err error) bool {
	return errors.Is(err, apiclient.ErrUnauthorized) || session.IsSessionError(err)
}
