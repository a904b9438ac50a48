package crawler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/umputun/chanscope/pkg/domain"
)

// ErrNotFound is returned by a Session when a handle, invite or peer does not exist
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned when a session is connected but not logged in
var ErrUnauthorized = errors.New("session not authorized")

// ConnectionError is returned when no transport strategy yields an authorized session.
// It is the only fatal error class of a run.
type ConnectionError struct {
	Strategies []string
	Attempts   int
	Err        error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect failed after %d attempts with %s: %v",
		e.Attempts, strings.Join(e.Strategies, ", "), e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ResolutionError is returned when no resolution strategy resolved a source
type ResolutionError struct {
	Source   string
	Failures map[domain.Strategy]error
}

func (e *ResolutionError) Error() string {
	keys := make([]string, 0, len(e.Failures))
	for k := range e.Failures {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Failures[domain.Strategy(k)]))
	}
	return fmt.Sprintf("can't resolve %q (%s)", e.Source, strings.Join(parts, "; "))
}

// Unwrap returns all strategy failures
func (e *ResolutionError) Unwrap() []error {
	res := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		res = append(res, err)
	}
	return res
}

// FetchError is returned when history can't be fetched after bounded retries
// or when the service breaks the descending cursor contract
type FetchError struct {
	Source string
	Cursor domain.Cursor
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q at cursor %d: %v", e.Source, e.Cursor, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError is returned when a store read or write fails
type PersistError struct {
	Source string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %q: %v", e.Source, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
