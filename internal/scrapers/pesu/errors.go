package pesu

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrAuthentication is returned when the portal rejects the credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrCsrfToken is returned when a page that should carry a csrf token doesn't.
	ErrCsrfToken = errors.New("csrf token not found")
	// ErrInvalidSemester is matched by every *InvalidSemesterError.
	ErrInvalidSemester = errors.New("invalid semester")
	// ErrNoSemesters is returned when the semester list of a logged in
	// account is empty.
	ErrNoSemesters   = errors.New("no semesters found")
	ErrSessionClosed = errors.New("session closed")
	// ErrNotAuthenticated is returned by fetches made before a successful login,
	// errors.Is(ErrNotAuthenticated, ErrAuthentication) holds.
	ErrNotAuthenticated = fmt.Errorf("not logged in: %w", ErrAuthentication)
)

// HTTPError is returned for responses with a non-2xx status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %s", e.Method, e.URL, e.Status)
}

type InvalidSemesterError struct {
	Semester  int
	Available []int
}

func (e *InvalidSemesterError) Error() string {
	available := slices.Clone(e.Available)
	slices.Sort(available)
	parts := make([]string, len(available))
	for i, s := range available {
		parts[i] = fmt.Sprint(s)
	}
	return fmt.Sprintf(
		"semester %d not found, available semesters: [%s]",
		e.Semester, strings.Join(parts, ", "),
	)
}

func (e *InvalidSemesterError) Is(target error) bool {
	return target == ErrInvalidSemester
}
