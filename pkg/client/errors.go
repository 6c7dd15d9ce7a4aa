package client

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error kinds reported by the server in the "error" field.
const (
	KindValidation            = "validation_failed"
	KindNotFound              = "not_found"
	KindUnauthenticated       = "unauthenticated"
	KindUnauthorized          = "unauthorized"
	KindConflict              = "conflict"
	KindReferentialConstraint = "referential_constraint"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Kind    string
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d %s", e.Status, e.Message)
	}

	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", e.Status, e.Message)
	for _, k := range names {
		fmt.Fprintf(&b, "\n  %s: %s", k, strings.Join(e.Fields[k], " "))
	}
	return b.String()
}

// ErrNotLoggedIn is returned by calls that need a token when the session has
// none.
var ErrNotLoggedIn = errors.New("not logged in")

// ErrForbidden is returned before any request when the session lacks the
// capability an operation needs.
var ErrForbidden = errors.New("operation not allowed for this role")

func IsKind(err error, kind string) bool {
	var e *APIError
	return errors.As(err, &e) && e.Kind == kind
}

func IsNotFound(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

func IsUnauthenticated(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusUnauthorized
}
