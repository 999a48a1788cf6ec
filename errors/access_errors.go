// errors/access_errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrNoConnection = errors.New("no connection available for access control")
)

// AccessDeniedError carries the model, operation and human-readable
// reason for a denied access check.
type AccessDeniedError struct {
	Model     string
	Operation string
	Reason    string
}

func (e *AccessDeniedError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("access denied to %s.%s", e.Model, e.Operation)
}

func (e *AccessDeniedError) Unwrap() error {
	return ErrAccessDenied
}
