// errors/connection_errors.go
package errors

import "errors"

var (
	ErrConnection       = errors.New("odoo connection error")
	ErrNotConnected     = errors.New("not connected to Odoo")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAuthFailed       = errors.New("authentication failed")
)
