// errors/config_errors.go
package errors

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)
