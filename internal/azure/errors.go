package azure

import (
	"errors"
	"fmt"
)

// Op names a remote operation for error reporting and logs.
type Op string

const (
	OpCreatePlan   Op = "create plan"
	OpCreateSuite  Op = "create suite"
	OpListPoints   Op = "list points"
	OpCreateRun    Op = "create run"
	OpPatchResults Op = "patch run results"
)

// ErrorKind distinguishes failed exchanges from malformed responses.
type ErrorKind string

const (
	// KindTransport means the exchange did not complete with a 2xx response.
	KindTransport ErrorKind = "transport"

	// KindData means the response was well-formed HTTP but lacked an expected field.
	KindData ErrorKind = "data"
)

// ErrMissingField is wrapped by data errors naming the absent field.
var ErrMissingField = errors.New("missing field in response")

// OperationError reports a failed remote operation with its cause attached.
type OperationError struct {
	Op   Op
	Kind ErrorKind
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// StatusError is the cause of a transport error for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsTransportError reports whether err is (or wraps) a transport failure.
func IsTransportError(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe) && oe.Kind == KindTransport
}

// IsDataError reports whether err is (or wraps) a malformed-response failure.
func IsDataError(err error) bool {
	var oe *OperationError
	return errors.As(err, &oe) && oe.Kind == KindData
}

func transportErr(op Op, err error) error {
	return &OperationError{Op: op, Kind: KindTransport, Err: err}
}

func dataErr(op Op, err error) error {
	return &OperationError{Op: op, Kind: KindData, Err: err}
}

func missingField(op Op, field string) error {
	return dataErr(op, fmt.Errorf("%w: %s", ErrMissingField, field))
}
