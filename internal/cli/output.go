package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes returned by Execute.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Synchronization failure (remote call failed, results lost, etc.)
	ExitCommandError = 2 // Command error (bad flags, invalid configuration, store not initialized, etc.)
)

// Error codes reported in JSON output.
const (
	CodeFailure = "E_SYNC"
	CodeCommand = "E_COMMAND"
)

// ExitError carries the process exit code a failed command should produce.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string
	Err     error // cause, may be nil
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches code and message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code.
// Errors that are not ExitErrors come from cobra itself (unknown flags,
// wrong argument counts) and are command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter renders command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope written with --format json.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError describes a failed command inside a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`              // CodeFailure or CodeCommand
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success writes data as an "ok" envelope, or as plain text.
// Text output relies on data implementing fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes an "error" envelope, or a one-line text message.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return err
}

// errorCode maps an exit code to the code shown in JSON output.
func errorCode(exit int) string {
	if exit == ExitFailure {
		return CodeFailure
	}
	return CodeCommand
}
