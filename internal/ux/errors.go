package ux

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError analyzes an error and adds contextual suggestions. Coded
// errors already carry their own and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var we *errors.WizardError
	if stderrors.As(err, &we) && len(we.Suggestions) > 0 {
		return err
	}

	errMsg := err.Error()

	// Backend unreachable
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Start the backend (uvicorn app:app --port 8000) or point server.url at a running instance")
	}
	if strings.Contains(errMsg, "no such host") {
		return NewErrorWithSuggestion(err,
			"Check the host name in server.url ('stackwizard config view')")
	}
	if strings.Contains(errMsg, "deadline exceeded") || strings.Contains(errMsg, "Client.Timeout") {
		return NewErrorWithSuggestion(err,
			"The backend is slow to answer; raise server.timeout or check its load")
	}

	// Backend without a flow definition
	if strings.Contains(errMsg, "Tree not loaded") {
		return NewErrorWithSuggestion(err,
			"The backend has not parsed its flow file yet; check the backend logs")
	}

	// Saved answers
	if strings.Contains(errMsg, "no such file or directory") {
		if strings.Contains(errMsg, ".json") || strings.Contains(errMsg, ".yaml") {
			return NewErrorWithSuggestion(err,
				"Pass a file written by the wizard or an array of {questionId, answerId, phase}")
		}
	}

	// Permission errors
	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions of export.dir or choose another directory with --export-dir")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
