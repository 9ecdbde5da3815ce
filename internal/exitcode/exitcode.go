package exitcode

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates an unreadable or invalid configuration
	ConfigError = 3

	// BackendError indicates the backend answered with an error
	BackendError = 4

	// ExportError indicates recommendations could not be exported
	ExportError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode maps an error to an exit code. Coded errors are mapped
// by category; other errors fall back to message matching.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if stderrors.Is(err, context.Canceled) {
		return Interrupted
	}

	if code := errors.CodeOf(err); code != "" {
		return fromCode(code)
	}

	errMsg := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}
	if strings.Contains(errMsg, "no such host") || strings.Contains(errMsg, "no route to host") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

func fromCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeBackendRequest:
		return NetworkError
	case errors.ErrCodeBackendStatus, errors.ErrCodeBackendDecode, errors.ErrCodeBackendEncode,
		errors.ErrCodeWizardEvaluation, errors.ErrCodeWizardLoadFailed, errors.ErrCodeWizardNoQuestions:
		return BackendError
	case errors.ErrCodeWizardPhaseOutOfRange, errors.ErrCodeWizardUnknownMode, errors.ErrCodeExportFormatUnknown:
		return UsageError
	}

	switch {
	case strings.HasPrefix(string(code), "CONFIG-"):
		return ConfigError
	case strings.HasPrefix(string(code), "EXPORT-"):
		return ExportError
	case strings.HasPrefix(string(code), "IO-"):
		return ExportError
	default:
		return GeneralError
	}
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case BackendError:
		return "Backend error"
	case ExportError:
		return "Export error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
