package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Wizard errors (WIZARD-001 to WIZARD-099)
	ErrCodeWizardPhaseOutOfRange ErrorCode = "WIZARD-001"
	ErrCodeWizardNotStarted      ErrorCode = "WIZARD-002"
	ErrCodeWizardNoQuestions     ErrorCode = "WIZARD-003"
	ErrCodeWizardIncomplete      ErrorCode = "WIZARD-004"
	ErrCodeWizardUnknownQuestion ErrorCode = "WIZARD-005"
	ErrCodeWizardUnknownOption   ErrorCode = "WIZARD-006"
	ErrCodeWizardSubmitDeclined  ErrorCode = "WIZARD-007"
	ErrCodeWizardUnknownMode     ErrorCode = "WIZARD-008"
	ErrCodeWizardSelectionNeeded ErrorCode = "WIZARD-009"
	ErrCodeWizardEvaluation      ErrorCode = "WIZARD-010"
	ErrCodeWizardLoadFailed      ErrorCode = "WIZARD-011"
	ErrCodeWizardFinishEarly     ErrorCode = "WIZARD-012"

	// Backend errors (BACKEND-001 to BACKEND-099)
	ErrCodeBackendRequest ErrorCode = "BACKEND-001"
	ErrCodeBackendStatus  ErrorCode = "BACKEND-002"
	ErrCodeBackendDecode  ErrorCode = "BACKEND-003"
	ErrCodeBackendEncode  ErrorCode = "BACKEND-004"

	// Export errors (EXPORT-001 to EXPORT-099)
	ErrCodeExportMarshal        ErrorCode = "EXPORT-001"
	ErrCodeExportWrite          ErrorCode = "EXPORT-002"
	ErrCodeExportPDFUnavailable ErrorCode = "EXPORT-003"
	ErrCodeExportFormatUnknown  ErrorCode = "EXPORT-004"
	ErrCodeExportEmpty          ErrorCode = "EXPORT-005"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigRead    ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid ErrorCode = "CONFIG-002"
	ErrCodeConfigWrite   ErrorCode = "CONFIG-003"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
)

// WizardError represents an enhanced error with code, suggestions, and documentation
type WizardError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *WizardError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *WizardError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a WizardError carrying the same code
func (e *WizardError) Is(target error) bool {
	t, ok := target.(*WizardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new WizardError
func New(code ErrorCode, message string) *WizardError {
	return &WizardError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new WizardError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *WizardError {
	return &WizardError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *WizardError) WithSuggestion(suggestion string) *WizardError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *WizardError) WithSuggestions(suggestions ...string) *WizardError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *WizardError) WithDocs(url string) *WizardError {
	e.DocsURL = url
	return e
}

// MessageOf returns the human message of the first WizardError in err's
// chain, or err.Error() for other errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var we *WizardError
	if stderrors.As(err, &we) {
		return we.Message
	}
	return err.Error()
}

// CodeOf returns the code of the first WizardError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	for err != nil {
		if we, ok := err.(*WizardError); ok {
			return we.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Common error constructors for frequently used errors

// NewPhaseOutOfRangeError reports a phase outside [1, max]
func NewPhaseOutOfRangeError(phase, max int) *WizardError {
	return New(ErrCodeWizardPhaseOutOfRange, fmt.Sprintf("phase %d out of range (1-%d)", phase, max)).
		WithSuggestion(fmt.Sprintf("Use a phase number between 1 and %d", max)).
		WithSuggestion("Run 'stackwizard phases' to list the available phases")
}

// NewNotAnsweringError reports a navigation call outside the question stage
func NewNotAnsweringError(stage string) *WizardError {
	return New(ErrCodeWizardNotStarted, fmt.Sprintf("wizard is not answering questions (stage: %s)", stage)).
		WithSuggestion("Start the questionnaire first or start a new one")
}

// NewSubmitDeclinedError reports a submission the user cancelled
func NewSubmitDeclinedError(unanswered int) *WizardError {
	return New(ErrCodeWizardSubmitDeclined, fmt.Sprintf("submission cancelled with %d unanswered question(s)", unanswered))
}

// NewNoQuestionsError reports a questionnaire without any question
func NewNoQuestionsError() *WizardError {
	return New(ErrCodeWizardNoQuestions, "No se encontraron preguntas en el flujo.").
		WithSuggestion("Check that the backend loaded its flow definition").
		WithSuggestion("Run 'stackwizard phases' to verify the backend is reachable")
}

// NewIncompleteAnswersError reports a submission with unanswered questions
func NewIncompleteAnswersError(unanswered int) *WizardError {
	return New(ErrCodeWizardIncomplete, fmt.Sprintf("%d question(s) without answer", unanswered)).
		WithSuggestion("Answer the remaining questions or confirm the submission")
}

// NewFinishEarlyError reports a submission requested before the last phase
// in per-phase navigation
func NewFinishEarlyError(phase, last int) *WizardError {
	return New(ErrCodeWizardFinishEarly, "Responde todas las fases para finalizar.").
		WithSuggestion(fmt.Sprintf("You are on phase %d of %d; use Siguiente to continue", phase, last))
}

// NewUnknownQuestionError reports a selection for a question that is not on screen
func NewUnknownQuestionError(questionID string) *WizardError {
	return New(ErrCodeWizardUnknownQuestion, fmt.Sprintf("unknown question: %s", questionID))
}

// NewUnknownOptionError reports an option that does not belong to the question
func NewUnknownOptionError(questionID, optionID string) *WizardError {
	return New(ErrCodeWizardUnknownOption, fmt.Sprintf("option %s does not belong to question %s", optionID, questionID))
}

// NewUnknownModeError reports an unsupported navigation mode
func NewUnknownModeError(mode string) *WizardError {
	return New(ErrCodeWizardUnknownMode, fmt.Sprintf("unknown wizard mode: %s", mode)).
		WithSuggestion("Use one of: phase, tree")
}

// NewSelectionRequiredError reports forward navigation on an unanswered question
func NewSelectionRequiredError(questionID string) *WizardError {
	return New(ErrCodeWizardSelectionNeeded, "Selecciona una opción para continuar.").
		WithSuggestion(fmt.Sprintf("Choose an option for question %s first", questionID))
}

// NewEvaluationFailedError wraps a failed /evaluate round trip with the
// message shown in place of the recommendations.
func NewEvaluationFailedError(cause error) *WizardError {
	return Wrap(ErrCodeWizardEvaluation,
		"Lo sentimos, hubo un error al generar las recomendaciones. Por favor, intenta nuevamente.", cause)
}

// NewLoadFailedError wraps a failed question fetch
func NewLoadFailedError(cause error) *WizardError {
	return Wrap(ErrCodeWizardLoadFailed, "Error cargando preguntas: "+MessageOf(cause), cause)
}

// NewBackendStatusError creates an error for a non-2xx backend response
func NewBackendStatusError(path string, status int, detail string) *WizardError {
	msg := fmt.Sprintf("%s returned status %d", path, status)
	if detail != "" {
		msg += ": " + detail
	}
	return New(ErrCodeBackendStatus, msg).
		WithSuggestion("Check that the backend is running and reachable").
		WithSuggestion("Run 'stackwizard config view' to inspect server.url")
}

// NewPDFUnavailableError is returned by the PDF export placeholder
func NewPDFUnavailableError() *WizardError {
	return New(ErrCodeExportPDFUnavailable, "La exportación a PDF estará disponible próximamente").
		WithSuggestion("Use the JSON or YAML export instead")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *WizardError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *WizardError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
