package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

// PromptForString displays an input prompt prefilled with def
func PromptForString(title, description, def string) (string, error) {
	value := def

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Description(description).
			Value(&value),
	))

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return value, nil
}

// PromptForSelect displays a selection prompt with multiple options
func PromptForSelect(title string, options []string, def string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	huhOptions := make([]huh.Option[string], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(opt, opt)
	}

	selected := def
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(title).
			Options(huhOptions...).
			Value(&selected),
	))

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return selected, nil
}

// ConfirmSubmit asks whether to submit with unanswered questions. A failed
// prompt counts as a refusal.
func ConfirmSubmit(unanswered int) bool {
	confirmed := false

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(wizard.ConfirmPrompt).
			Description(fmt.Sprintf("%d pregunta(s) sin responder", unanswered)).
			Affirmative("Enviar").
			Negative("Volver").
			Value(&confirmed),
	))

	if err := form.Run(); err != nil {
		return false
	}
	return confirmed
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"JENKINS_URL",
	"BUILDKITE",
}

// ShouldPrompt returns false in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}
	return IsInteractive()
}
