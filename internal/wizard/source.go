package wizard

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
)

// Mode selects how questions are fetched
type Mode string

const (
	// ModePhase fetches one page per phase from /questions/{phase}
	ModePhase Mode = "phase"
	// ModeTree fetches the whole flow once and walks it as a single page
	ModeTree Mode = "tree"
)

// ParseMode parses a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePhase, "":
		return ModePhase, nil
	case ModeTree:
		return ModeTree, nil
	default:
		return "", errors.NewUnknownModeError(s)
	}
}

// Source supplies question pages to the controller
type Source interface {
	Mode() Mode
	// Pages is the number of pages the flow is split into
	Pages() int
	// Fetch returns the questions of page (1-based)
	Fetch(ctx context.Context, page int) ([]questionnaire.Question, error)
}

// QuestionFetcher fetches the questions of a single phase
type QuestionFetcher interface {
	Questions(ctx context.Context, phase int) ([]questionnaire.Question, error)
}

// TreeFetcher fetches the flattened flow
type TreeFetcher interface {
	Tree(ctx context.Context) ([]questionnaire.Question, error)
}

// PhaseSource pages the flow by phase
type PhaseSource struct {
	Client QuestionFetcher
}

func (s PhaseSource) Mode() Mode { return ModePhase }
func (s PhaseSource) Pages() int { return questionnaire.PhaseCount }

func (s PhaseSource) Fetch(ctx context.Context, page int) ([]questionnaire.Question, error) {
	if page < 1 || page > questionnaire.PhaseCount {
		return nil, errors.NewPhaseOutOfRangeError(page, questionnaire.PhaseCount)
	}
	return s.Client.Questions(ctx, page)
}

// TreeSource serves the flattened flow as one page
type TreeSource struct {
	Client TreeFetcher
}

func (s TreeSource) Mode() Mode { return ModeTree }
func (s TreeSource) Pages() int { return 1 }

func (s TreeSource) Fetch(ctx context.Context, page int) ([]questionnaire.Question, error) {
	if page != 1 {
		return nil, errors.NewPhaseOutOfRangeError(page, 1)
	}
	return s.Client.Tree(ctx)
}

// Client is the backend surface a full wizard needs
type Client interface {
	QuestionFetcher
	TreeFetcher
	Evaluator
}

// NewSource returns the source for mode backed by client
func NewSource(mode Mode, client Client) (Source, error) {
	switch mode {
	case ModePhase:
		return PhaseSource{Client: client}, nil
	case ModeTree:
		return TreeSource{Client: client}, nil
	default:
		return nil, errors.NewUnknownModeError(string(mode))
	}
}
