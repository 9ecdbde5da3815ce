// Package tui is the interactive terminal front end of the wizard, built on
// Bubble Tea. Network calls run in commands; the controller is only touched
// from Update.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/export"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

type screenKind int

const (
	screenWelcome screenKind = iota
	screenQuestion
	screenEmpty
	screenResults
	screenError
)

// screen keeps what the controller last asked to draw
type screen struct {
	kind     screenKind
	question wizard.QuestionView
	empty    wizard.EmptyPhaseView
	recs     questionnaire.Recommendations
	err      error
	cursor   int
}

func (s *screen) RenderWelcome() {
	s.kind = screenWelcome
	s.err = nil
}

func (s *screen) RenderQuestion(v wizard.QuestionView) {
	if s.kind != screenQuestion || s.question.Question.ID != v.Question.ID {
		s.cursor = 0
		for i, o := range v.Question.Options {
			if v.IsSelected(o.ID) {
				s.cursor = i
			}
		}
	}
	s.kind = screenQuestion
	s.question = v
}

func (s *screen) RenderEmptyPhase(v wizard.EmptyPhaseView) {
	s.kind = screenEmpty
	s.empty = v
}

func (s *screen) RenderResults(recs questionnaire.Recommendations) {
	s.kind = screenResults
	s.recs = recs
}

func (s *screen) RenderError(err error) {
	s.kind = screenError
	s.err = err
}

// Messages produced by commands
type (
	phaseLoadedMsg struct {
		action    wizard.Action
		questions []questionnaire.Question
		err       error
	}
	evaluatedMsg struct {
		payload []questionnaire.Answer
		recs    questionnaire.Recommendations
		err     error
	}
	autoAdvanceMsg struct{ token wizard.Token }
	exportedMsg    struct {
		path string
		err  error
	}
)

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title          lipgloss.Style
	Subtitle       lipgloss.Style
	Heading        lipgloss.Style
	Muted          lipgloss.Style
	Error          lipgloss.Style
	Warning        lipgloss.Style
	Success        lipgloss.Style
	Card           lipgloss.Style
	ErrorCard      lipgloss.Style
	ResultCard     lipgloss.Style
	Option         lipgloss.Style
	OptionCursor   lipgloss.Style
	OptionSelected lipgloss.Style
	Button         lipgloss.Style
	ButtonPrimary  lipgloss.Style
	ButtonDisabled lipgloss.Style
	StepActive     lipgloss.Style
	StepDone       lipgloss.Style
	StepPending    lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	purple := lipgloss.Color("63")
	gray := lipgloss.Color("241")
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(purple),
		Subtitle: lipgloss.NewStyle().Foreground(gray).MarginBottom(1),
		Heading:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Muted:    lipgloss.NewStyle().Foreground(gray),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")),
		Success:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(1, 2),
		ErrorCard: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(1, 2),
		ResultCard: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(gray).
			Padding(0, 1).
			Width(30),
		Option:         lipgloss.NewStyle().PaddingLeft(2),
		OptionCursor:   lipgloss.NewStyle().Foreground(purple).Bold(true),
		OptionSelected: lipgloss.NewStyle().Background(purple).Foreground(lipgloss.Color("230")).Bold(true).Padding(0, 1),
		Button:         lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.NormalBorder()),
		ButtonPrimary:  lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.NormalBorder()).BorderForeground(purple).Bold(true),
		ButtonDisabled: lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.NormalBorder()).BorderForeground(gray).Foreground(gray),
		StepActive:     lipgloss.NewStyle().Bold(true).Foreground(purple),
		StepDone:       lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		StepPending:    lipgloss.NewStyle().Foreground(gray),
	}
}

// Model is the Bubble Tea model of the wizard
type Model struct {
	ctx      context.Context
	ctl      *wizard.Controller
	screen   *screen
	exporter *export.Exporter

	keys     keyMap
	help     help.Model
	progress progress.Model
	styles   Styles

	busy       string
	notice     string
	confirming int
	width      int
	height     int
	quitting   bool
}

// NewModel creates the model together with a controller drawing into it.
// ctx bounds every backend call the model starts.
func NewModel(ctx context.Context, source wizard.Source, be wizard.Evaluator, exporter *export.Exporter, cfg wizard.Config) *Model {
	scr := &screen{}
	m := &Model{
		ctx:      ctx,
		ctl:      wizard.New(nil, source, be, scr, cfg),
		screen:   scr,
		exporter: exporter,
		keys:     defaultKeys(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		styles:   DefaultStyles(),
	}
	m.ctl.Show()
	return m
}

// Controller returns the wizard controller driven by the model
func (m *Model) Controller() *wizard.Controller { return m.ctl }

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle("Asistente de Selección Tecnológica")
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if w := msg.Width - 8; w > 10 && w < 60 {
			m.progress.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case phaseLoadedMsg:
		m.busy = ""
		err := m.ctl.ApplyPhase(msg.action.Page, msg.action.Landing, msg.questions, msg.err)
		if err != nil && m.ctl.Mode() == wizard.ModePhase {
			m.notice = errors.NewLoadFailedError(err).Message
		}
		return m, nil

	case evaluatedMsg:
		m.busy = ""
		if err := m.ctl.ApplyResults(msg.recs, msg.err); err != nil {
			return m, nil
		}
		m.ctl.SaveInBackground(m.ctx, msg.payload)
		return m, nil

	case autoAdvanceMsg:
		if m.busy != "" {
			return m, nil
		}
		if a, ok := m.ctl.PlanAutoAdvance(msg.token); ok {
			return m, m.perform(a)
		}
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.notice = errors.MessageOf(msg.err)
		} else {
			m.notice = "Recomendaciones exportadas a " + msg.path
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" || (m.confirming == 0 && key.Matches(msg, m.keys.Quit)) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.busy != "" {
		return m, nil
	}
	m.notice = ""

	if m.confirming > 0 {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirming = 0
			return m.run(m.ctl.PlanFinish(func(int) bool { return true }))
		case key.Matches(msg, m.keys.Cancel):
			m.confirming = 0
			return m.run(m.ctl.PlanFinish(func(int) bool { return false }))
		}
		return m, nil
	}

	switch m.ctl.State().Stage {
	case wizard.StageWelcome:
		if key.Matches(msg, m.keys.Start) {
			return m, m.perform(m.ctl.PlanStart())
		}

	case wizard.StageAnswering:
		return m.handleAnswerKey(msg)

	case wizard.StageResults:
		switch {
		case key.Matches(msg, m.keys.ExportJSON):
			return m, m.export(export.FormatJSON)
		case key.Matches(msg, m.keys.ExportYAML):
			return m, m.export(export.FormatYAML)
		case key.Matches(msg, m.keys.ExportPDF):
			return m, m.export(export.FormatPDF)
		case key.Matches(msg, m.keys.Restart):
			m.ctl.Restart()
		}
	}
	return m, nil
}

func (m *Model) handleAnswerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	options := len(m.screen.question.Question.Options)
	if m.screen.kind != screenQuestion {
		options = 0
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.screen.cursor > 0 {
			m.screen.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.screen.cursor < options-1 {
			m.screen.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		return m, m.choose(m.screen.cursor)
	case key.Matches(msg, m.keys.Next):
		return m.run(m.ctl.PlanNext())
	case key.Matches(msg, m.keys.Previous):
		return m.run(m.ctl.PlanPrevious())
	case key.Matches(msg, m.keys.Finish):
		if !m.ctl.Nav().FinishEarly {
			return m.run(m.ctl.PlanFinish(nil))
		}
		if n := m.ctl.State().Unanswered(); n > 0 {
			m.ctl.CancelAutoAdvance()
			m.confirming = n
			return m, nil
		}
		return m.run(m.ctl.PlanFinish(nil))
	default:
		if r := msg.Runes; len(r) == 1 && r[0] >= '1' && r[0] <= '9' {
			return m, m.choose(int(r[0] - '1'))
		}
	}
	return m, nil
}

// choose selects option i of the question on screen and schedules the
// auto-advance tick
func (m *Model) choose(i int) tea.Cmd {
	if m.screen.kind != screenQuestion {
		return nil
	}
	q := m.screen.question.Question
	if i < 0 || i >= len(q.Options) {
		return nil
	}
	m.screen.cursor = i

	token, err := m.ctl.SelectOption(q.ID, q.Options[i].ID)
	if err != nil {
		m.notice = errors.MessageOf(err)
		return nil
	}
	if token == 0 {
		return nil
	}
	return tea.Tick(wizard.AutoAdvanceDelay, func(time.Time) tea.Msg {
		return autoAdvanceMsg{token: token}
	})
}

func (m *Model) run(a wizard.Action, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.notice = errors.MessageOf(err)
		return m, nil
	}
	return m, m.perform(a)
}

// perform turns pending controller I/O into a command
func (m *Model) perform(a wizard.Action) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx

	switch a.Kind {
	case wizard.ActionLoad:
		m.busy = "Cargando preguntas..."
		return func() tea.Msg {
			questions, err := ctl.Fetch(ctx, a.Page)
			return phaseLoadedMsg{action: a, questions: questions, err: err}
		}
	case wizard.ActionSubmit:
		payload := ctl.BeginResults()
		m.busy = "Enviando..."
		return func() tea.Msg {
			recs, err := ctl.Evaluate(ctx, payload)
			return evaluatedMsg{payload: payload, recs: recs, err: err}
		}
	default:
		return nil
	}
}

func (m *Model) export(format export.Format) tea.Cmd {
	exporter, recs := m.exporter, m.ctl.State().Recommendations
	return func() tea.Msg {
		path, err := exporter.Export(format, recs)
		return exportedMsg{path: path, err: err}
	}
}

// Run starts the program on the terminal and blocks until the user quits
func Run(m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(m.ctx)}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run wizard: %w", err)
	}
	return nil
}
