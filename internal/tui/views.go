package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

const resultColumns = 3

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Asistente de Selección Tecnológica"))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Responde para obtener recomendaciones claras y prácticas."))
	b.WriteString("\n")

	switch m.screen.kind {
	case screenWelcome:
		b.WriteString(m.renderWelcome())
	case screenQuestion:
		b.WriteString(m.renderQuestion(m.screen.question))
	case screenEmpty:
		b.WriteString(m.renderEmptyPhase(m.screen.empty))
	case screenResults:
		b.WriteString(m.renderResults(m.screen.recs))
	case screenError:
		b.WriteString(m.styles.ErrorCard.Render(m.styles.Error.Render(errors.MessageOf(m.screen.err))))
	}
	b.WriteString("\n")

	if m.busy != "" {
		b.WriteString("\n" + m.styles.Muted.Render(m.busy) + "\n")
	}
	if m.confirming > 0 {
		b.WriteString("\n" + m.styles.Warning.Render(wizard.ConfirmPrompt))
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf(" (%d sin responder)", m.confirming)) + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n" + m.styles.Warning.Render(m.notice) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.forStage(m.ctl.State().Stage, m.confirming > 0, m.ctl.Nav().FinishEarly)))
	return b.String()
}

func (m *Model) renderWelcome() string {
	body := m.styles.Heading.Render(wizard.WelcomeTitle) + "\n\n" +
		lipgloss.NewStyle().Width(60).Render(wizard.WelcomeMessage) + "\n\n" +
		m.styles.ButtonPrimary.Render(wizard.LabelStart)
	return m.styles.Card.Render(body)
}

func (m *Model) renderQuestion(v wizard.QuestionView) string {
	var b strings.Builder

	if v.Mode == wizard.ModeTree {
		b.WriteString(m.renderTimeline(v.Timeline))
	} else {
		b.WriteString(m.renderSteps(v.Steps))
	}
	b.WriteString("\n\n")

	var card strings.Builder
	if h := v.Heading(); h != "" {
		card.WriteString(m.styles.Heading.Render(h) + "\n")
	}
	card.WriteString(m.styles.Muted.Render(fmt.Sprintf("Pregunta %d de %d", v.Index+1, v.Count)) + "\n\n")
	card.WriteString(lipgloss.NewStyle().Bold(true).Width(60).Render(v.Question.Text) + "\n")
	if d := v.Question.Description(); d != "" {
		card.WriteString(m.styles.Muted.Width(60).Render(d) + "\n")
	}
	card.WriteString("\n")

	if len(v.Question.Options) == 0 {
		card.WriteString(m.styles.Muted.Render(wizard.NoOptionsText) + "\n")
	}
	for i, o := range v.Question.Options {
		card.WriteString(m.renderOption(i, o, v.IsSelected(o.ID)) + "\n")
	}

	card.WriteString("\n" + m.renderNav(v.Nav))
	b.WriteString(m.styles.Card.Render(card.String()))
	return b.String()
}

func (m *Model) renderOption(i int, o questionnaire.Option, selected bool) string {
	cursor := "  "
	if i == m.screen.cursor {
		cursor = m.styles.OptionCursor.Render("> ")
	}
	text := fmt.Sprintf("%d) %s", i+1, o.DisplayText())
	if selected {
		text = m.styles.OptionSelected.Render(text)
	}
	return cursor + text
}

func (m *Model) renderEmptyPhase(v wizard.EmptyPhaseView) string {
	body := m.styles.Heading.Render(v.PhaseTitle) + "\n\n" +
		m.styles.Muted.Render(wizard.EmptyPhaseText) + "\n\n" +
		m.renderNav(v.Nav)
	return m.renderSteps(v.Steps) + "\n\n" + m.styles.Card.Render(body)
}

// renderSteps draws the five phase circles
func (m *Model) renderSteps(steps []wizard.StepState) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		label := fmt.Sprintf("%d %s", i+1, questionnaire.PhaseTitle(i+1))
		switch s {
		case wizard.StepCompleted:
			parts[i] = m.styles.StepDone.Render("✓ " + label)
		case wizard.StepActive:
			parts[i] = m.styles.StepActive.Render("● " + label)
		default:
			parts[i] = m.styles.StepPending.Render("○ " + label)
		}
	}
	return strings.Join(parts, m.styles.Muted.Render("  ─  "))
}

// renderTimeline draws the fill bar and one marker per question
func (m *Model) renderTimeline(t wizard.Timeline) string {
	var markers strings.Builder
	for i := 0; i < t.Total; i++ {
		switch {
		case t.Done(i):
			markers.WriteString(m.styles.StepDone.Render("●"))
		case t.IsCurrent(i):
			markers.WriteString(m.styles.StepActive.Render("◉"))
		default:
			markers.WriteString(m.styles.StepPending.Render("○"))
		}
	}
	counter := m.styles.Muted.Render(fmt.Sprintf(" %d/%d", t.Answered, t.Total))
	return m.progress.ViewAs(t.Ratio()) + counter + "\n" + markers.String()
}

func (m *Model) renderNav(n wizard.Nav) string {
	prev := m.styles.ButtonDisabled.Render("← " + wizard.LabelPrevious)
	if n.PrevEnabled {
		prev = m.styles.Button.Render("← " + wizard.LabelPrevious)
	}

	label := n.NextLabel + " →"
	if n.NextLabel == wizard.LabelFinish {
		label = n.NextLabel
	}
	next := m.styles.ButtonDisabled.Render(label)
	if n.NextEnabled {
		next = m.styles.ButtonPrimary.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, prev, "  ", next)
}

func (m *Model) renderResults(recs questionnaire.Recommendations) string {
	var b strings.Builder

	b.WriteString(m.styles.Success.Render("Tus recomendaciones") + "\n\n")

	sections := wizard.ResultSections(recs)
	var rows []string
	for start := 0; start < len(sections); start += resultColumns {
		end := min(start+resultColumns, len(sections))
		cards := make([]string, 0, end-start)
		for _, s := range sections[start:end] {
			cards = append(cards, m.renderSection(s))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteString("\n\n")

	var steps strings.Builder
	steps.WriteString(m.styles.Heading.Render("Pasos recomendados") + "\n")
	for i, s := range wizard.NextSteps {
		steps.WriteString(fmt.Sprintf("%d. %s\n", i+1, s))
	}
	b.WriteString(lipgloss.NewStyle().Width(90).Render(steps.String()))
	return b.String()
}

func (m *Model) renderSection(s wizard.ResultSection) string {
	var b strings.Builder
	b.WriteString(m.styles.Heading.Render(s.Label) + "\n")
	if len(s.Items) == 0 {
		b.WriteString(m.styles.Muted.Render(wizard.EmptyCategory))
	}
	for i, item := range s.Items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("• " + item)
	}
	return m.styles.ResultCard.Render(b.String())
}
