// Package console renders the wizard as plain lines on a writer and reads
// commands line by line.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

type styles struct {
	title    lipgloss.Style
	heading  lipgloss.Style
	muted    lipgloss.Style
	selected lipgloss.Style
	errText  lipgloss.Style
	key      lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		heading:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("241")),
		selected: r.NewStyle().Bold(true).Foreground(lipgloss.Color("46")),
		errText:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		key:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
	}
}

// Renderer prints wizard screens to a writer
type Renderer struct {
	out    io.Writer
	styles styles
}

// NewRenderer returns a renderer writing to out. Colors follow the
// terminal capabilities of out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out, styles: newStyles(lipgloss.NewRenderer(out))}
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Renderer) hint(key, label string, enabled bool) string {
	s := "[" + key + "] " + label
	if !enabled {
		return r.styles.muted.Render(s)
	}
	return r.styles.key.Render("["+key+"]") + " " + label
}

func (r *Renderer) RenderWelcome() {
	r.printf("\n%s\n\n%s\n\n%s\n",
		r.styles.title.Render(wizard.WelcomeTitle),
		wizard.WelcomeMessage,
		r.hint("enter", wizard.LabelStart, true)+"   "+r.hint("q", "Salir", true))
}

func (r *Renderer) steps(steps []wizard.StepState) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		switch s {
		case wizard.StepActive:
			parts[i] = r.styles.heading.Render(fmt.Sprintf("[%d]", i+1))
		case wizard.StepCompleted:
			parts[i] = r.styles.selected.Render(fmt.Sprintf("[%d✓]", i+1))
		default:
			parts[i] = r.styles.muted.Render(fmt.Sprintf(" %d ", i+1))
		}
	}
	return strings.Join(parts, " ")
}

func (r *Renderer) nav(n wizard.Nav, finish bool) string {
	parts := []string{
		r.hint("p", wizard.LabelPrevious, n.PrevEnabled),
		r.hint("n", n.NextLabel, n.NextEnabled),
	}
	if finish && n.FinishEarly && n.NextLabel != wizard.LabelFinish {
		parts = append(parts, r.hint("f", wizard.LabelFinish, true))
	}
	parts = append(parts, r.hint("q", "Salir", true))
	return strings.Join(parts, "   ")
}

func (r *Renderer) RenderQuestion(v wizard.QuestionView) {
	r.printf("\n%s\n", r.steps(v.Steps))
	if v.Mode == wizard.ModeTree {
		r.printf("%s\n", r.styles.muted.Render(fmt.Sprintf("%d/%d respondidas (%d%%)", v.Timeline.Answered, v.Timeline.Total, v.Timeline.Percent)))
	}
	if h := v.Heading(); h != "" {
		r.printf("%s\n", r.styles.heading.Render(h))
	}
	r.printf("%s\n", r.styles.muted.Render(fmt.Sprintf("Pregunta %d de %d", v.Index+1, v.Count)))
	r.printf("\n%s\n", r.styles.title.Render(v.Question.Text))
	if d := v.Question.Description(); d != "" {
		r.printf("%s\n", r.styles.muted.Render(d))
	}
	r.printf("\n")

	if len(v.Question.Options) == 0 {
		r.printf("  %s\n", wizard.NoOptionsText)
	}
	for i, o := range v.Question.Options {
		if v.IsSelected(o.ID) {
			r.printf("%s\n", r.styles.selected.Render(fmt.Sprintf("> %d) %s", i+1, o.DisplayText())))
			continue
		}
		r.printf("  %d) %s\n", i+1, o.DisplayText())
	}

	r.printf("\n%s\n", r.nav(v.Nav, true))
}

func (r *Renderer) RenderEmptyPhase(v wizard.EmptyPhaseView) {
	r.printf("\n%s\n%s\n\n%s\n\n%s\n",
		r.steps(v.Steps),
		r.styles.heading.Render(v.PhaseTitle),
		wizard.EmptyPhaseText,
		r.nav(v.Nav, false))
}

func (r *Renderer) RenderResults(recs questionnaire.Recommendations) {
	r.printf("\n%s\n", r.styles.title.Render("Recomendaciones"))
	for _, s := range wizard.ResultSections(recs) {
		r.printf("\n%s\n", r.styles.heading.Render(s.Label))
		if len(s.Items) == 0 {
			r.printf("  %s\n", r.styles.muted.Render(wizard.EmptyCategory))
			continue
		}
		for _, item := range s.Items {
			r.printf("  • %s\n", item)
		}
	}

	r.printf("\n%s\n", r.styles.heading.Render("Pasos recomendados"))
	for i, step := range wizard.NextSteps {
		r.printf("  %d. %s\n", i+1, step)
	}

	r.printf("\n%s\n", strings.Join([]string{
		r.hint("e", "Exportar JSON", true),
		r.hint("y", "Exportar YAML", true),
		r.hint("d", "Exportar PDF", true),
		r.hint("r", "Nueva consulta", true),
		r.hint("q", "Salir", true),
	}, "   "))
}

func (r *Renderer) RenderError(err error) {
	r.printf("\n%s\n", r.styles.errText.Render(errors.MessageOf(err)))
}

// Notice prints a one-line message below the current screen
func (r *Renderer) Notice(msg string) {
	r.printf("%s\n", r.styles.muted.Render(msg))
}
