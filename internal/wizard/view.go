package wizard

import (
	"fmt"
	"math"
	"sort"

	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
)

// Navigation labels
const (
	LabelStart    = "Comenzar"
	LabelPrevious = "Anterior"
	LabelNext     = "Siguiente"
	LabelFinish   = "Finalizar"
)

// Screen texts
const (
	WelcomeTitle   = "¡Bienvenido al Asistente de Selección Tecnológica!"
	WelcomeMessage = "Este asistente te ayudará a seleccionar la mejor tecnología para tu proyecto a través de una serie de preguntas organizadas en 5 fases."
	EmptyPhaseText = "No hay preguntas en esta fase."
	NoOptionsText  = "Sin opciones."
	ConfirmPrompt  = "No respondiste todas las preguntas. ¿Enviar de todas formas?"
	EmptyCategory  = "No hay recomendaciones específicas."
)

// NextSteps is the fixed action list shown under the recommendations
var NextSteps = []string{
	"Prioriza la fase mínima viable (MVP) y elige stack recomendado para frontend y backend.",
	"Configura una base de datos gestionada (Postgres) y backups.",
	"Implementa CI/CD y monitorización básica.",
	"Planifica seguridad básica: HTTPS, autenticación y backups.",
}

// Renderer draws wizard screens. Implementations are called from the
// goroutine that owns the controller.
type Renderer interface {
	RenderWelcome()
	RenderQuestion(QuestionView)
	RenderEmptyPhase(EmptyPhaseView)
	RenderResults(questionnaire.Recommendations)
	RenderError(err error)
}

// Nav is the state of the navigation buttons
type Nav struct {
	PrevEnabled bool
	NextEnabled bool
	// NextLabel is LabelNext or LabelFinish
	NextLabel string
	// FinishEarly reports whether Finish may submit before the last question
	FinishEarly bool
}

// StepState is the display state of one progress step
type StepState int

const (
	StepPending StepState = iota
	StepActive
	StepCompleted
)

// Timeline is the answered/total fill bar of a page
type Timeline struct {
	Answered int
	Total    int
	// Percent is the rounded fill percentage
	Percent int
}

// Done reports whether step i (0-based) is answered
func (t Timeline) Done(i int) bool { return i < t.Answered }

// IsCurrent reports whether step i (0-based) is the next one to answer
func (t Timeline) IsCurrent(i int) bool { return i == t.Answered }

// Ratio returns the fill as a fraction in [0,1]
func (t Timeline) Ratio() float64 { return float64(t.Percent) / 100 }

func newTimeline(answered, total int) Timeline {
	t := Timeline{Answered: answered, Total: total}
	if total > 0 {
		t.Percent = int(math.Round(float64(answered) / float64(total) * 100))
	}
	return t
}

// QuestionView is everything needed to draw the current question
type QuestionView struct {
	Mode       Mode
	Question   questionnaire.Question
	Index      int
	Count      int
	Phase      int
	PhaseTitle string
	// Selected is the previously chosen option id, or ""
	Selected string
	Nav      Nav
	Steps    []StepState
	Timeline Timeline
}

// Heading returns the title line above the question
func (v QuestionView) Heading() string {
	if v.Mode == ModeTree {
		if v.PhaseTitle == "" {
			return ""
		}
		return fmt.Sprintf("%s (Fase %d)", v.PhaseTitle, v.Phase)
	}
	return v.PhaseTitle
}

// IsSelected reports whether optionID is the marked option
func (v QuestionView) IsSelected(optionID string) bool {
	return v.Selected != "" && v.Selected == optionID
}

// EmptyPhaseView is drawn when a phase has no questions
type EmptyPhaseView struct {
	Phase      int
	PhaseTitle string
	Nav        Nav
	Steps      []StepState
}

// PhaseSteps returns the per-phase step states for the given active phase
func PhaseSteps(active int) []StepState {
	steps := make([]StepState, questionnaire.PhaseCount)
	for i := range steps {
		switch n := i + 1; {
		case n == active:
			steps[i] = StepActive
		case n < active:
			steps[i] = StepCompleted
		}
	}
	return steps
}

// ResultSection is one category block of the results screen
type ResultSection struct {
	Category questionnaire.Category
	Label    string
	Items    []string
}

// ResultSections lists the fixed categories in display order, followed by
// any extra category the backend returned, sorted by name.
func ResultSections(recs questionnaire.Recommendations) []ResultSection {
	sections := make([]ResultSection, 0, len(questionnaire.Categories))
	known := make(map[questionnaire.Category]bool, len(questionnaire.Categories))
	for _, c := range questionnaire.Categories {
		known[c] = true
		sections = append(sections, ResultSection{Category: c, Label: c.Label(), Items: recs[c]})
	}

	var extra []questionnaire.Category
	for c := range recs {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, c := range extra {
		sections = append(sections, ResultSection{Category: c, Label: c.Label(), Items: recs[c]})
	}
	return sections
}
