// Package questionnaire holds the data exchanged with the recommendation
// backend: questions, options, answers, recommendations and session records.
package questionnaire

import (
	"strconv"
	"time"
)

// PhaseCount is the number of fixed phases in the questionnaire
const PhaseCount = 5

// PhaseTitles are the display names of the five phases
var PhaseTitles = map[int]string{
	1: "Identificación del Proyecto",
	2: "Requerimientos Técnicos",
	3: "Gestión de Datos",
	4: "Contexto de Desarrollo",
	5: "Consideraciones Específicas",
}

// PhaseTitle returns the display name of a phase, falling back to "Fase N"
func PhaseTitle(phase int) string {
	if t, ok := PhaseTitles[phase]; ok {
		return t
	}
	return "Fase " + strconv.Itoa(phase)
}

// Option is one selectable choice of a question
type Option struct {
	ID       string         `json:"id" yaml:"id"`
	Text     string         `json:"text" yaml:"text"`
	Label    string         `json:"label,omitempty" yaml:"label,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// DisplayText returns the text shown for the option, falling back to its
// label and finally its identifier.
func (o Option) DisplayText() string {
	switch {
	case o.Text != "":
		return o.Text
	case o.Label != "":
		return o.Label
	default:
		return o.ID
	}
}

// QuestionMetadata carries optional presentation hints
type QuestionMetadata struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Question is a single-choice prompt
type Question struct {
	ID         string            `json:"id" yaml:"id"`
	Phase      int               `json:"phase" yaml:"phase"`
	PhaseTitle string            `json:"phaseTitle,omitempty" yaml:"phase_title,omitempty"`
	Text       string            `json:"text" yaml:"text"`
	Metadata   *QuestionMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Options    []Option          `json:"options" yaml:"options"`
}

// Description returns the optional question description
func (q Question) Description() string {
	if q.Metadata == nil {
		return ""
	}
	return q.Metadata.Description
}

// Option looks up an option by identifier
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Answer is one entry of the evaluation payload
type Answer struct {
	QuestionID string `json:"questionId" yaml:"question_id"`
	AnswerID   string `json:"answerId" yaml:"answer_id"`
	Phase      int    `json:"phase" yaml:"phase"`
}

// Category names a recommendation group
type Category string

// Recommendation categories returned by the backend
const (
	CategoryFrontend     Category = "frontend"
	CategoryBackend      Category = "backend"
	CategoryDatabase     Category = "database"
	CategoryArchitecture Category = "architecture"
	CategoryMethodology  Category = "methodology"
	CategorySecurity     Category = "security"
)

// Categories lists the categories in display order
var Categories = []Category{
	CategoryFrontend,
	CategoryBackend,
	CategoryDatabase,
	CategoryArchitecture,
	CategoryMethodology,
	CategorySecurity,
}

var categoryLabels = map[Category]string{
	CategoryFrontend:     "Frontend",
	CategoryBackend:      "Backend",
	CategoryDatabase:     "Base de datos",
	CategoryArchitecture: "Arquitectura",
	CategoryMethodology:  "Metodología",
	CategorySecurity:     "Seguridad",
}

// Label returns the Spanish display label of the category
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Recommendations maps a category to its ordered suggestions. Categories the
// backend did not return are absent, not empty.
type Recommendations map[Category][]string

// Items returns the suggestions for a category
func (r Recommendations) Items(c Category) []string {
	return r[c]
}

// Total counts suggestions across all categories
func (r Recommendations) Total() int {
	n := 0
	for _, items := range r {
		n += len(items)
	}
	return n
}

// Session is the record persisted through /save-session
type Session struct {
	ID        string   `json:"id"`
	Answers   []Answer `json:"answers"`
	Timestamp string   `json:"timestamp"`
}

// NewSession builds a session record keyed by the epoch milliseconds of now
func NewSession(answers []Answer, now time.Time) Session {
	return Session{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Answers:   answers,
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

// PhaseSummary is an entry of GET /phases
type PhaseSummary struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}
