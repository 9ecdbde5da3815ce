package wizard

import "github.com/felixgeelhaar/stackwizard/internal/questionnaire"

// Stage is the coarse position of a wizard instance
type Stage int

const (
	StageWelcome Stage = iota
	StageAnswering
	StageResults
)

func (s Stage) String() string {
	switch s {
	case StageWelcome:
		return "welcome"
	case StageAnswering:
		return "answering"
	case StageResults:
		return "results"
	default:
		return "unknown"
	}
}

// Answers maps question ids to the selected option id. Iteration follows the
// order in which questions were first answered.
type Answers struct {
	order  []string
	values map[string]string
}

// NewAnswers returns an empty mapping
func NewAnswers() *Answers {
	return &Answers{values: make(map[string]string)}
}

// Set records optionID for questionID, overwriting a previous choice
func (a *Answers) Set(questionID, optionID string) {
	if _, ok := a.values[questionID]; !ok {
		a.order = append(a.order, questionID)
	}
	a.values[questionID] = optionID
}

// Get returns the option selected for questionID
func (a *Answers) Get(questionID string) (string, bool) {
	v, ok := a.values[questionID]
	return v, ok
}

// Has reports whether questionID has an answer
func (a *Answers) Has(questionID string) bool {
	_, ok := a.values[questionID]
	return ok
}

// Len returns the number of answered questions
func (a *Answers) Len() int { return len(a.order) }

// QuestionIDs returns the answered question ids in first-answer order
func (a *Answers) QuestionIDs() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Map returns a copy of the mapping
func (a *Answers) Map() map[string]string {
	out := make(map[string]string, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Reset discards every answer
func (a *Answers) Reset() {
	a.order = nil
	a.values = make(map[string]string)
}

// Token identifies one scheduled auto-advance. The zero Token is never issued.
type Token uint64

// State is the navigation state of one wizard instance. It is owned by a
// single goroutine and carries no locking.
type State struct {
	Stage     Stage
	Page      int
	Index     int
	Questions []questionnaire.Question
	Answers   *Answers

	// Catalog holds every question loaded so far, across pages
	Catalog map[string]questionnaire.Question

	// Recommendations holds the last evaluation result
	Recommendations questionnaire.Recommendations

	lastToken Token
	pending   Token
}

// NewState returns a state positioned on the welcome screen
func NewState() *State {
	return &State{
		Stage:   StageWelcome,
		Page:    1,
		Answers: NewAnswers(),
		Catalog: make(map[string]questionnaire.Question),
	}
}

// Current returns the question at the current index
func (s *State) Current() (questionnaire.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return questionnaire.Question{}, false
	}
	return s.Questions[s.Index], true
}

// Unanswered counts catalogued questions without an answer
func (s *State) Unanswered() int {
	n := 0
	for id := range s.Catalog {
		if !s.Answers.Has(id) {
			n++
		}
	}
	return n
}

// Payload builds the evaluation request from the answers, in answer order.
// The phase comes from the catalog and falls back to 1 for unknown questions.
func (s *State) Payload() []questionnaire.Answer {
	out := make([]questionnaire.Answer, 0, s.Answers.Len())
	for _, id := range s.Answers.order {
		phase := 1
		if q, ok := s.Catalog[id]; ok && q.Phase > 0 {
			phase = q.Phase
		}
		out = append(out, questionnaire.Answer{
			QuestionID: id,
			AnswerID:   s.Answers.values[id],
			Phase:      phase,
		})
	}
	return out
}

func (s *State) reset() {
	s.Stage = StageWelcome
	s.Page = 1
	s.Index = 0
	s.Questions = nil
	s.Answers.Reset()
	s.Catalog = make(map[string]questionnaire.Question)
	s.Recommendations = nil
	s.pending = 0
}

func (s *State) schedule() Token {
	s.lastToken++
	s.pending = s.lastToken
	return s.pending
}
