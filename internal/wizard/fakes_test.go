package wizard

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/stackwizard/internal/backend"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
)

// makePhase builds n questions for phase with options a, b and c
func makePhase(phase, n int) []questionnaire.Question {
	qs := make([]questionnaire.Question, n)
	for i := range qs {
		qs[i] = questionnaire.Question{
			ID:    fmt.Sprintf("p%dq%d", phase, i+1),
			Phase: phase,
			Text:  fmt.Sprintf("Pregunta %d de la fase %d", i+1, phase),
			Options: []questionnaire.Option{
				{ID: "a", Text: "Opción A"},
				{ID: "b", Text: "Opción B"},
				{ID: "c", Text: "Opción C"},
			},
		}
	}
	return qs
}

type fakeSource struct {
	mode  Mode
	pages map[int][]questionnaire.Question
	fail  map[int]error
	calls []int
}

func newPhaseSource(sizes ...int) *fakeSource {
	s := &fakeSource{mode: ModePhase, pages: map[int][]questionnaire.Question{}, fail: map[int]error{}}
	for i, n := range sizes {
		s.pages[i+1] = makePhase(i+1, n)
	}
	return s
}

func newTreeSource(questions []questionnaire.Question) *fakeSource {
	return &fakeSource{mode: ModeTree, pages: map[int][]questionnaire.Question{1: questions}, fail: map[int]error{}}
}

func (s *fakeSource) Mode() Mode { return s.mode }

func (s *fakeSource) Pages() int {
	if s.mode == ModeTree {
		return 1
	}
	return questionnaire.PhaseCount
}

func (s *fakeSource) Fetch(_ context.Context, page int) ([]questionnaire.Question, error) {
	s.calls = append(s.calls, page)
	if err := s.fail[page]; err != nil {
		return nil, err
	}
	return s.pages[page], nil
}

type fakeBackend struct {
	mu        sync.Mutex
	recs      questionnaire.Recommendations
	evalErr   error
	saveErr   error
	evaluated [][]questionnaire.Answer
	saved     []questionnaire.Session
}

func (b *fakeBackend) Evaluate(_ context.Context, answers []questionnaire.Answer) (questionnaire.Recommendations, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.evaluated = append(b.evaluated, answers)
	if b.evalErr != nil {
		return nil, b.evalErr
	}
	return b.recs, nil
}

func (b *fakeBackend) SaveSession(_ context.Context, s questionnaire.Session) (backend.SaveResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saved = append(b.saved, s)
	if b.saveErr != nil {
		return backend.SaveResult{}, b.saveErr
	}
	return backend.SaveResult{Status: "success", SessionID: s.ID}, nil
}

func (b *fakeBackend) sessions() []questionnaire.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]questionnaire.Session(nil), b.saved...)
}

type recorder struct {
	welcome   int
	questions []QuestionView
	empty     []EmptyPhaseView
	results   []questionnaire.Recommendations
	errs      []error
}

func (r *recorder) RenderWelcome()                    { r.welcome++ }
func (r *recorder) RenderQuestion(v QuestionView)     { r.questions = append(r.questions, v) }
func (r *recorder) RenderEmptyPhase(v EmptyPhaseView) { r.empty = append(r.empty, v) }
func (r *recorder) RenderError(err error)             { r.errs = append(r.errs, err) }

func (r *recorder) RenderResults(recs questionnaire.Recommendations) {
	r.results = append(r.results, recs)
}

func (r *recorder) last() QuestionView {
	if len(r.questions) == 0 {
		return QuestionView{}
	}
	return r.questions[len(r.questions)-1]
}
