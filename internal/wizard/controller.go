// Package wizard drives the questionnaire: paging through phases, recording
// answers, gating forward navigation and turning the answers into
// recommendations.
//
// The controller never blocks on its own. Every navigation has a Plan form
// that only touches state and returns the I/O still to do as an Action, and a
// synchronous form that performs the Action right away. Interactive front ends
// run the I/O wherever suits them and feed the outcome back through
// ApplyPhase and ApplyResults.
package wizard

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/stackwizard/internal/backend"
	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/log"
	"github.com/felixgeelhaar/stackwizard/internal/metrics"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
	"github.com/felixgeelhaar/stackwizard/internal/telemetry"
)

// AutoAdvanceDelay is how long a selection waits before moving on
const AutoAdvanceDelay = 350 * time.Millisecond

// Evaluator turns answers into recommendations and stores sessions
type Evaluator interface {
	Evaluate(ctx context.Context, answers []questionnaire.Answer) (questionnaire.Recommendations, error)
	SaveSession(ctx context.Context, session questionnaire.Session) (backend.SaveResult, error)
}

// Config tunes a Controller
type Config struct {
	// AutoAdvance schedules a move to the next question after a selection
	AutoAdvance bool
	// BackToLastQuestion lands on the last question of the previous phase
	// when going back across a phase boundary instead of its first one.
	BackToLastQuestion bool

	Logger  *log.Logger
	Metrics *metrics.Metrics
	// Now is the clock used for session records
	Now func() time.Time
}

// ActionKind is the I/O a navigation step still requires
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionLoad
	ActionSubmit
)

// Landing picks the question shown after a page load
type Landing int

const (
	LandFirst Landing = iota
	LandLast
)

// Action is pending I/O returned by the Plan methods
type Action struct {
	Kind    ActionKind
	Page    int
	Landing Landing
}

// Controller is the wizard state machine. It is not safe for concurrent use.
type Controller struct {
	state    *State
	source   Source
	backend  Evaluator
	renderer Renderer
	cfg      Config
	log      *log.Logger

	saves sync.WaitGroup
}

// New creates a controller over state. A nil state starts on the welcome screen.
func New(state *State, source Source, be Evaluator, r Renderer, cfg Config) *Controller {
	if state == nil {
		state = NewState()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller{
		state:    state,
		source:   source,
		backend:  be,
		renderer: r,
		cfg:      cfg,
		log:      cfg.Logger.With("mode", string(source.Mode())),
	}
}

// State returns the navigation state
func (c *Controller) State() *State { return c.state }

// Mode returns the source mode
func (c *Controller) Mode() Mode { return c.source.Mode() }

// Show redraws the screen of the current stage
func (c *Controller) Show() {
	switch c.state.Stage {
	case StageWelcome:
		c.renderer.RenderWelcome()
	case StageAnswering:
		c.render()
	case StageResults:
		if c.state.Recommendations != nil {
			c.renderer.RenderResults(c.state.Recommendations)
		}
	}
}

// PlanStart leaves the welcome screen. The first page becomes current once
// it has been applied.
func (c *Controller) PlanStart() Action {
	if c.state.Stage != StageWelcome {
		return Action{}
	}
	return Action{Kind: ActionLoad, Page: 1}
}

// Start leaves the welcome screen and loads the first page
func (c *Controller) Start(ctx context.Context) error {
	return c.Perform(ctx, c.PlanStart())
}

// Fetch loads the questions of page without touching state
func (c *Controller) Fetch(ctx context.Context, page int) ([]questionnaire.Question, error) {
	ctx, span := telemetry.StartWizardSpan(ctx, "load_phase")
	defer span.End()
	span.SetAttributes(attribute.Int("wizard.page", page))

	questions, err := c.source.Fetch(ctx, page)
	c.cfg.Metrics.PhaseLoaded(string(c.source.Mode()), err == nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.RecordSuccess(span, attribute.Int("wizard.questions", len(questions)))
	return questions, nil
}

// ApplyPhase installs the outcome of Fetch. On failure the per-phase mode
// keeps the previous position and screen; the tree mode shows a full-page
// error.
func (c *Controller) ApplyPhase(page int, landing Landing, questions []questionnaire.Question, err error) error {
	if err != nil {
		c.log.WithError(err).Warn("failed to load questions", "page", page)
		c.cfg.Metrics.Error(string(errors.CodeOf(err)))
		if c.source.Mode() == ModeTree {
			loadErr := errors.NewLoadFailedError(err)
			c.renderer.RenderError(loadErr)
			return loadErr
		}
		return err
	}

	if c.source.Mode() == ModeTree && len(questions) == 0 {
		noQuestions := errors.NewNoQuestionsError()
		c.renderer.RenderError(noQuestions)
		return noQuestions
	}

	s := c.state
	s.Stage = StageAnswering
	s.Page = page
	s.Questions = questions
	s.Index = 0
	if landing == LandLast && len(questions) > 0 {
		s.Index = len(questions) - 1
	}
	s.pending = 0
	for _, q := range questions {
		s.Catalog[q.ID] = q
	}

	c.log.Debug("page loaded", "page", page, "questions", len(questions))
	c.render()
	return nil
}

// LoadPhase fetches page and makes its first question current
func (c *Controller) LoadPhase(ctx context.Context, page int) error {
	questions, err := c.Fetch(ctx, page)
	return c.ApplyPhase(page, LandFirst, questions, err)
}

// ShowQuestion moves to index within the current page. Out of range indexes
// are ignored.
func (c *Controller) ShowQuestion(index int) {
	if index < 0 || index >= len(c.state.Questions) {
		return
	}
	c.state.Index = index
	c.render()
}

// SelectOption records optionID as the answer to questionID and redraws the
// current question. With auto-advance on it returns the token to hand to
// FireAutoAdvance once AutoAdvanceDelay has passed; otherwise the zero Token.
func (c *Controller) SelectOption(questionID, optionID string) (Token, error) {
	if c.state.Stage != StageAnswering {
		return 0, errors.NewNotAnsweringError(c.state.Stage.String())
	}

	var question *questionnaire.Question
	for i := range c.state.Questions {
		if c.state.Questions[i].ID == questionID {
			question = &c.state.Questions[i]
			break
		}
	}
	if question == nil {
		return 0, errors.NewUnknownQuestionError(questionID)
	}
	if _, ok := question.Option(optionID); !ok {
		return 0, errors.NewUnknownOptionError(questionID, optionID)
	}

	c.state.Answers.Set(questionID, optionID)
	c.cfg.Metrics.OptionSelected()
	c.render()

	if !c.cfg.AutoAdvance {
		return 0, nil
	}
	return c.state.schedule(), nil
}

// PlanAutoAdvance consumes token. It reports false when the token was
// superseded or cancelled, or when the forward action no longer reads
// LabelNext.
func (c *Controller) PlanAutoAdvance(token Token) (Action, bool) {
	s := c.state
	if token == 0 || token != s.pending || s.Stage != StageAnswering {
		return Action{}, false
	}
	s.pending = 0

	nav := c.nav()
	if nav.NextLabel != LabelNext || !nav.NextEnabled {
		c.cfg.Metrics.AutoAdvance("skipped")
		return Action{}, false
	}

	a, err := c.PlanNext()
	if err != nil {
		c.cfg.Metrics.AutoAdvance("skipped")
		return Action{}, false
	}
	c.cfg.Metrics.AutoAdvance("fired")
	return a, true
}

// FireAutoAdvance performs the deferred navigation scheduled by SelectOption
func (c *Controller) FireAutoAdvance(ctx context.Context, token Token) (bool, error) {
	a, ok := c.PlanAutoAdvance(token)
	if !ok {
		return false, nil
	}
	return true, c.Perform(ctx, a)
}

// CancelAutoAdvance drops a scheduled auto-advance
func (c *Controller) CancelAutoAdvance() {
	if c.state.pending != 0 {
		c.state.pending = 0
		c.cfg.Metrics.AutoAdvance("cancelled")
	}
}

// PlanNext moves forward within the page, or returns the load of the next
// page, or the submission after the last question of the last page.
func (c *Controller) PlanNext() (Action, error) {
	s := c.state
	if s.Stage != StageAnswering {
		return Action{}, errors.NewNotAnsweringError(s.Stage.String())
	}
	c.CancelAutoAdvance()

	q, ok := s.Current()
	if ok && !s.Answers.Has(q.ID) {
		return Action{}, errors.NewSelectionRequiredError(q.ID)
	}
	if ok && s.Index < len(s.Questions)-1 {
		s.Index++
		c.render()
		return Action{}, nil
	}
	if s.Page < c.source.Pages() {
		return Action{Kind: ActionLoad, Page: s.Page + 1, Landing: LandFirst}, nil
	}
	return Action{Kind: ActionSubmit}, nil
}

// Next moves forward
func (c *Controller) Next(ctx context.Context) error {
	a, err := c.PlanNext()
	if err != nil {
		return err
	}
	return c.Perform(ctx, a)
}

// PlanPrevious moves back within the page, or returns the reload of the
// previous page.
func (c *Controller) PlanPrevious() (Action, error) {
	s := c.state
	if s.Stage != StageAnswering {
		return Action{}, errors.NewNotAnsweringError(s.Stage.String())
	}
	c.CancelAutoAdvance()

	if s.Index > 0 {
		s.Index--
		c.render()
		return Action{}, nil
	}
	if s.Page > 1 {
		landing := LandFirst
		if c.cfg.BackToLastQuestion {
			landing = LandLast
		}
		return Action{Kind: ActionLoad, Page: s.Page - 1, Landing: landing}, nil
	}
	return Action{}, nil
}

// Previous moves back
func (c *Controller) Previous(ctx context.Context) error {
	a, err := c.PlanPrevious()
	if err != nil {
		return err
	}
	return c.Perform(ctx, a)
}

// PlanFinish asks confirm when loaded questions are still unanswered and
// returns the submission unless the user declines. Per-phase navigation only
// finishes from the last question, through the gated forward step, since
// later phases are not loaded yet.
func (c *Controller) PlanFinish(confirm func(unanswered int) bool) (Action, error) {
	s := c.state
	if s.Stage != StageAnswering {
		return Action{}, errors.NewNotAnsweringError(s.Stage.String())
	}
	if nav := c.nav(); !nav.FinishEarly {
		if nav.NextLabel != LabelFinish {
			c.CancelAutoAdvance()
			return Action{}, errors.NewFinishEarlyError(s.Page, c.source.Pages())
		}
		return c.PlanNext()
	}
	c.CancelAutoAdvance()

	if n := s.Unanswered(); n > 0 {
		if confirm == nil || !confirm(n) {
			return Action{}, errors.NewSubmitDeclinedError(n)
		}
	}
	return Action{Kind: ActionSubmit}, nil
}

// Finish submits the answers, confirming first when some are missing
func (c *Controller) Finish(ctx context.Context, confirm func(unanswered int) bool) error {
	a, err := c.PlanFinish(confirm)
	if err != nil {
		return err
	}
	return c.Perform(ctx, a)
}

// Perform runs the I/O of a and applies its outcome
func (c *Controller) Perform(ctx context.Context, a Action) error {
	switch a.Kind {
	case ActionLoad:
		questions, err := c.Fetch(ctx, a.Page)
		return c.ApplyPhase(a.Page, a.Landing, questions, err)
	case ActionSubmit:
		return c.ShowResults(ctx)
	default:
		return nil
	}
}

// BeginResults enters the results stage and returns the evaluation payload
func (c *Controller) BeginResults() []questionnaire.Answer {
	c.CancelAutoAdvance()
	c.state.Stage = StageResults
	return c.state.Payload()
}

// Evaluate sends the payload to the backend
func (c *Controller) Evaluate(ctx context.Context, payload []questionnaire.Answer) (questionnaire.Recommendations, error) {
	ctx, span := telemetry.StartWizardSpan(ctx, "evaluate")
	defer span.End()
	span.SetAttributes(attribute.Int("wizard.answers", len(payload)))

	recs, err := c.backend.Evaluate(ctx, payload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.RecordSuccess(span, attribute.Int("wizard.recommendations", recs.Total()))
	return recs, nil
}

// ApplyResults shows the recommendations, or the apology when evaluation failed
func (c *Controller) ApplyResults(recs questionnaire.Recommendations, err error) error {
	if err != nil {
		c.log.WithError(err).Error("failed to generate recommendations")
		c.cfg.Metrics.Error(string(errors.ErrCodeWizardEvaluation))
		failed := errors.NewEvaluationFailedError(err)
		c.renderer.RenderError(failed)
		return failed
	}
	c.state.Recommendations = recs
	c.renderer.RenderResults(recs)
	return nil
}

// SaveSession stores the payload as a session record. Failures are logged
// and returned but never shown.
func (c *Controller) SaveSession(ctx context.Context, payload []questionnaire.Answer) error {
	session := questionnaire.NewSession(payload, c.cfg.Now())
	res, err := c.backend.SaveSession(ctx, session)
	if err != nil {
		c.log.WithError(err).Warn("failed to save session", "session_id", session.ID)
		return err
	}
	c.log.Debug("session saved", "session_id", res.SessionID)
	return nil
}

// ShowResults evaluates the answers, renders the recommendations and saves
// the session in the background. Wait blocks until pending saves finish.
func (c *Controller) ShowResults(ctx context.Context) error {
	payload := c.BeginResults()
	recs, err := c.Evaluate(ctx, payload)
	if err := c.ApplyResults(recs, err); err != nil {
		return err
	}

	c.SaveInBackground(ctx, payload)
	return nil
}

// SaveInBackground saves the session on its own goroutine with a context
// that outlives ctx's cancellation. Wait blocks until it finishes.
func (c *Controller) SaveInBackground(ctx context.Context, payload []questionnaire.Answer) {
	c.saves.Add(1)
	go func() {
		defer c.saves.Done()
		_ = c.SaveSession(context.WithoutCancel(ctx), payload)
	}()
}

// Wait blocks until background session saves have finished
func (c *Controller) Wait() {
	c.saves.Wait()
}

// Restart discards every answer and returns to the welcome screen
func (c *Controller) Restart() {
	c.CancelAutoAdvance()
	c.state.reset()
	c.renderer.RenderWelcome()
}

// Nav returns the current navigation button state
func (c *Controller) Nav() Nav { return c.nav() }

func (c *Controller) nav() Nav {
	s := c.state
	lastPage := s.Page >= c.source.Pages()
	lastIndex := len(s.Questions) == 0 || s.Index == len(s.Questions)-1

	n := Nav{
		PrevEnabled: !(s.Page == 1 && s.Index == 0),
		NextEnabled: true,
		NextLabel:   LabelNext,
		FinishEarly: c.source.Mode() == ModeTree,
	}
	if lastPage && lastIndex {
		n.NextLabel = LabelFinish
	}
	if q, ok := s.Current(); ok {
		n.NextEnabled = s.Answers.Has(q.ID)
	}
	return n
}

// DisplayPhase is the phase shown in headings and step bars
func (c *Controller) DisplayPhase() int {
	if c.source.Mode() == ModeTree {
		if q, ok := c.state.Current(); ok && q.Phase > 0 {
			return q.Phase
		}
		return 1
	}
	return c.state.Page
}

// Timeline returns the answered/total progress of the current page
func (c *Controller) Timeline() Timeline {
	answered := 0
	for _, q := range c.state.Questions {
		if c.state.Answers.Has(q.ID) {
			answered++
		}
	}
	return newTimeline(answered, len(c.state.Questions))
}

// View returns the current question view. ok is false on an empty page.
func (c *Controller) View() (QuestionView, bool) {
	q, ok := c.state.Current()
	if !ok {
		return QuestionView{}, false
	}
	phase := c.DisplayPhase()
	title := questionnaire.PhaseTitle(phase)
	if c.source.Mode() == ModeTree {
		title = q.PhaseTitle
	}
	selected, _ := c.state.Answers.Get(q.ID)
	return QuestionView{
		Mode:       c.source.Mode(),
		Question:   q,
		Index:      c.state.Index,
		Count:      len(c.state.Questions),
		Phase:      phase,
		PhaseTitle: title,
		Selected:   selected,
		Nav:        c.nav(),
		Steps:      PhaseSteps(phase),
		Timeline:   c.Timeline(),
	}, true
}

func (c *Controller) render() {
	if view, ok := c.View(); ok {
		c.renderer.RenderQuestion(view)
		return
	}
	phase := c.DisplayPhase()
	c.renderer.RenderEmptyPhase(EmptyPhaseView{
		Phase:      phase,
		PhaseTitle: questionnaire.PhaseTitle(phase),
		Nav:        c.nav(),
		Steps:      PhaseSteps(phase),
	})
}
