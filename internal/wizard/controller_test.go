package wizard

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
)

var fixedNow = time.Date(2026, 10, 19, 6, 30, 15, 123e6, time.UTC)

func newController(t *testing.T, src *fakeSource, cfg Config) (*Controller, *recorder, *fakeBackend) {
	t.Helper()
	r := &recorder{}
	be := &fakeBackend{recs: questionnaire.Recommendations{
		questionnaire.CategoryFrontend: {"React"},
		questionnaire.CategoryBackend:  {"Node"},
	}}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	c := New(nil, src, be, r, cfg)
	t.Cleanup(c.Wait)
	return c, r, be
}

func answerAndNext(t *testing.T, c *Controller, option string) {
	t.Helper()
	q, ok := c.State().Current()
	require.True(t, ok)
	_, err := c.SelectOption(q.ID, option)
	require.NoError(t, err)
	require.NoError(t, c.Next(context.Background()))
}

func TestShowRendersWelcome(t *testing.T) {
	c, r, _ := newController(t, newPhaseSource(1, 1, 1, 1, 1), Config{})

	c.Show()

	assert.Equal(t, 1, r.welcome)
	assert.Equal(t, StageWelcome, c.State().Stage)
}

func TestStartLoadsFirstPhase(t *testing.T) {
	c, r, _ := newController(t, newPhaseSource(3, 2, 2, 2, 2), Config{})

	require.NoError(t, c.Start(context.Background()))

	s := c.State()
	assert.Equal(t, StageAnswering, s.Stage)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 0, s.Index)

	v := r.last()
	assert.Equal(t, "p1q1", v.Question.ID)
	assert.Equal(t, "Identificación del Proyecto", v.Heading())
	assert.Equal(t, Nav{PrevEnabled: false, NextEnabled: false, NextLabel: LabelNext}, v.Nav)
	assert.Equal(t, []StepState{StepActive, StepPending, StepPending, StepPending, StepPending}, v.Steps)
}

func TestStartTwiceIsNoop(t *testing.T) {
	src := newPhaseSource(1, 1, 1, 1, 1)
	c, _, _ := newController(t, src, Config{})

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, []int{1}, src.calls)
}

func TestStartFailureStaysOnWelcome(t *testing.T) {
	src := newPhaseSource(1, 1, 1, 1, 1)
	src.fail[1] = stderrors.New("connection refused")
	c, r, _ := newController(t, src, Config{})

	err := c.Start(context.Background())
	require.Error(t, err)

	assert.Equal(t, StageWelcome, c.State().Stage)
	assert.Empty(t, r.questions)
	assert.Empty(t, r.errs, "per-phase mode leaves the screen unchanged")
}

func TestSelectOptionOverwritesAnswer(t *testing.T) {
	c, r, _ := newController(t, newPhaseSource(2, 1, 1, 1, 1), Config{})
	require.NoError(t, c.Start(context.Background()))

	_, err := c.SelectOption("p1q1", "a")
	require.NoError(t, err)
	_, err = c.SelectOption("p1q1", "c")
	require.NoError(t, err)

	got, ok := c.State().Answers.Get("p1q1")
	require.True(t, ok)
	assert.Equal(t, "c", got)
	assert.Equal(t, 1, c.State().Answers.Len())

	v := r.last()
	assert.True(t, v.IsSelected("c"))
	assert.False(t, v.IsSelected("a"))
	assert.True(t, v.Nav.NextEnabled)
}

func TestSelectOptionValidation(t *testing.T) {
	c, _, _ := newController(t, newPhaseSource(1, 1, 1, 1, 1), Config{})

	_, err := c.SelectOption("p1q1", "a")
	assert.Equal(t, errors.ErrCodeWizardNotStarted, errors.CodeOf(err))

	require.NoError(t, c.Start(context.Background()))

	_, err = c.SelectOption("p9q9", "a")
	assert.Equal(t, errors.ErrCodeWizardUnknownQuestion, errors.CodeOf(err))

	_, err = c.SelectOption("p1q1", "z")
	assert.Equal(t, errors.ErrCodeWizardUnknownOption, errors.CodeOf(err))

	assert.Equal(t, 0, c.State().Answers.Len())
}

func TestNextIsGatedOnAnswer(t *testing.T) {
	c, _, _ := newController(t, newPhaseSource(2, 1, 1, 1, 1), Config{})
	require.NoError(t, c.Start(context.Background()))

	err := c.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWizardSelectionNeeded, errors.CodeOf(err))
	assert.Equal(t, "Selecciona una opción para continuar.", errors.MessageOf(err))
	assert.Equal(t, 0, c.State().Index)
}

func TestNavigationAcrossPhases(t *testing.T) {
	src := newPhaseSource(2, 3, 1, 1, 1)
	c, r, _ := newController(t, src, Config{})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	answerAndNext(t, c, "a")
	assert.Equal(t, 1, c.State().Index)
	assert.True(t, r.last().Nav.PrevEnabled)

	answerAndNext(t, c, "b")
	assert.Equal(t, 2, c.State().Page)
	assert.Equal(t, 0, c.State().Index)
	assert.Equal(t, "Requerimientos Técnicos", r.last().PhaseTitle)
	assert.Equal(t, []StepState{StepCompleted, StepActive, StepPending, StepPending, StepPending}, r.last().Steps)

	// Going back across a phase boundary reloads the previous phase on its
	// first question.
	require.NoError(t, c.Previous(ctx))
	assert.Equal(t, 1, c.State().Page)
	assert.Equal(t, 0, c.State().Index)
	assert.Equal(t, []int{1, 2, 1}, src.calls)
	assert.True(t, r.last().IsSelected("a"))

	// Previous on the very first question does nothing.
	require.NoError(t, c.Previous(ctx))
	assert.Equal(t, 1, c.State().Page)
	assert.Equal(t, []int{1, 2, 1}, src.calls)
}

func TestBackToLastQuestion(t *testing.T) {
	c, _, _ := newController(t, newPhaseSource(3, 1, 1, 1, 1), Config{BackToLastQuestion: true})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	for i := 0; i < 3; i++ {
		answerAndNext(t, c, "a")
	}
	require.Equal(t, 2, c.State().Page)

	require.NoError(t, c.Previous(ctx))
	assert.Equal(t, 1, c.State().Page)
	assert.Equal(t, 2, c.State().Index)
}

func TestForwardThenBackKeepsSelection(t *testing.T) {
	c, r, _ := newController(t, newPhaseSource(3, 1, 1, 1, 1), Config{})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	answerAndNext(t, c, "b")
	require.NoError(t, c.Previous(ctx))

	v := r.last()
	assert.Equal(t, "p1q1", v.Question.ID)
	assert.Equal(t, "b", v.Selected)
	assert.True(t, v.Nav.NextEnabled)
}

func TestPhaseLoadFailureKeepsPosition(t *testing.T) {
	src := newPhaseSource(1, 1, 1, 1, 1)
	src.fail[2] = stderrors.New("timeout")
	c, r, _ := newController(t, src, Config{})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	_, err := c.SelectOption("p1q1", "a")
	require.NoError(t, err)
	renders := len(r.questions)

	err = c.Next(ctx)
	require.Error(t, err)

	assert.Equal(t, 1, c.State().Page)
	assert.Equal(t, 0, c.State().Index)
	assert.Len(t, r.questions, renders)
	assert.Empty(t, r.errs)

	// A retry picks up once the backend recovers.
	delete(src.fail, 2)
	require.NoError(t, c.Next(ctx))
	assert.Equal(t, 2, c.State().Page)
}

func TestEmptyPhaseDoesNotGate(t *testing.T) {
	c, r, _ := newController(t, newPhaseSource(1, 0, 1, 1, 1), Config{})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	answerAndNext(t, c, "a")
	require.Len(t, r.empty, 1)
	assert.Equal(t, 2, r.empty[0].Phase)
	assert.True(t, r.empty[0].Nav.NextEnabled)
	assert.True(t, r.empty[0].Nav.PrevEnabled)

	require.NoError(t, c.Next(ctx))
	assert.Equal(t, 3, c.State().Page)
}

func TestFinalizeAfterLastPhase(t *testing.T) {
	c, r, be := newController(t, newPhaseSource(2, 1, 1, 1, 2), Config{})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	for i := 0; i < 6; i++ {
		answerAndNext(t, c, "a")
	}
	require.Equal(t, 5, c.State().Page)
	require.Equal(t, 1, c.State().Index)

	q, _ := c.State().Current()
	_, err := c.SelectOption(q.ID, "c")
	require.NoError(t, err)
	assert.Equal(t, LabelFinish, r.last().Nav.NextLabel)

	require.NoError(t, c.Next(ctx))
	c.Wait()

	assert.Equal(t, StageResults, c.State().Stage)
	require.Len(t, be.evaluated, 1)
	payload := be.evaluated[0]
	require.Len(t, payload, 7)
	assert.Equal(t, questionnaire.Answer{QuestionID: "p1q1", AnswerID: "a", Phase: 1}, payload[0])
	assert.Equal(t, questionnaire.Answer{QuestionID: "p5q2", AnswerID: "c", Phase: 5}, payload[6])

	require.Len(t, r.results, 1)
	assert.Equal(t, []string{"React"}, r.results[0].Items(questionnaire.CategoryFrontend))

	sessions := be.sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "1792391415123", sessions[0].ID)
	assert.Equal(t, payload, sessions[0].Answers)
}

func TestThreeQuestionFinalizePayload(t *testing.T) {
	c, _, be := newController(t, newTreeSource(makePhase(1, 3)), Config{})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	for i, id := range []string{"p1q1", "p1q2", "p1q3"} {
		_, err := c.SelectOption(id, []string{"a", "b", "c"}[i])
		require.NoError(t, err)
	}
	require.NoError(t, c.Finish(ctx, nil))

	require.Len(t, be.evaluated, 1)
	assert.Equal(t, []questionnaire.Answer{
		{QuestionID: "p1q1", AnswerID: "a", Phase: 1},
		{QuestionID: "p1q2", AnswerID: "b", Phase: 1},
		{QuestionID: "p1q3", AnswerID: "c", Phase: 1},
	}, be.evaluated[0])
}

func TestFinishConfirmsUnanswered(t *testing.T) {
	c, _, be := newController(t, newTreeSource(makePhase(1, 3)), Config{})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	_, err := c.SelectOption("p1q1", "a")
	require.NoError(t, err)

	var asked int
	err = c.Finish(ctx, func(n int) bool { asked = n; return false })
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWizardSubmitDeclined, errors.CodeOf(err))
	assert.Equal(t, 2, asked)
	assert.Equal(t, StageAnswering, c.State().Stage)
	assert.Empty(t, be.evaluated)

	require.NoError(t, c.Finish(ctx, func(int) bool { return true }))
	assert.Equal(t, StageResults, c.State().Stage)
	require.Len(t, be.evaluated, 1)
	assert.Len(t, be.evaluated[0], 1)
}

func TestFinishInPhaseModeWaitsForLastQuestion(t *testing.T) {
	c, r, be := newController(t, newPhaseSource(2, 2, 2, 2, 2), Config{})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.False(t, r.last().Nav.FinishEarly)

	answerAndNext(t, c, "a")
	_, err := c.SelectOption("p1q2", "b")
	require.NoError(t, err)

	asked := -1
	err = c.Finish(ctx, func(n int) bool { asked = n; return true })
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWizardFinishEarly, errors.CodeOf(err))
	assert.Equal(t, -1, asked)
	assert.Equal(t, StageAnswering, c.State().Stage)
	assert.Equal(t, 1, c.State().Page)
	assert.Empty(t, be.evaluated)

	require.NoError(t, c.Next(ctx))
	for i := 0; i < 7; i++ {
		answerAndNext(t, c, "a")
	}
	require.Equal(t, 5, c.State().Page)
	require.Equal(t, 1, c.State().Index)

	err = c.Finish(ctx, nil)
	assert.Equal(t, errors.ErrCodeWizardSelectionNeeded, errors.CodeOf(err))

	_, err = c.SelectOption("p5q2", "c")
	require.NoError(t, err)
	require.NoError(t, c.Finish(ctx, nil))
	assert.Equal(t, StageResults, c.State().Stage)
	require.Len(t, be.evaluated, 1)
	assert.Len(t, be.evaluated[0], 10)
}

func TestEvaluationFailureShowsApology(t *testing.T) {
	c, r, be := newController(t, newTreeSource(makePhase(1, 1)), Config{})
	be.evalErr = errors.NewBackendStatusError("/evaluate", 500, "Tree not loaded")
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	answerAndNextExpectErr(t, c)

	require.Len(t, r.errs, 1)
	assert.Equal(t,
		"Lo sentimos, hubo un error al generar las recomendaciones. Por favor, intenta nuevamente.",
		errors.MessageOf(r.errs[0]))
	assert.Empty(t, r.results)
	assert.Empty(t, be.sessions(), "no session is saved without recommendations")
}

func answerAndNextExpectErr(t *testing.T, c *Controller) {
	t.Helper()
	q, _ := c.State().Current()
	_, err := c.SelectOption(q.ID, "a")
	require.NoError(t, err)
	err = c.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWizardEvaluation, errors.CodeOf(err))
}

func TestSessionSaveFailureIsNotSurfaced(t *testing.T) {
	c, r, be := newController(t, newTreeSource(makePhase(1, 1)), Config{})
	be.saveErr = stderrors.New("disk full")
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	answerAndNext(t, c, "a")
	c.Wait()

	assert.Len(t, r.results, 1)
	assert.Empty(t, r.errs)
	assert.Len(t, be.sessions(), 1)
}

func TestTreeModeLoadErrors(t *testing.T) {
	t.Run("fetch failure", func(t *testing.T) {
		src := newTreeSource(nil)
		src.fail[1] = errors.NewBackendStatusError("/api/questions", 500, "Tree not loaded")
		c, r, _ := newController(t, src, Config{})

		err := c.Start(context.Background())
		require.Error(t, err)
		require.Len(t, r.errs, 1)
		assert.Equal(t, "Error cargando preguntas: /api/questions returned status 500: Tree not loaded", errors.MessageOf(r.errs[0]))
	})

	t.Run("empty flow", func(t *testing.T) {
		c, r, _ := newController(t, newTreeSource(nil), Config{})

		err := c.Start(context.Background())
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeWizardNoQuestions, errors.CodeOf(err))
		require.Len(t, r.errs, 1)
		assert.Equal(t, "No se encontraron preguntas en el flujo.", errors.MessageOf(r.errs[0]))
	})
}

func TestTreeModeView(t *testing.T) {
	questions := []questionnaire.Question{
		{ID: "q1", Phase: 1, PhaseTitle: "FASE 1: Identificación", Text: "uno", Options: []questionnaire.Option{{ID: "a"}}},
		{ID: "q2", Phase: 3, PhaseTitle: "FASE 3: Datos", Text: "dos", Options: []questionnaire.Option{{ID: "a"}}},
		{ID: "q3", Phase: 3, PhaseTitle: "FASE 3: Datos", Text: "tres", Options: []questionnaire.Option{{ID: "a"}}},
	}
	c, r, _ := newController(t, newTreeSource(questions), Config{})
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, "FASE 1: Identificación (Fase 1)", r.last().Heading())
	assert.Equal(t, Timeline{Answered: 0, Total: 3, Percent: 0}, r.last().Timeline)

	answerAndNext(t, c, "a")
	v := r.last()
	assert.Equal(t, "FASE 3: Datos (Fase 3)", v.Heading())
	assert.Equal(t, 3, v.Phase)
	assert.Equal(t, Timeline{Answered: 1, Total: 3, Percent: 33}, v.Timeline)
	assert.True(t, v.Timeline.Done(0))
	assert.True(t, v.Timeline.IsCurrent(1))

	answerAndNext(t, c, "a")
	assert.Equal(t, LabelFinish, r.last().Nav.NextLabel)
	assert.Equal(t, 67, r.last().Timeline.Percent)
}

func TestAutoAdvance(t *testing.T) {
	c, r, _ := newController(t, newPhaseSource(3, 1, 1, 1, 1), Config{AutoAdvance: true})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	token, err := c.SelectOption("p1q1", "a")
	require.NoError(t, err)
	require.NotZero(t, token)

	fired, err := c.FireAutoAdvance(ctx, token)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, 1, c.State().Index)

	// A token fires once.
	fired, err = c.FireAutoAdvance(ctx, token)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, 1, c.State().Index)

	// Explicit navigation cancels a pending advance.
	token, err = c.SelectOption("p1q2", "b")
	require.NoError(t, err)
	require.NoError(t, c.Previous(ctx))
	fired, _ = c.FireAutoAdvance(ctx, token)
	assert.False(t, fired)
	assert.Equal(t, 0, c.State().Index)

	// A newer selection supersedes the older token.
	first, _ := c.SelectOption("p1q1", "a")
	second, _ := c.SelectOption("p1q1", "c")
	fired, _ = c.FireAutoAdvance(ctx, first)
	assert.False(t, fired)
	fired, _ = c.FireAutoAdvance(ctx, second)
	assert.True(t, fired)
	assert.Equal(t, "p1q2", r.last().Question.ID)
}

func TestAutoAdvanceStopsAtFinish(t *testing.T) {
	c, _, be := newController(t, newTreeSource(makePhase(1, 1)), Config{AutoAdvance: true})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	token, err := c.SelectOption("p1q1", "a")
	require.NoError(t, err)

	fired, err := c.FireAutoAdvance(ctx, token)
	require.NoError(t, err)
	assert.False(t, fired, "the forward action reads Finalizar")
	assert.Equal(t, StageAnswering, c.State().Stage)
	assert.Empty(t, be.evaluated)
}

func TestAutoAdvanceDisabledReturnsZeroToken(t *testing.T) {
	c, _, _ := newController(t, newPhaseSource(2, 1, 1, 1, 1), Config{})
	require.NoError(t, c.Start(context.Background()))

	token, err := c.SelectOption("p1q1", "a")
	require.NoError(t, err)
	assert.Zero(t, token)
}

func TestShowQuestionIgnoresOutOfRange(t *testing.T) {
	c, r, _ := newController(t, newPhaseSource(2, 1, 1, 1, 1), Config{})
	require.NoError(t, c.Start(context.Background()))
	renders := len(r.questions)

	c.ShowQuestion(5)
	c.ShowQuestion(-1)
	assert.Len(t, r.questions, renders)

	c.ShowQuestion(1)
	assert.Equal(t, "p1q2", r.last().Question.ID)
}

func TestRestart(t *testing.T) {
	c, r, _ := newController(t, newTreeSource(makePhase(1, 1)), Config{})
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	answerAndNext(t, c, "a")
	c.Wait()
	require.Equal(t, StageResults, c.State().Stage)

	c.Restart()

	s := c.State()
	assert.Equal(t, StageWelcome, s.Stage)
	assert.Equal(t, 0, s.Answers.Len())
	assert.Empty(t, s.Catalog)
	assert.Nil(t, s.Recommendations)
	assert.Equal(t, 1, r.welcome)

	_, err := c.PlanNext()
	assert.Equal(t, errors.ErrCodeWizardNotStarted, errors.CodeOf(err))
}

func TestPayloadFallsBackToPhaseOne(t *testing.T) {
	s := NewState()
	s.Catalog["known"] = questionnaire.Question{ID: "known", Phase: 4}
	s.Answers.Set("ghost", "x")
	s.Answers.Set("known", "y")

	assert.Equal(t, []questionnaire.Answer{
		{QuestionID: "ghost", AnswerID: "x", Phase: 1},
		{QuestionID: "known", AnswerID: "y", Phase: 4},
	}, s.Payload())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModePhase, false},
		{"phase", ModePhase, false},
		{" TREE ", ModeTree, false},
		{"grid", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Equal(t, errors.ErrCodeWizardUnknownMode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourcesRejectOutOfRangePages(t *testing.T) {
	_, err := PhaseSource{}.Fetch(context.Background(), 6)
	assert.Equal(t, errors.ErrCodeWizardPhaseOutOfRange, errors.CodeOf(err))

	_, err = TreeSource{}.Fetch(context.Background(), 2)
	assert.Equal(t, errors.ErrCodeWizardPhaseOutOfRange, errors.CodeOf(err))
}
