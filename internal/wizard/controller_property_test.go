package wizard

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
)

// genPhaseSizes draws the number of questions of each of the five phases
func genPhaseSizes(t *rapid.T) []int {
	return rapid.SliceOfN(rapid.IntRange(1, 4), questionnaire.PhaseCount, questionnaire.PhaseCount).Draw(t, "phase_sizes")
}

func startedController(t *rapid.T, sizes []int, cfg Config) (*Controller, *recorder, *fakeBackend) {
	r := &recorder{}
	be := &fakeBackend{recs: questionnaire.Recommendations{}}
	c := New(nil, newPhaseSource(sizes...), be, r, cfg)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return c, r, be
}

// TestLoadPhaseResetsIndex checks that any phase load lands on its first question
func TestLoadPhaseResetsIndex(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sizes := genPhaseSizes(t)
		c, r, _ := startedController(t, sizes, Config{})

		c.ShowQuestion(rapid.IntRange(0, sizes[0]-1).Draw(t, "index"))
		phase := rapid.IntRange(1, questionnaire.PhaseCount).Draw(t, "phase")

		if err := c.LoadPhase(context.Background(), phase); err != nil {
			t.Fatalf("load phase %d: %v", phase, err)
		}
		if c.State().Index != 0 {
			t.Fatalf("index after load = %d, want 0", c.State().Index)
		}
		want := makePhase(phase, sizes[phase-1])[0].ID
		if got := r.last().Question.ID; got != want {
			t.Fatalf("rendered %s, want %s", got, want)
		}
	})
}

// TestNavigationInvariants drives random selections and moves and checks
// after every step that the last selection sticks, that forward navigation
// is enabled exactly when the current question is answered, and that the
// rendered view marks the stored answer.
func TestNavigationInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sizes := genPhaseSizes(t)
		c, r, _ := startedController(t, sizes, Config{
			AutoAdvance:        rapid.Bool().Draw(t, "auto_advance"),
			BackToLastQuestion: rapid.Bool().Draw(t, "back_to_last"),
		})
		defer c.Wait()
		ctx := context.Background()

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps && c.State().Stage == StageAnswering; i++ {
			q, _ := c.State().Current()

			switch rapid.SampledFrom([]string{"select", "next", "previous", "fire"}).Draw(t, "op") {
			case "select":
				opt := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, "option")
				token, err := c.SelectOption(q.ID, opt)
				if err != nil {
					t.Fatalf("select: %v", err)
				}
				if got, _ := c.State().Answers.Get(q.ID); got != opt {
					t.Fatalf("answers[%s] = %q, want %q", q.ID, got, opt)
				}
				if rapid.Bool().Draw(t, "fire_now") {
					if _, err := c.FireAutoAdvance(ctx, token); err != nil {
						t.Fatalf("auto advance: %v", err)
					}
				}
			case "next":
				_ = c.Next(ctx)
			case "previous":
				if err := c.Previous(ctx); err != nil {
					t.Fatalf("previous: %v", err)
				}
			case "fire":
				if _, err := c.FireAutoAdvance(ctx, Token(rapid.IntRange(0, 5).Draw(t, "token"))); err != nil {
					t.Fatalf("auto advance: %v", err)
				}
			}

			if c.State().Stage != StageAnswering {
				break
			}
			cur, ok := c.State().Current()
			if !ok {
				t.Fatalf("no current question on page %d", c.State().Page)
			}
			answered := c.State().Answers.Has(cur.ID)
			if nav := c.Nav(); nav.NextEnabled != answered {
				t.Fatalf("next enabled = %v, answered = %v", nav.NextEnabled, answered)
			}
			view := r.last()
			if view.Question.ID != cur.ID {
				t.Fatalf("rendered %s, current %s", view.Question.ID, cur.ID)
			}
			stored, _ := c.State().Answers.Get(cur.ID)
			if view.Selected != stored {
				t.Fatalf("rendered selection %q, stored %q", view.Selected, stored)
			}
		}
	})
}

// TestCompleteRunPayload answers every question and checks the submitted
// payload covers each one with its phase
func TestCompleteRunPayload(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sizes := genPhaseSizes(t)
		c, _, be := startedController(t, sizes, Config{})
		ctx := context.Background()

		total := 0
		for _, n := range sizes {
			total += n
		}

		chosen := map[string]string{}
		for c.State().Stage == StageAnswering {
			q, _ := c.State().Current()
			opt := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, "option")
			if _, err := c.SelectOption(q.ID, opt); err != nil {
				t.Fatalf("select: %v", err)
			}
			chosen[q.ID] = opt
			if err := c.Next(ctx); err != nil {
				t.Fatalf("next: %v", err)
			}
		}
		c.Wait()

		if len(be.evaluated) != 1 {
			t.Fatalf("evaluations = %d, want 1", len(be.evaluated))
		}
		payload := be.evaluated[0]
		if len(payload) != total {
			t.Fatalf("payload has %d entries, want %d", len(payload), total)
		}
		for _, a := range payload {
			q, ok := c.State().Catalog[a.QuestionID]
			if !ok {
				t.Fatalf("payload references unknown question %s", a.QuestionID)
			}
			if a.Phase != q.Phase {
				t.Fatalf("%s carries phase %d, want %d", a.QuestionID, a.Phase, q.Phase)
			}
			if a.AnswerID != chosen[a.QuestionID] {
				t.Fatalf("%s answered %s, want %s", a.QuestionID, a.AnswerID, chosen[a.QuestionID])
			}
		}
	})
}
