package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stackwizard/internal/backend"
	"github.com/felixgeelhaar/stackwizard/internal/export"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

// fakeService serves a questionnaire with the given number of questions per
// phase and records evaluation payloads.
type fakeService struct {
	mu        sync.Mutex
	sizes     []int
	failEval  bool
	evaluated [][]questionnaire.Answer
	saved     int
}

func (f *fakeService) questions(phase int) []questionnaire.Question {
	n := 0
	if phase >= 1 && phase <= len(f.sizes) {
		n = f.sizes[phase-1]
	}
	qs := make([]questionnaire.Question, n)
	for i := range qs {
		qs[i] = questionnaire.Question{
			ID:    fmt.Sprintf("p%dq%d", phase, i+1),
			Phase: phase,
			Text:  fmt.Sprintf("Pregunta %d.%d", phase, i+1),
			Options: []questionnaire.Option{
				{ID: "a", Text: "Primera"},
				{ID: "b", Text: "Segunda"},
			},
		}
	}
	return qs
}

func (f *fakeService) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasPrefix(r.URL.Path, "/questions/"):
			var phase int
			_, _ = fmt.Sscanf(r.URL.Path, "/questions/%d", &phase)
			_ = json.NewEncoder(w).Encode(f.questions(phase))
		case r.URL.Path == "/api/questions":
			var nodes []questionnaire.Node
			for p := range f.sizes {
				phase := questionnaire.Node{ID: fmt.Sprintf("f%d", p+1), Text: fmt.Sprintf("FASE %d", p+1), Type: questionnaire.NodePhase}
				for _, q := range f.questions(p + 1) {
					qn := questionnaire.Node{ID: q.ID, Text: q.Text, Type: questionnaire.NodeQuestion}
					for _, o := range q.Options {
						qn.Children = append(qn.Children, questionnaire.Node{ID: o.ID, Text: o.Text, Type: questionnaire.NodeOption})
					}
					phase.Children = append(phase.Children, qn)
				}
				nodes = append(nodes, phase)
			}
			_ = json.NewEncoder(w).Encode(nodes)
		case r.URL.Path == "/evaluate":
			var answers []questionnaire.Answer
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&answers))
			f.evaluated = append(f.evaluated, answers)
			if f.failEval {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"detail":"Tree not loaded"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string][]string{"frontend": {"React"}, "backend": {"Node"}})
		case r.URL.Path == "/save-session":
			f.saved++
			_, _ = w.Write([]byte(`{"status":"success","session_id":"1"}`))
		default:
			http.NotFound(w, r)
		}
	}
}

func (f *fakeService) snapshot() ([][]questionnaire.Answer, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.evaluated, f.saved
}

func runScript(t *testing.T, svc *fakeService, mode wizard.Mode, script ...string) (string, string) {
	t.Helper()
	srv := httptest.NewServer(svc.handler(t))
	t.Cleanup(srv.Close)

	client := backend.NewClient(srv.URL)
	src, err := wizard.NewSource(mode, client)
	require.NoError(t, err)

	var out bytes.Buffer
	renderer := NewRenderer(&out)
	ctl := wizard.New(nil, src, client, renderer, wizard.Config{AutoAdvance: true})
	dir := t.TempDir()

	runner := NewRunner(ctl, renderer, strings.NewReader(strings.Join(script, "\n")+"\n"), export.New(dir, nil), nil)
	require.NoError(t, runner.Run(context.Background()))
	ctl.Wait()

	return out.String(), dir
}

func TestRunPhaseModeToExport(t *testing.T) {
	svc := &fakeService{sizes: []int{2, 1, 1, 1, 1}}

	out, dir := runScript(t, svc, wizard.ModePhase,
		"", "1", "2", "1", "1", "1", "2", "n", "e", "q")

	assert.Contains(t, out, wizard.WelcomeTitle)
	assert.Contains(t, out, "Identificación del Proyecto")
	assert.Contains(t, out, "Consideraciones Específicas")
	assert.Contains(t, out, "[n] Finalizar")
	assert.Contains(t, out, "Recomendaciones")
	assert.Contains(t, out, "• React")
	assert.Contains(t, out, wizard.EmptyCategory)
	assert.Contains(t, out, "Pasos recomendados")
	assert.Contains(t, out, "Recomendaciones exportadas a")

	evaluated, saved := svc.snapshot()
	require.Len(t, evaluated, 1)
	payload := evaluated[0]
	require.Len(t, payload, 6)
	assert.Equal(t, questionnaire.Answer{QuestionID: "p1q2", AnswerID: "b", Phase: 1}, payload[1])
	assert.Equal(t, questionnaire.Answer{QuestionID: "p5q1", AnswerID: "b", Phase: 5}, payload[5])
	assert.Equal(t, 1, saved)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^recomendaciones_\d{13}\.json$`, entries[0].Name())
}

func TestRunShowsGatingNotice(t *testing.T) {
	svc := &fakeService{sizes: []int{1, 1, 1, 1, 1}}

	out, _ := runScript(t, svc, wizard.ModePhase, "", "n", "9", "q")

	assert.Contains(t, out, "Selecciona una opción para continuar.")
	assert.Contains(t, out, "option 9 does not belong to question p1q1")
	evaluated, _ := svc.snapshot()
	assert.Empty(t, evaluated)
}

func TestRunPhaseModeRejectsEarlyFinish(t *testing.T) {
	svc := &fakeService{sizes: []int{1, 1, 1, 1, 1}}

	out, _ := runScript(t, svc, wizard.ModePhase, "", "f", "q")

	assert.Contains(t, out, "Responde todas las fases para finalizar.")
	assert.NotContains(t, out, "[f] "+wizard.LabelFinish)
	evaluated, _ := svc.snapshot()
	assert.Empty(t, evaluated)
}

func TestRunTreeModeConfirmation(t *testing.T) {
	svc := &fakeService{sizes: []int{2, 1}}

	out, _ := runScript(t, svc, wizard.ModeTree, "", "1", "f", "n", "f", "s", "d", "q")

	assert.Contains(t, out, "FASE 1 (Fase 1)")
	assert.Contains(t, out, wizard.ConfirmPrompt)
	assert.Contains(t, out, "submission cancelled with 2 unanswered question(s)")
	assert.Contains(t, out, "La exportación a PDF estará disponible próximamente")

	evaluated, _ := svc.snapshot()
	require.Len(t, evaluated, 1)
	assert.Equal(t, []questionnaire.Answer{{QuestionID: "p1q1", AnswerID: "a", Phase: 1}}, evaluated[0])
}

func TestRunEvaluationFailure(t *testing.T) {
	svc := &fakeService{sizes: []int{1}, failEval: true}

	out, _ := runScript(t, svc, wizard.ModeTree, "", "1", "n", "q")

	assert.Contains(t, out, "Lo sentimos, hubo un error al generar las recomendaciones. Por favor, intenta nuevamente.")
	_, saved := svc.snapshot()
	assert.Equal(t, 0, saved)
}

func TestRunRestart(t *testing.T) {
	svc := &fakeService{sizes: []int{1}}

	out, _ := runScript(t, svc, wizard.ModeTree, "", "1", "n", "r", "q")

	assert.Equal(t, 2, strings.Count(out, wizard.WelcomeTitle))
}

func TestRunEndsOnEOF(t *testing.T) {
	svc := &fakeService{sizes: []int{1, 1, 1, 1, 1}}

	out, _ := runScript(t, svc, wizard.ModePhase, "")

	assert.Contains(t, out, "Pregunta 1 de 1")
}
