package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/stackwizard/internal/errors"
	"github.com/felixgeelhaar/stackwizard/internal/export"
	"github.com/felixgeelhaar/stackwizard/internal/log"
	"github.com/felixgeelhaar/stackwizard/internal/questionnaire"
	"github.com/felixgeelhaar/stackwizard/internal/wizard"
)

// ConfirmFunc asks whether to submit with unanswered questions
type ConfirmFunc func(unanswered int) bool

// Runner reads commands from in and drives a controller
type Runner struct {
	ctl      *wizard.Controller
	renderer *Renderer
	in       *bufio.Scanner
	exporter *export.Exporter
	log      *log.Logger

	// Confirm defaults to a y/n question read from the same input
	Confirm ConfirmFunc
}

// NewRunner wires a controller to line input. The controller must render
// through renderer.
func NewRunner(ctl *wizard.Controller, renderer *Renderer, in io.Reader, exporter *export.Exporter, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Discard()
	}
	r := &Runner{
		ctl:      ctl,
		renderer: renderer,
		in:       bufio.NewScanner(in),
		exporter: exporter,
		log:      logger,
	}
	r.Confirm = r.lineConfirm
	return r
}

// Run shows the welcome screen and processes commands until q or end of input
func (r *Runner) Run(ctx context.Context) error {
	r.ctl.Show()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, ok := r.readLine()
		if !ok {
			return nil
		}
		if line == "q" || line == "salir" {
			return nil
		}

		var err error
		switch r.ctl.State().Stage {
		case wizard.StageWelcome:
			err = r.welcome(ctx, line)
		case wizard.StageAnswering:
			err = r.answering(ctx, line)
		case wizard.StageResults:
			err = r.results(line)
		}
		r.report(err)
	}
}

func (r *Runner) readLine() (string, bool) {
	if !r.in.Scan() {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(r.in.Text())), true
}

func (r *Runner) welcome(ctx context.Context, line string) error {
	switch line {
	case "", "c", "comenzar":
		return r.ctl.Start(ctx)
	default:
		r.renderer.Notice("Pulsa Enter para comenzar o q para salir.")
		return nil
	}
}

func (r *Runner) answering(ctx context.Context, line string) error {
	if n, err := strconv.Atoi(line); err == nil {
		return r.choose(ctx, n)
	}

	switch line {
	case "n", "":
		return r.ctl.Next(ctx)
	case "p":
		return r.ctl.Previous(ctx)
	case "f":
		return r.ctl.Finish(ctx, r.Confirm)
	default:
		r.renderer.Notice("Escribe el número de una opción, n, p, f o q.")
		return nil
	}
}

// choose selects option n (1-based) of the current question. Line mode has
// no timer, so a scheduled auto-advance fires right away.
func (r *Runner) choose(ctx context.Context, n int) error {
	q, ok := r.ctl.State().Current()
	if !ok {
		return nil
	}
	if n < 1 || n > len(q.Options) {
		return errors.NewUnknownOptionError(q.ID, strconv.Itoa(n))
	}
	token, err := r.ctl.SelectOption(q.ID, q.Options[n-1].ID)
	if err != nil || token == 0 {
		return err
	}
	_, err = r.ctl.FireAutoAdvance(ctx, token)
	return err
}

func (r *Runner) results(line string) error {
	recs := r.ctl.State().Recommendations
	switch line {
	case "e":
		return r.export(export.FormatJSON, recs)
	case "y":
		return r.export(export.FormatYAML, recs)
	case "d":
		return r.export(export.FormatPDF, recs)
	case "r":
		r.ctl.Restart()
		return nil
	default:
		r.renderer.Notice("Opciones: e, y, d, r o q.")
		return nil
	}
}

func (r *Runner) export(format export.Format, recs questionnaire.Recommendations) error {
	path, err := r.exporter.Export(format, recs)
	if err != nil {
		return err
	}
	r.renderer.Notice("Recomendaciones exportadas a " + path)
	return nil
}

// report prints errors the controller has not already put on screen
func (r *Runner) report(err error) {
	if err == nil {
		return
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeWizardEvaluation, errors.ErrCodeWizardLoadFailed, errors.ErrCodeWizardNoQuestions:
		return
	case errors.ErrCodeWizardSelectionNeeded, errors.ErrCodeWizardSubmitDeclined, errors.ErrCodeWizardFinishEarly,
		errors.ErrCodeWizardUnknownOption, errors.ErrCodeExportPDFUnavailable:
		r.renderer.Notice(errors.MessageOf(err))
	default:
		r.log.WithError(err).Debug("command failed")
	}
}

func (r *Runner) lineConfirm(unanswered int) bool {
	r.renderer.Notice(fmt.Sprintf("%s (%d sin responder) [s/N]", wizard.ConfirmPrompt, unanswered))
	line, ok := r.readLine()
	return ok && (line == "s" || line == "si" || line == "sí" || line == "y")
}
