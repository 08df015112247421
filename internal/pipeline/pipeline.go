// Package pipeline runs the release steps in order. The pipeline is strictly
// linear and side-effecting with no rollback: the first failure halts the
// run, and the report names the last completed step so an operator can see
// exactly how far the release got.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/aviadlevy/releasekit/internal/errkind"
)

// Step is one named unit of the pipeline.
type Step struct {
	// Name identifies the step in logs and reports.
	Name string

	// Run performs the step.
	Run func(ctx context.Context) error
}

// StepResult records the outcome of one executed step.
type StepResult struct {
	// Name of the step.
	Name string

	// Duration of the step's execution.
	Duration time.Duration

	// Err is nil if the step completed.
	Err error
}

// Report summarizes a pipeline run. Steps after the first failure are never
// executed and do not appear in Results.
type Report struct {
	// Results holds one entry per executed step, in order.
	Results []StepResult

	// LastCompleted is the index of the last step that completed, or -1 if
	// none did.
	LastCompleted int

	// Err is the failure that halted the run, nil on success.
	Err error
}

// Failed reports whether the run halted on a step failure.
func (r *Report) Failed() bool {
	return r.Err != nil
}

// LastCompletedName returns the name of the last completed step, or "" if no
// step completed.
func (r *Report) LastCompletedName() string {
	if r.LastCompleted < 0 {
		return ""
	}
	return r.Results[r.LastCompleted].Name
}

// Runner executes steps sequentially, halting at the first failure.
type Runner struct {
	log *slog.Logger
}

// NewRunner returns a Runner logging to log. If log is nil, slog.Default()
// is used.
func NewRunner(log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{log: log}
}

// Run executes the steps in order. The returned report is never nil; its Err
// field carries the halting failure, also returned for convenience.
func (r *Runner) Run(ctx context.Context, steps []Step) (*Report, error) {
	report := &Report{LastCompleted: -1}

	for i, step := range steps {
		r.log.Info("step started", "step", step.Name, "index", i, "total", len(steps))

		start := time.Now()
		err := step.Run(ctx)
		elapsed := time.Since(start)

		report.Results = append(report.Results, StepResult{
			Name:     step.Name,
			Duration: elapsed,
			Err:      err,
		})

		if err != nil {
			report.Err = err
			r.log.Error("step failed",
				"step", step.Name,
				"code", errkind.CodeOf(err).String(),
				"error", err,
				"last_completed", report.LastCompletedName(),
			)
			return report, err
		}

		report.LastCompleted = i
		r.log.Info("step completed", "step", step.Name, "duration", elapsed)
	}

	return report, nil
}
