/*
scheduler.go - Automated monthly payroll scheduler

PURPOSE:
  Runs payroll for the previous month on a cron schedule, so that the batch
  happens without an operator calling POST /api/payroll/process.

DESIGN:
  - robfig/cron drives the schedule; the default fires at 02:00 on the 1st
  - The job targets the PREVIOUS calendar month (the one that just closed)
  - A month that already has stored lines is skipped, so restarting the
    server never double-runs a month

USAGE:
  sched := NewPayrollScheduler(runner, store, "0 2 1 * *", logger)
  if err := sched.Start(); err != nil { ... }
  defer sched.Stop()

SEE ALSO:
  - handlers.go: ProcessPayroll endpoint (manual runs)
  - payroll/runner.go: The batch itself
*/
package api

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/atlas-hr/presence-engine/payroll"
)

// PayrollScheduler triggers monthly payroll runs.
type PayrollScheduler struct {
	Runner *payroll.Runner
	Lines  payroll.LineStore
	Spec   string
	Logger *zap.Logger

	cron *cron.Cron
}

// NewPayrollScheduler creates a scheduler. spec is a standard 5-field cron
// expression; empty means the default (02:00 on the 1st of every month).
func NewPayrollScheduler(runner *payroll.Runner, lines payroll.LineStore, spec string, logger *zap.Logger) *PayrollScheduler {
	if spec == "" {
		spec = "0 2 1 * *"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollScheduler{Runner: runner, Lines: lines, Spec: spec, Logger: logger}
}

// Start registers the job and starts the cron loop.
func (ps *PayrollScheduler) Start() error {
	ps.cron = cron.New()
	if _, err := ps.cron.AddFunc(ps.Spec, ps.RunNow); err != nil {
		return err
	}
	ps.cron.Start()
	ps.Logger.Info("payroll scheduler started", zap.String("spec", ps.Spec))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (ps *PayrollScheduler) Stop() {
	if ps.cron == nil {
		return
	}
	<-ps.cron.Stop().Done()
	ps.Logger.Info("payroll scheduler stopped")
}

// RunNow processes the previous month immediately if it has not been
// processed yet. Exposed for admin use and tests.
func (ps *PayrollScheduler) RunNow() {
	ctx := context.Background()
	year, month := previousMonth(time.Now().UTC())

	existing, err := ps.Lines.ListPayrollLines(ctx, year, month)
	if err != nil {
		ps.Logger.Error("scheduler: failed to check existing lines", zap.Error(err))
		return
	}
	if len(existing) > 0 {
		ps.Logger.Info("scheduler: month already processed, skipping",
			zap.Int("year", year), zap.String("month", month.String()))
		return
	}

	result, err := ps.Runner.ProcessMonth(ctx, year, month, "")
	if err != nil {
		ps.Logger.Error("scheduler: payroll run failed",
			zap.Int("year", year), zap.String("month", month.String()), zap.Error(err))
		return
	}

	ps.Logger.Info("scheduler: payroll run complete",
		zap.Int("year", year),
		zap.String("month", month.String()),
		zap.Int("processed", len(result.Processed)),
		zap.Int("failed", len(result.Errors)))
}

// previousMonth returns the calendar month before the one containing t.
func previousMonth(t time.Time) (int, time.Month) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, 0, -1)
	return prev.Year(), prev.Month()
}
