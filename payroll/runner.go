/*
runner.go - Batch payroll processing for a month

PURPOSE:
  Orchestrates one payroll run: fetch policy (defaults on absence), fetch
  salary profiles, aggregate the month's attendance once, then compute each
  employee's line. Employees are independent and computed concurrently; a
  failure for one employee is captured in the error list and never aborts
  the batch.

SEE ALSO:
  - calculator.go: Per-employee computation
  - attendance/aggregate.go: Monthly summaries
*/
package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atlas-hr/presence-engine/attendance"
)

// Runner executes monthly payroll batches.
type Runner struct {
	Employees EmployeeDirectory
	Punches   attendance.PunchStore
	Policies  PolicyStore
	Lines     LineStore
	Logger    *zap.Logger
}

// NewRunner wires a payroll runner.
func NewRunner(employees EmployeeDirectory, punches attendance.PunchStore, policies PolicyStore, lines LineStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Employees: employees, Punches: punches, Policies: policies, Lines: lines, Logger: logger}
}

// RunResult is the outcome of one payroll run.
type RunResult struct {
	Year      int
	Month     time.Month
	Processed []PayrollLine
	Errors    []LineError
}

// ProcessMonth computes payroll for the given month. employeeID narrows the
// run to one employee; empty means everyone in the directory. Computed lines
// are persisted before returning.
func (r *Runner) ProcessMonth(ctx context.Context, year int, month time.Month, employeeID string) (*RunResult, error) {
	policy := DefaultPolicy()
	stored, err := r.Policies.GetPayrollPolicy(ctx)
	if err != nil || stored == nil {
		// Missing policy is non-fatal: documented defaults apply.
		r.Logger.Warn("payroll policy unavailable, using defaults", zap.Error(err))
	} else {
		policy = *stored
	}

	profiles, err := r.Employees.ListEmployeeSalaryProfiles(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary profiles: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no employees found")
	}

	agg := attendance.Aggregator{Punches: r.Punches}
	summaries, err := agg.SummarizeMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attendance: %w", err)
	}

	daysInMonth := attendance.DaysInMonth(year, month)
	now := time.Now().UTC()

	result := &RunResult{Year: year, Month: month}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, profile := range profiles {
		wg.Add(1)
		go func(p EmployeeSalaryProfile) {
			defer wg.Done()

			// One malformed record must not take the batch down.
			defer func() {
				if rec := recover(); rec != nil {
					mu.Lock()
					result.Errors = append(result.Errors, LineError{EmpID: p.EmpID, Err: fmt.Sprint(rec)})
					mu.Unlock()
				}
			}()

			line := Calculate(p, summaries[p.EmpID], policy, year, month, daysInMonth)
			line.ID = uuid.NewString()
			line.CreatedAt = now

			mu.Lock()
			result.Processed = append(result.Processed, line)
			mu.Unlock()
		}(profile)
	}
	wg.Wait()

	sort.Slice(result.Processed, func(i, j int) bool {
		return result.Processed[i].EmpID < result.Processed[j].EmpID
	})

	if len(result.Processed) > 0 {
		if err := r.Lines.InsertPayrollLines(ctx, result.Processed); err != nil {
			return nil, fmt.Errorf("failed to persist payroll lines: %w", err)
		}
	}

	r.Logger.Info("payroll run complete",
		zap.Int("year", year),
		zap.String("month", month.String()),
		zap.Int("processed", len(result.Processed)),
		zap.Int("failed", len(result.Errors)))

	return result, nil
}
