/*
store.go - Persistence interfaces for the payroll path

PURPOSE:
  Narrow interfaces over the employee directory, policy store, and payroll
  line store. The sqlite and memory stores implement all three.

SEE ALSO:
  - runner.go: Consumes these interfaces
  - store/sqlite/sqlite.go: Production implementation
*/
package payroll

import (
	"context"
	"time"
)

// EmployeeDirectory lists salary profiles. An empty employeeID means all.
type EmployeeDirectory interface {
	ListEmployeeSalaryProfiles(ctx context.Context, employeeID string) ([]EmployeeSalaryProfile, error)
	SaveEmployeeSalaryProfile(ctx context.Context, profile EmployeeSalaryProfile) error
}

// PolicyStore fetches the current payroll policy. A nil policy with nil error
// means "not configured"; callers fall back to DefaultPolicy.
type PolicyStore interface {
	GetPayrollPolicy(ctx context.Context) (*PayrollPolicy, error)
	SavePayrollPolicy(ctx context.Context, policy PayrollPolicy) error
}

// LineStore persists computed payroll lines. Append-only: each run inserts
// fresh lines.
type LineStore interface {
	InsertPayrollLines(ctx context.Context, lines []PayrollLine) error
	ListPayrollLines(ctx context.Context, year int, month time.Month) ([]PayrollLine, error)
}
