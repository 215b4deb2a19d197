/*
Package payroll converts monthly attendance summaries plus static salary data
into deterministic payroll lines.

PURPOSE:
  The calculator is a pure function over (salary profile, attendance summary,
  policy, days-in-month); the runner batches it across employees with
  per-employee error isolation. All money math uses decimal.Decimal to avoid
  floating-point drift; rounding to 2 decimal places happens only at the
  presentation edge.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeSalaryProfile: Static salary record from the employee directory
  - PayrollLine: One immutable computed record per employee per month

SEE ALSO:
  - policy.go: Statutory rates and defaults
  - calculator.go: The computation itself
  - runner.go: Batch processing
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmployeeSalaryProfile is the static salary record for one employee.
// Read-only to this package; missing components default to zero.
type EmployeeSalaryProfile struct {
	EmpID           string
	Name            string
	Designation     string
	Basic           decimal.Decimal
	HRA             decimal.Decimal
	OtherAllowances decimal.Decimal
}

// PayrollLine is one computed payroll record. Lines are immutable once
// produced; a new payroll run inserts new lines, never updates old ones.
type PayrollLine struct {
	ID          string
	EmpID       string
	Name        string
	Designation string
	Year        int
	Month       time.Month

	PresentDays      int
	LateDays         int
	HalfDays         int
	TotalHoursWorked float64
	PayableDays      decimal.Decimal
	LOPDays          decimal.Decimal

	Basic           decimal.Decimal
	HRA             decimal.Decimal
	OtherAllowances decimal.Decimal
	GrossSalary     decimal.Decimal
	ProratedGross   decimal.Decimal

	PF              decimal.Decimal
	ESI             decimal.Decimal
	PT              decimal.Decimal
	TDS             decimal.Decimal
	TotalDeductions decimal.Decimal
	Encashment      decimal.Decimal
	NetPay          decimal.Decimal

	CreatedAt time.Time
}

// LineError records a per-employee computation failure. One bad record never
// aborts the batch.
type LineError struct {
	EmpID string
	Err   string
}
