/*
policy.go - Payroll policy rates and defaults

PURPOSE:
  PayrollPolicy carries the statutory rates and thresholds the calculator
  needs. When the policy store has no document, DefaultPolicy supplies the
  documented fallback rates; the payroll path treats a missing policy as a
  logged degradation, never a failure.

SEE ALSO:
  - calculator.go: Applies these rates
  - store.go: PolicyStore contract
*/
package payroll

import "github.com/shopspring/decimal"

// PayrollPolicy is the injected, read-only rate configuration for one run.
type PayrollPolicy struct {
	PFRate          decimal.Decimal // provident fund rate on basic
	PFCap           decimal.Decimal // monthly PF ceiling
	ESIEmployeeRate decimal.Decimal // state insurance rate on prorated gross
	ESIThreshold    decimal.Decimal // ESI applies only at or below this gross
	PTAmount        decimal.Decimal // flat professional tax
	LeaveEncashment bool
	EncashMaxDays   int
}

// ptGrossFloor: professional tax applies only above this prorated gross.
var ptGrossFloor = decimal.NewFromInt(15000)

// placeholderRemainingLeaves stands in for a real leave-ledger integration.
const placeholderRemainingLeaves = 10

// DefaultPolicy returns the fallback rates used when no policy is stored.
func DefaultPolicy() PayrollPolicy {
	return PayrollPolicy{
		PFRate:          decimal.NewFromFloat(0.12),
		PFCap:           decimal.NewFromInt(1800),
		ESIEmployeeRate: decimal.NewFromFloat(0.0075),
		ESIThreshold:    decimal.NewFromInt(21000),
		PTAmount:        decimal.NewFromInt(200),
		LeaveEncashment: false,
		EncashMaxDays:   10,
	}
}
