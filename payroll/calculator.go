/*
calculator.go - Deterministic payroll computation for one employee-month

PURPOSE:
  Pure function from (salary profile, attendance summary, policy,
  days-in-month) to a PayrollLine. Never raises for a well-formed profile; a
  zero-attendance employee with a salary gets a strict no-pay line (which can
  go negative, since PF is owed off basic regardless of attendance).

COMPUTATION:
  gross          = basic + hra + otherAllowances
  payableDays    = present + late + 0.5 * half
  lopDays        = max(0, daysInMonth - payableDays)
  proratedGross  = 0 if payableDays == 0 and gross > 0
                   else gross * payableDays / daysInMonth
  pf             = min(basic * pfRate, pfCap)           -- off basic
  esi            = proratedGross * esiRate, only if proratedGross <= threshold
  pt             = ptAmount, only if proratedGross > 15000
  tds            = 0 (placeholder; real tax tables out of scope)
  encashment     = (basic + hra) / 30 * min(leaves, encashMaxDays) if enabled
  netPay         = proratedGross - (pf + esi + pt + tds) + encashment

  Intermediate values stay at full decimal precision; rounding to 2 places
  happens only when a line is presented.

SEE ALSO:
  - runner.go: Batches this across employees
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-hr/presence-engine/attendance"
)

var (
	half   = decimal.NewFromFloat(0.5)
	thirty = decimal.NewFromInt(30)
)

// Calculate produces the payroll line for one employee-month. A missing
// attendance summary is the all-zero summary.
func Calculate(profile EmployeeSalaryProfile, summary attendance.MonthlySummary, policy PayrollPolicy, year int, month time.Month, daysInMonth int) PayrollLine {
	gross := profile.Basic.Add(profile.HRA).Add(profile.OtherAllowances)

	payableDays := decimal.NewFromInt(int64(summary.PresentDays)).
		Add(decimal.NewFromInt(int64(summary.LateDays))).
		Add(decimal.NewFromInt(int64(summary.HalfDays)).Mul(half))

	days := decimal.NewFromInt(int64(daysInMonth))
	lopDays := days.Sub(payableDays)
	if lopDays.IsNegative() {
		lopDays = decimal.Zero
	}

	// Strict no-pay fallback: salaried employee with zero attendance earns
	// nothing. Distinct from an employee with no salary record, who never
	// reaches the calculator.
	var proratedGross decimal.Decimal
	if payableDays.IsZero() && gross.IsPositive() {
		proratedGross = decimal.Zero
	} else if daysInMonth > 0 {
		proratedGross = gross.Mul(payableDays).Div(days)
	}

	pf := profile.Basic.Mul(policy.PFRate)
	if pf.GreaterThan(policy.PFCap) {
		pf = policy.PFCap
	}

	// ESI is a cliff, not a taper: nothing above the threshold.
	esi := decimal.Zero
	if proratedGross.LessThanOrEqual(policy.ESIThreshold) {
		esi = proratedGross.Mul(policy.ESIEmployeeRate)
	}

	pt := decimal.Zero
	if proratedGross.GreaterThan(ptGrossFloor) {
		pt = policy.PTAmount
	}

	tds := decimal.Zero
	totalDeductions := pf.Add(esi).Add(pt).Add(tds)

	encashment := decimal.Zero
	if policy.LeaveEncashment && placeholderRemainingLeaves > 0 {
		encashDays := placeholderRemainingLeaves
		if policy.EncashMaxDays < encashDays {
			encashDays = policy.EncashMaxDays
		}
		encashment = profile.Basic.Add(profile.HRA).Div(thirty).Mul(decimal.NewFromInt(int64(encashDays)))
	}

	netPay := proratedGross.Sub(totalDeductions).Add(encashment)

	return PayrollLine{
		EmpID:       profile.EmpID,
		Name:        profile.Name,
		Designation: profile.Designation,
		Year:        year,
		Month:       month,

		PresentDays:      summary.PresentDays,
		LateDays:         summary.LateDays,
		HalfDays:         summary.HalfDays,
		TotalHoursWorked: summary.TotalHoursWorked,
		PayableDays:      payableDays,
		LOPDays:          lopDays,

		Basic:           profile.Basic,
		HRA:             profile.HRA,
		OtherAllowances: profile.OtherAllowances,
		GrossSalary:     gross,
		ProratedGross:   proratedGross,

		PF:              pf,
		ESI:             esi,
		PT:              pt,
		TDS:             tds,
		TotalDeductions: totalDeductions,
		Encashment:      encashment,
		NetPay:          netPay,
	}
}
