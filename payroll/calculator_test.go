package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-hr/presence-engine/attendance"
	"github.com/atlas-hr/presence-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func seniorProfile() payroll.EmployeeSalaryProfile {
	return payroll.EmployeeSalaryProfile{
		EmpID:           "EMP001",
		Name:            "Asha Rao",
		Designation:     "Senior Engineer",
		Basic:           decimal.NewFromInt(50000),
		HRA:             decimal.NewFromInt(20000),
		OtherAllowances: decimal.NewFromInt(5000),
	}
}

func juniorProfile() payroll.EmployeeSalaryProfile {
	return payroll.EmployeeSalaryProfile{
		EmpID: "EMP002",
		Name:  "Kiran Patel",
		Basic: decimal.NewFromInt(8000),
		HRA:   decimal.NewFromInt(2000),
	}
}

func fullMonth(empID string, days int) attendance.MonthlySummary {
	return attendance.MonthlySummary{
		EmployeeID:       empID,
		PresentDays:      days,
		TotalHoursWorked: float64(days) * 8,
	}
}

func money(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func assertMoneyEqual(t *testing.T, expected float64, actual decimal.Decimal) {
	t.Helper()
	got, _ := actual.Round(2).Float64()
	assert.InDelta(t, expected, got, 0.01)
}

// =============================================================================
// CALCULATOR TESTS
// =============================================================================

func TestCalculate_FullAttendance_StandardDeductions(t *testing.T) {
	// GIVEN: Gross 75000 (basic 50000), full 31-day attendance, default policy
	// WHEN: Calculating July 2025
	// THEN: PF capped at 1800, no ESI (gross above threshold), PT 200,
	//       net 73000

	line := payroll.Calculate(seniorProfile(), fullMonth("EMP001", 31), payroll.DefaultPolicy(), 2025, time.July, 31)

	assertMoneyEqual(t, 75000, line.GrossSalary)
	assertMoneyEqual(t, 31, line.PayableDays)
	assert.True(t, line.LOPDays.IsZero())
	assertMoneyEqual(t, 75000, line.ProratedGross)
	assertMoneyEqual(t, 1800, line.PF)
	assert.True(t, line.ESI.IsZero())
	assertMoneyEqual(t, 200, line.PT)
	assert.True(t, line.TDS.IsZero())
	assertMoneyEqual(t, 2000, line.TotalDeductions)
	assert.True(t, line.Encashment.IsZero())
	assertMoneyEqual(t, 73000, line.NetPay)
}

func TestCalculate_PartialAttendance_Prorated(t *testing.T) {
	// GIVEN: 15 present + 2 late + 2 half days in a 31-day month
	// WHEN: Calculating
	// THEN: payableDays = 18, lop = 13, prorated = 75000 * 18/31

	summary := attendance.MonthlySummary{
		EmployeeID:  "EMP001",
		PresentDays: 15,
		LateDays:    2,
		HalfDays:    2,
	}

	line := payroll.Calculate(seniorProfile(), summary, payroll.DefaultPolicy(), 2025, time.July, 31)

	assertMoneyEqual(t, 18, line.PayableDays)
	assertMoneyEqual(t, 13, line.LOPDays)
	assertMoneyEqual(t, 43548.39, line.ProratedGross)
	// Prorated gross is above both the ESI threshold and the PT floor.
	assert.True(t, line.ESI.IsZero())
	assertMoneyEqual(t, 200, line.PT)
}

func TestCalculate_ZeroAttendance_StrictNoPay(t *testing.T) {
	// GIVEN: A salaried employee with no attendance at all
	// WHEN: Calculating
	// THEN: Prorated gross is zero but PF is still owed off basic, so the
	//       net goes negative

	line := payroll.Calculate(seniorProfile(), attendance.MonthlySummary{EmployeeID: "EMP001"}, payroll.DefaultPolicy(), 2025, time.July, 31)

	assert.True(t, line.ProratedGross.IsZero())
	assertMoneyEqual(t, 1800, line.PF)
	assert.True(t, line.ESI.IsZero())
	assert.True(t, line.PT.IsZero())
	assertMoneyEqual(t, -1800, line.NetPay)
}

func TestCalculate_LowEarner_ESIApplies(t *testing.T) {
	// GIVEN: Gross 10000 with full attendance, below the ESI threshold
	// WHEN: Calculating a 30-day month
	// THEN: ESI 0.75% of prorated gross; PT skipped at or below 15000

	line := payroll.Calculate(juniorProfile(), fullMonth("EMP002", 30), payroll.DefaultPolicy(), 2025, time.June, 30)

	assertMoneyEqual(t, 10000, line.ProratedGross)
	assertMoneyEqual(t, 960, line.PF) // 8000 * 0.12, under the cap
	assertMoneyEqual(t, 75, line.ESI)
	assert.True(t, line.PT.IsZero())
	assertMoneyEqual(t, 8965, line.NetPay)
}

func TestCalculate_ESICliff(t *testing.T) {
	// ESI is a cliff: one rupee over the threshold removes it entirely.
	policy := payroll.DefaultPolicy()

	under := payroll.EmployeeSalaryProfile{EmpID: "U", Basic: money(21000)}
	over := payroll.EmployeeSalaryProfile{EmpID: "O", Basic: money(21001)}

	lineUnder := payroll.Calculate(under, fullMonth("U", 30), policy, 2025, time.June, 30)
	lineOver := payroll.Calculate(over, fullMonth("O", 30), policy, 2025, time.June, 30)

	assertMoneyEqual(t, 157.5, lineUnder.ESI)
	assert.True(t, lineOver.ESI.IsZero())
}

func TestCalculate_PTFloorBoundary(t *testing.T) {
	// Professional tax applies strictly above 15000 prorated gross.
	policy := payroll.DefaultPolicy()

	at := payroll.EmployeeSalaryProfile{EmpID: "A", Basic: money(15000)}
	above := payroll.EmployeeSalaryProfile{EmpID: "B", Basic: money(15001)}

	lineAt := payroll.Calculate(at, fullMonth("A", 30), policy, 2025, time.June, 30)
	lineAbove := payroll.Calculate(above, fullMonth("B", 30), policy, 2025, time.June, 30)

	assert.True(t, lineAt.PT.IsZero())
	assertMoneyEqual(t, 200, lineAbove.PT)
}

func TestCalculate_Encashment(t *testing.T) {
	// GIVEN: Encashment enabled with max 10 days against 10 remaining leaves
	// WHEN: Calculating
	// THEN: (basic + hra) / 30 * 10 is added to net

	policy := payroll.DefaultPolicy()
	policy.LeaveEncashment = true

	line := payroll.Calculate(seniorProfile(), fullMonth("EMP001", 31), policy, 2025, time.July, 31)

	assertMoneyEqual(t, 23333.33, line.Encashment) // 70000 / 30 * 10
	assertMoneyEqual(t, 73000+23333.33, line.NetPay)
}

func TestCalculate_Encashment_CappedByPolicy(t *testing.T) {
	policy := payroll.DefaultPolicy()
	policy.LeaveEncashment = true
	policy.EncashMaxDays = 4

	line := payroll.Calculate(seniorProfile(), fullMonth("EMP001", 31), policy, 2025, time.July, 31)

	assertMoneyEqual(t, 9333.33, line.Encashment) // 70000 / 30 * 4
}

func TestCalculate_MoreAttendance_NeverPaysLess(t *testing.T) {
	// Net pay is monotone in payable days for a fixed profile and policy.
	policy := payroll.DefaultPolicy()
	profile := seniorProfile()

	prev := payroll.Calculate(profile, attendance.MonthlySummary{EmployeeID: "EMP001"}, policy, 2025, time.July, 31)
	for days := 1; days <= 31; days++ {
		line := payroll.Calculate(profile, fullMonth("EMP001", days), policy, 2025, time.July, 31)
		require.True(t, line.NetPay.GreaterThanOrEqual(prev.NetPay),
			"net pay decreased from %s to %s at %d days", prev.NetPay, line.NetPay, days)
		prev = line
	}
}

func TestCalculate_MissingSummary_EqualsZeroAttendance(t *testing.T) {
	// A missing summary and an explicit all-zero summary are the same input.
	policy := payroll.DefaultPolicy()
	profile := seniorProfile()

	var missing attendance.MonthlySummary
	explicit := attendance.MonthlySummary{EmployeeID: "EMP001"}

	a := payroll.Calculate(profile, missing, policy, 2025, time.July, 31)
	b := payroll.Calculate(profile, explicit, policy, 2025, time.July, 31)

	assert.True(t, a.NetPay.Equal(b.NetPay))
	assert.True(t, a.PayableDays.Equal(b.PayableDays))
}
