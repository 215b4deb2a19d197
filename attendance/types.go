/*
Package attendance provides the presence-tracking core of the engine.

PURPOSE:
  This package contains the domain types and algorithms for recording and
  interpreting employee presence: geofence/network validation of punch
  events, the open/closed punch state machine, and the monthly aggregation
  that turns raw punches into per-day classifications and summaries.

KEY CONCEPTS IN THIS FILE (types.go):
  - PunchRecord: One open-or-closed presence interval for an employee
  - Location: A lat/lon pair captured at punch-in
  - DayStatus/DailyClassification: Derived status for one calendar day
  - MonthlySummary: Per-employee counts and hours for one month

DESIGN PRINCIPLES:
  1. Punches are the only ground truth; classifications are always derived
  2. At most one open PunchRecord per employee, enforced by the store
  3. All timestamps are UTC

SEE ALSO:
  - geofence.go: Office profile and validation
  - punch.go: The punch-in/punch-out state machine
  - aggregate.go: Daily classification and monthly aggregation
*/
package attendance

import "time"

// =============================================================================
// PUNCH RECORD - One presence interval
// =============================================================================

type PunchStatus string

const (
	StatusPunchedIn  PunchStatus = "PUNCHED_IN"
	StatusPunchedOut PunchStatus = "PUNCHED_OUT"
)

// Location is a WGS84 coordinate captured at punch-in.
type Location struct {
	Latitude  float64
	Longitude float64
}

// PunchRecord is one row per presence interval. PunchOutTime is nil while the
// interval is open; a nil PunchOutTime is what the open-punch invariant keys on.
type PunchRecord struct {
	ID                 string
	EmployeeID         string
	PunchInTime        time.Time
	PunchOutTime       *time.Time
	Location           Location
	WifiBSSID          string
	DistanceFromOffice float64
	Status             PunchStatus
	CreatedAt          time.Time
}

// Open reports whether the record still awaits a punch-out.
func (r PunchRecord) Open() bool { return r.PunchOutTime == nil }

// Duration returns the worked duration, or zero for an open record.
func (r PunchRecord) Duration() time.Duration {
	if r.PunchOutTime == nil {
		return 0
	}
	return r.PunchOutTime.Sub(r.PunchInTime)
}

// =============================================================================
// DERIVED CLASSIFICATIONS - Never persisted, always rebuilt from punches
// =============================================================================

type DayStatus string

const (
	DayPresent DayStatus = "PRESENT"
	DayLate    DayStatus = "LATE"
	DayHalf    DayStatus = "HALF_DAY"
	DayAbsent  DayStatus = "ABSENT"
)

// DailyClassification is the derived status of one employee on one calendar
// date. It is recomputed on every aggregation pass so that corrections to
// punch data can never drift from the reported classification.
type DailyClassification struct {
	Date        time.Time
	Status      DayStatus
	HoursWorked float64
}

// MonthlySummary aggregates DailyClassifications for one employee over the
// window [start-of-month, start-of-next-month). A day contributes to exactly
// one of the three counters.
type MonthlySummary struct {
	EmployeeID       string
	PresentDays      int
	LateDays         int
	HalfDays         int
	TotalHoursWorked float64
}

// =============================================================================
// MONTH WINDOW
// =============================================================================

// MonthWindow returns the half-open UTC window [first of month, first of next
// month) used for all monthly queries.
func MonthWindow(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// DaysInMonth returns the calendar length of the month (28-31).
func DaysInMonth(year int, month time.Month) int {
	start, end := MonthWindow(year, month)
	return int(end.Sub(start).Hours() / 24)
}
