/*
aggregate.go - Daily classification and monthly aggregation

PURPOSE:
  Turns a month of raw punch records into per-day classifications and
  per-employee monthly summaries. This is a pure computation over an ordered
  sequence of PunchRecords: nothing here is persisted, so corrected punch
  data always re-derives consistent classifications.

CLASSIFICATION RULES:
  - LATE iff punch-in is strictly after 09:00 (9:00 sharp is on time)
  - otherwise PRESENT
  - a closed session shorter than 4 hours reclassifies the day to HALF_DAY,
    replacing the LATE/PRESENT tag so each day feeds exactly one monthly
    counter and payable days never double count
  - an open punch counts for presence/lateness but contributes zero hours
  - only the first punch per employee per calendar date counts; later punch
    cycles on the same date are ignored

SEE ALSO:
  - types.go: DailyClassification, MonthlySummary
  - payroll/calculator.go: Consumes MonthlySummary
*/
package attendance

import (
	"context"
	"sort"
	"time"
)

const (
	// lateCutoffHour/Minute: punch-ins strictly after 09:00 are late.
	lateCutoffHour   = 9
	lateCutoffMinute = 0

	// halfDayThreshold: closed sessions shorter than this are half days.
	halfDayThreshold = 4 * time.Hour
)

// ClassifyDay derives the classification for a single counted punch record.
func ClassifyDay(rec PunchRecord) DailyClassification {
	in := rec.PunchInTime.UTC()
	date := time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC)

	status := DayPresent
	if in.Hour() > lateCutoffHour || (in.Hour() == lateCutoffHour && in.Minute() > lateCutoffMinute) {
		status = DayLate
	}

	var hours float64
	if rec.PunchOutTime != nil {
		d := rec.Duration()
		hours = d.Hours()
		if d < halfDayThreshold {
			status = DayHalf
		}
	}

	return DailyClassification{Date: date, Status: status, HoursWorked: hours}
}

// AggregateMonth groups punches by employee and calendar date and folds the
// per-day classifications into monthly summaries. The input is filtered to
// records whose punch-in lies in the month window; callers normally pass the
// result of ListPunchesInRange directly. Re-running over an unchanged punch
// set yields an identical result.
func AggregateMonth(records []PunchRecord) map[string]MonthlySummary {
	byEmployee := make(map[string][]PunchRecord)
	for _, r := range records {
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}

	summaries := make(map[string]MonthlySummary, len(byEmployee))
	for empID, punches := range byEmployee {
		// Deterministic "first punch per date" regardless of store ordering.
		sort.Slice(punches, func(i, j int) bool {
			return punches[i].PunchInTime.Before(punches[j].PunchInTime)
		})

		summary := MonthlySummary{EmployeeID: empID}
		counted := make(map[string]bool)

		for _, p := range punches {
			dateKey := p.PunchInTime.UTC().Format("2006-01-02")
			if counted[dateKey] {
				continue
			}
			counted[dateKey] = true

			c := ClassifyDay(p)
			switch c.Status {
			case DayPresent:
				summary.PresentDays++
			case DayLate:
				summary.LateDays++
			case DayHalf:
				summary.HalfDays++
			}
			summary.TotalHoursWorked += c.HoursWorked
		}

		summaries[empID] = summary
	}

	return summaries
}

// Aggregator loads a month of punches and produces summaries.
type Aggregator struct {
	Punches PunchStore
}

// SummarizeMonth fetches the month window and aggregates it per employee.
func (a Aggregator) SummarizeMonth(ctx context.Context, year int, month time.Month) (map[string]MonthlySummary, error) {
	from, to := MonthWindow(year, month)
	records, err := a.Punches.ListPunchesInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return AggregateMonth(records), nil
}
