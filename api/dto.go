/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AT THE EDGE:
  Internal money is decimal. DTOs carry float64 rounded to 2 places; the
  rounding happens exactly once, here, when a line crosses the API boundary.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Internal PayrollLine
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-hr/presence-engine/attendance"
	"github.com/atlas-hr/presence-engine/payroll"
)

// =============================================================================
// ATTENDANCE TYPES
// =============================================================================

// PunchInRequest is the body of a punch-in attempt. Latitude and longitude
// are pointers so a missing coordinate is distinguishable from zero.
type PunchInRequest struct {
	EmployeeID string   `json:"employee_id"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	WifiBSSID  string   `json:"wifi_bssid"`
}

// PunchOutRequest is the body of a punch-out attempt.
type PunchOutRequest struct {
	EmployeeID string `json:"employee_id"`
}

// PunchResponse reports the outcome of a punch attempt. Rejections carry the
// evidence for the rejection (measured distance, offending BSSID).
type PunchResponse struct {
	Status              string   `json:"status"`
	Message             string   `json:"message,omitempty"`
	PunchID             string   `json:"punch_id,omitempty"`
	PunchInTime         string   `json:"punch_in_time,omitempty"`
	PunchOutTime        string   `json:"punch_out_time,omitempty"`
	DistanceMeters      *float64 `json:"distance_meters,omitempty"`
	AllowedRadiusMeters *float64 `json:"allowed_radius_meters,omitempty"`
	WifiBSSID           string   `json:"wifi_bssid,omitempty"`
}

// PunchDTO is one presence interval in a summary response.
type PunchDTO struct {
	ID             string  `json:"id"`
	PunchInTime    string  `json:"punch_in_time"`
	PunchOutTime   *string `json:"punch_out_time,omitempty"`
	HoursWorked    float64 `json:"hours_worked"`
	DistanceMeters float64 `json:"distance_meters"`
	Status         string  `json:"status"`
}

// AttendanceSummaryDTO is the per-employee punch history with totals.
type AttendanceSummaryDTO struct {
	EmployeeID   string     `json:"employee_id"`
	TotalPunches int        `json:"total_punches"`
	TotalHours   float64    `json:"total_hours"`
	Punches      []PunchDTO `json:"punches"`
}

// TodayEntryDTO is one employee's row on the day board.
type TodayEntryDTO struct {
	EmployeeID  string  `json:"employee_id"`
	Name        string  `json:"name,omitempty"`
	Status      string  `json:"status"`
	CheckIn     string  `json:"check_in,omitempty"`
	CheckOut    string  `json:"check_out,omitempty"`
	HoursWorked float64 `json:"hours_worked"`
}

// TodayAttendanceDTO groups today's attendance by status for the HR
// dashboard. Each employee appears in exactly one group.
type TodayAttendanceDTO struct {
	Date       string          `json:"date"`
	Present    []TodayEntryDTO `json:"present"`
	Late       []TodayEntryDTO `json:"late"`
	HalfDay    []TodayEntryDTO `json:"half_day"`
	NotPunched []TodayEntryDTO `json:"not_punched"`
}

// OfficeConfigDTO is the geofence profile for a branch, in both directions.
type OfficeConfigDTO struct {
	BranchName          string   `json:"branch_name"`
	Latitude            float64  `json:"latitude"`
	Longitude           float64  `json:"longitude"`
	AllowedRadiusMeters float64  `json:"allowed_radius_meters"`
	AllowedBSSIDs       []string `json:"allowed_bssids"`
}

// =============================================================================
// PAYROLL TYPES
// =============================================================================

// ProcessPayrollRequest triggers a payroll run for one month. EmployeeID
// narrows the run to one employee; empty means everyone.
type ProcessPayrollRequest struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	EmployeeID string `json:"employee_id,omitempty"`
}

// PayrollLineDTO is one employee's computed line for a month.
type PayrollLineDTO struct {
	EmpID       string `json:"emp_id"`
	Name        string `json:"name"`
	Designation string `json:"designation,omitempty"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`

	PresentDays      int     `json:"present_days"`
	LateDays         int     `json:"late_days"`
	HalfDays         int     `json:"half_days"`
	TotalHoursWorked float64 `json:"total_hours_worked"`
	PayableDays      float64 `json:"payable_days"`
	LOPDays          float64 `json:"lop_days"`

	Basic           float64 `json:"basic"`
	HRA             float64 `json:"hra"`
	OtherAllowances float64 `json:"other_allowances"`
	GrossSalary     float64 `json:"gross_salary"`
	ProratedGross   float64 `json:"prorated_gross"`

	PF              float64 `json:"pf"`
	ESI             float64 `json:"esi"`
	PT              float64 `json:"pt"`
	TDS             float64 `json:"tds"`
	TotalDeductions float64 `json:"total_deductions"`
	Encashment      float64 `json:"encashment"`
	NetPay          float64 `json:"net_pay"`

	CreatedAt string `json:"created_at,omitempty"`
}

// LineErrorDTO reports a per-employee failure inside a batch run.
type LineErrorDTO struct {
	EmpID string `json:"emp_id"`
	Error string `json:"error"`
}

// PayrollRunResponse is the outcome of one payroll run.
type PayrollRunResponse struct {
	Year      int              `json:"year"`
	Month     int              `json:"month"`
	Processed []PayrollLineDTO `json:"processed"`
	Errors    []LineErrorDTO   `json:"errors"`
}

// EmployeeDTO is a salary profile, in both directions.
type EmployeeDTO struct {
	EmpID           string  `json:"emp_id"`
	Name            string  `json:"name"`
	Designation     string  `json:"designation,omitempty"`
	Basic           float64 `json:"basic"`
	HRA             float64 `json:"hra"`
	OtherAllowances float64 `json:"other_allowances"`
}

// PolicyDTO is the payroll policy, in both directions.
type PolicyDTO struct {
	PFRate          float64 `json:"pf_rate"`
	PFCap           float64 `json:"pf_cap"`
	ESIEmployeeRate float64 `json:"esi_employee_rate"`
	ESIThreshold    float64 `json:"esi_threshold"`
	PTAmount        float64 `json:"pt_amount"`
	LeaveEncashment bool    `json:"leave_encashment"`
	EncashMaxDays   int     `json:"encash_max_days"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// money rounds a decimal amount to 2 places for presentation.
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func round2(f float64) float64 {
	d := decimal.NewFromFloat(f)
	out, _ := d.Round(2).Float64()
	return out
}

func toPunchDTO(p attendance.PunchRecord) PunchDTO {
	dto := PunchDTO{
		ID:             p.ID,
		PunchInTime:    p.PunchInTime.Format(time.RFC3339),
		HoursWorked:    round2(p.Duration().Hours()),
		DistanceMeters: round2(p.DistanceFromOffice),
		Status:         string(p.Status),
	}
	if p.PunchOutTime != nil {
		out := p.PunchOutTime.Format(time.RFC3339)
		dto.PunchOutTime = &out
	}
	return dto
}

func toPayrollLineDTO(l payroll.PayrollLine) PayrollLineDTO {
	dto := PayrollLineDTO{
		EmpID:       l.EmpID,
		Name:        l.Name,
		Designation: l.Designation,
		Year:        l.Year,
		Month:       int(l.Month),

		PresentDays:      l.PresentDays,
		LateDays:         l.LateDays,
		HalfDays:         l.HalfDays,
		TotalHoursWorked: round2(l.TotalHoursWorked),
		PayableDays:      money(l.PayableDays),
		LOPDays:          money(l.LOPDays),

		Basic:           money(l.Basic),
		HRA:             money(l.HRA),
		OtherAllowances: money(l.OtherAllowances),
		GrossSalary:     money(l.GrossSalary),
		ProratedGross:   money(l.ProratedGross),

		PF:              money(l.PF),
		ESI:             money(l.ESI),
		PT:              money(l.PT),
		TDS:             money(l.TDS),
		TotalDeductions: money(l.TotalDeductions),
		Encashment:      money(l.Encashment),
		NetPay:          money(l.NetPay),
	}
	if !l.CreatedAt.IsZero() {
		dto.CreatedAt = l.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toEmployeeDTO(p payroll.EmployeeSalaryProfile) EmployeeDTO {
	return EmployeeDTO{
		EmpID:           p.EmpID,
		Name:            p.Name,
		Designation:     p.Designation,
		Basic:           money(p.Basic),
		HRA:             money(p.HRA),
		OtherAllowances: money(p.OtherAllowances),
	}
}

func toPolicyDTO(p payroll.PayrollPolicy) PolicyDTO {
	pfRate, _ := p.PFRate.Float64()
	esiRate, _ := p.ESIEmployeeRate.Float64()
	return PolicyDTO{
		PFRate:          pfRate,
		PFCap:           money(p.PFCap),
		ESIEmployeeRate: esiRate,
		ESIThreshold:    money(p.ESIThreshold),
		PTAmount:        money(p.PTAmount),
		LeaveEncashment: p.LeaveEncashment,
		EncashMaxDays:   p.EncashMaxDays,
	}
}
