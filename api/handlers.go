/*
handlers.go - HTTP API handlers for the presence engine

PURPOSE:
  Exposes punch capture, attendance summaries, office configuration, and
  payroll processing via REST. Handles HTTP request/response and JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Attendance:
    POST /api/attendance/punch-in        Verified punch-in
    POST /api/attendance/punch-out       Close the open punch
    GET  /api/attendance/summary         Punch history + totals for one employee
    GET  /api/attendance/today           Today's attendance grouped by status
    GET  /api/attendance/export/monthly  Monthly CSV export

  Office:
    GET  /api/office/config              Current geofence profile
    POST /api/office/config              Upsert geofence profile (admin)

  Payroll:
    POST /api/payroll/process            Run payroll for a month
    GET  /api/payroll/lines              Stored lines for a month
    GET  /api/payroll/policy             Current policy (defaults if unset)
    PUT  /api/payroll/policy             Replace policy

  Employees:
    GET  /api/employees                  List salary profiles
    POST /api/employees                  Upsert salary profile

ERROR HANDLING:
  Punch outcomes map to HTTP statuses:
  - 400: INVALID_REQUEST (missing field)
  - 409: ALREADY_PUNCHED_IN, NO_OPEN_PUNCH (state conflicts)
  - 403: GEOFENCE_FAILED, WIFI_FAILED (verification rejections, with evidence)
  - 500: OFFICE_NOT_CONFIGURED, internal errors
  Everything else uses the standard ErrorResponse body.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - attendance/punch.go: Punch state machine
  - payroll/runner.go: Batch payroll runs
*/
package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atlas-hr/presence-engine/attendance"
	"github.com/atlas-hr/presence-engine/payroll"
)

// Punch outcome statuses on the wire.
const (
	statusInvalidRequest      = "INVALID_REQUEST"
	statusOfficeNotConfigured = "OFFICE_NOT_CONFIGURED"
	statusAlreadyPunchedIn    = "ALREADY_PUNCHED_IN"
	statusGeofenceFailed      = "GEOFENCE_FAILED"
	statusWifiFailed          = "WIFI_FAILED"
	statusNoOpenPunch         = "NO_OPEN_PUNCH"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the full persistence surface the handlers need. The sqlite and
// memory stores both satisfy it.
type Store interface {
	attendance.PunchStore
	attendance.OfficeStore
	payroll.EmployeeDirectory
	payroll.PolicyStore
	payroll.LineStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  Store
	Punch  *attendance.PunchService
	Runner *payroll.Runner
	Branch string
	Logger *zap.Logger
}

// NewHandler wires a handler around the given store. branch names the office
// profile that punch-in verifies against.
func NewHandler(store Store, branch string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:  store,
		Punch:  attendance.NewPunchService(store, store, branch, logger),
		Runner: payroll.NewRunner(store, store, store, store, logger),
		Branch: branch,
		Logger: logger,
	}
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// PunchIn attempts a verified punch-in.
// POST /api/attendance/punch-in
func (h *Handler) PunchIn(w http.ResponseWriter, r *http.Request) {
	var req PunchInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, PunchResponse{Status: statusInvalidRequest, Message: "invalid JSON body"})
		return
	}

	var loc *attendance.Location
	if req.Latitude != nil && req.Longitude != nil {
		loc = &attendance.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	rec, err := h.Punch.PunchIn(r.Context(), strings.TrimSpace(req.EmployeeID), loc, req.WifiBSSID)
	if err != nil {
		h.writePunchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PunchResponse{
		Status:         string(attendance.StatusPunchedIn),
		Message:        "punched in",
		PunchID:        rec.ID,
		PunchInTime:    rec.PunchInTime.Format(time.RFC3339),
		DistanceMeters: f64Ptr(round2(rec.DistanceFromOffice)),
	})
}

// PunchOut closes the employee's open punch.
// POST /api/attendance/punch-out
func (h *Handler) PunchOut(w http.ResponseWriter, r *http.Request) {
	var req PunchOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, PunchResponse{Status: statusInvalidRequest, Message: "invalid JSON body"})
		return
	}

	rec, err := h.Punch.PunchOut(r.Context(), strings.TrimSpace(req.EmployeeID))
	if err != nil {
		h.writePunchError(w, err)
		return
	}

	resp := PunchResponse{
		Status:      string(attendance.StatusPunchedOut),
		Message:     "punched out",
		PunchID:     rec.ID,
		PunchInTime: rec.PunchInTime.Format(time.RFC3339),
	}
	if rec.PunchOutTime != nil {
		resp.PunchOutTime = rec.PunchOutTime.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// writePunchError maps punch state machine errors to wire responses. The
// rejection responses carry their evidence so a client can show the user why.
func (h *Handler) writePunchError(w http.ResponseWriter, err error) {
	var geoErr *attendance.GeofenceError
	var wifiErr *attendance.WifiError

	switch {
	case errors.Is(err, attendance.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, PunchResponse{Status: statusInvalidRequest, Message: err.Error()})
	case errors.Is(err, attendance.ErrOfficeNotConfigured):
		writeJSON(w, http.StatusInternalServerError, PunchResponse{Status: statusOfficeNotConfigured, Message: err.Error()})
	case errors.Is(err, attendance.ErrAlreadyPunchedIn):
		writeJSON(w, http.StatusConflict, PunchResponse{Status: statusAlreadyPunchedIn, Message: err.Error()})
	case errors.Is(err, attendance.ErrNoOpenPunch):
		writeJSON(w, http.StatusConflict, PunchResponse{Status: statusNoOpenPunch, Message: err.Error()})
	case errors.As(err, &geoErr):
		writeJSON(w, http.StatusForbidden, PunchResponse{
			Status:              statusGeofenceFailed,
			Message:             err.Error(),
			DistanceMeters:      f64Ptr(round2(geoErr.DistanceMeters)),
			AllowedRadiusMeters: f64Ptr(geoErr.AllowedRadiusMeters),
		})
	case errors.As(err, &wifiErr):
		writeJSON(w, http.StatusForbidden, PunchResponse{
			Status:    statusWifiFailed,
			Message:   err.Error(),
			WifiBSSID: wifiErr.BSSID,
		})
	default:
		h.Logger.Error("punch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Punch failed", err)
	}
}

// GetAttendanceSummary returns an employee's punch history with totals,
// newest first.
// GET /api/attendance/summary?employee_id=EMP001
func (h *Handler) GetAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	employeeID := strings.TrimSpace(r.URL.Query().Get("employee_id"))
	if employeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}

	punches, err := h.Store.ListPunchesByEmployee(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list punches", err)
		return
	}

	summary := AttendanceSummaryDTO{
		EmployeeID:   employeeID,
		TotalPunches: len(punches),
		Punches:      make([]PunchDTO, 0, len(punches)),
	}
	var totalHours float64
	for _, p := range punches {
		totalHours += p.Duration().Hours()
		summary.Punches = append(summary.Punches, toPunchDTO(p))
	}
	summary.TotalHours = round2(totalHours)

	writeJSON(w, http.StatusOK, summary)
}

// GetTodayAttendance returns today's punches for all employees, grouped by
// status for the HR dashboard. Directory employees with no punch today land
// in the not_punched group.
// GET /api/attendance/today
func (h *Handler) GetTodayAttendance(w http.ResponseWriter, r *http.Request) {
	now := h.Punch.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	punches, err := h.Store.ListPunchesInRange(r.Context(), dayStart, dayEnd)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list punches", err)
		return
	}

	profiles, err := h.Store.ListEmployeeSalaryProfiles(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.EmpID] = p.Name
	}

	// First punch per employee decides the day, matching the aggregator.
	firstByEmployee := make(map[string]attendance.PunchRecord)
	for _, p := range punches {
		if existing, ok := firstByEmployee[p.EmployeeID]; !ok || p.PunchInTime.Before(existing.PunchInTime) {
			firstByEmployee[p.EmployeeID] = p
		}
	}

	board := TodayAttendanceDTO{
		Date:       dayStart.Format("2006-01-02"),
		Present:    []TodayEntryDTO{},
		Late:       []TodayEntryDTO{},
		HalfDay:    []TodayEntryDTO{},
		NotPunched: []TodayEntryDTO{},
	}

	punchedIDs := make([]string, 0, len(firstByEmployee))
	for id := range firstByEmployee {
		punchedIDs = append(punchedIDs, id)
	}
	sort.Strings(punchedIDs)

	for _, id := range punchedIDs {
		p := firstByEmployee[id]
		c := attendance.ClassifyDay(p)

		entry := TodayEntryDTO{
			EmployeeID:  id,
			Name:        names[id],
			Status:      string(c.Status),
			CheckIn:     p.PunchInTime.Format("15:04:05"),
			HoursWorked: round2(c.HoursWorked),
		}
		if p.PunchOutTime != nil {
			entry.CheckOut = p.PunchOutTime.Format("15:04:05")
		}

		switch c.Status {
		case attendance.DayLate:
			board.Late = append(board.Late, entry)
		case attendance.DayHalf:
			board.HalfDay = append(board.HalfDay, entry)
		default:
			board.Present = append(board.Present, entry)
		}
	}

	for _, p := range profiles {
		if _, ok := firstByEmployee[p.EmpID]; ok {
			continue
		}
		board.NotPunched = append(board.NotPunched, TodayEntryDTO{
			EmployeeID: p.EmpID,
			Name:       p.Name,
			Status:     "NOT_PUNCHED",
		})
	}

	writeJSON(w, http.StatusOK, board)
}

// ExportMonthlyCSV streams one employee's punches for a month as CSV.
// GET /api/attendance/export/monthly?employee_id=EMP001&month=2025-07
func (h *Handler) ExportMonthlyCSV(w http.ResponseWriter, r *http.Request) {
	employeeID := strings.TrimSpace(r.URL.Query().Get("employee_id"))
	monthParam := r.URL.Query().Get("month")
	if employeeID == "" || monthParam == "" {
		writeError(w, http.StatusBadRequest, "employee_id and month are required", nil)
		return
	}

	period, err := time.Parse("2006-01", monthParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM", err)
		return
	}

	from, to := attendance.MonthWindow(period.Year(), period.Month())
	punches, err := h.Store.ListPunchesInRange(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list punches", err)
		return
	}

	var rows []attendance.PunchRecord
	for _, p := range punches {
		if p.EmployeeID == employeeID {
			rows = append(rows, p)
		}
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "No attendance data found", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="attendance_%s_%s.csv"`, employeeID, monthParam))

	cw := csv.NewWriter(w)
	cw.Write([]string{"Date", "Punch In", "Punch Out", "Hours Worked", "Distance (m)", "Status"})

	var totalHours float64
	for _, p := range rows {
		out := ""
		if p.PunchOutTime != nil {
			out = p.PunchOutTime.Format("15:04:05")
		}
		totalHours += p.Duration().Hours()
		cw.Write([]string{
			p.PunchInTime.Format("2006-01-02"),
			p.PunchInTime.Format("15:04:05"),
			out,
			strconv.FormatFloat(round2(p.Duration().Hours()), 'f', 2, 64),
			strconv.FormatFloat(round2(p.DistanceFromOffice), 'f', 2, 64),
			string(p.Status),
		})
	}
	cw.Write([]string{"TOTAL", "", "", strconv.FormatFloat(round2(totalHours), 'f', 2, 64), "", ""})

	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Logger.Error("csv export failed mid-stream",
			zap.String("employee_id", employeeID),
			zap.String("month", monthParam),
			zap.Error(err))
	}
}

// =============================================================================
// OFFICE CONFIG HANDLERS
// =============================================================================

// GetOfficeConfig returns the active geofence profile.
// GET /api/office/config
func (h *Handler) GetOfficeConfig(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Store.GetOfficeProfile(r.Context(), h.Branch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load office profile", err)
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "Office profile not configured", nil)
		return
	}

	writeJSON(w, http.StatusOK, OfficeConfigDTO{
		BranchName:          profile.BranchName,
		Latitude:            profile.Latitude,
		Longitude:           profile.Longitude,
		AllowedRadiusMeters: profile.AllowedRadiusMeters,
		AllowedBSSIDs:       profile.AllowedBSSIDs,
	})
}

// SaveOfficeConfig upserts the geofence profile for a branch.
// POST /api/office/config
func (h *Handler) SaveOfficeConfig(w http.ResponseWriter, r *http.Request) {
	var req OfficeConfigDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.BranchName == "" {
		req.BranchName = h.Branch
	}
	if req.AllowedRadiusMeters <= 0 {
		writeError(w, http.StatusBadRequest, "allowed_radius_meters must be positive", nil)
		return
	}
	if len(req.AllowedBSSIDs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one allowed BSSID is required", nil)
		return
	}

	profile := attendance.OfficeProfile{
		BranchName:          req.BranchName,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		AllowedRadiusMeters: req.AllowedRadiusMeters,
		AllowedBSSIDs:       req.AllowedBSSIDs,
	}
	if err := h.Store.SaveOfficeProfile(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save office profile", err)
		return
	}

	h.Logger.Info("office profile saved",
		zap.String("branch", profile.BranchName),
		zap.Float64("radius_m", profile.AllowedRadiusMeters))
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// ProcessPayroll runs payroll for a month and returns the computed lines.
// POST /api/payroll/process
func (h *Handler) ProcessPayroll(w http.ResponseWriter, r *http.Request) {
	var req ProcessPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year < 2000 || req.Year > 2100 || req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "year and month are required (month 1-12)", nil)
		return
	}

	result, err := h.Runner.ProcessMonth(r.Context(), req.Year, time.Month(req.Month), strings.TrimSpace(req.EmployeeID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Payroll run failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toRunResponse(result))
}

// ListPayrollLines returns stored lines for a month.
// GET /api/payroll/lines?year=2025&month=7
func (h *Handler) ListPayrollLines(w http.ResponseWriter, r *http.Request) {
	year, err1 := strconv.Atoi(r.URL.Query().Get("year"))
	month, err2 := strconv.Atoi(r.URL.Query().Get("month"))
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "year and month query params are required", nil)
		return
	}

	lines, err := h.Store.ListPayrollLines(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payroll lines", err)
		return
	}

	dtos := make([]PayrollLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = toPayrollLineDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPayrollPolicy returns the current policy, or the documented defaults if
// none has been saved.
// GET /api/payroll/policy
func (h *Handler) GetPayrollPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Store.GetPayrollPolicy(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load policy", err)
		return
	}
	if policy == nil {
		def := payroll.DefaultPolicy()
		policy = &def
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(*policy))
}

// PutPayrollPolicy replaces the payroll policy.
// PUT /api/payroll/policy
func (h *Handler) PutPayrollPolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PFRate < 0 || req.PFRate > 1 || req.ESIEmployeeRate < 0 || req.ESIEmployeeRate > 1 {
		writeError(w, http.StatusBadRequest, "rates must be fractions between 0 and 1", nil)
		return
	}

	policy := payroll.PayrollPolicy{
		PFRate:          decimal.NewFromFloat(req.PFRate),
		PFCap:           decimal.NewFromFloat(req.PFCap),
		ESIEmployeeRate: decimal.NewFromFloat(req.ESIEmployeeRate),
		ESIThreshold:    decimal.NewFromFloat(req.ESIThreshold),
		PTAmount:        decimal.NewFromFloat(req.PTAmount),
		LeaveEncashment: req.LeaveEncashment,
		EncashMaxDays:   req.EncashMaxDays,
	}
	if err := h.Store.SavePayrollPolicy(r.Context(), policy); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all salary profiles.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.ListEmployeeSalaryProfiles(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(profiles))
	for i, p := range profiles {
		dtos[i] = toEmployeeDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee upserts a salary profile. Employee IDs are stored upper-case.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.EmpID = strings.ToUpper(strings.TrimSpace(req.EmpID))
	if req.EmpID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "emp_id and name are required", nil)
		return
	}
	if req.Basic < 0 || req.HRA < 0 || req.OtherAllowances < 0 {
		writeError(w, http.StatusBadRequest, "salary components must be non-negative", nil)
		return
	}

	profile := payroll.EmployeeSalaryProfile{
		EmpID:           req.EmpID,
		Name:            req.Name,
		Designation:     req.Designation,
		Basic:           decimal.NewFromFloat(req.Basic),
		HRA:             decimal.NewFromFloat(req.HRA),
		OtherAllowances: decimal.NewFromFloat(req.OtherAllowances),
	}
	if err := h.Store.SaveEmployeeSalaryProfile(r.Context(), profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// HELPERS
// =============================================================================

func toRunResponse(result *payroll.RunResult) PayrollRunResponse {
	resp := PayrollRunResponse{
		Year:      result.Year,
		Month:     int(result.Month),
		Processed: make([]PayrollLineDTO, 0, len(result.Processed)),
		Errors:    make([]LineErrorDTO, 0, len(result.Errors)),
	}
	for _, l := range result.Processed {
		resp.Processed = append(resp.Processed, toPayrollLineDTO(l))
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, LineErrorDTO{EmpID: e.EmpID, Error: e.Err})
	}
	return resp
}

func f64Ptr(f float64) *float64 {
	return &f
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
