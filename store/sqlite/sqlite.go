/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements attendance.PunchStore, attendance.OfficeStore and the payroll
  store interfaces using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

OPEN-PUNCH INVARIANT:
  The "at most one open punch per employee" invariant is enforced by the
  database, not by application code:

    CREATE UNIQUE INDEX idx_punches_open
        ON punches(employee_id) WHERE punch_out_time IS NULL;

  InsertPunch therefore IS the check-and-insert: two racing punch-ins cannot
  both commit, and the loser surfaces attendance.ErrOpenPunchExists.
  CloseOpenPunch is symmetric - a single conditional UPDATE whose affected
  row count says whether anything was actually open.

KEY TABLES:
  office_profiles:  One geofence profile per branch (atomic upsert)
  punches:          Presence intervals (closed by conditional update)
  employees:        Salary directory
  payroll_policies: Singleton rate configuration
  payroll_lines:    Append-only computed payroll records

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/presence.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - attendance/store.go: Interface contracts
  - store/memory/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/atlas-hr/presence-engine/attendance"
	"github.com/atlas-hr/presence-engine/payroll"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Office geofence profiles (one per branch)
	CREATE TABLE IF NOT EXISTS office_profiles (
		branch_name TEXT PRIMARY KEY,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		allowed_radius_m REAL NOT NULL,
		allowed_bssids_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Punch records (presence intervals)
	CREATE TABLE IF NOT EXISTS punches (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		punch_in_time TEXT NOT NULL,
		punch_out_time TEXT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		wifi_bssid TEXT NOT NULL,
		distance_m REAL NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: at most one open punch per employee. The insert is the
	-- check-then-act; racing punch-ins cannot both commit.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_punches_open
		ON punches(employee_id) WHERE punch_out_time IS NULL;

	-- For monthly range scans (aggregation hot path)
	CREATE INDEX IF NOT EXISTS idx_punches_in_time
		ON punches(punch_in_time);
	CREATE INDEX IF NOT EXISTS idx_punches_employee
		ON punches(employee_id, punch_in_time DESC);

	-- Employee salary directory
	CREATE TABLE IF NOT EXISTS employees (
		emp_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		designation TEXT,
		basic TEXT NOT NULL,
		hra TEXT NOT NULL,
		other_allowances TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Payroll policy (singleton row)
	CREATE TABLE IF NOT EXISTS payroll_policies (
		id TEXT PRIMARY KEY,
		pf_rate TEXT NOT NULL,
		pf_cap TEXT NOT NULL,
		esi_employee_rate TEXT NOT NULL,
		esi_threshold TEXT NOT NULL,
		pt_amount TEXT NOT NULL,
		leave_encashment BOOLEAN NOT NULL,
		encash_max_days INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Computed payroll lines (append-only)
	CREATE TABLE IF NOT EXISTS payroll_lines (
		id TEXT PRIMARY KEY,
		emp_id TEXT NOT NULL,
		name TEXT NOT NULL,
		designation TEXT,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		present_days INTEGER NOT NULL,
		late_days INTEGER NOT NULL,
		half_days INTEGER NOT NULL,
		total_hours REAL NOT NULL,
		payable_days TEXT NOT NULL,
		lop_days TEXT NOT NULL,
		basic TEXT NOT NULL,
		hra TEXT NOT NULL,
		other_allowances TEXT NOT NULL,
		gross_salary TEXT NOT NULL,
		prorated_gross TEXT NOT NULL,
		pf TEXT NOT NULL,
		esi TEXT NOT NULL,
		pt TEXT NOT NULL,
		tds TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		encashment TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_lines_period
		ON payroll_lines(year, month);
	CREATE INDEX IF NOT EXISTS idx_payroll_lines_employee
		ON payroll_lines(emp_id, year, month);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// OFFICE STORE (attendance.OfficeStore interface)
// =============================================================================

// SaveOfficeProfile atomically replaces the branch profile.
func (s *Store) SaveOfficeProfile(ctx context.Context, profile attendance.OfficeProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.NormalizeBSSIDs()
	bssids, err := json.Marshal(profile.AllowedBSSIDs)
	if err != nil {
		return fmt.Errorf("failed to encode bssids: %w", err)
	}

	query := `
		INSERT INTO office_profiles (branch_name, latitude, longitude, allowed_radius_m, allowed_bssids_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(branch_name) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			allowed_radius_m = excluded.allowed_radius_m,
			allowed_bssids_json = excluded.allowed_bssids_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		profile.BranchName, profile.Latitude, profile.Longitude,
		profile.AllowedRadiusMeters, string(bssids),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetOfficeProfile returns the branch profile, or nil if absent.
func (s *Store) GetOfficeProfile(ctx context.Context, branchName string) (*attendance.OfficeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p attendance.OfficeProfile
	var bssidsJSON string

	err := s.db.QueryRowContext(ctx,
		"SELECT branch_name, latitude, longitude, allowed_radius_m, allowed_bssids_json FROM office_profiles WHERE branch_name = ?",
		branchName,
	).Scan(&p.BranchName, &p.Latitude, &p.Longitude, &p.AllowedRadiusMeters, &bssidsJSON)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(bssidsJSON), &p.AllowedBSSIDs); err != nil {
		return nil, fmt.Errorf("failed to decode bssids: %w", err)
	}
	return &p, nil
}

// =============================================================================
// PUNCH STORE (attendance.PunchStore interface)
// =============================================================================

// InsertPunch persists a new open record. The partial unique index makes the
// open-punch check and the insert one atomic unit.
func (s *Store) InsertPunch(ctx context.Context, rec attendance.PunchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO punches
		(id, employee_id, punch_in_time, punch_out_time, latitude, longitude,
		 wifi_bssid, distance_m, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.EmployeeID,
		rec.PunchInTime.UTC().Format(time.RFC3339),
		nullTime(rec.PunchOutTime),
		rec.Location.Latitude,
		rec.Location.Longitude,
		rec.WifiBSSID,
		rec.DistanceFromOffice,
		rec.Status,
		time.Now().UTC().Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return attendance.ErrOpenPunchExists
		}
		return fmt.Errorf("failed to insert punch: %w", err)
	}
	return nil
}

// FindOpenPunch returns the employee's open record, or nil if none.
func (s *Store) FindOpenPunch(ctx context.Context, employeeID string) (*attendance.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := punchSelect + ` WHERE employee_id = ? AND punch_out_time IS NULL LIMIT 1`

	recs, err := s.queryPunches(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// CloseOpenPunch closes the open record via a conditional update. True iff a
// row was actually closed.
func (s *Store) CloseOpenPunch(ctx context.Context, employeeID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE punches
		SET punch_out_time = ?, status = ?
		WHERE employee_id = ? AND punch_out_time IS NULL
	`

	res, err := s.db.ExecContext(ctx, query,
		at.UTC().Format(time.RFC3339),
		attendance.StatusPunchedOut,
		employeeID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to close punch: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListPunchesInRange returns records with punch-in in [from, to).
func (s *Store) ListPunchesInRange(ctx context.Context, from, to time.Time) ([]attendance.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := punchSelect + `
		WHERE punch_in_time >= ? AND punch_in_time < ?
		ORDER BY punch_in_time ASC
	`

	return s.queryPunches(ctx, query,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

// ListPunchesByEmployee returns all records for one employee, newest first.
func (s *Store) ListPunchesByEmployee(ctx context.Context, employeeID string) ([]attendance.PunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := punchSelect + `
		WHERE employee_id = ?
		ORDER BY punch_in_time DESC
	`

	return s.queryPunches(ctx, query, employeeID)
}

const punchSelect = `
	SELECT id, employee_id, punch_in_time, punch_out_time, latitude, longitude,
	       wifi_bssid, distance_m, status, created_at
	FROM punches`

func (s *Store) queryPunches(ctx context.Context, query string, args ...any) ([]attendance.PunchRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query punches: %w", err)
	}
	defer rows.Close()

	var records []attendance.PunchRecord
	for rows.Next() {
		rec, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanPunch(rows *sql.Rows) (attendance.PunchRecord, error) {
	var (
		rec          attendance.PunchRecord
		punchInTime  string
		punchOutTime sql.NullString
		createdAt    string
	)

	err := rows.Scan(
		&rec.ID, &rec.EmployeeID, &punchInTime, &punchOutTime,
		&rec.Location.Latitude, &rec.Location.Longitude,
		&rec.WifiBSSID, &rec.DistanceFromOffice, &rec.Status, &createdAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan punch: %w", err)
	}

	rec.PunchInTime, _ = time.Parse(time.RFC3339, punchInTime)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if punchOutTime.Valid {
		t, _ := time.Parse(time.RFC3339, punchOutTime.String)
		rec.PunchOutTime = &t
	}
	return rec, nil
}

// =============================================================================
// EMPLOYEE DIRECTORY (payroll.EmployeeDirectory interface)
// =============================================================================

// SaveEmployeeSalaryProfile upserts a salary profile.
func (s *Store) SaveEmployeeSalaryProfile(ctx context.Context, p payroll.EmployeeSalaryProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (emp_id, name, designation, basic, hra, other_allowances, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(emp_id) DO UPDATE SET
			name = excluded.name,
			designation = excluded.designation,
			basic = excluded.basic,
			hra = excluded.hra,
			other_allowances = excluded.other_allowances
	`

	_, err := s.db.ExecContext(ctx, query,
		p.EmpID, p.Name, p.Designation,
		p.Basic.String(), p.HRA.String(), p.OtherAllowances.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListEmployeeSalaryProfiles returns salary profiles; empty employeeID means all.
func (s *Store) ListEmployeeSalaryProfiles(ctx context.Context, employeeID string) ([]payroll.EmployeeSalaryProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT emp_id, name, designation, basic, hra, other_allowances FROM employees"
	var args []any
	if employeeID != "" {
		query += " WHERE emp_id = ?"
		args = append(args, strings.ToUpper(employeeID))
	}
	query += " ORDER BY emp_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []payroll.EmployeeSalaryProfile
	for rows.Next() {
		var p payroll.EmployeeSalaryProfile
		var basic, hra, other string
		if err := rows.Scan(&p.EmpID, &p.Name, &p.Designation, &basic, &hra, &other); err != nil {
			return nil, err
		}
		if err := scanDecimals(
			[]*decimal.Decimal{&p.Basic, &p.HRA, &p.OtherAllowances},
			[]string{basic, hra, other},
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// =============================================================================
// POLICY STORE (payroll.PolicyStore interface)
// =============================================================================

const policyRowID = "current"

// SavePayrollPolicy upserts the singleton policy row.
func (s *Store) SavePayrollPolicy(ctx context.Context, p payroll.PayrollPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payroll_policies
		(id, pf_rate, pf_cap, esi_employee_rate, esi_threshold, pt_amount,
		 leave_encashment, encash_max_days, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pf_rate = excluded.pf_rate,
			pf_cap = excluded.pf_cap,
			esi_employee_rate = excluded.esi_employee_rate,
			esi_threshold = excluded.esi_threshold,
			pt_amount = excluded.pt_amount,
			leave_encashment = excluded.leave_encashment,
			encash_max_days = excluded.encash_max_days,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		policyRowID,
		p.PFRate.String(), p.PFCap.String(), p.ESIEmployeeRate.String(),
		p.ESIThreshold.String(), p.PTAmount.String(),
		p.LeaveEncashment, p.EncashMaxDays,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetPayrollPolicy returns the stored policy, or nil if never configured.
func (s *Store) GetPayrollPolicy(ctx context.Context) (*payroll.PayrollPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p payroll.PayrollPolicy
	var pfRate, pfCap, esiRate, esiThreshold, ptAmount string

	err := s.db.QueryRowContext(ctx,
		`SELECT pf_rate, pf_cap, esi_employee_rate, esi_threshold, pt_amount,
		        leave_encashment, encash_max_days
		 FROM payroll_policies WHERE id = ?`,
		policyRowID,
	).Scan(&pfRate, &pfCap, &esiRate, &esiThreshold, &ptAmount,
		&p.LeaveEncashment, &p.EncashMaxDays)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := scanDecimals(
		[]*decimal.Decimal{&p.PFRate, &p.PFCap, &p.ESIEmployeeRate, &p.ESIThreshold, &p.PTAmount},
		[]string{pfRate, pfCap, esiRate, esiThreshold, ptAmount},
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// PAYROLL LINE STORE (payroll.LineStore interface)
// =============================================================================

// InsertPayrollLines appends the lines of one run atomically.
func (s *Store) InsertPayrollLines(ctx context.Context, lines []payroll.PayrollLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO payroll_lines
		(id, emp_id, name, designation, year, month, present_days, late_days,
		 half_days, total_hours, payable_days, lop_days, basic, hra,
		 other_allowances, gross_salary, prorated_gross, pf, esi, pt, tds,
		 total_deductions, encashment, net_pay, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, l := range lines {
		_, err := sqlTx.ExecContext(ctx, query,
			l.ID, l.EmpID, l.Name, l.Designation, l.Year, int(l.Month),
			l.PresentDays, l.LateDays, l.HalfDays, l.TotalHoursWorked,
			l.PayableDays.String(), l.LOPDays.String(),
			l.Basic.String(), l.HRA.String(), l.OtherAllowances.String(),
			l.GrossSalary.String(), l.ProratedGross.String(),
			l.PF.String(), l.ESI.String(), l.PT.String(), l.TDS.String(),
			l.TotalDeductions.String(), l.Encashment.String(), l.NetPay.String(),
			l.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert payroll line: %w", err)
		}
	}

	return sqlTx.Commit()
}

// ListPayrollLines returns all lines for a period, ordered by employee.
func (s *Store) ListPayrollLines(ctx context.Context, year int, month time.Month) ([]payroll.PayrollLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, emp_id, name, designation, year, month, present_days,
		       late_days, half_days, total_hours, payable_days, lop_days,
		       basic, hra, other_allowances, gross_salary, prorated_gross,
		       pf, esi, pt, tds, total_deductions, encashment, net_pay, created_at
		FROM payroll_lines
		WHERE year = ? AND month = ?
		ORDER BY emp_id ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, year, int(month))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []payroll.PayrollLine
	for rows.Next() {
		var l payroll.PayrollLine
		var monthNum int
		var payable, lop, basic, hra, other, gross, prorated string
		var pf, esi, pt, tds, totalDed, encash, net string
		var createdAt string

		if err := rows.Scan(
			&l.ID, &l.EmpID, &l.Name, &l.Designation, &l.Year, &monthNum,
			&l.PresentDays, &l.LateDays, &l.HalfDays, &l.TotalHoursWorked,
			&payable, &lop, &basic, &hra, &other, &gross, &prorated,
			&pf, &esi, &pt, &tds, &totalDed, &encash, &net, &createdAt,
		); err != nil {
			return nil, err
		}

		l.Month = time.Month(monthNum)
		if err := scanDecimals(
			[]*decimal.Decimal{
				&l.PayableDays, &l.LOPDays, &l.Basic, &l.HRA, &l.OtherAllowances,
				&l.GrossSalary, &l.ProratedGross, &l.PF, &l.ESI, &l.PT, &l.TDS,
				&l.TotalDeductions, &l.Encashment, &l.NetPay,
			},
			[]string{payable, lop, basic, hra, other, gross, prorated,
				pf, esi, pt, tds, totalDed, encash, net},
		); err != nil {
			return nil, err
		}
		l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"punches", "payroll_lines", "employees", "payroll_policies", "office_profiles"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// scanDecimals parses stored amounts into their destinations. A corrupt value
// is an error, never a silent zero: a malformed payroll amount must not read
// back as a plausible 0.
func scanDecimals(dst []*decimal.Decimal, src []string) error {
	for i, s := range src {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("corrupt stored decimal %q: %w", s, err)
		}
		*dst[i] = d
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
