// Package memory provides an in-memory Store implementation (for testing/dev).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atlas-hr/presence-engine/attendance"
	"github.com/atlas-hr/presence-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of all storage interfaces
// =============================================================================

// Store implements the attendance and payroll store interfaces with
// mutex-guarded maps. The open-punch guard has the same atomic semantics as
// the SQLite partial unique index: the existence check and the insert happen
// under one lock.
type Store struct {
	mu       sync.RWMutex
	offices  map[string]attendance.OfficeProfile
	punches  []attendance.PunchRecord
	profiles map[string]payroll.EmployeeSalaryProfile
	policy   *payroll.PayrollPolicy
	lines    []payroll.PayrollLine
}

func New() *Store {
	return &Store{
		offices:  make(map[string]attendance.OfficeProfile),
		profiles: make(map[string]payroll.EmployeeSalaryProfile),
	}
}

// =============================================================================
// OFFICE STORE
// =============================================================================

func (m *Store) SaveOfficeProfile(_ context.Context, profile attendance.OfficeProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile.NormalizeBSSIDs()
	m.offices[profile.BranchName] = profile
	return nil
}

func (m *Store) GetOfficeProfile(_ context.Context, branchName string) (*attendance.OfficeProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.offices[branchName]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// =============================================================================
// PUNCH STORE
// =============================================================================

func (m *Store) InsertPunch(_ context.Context, rec attendance.PunchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Guarded insert: check and append under one lock.
	for _, p := range m.punches {
		if p.EmployeeID == rec.EmployeeID && p.PunchOutTime == nil {
			return attendance.ErrOpenPunchExists
		}
	}
	m.punches = append(m.punches, rec)
	return nil
}

func (m *Store) FindOpenPunch(_ context.Context, employeeID string) (*attendance.PunchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.punches {
		if m.punches[i].EmployeeID == employeeID && m.punches[i].PunchOutTime == nil {
			rec := m.punches[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *Store) CloseOpenPunch(_ context.Context, employeeID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.punches {
		if m.punches[i].EmployeeID == employeeID && m.punches[i].PunchOutTime == nil {
			out := at
			m.punches[i].PunchOutTime = &out
			m.punches[i].Status = attendance.StatusPunchedOut
			return true, nil
		}
	}
	return false, nil
}

func (m *Store) ListPunchesInRange(_ context.Context, from, to time.Time) ([]attendance.PunchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []attendance.PunchRecord
	for _, p := range m.punches {
		if !p.PunchInTime.Before(from) && p.PunchInTime.Before(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PunchInTime.Before(out[j].PunchInTime) })
	return out, nil
}

func (m *Store) ListPunchesByEmployee(_ context.Context, employeeID string) ([]attendance.PunchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []attendance.PunchRecord
	for _, p := range m.punches {
		if p.EmployeeID == employeeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PunchInTime.After(out[j].PunchInTime) })
	return out, nil
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

func (m *Store) SaveEmployeeSalaryProfile(_ context.Context, p payroll.EmployeeSalaryProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[p.EmpID] = p
	return nil
}

func (m *Store) ListEmployeeSalaryProfiles(_ context.Context, employeeID string) ([]payroll.EmployeeSalaryProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []payroll.EmployeeSalaryProfile
	if employeeID != "" {
		if p, ok := m.profiles[strings.ToUpper(employeeID)]; ok {
			out = append(out, p)
		}
		return out, nil
	}

	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmpID < out[j].EmpID })
	return out, nil
}

// =============================================================================
// POLICY STORE
// =============================================================================

func (m *Store) SavePayrollPolicy(_ context.Context, p payroll.PayrollPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.policy = &p
	return nil
}

func (m *Store) GetPayrollPolicy(_ context.Context) (*payroll.PayrollPolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.policy == nil {
		return nil, nil
	}
	p := *m.policy
	return &p, nil
}

// =============================================================================
// PAYROLL LINE STORE
// =============================================================================

func (m *Store) InsertPayrollLines(_ context.Context, lines []payroll.PayrollLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = append(m.lines, lines...)
	return nil
}

func (m *Store) ListPayrollLines(_ context.Context, year int, month time.Month) ([]payroll.PayrollLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []payroll.PayrollLine
	for _, l := range m.lines {
		if l.Year == year && l.Month == month {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmpID < out[j].EmpID })
	return out, nil
}
