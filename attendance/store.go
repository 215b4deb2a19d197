/*
store.go - Persistence interfaces for punches and office profiles

PURPOSE:
  Defines the narrow interfaces the attendance core needs from persistence.
  Implementations live in store/sqlite (production) and store/memory (tests).

OPEN-PUNCH INVARIANT:
  InsertPunch MUST be a guarded write: if an open punch already exists for
  the employee, the insert fails with ErrOpenPunchExists, atomically. A plain
  check-then-write is a race and is not an acceptable implementation.
  CloseOpenPunch is symmetric: it closes at most one open record and reports
  whether one was actually closed.

SEE ALSO:
  - store/sqlite/sqlite.go: Production implementation (partial unique index)
  - store/memory/memory.go: In-memory implementation for tests
*/
package attendance

import (
	"context"
	"time"
)

// PunchStore persists punch records.
type PunchStore interface {
	// FindOpenPunch returns the employee's open record, or nil if none.
	FindOpenPunch(ctx context.Context, employeeID string) (*PunchRecord, error)

	// InsertPunch persists a new open record. Returns ErrOpenPunchExists if an
	// open record for the employee already exists; the check and the insert are
	// observed as a single atomic unit.
	InsertPunch(ctx context.Context, rec PunchRecord) error

	// CloseOpenPunch sets the punch-out time on the employee's open record.
	// Returns true iff a record was actually closed.
	CloseOpenPunch(ctx context.Context, employeeID string, at time.Time) (bool, error)

	// ListPunchesInRange returns records with punch-in in [from, to), ordered
	// by punch-in time ascending.
	ListPunchesInRange(ctx context.Context, from, to time.Time) ([]PunchRecord, error)

	// ListPunchesByEmployee returns all records for one employee, newest first.
	ListPunchesByEmployee(ctx context.Context, employeeID string) ([]PunchRecord, error)
}

// OfficeStore persists the per-branch geofence profile.
type OfficeStore interface {
	// GetOfficeProfile returns the branch profile, or nil if absent.
	GetOfficeProfile(ctx context.Context, branchName string) (*OfficeProfile, error)

	// SaveOfficeProfile atomically replaces the branch profile.
	SaveOfficeProfile(ctx context.Context, profile OfficeProfile) error
}
