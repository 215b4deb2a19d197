/*
punch.go - The punch state machine

PURPOSE:
  Enforces the per-employee presence state machine: OUT (no open record) and
  IN (exactly one open record). Punch-in validates the candidate against the
  office geofence and WiFi allowlist before creating an open record;
  punch-out closes it.

CHECK ORDER (punch-in):
  1. Required fields          -> ErrInvalidRequest
  2. Office profile exists    -> ErrOfficeNotConfigured
  3. No open punch            -> ErrAlreadyPunchedIn (conflict, checked
                                 BEFORE geofence/network so a double punch-in
                                 is reported as a conflict regardless of
                                 where the second attempt comes from)
  4. Geofence                 -> *GeofenceError
  5. WiFi allowlist           -> *WifiError

CONCURRENCY:
  The store's guarded insert is the authority on the open-punch invariant.
  The explicit FindOpenPunch check only exists to give a clean conflict
  answer on the common path; when two punch-ins race past it, the insert
  itself fails for the loser and is translated to the same conflict.

SEE ALSO:
  - geofence.go: Verify
  - store.go: PunchStore contract
*/
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PunchService is the punch state machine. BranchName selects the office
// profile (the system supports exactly one named branch).
type PunchService struct {
	Punches PunchStore
	Offices OfficeStore
	Branch  string
	Logger  *zap.Logger

	// Now is the clock, overridable in tests. Defaults to time.Now UTC.
	Now func() time.Time
}

// NewPunchService wires a punch service with sane defaults.
func NewPunchService(punches PunchStore, offices OfficeStore, branch string, logger *zap.Logger) *PunchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PunchService{
		Punches: punches,
		Offices: offices,
		Branch:  branch,
		Logger:  logger,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// PunchIn validates and records a punch-in, transitioning the employee to IN.
// On success the created open record is returned. Business rejections are
// typed errors; see errors.go.
func (s *PunchService) PunchIn(ctx context.Context, employeeID string, loc *Location, bssid string) (*PunchRecord, error) {
	if employeeID == "" || loc == nil || bssid == "" {
		return nil, ErrInvalidRequest
	}

	office, err := s.Offices.GetOfficeProfile(ctx, s.Branch)
	if err != nil {
		return nil, err
	}
	if office == nil {
		s.Logger.Error("punch-in rejected: office profile missing", zap.String("branch", s.Branch))
		return nil, ErrOfficeNotConfigured
	}

	// Conflict check precedes geofence/network checks.
	open, err := s.Punches.FindOpenPunch(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrAlreadyPunchedIn
	}

	check := Verify(*office, *loc, bssid)
	if !check.WithinGeofence {
		s.Logger.Info("punch-in rejected: outside geofence",
			zap.String("employee_id", employeeID),
			zap.Float64("distance_m", check.DistanceMeters),
			zap.Float64("allowed_m", office.AllowedRadiusMeters))
		return nil, &GeofenceError{
			DistanceMeters:      check.DistanceMeters,
			AllowedRadiusMeters: office.AllowedRadiusMeters,
		}
	}
	if !check.NetworkAllowed {
		s.Logger.Info("punch-in rejected: wifi not allowlisted",
			zap.String("employee_id", employeeID),
			zap.String("bssid", bssid))
		return nil, &WifiError{BSSID: bssid}
	}

	rec := PunchRecord{
		ID:                 uuid.NewString(),
		EmployeeID:         employeeID,
		PunchInTime:        s.Now(),
		Location:           *loc,
		WifiBSSID:          bssid,
		DistanceFromOffice: check.DistanceMeters,
		Status:             StatusPunchedIn,
	}

	if err := s.Punches.InsertPunch(ctx, rec); err != nil {
		// A racing punch-in lost to the store's uniqueness guard.
		if errors.Is(err, ErrOpenPunchExists) {
			return nil, ErrAlreadyPunchedIn
		}
		return nil, err
	}

	s.Logger.Info("punch-in recorded",
		zap.String("employee_id", employeeID),
		zap.Float64("distance_m", check.DistanceMeters))
	return &rec, nil
}

// PunchOut closes the employee's open record, transitioning back to OUT.
// The returned record has both timestamps set.
func (s *PunchService) PunchOut(ctx context.Context, employeeID string) (*PunchRecord, error) {
	if employeeID == "" {
		return nil, ErrInvalidRequest
	}

	open, err := s.Punches.FindOpenPunch(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNoOpenPunch
	}

	now := s.Now()
	closed, err := s.Punches.CloseOpenPunch(ctx, employeeID, now)
	if err != nil {
		return nil, err
	}
	if !closed {
		// A racing punch-out closed it between the lookup and the update.
		return nil, ErrNoOpenPunch
	}

	open.PunchOutTime = &now
	open.Status = StatusPunchedOut

	s.Logger.Info("punch-out recorded",
		zap.String("employee_id", employeeID),
		zap.Float64("hours", open.Duration().Hours()))
	return open, nil
}
