/*
errors.go - Centralized error types for the attendance core

PURPOSE:
  All punch-path errors in one place. Business-rule rejections (already
  punched in, outside geofence, wrong network, no open punch) are first-class
  outcomes carried as typed errors with enough detail for the caller to
  explain the failure; they are distinguished from client input errors and
  from infrastructure failures via errors.Is helpers.

USAGE:
  Callers match with errors.Is / errors.As:

    var gf *GeofenceError
    if errors.As(err, &gf) {
        // gf.DistanceMeters, gf.AllowedRadiusMeters
    }

SEE ALSO:
  - punch.go: Produces these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package attendance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRequest is returned when a required field is missing.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrOfficeNotConfigured is returned when no office profile exists for the
	// branch. This is a configuration fault, not a user rejection.
	ErrOfficeNotConfigured = errors.New("office not configured")

	// ErrAlreadyPunchedIn is returned when an open punch already exists.
	ErrAlreadyPunchedIn = errors.New("already punched in")

	// ErrNoOpenPunch is returned by punch-out when no open record exists.
	ErrNoOpenPunch = errors.New("no open punch")

	// ErrOpenPunchExists is the store-level signal that the guarded insert hit
	// the open-punch uniqueness constraint. The state machine translates it to
	// ErrAlreadyPunchedIn.
	ErrOpenPunchExists = errors.New("open punch already exists")
)

// =============================================================================
// STRUCTURED REJECTIONS - Carry user-facing detail
// =============================================================================

// GeofenceError reports a punch-in outside the allowed radius.
type GeofenceError struct {
	DistanceMeters      float64
	AllowedRadiusMeters float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("outside office geofence: %.2fm from office (allowed %.0fm)",
		e.DistanceMeters, e.AllowedRadiusMeters)
}

// WifiError reports a punch-in from a network that is not allowlisted.
type WifiError struct {
	BSSID string
}

func (e *WifiError) Error() string {
	return fmt.Sprintf("wifi network %q is not an office network", e.BSSID)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict returns true for state-machine conflicts (HTTP 409 class).
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyPunchedIn) || errors.Is(err, ErrNoOpenPunch)
}

// IsRejection returns true for geofence/network rejections (HTTP 403 class).
func IsRejection(err error) bool {
	var gf *GeofenceError
	var wf *WifiError
	return errors.As(err, &gf) || errors.As(err, &wf)
}
