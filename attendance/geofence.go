/*
geofence.go - Office profile and the geo/network validator

PURPOSE:
  Pure validation of a candidate punch-in against the office geofence and
  WiFi allowlist. No I/O, no clock, no side effects: the caller supplies the
  office profile snapshot and gets two independent verdicts back.

VALIDATION:
  - Geofence: great-circle distance (haversine, spherical Earth, mean radius
    6,371 km) between the candidate point and the office coordinates must be
    <= AllowedRadiusMeters. The boundary itself is inside.
  - Network: the candidate BSSID, lower-cased, must be in the allowlist.
  Both verdicts are reported separately so callers can tell the user which
  check failed (or that both did).

SEE ALSO:
  - punch.go: Consumes CheckResult during punch-in
*/
package attendance

import (
	"math"
	"strings"
)

// earthRadiusMeters is the mean Earth radius of the spherical model.
const earthRadiusMeters = 6371000.0

// =============================================================================
// OFFICE PROFILE - Singleton per branch
// =============================================================================

// OfficeProfile is the administrative geofence configuration for one branch.
// Exactly one active profile exists per branch name; upserts replace it
// atomically. AllowedBSSIDs are stored lower-cased.
type OfficeProfile struct {
	BranchName          string
	Latitude            float64
	Longitude           float64
	AllowedRadiusMeters float64
	AllowedBSSIDs       []string
}

// NormalizeBSSIDs lower-cases the allowlist in place. Stores call this before
// persisting so lookups never need to case-fold the stored side.
func (p *OfficeProfile) NormalizeBSSIDs() {
	for i, b := range p.AllowedBSSIDs {
		p.AllowedBSSIDs[i] = strings.ToLower(b)
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// CheckResult carries the two independent verdicts plus the measured distance.
type CheckResult struct {
	DistanceMeters float64
	WithinGeofence bool
	NetworkAllowed bool
}

// Accepted reports whether both checks passed.
func (r CheckResult) Accepted() bool { return r.WithinGeofence && r.NetworkAllowed }

// Verify validates a candidate location and BSSID against the office profile.
// Rejection is a return value, not an error.
func Verify(office OfficeProfile, candidate Location, bssid string) CheckResult {
	distance := HaversineMeters(office.Latitude, office.Longitude, candidate.Latitude, candidate.Longitude)

	allowed := false
	needle := strings.ToLower(bssid)
	for _, b := range office.AllowedBSSIDs {
		if strings.ToLower(b) == needle {
			allowed = true
			break
		}
	}

	return CheckResult{
		DistanceMeters: distance,
		WithinGeofence: distance <= office.AllowedRadiusMeters,
		NetworkAllowed: allowed,
	}
}

// HaversineMeters returns the great-circle distance in meters between two
// WGS84 points on a spherical-Earth model.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
