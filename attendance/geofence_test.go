package attendance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-hr/presence-engine/attendance"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func originOffice(radius float64) attendance.OfficeProfile {
	return attendance.OfficeProfile{
		BranchName:          "Main Office",
		Latitude:            0,
		Longitude:           0,
		AllowedRadiusMeters: radius,
		AllowedBSSIDs:       []string{"wifi"},
	}
}

// =============================================================================
// HAVERSINE TESTS
// =============================================================================

func TestHaversine_SamePoint_ZeroDistance(t *testing.T) {
	d := attendance.HaversineMeters(12.9716, 77.5946, 12.9716, 77.5946)
	assert.InDelta(t, 0, d, 0.001)
}

func TestHaversine_KnownDistance(t *testing.T) {
	// GIVEN: The origin and (50, 50)
	// WHEN: Measuring the great-circle distance
	// THEN: Roughly 7,274 km on the spherical model (within 1%)

	d := attendance.HaversineMeters(0, 0, 50, 50)
	assert.InEpsilon(t, 7274000.0, d, 0.01)
}

func TestHaversine_Symmetric(t *testing.T) {
	ab := attendance.HaversineMeters(12.9716, 77.5946, 13.0827, 80.2707)
	ba := attendance.HaversineMeters(13.0827, 80.2707, 12.9716, 77.5946)
	assert.InDelta(t, ab, ba, 0.0001)
}

// =============================================================================
// VALIDATOR TESTS
// =============================================================================

func TestVerify_AtOffice_AllowedNetwork_Accepted(t *testing.T) {
	// GIVEN: Office at the origin, radius 5000m, allowlist {"wifi"}
	// WHEN: Punching in at the office on an allowlisted network
	// THEN: Both checks pass, distance ~0

	office := originOffice(5000)

	result := attendance.Verify(office, attendance.Location{Latitude: 0, Longitude: 0}, "wifi")

	require.True(t, result.Accepted())
	assert.True(t, result.WithinGeofence)
	assert.True(t, result.NetworkAllowed)
	assert.InDelta(t, 0, result.DistanceMeters, 1)
}

func TestVerify_BSSIDMatch_CaseInsensitive(t *testing.T) {
	// GIVEN: Allowlist {"wifi"}
	// WHEN: The device reports "WIFI"
	// THEN: The network check passes

	office := originOffice(5000)

	result := attendance.Verify(office, attendance.Location{}, "WIFI")
	assert.True(t, result.NetworkAllowed)
}

func TestVerify_FarAway_GeofenceFails(t *testing.T) {
	// GIVEN: Office at the origin, radius 5000m
	// WHEN: Punching in from (50, 50)
	// THEN: Geofence fails with distance ~7,274 km; network verdict independent

	office := originOffice(5000)

	result := attendance.Verify(office, attendance.Location{Latitude: 50, Longitude: 50}, "wifi")

	assert.False(t, result.WithinGeofence)
	assert.True(t, result.NetworkAllowed)
	assert.False(t, result.Accepted())
	assert.InEpsilon(t, 7274000.0, result.DistanceMeters, 0.01)
}

func TestVerify_BoundaryDistance_Inside(t *testing.T) {
	// GIVEN: A radius set to the exact measured distance of the candidate
	// WHEN: Verifying that candidate
	// THEN: The boundary counts as inside

	candidate := attendance.Location{Latitude: 0.01, Longitude: 0}
	exact := attendance.HaversineMeters(0, 0, candidate.Latitude, candidate.Longitude)

	office := originOffice(exact)
	result := attendance.Verify(office, candidate, "wifi")

	assert.True(t, result.WithinGeofence)
}

func TestVerify_UnknownNetwork_Rejected(t *testing.T) {
	office := originOffice(5000)

	result := attendance.Verify(office, attendance.Location{}, "home-router")

	assert.True(t, result.WithinGeofence)
	assert.False(t, result.NetworkAllowed)
	assert.False(t, result.Accepted())
}

func TestNormalizeBSSIDs_LowerCasesInPlace(t *testing.T) {
	office := attendance.OfficeProfile{AllowedBSSIDs: []string{"AA:BB:CC", "Office-WiFi"}}
	office.NormalizeBSSIDs()
	assert.Equal(t, []string{"aa:bb:cc", "office-wifi"}, office.AllowedBSSIDs)
}
