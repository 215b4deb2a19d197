package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-hr/presence-engine/attendance"
	"github.com/atlas-hr/presence-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestPunchService(t *testing.T) (*attendance.PunchService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := attendance.NewPunchService(store, store, "Main Office", nil)
	return svc, store
}

func configureOffice(t *testing.T, store *memory.Store) {
	err := store.SaveOfficeProfile(context.Background(), originOffice(5000))
	require.NoError(t, err)
}

func atOffice() *attendance.Location {
	return &attendance.Location{Latitude: 0, Longitude: 0}
}

// =============================================================================
// PUNCH-IN TESTS
// =============================================================================

func TestPunchIn_Valid_CreatesOpenRecord(t *testing.T) {
	// GIVEN: A configured office and an employee with no open punch
	// WHEN: Punching in at the office on an allowlisted network
	// THEN: An open PUNCHED_IN record is created

	svc, store := newTestPunchService(t)
	configureOffice(t, store)
	ctx := context.Background()

	rec, err := svc.PunchIn(ctx, "EMP001", atOffice(), "wifi")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "EMP001", rec.EmployeeID)
	assert.Equal(t, attendance.StatusPunchedIn, rec.Status)
	assert.True(t, rec.Open())
	assert.InDelta(t, 0, rec.DistanceFromOffice, 1)

	open, err := store.FindOpenPunch(ctx, "EMP001")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, rec.ID, open.ID)
}

func TestPunchIn_MissingFields_InvalidRequest(t *testing.T) {
	svc, store := newTestPunchService(t)
	configureOffice(t, store)
	ctx := context.Background()

	_, err := svc.PunchIn(ctx, "", atOffice(), "wifi")
	assert.ErrorIs(t, err, attendance.ErrInvalidRequest)

	_, err = svc.PunchIn(ctx, "EMP001", nil, "wifi")
	assert.ErrorIs(t, err, attendance.ErrInvalidRequest)

	_, err = svc.PunchIn(ctx, "EMP001", atOffice(), "")
	assert.ErrorIs(t, err, attendance.ErrInvalidRequest)
}

func TestPunchIn_NoOfficeProfile_Fails(t *testing.T) {
	// GIVEN: No office profile has been configured
	// WHEN: Punching in with otherwise valid input
	// THEN: ErrOfficeNotConfigured

	svc, _ := newTestPunchService(t)

	_, err := svc.PunchIn(context.Background(), "EMP001", atOffice(), "wifi")
	assert.ErrorIs(t, err, attendance.ErrOfficeNotConfigured)
}

func TestPunchIn_OutsideGeofence_RejectedWithDistance(t *testing.T) {
	// GIVEN: Office at the origin, radius 5000m
	// WHEN: Punching in from (50, 50)
	// THEN: GeofenceError carrying the measured distance and allowed radius

	svc, store := newTestPunchService(t)
	configureOffice(t, store)

	far := &attendance.Location{Latitude: 50, Longitude: 50}
	_, err := svc.PunchIn(context.Background(), "EMP001", far, "wifi")

	var gf *attendance.GeofenceError
	require.ErrorAs(t, err, &gf)
	assert.InEpsilon(t, 7274000.0, gf.DistanceMeters, 0.01)
	assert.Equal(t, 5000.0, gf.AllowedRadiusMeters)
	assert.True(t, attendance.IsRejection(err))
}

func TestPunchIn_WrongNetwork_RejectedWithBSSID(t *testing.T) {
	svc, store := newTestPunchService(t)
	configureOffice(t, store)

	_, err := svc.PunchIn(context.Background(), "EMP001", atOffice(), "home-router")

	var wf *attendance.WifiError
	require.ErrorAs(t, err, &wf)
	assert.Equal(t, "home-router", wf.BSSID)
	assert.True(t, attendance.IsRejection(err))
}

func TestPunchIn_AlreadyPunchedIn_ConflictBeforeVerification(t *testing.T) {
	// GIVEN: An employee with an open punch
	// WHEN: Punching in again from far outside the geofence on a bad network
	// THEN: The conflict wins; the response is ALREADY_PUNCHED_IN, not a
	//       geofence or network rejection

	svc, store := newTestPunchService(t)
	configureOffice(t, store)
	ctx := context.Background()

	_, err := svc.PunchIn(ctx, "EMP001", atOffice(), "wifi")
	require.NoError(t, err)

	far := &attendance.Location{Latitude: 50, Longitude: 50}
	_, err = svc.PunchIn(ctx, "EMP001", far, "home-router")

	assert.ErrorIs(t, err, attendance.ErrAlreadyPunchedIn)
	assert.True(t, attendance.IsConflict(err))
	assert.False(t, attendance.IsRejection(err))
}

func TestPunchIn_RacingInsert_TranslatedToConflict(t *testing.T) {
	// GIVEN: A store whose guarded insert reports an existing open punch
	// WHEN: Punch-in passes the lookup but loses the insert race
	// THEN: The store signal is translated to ErrAlreadyPunchedIn

	store := memory.New()
	svc := attendance.NewPunchService(racingPunchStore{store}, store, "Main Office", nil)
	configureOffice(t, store)

	_, err := svc.PunchIn(context.Background(), "EMP001", atOffice(), "wifi")
	assert.ErrorIs(t, err, attendance.ErrAlreadyPunchedIn)
}

// racingPunchStore simulates losing the insert race: the lookup sees no open
// punch, the insert hits the uniqueness guard.
type racingPunchStore struct {
	*memory.Store
}

func (r racingPunchStore) FindOpenPunch(context.Context, string) (*attendance.PunchRecord, error) {
	return nil, nil
}

func (r racingPunchStore) InsertPunch(context.Context, attendance.PunchRecord) error {
	return attendance.ErrOpenPunchExists
}

// =============================================================================
// PUNCH-OUT TESTS
// =============================================================================

func TestPunchOut_ClosesOpenRecord(t *testing.T) {
	// GIVEN: An employee who punched in
	// WHEN: Punching out
	// THEN: The record is closed with both timestamps and PUNCHED_OUT status,
	//       and a second punch-out conflicts

	svc, store := newTestPunchService(t)
	configureOffice(t, store)
	ctx := context.Background()

	in, err := svc.PunchIn(ctx, "EMP001", atOffice(), "wifi")
	require.NoError(t, err)

	out, err := svc.PunchOut(ctx, "EMP001")
	require.NoError(t, err)

	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, attendance.StatusPunchedOut, out.Status)
	require.NotNil(t, out.PunchOutTime)
	assert.False(t, out.PunchOutTime.Before(out.PunchInTime))

	_, err = svc.PunchOut(ctx, "EMP001")
	assert.ErrorIs(t, err, attendance.ErrNoOpenPunch)
}

func TestPunchOut_NoOpenPunch_Conflict(t *testing.T) {
	svc, store := newTestPunchService(t)
	configureOffice(t, store)

	_, err := svc.PunchOut(context.Background(), "EMP001")
	assert.ErrorIs(t, err, attendance.ErrNoOpenPunch)
	assert.True(t, attendance.IsConflict(err))
}

func TestPunchOut_MissingEmployeeID_InvalidRequest(t *testing.T) {
	svc, _ := newTestPunchService(t)

	_, err := svc.PunchOut(context.Background(), "")
	assert.ErrorIs(t, err, attendance.ErrInvalidRequest)
}

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestRoundTrip_SingleClosedRecord_StateBackToOut(t *testing.T) {
	// GIVEN: A full punch-in / punch-out cycle with a controlled clock
	// WHEN: Inspecting stored records
	// THEN: Exactly one closed record with the expected 8h duration, and the
	//       employee can punch in again

	svc, store := newTestPunchService(t)
	configureOffice(t, store)
	ctx := context.Background()

	clock := time.Date(2025, time.July, 14, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return clock }

	_, err := svc.PunchIn(ctx, "EMP001", atOffice(), "wifi")
	require.NoError(t, err)

	clock = clock.Add(8 * time.Hour)
	out, err := svc.PunchOut(ctx, "EMP001")
	require.NoError(t, err)
	assert.Equal(t, 8.0, out.Duration().Hours())

	records, err := store.ListPunchesByEmployee(ctx, "EMP001")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Open())

	open, err := store.FindOpenPunch(ctx, "EMP001")
	require.NoError(t, err)
	assert.Nil(t, open)

	// Next day: state machine is back in OUT, punch-in succeeds again.
	clock = clock.Add(16 * time.Hour)
	_, err = svc.PunchIn(ctx, "EMP001", atOffice(), "wifi")
	require.NoError(t, err)
}

func TestMemoryStore_OpenPunchGuard(t *testing.T) {
	// The guarded insert itself, bypassing the service's lookup.
	store := memory.New()
	ctx := context.Background()

	err := store.InsertPunch(ctx, attendance.PunchRecord{ID: "p1", EmployeeID: "EMP001", Status: attendance.StatusPunchedIn})
	require.NoError(t, err)

	err = store.InsertPunch(ctx, attendance.PunchRecord{ID: "p2", EmployeeID: "EMP001", Status: attendance.StatusPunchedIn})
	assert.True(t, errors.Is(err, attendance.ErrOpenPunchExists))

	// A different employee is unaffected.
	err = store.InsertPunch(ctx, attendance.PunchRecord{ID: "p3", EmployeeID: "EMP002", Status: attendance.StatusPunchedIn})
	assert.NoError(t, err)
}
