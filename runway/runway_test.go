// runway/runway_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package runway

import (
	"testing"
	"time"

	av "github.com/atcsim/atcs/aviation"
	"github.com/stretchr/testify/require"
)

func TestEligibilityRules(t *testing.T) {
	require.True(t, IsValidForDirection(av.RunwayA, av.North))
	require.True(t, IsValidForDirection(av.RunwayA, av.South))
	require.False(t, IsValidForDirection(av.RunwayA, av.East))
	require.False(t, IsValidForDirection(av.RunwayA, av.West))

	require.True(t, IsValidForDirection(av.RunwayB, av.East))
	require.True(t, IsValidForDirection(av.RunwayB, av.West))
	require.False(t, IsValidForDirection(av.RunwayB, av.North))

	require.True(t, IsValidForDirection(av.RunwayC, av.North))
	require.True(t, IsValidForDirection(av.RunwayC, av.East))

	require.True(t, IsValidForKind(av.RunwayA, av.Commercial))
	require.True(t, IsValidForKind(av.RunwayB, av.Commercial))
	require.False(t, IsValidForKind(av.RunwayC, av.Commercial))
	require.True(t, IsValidForKind(av.RunwayC, av.Cargo))
	require.True(t, IsValidForKind(av.RunwayC, av.Emergency))
}

func TestAssignRejectsIneligibleDirection(t *testing.T) {
	r := New(av.RunwayA)
	err := r.Assign("UA100", av.Commercial, av.East, time.Now())
	require.ErrorIs(t, err, ErrIneligibleDirection)
	require.Equal(t, Available, r.Status())
}

func TestAssignRejectsIneligibleKind(t *testing.T) {
	r := New(av.RunwayC)
	err := r.Assign("UA100", av.Commercial, av.North, time.Now())
	require.ErrorIs(t, err, ErrIneligibleKind)
}

func TestAssignReleaseRoundTrip(t *testing.T) {
	r := New(av.RunwayC)
	now := time.Now()

	require.NoError(t, r.Assign("FX100", av.Cargo, av.North, now))
	require.Equal(t, InUse, r.Status())
	require.Equal(t, "FX100", r.AssignedAircraftID())
	require.Equal(t, 1, r.UsageCount())

	// A second assign (even by a different aircraft) fails while in use.
	err := r.Assign("UA200", av.Commercial, av.East, now)
	require.ErrorIs(t, err, ErrRunwayNotAvailable)

	later := now.Add(90 * time.Second)
	require.NoError(t, r.Release("FX100", later))
	require.Equal(t, Available, r.Status())
	require.Equal(t, "", r.AssignedAircraftID())
	require.Equal(t, 1, r.UsageCount())
	require.GreaterOrEqual(t, r.TotalUsageTime(), 90*time.Second)
}

func TestReleaseRejectsWrongOccupant(t *testing.T) {
	r := New(av.RunwayA)
	now := time.Now()
	require.NoError(t, r.Assign("PIA100", av.Commercial, av.North, now))

	err := r.Release("PIA101", now)
	require.ErrorIs(t, err, ErrNotOccupant)
	require.Equal(t, InUse, r.Status())
}

func TestReleaseRejectsWhenNotInUse(t *testing.T) {
	r := New(av.RunwayA)
	err := r.Release("PIA100", time.Now())
	require.ErrorIs(t, err, ErrNotInUse)
}

func TestSetStatusForceClosesInUseRunway(t *testing.T) {
	r := New(av.RunwayA)
	now := time.Now()
	require.NoError(t, r.Assign("PIA100", av.Commercial, av.North, now))

	later := now.Add(30 * time.Second)
	r.SetStatus(Maintenance, later)
	require.Equal(t, Maintenance, r.Status())
	require.Equal(t, "", r.AssignedAircraftID())
	require.GreaterOrEqual(t, r.TotalUsageTime(), 30*time.Second)
}

func TestRunwayCExclusivity(t *testing.T) {
	for _, k := range []av.AircraftKind{av.Commercial} {
		r := New(av.RunwayC)
		err := r.Assign("X1", k, av.North, time.Now())
		require.Error(t, err)
	}
	for _, k := range []av.AircraftKind{av.Cargo, av.Emergency} {
		r := New(av.RunwayC)
		err := r.Assign("X1", k, av.North, time.Now())
		require.NoError(t, err)
	}
}
