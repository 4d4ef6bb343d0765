// aircraft/aircraft_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aircraft

import (
	"testing"

	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/rand"
	"github.com/stretchr/testify/require"
)

func newRand(seed int64) *rand.Rand {
	var r rand.Rand
	r.Seed(seed)
	return &r
}

func TestNewInitialPhaseAndSpeed(t *testing.T) {
	r := newRand(1)
	a := New("PIA100", av.Commercial, av.North, "PIA", r)
	require.Equal(t, av.Holding, a.Phase)
	bound := av.SpeedBounds[av.Holding]
	require.GreaterOrEqual(t, a.Speed, bound.Min)
	require.LessOrEqual(t, a.Speed, bound.Max)

	dep := New("PIA101", av.Commercial, av.East, "PIA", r)
	require.Equal(t, av.AtGateDeparture, dep.Phase)
}

func TestAdvancePhaseSamplesWithinNewBound(t *testing.T) {
	r := newRand(2)
	a := New("PIA200", av.Commercial, av.North, "PIA", r)

	for _, want := range []av.Phase{av.Approach, av.Landing, av.TaxiIn, av.AtGateArrival} {
		err := a.AdvancePhase(r)
		require.NoError(t, err)
		require.Equal(t, want, a.Phase)
		bound := av.SpeedBounds[want]
		require.GreaterOrEqual(t, a.Speed, bound.Min)
		require.LessOrEqual(t, a.Speed, bound.Max)
	}

	require.ErrorIs(t, a.AdvancePhase(r), ErrNoSuccessorPhase)
}

func TestSetSpeedClampsNegative(t *testing.T) {
	r := newRand(3)
	a := New("FX100", av.Cargo, av.North, "FedEx", r)
	a.SetSpeed(-5)
	require.Equal(t, 0.0, a.Speed)
	a.SetSpeed(123.4)
	require.Equal(t, 123.4, a.Speed)
}

func TestIssueAVNAppendsToLog(t *testing.T) {
	r := newRand(4)
	a := New("FX101", av.Cargo, av.North, "FedEx", r)
	require.Empty(t, a.AVNs)
	a.IssueAVN("overspeed in Holding")
	require.Len(t, a.AVNs, 1)
	require.Equal(t, "overspeed in Holding", a.AVNs[0].Reason)
	require.Equal(t, av.Holding, a.AVNs[0].Phase)
}

func TestSimulateGroundFaultOnlyInEligiblePhases(t *testing.T) {
	r := newRand(5)
	a := New("BD100", av.Cargo, av.North, "Blue Dart", r)
	// Holding is not ground-fault eligible.
	require.False(t, a.SimulateGroundFault(r))
	require.False(t, a.GroundFault)

	a.Phase = av.TaxiIn
	// With enough samples at 5% probability, at least one should fire.
	fired := false
	for i := 0; i < 500 && !fired; i++ {
		a.GroundFault = false
		fired = a.SimulateGroundFault(r)
	}
	require.True(t, fired, "expected ground fault to fire at least once across 500 trials at 5%%")
}

func TestUpdatePerturbsSpeedWithinReason(t *testing.T) {
	r := newRand(6)
	a := New("AB100", av.Commercial, av.North, "AirBlue", r)
	start := a.Speed
	a.Update(1.0, r)
	// a single Gaussian-ish perturbation of sd=2km/h should not blow up
	// wildly; this is a sanity bound, not a statistical test.
	require.InDelta(t, start, a.Speed, 30)
}

func TestUpdateNeverSetsNegativeSpeed(t *testing.T) {
	r := newRand(7)
	a := New("AB101", av.Commercial, av.North, "AirBlue", r)
	a.SetSpeed(0)
	for i := 0; i < 100; i++ {
		a.Update(1.0, r)
		require.GreaterOrEqual(t, a.Speed, 0.0)
	}
}
