// flight/flight_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flight

import (
	"testing"
	"time"

	"github.com/atcsim/atcs/aircraft"
	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/rand"
	"github.com/atcsim/atcs/runway"
	"github.com/stretchr/testify/require"
)

func newRand(seed int64) *rand.Rand {
	var r rand.Rand
	r.Seed(seed)
	return &r
}

func TestActivateSetsStatusAndTimes(t *testing.T) {
	r := newRand(1)
	ac := aircraft.New("PIA100", av.Commercial, av.North, "PIA", r)
	now := time.Now()
	f := New("PIA100", ac, now, false)

	require.Equal(t, Scheduled, f.GetStatus())
	require.NoError(t, f.Activate(now))
	require.Equal(t, Active, f.GetStatus())

	require.ErrorIs(t, f.Activate(now), ErrNotActivatable)
}

func TestActivateEmergencyGoesDirectlyToEmergencyStatus(t *testing.T) {
	r := newRand(2)
	ac := aircraft.New("PAF100", av.Emergency, av.North, "Pakistan Airforce", r)
	now := time.Now()
	f := New("PAF100", ac, now, true)

	require.NoError(t, f.Activate(now))
	require.Equal(t, Emergency, f.GetStatus())
}

// TestCargoOnRunwayC exercises spec.md §8 scenario 1: a Blue Dart cargo
// arrival assigns RWY-C, cannot simultaneously hold RWY-A, and releases
// RWY-C at the landing/taxi-in boundary (t=90s into the plan).
func TestCargoOnRunwayC(t *testing.T) {
	r := newRand(3)
	ac := aircraft.New("BD100", av.Cargo, av.North, "Blue Dart", r)
	now := time.Now()
	f := New("BD100", ac, now, false)
	require.NoError(t, f.Activate(now))

	rwyC := runway.New(av.RunwayC)
	rwyA := runway.New(av.RunwayA)

	require.NoError(t, f.AssignRunway(rwyC, now))
	rid, ok := f.AssignedRunwayID()
	require.True(t, ok)
	require.Equal(t, av.RunwayC, rid)

	require.ErrorIs(t, f.AssignRunway(rwyA, now), ErrAlreadyHasRunway)

	// Update executes at most one due plan step per call, so drive it
	// repeatedly past the landing->taxi-in release step (offset 90s).
	afterRelease := now.Add(91 * time.Second)
	for i := 0; i < 3; i++ {
		f.Update(0.1, afterRelease, r)
	}

	require.Equal(t, runway.Available, rwyC.Status())
	_, held := f.AssignedRunwayID()
	require.False(t, held)
}

// TestGroundFaultCancelsFlight exercises spec.md §8 scenario 5: a ground
// fault injected on an aircraft holding a runway cancels the flight
// within one update cycle and releases the runway.
func TestGroundFaultCancelsFlight(t *testing.T) {
	r := newRand(4)
	ac := aircraft.New("PIA200", av.Commercial, av.North, "PIA", r)
	now := time.Now()
	f := New("PIA200", ac, now, false)
	require.NoError(t, f.Activate(now))

	rwy := runway.New(av.RunwayA)
	require.NoError(t, f.AssignRunway(rwy, now))

	ac.Lock()
	ac.Phase = av.TaxiIn
	ac.GroundFault = true
	ac.Unlock()

	f.Update(0.01, now.Add(time.Millisecond), r)

	require.Equal(t, Canceled, f.GetStatus())
	require.Equal(t, "ground fault", f.Reason)
	require.Equal(t, runway.Available, rwy.Status())
}

func TestCompleteIsNoOpOnTerminalFlight(t *testing.T) {
	r := newRand(5)
	ac := aircraft.New("PIA300", av.Commercial, av.North, "PIA", r)
	now := time.Now()
	f := New("PIA300", ac, now, false)
	require.NoError(t, f.Activate(now))
	require.NoError(t, f.Complete(now))
	require.Equal(t, Completed, f.GetStatus())

	err := f.Complete(now)
	require.Error(t, err)
	require.Equal(t, Completed, f.GetStatus())
}

func TestSetEmergencyRegeneratesPlanWithExpeditedOffsets(t *testing.T) {
	r := newRand(6)
	ac := aircraft.New("PIA400", av.Commercial, av.North, "PIA", r)
	now := time.Now()
	f := New("PIA400", ac, now, false)
	require.NoError(t, f.Activate(now))

	require.NoError(t, f.SetEmergency(true))
	require.Equal(t, Emergency, f.GetStatus())
	require.True(t, f.IsEmergencyFlag)

	require.NoError(t, f.SetEmergency(false))
	require.Equal(t, Active, f.GetStatus())
	require.False(t, f.IsEmergencyFlag)
}

func TestArrivalPlanOffsets(t *testing.T) {
	plan := NewArrivalPlan(false)
	require.Len(t, plan, 5)
	require.Equal(t, []float64{30, 60, 90, 120, 150}, offsetsOf(plan))

	emergencyPlan := NewArrivalPlan(true)
	require.Equal(t, []float64{15, 30, 45, 60, 75}, offsetsOf(emergencyPlan))
}

func TestDeparturePlanOffsets(t *testing.T) {
	plan := NewDeparturePlan(false)
	require.Equal(t, []float64{30, 60, 75, 90, 120}, offsetsOf(plan))

	emergencyPlan := NewDeparturePlan(true)
	require.Equal(t, []float64{15, 30, 37.5, 45, 60}, offsetsOf(emergencyPlan))
}

func offsetsOf(p Plan) []float64 {
	out := make([]float64, len(p))
	for i, s := range p {
		out[i] = s.Offset
	}
	return out
}
