// speedmonitor/speedmonitor_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package speedmonitor

import (
	"testing"
	"time"

	"github.com/atcsim/atcs/aircraft"
	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/rand"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	pushed []ViolationRecord
}

func (f *fakeSink) PushAVN(rec ViolationRecord) { f.pushed = append(f.pushed, rec) }

func newRand(seed int64) *rand.Rand {
	var r rand.Rand
	r.Seed(seed)
	return &r
}

func monitorLocked(sm *SpeedMonitor, ac *aircraft.Aircraft, flightID, airline string, now time.Time) *ViolationRecord {
	ac.Lock()
	defer ac.Unlock()
	return sm.Monitor(ac, flightID, airline, now)
}

// TestOverspeedFiresExactlyOneAVNPerPhase exercises spec.md §8 scenario
// 3: a 650 km/h reading in Holding (bound well below that) raises exactly
// one AVN, and a repeated overspeed reading in the same phase does not
// raise a second one.
func TestOverspeedFiresExactlyOneAVNPerPhase(t *testing.T) {
	sink := &fakeSink{}
	sm := New(sink)
	r := newRand(1)
	ac := aircraft.New("PIA100", av.Commercial, av.North, "PIA", r)
	require.Equal(t, av.Holding, ac.Phase)

	ac.SetSpeed(650)
	now := time.Now()
	rec := monitorLocked(sm, ac, "PIA100", "PIA", now)
	require.NotNil(t, rec)
	require.Equal(t, av.Holding, rec.Phase)
	require.Len(t, sink.pushed, 1)

	// A second overspeed reading in the same phase must not duplicate.
	ac.SetSpeed(700)
	rec2 := monitorLocked(sm, ac, "PIA100", "PIA", now)
	require.Nil(t, rec2)
	require.Len(t, sink.pushed, 1)

	// After a phase transition, a fresh violation can fire again.
	ResetPhaseSuppression(ac, ac.Phase)
	ac.Phase = av.Approach
	ac.SetSpeed(900)
	rec3 := monitorLocked(sm, ac, "PIA100", "PIA", now)
	require.NotNil(t, rec3)
	require.Len(t, sink.pushed, 2)
}

func TestViolationRecordFineAndDueDateInvariants(t *testing.T) {
	sink := &fakeSink{}
	sm := New(sink)

	r := newRand(2)
	commercial := aircraft.New("PIA200", av.Commercial, av.North, "PIA", r)
	commercial.SetSpeed(900)
	now := time.Now()
	rec := monitorLocked(sm, commercial, "PIA200", "PIA", now)
	require.NotNil(t, rec)
	require.Equal(t, 500000.0, rec.Fine)
	require.InDelta(t, 575000.0, rec.Total, 0.01)
	require.Equal(t, now.Add(3*24*time.Hour), rec.Due)
	require.Equal(t, av.Unpaid, rec.Status)

	cargo := aircraft.New("FX100", av.Cargo, av.North, "FedEx", r)
	cargo.SetSpeed(900)
	recCargo := monitorLocked(sm, cargo, "FX100", "FedEx", now)
	require.NotNil(t, recCargo)
	require.Equal(t, 700000.0, recCargo.Fine)
	require.InDelta(t, 805000.0, recCargo.Total, 0.01)
}

func TestUnderspeedAlsoTriggersViolation(t *testing.T) {
	sm := New(nil)
	r := newRand(3)
	ac := aircraft.New("AB100", av.Commercial, av.North, "AirBlue", r)
	ac.SetSpeed(0)
	now := time.Now()
	rec := monitorLocked(sm, ac, "AB100", "AirBlue", now)
	require.NotNil(t, rec)
	require.Contains(t, rec.Description(), "underspeed")
}

func TestWithinBoundsDoesNotTriggerViolation(t *testing.T) {
	sm := New(nil)
	r := newRand(4)
	ac := aircraft.New("AB101", av.Commercial, av.North, "AirBlue", r)
	bound := av.SpeedBounds[ac.Phase]
	ac.SetSpeed((bound.Min + bound.Max) / 2)
	rec := monitorLocked(sm, ac, "AB101", "AirBlue", time.Now())
	require.Nil(t, rec)
}

func TestSweepOverdueAndConfirmPayment(t *testing.T) {
	sm := New(nil)
	r := newRand(5)
	ac := aircraft.New("PIA300", av.Commercial, av.North, "PIA", r)
	ac.SetSpeed(900)
	now := time.Now()
	rec := monitorLocked(sm, ac, "PIA300", "PIA", now)
	require.NotNil(t, rec)

	future := now.Add(4 * 24 * time.Hour)
	unpaid := sm.UnpaidViolations(future)
	require.Len(t, unpaid, 1)
	require.Equal(t, av.Overdue, unpaid[0].Status)

	require.True(t, sm.ConfirmPayment(rec.ID, future))
	require.Empty(t, sm.UnpaidViolations(future))
	require.False(t, sm.ConfirmPayment(999999, future))
}

func TestByAirlineAndViolationsByPhase(t *testing.T) {
	sm := New(nil)
	r := newRand(6)
	ac := aircraft.New("PIA400", av.Commercial, av.North, "PIA", r)
	ac.SetSpeed(900)
	now := time.Now()
	require.NotNil(t, monitorLocked(sm, ac, "PIA400", "PIA", now))

	require.Len(t, sm.ByAirline("PIA", now), 1)
	require.Empty(t, sm.ByAirline("FedEx", now))

	byPhase := sm.ViolationsByPhase()
	require.Equal(t, 1, byPhase[av.Holding])
}

func TestCalculateFinesEscalatesOnSevereDeviation(t *testing.T) {
	sm := New(nil)
	r := newRand(7)
	mild := aircraft.New("PIA500", av.Commercial, av.North, "PIA", r)
	bound := av.SpeedBounds[mild.Phase]
	mild.SetSpeed(bound.Max + 10)
	require.NotNil(t, monitorLocked(sm, mild, "PIA500", "PIA", time.Now()))

	severe := aircraft.New("PIA501", av.Commercial, av.North, "PIA", r)
	severe.SetSpeed(bound.Max + 200)
	require.NotNil(t, monitorLocked(sm, severe, "PIA501", "PIA", time.Now()))

	require.InDelta(t, analyticsBaseFine+analyticsSevereFine, sm.CalculateFines("PIA"), 0.01)
}
