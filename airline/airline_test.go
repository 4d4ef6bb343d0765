// airline/airline_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airline

import (
	"testing"
	"time"

	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/rand"
	"github.com/stretchr/testify/require"
)

func newRand(seed int64) *rand.Rand {
	var r rand.Rand
	r.Seed(seed)
	return &r
}

func TestFleetCapEnforced(t *testing.T) {
	r := newRand(1)
	a := New(av.AirlineSpec{Name: "FedEx", PrimaryKind: av.Cargo, FleetCapacity: 2})

	ac1 := a.CreateAircraft(av.North, false, r)
	require.NotNil(t, ac1)
	ac2 := a.CreateAircraft(av.North, false, r)
	require.NotNil(t, ac2)

	require.Nil(t, a.CreateAircraft(av.North, false, r))
	require.Len(t, a.AllAircraft(), 2)
}

func TestDetermineKindForceEmergencyWins(t *testing.T) {
	r := newRand(2)
	a := New(av.AirlineSpec{Name: "PIA", PrimaryKind: av.Commercial, FleetCapacity: 6})
	require.Equal(t, av.Emergency, a.determineKind(true, r))
}

func TestDetermineKindCargoAndEmergencyPrimaryAlwaysWin(t *testing.T) {
	r := newRand(3)
	cargo := New(av.AirlineSpec{Name: "Blue Dart", PrimaryKind: av.Cargo, FleetCapacity: 2})
	for i := 0; i < 20; i++ {
		require.Equal(t, av.Cargo, cargo.determineKind(false, r))
	}

	emergency := New(av.AirlineSpec{Name: "Pakistan Airforce", PrimaryKind: av.Emergency, FleetCapacity: 2})
	for i := 0; i < 20; i++ {
		require.Equal(t, av.Emergency, emergency.determineKind(false, r))
	}
}

func TestDetermineKindCommercialHasCargoOverride(t *testing.T) {
	r := newRand(4)
	a := New(av.AirlineSpec{Name: "PIA", PrimaryKind: av.Commercial, FleetCapacity: 6})

	sawCargo := false
	sawCommercial := false
	for i := 0; i < 2000 && !(sawCargo && sawCommercial); i++ {
		switch a.determineKind(false, r) {
		case av.Cargo:
			sawCargo = true
		case av.Commercial:
			sawCommercial = true
		}
	}
	require.True(t, sawCargo, "expected at least one 5%% Cargo override across 2000 trials")
	require.True(t, sawCommercial)
}

func TestScheduleIfNeededGatesOnIntervalAndCapacity(t *testing.T) {
	r := newRand(5)
	a := New(av.AirlineSpec{Name: "AirBlue", PrimaryKind: av.Commercial, FleetCapacity: 1})

	now := time.Now()
	require.True(t, a.ScheduleIfNeeded(now, av.North))
	ac := a.CreateAircraft(av.North, false, r)
	require.NotNil(t, ac)

	// Too soon: interval has not elapsed.
	require.False(t, a.ScheduleIfNeeded(now.Add(time.Millisecond), av.North))

	// Interval elapsed, but fleet is already full.
	interval := av.FlightGenerationInterval[av.North]
	later := now.Add(time.Duration(interval*float64(time.Second)) + time.Second)
	require.False(t, a.ScheduleIfNeeded(later, av.North))
}

func TestGenerateFlightIDFormat(t *testing.T) {
	r := newRand(6)
	id := generateFlightID("Pakistan Airforce", r)
	require.Regexp(t, `^PA\d{1,5}$`, id)
}

func TestAirlineCodeFallsBackToXX(t *testing.T) {
	require.Equal(t, "XX", airlineCode(""))
}

func TestRemoveAircraftAndViolationCount(t *testing.T) {
	r := newRand(7)
	a := New(av.AirlineSpec{Name: "PIA", PrimaryKind: av.Commercial, FleetCapacity: 3})
	ac := a.CreateAircraft(av.North, false, r)
	require.Len(t, a.AllAircraft(), 1)

	a.RemoveAircraft(ac.ID)
	require.Empty(t, a.AllAircraft())

	require.Equal(t, 0, a.ViolationCount())
	a.RecordViolation()
	a.RecordViolation()
	require.Equal(t, 2, a.ViolationCount())
}
