// aviation/aviation_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhaseChains(t *testing.T) {
	arrival := []Phase{Holding, Approach, Landing, TaxiIn, AtGateArrival}
	for i := 0; i < len(arrival)-1; i++ {
		next, ok := arrival[i].Next()
		require.True(t, ok)
		require.Equal(t, arrival[i+1], next)
	}
	_, ok := AtGateArrival.Next()
	require.False(t, ok)
	require.True(t, AtGateArrival.IsTerminal())

	departure := []Phase{AtGateDeparture, TaxiOut, TakeoffRoll, Climb, Cruise}
	for i := 0; i < len(departure)-1; i++ {
		next, ok := departure[i].Next()
		require.True(t, ok)
		require.Equal(t, departure[i+1], next)
	}
	_, ok = Cruise.Next()
	require.False(t, ok)
	require.True(t, Cruise.IsTerminal())
}

func TestInitialPhase(t *testing.T) {
	require.Equal(t, Holding, InitialPhase(North))
	require.Equal(t, Holding, InitialPhase(South))
	require.Equal(t, AtGateDeparture, InitialPhase(East))
	require.Equal(t, AtGateDeparture, InitialPhase(West))
}

func TestSpeedBoundsCoverAllPhases(t *testing.T) {
	for _, p := range []Phase{Holding, Approach, Landing, TaxiIn, AtGateArrival,
		AtGateDeparture, TaxiOut, TakeoffRoll, Climb, Cruise} {
		b, ok := SpeedBounds[p]
		require.True(t, ok, "missing speed bound for %s", p)
		require.LessOrEqual(t, b.Min, b.Max)
	}
}

func TestAirlineRosterIsBitExact(t *testing.T) {
	want := []AirlineSpec{
		{Name: "PIA", PrimaryKind: Commercial, FleetCapacity: 6, ActiveFlights: 4},
		{Name: "AirBlue", PrimaryKind: Commercial, FleetCapacity: 4, ActiveFlights: 4},
		{Name: "FedEx", PrimaryKind: Cargo, FleetCapacity: 3, ActiveFlights: 2},
		{Name: "Pakistan Airforce", PrimaryKind: Emergency, FleetCapacity: 2, ActiveFlights: 1},
		{Name: "Blue Dart", PrimaryKind: Cargo, FleetCapacity: 2, ActiveFlights: 2},
		{Name: "AghaKhan Air", PrimaryKind: Emergency, FleetCapacity: 2, ActiveFlights: 1},
	}
	require.Equal(t, want, AirlineRoster)
}

func TestPriorityClass(t *testing.T) {
	require.Greater(t, PriorityClass(Emergency), PriorityClass(Cargo))
	require.Greater(t, PriorityClass(Cargo), PriorityClass(Commercial))
}

func TestDirectionIsArrival(t *testing.T) {
	require.True(t, North.IsArrival())
	require.True(t, South.IsArrival())
	require.False(t, East.IsArrival())
	require.False(t, West.IsArrival())
}
