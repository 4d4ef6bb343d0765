// aircraft/aircraft.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package aircraft models a single aircraft: its identity, current
// phase and speed, ground-fault state, and the AVNs issued against it.
package aircraft

import (
	"errors"
	"fmt"

	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/rand"
	"github.com/atcsim/atcs/util"
)

var (
	// ErrNoSuccessorPhase is returned by AdvancePhase when the current
	// phase is terminal.
	ErrNoSuccessorPhase = errors.New("aircraft: current phase has no successor")
)

// groundFaultEligible is the set of phases in which a ground fault may
// be simulated or spontaneously occur.
var groundFaultEligible = map[av.Phase]bool{
	av.TaxiIn:          true,
	av.AtGateArrival:   true,
	av.AtGateDeparture: true,
	av.TaxiOut:         true,
}

// AVN is a brief, human-readable record of an airspace violation notice
// issued against this aircraft, as stored on the aircraft itself. The
// authoritative ViolationRecord (fine amount, due date, payment status)
// lives in the speedmonitor package; this is the aircraft's own log of
// what it was cited for.
type AVN struct {
	Reason string
	Phase  av.Phase
}

// Aircraft is a single simulated airframe. Callers must hold the
// aircraft's lock (via Lock/Unlock) before calling any of its methods,
// per the simulation's per-entity lock discipline: Controller-global <
// Runway < Flight < Aircraft < SpeedMonitor.
type Aircraft struct {
	mu util.LoggingMutex

	ID        string
	Kind      av.AircraftKind
	Direction av.Direction
	AirlineID string

	Phase av.Phase
	Speed float64

	RunwayAssigned  bool
	AssignedRunway  av.RunwayId
	GroundFault     bool
	VisitedPhases   map[av.Phase]bool // for AVN de-duplication, owned by speedmonitor
	AVNs            []AVN
}

// New constructs an Aircraft in its initial phase for direction d, with
// a speed sampled uniformly from that phase's bound.
func New(id string, kind av.AircraftKind, direction av.Direction, airlineID string, r *rand.Rand) *Aircraft {
	phase := av.InitialPhase(direction)
	bound := av.SpeedBounds[phase]
	a := &Aircraft{
		ID:            id,
		Kind:          kind,
		Direction:     direction,
		AirlineID:     airlineID,
		Phase:         phase,
		Speed:         bound.Min + r.Float64()*(bound.Max-bound.Min),
		VisitedPhases: make(map[av.Phase]bool),
	}
	a.mu.SetLogger(nil, "aircraft:"+id)
	a.mu.SetLevel(util.LockAircraft)
	return a
}

// Lock/Unlock expose the per-aircraft lock to callers orchestrating a
// multi-entity operation (e.g. Flight) that must take locks in the
// documented order.
func (a *Aircraft) Lock()   { a.mu.Lock() }
func (a *Aircraft) Unlock() { a.mu.Unlock() }

// AdvancePhase transitions the aircraft to its statically-defined next
// phase, sampling a new speed uniformly from the new phase's bound. It
// fails if the current phase is terminal.
func (a *Aircraft) AdvancePhase(r *rand.Rand) error {
	next, ok := a.Phase.Next()
	if !ok {
		return ErrNoSuccessorPhase
	}
	a.Phase = next
	bound := av.SpeedBounds[next]
	a.Speed = bound.Min + r.Float64()*(bound.Max-bound.Min)
	return nil
}

// SetSpeed sets the aircraft's speed directly, without validating it
// against the current phase's bound; a negative value is clamped to 0.
// Used to inject violations (tests).
func (a *Aircraft) SetSpeed(v float64) {
	if v < 0 {
		v = 0
	}
	a.Speed = v
}

// IssueAVN appends a brief violation record to the aircraft's own log.
func (a *Aircraft) IssueAVN(reason string) {
	a.AVNs = append(a.AVNs, AVN{Reason: reason, Phase: a.Phase})
}

// SimulateGroundFault has a 5% chance of setting the ground-fault flag,
// but only while the aircraft is in a ground-eligible phase.
func (a *Aircraft) SimulateGroundFault(r *rand.Rand) bool {
	if !groundFaultEligible[a.Phase] {
		return false
	}
	if r.Float64() < 0.05 {
		a.GroundFault = true
		return true
	}
	return false
}

// Update advances the aircraft's speed by a small Gaussian perturbation
// (mean 0, standard deviation 2 km/h) and, while grounded and fault-free,
// spontaneously sets the ground-fault flag with probability 0.001*dt.
func (a *Aircraft) Update(dt float64, r *rand.Rand) {
	a.Speed += r.NormFloat64() * 2.0
	if a.Speed < 0 {
		a.Speed = 0
	}

	if groundFaultEligible[a.Phase] && !a.GroundFault {
		if r.Float64() < 0.001*dt {
			a.GroundFault = true
		}
	}
}

// HasGroundFault reports the aircraft's current fault state.
func (a *Aircraft) HasGroundFault() bool { return a.GroundFault }

// ClearGroundFault resets the fault flag, e.g. once a flight built on
// this aircraft has been canceled and the aircraft is retired.
func (a *Aircraft) ClearGroundFault() { a.GroundFault = false }

func (a *Aircraft) String() string {
	return fmt.Sprintf("Aircraft{%s kind=%s dir=%s phase=%s speed=%.1f}",
		a.ID, a.Kind, a.Direction, a.Phase, a.Speed)
}
