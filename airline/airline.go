// airline/airline.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package airline models one entry of the fixed airline roster: its
// fleet cap, per-direction scheduling cadence, and aircraft factory.
package airline

import (
	"strings"
	"time"

	"github.com/atcsim/atcs/aircraft"
	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/rand"
	"github.com/atcsim/atcs/util"
)

// Airline is one member of the fixed roster: a name, a primary aircraft
// kind, a fleet capacity, and the set of aircraft it currently has
// active.
type Airline struct {
	mu util.LoggingMutex

	Name          string
	PrimaryKind   av.AircraftKind
	FleetCapacity int

	fleet              map[string]*aircraft.Aircraft
	lastScheduleTime   map[av.Direction]time.Time
	violationCount     int
}

// New constructs an Airline from a roster spec.
func New(spec av.AirlineSpec) *Airline {
	a := &Airline{
		Name:             spec.Name,
		PrimaryKind:      spec.PrimaryKind,
		FleetCapacity:    spec.FleetCapacity,
		fleet:            make(map[string]*aircraft.Aircraft),
		lastScheduleTime: make(map[av.Direction]time.Time),
	}
	a.mu.SetLogger(nil, "airline:"+spec.Name)
	return a
}

// NewRoster builds an Airline for every entry of the fixed roster, in
// roster order.
func NewRoster() []*Airline {
	roster := make([]*Airline, 0, len(av.AirlineRoster))
	for _, spec := range av.AirlineRoster {
		roster = append(roster, New(spec))
	}
	return roster
}

func (a *Airline) Lock()   { a.mu.Lock() }
func (a *Airline) Unlock() { a.mu.Unlock() }

func (a *Airline) canScheduleLocked() bool {
	return len(a.fleet) < a.FleetCapacity
}

// airlineCode derives the uppercase-initials code used as a flight-id
// prefix (lowercase initials are uppercased), falling back to "XX" for a
// name with no words, i.e. empty or all whitespace (shouldn't happen with
// the fixed roster, but mirrors the source's defensive default).
func airlineCode(name string) string {
	var code strings.Builder
	for _, word := range strings.Fields(name) {
		code.WriteByte(strings.ToUpper(word)[0])
	}
	if code.Len() == 0 {
		return "XX"
	}
	return code.String()
}

// generateFlightID builds a flight id of the form <code><100-9999>,
// e.g. "BA1234".
func generateFlightID(name string, r *rand.Rand) string {
	n := 100 + r.Intn(9900)
	return airlineCode(name) + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// determineKind derives the aircraft kind to create for a newly
// scheduled flight: forceEmergency always wins; a Cargo or Emergency
// primary kind always produces that kind; a Commercial primary produces
// Commercial with a 5% override to Cargo.
func (a *Airline) determineKind(forceEmergency bool, r *rand.Rand) av.AircraftKind {
	if forceEmergency {
		return av.Emergency
	}
	if a.PrimaryKind == av.Emergency || a.PrimaryKind == av.Cargo {
		return a.PrimaryKind
	}
	if r.Float64() < 0.05 {
		return av.Cargo
	}
	return av.Commercial
}

// CreateAircraft builds and registers a new Aircraft for direction d,
// overriding its kind to Emergency if forceEmergency is set. It fails
// (returns nil) if the fleet is already at capacity.
func (a *Airline) CreateAircraft(direction av.Direction, forceEmergency bool, r *rand.Rand) *aircraft.Aircraft {
	a.Lock()
	defer a.Unlock()

	if !a.canScheduleLocked() {
		return nil
	}

	kind := a.determineKind(forceEmergency, r)
	id := generateFlightID(a.Name, r)
	ac := aircraft.New(id, kind, direction, a.Name, r)
	a.fleet[id] = ac
	return ac
}

// CreateAircraftOfKind is like CreateAircraft but requests a specific
// kind directly, used by the cargo-presence invariant when it falls back
// to a Commercial airline to produce a Cargo aircraft on demand.
func (a *Airline) CreateAircraftOfKind(direction av.Direction, kind av.AircraftKind, r *rand.Rand) *aircraft.Aircraft {
	a.Lock()
	defer a.Unlock()

	if !a.canScheduleLocked() {
		return nil
	}

	id := generateFlightID(a.Name, r)
	ac := aircraft.New(id, kind, direction, a.Name, r)
	a.fleet[id] = ac
	return ac
}

// ScheduleIfNeeded reports whether a new flight should be generated for
// direction d at time now: enough of the per-direction interval must
// have elapsed since the last schedule, and the fleet must have spare
// capacity. On a true result it updates the last-schedule timestamp;
// callers are responsible for actually building the Aircraft/Flight.
func (a *Airline) ScheduleIfNeeded(now time.Time, d av.Direction) bool {
	a.Lock()
	defer a.Unlock()

	interval, ok := av.FlightGenerationInterval[d]
	if !ok {
		return false
	}
	if now.Sub(a.lastScheduleTime[d]).Seconds() < interval {
		return false
	}
	if !a.canScheduleLocked() {
		return false
	}

	a.lastScheduleTime[d] = now
	return true
}

// AllAircraft returns a snapshot slice of the airline's current fleet.
func (a *Airline) AllAircraft() []*aircraft.Aircraft {
	a.Lock()
	defer a.Unlock()
	out := make([]*aircraft.Aircraft, 0, len(a.fleet))
	for _, ac := range a.fleet {
		out = append(out, ac)
	}
	return out
}

// UpdateAllAircraft ticks every aircraft currently in the fleet.
func (a *Airline) UpdateAllAircraft(dt float64, r *rand.Rand) {
	a.Lock()
	fleet := make([]*aircraft.Aircraft, 0, len(a.fleet))
	for _, ac := range a.fleet {
		fleet = append(fleet, ac)
	}
	a.Unlock()

	for _, ac := range fleet {
		ac.Lock()
		ac.Update(dt, r)
		ac.Unlock()
	}
}

// RemoveAircraft retires an aircraft from the fleet once its owning
// flight has reached a terminal status.
func (a *Airline) RemoveAircraft(id string) {
	a.Lock()
	defer a.Unlock()
	delete(a.fleet, id)
}

// RecordViolation increments the airline's cumulative violation counter.
func (a *Airline) RecordViolation() {
	a.Lock()
	defer a.Unlock()
	a.violationCount++
}

// ViolationCount returns the cumulative violation count.
func (a *Airline) ViolationCount() int {
	a.Lock()
	defer a.Unlock()
	return a.violationCount
}
