// runway/runway.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package runway models the three shared runways: single-writer
// resources with fixed (direction, kind) eligibility rules and usage
// accounting.
package runway

import (
	"errors"
	"time"

	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/util"
)

// Status is the operational state of a runway.
type Status int

const (
	Available Status = iota
	InUse
	Maintenance
	WeatherClosed
)

func (s Status) String() string {
	switch s {
	case Available:
		return "Available"
	case InUse:
		return "InUse"
	case Maintenance:
		return "Maintenance"
	case WeatherClosed:
		return "WeatherClosed"
	default:
		return "Unknown"
	}
}

var (
	ErrRunwayNotAvailable  = errors.New("runway: not available")
	ErrIneligibleDirection = errors.New("runway: ineligible for direction")
	ErrIneligibleKind      = errors.New("runway: ineligible for aircraft kind")
	ErrNotOccupant         = errors.New("runway: releasing aircraft is not the current occupant")
	ErrNotInUse            = errors.New("runway: not in use")
)

// Runway is a single shared runway. Callers take Lock/Unlock themselves
// so that Flight can interleave runway operations with its own lock per
// the documented lock order: Controller-global < Runway < Flight <
// Aircraft < SpeedMonitor.
type Runway struct {
	mu util.LoggingMutex

	ID     av.RunwayId
	status Status

	assignedAircraftID string
	assignedKind       av.AircraftKind
	occupied           bool

	usageCount        int
	totalUsageTime     time.Duration
	lastAssignmentTime time.Time
}

// New constructs a Runway in the Available state.
func New(id av.RunwayId) *Runway {
	r := &Runway{ID: id, status: Available}
	r.mu.SetLogger(nil, id.String())
	r.mu.SetLevel(util.LockRunway)
	return r
}

func (r *Runway) Lock()   { r.mu.Lock() }
func (r *Runway) Unlock() { r.mu.Unlock() }

// IsValidForDirection reports the (runway, direction) eligibility rule:
// RWY-A serves North/South, RWY-B serves East/West, RWY-C serves any
// direction.
func IsValidForDirection(id av.RunwayId, d av.Direction) bool {
	switch id {
	case av.RunwayA:
		return d == av.North || d == av.South
	case av.RunwayB:
		return d == av.East || d == av.West
	case av.RunwayC:
		return true
	default:
		return false
	}
}

// IsValidForKind reports the (runway, kind) eligibility rule: RWY-A and
// RWY-B accept any kind; RWY-C is exclusive to Cargo and Emergency.
func IsValidForKind(id av.RunwayId, k av.AircraftKind) bool {
	switch id {
	case av.RunwayA, av.RunwayB:
		return true
	case av.RunwayC:
		return k == av.Cargo || k == av.Emergency
	default:
		return false
	}
}

// CanUseForDirection and CanUseForKind are instance-method conveniences
// over the package-level eligibility predicates, named to mirror the
// original source's Runway::canUseForDirection/canUseForAircraftType.
func (r *Runway) CanUseForDirection(d av.Direction) bool { return IsValidForDirection(r.ID, d) }
func (r *Runway) CanUseForKind(k av.AircraftKind) bool    { return IsValidForKind(r.ID, k) }

// Status returns the runway's current status.
func (r *Runway) Status() Status { return r.status }

// IsAvailable reports whether the runway can currently accept an
// assignment.
func (r *Runway) IsAvailable() bool { return r.status == Available }

// Assign attempts to grant aircraftID (of kind k, direction d) exclusive
// use of the runway. It fails if the runway isn't Available or either
// eligibility check fails; on success it transitions to InUse, records
// the assignment, and bumps the usage counter.
func (r *Runway) Assign(aircraftID string, k av.AircraftKind, d av.Direction, now time.Time) error {
	if r.status != Available {
		return ErrRunwayNotAvailable
	}
	if !r.CanUseForDirection(d) {
		return ErrIneligibleDirection
	}
	if !r.CanUseForKind(k) {
		return ErrIneligibleKind
	}

	r.status = InUse
	r.assignedAircraftID = aircraftID
	r.assignedKind = k
	r.occupied = true
	r.lastAssignmentTime = now
	r.usageCount++
	return nil
}

// Release returns the runway to Available, accruing the occupancy
// duration into the cumulative usage time. It fails unless the runway is
// InUse and aircraftID matches the current occupant.
func (r *Runway) Release(aircraftID string, now time.Time) error {
	if r.status != InUse || !r.occupied {
		return ErrNotInUse
	}
	if r.assignedAircraftID != aircraftID {
		return ErrNotOccupant
	}

	r.totalUsageTime += now.Sub(r.lastAssignmentTime)
	r.status = Available
	r.assignedAircraftID = ""
	r.occupied = false
	return nil
}

// SetStatus forces a new status. If the runway is currently InUse and
// the new status is Maintenance or WeatherClosed, usage time is accrued
// first and the occupant is cleared; InUse itself is never set this way
// (only via Assign).
func (r *Runway) SetStatus(s Status, now time.Time) {
	if r.status == InUse && (s == Maintenance || s == WeatherClosed) {
		r.totalUsageTime += now.Sub(r.lastAssignmentTime)
		r.assignedAircraftID = ""
		r.occupied = false
	}
	if s != InUse {
		r.status = s
	}
}

// Update is a placeholder tick hook for future runway-local time-based
// behavior (e.g. scheduled maintenance windows); it currently does
// nothing but is kept so the Controller can call Update uniformly across
// runways, aircraft, and flights every simulation step.
func (r *Runway) Update(dt time.Duration) {}

// AssignedAircraftID returns the id of the current occupant, or "" if
// the runway is not InUse.
func (r *Runway) AssignedAircraftID() string { return r.assignedAircraftID }

// UsageCount and TotalUsageTime report accumulated usage statistics.
func (r *Runway) UsageCount() int                  { return r.usageCount }
func (r *Runway) TotalUsageTime() time.Duration    { return r.totalUsageTime }
func (r *Runway) LastAssignmentTime() time.Time    { return r.lastAssignmentTime }
