// arbiter/arbiter.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package arbiter resolves which pending flight gains exclusive access
// to a runway next: three priority queues (one per preferred runway),
// RWY-C exclusivity, and a bounded-retry denied-flights queue for
// flights that couldn't be placed on their first attempt.
package arbiter

import (
	"time"

	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/flight"
	"github.com/atcsim/atcs/runway"
	"github.com/atcsim/atcs/util"
)

// maxDeniedRetriesPerCycle bounds how many denied flights are retried on
// a single call to ProcessDeniedFlights, so a backlog can't starve the
// main loop.
const maxDeniedRetriesPerCycle = 5

// PendingFlight is a flight waiting for a runway assignment, carrying
// just enough denormalized state (kind, direction, scheduled time) to
// sort and retry it without re-locking the Flight on every comparison.
type PendingFlight struct {
	Flight        *flight.Flight
	Kind          av.AircraftKind
	Direction     av.Direction
	ScheduledTime time.Time
}

func priorityClass(k av.AircraftKind) int { return av.PriorityClass(k) }

// less reports whether a should be popped before b: higher priority
// class wins; ties break on earlier scheduled time.
func less(a, b *PendingFlight) bool {
	ca, cb := priorityClass(a.Kind), priorityClass(b.Kind)
	if ca != cb {
		return ca > cb
	}
	return a.ScheduledTime.Before(b.ScheduledTime)
}

// preferredRunway is the queue a flight is placed into: Cargo/Emergency
// flights go to RWY-C's queue; everyone else goes to the direction's
// preferred runway (A for arrivals, B for departures).
func preferredRunway(k av.AircraftKind, d av.Direction) av.RunwayId {
	if k == av.Cargo || k == av.Emergency {
		return av.RunwayC
	}
	if d.IsArrival() {
		return av.RunwayA
	}
	return av.RunwayB
}

// RunwayArbiter owns the three runways and the priority queues feeding
// them, plus the bounded denied-flights retry queue.
type RunwayArbiter struct {
	mu util.LoggingMutex

	runways map[av.RunwayId]*runway.Runway
	queues  map[av.RunwayId][]*PendingFlight

	denied      []*PendingFlight
	deniedTotal int
}

// New constructs a RunwayArbiter over the given runways (normally the
// fixed set of A, B, C built once at startup).
func New(runways []*runway.Runway) *RunwayArbiter {
	a := &RunwayArbiter{
		runways: make(map[av.RunwayId]*runway.Runway, len(runways)),
		queues:  make(map[av.RunwayId][]*PendingFlight),
	}
	for _, r := range runways {
		a.runways[r.ID] = r
	}
	a.mu.SetLogger(nil, "arbiter")
	return a
}

func (a *RunwayArbiter) Lock()   { a.mu.Lock() }
func (a *RunwayArbiter) Unlock() { a.mu.Unlock() }

// Enqueue inserts pf into its preferred runway's priority queue,
// maintaining priority order on insert.
func (a *RunwayArbiter) Enqueue(pf *PendingFlight) {
	a.Lock()
	defer a.Unlock()
	a.enqueueLocked(pf)
}

func (a *RunwayArbiter) enqueueLocked(pf *PendingFlight) {
	rid := preferredRunway(pf.Kind, pf.Direction)
	q := a.queues[rid]

	i := 0
	for i < len(q) && !less(pf, q[i]) {
		i++
	}
	q = append(q, nil)
	copy(q[i+1:], q[i:])
	q[i] = pf
	a.queues[rid] = q
}

// tryAssign attempts to place pf on its kind-appropriate preferred
// runway first, then falls back through the remaining eligible runways
// in the fixed A, B, C order, honoring RWY-C exclusivity throughout.
func (a *RunwayArbiter) tryAssign(pf *PendingFlight, now time.Time) bool {
	preferred := preferredRunway(pf.Kind, pf.Direction)

	tryOne := func(rid av.RunwayId) bool {
		r, ok := a.runways[rid]
		if !ok {
			return false
		}
		if !runway.IsValidForKind(rid, pf.Kind) {
			return false
		}
		return pf.Flight.AssignRunway(r, now) == nil
	}

	if tryOne(preferred) {
		return true
	}
	for _, rid := range av.AllRunways {
		if rid == preferred {
			continue
		}
		if !runway.IsValidForDirection(rid, pf.Direction) {
			continue
		}
		if tryOne(rid) {
			return true
		}
	}
	return false
}

// denyLocked pushes pf onto the denied-flights queue and bumps the
// lifetime counter.
func (a *RunwayArbiter) denyLocked(pf *PendingFlight) {
	a.denied = append(a.denied, pf)
	a.deniedTotal++
}

// RunAssignmentPass pops the top-of-queue flight from each runway's
// queue (if non-empty) and attempts to place it, queueing it onto the
// denied-flights list on failure. It returns the number of successful
// assignments made this pass.
func (a *RunwayArbiter) RunAssignmentPass(now time.Time) int {
	a.Lock()
	defer a.Unlock()

	assigned := 0
	for _, rid := range av.AllRunways {
		q := a.queues[rid]
		if len(q) == 0 {
			continue
		}
		pf := q[0]
		a.queues[rid] = q[1:]

		if _, has := pf.Flight.AssignedRunwayID(); has {
			// Already holds a runway via a direct assignment outside the
			// arbiter (the cargo-presence invariant does this); nothing
			// left to do, and it must not count as a denial.
			continue
		}

		if a.tryAssign(pf, now) {
			if pf.Flight.GetStatus() == flight.Scheduled {
				_ = pf.Flight.Activate(now)
			}
			assigned++
		} else {
			a.denyLocked(pf)
		}
	}
	return assigned
}

// ProcessDeniedFlights retries up to maxDeniedRetriesPerCycle flights
// from the denied-flights queue, re-queueing any that still can't be
// placed. It returns the number successfully rescheduled this cycle.
func (a *RunwayArbiter) ProcessDeniedFlights(now time.Time) int {
	a.Lock()
	defer a.Unlock()

	rescheduled := 0
	attempts := 0
	for len(a.denied) > 0 && attempts < maxDeniedRetriesPerCycle {
		pf := a.denied[0]
		a.denied = a.denied[1:]
		attempts++

		status := pf.Flight.GetStatus()
		if status.IsTerminal() {
			continue
		}
		if _, has := pf.Flight.AssignedRunwayID(); has {
			continue
		}

		if a.tryAssign(pf, now) {
			if status == flight.Scheduled {
				_ = pf.Flight.Activate(now)
			}
			rescheduled++
		} else {
			a.denied = append(a.denied, pf)
		}
	}
	return rescheduled
}

// DeniedCount returns the current length of the denied-flights queue.
func (a *RunwayArbiter) DeniedCount() int {
	a.Lock()
	defer a.Unlock()
	return len(a.denied)
}

// DeniedTotal returns the lifetime count of flights ever pushed to the
// denied-flights queue.
func (a *RunwayArbiter) DeniedTotal() int {
	a.Lock()
	defer a.Unlock()
	return a.deniedTotal
}

// QueueLengths reports the current depth of each runway's priority
// queue, for status reporting.
func (a *RunwayArbiter) QueueLengths() map[av.RunwayId]int {
	a.Lock()
	defer a.Unlock()
	out := make(map[av.RunwayId]int, len(a.queues))
	for rid, q := range a.queues {
		out[rid] = len(q)
	}
	return out
}
