// sim/tasks.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"time"

	"github.com/atcsim/atcs/aircraft"
	"github.com/atcsim/atcs/airline"
	"github.com/atcsim/atcs/arbiter"
	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/flight"
)

// simulationTask is the fixed-timestep clock: it ticks every aircraft,
// flight, and runway, and monitors active aircraft speed against their
// phase bound. It retires terminal flights from the live list on each
// pass.
func (c *Controller) simulationTask(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SimulationTickInterval)
	defer ticker.Stop()

	dt := c.cfg.SimulationTickInterval.Seconds()
	if dt > 0.1 {
		dt = 0.1 // Δt capped at 100ms regardless of the configured tick interval
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !c.waitWhilePaused() {
			return
		}
		c.updateSimulation(dt)
		if c.RemainingTime() <= 0 {
			c.markCompleted()
			return
		}
	}
}

func (c *Controller) updateSimulation(dt float64) {
	now := time.Now()

	for _, r := range c.runways {
		r.Lock()
		r.Update(c.cfg.SimulationTickInterval)
		r.Unlock()
	}

	flights := c.snapshotFlights()
	var terminal []*flight.Flight
	for _, f := range flights {
		f.Update(dt, now, &c.simRand)
		if f.GetStatus().IsTerminal() {
			terminal = append(terminal, f)
			continue
		}
		c.monitorFlightSpeed(f, now)
	}
	for _, f := range terminal {
		c.retireFlight(f)
	}
}

// monitorFlightSpeed runs the speed monitor over a single active
// flight's aircraft, crediting any resulting violation to the owning
// airline's counter.
func (c *Controller) monitorFlightSpeed(f *flight.Flight, now time.Time) {
	f.Aircraft.Lock()
	rec := c.speedMonitor.Monitor(f.Aircraft, f.ID, f.Aircraft.AirlineID, now)
	f.Aircraft.Unlock()

	if rec == nil {
		return
	}
	if a := c.airlineByName(rec.Airline); a != nil {
		a.RecordViolation()
	}
}

// generatorTask walks every airline x direction pair every ~100ms,
// enforces the cargo-presence invariant once per cycle, and runs an
// assignment pass over each runway's priority queue for newly scheduled
// flights.
func (c *Controller) generatorTask(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.GeneratorTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !c.waitWhilePaused() {
			return
		}
		c.scheduleNewFlights()
		c.ensureCargoFlightPresent()
		c.arbiter.RunAssignmentPass(time.Now())
	}
}

var scheduledDirections = []av.Direction{av.North, av.South, av.East, av.West}

// scheduleNewFlights walks every airline x direction pair, invoking each
// airline's per-direction cadence check and generating a new Flight on a
// hit.
func (c *Controller) scheduleNewFlights() {
	now := time.Now()
	for _, a := range c.airlines {
		for _, d := range scheduledDirections {
			if !a.ScheduleIfNeeded(now, d) {
				continue
			}
			forceEmergency := c.genRand.Float64() < av.EmergencyProbability[d]
			ac := a.CreateAircraft(d, forceEmergency, &c.genRand)
			if ac == nil {
				continue
			}
			c.spawnFlight(a, ac, now)
		}
	}
}

// spawnFlight builds a Flight around ac, registers it with the
// controller's live flight list, and enqueues it with the arbiter for
// runway assignment.
func (c *Controller) spawnFlight(a *airline.Airline, ac *aircraft.Aircraft, now time.Time) *flight.Flight {
	emergency := ac.Kind == av.Emergency
	f := flight.New(ac.ID, ac, now, emergency)
	c.addFlight(f)
	c.arbiter.Enqueue(&arbiter.PendingFlight{
		Flight:        f,
		Kind:          ac.Kind,
		Direction:     ac.Direction,
		ScheduledTime: now,
	})
	return f
}

// ensureCargoFlightPresent implements the cargo-presence invariant: if
// no non-terminal Cargo flight currently exists, it creates one
// immediately (preferring a Cargo-primary airline, falling back to a
// Commercial airline asked for a Cargo aircraft directly), tries to
// place it on RWY-C right away, and activates it.
func (c *Controller) ensureCargoFlightPresent() {
	if c.hasNonTerminalCargoFlight() {
		return
	}

	now := time.Now()
	var a *airline.Airline
	for _, candidate := range c.airlines {
		if candidate.PrimaryKind == av.Cargo {
			a = candidate
			break
		}
	}
	if a == nil {
		for _, candidate := range c.airlines {
			if candidate.PrimaryKind == av.Commercial {
				a = candidate
				break
			}
		}
	}
	if a == nil {
		return
	}

	ac := a.CreateAircraftOfKind(av.North, av.Cargo, &c.genRand)
	if ac == nil {
		return
	}

	f := c.spawnFlight(a, ac, now)
	if rwyC, ok := c.runwayByID[av.RunwayC]; ok {
		_ = f.AssignRunway(rwyC, now)
	}
	_ = f.Activate(now)
}

func (c *Controller) hasNonTerminalCargoFlight() bool {
	for _, f := range c.snapshotFlights() {
		if f.GetStatus().IsTerminal() {
			continue
		}
		f.Aircraft.Lock()
		kind := f.Aircraft.Kind
		f.Aircraft.Unlock()
		if kind == av.Cargo {
			return true
		}
	}
	return false
}

// monitoringTask reconciles the active-cargo-flights counter against
// the live flight list and sweeps overdue violations, every ~200ms.
func (c *Controller) monitoringTask(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.MonitoringTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !c.waitWhilePaused() {
			return
		}
		c.reconcileCargoCounter()
		c.speedMonitor.SweepOverdue(time.Now())
	}
}

func (c *Controller) reconcileCargoCounter() {
	actual := 0
	for _, f := range c.snapshotFlights() {
		if f.GetStatus().IsTerminal() {
			continue
		}
		f.Aircraft.Lock()
		kind := f.Aircraft.Kind
		f.Aircraft.Unlock()
		if kind == av.Cargo {
			actual++
		}
	}

	c.mu.Lock()
	stale := c.activeCargoFlights != actual
	c.activeCargoFlights = actual
	c.mu.Unlock()

	if stale {
		c.lg.Debugf("monitoring: active_cargo_flights reconciled to %d", actual)
	}
}

// deniedFlightTask retries the arbiter's denied-flights queue, bounded
// to five attempts per cycle, every ~500ms.
func (c *Controller) deniedFlightTask(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.DeniedFlightTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !c.waitWhilePaused() {
			return
		}
		if n := c.arbiter.ProcessDeniedFlights(time.Now()); n > 0 {
			c.lg.Debugf("denied-flight task: rescheduled %d flight(s)", n)
		}
	}
}

func (c *Controller) markCompleted() {
	c.mu.Lock()
	c.running = false
	c.completed = true
	c.mu.Unlock()
	c.cond.Broadcast()
	if c.cancel != nil {
		c.cancel()
	}
	c.lg.Info("simulation duration elapsed, completed")
}

func (c *Controller) snapshotFlights() []*flight.Flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*flight.Flight, len(c.flights))
	copy(out, c.flights)
	return out
}

func (c *Controller) addFlight(f *flight.Flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flights = append(c.flights, f)
}

// retireFlight drops a terminal flight from the live list and removes
// its aircraft from the owning airline's fleet.
func (c *Controller) retireFlight(f *flight.Flight) {
	f.Aircraft.Lock()
	airlineName := f.Aircraft.AirlineID
	f.Aircraft.Unlock()

	if a := c.airlineByName(airlineName); a != nil {
		a.RemoveAircraft(f.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.flights {
		if existing == f {
			c.flights = append(c.flights[:i], c.flights[i+1:]...)
			break
		}
	}
}

func (c *Controller) airlineByName(name string) *airline.Airline {
	for _, a := range c.airlines {
		if a.Name == name {
			return a
		}
	}
	return nil
}
