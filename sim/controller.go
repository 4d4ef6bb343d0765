// sim/controller.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package sim ties every other package together into the
// SimulationController: the fixed-timestep clock, the four long-lived
// worker tasks, flight generation, and the control-surface methods a
// CLI or embedder drives the simulation through.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/atcsim/atcs/airline"
	"github.com/atcsim/atcs/arbiter"
	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/flight"
	"github.com/atcsim/atcs/ipc"
	"github.com/atcsim/atcs/log"
	"github.com/atcsim/atcs/rand"
	"github.com/atcsim/atcs/runway"
	"github.com/atcsim/atcs/speedmonitor"
	"github.com/atcsim/atcs/util"
	"golang.org/x/sync/errgroup"
)

// Per-task RNG seed offsets, so each of the four workers gets a distinct
// but deterministic stream derived from the same master seed.
const (
	simSeedOffset          = 0
	generatorSeedOffset    = 1
	monitoringSeedOffset   = 2
	deniedFlightSeedOffset = 3
)

// Controller is the SimulationController: it owns the runways, the
// airline roster, the arbiter, the speed monitor, the IPC bridge, and
// the live flight list, and orchestrates the four worker tasks over
// them. Fields below the mutex are protected by it (the coarsest lock
// in the documented order: Controller-global < Runway < Flight <
// Aircraft < SpeedMonitor).
type Controller struct {
	mu   util.LoggingMutex
	cond *sync.Cond

	cfg Config
	lg  *log.Logger

	runways      []*runway.Runway
	runwayByID   map[av.RunwayId]*runway.Runway
	airlines     []*airline.Airline
	arbiter      *arbiter.RunwayArbiter
	speedMonitor *speedmonitor.SpeedMonitor
	bridge       *ipc.Bridge

	flights []*flight.Flight

	startTime time.Time
	running   bool
	paused    bool
	completed bool

	activeCargoFlights int

	simRand, genRand, monitorRand, deniedRand rand.Rand

	cancel context.CancelFunc
	eg     *errgroup.Group
}

// New constructs a Controller ready to Start: it builds the three
// runways, the fixed airline roster, the arbiter, the speed monitor, and
// (if configured) the IPC bridge to the billing collaborator.
func New(cfg Config) *Controller {
	if cfg.SimulationDuration == 0 {
		def := NewConfig()
		cfg.SimulationDuration = def.SimulationDuration
	}
	if cfg.RunID == "" {
		def := NewConfig()
		cfg.RunID = def.RunID
	}
	if cfg.SimulationTickInterval == 0 {
		cfg.SimulationTickInterval = 10 * time.Millisecond
	}
	if cfg.GeneratorTickInterval == 0 {
		cfg.GeneratorTickInterval = 100 * time.Millisecond
	}
	if cfg.MonitoringTickInterval == 0 {
		cfg.MonitoringTickInterval = 200 * time.Millisecond
	}
	if cfg.DeniedFlightTickInterval == 0 {
		cfg.DeniedFlightTickInterval = 500 * time.Millisecond
	}

	lg := log.New(cfg.LogLevel, cfg.LogDir, cfg.RunID)

	runways := []*runway.Runway{
		runway.New(av.RunwayA),
		runway.New(av.RunwayB),
		runway.New(av.RunwayC),
	}
	runwayByID := make(map[av.RunwayId]*runway.Runway, len(runways))
	for _, r := range runways {
		runwayByID[r.ID] = r
	}

	c := &Controller{
		cfg:          cfg,
		lg:           lg,
		runways:      runways,
		runwayByID:   runwayByID,
		airlines:     airline.NewRoster(),
		arbiter:      arbiter.New(runways),
		speedMonitor: nil, // set after bridge, since bridge needs it as confirmer
	}
	c.mu.SetLogger(lg, "controller")
	c.mu.SetLevel(util.LockController)
	c.cond = sync.NewCond(&c.mu)

	bridge := ipc.New(cfg.IPCWriter, cfg.IPCReader, nil, lg)
	c.speedMonitor = speedmonitor.New(bridge)
	// The bridge needs the speed monitor as its PaymentConfirmer, and
	// the speed monitor needs the bridge as its Sink: wire the back
	// pointer now that both exist.
	bridge.SetConfirmer(c.speedMonitor)
	c.bridge = bridge

	c.simRand.Seed(cfg.MasterSeed + simSeedOffset)
	c.genRand.Seed(cfg.MasterSeed + generatorSeedOffset)
	c.monitorRand.Seed(cfg.MasterSeed + monitoringSeedOffset)
	c.deniedRand.Seed(cfg.MasterSeed + deniedFlightSeedOffset)

	c.lg.Infof("controller initialized: runID=%s duration=%s", cfg.RunID, cfg.SimulationDuration)
	return c
}

// Start transitions the controller to running and launches the four
// worker tasks (simulation, generator, monitoring, denied-flight), the
// CPU and memory watchdogs, and the IPC bridge reader via an errgroup
// bound to ctx, returning once they're launched (not once they
// finish — call Wait or Stop to block for completion).
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	if c.completed {
		c.mu.Unlock()
		return ErrAlreadyCompleted
	}
	c.running = true
	c.paused = false
	c.startTime = time.Now()
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	eg, egCtx := errgroup.WithContext(runCtx)
	c.eg = eg

	eg.Go(func() error { c.simulationTask(egCtx); return nil })
	eg.Go(func() error { c.generatorTask(egCtx); return nil })
	eg.Go(func() error { c.monitoringTask(egCtx); return nil })
	eg.Go(func() error { c.deniedFlightTask(egCtx); return nil })
	eg.Go(func() error { util.MonitorCPUUsage(egCtx, c.lg); return nil })
	eg.Go(func() error { util.MonitorMemoryUsage(egCtx, c.lg); return nil })
	if c.bridge != nil {
		var wg sync.WaitGroup
		wg.Add(1)
		eg.Go(func() error { c.bridge.RunReader(egCtx, &wg); return nil })
	}

	c.lg.Info("simulation started")
	return nil
}

// Wait blocks until every worker task has exited (normally because Stop
// was called or the configured duration elapsed).
func (c *Controller) Wait() error {
	if c.eg == nil {
		return nil
	}
	return c.eg.Wait()
}

// Pause blocks all worker tasks at their next loop check.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	if c.paused {
		return nil
	}
	c.paused = true
	c.lg.Info("simulation paused")
	return nil
}

// Resume releases every worker task blocked on Pause.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return ErrNotRunning
	}
	if !c.paused {
		return ErrNotPaused
	}
	c.paused = false
	c.cond.Broadcast()
	c.lg.Info("simulation resumed")
	return nil
}

// Stop sets the termination flag, wakes any paused workers so they can
// observe it, cancels the run context, and joins all workers.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return ErrNotRunning
	}
	c.running = false
	c.paused = false
	c.mu.Unlock()
	c.cond.Broadcast()

	if c.cancel != nil {
		c.cancel()
	}
	err := c.Wait()
	c.lg.Info("simulation stopped")
	return err
}

// Reset discards all live flights and aircraft, returns every runway to
// Available, clears the denied-flights queue, and rebuilds the airline
// roster's fleets to their initial empty state, leaving the speed
// monitor's violation history and AVN ids intact (an AVN is a billing
// record, not simulation-run state, and outlives the run it was raised
// in per spec.md §3's lifecycle note). Reset fails while the simulation
// is running; callers must Stop first.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.completed = false
	c.startTime = time.Time{}
	c.activeCargoFlights = 0
	c.flights = nil
	c.mu.Unlock()

	now := time.Now()
	for _, r := range c.runways {
		r.Lock()
		if occupant := r.AssignedAircraftID(); occupant != "" {
			_ = r.Release(occupant, now)
		}
		r.SetStatus(runway.Available, now)
		r.Unlock()
	}

	c.arbiter = arbiter.New(c.runways)
	c.airlines = airline.NewRoster()

	c.lg.Info("simulation reset")
	return nil
}

// waitWhilePaused blocks the calling worker task while paused, waking on
// resume or stop. It must be called without any other lock held.
func (c *Controller) waitWhilePaused() (stillRunning bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.paused && c.running {
		c.cond.Wait()
	}
	return c.running
}

// IsRunning reports whether the controller is currently running
// (regardless of pause state).
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// CurrentTime returns elapsed wall-clock time since Start.
func (c *Controller) CurrentTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startTime.IsZero() {
		return 0
	}
	return time.Since(c.startTime)
}

// RemainingTime returns how much of the configured duration is left,
// floored at zero.
func (c *Controller) RemainingTime() time.Duration {
	remaining := c.cfg.SimulationDuration - c.CurrentTime()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ListAVNs returns every AVN that is not Paid, sweeping overdue status
// first.
func (c *Controller) ListAVNs() []speedmonitor.ViolationRecord {
	return c.speedMonitor.UnpaidViolations(time.Now())
}

// PayAVN submits a payment for AVN id, marking it Paid if it exists.
// amount is currently accepted but not cross-checked against the AVN's
// total (that reconciliation is the billing collaborator's job over the
// IPC channel; the CLI's pay-avn command is a direct, trusted override
// for operators/tests).
func (c *Controller) PayAVN(id int, amount float64) error {
	if !c.speedMonitor.ConfirmPayment(id, time.Now()) {
		return ErrUnknownAVN
	}
	c.lg.Infof("AVN %d paid: %.2f", id, amount)
	return nil
}

// QueryAirline returns every AVN recorded against airlineName.
func (c *Controller) QueryAirline(airlineName string) ([]speedmonitor.ViolationRecord, error) {
	for _, a := range c.airlines {
		if a.Name == airlineName {
			return c.speedMonitor.ByAirline(airlineName, time.Now()), nil
		}
	}
	return nil, ErrUnknownAirline
}
