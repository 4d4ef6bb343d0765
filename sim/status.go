// sim/status.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"time"

	"github.com/atcsim/atcs/aviation"
	"github.com/goforj/godump"
	"github.com/vmihailenco/msgpack/v5"
)

// RunwayStatus is a point-in-time snapshot of one runway, used by the
// CLI's status command.
type RunwayStatus struct {
	ID                 aviation.RunwayId `msgpack:"id"`
	Status             string            `msgpack:"status"`
	Occupant           string            `msgpack:"occupant,omitempty"`
	UsageCount         int               `msgpack:"usage_count"`
	QueueLength        int               `msgpack:"queue_length"`
}

// Status is a full point-in-time snapshot of the simulation, returned
// by the CLI's status command.
type Status struct {
	RunID          string          `msgpack:"run_id"`
	Running        bool            `msgpack:"running"`
	Paused         bool            `msgpack:"paused"`
	Completed      bool            `msgpack:"completed"`
	CurrentTime    time.Duration   `msgpack:"current_time"`
	RemainingTime  time.Duration   `msgpack:"remaining_time"`
	ActiveFlights  int             `msgpack:"active_flights"`
	ActiveCargo    int             `msgpack:"active_cargo_flights"`
	DeniedQueued   int             `msgpack:"denied_queued"`
	DeniedTotal    int             `msgpack:"denied_total"`
	UnpaidAVNs     int             `msgpack:"unpaid_avns"`
	PendingIPC     int             `msgpack:"pending_ipc_records"`
	Runways        []RunwayStatus  `msgpack:"runways"`
}

// Status builds a snapshot of the simulation's current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	runID := c.cfg.RunID
	running := c.running
	paused := c.paused
	completed := c.completed
	activeCargo := c.activeCargoFlights
	c.mu.Unlock()

	now := time.Now()
	queueLengths := c.arbiter.QueueLengths()

	runways := make([]RunwayStatus, 0, len(c.runways))
	for _, r := range c.runways {
		r.Lock()
		rs := RunwayStatus{
			ID:          r.ID,
			Status:      r.Status().String(),
			Occupant:    r.AssignedAircraftID(),
			UsageCount:  r.UsageCount(),
			QueueLength: queueLengths[r.ID],
		}
		r.Unlock()
		runways = append(runways, rs)
	}

	pendingIPC := 0
	if c.bridge != nil {
		pendingIPC = c.bridge.PendingCount()
	}

	return Status{
		RunID:         runID,
		Running:       running,
		Paused:        paused,
		Completed:     completed,
		CurrentTime:   c.CurrentTime(),
		RemainingTime: c.RemainingTime(),
		ActiveFlights: len(c.snapshotFlights()),
		ActiveCargo:   activeCargo,
		DeniedQueued:  c.arbiter.DeniedCount(),
		DeniedTotal:   c.arbiter.DeniedTotal(),
		UnpaidAVNs:    len(c.speedMonitor.UnpaidViolations(now)),
		PendingIPC:    pendingIPC,
		Runways:       runways,
	}
}

// DumpStatus renders a Status as a human-readable pretty-printed dump,
// for interactive CLI use.
func DumpStatus(s Status) string {
	return godump.DumpStr(s)
}

// EncodeStatus serializes a Status to msgpack, for scripted/structured
// CLI consumption.
func EncodeStatus(s Status) ([]byte, error) {
	return msgpack.Marshal(s)
}
