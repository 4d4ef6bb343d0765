// sim/config.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Config parameterizes one simulation run. Zero-value fields are filled
// in with defaults by NewConfig; Config is normally built by cmd/atcs
// from parsed flags.
type Config struct {
	// SimulationDuration is the fixed wall-clock duration of the run.
	SimulationDuration time.Duration

	// MasterSeed seeds every per-task RNG deterministically: the
	// simulation, generator, monitoring, and denied-flight tasks each
	// derive their own rand.Rand from this seed plus a fixed per-task
	// offset, so a run is reproducible end to end.
	MasterSeed int64

	// RunID tags every log line this run produces (and its status
	// report), letting a reader of several runs' logs tell them apart;
	// the IPC records do not carry it. Generated automatically if left
	// empty.
	RunID string

	LogLevel string
	LogDir   string

	// IPCWriter/IPCReader are the billing collaborator's two
	// unidirectional byte streams. Either may be left nil, in which
	// case the bridge simply retains records locally instead of
	// transmitting them.
	IPCWriter io.Writer
	IPCReader io.Reader

	SimulationTickInterval   time.Duration
	GeneratorTickInterval    time.Duration
	MonitoringTickInterval   time.Duration
	DeniedFlightTickInterval time.Duration
}

// NewConfig returns a Config with every field defaulted per §4.7/§5 of
// the simulation's design: a 300s run, a fresh random master seed
// isn't picked here (callers wanting determinism must set MasterSeed
// explicitly; zero is a valid, reproducible seed), and task cadences
// matching the source's sleep intervals.
func NewConfig() Config {
	return Config{
		SimulationDuration:       300 * time.Second,
		RunID:                    uuid.NewString(),
		LogLevel:                 "info",
		SimulationTickInterval:   10 * time.Millisecond,
		GeneratorTickInterval:    100 * time.Millisecond,
		MonitoringTickInterval:   200 * time.Millisecond,
		DeniedFlightTickInterval: 500 * time.Millisecond,
	}
}
