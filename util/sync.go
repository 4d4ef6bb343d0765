// util/sync.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"encoding/json"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atcsim/atcs/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// AtomicBool wraps atomic.Bool so it can be embedded directly in structs
// that are otherwise JSON-marshaled.
type AtomicBool struct {
	v atomic.Bool
}

func (a *AtomicBool) Load() bool       { return a.v.Load() }
func (a *AtomicBool) Store(v bool)     { a.v.Store(v) }
func (a *AtomicBool) Swap(v bool) bool { return a.v.Swap(v) }

func (a *AtomicBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.v.Load())
}

func (a *AtomicBool) UnmarshalJSON(b []byte) error {
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	a.v.Store(v)
	return nil
}

var (
	heldMutexesMutex sync.Mutex
	heldMutexes      = make(map[*LoggingMutex]string)
)

// LoggingMutex wraps sync.Mutex and logs when a Lock() call has to wait
// more than a short threshold for another holder to release it, so that
// lock-ordering stalls between the Controller/Runway/Flight/Aircraft/
// SpeedMonitor tiers show up in the logs rather than just as latency.
type LoggingMutex struct {
	mu    sync.Mutex
	lg    *log.Logger
	tag   string
	level LockLevel
}

// SetLogger associates a Logger (for diagnostics) and a human-readable tag
// (for identifying which entity's lock is being reported on) with the mutex.
func (m *LoggingMutex) SetLogger(lg *log.Logger, tag string) {
	m.lg, m.tag = lg, tag
}

// SetLevel tags the mutex with its tier in the documented lock hierarchy
// (Controller-global < Runway < Flight < Aircraft < SpeedMonitor), so
// Lock/Unlock can enforce acquisition order via AssertLockOrder. Entities
// that never call SetLevel default to LockController, the coarsest tier.
func (m *LoggingMutex) SetLevel(level LockLevel) {
	m.level = level
}

func (m *LoggingMutex) Lock() {
	AssertLockOrder(m.level)

	if m.mu.TryLock() {
		m.noteHeld()
		return
	}

	start := time.Now()
	m.mu.Lock()
	if d := time.Since(start); d > 10*time.Millisecond {
		m.lg.Warnf("LoggingMutex: %s blocked %s waiting for lock held by %v", m.tag, d, currentHolders())
	}
	m.noteHeld()
}

func (m *LoggingMutex) Unlock() {
	heldMutexesMutex.Lock()
	delete(heldMutexes, m)
	heldMutexesMutex.Unlock()
	m.mu.Unlock()
	ReleaseLockOrder(m.level)
}

func (m *LoggingMutex) noteHeld() {
	heldMutexesMutex.Lock()
	heldMutexes[m] = m.tag
	heldMutexesMutex.Unlock()
}

func currentHolders() []string {
	heldMutexesMutex.Lock()
	defer heldMutexesMutex.Unlock()
	var tags []string
	for _, t := range heldMutexes {
		tags = append(tags, t)
	}
	return tags
}

// MonitorCPUUsage periodically samples host CPU usage and warns via lg if
// it stays pegged, which is the usual explanation for the fixed-timestep
// simulation task falling behind its cadence.
func MonitorCPUUsage(ctx interface{ Done() <-chan struct{} }, lg *log.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pct, err := cpu.Percent(0, false)
			if err != nil || len(pct) == 0 {
				continue
			}
			if pct[0] > 90 {
				lg.Warnf("host CPU usage high: %.1f%%, NumGoroutine=%d", pct[0], runtime.NumGoroutine())
			}
		}
	}
}

// MonitorMemoryUsage periodically samples host memory usage and warns via
// lg if it stays close to exhaustion.
func MonitorMemoryUsage(ctx interface{ Done() <-chan struct{} }, lg *log.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			vm, err := mem.VirtualMemory()
			if err != nil {
				continue
			}
			if vm.UsedPercent > 90 {
				lg.Warnf("host memory usage high: %.1f%%", vm.UsedPercent)
			}
		}
	}
}
