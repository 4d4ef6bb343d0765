// util/lockorder.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build !debug

package util

// LockLevel identifies one tier of the simulation's per-entity lock
// hierarchy: Controller-global < Runway < Flight < Aircraft <
// SpeedMonitor.
type LockLevel int

const (
	LockController LockLevel = iota
	LockRunway
	LockFlight
	LockAircraft
	LockSpeedMonitor
)

// AssertLockOrder is a no-op in non-debug builds; the check is compiled
// in only under the debug build tag, the same split log/race.go and
// log/race_off.go use for race-detector-only code.
func AssertLockOrder(level LockLevel) {}

// ReleaseLockOrder is the no-op counterpart to AssertLockOrder.
func ReleaseLockOrder(level LockLevel) {}
