// util/lockorder_debug.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build debug

package util

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
)

// LockLevel identifies one tier of the simulation's per-entity lock
// hierarchy: Controller-global < Runway < Flight < Aircraft <
// SpeedMonitor. A goroutine must never acquire a coarser (lower-numbered)
// level while already holding a finer (higher-numbered) one.
type LockLevel int

const (
	LockController LockLevel = iota
	LockRunway
	LockFlight
	LockAircraft
	LockSpeedMonitor
)

var (
	heldLevelsMu sync.Mutex
	heldLevels   = make(map[int64][]LockLevel) // goroutine id -> stack of held levels
)

// goroutineID parses the numeric goroutine id out of a runtime.Stack
// trace header ("goroutine 37 [running]:..."), the usual hack for
// per-goroutine debug-only bookkeeping that the standard library doesn't
// expose directly.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}

// AssertLockOrder panics if the calling goroutine already holds a finer
// (higher-numbered) lock level than level, which would indicate a lock
// acquired out of the documented Controller < Runway < Flight < Aircraft
// < SpeedMonitor order. On success it pushes level onto the goroutine's
// held-level stack; callers pair this with ReleaseLockOrder on unlock.
func AssertLockOrder(level LockLevel) {
	gid := goroutineID()

	heldLevelsMu.Lock()
	defer heldLevelsMu.Unlock()

	stack := heldLevels[gid]
	if len(stack) > 0 && stack[len(stack)-1] > level {
		panic(fmt.Sprintf("lock ordering violation: acquiring level %d while holding level %d",
			level, stack[len(stack)-1]))
	}
	heldLevels[gid] = append(stack, level)
}

// ReleaseLockOrder pops level off the calling goroutine's held-level
// stack, as recorded by AssertLockOrder.
func ReleaseLockOrder(level LockLevel) {
	gid := goroutineID()

	heldLevelsMu.Lock()
	defer heldLevelsMu.Unlock()

	stack := heldLevels[gid]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == level {
			heldLevels[gid] = append(stack[:i], stack[i+1:]...)
			break
		}
	}
	if len(heldLevels[gid]) == 0 {
		delete(heldLevels, gid)
	}
}
