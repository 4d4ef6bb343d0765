// sim/errors.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import "errors"

var (
	ErrAlreadyRunning   = errors.New("sim: already running")
	ErrNotRunning       = errors.New("sim: not running")
	ErrNotPaused        = errors.New("sim: not paused")
	ErrAlreadyCompleted = errors.New("sim: simulation already completed")
	ErrUnknownAVN       = errors.New("sim: no such AVN id")
	ErrUnknownAirline   = errors.New("sim: no such airline")
	ErrLockOrderViolation = errors.New("sim: lock ordering violation")
)
