// log/callstack.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"runtime"
)

// Callstack returns a short human-readable representation of the call
// stack, skipping the log package's own frames. pc may be nil, in which
// case the stack is captured at the point of the call.
func Callstack(pc []uintptr) []string {
	const maxFrames = 16
	const skip = 3 // runtime.Callers, Callstack, the Logger method that called it

	if pc == nil {
		pc = make([]uintptr, maxFrames)
		n := runtime.Callers(skip, pc)
		pc = pc[:n]
	}

	frames := runtime.CallersFrames(pc)
	var stack []string
	for {
		frame, more := frames.Next()
		stack = append(stack, fmt.Sprintf("%s:%d", frame.Function, frame.Line))
		if !more || len(stack) >= maxFrames {
			break
		}
	}
	return stack
}
