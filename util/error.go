// util/error.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/atcsim/atcs/log"
)

// ErrorLogger accumulates multiple problems found while validating a
// roster or a flight plan before failing fast, rather than bailing out on
// the first one found.
type ErrorLogger struct {
	hierarchy []string
	errors    []string
}

// Push adds a level of context (e.g. an airline name) to the hierarchy
// reported alongside subsequently logged errors.
func (e *ErrorLogger) Push(ctx string) {
	e.hierarchy = append(e.hierarchy, ctx)
}

// Pop removes the most recently pushed context.
func (e *ErrorLogger) Pop() {
	if len(e.hierarchy) > 0 {
		e.hierarchy = e.hierarchy[:len(e.hierarchy)-1]
	}
}

func (e *ErrorLogger) prefix() string {
	if len(e.hierarchy) == 0 {
		return ""
	}
	return strings.Join(e.hierarchy, " / ") + ": "
}

// ErrorString records a formatted error message under the current context.
func (e *ErrorLogger) ErrorString(s string, args ...interface{}) {
	e.errors = append(e.errors, e.prefix()+fmt.Sprintf(s, args...))
}

// Error records err under the current context.
func (e *ErrorLogger) Error(err error) {
	e.errors = append(e.errors, e.prefix()+err.Error())
}

// HaveErrors reports whether any errors have been recorded.
func (e *ErrorLogger) HaveErrors() bool {
	return len(e.errors) > 0
}

// PrintErrors writes all recorded errors to both lg and stderr.
func (e *ErrorLogger) PrintErrors(lg *log.Logger) {
	for _, msg := range e.errors {
		lg.Errorf("%s", msg)
		fmt.Fprintln(os.Stderr, msg)
	}
}

func (e *ErrorLogger) String() string {
	return strings.Join(e.errors, "\n")
}
