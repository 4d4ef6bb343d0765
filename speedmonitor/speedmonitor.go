// speedmonitor/speedmonitor.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package speedmonitor watches each aircraft's speed against its current
// phase's bound, raises ViolationRecords (AVNs) on breach or on rapid
// fluctuation, and hands them to an IPC sink for the billing
// collaborator.
package speedmonitor

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/atcsim/atcs/aircraft"
	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/util"
)

// maxHistory is the size of the per-aircraft speed-history ring.
const maxHistory = 10

// rapidChangeThreshold is the mean-absolute-step-to-step-delta, in
// km/h, above which a violation fires even when the instantaneous speed
// is within bounds.
const rapidChangeThreshold = 50.0

// Billing fine amounts pushed over IPC, per §3 of the billing contract.
const (
	fineCommercial = 500000.0
	fineCargo      = 700000.0
	serviceFeeRate = 0.15
	dueOffset      = 3 * 24 * time.Hour
)

// Fine thresholds for the separate internal analytics helper
// (CalculateFines), distinct from the AVN billing amounts above.
const (
	analyticsBaseFine  = 1000.0
	analyticsSevereFine = 5000.0
	severeDeviation     = 100.0
)

// Sink receives newly issued violation records for delivery to an
// external billing collaborator. Implemented by ipc.Bridge.
type Sink interface {
	PushAVN(rec ViolationRecord)
}

// ViolationRecord is an Airspace Violation Notice: the speed-monitor's
// output record, eventually mirrored across the IPC Bridge.
type ViolationRecord struct {
	ID        int
	Airline   string
	FlightID  string
	Kind      av.AircraftKind
	Speed     float64
	Min, Max  float64
	Phase     av.Phase
	Issued    time.Time
	Due       time.Time
	Fine      float64
	Total     float64
	Status    av.PaymentStatus
	StatusSet time.Time
}

// Description renders a human-readable summary of the violation, the
// form appended to the aircraft's own AVN log.
func (v ViolationRecord) Description() string {
	if v.Speed < v.Min {
		return fmt.Sprintf("%s %s underspeed in %s: %.1f km/h (min %.1f)",
			v.Airline, v.FlightID, v.Phase, v.Speed, v.Min)
	}
	if v.Speed > v.Max {
		return fmt.Sprintf("%s %s overspeed in %s: %.1f km/h (max %.1f)",
			v.Airline, v.FlightID, v.Phase, v.Speed, v.Max)
	}
	return fmt.Sprintf("%s %s rapid speed fluctuation in %s at %.1f km/h",
		v.Airline, v.FlightID, v.Phase, v.Speed)
}

type history struct {
	samples []float64
}

func (h *history) push(v float64) {
	h.samples = append(h.samples, v)
	if len(h.samples) > maxHistory {
		h.samples = h.samples[1:]
	}
}

func (h *history) meanAbsDelta() float64 {
	if len(h.samples) < 3 {
		return 0
	}
	var sum float64
	for i := 1; i < len(h.samples); i++ {
		d := h.samples[i] - h.samples[i-1]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / float64(len(h.samples)-1)
}

// SpeedMonitor watches a population of aircraft and accumulates
// violation records, statistics, and fine analytics.
type SpeedMonitor struct {
	mu util.LoggingMutex

	nextID int32 // atomic

	histories       map[string]*history
	violations      []ViolationRecord
	violationsByAirline map[string]int
	violationsByPhase   map[av.Phase]int

	sink Sink
}

// New constructs an empty SpeedMonitor. AVN ids are assigned starting at
// 1000, monotonically.
func New(sink Sink) *SpeedMonitor {
	sm := &SpeedMonitor{
		histories:           make(map[string]*history),
		violationsByAirline: make(map[string]int),
		violationsByPhase:   make(map[av.Phase]int),
		sink:                sink,
		nextID:              999,
	}
	sm.mu.SetLogger(nil, "speedmonitor")
	sm.mu.SetLevel(util.LockSpeedMonitor)
	return sm
}

func (sm *SpeedMonitor) Lock()   { sm.mu.Lock() }
func (sm *SpeedMonitor) Unlock() { sm.mu.Unlock() }

func (sm *SpeedMonitor) nextAVNID() int {
	return int(atomic.AddInt32(&sm.nextID, 1))
}

// Monitor checks ac's current speed against its phase bound and history,
// raising a ViolationRecord (and pushing it to the sink) on breach.
// Duplicate AVNs are suppressed while the aircraft remains in the same
// phase that first triggered one; ac must be locked by the caller per
// the SpeedMonitor-is-finest-grained lock-ordering rule (Aircraft <
// SpeedMonitor), i.e. callers lock the aircraft, then call Monitor, which
// itself then takes the monitor lock, the finest tier.
func (sm *SpeedMonitor) Monitor(ac *aircraft.Aircraft, flightID, airlineName string, now time.Time) *ViolationRecord {
	sm.Lock()
	defer sm.Unlock()

	bound, ok := av.SpeedBounds[ac.Phase]
	if !ok {
		return nil
	}

	h := sm.histories[ac.ID]
	if h == nil {
		h = &history{}
		sm.histories[ac.ID] = h
	}
	h.push(ac.Speed)

	outOfBound := ac.Speed < bound.Min || ac.Speed > bound.Max
	rapid := h.meanAbsDelta() > rapidChangeThreshold
	if !outOfBound && !rapid {
		return nil
	}

	if ac.VisitedPhases == nil {
		ac.VisitedPhases = make(map[av.Phase]bool)
	}
	if ac.VisitedPhases[ac.Phase] {
		return nil
	}
	ac.VisitedPhases[ac.Phase] = true

	fine := fineCommercial
	if ac.Kind == av.Cargo || ac.Kind == av.Emergency {
		// Emergency aircraft are billed at the Cargo rate; this mirrors
		// behavior observed in the source billing logic rather than a
		// deliberate policy choice and is called out for review.
		fine = fineCargo
	}

	rec := ViolationRecord{
		ID:        sm.nextAVNID(),
		Airline:   airlineName,
		FlightID:  flightID,
		Kind:      ac.Kind,
		Speed:     ac.Speed,
		Min:       bound.Min,
		Max:       bound.Max,
		Phase:     ac.Phase,
		Issued:    now,
		Due:       now.Add(dueOffset),
		Fine:      fine,
		Total:     fine * (1 + serviceFeeRate),
		Status:    av.Unpaid,
		StatusSet: now,
	}

	sm.violations = append(sm.violations, rec)
	sm.violationsByAirline[airlineName]++
	sm.violationsByPhase[ac.Phase]++

	ac.IssueAVN(rec.Description())

	if sm.sink != nil {
		sm.sink.PushAVN(rec)
	}

	return &rec
}

// ResetPhaseSuppression clears the de-duplication marker for a phase on
// a transitioning aircraft, called by Flight whenever it advances the
// aircraft's phase so a new violation can fire in the new phase.
func ResetPhaseSuppression(ac *aircraft.Aircraft, phase av.Phase) {
	if ac.VisitedPhases != nil {
		delete(ac.VisitedPhases, phase)
	}
}

// Violations returns a snapshot of all recorded violations.
func (sm *SpeedMonitor) Violations() []ViolationRecord {
	sm.Lock()
	defer sm.Unlock()
	out := make([]ViolationRecord, len(sm.violations))
	copy(out, sm.violations)
	return out
}

// UnpaidViolations returns violations with a non-Paid status, sweeping
// any Unpaid record whose due date has passed into Overdue first.
func (sm *SpeedMonitor) UnpaidViolations(now time.Time) []ViolationRecord {
	sm.Lock()
	defer sm.Unlock()
	sm.sweepOverdueLocked(now)

	var out []ViolationRecord
	for _, v := range sm.violations {
		if v.Status != av.Paid {
			out = append(out, v)
		}
	}
	return out
}

// ByAirline returns every violation recorded against airlineName,
// sweeping overdue status first.
func (sm *SpeedMonitor) ByAirline(airlineName string, now time.Time) []ViolationRecord {
	sm.Lock()
	defer sm.Unlock()
	sm.sweepOverdueLocked(now)

	var out []ViolationRecord
	for _, v := range sm.violations {
		if v.Airline == airlineName {
			out = append(out, v)
		}
	}
	return out
}

// SweepOverdue transitions every Unpaid violation whose due date has
// passed to Overdue. Called periodically by the monitoring task and
// opportunistically on every read, per SPEC_FULL's overdue-sweep
// semantics.
func (sm *SpeedMonitor) SweepOverdue(now time.Time) {
	sm.Lock()
	defer sm.Unlock()
	sm.sweepOverdueLocked(now)
}

func (sm *SpeedMonitor) sweepOverdueLocked(now time.Time) {
	for i := range sm.violations {
		v := &sm.violations[i]
		if v.Status == av.Unpaid && now.After(v.Due) {
			v.Status = av.Overdue
			v.StatusSet = now
		}
	}
}

// ConfirmPayment marks the violation with the given id Paid, as driven
// by an inbound PAYMENT_CONFIRMATION over the IPC Bridge (or a direct
// pay-avn CLI command). It returns false if no such violation exists.
func (sm *SpeedMonitor) ConfirmPayment(id int, now time.Time) bool {
	sm.Lock()
	defer sm.Unlock()
	for i := range sm.violations {
		if sm.violations[i].ID == id {
			sm.violations[i].Status = av.Paid
			sm.violations[i].StatusSet = now
			return true
		}
	}
	return false
}

// CalculateFines is a separate analytics helper (distinct from the
// billing amounts baked into each ViolationRecord): for each violation
// recorded against airlineName it adds a base fine, escalating to a
// severe fine if the speed deviation from bounds exceeds 100 km/h.
func (sm *SpeedMonitor) CalculateFines(airlineName string) float64 {
	sm.Lock()
	defer sm.Unlock()

	var total float64
	for _, v := range sm.violations {
		if v.Airline != airlineName {
			continue
		}
		overspeed := v.Speed - v.Max
		underspeed := v.Min - v.Speed
		deviation := overspeed
		if underspeed > deviation {
			deviation = underspeed
		}
		if deviation > severeDeviation {
			total += analyticsSevereFine
		} else {
			total += analyticsBaseFine
		}
	}
	return total
}

// ViolationsByPhase returns a snapshot of the per-phase violation
// counters.
func (sm *SpeedMonitor) ViolationsByPhase() map[av.Phase]int {
	sm.Lock()
	defer sm.Unlock()
	out := make(map[av.Phase]int, len(sm.violationsByPhase))
	for k, v := range sm.violationsByPhase {
		out[k] = v
	}
	return out
}
