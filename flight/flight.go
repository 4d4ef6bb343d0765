// flight/flight.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package flight implements the flight status machine, its ordered
// FlightPlan of timed transition steps, and the runway hand-off that
// ties a Flight to its owned Aircraft.
package flight

import (
	"errors"
	"fmt"
	"time"

	"github.com/atcsim/atcs/aircraft"
	av "github.com/atcsim/atcs/aviation"
	"github.com/atcsim/atcs/rand"
	"github.com/atcsim/atcs/runway"
	"github.com/atcsim/atcs/speedmonitor"
	"github.com/atcsim/atcs/util"
)

// Status is the lifecycle state of a Flight.
type Status int

const (
	Scheduled Status = iota
	Active
	Emergency
	Completed
	Canceled
	Diverted
)

func (s Status) String() string {
	switch s {
	case Scheduled:
		return "Scheduled"
	case Active:
		return "Active"
	case Emergency:
		return "Emergency"
	case Completed:
		return "Completed"
	case Canceled:
		return "Canceled"
	case Diverted:
		return "Diverted"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether s is one of the three terminal statuses.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Canceled || s == Diverted
}

var validTransitions = map[Status]map[Status]bool{
	Scheduled: {Active: true, Emergency: true, Canceled: true},
	Active:    {Emergency: true, Completed: true, Canceled: true, Diverted: true},
	Emergency: {Completed: true, Canceled: true, Diverted: true},
}

func isValidTransition(from, to Status) bool {
	return validTransitions[from][to]
}

var (
	ErrInvalidTransition   = errors.New("flight: invalid status transition")
	ErrAlreadyHasRunway    = errors.New("flight: already has an assigned runway")
	ErrNoRunwayAssigned    = errors.New("flight: no runway assigned")
	ErrNotActivatable      = errors.New("flight: not activatable from current status")
	ErrNoPlanStepsDue      = errors.New("flight: no plan step due yet")
)

// Step is one entry of a FlightPlan: a relative-time offset from
// activation, and the transition operation to run once that much time
// has elapsed. Operation returns whether the transition it attempted
// succeeded.
type Step struct {
	Offset    float64 // seconds after activation
	Operation func(f *Flight, r *rand.Rand, now time.Time) bool
}

// Plan is the ordered list of timed transition steps driving a Flight
// from activation to completion.
type Plan []Step

func releaseRunwayStep(advance bool) func(f *Flight, r *rand.Rand, now time.Time) bool {
	return func(f *Flight, r *rand.Rand, now time.Time) bool {
		f.releaseRunwayLocked(now)
		if !advance {
			return true
		}
		return f.advanceAircraftPhaseLocked(r)
	}
}

func advancePhaseStep() func(f *Flight, r *rand.Rand, now time.Time) bool {
	return func(f *Flight, r *rand.Rand, now time.Time) bool {
		return f.advanceAircraftPhaseLocked(r)
	}
}

func completeStep() func(f *Flight, r *rand.Rand, now time.Time) bool {
	return func(f *Flight, r *rand.Rand, now time.Time) bool {
		return f.completeLocked()
	}
}

// NewArrivalPlan builds the regular or expedited arrival FlightPlan:
// Holding->Approach->Landing->TaxiIn->AtGateArrival, releasing the
// runway at the landing/taxi-in boundary, then completing.
func NewArrivalPlan(emergency bool) Plan {
	offsets := [5]float64{30, 60, 90, 120, 150}
	if emergency {
		offsets = [5]float64{15, 30, 45, 60, 75}
	}
	return Plan{
		{Offset: offsets[0], Operation: advancePhaseStep()},  // Holding -> Approach
		{Offset: offsets[1], Operation: advancePhaseStep()},  // Approach -> Landing
		{Offset: offsets[2], Operation: releaseRunwayStep(true)}, // Landing -> TaxiIn, release runway
		{Offset: offsets[3], Operation: advancePhaseStep()},  // TaxiIn -> AtGateArrival
		{Offset: offsets[4], Operation: completeStep()},
	}
}

// NewDeparturePlan builds the regular or expedited departure FlightPlan:
// AtGateDeparture->TaxiOut->TakeoffRoll->Climb->Cruise, releasing the
// runway at the climb/cruise boundary, then completing.
func NewDeparturePlan(emergency bool) Plan {
	offsets := [5]float64{30, 60, 75, 90, 120}
	if emergency {
		offsets = [5]float64{15, 30, 37.5, 45, 60}
	}
	return Plan{
		{Offset: offsets[0], Operation: advancePhaseStep()},       // AtGateDeparture -> TaxiOut
		{Offset: offsets[1], Operation: advancePhaseStep()},       // TaxiOut -> TakeoffRoll
		{Offset: offsets[2], Operation: advancePhaseStep()},       // TakeoffRoll -> Climb
		{Offset: offsets[3], Operation: releaseRunwayStep(true)},  // Climb -> Cruise, release runway
		{Offset: offsets[4], Operation: completeStep()},
	}
}

// NewPlan picks the arrival or departure plan based on direction.
func NewPlan(d av.Direction, emergency bool) Plan {
	if d.IsArrival() {
		return NewArrivalPlan(emergency)
	}
	return NewDeparturePlan(emergency)
}

// Flight owns its Aircraft for the flight's lifetime and holds a plain
// pointer (a "weak" reference in spirit: Flight never blocks the
// runway's own lifecycle) to its currently assigned Runway, if any.
type Flight struct {
	mu util.LoggingMutex

	ID     string
	Status Status
	Reason string

	Aircraft *aircraft.Aircraft

	ScheduledTime           time.Time
	ActivationTime          time.Time
	EstimatedCompletionTime time.Time
	IsEmergencyFlag         bool

	runway *runway.Runway

	plan        Plan
	currentStep int
}

// New constructs a Scheduled Flight for ac, scheduled at scheduledTime,
// and builds its plan at once: the expedited plan if emergency is set,
// the regular plan otherwise. An emergency flight stays Scheduled until
// Activate moves it to the Emergency status.
func New(id string, ac *aircraft.Aircraft, scheduledTime time.Time, emergency bool) *Flight {
	f := &Flight{
		ID:              id,
		Status:          Scheduled,
		Aircraft:        ac,
		ScheduledTime:   scheduledTime,
		IsEmergencyFlag: emergency,
		plan:            NewPlan(ac.Direction, emergency),
	}
	f.mu.SetLogger(nil, "flight:"+id)
	f.mu.SetLevel(util.LockFlight)
	f.recalculateEstimatedCompletion()
	return f
}

func (f *Flight) Lock()   { f.mu.Lock() }
func (f *Flight) Unlock() { f.mu.Unlock() }

func (f *Flight) recalculateEstimatedCompletion() {
	if len(f.plan) == 0 {
		return
	}
	last := f.plan[len(f.plan)-1].Offset
	if f.Status == Active || f.Status == Emergency {
		if !f.ActivationTime.IsZero() {
			f.EstimatedCompletionTime = f.ActivationTime.Add(time.Duration(last * float64(time.Second)))
		}
	} else {
		f.EstimatedCompletionTime = f.ScheduledTime.Add(time.Duration(last * float64(time.Second)))
	}
}

// Activate transitions a Scheduled flight to Active (or Emergency, if
// IsEmergencyFlag is set), records the activation time, and refreshes
// the estimated completion time.
func (f *Flight) Activate(now time.Time) error {
	if f.Status != Scheduled {
		return ErrNotActivatable
	}
	target := Active
	if f.IsEmergencyFlag {
		target = Emergency
	}
	if !isValidTransition(f.Status, target) {
		return ErrInvalidTransition
	}
	f.Status = target
	f.ActivationTime = now
	f.recalculateEstimatedCompletion()
	return nil
}

// SetEmergency(true) sets the emergency flag on a Scheduled or Active
// flight and regenerates its plan wholesale with expedited offsets,
// resetting the step index. An Active flight moves to Emergency status
// at once; a Scheduled flight keeps the Scheduled status, and Activate
// later moves it to Emergency. SetEmergency(false) reverts an Emergency
// flight back to Active with the regular plan.
func (f *Flight) SetEmergency(isEmergency bool) error {
	if f.Status != Scheduled && f.Status != Active && f.Status != Emergency {
		return ErrInvalidTransition
	}
	if isEmergency && f.Status != Emergency {
		if f.Status == Active && !isValidTransition(f.Status, Emergency) {
			return ErrInvalidTransition
		}
		f.IsEmergencyFlag = true
		if f.Status == Active {
			f.Status = Emergency
		}
		f.plan = NewPlan(f.Aircraft.Direction, true)
		f.currentStep = 0
		f.recalculateEstimatedCompletion()
	} else if !isEmergency && f.Status == Emergency {
		f.IsEmergencyFlag = false
		f.Status = Active
		f.plan = NewPlan(f.Aircraft.Direction, false)
		f.currentStep = 0
		f.recalculateEstimatedCompletion()
	}
	return nil
}

// AssignRunway attempts to place this flight's aircraft on r, valid only
// from Scheduled, Active, or Emergency, and only if the flight does not
// already hold a runway. Callers must not hold f's lock; AssignRunway
// locks r first, then f, then the aircraft, matching the documented lock
// order Runway < Flight < Aircraft.
func (f *Flight) AssignRunway(r *runway.Runway, now time.Time) error {
	r.Lock()
	defer r.Unlock()
	f.Lock()
	defer f.Unlock()

	if f.Status != Scheduled && f.Status != Active && f.Status != Emergency {
		return ErrInvalidTransition
	}
	if f.runway != nil {
		return ErrAlreadyHasRunway
	}

	f.Aircraft.Lock()
	kind, dir := f.Aircraft.Kind, f.Aircraft.Direction
	f.Aircraft.Unlock()

	if err := r.Assign(f.ID, kind, dir, now); err != nil {
		return err
	}

	f.runway = r
	f.Aircraft.Lock()
	f.Aircraft.RunwayAssigned = true
	f.Aircraft.AssignedRunway = r.ID
	f.Aircraft.Unlock()
	return nil
}

// ReleaseRunway releases the flight's currently assigned runway, if any.
func (f *Flight) ReleaseRunway(now time.Time) error {
	f.Lock()
	r := f.runway
	f.Unlock()

	if r == nil {
		return ErrNoRunwayAssigned
	}

	r.Lock()
	defer r.Unlock()
	f.Lock()
	defer f.Unlock()
	return f.releaseRunwayLocked(now)
}

// releaseRunwayLocked assumes f (and, if a runway is assigned, that
// runway) is already locked by the caller; used internally from plan
// steps, which run with f's lock held from Update/ExecuteNextPlanStep.
func (f *Flight) releaseRunwayLocked(now time.Time) error {
	if f.runway == nil {
		return ErrNoRunwayAssigned
	}
	if err := f.runway.Release(f.ID, now); err != nil {
		return err
	}
	f.Aircraft.Lock()
	f.Aircraft.RunwayAssigned = false
	f.Aircraft.Unlock()
	f.runway = nil
	return nil
}

func (f *Flight) advanceAircraftPhaseLocked(r *rand.Rand) bool {
	f.Aircraft.Lock()
	defer f.Aircraft.Unlock()
	prevPhase := f.Aircraft.Phase
	if err := f.Aircraft.AdvancePhase(r); err != nil {
		return false
	}
	speedmonitor.ResetPhaseSuppression(f.Aircraft, prevPhase)
	return true
}

func (f *Flight) completeLocked() bool {
	if f.Status.IsTerminal() {
		return false
	}
	if !isValidTransition(f.Status, Completed) {
		return false
	}
	f.Status = Completed
	return true
}

// Complete transitions the flight to Completed, releasing its runway
// first if it holds one. Calling Complete on an already-terminal flight
// is a no-op that returns an error.
func (f *Flight) Complete(now time.Time) error {
	f.Lock()
	terminal := f.Status.IsTerminal()
	f.Unlock()
	if terminal {
		return ErrInvalidTransition
	}

	_ = f.ReleaseRunway(now)

	f.Lock()
	defer f.Unlock()
	if !f.completeLocked() {
		return ErrInvalidTransition
	}
	return nil
}

// Cancel transitions the flight to Canceled with reason, releasing its
// runway first if it holds one.
func (f *Flight) Cancel(reason string, now time.Time) error {
	f.Lock()
	from := f.Status
	f.Unlock()
	if !isValidTransition(from, Canceled) {
		return ErrInvalidTransition
	}

	_ = f.ReleaseRunway(now)

	f.Lock()
	defer f.Unlock()
	if !isValidTransition(f.Status, Canceled) {
		return ErrInvalidTransition
	}
	f.Status = Canceled
	f.Reason = reason
	return nil
}

// Divert transitions the flight to Diverted with reason, releasing its
// runway first if it holds one.
func (f *Flight) Divert(reason string, now time.Time) error {
	f.Lock()
	from := f.Status
	f.Unlock()
	if !isValidTransition(from, Diverted) {
		return ErrInvalidTransition
	}

	_ = f.ReleaseRunway(now)

	f.Lock()
	defer f.Unlock()
	if !isValidTransition(f.Status, Diverted) {
		return ErrInvalidTransition
	}
	f.Status = Diverted
	f.Reason = reason
	return nil
}

// handleGroundFaultLocked assumes f is locked; it checks the owned
// aircraft for a ground fault and, if present, cancels the flight.
// Returns true if a fault was handled.
func (f *Flight) handleGroundFaultLocked(now time.Time) bool {
	f.Aircraft.Lock()
	fault := f.Aircraft.HasGroundFault()
	f.Aircraft.Unlock()
	if !fault {
		return false
	}

	f.Unlock()
	_ = f.Cancel("ground fault", now)
	f.Lock()
	return true
}

// ExecuteNextPlanStep runs the next pending FlightPlan step if enough
// time has elapsed since activation, advancing the step index. After the
// last step runs, the flight is marked Completed (via the step itself).
func (f *Flight) ExecuteNextPlanStep(now time.Time, r *rand.Rand) bool {
	if len(f.plan) == 0 || f.currentStep >= len(f.plan) {
		return false
	}

	elapsed := now.Sub(f.ActivationTime).Seconds()
	if elapsed < f.plan[f.currentStep].Offset {
		return false
	}

	success := f.plan[f.currentStep].Operation(f, r, now)
	f.currentStep++
	return success
}

// Update ticks the flight: a no-op unless Active or Emergency. It first
// advances the owned aircraft's own per-tick state, then checks for (and
// handles) a ground fault, then executes the next due plan step.
func (f *Flight) Update(dt float64, now time.Time, r *rand.Rand) {
	f.Lock()
	defer f.Unlock()

	if f.Status != Active && f.Status != Emergency {
		return
	}

	f.Aircraft.Lock()
	f.Aircraft.Update(dt, r)
	f.Aircraft.Unlock()

	if f.handleGroundFaultLocked(now) {
		return
	}

	f.ExecuteNextPlanStep(now, r)
}

// GetDelay returns how late the flight's activation is relative to its
// scheduled time. While still Scheduled it is measured against "now";
// once activated it is fixed at activation-time minus scheduled-time.
func (f *Flight) GetDelay(now time.Time) time.Duration {
	f.Lock()
	defer f.Unlock()

	if f.Status == Scheduled {
		d := now.Sub(f.ScheduledTime)
		if d < 0 {
			return 0
		}
		return d
	}
	if f.ActivationTime.IsZero() {
		return 0
	}
	return f.ActivationTime.Sub(f.ScheduledTime)
}

// GetStatus returns the flight's current status under lock.
func (f *Flight) GetStatus() Status {
	f.Lock()
	defer f.Unlock()
	return f.Status
}

// AssignedRunwayID reports the id of the runway currently held, and
// whether one is held at all.
func (f *Flight) AssignedRunwayID() (av.RunwayId, bool) {
	f.Lock()
	defer f.Unlock()
	if f.runway == nil {
		return 0, false
	}
	return f.runway.ID, true
}

func (f *Flight) String() string {
	f.Lock()
	defer f.Unlock()
	return fmt.Sprintf("Flight{%s status=%s step=%d/%d}", f.ID, f.Status, f.currentStep, len(f.plan))
}
