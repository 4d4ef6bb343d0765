// ipc/bridge.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ipc

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/atcsim/atcs/log"
	"github.com/atcsim/atcs/speedmonitor"
	"github.com/atcsim/atcs/util"
)

// maxIPCRetries bounds how many times a single failed write is retried
// before the record is simply retained locally and logged, per §7's
// IpcTransportError handling.
const maxIPCRetries = 3

// PaymentConfirmer applies an inbound PAYMENT_CONFIRMATION to the
// authoritative violation ledger. speedmonitor.SpeedMonitor satisfies
// this directly.
type PaymentConfirmer interface {
	ConfirmPayment(id int, now time.Time) bool
}

// Bridge is the IPC connection to one external billing/payment
// collaborator: an outbound writer stream (AVN_CREATED / PAYMENT_REQUEST
// records pushed out) and an inbound reader stream (PAYMENT_CONFIRMATION
// / query records read back in). It implements speedmonitor.Sink.
type Bridge struct {
	mu util.LoggingMutex

	w  io.Writer
	r  io.Reader
	lg *log.Logger

	confirmer PaymentConfirmer

	pending []Record // records that failed to write and are retained for retry
}

var _ speedmonitor.Sink = (*Bridge)(nil)

// New constructs a Bridge writing outbound records to w and reading
// inbound records from r. Either may be nil if this bridge is
// write-only or read-only.
func New(w io.Writer, r io.Reader, confirmer PaymentConfirmer, lg *log.Logger) *Bridge {
	b := &Bridge{w: w, r: r, confirmer: confirmer, lg: lg}
	b.mu.SetLogger(lg, "ipc-bridge")
	return b
}

func (b *Bridge) Lock()   { b.mu.Lock() }
func (b *Bridge) Unlock() { b.mu.Unlock() }

// SetConfirmer wires the collaborator that applies inbound
// PAYMENT_CONFIRMATION records, for callers that must construct the
// bridge before its confirmer exists (the speed monitor takes the
// bridge as its Sink, so the two have a construction-order cycle).
func (b *Bridge) SetConfirmer(c PaymentConfirmer) {
	b.Lock()
	defer b.Unlock()
	b.confirmer = c
}

// PushAVN sends an AVN_CREATED record for rec, and follows it with a
// PAYMENT_REQUEST for the total amount due, mirroring the two-message
// exchange a billing collaborator expects before it will reply with a
// confirmation.
func (b *Bridge) PushAVN(rec speedmonitor.ViolationRecord) {
	details := "COMMERCIAL"
	if rec.Kind != 0 {
		details = "CARGO"
	}

	created := Record{
		Type:     AVNCreated,
		AVNID:    int32(rec.ID),
		Airline:  rec.Airline,
		Flight:   rec.FlightID,
		Amount:   rec.Speed,
		Details:  details,
		MinSpeed: int32(rec.Min),
		MaxSpeed: int32(rec.Max),
	}
	b.writeWithRetry(created)

	request := Record{
		Type:    PaymentRequest,
		AVNID:   int32(rec.ID),
		Airline: rec.Airline,
		Flight:  rec.FlightID,
		Amount:  rec.Total,
		Details: rec.Status.String(),
	}
	b.writeWithRetry(request)
}

func (b *Bridge) writeWithRetry(rec Record) {
	b.Lock()
	defer b.Unlock()

	if b.w == nil {
		b.pending = append(b.pending, rec)
		return
	}

	var err error
	for attempt := 0; attempt < maxIPCRetries; attempt++ {
		if err = WriteRecord(b.w, rec); err == nil {
			return
		}
	}
	b.lg.Warnf("ipc: giving up writing %s record for AVN %d after %d attempts: %v",
		rec.Type, rec.AVNID, maxIPCRetries, err)
	b.pending = append(b.pending, rec)
}

// PendingCount reports how many records are held locally after
// exhausting write retries.
func (b *Bridge) PendingCount() int {
	b.Lock()
	defer b.Unlock()
	return len(b.pending)
}

// FlushPending retries every locally-retained record once, dropping any
// that now succeed.
func (b *Bridge) FlushPending() {
	b.Lock()
	pending := b.pending
	b.pending = nil
	b.Unlock()

	for _, rec := range pending {
		b.writeWithRetry(rec)
	}
}

// RunReader consumes inbound records from r until EOF or ctx is
// canceled, applying PAYMENT_CONFIRMATION records to confirmer. It is
// meant to be launched as one of the simulation's long-lived worker
// tasks.
func (b *Bridge) RunReader(ctx context.Context, done *sync.WaitGroup) {
	if done != nil {
		defer done.Done()
	}
	if b.r == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rec, err := ReadRecord(b.r)
		if err != nil {
			if err == io.EOF {
				b.lg.Infof("ipc: collaborator closed the inbound stream")
				return
			}
			b.lg.Warnf("ipc: reading inbound record: %v", err)
			return
		}

		switch rec.Type {
		case PaymentConfirmation:
			if b.confirmer != nil {
				b.confirmer.ConfirmPayment(int(rec.AVNID), time.Now())
			}
			b.lg.Infof("ipc: payment confirmed for AVN %d", rec.AVNID)
		default:
			b.lg.Debugf("ipc: unhandled inbound record type %s for AVN %d", rec.Type, rec.AVNID)
		}
	}
}
