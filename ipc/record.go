// ipc/record.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ipc implements the fixed-size binary record protocol used to
// talk to the external AVN-billing / payment-processing collaborator
// over a pair of unidirectional byte streams.
package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// RecordType enumerates the wire message kinds.
type RecordType uint32

const (
	AVNCreated RecordType = iota
	PaymentRequest
	PaymentConfirmation
	QueryAVN
	QueryAirline
)

func (t RecordType) String() string {
	switch t {
	case AVNCreated:
		return "AVN_CREATED"
	case PaymentRequest:
		return "PAYMENT_REQUEST"
	case PaymentConfirmation:
		return "PAYMENT_CONFIRMATION"
	case QueryAVN:
		return "QUERY_AVN"
	case QueryAirline:
		return "QUERY_AIRLINE"
	default:
		return "UNKNOWN"
	}
}

// Field widths, normative per the compatibility contract.
const (
	airlineFieldSize = 32
	flightFieldSize  = 16
	detailsFieldSize = 64

	// RecordSize is the total on-wire size of one fixed record:
	// type(4) + avn_id(4) + airline(32) + flight(16) + amount(8) +
	// details(64) + min_speed(4) + max_speed(4).
	RecordSize = 4 + 4 + airlineFieldSize + flightFieldSize + 8 + detailsFieldSize + 4 + 4
)

var ErrShortRecord = errors.New("ipc: record shorter than RecordSize")

// Record is the decoded form of one fixed-size wire record.
type Record struct {
	Type      RecordType
	AVNID     int32
	Airline   string
	Flight    string
	Amount    float64
	Details   string
	MinSpeed  int32
	MaxSpeed  int32
}

func putFixedString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func getFixedString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return string(src[:i])
	}
	return string(src)
}

// Encode serializes r into its fixed-size wire form. String fields are
// truncated to their field width if too long.
func (r Record) Encode() []byte {
	buf := make([]byte, RecordSize)
	off := 0

	binary.LittleEndian.PutUint32(buf[off:], uint32(r.Type))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(r.AVNID))
	off += 4

	airline := r.Airline
	if len(airline) > airlineFieldSize-1 {
		airline = airline[:airlineFieldSize-1]
	}
	putFixedString(buf[off:off+airlineFieldSize], airline)
	off += airlineFieldSize

	fl := r.Flight
	if len(fl) > flightFieldSize-1 {
		fl = fl[:flightFieldSize-1]
	}
	putFixedString(buf[off:off+flightFieldSize], fl)
	off += flightFieldSize

	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(r.Amount))
	off += 8

	details := r.Details
	if len(details) > detailsFieldSize-1 {
		details = details[:detailsFieldSize-1]
	}
	putFixedString(buf[off:off+detailsFieldSize], details)
	off += detailsFieldSize

	binary.LittleEndian.PutUint32(buf[off:], uint32(r.MinSpeed))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(r.MaxSpeed))
	off += 4

	return buf
}

// Decode parses one fixed-size record from buf, which must be at least
// RecordSize bytes.
func Decode(buf []byte) (Record, error) {
	if len(buf) < RecordSize {
		return Record{}, ErrShortRecord
	}
	off := 0
	var r Record

	r.Type = RecordType(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	r.AVNID = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	r.Airline = getFixedString(buf[off : off+airlineFieldSize])
	off += airlineFieldSize
	r.Flight = getFixedString(buf[off : off+flightFieldSize])
	off += flightFieldSize

	r.Amount = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8

	r.Details = getFixedString(buf[off : off+detailsFieldSize])
	off += detailsFieldSize

	r.MinSpeed = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	r.MaxSpeed = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	return r, nil
}

// WriteRecord writes one whole record to w, atomically at record
// granularity (a single Write call of exactly RecordSize bytes).
func WriteRecord(w io.Writer, r Record) error {
	buf := r.Encode()
	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

// ReadRecord reads one whole record from r. It returns io.EOF only when
// zero bytes could be read at a record boundary; a partial trailing
// record is reported as io.ErrUnexpectedEOF so callers can distinguish a
// clean shutdown from a truncated stream.
func ReadRecord(r io.Reader) (Record, error) {
	buf := make([]byte, RecordSize)
	_, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, io.ErrUnexpectedEOF
		}
		return Record{}, err
	}
	return Decode(buf)
}
