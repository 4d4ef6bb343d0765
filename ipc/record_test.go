// ipc/record_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ipc

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := Record{
		Type:     PaymentRequest,
		AVNID:    1001,
		Airline:  "Blue Dart",
		Flight:   "BD1234",
		Amount:   805000.0,
		Details:  "Unpaid",
		MinSpeed: 100,
		MaxSpeed: 200,
	}
	buf := r.Encode()
	require.Len(t, buf, RecordSize)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestEncodeTruncatesOverlongFields(t *testing.T) {
	r := Record{
		Type:    AVNCreated,
		Airline: strings.Repeat("X", 100),
		Flight:  strings.Repeat("Y", 100),
		Details: strings.Repeat("Z", 100),
	}
	buf := r.Encode()
	got, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, got.Airline, 31)
	require.Len(t, got.Flight, 15)
	require.Len(t, got.Details, 63)
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, RecordSize-1))
	require.ErrorIs(t, err, ErrShortRecord)
}

func TestWriteReadRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := Record{Type: QueryAVN, AVNID: 42, Airline: "PIA", Flight: "PIA100"}
	require.NoError(t, WriteRecord(&buf, want))

	got, err := ReadRecord(&buf)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestReadRecordReturnsEOFOnEmptyStream(t *testing.T) {
	_, err := ReadRecord(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}

func TestReadRecordReturnsUnexpectedEOFOnPartialRecord(t *testing.T) {
	_, err := ReadRecord(bytes.NewReader(make([]byte, RecordSize-3)))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRecordTypeString(t *testing.T) {
	require.Equal(t, "AVN_CREATED", AVNCreated.String())
	require.Equal(t, "PAYMENT_REQUEST", PaymentRequest.String())
	require.Equal(t, "PAYMENT_CONFIRMATION", PaymentConfirmation.String())
	require.Equal(t, "UNKNOWN", RecordType(999).String())
}
