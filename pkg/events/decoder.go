// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// FlushUnit is one JSON document flushed by the server on the listen stream.
// Records is nil when the server sent a document without records.
type FlushUnit struct {
	Records []Record `json:"Records"`
}

// Decoder yields flush units incrementally from a response body.
//
// Next returns io.EOF once the stream has ended. A *DecodeError means a single
// unit could not be parsed and the stream may still be read. Any other error
// means the stream is unusable.
type Decoder interface {
	Next() (*FlushUnit, error)
}

// DecoderFactory builds a Decoder over a response body.
type DecoderFactory func(io.Reader) Decoder

// DecodeError reports a malformed flush unit.
type DecodeError struct {
	Data []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode flush unit (%d bytes): %v", len(e.Data), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DefaultMaxUnitSize bounds a single flush unit read by NewLineDecoder.
const DefaultMaxUnitSize = 16 << 20

// ErrUnitTooLarge is returned when a line exceeds the decoder's size limit.
// It is terminal: the rest of the stream cannot be framed.
var ErrUnitTooLarge = errors.New("flush unit exceeds size limit")

type lineDecoder struct {
	s   *bufio.Scanner
	max int
}

// NewLineDecoder returns a Decoder for newline-delimited JSON. Blank lines,
// which servers send as keep-alives, are skipped.
func NewLineDecoder(r io.Reader) Decoder {
	return NewLineDecoderSize(r, DefaultMaxUnitSize)
}

// NewLineDecoderSize is NewLineDecoder with a custom per-line limit.
func NewLineDecoderSize(r io.Reader, maxUnitSize int) Decoder {
	if maxUnitSize <= 0 {
		maxUnitSize = DefaultMaxUnitSize
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, min(64<<10, maxUnitSize)), maxUnitSize)
	return &lineDecoder{s: s, max: maxUnitSize}
}

func (d *lineDecoder) Next() (*FlushUnit, error) {
	for d.s.Scan() {
		data := bytes.TrimSpace(d.s.Bytes())
		if len(data) == 0 {
			continue
		}
		var unit FlushUnit
		if err := json.Unmarshal(data, &unit); err != nil {
			return nil, &DecodeError{Data: bytes.Clone(data), Err: err}
		}
		return &unit, nil
	}

	err := d.s.Err()
	switch {
	case err == nil:
		return nil, io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return nil, fmt.Errorf("%w (%d bytes)", ErrUnitTooLarge, d.max)
	default:
		return nil, err
	}
}
