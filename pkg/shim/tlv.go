// Copyright 2026 The relayshim Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shim

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/relayshim/relayshim/pkg/private/serrors"
)

// TLV types of the adaptation layer.
const (
	TypeAdaptationPacket uint64 = 600
	TypePacketType       uint64 = 601
	TypeLinkID           uint64 = 602
	TypeHopLimit         uint64 = 603
	TypeTunnelID         uint64 = 604
	TypePayload          uint64 = 605
)

// ErrCodec is the base of every encoding or decoding error of this package.
var ErrCodec = errors.New("adaptation codec error")

var (
	errTruncated   = errors.New("truncated")
	errBadInteger  = errors.New("invalid non-negative integer length")
	errCritical    = errors.New("unknown critical element")
	errTrailing    = errors.New("trailing bytes")
	errOuterType   = errors.New("not an adaptation packet")
	errUnknownKind = errors.New("unknown packet type")
	errMissing     = errors.New("missing element")
	errUnexpected  = errors.New("unexpected element")
	errDuplicate   = errors.New("duplicate element")
	errInvalidUTF8 = errors.New("identifier is not valid UTF-8")
)

// varNumberLen returns the encoded length of v as a TLV type or length.
func varNumberLen(v uint64) int {
	switch {
	case v < 253:
		return 1
	case v <= math.MaxUint16:
		return 3
	case v <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// putVarNumber writes v to b, which must have room for varNumberLen(v) octets.
func putVarNumber(b []byte, v uint64) int {
	switch {
	case v < 253:
		b[0] = byte(v)
		return 1
	case v <= math.MaxUint16:
		b[0] = 0xFD
		binary.BigEndian.PutUint16(b[1:], uint16(v))
		return 3
	case v <= math.MaxUint32:
		b[0] = 0xFE
		binary.BigEndian.PutUint32(b[1:], uint32(v))
		return 5
	default:
		b[0] = 0xFF
		binary.BigEndian.PutUint64(b[1:], v)
		return 9
	}
}

func readVarNumber(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, errTruncated
	}
	var n int
	switch b[0] {
	case 0xFD:
		n = 3
	case 0xFE:
		n = 5
	case 0xFF:
		n = 9
	default:
		return uint64(b[0]), 1, nil
	}
	if len(b) < n {
		return 0, 0, errTruncated
	}
	switch n {
	case 3:
		return uint64(binary.BigEndian.Uint16(b[1:])), n, nil
	case 5:
		return uint64(binary.BigEndian.Uint32(b[1:])), n, nil
	default:
		return binary.BigEndian.Uint64(b[1:]), n, nil
	}
}

// nonNegIntLen returns the shortest of 1, 2, 4 or 8 octets that holds v.
func nonNegIntLen(v uint64) int {
	switch {
	case v <= math.MaxUint8:
		return 1
	case v <= math.MaxUint16:
		return 2
	case v <= math.MaxUint32:
		return 4
	default:
		return 8
	}
}

func putNonNegInt(b []byte, v uint64) int {
	switch n := nonNegIntLen(v); n {
	case 1:
		b[0] = byte(v)
		return n
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
		return n
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
		return n
	default:
		binary.BigEndian.PutUint64(b, v)
		return n
	}
}

func readNonNegInt(b []byte) (uint64, error) {
	switch len(b) {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	case 8:
		return binary.BigEndian.Uint64(b), nil
	default:
		return 0, errBadInteger
	}
}

// element is one decoded TLV. Value aliases the decoded buffer.
type element struct {
	Type  uint64
	Value []byte
}

// readElement decodes the TLV at the start of b and returns it together with
// the number of octets it occupies.
func readElement(b []byte) (element, int, error) {
	typ, tn, err := readVarNumber(b)
	if err != nil {
		return element{}, 0, err
	}
	length, ln, err := readVarNumber(b[tn:])
	if err != nil {
		return element{}, 0, serrors.WrapNoStack("reading length", err, "type", typ)
	}
	start := tn + ln
	if length > uint64(len(b)-start) {
		return element{}, 0, serrors.WrapNoStack("reading value", errTruncated,
			"type", typ, "length", length, "available", len(b)-start)
	}
	end := start + int(length)
	return element{Type: typ, Value: b[start:end]}, end, nil
}

func elementLen(typ uint64, valueLen int) int {
	return varNumberLen(typ) + varNumberLen(uint64(valueLen)) + valueLen
}

// putElementHeader writes the type and length of an element to b and returns
// the number of octets written.
func putElementHeader(b []byte, typ uint64, valueLen int) int {
	n := putVarNumber(b, typ)
	return n + putVarNumber(b[n:], uint64(valueLen))
}

// isCritical reports whether an unrecognized element of type typ must fail
// decoding instead of being skipped.
func isCritical(typ uint64) bool {
	return typ < 32 || typ%2 == 1
}
