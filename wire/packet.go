// Package wire defines the packet wire model shared by the catalog,
// dispatch, and transport packages: header layout, flag bits, priority
// levels, and the control-packet shape used for FAIL/THROTTLE/ACK replies.
//
// Grounded on the teacher's object-metadata header conventions (core/lom.go
// field layout, checksum-then-payload ordering) generalized to a small
// fixed binary header instead of an extended-attribute blob.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/nalix-net/nalix/cmn/clock"
)

// MaxPayloadLen bounds a single packet's payload so header + payload never
// exceeds the Framed Channel's uint16 LEN field: 65535 - 2 frame header
// bytes - 24 bytes of fixed packet header (headerLen) leaves 65509, and
// this bound keeps 6 bytes of slack below that.
const MaxPayloadLen = 65503

// Flags is a bit set over the packet's control attributes.
type Flags uint8

const (
	FlagEncrypted Flags = 1 << iota
	FlagCompressed
	FlagSigned
	FlagAckRequired
	FlagIsAcknowledged
	FlagReliable
	FlagFragmented
	FlagStream
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Priority orders outbound delivery; higher values are serviced first by
// priority-aware senders.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// headerLen is the fixed-size portion of every packet: magic(4) +
// opcode(2) + flags(1) + priority(1) + sequenceId(4) + timestamp(8) +
// checksum(4).
const headerLen = 4 + 2 + 1 + 1 + 4 + 8 + 4

// Packet is the wire unit exchanged over a Framed Channel.
type Packet struct {
	Magic      uint32
	Opcode     uint16
	Flags      Flags
	Priority   Priority
	SequenceID uint32
	Timestamp  uint64 // microseconds since clock.Epoch
	Checksum   uint32 // CRC-32/IEEE over Payload
	Payload    []byte
}

// New builds a packet with Timestamp and Checksum filled in.
func New(magic uint32, opcode uint16, flags Flags, priority Priority, seq uint32, payload []byte) Packet {
	return Packet{
		Magic:      magic,
		Opcode:     opcode,
		Flags:      flags,
		Priority:   priority,
		SequenceID: seq,
		Timestamp:  clock.EpochMicros(),
		Checksum:   CRC32(payload),
		Payload:    payload,
	}
}

// Encode serializes the packet header followed by its payload.
func (p *Packet) Encode() []byte {
	buf := make([]byte, headerLen+len(p.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], p.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], p.Opcode)
	buf[6] = byte(p.Flags)
	buf[7] = byte(p.Priority)
	binary.LittleEndian.PutUint32(buf[8:12], p.SequenceID)
	binary.LittleEndian.PutUint64(buf[12:20], p.Timestamp)
	binary.LittleEndian.PutUint32(buf[20:24], p.Checksum)
	copy(buf[headerLen:], p.Payload)
	return buf
}

// ErrCorrupt is returned by Decode when the payload's checksum doesn't
// match the header's recorded checksum.
var ErrCorrupt = fmt.Errorf("wire: packet checksum mismatch")

// PeekMagic reads the magic field from a raw frame without validating or
// fully parsing it, letting a caller pick the right catalog Deserializer
// before paying for a full decode.
func PeekMagic(buf []byte) (uint32, bool) {
	if len(buf) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf[0:4]), true
}

// Decode parses a header+payload buffer into a Packet, validating the
// payload checksum (spec invariant: checksum == CRC32(payload)).
func Decode(buf []byte) (Packet, error) {
	if len(buf) < headerLen {
		return Packet{}, fmt.Errorf("wire: frame too short for header: %d bytes", len(buf))
	}
	p := Packet{
		Magic:      binary.LittleEndian.Uint32(buf[0:4]),
		Opcode:     binary.LittleEndian.Uint16(buf[4:6]),
		Flags:      Flags(buf[6]),
		Priority:   Priority(buf[7]),
		SequenceID: binary.LittleEndian.Uint32(buf[8:12]),
		Timestamp:  binary.LittleEndian.Uint64(buf[12:20]),
		Checksum:   binary.LittleEndian.Uint32(buf[20:24]),
		Payload:    buf[headerLen:],
	}
	if CRC32(p.Payload) != p.Checksum {
		return Packet{}, ErrCorrupt
	}
	return p, nil
}
