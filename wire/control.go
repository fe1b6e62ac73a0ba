package wire

import (
	"bytes"

	"github.com/tinylib/msgp/msgp"
)

// ControlType identifies the kind of out-of-band control packet the
// dispatch pipeline's middleware emits (spec §4.3).
type ControlType uint8

const (
	ControlFail ControlType = iota
	ControlThrottle
	ControlAck
	ControlHeartbeat
)

// ReasonCode qualifies a Control packet, echoed so the client can react
// programmatically instead of parsing a message string.
type ReasonCode uint8

const (
	ReasonNone ReasonCode = iota
	ReasonUnauthorized
	ReasonRateLimited
	ReasonTimeout
	ReasonCryptoUnsupported
	ReasonCompressionUnsupported
	ReasonNotFound
	ReasonTransformFailed
)

// SuggestedAction optionally tells the client what to do next (e.g. retry
// after a delay, re-authenticate).
type SuggestedAction uint8

const (
	ActionNone SuggestedAction = iota
	ActionRetryAfter
	ActionReauthenticate
	ActionDisconnect
)

// Control is the payload of a control-type packet: FAIL/THROTTLE/ACK
// replies carry one of these instead of an application payload.
type Control struct {
	Type            ControlType
	Reason          ReasonCode
	Action          SuggestedAction
	SequenceID      uint32
	Arg0, Arg1, Arg2 uint32
}

// MagicControl is the fixed magic number for control packets. cmd/nalixd
// registers it in the catalog with the same standard-header deserializer it
// uses for application packets.
const MagicControl uint32 = 0x434E5452 // "CNTR"

// EncodeControl serializes a Control into a control packet's payload as a
// msgp fixed-size array, cheaper to decode than a map for a hot middleware
// path.
func EncodeControl(c Control) []byte {
	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)
	_ = w.WriteArrayHeader(7)
	_ = w.WriteUint8(uint8(c.Type))
	_ = w.WriteUint8(uint8(c.Reason))
	_ = w.WriteUint8(uint8(c.Action))
	_ = w.WriteUint32(c.SequenceID)
	_ = w.WriteUint32(c.Arg0)
	_ = w.WriteUint32(c.Arg1)
	_ = w.WriteUint32(c.Arg2)
	_ = w.Flush()
	return buf.Bytes()
}

// DecodeControl parses a control packet's payload.
func DecodeControl(buf []byte) (Control, bool) {
	r := msgp.NewReader(bytes.NewReader(buf))
	n, err := r.ReadArrayHeader()
	if err != nil || n < 7 {
		return Control{}, false
	}
	var c Control
	typ, err := r.ReadUint8()
	if err != nil {
		return Control{}, false
	}
	reason, err := r.ReadUint8()
	if err != nil {
		return Control{}, false
	}
	action, err := r.ReadUint8()
	if err != nil {
		return Control{}, false
	}
	c.Type = ControlType(typ)
	c.Reason = ReasonCode(reason)
	c.Action = SuggestedAction(action)
	if c.SequenceID, err = r.ReadUint32(); err != nil {
		return Control{}, false
	}
	if c.Arg0, err = r.ReadUint32(); err != nil {
		return Control{}, false
	}
	if c.Arg1, err = r.ReadUint32(); err != nil {
		return Control{}, false
	}
	if c.Arg2, err = r.ReadUint32(); err != nil {
		return Control{}, false
	}
	return c, true
}

// NewControlPacket builds a full wire Packet wrapping a Control.
func NewControlPacket(c Control, seq uint32) Packet {
	return New(MagicControl, uint16(c.Type), 0, PriorityHigh, seq, EncodeControl(c))
}
