package wire_test

import (
	"bytes"
	"testing"

	"github.com/nalix-net/nalix/wire"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := wire.New(0x1234, 7, wire.FlagReliable, wire.PriorityHigh, 99, []byte("payload"))
	encoded := p.Encode()
	got, err := wire.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Magic != p.Magic || got.Opcode != p.Opcode || got.SequenceID != p.SequenceID {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, p)
	}
	if !bytes.Equal(got.Payload, p.Payload) {
		t.Fatalf("payload mismatch: %q vs %q", got.Payload, p.Payload)
	}
}

func TestDecodeRejectsCorruptChecksum(t *testing.T) {
	p := wire.New(1, 1, 0, wire.PriorityNormal, 1, []byte("data"))
	encoded := p.Encode()
	encoded[len(encoded)-1] ^= 0xFF // corrupt last payload byte
	if _, err := wire.Decode(encoded); err != wire.ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestFlagsHas(t *testing.T) {
	f := wire.FlagEncrypted | wire.FlagCompressed
	if !f.Has(wire.FlagEncrypted) || !f.Has(wire.FlagCompressed) {
		t.Fatal("expected both flags set")
	}
	if f.Has(wire.FlagSigned) {
		t.Fatal("expected Signed flag unset")
	}
}
