package catalog_test

import (
	"testing"

	"github.com/nalix-net/nalix/catalog"
	"github.com/nalix-net/nalix/wire"
)

func echoDeserializer(magic uint32, raw []byte) (wire.Packet, error) {
	return wire.New(magic, 0, 0, wire.PriorityNormal, 0, raw), nil
}

func TestBuildAndDeserialize(t *testing.T) {
	cat, err := catalog.NewBuilder().
		RegisterPacketType(1, echoDeserializer).
		RegisterPacketType(2, echoDeserializer).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p, err := cat.Deserialize(1, []byte("payload"))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if p.Magic != 1 {
		t.Fatalf("expected magic 1, got %d", p.Magic)
	}
	if _, err := cat.Deserialize(99, nil); err == nil {
		t.Fatal("expected error for unregistered magic")
	}
}

func TestDuplicateMagicIsFatalBuildError(t *testing.T) {
	_, err := catalog.NewBuilder().
		RegisterPacketType(1, echoDeserializer).
		RegisterPacketType(1, echoDeserializer).
		Build()
	if err == nil {
		t.Fatal("expected duplicate-magic build error")
	}
}

func TestTransformerRequiresDeserializerFirst(t *testing.T) {
	_, err := catalog.NewBuilder().
		RegisterHandler(7, catalog.Transformer{}).
		Build()
	if err == nil {
		t.Fatal("expected error registering transformer before deserializer")
	}
}

func TestTransformerPresenceCheck(t *testing.T) {
	cat, err := catalog.NewBuilder().
		RegisterPacketType(1, echoDeserializer).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := cat.Transformer(1); ok {
		t.Fatal("expected no transformer registered for magic 1")
	}
}
