package uid_test

import (
	"testing"

	"github.com/nalix-net/nalix/uid"
)

func TestMachineIDDeterministic(t *testing.T) {
	a := uid.MachineID()
	b := uid.MachineID()
	if a != b {
		t.Fatalf("expected deterministic machine id, got %d then %d", a, b)
	}
	if a > 0xFFF {
		t.Fatalf("expected 12-bit machine id, got %d", a)
	}
}

func TestShortIDNonEmptyAndDistinct(t *testing.T) {
	a := uid.ShortID()
	b := uid.ShortID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty short ids")
	}
	if a == b {
		t.Fatal("expected distinct short ids across calls")
	}
}
