package xoshiro256_test

import (
	"testing"

	"github.com/nalix-net/nalix/uid/xoshiro256"
)

func TestHashDeterministic(t *testing.T) {
	a := xoshiro256.Hash(4573842)
	b := xoshiro256.Hash(4573842)
	if a != b {
		t.Fatalf("Hash must be deterministic, got %d then %d", a, b)
	}
	if xoshiro256.Hash(0) == xoshiro256.Hash(1) {
		t.Fatal("expected distinct inputs to produce distinct hashes")
	}
}

func TestSourceProducesVaryingValues(t *testing.T) {
	src := xoshiro256.NewSource(1)
	a := src.Next()
	b := src.Next()
	if a == b {
		t.Fatal("expected consecutive Next() calls to differ")
	}
}

func TestJitterBounded(t *testing.T) {
	src := xoshiro256.NewSource(42)
	for i := 0; i < 1000; i++ {
		j := src.Jitter(100)
		if j < 0 || j >= 100 {
			t.Fatalf("jitter out of bounds: %d", j)
		}
	}
	if src.Jitter(0) != 0 {
		t.Fatal("expected zero max to yield zero jitter")
	}
}
