package uid_test

import (
	"testing"

	"github.com/nalix-net/nalix/uid"
)

func TestSnowflakeMonotonicAndSplit(t *testing.T) {
	sf := uid.NewSnowflake(7)
	var prev uint64
	for i := 0; i < 5000; i++ {
		id, err := sf.Next(3)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if id <= prev {
			t.Fatalf("expected monotonically increasing ids, got %d after %d", id, prev)
		}
		prev = id
	}
	typ, machine, _, _ := uid.Split(prev)
	if typ != 3 {
		t.Fatalf("expected type 3, got %d", typ)
	}
	if machine != 7 {
		t.Fatalf("expected machine 7, got %d", machine)
	}
}

func TestSnowflakeBurstYieldsUniqueIDs(t *testing.T) {
	sf := uid.NewSnowflake(1)
	ids := make(map[uint64]bool, 1000)
	for i := 0; i < 1000; i++ {
		id, err := sf.Next(0)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if ids[id] {
			t.Fatalf("duplicate id %d", id)
		}
		ids[id] = true
	}
}
