package memsys_test

import (
	"testing"

	"github.com/nalix-net/nalix/memsys"
)

func newPool() *memsys.BufferPool {
	return memsys.NewBufferPool(memsys.Config{
		TotalBuffers: 100,
		Allocations: []memsys.Allocation{
			{Size: 256, Fraction: 0.5},
			{Size: 4096, Fraction: 0.5},
		},
	})
}

func TestRentReturnsExactClassSize(t *testing.T) {
	bp := newPool()
	buf := bp.Rent(100)
	if len(buf) != 256 {
		t.Fatalf("expected 256-byte buffer, got %d", len(buf))
	}
	buf2 := bp.Rent(1000)
	if len(buf2) != 4096 {
		t.Fatalf("expected 4096-byte buffer, got %d", len(buf2))
	}
}

func TestRentBeyondLargestClassAllocatesDirect(t *testing.T) {
	bp := newPool()
	buf := bp.Rent(1 << 20)
	if len(buf) != 1<<20 {
		t.Fatalf("expected direct allocation of requested size, got %d", len(buf))
	}
}

func TestReturnRecyclesBuffer(t *testing.T) {
	bp := newPool()
	before := bp.Stats()[0].Free
	buf := bp.Rent(1)
	bp.Return(buf)
	after := bp.Stats()[0].Free
	if after != before {
		t.Fatalf("expected free count restored to %d, got %d", before, after)
	}
}

func TestReturnZeroesBuffer(t *testing.T) {
	bp := newPool()
	buf := bp.Rent(1)
	buf[0] = 0xFF
	bp.Return(buf)
	buf2 := bp.Rent(1)
	if buf2[0] != 0 {
		t.Fatalf("expected recycled buffer to be zeroed, got %x", buf2[0])
	}
}

func TestRentMissTriggersGrowth(t *testing.T) {
	bp := memsys.NewBufferPool(memsys.Config{
		TotalBuffers: 8,
		Allocations:  []memsys.Allocation{{Size: 64, Fraction: 1.0}},
	})
	initialTarget := bp.Stats()[0].Target
	leases := make([][]byte, 0, initialTarget+1)
	for i := 0; i < initialTarget+1; i++ {
		leases = append(leases, bp.Rent(64))
	}
	if bp.Stats()[0].Target <= initialTarget {
		t.Fatalf("expected target to grow after exhausting free list, got %d", bp.Stats()[0].Target)
	}
	_ = leases
}

func TestShrinkReclaimsExcessFree(t *testing.T) {
	bp := memsys.NewBufferPool(memsys.Config{
		TotalBuffers: 4,
		Allocations:  []memsys.Allocation{{Size: 32, Fraction: 1.0}},
	})
	for i := 0; i < 50; i++ {
		bp.Return(make([]byte, 32))
	}
	bp.Shrink()
	st := bp.Stats()[0]
	if st.Free > st.Target+8 {
		t.Fatalf("expected shrink to bound free near target, got free=%d target=%d", st.Free, st.Target)
	}
}
