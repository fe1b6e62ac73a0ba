package memsys_test

import (
	"testing"

	"github.com/nalix-net/nalix/memsys"
)

type leaseStub struct {
	n int
}

func (l *leaseStub) Reset() { l.n = 0 }

func TestObjectPoolResetsOnPut(t *testing.T) {
	pool := memsys.NewObjectPool(func() *leaseStub { return &leaseStub{} })
	v := pool.Get()
	v.n = 42
	pool.Put(v)
	v2 := pool.Get()
	if v2.n != 0 {
		t.Fatalf("expected reset object, got n=%d", v2.n)
	}
}
