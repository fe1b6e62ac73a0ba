package transport_test

import (
	"net"
	"testing"
	"time"

	"github.com/nalix-net/nalix/memsys"
	"github.com/nalix-net/nalix/transport"
)

func testPool() *memsys.BufferPool {
	return memsys.NewBufferPool(memsys.Config{
		TotalBuffers: 16,
		Allocations: []memsys.Allocation{
			{Size: 256, Fraction: 0.5},
			{Size: 4096, Fraction: 0.5},
		},
	})
}

func TestChannelRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	pool := testPool()
	ch := transport.New(server, pool)

	received := make(chan []byte, 1)
	ch.SetCallbacks(nil, func(_ any, lease *transport.BufferLease) {
		buf := append([]byte(nil), lease.Payload...)
		lease.Release()
		received <- buf
	}, nil)
	ch.Start(nil)
	defer ch.Dispose()

	clientCh := transport.New(client, pool)
	clientCh.Start(nil)
	defer clientCh.Dispose()

	if !clientCh.Send([]byte("hello")) {
		t.Fatal("Send returned false")
	}

	select {
	case buf := <-received:
		if string(buf) != "hello" {
			t.Fatalf("expected %q, got %q", "hello", buf)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestChannelStartIsIdempotent(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	pool := testPool()
	ch := transport.New(server, pool)
	ch.Start(nil)
	ch.Start(nil) // second call must be a no-op, not a second receive loop
	defer ch.Dispose()
}

func TestChannelSendFailsAfterDispose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	pool := testPool()
	ch := transport.New(server, pool)
	ch.Start(nil)
	ch.Dispose()

	if ch.Send([]byte("x")) {
		t.Fatal("expected Send to fail on disposed channel")
	}
}
