package connection_test

import (
	"net"
	"testing"

	"github.com/nalix-net/nalix/connection"
	"github.com/nalix-net/nalix/memsys"
	"github.com/nalix-net/nalix/transport"
	"github.com/nalix-net/nalix/uid"
)

func TestNewAssignsIDAndDefaults(t *testing.T) {
	sf := uid.NewSnowflake(1)
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	pool := memsys.NewBufferPool(memsys.Config{
		TotalBuffers: 8,
		Allocations:  []memsys.Allocation{{Size: 256, Fraction: 1.0}},
	})
	ch := transport.New(server, pool)
	conn, err := connection.New(sf, ch, server.LocalAddr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if conn.ID == 0 {
		t.Fatal("expected non-zero connection id")
	}
	if conn.Authority() != connection.AuthorityGuest {
		t.Fatalf("expected default authority Guest, got %v", conn.Authority())
	}
	if conn.Handshake() != connection.HandshakeNotStarted {
		t.Fatalf("expected default handshake state NotStarted, got %v", conn.Handshake())
	}
}

func TestUpgradeAuthorityOnlyIncreases(t *testing.T) {
	sf := uid.NewSnowflake(1)
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	pool := memsys.NewBufferPool(memsys.Config{TotalBuffers: 8, Allocations: []memsys.Allocation{{Size: 256, Fraction: 1.0}}})
	ch := transport.New(server, pool)
	conn, _ := connection.New(sf, ch, server.LocalAddr())

	conn.UpgradeAuthority(connection.AuthorityAdmin)
	conn.UpgradeAuthority(connection.AuthorityUser) // must not downgrade
	if conn.Authority() != connection.AuthorityAdmin {
		t.Fatalf("expected authority to remain Admin, got %v", conn.Authority())
	}
}
