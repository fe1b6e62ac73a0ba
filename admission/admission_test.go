package admission_test

import (
	"testing"
	"time"

	"github.com/nalix-net/nalix/admission"
)

func TestDeniesAboveMaxConnections(t *testing.T) {
	tbl := admission.New(admission.Config{MaxConnectionsPerIP: 2})
	if !tbl.IsConnectionAllowed("1.2.3.4") {
		t.Fatal("expected first connection allowed")
	}
	if !tbl.IsConnectionAllowed("1.2.3.4") {
		t.Fatal("expected second connection allowed")
	}
	if tbl.IsConnectionAllowed("1.2.3.4") {
		t.Fatal("expected third connection denied")
	}
}

func TestConnectionClosedFreesSlot(t *testing.T) {
	tbl := admission.New(admission.Config{MaxConnectionsPerIP: 1})
	tbl.IsConnectionAllowed("5.6.7.8")
	if tbl.IsConnectionAllowed("5.6.7.8") {
		t.Fatal("expected denial at capacity")
	}
	tbl.ConnectionClosed("5.6.7.8")
	if !tbl.IsConnectionAllowed("5.6.7.8") {
		t.Fatal("expected slot freed after close")
	}
}

func TestConnectionClosedClampsAtZero(t *testing.T) {
	tbl := admission.New(admission.Config{MaxConnectionsPerIP: 1})
	tbl.ConnectionClosed("9.9.9.9") // never connected
	if snap := tbl.Snapshot("9.9.9.9"); snap.CurrentConnections != 0 {
		t.Fatalf("expected clamp at 0, got %d", snap.CurrentConnections)
	}
}

func TestCleanupRemovesStaleIdleEntries(t *testing.T) {
	tbl := admission.New(admission.Config{MaxConnectionsPerIP: 1})
	tbl.IsConnectionAllowed("1.1.1.1")
	tbl.ConnectionClosed("1.1.1.1")
	time.Sleep(5 * time.Millisecond)
	tbl.Cleanup(1 * time.Millisecond)
	if snap := tbl.Snapshot("1.1.1.1"); snap.TotalToday != 0 {
		t.Fatal("expected stale entry removed")
	}
}

func TestIndependentIPs(t *testing.T) {
	tbl := admission.New(admission.Config{MaxConnectionsPerIP: 1})
	if !tbl.IsConnectionAllowed("a") || !tbl.IsConnectionAllowed("b") {
		t.Fatal("expected independent IPs to each get their own slot")
	}
}
