package config_test

import (
	"testing"

	"github.com/nalix-net/nalix/config"
)

func TestDefaultRoundTripsThroughJSON(t *testing.T) {
	cfg := config.Default()
	b, err := config.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out config.Config
	if err := config.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Port != cfg.Port || out.MaxConnectionsPerIP != cfg.MaxConnectionsPerIP {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, cfg)
	}
	if len(out.BufferAllocations) != len(cfg.BufferAllocations) {
		t.Fatalf("expected %d buffer allocations, got %d", len(cfg.BufferAllocations), len(out.BufferAllocations))
	}
}

func TestParseBufferAllocations(t *testing.T) {
	allocs, err := config.ParseBufferAllocations("256,0.4;512,0.25;1024,0.35")
	if err != nil {
		t.Fatalf("ParseBufferAllocations: %v", err)
	}
	if len(allocs) != 3 {
		t.Fatalf("expected 3 allocations, got %d", len(allocs))
	}
	if allocs[0].Size != 256 || allocs[0].Fraction != 0.4 {
		t.Fatalf("unexpected first allocation: %+v", allocs[0])
	}
}

func TestParseBufferAllocationsRejectsMalformedEntry(t *testing.T) {
	if _, err := config.ParseBufferAllocations("256;512,0.5"); err == nil {
		t.Fatal("expected error for malformed entry")
	}
}

func TestMemsysConfigTranslation(t *testing.T) {
	cfg := config.Default()
	mc := cfg.MemsysConfig()
	if mc.TotalBuffers != cfg.TotalBuffers {
		t.Fatalf("expected TotalBuffers %d, got %d", cfg.TotalBuffers, mc.TotalBuffers)
	}
	if len(mc.Allocations) != len(cfg.BufferAllocations) {
		t.Fatalf("expected %d allocations, got %d", len(cfg.BufferAllocations), len(mc.Allocations))
	}
}
