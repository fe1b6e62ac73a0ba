// Package config defines the runtime's typed configuration surface (spec
// §6). Loading from a file or environment is out of scope (an explicit
// non-goal); callers construct a Config value directly — typically
// populated by an external collaborator outside this module.
//
// Grounded on the teacher's jsoniter-tagged config structs (dsort.go's
// jsoniter.ConfigFastest usage) generalized from dSort job parameters to
// the runtime's own knobs.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/nalix-net/nalix/cmn/k8s"
	"github.com/nalix-net/nalix/crypto"
	"github.com/nalix-net/nalix/memsys"
)

var js = jsoniter.ConfigFastest

// BufferAllocation is one size class's share of TotalBuffers.
type BufferAllocation struct {
	Size     int     `json:"size"`
	Fraction float64 `json:"fraction"`
}

// Config is the runtime's full configuration surface.
type Config struct {
	// Admission
	MaxConnectionsPerIP int `json:"max_connections_per_ip"`

	// Buffer Pool
	TotalBuffers      int                `json:"total_buffers"`
	BufferAllocations []BufferAllocation `json:"buffer_allocations"`

	// Throttling
	MaxTokens            int `json:"max_tokens"`
	RefillIntervalMs     int `json:"refill_interval_ms"`
	TokensPerRefill      int `json:"tokens_per_refill"`
	LockoutSeconds       int `json:"lockout_seconds"`
	DenialsBeforeLockout int `json:"denials_before_lockout"`

	// Listener
	ServerAddress string `json:"server_address"`
	Port          int    `json:"port"`

	// Security / handshake
	EncryptionMode      crypto.Mode `json:"encryption_mode"`
	HandshakeTimeoutMs  int         `json:"handshake_timeout_ms"`
	HeartbeatIntervalMs int         `json:"heartbeat_interval_ms"`
	BearerSecret        string      `json:"bearer_secret"` // HMAC key for the authority-upgrade bearer token

	// Container-aware paths
	DataPath   string `json:"data_path"`
	LogsPath   string `json:"logs_path"`
	ConfigPath string `json:"config_path"`
}

// Default returns a Config with the spec's illustrative defaults, most
// notably the buffer allocation fractions from §4.6.
func Default() Config {
	return Config{
		MaxConnectionsPerIP: 64,
		TotalBuffers:        4096,
		BufferAllocations: []BufferAllocation{
			{Size: 256, Fraction: 0.40},
			{Size: 512, Fraction: 0.25},
			{Size: 1024, Fraction: 0.15},
			{Size: 2048, Fraction: 0.10},
			{Size: 4096, Fraction: 0.05},
			{Size: 8192, Fraction: 0.03},
			{Size: 16384, Fraction: 0.02},
		},
		MaxTokens:            100,
		RefillIntervalMs:     1000,
		TokensPerRefill:      10,
		LockoutSeconds:       60,
		DenialsBeforeLockout: 20,
		ServerAddress:        "0.0.0.0",
		Port:                 9000,
		EncryptionMode:       crypto.ModeGCM,
		HandshakeTimeoutMs:   5000,
		HeartbeatIntervalMs:  30000,
		BearerSecret:         "change-me",
		DataPath:             k8s.DataPath("./data"),
		LogsPath:             k8s.LogsPath("./logs"),
		ConfigPath:           k8s.ConfigPath("./config"),
	}
}

// MemsysConfig translates the configuration surface's buffer sizing knobs
// into a memsys.Config ready for NewBufferPool.
func (c Config) MemsysConfig() memsys.Config {
	allocs := make([]memsys.Allocation, len(c.BufferAllocations))
	for i, a := range c.BufferAllocations {
		allocs[i] = memsys.Allocation{Size: a.Size, Fraction: a.Fraction}
	}
	return memsys.Config{TotalBuffers: c.TotalBuffers, Allocations: allocs}
}

// ParseBufferAllocations parses the spec's "size,ratio;size,ratio;..."
// string format, e.g. "256,0.4;512,0.25;1024,0.15;2048,0.1;4096,0.05;8192,0.03;16384,0.02".
func ParseBufferAllocations(s string) ([]BufferAllocation, error) {
	parts := strings.Split(s, ";")
	out := make([]BufferAllocation, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ",")
		if len(fields) != 2 {
			return nil, fmt.Errorf("config: malformed buffer allocation entry %q", part)
		}
		size, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, fmt.Errorf("config: invalid size in %q: %w", part, err)
		}
		fraction, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid fraction in %q: %w", part, err)
		}
		out = append(out, BufferAllocation{Size: size, Fraction: fraction})
	}
	return out, nil
}

// Marshal serializes cfg with the runtime's fastest jsoniter configuration.
func Marshal(cfg Config) ([]byte, error) { return js.Marshal(cfg) }

// Unmarshal parses cfg from JSON produced by Marshal (or hand-authored).
func Unmarshal(b []byte, cfg *Config) error { return js.Unmarshal(b, cfg) }
