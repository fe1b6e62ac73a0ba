// Package uid generates the runtime's identifiers: 64-bit Snowflake IDs for
// connections and packets, short string correlation IDs (ShortID), and
// the 12-bit machine field every Snowflake ID embeds.
//
// Grounded on the teacher's cmn/cos/uuid.go (shortid.Shortid usage,
// xxhash-derived node identifiers) generalized from "daemon ID" strings to
// the spec's packed-integer Snowflake layout.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package uid

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/nalix-net/nalix/cmn/clock"
	"github.com/nalix-net/nalix/cmn/debug"
)

const (
	typeBits      = 4
	machineBits   = 12
	timestampBits = 32
	sequenceBits  = 16

	machineMask   = 1<<machineBits - 1
	timestampMask = 1<<timestampBits - 1
	sequenceMask  = 1<<sequenceBits - 1

	machineShift   = sequenceBits + timestampBits
	timestampShift = sequenceBits
)

// Snowflake generates monotonically non-decreasing 64-bit IDs for one
// machine: type(4) | machine(12) | timestamp(32) | sequence(16).
type Snowflake struct {
	mu            sync.Mutex
	machine       uint16
	lastTimestamp int64
	seq           uint16
}

// NewSnowflake builds a generator for the given 12-bit machine field
// (truncated if wider).
func NewSnowflake(machine uint16) *Snowflake {
	return &Snowflake{machine: machine & machineMask}
}

// Next assembles one ID of the given 4-bit type tag. It blocks (spin-yield)
// if the 16-bit sequence overflows within a millisecond, and returns an
// error if the system clock is observed to move backwards.
func (s *Snowflake) Next(typ uint8) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := clock.EpochMillis()
	if now < s.lastTimestamp {
		return 0, fmt.Errorf("uid: clock moved backwards, refusing to generate id (now=%d last=%d)", now, s.lastTimestamp)
	}
	if now == s.lastTimestamp {
		s.seq = (s.seq + 1) & sequenceMask
		if s.seq == 0 {
			for now <= s.lastTimestamp {
				runtime.Gosched()
				now = clock.EpochMillis()
			}
		}
	} else {
		s.seq = 0
	}
	s.lastTimestamp = now

	id := (uint64(typ&0xF) << 60) |
		(uint64(s.machine&machineMask) << machineShift) |
		(uint64(now&timestampMask) << timestampShift) |
		uint64(s.seq&sequenceMask)
	return id, nil
}

// Split decomposes a Snowflake ID back into its fields, mainly for logging
// and tests.
func Split(id uint64) (typ uint8, machine uint16, timestampMs int64, seq uint16) {
	typ = uint8(id >> 60 & 0xF)
	machine = uint16(id >> machineShift & machineMask)
	timestampMs = int64(id >> timestampShift & timestampMask)
	seq = uint16(id & sequenceMask)
	return
}

func init() {
	debug.Assert(typeBits+machineBits+timestampBits+sequenceBits == 64)
}
