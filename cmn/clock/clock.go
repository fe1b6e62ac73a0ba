// Package clock provides the runtime's single monotonic UTC time source:
// Unix-millisecond timestamps for heartbeats and rate-limit windows, and
// wire-format microsecond timestamps relative to the fixed application
// epoch (2020-01-01T00:00:00Z).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package clock

import (
	"time"

	"github.com/nalix-net/nalix/cmn/mono"
)

// Epoch is the reference instant for wire-format packet timestamps and for
// the Snowflake ID timestamp field (see uid package).
var Epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	utcBase  = time.Now().UTC()
	nanoBase = mono.NanoTime()
)

// UtcNowPrecise returns the current UTC time derived from a fixed base
// captured at process start plus monotonic elapsed nanoseconds, so that
// successive calls within one process are guaranteed non-decreasing even
// across a wall-clock adjustment (NTP step, leap second, etc.).
func UtcNowPrecise() time.Time {
	elapsed := mono.NanoTime() - nanoBase
	return utcBase.Add(time.Duration(elapsed))
}

// UnixMillis is the current time in Unix milliseconds, used for heartbeats,
// last-activity tracking, and rate-limit bucket refill timing.
func UnixMillis() int64 { return UtcNowPrecise().UnixMilli() }

// EpochMicros is the current time in microseconds since Epoch, the unit
// used for the wire-format Packet.Timestamp field.
func EpochMicros() uint64 {
	return uint64(UtcNowPrecise().Sub(Epoch).Microseconds())
}

// EpochMillis is the current time in milliseconds since Epoch, the unit
// used for the Snowflake ID timestamp field.
func EpochMillis() int64 {
	return UtcNowPrecise().Sub(Epoch).Milliseconds()
}
