//go:build !mono

// Package mono provides low-level monotonic time primitives: a portable
// nanosecond counter (time.Now().Sub of a fixed base, mirroring the
// runtime.nanotime fast path gated behind the "mono" build tag). The
// application clock built on top of it lives in package cmn/clock.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var base = time.Now()

// NanoTime returns nanoseconds elapsed since process start, monotonic
// non-decreasing for the lifetime of the process.
func NanoTime() int64 { return time.Since(base).Nanoseconds() }
