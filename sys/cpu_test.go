// Package sys provides methods to read system information.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package sys_test

import (
	"testing"

	"github.com/nalix-net/nalix/sys"
)

func TestNumCPUPositive(t *testing.T) {
	if sys.NumCPU() < 1 {
		t.Fatalf("NumCPU() must be >= 1, got %d", sys.NumCPU())
	}
}
