// Package nlog is the runtime's own buffered logger.
/*
 * Copyright (c) 2023-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog_test

import (
	"testing"

	"github.com/nalix-net/nalix/cmn/nlog"
)

func TestLogDoesNotPanic(t *testing.T) {
	nlog.Infof("hello %s", "world")
	nlog.Warningln("careful")
	nlog.Errorln("boom")
	nlog.Flush()
	if nlog.Since() < 0 {
		t.Fatalf("Since() must be non-negative")
	}
}
