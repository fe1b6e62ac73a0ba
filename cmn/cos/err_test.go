// Package cos provides common low-level types and utilities shared by the
// runtime's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos_test

import (
	"errors"
	"io"
	"syscall"
	"testing"

	"github.com/nalix-net/nalix/cmn/cos"
)

func TestErrsDedupAndBound(t *testing.T) {
	var e cos.Errs
	for i := 0; i < 10; i++ {
		e.Add(errors.New("boom"))
	}
	e.Add(errors.New("distinct"))
	if e.Cnt() != 2 {
		t.Fatalf("expected 2 distinct errors, got %d", e.Cnt())
	}
}

func TestIsBenignDisconnect(t *testing.T) {
	cases := []struct {
		err    error
		benign bool
	}{
		{nil, true},
		{syscall.ECONNRESET, true},
		{syscall.ECONNABORTED, true},
		{syscall.EPIPE, true},
		{io.ErrUnexpectedEOF, false},
		{errors.New("disk on fire"), false},
	}
	for _, c := range cases {
		if got := cos.IsBenignDisconnect(c.err); got != c.benign {
			t.Errorf("IsBenignDisconnect(%v) = %v, want %v", c.err, got, c.benign)
		}
	}
}
