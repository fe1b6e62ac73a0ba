//go:build !linux

// Package sys provides methods to read system information used to size
// the runtime's worker pools and GOMAXPROCS.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package sys

import "errors"

func isContainerized() bool { return false }

func containerNumCPU() (int, error) { return 0, errors.New("not supported on this platform") }

func LoadAverage() (LoadAvg, error) { return LoadAvg{}, errors.New("not supported on this platform") }
