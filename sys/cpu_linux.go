//go:build linux

// Package sys provides methods to read system information used to size
// the runtime's worker pools and GOMAXPROCS.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package sys

import (
	"bufio"
	"errors"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const (
	rootProcess   = "/proc/1/cgroup"
	contCPULimit  = "/sys/fs/cgroup/cpu/cpu.cfs_quota_us"
	contCPUPeriod = "/sys/fs/cgroup/cpu/cpu.cfs_period_us"
	hostLoadAvg   = "/proc/loadavg"
)

// isContainerized returns true if the process is running inside a
// container (docker/lxc/k8s).
//
// How to detect being inside a container:
// https://stackoverflow.com/questions/20010199/how-to-determine-if-a-process-runs-inside-lxc-docker
func isContainerized() bool {
	yes, _ := readLines(rootProcess, func(line string) bool {
		return strings.Contains(line, "docker") || strings.Contains(line, "lxc") || strings.Contains(line, "kube")
	})
	return yes
}

// containerNumCPU returns an approximate number of CPUs allocated to the
// container: with no limit configured (negative quota) all host CPUs are
// used; otherwise quota/period is rounded up.
func containerNumCPU() (int, error) {
	quota, err := readOneInt64(contCPULimit)
	if err != nil {
		return 0, err
	}
	if quota <= 0 {
		return runtime.NumCPU(), nil
	}
	period, err := readOneInt64(contCPUPeriod)
	if err != nil {
		return 0, err
	}
	if period == 0 {
		return 0, errors.New("failed to read container CPU info")
	}
	approx := (quota + period - 1) / period
	if approx < 1 {
		approx = 1
	}
	return int(approx), nil
}

// LoadAverage returns the system load average.
func LoadAverage() (avg LoadAvg, err error) {
	line, err := readOneLine(hostLoadAvg)
	if err != nil {
		return avg, err
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return avg, errors.New("unexpected /proc/loadavg format")
	}
	if avg.One, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return avg, err
	}
	if avg.Five, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return avg, err
	}
	avg.Fifteen, err = strconv.ParseFloat(fields[2], 64)
	return avg, err
}

func readLines(path string, match func(string) bool) (found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if match(sc.Text()) {
			return true, nil
		}
	}
	return false, sc.Err()
}

func readOneLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if sc.Scan() {
		return sc.Text(), nil
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", errors.New("empty file: " + path)
}

func readOneInt64(path string) (int64, error) {
	line, err := readOneLine(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(line), 10, 64)
}
