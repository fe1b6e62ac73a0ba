// Package nlog is the runtime's own buffered logger.
/*
 * Copyright (c) 2023-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import "flag"

func InitFlags(flset *flag.FlagSet) {
	flset.BoolVar(&toStderr, "logtostderr", false, "log to standard error instead of files")
	flset.BoolVar(&alsoToStderr, "alsologtostderr", false, "log to standard error as well as files")
}

func InfoLogName() string { return "nalix.INFO" }
func ErrLogName() string  { return "nalix.ERROR" }
