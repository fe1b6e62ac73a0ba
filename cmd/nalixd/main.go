// Command nalixd is the packet server runtime's entrypoint: it constructs a
// Runtime value from flags/environment and serves connections until an
// interrupt or fatal error. Modeled on cmd/authn/main.go's flag parsing and
// signal-handling shape, generalized from a single HTTP server to the
// layered runtime this module builds (admission, throttling, catalog,
// dispatch, and the TCP listener).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nalix-net/nalix/cmn/cos"
	"github.com/nalix-net/nalix/cmn/k8s"
	"github.com/nalix-net/nalix/cmn/nlog"
	"github.com/nalix-net/nalix/config"
	"github.com/nalix-net/nalix/hk"
	"github.com/nalix-net/nalix/sys"
)

// Exit codes per the runtime's external contract: 0 normal shutdown, 1
// configuration error, 2 bind failure, 3 fatal internal error.
const (
	exitOK         = 0
	exitConfig     = 1
	exitBindFail   = 2
	exitFatalError = 3
)

var (
	addrFlag string
	portFlag int
)

func init() {
	flag.StringVar(&addrFlag, "address", "", "override Config.ServerAddress")
	flag.IntVar(&portFlag, "port", 0, "override Config.Port")
}

func main() {
	flag.Parse()
	sys.SetMaxProcs()
	k8s.Init()

	cfg := config.Default()
	if addrFlag != "" {
		cfg.ServerAddress = addrFlag
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cos.ExitLogf("invalid port %d", cfg.Port)
	}

	rt, err := NewRuntime(cfg)
	if err != nil {
		cos.ExitLogf("runtime construction failed: %v", err)
	}

	if err := rt.Listener.Listen(); err != nil {
		nlog.Errorf("bind failed on %s: %v", rt.bindAddr(), err)
		nlog.Flush(true)
		os.Exit(exitBindFail)
	}

	go func() { _ = hk.DefaultHK.Run() }()

	ctx, cancel := context.WithCancel(context.Background())
	installSignalHandler(cancel)

	nlog.Infof("nalixd serving on %s", rt.Listener.Addr())
	if err := rt.Listener.Run(ctx); err != nil {
		nlog.Errorf("fatal server error: %v", err)
		nlog.Flush(true)
		os.Exit(exitFatalError)
	}

	hk.DefaultHK.Stop(nil)
	nlog.Flush(true)
	os.Exit(exitOK)
}

func installSignalHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-c
		nlog.Infof("received %v, shutting down", sig)
		cancel()
	}()
}

func (rt *Runtime) bindAddr() string {
	return rt.Config.ServerAddress + ":" + strconv.Itoa(rt.Config.Port)
}
