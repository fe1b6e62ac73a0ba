package main

import (
	"net"
	"strconv"
	"time"

	"github.com/nalix-net/nalix/admission"
	"github.com/nalix-net/nalix/catalog"
	"github.com/nalix-net/nalix/config"
	"github.com/nalix-net/nalix/connection"
	"github.com/nalix-net/nalix/dispatch"
	"github.com/nalix-net/nalix/hk"
	"github.com/nalix-net/nalix/memsys"
	"github.com/nalix-net/nalix/server"
	"github.com/nalix-net/nalix/stats"
	"github.com/nalix-net/nalix/throttle"
	"github.com/nalix-net/nalix/uid"
)

// Runtime is the explicit, fully-wired construction of every subsystem
// this process hosts (spec §9: no hidden package-level globals, no
// reflection-driven auto-wiring — the caller assembles one value and hands
// it to a Listener). cmd/nalixd is its only constructor.
type Runtime struct {
	Config  config.Config
	Pool    *memsys.BufferPool
	Catalog *catalog.Catalog

	Admission *admission.Table
	Throttle  *throttle.Limiter
	Router    *dispatch.Router
	Stats     *stats.Tracker

	Snowflake *uid.Snowflake
	Listener  *server.Listener
}

// NewRuntime builds every subsystem and wires the dispatch pipeline's fixed
// middleware stack (spec §5): Authentication and Unwrap in Inbound,
// Timeout in PreDispatch, RateLimit and Wrap in Outbound.
func NewRuntime(cfg config.Config) (*Runtime, error) {
	pool := memsys.NewBufferPool(cfg.MemsysConfig())

	cat, err := buildCatalog()
	if err != nil {
		return nil, err
	}

	adm := admission.New(admission.Config{MaxConnectionsPerIP: cfg.MaxConnectionsPerIP})

	limiter := throttle.New(throttle.Config{
		MaxTokens:            cfg.MaxTokens,
		RefillInterval:       time.Duration(cfg.RefillIntervalMs) * time.Millisecond,
		TokensPerRefill:      cfg.TokensPerRefill,
		LockoutDuration:      time.Duration(cfg.LockoutSeconds) * time.Second,
		DenialsBeforeLockout: cfg.DenialsBeforeLockout,
	})

	tracker := stats.NewTracker()

	router := dispatch.NewRouter()
	router.Use(dispatch.AuthenticationMiddleware(requiredAuthorityFor))
	router.Use(dispatch.UnwrapMiddleware(cat))
	router.Use(dispatch.TimeoutMiddleware(timeoutBudgetFor))
	router.Use(dispatch.RateLimitMiddleware(limiter))
	router.Use(dispatch.WrapMiddleware(cat))
	if err := registerHandlers(router, []byte(cfg.BearerSecret)); err != nil {
		return nil, err
	}

	sf := uid.NewSnowflake(uid.MachineID())

	hk.Reg("buffer-pool-sample"+hk.NameSuffix, func() time.Duration {
		tracker.SampleBufferPool(pool)
		pool.Shrink()
		return time.Minute
	}, time.Minute)
	hk.Reg("throttle-sweep"+hk.NameSuffix, func() time.Duration {
		limiter.Sweep()
		return time.Minute
	}, time.Minute)

	hooks := server.Hooks{
		OnAccept: func(net.Addr) { tracker.ConnectionOpened() },
		OnClose:  func(net.Addr) { tracker.ConnectionClosed() },
		OnDenied: func(net.Addr) { tracker.AdmissionDenied() },
	}
	addr := cfg.ServerAddress + ":" + strconv.Itoa(cfg.Port)
	ln := server.New(addr, pool, adm, cat, router, sf, hooks)
	ln.SetHeartbeatInterval(time.Duration(cfg.HeartbeatIntervalMs) * time.Millisecond)

	return &Runtime{
		Config:    cfg,
		Pool:      pool,
		Catalog:   cat,
		Admission: adm,
		Throttle:  limiter,
		Router:    router,
		Stats:     tracker,
		Snowflake: sf,
		Listener:  ln,
	}, nil
}

// requiredAuthorityFor resolves the minimum Authority a given opcode
// requires. The handler registry itself enforces the same requirement at
// dispatch time; this hook lets AuthenticationMiddleware short-circuit
// before Unwrap spends work decrypting/decompressing a packet that will be
// rejected anyway.
func requiredAuthorityFor(opcode uint16) connection.Authority {
	if req, ok := opcodeAuthority[opcode]; ok {
		return req
	}
	return connection.AuthorityGuest
}

func timeoutBudgetFor(uint16) time.Duration { return 5 * time.Second }
