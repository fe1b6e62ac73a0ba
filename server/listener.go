// Package server owns the TCP accept loop and ties together admission,
// throttling, the packet catalog, and the dispatch pipeline for each
// accepted connection. Modeled on the teacher's coordinated-shutdown style
// (an errgroup driving the accept loop alongside the shared housekeeper)
// rather than any one teacher file, since the teacher's own transport is
// HTTP-hosted and has no raw-socket accept loop of its own.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package server

import (
	"context"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nalix-net/nalix/admission"
	"github.com/nalix-net/nalix/catalog"
	"github.com/nalix-net/nalix/cmn/cos"
	"github.com/nalix-net/nalix/cmn/nlog"
	"github.com/nalix-net/nalix/connection"
	"github.com/nalix-net/nalix/dispatch"
	"github.com/nalix-net/nalix/hk"
	"github.com/nalix-net/nalix/memsys"
	"github.com/nalix-net/nalix/transport"
	"github.com/nalix-net/nalix/uid"
	"github.com/nalix-net/nalix/wire"
)

// Hooks lets a caller observe connection lifecycle events, e.g. to update
// a stats.Tracker, without this package importing stats directly.
type Hooks struct {
	OnAccept func(remote net.Addr)
	OnClose  func(remote net.Addr)
	OnDenied func(remote net.Addr)
}

// Listener accepts connections on a TCP address, admits them through the
// per-IP table, and wires each one into the dispatch pipeline.
type Listener struct {
	addr      string
	pool      *memsys.BufferPool
	admission *admission.Table
	catalog   *catalog.Catalog
	router    *dispatch.Router
	sf        *uid.Snowflake
	hooks     Hooks

	cleanupInterval   time.Duration
	heartbeatInterval time.Duration

	ln     net.Listener
	stopCh cos.StopCh
}

// SetHeartbeatInterval enables a per-connection idle heartbeat: once a
// connection has been quiet for the interval, the listener sends a
// ControlHeartbeat packet rather than leaving the socket silent. Zero (the
// default) disables heartbeating.
func (l *Listener) SetHeartbeatInterval(d time.Duration) { l.heartbeatInterval = d }

// New builds a Listener bound to addr (not yet listening; call Run).
func New(addr string, pool *memsys.BufferPool, adm *admission.Table, cat *catalog.Catalog, router *dispatch.Router, sf *uid.Snowflake, hooks Hooks) *Listener {
	l := &Listener{
		addr:            addr,
		pool:            pool,
		admission:       adm,
		catalog:         cat,
		router:          router,
		sf:              sf,
		hooks:           hooks,
		cleanupInterval: time.Minute,
	}
	l.stopCh.Init()
	return l
}

// Listen binds the listening socket without serving. Separated from Run so
// callers (and tests) can observe the bound address — needed when addr
// uses the ":0" ephemeral-port convention — before connections start
// arriving.
func (l *Listener) Listen() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	l.ln = ln
	nlog.Infof("listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or nil if Listen has not run yet.
func (l *Listener) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Run serves connections until ctx is canceled or Stop is called, binding
// first if Listen has not already been called. It registers the admission
// table's stale-entry cleanup with the shared housekeeper and returns once
// the accept loop has exited. Per-connection goroutines are not waited for;
// shutdown cancels their channels through the listener's stop channel.
func (l *Listener) Run(ctx context.Context) error {
	if l.ln == nil {
		if err := l.Listen(); err != nil {
			return err
		}
	}

	hk.Reg("admission-cleanup"+hk.NameSuffix, func() time.Duration {
		l.admission.Cleanup(10 * time.Minute)
		return l.cleanupInterval
	}, l.cleanupInterval)
	defer hk.Unreg("admission-cleanup" + hk.NameSuffix)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.acceptLoop(gctx) })
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-l.stopCh.Listen():
		}
		l.stopCh.Close()
		return l.ln.Close()
	})
	err := g.Wait()
	if err != nil && cos.IsBenignDisconnect(err) {
		return nil
	}
	return err
}

func (l *Listener) acceptLoop(ctx context.Context) error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.stopCh.IsClosed() {
				return nil
			}
			return err
		}
		remote := conn.RemoteAddr()
		host := hostOf(remote)
		if !l.admission.IsConnectionAllowed(host) {
			if l.hooks.OnDenied != nil {
				l.hooks.OnDenied(remote)
			}
			conn.Close()
			continue
		}
		if l.hooks.OnAccept != nil {
			l.hooks.OnAccept(remote)
		}
		go l.serve(ctx, conn, host)
	}
}

func (l *Listener) serve(ctx context.Context, nc net.Conn, host string) {
	defer func() {
		l.admission.ConnectionClosed(host)
		if l.hooks.OnClose != nil {
			l.hooks.OnClose(nc.RemoteAddr())
		}
	}()

	ch := transport.New(nc, l.pool)
	conn, err := connection.New(l.sf, ch, nc.RemoteAddr())
	if err != nil {
		nlog.Errorf("connection.New for %s: %v", host, err)
		nc.Close()
		return
	}

	done := make(chan struct{})
	ch.SetCallbacks(
		func(_ any, _ error) { close(done) },
		func(_ any, lease *transport.BufferLease) { l.handleFrame(ctx, conn, lease) },
		nil,
	)
	ch.Start(l.stopCh.Listen())

	if l.heartbeatInterval > 0 {
		go l.heartbeatLoop(conn, done)
	}

	select {
	case <-done:
	case <-ctx.Done():
		conn.Close()
		<-done
	}
}

// heartbeatLoop sends a ControlHeartbeat packet whenever conn has been idle
// for at least the listener's heartbeat interval, until done closes.
func (l *Listener) heartbeatLoop(conn *connection.Connection, done <-chan struct{}) {
	ticker := time.NewTicker(l.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if time.Since(conn.LastActivity()) >= l.heartbeatInterval {
				hb := wire.NewControlPacket(wire.Control{Type: wire.ControlHeartbeat}, 0)
				conn.Send(hb.Encode())
			}
		case <-done:
			return
		}
	}
}

// handleFrame deserializes one inbound frame through the catalog (keyed by
// the magic every registered packet type, control packets included, carries
// in its first four bytes) and runs it through the dispatch pipeline.
// lease.Release is handed to DispatchRelease rather than deferred here
// directly: TimeoutMiddleware may keep an abandoned handler goroutine
// running past this function's return, and that goroutine — not this one —
// must be the one to release the buffer it's still reading.
func (l *Listener) handleFrame(ctx context.Context, conn *connection.Connection, lease *transport.BufferLease) {
	conn.Touch()

	magic, ok := wire.PeekMagic(lease.Payload)
	if !ok {
		lease.Release()
		nlog.Warningf("dropping undersized frame from %s", conn.Endpoint)
		return
	}
	p, err := l.catalog.Deserialize(magic, lease.Payload)
	if err != nil {
		lease.Release()
		nlog.Warningf("dropping corrupt frame from %s: %v", conn.Endpoint, err)
		return
	}
	resp, err := l.router.DispatchRelease(ctx, conn, p, lease.Release)
	if err != nil {
		nlog.Errorf("dispatch error from %s: %v", conn.Endpoint, err)
		return
	}
	if resp != nil {
		conn.Send(resp.Encode())
	}
}

// Stop requests a shutdown: Run closes the listening socket, every channel
// started by this listener is canceled, and Run returns once the accept loop
// has exited (it does not wait for connection goroutines).
func (l *Listener) Stop() { l.stopCh.Close() }

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
