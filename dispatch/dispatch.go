// Package dispatch implements the middleware pipeline and opcode router
// (spec §4.3): fixed stages Inbound → PreDispatch → Handler → PostDispatch
// → Outbound, each holding an ordered list of middleware, ending in an
// opcode lookup against a handler registry built by explicit registration
// (no reflection, per the spec's redesign note on handler discovery).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/nalix-net/nalix/cmn/nlog"
	"github.com/nalix-net/nalix/connection"
	"github.com/nalix-net/nalix/wire"
)

// Stage identifies one of the pipeline's fixed phases.
type Stage int

const (
	StageInbound Stage = iota
	StagePreDispatch
	StageHandler
	StagePostDispatch
	StageOutbound
	numStages
)

var stageNames = [numStages]string{
	StageInbound:      "inbound",
	StagePreDispatch:  "pre_dispatch",
	StageHandler:      "handler",
	StagePostDispatch: "post_dispatch",
	StageOutbound:     "outbound",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Ctx carries the in-flight packet, its connection, and scratch timing
// values through the pipeline. AssignPacket lets middleware replace the
// packet (e.g. after decompression) without threading a return value
// through every stage.
type Ctx struct {
	context.Context
	Conn     *connection.Connection
	Opcode   uint16
	packet   wire.Packet
	Scratch  map[string]any
	Response *wire.Packet // set by the Handler stage or an aborting middleware

	// release, if non-nil, returns the packet's backing buffer lease to its
	// pool. It is owned by whichever goroutine is actually the last to touch
	// the packet — normally Dispatch itself once every stage returns, but
	// TimeoutMiddleware claims it and clears this field when a handler
	// outlives its budget, so the buffer isn't freed while the abandoned
	// goroutine is still reading it. See TimeoutMiddleware.
	release func()
}

func (c *Ctx) Packet() wire.Packet        { return c.packet }
func (c *Ctx) AssignPacket(p wire.Packet) { c.packet = p }

// Next invokes the remainder of the current stage's middleware chain.
type Next func(*Ctx) error

// Middleware declares its stage, a sort order within that stage, a name
// (for logging), and the Invoke function.
type Middleware struct {
	Stage  Stage
	Order  int
	Name   string
	Invoke func(ctx *Ctx, next Next) error
}

// HandlerFunc processes a packet for one opcode; a nil response packet
// means "no response".
type HandlerFunc func(ctx *Ctx) (*wire.Packet, error)

type handlerEntry struct {
	RequiredAuthority connection.Authority
	Fn                HandlerFunc
}

// Router is the dispatch pipeline: ordered middleware per stage plus the
// opcode→handler table. Built once at startup; safe for concurrent
// Dispatch calls thereafter.
type Router struct {
	mu       sync.RWMutex
	stages   [numStages][]Middleware
	handlers map[uint16]handlerEntry
	built    bool
}

func NewRouter() *Router {
	return &Router{handlers: make(map[uint16]handlerEntry)}
}

// Use registers a middleware into its declared stage, sorted by Order.
func (r *Router) Use(mw Middleware) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.stages[mw.Stage]
	i := 0
	for i < len(list) && list[i].Order <= mw.Order {
		i++
	}
	list = append(list, Middleware{})
	copy(list[i+1:], list[i:])
	list[i] = mw
	r.stages[mw.Stage] = list
	return r
}

// RegisterHandler installs opcode's handler. Per spec: a duplicate opcode
// from the same registration pass is a fatal configuration error (the
// caller is expected to have deduplicated per-controller before calling
// RegisterHandler cross-controller).
func (r *Router) RegisterHandler(opcode uint16, requiredAuthority connection.Authority, fn HandlerFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[opcode]; dup {
		return fmt.Errorf("dispatch: duplicate opcode 0x%04X", opcode)
	}
	r.handlers[opcode] = handlerEntry{RequiredAuthority: requiredAuthority, Fn: fn}
	return nil
}

// Dispatch runs the full pipeline for one inbound packet: Inbound →
// PreDispatch → Handler → PostDispatch → Outbound, returning the response
// packet to send (if any). Equivalent to DispatchRelease with a nil
// release hook.
func (r *Router) Dispatch(ctx context.Context, conn *connection.Connection, p wire.Packet) (*wire.Packet, error) {
	return r.DispatchRelease(ctx, conn, p, nil)
}

// DispatchRelease runs the pipeline exactly like Dispatch, additionally
// taking ownership of release — the caller's hook for returning p's
// backing buffer (e.g. transport.BufferLease.Release) to its pool.
// release is called exactly once, after the packet is genuinely done being
// read: normally right here, once every stage has returned, but
// TimeoutMiddleware may instead hand it off to a background goroutine that
// outlives this call (see its comment) — in that case the deferred call
// below is a no-op and the background goroutine calls it later.
func (r *Router) DispatchRelease(ctx context.Context, conn *connection.Connection, p wire.Packet, release func()) (resp *wire.Packet, err error) {
	c := &Ctx{Context: ctx, Conn: conn, Opcode: p.Opcode, packet: p, Scratch: make(map[string]any), release: release}
	defer func() {
		if c.release != nil {
			c.release()
		}
	}()

	if err = r.runStage(StageInbound, c); err != nil {
		return c.Response, err
	}
	// The handler runs as the innermost next of the PreDispatch chain, so
	// PreDispatch middleware (TimeoutMiddleware in particular) wraps the
	// handler call. A response already set by Inbound skips both.
	if c.Response == nil {
		err = r.runStageThen(StagePreDispatch, c, func(c *Ctx) error {
			if c.Response != nil {
				return nil
			}
			return r.runHandlerStage(c)
		})
		if err != nil {
			return c.Response, err
		}
	}
	if err = r.runStage(StagePostDispatch, c); err != nil {
		return c.Response, err
	}
	if err = r.runStage(StageOutbound, c); err != nil {
		return c.Response, err
	}
	return c.Response, nil
}

func (r *Router) runStage(s Stage, c *Ctx) error { return r.runStageThen(s, c, nil) }

// runStageThen runs stage s's chain; tail, if non-nil, is called as the
// next of the chain's last middleware (or directly, for an empty chain).
func (r *Router) runStageThen(s Stage, c *Ctx, tail Next) error {
	r.mu.RLock()
	chain := r.stages[s]
	r.mu.RUnlock()
	return runChain(chain, 0, c, tail)
}

func runChain(chain []Middleware, i int, c *Ctx, tail Next) error {
	if i >= len(chain) {
		if tail != nil {
			return tail(c)
		}
		return nil
	}
	return chain[i].Invoke(c, func(c *Ctx) error {
		return runChain(chain, i+1, c, tail)
	})
}

// runHandlerStage looks up the opcode's handler and invokes it. No
// handler registered emits FAIL/NOT_FOUND via c.Response, which the
// caller of Dispatch sends back like any other response.
func (r *Router) runHandlerStage(c *Ctx) error {
	r.mu.RLock()
	entry, ok := r.handlers[c.Opcode]
	r.mu.RUnlock()
	if !ok {
		resp := wire.NewControlPacket(wire.Control{Type: wire.ControlFail, Reason: wire.ReasonNotFound}, c.Packet().SequenceID)
		c.Response = &resp
		return nil
	}
	if c.Conn.Authority() < entry.RequiredAuthority {
		resp := wire.NewControlPacket(wire.Control{Type: wire.ControlFail, Reason: wire.ReasonUnauthorized}, c.Packet().SequenceID)
		c.Response = &resp
		return nil
	}
	resp, err := invokeHandler(entry.Fn, c)
	if err != nil {
		nlog.Errorf("dispatch: handler for opcode 0x%04X failed: %v", c.Opcode, err)
		ctrl := wire.NewControlPacket(wire.Control{Type: wire.ControlFail, Reason: wire.ReasonTransformFailed}, c.Packet().SequenceID)
		c.Response = &ctrl
		return nil
	}
	c.Response = resp
	return nil
}

// invokeHandler recovers a handler panic into an error, matching the
// spec's "exceptions thrown by a handler are logged and converted to
// FAIL/TRANSFORM_FAILED" rule.
func invokeHandler(fn HandlerFunc, c *Ctx) (resp *wire.Packet, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("dispatch: handler panic: %v", rec)
		}
	}()
	return fn(c)
}
