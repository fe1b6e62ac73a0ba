// Package transport implements the Framed Channel: a length-prefixed
// framing layer over a raw net.Conn TCP socket (spec §4.1). One Channel
// drives exactly one receive-loop goroutine and serializes concurrent
// senders behind a single write lock so frames never interleave.
//
// Grounded stylistically on the teacher's transport package (atomic
// start/cancel/dispose-once guards, debug.Assert invariants, nlog logging,
// cos.StopCh cancellation) but re-targeted at a raw socket with a single
// in-flight frame instead of an HTTP-multiplexed object stream.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"encoding/binary"
	"errors"
	"net"
	"sync"

	"github.com/nalix-net/nalix/cmn/atomic"
	"github.com/nalix-net/nalix/cmn/clock"
	"github.com/nalix-net/nalix/cmn/cos"
	"github.com/nalix-net/nalix/cmn/debug"
	"github.com/nalix-net/nalix/cmn/nlog"
	"github.com/nalix-net/nalix/memsys"
)

// ErrShortFrame is returned when a frame's LEN header is below the minimum
// possible value (the header counts itself, so LEN >= 2).
var ErrShortFrame = errors.New("transport: frame length below header size")

const (
	headerLen    = 2
	nextFrameLen = 256
	stackLimit   = 512
	maxFrameLen  = 1<<16 - 1 // uint16 max, LEN is little-endian uint16
)

// BufferLease hands a filled frame buffer to the consumer. Release must be
// called exactly once to return the underlying buffer to the pool.
type BufferLease struct {
	Payload []byte
	pool    *memsys.BufferPool
	raw     []byte
}

func (l *BufferLease) Release() {
	if l.raw != nil {
		l.pool.Return(l.raw)
		l.raw = nil
		l.Payload = nil
	}
}

// OnClose is invoked exactly once when the channel's receive loop exits,
// whether from a benign disconnect, a fatal error, or Dispose.
type OnClose func(args any, err error)

// OnPost is invoked once per successfully received frame.
type OnPost func(args any, lease *BufferLease)

type Channel struct {
	conn net.Conn
	pool *memsys.BufferPool

	sendMu sync.Mutex // serializes Send/SendAsync so frames never interleave

	started  atomic.Bool
	canceled atomic.Bool
	disposed atomic.Bool

	stopCh cos.StopCh

	onClose OnClose
	onPost  OnPost
	args    any

	curBuf []byte // current receive buffer, owned by the receive loop
}

// New wraps conn in a Channel. pool supplies receive/send buffers.
func New(conn net.Conn, pool *memsys.BufferPool) *Channel {
	ch := &Channel{conn: conn, pool: pool}
	ch.stopCh.Init()
	return ch
}

// SetCallbacks registers fire-and-forget notifications. Plain function
// values rather than an owning-Connection pointer, so the Channel never
// keeps its owner alive beyond its own lifetime.
func (ch *Channel) SetCallbacks(onClose OnClose, onPost OnPost, args any) {
	ch.onClose = onClose
	ch.onPost = onPost
	ch.args = args
}

// Start begins the receive loop exactly once; subsequent calls are no-ops.
func (ch *Channel) Start(cancellation <-chan struct{}) {
	if !ch.started.CAS(false, true) {
		return
	}
	go ch.listenCancellation(cancellation)
	go ch.recvLoop()
}

func (ch *Channel) listenCancellation(cancellation <-chan struct{}) {
	if cancellation == nil {
		return
	}
	select {
	case <-cancellation:
		ch.cancel(nil)
	case <-ch.stopCh.Listen():
	}
}

func (ch *Channel) recvLoop() {
	ch.curBuf = ch.pool.Rent(nextFrameLen)
	for {
		if ch.canceled.Load() {
			return
		}
		size, err := ch.readSize()
		if err != nil {
			ch.cancel(err)
			return
		}
		if size < headerLen {
			ch.cancel(ErrShortFrame)
			return
		}
		if cap(ch.curBuf) < int(size) {
			ch.pool.Return(ch.curBuf)
			ch.curBuf = ch.pool.Rent(int(size))
		}
		buf := ch.curBuf[:size]
		binary.LittleEndian.PutUint16(buf[:headerLen], size)
		if err := ch.readFull(buf[headerLen:]); err != nil {
			ch.cancel(err)
			return
		}
		_ = clock.UnixMillis() // lastPing recorded by the owning connection via onPost

		lease := &BufferLease{Payload: buf[headerLen:], pool: ch.pool, raw: ch.curBuf}
		ch.curBuf = ch.pool.Rent(nextFrameLen)
		if ch.onPost != nil {
			ch.onPost(ch.args, lease)
		} else {
			lease.Release()
		}
	}
}

func (ch *Channel) readSize() (uint16, error) {
	var hdr [headerLen]byte
	if err := ch.readFull(hdr[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(hdr[:]), nil
}

func (ch *Channel) readFull(buf []byte) error {
	n, err := readAll(ch.conn, buf)
	if err != nil {
		return err
	}
	debug.Assert(n == len(buf))
	return nil
}

func readAll(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, net.ErrClosed
		}
	}
	return total, nil
}

// Send synchronously writes one frame. Returns false on peer close.
func (ch *Channel) Send(payload []byte) bool {
	return ch.send(payload)
}

// SendAsync writes one frame on a background goroutine, honoring
// cancellation. If cancellation fires before the write completes it
// returns false at once while the write continues in the background;
// otherwise it returns Send's result.
func (ch *Channel) SendAsync(payload []byte, cancellation <-chan struct{}) bool {
	done := make(chan bool, 1)
	go func() { done <- ch.send(payload) }()
	select {
	case ok := <-done:
		return ok
	case <-cancellation:
		return false
	}
}

func (ch *Channel) send(payload []byte) bool {
	totalLen := len(payload) + headerLen
	debug.Assert(totalLen <= maxFrameLen+headerLen)

	var stackBuf [stackLimit]byte
	var buf []byte
	var pooled []byte
	if totalLen <= stackLimit {
		buf = stackBuf[:totalLen]
	} else {
		pooled = ch.pool.Rent(totalLen)
		buf = pooled[:totalLen]
	}
	binary.LittleEndian.PutUint16(buf[:headerLen], uint16(totalLen))
	copy(buf[headerLen:], payload)

	ch.sendMu.Lock()
	ok := ch.writeAll(buf)
	ch.sendMu.Unlock()

	if pooled != nil {
		ch.pool.Return(pooled)
	}
	if !ok {
		ch.cancel(net.ErrClosed)
	}
	return ok
}

func (ch *Channel) writeAll(buf []byte) bool {
	total := 0
	for total < len(buf) {
		n, err := ch.conn.Write(buf[total:])
		if n == 0 && err == nil {
			return false
		}
		total += n
		if err != nil {
			return false
		}
	}
	return true
}

// cancel sets the cancel-once latch, classifies err as benign or fatal,
// logs accordingly, and invokes the close callback. Safe to call more than
// once; only the first call has effect.
func (ch *Channel) cancel(err error) {
	if !ch.canceled.CAS(false, true) {
		return
	}
	ch.stopCh.Close()
	if err != nil {
		if cos.IsBenignDisconnect(err) {
			nlog.Infof("channel closed: %v", err)
		} else {
			nlog.Errorf("channel closed: %v", err)
		}
	}
	if ch.onClose != nil {
		ch.onClose(ch.args, err)
	}
}

// Dispose cancels the receive loop exactly once, shuts the socket down both
// directions, returns the read buffer, and closes the socket.
func (ch *Channel) Dispose() {
	if !ch.disposed.CAS(false, true) {
		return
	}
	ch.cancel(nil)
	if tc, ok := ch.conn.(*net.TCPConn); ok {
		_ = tc.CloseRead()
		_ = tc.CloseWrite()
	}
	if ch.curBuf != nil {
		ch.pool.Return(ch.curBuf)
		ch.curBuf = nil
	}
	_ = ch.conn.Close()
}
