// Package connection wraps a Framed Channel with the protocol-level state
// the dispatch pipeline needs: a stable ID, remote endpoint, authority
// level, encryption key/mode, and handshake state machine (spec §3).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package connection

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/nalix-net/nalix/crypto"
	"github.com/nalix-net/nalix/transport"
	"github.com/nalix-net/nalix/uid"
)

// Authority is a monotonically-upgradeable authorization level; middleware
// compares a handler's required Authority against the connection's current
// one.
type Authority uint8

const (
	AuthorityGuest Authority = iota
	AuthorityUser
	AuthorityAdmin
	AuthoritySystem
)

// HandshakeState tracks the connection's encryption handshake lifecycle.
type HandshakeState uint8

const (
	HandshakeNotStarted HandshakeState = iota
	HandshakeInProgress
	HandshakeHandshaked
	HandshakeClosed
)

// Connection is one accepted TCP socket, created on accept and terminated
// when its Framed Channel signals close.
type Connection struct {
	ID       uint64
	Endpoint net.Addr

	authority atomic.Uint32 // Authority, monotonically upgradeable
	handshake atomic.Uint32 // HandshakeState

	EncryptionKey  [32]byte
	EncryptionMode crypto.Mode

	lastActivity atomic.Int64 // unix millis

	Channel *transport.Channel
}

// New wraps ch as a Connection with a freshly generated Snowflake ID.
func New(sf *uid.Snowflake, ch *transport.Channel, endpoint net.Addr) (*Connection, error) {
	id, err := sf.Next(0)
	if err != nil {
		return nil, err
	}
	c := &Connection{ID: id, Endpoint: endpoint, Channel: ch}
	c.handshake.Store(uint32(HandshakeNotStarted))
	c.Touch()
	return c, nil
}

func (c *Connection) Authority() Authority { return Authority(c.authority.Load()) }

// UpgradeAuthority raises the connection's authority; a lower value is a
// no-op (authority only ever increases).
func (c *Connection) UpgradeAuthority(a Authority) {
	for {
		cur := Authority(c.authority.Load())
		if a <= cur {
			return
		}
		if c.authority.CompareAndSwap(uint32(cur), uint32(a)) {
			return
		}
	}
}

func (c *Connection) Handshake() HandshakeState { return HandshakeState(c.handshake.Load()) }
func (c *Connection) SetHandshake(s HandshakeState) { c.handshake.Store(uint32(s)) }

// Touch records activity for idle/heartbeat tracking.
func (c *Connection) Touch() { c.lastActivity.Store(time.Now().UnixMilli()) }

func (c *Connection) LastActivity() time.Time {
	return time.UnixMilli(c.lastActivity.Load())
}

// Send writes payload as one frame over the underlying channel.
func (c *Connection) Send(payload []byte) bool {
	return c.Channel.Send(payload)
}

// Close disposes the underlying channel.
func (c *Connection) Close() {
	c.SetHandshake(HandshakeClosed)
	c.Channel.Dispose()
}
