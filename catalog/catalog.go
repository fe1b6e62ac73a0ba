// Package catalog builds the immutable packet catalog: a magic→deserializer
// table and a type→transformer table, assembled once at startup via an
// explicit registration API (spec §9 redesign note rules out a
// reflection-driven assembly scan in favor of explicit construction).
//
// Grounded on the teacher's registry-building conventions (cluster/ target
// registration pattern: explicit Reg calls, fatal on duplicate key) applied
// to packet magics instead of node IDs.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package catalog

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/nalix-net/nalix/crypto"
	"github.com/nalix-net/nalix/wire"
)

// Deserializer turns a frame's raw payload bytes into a Packet.
type Deserializer func(magic uint32, raw []byte) (wire.Packet, error)

// Transformer binds the optional compress/decompress/encrypt/decrypt
// operations for one packet type. Any field may be nil; Unwrap/Wrap
// middleware must check presence before invoking.
type Transformer struct {
	Compress   func(wire.Packet) (wire.Packet, error)
	Decompress func(wire.Packet) (wire.Packet, error)
	Encrypt    func(p wire.Packet, key []byte, mode crypto.Mode) (wire.Packet, error)
	Decrypt    func(p wire.Packet, key []byte, mode crypto.Mode) (wire.Packet, error)
}

// Builder accumulates registrations before Build produces an immutable
// Catalog. Not safe for concurrent use; intended for single-threaded
// startup wiring.
type Builder struct {
	deserializers map[uint32]Deserializer
	transformers  map[uint32]Transformer
	err           error
}

func NewBuilder() *Builder {
	return &Builder{
		deserializers: make(map[uint32]Deserializer),
		transformers:  make(map[uint32]Transformer),
	}
}

// RegisterPacketType binds magic to its mandatory deserializer. A duplicate
// magic is a fatal build error (recorded and surfaced by Build).
func (b *Builder) RegisterPacketType(magic uint32, d Deserializer) *Builder {
	if _, dup := b.deserializers[magic]; dup {
		b.err = errors.Errorf("catalog: duplicate magic 0x%08X", magic)
		return b
	}
	b.deserializers[magic] = d
	return b
}

// RegisterHandler binds magic's optional transformer record. Types may opt
// out of any individual operation by leaving it nil.
func (b *Builder) RegisterHandler(magic uint32, t Transformer) *Builder {
	if _, exists := b.deserializers[magic]; !exists {
		b.err = errors.Errorf("catalog: transformer registered for unknown magic 0x%08X (deserializer required first)", magic)
		return b
	}
	b.transformers[magic] = t
	return b
}

// Build produces an immutable Catalog, or returns the most recent
// registration error recorded (each failing registration overwrites the
// previous one).
func (b *Builder) Build() (*Catalog, error) {
	if b.err != nil {
		return nil, b.err
	}
	c := &Catalog{
		deserializers: make(map[uint32]Deserializer, len(b.deserializers)),
		transformers:  make(map[uint32]Transformer, len(b.transformers)),
	}
	for k, v := range b.deserializers {
		c.deserializers[k] = v
	}
	for k, v := range b.transformers {
		c.transformers[k] = v
	}
	return c, nil
}

// Catalog is immutable after Build: a shared, read-only lookup used
// concurrently by every Connection.
type Catalog struct {
	deserializers map[uint32]Deserializer
	transformers  map[uint32]Transformer
}

// Deserialize looks up magic's deserializer and applies it.
func (c *Catalog) Deserialize(magic uint32, raw []byte) (wire.Packet, error) {
	d, ok := c.deserializers[magic]
	if !ok {
		return wire.Packet{}, fmt.Errorf("catalog: no deserializer registered for magic 0x%08X", magic)
	}
	return d(magic, raw)
}

// Transformer returns magic's transformer record and whether one was
// registered at all (a type may have a deserializer but no transformer).
func (c *Catalog) Transformer(magic uint32) (Transformer, bool) {
	t, ok := c.transformers[magic]
	return t, ok
}
