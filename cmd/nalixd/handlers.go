package main

import (
	"github.com/nalix-net/nalix/catalog"
	"github.com/nalix-net/nalix/compress"
	"github.com/nalix-net/nalix/connection"
	"github.com/nalix-net/nalix/crypto"
	"github.com/nalix-net/nalix/dispatch"
	"github.com/nalix-net/nalix/wire"
)

// Opcode values recognized by the default handler registry. An external
// deployment registering its own application packets would extend, not
// replace, buildCatalog and registerHandlers.
const (
	opcodeHeartbeat   uint16 = 1
	opcodeEcho        uint16 = 2
	opcodeAuthUpgrade uint16 = 3
)

// opcodeAuthority names the minimum Authority each opcode requires; the
// zero value (AuthorityGuest) need not be listed explicitly. AuthUpgrade
// itself must stay at AuthorityGuest — it's the operation a guest calls to
// stop being one.
var opcodeAuthority = map[uint16]connection.Authority{
	opcodeHeartbeat:   connection.AuthorityGuest,
	opcodeEcho:        connection.AuthorityGuest,
	opcodeAuthUpgrade: connection.AuthorityGuest,
}

const magicApplication uint32 = 0x4E4C5831 // "NLX1"

// buildCatalog registers both the application packet type and the
// control-packet magic (wire.MagicControl), per wire/control.go's own
// contract that control packets flow through the same catalog lookup as
// application packets rather than being decoded ad hoc.
func buildCatalog() (*catalog.Catalog, error) {
	return catalog.NewBuilder().
		RegisterPacketType(magicApplication, standardHeaderDeserializer).
		RegisterPacketType(wire.MagicControl, standardHeaderDeserializer).
		RegisterHandler(magicApplication, catalog.Transformer{
			Compress: func(p wire.Packet) (wire.Packet, error) {
				p.Payload = compress.Compress(p.Payload)
				return p, nil
			},
			Decompress: func(p wire.Packet) (wire.Packet, error) {
				out, err := compress.Decompress(p.Payload)
				if err != nil {
					return p, err
				}
				p.Payload = out
				return p, nil
			},
			Encrypt: func(p wire.Packet, key []byte, mode crypto.Mode) (wire.Packet, error) {
				out, err := crypto.Encrypt(mode, key, p.Payload)
				if err != nil {
					return p, err
				}
				p.Payload = out
				return p, nil
			},
			Decrypt: func(p wire.Packet, key []byte, mode crypto.Mode) (wire.Packet, error) {
				out, err := crypto.Decrypt(mode, key, p.Payload)
				if err != nil {
					return p, err
				}
				p.Payload = out
				return p, nil
			},
		}).
		Build()
}

// standardHeaderDeserializer parses raw as a standard wire.Packet header
// and payload (the encoding wire.New/Packet.Encode produce). Both the
// application magic and wire.MagicControl use this same on-wire layout;
// only their opcode/payload interpretation differs downstream.
func standardHeaderDeserializer(_ uint32, raw []byte) (wire.Packet, error) {
	return wire.Decode(raw)
}

func registerHandlers(r *dispatch.Router, bearerSecret []byte) error {
	if err := r.RegisterHandler(opcodeHeartbeat, connection.AuthorityGuest, handleHeartbeat); err != nil {
		return err
	}
	if err := r.RegisterHandler(opcodeEcho, connection.AuthorityGuest, handleEcho); err != nil {
		return err
	}
	return r.RegisterHandler(opcodeAuthUpgrade, connection.AuthorityGuest, handleAuthUpgrade(bearerSecret))
}

// handleAuthUpgrade treats the packet payload as a JWT bearer token and
// upgrades the connection's authority to whatever level it asserts, per
// dispatch.UpgradeAuthorityFromBearer. Replies ACK on success, FAIL/
// UNAUTHORIZED on an invalid or unsigned token.
func handleAuthUpgrade(secret []byte) dispatch.HandlerFunc {
	return func(c *dispatch.Ctx) (*wire.Packet, error) {
		token := string(c.Packet().Payload)
		if err := dispatch.UpgradeAuthorityFromBearer(c.Conn, token, secret); err != nil {
			resp := wire.NewControlPacket(
				wire.Control{Type: wire.ControlFail, Reason: wire.ReasonUnauthorized},
				c.Packet().SequenceID)
			return &resp, nil
		}
		resp := wire.NewControlPacket(wire.Control{Type: wire.ControlAck}, c.Packet().SequenceID)
		return &resp, nil
	}
}

func handleHeartbeat(c *dispatch.Ctx) (*wire.Packet, error) {
	resp := wire.New(magicApplication, opcodeHeartbeat, 0, wire.PriorityHigh, c.Packet().SequenceID, nil)
	return &resp, nil
}

func handleEcho(c *dispatch.Ctx) (*wire.Packet, error) {
	resp := wire.New(magicApplication, opcodeEcho, 0, wire.PriorityNormal, c.Packet().SequenceID, c.Packet().Payload)
	return &resp, nil
}
