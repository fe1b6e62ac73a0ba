package dispatch

import (
	"context"
	"time"

	"github.com/nalix-net/nalix/catalog"
	"github.com/nalix-net/nalix/connection"
	"github.com/nalix-net/nalix/throttle"
	"github.com/nalix-net/nalix/wire"
)

// abortWith aborts the remaining pipeline with a pre-built control
// response, used by middleware that denies a request outright.
func abortWith(c *Ctx, resp wire.Packet) error {
	c.Response = &resp
	return nil
}

// AuthenticationMiddleware compares the connection's current authority
// against requiredFor(opcode) (supplied by the caller); insufficient authority halts the pipeline with FAIL/UNAUTHORIZED
// instead of invoking next.
func AuthenticationMiddleware(requiredFor func(opcode uint16) connection.Authority) Middleware {
	return Middleware{
		Stage: StageInbound,
		Order: 0,
		Name:  "authentication",
		Invoke: func(c *Ctx, next Next) error {
			if c.Conn.Authority() < requiredFor(c.Opcode) {
				return abortWith(c, wire.NewControlPacket(
					wire.Control{Type: wire.ControlFail, Reason: wire.ReasonUnauthorized},
					c.Packet().SequenceID))
			}
			return next(c)
		},
	}
}

// RateLimitMiddleware consults the token bucket for the connection's
// remote endpoint; on deny it emits THROTTLE/RATE_LIMITED with a
// suggested retry-after expressed in 100ms steps.
func RateLimitMiddleware(limiter *throttle.Limiter) Middleware {
	return Middleware{
		Stage: StageOutbound,
		Order: 0,
		Name:  "rate-limit",
		Invoke: func(c *Ctx, next Next) error {
			d := limiter.Check(c.Conn.Endpoint.String())
			if !d.Allowed {
				retryUnits := uint32(d.RetryAfterMs / 100)
				return abortWith(c, wire.NewControlPacket(
					wire.Control{Type: wire.ControlThrottle, Reason: wire.ReasonRateLimited, Action: wire.ActionRetryAfter, Arg0: retryUnits},
					c.Packet().SequenceID))
			}
			return next(c)
		},
	}
}

// TimeoutMiddleware runs the remaining pipeline with a per-opcode budget;
// on expiry it sends FAIL/TIMEOUT and cancels the continuation.
//
// next(c) keeps running in the background past the deadline — a handler
// has no way to be forcibly killed — so it must never keep operating on
// the same *Ctx the synchronous path hands onward to PostDispatch/Outbound
// once it aborts: that would race both Ctx's own fields and, through
// c.packet, the caller's pooled receive buffer. Instead the call is made
// against an independent clone. On the success path its results are
// copied back onto c; on timeout it's simply left to finish draining, and
// c.release (the caller's buffer-lease release hook, if any) is handed off
// to that drain so the buffer isn't freed until the handler actually stops
// touching it.
func TimeoutMiddleware(budgetFor func(opcode uint16) time.Duration) Middleware {
	return Middleware{
		Stage: StagePreDispatch,
		Order: 0,
		Name:  "timeout",
		Invoke: func(c *Ctx, next Next) error {
			budget := budgetFor(c.Opcode)
			if budget <= 0 {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Context, budget)
			defer cancel()

			clone := &Ctx{Context: ctx, Conn: c.Conn, Opcode: c.Opcode, packet: c.packet, Scratch: make(map[string]any)}
			for k, v := range c.Scratch {
				clone.Scratch[k] = v
			}

			done := make(chan error, 1)
			go func() { done <- next(clone) }()

			select {
			case err := <-done:
				c.packet = clone.packet
				c.Response = clone.Response
				for k, v := range clone.Scratch {
					c.Scratch[k] = v
				}
				return err
			case <-ctx.Done():
				release := c.release
				c.release = nil // the drain goroutine below now owns it
				go func() {
					<-done
					if release != nil {
						release()
					}
				}()
				return abortWith(c, wire.NewControlPacket(
					wire.Control{Type: wire.ControlFail, Reason: wire.ReasonTimeout},
					c.Packet().SequenceID))
			}
		},
	}
}

// UnwrapMiddleware normalizes a just-received packet for the Handler
// stage: decrypts then decompresses according to the packet's flags, using
// the catalog's registered transformer for its magic. Runs in the Inbound
// stage so the Handler always sees plaintext.
func UnwrapMiddleware(cat *catalog.Catalog) Middleware {
	return Middleware{
		Stage: StageInbound,
		Order: 10,
		Name:  "unwrap",
		Invoke: func(c *Ctx, next Next) error {
			p := c.Packet()
			t, ok := cat.Transformer(p.Magic)

			if p.Flags.Has(wire.FlagEncrypted) {
				if !ok || t.Decrypt == nil {
					return abortWith(c, wire.NewControlPacket(
						wire.Control{Type: wire.ControlFail, Reason: wire.ReasonCryptoUnsupported},
						p.SequenceID))
				}
				dp, err := t.Decrypt(p, c.Conn.EncryptionKey[:], c.Conn.EncryptionMode)
				if err != nil {
					return abortWith(c, wire.NewControlPacket(
						wire.Control{Type: wire.ControlFail, Reason: wire.ReasonCryptoUnsupported}, p.SequenceID))
				}
				p = dp
			}
			if p.Flags.Has(wire.FlagCompressed) {
				if !ok || t.Decompress == nil {
					return abortWith(c, wire.NewControlPacket(
						wire.Control{Type: wire.ControlFail, Reason: wire.ReasonCompressionUnsupported}, p.SequenceID))
				}
				dp, err := t.Decompress(p)
				if err != nil {
					return abortWith(c, wire.NewControlPacket(
						wire.Control{Type: wire.ControlFail, Reason: wire.ReasonCompressionUnsupported}, p.SequenceID))
				}
				p = dp
			}
			c.AssignPacket(p)
			return next(c)
		},
	}
}

// WrapMiddleware prepares the Handler's response for the wire: compresses
// then encrypts, symmetric with UnwrapMiddleware. Runs in the Outbound
// stage, after the Handler and PostDispatch have run.
func WrapMiddleware(cat *catalog.Catalog) Middleware {
	return Middleware{
		Stage: StageOutbound,
		Order: 10,
		Name:  "wrap",
		Invoke: func(c *Ctx, next Next) error {
			if err := next(c); err != nil {
				return err
			}
			if c.Response == nil {
				return nil
			}
			p := *c.Response
			t, ok := cat.Transformer(p.Magic)

			if p.Flags.Has(wire.FlagCompressed) {
				if !ok || t.Compress == nil {
					return nil // response already built; nothing more to wrap
				}
				if cp, err := t.Compress(p); err == nil {
					p = cp
				}
			}
			if p.Flags.Has(wire.FlagEncrypted) {
				if ok && t.Encrypt != nil {
					if ep, err := t.Encrypt(p, c.Conn.EncryptionKey[:], c.Conn.EncryptionMode); err == nil {
						p = ep
					}
				}
			}
			c.Response = &p
			return nil
		},
	}
}
