package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/nalix-net/nalix/connection"
	"github.com/nalix-net/nalix/dispatch"
	"github.com/nalix-net/nalix/throttle"
	"github.com/nalix-net/nalix/wire"
)

func TestAuthenticationMiddlewareRejectsInsufficientAuthority(t *testing.T) {
	r := dispatch.NewRouter()
	r.Use(dispatch.AuthenticationMiddleware(func(opcode uint16) connection.Authority {
		return connection.AuthorityAdmin
	}))
	if err := r.RegisterHandler(1, connection.AuthorityGuest, func(c *dispatch.Ctx) (*wire.Packet, error) {
		t.Fatal("handler must not run")
		return nil, nil
	}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}
	conn := testConn(t)
	resp, err := r.Dispatch(context.Background(), conn, wire.New(1, 1, 0, wire.PriorityNormal, 1, nil))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	ctrl, ok := wire.DecodeControl(resp.Payload)
	if !ok || ctrl.Reason != wire.ReasonUnauthorized {
		t.Fatalf("expected FAIL/UNAUTHORIZED, got %+v", ctrl)
	}
}

func TestRateLimitMiddlewareThrottlesSecondRequest(t *testing.T) {
	limiter := throttle.New(throttle.Config{MaxTokens: 1, RefillInterval: time.Hour, TokensPerRefill: 1})
	r := dispatch.NewRouter()
	r.Use(dispatch.RateLimitMiddleware(limiter))
	if err := r.RegisterHandler(1, connection.AuthorityGuest, func(c *dispatch.Ctx) (*wire.Packet, error) {
		resp := wire.New(9, 1, 0, wire.PriorityNormal, c.Packet().SequenceID, nil)
		return &resp, nil
	}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}
	conn := testConn(t)

	resp1, err := r.Dispatch(context.Background(), conn, wire.New(1, 1, 0, wire.PriorityNormal, 1, nil))
	if err != nil || resp1.Magic != 9 {
		t.Fatalf("expected first request through, got resp=%+v err=%v", resp1, err)
	}

	resp2, err := r.Dispatch(context.Background(), conn, wire.New(1, 1, 0, wire.PriorityNormal, 2, nil))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	ctrl, ok := wire.DecodeControl(resp2.Payload)
	if !ok || ctrl.Reason != wire.ReasonRateLimited {
		t.Fatalf("expected THROTTLE/RATE_LIMITED, got %+v", ctrl)
	}
}

func TestTimeoutMiddlewareFiresOnSlowHandler(t *testing.T) {
	r := dispatch.NewRouter()
	r.Use(dispatch.TimeoutMiddleware(func(opcode uint16) time.Duration { return 10 * time.Millisecond }))
	if err := r.RegisterHandler(1, connection.AuthorityGuest, func(c *dispatch.Ctx) (*wire.Packet, error) {
		time.Sleep(100 * time.Millisecond)
		resp := wire.New(9, 1, 0, wire.PriorityNormal, c.Packet().SequenceID, nil)
		return &resp, nil
	}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}
	conn := testConn(t)
	resp, err := r.Dispatch(context.Background(), conn, wire.New(1, 1, 0, wire.PriorityNormal, 1, nil))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	ctrl, ok := wire.DecodeControl(resp.Payload)
	if !ok || ctrl.Reason != wire.ReasonTimeout {
		t.Fatalf("expected FAIL/TIMEOUT, got %+v", ctrl)
	}
}
