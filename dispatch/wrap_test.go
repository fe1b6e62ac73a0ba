package dispatch_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/nalix-net/nalix/catalog"
	"github.com/nalix-net/nalix/connection"
	"github.com/nalix-net/nalix/compress"
	"github.com/nalix-net/nalix/dispatch"
	"github.com/nalix-net/nalix/wire"
)

func echoDeserializer(magic uint32, raw []byte) (wire.Packet, error) {
	return wire.New(magic, 0, 0, wire.PriorityNormal, 0, raw), nil
}

func compressingCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.NewBuilder().
		RegisterPacketType(1, echoDeserializer).
		RegisterHandler(1, catalog.Transformer{
			Compress: func(p wire.Packet) (wire.Packet, error) {
				p.Payload = compress.Compress(p.Payload)
				return p, nil
			},
			Decompress: func(p wire.Packet) (wire.Packet, error) {
				out, err := compress.Decompress(p.Payload)
				p.Payload = out
				return p, err
			},
		}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return cat
}

func TestUnwrapDecompressesInboundPacket(t *testing.T) {
	cat := compressingCatalog(t)
	original := []byte("repeat repeat repeat repeat repeat")
	framed := compress.Compress(original)

	r := dispatch.NewRouter()
	r.Use(dispatch.UnwrapMiddleware(cat))
	var seen []byte
	if err := r.RegisterHandler(1, connection.AuthorityGuest, func(c *dispatch.Ctx) (*wire.Packet, error) {
		seen = append([]byte(nil), c.Packet().Payload...)
		return nil, nil
	}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}
	conn := testConn(t)
	p := wire.New(1, 1, wire.FlagCompressed, wire.PriorityNormal, 1, framed)
	if _, err := r.Dispatch(context.Background(), conn, p); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !bytes.Equal(seen, original) {
		t.Fatalf("expected handler to see decompressed payload, got %q", seen)
	}
}

func TestUnwrapRejectsMissingTransformer(t *testing.T) {
	cat, err := catalog.NewBuilder().RegisterPacketType(2, echoDeserializer).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := dispatch.NewRouter()
	r.Use(dispatch.UnwrapMiddleware(cat))
	if err := r.RegisterHandler(2, connection.AuthorityGuest, func(c *dispatch.Ctx) (*wire.Packet, error) {
		t.Fatal("handler must not run without a usable transformer")
		return nil, nil
	}); err != nil {
		t.Fatalf("RegisterHandler: %v", err)
	}
	conn := testConn(t)
	p := wire.New(2, 2, wire.FlagCompressed, wire.PriorityNormal, 1, []byte("x"))
	resp, err := r.Dispatch(context.Background(), conn, p)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	ctrl, ok := wire.DecodeControl(resp.Payload)
	if !ok || ctrl.Reason != wire.ReasonCompressionUnsupported {
		t.Fatalf("expected FAIL/COMPRESSION_UNSUPPORTED, got %+v", ctrl)
	}
}
