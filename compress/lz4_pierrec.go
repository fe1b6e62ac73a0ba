package compress

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v3"
)

// CompressPierrec is an alternate codec that a catalog transformer can use
// in place of the bit-exact custom codec, for packet types that don't need
// wire compatibility with the custom framing. The default catalog built in
// cmd/nalixd does not register it.
func CompressPierrec(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressPierrec reverses CompressPierrec.
func DecompressPierrec(framed []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(framed))
	return io.ReadAll(r)
}
