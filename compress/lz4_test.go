package compress_test

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/nalix-net/nalix/compress"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"a",
		"abcd",
		strings.Repeat("abcabcabcabc", 100),
		strings.Repeat("x", 1000),
	}
	for _, s := range cases {
		framed := compress.Compress([]byte(s))
		got, err := compress.Decompress(framed)
		if err != nil {
			t.Fatalf("Decompress(%q): %v", s, err)
		}
		if !bytes.Equal(got, []byte(s)) {
			t.Fatalf("round trip mismatch for %q: got %q", s, got)
		}
	}
}

func TestCompressHeaderFields(t *testing.T) {
	src := []byte(strings.Repeat("hello world ", 50))
	framed := compress.Compress(src)
	if len(framed) < 8 {
		t.Fatal("expected at least an 8-byte header")
	}
	if got := binary.LittleEndian.Uint32(framed[0:4]); got != uint32(len(src)) {
		t.Fatalf("expected originalLength %d, got %d", len(src), got)
	}
	if got := binary.LittleEndian.Uint32(framed[4:8]); got != uint32(len(framed)) {
		t.Fatalf("expected compressedLength %d, got %d", len(framed), got)
	}
}

func TestDecompressRejectsTruncatedFrame(t *testing.T) {
	if _, err := compress.Decompress([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for frame shorter than header")
	}
}

func TestPierrecRoundTrip(t *testing.T) {
	src := []byte(strings.Repeat("pierrec round trip data ", 20))
	framed, err := compress.CompressPierrec(src)
	if err != nil {
		t.Fatalf("CompressPierrec: %v", err)
	}
	got, err := compress.DecompressPierrec(framed)
	if err != nil {
		t.Fatalf("DecompressPierrec: %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatal("pierrec round trip mismatch")
	}
}
