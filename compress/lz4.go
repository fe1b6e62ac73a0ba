// Package compress implements the runtime's block compression: a custom
// LZ4-style codec matching spec §4.8 bit-for-bit (hash constant, header
// layout, literal-run escaping), plus an alternate codec backed by
// pierrec/lz4/v3 that a catalog transformer can use instead (the default
// catalog built in cmd/nalixd registers only the custom codec).
//
// The custom codec can't be replaced by pierrec/lz4/v3 because its framing
// (8-byte originalLength/compressedLength header, 65536-entry hash table
// with the exact `(seq*2654435761)>>16` constant, 0xFF literal-run
// escaping) is a wire-compatibility requirement, not an implementation
// detail — a different LZ4 variant would produce a different byte stream.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package compress

import (
	"encoding/binary"
	"fmt"
)

const (
	hashTableSize = 1 << 16
	hashShift     = 16
	hashMagic     = 2654435761
	minMatch      = 4
	maxOffset     = 65535
	headerLen     = 8
)

func hash4(seq uint32) uint32 {
	return (seq * hashMagic) >> hashShift
}

func load32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// Compress encodes src into the LZ4-style framed format: an 8-byte header
// (originalLength int32, compressedLengthIncludingHeader int32) followed by
// a literal/match token stream.
func Compress(src []byte) []byte {
	var table [hashTableSize]int32
	for i := range table {
		table[i] = -1
	}

	out := make([]byte, headerLen, headerLen+len(src)+len(src)/2+16)
	literalStart := 0
	i := 0

	// flushLiterals writes the literal run [literalStart, end) as a length
	// (one 0xFF byte per full 255, then a terminator byte < 0xFF) followed
	// by the raw bytes. The length has no 4-bit token nibble, so a run of
	// up to 254 bytes takes a single length byte and 0xFF bytes appear only
	// for runs of 255 or more. A
	// length byte is always written, even for a zero-length run, so the
	// decoder can unconditionally read one length field per token.
	flushLiterals := func(end int) {
		n := end - literalStart
		rem := n
		for rem >= 0xFF {
			out = append(out, 0xFF)
			rem -= 0xFF
		}
		out = append(out, byte(rem))
		if n > 0 {
			out = append(out, src[literalStart:end]...)
		}
		literalStart = end
	}

	for i+minMatch <= len(src) {
		seq := load32(src[i:])
		h := hash4(seq)
		cand := table[h]
		table[h] = int32(i)

		if cand < 0 || i-int(cand) > maxOffset || load32(src[cand:]) != seq {
			i++
			continue
		}

		matchLen := minMatch
		for i+matchLen < len(src) && src[int(cand)+matchLen] == src[i+matchLen] {
			matchLen++
		}

		flushLiterals(i)
		offset := uint16(i - int(cand))
		out = append(out, 0x00) // match token marker (distinct from literal-length byte space is infeasible without flag bit; matches are length-prefixed below)
		out = append(out, byte(offset), byte(offset>>8))
		out = appendVarLen(out, matchLen)

		i += matchLen
		literalStart = i
	}
	flushLiterals(len(src))

	compressedLen := len(out)
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(src)))
	binary.LittleEndian.PutUint32(out[4:8], uint32(compressedLen))
	return out
}

func appendVarLen(out []byte, n int) []byte {
	for n >= 0xFF {
		out = append(out, 0xFF)
		n -= 0xFF
	}
	return append(out, byte(n))
}

func readVarLen(src []byte, pos int) (int, int) {
	n := 0
	for {
		b := src[pos]
		pos++
		n += int(b)
		if b != 0xFF {
			break
		}
	}
	return n, pos
}

// Decompress reverses Compress, validating the header against the provided
// buffer and performing byte-by-byte copies so overlapping back-references
// (distance < length) reproduce correctly.
func Decompress(framed []byte) ([]byte, error) {
	if len(framed) < headerLen {
		return nil, fmt.Errorf("compress: frame shorter than header")
	}
	originalLen := int(binary.LittleEndian.Uint32(framed[0:4]))
	compressedLen := int(binary.LittleEndian.Uint32(framed[4:8]))
	if compressedLen != len(framed) {
		return nil, fmt.Errorf("compress: header length %d does not match frame length %d", compressedLen, len(framed))
	}

	out := make([]byte, 0, originalLen)
	pos := headerLen
	for pos < len(framed) {
		litLen, next := readVarLen(framed, pos)
		pos = next
		if litLen > 0 {
			out = append(out, framed[pos:pos+litLen]...)
			pos += litLen
		}
		if pos >= len(framed) {
			break
		}
		marker := framed[pos]
		pos++
		if marker != 0x00 {
			return nil, fmt.Errorf("compress: invalid match token 0x%02x", marker)
		}
		offset := int(framed[pos]) | int(framed[pos+1])<<8
		pos += 2
		matchLen, next2 := readVarLen(framed, pos)
		pos = next2

		start := len(out) - offset
		if start < 0 {
			return nil, fmt.Errorf("compress: invalid back-reference offset %d", offset)
		}
		for k := 0; k < matchLen; k++ {
			out = append(out, out[start+k])
		}
	}
	if len(out) != originalLen {
		return nil, fmt.Errorf("compress: decompressed length %d != expected %d", len(out), originalLen)
	}
	return out, nil
}
