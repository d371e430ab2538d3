package main

import (
	"fmt"
	"image"
	"io"
)

// Decode recovers the payload hidden in grid under keyword and streams
// it to out. It fails with ErrNoData when the frame magic does not
// match, which is the single signal for "wrong keyword", "nothing
// hidden here" and "damaged carrier". The grid is never mutated, and
// nothing is written to out before the header has been validated.
func Decode(grid *image.NRGBA, keyword string, out io.Writer) error {
	rng, space := newPlacement(keyword)
	b := grid.Bounds()
	seq := sequencePositions(rng, space, b.Dy(), b.Dx())
	if len(seq) < 2*headerSize {
		return ErrNoData
	}

	pop := func() uint8 {
		p := seq[len(seq)-1]
		seq = seq[:len(seq)-1]
		return getNibble(grid, p)
	}
	// High nibble first, then low, matching the encode order.
	readByte := func() byte { return pop()<<4 | pop() }

	var hdr [headerSize]byte
	for i := range hdr {
		hdr[i] = readByte()
	}
	magic, payloadLen := unpackHeader(hdr)
	if magic != stegMagic {
		return ErrNoData
	}
	// A garbage length from a damaged carrier must not run the
	// sequence dry.
	if payloadLen < 0 || 2*payloadLen > int64(len(seq)) {
		return ErrNoData
	}

	// Chunked output; the chunk size is a buffering detail only, the
	// byte stream is identical regardless.
	buf := make([]byte, 0, 4096)
	var written int64
	for written < payloadLen {
		buf = buf[:0]
		for len(buf) < cap(buf) && written+int64(len(buf)) < payloadLen {
			buf = append(buf, readByte())
		}
		if _, err := out.Write(buf); err != nil {
			return fmt.Errorf("imcode: write payload: %w", err)
		}
		written += int64(len(buf))
	}
	return nil
}
