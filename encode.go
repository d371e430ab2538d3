package main

import (
	"fmt"
	"image"
	"io"
)

// Encode hides payloadLen bytes from payload in the channel LSBs of
// grid, at positions selected by keyword. Pixels outside the visited
// positions, and all high bits everywhere, stay bit-identical. On any
// error the grid is untouched.
func Encode(grid *image.NRGBA, keyword string, payload io.Reader, payloadLen int64) error {
	if payload == nil {
		return ErrNoPayload
	}
	if payloadLen < 0 || payloadLen > carrierCapacity(grid) {
		return ErrCapacity
	}

	rng, space := newPlacement(keyword)
	b := grid.Bounds()
	seq := sequencePositions(rng, space, b.Dy(), b.Dx())
	if int64(len(seq)) < 2*(headerSize+payloadLen) {
		return ErrCapacity
	}

	// Stage every nibble before touching the grid. The payload arrives
	// in whatever chunk sizes its reader produces, while the apply
	// step below wants one row-major sweep; the change map decouples
	// the two, and keeps failed encodes side-effect free.
	changes := make(map[int]map[int]uint8)
	stage := func(v byte) {
		for _, n := range [2]uint8{v >> 4, v & 0x0F} {
			p := seq[len(seq)-1]
			seq = seq[:len(seq)-1]
			row, ok := changes[p.row]
			if !ok {
				row = make(map[int]uint8)
				changes[p.row] = row
			}
			row[p.col] = n
		}
	}

	hdr := packHeader(payloadLen)
	for _, v := range hdr {
		stage(v)
	}

	buf := make([]byte, 4096)
	var read int64
	for read < payloadLen {
		want := int64(len(buf))
		if rem := payloadLen - read; rem < want {
			want = rem
		}
		n, err := payload.Read(buf[:want])
		for _, v := range buf[:n] {
			stage(v)
		}
		read += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("imcode: read payload: %w", err)
		}
	}
	if read < payloadLen {
		return fmt.Errorf("imcode: payload truncated after %d of %d bytes: %w",
			read, payloadLen, io.ErrUnexpectedEOF)
	}

	// Single row-major write pass. Staged positions are disjoint, so
	// the iteration order within a row does not matter.
	for row := 0; row < b.Dy(); row++ {
		for col, n := range changes[row] {
			setNibble(grid, position{row, col}, n)
		}
	}
	return nil
}
