// Imcode hides an arbitrary byte payload inside the least significant
// bits of a raster image's pixel channels and recovers it later. A
// keyword deterministically derives both where in the image bits are
// written and which of 16 non-overlapping "information spaces" is
// used, so different keywords can coexist on the same carrier without
// trampling each other.

package main

import (
	"encoding/binary"
	"errors"
	"image"
	"math/rand"

	"github.com/zeebo/blake3"
)

const (
	// stegMagic spells "ImC1" when the header is read little-endian.
	stegMagic int32 = 0x31436d49

	// headerSize is the fixed frame header: int32 magic + int64 payload length.
	headerSize = 12

	// spaceCount is the number of disjoint information spaces; each is
	// one (row mod 4, col mod 4) phase of the pixel grid.
	spaceCount = 16
)

// Errors.

var (
	ErrNoPayload = errors.New("imcode: no payload source given")
	ErrCapacity  = errors.New("imcode: payload exceeds carrier capacity")
	ErrNoData    = errors.New("imcode: no hidden data found (wrong keyword or empty carrier)")
)

// DeriveSeed turns a keyword into a deterministic 32-bit seed: the
// BLAKE3-256 digest of its UTF-8 bytes, folded down to 4 bytes with
// acc[i%4] ^= digest[i], read as a little-endian signed integer.
//
// The fold is deliberately lossy. Two keywords may share a seed and
// therefore an information space; CheckCollision exists to surface
// exactly that.
func DeriveSeed(keyword string) int32 {
	sum := blake3.Sum256([]byte(keyword))
	var acc [4]byte
	for i, b := range sum {
		acc[i%4] ^= b
	}
	return int32(binary.LittleEndian.Uint32(acc[:]))
}

// newPlacement returns the keyword's generator together with the
// information space it selects. The space id is the generator's first
// draw; the same generator instance then drives the position shuffle,
// so the two are consecutive draws from one deterministic stream.
//
// The generator is math/rand seeded with the derived seed. Its draw
// sequence is stable for a fixed seed, which makes it part of the
// on-image format: images encoded by one build decode under any other.
func newPlacement(keyword string) (*rand.Rand, int) {
	rng := rand.New(rand.NewSource(int64(DeriveSeed(keyword))))
	return rng, rng.Intn(spaceCount)
}

// SpaceOf returns the information space id in [0,16) selected by keyword.
func SpaceOf(keyword string) int {
	_, space := newPlacement(keyword)
	return space
}

// CheckCollision reports whether two keywords resolve to the same
// information space and would therefore corrupt each other's data on a
// shared carrier. Each keyword gets its own fresh generator. A
// collision is advisory, not an error.
func CheckCollision(a, b string) (spaceA, spaceB int, collide bool) {
	spaceA = SpaceOf(a)
	spaceB = SpaceOf(b)
	return spaceA, spaceB, spaceA == spaceB
}

// position is one pixel coordinate of the carrier grid.
type position struct {
	row, col int
}

// sequencePositions enumerates every coordinate of the given space
// (row%4 == id>>2, col%4 == id&3) in row-major order, then shuffles
// them in place with the continuing generator: for n from last down
// to 1, draw k in [0,n] and swap. Callers consume the result strictly
// by popping from the end; that order decides which physical pixel
// each nibble lands on, so it must never change.
func sequencePositions(rng *rand.Rand, space, height, width int) []position {
	rowOff := space >> 2
	colOff := space & 3

	var seq []position
	for row := rowOff; row < height; row += 4 {
		for col := colOff; col < width; col += 4 {
			seq = append(seq, position{row, col})
		}
	}
	for n := len(seq) - 1; n > 0; n-- {
		k := rng.Intn(n + 1)
		seq[n], seq[k] = seq[k], seq[n]
	}
	return seq
}

// setNibble writes the four bits of n into the channel LSBs of the
// pixel at p: bit 3 into R, bit 2 into G, bit 1 into B, bit 0 into A.
// The seven high bits of every channel are preserved.
func setNibble(grid *image.NRGBA, p position, n uint8) {
	i := grid.PixOffset(p.col, p.row)
	pix := grid.Pix
	pix[i+0] = pix[i+0]&0xFE | n>>3&1
	pix[i+1] = pix[i+1]&0xFE | n>>2&1
	pix[i+2] = pix[i+2]&0xFE | n>>1&1
	pix[i+3] = pix[i+3]&0xFE | n&1
}

// getNibble reassembles a nibble from the channel LSBs at p.
func getNibble(grid *image.NRGBA, p position) uint8 {
	i := grid.PixOffset(p.col, p.row)
	pix := grid.Pix
	return (pix[i+0]&1)<<3 | (pix[i+1]&1)<<2 | (pix[i+2]&1)<<1 | pix[i+3]&1
}

// packHeader builds the 12-byte frame prepended to every payload.
func packHeader(payloadLen int64) [headerSize]byte {
	var h [headerSize]byte
	binary.LittleEndian.PutUint32(h[0:4], uint32(stegMagic))
	binary.LittleEndian.PutUint64(h[4:12], uint64(payloadLen))
	return h
}

func unpackHeader(h [headerSize]byte) (magic int32, payloadLen int64) {
	magic = int32(binary.LittleEndian.Uint32(h[0:4]))
	payloadLen = int64(binary.LittleEndian.Uint64(h[4:12]))
	return magic, payloadLen
}

// carrierCapacity is the coarse byte budget of a carrier: one payload
// byte per 128 raw pixels. Deliberately conservative relative to the
// true position budget; Encode additionally checks the exact sequence
// length so the header always fits.
func carrierCapacity(grid *image.NRGBA) int64 {
	b := grid.Bounds()
	return int64(b.Dx()*b.Dy()) / 128
}
