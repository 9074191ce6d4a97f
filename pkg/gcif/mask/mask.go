// Package mask implements GCIF's dominant-color layer: detect the
// single most common RGBA value in the image, record which pixels
// equal it as a packed bitmap, and entropy-code that bitmap as
// per-row runs so large uniform backgrounds cost only a handful of
// bits.
//
// The bitmap layout (one bit per pixel, packed 32 to a word,
// `covered(x, y) = (word>>(x&31))&1`) is grounded directly on
// original_source/ImageMaskReader.hpp's `_mask`/`hasRGB`; HasRGB
// exposes the negation of that bit, matching the downstream contract
// (true means the pixel still needs real color encoding). The run
// encoding is grounded on pkg/compress/rle/packbits.go's run/literal
// byte scheme (escape-extended run lengths), generalized from bytes to
// per-row bit runs and fed through a canonical Huffman table via
// pkg/gcif/huffman instead of PackBits' raw escape bytes, since GCIF's
// container is bit-oriented rather than byte-oriented.
package mask

import (
	"github.com/gcif/gcif/pkg/gcif/bitio"
	"github.com/gcif/gcif/pkg/gcif/huffman"
)

// escapeRun is reserved as a pure continuation symbol: "add
// escapeRun to the run length and read another symbol". It is never
// itself a literal run length, so a run that happens to land exactly
// on a multiple of escapeRun still terminates unambiguously with a
// final literal symbol in [0, escapeRun) — including 0. This is the
// same escape-extension idea packbits.go uses for runs beyond its
// 128-byte limit, adapted to a Huffman symbol alphabet instead of a
// raw length byte.
const escapeRun = 255

// Mask is a detected dominant color and the per-pixel bitmap of where
// it appears.
type Mask struct {
	Color       [4]uint8
	Present     bool // false if no color was common enough to be worth masking
	width       int
	height      int
	stride      int // words per row
	bits        []uint32
}

// Detect scans an RGBA raster (row-major, 4 bytes per pixel) for its
// most frequent color and builds the bitmap marking its occurrences.
// minCount is the minimum occurrence count for masking to be worth
// the bitmap/RLE overhead; callers typically pass a few percent of
// width*height.
func Detect(rgba []uint8, width, height, minCount int) *Mask {
	counts := make(map[[4]uint8]int)
	for i := 0; i+4 <= len(rgba); i += 4 {
		var c [4]uint8
		copy(c[:], rgba[i:i+4])
		counts[c]++
	}
	var best [4]uint8
	bestCount := 0
	for c, n := range counts {
		if n > bestCount {
			bestCount = n
			best = c
		}
	}

	m := &Mask{width: width, height: height, stride: (width + 31) / 32}
	if bestCount < minCount {
		return m
	}
	m.Present = true
	m.Color = best
	m.bits = make([]uint32, m.stride*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			var c [4]uint8
			copy(c[:], rgba[i:i+4])
			if c == best {
				m.setBit(x, y)
			}
		}
	}
	return m
}

func (m *Mask) setBit(x, y int) {
	idx := (x >> 5) + y*m.stride
	m.bits[idx] |= 1 << uint(x&31)
}

// covered reports whether (x, y) equals the dominant color, i.e. is
// set in the mask bitmap. This is the internal bit test the RLE
// writer/reader operate on; HasRGB below exposes its negation, since
// downstream layers care about which pixels still need real encoding.
func (m *Mask) covered(x, y int) bool {
	if !m.Present {
		return false
	}
	word := m.bits[(x>>5)+y*m.stride]
	return (word>>uint(x&31))&1 != 0
}

// HasRGB reports whether (x, y) needs real RGBA encoding, i.e. is NOT
// covered by the dominant-color mask. If no color qualified for
// masking, every pixel needs real encoding and HasRGB is
// constant-true.
func (m *Mask) HasRGB(x, y int) bool {
	return !m.covered(x, y)
}

// Write serializes the mask: a presence flag, the dominant color (if
// present), and one RLE run stream per row. Runs alternate
// covered/uncovered starting from whichever the row begins with (the
// row-parity bit), mirroring packbits.go's run/literal alternation but
// keyed to a single repeated bit value instead of arbitrary bytes.
func Write(w *bitio.Writer, m *Mask) {
	w.WriteBit(m.Present)
	if !m.Present {
		return
	}
	for _, c := range m.Color {
		w.WriteBits(uint32(c), 8)
	}

	runs := make([][]int, m.height)
	var freqs [escapeRun + 1]uint64
	for y := 0; y < m.height; y++ {
		runs[y] = rowRuns(m, y)
		for _, r := range runs[y] {
			emitRunFreqs(r, freqs[:])
		}
	}
	n := len(freqs)
	for n > 1 && freqs[n-1] == 0 {
		n--
	}
	tbl, err := huffman.Build(freqs[:n])
	if err != nil {
		tbl, _ = huffman.Build([]uint64{1})
	}
	huffman.WriteTable(w, tbl)

	for y := 0; y < m.height; y++ {
		rs := runs[y]
		startsCovered := m.covered(0, y)
		w.WriteBit(startsCovered)
		for _, r := range rs {
			writeRun(w, tbl, r)
		}
	}
}

func rowRuns(m *Mask, y int) []int {
	var runs []int
	cur := m.covered(0, y)
	runLen := 0
	for x := 0; x < m.width; x++ {
		v := m.covered(x, y)
		if v == cur {
			runLen++
			continue
		}
		runs = append(runs, runLen)
		cur = v
		runLen = 1
	}
	runs = append(runs, runLen)
	return runs
}

func emitRunFreqs(run int, freqs []uint64) {
	for run >= escapeRun {
		freqs[escapeRun]++
		run -= escapeRun
	}
	freqs[run]++
}

func writeRun(w *bitio.Writer, tbl *huffman.Table, run int) {
	for run >= escapeRun {
		tbl.WriteSymbol(w, escapeRun)
		run -= escapeRun
	}
	tbl.WriteSymbol(w, run)
}

// Read deserializes a mask written by Write.
func Read(r *bitio.Reader, width, height int) (*Mask, error) {
	present, err := r.ReadBit()
	if err != nil {
		return nil, err
	}
	m := &Mask{width: width, height: height, stride: (width + 31) / 32, Present: present}
	if !present {
		return m, nil
	}
	for i := range m.Color {
		v, err := r.ReadBits(8)
		if err != nil {
			return nil, err
		}
		m.Color[i] = uint8(v)
	}
	tbl, err := huffman.ReadTable(r)
	if err != nil {
		return nil, err
	}
	m.bits = make([]uint32, m.stride*height)

	for y := 0; y < height; y++ {
		startsCovered, err := r.ReadBit()
		if err != nil {
			return nil, err
		}
		cur := startsCovered
		x := 0
		for x < width {
			run := 0
			for {
				sym, err := tbl.NextSymbol(r)
				if err != nil {
					return nil, err
				}
				run += sym
				if sym != escapeRun {
					break
				}
			}
			if cur {
				for i := 0; i < run && x+i < width; i++ {
					m.setBit(x+i, y)
				}
			}
			x += run
			cur = !cur
		}
	}
	return m, nil
}
