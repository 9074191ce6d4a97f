package lzmatch

import (
	"github.com/gcif/gcif/pkg/gcif/bitio"
	"github.com/gcif/gcif/pkg/gcif/huffman"
)

// dimAlphabet bounds the width and height a match may have to use the
// packed form, two raw 6-bit (w-1, h-1) fields; matches wider or taller
// than this fall back to raw 16-bit w and h fields instead (rare, since
// most matches are small uniform-region copies).
const dimAlphabet = 64

// Write serializes a match set: a count, then each match's absolute
// destination position (raw, scan order already makes these
// increasing so no table would help), a Huffman-coded (dx, dy) offset
// to the source relative to the destination, and a packed (w-1, h-1)
// pair.
func Write(w *bitio.Writer, res *Result) {
	w.WriteBits(uint32(len(res.Matches)), 32)
	if len(res.Matches) == 0 {
		return
	}

	dxN, dyN := 1, 1
	for _, m := range res.Matches {
		if s := deltaSymbol(m.DstX-m.SrcX) + 1; s > dxN {
			dxN = s
		}
		if s := deltaSymbol(m.DstY-m.SrcY) + 1; s > dyN {
			dyN = s
		}
	}
	dxFreqs := make([]uint64, dxN)
	dyFreqs := make([]uint64, dyN)

	for _, m := range res.Matches {
		dxFreqs[deltaSymbol(m.DstX-m.SrcX)]++
		dyFreqs[deltaSymbol(m.DstY-m.SrcY)]++
	}

	dxTbl, err := huffman.Build(dxFreqs)
	if err != nil {
		dxTbl, _ = huffman.Build([]uint64{1})
	}
	dyTbl, err := huffman.Build(dyFreqs)
	if err != nil {
		dyTbl, _ = huffman.Build([]uint64{1})
	}
	huffman.WriteTable(w, dxTbl)
	huffman.WriteTable(w, dyTbl)

	for _, m := range res.Matches {
		w.WriteBits(uint32(m.DstX), 16)
		w.WriteBits(uint32(m.DstY), 16)
		dxTbl.WriteSymbol(w, deltaSymbol(m.DstX-m.SrcX))
		dyTbl.WriteSymbol(w, deltaSymbol(m.DstY-m.SrcY))
		if m.W <= dimAlphabet && m.H <= dimAlphabet {
			w.WriteBit(true)
			w.WriteBits(uint32(m.W-1), 6)
			w.WriteBits(uint32(m.H-1), 6)
		} else {
			w.WriteBit(false)
			w.WriteBits(uint32(m.W), 16)
			w.WriteBits(uint32(m.H), 16)
		}
	}
}

// Read deserializes a match set written by Write and rebuilds the
// Visited/TriggerAt lookups for a raster of the given dimensions.
func Read(r *bitio.Reader, width, height int) (*Result, error) {
	n, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	res := &Result{width: width, height: height, visited: make([]bool, width*height), triggerAt: make(map[int]*Match)}
	if n == 0 {
		return res, nil
	}

	dxTbl, err := huffman.ReadTable(r)
	if err != nil {
		return nil, err
	}
	dyTbl, err := huffman.ReadTable(r)
	if err != nil {
		return nil, err
	}

	res.Matches = make([]Match, n)
	for i := 0; i < int(n); i++ {
		dstXv, err := r.ReadBits(16)
		if err != nil {
			return nil, err
		}
		dstYv, err := r.ReadBits(16)
		if err != nil {
			return nil, err
		}
		dxSym, err := dxTbl.NextSymbol(r)
		if err != nil {
			return nil, err
		}
		dySym, err := dyTbl.NextSymbol(r)
		if err != nil {
			return nil, err
		}
		packed, err := r.ReadBit()
		if err != nil {
			return nil, err
		}
		var mw, mh int
		if packed {
			wv, err := r.ReadBits(6)
			if err != nil {
				return nil, err
			}
			hv, err := r.ReadBits(6)
			if err != nil {
				return nil, err
			}
			mw, mh = int(wv)+1, int(hv)+1
		} else {
			wv, err := r.ReadBits(16)
			if err != nil {
				return nil, err
			}
			hv, err := r.ReadBits(16)
			if err != nil {
				return nil, err
			}
			mw, mh = int(wv), int(hv)
		}

		dstX, dstY := int(dstXv), int(dstYv)
		m := Match{
			DstX: dstX,
			DstY: dstY,
			SrcX: dstX - undeltaSymbol(dxSym),
			SrcY: dstY - undeltaSymbol(dySym),
			W:    mw,
			H:    mh,
		}
		res.Matches[i] = m
		res.triggerAt[dstY*width+dstX] = &res.Matches[i]
		markVisited(res.visited, width, m.DstX, m.DstY, m.W, m.H)
	}
	return res, nil
}

// deltaSymbol/undeltaSymbol zig-zag encode a signed delta into an
// unsigned symbol so small magnitudes (the overwhelming common case
// for tiled sprite art) get short Huffman codes regardless of sign.
func deltaSymbol(delta int) int {
	if delta >= 0 {
		return delta << 1
	}
	return ((-delta) << 1) - 1
}

func undeltaSymbol(sym int) int {
	if sym&1 == 0 {
		return sym >> 1
	}
	return -((sym + 1) >> 1)
}
