package cm

import (
	"github.com/gcif/gcif/pkg/gcif/bitio"
	"github.com/gcif/gcif/pkg/gcif/chaos"
	"github.com/gcif/gcif/pkg/gcif/filters"
	"github.com/gcif/gcif/pkg/gcif/huffman"
	"github.com/gcif/gcif/pkg/gcif/lzmatch"
	"github.com/gcif/gcif/pkg/gcif/mask"
)

// planeTables holds the chaos-indexed Huffman tables for one residual
// plane, one per chaos context level: length chaos.NumContexts
// ordinarily, or 1 under the single-context mode Options.ChaosThresh
// selects.
type planeTables []*huffman.Table

// emitPlaneSymbols walks one plane's flat (eligible-pixel-only) value
// sequence and calls emit once per symbol: a literal residual byte, or
// a zrleMax-bounded run symbol covering a lookahead-counted span of
// consecutive zero residuals that share one chaos context. The run is
// resolved and emitted in full at the position it starts, never
// deferred past a later index, so the emitted symbols land in the
// same order a single sequential reader will later consume them in --
// unlike a delayed-flush scheme, which would let a later index's
// symbol reach the stream before an earlier index's deferred run.
func emitPlaneSymbols(ctxs []int, vals []uint8, emit func(ctx, sym int)) {
	n := len(vals)
	for i := 0; i < n; {
		v, ctx := vals[i], ctxs[i]
		if v != 0 {
			emit(ctx, int(v))
			i++
			continue
		}
		run := 1
		for run < zrleMax && i+run < n && vals[i+run] == 0 && ctxs[i+run] == ctx {
			run++
		}
		emit(ctx, zrleBase+run-1)
		i += run
	}
}

// residualSequence walks every pixel in raster order and, for each one
// still eligible for CM coding, computes its four plane residuals and
// the chaos context each was coded under. Masked and LZ-covered pixels
// reset the rolling above/left residual state to zero without
// contributing a value, exactly as the original's chaos accumulator
// does for non-CM pixels.
func residualSequence(rgba []uint8, width, height, L int, m *mask.Mask, lz *lzmatch.Result, zones []zoneInfo, zw int) (ctxs [numPlanes][]int, vals [numPlanes][]uint8) {
	above := make([][numPlanes]uint8, width)
	var left [numPlanes]uint8

	for y := 0; y < height; y++ {
		left = [numPlanes]uint8{}
		for x := 0; x < width; x++ {
			if !eligible(x, y, m, lz) {
				above[x] = [numPlanes]uint8{}
				left = [numPlanes]uint8{}
				continue
			}

			zi := zones[(y/zoneSize)*zw+(x/zoneSize)]
			res := spatialResidual(rgba, width, height, x, y, zi.sf)
			yuv := filters.ColorForward(zi.cf, res)
			a := alphaResidual(rgba, width, x, y)
			pix := [numPlanes]uint8{yuv[0], yuv[1], yuv[2], a}

			var thisCtx [numPlanes]int
			for c := 0; c < numPlanes; c++ {
				thisCtx[c] = chaos.ContextL(chaos.Score(left[c])+chaos.Score(above[x][c]), L)
				ctxs[c] = append(ctxs[c], thisCtx[c])
				vals[c] = append(vals[c], pix[c])
			}
			above[x] = pix
			left = pix
		}
	}
	return
}

// Encode writes the CM layer for rgba: a flag selecting the chaos
// bucket count, the zone filter map, the chaos-indexed plane tables,
// and each of the four residual planes as its own contiguous,
// zero-run-collapsed, Huffman-coded section.
func Encode(w *bitio.Writer, rgba []uint8, width, height int, m *mask.Mask, lz *lzmatch.Result, opts Options) error {
	if width <= 0 || height <= 0 {
		return ErrBadParams
	}

	L := chaos.NumContexts
	if countEligible(width, height, m, lz) < opts.ChaosThresh {
		L = 1
	}
	w.WriteBit(L == 1)

	zones, zw, _ := chooseZoneFilters(rgba, width, height, m, lz, opts)
	writeZoneMap(w, zones)

	ctxs, vals := residualSequence(rgba, width, height, L, m, lz, zones, zw)

	tables := make([]planeTables, numPlanes)
	for c := 0; c < numPlanes; c++ {
		freqs := make([][]uint64, L)
		for k := range freqs {
			freqs[k] = make([]uint64, planeAlphabet)
		}
		emitPlaneSymbols(ctxs[c], vals[c], func(ctx, sym int) { freqs[ctx][sym]++ })

		tables[c] = make(planeTables, L)
		for k := 0; k < L; k++ {
			tbl, err := huffman.Build(freqs[k])
			if err != nil {
				tbl, _ = huffman.Build([]uint64{1})
			}
			tables[c][k] = tbl
			huffman.WriteTable(w, tbl)
		}
	}

	for c := 0; c < numPlanes; c++ {
		emitPlaneSymbols(ctxs[c], vals[c], func(ctx, sym int) { tables[c][ctx].WriteSymbol(w, sym) })
	}

	return nil
}

func writeZoneMap(w *bitio.Writer, zones []zoneInfo) {
	var sfFreq, cfFreq [256]uint64
	for _, z := range zones {
		if z.used {
			sfFreq[z.sf]++
			cfFreq[z.cf]++
		}
	}
	sfTbl, err := huffman.Build(sfFreq[:filters.SFCount])
	if err != nil {
		sfTbl, _ = huffman.Build([]uint64{1})
	}
	cfTbl, err := huffman.Build(cfFreq[:filters.CFCount])
	if err != nil {
		cfTbl, _ = huffman.Build([]uint64{1})
	}
	huffman.WriteTable(w, sfTbl)
	huffman.WriteTable(w, cfTbl)

	for _, z := range zones {
		w.WriteBit(z.used)
		if z.used {
			sfTbl.WriteSymbol(w, z.sf)
			cfTbl.WriteSymbol(w, z.cf)
		}
	}
}

func readZoneMap(r *bitio.Reader, zw, zh int) ([]zoneInfo, error) {
	sfTbl, err := huffman.ReadTable(r)
	if err != nil {
		return nil, err
	}
	cfTbl, err := huffman.ReadTable(r)
	if err != nil {
		return nil, err
	}

	zones := make([]zoneInfo, zw*zh)
	for i := range zones {
		used, err := r.ReadBit()
		if err != nil {
			return nil, err
		}
		if !used {
			continue
		}
		sf, err := sfTbl.NextSymbol(r)
		if err != nil {
			return nil, err
		}
		cf, err := cfTbl.NextSymbol(r)
		if err != nil {
			return nil, err
		}
		zones[i] = zoneInfo{sf: sf, cf: cf, used: true}
	}
	return zones, nil
}

// decodePlaneValues reads back one plane's full residual sequence: it
// walks the same grid residualSequence did, maintaining the identical
// rolling above/left context state, but resolves each eligible pixel's
// value by consulting the chaos-indexed table instead of computing a
// residual from ground truth.
func decodePlaneValues(r *bitio.Reader, width, height, L int, m *mask.Mask, lz *lzmatch.Result, tbl planeTables) ([]uint8, error) {
	above := make([]uint8, width)
	var left uint8
	var pendingZeros int

	var vals []uint8
	for y := 0; y < height; y++ {
		left = 0
		for x := 0; x < width; x++ {
			if !eligible(x, y, m, lz) {
				above[x] = 0
				left = 0
				continue
			}

			var v uint8
			if pendingZeros > 0 {
				pendingZeros--
			} else {
				ctx := chaos.ContextL(chaos.Score(left)+chaos.Score(above[x]), L)
				sym, err := tbl[ctx].NextSymbol(r)
				if err != nil {
					return nil, err
				}
				if sym < zrleBase {
					v = uint8(sym)
				} else {
					pendingZeros = sym - zrleBase // one zero now, the rest later
				}
			}
			vals = append(vals, v)
			above[x] = v
			left = v
		}
	}
	return vals, nil
}

// Decode rebuilds the full RGBA raster given the already-decoded mask
// and LZ layers: it fills masked pixels with the mask color, copies
// each LZ-covered pixel from its match's source pixel when the scan
// reaches it (the source always precedes it in scan order), and
// inverts the spatial/color filters for every remaining pixel using the
// decoded residual planes.
func Decode(r *bitio.Reader, width, height int, m *mask.Mask, lz *lzmatch.Result) ([]uint8, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrBadParams
	}

	singleContext, err := r.ReadBit()
	if err != nil {
		return nil, err
	}
	L := chaos.NumContexts
	if singleContext {
		L = 1
	}

	zw, zh := zoneGrid(width, height)
	zones, err := readZoneMap(r, zw, zh)
	if err != nil {
		return nil, err
	}

	tables := make([]planeTables, numPlanes)
	for c := 0; c < numPlanes; c++ {
		tables[c] = make(planeTables, L)
		for k := 0; k < L; k++ {
			tbl, err := huffman.ReadTable(r)
			if err != nil {
				return nil, err
			}
			tables[c][k] = tbl
		}
	}

	var vals [numPlanes][]uint8
	for c := 0; c < numPlanes; c++ {
		v, err := decodePlaneValues(r, width, height, L, m, lz, tables[c])
		if err != nil {
			return nil, err
		}
		vals[c] = v
	}

	out := make([]uint8, width*height*4)
	cover := make([]*lzmatch.Match, width*height)
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * 4
			if mt := lz.TriggerAt(x, y); mt != nil {
				for dy := 0; dy < mt.H; dy++ {
					for dx := 0; dx < mt.W; dx++ {
						cover[(mt.DstY+dy)*width+mt.DstX+dx] = mt
					}
				}
			}
			switch {
			case !m.HasRGB(x, y):
				copy(out[idx:idx+4], m.Color[:])

			case lz.Visited(x, y):
				mt := cover[y*width+x]
				src := idx - ((mt.DstY-mt.SrcY)*width+mt.DstX-mt.SrcX)*4
				copy(out[idx:idx+4], out[src:src+4])

			default:
				zi := zones[(y/zoneSize)*zw+(x/zoneSize)]
				var yuv, res [3]uint8
				for c := 0; c < 3; c++ {
					yuv[c] = vals[c][i]
				}
				res = filters.ColorInverse(zi.cf, yuv)
				for c := 0; c < 3; c++ {
					n := gatherNeighbors(out, width, height, x, y, c)
					pred := filters.Predict(zi.sf, n)
					out[idx+c] = pred + res[c]
				}

				d := vals[planeA][i]
				if x > 0 {
					out[idx+3] = out[idx-4+3] - d
				} else {
					out[idx+3] = 255 - d
				}
				i++
			}
		}
	}

	return out, nil
}

func copyBlock(out []uint8, width int, m *lzmatch.Match) {
	for dy := 0; dy < m.H; dy++ {
		srow := ((m.SrcY+dy)*width + m.SrcX) * 4
		drow := ((m.DstY+dy)*width + m.DstX) * 4
		copy(out[drow:drow+m.W*4], out[srow:srow+m.W*4])
	}
}
