// Package cm implements GCIF's context-modeling residual layer: the
// final stage that encodes whatever pixels the mask and LZ layers left
// behind. Each zone of the image picks its own spatial/color filter
// pair, every residual is entropy coded under a chaos-indexed Huffman
// table (one table per plane per chaos level), and runs of exact-zero
// residuals collapse into a single run symbol instead of one code per
// pixel.
//
// The zone-filter design (try every spatial/color filter combination
// per zone, score by the same chaosScore function used for the
// residual entropy estimate, keep the cheapest) and the chaos-indexed
// per-plane encoder bank are grounded on ImageCMWriter.cpp's
// applyFilters/chaosStats and its write loop (score/scoreYUV,
// SPATIAL_FILTERS/RGB2YUV_FILTERS dispatch, the rolling left/above
// residual buffer that feeds CHAOS_TABLE lookups). The residual-scan
// state machine otherwise follows pkg/compress/jpegls/encoder.go's
// causal-neighbor-gather -> predict -> error -> context -> entropy-code
// shape. The entropy estimator's second-pass rescoring
// (original_source/encoder/EntropyEstimator.cpp) is not reproduced;
// zones are scored directly by chaos.Score cost instead of a
// log2-likelihood model, a deliberate simplification recorded in
// DESIGN.md.
package cm

import (
	"errors"

	"github.com/gcif/gcif/pkg/gcif/chaos"
	"github.com/gcif/gcif/pkg/gcif/filters"
	"github.com/gcif/gcif/pkg/gcif/lzmatch"
	"github.com/gcif/gcif/pkg/gcif/mask"
)

// zoneSize is the side length of one filter-selection zone. Unlike the
// original, width and height need not be multiples of it: the last row
// and column of zones are simply clipped to the image bounds.
const zoneSize = 8

// planeY, planeU, planeV, planeA index the four residual planes a
// pixel contributes to the entropy coder: Y/U/V come out of the color
// filter, A is coded separately as a flat left-delta on raw alpha.
const (
	planeY = iota
	planeU
	planeV
	planeA
	numPlanes
)

// zrleBase/zrleMax extend each plane's 256-value residual alphabet
// with run-length symbols for strings of exact-zero residuals sharing
// one chaos context: symbol zrleBase+n-1 means "n zero residuals",
// n in [1, zrleMax]. This is grounded on pkg/gcif/mask's escape-run
// scheme (itself grounded on pkg/compress/rle/packbits.go), adapted
// from mask's single continuation-vs-literal split to a closed set of
// run-length symbols: since a CM run symbol always occupies exactly
// one slot in its plane's own scan-ordered section of the bitstream,
// decode never
// needs to distinguish "more to come" from "this is all of it" the way
// mask's row runs do.
const (
	zrleBase      = 256
	zrleMax       = 32
	planeAlphabet = zrleBase + zrleMax
)

// ErrBadParams is returned when the image dimensions cannot support
// even one filter zone.
var ErrBadParams = errors.New("cm: bad parameters")

// Options controls the per-zone filter search and the chaos-context
// bucket count, both resolved entirely on the encode side (the
// decoder recovers the bucket count from a single header bit rather
// than recomputing it, so these never need to travel with the
// bitstream itself). Grounded on spec.md's compress_level,
// filter_select_fuzz, and chaos_thresh knobs.
type Options struct {
	// CompressLevel trades search effort for ratio: 0 skips the
	// search entirely (identity filter pair everywhere), 1 limits the
	// search to Fuzz candidate pairs, 2 tries every pair.
	CompressLevel int
	// Fuzz bounds how many (sf, cf) candidates CompressLevel 1
	// evaluates per zone before keeping the cheapest seen so far.
	Fuzz int
	// ChaosThresh is the eligible-pixel-count floor below which the
	// chaos indexing collapses from NumContexts buckets to a single
	// shared one (spec.md's L=1 mode): cheaper per-plane tables pay
	// off once there are too few residuals to fill 8 of them.
	ChaosThresh int
}

// DefaultOptions mirrors gcif.DefaultKnobs' CM-relevant fields.
func DefaultOptions() Options {
	return Options{CompressLevel: 1, Fuzz: 16, ChaosThresh: 256}
}

// countEligible counts pixels the CM layer will actually code, to
// decide between the full and single-context chaos indexing.
func countEligible(width, height int, m *mask.Mask, lz *lzmatch.Result) int {
	n := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if eligible(x, y, m, lz) {
				n++
			}
		}
	}
	return n
}

// zoneInfo is the chosen filter pair for one zone, or the unused
// sentinel when every pixel in the zone is already covered by the
// mask or LZ layers.
type zoneInfo struct {
	sf, cf int
	used   bool
}

func zoneGrid(width, height int) (zw, zh int) {
	return (width + zoneSize - 1) / zoneSize, (height + zoneSize - 1) / zoneSize
}

func zoneBounds(zx, zy, width, height int) (x0, y0, x1, y1 int) {
	x0, y0 = zx*zoneSize, zy*zoneSize
	x1, y1 = x0+zoneSize, y0+zoneSize
	if x1 > width {
		x1 = width
	}
	if y1 > height {
		y1 = height
	}
	return
}

// eligible reports whether (x, y) is coded by the CM layer at all,
// i.e. not already accounted for by the dominant-color mask or an LZ
// match.
func eligible(x, y int, m *mask.Mask, lz *lzmatch.Result) bool {
	return m.HasRGB(x, y) && !lz.Visited(x, y)
}

// gatherNeighbors reads the causal window for channel c at (x, y) out
// of a packed RGBA raster, respecting image bounds exactly as
// filterPixel does.
func gatherNeighbors(rgba []uint8, width, height, x, y, c int) filters.Neighbors {
	var n filters.Neighbors
	if x > 0 {
		n.A = rgba[(y*width+x-1)*4+c]
		n.HasA = true
	}
	if y > 0 {
		n.B = rgba[((y-1)*width+x)*4+c]
		n.HasB = true
		if x > 0 {
			n.C = rgba[((y-1)*width+x-1)*4+c]
		}
		if x+1 < width {
			n.D = rgba[((y-1)*width+x+1)*4+c]
			n.HasD = true
		}
	}
	return n
}

// spatialResidual predicts and differences one RGB triple at (x, y)
// against its causal neighbors under spatial filter sf.
func spatialResidual(rgba []uint8, width, height, x, y, sf int) [3]uint8 {
	var out [3]uint8
	for c := 0; c < 3; c++ {
		n := gatherNeighbors(rgba, width, height, x, y, c)
		pred := filters.Predict(sf, n)
		out[c] = rgba[(y*width+x)*4+c] - pred
	}
	return out
}

// alphaResidual is the flat left-delta the original uses for the
// alpha plane instead of a spatial filter: the previous pixel's raw
// alpha minus this pixel's, or 255 minus this pixel's alpha at the
// start of a row.
func alphaResidual(rgba []uint8, width, x, y int) uint8 {
	a := rgba[(y*width+x)*4+3]
	if x > 0 {
		prev := rgba[(y*width+x-1)*4+3]
		return prev - a
	}
	return 255 - a
}

// zoneUsed reports whether any eligible pixel falls in the zone, for
// the CompressLevel 0 path that skips scoring filter pairs entirely.
func zoneUsed(x0, y0, x1, y1 int, m *mask.Mask, lz *lzmatch.Result) bool {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if eligible(x, y, m, lz) {
				return true
			}
		}
	}
	return false
}

// zoneCost scores one (sf, cf) candidate over a zone by the summed
// chaos cost of its eligible pixels' residuals, the same metric the
// original uses both to rank filters and to index chaos contexts.
// used reports whether the zone has any eligible pixel at all.
func zoneCost(rgba []uint8, width, height, x0, y0, x1, y1, sf, cf int, m *mask.Mask, lz *lzmatch.Result) (cost int, used bool) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if !eligible(x, y, m, lz) {
				continue
			}
			used = true
			res := spatialResidual(rgba, width, height, x, y, sf)
			yuv := filters.ColorForward(cf, res)
			cost += chaos.Score(yuv[0]) + chaos.Score(yuv[1]) + chaos.Score(yuv[2])
		}
	}
	return
}

// chooseZoneFilters picks, for every used zone, an (sf, cf) pair under
// the effort CompressLevel allows: 0 always takes the identity pair
// (sf=0, cf=0) without scoring anything, 1 scores only the first Fuzz
// (sf, cf) candidates in iteration order and keeps the cheapest, 2
// scores every pair.
func chooseZoneFilters(rgba []uint8, width, height int, m *mask.Mask, lz *lzmatch.Result, opts Options) ([]zoneInfo, int, int) {
	zw, zh := zoneGrid(width, height)
	zones := make([]zoneInfo, zw*zh)

	total := filters.SFCount * filters.CFCount
	limit := total
	if opts.CompressLevel <= 1 {
		limit = opts.Fuzz
		if limit <= 0 || limit > total {
			limit = total
		}
	}

	for zy := 0; zy < zh; zy++ {
		for zx := 0; zx < zw; zx++ {
			x0, y0, x1, y1 := zoneBounds(zx, zy, width, height)

			if opts.CompressLevel == 0 {
				zones[zy*zw+zx] = zoneInfo{sf: 0, cf: 0, used: zoneUsed(x0, y0, x1, y1, m, lz)}
				continue
			}

			bestCost := -1
			bestSF, bestCF := 0, 0
			any := false

			tried := 0
			for sf := 0; sf < filters.SFCount && tried < limit; sf++ {
				for cf := 0; cf < filters.CFCount && tried < limit; cf++ {
					tried++
					cost, used := zoneCost(rgba, width, height, x0, y0, x1, y1, sf, cf, m, lz)
					if !used {
						continue
					}
					any = true
					if bestCost == -1 || cost < bestCost {
						bestCost = cost
						bestSF, bestCF = sf, cf
					}
				}
			}

			zones[zy*zw+zx] = zoneInfo{sf: bestSF, cf: bestCF, used: any}
		}
	}

	return zones, zw, zh
}
