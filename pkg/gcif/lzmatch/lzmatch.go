// Package lzmatch implements GCIF's 2D exact-match layer: find
// rectangular regions of the image that are byte-identical to an
// already-encoded region earlier in scan order, and replace them with
// a (source offset, width, height) triple instead of re-deriving them
// pixel by pixel through the CM layer.
//
// The hash-chain matching strategy (hash a small tile, walk a bounded
// chain of earlier occurrences, verify, then extend) is grounded on
// VP8LHashChain in
// DaanV2-go-webp/pkg/libwebp/enc/backward_references_enc.h.go
// (hash-chain-based LZ77 match finding for WebP's lossless backward
// references), generalized from 1D pixel runs to 2D rectangles since
// GCIF matches whole tiled regions, not just horizontal runs.
package lzmatch

// tileW, tileH are the hash tile dimensions: 4 pixels wide, 2 tall,
// chosen so a hash needs only 8 RGBA samples to commit to a chain
// entry, matching spec.md's component table description of the match
// finder's indexing granularity.
const (
	tileW = 4
	tileH = 2
)

// Config tunes the match finder. Both knobs trade encode time and
// ratio: MaxChain bounds how many earlier same-hash positions are
// tried before giving up, MinMatchArea is the smallest rectangle
// worth the (dx, dy, w, h) overhead instead of falling through to CM.
type Config struct {
	MaxChain     int
	MinMatchArea int
}

// DefaultConfig matches the original encoder's defaults for these
// knobs: a modest chain bound keeps encode time roughly linear, and a
// minimum area of 16 pixels is comfortably above the triple's own
// encoded cost.
func DefaultConfig() Config {
	return Config{MaxChain: 64, MinMatchArea: 16}
}

// Match is one accepted rectangle: the destination is copied from the
// source, both width x height. The source's top-left strictly precedes
// the destination's in scan order, so every source pixel precedes the
// destination pixel it is copied to. extend never grows the two
// rectangles into each other, but the initial 4x2 tiles are not
// checked for overlap.
type Match struct {
	DstX, DstY int
	SrcX, SrcY int
	W, H       int
}

// Result is the full match set for one image, plus the per-pixel
// "this pixel is covered by some match" test the CM layer consults
// (ImageCMWriter.cpp's `_lz->visited(x, y)`).
type Result struct {
	Matches []Match

	width, height int
	visited       []bool
	triggerAt     map[int]*Match // y*width+x -> match starting there
}

// Visited reports whether (x, y) lies in the destination rectangle of
// any accepted match; the CM layer skips such pixels.
func (r *Result) Visited(x, y int) bool {
	return r.visited[y*r.width+x]
}

// TriggerAt returns the match whose destination rectangle begins at
// (x, y), or nil. The CM layer's replay loop checks this at every
// pixel and, on a hit, records the match so each pixel of its
// destination rectangle is copied from the source as the scan reaches
// it, instead of decoding residuals.
func (r *Result) TriggerAt(x, y int) *Match {
	return r.triggerAt[y*r.width+x]
}

// Find scans rgba (row-major RGBA, width*height*4 bytes) for 2D exact
// matches under cfg.
func Find(rgba []uint8, width, height int, cfg Config) *Result {
	r := &Result{width: width, height: height, visited: make([]bool, width*height), triggerAt: make(map[int]*Match)}
	if width < tileW || height < tileH {
		return r
	}

	chains := make(map[uint64][]int) // tile hash -> scan-ordered positions (as y*width+x)

	for y := 0; y <= height-tileH; y++ {
		for x := 0; x <= width-tileW; x++ {
			if r.visited[y*width+x] {
				continue
			}
			h := tileHash(rgba, width, x, y)
			cand := chains[h]

			best := findBestMatch(rgba, width, height, r.visited, x, y, cand, cfg)
			if best != nil {
				r.Matches = append(r.Matches, *best)
				r.triggerAt[best.DstY*width+best.DstX] = &r.Matches[len(r.Matches)-1]
				markVisited(r.visited, width, best.DstX, best.DstY, best.W, best.H)
			}

			chains[h] = appendBounded(cand, y*width+x, cfg.MaxChain*4)
		}
	}
	return r
}

func appendBounded(chain []int, pos, limit int) []int {
	chain = append(chain, pos)
	if len(chain) > limit {
		chain = chain[len(chain)-limit:]
	}
	return chain
}

func tileHash(rgba []uint8, width, x, y int) uint64 {
	var h uint64 = 1469598103934665603 // FNV-1a 64-bit offset basis
	for dy := 0; dy < tileH; dy++ {
		row := ((y+dy)*width + x) * 4
		for b := 0; b < tileW*4; b++ {
			h ^= uint64(rgba[row+b])
			h *= 1099511628211
		}
	}
	return h
}

func findBestMatch(rgba []uint8, width, height int, visited []bool, dstX, dstY int, candidates []int, cfg Config) *Match {
	var best *Match
	bestArea := 0
	tried := 0
	for i := len(candidates) - 1; i >= 0 && tried < cfg.MaxChain; i-- {
		tried++
		pos := candidates[i]
		srcX, srcY := pos%width, pos/width
		if srcY > dstY || (srcY == dstY && srcX >= dstX) {
			continue // source must strictly precede destination in scan order
		}
		if !exactTileMatch(rgba, width, srcX, srcY, dstX, dstY) {
			continue
		}
		w, h := extend(rgba, width, height, visited, srcX, srcY, dstX, dstY)
		area := w * h
		if area > bestArea {
			bestArea = area
			best = &Match{DstX: dstX, DstY: dstY, SrcX: srcX, SrcY: srcY, W: w, H: h}
		}
	}
	if best == nil || bestArea < cfg.MinMatchArea {
		return nil
	}
	return best
}

func exactTileMatch(rgba []uint8, width, srcX, srcY, dstX, dstY int) bool {
	for dy := 0; dy < tileH; dy++ {
		srow := ((srcY+dy)*width + srcX) * 4
		drow := ((dstY+dy)*width + dstX) * 4
		for b := 0; b < tileW*4; b++ {
			if rgba[srow+b] != rgba[drow+b] {
				return false
			}
		}
	}
	return true
}

// extend greedily grows the matched rectangle: first widening while
// every new column matches and stays in bounds, then heightening
// while every new row matches, stopping on any mismatch, any overlap
// between the source and destination rectangles, or any destination
// cell already claimed by an earlier match.
func extend(rgba []uint8, width, height int, visited []bool, srcX, srcY, dstX, dstY int) (w, h int) {
	w, h = tileW, tileH

	for dstX+w < width && srcX+w < width && !rectsOverlap(srcX, srcY, w+1, h, dstX, dstY, w+1, h) {
		ok := true
		for dy := 0; dy < h; dy++ {
			if rgba[((srcY+dy)*width+srcX+w)*4] != rgba[((dstY+dy)*width+dstX+w)*4] ||
				!pixelMatches(rgba, width, srcX+w, srcY+dy, dstX+w, dstY+dy) ||
				visited[(dstY+dy)*width+dstX+w] {
				ok = false
				break
			}
		}
		if !ok {
			break
		}
		w++
	}

	for dstY+h < height && srcY+h < height && !rectsOverlap(srcX, srcY, w, h+1, dstX, dstY, w, h+1) {
		ok := true
		for dx := 0; dx < w; dx++ {
			if !pixelMatches(rgba, width, srcX+dx, srcY+h, dstX+dx, dstY+h) || visited[(dstY+h)*width+dstX+dx] {
				ok = false
				break
			}
		}
		if !ok {
			break
		}
		h++
	}

	return w, h
}

func pixelMatches(rgba []uint8, width, ax, ay, bx, by int) bool {
	ai := (ay*width + ax) * 4
	bi := (by*width + bx) * 4
	for c := 0; c < 4; c++ {
		if rgba[ai+c] != rgba[bi+c] {
			return false
		}
	}
	return true
}

func rectsOverlap(ax, ay, aw, ah, bx, by, bw, bh int) bool {
	return ax < bx+bw && bx < ax+aw && ay < by+bh && by < ay+ah
}

func markVisited(visited []bool, width, x, y, w, h int) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			visited[(y+dy)*width+x+dx] = true
		}
	}
}

