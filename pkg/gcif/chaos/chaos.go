// Package chaos implements the chaos-metric indexing shared by the
// monochrome coder and the CM residual layer: a cheap local-activity
// estimate derived from already-decoded neighbor residuals, used to
// pick which of several per-context Huffman tables encodes the next
// symbol.
//
// Grounded on chaosScore/CalculateChaos in
// original_source/ImageFilterWriter.cpp. The table there is a
// generator-produced constant (CHAOS_TABLE[512]); rather than embed
// the 512-entry literal, Score/Context below compute it directly from
// the same formula the generator uses (CalculateChaos), which the
// literal table (ImageFilterWriter.cpp:1685-1700) shows is
// `BSR32(sum)+1` (i.e. `bits.Len32(sum)`) clipped to 7 for sum>0.
package chaos

import "math/bits"

// NumContexts is the number of distinct chaos buckets a residual sum
// can fall into (0..7 inclusive).
const NumContexts = 8

// Score maps a residual byte to its chaos contribution: small
// magnitude deviations (by wraparound distance from zero) score low,
// large ones score high, symmetric around the byte's midpoint.
func Score(residual uint8) int {
	if residual < 128 {
		return int(residual)
	}
	return 256 - int(residual)
}

// Context maps the sum of two neighboring chaos scores (range
// [0, 510]) to one of NumContexts buckets. It reproduces
// CalculateChaos(sum) from the original generator exactly:
// bits.Len32(sum) clipped to 7 for sum > 0, else 0.
func Context(sum int) int {
	if sum <= 0 {
		return 0
	}
	c := bits.Len32(uint32(sum))
	if c > 7 {
		c = 7
	}
	return c
}

// ContextL is Context generalized to a reduced bucket count L: L=1
// collapses every sum into a single shared context (the low-pixel-
// count special case spec.md's chaos_thresh knob selects), any other
// L behaves exactly like Context. NumContexts is the only other value
// callers pass.
func ContextL(sum, L int) int {
	if L == 1 {
		return 0
	}
	return Context(sum)
}
