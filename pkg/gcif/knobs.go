package gcif

// Knobs tunes the encoder per spec.md §6. The zero value resolves to
// documented defaults via withDefaults; callers typically start from
// DefaultKnobs() and override individual fields.
//
// Grounded on pkg/compress/jpeg2k's Options/DefaultOptions pattern: a
// plain struct with documented field-level defaults, resolved once at
// the top of Encode rather than scattered through the call stack.
type Knobs struct {
	// CompressLevel trades encode time for ratio in the CM layer's
	// zone-filter search: 0 tries only the identity spatial/color
	// filter pair, 1 limits the search to FilterSelectFuzz candidates
	// per zone, 2 tries every pair (spec §6, compress_level). Encode
	// replaces a zero CompressLevel with the default (1), so level 0 is
	// not reachable through Knobs.
	CompressLevel int
	// FilterSelectFuzz bounds how many (spatial, color) filter
	// candidates CompressLevel 1 evaluates per zone before settling on
	// the cheapest one seen (spec §6, filter_select_fuzz, 1..64).
	FilterSelectFuzz int
	// ChaosThresh is the eligible-pixel-count floor below which the CM
	// layer's chaos indexing collapses to a single shared context
	// instead of NumContexts buckets (spec §6, chaos_thresh).
	ChaosThresh int

	// MaskMinRatio is the minimum fraction of pixels (0..1) the most
	// frequent color must cover before the mask layer engages.
	MaskMinRatio float64

	// LZMaxChain bounds how many earlier same-hash tile positions the
	// 2D LZ matcher tries per candidate position.
	LZMaxChain int
	// LZMinArea is the smallest accepted match rectangle's area in
	// pixels.
	LZMinArea int

	// DisablePalette skips the small-palette fast path (component G)
	// even when the image qualifies, for testing the mask/LZ/CM path
	// directly. The zero value (false) leaves palette mode on, its
	// documented default.
	DisablePalette bool
}

// DefaultKnobs returns the codec's documented default tuning.
func DefaultKnobs() Knobs {
	return Knobs{
		CompressLevel:    1,
		FilterSelectFuzz: 16,
		ChaosThresh:      256,
		MaskMinRatio:     0.05,
		LZMaxChain:       64,
		LZMinArea:        16,
	}
}

func (k Knobs) withDefaults() Knobs {
	d := DefaultKnobs()
	if k.CompressLevel == 0 {
		k.CompressLevel = d.CompressLevel
	}
	if k.FilterSelectFuzz == 0 {
		k.FilterSelectFuzz = d.FilterSelectFuzz
	}
	if k.ChaosThresh == 0 {
		k.ChaosThresh = d.ChaosThresh
	}
	if k.MaskMinRatio == 0 {
		k.MaskMinRatio = d.MaskMinRatio
	}
	if k.LZMaxChain == 0 {
		k.LZMaxChain = d.LZMaxChain
	}
	if k.LZMinArea == 0 {
		k.LZMinArea = d.LZMinArea
	}
	return k
}
