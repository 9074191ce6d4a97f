// Package gcif is the top-level driver for the GCIF codec: it owns
// the fixed header, sequences the small-palette, mask, LZ, and CM
// layers in the order spec.md §2 specifies, and wires the Murmur3
// integrity trailer around the whole stream.
//
// Grounded on original_source/ImageWriter.cpp/ImageReader.cpp's
// documented encode/decode order (palette first, then mask, then LZ,
// then CM, each layer consuming the previous layers' output) and on
// the teacher's pkg/compress/jpeg2k.Encode/Decode shape: resolve
// options, validate dimensions, run the pipeline, return bytes or a
// wrapped sentinel error.
package gcif

import (
	"crypto/md5"
	"fmt"

	"github.com/google/uuid"

	"github.com/gcif/gcif/pkg/gcif/bitio"
	"github.com/gcif/gcif/pkg/gcif/cm"
	"github.com/gcif/gcif/pkg/gcif/lzmatch"
	"github.com/gcif/gcif/pkg/gcif/mask"
	"github.com/gcif/gcif/pkg/gcif/palette"
)

// Stats reports diagnostics from the most recent Encode/Decode call,
// surfaced by the CLI's -v flag.
type Stats struct {
	RunID         string
	Width, Height int
	Bytes         int
	PaletteUsed   bool
	PaletteSize   int
	MaskPresent   bool
	LZMatches     int
}

// Encode compresses an RGBA raster (row-major, width*height*4 bytes,
// channel order R,G,B,A) per spec.md §6.
func Encode(rgba []uint8, width, height int, knobs Knobs) (out []byte, stats Stats, err error) {
	if width <= 0 || height <= 0 || len(rgba) != width*height*4 {
		return nil, Stats{}, ErrBadDimensions
	}
	knobs = knobs.withDefaults()

	h := header{version: version, width: width, height: height, seed: headerSeed(width, height)}

	var pal *palette.Palette
	if !knobs.DisablePalette {
		if p, perr := palette.Detect(rgba, width, height); perr == nil && len(p.Colors) > 1 {
			pal = p
		}
	}
	if pal != nil {
		h.flags |= flagPalette
	} else {
		h.flags |= flagMask | flagLZ | flagCM
	}

	bw := bitio.NewWriter()
	writeHeader(bw, h)

	if pal != nil {
		if err := palette.Write(bw, pal); err != nil {
			return nil, Stats{}, wrapErr(ErrBadDimensions, err)
		}
		stats.PaletteUsed = true
		stats.PaletteSize = len(pal.Colors)
	} else {
		minCount := int(knobs.MaskMinRatio * float64(width*height))
		m := mask.Detect(rgba, width, height, minCount)
		mask.Write(bw, m)

		lz := lzmatch.Find(rgba, width, height, lzmatch.Config{MaxChain: knobs.LZMaxChain, MinMatchArea: knobs.LZMinArea})
		lzmatch.Write(bw, lz)

		cmOpts := cm.Options{
			CompressLevel: knobs.CompressLevel,
			Fuzz:          knobs.FilterSelectFuzz,
			ChaosThresh:   knobs.ChaosThresh,
		}
		if err := cm.Encode(bw, rgba, width, height, m, lz, cmOpts); err != nil {
			return nil, Stats{}, wrapErr(ErrBadDimensions, err)
		}

		stats.MaskPresent = m.Present
		stats.LZMatches = len(lz.Matches)
	}

	out = bw.Finalize(h.seed)
	stats.RunID = runID(out[:headerBytes])
	stats.Width, stats.Height = width, height
	stats.Bytes = len(out)
	return out, stats, nil
}

// Decode reconstructs the RGBA raster and dimensions encoded by
// Encode. Decode recovers a corrupt or truncated stream as
// ErrCorruptBitstream rather than panicking: a single recover() at the
// bottom of this function is the taxonomy's one panic boundary,
// mirroring ImageMaskReader's defensive bounds checks in the original.
func Decode(data []byte) (rgba []uint8, width, height int, stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			rgba, stats, err = nil, Stats{}, wrapErr(ErrCorruptBitstream, fmt.Errorf("panic: %v", r))
		}
	}()

	r, rerr := bitio.NewReader(data)
	if rerr != nil {
		return nil, 0, 0, Stats{}, wrapErr(ErrCorruptBitstream, rerr)
	}
	h, herr := readHeader(r)
	if herr != nil {
		if herr == ErrUnsupported {
			return nil, 0, 0, Stats{}, ErrUnsupported
		}
		return nil, 0, 0, Stats{}, wrapErr(ErrCorruptBitstream, herr)
	}
	if h.width <= 0 || h.height <= 0 {
		return nil, 0, 0, Stats{}, ErrBadDimensions
	}

	stats.Width, stats.Height = h.width, h.height

	if h.flags&flagPalette != 0 {
		p, perr := palette.Read(r, h.width, h.height)
		if perr != nil {
			return nil, 0, 0, Stats{}, wrapErr(ErrCorruptBitstream, perr)
		}
		rgba = p.ToRGBA()
		stats.PaletteUsed = true
		stats.PaletteSize = len(p.Colors)
	} else {
		m, merr := mask.Read(r, h.width, h.height)
		if merr != nil {
			return nil, 0, 0, Stats{}, wrapErr(ErrCorruptBitstream, merr)
		}
		lz, lerr := lzmatch.Read(r, h.width, h.height)
		if lerr != nil {
			return nil, 0, 0, Stats{}, wrapErr(ErrCorruptBitstream, lerr)
		}
		rgba, err = cm.Decode(r, h.width, h.height, m, lz)
		if err != nil {
			return nil, 0, 0, Stats{}, wrapErr(ErrCorruptBitstream, err)
		}
		stats.MaskPresent = m.Present
		stats.LZMatches = len(lz.Matches)
	}

	if verr := r.VerifyHash(h.seed); verr != nil {
		return nil, 0, 0, Stats{}, wrapErr(ErrCorruptBitstream, verr)
	}

	stats.RunID = runID(data[:headerBytes])
	stats.Bytes = len(data)
	return rgba, h.width, h.height, stats, nil
}

// headerBytes is the fixed header's size on the wire: one magic word,
// one word packing version+flags, W, H, and seed -- five words.
const headerBytes = 5 * 4

// headerSeed derives the hash-trailer seed from the image geometry, so
// two encodes of images with different dimensions never accidentally
// share a seed even if their pixel content collides.
func headerSeed(width, height int) uint32 {
	return uint32(width)*2654435761 ^ uint32(height)*40503
}

// runID derives a stable diagnostic identifier from the header bytes:
// hash then reinterpret as a UUID, grounded on the teacher's
// pkg/util.HashUUID (md5 the payload, treat the first 16 bytes as a
// UUID) so Encode/Decode stay deterministic -- no randomness, same
// input always reports the same RunID.
func runID(headerWord []byte) string {
	sum := md5.Sum(headerWord)
	id, err := uuid.FromBytes(sum[:16])
	if err != nil {
		return ""
	}
	return id.String()
}
