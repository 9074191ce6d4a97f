package gcif

import "errors"

// Error kinds per spec.md §7. Any error returned by Encode/Decode is
// fatal to that call; no partial output is ever returned.
var (
	// ErrBadDimensions is returned when W or H is zero or negative, or
	// the supplied pixel buffer's length doesn't match W*H*4. Unlike
	// the original encoder, W and H need not be multiples of 8: the CM
	// layer's zone grid clips its last row/column of zones to the
	// image bounds instead (package cm's zoneBounds), which is what
	// lets spec.md's round-trip property hold for every (W,H) in
	// {1..512}, not just multiples of 8 -- see DESIGN.md.
	ErrBadDimensions = errors.New("gcif: bad image dimensions")
	// ErrBadTable names a Huffman length table that violates Kraft's
	// inequality. Decode does not return it: a bad table is reported,
	// like every other read failure, as ErrCorruptBitstream.
	ErrBadTable = errors.New("gcif: bad huffman table")
	// ErrCorruptBitstream is returned for a truncated stream, a hash
	// trailer mismatch, an out-of-range LZ source, or a panic recovered
	// from an internal bounds check.
	ErrCorruptBitstream = errors.New("gcif: corrupt bitstream")
	// ErrUnsupported is returned for an unrecognized magic word or
	// header version. The header's flag bits are not validated.
	ErrUnsupported = errors.New("gcif: unsupported version or flags")
	// ErrIoError wraps a failure from the caller's sink or source.
	ErrIoError = errors.New("gcif: io error")
)

// CodecError carries one of the sentinel kinds above plus the
// underlying cause, so callers can both errors.Is against a kind and
// inspect the original error with errors.Unwrap/errors.As.
type CodecError struct {
	Kind error
	Err  error
}

func (e *CodecError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// Is reports whether target is e's Kind, so errors.Is(err, gcif.ErrCorruptBitstream)
// works without unwrapping to Err first.
func (e *CodecError) Is(target error) bool {
	return e.Kind == target
}

func wrapErr(kind, err error) error {
	if err == nil {
		return nil
	}
	return &CodecError{Kind: kind, Err: err}
}
