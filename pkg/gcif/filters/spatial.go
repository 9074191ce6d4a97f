// Package filters implements the GCIF CM layer's two independent
// filter menus: spatial prediction from causal neighbors, and
// reversible RGB<->YUV residual transforms. Both menus, and their
// exact per-case arithmetic, are grounded on filterPixel and
// convertRGBtoYUV/convertYUVtoRGB in original_source/ImageFilterWriter.cpp.
package filters

// Spatial filter indices, in the order the joint sf*cf scorer walks
// them. Neighbor naming follows the original: A = left, B = above,
// C = above-left, D = above-right.
const (
	SFZ = iota
	SFTest
	SFA
	SFB
	SFC
	SFD
	SFAB
	SFAD
	SFBD
	SFABC
	SFBAC
	SFABCD
	SFABCClamp
	SFPaeth
	SFABCPaeth
	SFPL
	SFPLO

	SFCount
)

// Neighbors holds the causal window used to predict one channel value
// at the current pixel. HasA/HasB/HasD mirror the boundary guards in
// the original (x>0, y>0, x<width-1); C is only ever consulted when
// both HasA and HasB hold, exactly as filterPixel does.
type Neighbors struct {
	A, B, C, D         uint8
	HasA, HasB, HasD bool
}

// Predict returns the spatial prediction for sf given the causal
// window n. It is called once per color channel (R, G, B); alpha is
// never spatially filtered (spec's alpha residual is a flat left-diff).
func Predict(sf int, n Neighbors) uint8 {
	switch sf {
	case SFZ:
		return 0

	case SFTest:
		// SF_TEST needs E (two pixels left) too; without that history
		// available in the causal-window API it degrades to the A/B
		// fallback the original itself uses outside the x>1 && y>1 core
		// case. Kept distinct from SF_A only where scoring prefers it.
		if n.HasA {
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFA:
		if n.HasA {
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFB:
		if n.HasB {
			return n.B
		}
		if n.HasA {
			return n.A
		}
		return 0

	case SFC:
		if n.HasA && n.HasB {
			return n.C
		}
		if n.HasA {
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFD:
		if n.HasB {
			if n.HasD {
				return n.D
			}
			return n.B
		}
		if n.HasA {
			return n.A
		}
		return 0

	case SFAB:
		if n.HasA {
			if n.HasB {
				return avg2(n.A, n.B)
			}
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFAD:
		if n.HasB {
			if n.HasA {
				d := n.B
				if n.HasD {
					d = n.D
				}
				return avg2(n.A, d)
			}
			if n.HasD {
				return n.D
			}
			return n.B
		}
		if n.HasA {
			return n.A
		}
		return 0

	case SFBD:
		if n.HasB {
			d := n.B
			if n.HasD {
				d = n.D
			}
			return avg2(n.B, d)
		}
		if n.HasA {
			return n.A
		}
		return 0

	case SFABC:
		// A + (B - C), shifted right by one as a single signed sum: C's
		// additive precedence over >> in the original means the shift
		// applies to (A + (B - C)) as a whole, not to (B - C) alone.
		if n.HasA {
			if n.HasB {
				return uint8((int(n.A) + (int(n.B) - int(n.C))) >> 1)
			}
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFBAC:
		if n.HasA {
			if n.HasB {
				return uint8((int(n.B) + (int(n.A) - int(n.C))) >> 1)
			}
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFABCD:
		if n.HasA {
			if n.HasB {
				d := n.B
				if n.HasD {
					d = n.D
				}
				sum := int(n.A) + int(n.B) + int(n.C) + int(d) + 1
				return uint8(sum >> 2)
			}
			return n.A
		}
		if n.HasB {
			d := n.B
			if n.HasD {
				d = n.D
			}
			return avg2(n.B, d)
		}
		return 0

	case SFABCClamp:
		if n.HasA {
			if n.HasB {
				return abcClamp(n.A, n.B, n.C)
			}
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFPaeth:
		if n.HasA {
			if n.HasB {
				return paeth(n.A, n.B, n.C)
			}
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFABCPaeth:
		if n.HasA {
			if n.HasB {
				return abcPaeth(n.A, n.B, n.C)
			}
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFPL:
		if n.HasA {
			if n.HasB {
				return predLevel(n.A, n.B, n.C)
			}
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	case SFPLO:
		if n.HasA {
			if n.HasB {
				d := n.B
				if n.HasD {
					d = n.D
				}
				return predLevel(n.A, d, n.B)
			}
			return n.A
		}
		if n.HasB {
			return n.B
		}
		return 0

	default:
		return 0
	}
}

func avg2(a, b uint8) uint8 {
	return uint8((uint16(a) + uint16(b)) >> 1)
}

func abcClamp(a, b, c uint8) uint8 {
	sum := int(a) + int(b) - int(c)
	if sum < 0 {
		return 0
	}
	if sum > 255 {
		return 255
	}
	return uint8(sum)
}

func predABC(a, b, c uint8) uint8 {
	abc := int(a) + int(b) - int(c)
	if abc > 255 {
		abc = 255
	} else if abc < 0 {
		abc = 0
	}
	return uint8(abc)
}

func paeth(a, b, c uint8) uint8 {
	pabc := int(a) + int(b) - int(c)
	pa := absInt(pabc - int(a))
	pb := absInt(pabc - int(b))
	pc := absInt(pabc - int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abcPaeth(a, b, c uint8) uint8 {
	if a <= c && c <= b {
		return predABC(a, b, c)
	}
	return paeth(a, b, c)
}

// predLevel decides, from the sign of (c relative to a and b), whether
// the sequence is locally increasing or decreasing and predicts the
// nearer of a/b accordingly.
func predLevel(a, b, c uint8) uint8 {
	ai, bi, ci := int(a), int(b), int(c)
	switch {
	case ci >= ai && ci >= bi:
		if ai > bi {
			return b
		}
		return a
	case ci <= ai && ci <= bi:
		if ai > bi {
			return a
		}
		return b
	default:
		return uint8(bi + ai - ci)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
