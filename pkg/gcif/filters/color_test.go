package filters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gcif/gcif/pkg/gcif/filters"
)

// TestColorFiltersExhaustivelyReversible checks every accepted color
// filter inverts exactly over all 2^24 RGB inputs, per the
// reversibility gate that disqualified CF_E4/E5/E8/E11/F1/F2 from the
// menu in the first place.
func TestColorFiltersExhaustivelyReversible(t *testing.T) {
	for cf := 0; cf < filters.CFCount; cf++ {
		cf := cf
		t.Run(colorFilterName(cf), func(t *testing.T) {
			for r := 0; r < 256; r++ {
				for g := 0; g < 256; g++ {
					for b := 0; b < 256; b++ {
						in := [3]uint8{uint8(r), uint8(g), uint8(b)}
						yuv := filters.ColorForward(cf, in)
						back := filters.ColorInverse(cf, yuv)
						if back != in {
							t.Fatalf("cf=%d in=%v -> yuv=%v -> back=%v", cf, in, yuv, back)
						}
					}
				}
			}
		})
	}
}

func TestColorFilterSpotChecks(t *testing.T) {
	cases := [][3]uint8{
		{0, 0, 0},
		{255, 255, 255},
		{255, 0, 0},
		{0, 255, 0},
		{0, 0, 255},
		{128, 64, 200},
		{1, 254, 17},
	}
	for cf := 0; cf < filters.CFCount; cf++ {
		for _, in := range cases {
			yuv := filters.ColorForward(cf, in)
			back := filters.ColorInverse(cf, yuv)
			assert.Equal(t, in, back, "cf=%d in=%v", cf, in)
		}
	}
}

func colorFilterName(cf int) string {
	names := []string{
		"YUVr", "D8", "D9", "D10", "D11", "D12", "D14", "D18",
		"YCgCoR", "GBRG", "GBRB", "GRBR", "GRBG", "BGRG", "RGB",
	}
	if cf < len(names) {
		return names[cf]
	}
	return "unknown"
}
