package cmd

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcif/gcif/pkg/gcif"
)

// NewEncodeCmd implements `gcif -c in.png out.gci` as `gcif encode in.png
// out.gci`: PNG decode via the standard image/png package (spec.md §1
// places PNG ingress outside the codec core), convert to a tightly
// packed RGBA raster, and hand it to gcif.Encode.
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <in.png> <out.gci>",
		Short: "encode a PNG file to a GCIF bitstream (gcif -c)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath, outPath := args[0], args[1]

			f, err := os.Open(inPath)
			if err != nil {
				return wrapExit(ExitIOError, fmt.Errorf("open %s: %w", inPath, err))
			}
			img, err := png.Decode(f)
			f.Close()
			if err != nil {
				return wrapExit(ExitBadArgs, fmt.Errorf("decode png %s: %w", inPath, err))
			}

			rgba, width, height := toRGBA(img)
			knobs := knobsFromFlags(cmd)

			data, stats, err := gcif.Encode(rgba, width, height, knobs)
			if err != nil {
				return wrapExit(ExitBadArgs, err)
			}

			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return wrapExit(ExitIOError, fmt.Errorf("write %s: %w", outPath, err))
			}

			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				printStats(cmd, stats)
			}
			slog.InfoContext(ctx, "encoded", "in", inPath, "out", outPath, "bytes", stats.Bytes)
			return nil
		},
	}
	return cmd
}

func toRGBA(img image.Image) (rgba []uint8, width, height int) {
	b := img.Bounds()
	width, height = b.Dx(), b.Dy()
	rgba = make([]uint8, width*height*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			rgba[i] = uint8(r >> 8)
			rgba[i+1] = uint8(g >> 8)
			rgba[i+2] = uint8(bl >> 8)
			rgba[i+3] = uint8(a >> 8)
			i += 4
		}
	}
	return rgba, width, height
}

func printStats(cmd *cobra.Command, stats gcif.Stats) {
	cmd.Printf("run=%s size=%dx%d bytes=%d palette=%v(%d) mask=%v lzMatches=%d\n",
		stats.RunID, stats.Width, stats.Height, stats.Bytes,
		stats.PaletteUsed, stats.PaletteSize, stats.MaskPresent, stats.LZMatches)
}
