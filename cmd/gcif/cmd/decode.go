package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcif/gcif/pkg/gcif"
)

// NewDecodeCmd implements `gcif -d in.gci out.png` as `gcif decode
// in.gci out.png`: read a GCIF bitstream, decode it with gcif.Decode,
// and re-encode the resulting raster as PNG via the standard
// image/png package.
func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <in.gci> <out.png>",
		Short: "decode a GCIF bitstream to a PNG file (gcif -d)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath, outPath := args[0], args[1]

			data, err := os.ReadFile(inPath)
			if err != nil {
				return wrapExit(ExitIOError, fmt.Errorf("read %s: %w", inPath, err))
			}

			rgba, width, height, stats, err := gcif.Decode(data)
			if err != nil {
				if errors.Is(err, gcif.ErrCorruptBitstream) {
					return wrapExit(ExitCorrupt, err)
				}
				return wrapExit(ExitBadArgs, err)
			}

			img := fromRGBA(rgba, width, height)
			f, err := os.Create(outPath)
			if err != nil {
				return wrapExit(ExitIOError, fmt.Errorf("create %s: %w", outPath, err))
			}
			encErr := png.Encode(f, img)
			f.Close()
			if encErr != nil {
				return wrapExit(ExitIOError, fmt.Errorf("encode png %s: %w", outPath, encErr))
			}

			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				printStats(cmd, stats)
			}
			slog.InfoContext(ctx, "decoded", "in", inPath, "out", outPath, "bytes", stats.Bytes)
			return nil
		},
	}
	return cmd
}

func fromRGBA(rgba []uint8, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: rgba[i], G: rgba[i+1], B: rgba[i+2], A: rgba[i+3]})
			i += 4
		}
	}
	return img
}
