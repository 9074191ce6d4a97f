// Package cmd wires the gcif command tree: encode, decode, and version,
// plus the persistent flags (--level, --verbose, --log-level) spec.md
// §6's CLI surface names.
//
// Grounded on the teacher's cmd/ctl/cmd/root.go: one NewRoot
// constructor, one New*Cmd constructor per subcommand, a
// PersistentPreRun that resolves --log-level into the global slog
// logger before any subcommand runs.
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gcif/gcif/pkg/gcif"
	"github.com/gcif/gcif/pkg/logging"
)

// Exit codes per spec.md §6.
const (
	ExitOK        = 0
	ExitBadArgs   = 1
	ExitIOError   = 2
	ExitCorrupt   = 3
)

// exitError pairs a CLI-facing error with the process exit code it
// should produce, so ExitCode can recover it after cobra's Execute
// returns a plain error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func wrapExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// ExitCode recovers the process exit status for an error returned from
// a subcommand's RunE, classifying unwrapped codec/IO errors that never
// passed through wrapExit.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch {
	case errors.Is(err, gcif.ErrCorruptBitstream), errors.Is(err, gcif.ErrBadTable):
		return ExitCorrupt
	case errors.Is(err, gcif.ErrBadDimensions), errors.Is(err, gcif.ErrUnsupported):
		return ExitBadArgs
	case errors.Is(err, os.ErrNotExist), errors.Is(err, gcif.ErrIoError):
		return ExitIOError
	default:
		return ExitBadArgs
	}
}

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	root := &cobra.Command{
		Use:           "gcif",
		Short:         "lossless RGBA image codec (Game Closure Image Format)",
		Long:          "gcif encodes and decodes GCIF bitstreams: a mask + 2D LZ + context-model layered lossless codec for RGBA rasters.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}
			slog.SetDefault(logging.Logger(os.Stderr, false, level))
		},
	}
	root.AddCommand(
		NewVersionCmd(gitsha),
		NewEncodeCmd(ctx),
		NewDecodeCmd(ctx),
	)
	pf := root.PersistentFlags()
	pf.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	pf.IntP("level", "L", 1, "compress level 1..2 (CM zone-filter search effort; 0 is treated as 1)")
	pf.BoolP("verbose", "v", false, "print codec stats after encode/decode")
	return root
}

func NewVersionCmd(gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the build's git sha",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(gitsha)
		},
	}
}

func knobsFromFlags(cmd *cobra.Command) gcif.Knobs {
	level, _ := cmd.Flags().GetInt("level")
	k := gcif.DefaultKnobs()
	k.CompressLevel = level
	return k
}
