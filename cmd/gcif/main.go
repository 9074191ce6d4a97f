package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gcif/gcif/cmd/gcif/cmd"
	"github.com/gcif/gcif/pkg/logging"
)

var GitSHA string = "NA"

func main() {
	ctx, cnc := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cnc()
	go func() {
		defer cnc()
		<-ctx.Done()
	}()

	slog.SetDefault(logging.Logger(os.Stdout, false, slog.LevelInfo))
	ctx = logging.AppendCtx(ctx, slog.Group("gcif", slog.String("git", GitSHA)))

	root := cmd.NewRoot(ctx, GitSHA)
	if err := root.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
