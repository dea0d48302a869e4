package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/flowgridgo/internal/app"
	"github.com/vk/flowgridgo/internal/cli"
	"github.com/vk/flowgridgo/internal/model"
	"github.com/vk/flowgridgo/internal/report"
)

// main is the entrypoint for the flowgridgo application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. It maps run outcomes to process exit codes: configuration
// errors exit 2, job failures exit 1, cancellation exits 3.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	flowgridApp := app.NewApp(outW, appConfig)

	rep, err := flowgridApp.Run(context.Background(), appConfig)
	if err != nil {
		if model.IsConfigError(err) {
			return &cli.ExitError{Code: report.ExitConfigError, Message: err.Error()}
		}
		return err
	}

	if code := rep.ExitCode(); code != report.ExitSuccess {
		return &cli.ExitError{Code: code, Message: fmt.Sprintf("workflow run finished with status %q", rep.Status)}
	}
	return nil
}
