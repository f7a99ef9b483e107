// Command todo-client is a terminal client for the todo API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/example/todo-app/client"
	"github.com/example/todo-app/client/tui"
)

type options struct {
	apiURL  string
	logPath string
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "todo-client: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(opts.logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	api := client.New(opts.apiURL)
	logger.Info("starting", "api", api.BaseURL())

	m := tui.New(ctx, api, logger)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("todo-client", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.apiURL, "api", envOr("TODO_API_URL", client.DefaultBaseURL), "todo collection URL")
	fs.StringVar(&opts.logPath, "log", os.Getenv("TODO_CLIENT_LOG"), "write logs to this file")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// newLogger logs to path, or discards output when path is empty. The
// terminal belongs to the UI, so logs never go to stdout.
func newLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		Level:           log.DebugLevel,
		Formatter:       log.TextFormatter,
		ReportTimestamp: true,
		Prefix:          "todo-client",
	})
	return logger, func() { _ = f.Close() }, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
