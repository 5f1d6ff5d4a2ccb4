// Command ytsummary is a terminal viewer for the AI-generated summaries of
// one YouTube channel's videos.
//
// Usage:
//
//	ytsummary                  Open the feed in the TUI
//	ytsummary --once           Fetch once, print the feed as text and exit
//	ytsummary --api URL        Use a different summary backend
//	ytsummary --config PATH    Read settings from PATH
//	ytsummary events [flags]   JSONL event log viewer
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/abelbrown/ytsummary/internal/config"
	"github.com/abelbrown/ytsummary/internal/controller"
	"github.com/abelbrown/ytsummary/internal/fetch"
	"github.com/abelbrown/ytsummary/internal/logging"
	"github.com/abelbrown/ytsummary/internal/markdown"
	"github.com/abelbrown/ytsummary/internal/otel"
	"github.com/abelbrown/ytsummary/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
)

const usage = `ytsummary - YouTube channel summaries in the terminal

Usage:
  ytsummary [flags]
  ytsummary events [flags]

Flags:
  --config PATH   Config file (default $YTSUMMARY_CONFIG or ~/.ytsummary/config.yaml)
  --api URL       Summary backend base URL (default from config)
  --once          Fetch once, print the feed as text and exit

Environment:
  YTSUMMARY_API_URL    Backend base URL
  YTSUMMARY_CHANNEL    Channel handle shown in the header
  YTSUMMARY_LIMIT      Number of summaries to request
  YTSUMMARY_LOG_LEVEL  Diagnostic log level (debug, info, warn, error)

Run 'ytsummary events -h' for event viewer flags.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "events" {
		os.Exit(runEvents(ctx, args[1:], os.Stdout, os.Stderr))
	}
	os.Exit(run(ctx, args))
}

func run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ytsummary", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	configPath := fs.String("config", "", "Config file")
	apiURL := fs.String("api", "", "Summary backend base URL")
	once := fs.Bool("once", false, "Fetch once, print the feed as text and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ytsummary: %v\n", err)
		return 1
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "ytsummary: %v\n", err)
			return 1
		}
	}
	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ytsummary: %v\n", err)
		return 1
	}

	// Diagnostics go to a file: the TUI owns the terminal.
	if err := logging.Init(cfg.LogDir(), cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "ytsummary: warning: %v\n", err)
	}
	defer logging.Close()

	events, closeEvents := openEvents(cfg)
	defer closeEvents()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", "ytsummary starting")
	defer events.Info(otel.KindShutdown, "main", "ytsummary exiting")

	client, err := fetch.NewClient(fetch.Options{
		BaseURL:     cfg.API.BaseURL,
		Limit:       cfg.API.Limit,
		Timeout:     cfg.API.Timeout,
		MinInterval: cfg.API.MinInterval,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ytsummary: %v\n", err)
		return 1
	}
	logging.Info("Feed client ready", "endpoint", client.Endpoint(), "session", events.SessionID())

	feed := controller.NewFeedController(client, events)
	defer feed.Close()

	opts := ui.Options{
		ChannelName:   cfg.UI.ChannelName,
		SkeletonCount: cfg.UI.SkeletonCount,
		DateLayout:    cfg.UI.DateLayout,
		Location:      loc,
		Events:        events,
		Ring:          ring,
	}

	if *once {
		return runOnce(ctx, feed, opts, os.Stdout, os.Stderr)
	}

	// The style is resolved before the program starts: querying the terminal
	// background after it has switched to raw mode garbles the screen.
	style := "light"
	if lipgloss.HasDarkBackground() {
		style = "dark"
	}
	opts.Render = markdown.NewRenderer(style).Render
	opts.Open = openBrowser

	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(ui.NewApp(feed, opts), programOpts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logging.Error("TUI exited with error", "err", err)
		events.Error(otel.KindError, "main", err)
		fmt.Fprintf(os.Stderr, "ytsummary: %v\n", err)
		return 1
	}
	return 0
}

// runOnce performs a single load and prints the outcome as plain text.
func runOnce(ctx context.Context, feed *controller.FeedController, opts ui.Options, stdout, stderr io.Writer) int {
	req := feed.Load()
	if req == nil {
		return 1
	}

	// The controller is owned by this goroutine; only the fetch runs aside.
	results := make(chan controller.Result, 1)
	go func() { results <- req() }()

	var r controller.Result
	select {
	case r = <-results:
	case <-ctx.Done():
		feed.Close()
		r = <-results
	}
	if !feed.Apply(r) {
		fmt.Fprintln(stderr, "ytsummary: interrupted")
		return 130
	}

	st := feed.State()
	if err := ui.WritePlain(stdout, st, opts); err != nil {
		fmt.Fprintf(stderr, "ytsummary: %v\n", err)
		return 1
	}
	if st.Phase == controller.PhaseError {
		return 1
	}
	return 0
}

// openEvents opens the JSONL event log for appending. Events are optional:
// on failure the session runs with a logger that discards them.
func openEvents(cfg *config.Config) (*otel.Logger, func()) {
	path := cfg.EventsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logging.Warn("Event log disabled", "err", err)
		null := otel.NewNullLogger()
		return null, null.Close
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logging.Warn("Event log disabled", "path", path, "err", err)
		null := otel.NewNullLogger()
		return null, null.Close
	}
	events := otel.NewLogger(f)
	return events, func() {
		events.Close()
		f.Close()
	}
}

// openBrowser hands url to the system browser. The helper processes inherit
// no terminal output so they cannot scribble over the TUI.
func openBrowser(url string) error {
	return browser.OpenURL(url)
}

func init() {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}
