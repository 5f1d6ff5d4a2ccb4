package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abelbrown/ytsummary/internal/config"
)

// eventRecord mirrors otel.Event for JSON decoding. Decoding from JSONL
// rather than importing otel keeps old logs readable when the schema moves.
type eventRecord struct {
	Time      time.Time `json:"t"`
	Level     string    `json:"level"`
	Kind      string    `json:"kind"`
	Comp      string    `json:"comp"`
	SessionID string    `json:"session_id"`
	Gen       uint64    `json:"gen"`
	VideoID   string    `json:"video_id"`
	DurMs     float64   `json:"dur_ms"`
	Count     int       `json:"count"`
	Err       string    `json:"err"`
	Msg       string    `json:"msg"`
}

// eventFilter selects which records the viewer prints.
type eventFilter struct {
	kind     string
	minLevel string
	comp     string
	session  string
	video    string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.minLevel != "" && levelRank(ev.Level) < levelRank(f.minLevel) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.session != "" && !strings.HasPrefix(ev.SessionID, f.session) {
		return false
	}
	if f.video != "" && ev.VideoID != f.video {
		return false
	}
	return true
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func runEvents(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tail := fs.Int("tail", 50, "Number of recent lines to show")
	follow := fs.Bool("f", false, "Follow mode (like tail -f)")
	path := fs.String("file", config.DefaultConfig().EventsPath(), "Event log to read")
	rawJSON := fs.Bool("json", false, "Output raw JSON lines")
	var filter eventFilter
	fs.StringVar(&filter.kind, "kind", "", "Filter by event kind prefix (e.g. 'fetch')")
	fs.StringVar(&filter.minLevel, "level", "", "Minimum level: debug, info, warn, error")
	fs.StringVar(&filter.comp, "comp", "", "Filter by component name (feed, ui, main)")
	fs.StringVar(&filter.session, "session", "", "Filter by session ID prefix")
	fs.StringVar(&filter.video, "video", "", "Filter by video ID")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintf(stderr, "  Event log not found at %s\n", *path)
		fmt.Fprintf(stderr, "  Run ytsummary first to generate events.\n")
		return 1
	}
	defer f.Close()

	format := formatEvent
	if *rawJSON {
		format = func(_ eventRecord, raw []byte) string { return string(raw) }
	}

	reader := bufio.NewReaderSize(f, 64*1024)
	lines, partial := readTailLines(reader, *tail, filter.match)
	for _, l := range lines {
		fmt.Fprintln(stdout, format(l.ev, l.raw))
	}
	if !*follow {
		return 0
	}

	// Poll for lines appended after the initial read.
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return 1
			}
			partial = append(partial, line...)
			select {
			case <-ctx.Done():
				return 0
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if len(partial) > 0 {
			line = append(partial, line...)
			partial = nil
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if filter.match(ev) {
			fmt.Fprintln(stdout, format(ev, line))
		}
	}
}

// formatEvent renders one record as a single human-readable line.
func formatEvent(ev eventRecord, _ []byte) string {
	ts := ev.Time.Local().Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-4s] %-18s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.Gen > 0 {
		parts = append(parts, fmt.Sprintf("gen=%d", ev.Gen))
	}
	if ev.VideoID != "" {
		parts = append(parts, "video="+ev.VideoID)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r to EOF and returns the last n lines matching the
// filter. Lines that are not valid events are skipped. A trailing line
// without a newline is returned as partial so follow mode can complete it.
func readTailLines(r *bufio.Reader, n int, match func(eventRecord) bool) (lines []parsedLine, partial []byte) {
	if n < 0 {
		n = 0
	}
	ring := make([]parsedLine, 0, n)

	for {
		raw, err := r.ReadBytes('\n')
		if err != nil {
			return ring, raw
		}
		raw = trimLine(raw)
		if len(raw) == 0 || n == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: raw})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: raw}
		}
	}
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
