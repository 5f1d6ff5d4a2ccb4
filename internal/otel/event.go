// Package otel records what the client did as structured events.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and a drain goroutine, and
// mirrors each one into an optional RingBuffer that backs the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Feed lifecycle
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"
	KindFetchIgnored  EventKind = "fetch.ignored" // refresh refused or stale result dropped

	// Item interaction
	KindDetailOpen   EventKind = "ui.detail_open"
	KindDetailClose  EventKind = "ui.detail_close"
	KindOpenExternal EventKind = "ui.open_external"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time     `json:"t"`
	Level     Level         `json:"level,omitempty"`
	Kind      EventKind     `json:"kind"`
	Comp      string        `json:"comp,omitempty"` // "feed", "ui", "main"
	SessionID string        `json:"session_id,omitempty"`
	Gen       uint64        `json:"gen,omitempty"` // fetch generation
	VideoID   string        `json:"video_id,omitempty"`
	Dur       time.Duration `json:"-"`
	DurMs     float64       `json:"dur_ms,omitempty"`
	Count     int           `json:"count,omitempty"`
	Err       string        `json:"err,omitempty"`
	Msg       string        `json:"msg,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
