// Package controller owns the feed-fetch lifecycle.
//
// # Architecture
//
//	┌─────────┐     ┌────────────────┐     ┌──────────────────┐
//	│ Backend │ ──> │ FeedController │ ──> │ item.Set / View  │
//	│ (HTTP)  │     │ (state machine)│     │ (per-item state) │
//	└─────────┘     └────────────────┘     └──────────────────┘
//
// # State machine
//
//	loading ──ok──> ready
//	loading ──err─> error
//	ready / error ──refresh──> loading
//
// There is no terminal state. Load is the only way into and out of loading.
//
// # Concurrency
//
// FeedController is not safe for concurrent use. It is owned by the UI update
// loop: Load is called there, the returned Request runs off-loop (as a
// tea.Cmd), and its Result is handed back to Apply on the loop. The in-flight
// guard in Load is the only overlap protection; a second Load while a request
// is outstanding is refused rather than raced.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abelbrown/ytsummary/internal/fetch"
	"github.com/abelbrown/ytsummary/internal/logging"
	"github.com/abelbrown/ytsummary/internal/model"
	"github.com/abelbrown/ytsummary/internal/otel"
)

// Phase is the discrete lifecycle state of the feed.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseError
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is a snapshot of the feed. Items is meaningful only in PhaseReady and
// keeps backend order. ErrMessage is set only in PhaseError.
type State struct {
	Phase      Phase
	Items      []model.Summary
	ErrMessage string
	ChannelID  string
}

// Fetcher performs one feed request.
type Fetcher interface {
	Fetch(ctx context.Context) (model.SummaryList, error)
}

// Result is the outcome of one Request.
type Result struct {
	gen  uint64
	List model.SummaryList
	Err  error
	Dur  time.Duration
}

// Gen identifies the Load call that produced the result.
func (r Result) Gen() uint64 { return r.gen }

// Request runs a single fetch. It is safe to call off the owning loop.
type Request func() Result

// FeedController drives the loading/error/ready state machine.
type FeedController struct {
	fetcher Fetcher
	events  *otel.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state    State
	gen      uint64
	inFlight bool
	closed   bool
}

// NewFeedController returns a controller in PhaseLoading with no request
// issued yet. The owner is expected to call Load once at startup.
// events may be nil.
func NewFeedController(f Fetcher, events *otel.Logger) *FeedController {
	ctx, cancel := context.WithCancel(context.Background())
	return &FeedController{
		fetcher: f,
		events:  events,
		ctx:     ctx,
		cancel:  cancel,
		state:   State{Phase: PhaseLoading},
	}
}

// State returns the current snapshot. Callers must not modify Items.
func (c *FeedController) State() State {
	return c.state
}

// InFlight reports whether a request is outstanding.
func (c *FeedController) InFlight() bool {
	return c.inFlight
}

// CanRefresh reports whether the refresh control is enabled.
func (c *FeedController) CanRefresh() bool {
	return !c.inFlight && !c.closed
}

// Load moves the feed to PhaseLoading and returns the Request that performs
// the fetch. It returns nil, without issuing anything, when a request is
// already in flight or the controller is closed.
//
// Items from the previous snapshot are kept while loading so that per-item
// state keyed on them survives the refresh.
func (c *FeedController) Load() Request {
	if !c.CanRefresh() {
		c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchIgnored, Comp: "feed", Gen: c.gen, Msg: "refresh while loading"})
		return nil
	}

	c.gen++
	gen := c.gen
	c.inFlight = true
	c.state.Phase = PhaseLoading
	c.state.ErrMessage = ""

	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchStart, Comp: "feed", Gen: gen})
	logging.Debug("feed load started", "gen", gen)

	ctx, fetcher := c.ctx, c.fetcher
	return func() Result {
		start := time.Now()
		list, err := fetcher.Fetch(ctx)
		return Result{gen: gen, List: list, Err: err, Dur: time.Since(start)}
	}
}

// Apply folds a Result into the state. It returns false when the result is
// stale (superseded or arriving after Close) and was ignored.
func (c *FeedController) Apply(r Result) bool {
	if c.closed || r.gen != c.gen || !c.inFlight {
		c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchIgnored, Comp: "feed", Gen: r.gen, Msg: "stale result"})
		return false
	}
	c.inFlight = false

	if r.Err != nil {
		c.state = State{Phase: PhaseError, ErrMessage: ErrorMessage(r.Err)}
		c.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindFetchError, Comp: "feed", Gen: r.gen, Dur: r.Dur, Err: r.Err.Error()})
		logging.Warn("feed load failed", "gen", r.gen, "err", r.Err)
		return true
	}

	items := r.List.Summaries
	if items == nil {
		items = []model.Summary{}
	}
	c.state = State{Phase: PhaseReady, Items: items, ChannelID: r.List.ChannelID}
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFetchComplete, Comp: "feed", Gen: r.gen, Dur: r.Dur, Count: len(items)})
	logging.Info("feed loaded", "gen", r.gen, "count", len(items), "elapsed", r.Dur)
	return true
}

// Close cancels any in-flight request. Results arriving afterwards are
// ignored. The controller refuses further loads.
func (c *FeedController) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}

// ErrorMessage turns a fetch error into the text shown to the viewer.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, fetch.ErrMalformedResponse):
		return "the server sent an unexpected response"
	case errors.Is(err, fetch.ErrFetchFailed):
		return "failed to fetch summaries: " + unwrapCause(err)
	default:
		return err.Error()
	}
}

// unwrapCause drops the sentinel prefix so the message reads naturally.
func unwrapCause(err error) string {
	msg := err.Error()
	prefix := fetch.ErrFetchFailed.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
