package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/abelbrown/ytsummary/internal/fetch"
	"github.com/abelbrown/ytsummary/internal/model"
	"github.com/abelbrown/ytsummary/internal/otel"
)

type fakeFetcher struct {
	calls atomic.Int32
	list  model.SummaryList
	err   error
	// block, when set, holds Fetch until ctx is done.
	block bool
}

func (f *fakeFetcher) Fetch(ctx context.Context) (model.SummaryList, error) {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return model.SummaryList{}, fmt.Errorf("%w: %w", fetch.ErrFetchFailed, ctx.Err())
	}
	return f.list, f.err
}

func records(ids ...string) []model.Summary {
	out := make([]model.Summary, len(ids))
	for i, id := range ids {
		out[i] = model.Summary{VideoID: id, Title: "Title " + id, Summary: "summary " + id}
	}
	return out
}

func TestInitialStateIsLoading(t *testing.T) {
	c := NewFeedController(&fakeFetcher{}, nil)
	if got := c.State().Phase; got != PhaseLoading {
		t.Errorf("initial phase = %v, want loading", got)
	}
	if !c.CanRefresh() {
		t.Error("a fresh controller should accept the startup load")
	}
}

func TestLoadSuccess(t *testing.T) {
	f := &fakeFetcher{list: model.SummaryList{ChannelID: "UC1", Summaries: records("a", "b", "c")}}
	c := NewFeedController(f, nil)

	req := c.Load()
	if req == nil {
		t.Fatal("Load returned nil")
	}
	if c.State().Phase != PhaseLoading || !c.InFlight() {
		t.Fatal("expected loading and in flight before result")
	}

	if !c.Apply(req()) {
		t.Fatal("result should be applied")
	}
	st := c.State()
	if st.Phase != PhaseReady {
		t.Fatalf("phase = %v, want ready", st.Phase)
	}
	if len(st.Items) != 3 {
		t.Errorf("items = %d, want 3", len(st.Items))
	}
	for i, id := range []string{"a", "b", "c"} {
		if st.Items[i].VideoID != id {
			t.Errorf("item %d = %s, want %s", i, st.Items[i].VideoID, id)
		}
	}
	if st.ChannelID != "UC1" {
		t.Errorf("channelID = %q", st.ChannelID)
	}
	if st.ErrMessage != "" {
		t.Errorf("unexpected error message %q", st.ErrMessage)
	}
}

func TestLoadEmptyListIsReady(t *testing.T) {
	c := NewFeedController(&fakeFetcher{}, nil)
	c.Apply(c.Load()())

	st := c.State()
	if st.Phase != PhaseReady {
		t.Fatalf("phase = %v, want ready", st.Phase)
	}
	if st.Items == nil || len(st.Items) != 0 {
		t.Errorf("expected empty non-nil items, got %#v", st.Items)
	}
}

func TestLoadWhileInFlightIsCollapsed(t *testing.T) {
	f := &fakeFetcher{list: model.SummaryList{Summaries: records("a")}}
	c := NewFeedController(f, nil)

	first := c.Load()
	if second := c.Load(); second != nil {
		t.Fatal("second Load while in flight should return nil")
	}
	if c.CanRefresh() {
		t.Error("refresh should be disabled while loading")
	}

	c.Apply(first())
	if got := f.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestFailureClearsItems(t *testing.T) {
	f := &fakeFetcher{list: model.SummaryList{Summaries: records("a", "b")}}
	c := NewFeedController(f, nil)
	c.Apply(c.Load()())

	f.err = fmt.Errorf("%w: HTTP 500 Internal Server Error", fetch.ErrFetchFailed)
	c.Apply(c.Load()())

	st := c.State()
	if st.Phase != PhaseError {
		t.Fatalf("phase = %v, want error", st.Phase)
	}
	if len(st.Items) != 0 {
		t.Errorf("items should be cleared, got %d", len(st.Items))
	}
	if !strings.Contains(st.ErrMessage, "500") {
		t.Errorf("error message %q should mention the status", st.ErrMessage)
	}
}

func TestRefreshAfterErrorResolvesIndependently(t *testing.T) {
	f := &fakeFetcher{err: fmt.Errorf("%w: connection refused", fetch.ErrFetchFailed)}
	c := NewFeedController(f, nil)
	c.Apply(c.Load()())
	if c.State().Phase != PhaseError {
		t.Fatal("expected error phase")
	}

	f.err = nil
	f.list = model.SummaryList{Summaries: records("x")}
	req := c.Load()
	if c.State().Phase != PhaseLoading {
		t.Error("refresh should move back to loading")
	}
	if c.State().ErrMessage != "" {
		t.Error("loading should not carry the previous error")
	}
	c.Apply(req())

	st := c.State()
	if st.Phase != PhaseReady || len(st.Items) != 1 {
		t.Errorf("got phase %v with %d items", st.Phase, len(st.Items))
	}
}

func TestLoadingKeepsPreviousItems(t *testing.T) {
	f := &fakeFetcher{list: model.SummaryList{Summaries: records("a", "b")}}
	c := NewFeedController(f, nil)
	c.Apply(c.Load()())

	c.Load()
	if got := len(c.State().Items); got != 2 {
		t.Errorf("items during refresh = %d, want 2", got)
	}
}

func TestStaleResultIgnored(t *testing.T) {
	f := &fakeFetcher{list: model.SummaryList{Summaries: records("a")}}
	c := NewFeedController(f, nil)

	res := c.Load()()
	c.Apply(res)

	// Re-applying the same generation after it resolved is stale.
	if c.Apply(res) {
		t.Error("a result applied twice should be ignored the second time")
	}

	next := c.Load()
	if c.Apply(res) {
		t.Error("an older generation should be ignored while a newer one is in flight")
	}
	if !c.InFlight() {
		t.Error("stale result should not clear the in-flight flag")
	}
	c.Apply(next())
}

func TestCloseCancelsInFlight(t *testing.T) {
	f := &fakeFetcher{block: true}
	c := NewFeedController(f, nil)

	req := c.Load()
	done := make(chan Result, 1)
	go func() { done <- req() }()

	c.Close()
	res := <-done
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", res.Err)
	}
	if c.Apply(res) {
		t.Error("result after Close should be ignored")
	}
	if c.State().Phase != PhaseLoading {
		t.Errorf("phase changed after Close: %v", c.State().Phase)
	}
	if c.Load() != nil {
		t.Error("Load after Close should return nil")
	}
	c.Close() // idempotent
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: HTTP 404 Not Found", fetch.ErrFetchFailed), "failed to fetch summaries: HTTP 404 Not Found"},
		{fmt.Errorf("%w: unexpected EOF", fetch.ErrMalformedResponse), "the server sent an unexpected response"},
		{fmt.Errorf("%w: %w", fetch.ErrFetchFailed, context.DeadlineExceeded), "request timed out"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := ErrorMessage(tt.err); got != tt.want {
			t.Errorf("ErrorMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestEventsEmitted(t *testing.T) {
	var buf bytes.Buffer
	events := otel.NewLogger(&buf)
	ring := otel.NewRingBuffer(16)
	events.SetRingBuffer(ring)

	f := &fakeFetcher{list: model.SummaryList{Summaries: records("a")}}
	c := NewFeedController(f, events)
	req := c.Load()
	c.Load() // ignored
	c.Apply(req())
	events.Close()

	stats := ring.Stats()
	if stats[otel.KindFetchStart] != 1 {
		t.Errorf("fetch.start = %d, want 1", stats[otel.KindFetchStart])
	}
	if stats[otel.KindFetchComplete] != 1 {
		t.Errorf("fetch.complete = %d, want 1", stats[otel.KindFetchComplete])
	}
	if stats[otel.KindFetchIgnored] != 1 {
		t.Errorf("fetch.ignored = %d, want 1", stats[otel.KindFetchIgnored])
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseReady.String() != "ready" || PhaseError.String() != "error" || PhaseLoading.String() != "loading" {
		t.Error("unexpected phase names")
	}
	if Phase(9).String() != "Phase(9)" {
		t.Errorf("unknown phase = %q", Phase(9).String())
	}
}
