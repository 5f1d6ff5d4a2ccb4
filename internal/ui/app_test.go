package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/ytsummary/internal/controller"
	"github.com/abelbrown/ytsummary/internal/fetch"
	"github.com/abelbrown/ytsummary/internal/item"
	"github.com/abelbrown/ytsummary/internal/model"
	"github.com/abelbrown/ytsummary/internal/otel"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// stubFetcher returns whatever list or err it currently holds.
type stubFetcher struct {
	calls int
	list  model.SummaryList
	err   error
}

func (f *stubFetcher) Fetch(ctx context.Context) (model.SummaryList, error) {
	f.calls++
	return f.list, f.err
}

// mockOpener records URLs handed to the browser.
type mockOpener struct {
	urls []string
	err  error
}

func (m *mockOpener) open(url string) error {
	m.urls = append(m.urls, url)
	return m.err
}

func summaries(ids ...string) model.SummaryList {
	out := make([]model.Summary, len(ids))
	for i, id := range ids {
		out[i] = model.Summary{
			VideoID:      id,
			Title:        "Video " + id,
			ChannelTitle: "Channel",
			PublishedAt:  "2024-05-30T08:00:00Z",
			Summary:      "Short summary of " + id,
			ProcessedAt:  testNow.Add(-72 * time.Hour).Format(time.RFC3339),
		}
	}
	return model.SummaryList{Summaries: out}
}

func newTestApp(f *stubFetcher, opener *mockOpener) App {
	opts := Options{Now: func() time.Time { return testNow }, Location: time.UTC}
	if opener != nil {
		opts.Open = opener.open
	}
	app := NewApp(controller.NewFeedController(f, nil), opts)
	m, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return m.(App)
}

// run executes cmd, flattening batches. Spinner ticks are dropped so tests
// never wait on the animation timer.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	case spinner.TickMsg:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

// settle runs cmd and feeds every resulting message back into the app.
func settle(t *testing.T, app App, cmd tea.Cmd) App {
	t.Helper()
	for _, msg := range run(cmd) {
		m, _ := app.Update(msg)
		app = m.(App)
	}
	return app
}

func press(app App, k string) (App, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m, cmd := app.Update(msg)
	return m.(App), cmd
}

func click(app App, x, y int) (App, tea.Cmd) {
	m, cmd := app.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	return m.(App), cmd
}

func loaded(t *testing.T, f *stubFetcher, opener *mockOpener) App {
	t.Helper()
	app := newTestApp(f, opener)
	return settle(t, app, app.Init())
}

func TestAppInitLoadsOnce(t *testing.T) {
	f := &stubFetcher{list: summaries("a", "b", "c")}
	app := newTestApp(f, nil)

	cmd := app.Init()
	if cmd == nil {
		t.Fatal("Init should return a command")
	}
	app = settle(t, app, cmd)

	if f.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls)
	}
	if app.Items().Len() != 3 {
		t.Errorf("items = %d, want 3", app.Items().Len())
	}
	view := app.View()
	for _, title := range []string{"Video a", "Video b", "Video c"} {
		if !strings.Contains(view, title) {
			t.Errorf("view missing %q", title)
		}
	}
	if !strings.Contains(view, "(3)") {
		t.Error("header should show the item count")
	}
}

func TestAppSkeletonWhileLoading(t *testing.T) {
	f := &stubFetcher{list: summaries("a")}
	app := newTestApp(f, nil)
	app.Init()

	view := app.View()
	rows := 0
	for _, line := range strings.Split(view, "\n") {
		if strings.Contains(line, "░") {
			rows++
		}
	}
	// Six placeholder cards of three bars each.
	if rows != 18 {
		t.Errorf("skeleton rows = %d, want 18", rows)
	}
	if strings.Contains(view, "Something went wrong") || strings.Contains(view, "No summaries yet") {
		t.Error("loading should show neither the error nor the empty state")
	}
}

func TestAppRefreshWhileLoadingIsIgnored(t *testing.T) {
	f := &stubFetcher{list: summaries("a")}
	app := newTestApp(f, nil)
	initCmd := app.Init()

	app, cmd := press(app, "r")
	if cmd != nil {
		t.Error("refresh during loading should not issue a command")
	}
	app = settle(t, app, initCmd)
	if f.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls)
	}

	app, cmd = press(app, "r")
	if cmd == nil {
		t.Fatal("refresh after loading should issue a command")
	}
	settle(t, app, cmd)
	if f.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", f.calls)
	}
}

func TestAppRefreshKeepsCardsBrowsable(t *testing.T) {
	f := &stubFetcher{list: summaries("a", "b")}
	app := loaded(t, f, nil)

	app, refresh := press(app, "r")
	if refresh == nil {
		t.Fatal("refresh should issue a load")
	}

	view := app.View()
	if !strings.Contains(view, "Video a") || !strings.Contains(view, "Video b") {
		t.Errorf("loaded cards should stay visible during a refresh:\n%s", view)
	}
	if strings.Contains(view, "░") {
		t.Error("placeholders are only for an empty list")
	}
	if !strings.Contains(view, "Loading...") {
		t.Error("status bar should show the refresh")
	}

	app, _ = press(app, "j")
	app, _ = press(app, "enter")
	if app.DetailOpen() != "b" {
		t.Fatalf("detail open during refresh = %q, want b", app.DetailOpen())
	}
	app, _ = press(app, "esc")

	// Clicking the first card opens it too.
	app, _ = click(app, 10, headerLines)
	if app.DetailOpen() != "a" {
		t.Errorf("click during refresh opened %q, want a", app.DetailOpen())
	}

	app = settle(t, app, refresh)
	if f.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", f.calls)
	}
	if app.DetailOpen() != "a" {
		t.Error("detail opened during the refresh should survive its result")
	}
}

func TestAppRefreshAfterEmptyShowsSkeleton(t *testing.T) {
	f := &stubFetcher{list: model.SummaryList{Summaries: []model.Summary{}}}
	app := loaded(t, f, nil)

	app, _ = press(app, "r")
	if view := app.View(); !strings.Contains(view, "░") || strings.Contains(view, "No summaries yet") {
		t.Errorf("refreshing an empty feed should show placeholders:\n%s", view)
	}
}

func TestAppErrorAndRetry(t *testing.T) {
	f := &stubFetcher{err: fmt.Errorf("%w: HTTP 503 Service Unavailable", fetch.ErrFetchFailed)}
	app := loaded(t, f, nil)

	view := app.View()
	if !strings.Contains(view, "Something went wrong") || !strings.Contains(view, "503") {
		t.Errorf("error view missing message:\n%s", view)
	}
	if !strings.Contains(view, "Retry") {
		t.Error("error view should offer retry")
	}
	if app.Items().Len() != 0 {
		t.Errorf("items = %d after failure, want 0", app.Items().Len())
	}

	f.err = nil
	f.list = summaries("x")
	app, cmd := press(app, "enter")
	if cmd == nil {
		t.Fatal("enter on the error panel should retry")
	}
	app = settle(t, app, cmd)
	if app.Items().Len() != 1 {
		t.Errorf("items = %d after retry, want 1", app.Items().Len())
	}
	if strings.Contains(app.View(), "Something went wrong") {
		t.Error("error should be gone after a successful retry")
	}
}

func TestAppEmptyState(t *testing.T) {
	app := loaded(t, &stubFetcher{list: model.SummaryList{Summaries: []model.Summary{}}}, nil)
	view := app.View()
	if !strings.Contains(view, "No summaries yet") {
		t.Errorf("empty view missing:\n%s", view)
	}
	if strings.Contains(view, "░") {
		t.Error("empty state should not show placeholders")
	}
}

func TestAppNavigation(t *testing.T) {
	app := loaded(t, &stubFetcher{list: summaries("1", "2", "3")}, nil)

	app, _ = press(app, "j")
	if app.Cursor() != 1 {
		t.Errorf("j should move cursor to 1, got %d", app.Cursor())
	}
	app, _ = press(app, "k")
	app, _ = press(app, "k")
	if app.Cursor() != 0 {
		t.Errorf("k at top should keep cursor at 0, got %d", app.Cursor())
	}
	app, _ = press(app, "G")
	if app.Cursor() != 2 {
		t.Errorf("G should move cursor to 2, got %d", app.Cursor())
	}
	app, _ = press(app, "j")
	if app.Cursor() != 2 {
		t.Errorf("j at bottom should keep cursor at 2, got %d", app.Cursor())
	}
	app, _ = press(app, "g")
	if app.Cursor() != 0 {
		t.Errorf("g should move cursor to 0, got %d", app.Cursor())
	}
}

func TestAppEnterOpensOnlyThatDetail(t *testing.T) {
	app := loaded(t, &stubFetcher{list: summaries("a", "b", "c")}, nil)

	app, _ = press(app, "j")
	app, _ = press(app, "enter")
	if app.DetailOpen() != "b" {
		t.Fatalf("detail open = %q, want b", app.DetailOpen())
	}
	for i := 0; i < app.Items().Len(); i++ {
		p := app.Items().At(i)
		if want := p.VideoID() == "b"; p.ModalOpen() != want {
			t.Errorf("%s modal = %v, want %v", p.VideoID(), p.ModalOpen(), want)
		}
	}

	view := app.View()
	if !strings.Contains(view, "Video b") || !strings.Contains(view, item.PlaceholderDetail) {
		t.Errorf("detail view should show title and placeholder:\n%s", view)
	}

	app, _ = press(app, "esc")
	if app.DetailOpen() != "" {
		t.Error("esc should close the detail")
	}
	if p, _ := app.Items().Get("b"); p.ModalOpen() {
		t.Error("presenter should be closed")
	}
}

func TestAppQClosesDetailBeforeQuitting(t *testing.T) {
	app := loaded(t, &stubFetcher{list: summaries("a")}, nil)
	app, _ = press(app, "enter")

	app, cmd := press(app, "q")
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("q in the detail should close it, not quit")
		}
	}
	if app.DetailOpen() != "" {
		t.Error("q should close the detail")
	}

	_, cmd = press(app, "q")
	if cmd == nil {
		t.Fatal("q on the list should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestAppDetailRendersMarkdownBody(t *testing.T) {
	list := summaries("a")
	list.Summaries[0].DetailSummary = "## Key points\n- first"
	app := newTestApp(&stubFetcher{list: list}, nil)
	app.opts.Render = func(text string, width int) (string, error) {
		return "RENDERED:" + text, nil
	}
	app = settle(t, app, app.Init())
	app, _ = press(app, "enter")

	if !strings.Contains(app.View(), "RENDERED:## Key points") {
		t.Errorf("detail body should go through the render function:\n%s", app.View())
	}
}

func TestAppWatchKeyDoesNotOpenDetail(t *testing.T) {
	opener := &mockOpener{}
	app := loaded(t, &stubFetcher{list: summaries("a", "b")}, opener)

	app, cmd := press(app, "o")
	if cmd == nil {
		t.Fatal("o should return a command")
	}
	app = settle(t, app, cmd)

	if len(opener.urls) != 1 || opener.urls[0] != "https://www.youtube.com/watch?v=a" {
		t.Errorf("opened %v", opener.urls)
	}
	if app.DetailOpen() != "" {
		t.Error("watch must not open the detail")
	}
}

func TestAppWatchFailureShowsStatus(t *testing.T) {
	opener := &mockOpener{err: errors.New("no browser")}
	app := loaded(t, &stubFetcher{list: summaries("a")}, opener)

	app, cmd := press(app, "o")
	app = settle(t, app, cmd)
	if !strings.Contains(app.View(), "could not open video") {
		t.Errorf("status should report the failure:\n%s", app.View())
	}
}

func TestAppClickCardOpensDetail(t *testing.T) {
	app := loaded(t, &stubFetcher{list: summaries("a", "b")}, &mockOpener{})

	app, _ = click(app, 10, headerLines+cardHeight)
	if app.DetailOpen() != "b" {
		t.Errorf("click on second card opened %q", app.DetailOpen())
	}
	if app.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", app.Cursor())
	}
}

func TestAppClickWatchLinkDoesNotOpenDetail(t *testing.T) {
	opener := &mockOpener{}
	app := loaded(t, &stubFetcher{list: summaries("a", "b")}, opener)

	app, cmd := click(app, 79, headerLines+1)
	if app.DetailOpen() != "" {
		t.Error("click on the watch link must not open the detail")
	}
	settle(t, app, cmd)
	if len(opener.urls) != 1 || opener.urls[0] != "https://www.youtube.com/watch?v=a" {
		t.Errorf("opened %v", opener.urls)
	}
}

func TestAppClickSpacerIsIgnored(t *testing.T) {
	app := loaded(t, &stubFetcher{list: summaries("a", "b")}, nil)
	app, _ = click(app, 10, headerLines+cardHeight-1)
	if app.DetailOpen() != "" {
		t.Error("click between cards should not open anything")
	}
}

func TestAppBackdropClickCloses(t *testing.T) {
	app := loaded(t, &stubFetcher{list: summaries("a")}, nil)
	app, _ = press(app, "enter")

	app, _ = click(app, 40, 20)
	if app.DetailOpen() != "a" {
		t.Fatal("click inside the overlay should keep it open")
	}

	app, _ = click(app, 0, 0)
	if app.DetailOpen() != "" {
		t.Error("click on the backdrop should close the overlay")
	}
}

func TestAppCloseControlClick(t *testing.T) {
	app := loaded(t, &stubFetcher{list: summaries("a")}, nil)
	app, _ = press(app, "enter")

	r := detailRect(80, 40)
	app, _ = click(app, r.x+4, r.closeRow())
	if app.DetailOpen() != "" {
		t.Error("click on the close row should close the overlay")
	}
}

func TestAppRefreshKeepsOpenDetail(t *testing.T) {
	f := &stubFetcher{list: summaries("a", "b")}
	app := loaded(t, f, nil)
	app, _ = press(app, "j")
	app, _ = press(app, "enter")

	f.list = summaries("new", "b", "a")
	app, cmd := press(app, "r")
	if cmd == nil {
		t.Fatal("refresh from the detail should issue a load")
	}
	app = settle(t, app, cmd)
	if app.DetailOpen() != "b" {
		t.Errorf("detail open after refresh = %q, want b", app.DetailOpen())
	}

	f.list = summaries("a")
	app, cmd = press(app, "r")
	app = settle(t, app, cmd)
	if app.DetailOpen() != "" {
		t.Error("detail should go away once its record leaves the feed")
	}
	if app.Cursor() != 0 {
		t.Errorf("cursor = %d, want clamped to 0", app.Cursor())
	}
}

func TestAppQuitIgnoresLateResult(t *testing.T) {
	f := &stubFetcher{list: summaries("a")}
	app := newTestApp(f, nil)
	initCmd := app.Init()

	app, cmd := press(app, "ctrl+c")
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c should quit")
	}
	app = settle(t, app, initCmd)
	if app.Items().Len() != 0 {
		t.Error("result arriving after quit should be ignored")
	}
}

func TestAppSingleRecordScenario(t *testing.T) {
	rec := model.Summary{
		VideoID:     "abc",
		Title:       "Weekly roundup",
		PublishedAt: "2024-05-31T09:00:00Z",
		Summary:     "What happened this week.",
		ProcessedAt: testNow.Add(-1 * time.Hour).Format(time.RFC3339),
	}
	app := loaded(t, &stubFetcher{list: model.SummaryList{Summaries: []model.Summary{rec}}}, nil)

	view := app.View()
	for _, want := range []string{"Weekly roundup", "NEW", "31 May 2024", "What happened this week."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	p, _ := app.Items().Get("abc")
	if p.ThumbnailURL() != "https://i.ytimg.com/vi/abc/mqdefault.jpg" {
		t.Errorf("thumbnail = %q", p.ThumbnailURL())
	}
}

func TestAppHelpToggle(t *testing.T) {
	app := loaded(t, &stubFetcher{list: summaries("a")}, nil)
	app, _ = press(app, "?")
	if !app.help.ShowAll {
		t.Error("? should show full help")
	}
	if !strings.Contains(app.View(), "bottom") {
		t.Error("full help should list every binding")
	}
	app, _ = press(app, "?")
	if app.help.ShowAll {
		t.Error("second ? should hide full help")
	}
}

func TestAppEventsRecorded(t *testing.T) {
	events := otel.NewNullLogger()
	ring := otel.NewRingBuffer(32)
	events.SetRingBuffer(ring)

	f := &stubFetcher{list: summaries("a")}
	app := NewApp(controller.NewFeedController(f, events), Options{Events: events, Ring: ring, Open: (&mockOpener{}).open})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	app = settle(t, m.(App), m.(App).Init())

	app, _ = press(app, "enter")
	app, _ = press(app, "esc")
	_, cmd := press(app, "o")
	run(cmd)
	events.Close()

	stats := ring.Stats()
	for _, kind := range []otel.EventKind{otel.KindFetchStart, otel.KindFetchComplete, otel.KindDetailOpen, otel.KindDetailClose, otel.KindOpenExternal} {
		if stats[kind] != 1 {
			t.Errorf("%s = %d, want 1", kind, stats[kind])
		}
	}
}

func TestAppViewBeforeResize(t *testing.T) {
	app := NewApp(controller.NewFeedController(&stubFetcher{}, nil), Options{})
	if app.View() != "Loading..." {
		t.Errorf("View before size = %q", app.View())
	}
}
