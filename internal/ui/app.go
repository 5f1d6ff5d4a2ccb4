package ui

import (
	"strings"
	"time"

	"github.com/abelbrown/ytsummary/internal/controller"
	"github.com/abelbrown/ytsummary/internal/item"
	"github.com/abelbrown/ytsummary/internal/logging"
	"github.com/abelbrown/ytsummary/internal/markdown"
	"github.com/abelbrown/ytsummary/internal/otel"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// headerLines is the title row plus a spacer; footerLines is the status bar
// plus the attribution row.
const (
	headerLines = 2
	footerLines = 2
)

// Options wires the App to its collaborators. Zero values are replaced with
// usable defaults.
type Options struct {
	ChannelName   string
	SkeletonCount int
	DateLayout    string
	Location      *time.Location
	Render        markdown.RenderFunc
	Open          item.Opener
	Events        *otel.Logger     // may be nil
	Ring          *otel.RingBuffer // backs the debug overlay; may be nil
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ChannelName == "" {
		o.ChannelName = "@noiehoie"
	}
	if o.SkeletonCount < 1 {
		o.SkeletonCount = 6
	}
	if o.DateLayout == "" {
		o.DateLayout = "2 Jan 2006"
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Render == nil {
		o.Render = markdown.Plain
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// App is the root Bubble Tea model.
// App does not fetch anything itself: the FeedController hands it a request
// to run as a command and the result comes back as FeedLoaded.
type App struct {
	feed  *controller.FeedController
	items *item.Set
	opts  Options

	help     help.Model
	spinner  spinner.Model
	detail   viewport.Model
	detailID string // presenter whose overlay is on screen

	cursor    int
	width     int
	height    int
	ready     bool
	showDebug bool
	status    string // transient, cleared on the next key
}

// NewApp creates the App around feed. The first load is issued by Init.
func NewApp(feed *controller.FeedController, opts Options) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusBarKey

	return App{
		feed:    feed,
		items:   item.NewSet(),
		opts:    opts.withDefaults(),
		help:    help.New(),
		spinner: s,
	}
}

// Init issues the startup load.
func (a App) Init() tea.Cmd {
	return a.load()
}

// load asks the controller for a request and runs it as a command. Returns
// nil when the controller refuses (a load is already in flight).
func (a App) load() tea.Cmd {
	req := a.feed.Load()
	if req == nil {
		return nil
	}
	return tea.Batch(
		func() tea.Msg { return FeedLoaded{Result: req()} },
		a.spinner.Tick,
	)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		return a.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		a.layoutDetail(true)
		return a, nil

	case FeedLoaded:
		a.applyFeed(msg.Result)
		return a, nil

	case ExternalOpened:
		if msg.Err != nil {
			a.status = "could not open video: " + msg.Err.Error()
			a.opts.Events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindError, Comp: "ui", VideoID: msg.VideoID, Err: msg.Err.Error()})
			logging.Warn("open external failed", "video", msg.VideoID, "err", msg.Err)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.feed.InFlight() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// applyFeed folds a fetch result into the item set. Presenters of records
// that survive keep their modal state.
func (a *App) applyFeed(r controller.Result) {
	if !a.feed.Apply(r) {
		return
	}
	a.items.Sync(a.feed.State().Items)

	if a.cursor >= a.items.Len() {
		a.cursor = a.items.Len() - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}

	if a.openPresenter() == nil {
		a.detailID = ""
		return
	}
	a.layoutDetail(true)
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.status = ""

	if msg.String() == "ctrl+c" {
		return a, a.quit()
	}

	if a.showDebug {
		if key.Matches(msg, keys.Debug) {
			a.showDebug = false
		}
		return a, nil
	}

	if p := a.openPresenter(); p != nil {
		return a.handleDetailKey(p, msg)
	}

	phase := a.feed.State().Phase
	browsable := a.listVisible()

	switch {
	case key.Matches(msg, keys.Quit):
		return a, a.quit()

	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil

	case key.Matches(msg, keys.Debug):
		a.showDebug = true
		return a, nil

	case key.Matches(msg, keys.Refresh):
		return a, a.load()

	case key.Matches(msg, keys.Open):
		if phase == controller.PhaseError {
			return a, a.load()
		}
		if browsable {
			if p := a.items.At(a.cursor); p != nil {
				a.openDetail(p)
			}
		}
		return a, nil

	case key.Matches(msg, keys.Watch):
		if !browsable {
			return a, nil
		}
		return a, a.watch(a.items.At(a.cursor))
	}

	if !browsable {
		return a, nil
	}

	switch {
	case key.Matches(msg, keys.Down):
		if a.cursor < a.items.Len()-1 {
			a.cursor++
		}
	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, keys.Top):
		a.cursor = 0
	case key.Matches(msg, keys.Bottom):
		if a.items.Len() > 0 {
			a.cursor = a.items.Len() - 1
		}
	}
	return a, nil
}

// handleDetailKey processes keys while the detail overlay is showing.
// Anything that is not a control key scrolls the body.
func (a App) handleDetailKey(p *item.Presenter, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Close), key.Matches(msg, keys.Open):
		a.closeDetail(p)
		return a, nil

	case key.Matches(msg, keys.Watch):
		return a, a.watch(p)

	case key.Matches(msg, keys.Refresh):
		return a, a.load()

	case key.Matches(msg, keys.Debug):
		a.showDebug = true
		return a, nil
	}

	var cmd tea.Cmd
	a.detail, cmd = a.detail.Update(msg)
	return a, cmd
}

// handleMouseMsg maps clicks and the wheel onto cards and the overlay.
func (a App) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.ready || a.showDebug {
		return a, nil
	}

	if p := a.openPresenter(); p != nil {
		if isWheel(msg) {
			var cmd tea.Cmd
			a.detail, cmd = a.detail.Update(msg)
			return a, cmd
		}
		if isLeftClick(msg) {
			r := detailRect(a.width, a.height)
			// Backdrop or close control.
			if !r.contains(msg.X, msg.Y) || msg.Y == r.closeRow() {
				a.closeDetail(p)
			}
		}
		return a, nil
	}

	if !a.listVisible() {
		return a, nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelDown && msg.Action == tea.MouseActionPress:
		if a.cursor < a.items.Len()-1 {
			a.cursor++
		}
	case msg.Button == tea.MouseButtonWheelUp && msg.Action == tea.MouseActionPress:
		if a.cursor > 0 {
			a.cursor--
		}
	case isLeftClick(msg):
		idx, onLink := a.cardAt(msg.X, msg.Y)
		if idx < 0 {
			return a, nil
		}
		a.cursor = idx
		target := item.TargetCard
		if onLink {
			target = item.TargetExternalLink
		}
		cmd := a.activate(a.items.At(idx), target)
		return a, cmd
	}
	return a, nil
}

// listVisible reports whether cards are on screen and can be browsed. Cards
// stay up during a refresh so loaded items can still be opened.
func (a App) listVisible() bool {
	if a.items.Len() == 0 {
		return false
	}
	phase := a.feed.State().Phase
	return phase == controller.PhaseReady || phase == controller.PhaseLoading
}

func isLeftClick(msg tea.MouseMsg) bool {
	return msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft
}

func isWheel(msg tea.MouseMsg) bool {
	return msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown
}

// cardAt returns the card index under screen cell (x, y), or -1, and whether
// the cell is on the card's watch link.
func (a App) cardAt(x, y int) (int, bool) {
	row := y - headerLines
	ch := a.contentHeight()
	if row < 0 || row >= ch {
		return -1, false
	}
	visible := visibleCards(ch)
	slot, line := row/cardHeight, row%cardHeight
	idx := cardScrollOffset(a.cursor, visible) + slot
	if slot >= visible || idx >= a.items.Len() || line == cardHeight-1 {
		return -1, false
	}
	linkStart := a.width - lipgloss.Width(watchLabel)
	return idx, line == 1 && x >= linkStart
}

// activate routes a card activation: the card opens the detail, the link
// goes to the opener and leaves the detail alone.
func (a *App) activate(p *item.Presenter, target item.Target) tea.Cmd {
	if p == nil {
		return nil
	}
	if target == item.TargetExternalLink {
		return a.watch(p)
	}
	a.openDetail(p)
	return nil
}

func (a *App) openDetail(p *item.Presenter) {
	if err := p.Activate(item.TargetCard, a.opts.Open); err != nil {
		return
	}
	a.detailID = p.VideoID()
	a.layoutDetail(false)
	a.opts.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindDetailOpen, Comp: "ui", VideoID: p.VideoID()})
}

func (a *App) closeDetail(p *item.Presenter) {
	p.CloseDetail()
	a.detailID = ""
	a.opts.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindDetailClose, Comp: "ui", VideoID: p.VideoID()})
}

// watch hands the watch URL to the opener off the update loop.
func (a App) watch(p *item.Presenter) tea.Cmd {
	if p == nil {
		return nil
	}
	// Copy so the command never shares the presenter with the update loop.
	snapshot := item.New(p.Record())
	open := a.opts.Open
	a.opts.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindOpenExternal, Comp: "ui", VideoID: p.VideoID()})
	return func() tea.Msg {
		err := snapshot.Activate(item.TargetExternalLink, open)
		return ExternalOpened{VideoID: snapshot.VideoID(), Err: err}
	}
}

func (a App) quit() tea.Cmd {
	a.feed.Close()
	return tea.Quit
}

// openPresenter returns the presenter shown in the overlay, if its detail is
// still open.
func (a App) openPresenter() *item.Presenter {
	if a.detailID == "" {
		return nil
	}
	p, ok := a.items.Get(a.detailID)
	if !ok || !p.ModalOpen() {
		return nil
	}
	return p
}

// layoutDetail sizes the overlay viewport and renders its body.
func (a *App) layoutDetail(keepOffset bool) {
	p := a.openPresenter()
	if p == nil || !a.ready {
		return
	}
	r := detailRect(a.width, a.height)
	body, err := a.opts.Render(p.DetailBody(), r.innerWidth())
	if err != nil {
		logging.Warn("markdown render failed", "video", p.VideoID(), "err", err)
		body = p.DetailBody()
	}

	offset := a.detail.YOffset
	a.detail = newDetailViewport(p, r, body)
	if keepOffset {
		a.detail.SetYOffset(offset)
	}
}

// contentHeight is the number of rows between the header and the footer.
func (a App) contentHeight() int {
	h := a.height - headerLines - footerLines
	if a.help.ShowAll {
		h -= lipgloss.Height(a.help.FullHelpView(keys.FullHelp()))
	}
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug {
		overlay := debugOverlay(a.opts.Ring, a.opts.Events.SessionID(), a.width, a.height-1, a.opts.Now())
		return lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, overlay) + "\n" + debugStatusBar(a.width)
	}

	if p := a.openPresenter(); p != nil {
		return renderDetail(p, a.detail, a.width, a.height)
	}

	st := a.feed.State()
	spin := ""
	if a.feed.InFlight() {
		spin = a.spinner.View()
	}
	header := RenderHeader(a.opts.ChannelName, st.ChannelID, a.items.Len(), spin, a.width)

	ch := a.contentHeight()
	var body string
	switch {
	case st.Phase == controller.PhaseError:
		body = RenderError(st.ErrMessage, a.width)
	case a.listVisible():
		body = RenderCards(a.items, a.cursor, a.width, ch, cardFormat{
			loc:    a.opts.Location,
			layout: a.opts.DateLayout,
			now:    a.opts.Now(),
		})
	case st.Phase == controller.PhaseLoading:
		// Nothing loaded yet: placeholders stand in for the cards.
		body = RenderSkeleton(a.opts.SkeletonCount, a.width, ch)
	default:
		body = RenderEmpty(a.width)
	}
	body = lipgloss.NewStyle().Height(ch).MaxHeight(ch).Render(strings.TrimRight(body, "\n"))

	parts := []string{header, "", body}
	if a.help.ShowAll {
		parts = append(parts, a.help.FullHelpView(keys.FullHelp()))
	}
	hints := a.help.ShortHelpView(keys.ShortHelp())
	parts = append(parts,
		RenderStatusBar(a.cursor, a.items.Len(), a.width, st.Phase == controller.PhaseLoading, a.status, hints),
		RenderFooter(a.width),
	)
	return strings.Join(parts, "\n")
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// DetailOpen returns the video id shown in the overlay, or "" (for testing).
func (a App) DetailOpen() string {
	if a.openPresenter() == nil {
		return ""
	}
	return a.detailID
}

// Items returns the presenter set (for testing).
func (a App) Items() *item.Set {
	return a.items
}
