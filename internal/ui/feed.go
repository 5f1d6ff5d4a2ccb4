package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/ytsummary/internal/item"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// cardHeight is the number of lines every card occupies, including the
// trailing spacer. Mouse hit-testing relies on it being fixed.
const cardHeight = 4

// watchLabel marks the external link on a card's meta line.
const watchLabel = "[watch]"

// summarizerName is credited in the footer.
const summarizerName = "Gemini 2.5 Flash"

// cardFormat carries the viewer conventions used to derive display fields.
type cardFormat struct {
	loc    *time.Location
	layout string
	now    time.Time
}

// visibleCards is how many whole cards fit in height lines.
func visibleCards(height int) int {
	n := height / cardHeight
	if n < 1 {
		n = 1
	}
	return n
}

// cardScrollOffset returns the first visible card index that keeps the cursor
// on screen.
func cardScrollOffset(cursor, visible int) int {
	if cursor >= visible {
		return cursor - visible + 1
	}
	return 0
}

// RenderCards renders the cards of set that fit in height lines.
func RenderCards(set *item.Set, cursor, width, height int, f cardFormat) string {
	visible := visibleCards(height)
	offset := cardScrollOffset(cursor, visible)

	var b strings.Builder
	for i := offset; i < set.Len() && i < offset+visible; i++ {
		b.WriteString(renderCard(set.At(i), i == cursor, width, f))
	}
	return b.String()
}

// renderCard renders one card as cardHeight newline-terminated lines.
func renderCard(p *item.Presenter, selected bool, width int, f cardFormat) string {
	rec := p.Record()

	gutter := "  "
	titleStyle := CardTitle
	if selected {
		gutter = SelectedMarker.Render("▌ ")
		titleStyle = SelectedTitle
	}

	// Line 1: badge and title.
	titleWidth := width - 2
	var badge string
	if p.IsNew(f.now) {
		badge = NewBadge.Render("NEW") + " "
		titleWidth -= lipgloss.Width(badge)
	}
	title := truncate(oneLine(rec.Title), titleWidth)
	line1 := gutter + badge + titleStyle.Render(title)

	// Line 2: meta on the left, watch link flush right.
	meta := []string{}
	if rec.ChannelTitle != "" {
		meta = append(meta, rec.ChannelTitle)
	}
	if d := p.DisplayDate(f.loc, f.layout); d != "" {
		meta = append(meta, d)
	}
	if s := p.Stats(); s != "" {
		meta = append(meta, s)
	}
	linkWidth := runewidth.StringWidth(watchLabel)
	metaText := truncate(strings.Join(meta, " · "), width-2-linkWidth-1)
	pad := width - 2 - runewidth.StringWidth(metaText) - linkWidth
	if pad < 1 {
		pad = 1
	}
	line2 := "  " + CardMeta.Render(metaText) + strings.Repeat(" ", pad) + WatchLink.Render(watchLabel)

	// Line 3: short summary.
	line3 := "  " + CardSummary.Render(truncate(oneLine(rec.Summary), width-2))

	return line1 + "\n" + line2 + "\n" + line3 + "\n\n"
}

// RenderSkeleton renders count placeholder cards, clipped to height.
func RenderSkeleton(count, width, height int) string {
	bar := func(frac float64) string {
		n := int(float64(width-2) * frac)
		if n < 4 {
			n = 4
		}
		return "  " + Skeleton.Render(strings.Repeat("░", n))
	}

	var lines []string
	for i := 0; i < count; i++ {
		lines = append(lines, bar(0.6), bar(0.3), bar(0.9), "")
	}
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n") + "\n"
}

// RenderError renders the single error presentation with its retry control.
func RenderError(msg string, width int) string {
	text := ErrorStyle.Width(width).Render("Something went wrong: " + msg)
	retry := "  " + RetryButton.Render("Retry") + " " + StatusBarText.Render("press r or enter")
	return "\n" + text + "\n\n" + retry + "\n"
}

// RenderEmpty renders the empty-state presentation.
func RenderEmpty(width int) string {
	body := lipgloss.NewStyle().Width(width).Padding(0, 2).Render(
		EmptyTitle.Render("No summaries yet") + "\n\n" +
			StatusBarText.Render("Summaries for this channel are generated in the next batch run."))
	return "\n" + body + "\n"
}

// RenderHeader renders the title line: app name, channel and item count.
// spin is shown on the right while a refresh is in flight.
func RenderHeader(channel, channelID string, count int, spin string, width int) string {
	left := HeaderTitle.Render("YouTube Summary") + " " + HeaderChannel.Render(channel)
	if channelID != "" {
		left += " " + HeaderMeta.Render(channelID)
	}
	left += " " + HeaderMeta.Render(fmt.Sprintf("(%d)", count))

	right := ""
	if spin != "" {
		right = spin + " " + StatusBarText.Render("refreshing")
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + right
}

// RenderStatusBar renders the bottom bar: position or status on the left,
// key hints on the right.
func RenderStatusBar(cursor, total int, width int, loading bool, status, hints string) string {
	var left string
	switch {
	case status != "":
		left = " " + status + " "
	case loading:
		left = " Loading... "
	case total == 0:
		left = " 0/0 "
	default:
		left = fmt.Sprintf(" %d/%d ", cursor+1, total)
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(width).MaxHeight(1).Render(left + strings.Repeat(" ", padding) + hints)
}

// RenderFooter credits the summarization model.
func RenderFooter(width int) string {
	return FooterStyle.Width(width).Render("Powered by " + summarizerName)
}

// truncate cuts s to at most w terminal cells, marking the cut with an
// ellipsis. Wide (e.g. CJK) runes count as two cells.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.Truncate(s, w, "…")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
