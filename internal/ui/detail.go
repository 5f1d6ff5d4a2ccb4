package ui

import (
	"strings"

	"github.com/abelbrown/ytsummary/internal/item"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	detailMaxWidth  = 100
	detailMaxHeight = 40
	maxShortLines   = 3

	// detailFixedLines counts the overlay rows outside the short summary and
	// the scrolling body: title, blank, "Overview", blank, "Detailed
	// summary", blank, close row.
	detailFixedLines = 7
)

// rect is a screen region in cells.
type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// innerWidth is the usable text width inside the border and padding.
func (r rect) innerWidth() int { return r.w - 4 }

// innerHeight is the number of content rows inside the border.
func (r rect) innerHeight() int { return r.h - 2 }

// closeRow is the screen row of the close control.
func (r rect) closeRow() int { return r.y + r.h - 2 }

// detailRect centers the overlay box in a width x height screen. The same
// arithmetic as lipgloss.Place is used so hit-testing matches what is drawn.
func detailRect(width, height int) rect {
	w := width - 4
	if w > detailMaxWidth {
		w = detailMaxWidth
	}
	if w < 24 {
		w = width
	}
	h := height - 2
	if h > detailMaxHeight {
		h = detailMaxHeight
	}
	if h < 12 {
		h = height
	}
	return rect{x: (width - w) / 2, y: (height - h) / 2, w: w, h: h}
}

// shortLines wraps the short summary to width, capped at maxShortLines.
func shortLines(summary string, width int) []string {
	if width < 1 {
		width = 1
	}
	wrapped := lipgloss.NewStyle().Width(width).Render(oneLine(summary))
	lines := strings.Split(wrapped, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	if len(lines) > maxShortLines {
		lines = lines[:maxShortLines]
		last := lines[maxShortLines-1]
		lines[maxShortLines-1] = runewidth.Truncate(last, width-1, "") + "…"
	}
	return lines
}

// detailBodyHeight is the viewport height left after the fixed rows and the
// short summary.
func detailBodyHeight(r rect, short int) int {
	h := r.innerHeight() - detailFixedLines - short
	if h < 1 {
		h = 1
	}
	return h
}

// newDetailViewport sizes a viewport for p in r and loads the rendered body.
func newDetailViewport(p *item.Presenter, r rect, body string) viewport.Model {
	short := shortLines(p.Record().Summary, r.innerWidth())
	vp := viewport.New(r.innerWidth(), detailBodyHeight(r, len(short)))
	vp.SetContent(body)
	return vp
}

// renderDetail draws the overlay for p, centered on a width x height screen.
func renderDetail(p *item.Presenter, vp viewport.Model, width, height int) string {
	r := detailRect(width, height)
	iw := r.innerWidth()
	rec := p.Record()

	lines := []string{
		DetailTitle.Render(truncate(oneLine(rec.Title), iw)),
		"",
		DetailSection.Render("Overview"),
	}
	for _, l := range shortLines(rec.Summary, iw) {
		lines = append(lines, DetailShort.Render(l))
	}
	lines = append(lines,
		"",
		DetailSection.Render("Detailed summary"),
		vp.View(),
		"",
		CloseButton.Render("Close")+"  "+StatusBarText.Render("esc/q close · o watch · j/k scroll"),
	)

	box := DetailPanel.
		Width(r.w - 2).
		Height(r.innerHeight()).
		MaxHeight(r.h).
		Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
