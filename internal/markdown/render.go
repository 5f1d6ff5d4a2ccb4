// Package markdown renders detail summaries for the terminal.
package markdown

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// RenderFunc turns a markdown blob into terminal text wrapped to width.
type RenderFunc func(text string, width int) (string, error)

const (
	minWrap = 20
	maxWrap = 120
	// A cached renderer narrower than the requested wrap width by at most this
	// many cells is reused. A wider one is always rebuilt.
	rebuildSlack = 8
)

// Renderer caches a glamour renderer for the last wrap width.
type Renderer struct {
	mu    sync.Mutex
	style string
	r     *glamour.TermRenderer
	width int
}

// NewRenderer returns a Renderer. An empty style picks light or dark from
// the terminal background.
func NewRenderer(style string) *Renderer {
	return &Renderer{style: style}
}

// Render implements RenderFunc.
func (m *Renderer) Render(text string, width int) (string, error) {
	r, err := m.renderer(wrapWidth(width))
	if err != nil {
		return text, err
	}
	out, err := r.Render(normalizeBreaks(text))
	if err != nil {
		return text, err
	}
	return strings.Trim(out, "\n"), nil
}

func (m *Renderer) renderer(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.r != nil && m.width <= width && width-m.width <= rebuildSlack {
		return m.r, nil
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if m.style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(m.style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	m.r = r
	m.width = width
	return r, nil
}

// wrapWidth keeps a little margin inside the overlay and stays readable on
// very narrow or very wide terminals. It never exceeds width itself.
func wrapWidth(width int) int {
	w := width - 4
	if w > maxWrap {
		w = maxWrap
	}
	if w < minWrap {
		w = minWrap
	}
	if width > 0 && w > width {
		w = width
	}
	return w
}

// normalizeBreaks turns single newlines into hard breaks. The summarizer
// emits line-oriented text that would otherwise be reflowed into one
// paragraph.
func normalizeBreaks(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		if i == len(lines)-1 {
			break
		}
		next := lines[i+1]
		if strings.TrimSpace(line) != "" && strings.TrimSpace(next) != "" && !isBlockLine(next) && !isBlockLine(line) {
			b.WriteString("  ")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// isBlockLine reports lines that markdown already treats as their own block.
func isBlockLine(line string) bool {
	s := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(s, "#"), strings.HasPrefix(s, "- "), strings.HasPrefix(s, "* "),
		strings.HasPrefix(s, "> "), strings.HasPrefix(s, "```"), strings.HasPrefix(s, "|"):
		return true
	}
	for i, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		return i > 0 && (r == '.' || r == ')')
	}
	return false
}

// Plain is a RenderFunc that leaves text untouched. Used by the plain-text
// output mode and by tests.
func Plain(text string, _ int) (string, error) {
	return text, nil
}
