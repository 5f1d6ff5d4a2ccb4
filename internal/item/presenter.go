// Package item derives what a single feed entry shows and tracks whether its
// detail view is open.
//
// Each Presenter is independent: opening or closing one never touches another
// presenter or the feed state. A Set keys presenters by video id so their
// state outlives a refresh for as long as the record stays in the feed.
package item

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/ytsummary/internal/model"
	"github.com/dustin/go-humanize"
)

// PlaceholderDetail stands in for a detail summary that has not been
// generated yet.
const PlaceholderDetail = "A detailed summary is still being prepared."

// Target is the part of an item the viewer activated.
type Target int

const (
	// TargetCard is the item as a whole. Activating it opens the detail.
	TargetCard Target = iota
	// TargetExternalLink is the watch link. Activating it opens the video
	// externally and leaves the detail alone.
	TargetExternalLink
)

// Opener hands a URL to something outside the client (usually a browser).
type Opener func(url string) error

// ErrNoOpener is returned when the external link is activated without an
// Opener.
var ErrNoOpener = errors.New("no opener configured")

// Presenter wraps one record with its derived fields and modal state.
type Presenter struct {
	rec       model.Summary
	modalOpen bool
}

// New returns a presenter with the detail closed.
func New(rec model.Summary) *Presenter {
	return &Presenter{rec: rec}
}

// Record returns the underlying record.
func (p *Presenter) Record() model.Summary { return p.rec }

// VideoID is the presenter's key.
func (p *Presenter) VideoID() string { return p.rec.VideoID }

// DisplayDate formats the publish date in loc. The raw value is returned when
// it cannot be parsed, and an empty string when it is absent.
func (p *Presenter) DisplayDate(loc *time.Location, layout string) string {
	t, ok := p.rec.Published()
	if !ok {
		return strings.TrimSpace(p.rec.PublishedAt)
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}

// ThumbnailURL prefers the medium image, then the default one, then the
// platform's predictable image URL for the video. It never fails.
func (p *Presenter) ThumbnailURL() string {
	if u, ok := p.rec.Thumbnails.URL(model.ThumbMedium); ok {
		return u
	}
	if u, ok := p.rec.Thumbnails.URL(model.ThumbDefault); ok {
		return u
	}
	return "https://i.ytimg.com/vi/" + p.rec.VideoID + "/mqdefault.jpg"
}

// IsNew reports whether the summary was produced within the recency window
// before now.
func (p *Presenter) IsNew(now time.Time) bool {
	return model.IsRecent(p.rec.ProcessedAt, now)
}

// WatchURL is the external source of the video.
func (p *Presenter) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + p.rec.VideoID
}

// Stats renders the optional view and like counters, e.g.
// "12,345 views · 678 likes". Empty when neither is present.
func (p *Presenter) Stats() string {
	var parts []string
	if c := p.rec.ViewCount; c.Valid {
		parts = append(parts, fmt.Sprintf("%s %s", humanize.Comma(c.Value), plural(c.Value, "view")))
	}
	if c := p.rec.LikeCount; c.Valid {
		parts = append(parts, fmt.Sprintf("%s %s", humanize.Comma(c.Value), plural(c.Value, "like")))
	}
	return strings.Join(parts, " · ")
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// ModalOpen reports whether the detail view is showing.
func (p *Presenter) ModalOpen() bool { return p.modalOpen }

// OpenDetail shows the detail view.
func (p *Presenter) OpenDetail() { p.modalOpen = true }

// CloseDetail hides the detail view.
func (p *Presenter) CloseDetail() { p.modalOpen = false }

// DetailBody is the long-form markdown, or PlaceholderDetail when it has not
// been generated.
func (p *Presenter) DetailBody() string {
	if !p.rec.HasDetail() {
		return PlaceholderDetail
	}
	return p.rec.DetailSummary
}

// Activate applies the action for the activated target. The external link
// never opens the detail.
func (p *Presenter) Activate(target Target, open Opener) error {
	switch target {
	case TargetCard:
		p.OpenDetail()
		return nil
	case TargetExternalLink:
		if open == nil {
			return ErrNoOpener
		}
		if err := open(p.WatchURL()); err != nil {
			return fmt.Errorf("open %s: %w", p.WatchURL(), err)
		}
		return nil
	default:
		return fmt.Errorf("unknown target %d", target)
	}
}
