// Package model provides the summary records served by the backend feed.
//
// Records are decoded once from the /api/summaries response and are treated
// as immutable afterwards. Optional fields (thumbnails, detail text, counters,
// timestamps) decode leniently: a missing or malformed optional value never
// fails the record, it simply reads as absent.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Thumbnail size labels in the order the platform publishes them.
const (
	ThumbDefault = "default"
	ThumbMedium  = "medium"
	ThumbHigh    = "high"
)

// Thumbnail is a single image variant of a video.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Thumbnails maps a size label to its image.
type Thumbnails map[string]Thumbnail

// UnmarshalJSON skips entries that are not objects with a url instead of
// failing the whole record. A non-object value decodes as an empty map.
func (t *Thumbnails) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*t = nil
		return nil
	}
	out := make(Thumbnails, len(raw))
	for label, msg := range raw {
		var th Thumbnail
		if err := json.Unmarshal(msg, &th); err != nil {
			continue
		}
		if strings.TrimSpace(th.URL) == "" {
			continue
		}
		out[label] = th
	}
	*t = out
	return nil
}

// URL returns the url stored under label, if any.
func (t Thumbnails) URL(label string) (string, bool) {
	th, ok := t[label]
	if !ok || th.URL == "" {
		return "", false
	}
	return th.URL, true
}

// Count is an optional counter that the backend sends either as a JSON
// number or as a numeric string.
type Count struct {
	Value int64
	Valid bool
}

// UnmarshalJSON accepts 123, 123.0, "123" and null. Negative or
// out-of-range values read as absent.
func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count{}
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n >= 0 {
			*c = Count{Value: n, Valid: true}
		}
		return nil
	}
	// float64(math.MaxInt64) rounds up to 2^63, so the bound is exclusive.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f < math.MaxInt64 {
		*c = Count{Value: int64(f), Valid: true}
	}
	return nil
}

// MarshalJSON writes the value as a number, or null when absent.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(c.Value, 10)), nil
}

// Summary is one pre-computed video summary.
//
// VideoID is the identity of the record within a feed snapshot. Timestamps are
// kept as the raw strings the backend sent; use Published and Processed to
// read them as time values.
type Summary struct {
	VideoID       string     `json:"videoId"`
	Title         string     `json:"title"`
	ChannelTitle  string     `json:"channelTitle"`
	PublishedAt   string     `json:"publishedAt"`
	Thumbnails    Thumbnails `json:"thumbnails,omitempty"`
	Summary       string     `json:"summary"`
	DetailSummary string     `json:"detailSummary,omitempty"`
	ProcessedAt   string     `json:"processedAt,omitempty"`
	ViewCount     Count      `json:"viewCount"`
	LikeCount     Count      `json:"likeCount"`
}

// Published returns the platform publish time.
func (s Summary) Published() (time.Time, bool) {
	return ParseTimestamp(s.PublishedAt)
}

// Processed returns the time the summary was produced.
func (s Summary) Processed() (time.Time, bool) {
	return ParseTimestamp(s.ProcessedAt)
}

// HasDetail reports whether long-form text has been generated.
func (s Summary) HasDetail() bool {
	return strings.TrimSpace(s.DetailSummary) != ""
}

// SummaryList is the /api/summaries response envelope.
type SummaryList struct {
	ChannelID string    `json:"channelId,omitempty"`
	Summaries []Summary `json:"summaries"`
}
