package item

import "github.com/abelbrown/ytsummary/internal/model"

// Set holds one Presenter per video id in feed order.
//
// Rows sharing a video id share a presenter, so the row count always matches
// the record count even when the backend repeats an id.
type Set struct {
	byID map[string]*Presenter
	rows []*Presenter
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{byID: make(map[string]*Presenter)}
}

// Sync replaces the rows with recs. Presenters for ids still present keep
// their modal state and pick up the new record; presenters for ids that
// disappeared are dropped.
func (s *Set) Sync(recs []model.Summary) {
	next := make(map[string]*Presenter, len(recs))
	rows := make([]*Presenter, 0, len(recs))
	for _, rec := range recs {
		p, ok := next[rec.VideoID]
		if !ok {
			if p, ok = s.byID[rec.VideoID]; ok {
				p.rec = rec
			} else {
				p = New(rec)
			}
			next[rec.VideoID] = p
		}
		rows = append(rows, p)
	}
	s.byID = next
	s.rows = rows
}

// Len is the number of rows.
func (s *Set) Len() int { return len(s.rows) }

// At returns row i, or nil when out of range.
func (s *Set) At(i int) *Presenter {
	if i < 0 || i >= len(s.rows) {
		return nil
	}
	return s.rows[i]
}

// Get returns the presenter for id.
func (s *Set) Get(id string) (*Presenter, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Open returns the first row whose detail is open, if any.
func (s *Set) Open() (*Presenter, bool) {
	for _, p := range s.rows {
		if p.modalOpen {
			return p, true
		}
	}
	return nil, false
}
