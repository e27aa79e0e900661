package terminal

import (
	"collection-engine/core/reconcile"
	"collection-engine/core/snapshot"
)

// Screen is the renderer behind Model. It keeps the rendered structure in a
// reconcile.MemoryRenderer and remembers scroll requests until the model
// consumes them.
type Screen struct {
	*reconcile.MemoryRenderer[string]

	target     *snapshot.Location
	offset     int
	hasOffset  bool
	refreshing bool
}

// NewScreen creates an empty screen.
func NewScreen() *Screen {
	return &Screen{MemoryRenderer: reconcile.NewMemoryRenderer[string]()}
}

// ScrollToItem implements reconcile.Scroller.
func (s *Screen) ScrollToItem(section, item int, pos reconcile.ScrollPosition) {
	s.MemoryRenderer.ScrollToItem(section, item, pos)
	s.target = &snapshot.Location{Section: section, Item: item}
}

// ScrollToOffset implements reconcile.Scroller. Only the row offset is used.
func (s *Screen) ScrollToOffset(p reconcile.Point) {
	s.MemoryRenderer.ScrollToOffset(p)
	s.offset = int(p.Y)
	s.hasOffset = true
}

// SetRefreshing implements reconcile.RefreshIndicator.
func (s *Screen) SetRefreshing(refreshing bool) {
	s.MemoryRenderer.SetRefreshing(refreshing)
	s.refreshing = refreshing
}

// takeTarget returns and clears the pending scroll-to-item request.
func (s *Screen) takeTarget() (snapshot.Location, bool) {
	if s.target == nil {
		return snapshot.Location{}, false
	}
	loc := *s.target
	s.target = nil
	return loc, true
}

// takeOffset returns and clears the pending scroll-to-offset request.
func (s *Screen) takeOffset() (int, bool) {
	if !s.hasOffset {
		return 0, false
	}
	s.hasOffset = false
	return s.offset, true
}

type row struct {
	section int
	// item is -1 for a section header.
	item int
	key  string
}

func (r row) header() bool { return r.item < 0 }

// rows flattens the rendered structure into display rows.
func (s *Screen) rows() []row {
	keys := s.SectionKeys()
	items := s.Items()
	var out []row
	for i, k := range keys {
		out = append(out, row{section: i, item: -1, key: k})
		for j, it := range items[i] {
			out = append(out, row{section: i, item: j, key: it})
		}
	}
	return out
}
