package collection

import (
	"context"

	"collection-engine/core/dispatch"
	"collection-engine/core/interaction"
	"collection-engine/core/reconcile"
	"collection-engine/core/snapshot"
)

// ItemView is a rendered item.
type ItemView struct {
	Key   string `json:"key"`
	Value any    `json:"value,omitempty"`
}

// SectionView is a rendered section. Items holds the visible items unless
// the view was requested with hidden items; Total counts every item.
type SectionView struct {
	Key       string     `json:"key"`
	Expansion string     `json:"expansion"`
	Total     int        `json:"total"`
	Items     []ItemView `json:"items"`
}

// State is the public view of a session.
type State struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Loading    bool          `json:"loading"`
	Refreshing bool          `json:"refreshing"`
	Sections   []SectionView `json:"sections"`
}

type session struct {
	id       string
	name     string
	queue    *dispatch.Queue
	renderer *reconcile.MemoryRenderer[string]
	ctrl     *interaction.Controller[string, any]
	cancel   context.CancelFunc

	// pages is the number of pages appended so far. Queue only.
	pages int
}

func (s *session) do(ctx context.Context, fn func()) error {
	return s.queue.Do(ctx, fn)
}

func (s *session) close() {
	_ = s.queue.Do(context.Background(), s.ctrl.Close)
	s.queue.Close()
	s.cancel()
}

// state builds the view. It must run on the queue.
func (s *session) state(all bool) *State {
	cur := s.ctrl.Current()
	st := &State{
		ID:         s.id,
		Name:       s.name,
		Loading:    s.ctrl.LoadState() == interaction.Loading,
		Refreshing: s.ctrl.RefreshState() == interaction.Loading,
		Sections:   make([]SectionView, 0, cur.Len()),
	}
	for i, sec := range cur.Sections() {
		v := SectionView{
			Key:       sec.Key,
			Expansion: sec.Expansion.String(),
			Total:     len(sec.Items),
			Items:     []ItemView{},
		}
		items := cur.Visible(i)
		if all && sec.Expansion == snapshot.Collapsed {
			items = sec.Items
		}
		for _, it := range items {
			v.Items = append(v.Items, ItemView{Key: it.Key, Value: it.Value})
		}
		st.Sections = append(st.Sections, v)
	}
	return st
}
