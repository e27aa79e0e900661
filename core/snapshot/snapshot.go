package snapshot

import (
	"collection-engine/core/errs"
	"collection-engine/core/identity"
)

// Location addresses an item by section index and item index.
type Location struct {
	Section int `json:"section"`
	Item    int `json:"item"`
}

// Section is one ordered group of items.
// Items is shared with the snapshot and must not be modified.
type Section[K comparable, T any] struct {
	Key       K
	Items     []identity.Item[K, T]
	Expansion ExpansionState
}

// Input is the raw form of a section handed to Build.
type Input[K comparable, T any] struct {
	Key   K
	Items []identity.Item[K, T]
	// Expansion overrides the default for this section when not Unspecified.
	Expansion ExpansionState
}

// Snapshot is an immutable sectioned collection with expansion state.
// The zero value is an empty snapshot.
type Snapshot[K comparable, T any] struct {
	sections   []Section[K, T]
	sectionIdx map[K]int
	itemLoc    map[K]Location
	// toggles holds the sections whose state was chosen by the user.
	toggles map[K]ExpansionState
}

// Build creates a snapshot from inputs.
//
// defaults supplies the expansion of the section at each index; nil means
// Expanded. A section that was user-toggled in previous keeps its toggled state
// unless its default is now NotExpandable. Duplicate section keys or duplicate
// item keys anywhere in the snapshot are reported as *errs.DuplicateKeyError.
func Build[K comparable, T any](inputs []Input[K, T], defaults func(int) ExpansionState, previous *Snapshot[K, T]) (*Snapshot[K, T], error) {
	sections := make([]Section[K, T], len(inputs))
	toggles := make(map[K]ExpansionState)

	for i, in := range inputs {
		state := Expanded
		if defaults != nil {
			if d := defaults(i); d != Unspecified {
				state = d
			}
		}
		if in.Expansion != Unspecified {
			state = in.Expansion
		}

		if state != NotExpandable && previous != nil {
			if prev, ok := previous.toggles[in.Key]; ok && prev.Expandable() {
				state = prev
				toggles[in.Key] = prev
			}
		}

		sections[i] = Section[K, T]{
			Key:       in.Key,
			Items:     in.Items,
			Expansion: state,
		}
	}

	s := &Snapshot[K, T]{sections: sections, toggles: toggles}
	if err := s.index(); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed returns an empty snapshot whose toggle history is toggles. Passing it
// as previous to Build restores persisted user choices.
func Seed[K comparable, T any](toggles map[K]ExpansionState) *Snapshot[K, T] {
	s := &Snapshot[K, T]{toggles: make(map[K]ExpansionState, len(toggles))}
	for k, v := range toggles {
		if v.Expandable() {
			s.toggles[k] = v
		}
	}
	return s
}

// index rebuilds the key lookups and rejects duplicates.
func (s *Snapshot[K, T]) index() error {
	total := 0
	for _, sec := range s.sections {
		total += len(sec.Items)
	}
	s.sectionIdx = make(map[K]int, len(s.sections))
	s.itemLoc = make(map[K]Location, total)

	for si, sec := range s.sections {
		if _, dup := s.sectionIdx[sec.Key]; dup {
			return &errs.DuplicateKeyError{Scope: "section", Key: sec.Key}
		}
		s.sectionIdx[sec.Key] = si
		for ii, it := range sec.Items {
			if _, dup := s.itemLoc[it.Key]; dup {
				return &errs.DuplicateKeyError{Scope: "item", Key: it.Key}
			}
			s.itemLoc[it.Key] = Location{Section: si, Item: ii}
		}
	}
	return nil
}

// Len returns the number of sections.
func (s *Snapshot[K, T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.sections)
}

// ItemCount returns the number of items across all sections, visible or not.
func (s *Snapshot[K, T]) ItemCount() int {
	if s == nil {
		return 0
	}
	return len(s.itemLoc)
}

// Sections returns the sections in order. The slice must not be modified.
func (s *Snapshot[K, T]) Sections() []Section[K, T] {
	if s == nil {
		return nil
	}
	return s.sections
}

// Section returns the section at index i.
func (s *Snapshot[K, T]) Section(i int) (Section[K, T], error) {
	if i < 0 || i >= s.Len() {
		return Section[K, T]{}, &errs.IndexOutOfRangeError{Op: "snapshot.Section", Section: i, Item: -1, Limit: s.Len()}
	}
	return s.sections[i], nil
}

// SectionIndex returns the index of the section with key k.
func (s *Snapshot[K, T]) SectionIndex(k K) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.sectionIdx[k]
	return i, ok
}

// Locate returns the location of the item with key k.
func (s *Snapshot[K, T]) Locate(k K) (Location, bool) {
	if s == nil {
		return Location{}, false
	}
	loc, ok := s.itemLoc[k]
	return loc, ok
}

// ItemAt returns the item at loc.
func (s *Snapshot[K, T]) ItemAt(loc Location) (identity.Item[K, T], error) {
	sec, err := s.Section(loc.Section)
	if err != nil {
		return identity.Item[K, T]{}, err
	}
	if loc.Item < 0 || loc.Item >= len(sec.Items) {
		return identity.Item[K, T]{}, &errs.IndexOutOfRangeError{Op: "snapshot.ItemAt", Section: loc.Section, Item: loc.Item, Limit: len(sec.Items)}
	}
	return sec.Items[loc.Item], nil
}

// Item returns the item with key k.
func (s *Snapshot[K, T]) Item(k K) (identity.Item[K, T], bool) {
	loc, ok := s.Locate(k)
	if !ok {
		return identity.Item[K, T]{}, false
	}
	return s.sections[loc.Section].Items[loc.Item], true
}

// Visible returns the materialized items of section i: none when the section is
// Collapsed, all of them otherwise.
func (s *Snapshot[K, T]) Visible(i int) []identity.Item[K, T] {
	if i < 0 || i >= s.Len() {
		return nil
	}
	sec := s.sections[i]
	if sec.Expansion == Collapsed {
		return nil
	}
	return sec.Items
}

// VisibleCount returns len(s.Visible(i)).
func (s *Snapshot[K, T]) VisibleCount(i int) int {
	return len(s.Visible(i))
}

// IsVisible reports whether the item with key k is materialized.
func (s *Snapshot[K, T]) IsVisible(k K) bool {
	loc, ok := s.Locate(k)
	return ok && s.sections[loc.Section].Expansion != Collapsed
}

// Shape returns the visible item count of every section.
func (s *Snapshot[K, T]) Shape() []int {
	shape := make([]int, s.Len())
	for i := range shape {
		shape[i] = s.VisibleCount(i)
	}
	return shape
}

// SectionKeys returns the section keys in order.
func (s *Snapshot[K, T]) SectionKeys() []K {
	keys := make([]K, s.Len())
	for i := range keys {
		keys[i] = s.sections[i].Key
	}
	return keys
}

// Toggled reports whether the user chose the expansion of section k.
func (s *Snapshot[K, T]) Toggled(k K) bool {
	if s == nil {
		return false
	}
	_, ok := s.toggles[k]
	return ok
}

// Toggles returns a copy of the user-toggled sections and their states.
func (s *Snapshot[K, T]) Toggles() map[K]ExpansionState {
	out := make(map[K]ExpansionState)
	if s == nil {
		return out
	}
	for k, v := range s.toggles {
		out[k] = v
	}
	return out
}

// Expansions returns the expansion state of every section keyed by section key.
func (s *Snapshot[K, T]) Expansions() map[K]ExpansionState {
	out := make(map[K]ExpansionState, s.Len())
	for _, sec := range s.Sections() {
		out[sec.Key] = sec.Expansion
	}
	return out
}

// Inputs converts the snapshot back into Build inputs with explicit expansion.
func (s *Snapshot[K, T]) Inputs() []Input[K, T] {
	inputs := make([]Input[K, T], s.Len())
	for i, sec := range s.Sections() {
		inputs[i] = Input[K, T]{Key: sec.Key, Items: sec.Items, Expansion: sec.Expansion}
	}
	return inputs
}

// WithExpansion returns a copy of s with section k set to state and recorded
// as user-toggled. The section must exist and be expandable, and state must be
// Expanded or Collapsed.
func (s *Snapshot[K, T]) WithExpansion(k K, state ExpansionState) (*Snapshot[K, T], error) {
	i, ok := s.SectionIndex(k)
	if !ok {
		return nil, &errs.UnknownKeyError{Op: "snapshot.WithExpansion", Key: k}
	}
	if !state.Expandable() {
		return nil, &errs.InvalidStateError{Op: "snapshot.WithExpansion", Reason: "state must be expanded or collapsed"}
	}
	if s.sections[i].Expansion == NotExpandable {
		return nil, &errs.InvalidStateError{Op: "snapshot.WithExpansion", Reason: "section is not expandable"}
	}

	sections := make([]Section[K, T], len(s.sections))
	copy(sections, s.sections)
	sections[i].Expansion = state

	toggles := s.Toggles()
	toggles[k] = state

	return &Snapshot[K, T]{
		sections:   sections,
		sectionIdx: s.sectionIdx,
		itemLoc:    s.itemLoc,
		toggles:    toggles,
	}, nil
}

// MoveItem returns a copy of s with the item at from relocated so that it ends
// up at to. to is interpreted after the item has been removed from from, so
// to.Item may equal the length of the destination section.
func (s *Snapshot[K, T]) MoveItem(from, to Location) (*Snapshot[K, T], error) {
	item, err := s.ItemAt(from)
	if err != nil {
		return nil, err
	}
	if to.Section < 0 || to.Section >= s.Len() {
		return nil, &errs.IndexOutOfRangeError{Op: "snapshot.MoveItem", Section: to.Section, Item: -1, Limit: s.Len()}
	}
	limit := len(s.sections[to.Section].Items)
	if to.Section != from.Section {
		limit++
	}
	if to.Item < 0 || to.Item >= limit {
		return nil, &errs.IndexOutOfRangeError{Op: "snapshot.MoveItem", Section: to.Section, Item: to.Item, Limit: limit}
	}

	sections := make([]Section[K, T], len(s.sections))
	copy(sections, s.sections)

	src := sections[from.Section].Items
	rest := make([]identity.Item[K, T], 0, len(src)-1)
	rest = append(rest, src[:from.Item]...)
	rest = append(rest, src[from.Item+1:]...)
	sections[from.Section].Items = rest

	dst := sections[to.Section].Items
	moved := make([]identity.Item[K, T], 0, len(dst)+1)
	moved = append(moved, dst[:to.Item]...)
	moved = append(moved, item)
	moved = append(moved, dst[to.Item:]...)
	sections[to.Section].Items = moved

	out := &Snapshot[K, T]{sections: sections, toggles: s.Toggles()}
	if err := out.index(); err != nil {
		return nil, err
	}
	return out, nil
}
