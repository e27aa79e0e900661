package reconcile

import (
	"fmt"
	"slices"
	"sync"

	"collection-engine/core/errs"
	"collection-engine/core/identity"
	"collection-engine/core/snapshot"
)

// Call is one command received by a MemoryRenderer.
type Call struct {
	Name string `json:"name"`
	Args []int  `json:"args"`
	Key  any    `json:"key,omitempty"`
}

func (c Call) String() string {
	if c.Key != nil {
		return fmt.Sprintf("%s%v %v", c.Name, c.Args, c.Key)
	}
	return fmt.Sprintf("%s%v", c.Name, c.Args)
}

type memorySection[K comparable] struct {
	key      K
	items    []K
	control  bool
	expanded bool
}

// MemoryRenderer keeps the rendered collection in memory and records every
// command it receives. It is safe for concurrent use.
type MemoryRenderer[K comparable] struct {
	mu         sync.Mutex
	sections   []memorySection[K]
	calls      []Call
	batches    int
	offset     Point
	refreshing bool
	scrolledTo *Call
}

// NewMemoryRenderer creates an empty MemoryRenderer.
func NewMemoryRenderer[K comparable]() *MemoryRenderer[K] {
	return &MemoryRenderer[K]{}
}

func (m *MemoryRenderer[K]) record(c Call) {
	m.calls = append(m.calls, c)
}

// InsertSection implements Renderer.
func (m *MemoryRenderer[K]) InsertSection(index int, key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Name: "insert_section", Args: []int{index}, Key: key})
	m.sections = slices.Insert(m.sections, index, memorySection[K]{key: key})
}

// RemoveSection implements Renderer.
func (m *MemoryRenderer[K]) RemoveSection(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Name: "remove_section", Args: []int{index}})
	m.sections = slices.Delete(m.sections, index, index+1)
}

// MoveSection implements Renderer.
func (m *MemoryRenderer[K]) MoveSection(from, to int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Name: "move_section", Args: []int{from, to}})
	sec := m.sections[from]
	m.sections = slices.Delete(m.sections, from, from+1)
	m.sections = slices.Insert(m.sections, to, sec)
}

// InsertItem implements Renderer.
func (m *MemoryRenderer[K]) InsertItem(section, item int, key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Name: "insert_item", Args: []int{section, item}, Key: key})
	m.sections[section].items = slices.Insert(m.sections[section].items, item, key)
}

// RemoveItem implements Renderer.
func (m *MemoryRenderer[K]) RemoveItem(section, item int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Name: "remove_item", Args: []int{section, item}})
	m.sections[section].items = slices.Delete(m.sections[section].items, item, item+1)
}

// MoveItem implements Renderer.
func (m *MemoryRenderer[K]) MoveItem(fromSection, fromItem, toSection, toItem int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Name: "move_item", Args: []int{fromSection, fromItem, toSection, toItem}})
	k := m.sections[fromSection].items[fromItem]
	m.sections[fromSection].items = slices.Delete(m.sections[fromSection].items, fromItem, fromItem+1)
	m.sections[toSection].items = slices.Insert(m.sections[toSection].items, toItem, k)
}

// SetExpansion implements Renderer.
func (m *MemoryRenderer[K]) SetExpansion(section int, expanded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	flag := 0
	if expanded {
		flag = 1
	}
	m.record(Call{Name: "set_expansion", Args: []int{section, flag}})
	m.sections[section].control = true
	m.sections[section].expanded = expanded
}

// RemoveExpansion implements ControlRemover.
func (m *MemoryRenderer[K]) RemoveExpansion(section int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Name: "remove_expansion", Args: []int{section}})
	m.sections[section].control = false
	m.sections[section].expanded = false
}

// PerformBatch implements BatchRenderer.
func (m *MemoryRenderer[K]) PerformBatch(updates func()) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()
	updates()
}

// ScrollToOffset implements Scroller.
func (m *MemoryRenderer[K]) ScrollToOffset(p Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = p
}

// ScrollToItem implements Scroller.
func (m *MemoryRenderer[K]) ScrollToItem(section, item int, pos ScrollPosition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scrolledTo = &Call{Name: "scroll_to_item", Args: []int{section, item, int(pos)}}
}

// SetRefreshing implements RefreshIndicator.
func (m *MemoryRenderer[K]) SetRefreshing(refreshing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshing = refreshing
}

// SectionKeys returns the rendered section keys in order.
func (m *MemoryRenderer[K]) SectionKeys() []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]K, len(m.sections))
	for i, sec := range m.sections {
		keys[i] = sec.key
	}
	return keys
}

// Items returns the rendered item keys of every section.
func (m *MemoryRenderer[K]) Items() [][]K {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]K, len(m.sections))
	for i, sec := range m.sections {
		out[i] = append([]K{}, sec.items...)
	}
	return out
}

// Expansion returns the collapse control state of a section. ok is false when
// the section has no control.
func (m *MemoryRenderer[K]) Expansion(section int) (expanded, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if section < 0 || section >= len(m.sections) || !m.sections[section].control {
		return false, false
	}
	return m.sections[section].expanded, true
}

// Calls returns every command received so far.
func (m *MemoryRenderer[K]) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// ResetCalls clears the command log.
func (m *MemoryRenderer[K]) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Batches returns the number of batches performed.
func (m *MemoryRenderer[K]) Batches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

// Offset returns the last offset scrolled to.
func (m *MemoryRenderer[K]) Offset() Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offset
}

// ScrolledTo returns the last scroll-to-item command, if any.
func (m *MemoryRenderer[K]) ScrolledTo() (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scrolledTo == nil {
		return Call{}, false
	}
	return *m.scrolledTo, true
}

// Refreshing reports whether the refresh indicator is shown.
func (m *MemoryRenderer[K]) Refreshing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing
}

// Verify reports the first difference between what m renders and the visible
// structure of s.
func Verify[K comparable, T any](m *MemoryRenderer[K], s *snapshot.Snapshot[K, T]) error {
	keys := m.SectionKeys()
	items := m.Items()

	if want := s.SectionKeys(); !slices.Equal(keys, want) {
		return &errs.InvalidStateError{Op: "reconcile.Verify", Reason: fmt.Sprintf("sections %v, want %v", keys, want)}
	}
	for i, sec := range s.Sections() {
		want := identity.Keys(s.Visible(i))
		if !slices.Equal(items[i], want) {
			return &errs.InvalidStateError{Op: "reconcile.Verify", Reason: fmt.Sprintf("section %v items %v, want %v", sec.Key, items[i], want)}
		}
		expanded, control := m.Expansion(i)
		if !sec.Expansion.Expandable() {
			if control {
				return &errs.InvalidStateError{Op: "reconcile.Verify", Reason: fmt.Sprintf("section %v still shows an expansion control", sec.Key)}
			}
			continue
		}
		if !control || expanded != (sec.Expansion == snapshot.Expanded) {
			return &errs.InvalidStateError{Op: "reconcile.Verify", Reason: fmt.Sprintf("section %v expansion control does not match %s", sec.Key, sec.Expansion)}
		}
	}
	return nil
}
