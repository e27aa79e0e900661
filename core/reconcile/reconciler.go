package reconcile

import (
	"fmt"
	"slices"
	"sync"

	"collection-engine/core/diff"
	"collection-engine/core/errs"
	"collection-engine/core/snapshot"

	"go.uber.org/zap"
)

// Options configures a Reconciler.
type Options struct {
	// Logger receives a debug entry for every applied script. Defaults to a
	// no-op logger.
	Logger *zap.Logger
}

// Reconciler applies scripts to a renderer and tracks the snapshot the
// renderer currently shows.
type Reconciler[K comparable, T any] struct {
	mu       sync.RWMutex
	renderer Renderer[K]
	current  *snapshot.Snapshot[K, T]
	logger   *zap.Logger
	applied  int
}

// New creates a Reconciler for a renderer that starts out empty.
func New[K comparable, T any](renderer Renderer[K], opts Options) *Reconciler[K, T] {
	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Reconciler[K, T]{renderer: renderer, logger: l}
}

// Current returns the snapshot the renderer shows. It is nil before the
// first apply.
func (r *Reconciler[K, T]) Current() *snapshot.Snapshot[K, T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Applied returns the number of scripts applied so far.
func (r *Reconciler[K, T]) Applied() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.applied
}

// Apply validates script against the current shape, delivers it to the
// renderer and makes next the current snapshot. Nothing reaches the renderer
// when validation fails.
func (r *Reconciler[K, T]) Apply(script diff.Script[K], next *snapshot.Snapshot[K, T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(script, next)
}

// Reconcile diffs the current snapshot against next and applies the result.
func (r *Reconciler[K, T]) Reconcile(next *snapshot.Snapshot[K, T]) (diff.Script[K], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	script, err := diff.Diff(r.current, next)
	if err != nil {
		return diff.Script[K]{}, fmt.Errorf("failed to diff snapshots: %w", err)
	}
	if err := r.applyLocked(script, next); err != nil {
		return diff.Script[K]{}, err
	}
	return script, nil
}

func (r *Reconciler[K, T]) applyLocked(script diff.Script[K], next *snapshot.Snapshot[K, T]) error {
	shape, err := script.Simulate(r.current.Shape())
	if err != nil {
		return fmt.Errorf("invalid edit script: %w", err)
	}
	if want := next.Shape(); !slices.Equal(shape, want) {
		return &errs.InvalidStateError{
			Op:     "reconcile.Apply",
			Reason: fmt.Sprintf("script produces shape %v, snapshot has %v", shape, want),
		}
	}

	if batcher, ok := r.renderer.(BatchRenderer); ok {
		batcher.PerformBatch(func() { r.deliver(script) })
	} else {
		r.deliver(script)
	}

	r.current = next
	r.applied++

	if !script.Empty() {
		s := script.Summary()
		r.logger.Debug("Applied edit script",
			zap.Int("section_inserts", s.SectionInserts),
			zap.Int("section_removes", s.SectionRemoves),
			zap.Int("section_moves", s.SectionMoves),
			zap.Int("item_inserts", s.ItemInserts),
			zap.Int("item_removes", s.ItemRemoves),
			zap.Int("item_moves", s.ItemMoves),
			zap.Int("expansion_changes", s.ExpansionChanges),
		)
	}
	return nil
}

func (r *Reconciler[K, T]) deliver(script diff.Script[K]) {
	for _, op := range script.Ops {
		switch op.Kind {
		case diff.InsertSection:
			r.renderer.InsertSection(op.Section, op.Key)
		case diff.RemoveSection:
			r.renderer.RemoveSection(op.Section)
		case diff.MoveSection:
			r.renderer.MoveSection(op.Section, op.ToSection)
		case diff.InsertItem:
			r.renderer.InsertItem(op.Section, op.Item, op.Key)
		case diff.RemoveItem:
			r.renderer.RemoveItem(op.Section, op.Item)
		case diff.MoveItem:
			r.renderer.MoveItem(op.Section, op.Item, op.ToSection, op.ToItem)
		}
	}
	remover, canRemove := r.renderer.(ControlRemover)
	for _, ch := range script.Expansion {
		if ch.Removed {
			if canRemove {
				remover.RemoveExpansion(ch.Section)
			}
			continue
		}
		r.renderer.SetExpansion(ch.Section, ch.Expanded)
	}
}

// ScrollToItem asks the renderer to bring the item with the given key into
// view. It reports false when the renderer does not scroll.
func (r *Reconciler[K, T]) ScrollToItem(key K, pos ScrollPosition) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.current.Locate(key)
	if !ok || !r.current.IsVisible(key) {
		return false, &errs.UnknownKeyError{Op: "reconcile.ScrollToItem", Key: key}
	}
	scroller, ok := r.renderer.(Scroller)
	if !ok {
		return false, nil
	}
	scroller.ScrollToItem(loc.Section, loc.Item, pos)
	return true, nil
}

// ScrollToOffset asks the renderer to scroll to p. It reports false when the
// renderer does not scroll.
func (r *Reconciler[K, T]) ScrollToOffset(p Point) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scroller, ok := r.renderer.(Scroller)
	if !ok {
		return false
	}
	scroller.ScrollToOffset(p)
	return true
}

// SetRefreshing forwards refresh progress to renderers that display it.
func (r *Reconciler[K, T]) SetRefreshing(refreshing bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if indicator, ok := r.renderer.(RefreshIndicator); ok {
		indicator.SetRefreshing(refreshing)
	}
}
