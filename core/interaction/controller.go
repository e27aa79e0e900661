package interaction

import (
	"context"
	"fmt"

	"collection-engine/core/diff"
	"collection-engine/core/dispatch"
	"collection-engine/core/errs"
	"collection-engine/core/identity"
	"collection-engine/core/reconcile"
	"collection-engine/core/snapshot"

	"go.uber.org/zap"
)

// Options configures a Controller. Every callback is optional.
type Options[K comparable, T any] struct {
	// Threshold is the near-end threshold. Zero means DefaultThreshold.
	Threshold int

	// Defaults supplies the expansion of sections the user never toggled.
	// Nil means every section starts expanded.
	Defaults func(section int) snapshot.ExpansionState

	// Previous seeds the first snapshot, typically with persisted toggles.
	Previous *snapshot.Snapshot[K, T]

	// LoadMore fetches the next page. It runs on its own goroutine and is
	// expected to deliver new data through Update on the owning executor.
	LoadMore func(ctx context.Context) error

	// Refresh reloads the collection. It runs like LoadMore.
	Refresh func(ctx context.Context) error

	// CanDrag decides whether a drag may start at an item.
	CanDrag func(loc snapshot.Location, item identity.Item[K, T]) bool

	// DropPolicy advises on a drag destination. Nil allows every valid
	// destination in an expanded section.
	DropPolicy func(src, dst snapshot.Location) DropProposal

	// OnMove is called after a drag commit moved an item.
	OnMove func(result MoveResult[K])

	// OnSelect is called when an item is tapped.
	OnSelect func(item identity.Item[K, T])

	// OnToggle is called after a section changed expansion through the
	// controller.
	OnToggle func(section K, state snapshot.ExpansionState)

	// Logger receives state transitions. Defaults to a no-op logger.
	Logger *zap.Logger
}

type update[K comparable, T any] struct {
	inputs []snapshot.Input[K, T]
	done   func(diff.Script[K], error)
	gen    uint64
}

// Controller serializes data updates, drags, toggles and scroll triggers
// for one collection. Every method must run on the executor passed to New.
type Controller[K comparable, T any] struct {
	exec   dispatch.Executor
	rec    *reconcile.Reconciler[K, T]
	opts   Options[K, T]
	logger *zap.Logger

	threshold int
	load      LoadState
	refresh   LoadState
	closed    bool

	dragging bool
	dragFrom snapshot.Location

	scroll ScrollState

	gen      uint64
	inFlight bool
	running  *update[K, T]
	queued   *update[K, T]
}

// New creates a Controller that renders into renderer. The renderer starts
// out empty; the first Update fills it.
func New[K comparable, T any](exec dispatch.Executor, renderer reconcile.Renderer[K], opts Options[K, T]) *Controller[K, T] {
	l := opts.Logger
	if l == nil {
		l = zap.NewNop()
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Controller[K, T]{
		exec:      exec,
		rec:       reconcile.New[K, T](renderer, reconcile.Options{Logger: l}),
		opts:      opts,
		logger:    l,
		threshold: threshold,
	}
}

// Current returns the snapshot the renderer shows.
func (c *Controller[K, T]) Current() *snapshot.Snapshot[K, T] {
	return c.rec.Current()
}

// Reconciler returns the reconciler that owns the renderer.
func (c *Controller[K, T]) Reconciler() *reconcile.Reconciler[K, T] {
	return c.rec
}

// baseline is the snapshot new data is built against.
func (c *Controller[K, T]) baseline() *snapshot.Snapshot[K, T] {
	if cur := c.rec.Current(); cur != nil {
		return cur
	}
	return c.opts.Previous
}

// Update builds a snapshot from inputs, carrying expansion over from the
// current one, and reconciles it. Any asynchronous update still in flight is
// superseded.
func (c *Controller[K, T]) Update(inputs []snapshot.Input[K, T]) (diff.Script[K], error) {
	if c.closed {
		return diff.Script[K]{}, &errs.InvalidStateError{Op: "interaction.Update", Reason: "controller is closed"}
	}
	c.gen++
	c.dropQueued()

	next, err := snapshot.Build(inputs, c.opts.Defaults, c.baseline())
	if err != nil {
		return diff.Script[K]{}, fmt.Errorf("failed to build snapshot: %w", err)
	}
	return c.rec.Reconcile(next)
}

// UpdateAsync is Update with the build and diff computed on a worker
// goroutine. At most one diff is in flight; updates posted meanwhile
// coalesce and only the latest runs. done, if set, is called on the executor.
func (c *Controller[K, T]) UpdateAsync(inputs []snapshot.Input[K, T], done func(diff.Script[K], error)) {
	if c.closed {
		if done != nil {
			done(diff.Script[K]{}, &errs.InvalidStateError{Op: "interaction.UpdateAsync", Reason: "controller is closed"})
		}
		return
	}
	c.gen++
	u := &update[K, T]{inputs: inputs, done: done, gen: c.gen}

	if c.inFlight {
		c.dropQueued()
		c.queued = u
		return
	}
	c.start(u)
}

func (c *Controller[K, T]) dropQueued() {
	if c.queued == nil {
		return
	}
	if c.queued.done != nil {
		c.queued.done(diff.Script[K]{}, ErrSuperseded)
	}
	c.queued = nil
}

func (c *Controller[K, T]) start(u *update[K, T]) {
	c.inFlight = true
	c.running = u
	cur := c.rec.Current()
	base := c.baseline()
	defaults := c.opts.Defaults

	go func() {
		next, err := snapshot.Build(u.inputs, defaults, base)
		var script diff.Script[K]
		if err == nil {
			script, err = diff.Diff(cur, next)
		}
		c.exec.Post(func() { c.finish(u, cur, next, script, err) })
	}()
}

func (c *Controller[K, T]) finish(u *update[K, T], cur, next *snapshot.Snapshot[K, T], script diff.Script[K], err error) {
	c.inFlight = false
	c.running = nil
	if c.closed {
		return
	}

	switch {
	case u.gen != c.gen:
		script, err = diff.Script[K]{}, ErrSuperseded
	case err != nil:
		err = fmt.Errorf("failed to prepare update: %w", err)
	case c.rec.Current() != cur:
		// A drag or toggle landed while the diff ran.
		c.logger.Debug("Re-diffing stale update")
		script, err = c.rebuild(u.inputs)
	default:
		err = c.rec.Apply(script, next)
	}
	if err != nil && err != ErrSuperseded {
		script = diff.Script[K]{}
	}

	if u.done != nil {
		u.done(script, err)
	}

	if q := c.queued; q != nil {
		c.queued = nil
		c.start(q)
	}
}

func (c *Controller[K, T]) rebuild(inputs []snapshot.Input[K, T]) (diff.Script[K], error) {
	next, err := snapshot.Build(inputs, c.opts.Defaults, c.baseline())
	if err != nil {
		return diff.Script[K]{}, fmt.Errorf("failed to build snapshot: %w", err)
	}
	return c.rec.Reconcile(next)
}

// Pending reports whether an asynchronous update is in flight or queued.
func (c *Controller[K, T]) Pending() bool {
	return c.inFlight || c.queued != nil
}

// Toggle flips the expansion of an expandable section.
func (c *Controller[K, T]) Toggle(section K) (diff.Script[K], error) {
	cur := c.rec.Current()
	i, ok := cur.SectionIndex(section)
	if !ok {
		return diff.Script[K]{}, &errs.UnknownKeyError{Op: "interaction.Toggle", Key: section}
	}
	state := snapshot.Collapsed
	if cur.Sections()[i].Expansion == snapshot.Collapsed {
		state = snapshot.Expanded
	}
	return c.SetExpansion(section, state)
}

// SetExpansion expands or collapses a section. Only that section's items are
// inserted or removed.
func (c *Controller[K, T]) SetExpansion(section K, state snapshot.ExpansionState) (diff.Script[K], error) {
	if c.closed {
		return diff.Script[K]{}, &errs.InvalidStateError{Op: "interaction.SetExpansion", Reason: "controller is closed"}
	}
	next, err := c.rec.Current().WithExpansion(section, state)
	if err != nil {
		return diff.Script[K]{}, err
	}
	script, err := c.rec.Reconcile(next)
	if err != nil {
		return diff.Script[K]{}, err
	}
	c.logger.Debug("Section expansion changed", zap.Any("section", section), zap.Stringer("state", state))
	if c.opts.OnToggle != nil {
		c.opts.OnToggle(section, state)
	}
	return script, nil
}

// OnNearEnd handles the renderer's signal that an item near the end of the
// content came into view. It reports whether a load was started. Indices
// outside the current snapshot, or a count that cannot hold item, are
// rejected with ErrIndexOutOfRange.
func (c *Controller[K, T]) OnNearEnd(section, item, count int) (bool, error) {
	if c.closed {
		return false, nil
	}
	cur := c.rec.Current()
	if section < 0 || section >= cur.Len() {
		return false, &errs.IndexOutOfRangeError{Op: "interaction.OnNearEnd", Section: section, Item: -1, Limit: cur.Len()}
	}
	visible := cur.VisibleCount(section)
	if item < 0 || item >= visible {
		return false, &errs.IndexOutOfRangeError{Op: "interaction.OnNearEnd", Section: section, Item: item, Limit: visible}
	}
	if count <= item || count > visible {
		return false, &errs.IndexOutOfRangeError{Op: "interaction.OnNearEnd", Section: section, Item: count, Limit: visible}
	}

	if c.opts.LoadMore == nil || c.load != Idle {
		return false, nil
	}
	if section != cur.Len()-1 {
		return false, nil
	}
	if item < count-c.threshold && count != 1 {
		return false, nil
	}

	c.load = Loading
	c.logger.Debug("Loading more", zap.Int("section", section), zap.Int("item", item), zap.Int("count", count))

	loadMore := c.opts.LoadMore
	go func() {
		err := loadMore(context.Background())
		c.exec.Post(func() { c.finishLoad(err) })
	}()
	return true, nil
}

func (c *Controller[K, T]) finishLoad(err error) {
	if c.closed {
		return
	}
	c.load = Idle
	if err != nil {
		c.logger.Warn("Load more failed", zap.Error(err))
	}
}

// LoadState returns the infinite-scroll state.
func (c *Controller[K, T]) LoadState() LoadState {
	return c.load
}

// BeginRefresh starts the refresh callback unless one is already running.
func (c *Controller[K, T]) BeginRefresh() bool {
	if c.closed || c.opts.Refresh == nil || c.refresh != Idle {
		return false
	}
	c.refresh = Loading
	c.rec.SetRefreshing(true)

	refresh := c.opts.Refresh
	go func() {
		err := refresh(context.Background())
		c.exec.Post(func() { c.finishRefresh(err) })
	}()
	return true
}

func (c *Controller[K, T]) finishRefresh(err error) {
	if c.closed {
		return
	}
	c.refresh = Idle
	c.rec.SetRefreshing(false)
	if err != nil {
		c.logger.Warn("Refresh failed", zap.Error(err))
	}
}

// RefreshState returns the pull-to-refresh state.
func (c *Controller[K, T]) RefreshState() LoadState {
	return c.refresh
}

// OnItemTap reports a tapped item to OnSelect.
func (c *Controller[K, T]) OnItemTap(key K) error {
	cur := c.rec.Current()
	if !cur.IsVisible(key) {
		return &errs.UnknownKeyError{Op: "interaction.OnItemTap", Key: key}
	}
	item, _ := cur.Item(key)
	if c.opts.OnSelect != nil {
		c.opts.OnSelect(item)
	}
	return nil
}

// OnScroll records the renderer's scroll position.
func (c *Controller[K, T]) OnScroll(offset reconcile.Point, contentSize reconcile.Size) {
	c.scroll = ScrollState{Offset: offset, ContentSize: contentSize}
}

// ScrollState returns the last recorded scroll position.
func (c *Controller[K, T]) ScrollState() ScrollState {
	return c.scroll
}

// ScrollToItem asks the renderer to bring a visible item into view.
func (c *Controller[K, T]) ScrollToItem(key K, pos reconcile.ScrollPosition) error {
	_, err := c.rec.ScrollToItem(key, pos)
	return err
}

// ScrollToOffset asks the renderer to scroll to p.
func (c *Controller[K, T]) ScrollToOffset(p reconcile.Point) {
	if c.rec.ScrollToOffset(p) {
		c.scroll.Offset = p
	}
}

// Close detaches the controller. Pending asynchronous updates complete with
// ErrInvalidState; results of callbacks still running are dropped when they
// arrive.
func (c *Controller[K, T]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.dragging = false

	closedErr := &errs.InvalidStateError{Op: "interaction.Close", Reason: "controller is closed"}
	for _, u := range []*update[K, T]{c.running, c.queued} {
		if u != nil && u.done != nil {
			u.done(diff.Script[K]{}, closedErr)
		}
	}
	c.running = nil
	c.queued = nil
	c.logger.Debug("Controller closed")
}

// Closed reports whether Close was called.
func (c *Controller[K, T]) Closed() bool {
	return c.closed
}
