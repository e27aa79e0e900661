// Package interaction drives one collection instance from inbound renderer
// events and host data updates.
//
// A Controller is owned by a single dispatch.Executor and every method must be
// called on it. The controller keeps:
//   - the current snapshot, through its reconcile.Reconciler
//   - the infinite-scroll and pull-to-refresh guards (Idle or Loading)
//   - the active drag session
//   - the last reported scroll position
//
// # Infinite scroll
//
// OnNearEnd starts LoadMore when the signalled item is in the last section and
// within Threshold items of its end, or the section holds a single item, and no
// load is outstanding. Indices that do not address a visible item are
// reported with errs.ErrIndexOutOfRange. LoadMore runs on its own goroutine; its completion is
// posted back to the executor and returns the guard to Idle whether or not it
// failed. A closed controller ignores the completion.
//
// # Drag and drop
//
// BeginDrag asks CanDrag and opens the drag session; UpdateDrag asks
// DropPolicy and mutates nothing. CommitDrag needs the session BeginDrag
// opened at the same source. It applies exactly one MoveItem and reports the
// effective destination: an item moved upward lands before the destination
// item, an item moved downward lands after it.
//
// # Data updates
//
// Update builds and reconciles on the executor. UpdateAsync builds and diffs on
// a worker goroutine with at most one diff in flight; newer updates replace
// older queued ones, and a result whose baseline changed meanwhile is
// re-diffed on the executor before it is applied. Close completes the running
// and queued updates with errs.ErrInvalidState.
package interaction
