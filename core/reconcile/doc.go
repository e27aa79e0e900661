// Package reconcile applies edit scripts to a live renderer and owns the
// current snapshot of a collection.
//
// # Architecture
//
// The reconcile system consists of three parts:
//
// 1. Renderer: the external widget that displays the collection. It receives
// primitive section and item commands in the order produced by the diff
// package, plus expansion changes.
//
// 2. Reconciler: validates a script against the renderer's current shape,
// applies it inside a single batch, and swaps the current snapshot. The apply
// and the swap happen under one write lock, so concurrent readers of Current
// never observe a snapshot that disagrees with the renderer.
//
// 3. MemoryRenderer: an in-memory renderer that records every command. It is
// used by the HTTP feature, by the diff command's --verify flag and by tests.
//
// Renderers may implement optional interfaces that the reconciler discovers at
// runtime: BatchRenderer groups a script into one visual update, Scroller
// accepts scroll commands and RefreshIndicator shows refresh progress.
//
// # Usage Example
//
//	r := reconcile.New[string, Post](renderer, reconcile.Options{Logger: logger})
//
//	next, err := snapshot.Build(inputs, nil, r.Current())
//	if err != nil {
//	    return err
//	}
//	script, err := r.Reconcile(next)
//
// A renderer must not call back into its Reconciler while a command is being
// delivered; the write lock is held for the whole script.
package reconcile
