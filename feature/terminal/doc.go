// Package terminal renders a collection in the terminal with bubbletea.
//
// Screen is the reconcile.Renderer: it keeps the rendered rows and accepts
// scroll and refresh commands. Model is the bubbletea model that owns the
// interaction.Controller. The controller's executor is the bubbletea event
// loop itself: work posted from background goroutines arrives as a message
// and runs inside Update.
//
// Keys:
//
//	up/k, down/j   move the cursor
//	space          expand or collapse the section under the cursor
//	enter          select the item under the cursor
//	J, K           drag the item under the cursor down or up
//	r              refresh
//	g, G           first or last row
//	q, ctrl+c      quit
//
// Moving the cursor near the end of the last section loads another page of
// generated items.
package terminal
