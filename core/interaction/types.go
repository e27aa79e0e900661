package interaction

import (
	"errors"

	"collection-engine/core/diff"
	"collection-engine/core/reconcile"
	"collection-engine/core/snapshot"
)

// DefaultThreshold is the near-end threshold used when none is configured.
const DefaultThreshold = 5

// ErrSuperseded is passed to the completion of an asynchronous update that
// was replaced by a newer one before it could be applied.
var ErrSuperseded = errors.New("interaction: update superseded")

// LoadState tracks an asynchronous load or refresh.
type LoadState int

const (
	// Idle means no callback is outstanding.
	Idle LoadState = iota
	// Loading means a callback is running; further triggers are ignored.
	Loading
)

func (s LoadState) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// DropOperation is the advice returned while a drag is in progress.
type DropOperation int

const (
	// DropMove means dropping here moves the item.
	DropMove DropOperation = iota
	// DropForbid means the destination refuses the item.
	DropForbid
	// DropCancel means dropping here ends the drag without a move.
	DropCancel
)

func (o DropOperation) String() string {
	switch o {
	case DropForbid:
		return "forbid"
	case DropCancel:
		return "cancel"
	default:
		return "move"
	}
}

// DropIntent describes where a dropped item would land.
type DropIntent int

const (
	IntentUnspecified DropIntent = iota
	// IntentInsertAtDestination places the item at the destination index.
	IntentInsertAtDestination
	// IntentInsertIntoDestination places the item into the destination item.
	IntentInsertIntoDestination
)

func (i DropIntent) String() string {
	switch i {
	case IntentInsertAtDestination:
		return "insert_at_destination"
	case IntentInsertIntoDestination:
		return "insert_into_destination"
	default:
		return "unspecified"
	}
}

// DropProposal is returned by UpdateDrag for the renderer's visual feedback.
type DropProposal struct {
	Operation DropOperation `json:"operation"`
	Intent    DropIntent    `json:"intent"`
}

// MoveResult reports the outcome of a committed drag.
type MoveResult[K comparable] struct {
	// NoOp is true when source and destination denote the same entity or
	// the move would leave the item where it is.
	NoOp bool `json:"no_op"`
	// Key is the moved item.
	Key K `json:"key"`
	// From is the source location.
	From snapshot.Location `json:"from"`
	// Effective is where the item ended up.
	Effective snapshot.Location `json:"effective"`
	// Script is the applied script. It holds exactly one MoveItem unless
	// NoOp is set.
	Script diff.Script[K] `json:"script"`
}

// ScrollState is the last scroll position reported by the renderer.
type ScrollState struct {
	Offset      reconcile.Point `json:"offset"`
	ContentSize reconcile.Size  `json:"content_size"`
}
