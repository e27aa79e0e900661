package interaction

import (
	"collection-engine/core/diff"
	"collection-engine/core/errs"
	"collection-engine/core/snapshot"

	"go.uber.org/zap"
)

// BeginDrag starts a drag session at src. It reports false, with no side
// effect, when src is not a visible item or CanDrag refuses it.
func (c *Controller[K, T]) BeginDrag(src snapshot.Location) bool {
	if c.closed {
		return false
	}
	cur := c.rec.Current()
	if src.Item < 0 || src.Item >= cur.VisibleCount(src.Section) {
		return false
	}
	if c.opts.CanDrag != nil {
		item, err := cur.ItemAt(src)
		if err != nil || !c.opts.CanDrag(src, item) {
			return false
		}
	}
	c.dragging = true
	c.dragFrom = src
	return true
}

// Dragging reports whether a drag session is active and where it started.
func (c *Controller[K, T]) Dragging() (snapshot.Location, bool) {
	return c.dragFrom, c.dragging
}

// UpdateDrag advises the renderer on a proposed destination. It never mutates
// anything.
func (c *Controller[K, T]) UpdateDrag(src, dst snapshot.Location) DropProposal {
	cur := c.rec.Current()
	if c.closed || dst.Section < 0 || dst.Section >= cur.Len() {
		return DropProposal{Operation: DropCancel}
	}
	if src.Item < 0 || src.Item >= cur.VisibleCount(src.Section) {
		return DropProposal{Operation: DropCancel}
	}
	if dst.Item < 0 || dst.Item > cur.VisibleCount(dst.Section) {
		return DropProposal{Operation: DropCancel}
	}
	if cur.Sections()[dst.Section].Expansion == snapshot.Collapsed {
		return DropProposal{Operation: DropForbid}
	}
	if c.opts.DropPolicy != nil {
		return c.opts.DropPolicy(src, dst)
	}
	return DropProposal{Operation: DropMove, Intent: IntentInsertAtDestination}
}

// CancelDrag ends the drag session without a move.
func (c *Controller[K, T]) CancelDrag() {
	c.dragging = false
}

// CommitDrag moves the item at src toward dst with a single MoveItem.
//
// dst.Item may equal the length of the destination section to append. An item
// moved upward, or into an earlier section, lands before the destination
// item; an item moved downward, or into a later section, lands after it. The
// location actually used is reported as Effective. Source and destination
// denoting the same entity, or a move that would leave the item in place,
// yield a NoOp result and no edits.
//
// A drag session started by BeginDrag at src is required; without one the
// commit fails with ErrInvalidState. The session ends either way.
func (c *Controller[K, T]) CommitDrag(src, dst snapshot.Location) (MoveResult[K], error) {
	active, from := c.dragging, c.dragFrom
	c.dragging = false
	if c.closed {
		return MoveResult[K]{}, &errs.InvalidStateError{Op: "interaction.CommitDrag", Reason: "controller is closed"}
	}

	cur := c.rec.Current()
	if src.Section < 0 || src.Section >= cur.Len() {
		return MoveResult[K]{}, &errs.IndexOutOfRangeError{Op: "interaction.CommitDrag", Section: src.Section, Item: -1, Limit: cur.Len()}
	}
	if n := cur.VisibleCount(src.Section); src.Item < 0 || src.Item >= n {
		return MoveResult[K]{}, &errs.IndexOutOfRangeError{Op: "interaction.CommitDrag", Section: src.Section, Item: src.Item, Limit: n}
	}
	if dst.Section < 0 || dst.Section >= cur.Len() {
		return MoveResult[K]{}, &errs.IndexOutOfRangeError{Op: "interaction.CommitDrag", Section: dst.Section, Item: -1, Limit: cur.Len()}
	}
	dstLen := cur.VisibleCount(dst.Section)
	if dst.Item < 0 || dst.Item > dstLen {
		return MoveResult[K]{}, &errs.IndexOutOfRangeError{Op: "interaction.CommitDrag", Section: dst.Section, Item: dst.Item, Limit: dstLen + 1}
	}
	if cur.Sections()[dst.Section].Expansion == snapshot.Collapsed {
		return MoveResult[K]{}, &errs.InvalidStateError{Op: "interaction.CommitDrag", Reason: "destination section is collapsed"}
	}
	if !active || from != src {
		return MoveResult[K]{}, &errs.InvalidStateError{Op: "interaction.CommitDrag", Reason: "no drag in progress at the source"}
	}

	moving, _ := cur.ItemAt(src)
	result := MoveResult[K]{Key: moving.Key, From: src, Effective: src}

	if dst.Item < dstLen {
		if target, _ := cur.ItemAt(dst); target.Key == moving.Key {
			result.NoOp = true
			return result, nil
		}
	}

	eff := effectiveDestination(src, dst, dstLen)
	if eff == src {
		result.NoOp = true
		return result, nil
	}

	next, err := cur.MoveItem(src, eff)
	if err != nil {
		return MoveResult[K]{}, err
	}
	script := diff.Script[K]{Ops: []diff.Op[K]{{
		Kind:      diff.MoveItem,
		Key:       moving.Key,
		Section:   src.Section,
		Item:      src.Item,
		ToSection: eff.Section,
		ToItem:    eff.Item,
	}}}
	if err := c.rec.Apply(script, next); err != nil {
		return MoveResult[K]{}, err
	}

	result.Effective = eff
	result.Script = script
	c.logger.Debug("Drag committed",
		zap.Any("key", moving.Key),
		zap.Int("from_section", src.Section), zap.Int("from_item", src.Item),
		zap.Int("to_section", eff.Section), zap.Int("to_item", eff.Item),
	)
	if c.opts.OnMove != nil {
		c.opts.OnMove(result)
	}
	return result, nil
}

// effectiveDestination maps a proposed destination to the post-removal
// location of the moved item. dstLen is the destination section's length
// before the move.
func effectiveDestination(src, dst snapshot.Location, dstLen int) snapshot.Location {
	switch {
	case dst.Section == src.Section:
		// Upward lands on dst.Item. Downward lands after the item that sat at
		// dst.Item, which is dst.Item once the source is gone.
		if dst.Item > dstLen-1 {
			return snapshot.Location{Section: dst.Section, Item: dstLen - 1}
		}
		return dst
	case dst.Section < src.Section || dst.Item == dstLen:
		return dst
	default:
		return snapshot.Location{Section: dst.Section, Item: dst.Item + 1}
	}
}
