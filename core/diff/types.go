package diff

// OpKind represents the type of a primitive edit.
type OpKind string

const (
	// InsertSection inserts an empty section at Section.
	InsertSection OpKind = "insert_section"
	// RemoveSection removes the section at Section with all of its items.
	RemoveSection OpKind = "remove_section"
	// MoveSection moves the section at Section to ToSection.
	MoveSection OpKind = "move_section"
	// InsertItem inserts Key at Section/Item.
	InsertItem OpKind = "insert_item"
	// RemoveItem removes the item at Section/Item.
	RemoveItem OpKind = "remove_item"
	// MoveItem moves the item at Section/Item to ToSection/ToItem.
	MoveItem OpKind = "move_item"
)

// Op is one primitive edit.
type Op[K comparable] struct {
	// Kind specifies the edit to perform.
	Kind OpKind `json:"kind"`

	// Key is the section key for section ops and the item key for item ops.
	Key K `json:"key"`

	// Section is the target section for inserts and the source for removes
	// and moves.
	Section int `json:"section"`

	// Item is the item index within Section. Unused by section ops.
	Item int `json:"item"`

	// ToSection is the destination section of a move.
	ToSection int `json:"to_section,omitempty"`

	// ToItem is the destination item index of an item move.
	ToItem int `json:"to_item,omitempty"`
}

// ExpansionChange reports a section whose collapse control changed state.
// Removed is set when a section that had a control became NotExpandable;
// Expanded is meaningless then.
type ExpansionChange[K comparable] struct {
	Section  int  `json:"section"`
	Key      K    `json:"key"`
	Expanded bool `json:"expanded"`
	Removed  bool `json:"removed,omitempty"`
}

// Script is an ordered edit script.
type Script[K comparable] struct {
	// Ops contains the edits in application order.
	Ops []Op[K] `json:"ops"`

	// Expansion contains the expansion changes, applied after Ops.
	Expansion []ExpansionChange[K] `json:"expansion"`
}

// Empty reports whether the script changes nothing.
func (s Script[K]) Empty() bool {
	return len(s.Ops) == 0 && len(s.Expansion) == 0
}

// Count returns the number of ops of the given kind.
func (s Script[K]) Count(kind OpKind) int {
	n := 0
	for _, op := range s.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Summary provides aggregate counts for a script.
type Summary struct {
	SectionInserts   int `json:"section_inserts"`
	SectionRemoves   int `json:"section_removes"`
	SectionMoves     int `json:"section_moves"`
	ItemInserts      int `json:"item_inserts"`
	ItemRemoves      int `json:"item_removes"`
	ItemMoves        int `json:"item_moves"`
	ExpansionChanges int `json:"expansion_changes"`
}

// Summary counts the ops of the script by kind.
func (s Script[K]) Summary() Summary {
	var sum Summary
	for _, op := range s.Ops {
		switch op.Kind {
		case InsertSection:
			sum.SectionInserts++
		case RemoveSection:
			sum.SectionRemoves++
		case MoveSection:
			sum.SectionMoves++
		case InsertItem:
			sum.ItemInserts++
		case RemoveItem:
			sum.ItemRemoves++
		case MoveItem:
			sum.ItemMoves++
		}
	}
	sum.ExpansionChanges = len(s.Expansion)
	return sum
}

// Total returns the number of ops plus expansion changes.
func (s Summary) Total() int {
	return s.SectionInserts + s.SectionRemoves + s.SectionMoves +
		s.ItemInserts + s.ItemRemoves + s.ItemMoves + s.ExpansionChanges
}
