package reconcile

import "fmt"

// Renderer defines the commands a live collection view must accept.
// Indices follow sequential semantics: each command is valid against the state
// produced by the commands before it.
type Renderer[K comparable] interface {
	// InsertSection inserts an empty section with the given key at index.
	InsertSection(index int, key K)

	// RemoveSection removes the section at index together with its items.
	RemoveSection(index int)

	// MoveSection moves the section at from so that it ends up at to.
	MoveSection(from, to int)

	// InsertItem inserts key at the given section and item index.
	InsertItem(section, item int, key K)

	// RemoveItem removes the item at the given section and item index.
	RemoveItem(section, item int)

	// MoveItem removes the item at fromSection/fromItem and inserts it at
	// toSection/toItem. The destination is addressed after the removal.
	MoveItem(fromSection, fromItem, toSection, toItem int)

	// SetExpansion shows the collapse control of a section in the given state.
	SetExpansion(section int, expanded bool)
}

// BatchRenderer is implemented by renderers that can group many commands into
// one visual update.
type BatchRenderer interface {
	PerformBatch(updates func())
}

// Scroller is implemented by renderers that accept scroll commands.
type Scroller interface {
	ScrollToOffset(p Point)
	ScrollToItem(section, item int, pos ScrollPosition)
}

// ControlRemover is implemented by renderers that can drop a section's
// collapse control once the section is no longer expandable.
type ControlRemover interface {
	RemoveExpansion(section int)
}

// RefreshIndicator is implemented by renderers that display refresh progress.
type RefreshIndicator interface {
	SetRefreshing(refreshing bool)
}

// Point is a content offset.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a content size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ScrollPosition names where a scrolled-to item should land in the viewport.
type ScrollPosition int

const (
	// ScrollNearest scrolls the minimum distance that makes the item visible.
	ScrollNearest ScrollPosition = iota
	ScrollTop
	ScrollCenter
	ScrollBottom
)

func (p ScrollPosition) String() string {
	switch p {
	case ScrollTop:
		return "top"
	case ScrollCenter:
		return "center"
	case ScrollBottom:
		return "bottom"
	default:
		return "nearest"
	}
}

// ParseScrollPosition parses the text form of a ScrollPosition.
func ParseScrollPosition(s string) (ScrollPosition, error) {
	switch s {
	case "", "nearest":
		return ScrollNearest, nil
	case "top":
		return ScrollTop, nil
	case "center":
		return ScrollCenter, nil
	case "bottom":
		return ScrollBottom, nil
	}
	return ScrollNearest, fmt.Errorf("unknown scroll position %q", s)
}
