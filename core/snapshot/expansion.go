package snapshot

import (
	"fmt"
	"strings"
)

// ExpansionState controls whether a section's items are materialized.
type ExpansionState int

const (
	// Unspecified defers to the default for the section. It never appears
	// in a built snapshot.
	Unspecified ExpansionState = iota
	// NotExpandable flattens the section: items are always visible.
	NotExpandable
	// Expanded shows the section's items behind a collapse control.
	Expanded
	// Collapsed hides the section's items.
	Collapsed
)

func (s ExpansionState) String() string {
	switch s {
	case NotExpandable:
		return "none"
	case Expanded:
		return "expanded"
	case Collapsed:
		return "collapsed"
	default:
		return ""
	}
}

// Expandable reports whether the section has a collapse control.
func (s ExpansionState) Expandable() bool {
	return s == Expanded || s == Collapsed
}

// ParseExpansion parses the text form used by documents and configuration.
// The empty string parses as Unspecified.
func ParseExpansion(s string) (ExpansionState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Unspecified, nil
	case "none", "flat", "not_expandable":
		return NotExpandable, nil
	case "expanded", "open":
		return Expanded, nil
	case "collapsed", "closed":
		return Collapsed, nil
	default:
		return Unspecified, fmt.Errorf("unknown expansion state %q", s)
	}
}

// Fixed returns a defaults function that yields state for every section.
func Fixed(state ExpansionState) func(int) ExpansionState {
	return func(int) ExpansionState { return state }
}
