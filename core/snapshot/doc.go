// Package snapshot provides the immutable, sectioned representation of a
// collection at one point in time.
//
// A Snapshot is an ordered list of sections. Each section is identified by a key,
// holds an ordered list of keyed items and carries an ExpansionState:
//
//   - NotExpandable: the section is flat, every item is materialized.
//   - Expanded: the section can collapse and currently shows its items.
//   - Collapsed: the section can expand and currently shows no items.
//
// Snapshots are never mutated. Build creates one from raw sections, and the
// With*/Move* methods return modified copies.
//
// # Expansion carry-over
//
// Build takes the previous snapshot so that state the user chose survives data
// updates. A section whose key was user-toggled in the previous snapshot keeps
// that state. Every other section gets the caller's default for its index.
// Only explicit toggles are remembered; untouched sections follow the defaults
// even when the defaults change between updates.
//
// Seed creates a sectionless snapshot carrying a toggle history, so persisted
// toggles can be restored when a collection is reopened.
package snapshot
