// Package diff computes the edit script that turns one snapshot's visible
// structure into another's.
//
// # Algorithm
//
// Sections are diffed first by key. Keys only in the old snapshot are removed,
// keys only in the new one are inserted, and the surviving keys are reordered
// by moving every section outside one longest increasing subsequence of their
// new positions.
//
// Items are then diffed over what is materialized (collapsed sections contribute
// nothing). An item visible in both snapshots is never removed and re-inserted:
// it stays put when it belongs to the longest increasing run of its section and
// is moved otherwise, including across sections. Items whose old section was
// removed are inserted at their destination.
//
// Both passes run in O(n log n): the subsequence uses patience sorting and the
// indices of moves and inserts are tracked with Fenwick trees.
//
// # Index semantics
//
// Ops are sequential. Each index is valid against the state produced by the ops
// before it, in this order:
//
//  1. RemoveSection, descending old index
//  2. MoveSection and InsertSection, ascending final index
//  3. RemoveItem, descending index within each section
//  4. MoveItem and InsertItem, ascending final section then final index
//
// A move removes the element at its source and then inserts it at its target,
// where the target is interpreted after the removal. Expansion changes are
// reported separately and address final section indices.
package diff
