package diff

import (
	"fmt"

	"collection-engine/core/errs"
)

// Simulate applies the script to a shape (the visible item count of every
// section) and returns the resulting shape. The input is not modified. The
// first op that addresses a missing section or item stops the simulation with
// an *errs.IndexOutOfRangeError.
func (s Script[K]) Simulate(shape []int) ([]int, error) {
	counts := make([]int, len(shape))
	copy(counts, shape)

	for n, op := range s.Ops {
		name := fmt.Sprintf("diff.%s[%d]", op.Kind, n)
		switch op.Kind {
		case InsertSection:
			if op.Section < 0 || op.Section > len(counts) {
				return nil, &errs.IndexOutOfRangeError{Op: name, Section: op.Section, Item: -1, Limit: len(counts) + 1}
			}
			counts = insertAt(counts, op.Section, 0)

		case RemoveSection:
			if err := checkSection(name, counts, op.Section); err != nil {
				return nil, err
			}
			counts = removeAt(counts, op.Section)

		case MoveSection:
			if err := checkSection(name, counts, op.Section); err != nil {
				return nil, err
			}
			moved := counts[op.Section]
			counts = removeAt(counts, op.Section)
			if op.ToSection < 0 || op.ToSection > len(counts) {
				return nil, &errs.IndexOutOfRangeError{Op: name, Section: op.ToSection, Item: -1, Limit: len(counts) + 1}
			}
			counts = insertAt(counts, op.ToSection, moved)

		case InsertItem:
			if err := checkSection(name, counts, op.Section); err != nil {
				return nil, err
			}
			if op.Item < 0 || op.Item > counts[op.Section] {
				return nil, &errs.IndexOutOfRangeError{Op: name, Section: op.Section, Item: op.Item, Limit: counts[op.Section] + 1}
			}
			counts[op.Section]++

		case RemoveItem:
			if err := checkItem(name, counts, op.Section, op.Item); err != nil {
				return nil, err
			}
			counts[op.Section]--

		case MoveItem:
			if err := checkItem(name, counts, op.Section, op.Item); err != nil {
				return nil, err
			}
			counts[op.Section]--
			if err := checkSection(name, counts, op.ToSection); err != nil {
				return nil, err
			}
			if op.ToItem < 0 || op.ToItem > counts[op.ToSection] {
				return nil, &errs.IndexOutOfRangeError{Op: name, Section: op.ToSection, Item: op.ToItem, Limit: counts[op.ToSection] + 1}
			}
			counts[op.ToSection]++

		default:
			return nil, &errs.InvalidStateError{Op: name, Reason: fmt.Sprintf("unknown op kind %q", op.Kind)}
		}
	}

	for _, ch := range s.Expansion {
		if err := checkSection("diff.expansion", counts, ch.Section); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// Validate reports whether the script can be applied to shape without
// addressing anything that does not exist.
func (s Script[K]) Validate(shape []int) error {
	_, err := s.Simulate(shape)
	return err
}

// Replay applies the script to sections of item keys and returns the result.
// sectionKeys names the sections of state. The inputs are not modified.
func (s Script[K]) Replay(sectionKeys []K, state [][]K) ([]K, [][]K, error) {
	shape := make([]int, len(state))
	for i, sec := range state {
		shape[i] = len(sec)
	}
	if err := s.Validate(shape); err != nil {
		return nil, nil, err
	}

	keys := append([]K(nil), sectionKeys...)
	sections := make([][]K, len(state))
	for i, sec := range state {
		sections[i] = append([]K(nil), sec...)
	}

	for _, op := range s.Ops {
		switch op.Kind {
		case InsertSection:
			keys = insertAt(keys, op.Section, op.Key)
			sections = insertAt(sections, op.Section, nil)
		case RemoveSection:
			keys = removeAt(keys, op.Section)
			sections = removeAt(sections, op.Section)
		case MoveSection:
			k, sec := keys[op.Section], sections[op.Section]
			keys = insertAt(removeAt(keys, op.Section), op.ToSection, k)
			sections = insertAt(removeAt(sections, op.Section), op.ToSection, sec)
		case InsertItem:
			sections[op.Section] = insertAt(sections[op.Section], op.Item, op.Key)
		case RemoveItem:
			sections[op.Section] = removeAt(sections[op.Section], op.Item)
		case MoveItem:
			k := sections[op.Section][op.Item]
			sections[op.Section] = removeAt(sections[op.Section], op.Item)
			sections[op.ToSection] = insertAt(sections[op.ToSection], op.ToItem, k)
		}
	}
	return keys, sections, nil
}

func checkSection(op string, counts []int, section int) error {
	if section < 0 || section >= len(counts) {
		return &errs.IndexOutOfRangeError{Op: op, Section: section, Item: -1, Limit: len(counts)}
	}
	return nil
}

func checkItem(op string, counts []int, section, item int) error {
	if err := checkSection(op, counts, section); err != nil {
		return err
	}
	if item < 0 || item >= counts[section] {
		return &errs.IndexOutOfRangeError{Op: op, Section: section, Item: item, Limit: counts[section]}
	}
	return nil
}

func insertAt[E any](s []E, i int, v E) []E {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt[E any](s []E, i int) []E {
	out := make([]E, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
