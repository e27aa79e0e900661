package diff

import (
	"collection-engine/core/errs"
	"collection-engine/core/snapshot"
)

type visibleLoc struct {
	section int
	item    int
}

// Diff computes the edit script from old to next. A nil snapshot is treated
// as empty. Diffing a snapshot against itself yields an empty script.
func Diff[K comparable, T any](old, next *snapshot.Snapshot[K, T]) (Script[K], error) {
	var script Script[K]

	oldKeys := old.SectionKeys()
	newKeys := next.SectionKeys()

	newSection := make(map[K]int, len(newKeys))
	for i, k := range newKeys {
		if _, dup := newSection[k]; dup {
			return Script[K]{}, &errs.DuplicateKeyError{Scope: "section", Key: k}
		}
		newSection[k] = i
	}

	if _, err := visibleIndex(old); err != nil {
		return Script[K]{}, err
	}
	newVisible, err := visibleIndex(next)
	if err != nil {
		return Script[K]{}, err
	}

	// Sections: removals first, descending.
	survivors := make([]K, 0, len(oldKeys))
	survivorTargets := make([]int, 0, len(oldKeys))
	for i := len(oldKeys) - 1; i >= 0; i-- {
		if _, ok := newSection[oldKeys[i]]; !ok {
			script.Ops = append(script.Ops, Op[K]{Kind: RemoveSection, Key: oldKeys[i], Section: i})
		}
	}
	for _, k := range oldKeys {
		if j, ok := newSection[k]; ok {
			survivors = append(survivors, k)
			survivorTargets = append(survivorTargets, j)
		}
	}

	stableSections := make(map[K]struct{}, len(survivors))
	for i, keep := range longestIncreasing(survivorTargets) {
		if keep {
			stableSections[survivors[i]] = struct{}{}
		}
	}

	newPlacer([][]K{survivors}, [][]K{newKeys}, stableSections).run(
		func(k K, _, from, _, to int) {
			script.Ops = append(script.Ops, Op[K]{Kind: MoveSection, Key: k, Section: from, ToSection: to})
		},
		func(k K, _, at int) {
			script.Ops = append(script.Ops, Op[K]{Kind: InsertSection, Key: k, Section: at})
		},
	)

	// Sections are now in final order. Remove items that stop being
	// materialized, descending within each surviving section.
	initial := make([][]K, len(newKeys))
	target := make([][]K, len(newKeys))
	stableItems := make(map[K]struct{})

	for j := len(newKeys) - 1; j >= 0; j-- {
		oi, ok := old.SectionIndex(newKeys[j])
		if !ok {
			continue
		}
		vis := old.Visible(oi)
		for idx := len(vis) - 1; idx >= 0; idx-- {
			if _, still := newVisible[vis[idx].Key]; !still {
				script.Ops = append(script.Ops, Op[K]{Kind: RemoveItem, Key: vis[idx].Key, Section: j, Item: idx})
			}
		}
	}

	for j, sk := range newKeys {
		for _, it := range next.Visible(j) {
			target[j] = append(target[j], it.Key)
		}

		oi, ok := old.SectionIndex(sk)
		if !ok {
			continue
		}
		var stayers []K
		var positions []int
		for _, it := range old.Visible(oi) {
			loc, still := newVisible[it.Key]
			if !still {
				continue
			}
			initial[j] = append(initial[j], it.Key)
			if loc.section == j {
				stayers = append(stayers, it.Key)
				positions = append(positions, loc.item)
			}
		}
		for i, keep := range longestIncreasing(positions) {
			if keep {
				stableItems[stayers[i]] = struct{}{}
			}
		}
	}

	newPlacer(initial, target, stableItems).run(
		func(k K, fromList, from, toList, to int) {
			script.Ops = append(script.Ops, Op[K]{Kind: MoveItem, Key: k, Section: fromList, Item: from, ToSection: toList, ToItem: to})
		},
		func(k K, list, at int) {
			script.Ops = append(script.Ops, Op[K]{Kind: InsertItem, Key: k, Section: list, Item: at})
		},
	)

	// Expansion controls.
	for j, sec := range next.Sections() {
		prev := snapshot.Unspecified
		if oi, ok := old.SectionIndex(sec.Key); ok {
			prev = old.Sections()[oi].Expansion
		}
		if !sec.Expansion.Expandable() {
			if prev.Expandable() {
				script.Expansion = append(script.Expansion, ExpansionChange[K]{Section: j, Key: sec.Key, Removed: true})
			}
			continue
		}
		if prev != sec.Expansion {
			script.Expansion = append(script.Expansion, ExpansionChange[K]{
				Section:  j,
				Key:      sec.Key,
				Expanded: sec.Expansion == snapshot.Expanded,
			})
		}
	}

	return script, nil
}

// visibleIndex maps every materialized item key to its location.
func visibleIndex[K comparable, T any](s *snapshot.Snapshot[K, T]) (map[K]visibleLoc, error) {
	index := make(map[K]visibleLoc, s.ItemCount())
	for si := 0; si < s.Len(); si++ {
		for ii, it := range s.Visible(si) {
			if _, dup := index[it.Key]; dup {
				return nil, &errs.DuplicateKeyError{Scope: "item", Key: it.Key}
			}
			index[it.Key] = visibleLoc{section: si, item: ii}
		}
	}
	return index, nil
}
