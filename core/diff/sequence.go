package diff

import "sort"

// longestIncreasing marks one longest strictly increasing subsequence of seq.
func longestIncreasing(seq []int) []bool {
	mask := make([]bool, len(seq))
	if len(seq) == 0 {
		return mask
	}

	tails := make([]int, 0, len(seq))
	prev := make([]int, len(seq))
	for i, v := range seq {
		j := sort.Search(len(tails), func(k int) bool { return seq[tails[k]] >= v })
		prev[i] = -1
		if j > 0 {
			prev[i] = tails[j-1]
		}
		if j == len(tails) {
			tails = append(tails, i)
		} else {
			tails[j] = i
		}
	}

	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		mask[i] = true
	}
	return mask
}

// fenwick counts present slots; prefix(i) is the number present in [0,i).
type fenwick struct {
	tree []int
}

func newFenwick(n int) *fenwick {
	return &fenwick{tree: make([]int, n+1)}
}

func (f *fenwick) add(i, delta int) {
	for j := i + 1; j < len(f.tree); j += j & -j {
		f.tree[j] += delta
	}
}

func (f *fenwick) prefix(i int) int {
	sum := 0
	for j := i; j > 0; j -= j & -j {
		sum += f.tree[j]
	}
	return sum
}

type slot struct {
	list int
	rank int
}

type placeList[K comparable] struct {
	target   []K
	incoming map[K]int
	present  *fenwick
}

// placer turns a set of lists into their targets with moves and inserts.
//
// Every list is laid out over a fixed rank space holding its current elements
// and the slots its incoming elements will take. An incoming element's slot sits
// right after its predecessor in the target order and before any element that
// is still waiting to leave, so stable elements never need to move. Present
// slots are counted with a Fenwick tree, which turns a rank into the current
// sequential index in O(log n).
type placer[K comparable] struct {
	lists   []placeList[K]
	current map[K]slot
	stable  map[K]struct{}
}

// newPlacer prepares the placement of initial into target. Keys in stable must
// sit in the same list in both and keep their relative order. Every key of
// initial must appear in some target list.
func newPlacer[K comparable](initial, target [][]K, stable map[K]struct{}) *placer[K] {
	p := &placer[K]{
		lists:   make([]placeList[K], len(target)),
		current: make(map[K]slot),
		stable:  stable,
	}

	for l, tgt := range target {
		var init []K
		if l < len(initial) {
			init = initial[l]
		}
		pl := placeList[K]{
			target:   tgt,
			incoming: make(map[K]int),
			present:  newFenwick(len(init) + len(tgt)),
		}

		rank, pos := 0, 0
		keep := func(k K) {
			p.current[k] = slot{list: l, rank: rank}
			pl.present.add(rank, 1)
			rank++
		}
		for _, k := range tgt {
			if _, ok := stable[k]; ok {
				for pos < len(init) && init[pos] != k {
					keep(init[pos])
					pos++
				}
				keep(k)
				pos++
				continue
			}
			pl.incoming[k] = rank
			rank++
		}
		for ; pos < len(init); pos++ {
			keep(init[pos])
		}

		p.lists[l] = pl
	}
	return p
}

// run walks every target slot in order and reports the op that fills it.
func (p *placer[K]) run(move func(k K, fromList, from, toList, to int), insert func(k K, list, at int)) {
	for l := range p.lists {
		dst := &p.lists[l]
		for _, k := range dst.target {
			if _, ok := p.stable[k]; ok {
				continue
			}
			r := dst.incoming[k]
			if cur, ok := p.current[k]; ok {
				src := p.lists[cur.list].present
				from := src.prefix(cur.rank)
				src.add(cur.rank, -1)
				delete(p.current, k)

				to := dst.present.prefix(r)
				dst.present.add(r, 1)
				move(k, cur.list, from, l, to)
				continue
			}
			at := dst.present.prefix(r)
			dst.present.add(r, 1)
			insert(k, l, at)
		}
	}
}
