package cells

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// propagate recomputes every formula cell transitively reachable through sinks
// from the dirtied cells, exactly once each, in dependency order. dirtied maps
// each directly written cell (value already assigned) to the value it held
// before the write.
//
// Glitch-freedom comes from the rank ordering: a cell is ranked strictly after
// every one of its sources inside the affected set, so by the time it
// re-evaluates all of its inputs have settled. A diamond therefore evaluates
// its bottom cell once, after both arms.
func (rt *Runtime) propagate(dirtied map[*Cell]any) error {
	roots := mapset.NewSet[*Cell]()
	for c := range dirtied {
		roots.Add(c)
	}

	affected := collectAffected(roots)
	if affected.Cardinality() == 0 {
		rt.notify(roots.ToSlice(), dirtied)
		return nil
	}

	rank, err := rankAffected(roots, affected)
	if err != nil {
		return err
	}

	order := affected.ToSlice()
	sort.Slice(order, func(i, j int) bool {
		return rank[order[i]] < rank[order[j]]
	})

	changed := roots.Clone()
	prior := make(map[*Cell]any, len(dirtied))
	for c, old := range dirtied {
		prior[c] = old
	}

	for _, c := range order {
		if !c.alive {
			continue
		}
		// A cell none of whose sources changed cannot change either; skipping
		// it here is what keeps a diamond's bottom from running per-edge.
		touched := false
		for _, src := range c.sources.ToSlice() {
			if changed.Contains(src) {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}
		old := c.value
		didChange, err := rt.evaluate(c)
		if err != nil {
			// Abort mid-pass: c keeps its previous value, later ranks stay
			// unevaluated, nobody gets notified.
			return fmt.Errorf("recomputing cell: %w", err)
		}
		if didChange {
			changed.Add(c)
			// A dirtied root re-evaluated here already carries its
			// pre-transaction value in prior; keep that one for listeners.
			if _, ok := prior[c]; !ok {
				prior[c] = old
			}
		}
	}

	rt.notify(changed.ToSlice(), prior)
	return nil
}

// collectAffected walks sinks outward from the roots, gathering every live
// formula cell that could need recomputation. A root only enters the set when
// another root reaches it through sinks: a formula dirtied by a mid-transaction
// retype must re-evaluate against the other roots' final values, while one
// nothing else reaches is already settled.
func collectAffected(roots mapset.Set[*Cell]) mapset.Set[*Cell] {
	affected := mapset.NewSet[*Cell]()
	queue := roots.ToSlice()
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, sink := range c.sinks.ToSlice() {
			if !sink.alive || sink.formula == nil {
				continue
			}
			if affected.Add(sink) {
				queue = append(queue, sink)
			}
		}
	}
	return affected
}

// rankAffected assigns each affected cell its longest-path distance from the
// roots, walking sources depth-first. An on-stack revisit means the affected
// subgraph is cyclic; that check is exact, so well-formed diamonds never trip
// it.
func rankAffected(roots, affected mapset.Set[*Cell]) (map[*Cell]int, error) {
	rank := make(map[*Cell]int, affected.Cardinality())
	// Roots inside the affected set get ranked by their sources like any other
	// affected cell; pre-seeding them would let them run before what they read.
	for _, c := range roots.ToSlice() {
		if !affected.Contains(c) {
			rank[c] = 0
		}
	}
	onStack := map[*Cell]bool{}

	var walk func(c *Cell) (int, error)
	walk = func(c *Cell) (int, error) {
		if r, ok := rank[c]; ok {
			return r, nil
		}
		if onStack[c] {
			return 0, ErrCyclicDependency
		}
		onStack[c] = true
		defer delete(onStack, c)

		r := 0
		for _, src := range c.sources.ToSlice() {
			if !affected.Contains(src) && !roots.Contains(src) {
				continue
			}
			sr, err := walk(src)
			if err != nil {
				return 0, err
			}
			if sr+1 > r {
				r = sr + 1
			}
		}
		rank[c] = r
		return r, nil
	}

	for _, c := range affected.ToSlice() {
		if _, err := walk(c); err != nil {
			return nil, err
		}
	}
	return rank, nil
}
