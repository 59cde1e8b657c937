package combine

import "github.com/delaneyj/cellparty/cells"

// ForEach runs fn once for every element of the []any held by seq, then again
// whenever an element's value changes. Elements gained by growth run fn with
// their initial value; elements lost to shrinkage stop firing. The returned
// stop function tears down all per-element machinery.
func ForEach(rt *cells.Runtime, seq *cells.Cell, fn func(i int, v any)) (func(), error) {
	var elems []*cells.Cell

	ctl, err := cells.Formula(rt, func() (any, error) {
		s := seq.Value().([]any)
		for len(elems) > len(s) {
			last := len(elems) - 1
			elems[last].Destroy()
			elems = elems[:last]
		}
		for len(elems) < len(s) {
			i := len(elems)
			e, err := cells.Formula(rt, func() (any, error) {
				cur := seq.Value().([]any)
				if i >= len(cur) {
					return nil, nil
				}
				return cur[i], nil
			})
			if err != nil {
				return nil, err
			}
			if _, err := e.Subscribe(func(_, newValue any) {
				fn(i, newValue)
			}); err != nil {
				return nil, err
			}
			fn(i, s[i])
			elems = append(elems, e)
		}
		return len(s), nil
	})
	if err != nil {
		return nil, err
	}

	return func() {
		ctl.Destroy()
		for _, e := range elems {
			e.Destroy()
		}
		elems = nil
	}, nil
}
