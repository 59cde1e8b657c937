package combine

import "github.com/delaneyj/cellparty/cells"

// MapEach returns a formula cell whose value is fn applied elementwise to the
// []any held by seq. Each element gets its own formula cell, so fn reruns only
// while that index exists; cells are created and destroyed incrementally as
// the slice grows and shrinks.
func MapEach(rt *cells.Runtime, seq *cells.Cell, fn func(v any) (any, error)) (*cells.Cell, error) {
	var elems []*cells.Cell

	elemAt := func(i int) (*cells.Cell, error) {
		return cells.Formula(rt, func() (any, error) {
			s := seq.Value().([]any)
			// The slice shrank under this index; the next settle of the
			// aggregate destroys this cell.
			if i >= len(s) {
				return nil, nil
			}
			return fn(s[i])
		})
	}

	return cells.Formula(rt, func() (any, error) {
		s := seq.Value().([]any)
		for len(elems) > len(s) {
			last := len(elems) - 1
			elems[last].Destroy()
			elems = elems[:last]
		}
		for len(elems) < len(s) {
			e, err := elemAt(len(elems))
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = e.Value()
		}
		return out, nil
	})
}
