// Package combine provides combinators built purely on the cells primitives:
// no access to runtime internals, just Input/Formula/Subscribe/Destroy.
package combine

import (
	"reflect"
	"sort"

	"github.com/delaneyj/cellparty/cells"
)

// Changed returns a formula cell whose value is the sorted names of the member
// cells whose values differ from the previous settle. The first evaluation
// reports no names. The value is always a non-nil []string.
func Changed(rt *cells.Runtime, members map[string]*cells.Cell) (*cells.Cell, error) {
	prev := make(map[string]any, len(members))
	first := true
	return cells.Formula(rt, func() (any, error) {
		names := []string{}
		for name, m := range members {
			v := m.Value()
			if !first && !reflect.DeepEqual(prev[name], v) {
				names = append(names, name)
			}
			prev[name] = v
		}
		first = false
		sort.Strings(names)
		return names, nil
	})
}
