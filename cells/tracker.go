package cells

import (
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// evaluate runs c's formula inside a fresh tracking frame and reconciles the
// graph with what the run actually read: sources no longer read lose their
// sink edge, newly read ones gained theirs already during Value. The result
// is stored only when it differs from the previous value under structural
// equality; the returned flag is what gates both further propagation and
// observer notification.
//
// On a formula error the cell keeps its previous value and its previous source
// set; sink edges added for sources it had not depended on before are rolled
// back so the reciprocal invariant holds.
func (rt *Runtime) evaluate(c *Cell) (changed bool, err error) {
	frame := &evalFrame{cell: c, reads: mapset.NewSet[*Cell]()}
	rt.evalStack = append(rt.evalStack, frame)
	next, err := c.formula()
	rt.evalStack = rt.evalStack[:len(rt.evalStack)-1]

	if err != nil {
		for _, read := range frame.reads.ToSlice() {
			if !c.sources.Contains(read) {
				read.sinks.Remove(c)
			}
		}
		return false, err
	}

	for _, old := range c.sources.ToSlice() {
		if !frame.reads.Contains(old) {
			old.sinks.Remove(c)
		}
	}
	c.sources = frame.reads

	if reflect.DeepEqual(c.value, next) {
		return false, nil
	}
	c.value = next
	return true, nil
}
