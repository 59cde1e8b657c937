package cells

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Runtime owns a single cell graph. All cells created against a runtime share
// its tracking stack and its transaction state, so a formula in one runtime can
// never accidentally depend on a cell from another.
type Runtime struct {
	// Stack of in-flight evaluations. The top frame is the cell whose formula
	// is currently running; reads of other cells register against it. It's a
	// stack rather than a single slot because recomputation cascades nest
	// (creating a formula cell inside another formula's body, for example).
	evalStack []*evalFrame

	// Transaction nesting depth. Writes propagate immediately at depth 0 and
	// accumulate in pending otherwise.
	txDepth int
	// Input cells written since the outermost transaction began. Deduplicated;
	// a cell written five times shows up once.
	pending mapset.Set[*Cell]
	// Value each pending cell held before its first write in the transaction,
	// so commit can tell real changes from a-b-a writes.
	txPrior map[*Cell]any
}

type evalFrame struct {
	cell  *Cell
	reads mapset.Set[*Cell]
}

func NewRuntime() *Runtime {
	return &Runtime{
		pending: mapset.NewSet[*Cell](),
		txPrior: map[*Cell]any{},
	}
}

func (rt *Runtime) currentFrame() *evalFrame {
	if len(rt.evalStack) == 0 {
		return nil
	}
	return rt.evalStack[len(rt.evalStack)-1]
}
