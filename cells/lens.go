package cells

import "fmt"

// Lens attaches a write handler to an existing formula cell and returns it.
// The cell keeps its derived read semantics; writes go through the handler
// instead, and the presented value after a write is whatever the formula then
// recomputes to, which need not equal what was written. A handler that fans
// one write out into several underlying input writes should wrap them in
// RunTransaction so they settle atomically.
func Lens(c *Cell, write WriteFunc) (*Cell, error) {
	if !c.alive {
		return nil, ErrCellDestroyed
	}
	if c.kind != KindFormula {
		return nil, fmt.Errorf("cells: lens requires a formula cell, got %s", c.kind)
	}
	c.kind = KindLens
	c.writeHandler = write
	return c, nil
}
