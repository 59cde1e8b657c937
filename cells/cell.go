package cells

import (
	"fmt"
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// Kind says how a cell gets its value.
type Kind int

const (
	// KindInput cells hold externally written values.
	KindInput Kind = iota
	// KindFormula cells derive their value by re-running a formula over other
	// cells. Read-only from outside.
	KindFormula
	// KindLens cells are formula cells with a write handler: reads stay
	// derived, writes are redirected to the handler.
	KindLens
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindFormula:
		return "formula"
	case KindLens:
		return "lens"
	default:
		return "unknown"
	}
}

// FormulaFunc is a side-effect-free thunk that reads zero or more cells via
// Value and returns the cell's next value.
type FormulaFunc func() (any, error)

// WriteFunc redirects a write targeting a lens. It typically writes to the
// lens's sources, wrapping multiple writes in a transaction itself.
type WriteFunc func(next any) error

// Cell is a node in the dataflow graph. Edges are non-owning and always
// maintained as reciprocal pairs: b is in a.sinks exactly when a is in
// b.sources. The graph must stay acyclic for propagation to terminate.
type Cell struct {
	rt   *Runtime
	kind Kind

	value        any
	formula      FormulaFunc
	writeHandler WriteFunc

	// Cells this cell's formula read on its last evaluation. Always empty for
	// inputs. Re-derived on every evaluation, so dependencies may shift run to
	// run.
	sources mapset.Set[*Cell]
	// Cells whose formulas currently read this cell.
	sinks mapset.Set[*Cell]

	observers  map[uint64]Listener
	observerID uint64

	alive bool
}

func newCell(rt *Runtime, kind Kind) *Cell {
	return &Cell{
		rt:        rt,
		kind:      kind,
		sources:   mapset.NewSet[*Cell](),
		sinks:     mapset.NewSet[*Cell](),
		observers: map[uint64]Listener{},
		alive:     true,
	}
}

// Input creates a cell holding an externally supplied value.
func Input(rt *Runtime, initial any) *Cell {
	c := newCell(rt, KindInput)
	c.value = initial
	return c
}

// Formula creates a derived cell. The formula runs once immediately inside a
// tracking scope to seed the value and discover sources; errors from that
// first run surface here and the cell is not created.
func Formula(rt *Runtime, fn FormulaFunc) (*Cell, error) {
	c := newCell(rt, KindFormula)
	c.formula = fn
	if _, err := rt.evaluate(c); err != nil {
		c.Destroy()
		return nil, fmt.Errorf("initial evaluation: %w", err)
	}
	return c, nil
}

// Kind reports how the cell gets its value.
func (c *Cell) Kind() Kind { return c.kind }

// Alive reports whether the cell is still attached to the graph.
func (c *Cell) Alive() bool { return c.alive }

// Value returns the cell's current value. Called during another cell's formula
// evaluation it also registers this cell as a dependency of the evaluating
// cell. Reading a destroyed cell succeeds, returns the last held value, and
// registers nothing.
func (c *Cell) Value() any {
	if frame := c.rt.currentFrame(); frame != nil && c.alive && frame.cell != c {
		frame.reads.Add(c)
		c.sinks.Add(frame.cell)
	}
	return c.value
}

// SetValue writes a new value. Plain formula cells reject the write with
// ErrReadOnlyCell. Lens writes delegate to the write handler. Input writes
// apply immediately; outside a transaction they also trigger a propagation
// pass, inside one they are logged for the commit.
func (c *Cell) SetValue(next any) error {
	switch c.kind {
	case KindFormula:
		return ErrReadOnlyCell
	case KindLens:
		if !c.alive {
			return ErrCellDestroyed
		}
		if err := c.writeHandler(next); err != nil {
			return fmt.Errorf("lens write: %w", err)
		}
		return nil
	}

	if !c.alive {
		return ErrCellDestroyed
	}
	rt := c.rt
	if rt.txDepth > 0 {
		if rt.pending.Add(c) {
			rt.txPrior[c] = c.value
		}
		c.value = next
		return nil
	}
	if reflect.DeepEqual(c.value, next) {
		return nil
	}
	prior := c.value
	c.value = next
	return rt.propagate(map[*Cell]any{c: prior})
}

// ToInput converts the cell in place to an input holding v, detaching it from
// its sources. Dependents keep their edges and see the new value like any
// other write.
func (c *Cell) ToInput(v any) error {
	if !c.alive {
		return ErrCellDestroyed
	}
	if c.kind != KindInput {
		c.detachSources()
		c.formula = nil
		c.writeHandler = nil
		c.kind = KindInput
	}
	return c.SetValue(v)
}

// ToFormula converts the cell in place to a formula cell, re-evaluating it
// immediately and propagating to dependents if the value changed.
func (c *Cell) ToFormula(fn FormulaFunc) error {
	if !c.alive {
		return ErrCellDestroyed
	}
	c.detachSources()
	c.writeHandler = nil
	c.kind = KindFormula
	c.formula = fn

	rt := c.rt
	if rt.txDepth > 0 {
		if rt.pending.Add(c) {
			rt.txPrior[c] = c.value
		}
		_, err := rt.evaluate(c)
		if err != nil {
			return fmt.Errorf("retype evaluation: %w", err)
		}
		return nil
	}
	prior := c.value
	changed, err := rt.evaluate(c)
	if err != nil {
		return fmt.Errorf("retype evaluation: %w", err)
	}
	if !changed {
		return nil
	}
	return rt.propagate(map[*Cell]any{c: prior})
}

// Destroy removes the cell from every neighbor's edge sets and revokes its
// observers. The cell becomes inert: its value stays readable forever but no
// further update will reach it or leave it. Required for reclaiming any
// connected component, since the reciprocal edges otherwise keep every member
// reachable. Idempotent.
func (c *Cell) Destroy() {
	if !c.alive {
		return
	}
	c.detachSources()
	for _, sink := range c.sinks.ToSlice() {
		sink.sources.Remove(c)
	}
	c.sinks.Clear()
	c.observers = map[uint64]Listener{}
	c.formula = nil
	c.writeHandler = nil
	c.alive = false
	c.rt.pending.Remove(c)
	delete(c.rt.txPrior, c)
}

func (c *Cell) detachSources() {
	for _, src := range c.sources.ToSlice() {
		src.sinks.Remove(c)
	}
	c.sources.Clear()
}
