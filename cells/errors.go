package cells

import "errors"

var (
	// ErrReadOnlyCell is returned when a write targets a plain formula cell.
	// Only the scheduler may change a formula cell's value; lenses redirect
	// writes instead of rejecting them.
	ErrReadOnlyCell = errors.New("cells: formula cell is read-only")

	// ErrCellDestroyed is returned when a write or subscription targets a
	// destroyed cell. Reads of destroyed cells still succeed and return the
	// last held value.
	ErrCellDestroyed = errors.New("cells: cell has been destroyed")

	// ErrCyclicDependency is returned when a propagation pass finds a cycle in
	// the affected subgraph while ranking it. The check never fires on acyclic
	// shapes, diamonds included.
	ErrCyclicDependency = errors.New("cells: cyclic dependency")

	// ErrNoActiveTransaction is returned by EndTransaction when no transaction
	// is open, surfacing a lost StartTransaction pairing.
	ErrNoActiveTransaction = errors.New("cells: no active transaction")
)
