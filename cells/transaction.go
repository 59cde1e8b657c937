package cells

import (
	"fmt"
	"reflect"
)

// StartTransaction suspends propagation until the matching EndTransaction.
// Input writes inside the transaction still assign immediately, so reads
// anywhere see new values right away; only the recomputation of dependents is
// deferred. Transactions nest transparently.
func (rt *Runtime) StartTransaction() {
	rt.txDepth++
}

// EndTransaction closes the innermost transaction. Closing the outermost one
// runs a single propagation pass over every cell dirtied since it began, with
// only final values mattering; a cell written back to its starting value under
// structural equality is treated as untouched. Calling it with no transaction
// open returns ErrNoActiveTransaction.
func (rt *Runtime) EndTransaction() error {
	if rt.txDepth == 0 {
		return ErrNoActiveTransaction
	}
	rt.txDepth--
	if rt.txDepth > 0 {
		return nil
	}

	dirtied := map[*Cell]any{}
	for _, c := range rt.pending.ToSlice() {
		prior := rt.txPrior[c]
		if !reflect.DeepEqual(prior, c.value) {
			dirtied[c] = prior
		}
	}
	rt.pending.Clear()
	rt.txPrior = map[*Cell]any{}

	if len(dirtied) == 0 {
		return nil
	}
	return rt.propagate(dirtied)
}

// RunTransaction runs body inside a transaction, committing exactly once at
// the outermost level. If body errors, writes it already applied stay applied
// but no propagation runs and the pending log is discarded; there is no
// rollback.
func (rt *Runtime) RunTransaction(body func() error) error {
	rt.StartTransaction()
	if err := body(); err != nil {
		rt.txDepth--
		if rt.txDepth <= 0 {
			rt.txDepth = 0
			rt.pending.Clear()
			rt.txPrior = map[*Cell]any{}
		}
		return fmt.Errorf("transaction body: %w", err)
	}
	return rt.EndTransaction()
}
