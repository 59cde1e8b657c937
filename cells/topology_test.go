package cells_test

import (
	"testing"

	"github.com/delaneyj/cellparty/cells"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In this scenario "D" should only update once when "A" receives an update,
// and must see both arms post-update. This is the classic "diamond" scenario.
//
//	    A
//	  /   \
//	 B     C
//	  \   /
//	    D
func TestDiamondUpdatesOnce(t *testing.T) {
	rt := cells.NewRuntime()
	a := cells.Input(rt, 1)
	b, err := cells.Formula(rt, func() (any, error) {
		return a.Value().(int) + 1, nil
	})
	require.NoError(t, err)
	c, err := cells.Formula(rt, func() (any, error) {
		return a.Value().(int) * 10, nil
	})
	require.NoError(t, err)

	dEvals := 0
	type pair struct{ b, c int }
	var seen []pair
	d, err := cells.Formula(rt, func() (any, error) {
		dEvals++
		p := pair{b.Value().(int), c.Value().(int)}
		seen = append(seen, p)
		return p.b + p.c, nil
	})
	require.NoError(t, err)

	require.Equal(t, 12, d.Value())
	require.Equal(t, 1, dEvals)

	require.NoError(t, a.SetValue(2))
	assert.Equal(t, 23, d.Value())
	assert.Equal(t, 2, dEvals)
	// Never a mix of old B with new C or vice versa.
	assert.Equal(t, []pair{{2, 10}, {3, 20}}, seen)
}

//	    A
//	  / |
//	 B  | <- Looks like a flag doesn't it? :D
//	  \ |
//	    C
//	    |
//	    D
func TestFlagShapeUpdatesOnce(t *testing.T) {
	rt := cells.NewRuntime()
	a := cells.Input(rt, 2)
	b, err := cells.Formula(rt, func() (any, error) {
		return a.Value().(int) - 1, nil
	})
	require.NoError(t, err)
	c, err := cells.Formula(rt, func() (any, error) {
		return a.Value().(int) + b.Value().(int), nil
	})
	require.NoError(t, err)

	dEvals := 0
	d, err := cells.Formula(rt, func() (any, error) {
		dEvals++
		return c.Value().(int) * 100, nil
	})
	require.NoError(t, err)

	require.Equal(t, 300, d.Value())
	require.Equal(t, 1, dEvals)

	require.NoError(t, a.SetValue(4))
	assert.Equal(t, 700, d.Value())
	assert.Equal(t, 2, dEvals)
}

// an unchanged intermediate short-circuits its dependents
//
//	 A
//	 |
//	even   (true for 2 and 4)
//	 |
//	 F
func TestUnchangedIntermediateStopsPropagation(t *testing.T) {
	rt := cells.NewRuntime()
	a := cells.Input(rt, 2)
	even, err := cells.Formula(rt, func() (any, error) {
		return a.Value().(int)%2 == 0, nil
	})
	require.NoError(t, err)

	fEvals := 0
	_, err = cells.Formula(rt, func() (any, error) {
		fEvals++
		return even.Value(), nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, fEvals)

	require.NoError(t, a.SetValue(4))
	assert.Equal(t, 1, fEvals)

	require.NoError(t, a.SetValue(5))
	assert.Equal(t, 2, fEvals)
}

// sources are rediscovered on every evaluation; abandoned ones stop triggering
func TestDynamicDependencies(t *testing.T) {
	rt := cells.NewRuntime()
	useX := cells.Input(rt, true)
	x := cells.Input(rt, "x1")
	y := cells.Input(rt, "y1")

	evals := 0
	f, err := cells.Formula(rt, func() (any, error) {
		evals++
		if useX.Value().(bool) {
			return x.Value(), nil
		}
		return y.Value(), nil
	})
	require.NoError(t, err)
	require.Equal(t, "x1", f.Value())

	require.NoError(t, useX.SetValue(false))
	assert.Equal(t, "y1", f.Value())
	assert.Equal(t, 2, evals)

	// x is no longer a source, writes to it are invisible to f.
	require.NoError(t, x.SetValue("x2"))
	assert.Equal(t, 2, evals)

	require.NoError(t, y.SetValue("y2"))
	assert.Equal(t, "y2", f.Value())
	assert.Equal(t, 3, evals)
}

// a deep chain settles in a single pass, one evaluation per layer
func TestDeepChain(t *testing.T) {
	rt := cells.NewRuntime()
	src := cells.Input(rt, 0)

	evals := 0
	last := src
	for i := 0; i < 50; i++ {
		prev := last
		next, err := cells.Formula(rt, func() (any, error) {
			evals++
			return prev.Value().(int) + 1, nil
		})
		require.NoError(t, err)
		last = next
	}
	require.Equal(t, 50, last.Value())
	require.Equal(t, 50, evals)

	require.NoError(t, src.SetValue(100))
	assert.Equal(t, 150, last.Value())
	assert.Equal(t, 100, evals)
}

// a cycle introduced by retyping is caught while ranking, not looped on
//
//	 A ──> B <──> C
func TestCycleDetectedDuringPropagation(t *testing.T) {
	rt := cells.NewRuntime()
	a := cells.Input(rt, 1)
	b, err := cells.Formula(rt, func() (any, error) {
		return a.Value().(int) + 1, nil
	})
	require.NoError(t, err)
	c, err := cells.Formula(rt, func() (any, error) {
		return b.Value().(int) + 1, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, c.Value())

	// Rewiring b to read c closes the loop b <-> c; the retype's own
	// propagation pass is the first to rank the loop and reports it.
	err = b.ToFormula(func() (any, error) {
		return c.Value().(int) + a.Value().(int), nil
	})
	assert.ErrorIs(t, err, cells.ErrCyclicDependency)

	// Later writes into the loop keep reporting it.
	err = a.SetValue(2)
	assert.ErrorIs(t, err, cells.ErrCyclicDependency)
}
