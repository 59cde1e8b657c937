package cells_test

import (
	"testing"

	"github.com/delaneyj/cellparty/cells"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listeners fire once per update with the old and new value
func TestSubscribeBasics(t *testing.T) {
	rt := cells.NewRuntime()
	a := cells.Input(rt, 1)

	type change struct{ old, new any }
	var got []change
	sub, err := a.Subscribe(func(oldValue, newValue any) {
		got = append(got, change{oldValue, newValue})
	})
	require.NoError(t, err)

	require.NoError(t, a.SetValue(2))
	require.NoError(t, a.SetValue(2)) // no-op, no notification
	require.NoError(t, a.SetValue(5))
	assert.Equal(t, []change{{1, 2}, {2, 5}}, got)

	sub.Cancel()
	require.NoError(t, a.SetValue(9))
	assert.Len(t, got, 2)

	// Cancel is idempotent.
	sub.Cancel()
}

// a transaction notifies each changed cell exactly once, after everything settled
func TestNotificationAfterSettle(t *testing.T) {
	rt := cells.NewRuntime()
	a := cells.Input(rt, 1)
	b := cells.Input(rt, 2)
	sum, err := cells.Formula(rt, func() (any, error) {
		return a.Value().(int) + b.Value().(int), nil
	})
	require.NoError(t, err)

	// The listener on sum must see fully settled upstream values.
	notifications := 0
	_, err = sum.Subscribe(func(_, newValue any) {
		notifications++
		assert.Equal(t, a.Value().(int)+b.Value().(int), newValue)
	})
	require.NoError(t, err)

	err = rt.RunTransaction(func() error {
		if err := a.SetValue(10); err != nil {
			return err
		}
		return b.SetValue(20)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, notifications)
	assert.Equal(t, 30, sum.Value())
}

// formula cells that settle unchanged do not notify
func TestUnchangedCellsDoNotNotify(t *testing.T) {
	rt := cells.NewRuntime()
	a := cells.Input(rt, 3)
	parity, err := cells.Formula(rt, func() (any, error) {
		return a.Value().(int) % 2, nil
	})
	require.NoError(t, err)

	notified := 0
	_, err = parity.Subscribe(func(_, _ any) { notified++ })
	require.NoError(t, err)

	require.NoError(t, a.SetValue(5))
	assert.Equal(t, 0, notified)
	require.NoError(t, a.SetValue(6))
	assert.Equal(t, 1, notified)
}

// multiple listeners on one cell all fire
func TestMultipleListeners(t *testing.T) {
	rt := cells.NewRuntime()
	a := cells.Input(rt, 0)

	first, second := 0, 0
	_, err := a.Subscribe(func(_, _ any) { first++ })
	require.NoError(t, err)
	_, err = a.Subscribe(func(_, _ any) { second++ })
	require.NoError(t, err)

	require.NoError(t, a.SetValue(1))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

// subscribing to a destroyed cell fails
func TestSubscribeDestroyed(t *testing.T) {
	rt := cells.NewRuntime()
	a := cells.Input(rt, 1)
	a.Destroy()

	sub, err := a.Subscribe(func(_, _ any) {})
	assert.ErrorIs(t, err, cells.ErrCellDestroyed)
	assert.Nil(t, sub)
}
