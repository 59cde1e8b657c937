package cells

// Listener is invoked with the value a cell held before an update and the
// value it settled on, after the whole affected set has settled. A listener on
// a downstream cell therefore never observes an upstream cell mid-update.
type Listener func(oldValue, newValue any)

// Subscription is the revocation token for a registered listener.
type Subscription struct {
	cell *Cell
	id   uint64
}

// Subscribe registers a change listener on the cell. Listeners fire once per
// update in which the cell's value actually changed, in no particular order
// relative to other cells' listeners.
func (c *Cell) Subscribe(fn Listener) (*Subscription, error) {
	if !c.alive {
		return nil, ErrCellDestroyed
	}
	c.observerID++
	id := c.observerID
	c.observers[id] = fn
	return &Subscription{cell: c, id: id}, nil
}

// Cancel revokes the subscription. Safe to call more than once, and safe after
// the cell has been destroyed.
func (s *Subscription) Cancel() {
	if s == nil || s.cell == nil {
		return
	}
	delete(s.cell.observers, s.id)
	s.cell = nil
}

// notify fires listeners for every cell whose value changed in a settled
// update. Listener sets are snapshotted first so a listener canceling or
// subscribing mid-notification does not perturb the walk.
func (rt *Runtime) notify(changed []*Cell, prior map[*Cell]any) {
	for _, c := range changed {
		if len(c.observers) == 0 {
			continue
		}
		listeners := make([]Listener, 0, len(c.observers))
		for _, fn := range c.observers {
			listeners = append(listeners, fn)
		}
		old := prior[c]
		for _, fn := range listeners {
			fn(old, c.value)
		}
	}
}
