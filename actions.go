package ledaction

// This file contains the ordered collection of actions owned by every node.
// Exactly one action, the current one, is advanced per frame

// Actions is an ordered list of actions plus the cursor selecting the
// current one.  The cursor is always a valid index when the list is not
// empty and 0 when it is.
//
// Removals requested while the current action is delivering an event are
// deferred until that action returns
type Actions struct {
	list    []*Action
	current int

	busy    bool
	pending []*Action
}

// Len is the number of actions held
func (c *Actions) Len() int {
	return len(c.list)
}

// Add appends an action, an action already present is not added twice.
// Adding back an action whose removal is still deferred cancels that removal
func (c *Actions) Add(a *Action) {
	if a == nil {
		return
	}
	if c.indexOf(a) >= 0 {
		if a.detached {
			c.undoRemove(a)
		}
		return
	}
	a.detached = false
	c.list = append(c.list, a)
	logger.Debug("action added", "action", a.String(), "len", len(c.list))
}

// At returns the action at idx or nil when idx is out of range
func (c *Actions) At(idx int) *Action {
	if idx < 0 || idx >= len(c.list) {
		return nil
	}
	return c.list[idx]
}

// Current returns the action being advanced, nil when there is none
func (c *Actions) Current() *Action {
	if c.current < len(c.list) {
		return c.list[c.current]
	}
	return nil
}

func (c *Actions) CurrentIndex() int {
	return c.current
}

// SetCurrent moves the cursor to idx and resets the action found there so
// it starts over on the next frame.  Out of range indexes are ignored
func (c *Actions) SetCurrent(idx int) {
	if idx < 0 || idx >= len(c.list) {
		return
	}
	c.current = idx
	c.list[idx].Reset()
}

// Next moves the cursor to the following action, wrapping past the last one
func (c *Actions) Next() {
	if len(c.list) == 0 {
		c.current = 0
		return
	}
	c.current++
	if c.current >= len(c.list) {
		c.current = 0
	}
}

// Remove drops an action.  Unknown actions are ignored and the End event of
// the removed action is never fired
func (c *Actions) Remove(a *Action) {
	idx := c.indexOf(a)
	if idx < 0 {
		return
	}
	if c.busy {
		if !a.detached {
			a.detached = true
			c.pending = append(c.pending, a)
		}
		return
	}
	c.removeAt(idx)
}

// RemoveAt drops the action at idx, out of range indexes are ignored
func (c *Actions) RemoveAt(idx int) {
	if idx < 0 || idx >= len(c.list) {
		return
	}
	c.Remove(c.list[idx])
}

// Clear drops every action
func (c *Actions) Clear() {
	if c.busy {
		for _, a := range c.list {
			c.Remove(a)
		}
		return
	}
	for len(c.list) > 0 {
		c.removeAt(0)
	}
}

func (c *Actions) undoRemove(a *Action) {
	for i, p := range c.pending {
		if p == a {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	a.detached = false
	logger.Debug("action removal cancelled", "action", a.String())
}

func (c *Actions) removeAt(idx int) {
	a := c.list[idx]
	a.Reset()
	a.detached = false

	copy(c.list[idx:], c.list[idx+1:])
	c.list[len(c.list)-1] = nil
	c.list = c.list[:len(c.list)-1]

	switch {
	case len(c.list) == 0:
		c.current = 0
	case idx < c.current:
		// keep pointing at the same action
		c.current--
	case c.current >= len(c.list):
		// the removed action was the last one, wrap
		c.SetCurrent(0)
	case idx == c.current:
		// the follower takes over and starts afresh
		c.list[c.current].Reset()
	}
	logger.Debug("action removed", "action", a.String(), "len", len(c.list))
}

func (c *Actions) indexOf(a *Action) int {
	for i, itm := range c.list {
		if itm == a {
			return i
		}
	}
	return -1
}

// advance runs one frame of the current action on behalf of n
func (c *Actions) advance(n Node) {
	a := c.Current()
	if a == nil || c.busy {
		return
	}

	c.busy = true
	a.advance(n, n.Dispatcher().Now())
	c.busy = false

	if len(c.pending) == 0 {
		return
	}
	pending := c.pending
	c.pending = nil
	for _, p := range pending {
		if idx := c.indexOf(p); idx >= 0 {
			c.removeAt(idx)
		}
	}
}
