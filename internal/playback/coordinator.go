// Package playback coordinates exclusive media-playback focus across post
// views: starting playback on one item pauses and mutes any other active
// item. This is advisory app-level coordination, not a lock with acquisition
// semantics.
package playback

import "sync"

// Handle is implemented by anything that can hold playback focus.
type Handle interface {
	Pause()
	Mute()
}

// Coordinator owns the single "currently playing" reference.
type Coordinator struct {
	mu     sync.Mutex
	active Handle
}

// NewCoordinator returns a coordinator with no focus holder.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// RequestFocus gives h the playback focus, pausing and muting the previous
// holder if there is one.
func (c *Coordinator) RequestFocus(h Handle) {
	c.mu.Lock()
	previous := c.active
	c.active = h
	c.mu.Unlock()

	if previous != nil && previous != h {
		previous.Pause()
		previous.Mute()
	}
}

// Release clears the focus if h still holds it. Views call this on teardown
// so the coordinator never keeps a stale reference.
func (c *Coordinator) Release(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == h {
		c.active = nil
	}
}

// Active returns the current focus holder, or nil.
func (c *Coordinator) Active() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
