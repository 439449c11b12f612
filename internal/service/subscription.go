package service

import "sync/atomic"

// Subscription is the handle returned by the Subscribe methods.
//
// Cancel stops every delivery that has not been dispatched yet. It does not
// abort the remote call behind the subscription, which still completes and
// still refreshes the cache.
type Subscription struct {
	live atomic.Bool
	done chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{done: make(chan struct{})}
	s.live.Store(true)
	return s
}

// Cancel ends the subscription. It is safe to call more than once and from
// inside a callback.
func (s *Subscription) Cancel() {
	s.live.Store(false)
}

// Active reports whether the subscription has not been cancelled.
func (s *Subscription) Active() bool {
	return s.live.Load()
}

// Done is closed once the subscription has finished its work, cancelled or
// not.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// deliver runs fn unless the subscription was cancelled.
func (s *Subscription) deliver(fn func()) bool {
	if !s.live.Load() {
		return false
	}
	fn()
	return true
}

func (s *Subscription) finish() {
	close(s.done)
}
