package sched

import "sync/atomic"

// Signal is a one-way latch shared by sibling attempt tasks. Once set it
// stays set; setting is idempotent and safe under concurrent access.
//
// The zero value is an unset Signal ready for use.
type Signal struct {
	fired atomic.Bool
}

// Set latches the signal.
func (s *Signal) Set() {
	s.fired.Store(true)
}

// TrySet latches the signal and reports whether this call was the one that
// latched it. At most one caller ever observes true, which is how the first
// successful attempt claims the win over near-simultaneous siblings.
func (s *Signal) TrySet() bool {
	return s.fired.CompareAndSwap(false, true)
}

// IsSet reports whether the signal has been latched.
func (s *Signal) IsSet() bool {
	return s.fired.Load()
}
