package datatable

import (
	"sync"
	"time"
)

// DefaultQuantum is the scheduling quantum for render coalescing, roughly one
// display frame.
const DefaultQuantum = 16 * time.Millisecond

// Scheduler coalesces render requests: any number of requests arriving within
// one quantum collapse into exactly one run, carrying the union of their
// reason tags. The state machine is idle → scheduled → idle.
type Scheduler struct {
	mu      sync.Mutex
	quantum time.Duration
	run     func(reasons []string)

	timer   *time.Timer
	pending map[string]struct{}
	order   []string // reasons in first-arrival order, for diagnostics
	closed  bool
}

// NewScheduler creates a scheduler invoking run with the drained reason set.
// A non-positive quantum falls back to DefaultQuantum.
func NewScheduler(quantum time.Duration, run func(reasons []string)) *Scheduler {
	if quantum <= 0 {
		quantum = DefaultQuantum
	}
	return &Scheduler{
		quantum: quantum,
		run:     run,
		pending: make(map[string]struct{}),
	}
}

// Request records a render reason and arms the quantum timer if idle. When a
// run is already scheduled the reason joins the pending set and no new
// schedule is created.
func (s *Scheduler) Request(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.pending[reason]; !ok {
		s.pending[reason] = struct{}{}
		s.order = append(s.order, reason)
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.quantum, s.fire)
	}
}

// Scheduled reports whether a run is pending.
func (s *Scheduler) Scheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Flush runs any pending render immediately, cancelling the armed timer.
// With nothing pending it runs once with the reason "flush", giving hosts and
// tests a deterministic render point.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	reasons := s.drainLocked()
	s.mu.Unlock()

	if len(reasons) == 0 {
		reasons = []string{"flush"}
	}
	s.run(reasons)
}

// Close cancels any pending run. No run fires after Close returns.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.drainLocked()
}

// fire is the timer callback: drain the reason set and run once.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	reasons := s.drainLocked()
	s.mu.Unlock()

	if len(reasons) > 0 {
		s.run(reasons)
	}
}

func (s *Scheduler) drainLocked() []string {
	reasons := s.order
	s.order = nil
	clear(s.pending)
	s.timer = nil
	return reasons
}
