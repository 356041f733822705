package sched

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// ResourceMonitor tracks a budget of execution cores shared by concurrent
// tasks. Cores are reserved through Acquire and handed back by calling the
// returned release function; the budget never goes negative and never
// exceeds the configured total.
//
// One monitor exists per scheduling level: the generator owns an outer
// monitor for per-molecule reservations, and each molecule task creates a
// fresh nested monitor for the engine calls made by its attempt cycles.
type ResourceMonitor struct {
	total int64
	sem   *semaphore.Weighted
}

// NewResourceMonitor creates a monitor with totalCores available.
func NewResourceMonitor(totalCores int) *ResourceMonitor {
	return &ResourceMonitor{
		total: int64(totalCores),
		sem:   semaphore.NewWeighted(int64(totalCores)),
	}
}

// Total returns the configured core budget.
func (m *ResourceMonitor) Total() int {
	return int(m.total)
}

// Acquire blocks until n cores are available, reserves them, and returns a
// release function. The release function must be called on every exit path;
// callers defer it immediately.
//
// Requesting more cores than the monitor's total would block forever, so it
// is rejected up front. Requests are validated again in config.Validate
// before any task is scheduled, making this a programming-error guard rather
// than an expected runtime branch.
func (m *ResourceMonitor) Acquire(ctx context.Context, n int) (release func(), err error) {
	if n <= 0 {
		return nil, fmt.Errorf("sched: core reservation must be positive, got %d", n)
	}
	if int64(n) > m.total {
		return nil, fmt.Errorf("sched: cannot reserve %d cores from a budget of %d", n, m.total)
	}
	if err := m.sem.Acquire(ctx, int64(n)); err != nil {
		return nil, fmt.Errorf("sched: acquire %d cores: %w", n, err)
	}
	return func() { m.sem.Release(int64(n)) }, nil
}
