package sched

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Printer serializes progress messages from concurrent worker tasks.
// Workers enqueue lines with Put; a single consumer goroutine drains the
// queue and writes each line, so output from parallel slots never
// interleaves mid-line.
//
// The queue is unbounded and lossless: Put never blocks workers and Stop
// does not return until every enqueued message has been written.
type Printer struct {
	mu    sync.Mutex
	queue []string

	w        io.Writer
	interval time.Duration
	stopping atomic.Bool
	done     chan struct{}
}

// NewPrinter creates a Printer writing to w and starts its consumer.
func NewPrinter(w io.Writer) *Printer {
	p := &Printer{
		w:        w,
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
	}
	go p.consume()
	return p
}

// Put enqueues one message line. Safe for concurrent use; never blocks.
func (p *Printer) Put(msg string) {
	p.mu.Lock()
	p.queue = append(p.queue, msg)
	p.mu.Unlock()
}

// Stop signals the consumer to exit and blocks until the queue has drained.
// Messages enqueued before Stop is called are guaranteed to be written.
func (p *Printer) Stop() {
	p.stopping.Store(true)
	<-p.done
}

// consume polls the queue on a short interval. After observing the stop
// flag it drains one final time before exiting, so no message enqueued
// before Stop is lost.
func (p *Printer) consume() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for range ticker.C {
		p.drain()
		if p.stopping.Load() {
			p.drain()
			close(p.done)
			return
		}
	}
}

func (p *Printer) drain() {
	p.mu.Lock()
	pending := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, msg := range pending {
		fmt.Fprintln(p.w, msg)
	}
}
