package page

import (
	"sort"
	"time"
)

// Scheduler schedules delayed work on the page's event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellation handle for a scheduled task.
type Timer interface {
	// Stop cancels the task. It reports false if the task already ran or
	// was stopped.
	Stop() bool
}

// Timers is a manual cooperative loop. Time only moves when Advance is
// called; due tasks then run in deadline order on the caller's goroutine.
type Timers struct {
	now   time.Duration
	seq   int
	queue []*task
}

type task struct {
	at      time.Duration
	seq     int
	fn      func()
	done    bool
	removed bool
}

func (t *task) Stop() bool {
	if t.done || t.removed {
		return false
	}
	t.removed = true
	return true
}

var _ Scheduler = (*Timers)(nil)

// NewTimers returns a loop at time zero.
func NewTimers() *Timers { return &Timers{} }

// AfterFunc queues f to run once d has elapsed on this loop.
func (l *Timers) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	l.seq++
	t := &task{at: l.now + d, seq: l.seq, fn: f}
	l.queue = append(l.queue, t)
	return t
}

// Pending counts tasks that have neither run nor been stopped.
func (l *Timers) Pending() int {
	n := 0
	for _, t := range l.queue {
		if !t.done && !t.removed {
			n++
		}
	}
	return n
}

// Elapsed is the loop's current time since creation.
func (l *Timers) Elapsed() time.Duration { return l.now }

// Advance moves time forward by d and runs every task that became due,
// including tasks scheduled by tasks within the window.
func (l *Timers) Advance(d time.Duration) {
	deadline := l.now + d
	for {
		next := l.nextDue(deadline)
		if next == nil {
			break
		}
		l.now = next.at
		next.done = true
		if next.fn != nil {
			next.fn()
		}
	}
	l.now = deadline
	l.compact()
}

// Drain runs every pending task regardless of its deadline.
func (l *Timers) Drain() {
	for {
		var latest time.Duration
		found := false
		for _, t := range l.queue {
			if !t.done && !t.removed && (!found || t.at > latest) {
				latest, found = t.at, true
			}
		}
		if !found {
			return
		}
		l.Advance(latest - l.now)
	}
}

func (l *Timers) nextDue(deadline time.Duration) *task {
	live := make([]*task, 0, len(l.queue))
	for _, t := range l.queue {
		if !t.done && !t.removed && t.at <= deadline {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at == live[j].at {
			return live[i].seq < live[j].seq
		}
		return live[i].at < live[j].at
	})
	return live[0]
}

func (l *Timers) compact() {
	kept := l.queue[:0]
	for _, t := range l.queue {
		if !t.done && !t.removed {
			kept = append(kept, t)
		}
	}
	l.queue = kept
}
