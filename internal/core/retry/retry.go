// Package retry contains the bounded-retry-with-escalation primitive shared
// by every subsystem that loops: output-parse retries, spawn retries, bug
// fix/verify cycles, and plan debate rounds. Only the ceilings differ
// between call sites.
package retry

import "fmt"

// ErrExhausted is returned by Record once the ceiling has been crossed.
var ErrExhausted = fmt.Errorf("retry ceiling exhausted")

// Counter tracks attempts against a fixed ceiling. Crossing the ceiling
// fires OnExhausted exactly once with the full attempt history and marks
// the counter exhausted; further Records keep returning ErrExhausted
// without firing again.
type Counter struct {
	name        string
	ceiling     int
	count       int
	exhausted   bool
	history     []string
	onExhausted func(name string, history []string)
}

// New creates a counter. onExhausted may be nil; ceiling is the number of
// attempts tolerated before escalation (ceiling 3 means the 4th attempt
// escalates).
func New(name string, ceiling int, onExhausted func(name string, history []string)) *Counter {
	return &Counter{
		name:        name,
		ceiling:     ceiling,
		onExhausted: onExhausted,
	}
}

// Resume reconstructs a counter from persisted state, seeding the attempt
// count and history without firing the callback. Used where the loop
// outlives the process, such as bug fix/verify cycles. History may hold
// more entries than count; only count is charged against the ceiling.
func Resume(name string, ceiling, count int, history []string, onExhausted func(name string, history []string)) *Counter {
	c := New(name, ceiling, onExhausted)
	c.count = count
	c.history = append(c.history, history...)
	return c
}

// Record registers one attempt described by note. It returns nil while the
// counter is within its ceiling and ErrExhausted once the ceiling is
// crossed. The escalation callback fires on the crossing attempt only.
func (c *Counter) Record(note string) error {
	c.count++
	c.history = append(c.history, fmt.Sprintf("attempt %d: %s", c.count, note))

	if c.count <= c.ceiling {
		return nil
	}

	if !c.exhausted {
		c.exhausted = true
		if c.onExhausted != nil {
			c.onExhausted(c.name, c.history)
		}
	}
	return ErrExhausted
}

// Count returns the number of recorded attempts.
func (c *Counter) Count() int { return c.count }

// Exhausted reports whether the ceiling has been crossed.
func (c *Counter) Exhausted() bool { return c.exhausted }

// History returns the recorded attempt notes, oldest first.
func (c *Counter) History() []string { return c.history }
