// internal/plc/runner.go
package plc

import (
	"context"
	"time"
)

// PollEvent is emitted once per poll cycle.
type PollEvent struct {
	OK     bool
	At     time.Time
	Status Status
}

// Run drives the cyclic poll loop and emits one PollEvent per cycle
// on out. A lost connection is re-attempted once per cycle; failures
// never terminate the loop. Returns when ctx is cancelled. One
// goroutine per communicator; no overlap between cycles.
func (c *Communicator) Run(ctx context.Context, out chan<- PollEvent) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.Connected() {
				c.Connect()
			}
			ok := c.Poll()
			ev := PollEvent{OK: ok, At: time.Now(), Status: c.Status()}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
