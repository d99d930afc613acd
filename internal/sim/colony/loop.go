package colony

import (
	"context"
	"time"
)

func (c *Colony) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(c.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []Input
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stop:
			return nil
		case req := <-c.observerJoin:
			c.handleObserverJoin(req)
		case id := <-c.observerLeave:
			c.handleObserverLeave(id)
		case in := <-c.inbox:
			pending = append(pending, in)
		case <-ticker.C:
			c.stepInternal(c.clockFor(c.tick.Load()), pending)
			pending = pending[:0]
		}
	}
}

func (c *Colony) Stop() { close(c.stop) }

// clockFor derives simulated time from the tick count so replays see the
// same timestamps.
func (c *Colony) clockFor(tick uint64) Clock {
	dt := c.cfg.TickSeconds()
	return Clock{Now: float64(tick) * dt, Delta: dt}
}

// StepOnce advances the colony by a single tick using the same ordering
// semantics as Run. It is intended for deterministic replays and tests.
func (c *Colony) StepOnce(inputs []Input) (tick uint64, digest string) {
	tick = c.tick.Load()
	return tick, c.stepInternal(c.clockFor(tick), inputs)
}

// Step advances one tick with an external clock.
func (c *Colony) Step(clk Clock, inputs []Input) (tick uint64, digest string) {
	tick = c.tick.Load()
	return tick, c.stepInternal(clk, inputs)
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
