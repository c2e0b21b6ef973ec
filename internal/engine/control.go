package engine

import (
	"context"
	"sync"
	"time"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

// Controller owns the cooperative control flow of one simulation task:
// pause/resume, single-step, speed throttling and cancellation observation.
// The spin loop suspends only inside AwaitContinue and AwaitStep, so a pause
// always lands before the next spin is prepared and a step wait lands after
// a spin is fully applied.
type Controller struct {
	mu       sync.Mutex
	status   Status
	paused   bool
	resumeCh chan struct{}
	stepMode bool
	stepCh   chan struct{}
	delay    time.Duration
}

func NewController() *Controller {
	return &Controller{
		status: StatusIdle,
		stepCh: make(chan struct{}, 1),
	}
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// Pause suspends the loop before the next spin. Idempotent.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused || c.status == StatusStopped {
		return
	}

	c.paused = true
	c.resumeCh = make(chan struct{})

	if c.status == StatusRunning {
		c.status = StatusPaused
	}
}

// Resume re-enters the loop exactly where it suspended; no spin is
// re-evaluated.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.paused {
		return
	}

	c.paused = false
	close(c.resumeCh)

	if c.status == StatusPaused {
		c.status = StatusRunning
	}
}

// SetStepMode toggles single-step mode: the loop suspends after every spin
// until Advance is called.
func (c *Controller) SetStepMode(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stepMode = enabled
}

// Advance releases one spin in single-step mode.
func (c *Controller) Advance() {
	select {
	case c.stepCh <- struct{}{}:
	default:
	}
}

// SetDelay sets the per-spin throttle delay. Zero disables throttling.
func (c *Controller) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}

	c.delay = d
}

// AwaitContinue is the suspension point invoked before each spin. It blocks
// while paused, applies the speed delay, and reports cancellation.
func (c *Controller) AwaitContinue(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for {
		c.mu.Lock()
		paused := c.paused
		resumeCh := c.resumeCh
		delay := c.delay
		c.mu.Unlock()

		if !paused {
			if delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}

			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resumeCh:
		}
	}
}

// AwaitStep is the suspension point invoked after each spin when single-step
// mode is active.
func (c *Controller) AwaitStep(ctx context.Context) error {
	c.mu.Lock()
	stepMode := c.stepMode
	c.mu.Unlock()

	if !stepMode {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stepCh:
		return nil
	}
}

func (c *Controller) markRunning() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusIdle && c.status != StatusStopped {
		return
	}

	// a pause requested before the loop started must be reported as paused,
	// since the loop immediately blocks in AwaitContinue
	if c.paused {
		c.status = StatusPaused
	} else {
		c.status = StatusRunning
	}
}

func (c *Controller) markStopped() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = StatusStopped
}
