// Package waiter blocks until an element reaches a condition or a deadline passes.
// It is the only place the harness waits; there are no fixed sleeps.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/shekelcheck/internal/browser"
	"github.com/xkilldash9x/shekelcheck/internal/config"
)

// Condition is the state an element must reach.
type Condition int

const (
	// Present means the element exists in the document.
	Present Condition = iota
	// Clickable means visible, enabled and not covered by another element.
	Clickable
	// TextNonEmpty means the element exists and renders some text.
	TextNonEmpty
)

func (c Condition) String() string {
	switch c {
	case Present:
		return "present"
	case Clickable:
		return "clickable"
	case TextNonEmpty:
		return "text-non-empty"
	default:
		return fmt.Sprintf("condition(%d)", int(c))
	}
}

// Satisfied reports whether state meets the condition.
func (c Condition) Satisfied(state browser.ElementState) bool {
	switch c {
	case Present:
		return state.Present
	case Clickable:
		return state.Clickable()
	case TextNonEmpty:
		return state.Present && state.Text != ""
	default:
		return false
	}
}

// WaitTimeoutError reports that a condition was not met in time. It carries
// the last observed state so failures can be diagnosed without a rerun.
type WaitTimeoutError struct {
	Locator   browser.Locator
	Condition Condition
	Timeout   time.Duration
	LastState browser.ElementState
	// LastErr is the most recent probe error, if any.
	LastErr error
}

func (e *WaitTimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %v waiting for %s to be %s (last state: present=%t visible=%t enabled=%t obscured=%t text=%q)",
		e.Timeout, e.Locator, e.Condition,
		e.LastState.Present, e.LastState.Visible, e.LastState.Enabled, e.LastState.Obscured, e.LastState.Text)
	if e.LastErr != nil {
		msg += fmt.Sprintf(": last error: %v", e.LastErr)
	}
	return msg
}

func (e *WaitTimeoutError) Unwrap() error { return e.LastErr }

// Waiter polls a page at a fixed pace.
type Waiter struct {
	timeout      time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

// New creates a Waiter from the wait configuration.
func New(cfg config.WaitConfig, logger *zap.Logger) *Waiter {
	w := &Waiter{
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		logger:       logger.Named("waiter"),
	}
	if w.timeout <= 0 {
		w.timeout = 10 * time.Second
	}
	if w.pollInterval <= 0 {
		w.pollInterval = 100 * time.Millisecond
	}
	return w
}

// DefaultTimeout is the bound used when WaitFor gets a non-positive timeout.
func (w *Waiter) DefaultTimeout() time.Duration { return w.timeout }

// WaitFor polls loc until cond holds and returns a handle tied to the page
// generation it was observed in. A probe that straddles a navigation is
// discarded and retried. Probe errors are retried until the deadline; if the
// caller's ctx ends first its error is returned, otherwise *WaitTimeoutError.
func (w *Waiter) WaitFor(ctx context.Context, page browser.Page, loc browser.Locator, cond Condition, timeout time.Duration) (browser.ElementHandle, error) {
	if loc.IsZero() {
		return browser.ElementHandle{}, browser.ErrInvalidLocator
	}
	if timeout <= 0 {
		timeout = w.timeout
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(w.pollInterval), 1)
	var (
		last    browser.ElementState
		lastErr error
		polls   int
	)

	for {
		if err := limiter.Wait(waitCtx); err != nil {
			// Wait fails early when the next poll would land past the deadline;
			// let the deadline actually pass so the cause is attributable.
			<-waitCtx.Done()
			break
		}
		polls++

		gen := page.Generation()
		state, err := page.Probe(waitCtx, loc)
		switch {
		case err != nil:
			if errors.Is(err, browser.ErrSessionReleased) {
				return browser.ElementHandle{}, err
			}
			if ctx.Err() != nil {
				return browser.ElementHandle{}, fmt.Errorf("waiting for %s: %w", loc, ctx.Err())
			}
			// A probe cut off by our own deadline says nothing about the element.
			if waitCtx.Err() == nil {
				lastErr = err
			}
		case gen != page.Generation():
			// The document changed under the probe; its answer is meaningless.
			lastErr = nil
		default:
			lastErr = nil
			last = state
			if cond.Satisfied(state) {
				w.logger.Debug("Condition met.", zap.Stringer("locator", loc),
					zap.Stringer("condition", cond), zap.Int("polls", polls))
				return browser.ElementHandle{Locator: loc, State: state, Generation: gen}, nil
			}
		}

		if waitCtx.Err() != nil {
			break
		}
	}

	if ctx.Err() != nil {
		return browser.ElementHandle{}, fmt.Errorf("waiting for %s: %w", loc, ctx.Err())
	}
	return browser.ElementHandle{}, &WaitTimeoutError{
		Locator:   loc,
		Condition: cond,
		Timeout:   timeout,
		LastState: last,
		LastErr:   lastErr,
	}
}
