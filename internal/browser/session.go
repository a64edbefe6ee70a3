// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Session drives a single Chrome tab through chromedp. It implements SessionContext.
type Session struct {
	id     string
	ctx    context.Context // tab context, carries the chromedp target
	cancel context.CancelFunc
	// allocCancel stops the browser process owned by this session.
	allocCancel context.CancelFunc
	logger      *zap.Logger
	opts        SessionOptions

	generation atomic.Uint64
	released   atomic.Bool
	closeOnce  sync.Once
	onRelease  func()
}

var _ SessionContext = (*Session)(nil)

// watchNavigations bumps the page generation on every main-frame navigation so
// handles located on a previous document are detected as stale.
func (s *Session) watchNavigations() {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if e, ok := ev.(*page.EventFrameNavigated); ok && e.Frame != nil && e.Frame.ParentID == "" {
			gen := s.generation.Add(1)
			s.logger.Debug("Main frame navigated.", zap.String("url", e.Frame.URL), zap.Uint64("generation", gen))
		}
	})
}

func (s *Session) ID() string { return s.id }

func (s *Session) Generation() uint64 { return s.generation.Load() }

// runActions executes chromedp actions on the tab, bounded by both ctx and timeout.
func (s *Session) runActions(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if s.released.Load() {
		return ErrSessionReleased
	}

	opCtx, cancelOp := context.WithTimeout(ctx, timeout)
	defer cancelOp()
	runCtx, cancel := CombineContext(s.ctx, opCtx)
	defer cancel()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		switch {
		case s.released.Load():
			return ErrSessionReleased
		case ctx.Err() != nil:
			return ctx.Err()
		case opCtx.Err() != nil:
			return fmt.Errorf("driver command did not finish within %v: %w", timeout, opCtx.Err())
		}
		return err
	}
	return nil
}

// evaluate runs a script built by jsCall and decodes its result into res.
func (s *Session) evaluate(ctx context.Context, script string, res interface{}) error {
	return s.runActions(ctx, s.opts.ImplicitWait, chromedp.Evaluate(script, res))
}

// jsCall renders fn applied to args, with every argument JSON encoded so
// selectors and values cannot break out of their string literals.
func jsCall(fn string, args ...interface{}) (string, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("failed to encode script argument %d: %w", i, err)
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}

func (s *Session) checkHandle(h ElementHandle) error {
	if h.Locator.IsZero() {
		return ErrInvalidLocator
	}
	if s.released.Load() {
		return ErrSessionReleased
	}
	if h.Generation != s.generation.Load() {
		return fmt.Errorf("%w: %s", ErrStaleElement, h.Locator)
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.runActions(ctx, s.opts.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

const probeScript = `function(sel) {
	const el = document.querySelector(sel);
	if (!el) {
		return {present: false, visible: false, enabled: false, obscured: false, text: "", value: "", tag: ""};
	}
	const style = window.getComputedStyle(el);
	const rect = el.getBoundingClientRect();
	const visible = style.display !== "none" && style.visibility !== "hidden" &&
		parseFloat(style.opacity || "1") > 0 && rect.width > 0 && rect.height > 0;
	let obscured = false;
	if (visible) {
		const cx = rect.left + rect.width / 2;
		const cy = rect.top + rect.height / 2;
		if (cx >= 0 && cy >= 0 && cx <= window.innerWidth && cy <= window.innerHeight) {
			const top = document.elementFromPoint(cx, cy);
			obscured = !!top && top !== el && !el.contains(top) && !top.contains(el);
		}
	}
	return {
		present: true,
		visible: visible,
		enabled: !el.disabled,
		obscured: obscured,
		text: (el.innerText || el.textContent || "").trim(),
		value: ("value" in el && el.value != null) ? String(el.value) : "",
		tag: el.tagName.toLowerCase()
	};
}`

func (s *Session) Probe(ctx context.Context, loc Locator) (ElementState, error) {
	if loc.IsZero() {
		return ElementState{}, ErrInvalidLocator
	}
	script, err := jsCall(probeScript, loc.Selector())
	if err != nil {
		return ElementState{}, err
	}
	var state ElementState
	if err := s.evaluate(ctx, script, &state); err != nil {
		return ElementState{}, fmt.Errorf("failed to probe %s: %w", loc, err)
	}
	return state, nil
}

const clearScript = `function(sel) {
	const el = document.querySelector(sel);
	if (!el) { return false; }
	el.focus();
	el.value = "";
	el.dispatchEvent(new Event("input", {bubbles: true}));
	return true;
}`

// Fill clears the field and types value into it. An empty value leaves the field cleared.
func (s *Session) Fill(ctx context.Context, h ElementHandle, value string) error {
	if err := s.checkHandle(h); err != nil {
		return err
	}
	script, err := jsCall(clearScript, h.Locator.Selector())
	if err != nil {
		return err
	}
	var found bool
	if err := s.evaluate(ctx, script, &found); err != nil {
		return fmt.Errorf("failed to clear %s: %w", h.Locator, err)
	}
	if !found {
		return fmt.Errorf("%w: %s no longer matches an element", ErrStaleElement, h.Locator)
	}
	if value == "" {
		return nil
	}
	if err := s.runActions(ctx, s.opts.ImplicitWait, chromedp.SendKeys(h.Locator.Selector(), value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to type into %s: %w", h.Locator, err)
	}
	return nil
}

const selectScript = `function(sel, val) {
	const el = document.querySelector(sel);
	if (!el) { return -1; }
	const opt = Array.from(el.options || []).find(o => o.value === val);
	if (!opt) { return 0; }
	el.value = val;
	el.dispatchEvent(new Event("input", {bubbles: true}));
	el.dispatchEvent(new Event("change", {bubbles: true}));
	return 1;
}`

func (s *Session) SelectOption(ctx context.Context, h ElementHandle, value string) (bool, error) {
	if err := s.checkHandle(h); err != nil {
		return false, err
	}
	script, err := jsCall(selectScript, h.Locator.Selector(), value)
	if err != nil {
		return false, err
	}
	var outcome int
	if err := s.evaluate(ctx, script, &outcome); err != nil {
		return false, fmt.Errorf("failed to select %q in %s: %w", value, h.Locator, err)
	}
	switch outcome {
	case -1:
		return false, fmt.Errorf("%w: %s no longer matches an element", ErrStaleElement, h.Locator)
	case 0:
		return false, nil
	}
	return true, nil
}

func (s *Session) Click(ctx context.Context, h ElementHandle) error {
	if err := s.checkHandle(h); err != nil {
		return err
	}
	if err := s.runActions(ctx, s.opts.ImplicitWait, chromedp.Click(h.Locator.Selector(), chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click %s: %w", h.Locator, err)
	}
	return nil
}

func (s *Session) Count(ctx context.Context, loc Locator) (int, error) {
	if loc.IsZero() {
		return 0, ErrInvalidLocator
	}
	script, err := jsCall(`function(sel) { return document.querySelectorAll(sel).length; }`, loc.Selector())
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.evaluate(ctx, script, &n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", loc, err)
	}
	return n, nil
}

func (s *Session) AttributeValues(ctx context.Context, loc Locator, attr string) ([]string, error) {
	if loc.IsZero() {
		return nil, ErrInvalidLocator
	}
	script, err := jsCall(`function(sel, attr) {
	return Array.from(document.querySelectorAll(sel)).map(el => el.getAttribute(attr) || "");
}`, loc.Selector(), attr)
	if err != nil {
		return nil, err
	}
	var values []string
	if err := s.evaluate(ctx, script, &values); err != nil {
		return nil, fmt.Errorf("failed to read %q of %s: %w", attr, loc, err)
	}
	return values, nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.runActions(ctx, s.opts.ImplicitWait, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var url string
	if err := s.runActions(ctx, s.opts.ImplicitWait, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

func (s *Session) SetViewport(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	if err := s.runActions(ctx, s.opts.ImplicitWait, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		return fmt.Errorf("failed to set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.runActions(ctx, s.opts.ImplicitWait, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Release closes the tab and stops the browser. Only the first call does any
// work; later calls return nil.
func (s *Session) Release(ctx context.Context) error {
	var releaseErr error
	s.closeOnce.Do(func() {
		s.released.Store(true)
		s.logger.Info("Releasing browser session.")

		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				releaseErr = &TeardownError{SessionID: s.id, Err: err}
			}
		case <-ctx.Done():
			releaseErr = &TeardownError{SessionID: s.id, Err: ctx.Err()}
		}

		// Force the process down whether or not the graceful close finished.
		s.cancel()
		s.allocCancel()
		if s.onRelease != nil {
			s.onRelease()
		}

		if releaseErr != nil {
			s.logger.Warn("Browser session did not close cleanly.", zap.Error(releaseErr))
		}
	})
	return releaseErr
}
