// internal/browser/page.go
package browser

import (
	"context"
)

// ElementState is a point-in-time snapshot of one located element.
type ElementState struct {
	Present  bool   `json:"present"`
	Visible  bool   `json:"visible"`
	Enabled  bool   `json:"enabled"`
	Obscured bool   `json:"obscured"`
	Text     string `json:"text"`
	Value    string `json:"value"`
	TagName  string `json:"tag"`
}

// Displayed reports whether the element is present and rendered.
func (s ElementState) Displayed() bool { return s.Present && s.Visible }

// Clickable reports whether a user could click the element right now.
func (s ElementState) Clickable() bool {
	return s.Present && s.Visible && s.Enabled && !s.Obscured
}

// ElementHandle refers to an element located during one page generation.
// Once the page navigates, the handle is stale and actions on it fail with
// ErrStaleElement; it must be re-located.
type ElementHandle struct {
	Locator    Locator
	State      ElementState
	Generation uint64
}

// Page is the set of driver operations the harness needs from one browser tab.
// Every method is bounded by the session's implicit wait on top of ctx.
type Page interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Probe snapshots the first element matching loc. A missing element is
	// reported as ElementState{Present: false}, not as an error.
	Probe(ctx context.Context, loc Locator) (ElementState, error)
	// Generation increments on every main-frame navigation.
	Generation() uint64

	Fill(ctx context.Context, h ElementHandle, value string) error
	// SelectOption picks the option with the given value attribute and reports
	// whether such an option existed.
	SelectOption(ctx context.Context, h ElementHandle, value string) (bool, error)
	Click(ctx context.Context, h ElementHandle) error

	Count(ctx context.Context, loc Locator) (int, error)
	AttributeValues(ctx context.Context, loc Locator, attr string) ([]string, error)

	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	SetViewport(ctx context.Context, width, height int) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// SessionContext is one live browser session. It is owned by a single run
// and must be released exactly once; further releases are no-ops.
type SessionContext interface {
	Page
	ID() string
	Release(ctx context.Context) error
}

// Provider starts browser sessions.
type Provider interface {
	Acquire(ctx context.Context, opts SessionOptions) (SessionContext, error)
}
