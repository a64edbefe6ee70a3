package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/shekelcheck/internal/browser"
	"github.com/xkilldash9x/shekelcheck/internal/testapp"
)

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
}

// testFixture holds one live browser session pointed at the reference app.
type testFixture struct {
	Manager *browser.Manager
	Session browser.SessionContext
	BaseURL string
}

func setupSession(t *testing.T, opts ...testapp.Option) *testFixture {
	t.Helper()
	execPath := testapp.RequireChrome(t)
	srv := testapp.NewServer(t, opts...)

	mgr := browser.NewManager(testLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sess, err := mgr.Acquire(ctx, browser.SessionOptions{
		Headless:       true,
		DisableSandbox: true,
		ImplicitWait:   5 * time.Second,
		ExecPath:       execPath,
	})
	require.NoError(t, err, "Failed to start a browser session.")

	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = sess.Release(shutdownCtx)
		assert.NoError(t, mgr.Shutdown(shutdownCtx))
	})

	return &testFixture{Manager: mgr, Session: sess, BaseURL: srv.URL}
}

func handleFor(t *testing.T, ctx context.Context, s browser.SessionContext, loc browser.Locator) browser.ElementHandle {
	t.Helper()
	state, err := s.Probe(ctx, loc)
	require.NoError(t, err)
	require.True(t, state.Present, "%s should be present", loc)
	return browser.ElementHandle{Locator: loc, State: state, Generation: s.Generation()}
}

func TestSessionAgainstReferenceApp(t *testing.T) {
	f := setupSession(t)
	s := f.Session
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, f.BaseURL+"/"))

	title, err := s.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Shekel Converter", title)

	missing, err := s.Probe(ctx, browser.ByID("result"))
	require.NoError(t, err)
	assert.False(t, missing.Present)

	n, err := s.Count(ctx, browser.ByCSS(`select[name="currency"] option`))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	values, err := s.AttributeValues(ctx, browser.ByCSS(`select[name="currency"] option`), "value")
	require.NoError(t, err)
	assert.Equal(t, []string{"usd", "eur", "gbp"}, values)

	amount := handleFor(t, ctx, s, browser.ByName("shekels"))
	assert.True(t, amount.State.Clickable())
	require.NoError(t, s.Fill(ctx, amount, "100"))

	state, err := s.Probe(ctx, browser.ByName("shekels"))
	require.NoError(t, err)
	assert.Equal(t, "100", state.Value)

	currency := handleFor(t, ctx, s, browser.ByName("currency"))
	ok, err := s.SelectOption(ctx, currency, "jpy")
	require.NoError(t, err)
	assert.False(t, ok, "jpy is not offered")
	ok, err = s.SelectOption(ctx, currency, "eur")
	require.NoError(t, err)
	assert.True(t, ok)

	before := s.Generation()
	submit := handleFor(t, ctx, s, browser.ByCSS("button[type='submit']"))
	require.NoError(t, s.Click(ctx, submit))

	require.Eventually(t, func() bool {
		st, err := s.Probe(ctx, browser.ByID("result"))
		return err == nil && st.Present && st.Text != ""
	}, 10*time.Second, 50*time.Millisecond)

	result, err := s.Probe(ctx, browser.ByID("result"))
	require.NoError(t, err)
	assert.Equal(t, "₪100 = €25.00", result.Text)
	assert.Greater(t, s.Generation(), before)

	err = s.Fill(ctx, amount, "5")
	assert.ErrorIs(t, err, browser.ErrStaleElement, "handles from the form page are stale after submit")

	url, err := s.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.BaseURL+"/convert", url)

	require.NoError(t, s.SetViewport(ctx, 375, 667))
	png, err := s.Screenshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestSessionRelease(t *testing.T) {
	f := setupSession(t)
	ctx := context.Background()

	assert.Equal(t, 1, f.Manager.Active())
	require.NoError(t, f.Session.Release(ctx))
	assert.NoError(t, f.Session.Release(ctx), "releasing twice is a no-op")
	assert.Zero(t, f.Manager.Active())

	err := f.Session.Navigate(ctx, f.BaseURL)
	assert.True(t, errors.Is(err, browser.ErrSessionReleased), "got %v", err)
}
