package browser_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/shekelcheck/internal/browser"
	"github.com/xkilldash9x/shekelcheck/internal/mocks"
)

func newMockedProvider(t *testing.T) (*mocks.MockProvider, *mocks.MockSession) {
	t.Helper()
	sess := new(mocks.MockSession)
	sess.On("ID").Return("session-1").Maybe()
	provider := new(mocks.MockProvider)
	provider.On("Acquire", mock.Anything, mock.Anything).Return(sess, nil)
	t.Cleanup(func() {
		provider.AssertExpectations(t)
		sess.AssertExpectations(t)
	})
	return provider, sess
}

func TestWithSession(t *testing.T) {
	t.Run("releases after success", func(t *testing.T) {
		provider, sess := newMockedProvider(t)
		sess.On("Release", mock.Anything).Return(nil).Once()

		called := false
		err := browser.WithSession(context.Background(), provider, browser.SessionOptions{}, func(s browser.SessionContext) error {
			called = true
			assert.Same(t, sess, s)
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("releases after failure and keeps the failure", func(t *testing.T) {
		provider, sess := newMockedProvider(t)
		sess.On("Release", mock.Anything).Return(nil).Once()

		workErr := errors.New("scenario failed")
		err := browser.WithSession(context.Background(), provider, browser.SessionOptions{}, func(browser.SessionContext) error {
			return workErr
		})
		assert.ErrorIs(t, err, workErr)
	})

	t.Run("releases and re-raises on panic", func(t *testing.T) {
		provider, sess := newMockedProvider(t)
		sess.On("Release", mock.Anything).Return(nil).Once()

		assert.PanicsWithValue(t, "boom", func() {
			_ = browser.WithSession(context.Background(), provider, browser.SessionOptions{}, func(browser.SessionContext) error {
				panic("boom")
			})
		})
	})

	t.Run("teardown failure never masks the work error", func(t *testing.T) {
		provider, sess := newMockedProvider(t)
		sess.On("Release", mock.Anything).Return(errors.New("chrome hung")).Once()

		workErr := errors.New("assertion failed")
		err := browser.WithSession(context.Background(), provider, browser.SessionOptions{}, func(browser.SessionContext) error {
			return workErr
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, workErr)

		var te *browser.TeardownError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "session-1", te.SessionID)
	})

	t.Run("teardown failure alone is reported", func(t *testing.T) {
		provider, sess := newMockedProvider(t)
		teardown := &browser.TeardownError{SessionID: "session-1", Err: context.DeadlineExceeded}
		sess.On("Release", mock.Anything).Return(teardown).Once()

		err := browser.WithSession(context.Background(), provider, browser.SessionOptions{}, func(browser.SessionContext) error {
			return nil
		})
		var te *browser.TeardownError
		require.ErrorAs(t, err, &te)
		assert.Same(t, teardown, te)
	})

	t.Run("startup failure skips the work", func(t *testing.T) {
		provider := new(mocks.MockProvider)
		startup := &browser.SessionStartupError{Err: errors.New("no chrome")}
		provider.On("Acquire", mock.Anything, mock.Anything).Return(nil, startup)

		err := browser.WithSession(context.Background(), provider, browser.SessionOptions{}, func(browser.SessionContext) error {
			t.Fatal("work must not run without a session")
			return nil
		})
		var se *browser.SessionStartupError
		require.ErrorAs(t, err, &se)
		assert.Contains(t, err.Error(), "no chrome")
	})
}

func TestManagerStartupFailure(t *testing.T) {
	mgr := browser.NewManager(testLogger(t))

	_, err := mgr.Acquire(context.Background(), browser.SessionOptions{
		Headless: true,
		ExecPath: "/nonexistent/chrome-binary",
	})
	require.Error(t, err)

	var se *browser.SessionStartupError
	assert.ErrorAs(t, err, &se)
	assert.Zero(t, mgr.Active())
}
