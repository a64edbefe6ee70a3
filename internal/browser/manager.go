// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const releaseGracePeriod = 15 * time.Second

// Manager launches chromedp backed sessions and keeps track of the ones still open.
type Manager struct {
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

var _ Provider = (*Manager)(nil)

// NewManager creates a browser manager. No browser is started until Acquire.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}
}

// Acquire launches a fresh browser with one tab and verifies it responds
// before handing it out. Any failure is reported as *SessionStartupError.
func (m *Manager) Acquire(ctx context.Context, opts SessionOptions) (SessionContext, error) {
	opts = opts.withDefaults()
	id := uuid.NewString()
	logger := m.logger.With(zap.String("session_id", id))

	logger.Info("Launching browser.", zap.Bool("headless", opts.Headless),
		zap.Int("width", opts.WindowWidth), zap.Int("height", opts.WindowHeight))

	// The browser outlives ctx; it is torn down by Release.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(opts)...)

	ctxOpts := []chromedp.ContextOption{chromedp.WithErrorf(logger.Sugar().Errorf)}
	if opts.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(logger.Sugar().Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		id:          id,
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		logger:      logger,
		opts:        opts,
	}
	s.watchNavigations()

	startupCtx, cancelStartup := context.WithTimeout(ctx, opts.StartupTimeout)
	defer cancelStartup()

	if err := m.start(startupCtx, s); err != nil {
		tabCancel()
		allocCancel()
		logger.Error("Browser failed to start.", zap.Error(err))
		return nil, &SessionStartupError{Err: err}
	}

	s.onRelease = func() { m.forget(id) }
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Info("Browser session ready.")
	return s, nil
}

// start allocates the browser and runs a probe navigation. The first
// chromedp.Run must use the tab context itself, since canceling the context of
// that first run would close the browser; the deadline is enforced by select.
func (m *Manager) start(ctx context.Context, s *Session) error {
	launched := make(chan error, 1)
	go func() { launched <- chromedp.Run(s.ctx) }()

	select {
	case err := <-launched:
		if err != nil {
			return fmt.Errorf("browser failed to launch: %w", err)
		}
	case <-ctx.Done():
		s.cancel()
		<-launched
		return fmt.Errorf("browser did not start in time: %w", ctx.Err())
	}

	if err := s.runActions(ctx, s.opts.StartupTimeout, chromedp.Navigate("about:blank")); err != nil {
		return fmt.Errorf("browser failed to respond: %w", err)
	}
	return nil
}

func (m *Manager) forget(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Active returns the number of sessions not yet released.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown releases every session still open, concurrently, and reports all failures.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	if len(open) == 0 {
		return nil
	}
	m.logger.Info("Releasing sessions left open.", zap.Int("count", len(open)))

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	for _, s := range open {
		g.Go(func() error {
			if err := s.Release(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// WithSession acquires a session, runs fn with it and always releases it, even
// when fn panics (the panic is re-raised after release). A release failure is
// joined to fn's error as a *TeardownError and never replaces it.
func WithSession(ctx context.Context, p Provider, opts SessionOptions, fn func(SessionContext) error) (err error) {
	sess, err := p.Acquire(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseGracePeriod)
		defer cancel()
		relErr := sess.Release(releaseCtx)

		if r := recover(); r != nil {
			panic(r)
		}
		if relErr != nil {
			var te *TeardownError
			if !errors.As(relErr, &te) {
				relErr = &TeardownError{SessionID: sess.ID(), Err: relErr}
			}
			err = errors.Join(err, relErr)
		}
	}()

	return fn(sess)
}
