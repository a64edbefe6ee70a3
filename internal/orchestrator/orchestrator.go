// File: internal/orchestrator/orchestrator.go
// Description: Runs the scenario catalog on one browser session and collects
// a report. Components are injected so the run can be tested without Chrome.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/shekelcheck/internal/browser"
	"github.com/xkilldash9x/shekelcheck/internal/catalog"
	"github.com/xkilldash9x/shekelcheck/internal/config"
	"github.com/xkilldash9x/shekelcheck/internal/scenario"
	"github.com/xkilldash9x/shekelcheck/internal/waiter"
)

// ErrNoScenarios is returned when filtering leaves nothing to run.
var ErrNoScenarios = errors.New("no scenarios selected")

// Orchestrator runs a catalog against the configured application.
type Orchestrator struct {
	cfg      *config.Config
	logger   *zap.Logger
	provider browser.Provider
	catalog  *catalog.Catalog
	now      func() time.Time
}

// New creates an Orchestrator. All dependencies are required.
func New(cfg *config.Config, logger *zap.Logger, provider browser.Provider, cat *catalog.Catalog) (*Orchestrator, error) {
	if cfg == nil || logger == nil || provider == nil || cat == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger.Named("orchestrator"),
		provider: provider,
		catalog:  cat,
		now:      time.Now,
	}, nil
}

// Scenarios returns the scenarios this orchestrator will run, after filtering.
func (o *Orchestrator) Scenarios() []Scenario {
	return Filter(Build(o.catalog), o.cfg.Run.Only)
}

// Run executes every selected scenario sequentially on one session. Scenario
// failures are recorded in the report and do not stop the run. The returned
// error is non-nil only for run-level failures (no scenarios, browser
// startup, teardown), which are also recorded in Report.Fatal.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		BaseURL: o.cfg.App.BaseURL,
		Started: o.now(),
	}
	logger := o.logger.With(zap.String("run_id", report.RunID))

	scenarios := o.Scenarios()
	if len(scenarios) == 0 {
		report.Finished = o.now()
		report.Fatal = ErrNoScenarios
		return report, ErrNoScenarios
	}
	logger.Info("Starting run.", zap.String("base_url", report.BaseURL), zap.Int("scenarios", len(scenarios)))

	err := browser.WithSession(ctx, o.provider, browser.OptionsFromConfig(o.cfg.Browser), func(sess browser.SessionContext) error {
		w := waiter.New(o.cfg.Wait, o.logger)
		exec := scenario.NewExecutor(sess, w, scenario.OptionsFromConfig(o.cfg), o.logger)

		for _, sc := range scenarios {
			if ctx.Err() != nil {
				report.Outcomes = append(report.Outcomes, Outcome{Name: sc.Name, Skipped: true, Err: ctx.Err()})
				continue
			}
			outcome := o.runScenario(ctx, sess, exec, sc, report.RunID)
			report.Outcomes = append(report.Outcomes, outcome)
		}
		return nil
	})

	report.Finished = o.now()
	passed, failed, skipped := report.Counts()
	if err != nil {
		report.Fatal = err
		logger.Error("Run aborted.", zap.Error(err))
		return report, err
	}
	logger.Info("Run finished.", zap.Int("passed", passed), zap.Int("failed", failed),
		zap.Int("skipped", skipped), zap.Duration("duration", report.Duration()))
	return report, nil
}

// runScenario runs one scenario, turning a panic into a failed outcome so
// the remaining scenarios still run. The next scenario resets the page.
func (o *Orchestrator) runScenario(ctx context.Context, sess browser.SessionContext, exec *scenario.Executor, sc Scenario, runID string) (out Outcome) {
	start := o.now()
	out.Name = sc.Name
	logger := o.logger.With(zap.String("scenario", sc.Name))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Scenario panicked.", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			out.Passed = false
			out.Err = fmt.Errorf("scenario panicked: %v", r)
		}
		out.Duration = o.now().Sub(start)
	}()

	out.Observed, out.Err = sc.Run(ctx, exec)
	out.Passed = out.Err == nil

	if out.Passed {
		logger.Info("Scenario passed.", zap.String("observed", out.Observed))
		return out
	}

	logger.Warn("Scenario failed.", zap.Error(out.Err))
	if path, err := o.captureScreenshot(ctx, sess, runID, sc.Name); err != nil {
		logger.Warn("Could not capture failure screenshot.", zap.Error(err))
	} else {
		out.Screenshot = path
	}
	return out
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// captureScreenshot saves the current page as a PNG when a screenshot
// directory is configured. It returns "" when screenshots are disabled.
func (o *Orchestrator) captureScreenshot(ctx context.Context, sess browser.SessionContext, runID, name string) (string, error) {
	if o.cfg.Run.ScreenshotDir == "" {
		return "", nil
	}
	dir, err := homedir.Expand(o.cfg.Run.ScreenshotDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	png, err := sess.Screenshot(ctx)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", runID[:8], unsafeFileChars.ReplaceAllString(name, "_")))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}
