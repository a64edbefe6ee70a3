package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/shekelcheck/internal/browser"
	"github.com/xkilldash9x/shekelcheck/internal/catalog"
	"github.com/xkilldash9x/shekelcheck/internal/config"
	"github.com/xkilldash9x/shekelcheck/internal/observability"
	"github.com/xkilldash9x/shekelcheck/internal/orchestrator"
	"github.com/xkilldash9x/shekelcheck/internal/reporting"
)

// ScenarioFailureError is returned by the run command when the run
// completed but at least one scenario did not pass.
type ScenarioFailureError struct {
	Failed, Skipped, Total int
}

func (e *ScenarioFailureError) Error() string {
	return fmt.Sprintf("%d of %d scenarios failed (%d skipped)", e.Failed, e.Total, e.Skipped)
}

// newRunCmd creates the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the acceptance scenarios against the converter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd)
			if err != nil {
				return err
			}
			return executeRun(cmd.Context(), cfg, observability.GetLogger())
		},
	}

	runCmd.Flags().BoolP("verbose", "v", false, "Print every scenario with the text it observed.")
	runCmd.Flags().StringP("format", "f", "text", "Report format: 'text', 'json' or 'junit'.")
	runCmd.Flags().StringP("output", "o", "", "Report file path. Defaults to stdout.")
	runCmd.Flags().String("screenshot-dir", "", "Directory for failure screenshots. Disabled when empty.")
	runCmd.Flags().String("base-url", "", "Base URL of the application under test. (Overrides config/env)")
	runCmd.Flags().Bool("headless", true, "Run the browser headless. (Overrides config/env)")
	runCmd.Flags().Duration("timeout", 0, "Default wait timeout. (Overrides config/env)")
	addCatalogFlags(runCmd)
	return runCmd
}

func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().String("catalog", "", "YAML file with extra cases, sequences and viewports.")
	cmd.Flags().StringSlice("only", nil, "Run only scenarios whose name contains one of these substrings.")
}

// loadCatalog returns the built-in catalog extended by the configured file.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if cfg.Run.CatalogFile == "" {
		return cat, nil
	}
	extra, err := catalog.Load(cfg.Run.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat.Merge(extra), nil
}

// executeRun wires the components, runs every scenario and writes the report.
func executeRun(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	reporter, err := reporting.New(cfg.Run.Format, cfg.Run.Output, cfg.Run.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	defer func() {
		if err := reporter.Close(); err != nil {
			logger.Error("Failed to close reporter", zap.Error(err))
		}
	}()

	manager := browser.NewManager(logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during browser manager shutdown", zap.Error(err))
		}
	}()

	orch, err := orchestrator.New(cfg, logger, manager, cat)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	report, runErr := orch.Run(ctx)
	if err := reporter.Write(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if !report.OK() {
		_, failed, skipped := report.Counts()
		return &ScenarioFailureError{Failed: failed, Skipped: skipped, Total: len(report.Outcomes)}
	}
	return nil
}
