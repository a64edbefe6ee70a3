// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/shekelcheck/internal/config"
	"github.com/xkilldash9x/shekelcheck/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// skipValidation marks commands that neither drive a browser nor reach the
// application, so a broken run configuration must not stop them.
const skipValidation = "shekelcheck/skip-validation"

// flagKeys maps command-line flags to the viper keys they override.
var flagKeys = map[string]string{
	"verbose":        "run.verbose",
	"format":         "run.format",
	"output":         "run.output",
	"catalog":        "run.catalog_file",
	"only":           "run.only",
	"screenshot-dir": "run.screenshot_dir",
	"base-url":       "app.base_url",
	"headless":       "browser.headless",
	"timeout":        "wait.timeout",
	"log-level":      "logger.level",
}

// NewRootCommand builds a fresh command tree. Each call returns independent
// flag state, which keeps tests isolated.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shekelcheck",
		Short: "End-to-end acceptance tests for the shekel currency converter.",
		// Version is set at build time. See cmd/version.go.
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "shekelcheck"})
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			load := config.NewConfigFromViper
			if cmd.Annotations[skipValidation] == "true" {
				load = config.Resolve
			}
			cfg, err := load(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "shekelcheck"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Configuration loaded.",
				zap.String("version", Version),
				zap.String("base_url", cfg.App.BaseURL),
				zap.String("config_file", v.ConfigFileUsed()))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error). (Overrides config/env)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the command tree with a signal-aware context.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		observability.GetLogger().Warn("Run interrupted.")
	} else {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	observability.Sync()
	return err
}

// initializeConfig reads the config file, if any, and binds the flags of cmd
// so that flags override config file and environment values.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to expand config path %s: %w", cfgFile, err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = errors.Join(bindErr, fmt.Errorf("failed to bind --%s: %w", f.Name, err))
		}
	})
	return bindErr
}

// configFromContext returns the configuration stored by PersistentPreRunE.
func configFromContext(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
