// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment overrides (SHEKELCHECK_APP_BASE_URL, ...).
const EnvPrefix = "SHEKELCHECK"

// Config holds the entire harness configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	App     AppConfig     `mapstructure:"app" yaml:"app"`
	Wait    WaitConfig    `mapstructure:"wait" yaml:"wait"`
	Run     RunConfig     `mapstructure:"run" yaml:"run"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds the launch settings for the browser session.
type BrowserConfig struct {
	Headless       bool `mapstructure:"headless" yaml:"headless"`
	DisableSandbox bool `mapstructure:"disable_sandbox" yaml:"disable_sandbox"`
	WindowWidth    int  `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight   int  `mapstructure:"window_height" yaml:"window_height"`
	// ImplicitWait bounds every single driver command that looks up an element.
	ImplicitWait      time.Duration `mapstructure:"implicit_wait" yaml:"implicit_wait"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	StartupTimeout    time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	Debug             bool          `mapstructure:"debug" yaml:"debug"`
}

// AppConfig describes the application under test.
type AppConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// WaitConfig tunes the synchronization layer.
type WaitConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout" yaml:"submit_timeout"`
	// SettleTimeout bounds how long a flow with no guaranteed outcome watches for one.
	SettleTimeout time.Duration `mapstructure:"settle_timeout" yaml:"settle_timeout"`
}

// RunConfig holds the per-invocation settings, mostly populated from CLI flags.
type RunConfig struct {
	Verbose       bool     `mapstructure:"verbose" yaml:"verbose"`
	Format        string   `mapstructure:"format" yaml:"format"`
	Output        string   `mapstructure:"output" yaml:"output"`
	CatalogFile   string   `mapstructure:"catalog_file" yaml:"catalog_file"`
	ScreenshotDir string   `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	Only          []string `mapstructure:"only" yaml:"only"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration parameter.
// Every key needs one, otherwise AutomaticEnv cannot see it during Unmarshal.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "shekelcheck")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_sandbox", true)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.implicit_wait", "10s")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.startup_timeout", "30s")
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.debug", false)

	// -- Application under test --
	v.SetDefault("app.base_url", "http://localhost:3000")

	// -- Wait --
	v.SetDefault("wait.timeout", "10s")
	v.SetDefault("wait.poll_interval", "100ms")
	v.SetDefault("wait.submit_timeout", "15s")
	v.SetDefault("wait.settle_timeout", "2s")

	// -- Run --
	v.SetDefault("run.verbose", false)
	v.SetDefault("run.format", "text")
	v.SetDefault("run.output", "")
	v.SetDefault("run.catalog_file", "")
	v.SetDefault("run.screenshot_dir", "")
	v.SetDefault("run.only", []string{})
}

// Resolve binds the environment (prefixed and legacy variables) and
// unmarshals the result without validating it.
func Resolve(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The legacy names used by existing CI pipelines are honored after the prefixed ones.
	if err := v.BindEnv("app.base_url", EnvPrefix+"_APP_BASE_URL", "APP_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind app.base_url: %w", err)
	}
	if err := v.BindEnv("browser.headless", EnvPrefix+"_BROWSER_HEADLESS", "HEADLESS"); err != nil {
		return nil, fmt.Errorf("failed to bind browser.headless: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.App.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")
	return &cfg, nil
}

// NewConfigFromViper resolves the configuration and validates it.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	cfg, err := Resolve(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the harness cannot run with.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app configuration invalid: %w", err)
	}
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Wait.Validate(); err != nil {
		return fmt.Errorf("wait configuration invalid: %w", err)
	}
	switch c.Run.Format {
	case "text", "json", "junit":
	default:
		return fmt.Errorf("run.format must be one of text, json, junit (got %q)", c.Run.Format)
	}
	return nil
}

// Validate checks the application settings.
func (a *AppConfig) Validate() error {
	if a.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https (got %q)", a.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url must include a host (got %q)", a.BaseURL)
	}
	return nil
}

// Validate checks the browser launch settings.
func (b *BrowserConfig) Validate() error {
	if b.WindowWidth <= 0 || b.WindowHeight <= 0 {
		return fmt.Errorf("window_width and window_height must be positive integers")
	}
	if b.ImplicitWait <= 0 {
		return fmt.Errorf("implicit_wait must be a positive duration")
	}
	if b.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation_timeout must be a positive duration")
	}
	if b.StartupTimeout <= 0 {
		return fmt.Errorf("startup_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the synchronization settings.
func (w *WaitConfig) Validate() error {
	if w.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if w.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if w.PollInterval >= w.Timeout {
		return fmt.Errorf("poll_interval (%v) must be shorter than timeout (%v)", w.PollInterval, w.Timeout)
	}
	if w.SubmitTimeout <= 0 {
		return fmt.Errorf("submit_timeout must be a positive duration")
	}
	if w.SettleTimeout <= 0 {
		return fmt.Errorf("settle_timeout must be a positive duration")
	}
	return nil
}
