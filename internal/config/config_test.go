// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "shekelcheck", cfg.Logger.ServiceName)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.DisableSandbox)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 1080, cfg.Browser.WindowHeight)
	assert.Equal(t, 10*time.Second, cfg.Browser.ImplicitWait)
	assert.Equal(t, "http://localhost:3000", cfg.App.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Wait.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Wait.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Wait.SettleTimeout)
	assert.Equal(t, "text", cfg.Run.Format)
	assert.NoError(t, cfg.Validate())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("App Validation", func(t *testing.T) {
		cases := map[string]string{
			"empty":      "",
			"no scheme":  "localhost:3000",
			"bad scheme": "ftp://localhost",
			"no host":    "http://",
		}
		for name, baseURL := range cases {
			t.Run(name, func(t *testing.T) {
				cfg := NewDefaultConfig()
				cfg.App.BaseURL = baseURL
				err := cfg.Validate()
				require.Error(t, err)
				assert.Contains(t, err.Error(), "app configuration invalid")
			})
		}
	})

	t.Run("Browser Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Browser.WindowWidth = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "window_width and window_height must be positive integers")

		cfg = NewDefaultConfig()
		cfg.Browser.ImplicitWait = 0
		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "implicit_wait must be a positive duration")
	})

	t.Run("Wait Validation", func(t *testing.T) {
		valid := WaitConfig{
			Timeout:       time.Second,
			PollInterval:  50 * time.Millisecond,
			SubmitTimeout: time.Second,
			SettleTimeout: time.Second,
		}
		assert.NoError(t, valid.Validate())

		slowPoll := valid
		slowPoll.PollInterval = 2 * time.Second
		err := slowPoll.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be shorter than timeout")

		noTimeout := valid
		noTimeout.Timeout = 0
		err = noTimeout.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout must be a positive duration")
	})

	t.Run("Format Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Run.Format = "sarif"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run.format must be one of")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		yamlConfig := []byte(`
app:
  base_url: "http://converter.internal:8080/"
browser:
  headless: false
  window_width: 1024
  window_height: 768
wait:
  timeout: 5s
  poll_interval: 250ms
run:
  format: junit
`)
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://converter.internal:8080", cfg.App.BaseURL, "trailing slash is trimmed")
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 1024, cfg.Browser.WindowWidth)
		assert.Equal(t, 5*time.Second, cfg.Wait.Timeout)
		assert.Equal(t, 250*time.Millisecond, cfg.Wait.PollInterval)
		assert.Equal(t, "junit", cfg.Run.Format)
	})

	t.Run("Prefixed Environment Overrides", func(t *testing.T) {
		t.Setenv("SHEKELCHECK_APP_BASE_URL", "http://staging:80")
		t.Setenv("SHEKELCHECK_WAIT_TIMEOUT", "3s")

		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://staging:80", cfg.App.BaseURL)
		assert.Equal(t, 3*time.Second, cfg.Wait.Timeout)
	})

	t.Run("Keys Without A Meaningful Default Still Read The Environment", func(t *testing.T) {
		t.Setenv("SHEKELCHECK_BROWSER_EXEC_PATH", "/opt/chrome/chrome")
		t.Setenv("SHEKELCHECK_RUN_SCREENSHOT_DIR", "/tmp/shots")

		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "/opt/chrome/chrome", cfg.Browser.ExecPath)
		assert.Equal(t, "/tmp/shots", cfg.Run.ScreenshotDir)
	})

	t.Run("Legacy Environment Names", func(t *testing.T) {
		t.Setenv("APP_URL", "http://localhost:80")
		t.Setenv("HEADLESS", "false")

		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:80", cfg.App.BaseURL)
		assert.False(t, cfg.Browser.Headless)
	})

	t.Run("Prefixed Name Wins Over Legacy", func(t *testing.T) {
		t.Setenv("APP_URL", "http://legacy:80")
		t.Setenv("SHEKELCHECK_APP_BASE_URL", "http://preferred:80")

		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://preferred:80", cfg.App.BaseURL)
	})

	t.Run("Invalid Values Are Rejected", func(t *testing.T) {
		t.Setenv("SHEKELCHECK_RUN_FORMAT", "xml")

		v := viper.New()
		SetDefaults(v)
		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestResolveSkipsValidation(t *testing.T) {
	t.Setenv("APP_URL", "not a url")

	v := viper.New()
	SetDefaults(v)
	cfg, err := Resolve(v)
	require.NoError(t, err)
	assert.Equal(t, "not a url", cfg.App.BaseURL)
	assert.Error(t, cfg.Validate())
}
