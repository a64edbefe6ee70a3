// internal/browser/options.go
package browser

import (
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/shekelcheck/internal/config"
)

const (
	defaultWindowWidth       = 1920
	defaultWindowHeight      = 1080
	defaultImplicitWait      = 10 * time.Second
	defaultNavigationTimeout = 30 * time.Second
	defaultStartupTimeout    = 30 * time.Second
)

// SessionOptions controls how a browser session is launched.
type SessionOptions struct {
	Headless          bool
	DisableSandbox    bool
	WindowWidth       int
	WindowHeight      int
	ImplicitWait      time.Duration
	NavigationTimeout time.Duration
	StartupTimeout    time.Duration
	// ExecPath overrides browser discovery. Empty means let chromedp search PATH.
	ExecPath string
	// Args are extra command line switches in "--name" or "--name=value" form.
	Args  []string
	Debug bool
}

// OptionsFromConfig maps the browser section of the configuration onto SessionOptions.
func OptionsFromConfig(cfg config.BrowserConfig) SessionOptions {
	return SessionOptions{
		Headless:          cfg.Headless,
		DisableSandbox:    cfg.DisableSandbox,
		WindowWidth:       cfg.WindowWidth,
		WindowHeight:      cfg.WindowHeight,
		ImplicitWait:      cfg.ImplicitWait,
		NavigationTimeout: cfg.NavigationTimeout,
		StartupTimeout:    cfg.StartupTimeout,
		ExecPath:          cfg.ExecPath,
		Args:              append([]string(nil), cfg.Args...),
		Debug:             cfg.Debug,
	}
}

// withDefaults fills every unset numeric field.
func (o SessionOptions) withDefaults() SessionOptions {
	if o.WindowWidth <= 0 {
		o.WindowWidth = defaultWindowWidth
	}
	if o.WindowHeight <= 0 {
		o.WindowHeight = defaultWindowHeight
	}
	if o.ImplicitWait <= 0 {
		o.ImplicitWait = defaultImplicitWait
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = defaultNavigationTimeout
	}
	if o.StartupTimeout <= 0 {
		o.StartupTimeout = defaultStartupTimeout
	}
	return o
}

// launchFlag is one browser command line switch. A false bool drops the switch.
type launchFlag struct {
	Name  string
	Value interface{}
}

// launchFlags lists the switches layered over chromedp's defaults. Later
// entries win, so user supplied Args can override anything above them.
func launchFlags(o SessionOptions) []launchFlag {
	flags := []launchFlag{
		{"headless", o.Headless},
		{"hide-scrollbars", o.Headless},
		{"mute-audio", o.Headless},
		{"no-sandbox", o.DisableSandbox},
		{"disable-gpu", true},
		{"disable-dev-shm-usage", true},
		{"disable-extensions", true},
		{"disable-popup-blocking", true},
		{"start-maximized", true},
	}

	for _, arg := range o.Args {
		arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
		if arg == "" {
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			flags = append(flags, launchFlag{name, value})
		} else {
			flags = append(flags, launchFlag{arg, true})
		}
	}
	return flags
}

// AllocatorOptions builds the chromedp exec allocator options for a session.
func AllocatorOptions(o SessionOptions) []chromedp.ExecAllocatorOption {
	o = o.withDefaults()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range launchFlags(o) {
		opts = append(opts, chromedp.Flag(f.Name, f.Value))
	}
	opts = append(opts, chromedp.WindowSize(o.WindowWidth, o.WindowHeight))
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return opts
}
