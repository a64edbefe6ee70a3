package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/shekelcheck/internal/browser"
	"github.com/xkilldash9x/shekelcheck/internal/catalog"
	"github.com/xkilldash9x/shekelcheck/internal/config"
	"github.com/xkilldash9x/shekelcheck/internal/orchestrator"
	"github.com/xkilldash9x/shekelcheck/internal/testapp"
)

func TestFullCatalogAgainstReferenceApp(t *testing.T) {
	execPath := testapp.RequireChrome(t)
	srv := testapp.NewServer(t)
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))

	cfg := config.NewDefaultConfig()
	cfg.App.BaseURL = srv.URL
	cfg.Browser.ExecPath = execPath
	cfg.Wait.SettleTimeout = 500 * time.Millisecond

	mgr := browser.NewManager(logger)
	o, err := orchestrator.New(cfg, logger, mgr, catalog.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	report, err := o.Run(ctx)
	require.NoError(t, err)
	for _, out := range report.Outcomes {
		assert.True(t, out.Passed, "%s: %v", out.Name, out.Err)
	}
	assert.True(t, report.OK())
	assert.Zero(t, mgr.Active(), "the session is released at the end of the run")
}

func TestWrongRatesAreReported(t *testing.T) {
	execPath := testapp.RequireChrome(t)
	srv := testapp.NewServer(t, testapp.WithRates(map[string]float64{"usd": 0.3, "eur": 0.25, "gbp": 0.21}))
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))

	cfg := config.NewDefaultConfig()
	cfg.App.BaseURL = srv.URL
	cfg.Browser.ExecPath = execPath
	cfg.Run.Only = []string{"convert/"}

	o, err := orchestrator.New(cfg, logger, browser.NewManager(logger), catalog.Default())
	require.NoError(t, err)

	report, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 3)

	assert.False(t, report.Outcomes[0].Passed, "usd renders 30.00 instead of 27.00")
	assert.Equal(t, "₪100 = $30.00", report.Outcomes[0].Observed)
	assert.True(t, report.Outcomes[1].Passed)
	assert.True(t, report.Outcomes[2].Passed)
}
