package testapp

import (
	"net/http/httptest"
	"os/exec"
	"testing"
)

// browserCandidates mirrors the executable names chromedp searches for.
var browserCandidates = []string{
	"headless-shell",
	"headless_shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"google-chrome-beta",
	"google-chrome-unstable",
	"chrome",
}

// FindChrome returns the first Chrome-family executable on PATH.
func FindChrome() (string, bool) {
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// RequireChrome skips the test in -short mode or when no browser is installed.
func RequireChrome(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	path, ok := FindChrome()
	if !ok {
		t.Skip("skipping browser integration test: no Chrome or Chromium executable on PATH")
	}
	return path
}

// NewServer starts the reference application on a loopback port for the
// duration of the test.
func NewServer(t testing.TB, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}
