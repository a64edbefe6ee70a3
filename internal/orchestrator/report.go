package orchestrator

import (
	"time"
)

// Outcome is the result of one scenario.
type Outcome struct {
	Name    string
	Passed  bool
	Skipped bool
	// Observed is what the scenario saw, e.g. the rendered result text.
	Observed   string
	Err        error
	Duration   time.Duration
	Screenshot string
}

// Report summarizes a run.
type Report struct {
	RunID    string
	BaseURL  string
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
	// Fatal is a run-level failure: the browser did not start or could not be torn down.
	Fatal error
}

// Counts returns the number of passed, failed and skipped scenarios.
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, o := range r.Outcomes {
		switch {
		case o.Skipped:
			skipped++
		case o.Passed:
			passed++
		default:
			failed++
		}
	}
	return passed, failed, skipped
}

// OK reports whether every scenario passed and the run had no fatal error.
func (r *Report) OK() bool {
	if r.Fatal != nil {
		return false
	}
	_, failed, skipped := r.Counts()
	return failed == 0 && skipped == 0
}

// Duration is the wall-clock length of the run.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
