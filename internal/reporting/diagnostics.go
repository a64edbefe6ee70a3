package reporting

import (
	"errors"
	"time"

	"github.com/xkilldash9x/shekelcheck/internal/assertion"
	"github.com/xkilldash9x/shekelcheck/internal/browser"
	"github.com/xkilldash9x/shekelcheck/internal/scenario"
	"github.com/xkilldash9x/shekelcheck/internal/waiter"
)

// Diagnostics is the structured detail extracted from a scenario failure.
type Diagnostics struct {
	Kind      string        `json:"kind"`
	Flow      string        `json:"flow,omitempty"`
	Step      string        `json:"step,omitempty"`
	Check     string        `json:"check,omitempty"`
	Expected  string        `json:"expected,omitempty"`
	Actual    string        `json:"actual,omitempty"`
	Locator   string        `json:"locator,omitempty"`
	Condition string        `json:"condition,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty"`
	LastState string        `json:"last_state,omitempty"`
	Currency  string        `json:"currency,omitempty"`
	Available []string      `json:"available,omitempty"`
}

// Diagnose classifies err by the error taxonomy and pulls out its details.
func Diagnose(err error) Diagnostics {
	var d Diagnostics
	if err == nil {
		return d
	}

	var step *scenario.StepError
	if errors.As(err, &step) {
		d.Flow, d.Step = step.Flow, step.Step
	}

	var (
		failure  *assertion.AssertionFailure
		timeout  *waiter.WaitTimeoutError
		notFound *scenario.OptionNotFoundError
		startup  *browser.SessionStartupError
		teardown *browser.TeardownError
	)
	switch {
	case errors.As(err, &failure):
		d.Kind = "AssertionFailure"
		d.Check = string(failure.Check)
		d.Expected = failure.Expected
		d.Actual = failure.Actual
	case errors.As(err, &timeout):
		d.Kind = "WaitTimeoutError"
		d.Locator = timeout.Locator.String()
		d.Condition = timeout.Condition.String()
		d.Timeout = timeout.Timeout
		d.LastState = stateSummary(timeout.LastState)
	case errors.As(err, &notFound):
		d.Kind = "OptionNotFoundError"
		d.Currency = string(notFound.Currency)
		d.Available = notFound.Available
	case errors.As(err, &startup):
		d.Kind = "SessionStartupError"
	case errors.As(err, &teardown):
		d.Kind = "TeardownError"
	case errors.Is(err, scenario.ErrNotOnForm):
		d.Kind = "NotOnForm"
	case errors.Is(err, browser.ErrStaleElement):
		d.Kind = "StaleElement"
	default:
		d.Kind = "Error"
	}
	return d
}

func stateSummary(s browser.ElementState) string {
	if !s.Present {
		return "absent"
	}
	out := "present"
	if s.Visible {
		out += ",visible"
	} else {
		out += ",hidden"
	}
	if !s.Enabled {
		out += ",disabled"
	}
	if s.Obscured {
		out += ",obscured"
	}
	return out
}
