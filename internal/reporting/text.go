package reporting

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xkilldash9x/shekelcheck/internal/orchestrator"
)

// TextReporter prints one line per scenario and full diagnostics for
// failures. In verbose mode the observed text of every scenario is printed.
type TextReporter struct {
	w       io.WriteCloser
	verbose bool
}

func (r *TextReporter) Write(report *orchestrator.Report) error {
	bw := bufio.NewWriter(r.w)

	fmt.Fprintf(bw, "shekelcheck run %s against %s\n", shortID(report.RunID), report.BaseURL)
	for _, o := range report.Outcomes {
		fmt.Fprintf(bw, "%-4s  %s (%s)\n", status(o), o.Name, o.Duration.Round(time.Millisecond))

		if o.Observed != "" && (r.verbose || !o.Passed) {
			fmt.Fprintf(bw, "      observed: %s\n", o.Observed)
		}
		if o.Passed || o.Err == nil {
			continue
		}
		if o.Skipped {
			fmt.Fprintf(bw, "      reason: %v\n", o.Err)
			continue
		}
		writeDiagnostics(bw, o.Err)
		if o.Screenshot != "" {
			fmt.Fprintf(bw, "      screenshot: %s\n", o.Screenshot)
		}
	}

	passed, failed, skipped := report.Counts()
	fmt.Fprintf(bw, "\n%d scenarios: %d passed, %d failed, %d skipped in %s\n",
		len(report.Outcomes), passed, failed, skipped, report.Duration().Round(time.Millisecond))
	if report.Fatal != nil {
		fmt.Fprintf(bw, "FATAL: %v\n", report.Fatal)
	}
	return bw.Flush()
}

func writeDiagnostics(w io.Writer, err error) {
	d := Diagnose(err)
	fmt.Fprintf(w, "      error: %v\n", err)

	var fields []string
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, fmt.Sprintf("%s: %s", name, value))
		}
	}
	add("kind", d.Kind)
	add("step", d.Step)
	add("check", d.Check)
	if d.Kind == "AssertionFailure" {
		add("expected", fmt.Sprintf("%q", d.Expected))
		add("actual", fmt.Sprintf("%q", d.Actual))
	}
	add("locator", d.Locator)
	add("condition", d.Condition)
	if d.Timeout > 0 {
		add("timeout", d.Timeout.String())
	}
	add("last state", d.LastState)
	add("currency", d.Currency)
	if len(d.Available) > 0 {
		add("available", strings.Join(d.Available, ", "))
	}
	for _, f := range fields {
		fmt.Fprintf(w, "      %s\n", f)
	}
}

func (r *TextReporter) Close() error { return r.w.Close() }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
