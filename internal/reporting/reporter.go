// -- internal/reporting/reporter.go --
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/shekelcheck/internal/orchestrator"
)

// Reporter renders a run report to an output.
type Reporter interface {
	// Write renders the report.
	Write(report *orchestrator.Report) error
	// Close finalizes the output and closes any underlying file.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for format writing to outputPath ("" or "stdout" for Stdout).
func New(format, outputPath string, verbose bool) (Reporter, error) {
	switch format {
	case "text", "json", "junit":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		path, err := homedir.Expand(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to expand output path %s: %w", outputPath, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory for %s: %w", path, err)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		writer = f
	}

	return NewWithWriter(format, writer, verbose)
}

// NewWithWriter creates a reporter that takes ownership of w.
func NewWithWriter(format string, w io.WriteCloser, verbose bool) (Reporter, error) {
	switch format {
	case "text":
		return &TextReporter{w: w, verbose: verbose}, nil
	case "json":
		return &JSONReporter{w: w}, nil
	case "junit":
		return &JUnitReporter{w: w}, nil
	default:
		w.Close()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func status(o orchestrator.Outcome) string {
	switch {
	case o.Skipped:
		return "SKIP"
	case o.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}
