package reporting

import (
	"io"
	"time"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/shekelcheck/internal/orchestrator"
)

// JSONReporter writes the report as one indented JSON document.
type JSONReporter struct {
	w io.WriteCloser
}

type jsonSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type jsonScenario struct {
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	DurationMS  int64        `json:"duration_ms"`
	Observed    string       `json:"observed,omitempty"`
	Error       string       `json:"error,omitempty"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
	Screenshot  string       `json:"screenshot,omitempty"`
}

type jsonReport struct {
	RunID      string         `json:"run_id"`
	BaseURL    string         `json:"base_url"`
	Started    time.Time      `json:"started"`
	Finished   time.Time      `json:"finished"`
	DurationMS int64          `json:"duration_ms"`
	OK         bool           `json:"ok"`
	Summary    jsonSummary    `json:"summary"`
	Scenarios  []jsonScenario `json:"scenarios"`
	Fatal      string         `json:"fatal,omitempty"`
}

func (r *JSONReporter) Write(report *orchestrator.Report) error {
	passed, failed, skipped := report.Counts()
	doc := jsonReport{
		RunID:      report.RunID,
		BaseURL:    report.BaseURL,
		Started:    report.Started,
		Finished:   report.Finished,
		DurationMS: report.Duration().Milliseconds(),
		OK:         report.OK(),
		Summary:    jsonSummary{Total: len(report.Outcomes), Passed: passed, Failed: failed, Skipped: skipped},
		Scenarios:  make([]jsonScenario, 0, len(report.Outcomes)),
	}
	if report.Fatal != nil {
		doc.Fatal = report.Fatal.Error()
	}

	for _, o := range report.Outcomes {
		sc := jsonScenario{
			Name:       o.Name,
			Status:     status(o),
			DurationMS: o.Duration.Milliseconds(),
			Observed:   o.Observed,
			Screenshot: o.Screenshot,
		}
		if o.Err != nil {
			sc.Error = o.Err.Error()
			if !o.Skipped {
				d := Diagnose(o.Err)
				sc.Diagnostics = &d
			}
		}
		doc.Scenarios = append(doc.Scenarios, sc)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = r.w.Write(append(data, '\n'))
	return err
}

func (r *JSONReporter) Close() error { return r.w.Close() }
