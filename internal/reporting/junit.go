package reporting

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/shekelcheck/internal/orchestrator"
)

const suiteName = "shekelcheck"

// JUnitReporter writes a JUnit XML document CI systems can ingest.
type JUnitReporter struct {
	w io.WriteCloser
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func (r *JUnitReporter) Write(report *orchestrator.Report) error {
	_, failed, skipped := report.Counts()
	errorsCount := 0
	if report.Fatal != nil {
		errorsCount = 1
	}
	tests := len(report.Outcomes) + errorsCount

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", suiteName)
	suites.CreateAttr("tests", strconv.Itoa(tests))
	suites.CreateAttr("failures", strconv.Itoa(failed))
	suites.CreateAttr("errors", strconv.Itoa(errorsCount))
	suites.CreateAttr("skipped", strconv.Itoa(skipped))
	suites.CreateAttr("time", seconds(report.Duration()))

	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", suiteName)
	suite.CreateAttr("id", report.RunID)
	suite.CreateAttr("tests", strconv.Itoa(tests))
	suite.CreateAttr("failures", strconv.Itoa(failed))
	suite.CreateAttr("errors", strconv.Itoa(errorsCount))
	suite.CreateAttr("skipped", strconv.Itoa(skipped))
	suite.CreateAttr("time", seconds(report.Duration()))
	if !report.Started.IsZero() {
		suite.CreateAttr("timestamp", report.Started.UTC().Format(time.RFC3339))
	}

	props := suite.CreateElement("properties")
	prop := props.CreateElement("property")
	prop.CreateAttr("name", "base_url")
	prop.CreateAttr("value", report.BaseURL)

	for _, o := range report.Outcomes {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", o.Name)
		tc.CreateAttr("classname", suiteName)
		tc.CreateAttr("time", seconds(o.Duration))

		switch {
		case o.Skipped:
			s := tc.CreateElement("skipped")
			if o.Err != nil {
				s.CreateAttr("message", o.Err.Error())
			}
		case !o.Passed:
			d := Diagnose(o.Err)
			f := tc.CreateElement("failure")
			f.CreateAttr("type", d.Kind)
			if o.Err != nil {
				f.CreateAttr("message", o.Err.Error())
			}
			f.SetText(failureBody(o, d))
		}
		if o.Observed != "" {
			tc.CreateElement("system-out").SetText(o.Observed)
		}
	}

	if report.Fatal != nil {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", "session")
		tc.CreateAttr("classname", suiteName)
		tc.CreateAttr("time", "0.000")
		e := tc.CreateElement("error")
		e.CreateAttr("type", Diagnose(report.Fatal).Kind)
		e.CreateAttr("message", report.Fatal.Error())
	}

	doc.Indent(2)
	_, err := doc.WriteTo(r.w)
	return err
}

func failureBody(o orchestrator.Outcome, d Diagnostics) string {
	body := ""
	line := func(name, value string) {
		if value != "" {
			body += fmt.Sprintf("%s: %s\n", name, value)
		}
	}
	line("step", d.Step)
	line("check", d.Check)
	line("expected", d.Expected)
	line("actual", d.Actual)
	line("locator", d.Locator)
	line("condition", d.Condition)
	if d.Timeout > 0 {
		line("timeout", d.Timeout.String())
	}
	line("last state", d.LastState)
	line("screenshot", o.Screenshot)
	return body
}

func (r *JUnitReporter) Close() error { return r.w.Close() }
