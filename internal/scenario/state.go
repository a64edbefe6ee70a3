package scenario

import (
	"fmt"
	"strings"
)

// ConversionResult is what the result page showed after a submission.
type ConversionResult struct {
	Text string
	URL  string
}

// PageState is a snapshot of where a flow left the browser.
type PageState struct {
	URL           string
	Title         string
	ResultPresent bool
	ResultText    string
	FormShown     bool
	AmountValue   string
	// Notes records steps that could not be carried out, for flows that
	// observe rather than fail.
	Notes []string
}

// Summary renders the state on one line.
func (s PageState) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "url=%s title=%q form_shown=%t", s.URL, s.Title, s.FormShown)
	if s.ResultPresent {
		fmt.Fprintf(&b, " result=%q", s.ResultText)
	} else {
		b.WriteString(" result=<none>")
	}
	if len(s.Notes) > 0 {
		fmt.Fprintf(&b, " notes=[%s]", strings.Join(s.Notes, "; "))
	}
	return b.String()
}

// FormInspection describes the conversion form as found on the page.
type FormInspection struct {
	FormPresent     bool
	ControlCount    int
	LabelCount      int
	ShekelInputs    int
	AmountType      string
	CurrencyOptions []string
}

// HasOption reports whether the currency select offers value.
func (f FormInspection) HasOption(value string) bool {
	for _, v := range f.CurrencyOptions {
		if v == value {
			return true
		}
	}
	return false
}
