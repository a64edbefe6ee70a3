// Package assertion compares rendered conversion output with catalog expectations.
//
// Matching is substring based: "27" and "27.00" both match "₪100 = $27.00".
// This tolerates formatting variance at the cost of possible false positives
// when an expected value happens to be part of an unrelated number.
package assertion

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/shekelcheck/internal/catalog"
)

// SourceMarker prefixes the original amount in the rendered result.
const SourceMarker = "₪"

// Check names one sub-check of a conversion assertion.
type Check string

const (
	CheckSourceAmount   Check = "source-amount"
	CheckTargetSymbol   Check = "target-symbol"
	CheckConvertedValue Check = "converted-value"

	CheckIdempotent       Check = "idempotent"
	CheckFormDisplayed    Check = "form-displayed"
	CheckFormControls     Check = "form-controls"
	CheckCurrencyOptions  Check = "currency-options"
	CheckGracefulResponse Check = "graceful-response"
)

// AssertionFailure reports the first sub-check that did not hold.
type AssertionFailure struct {
	Check    Check
	Expected string
	Actual   string
}

func (f *AssertionFailure) Error() string {
	return fmt.Sprintf("assertion %s failed: expected %q, observed %q", f.Check, f.Expected, f.Actual)
}

// AssertConversion runs the checks in order: the amount prefixed by the
// shekel marker, the target symbol, and, when the case names one, the
// converted value. It returns *AssertionFailure for the first that fails.
func AssertConversion(rendered string, expected catalog.ConversionCase) error {
	checks := []struct {
		check Check
		want  string
	}{
		{CheckSourceAmount, SourceMarker + expected.Amount},
		{CheckTargetSymbol, expected.ExpectedSymbol},
		{CheckConvertedValue, expected.ExpectedValue},
	}

	for _, c := range checks {
		if c.want == "" && c.check == CheckConvertedValue {
			continue
		}
		if !strings.Contains(rendered, c.want) {
			return &AssertionFailure{Check: c.check, Expected: c.want, Actual: rendered}
		}
	}
	return nil
}

// AssertEqual fails check unless actual equals expected.
func AssertEqual(check Check, expected, actual string) error {
	if expected != actual {
		return &AssertionFailure{Check: check, Expected: expected, Actual: actual}
	}
	return nil
}

// AssertTrue fails check when cond is false. description says what should have held.
func AssertTrue(check Check, cond bool, description, observed string) error {
	if !cond {
		return &AssertionFailure{Check: check, Expected: description, Actual: observed}
	}
	return nil
}
