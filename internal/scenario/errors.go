package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/shekelcheck/internal/catalog"
)

// ErrNotOnForm means a flow expected the input form but the amount input is
// not displayed.
var ErrNotOnForm = errors.New("amount input is not displayed; not on the conversion form")

// OptionNotFoundError means the currency select offers no option with the
// requested value, i.e. the catalog and the application disagree.
type OptionNotFoundError struct {
	Currency  catalog.Currency
	Available []string
}

func (e *OptionNotFoundError) Error() string {
	return fmt.Sprintf("currency option %q not found (available: [%s])", e.Currency, strings.Join(e.Available, ", "))
}

// StepError records which step of which flow failed. The underlying error
// keeps its own type (*waiter.WaitTimeoutError, *OptionNotFoundError, ...).
type StepError struct {
	Flow string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Flow, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
