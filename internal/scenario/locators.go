package scenario

import "github.com/xkilldash9x/shekelcheck/internal/browser"

// Locators of the application under test. These are a contract with the
// application and must not be changed to suit the harness.
var (
	AmountInput        = browser.ByName("shekels")
	CurrencySelect     = browser.ByName("currency")
	SubmitButton       = browser.ByCSS("button[type='submit'], input[type='submit']")
	ResultRegion       = browser.ByID("result")
	ConvertAgainButton = browser.ByID("convert-again")

	Body            = browser.ByTag("body")
	Form            = browser.ByCSS("form")
	FormControls    = browser.ByCSS("form input, form select, form button")
	Labels          = browser.ByCSS("label")
	ShekelInputs    = browser.ByCSS("input[name*='shek']")
	CurrencyOptions = browser.ByCSS("select[name='currency'] option")
)
