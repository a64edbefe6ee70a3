// Package scenario encodes the user-facing flows of the conversion form as
// locate, act and wait steps against a browser page.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/shekelcheck/internal/browser"
	"github.com/xkilldash9x/shekelcheck/internal/catalog"
	"github.com/xkilldash9x/shekelcheck/internal/config"
	"github.com/xkilldash9x/shekelcheck/internal/waiter"
)

// Options configures an Executor.
type Options struct {
	BaseURL string
	// SubmitTimeout bounds waits that follow a navigation-triggering click.
	SubmitTimeout time.Duration
	// SettleTimeout bounds how long flows without a guaranteed outcome watch for one.
	SettleTimeout time.Duration
	// DefaultViewport is restored after CheckViewport.
	DefaultViewport catalog.Viewport
}

// OptionsFromConfig builds executor options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:       cfg.App.BaseURL,
		SubmitTimeout: cfg.Wait.SubmitTimeout,
		SettleTimeout: cfg.Wait.SettleTimeout,
		DefaultViewport: catalog.Viewport{
			Width:  cfg.Browser.WindowWidth,
			Height: cfg.Browser.WindowHeight,
		},
	}
}

// Executor runs flows on one page. It is not safe for concurrent use; the
// page belongs to one flow at a time.
type Executor struct {
	page   browser.Page
	waiter *waiter.Waiter
	opts   Options
	logger *zap.Logger
}

// NewExecutor creates an Executor for page.
func NewExecutor(page browser.Page, w *waiter.Waiter, opts Options, logger *zap.Logger) *Executor {
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = w.DefaultTimeout()
	}
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = 2 * time.Second
	}
	return &Executor{
		page:   page,
		waiter: w,
		opts:   opts,
		logger: logger.Named("scenario"),
	}
}

func (e *Executor) formURL() string { return e.opts.BaseURL + "/" }

func step(flow, name string, err error) error {
	return &StepError{Flow: flow, Step: name, Err: err}
}

// Reset navigates to the base URL and waits for the document body, leaving
// the page in a known baseline with no prior input or result.
func (e *Executor) Reset(ctx context.Context) error {
	if err := e.page.Navigate(ctx, e.formURL()); err != nil {
		return step("reset", "navigate to base url", err)
	}
	if _, err := e.waiter.WaitFor(ctx, e.page, Body, waiter.Present, 0); err != nil {
		return step("reset", "wait for document body", err)
	}
	return nil
}

// fillForm enters amount and picks currency on a freshly reset form.
func (e *Executor) fillForm(ctx context.Context, flow, amount string, currency catalog.Currency) error {
	input, err := e.waiter.WaitFor(ctx, e.page, AmountInput, waiter.Present, 0)
	if err != nil {
		return step(flow, "wait for amount input", err)
	}
	if err := e.page.Fill(ctx, input, amount); err != nil {
		return step(flow, "enter amount", err)
	}

	sel, err := e.waiter.WaitFor(ctx, e.page, CurrencySelect, waiter.Present, 0)
	if err != nil {
		return step(flow, "locate currency select", err)
	}
	found, err := e.page.SelectOption(ctx, sel, string(currency))
	if err != nil {
		return step(flow, "select currency", err)
	}
	if !found {
		available, listErr := e.page.AttributeValues(ctx, CurrencyOptions, "value")
		if listErr != nil {
			e.logger.Debug("Could not list currency options.", zap.Error(listErr))
		}
		return step(flow, "select currency", &OptionNotFoundError{Currency: currency, Available: available})
	}
	return nil
}

func (e *Executor) submit(ctx context.Context, flow string) error {
	btn, err := e.waiter.WaitFor(ctx, e.page, SubmitButton, waiter.Clickable, 0)
	if err != nil {
		return step(flow, "wait for submit clickable", err)
	}
	if err := e.page.Click(ctx, btn); err != nil {
		return step(flow, "click submit", err)
	}
	return nil
}

// Convert submits one conversion from a fresh form and returns the rendered result.
func (e *Executor) Convert(ctx context.Context, amount string, currency catalog.Currency) (ConversionResult, error) {
	const flow = "convert"
	logger := e.logger.With(zap.String("amount", amount), zap.String("currency", string(currency)))
	logger.Debug("Starting conversion.")

	if err := e.Reset(ctx); err != nil {
		return ConversionResult{}, err
	}
	if err := e.fillForm(ctx, flow, amount, currency); err != nil {
		return ConversionResult{}, err
	}
	if err := e.submit(ctx, flow); err != nil {
		return ConversionResult{}, err
	}

	result, err := e.waiter.WaitFor(ctx, e.page, ResultRegion, waiter.Present, e.opts.SubmitTimeout)
	if err != nil {
		return ConversionResult{}, step(flow, "wait for result", err)
	}

	url, err := e.page.URL(ctx)
	if err != nil {
		return ConversionResult{}, step(flow, "read result url", err)
	}

	logger.Debug("Conversion rendered.", zap.String("result", result.State.Text))
	return ConversionResult{Text: result.State.Text, URL: url}, nil
}

// ConvertAgain clicks "convert again" on a result page and confirms the
// form is back and displayed. It returns the form's state.
func (e *Executor) ConvertAgain(ctx context.Context) (PageState, error) {
	const flow = "convert-again"

	btn, err := e.waiter.WaitFor(ctx, e.page, ConvertAgainButton, waiter.Clickable, 0)
	if err != nil {
		return PageState{}, step(flow, "wait for convert-again clickable", err)
	}
	if err := e.page.Click(ctx, btn); err != nil {
		return PageState{}, step(flow, "click convert-again", err)
	}

	input, err := e.waiter.WaitFor(ctx, e.page, AmountInput, waiter.Present, e.opts.SubmitTimeout)
	if err != nil {
		return PageState{}, step(flow, "wait for amount input", err)
	}
	if !input.State.Displayed() {
		return PageState{}, step(flow, "check form displayed", ErrNotOnForm)
	}

	state := PageState{FormShown: true, AmountValue: input.State.Value}
	if state.URL, err = e.page.URL(ctx); err != nil {
		return PageState{}, step(flow, "read url", err)
	}
	return state, nil
}

// EmptyInputSubmit submits the form with no amount and records where the
// application ends up. Whatever the application does is a valid outcome;
// only a session that can no longer be driven is reported as an error.
func (e *Executor) EmptyInputSubmit(ctx context.Context, currency catalog.Currency) (PageState, error) {
	const flow = "empty-input"

	if err := e.Reset(ctx); err != nil {
		return PageState{}, err
	}

	var notes []string
	note := func(err error) { notes = append(notes, err.Error()) }

	if err := e.fillForm(ctx, flow, "", currency); err != nil {
		if fatal(ctx, err) {
			return PageState{}, err
		}
		note(err)
	}
	if err := e.submit(ctx, flow); err != nil {
		if fatal(ctx, err) {
			return PageState{}, err
		}
		note(err)
	}

	// Give the application a bounded chance to render something.
	if _, err := e.waiter.WaitFor(ctx, e.page, ResultRegion, waiter.TextNonEmpty, e.opts.SettleTimeout); err != nil && fatal(ctx, err) {
		return PageState{}, step(flow, "watch for result", err)
	}

	state, err := e.Snapshot(ctx)
	if err != nil {
		return PageState{}, step(flow, "snapshot", err)
	}
	state.Notes = append(notes, state.Notes...)
	e.logger.Debug("Empty input outcome recorded.", zap.String("state", state.Summary()))
	return state, nil
}

// fatal reports whether err means the session can no longer be driven.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, browser.ErrSessionReleased)
}

// Snapshot records the current URL, title, result region and form state.
// Errors reading individual elements become notes.
func (e *Executor) Snapshot(ctx context.Context) (PageState, error) {
	var state PageState
	var err error

	if state.URL, err = e.page.URL(ctx); err != nil {
		return PageState{}, err
	}
	if state.Title, err = e.page.Title(ctx); err != nil {
		return PageState{}, err
	}

	if result, err := e.page.Probe(ctx, ResultRegion); err != nil {
		if fatal(ctx, err) {
			return PageState{}, err
		}
		state.Notes = append(state.Notes, fmt.Sprintf("probe result: %v", err))
	} else {
		state.ResultPresent = result.Present
		state.ResultText = result.Text
	}

	if input, err := e.page.Probe(ctx, AmountInput); err != nil {
		if fatal(ctx, err) {
			return PageState{}, err
		}
		state.Notes = append(state.Notes, fmt.Sprintf("probe amount input: %v", err))
	} else {
		state.FormShown = input.Displayed()
		state.AmountValue = input.Value
	}
	return state, nil
}

// HomepageLoads opens the base URL and records the page it lands on.
func (e *Executor) HomepageLoads(ctx context.Context) (PageState, error) {
	if err := e.Reset(ctx); err != nil {
		return PageState{}, err
	}
	state, err := e.Snapshot(ctx)
	if err != nil {
		return PageState{}, step("homepage", "snapshot", err)
	}
	return state, nil
}

// InspectForm locates the form controls with each locator strategy and
// collects what a user would see.
func (e *Executor) InspectForm(ctx context.Context) (FormInspection, error) {
	const flow = "inspect-form"

	if err := e.Reset(ctx); err != nil {
		return FormInspection{}, err
	}
	if _, err := e.waiter.WaitFor(ctx, e.page, AmountInput, waiter.Present, 0); err != nil {
		return FormInspection{}, step(flow, "wait for amount input", err)
	}
	if _, err := e.waiter.WaitFor(ctx, e.page, CurrencySelect, waiter.Present, 0); err != nil {
		return FormInspection{}, step(flow, "locate currency select", err)
	}
	if _, err := e.waiter.WaitFor(ctx, e.page, SubmitButton, waiter.Present, 0); err != nil {
		return FormInspection{}, step(flow, "locate submit control", err)
	}

	var (
		insp FormInspection
		err  error
	)
	forms, err := e.page.Count(ctx, Form)
	if err != nil {
		return FormInspection{}, step(flow, "count forms", err)
	}
	insp.FormPresent = forms > 0
	if insp.ControlCount, err = e.page.Count(ctx, FormControls); err != nil {
		return FormInspection{}, step(flow, "count form controls", err)
	}
	if insp.LabelCount, err = e.page.Count(ctx, Labels); err != nil {
		return FormInspection{}, step(flow, "count labels", err)
	}
	if insp.ShekelInputs, err = e.page.Count(ctx, ShekelInputs); err != nil {
		return FormInspection{}, step(flow, "count shekel inputs", err)
	}
	types, err := e.page.AttributeValues(ctx, AmountInput, "type")
	if err != nil {
		return FormInspection{}, step(flow, "read amount input type", err)
	}
	if len(types) > 0 {
		insp.AmountType = types[0]
	}
	if insp.CurrencyOptions, err = e.page.AttributeValues(ctx, CurrencyOptions, "value"); err != nil {
		return FormInspection{}, step(flow, "list currency options", err)
	}
	return insp, nil
}

// CheckViewport resizes the page, reloads the form and confirms the amount
// input is displayed. The default viewport is restored afterwards.
func (e *Executor) CheckViewport(ctx context.Context, vp catalog.Viewport) (err error) {
	flow := "viewport-" + vp.String()

	if err := e.page.SetViewport(ctx, vp.Width, vp.Height); err != nil {
		return step(flow, "resize", err)
	}
	defer func() {
		def := e.opts.DefaultViewport
		if def.Width <= 0 || def.Height <= 0 {
			return
		}
		if restoreErr := e.page.SetViewport(ctx, def.Width, def.Height); restoreErr != nil && err == nil {
			err = step(flow, "restore viewport", restoreErr)
		}
	}()

	if err := e.Reset(ctx); err != nil {
		return err
	}
	input, err := e.waiter.WaitFor(ctx, e.page, AmountInput, waiter.Present, 0)
	if err != nil {
		return step(flow, "wait for amount input", err)
	}
	if !input.State.Displayed() {
		return step(flow, "check amount input displayed", ErrNotOnForm)
	}
	return nil
}
