// Package testapp serves a reference build of the shekel conversion form. It
// backs the integration tests and the `serve` command, and follows the
// behavior of the production application: POST /convert renders
// "₪<amount> = <symbol><converted>" in #result with two decimals.
package testapp

import (
	"context"
	"errors"
	"html/template"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DefaultRates are the conversion rates of the production application.
var DefaultRates = map[string]float64{
	"usd": 0.27,
	"eur": 0.25,
	"gbp": 0.21,
}

var symbols = map[string]string{"usd": "$", "eur": "€", "gbp": "£"}

// App is the reference conversion application.
type App struct {
	rates         map[string]float64
	currencies    []string
	requireAmount bool
	resultDelay   time.Duration
	hideSubmit    bool
	logger        *zap.Logger
}

// Option customizes the App.
type Option func(*App)

// WithRates replaces the conversion rates.
func WithRates(rates map[string]float64) Option {
	return func(a *App) { a.rates = rates }
}

// WithCurrencies sets the option values offered by the currency select, in order.
func WithCurrencies(codes ...string) Option {
	return func(a *App) { a.currencies = codes }
}

// WithRequiredAmount marks the amount input as required, so the browser
// blocks an empty submission.
func WithRequiredAmount() Option {
	return func(a *App) { a.requireAmount = true }
}

// WithResultDelay holds the conversion response for d.
func WithResultDelay(d time.Duration) Option {
	return func(a *App) { a.resultDelay = d }
}

// WithoutSubmitButton renders the form with no submit control.
func WithoutSubmitButton() Option {
	return func(a *App) { a.hideSubmit = true }
}

// WithLogger logs every request.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// New builds the application with the production defaults.
func New(opts ...Option) *App {
	a := &App{
		rates:      DefaultRates,
		currencies: []string{"usd", "eur", "gbp"},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the HTTP routes of the application.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/", a.handleForm)
	r.Post("/convert", a.handleConvert)
	return r
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Debug("Request served.",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

var formPage = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Shekel Converter</title>
  </head>
  <body>
    <div class="container">
      <h1>Shekel Converter</h1>
      <form action="/convert" method="POST">
        <label for="shekels">Amount in ₪</label>
        <input type="number" step="any" id="shekels" name="shekels"{{if .Required}} required{{end}} />
        <label for="currency">Currency</label>
        <select id="currency" name="currency">
          {{- range .Currencies}}
          <option value="{{.}}">{{.}}</option>
          {{- end}}
        </select>
        {{- if not .HideSubmit}}
        <button type="submit">Convert</button>
        {{- end}}
      </form>
    </div>
  </body>
</html>
`))

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>Conversion Result</title>
  </head>
  <body>
    <div class="container">
      <h2 id="result">₪{{.Amount}} = {{.Symbol}}{{.Converted}}</h2>
      <button id="convert-again" onclick="window.location.href='/'">Convert Again</button>
    </div>
  </body>
</html>
`))

func (a *App) handleForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Currencies []string
		Required   bool
		HideSubmit bool
	}{a.currencies, a.requireAmount, a.hideSubmit}
	if err := formPage.Execute(w, data); err != nil {
		a.logger.Error("Failed to render form.", zap.Error(err))
	}
}

func (a *App) handleConvert(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	if a.resultDelay > 0 {
		select {
		case <-time.After(a.resultDelay):
		case <-r.Context().Done():
			return
		}
	}

	amount, converted, symbol := a.Convert(r.PostForm.Get("shekels"), r.PostForm.Get("currency"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ Amount, Symbol, Converted string }{amount, symbol, converted}
	if err := resultPage.Execute(w, data); err != nil {
		a.logger.Error("Failed to render result.", zap.Error(err))
	}
}

// Convert applies the application's arithmetic to raw form values. It returns
// the amount as echoed back, the converted value with two decimals and the
// currency symbol. Unparseable amounts become NaN and unknown currencies use
// rate 0 and symbol "?".
func (a *App) Convert(rawAmount, currency string) (amount, converted, symbol string) {
	shekels, err := strconv.ParseFloat(strings.TrimSpace(rawAmount), 64)
	if err != nil {
		shekels = math.NaN()
	}
	rate := a.rates[currency]
	symbol, ok := symbols[currency]
	if !ok {
		symbol = "?"
	}
	return formatNumber(shekels), formatFixed2(shekels * rate), symbol
}

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFixed2(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Serve runs the application on addr until ctx is canceled.
func (a *App) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Serving reference application.", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
