// Package catalog holds the data-driven conversion cases the harness runs.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Currency is a target currency code offered by the conversion form.
type Currency string

const (
	USD Currency = "usd"
	EUR Currency = "eur"
	GBP Currency = "gbp"
)

// Currencies lists the supported currencies in form order.
var Currencies = []Currency{USD, EUR, GBP}

var symbols = map[Currency]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
}

// Symbol returns the display symbol, or "" for an unsupported currency.
func (c Currency) Symbol() string { return symbols[c] }

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	_, ok := symbols[c]
	return ok
}

// ConversionCase is one amount/currency pair and what the result must show.
// An empty ExpectedValue checks only the amount and the symbol.
type ConversionCase struct {
	Name           string   `yaml:"name" json:"name"`
	Amount         string   `yaml:"amount" json:"amount"`
	Currency       Currency `yaml:"currency" json:"currency"`
	ExpectedSymbol string   `yaml:"symbol,omitempty" json:"expected_symbol"`
	ExpectedValue  string   `yaml:"value,omitempty" json:"expected_value,omitempty"`
}

// DisplayName is Name, or "<amount>-<currency>" when unnamed.
func (c ConversionCase) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%s-%s", c.Amount, c.Currency)
}

// Sequence is an ordered list of conversions performed back to back on one session.
type Sequence struct {
	Name  string           `yaml:"name" json:"name"`
	Cases []ConversionCase `yaml:"cases" json:"cases"`
}

// Viewport is a browser window size the form must render in.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

func (v Viewport) String() string { return fmt.Sprintf("%dx%d", v.Width, v.Height) }

// Catalog is the full set of data driving a run.
type Catalog struct {
	Cases        []ConversionCase `yaml:"cases" json:"cases"`
	Sequences    []Sequence       `yaml:"sequences" json:"sequences"`
	ConvertAgain *ConversionCase  `yaml:"convert_again,omitempty" json:"convert_again,omitempty"`
	EmptyInput   *Currency        `yaml:"empty_input,omitempty" json:"empty_input,omitempty"`
	Viewports    []Viewport       `yaml:"viewports" json:"viewports"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	convertAgain := ConversionCase{Name: "convert-again", Amount: "50", Currency: USD, ExpectedSymbol: "$"}
	emptyInput := USD
	return &Catalog{
		Cases: []ConversionCase{
			{Name: "100-usd", Amount: "100", Currency: USD, ExpectedSymbol: "$", ExpectedValue: "27.00"},
			{Name: "100-eur", Amount: "100", Currency: EUR, ExpectedSymbol: "€", ExpectedValue: "25.00"},
			{Name: "100-gbp", Amount: "100", Currency: GBP, ExpectedSymbol: "£", ExpectedValue: "21.00"},
		},
		Sequences: []Sequence{{
			Name: "multiple-conversions",
			Cases: []ConversionCase{
				{Name: "50-usd", Amount: "50", Currency: USD, ExpectedSymbol: "$"},
				{Name: "200-eur", Amount: "200", Currency: EUR, ExpectedSymbol: "€"},
				{Name: "150-gbp", Amount: "150", Currency: GBP, ExpectedSymbol: "£"},
			},
		}},
		ConvertAgain: &convertAgain,
		EmptyInput:   &emptyInput,
		Viewports: []Viewport{
			{Width: 1920, Height: 1080},
			{Width: 1024, Height: 768},
			{Width: 375, Height: 667},
		},
	}
}

// Load reads a catalog file. A leading "~" in path is expanded. Cases that
// omit a symbol get the currency's symbol.
func Load(path string) (*Catalog, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand catalog path %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	c.fillSymbols()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) fillSymbols() {
	fill := func(cc *ConversionCase) {
		cc.Currency = Currency(strings.ToLower(strings.TrimSpace(string(cc.Currency))))
		if cc.ExpectedSymbol == "" {
			cc.ExpectedSymbol = cc.Currency.Symbol()
		}
	}
	for i := range c.Cases {
		fill(&c.Cases[i])
	}
	for i := range c.Sequences {
		for j := range c.Sequences[i].Cases {
			fill(&c.Sequences[i].Cases[j])
		}
	}
	if c.ConvertAgain != nil {
		fill(c.ConvertAgain)
	}
	if c.EmptyInput != nil {
		normalized := Currency(strings.ToLower(strings.TrimSpace(string(*c.EmptyInput))))
		c.EmptyInput = &normalized
	}
}

// Validate rejects unknown currencies, cases without an amount or symbol,
// empty sequences and non-positive viewports. All problems are reported together.
func (c *Catalog) Validate() error {
	var errs []error
	check := func(where string, cc ConversionCase) {
		if !cc.Currency.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown currency %q", where, cc.Currency))
		}
		if strings.TrimSpace(cc.Amount) == "" {
			errs = append(errs, fmt.Errorf("%s: amount is required", where))
		}
		if cc.ExpectedSymbol == "" {
			errs = append(errs, fmt.Errorf("%s: expected symbol is required", where))
		}
	}

	for i, cc := range c.Cases {
		check(fmt.Sprintf("cases[%d] (%s)", i, cc.DisplayName()), cc)
	}
	for i, seq := range c.Sequences {
		if len(seq.Cases) == 0 {
			errs = append(errs, fmt.Errorf("sequences[%d] (%s): no cases", i, seq.Name))
		}
		for j, cc := range seq.Cases {
			check(fmt.Sprintf("sequences[%d].cases[%d] (%s)", i, j, cc.DisplayName()), cc)
		}
	}
	if c.ConvertAgain != nil {
		check("convert_again", *c.ConvertAgain)
	}
	if c.EmptyInput != nil && !c.EmptyInput.Valid() {
		errs = append(errs, fmt.Errorf("empty_input: unknown currency %q", *c.EmptyInput))
	}
	for i, vp := range c.Viewports {
		if vp.Width <= 0 || vp.Height <= 0 {
			errs = append(errs, fmt.Errorf("viewports[%d]: %s is not a positive size", i, vp))
		}
	}
	return errors.Join(errs...)
}

// Merge returns a new catalog with other's cases, sequences and viewports
// appended to c's. Single-valued entries in other replace c's.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := &Catalog{
		Cases:        append(append([]ConversionCase{}, c.Cases...), other.Cases...),
		Sequences:    append(append([]Sequence{}, c.Sequences...), other.Sequences...),
		ConvertAgain: c.ConvertAgain,
		EmptyInput:   c.EmptyInput,
		Viewports:    append(append([]Viewport{}, c.Viewports...), other.Viewports...),
	}
	if other.ConvertAgain != nil {
		merged.ConvertAgain = other.ConvertAgain
	}
	if other.EmptyInput != nil {
		merged.EmptyInput = other.EmptyInput
	}
	return merged
}

// CurrenciesUsed returns every currency the catalog converts to, in first-use order.
func (c *Catalog) CurrenciesUsed() []Currency {
	seen := make(map[Currency]bool)
	var out []Currency
	add := func(cur Currency) {
		if !seen[cur] {
			seen[cur] = true
			out = append(out, cur)
		}
	}
	for _, cc := range c.Cases {
		add(cc.Currency)
	}
	for _, seq := range c.Sequences {
		for _, cc := range seq.Cases {
			add(cc.Currency)
		}
	}
	if c.ConvertAgain != nil {
		add(c.ConvertAgain.Currency)
	}
	if c.EmptyInput != nil {
		add(*c.EmptyInput)
	}
	return out
}
