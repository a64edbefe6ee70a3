package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/shekelcheck/internal/assertion"
	"github.com/xkilldash9x/shekelcheck/internal/catalog"
	"github.com/xkilldash9x/shekelcheck/internal/scenario"
)

// Scenario is one named flow plus the assertions made on its outcome. Run
// returns what was observed, for the report, and the first failure.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, e *scenario.Executor) (observed string, err error)
}

// Build expands a catalog into the ordered list of scenarios a run executes.
func Build(cat *catalog.Catalog) []Scenario {
	scenarios := []Scenario{
		homepageScenario(),
		formScenario(cat.CurrenciesUsed()),
	}

	for _, cc := range cat.Cases {
		scenarios = append(scenarios, conversionScenario(cc))
	}
	if len(cat.Cases) > 0 {
		scenarios = append(scenarios, idempotenceScenario(cat.Cases[0]))
	}
	for _, seq := range cat.Sequences {
		scenarios = append(scenarios, sequenceScenario(seq))
	}
	if cat.ConvertAgain != nil {
		scenarios = append(scenarios, convertAgainScenario(*cat.ConvertAgain))
	}
	if cat.EmptyInput != nil {
		scenarios = append(scenarios, emptyInputScenario(*cat.EmptyInput))
	}
	for _, vp := range cat.Viewports {
		scenarios = append(scenarios, viewportScenario(vp))
	}
	return scenarios
}

// Filter keeps scenarios whose name contains any of the patterns,
// case-insensitively. No patterns keeps everything.
func Filter(scenarios []Scenario, patterns []string) []Scenario {
	var active []string
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return scenarios
	}

	var kept []Scenario
	for _, sc := range scenarios {
		name := strings.ToLower(sc.Name)
		for _, p := range active {
			if strings.Contains(name, p) {
				kept = append(kept, sc)
				break
			}
		}
	}
	return kept
}

func homepageScenario() Scenario {
	return Scenario{
		Name: "homepage",
		Run: func(ctx context.Context, e *scenario.Executor) (string, error) {
			state, err := e.HomepageLoads(ctx)
			if err != nil {
				return "", err
			}
			// Any title is accepted, including none; the page only has to load.
			return state.Title, nil
		},
	}
}

func formScenario(currencies []catalog.Currency) Scenario {
	return Scenario{
		Name: "form-elements",
		Run: func(ctx context.Context, e *scenario.Executor) (string, error) {
			insp, err := e.InspectForm(ctx)
			if err != nil {
				return "", err
			}
			observed := fmt.Sprintf("form=%t controls=%d labels=%d amount_type=%q options=[%s]",
				insp.FormPresent, insp.ControlCount, insp.LabelCount, insp.AmountType, strings.Join(insp.CurrencyOptions, " "))

			if err := assertion.AssertTrue(assertion.CheckFormDisplayed, insp.FormPresent, "a form element", observed); err != nil {
				return observed, err
			}
			if err := assertion.AssertTrue(assertion.CheckFormControls, insp.ControlCount >= 3,
				"at least 3 form controls", observed); err != nil {
				return observed, err
			}
			if err := assertion.AssertTrue(assertion.CheckFormControls, insp.ShekelInputs >= 1,
				"an input whose name contains 'shek'", observed); err != nil {
				return observed, err
			}
			for _, cur := range currencies {
				if err := assertion.AssertTrue(assertion.CheckCurrencyOptions, insp.HasOption(string(cur)),
					fmt.Sprintf("an option valued %q", cur), observed); err != nil {
					return observed, err
				}
			}
			return observed, nil
		},
	}
}

func conversionScenario(cc catalog.ConversionCase) Scenario {
	return Scenario{
		Name: "convert/" + cc.DisplayName(),
		Run: func(ctx context.Context, e *scenario.Executor) (string, error) {
			res, err := e.Convert(ctx, cc.Amount, cc.Currency)
			if err != nil {
				return "", err
			}
			return res.Text, assertion.AssertConversion(res.Text, cc)
		},
	}
}

func idempotenceScenario(cc catalog.ConversionCase) Scenario {
	return Scenario{
		Name: "idempotence/" + cc.DisplayName(),
		Run: func(ctx context.Context, e *scenario.Executor) (string, error) {
			first, err := e.Convert(ctx, cc.Amount, cc.Currency)
			if err != nil {
				return "", err
			}
			if err := assertion.AssertConversion(first.Text, cc); err != nil {
				return first.Text, err
			}
			second, err := e.Convert(ctx, cc.Amount, cc.Currency)
			if err != nil {
				return first.Text, err
			}
			return second.Text, assertion.AssertEqual(assertion.CheckIdempotent, first.Text, second.Text)
		},
	}
}

func sequenceScenario(seq catalog.Sequence) Scenario {
	return Scenario{
		Name: "sequence/" + seq.Name,
		Run: func(ctx context.Context, e *scenario.Executor) (string, error) {
			var observed []string
			for _, cc := range seq.Cases {
				res, err := e.Convert(ctx, cc.Amount, cc.Currency)
				if err != nil {
					return strings.Join(observed, " | "), fmt.Errorf("%s: %w", cc.DisplayName(), err)
				}
				observed = append(observed, res.Text)
				if err := assertion.AssertConversion(res.Text, cc); err != nil {
					return strings.Join(observed, " | "), fmt.Errorf("%s: %w", cc.DisplayName(), err)
				}
			}
			return strings.Join(observed, " | "), nil
		},
	}
}

func convertAgainScenario(cc catalog.ConversionCase) Scenario {
	return Scenario{
		Name: "convert-again",
		Run: func(ctx context.Context, e *scenario.Executor) (string, error) {
			res, err := e.Convert(ctx, cc.Amount, cc.Currency)
			if err != nil {
				return "", err
			}
			if err := assertion.AssertConversion(res.Text, cc); err != nil {
				return res.Text, err
			}
			state, err := e.ConvertAgain(ctx)
			if err != nil {
				return res.Text, err
			}
			return state.Summary(), nil
		},
	}
}

func emptyInputScenario(cur catalog.Currency) Scenario {
	return Scenario{
		Name: "empty-input/" + string(cur),
		Run: func(ctx context.Context, e *scenario.Executor) (string, error) {
			state, err := e.EmptyInputSubmit(ctx, cur)
			if err != nil {
				return "", err
			}
			return state.Summary(), nil
		},
	}
}

func viewportScenario(vp catalog.Viewport) Scenario {
	return Scenario{
		Name: "viewport/" + vp.String(),
		Run: func(ctx context.Context, e *scenario.Executor) (string, error) {
			if err := e.CheckViewport(ctx, vp); err != nil {
				return "", err
			}
			return "amount input displayed at " + vp.String(), nil
		},
	}
}
