// internal/browser/locator.go
package browser

import (
	"fmt"
	"strings"
)

// Strategy names how a Locator finds its element.
type Strategy string

const (
	StrategyTagName       Strategy = "tag-name"
	StrategyAttributeName Strategy = "attribute-name"
	StrategyCSS           Strategy = "css-selector"
	StrategyID            Strategy = "element-id"
)

// Locator is an immutable description of how to find an element on the page.
// The zero value matches nothing and is rejected by the session.
type Locator struct {
	strategy Strategy
	value    string
}

// ByTag locates elements by tag name, e.g. "body".
func ByTag(tag string) Locator { return Locator{strategy: StrategyTagName, value: tag} }

// ByName locates form controls by their name attribute.
func ByName(name string) Locator { return Locator{strategy: StrategyAttributeName, value: name} }

// ByCSS locates elements with a raw CSS selector.
func ByCSS(selector string) Locator { return Locator{strategy: StrategyCSS, value: selector} }

// ByID locates an element by its id attribute.
func ByID(id string) Locator { return Locator{strategy: StrategyID, value: id} }

func (l Locator) Strategy() Strategy { return l.strategy }
func (l Locator) Value() string      { return l.value }

// IsZero reports whether the locator was never constructed.
func (l Locator) IsZero() bool { return l.strategy == "" || l.value == "" }

// Selector renders the locator as a CSS selector usable with querySelector.
// Attribute selectors are used for names and ids so values that are not valid
// CSS identifiers (leading digits, dots) still resolve.
func (l Locator) Selector() string {
	switch l.strategy {
	case StrategyTagName, StrategyCSS:
		return l.value
	case StrategyAttributeName:
		return fmt.Sprintf(`[name="%s"]`, escapeAttr(l.value))
	case StrategyID:
		return fmt.Sprintf(`[id="%s"]`, escapeAttr(l.value))
	default:
		return ""
	}
}

// String renders the locator the way diagnostics print it: "attribute-name=shekels".
func (l Locator) String() string {
	if l.IsZero() {
		return "<zero locator>"
	}
	return string(l.strategy) + "=" + l.value
}

func escapeAttr(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
}
