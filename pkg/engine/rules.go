package engine

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"syncbridge/pkg/record"
)

// RuleFunc is a pure transformation applied to one field value.
// Parameters come from the owning DataTransformation and may be nil.
type RuleFunc func(v record.Value, params map[string]string) record.Value

// RuleRegistry maps transformation rule names to functions. Unknown
// names are not an error: Apply reports them so callers can pass the
// value through unchanged and surface a warning instead of halting a
// batch on a config typo.
type RuleRegistry struct {
	mu    sync.RWMutex
	rules map[string]RuleFunc
}

// NewRuleRegistry creates a registry pre-loaded with the built-in
// rules.
func NewRuleRegistry() *RuleRegistry {
	r := &RuleRegistry{rules: make(map[string]RuleFunc)}
	r.Register("uppercase", ruleUppercase)
	r.Register("lowercase", ruleLowercase)
	r.Register("trim", ruleTrim)
	r.Register("currency_format", ruleCurrencyFormat)
	r.Register("date_format", ruleDateFormat)
	return r
}

// Register adds or replaces a named rule.
func (r *RuleRegistry) Register(name string, fn RuleFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = fn
}

// Apply runs the named rule against v. known=false means the name is
// unregistered and v is returned unchanged.
func (r *RuleRegistry) Apply(name string, v record.Value, params map[string]string) (out record.Value, known bool) {
	r.mu.RLock()
	fn, ok := r.rules[name]
	r.mu.RUnlock()
	if !ok {
		return v, false
	}
	return fn(v, params), true
}

func ruleUppercase(v record.Value, _ map[string]string) record.Value {
	if v.Kind() != record.KindString {
		return v
	}
	return record.String(strings.ToUpper(v.Str()))
}

func ruleLowercase(v record.Value, _ map[string]string) record.Value {
	if v.Kind() != record.KindString {
		return v
	}
	return record.String(strings.ToLower(v.Str()))
}

func ruleTrim(v record.Value, _ map[string]string) record.Value {
	if v.Kind() != record.KindString {
		return v
	}
	return record.String(strings.TrimSpace(v.Str()))
}

// ruleCurrencyFormat rounds a numeric value half-up to 2 decimals.
// Values without a numeric reading pass through unchanged.
func ruleCurrencyFormat(v record.Value, _ map[string]string) record.Value {
	f, ok := v.AsFloat()
	if !ok {
		return v
	}
	rounded, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return record.Number(rounded)
}

// dateLayouts are tried in order when normalizing string timestamps.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// ruleDateFormat normalizes a date to ISO-8601. Strings that match no
// known layout pass through unchanged.
func ruleDateFormat(v record.Value, _ map[string]string) record.Value {
	switch v.Kind() {
	case record.KindTime:
		return v
	case record.KindString:
		s := strings.TrimSpace(v.Str())
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return record.Time(t)
			}
		}
		return v
	default:
		return v
	}
}
