package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"syncbridge/internal/models"
	"syncbridge/pkg/record"
)

// ValidationIssue is one human-readable validation failure for a
// record.
type ValidationIssue struct {
	Field   string
	Message string
}

// CustomValidator is a named predicate for "custom" validation rules.
type CustomValidator func(v record.Value, rule string) bool

var (
	customValidatorsMu sync.RWMutex
	customValidators   = make(map[string]CustomValidator)
)

// RegisterCustomValidator installs a predicate usable from "custom"
// validation rules via the rule string.
func RegisterCustomValidator(name string, fn CustomValidator) {
	customValidatorsMu.Lock()
	defer customValidatorsMu.Unlock()
	customValidators[name] = fn
}

// Validator checks raw (pre-transform) records against a job's
// validation rules. One Validator covers one batch: "unique" rules
// track values seen across the batch, so a fresh Validator is created
// per run.
type Validator struct {
	rules []models.ValidationRule
	seen  map[string]map[string]bool // field -> rendered value -> present
}

// NewValidator creates a per-batch validator for the given rules.
func NewValidator(rules []models.ValidationRule) *Validator {
	return &Validator{
		rules: rules,
		seen:  make(map[string]map[string]bool),
	}
}

// Validate returns zero or more issues for rec. A failing record is
// counted as an error and excluded from writing; it never aborts the
// batch.
func (va *Validator) Validate(rec record.Record) []ValidationIssue {
	var issues []ValidationIssue
	for _, rule := range va.rules {
		v := rec.Get(rule.Field)
		switch rule.Type {
		case "required":
			if v.IsNull() || (v.Kind() == record.KindString && v.Str() == "") {
				issues = append(issues, va.issue(rule, "field is required"))
			}
		case "format":
			if v.IsNull() {
				continue
			}
			re, err := regexp.Compile(rule.Rule)
			if err != nil {
				issues = append(issues, va.issue(rule, fmt.Sprintf("invalid format pattern %q", rule.Rule)))
				continue
			}
			if !re.MatchString(v.AsString()) {
				issues = append(issues, va.issue(rule, fmt.Sprintf("value %q does not match format %s", v.AsString(), rule.Rule)))
			}
		case "range":
			if v.IsNull() {
				continue
			}
			f, numeric := v.AsFloat()
			if !numeric {
				issues = append(issues, va.issue(rule, fmt.Sprintf("value %q is not numeric", v.AsString())))
				continue
			}
			min, max, err := parseRange(rule.Rule)
			if err != nil {
				issues = append(issues, va.issue(rule, err.Error()))
				continue
			}
			if f < min || f > max {
				issues = append(issues, va.issue(rule, fmt.Sprintf("value %v outside range [%v, %v]", f, min, max)))
			}
		case "unique":
			if v.IsNull() {
				continue
			}
			rendered := v.AsString()
			values := va.seen[rule.Field]
			if values == nil {
				values = make(map[string]bool)
				va.seen[rule.Field] = values
			}
			if values[rendered] {
				issues = append(issues, va.issue(rule, fmt.Sprintf("duplicate value %q in batch", rendered)))
				continue
			}
			values[rendered] = true
		case "custom":
			customValidatorsMu.RLock()
			fn := customValidators[rule.Rule]
			customValidatorsMu.RUnlock()
			// Unknown custom validators pass, matching the engine's
			// lenient handling of misnamed rules.
			if fn != nil && !fn(v, rule.Rule) {
				issues = append(issues, va.issue(rule, "custom validation failed"))
			}
		}
	}
	return issues
}

func (va *Validator) issue(rule models.ValidationRule, fallback string) ValidationIssue {
	msg := rule.Message
	if msg == "" {
		msg = fallback
	}
	return ValidationIssue{Field: rule.Field, Message: msg}
}

// parseRange parses a "min-max" range rule. Dashes also appear as
// sign characters ("-10--5"), so candidate separators are tried from
// the right until both sides parse. A separator dash never directly
// follows another dash.
func parseRange(rule string) (float64, float64, error) {
	for i := len(rule) - 1; i > 0; i-- {
		if rule[i] != '-' || rule[i-1] == '-' {
			continue
		}
		min, errMin := strconv.ParseFloat(rule[:i], 64)
		max, errMax := strconv.ParseFloat(rule[i+1:], 64)
		if errMin == nil && errMax == nil {
			return min, max, nil
		}
	}
	return 0, 0, fmt.Errorf("invalid range rule %q, want min-max", rule)
}
