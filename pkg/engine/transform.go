package engine

import (
	"strconv"

	"syncbridge/internal/models"
	"syncbridge/pkg/record"
)

// RuleWarning flags a config rule that could not be honored (typically
// a typo in a rule name). Warnings never abort a record; the executor
// surfaces them as warning-severity sync errors for operators.
type RuleWarning struct {
	Field string
	Rule  string
}

// Transformer converts raw source records into target-shaped records.
// Transform is a pure function of (record, config): no hidden state,
// no I/O.
type Transformer struct {
	rules *RuleRegistry
}

// NewTransformer creates a transformer. A nil registry gets the
// built-in rules.
func NewTransformer(rules *RuleRegistry) *Transformer {
	if rules == nil {
		rules = NewRuleRegistry()
	}
	return &Transformer{rules: rules}
}

// Transform applies cfg.Mapping in list order, then cfg.Transformations
// in list order to fields already present in the output.
func (t *Transformer) Transform(rec record.Record, cfg *models.SyncConfig) (record.Record, []RuleWarning) {
	out := make(record.Record, len(cfg.Mapping))
	var warnings []RuleWarning

	for _, m := range cfg.Mapping {
		v := rec.Get(m.SourceField)
		if m.Transformation != "" {
			applied, known := t.rules.Apply(m.Transformation, v, nil)
			if !known {
				warnings = append(warnings, RuleWarning{Field: m.TargetField, Rule: m.Transformation})
			}
			v = applied
		}
		// Defaults fill in only when the post-transform value is null
		// and a default is configured.
		if v.IsNull() && m.DefaultValue != nil {
			v = record.String(*m.DefaultValue)
		}
		out[m.TargetField] = v
	}

	for _, tr := range cfg.Transformations {
		v, present := out[tr.Field]
		if !present {
			continue
		}
		switch tr.Type {
		case "format":
			applied, known := t.rules.Apply(tr.Rule, v, tr.Parameters)
			if !known {
				warnings = append(warnings, RuleWarning{Field: tr.Field, Rule: tr.Rule})
				continue
			}
			out[tr.Field] = applied
		case "calculate":
			applied, ok := applyCalculate(v, tr.Rule, tr.Parameters)
			if !ok {
				warnings = append(warnings, RuleWarning{Field: tr.Field, Rule: tr.Rule})
				continue
			}
			out[tr.Field] = applied
		case "lookup":
			out[tr.Field] = applyLookup(v, tr.Parameters)
		case "conditional":
			out[tr.Field] = applyConditional(v, tr.Parameters)
		default:
			warnings = append(warnings, RuleWarning{Field: tr.Field, Rule: tr.Type})
		}
	}

	return out, warnings
}

// applyCalculate evaluates an arithmetic rule against a numeric value.
// Rules: add, subtract, multiply, divide (operand parameter) and round
// (precision parameter). Non-numeric values and unknown rules report
// ok=false.
func applyCalculate(v record.Value, rule string, params map[string]string) (record.Value, bool) {
	f, numeric := v.AsFloat()
	if !numeric {
		return v, false
	}
	operand := func() (float64, bool) {
		raw, ok := params["operand"]
		if !ok {
			return 0, false
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}

	switch rule {
	case "add":
		n, ok := operand()
		if !ok {
			return v, false
		}
		return record.Number(f + n), true
	case "subtract":
		n, ok := operand()
		if !ok {
			return v, false
		}
		return record.Number(f - n), true
	case "multiply":
		n, ok := operand()
		if !ok {
			return v, false
		}
		return record.Number(f * n), true
	case "divide":
		n, ok := operand()
		if !ok || n == 0 {
			return v, false
		}
		return record.Number(f / n), true
	case "round":
		precision := 0
		if raw, ok := params["precision"]; ok {
			if p, err := strconv.Atoi(raw); err == nil {
				precision = p
			}
		}
		shift := 1.0
		for i := 0; i < precision; i++ {
			shift *= 10
		}
		return record.Number(roundHalfUp(f*shift) / shift), true
	default:
		return v, false
	}
}

func roundHalfUp(f float64) float64 {
	if f < 0 {
		return float64(int64(f - 0.5))
	}
	return float64(int64(f + 0.5))
}

// applyLookup maps the current value through the parameters table. A
// "default" parameter catches unmapped values; otherwise the value is
// kept.
func applyLookup(v record.Value, params map[string]string) record.Value {
	if len(params) == 0 {
		return v
	}
	if mapped, ok := params[v.AsString()]; ok {
		return record.String(mapped)
	}
	if fallback, ok := params["default"]; ok {
		return record.String(fallback)
	}
	return v
}

// applyConditional replaces the value when it equals the "equals"
// parameter ("then"), optionally falling back to "else".
func applyConditional(v record.Value, params map[string]string) record.Value {
	target, ok := params["equals"]
	if !ok {
		return v
	}
	if v.AsString() == target {
		if then, ok := params["then"]; ok {
			return record.String(then)
		}
		return v
	}
	if els, ok := params["else"]; ok {
		return record.String(els)
	}
	return v
}
