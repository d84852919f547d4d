package datasource

import (
	"strings"

	"syncbridge/internal/models"
	"syncbridge/pkg/record"
)

// matchesFilters evaluates the job's source filters against one record
// in-process. Database adapters translate filters to SQL instead; API
// and file adapters filter client-side after fetching.
func matchesFilters(rec record.Record, filters []models.SyncFilter) bool {
	for _, f := range filters {
		if !matchesFilter(rec.Get(f.Field), f) {
			return false
		}
	}
	return true
}

func matchesFilter(v record.Value, f models.SyncFilter) bool {
	switch f.Operator {
	case models.OpEquals:
		return v.AsString() == f.Value
	case models.OpNotEquals:
		return v.AsString() != f.Value
	case models.OpGreaterThan:
		return v.Compare(f.Value) > 0
	case models.OpLessThan:
		return v.Compare(f.Value) < 0
	case models.OpContains:
		return strings.Contains(v.AsString(), f.Value)
	case models.OpIn:
		for _, candidate := range splitList(f.Value) {
			if v.AsString() == candidate {
				return true
			}
		}
		return false
	default:
		// Unknown operators never match; a misconfigured filter should
		// narrow the read, not widen it.
		return false
	}
}

// splitList parses an "in" operand: comma-separated values, trimmed.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
