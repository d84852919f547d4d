package models

// FilterOperator enumerates source-read filter comparisons.
type FilterOperator string

const (
	OpEquals      FilterOperator = "equals"
	OpNotEquals   FilterOperator = "not_equals"
	OpGreaterThan FilterOperator = "greater_than"
	OpLessThan    FilterOperator = "less_than"
	OpContains    FilterOperator = "contains"
	OpIn          FilterOperator = "in"
)

// OnErrorPolicy controls how one record's failure affects the run.
type OnErrorPolicy string

const (
	OnErrorSkip  OnErrorPolicy = "skip"
	OnErrorRetry OnErrorPolicy = "retry"
	OnErrorFail  OnErrorPolicy = "fail"
)

// SyncConfig is the immutable per-job configuration document. It is
// stored as JSON inside the owning SyncJob and never shared between
// jobs.
type SyncConfig struct {
	Mapping         []FieldMapping       `json:"mapping"`
	Filters         []SyncFilter         `json:"filters,omitempty"`
	Transformations []DataTransformation `json:"transformations,omitempty"`
	ErrorHandling   ErrorHandling        `json:"error_handling"`
	Validation      []ValidationRule     `json:"validation,omitempty"`
}

// FieldMapping translates one source field to one target field.
// Transformation names an optional rule from the rule registry;
// DefaultValue fills in only when the post-transform value is null.
type FieldMapping struct {
	SourceField    string  `json:"source_field"`
	TargetField    string  `json:"target_field"`
	Transformation string  `json:"transformation,omitempty"`
	Required       bool    `json:"required"`
	DefaultValue   *string `json:"default_value,omitempty"`
}

// SyncFilter narrows the source read.
type SyncFilter struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value"`
}

// DataTransformation is a post-mapping transform applied, in list
// order, to a field already present in the transformed record.
// Type is one of format, calculate, lookup, conditional.
type DataTransformation struct {
	Field      string            `json:"field"`
	Type       string            `json:"type"`
	Rule       string            `json:"rule,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// ErrorHandling configures the per-record failure policy.
type ErrorHandling struct {
	OnError           OnErrorPolicy `json:"on_error"`
	MaxRetries        int           `json:"max_retries"`
	RetryDelaySeconds int           `json:"retry_delay_seconds"`
	NotifyOnError     bool          `json:"notify_on_error"`
}

// ValidationRule checks one field of the raw (pre-transform) record.
// Type is one of required, format, range, unique, custom.
type ValidationRule struct {
	Field   string `json:"field"`
	Type    string `json:"type"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message,omitempty"`
}
