package record

// Record is one row or document flowing through the engine, keyed by
// field name.
type Record map[string]Value

// FromMap converts a dynamically typed row into a Record.
func FromMap(row map[string]interface{}) Record {
	rec := make(Record, len(row))
	for k, raw := range row {
		rec[k] = FromAny(raw)
	}
	return rec
}

// ToMap converts the record back to plain Go types for drivers and
// JSON encoders.
func (r Record) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(r))
	for k, v := range r {
		out[k] = v.ToAny()
	}
	return out
}

// Clone returns an independent shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns the value for field, or null when absent.
func (r Record) Get(field string) Value {
	if v, ok := r[field]; ok {
		return v
	}
	return Null()
}

// ID returns the record's opaque identity, taken from the "id" field.
func (r Record) ID() string {
	return r.Get("id").AsString()
}
