package narrative

// Record is one entity row: field name → cell value
type Record map[string]Value

// Get returns the value for a field, missing when absent
func (r Record) Get(field string) Value {
	if v, ok := r[field]; ok {
		return v
	}
	return NewMissing()
}

// Float returns the numeric content of a field
func (r Record) Float(field string) (float64, bool) {
	return r.Get(field).Float()
}

// Text returns the label content of a field
func (r Record) Text(field string) (string, bool) {
	return r.Get(field).Text()
}

// Dataset is an ordered, read-only table of records for a single engine invocation
type Dataset []Record

// Len returns the number of rows
func (d Dataset) Len() int {
	return len(d)
}

// Row returns the record at index i
func (d Dataset) Row(i int) Record {
	return d[i]
}

// HasField reports whether any row carries a non-missing value for field
func (d Dataset) HasField(field string) bool {
	if field == "" {
		return false
	}
	for _, r := range d {
		if !r.Get(field).IsMissing() {
			return true
		}
	}
	return false
}

// Numbers returns the numeric values of field, skipping missing and non-numeric cells
func (d Dataset) Numbers(field string) []float64 {
	out := make([]float64, 0, len(d))
	for _, r := range d {
		if f, ok := r.Float(field); ok {
			out = append(out, f)
		}
	}
	return out
}

// Filter returns the rows for which keep returns true. The receiver is not modified.
func (d Dataset) Filter(keep func(Record) bool) Dataset {
	out := make(Dataset, 0, len(d))
	for _, r := range d {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
