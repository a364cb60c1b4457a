// Package encoder provides the fitted label encoders that map categorical
// transaction fields to the integer codes the classifier was trained on.
//
// Encoding never fails: a value not seen during fitting resolves to the
// sentinel code -1. Legitimate production traffic regularly contains novel
// merchant names, so availability wins over strictness here.
package encoder

// SentinelCode is the out-of-band code for values unseen during fitting.
const SentinelCode = -1

// Field names the deployed encoder artifact is keyed by.
const (
	FieldMerchant = "merchant"
	FieldCategory = "category"
	FieldGender   = "gender"
)

// Result is the outcome of encoding a single value. It distinguishes a
// genuine fallback from a label that was legitimately fitted to code -1
// (which scikit-style encoders never assign, but the distinction keeps the
// policy observable in tests and metrics).
type Result struct {
	code  int
	known bool
}

// Code returns the integer code to place in the feature vector.
func (r Result) Code() int {
	return r.code
}

// Known reports whether the value was seen during fitting.
func (r Result) Known() bool {
	return r.known
}

// FieldEncoder is a fitted label -> code lookup for one categorical field.
// It is built once from the encoder artifact and read-only afterwards.
type FieldEncoder struct {
	field  string
	labels map[string]int
}

// NewFieldEncoder builds a FieldEncoder from a fitted label table. The
// table is copied so later mutation of the argument cannot leak in.
func NewFieldEncoder(field string, labels map[string]int) *FieldEncoder {
	copied := make(map[string]int, len(labels))
	for label, code := range labels {
		copied[label] = code
	}
	return &FieldEncoder{field: field, labels: copied}
}

// Field returns the name of the field this encoder was fitted for.
func (e *FieldEncoder) Field() string {
	return e.field
}

// Classes returns the number of labels seen during fitting.
func (e *FieldEncoder) Classes() int {
	return len(e.labels)
}

// Encode maps a label to its fitted code, or the sentinel for unseen labels.
func (e *FieldEncoder) Encode(value string) Result {
	if code, ok := e.labels[value]; ok {
		return Result{code: code, known: true}
	}
	return Result{code: SentinelCode, known: false}
}

// Set is the full collection of per-field encoders loaded from the encoder
// artifact, keyed by field name.
type Set struct {
	fields map[string]*FieldEncoder
}

// NewSet builds a Set from per-field label tables.
func NewSet(tables map[string]map[string]int) *Set {
	fields := make(map[string]*FieldEncoder, len(tables))
	for field, labels := range tables {
		fields[field] = NewFieldEncoder(field, labels)
	}
	return &Set{fields: fields}
}

// Fields returns the names of the fields an encoder exists for.
func (s *Set) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	return names
}

// Encode looks up value in the named field's encoder. A missing field
// encoder degrades exactly like an unseen value: sentinel, no error.
func (s *Set) Encode(field, value string) Result {
	enc, ok := s.fields[field]
	if !ok {
		return Result{code: SentinelCode, known: false}
	}
	return enc.Encode(value)
}
