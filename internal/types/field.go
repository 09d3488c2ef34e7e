package types

import (
	"encoding/json"
	"fmt"
)

// Wildcard is the on-disk marker for a field that accepts any value.
const Wildcard = "*"

// Field is a match criterion that is either Any or Exactly(value).
// The zero value is Any.
type Field struct {
	value string
	exact bool
}

func Any() Field { return Field{} }

// Exactly returns a field that accepts only v. The wildcard marker
// collapses to Any.
func Exactly(v string) Field {
	if v == Wildcard {
		return Any()
	}
	return Field{value: v, exact: true}
}

func (f Field) IsAny() bool  { return !f.exact }
func (f Field) IsZero() bool { return !f.exact }

// Value returns the required value, ok is false for Any.
func (f Field) Value() (string, bool) { return f.value, f.exact }

// Accepts reports whether v satisfies the field. Comparison is
// case-sensitive.
func (f Field) Accepts(v string) bool {
	return !f.exact || f.value == v
}

func (f Field) String() string {
	if !f.exact {
		return Wildcard
	}
	return f.value
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Field) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Any()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("match field: %w", err)
	}
	*f = Exactly(s)
	return nil
}
