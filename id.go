package presage

import (
	"cmp"
	"encoding/json"
	"fmt"
)

// ID is the identifier of one aggregate instance.
//
// The type parameter A is a tag naming the aggregate kind and is never stored:
// ID[Task, uuid.UUID] and ID[Project, uuid.UUID] are different types, so the
// compiler rejects any attempt to mix them. Equality, hashing and ordering all
// delegate to the wrapped Value, which makes IDs usable as map keys.
//
// JSON encoding is transparent: an ID encodes exactly like its raw value.
type ID[A any, K comparable] struct {
	// Value is the wrapped raw identifier.
	Value K
}

// NewID wraps a raw identifier value.
func NewID[A any, K comparable](value K) ID[A, K] {
	return ID[A, K]{Value: value}
}

// Raw returns the wrapped identifier value.
func (id ID[A, K]) Raw() K {
	return id.Value
}

// IsZero reports whether the wrapped value is the zero value of K.
func (id ID[A, K]) IsZero() bool {
	var zero K
	return id.Value == zero
}

// Equal reports whether both identifiers wrap the same value.
func (id ID[A, K]) Equal(other ID[A, K]) bool {
	return id.Value == other.Value
}

// String formats the raw value.
func (id ID[A, K]) String() string {
	return fmt.Sprint(id.Value)
}

// MarshalJSON encodes the raw value.
func (id ID[A, K]) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Value)
}

// UnmarshalJSON decodes the raw value.
func (id *ID[A, K]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &id.Value)
}

// CompareIDs orders two identifiers of the same aggregate kind by their raw values.
func CompareIDs[A any, K cmp.Ordered](a, b ID[A, K]) int {
	return cmp.Compare(a.Value, b.Value)
}
