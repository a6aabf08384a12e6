// Copyright © 2024 The Procq Project.

package core

type (
	// ValidValue defines the list of values that are valid for a type safe
	// string.
	ValidValue[T ~string] map[T]int
)

// Define initializes a ValidValue type with its valid values.
func (vv ValidValue[T]) Define(values ...T) ValidValue[T] {
	vv = map[T]int{}
	for i, v := range values {
		vv[v] = i
	}
	return vv
}

// ValidValues returns an ordered list of valid values for the type.
func (vv ValidValue[T]) ValidValues() []string {
	ss := make([]string, len(vv))
	for v, i := range vv {
		ss[i] = string(v)
	}
	return ss
}

// IsValid returns whether a value is valid.
func (vv ValidValue[T]) IsValid(v T) bool {
	_, ok := vv[v]
	return ok
}
