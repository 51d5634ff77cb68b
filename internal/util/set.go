package util

// StringSet is a set of strings backed by a map, used wherever the compiler
// needs "have I seen this name/feature/path before" bookkeeping (the
// import resolver's already-spliced paths, the code generator's used-feature
// and emitted-class tracking) instead of a bare map[string]bool at each call
// site.
type StringSet map[string]bool

// NewStringSet returns an empty StringSet ready for use.
func NewStringSet() StringSet {
	return StringSet{}
}

// Add adds value to the set. It is a no-op if value is already present.
func (s StringSet) Add(value string) {
	s[value] = true
}

// Has reports whether value is in the set.
func (s StringSet) Has(value string) bool {
	_, ok := s[value]
	return ok
}
