package rules

// DefaultSplitMax is the upper field count used when only a minimum is given.
const DefaultSplitMax = Unbounded

// Builder collects rule parameters given as individual command line flags.
// Build emits rules in a fixed order: field count, field lengths, lowercase,
// email, hash.
type Builder struct {
	SplitMin *int
	SplitMax *int

	// LenIndex[i] is bounded by LenMin[i] and LenMax[i]. Missing bounds fall
	// back to the first bound given, then to 0 and Unbounded.
	LenIndex []int
	LenMin   []int
	LenMax   []int

	LowerIndex []int
	EmailIndex []int
	HashIndex  []int
}

// Empty reports whether no rule parameter was set.
func (b Builder) Empty() bool {
	return b.SplitMin == nil && len(b.LenIndex) == 0 && len(b.LowerIndex) == 0 &&
		len(b.EmailIndex) == 0 && len(b.HashIndex) == 0
}

// Build assembles and validates the rule set.
func (b Builder) Build() (Set, error) {
	var out []Rule

	if b.SplitMin != nil {
		hi := DefaultSplitMax
		if b.SplitMax != nil {
			hi = *b.SplitMax
		}
		out = append(out, FieldCount{Min: *b.SplitMin, Max: hi})
	}

	minDefault, maxDefault := 0, Unbounded
	if len(b.LenMin) > 0 {
		minDefault = b.LenMin[0]
	}
	if len(b.LenMax) > 0 {
		maxDefault = b.LenMax[0]
	}
	for i, idx := range b.LenIndex {
		lo, hi := minDefault, maxDefault
		if i < len(b.LenMin) {
			lo = b.LenMin[i]
		}
		if i < len(b.LenMax) {
			hi = b.LenMax[i]
		}
		out = append(out, FieldLength{Index: idx, Min: lo, Max: hi})
	}

	for _, idx := range b.LowerIndex {
		out = append(out, Lowercase{Index: idx})
	}
	for _, idx := range b.EmailIndex {
		out = append(out, Email{Index: idx})
	}
	for _, idx := range b.HashIndex {
		out = append(out, Hash{Index: idx})
	}

	return NewSet(out...)
}
