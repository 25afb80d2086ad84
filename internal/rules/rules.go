// Package rules defines the ordered validation and normalization rules that
// are evaluated against every record.
//
// A Rule is one of FieldCount, FieldLength, Lowercase, Email or Hash. A Set is
// an ordered, validated list of rules; order decides which failure a record
// is bucketed under. Field indices are checked once in NewSet so that a rule
// can never address a field the record is not guaranteed to have.
package rules

import (
	"fmt"
	"math"
	"strings"
)

// Kind names a rule variant. The names double as YAML keys.
type Kind string

const (
	KindFieldCount  Kind = "field_count"
	KindFieldLength Kind = "field_length"
	KindLowercase   Kind = "lowercase"
	KindEmail       Kind = "email"
	KindHash        Kind = "hash"
)

// Unbounded is used as the upper bound when none is configured.
const Unbounded = math.MaxInt32

// Rule is a single step of a Set. The interface is sealed; the variants are
// the types defined in this package.
type Rule interface {
	Kind() Kind
	String() string
	isRule()
}

// Indexed is implemented by rules that address a single field.
type Indexed interface {
	Rule
	FieldIndex() int
}

// FieldCount requires the number of fields to lie within [Min, Max].
type FieldCount struct {
	Min int
	Max int
}

// FieldLength requires the byte length of field Index to lie within [Min, Max].
type FieldLength struct {
	Index int
	Min   int
	Max   int
}

// Lowercase replaces field Index with its lowercase form.
type Lowercase struct {
	Index int
}

// Email requires field Index to look like an email address.
type Email struct {
	Index int
}

// Hash buckets records whose field Index looks like a known hash.
type Hash struct {
	Index int
}

func (FieldCount) Kind() Kind  { return KindFieldCount }
func (FieldLength) Kind() Kind { return KindFieldLength }
func (Lowercase) Kind() Kind   { return KindLowercase }
func (Email) Kind() Kind       { return KindEmail }
func (Hash) Kind() Kind        { return KindHash }

func (FieldCount) isRule()  {}
func (FieldLength) isRule() {}
func (Lowercase) isRule()   {}
func (Email) isRule()       {}
func (Hash) isRule()        {}

func (r FieldLength) FieldIndex() int { return r.Index }
func (r Lowercase) FieldIndex() int   { return r.Index }
func (r Email) FieldIndex() int       { return r.Index }
func (r Hash) FieldIndex() int        { return r.Index }

func (r FieldCount) String() string {
	return fmt.Sprintf("%s(%d,%s)", r.Kind(), r.Min, bound(r.Max))
}

func (r FieldLength) String() string {
	return fmt.Sprintf("%s(%d,%d,%s)", r.Kind(), r.Index, r.Min, bound(r.Max))
}

func (r Lowercase) String() string { return fmt.Sprintf("%s(%d)", r.Kind(), r.Index) }
func (r Email) String() string     { return fmt.Sprintf("%s(%d)", r.Kind(), r.Index) }
func (r Hash) String() string      { return fmt.Sprintf("%s(%d)", r.Kind(), r.Index) }

func bound(v int) string {
	if v >= Unbounded {
		return "inf"
	}
	return fmt.Sprint(v)
}

// ConfigError reports a rule that cannot be evaluated safely.
type ConfigError struct {
	Position int // 0-based position in the set
	Rule     Rule
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule %d (%s): %s", e.Position, e.Rule, e.Reason)
}

// Set is an immutable, validated, ordered list of rules.
type Set struct {
	rules []Rule
}

// NewSet validates rules and returns them as a Set.
//
// Every record has at least one field. Each FieldCount rule raises the
// number of fields later rules may rely on to its Min; an indexed rule is
// rejected unless its index is below the guarantee in force at its position.
func NewSet(rules ...Rule) (Set, error) {
	guaranteed := 1
	for i, r := range rules {
		if r == nil {
			return Set{}, fmt.Errorf("rule %d is nil", i)
		}
		fail := func(format string, args ...interface{}) error {
			return &ConfigError{Position: i, Rule: r, Reason: fmt.Sprintf(format, args...)}
		}

		switch v := r.(type) {
		case FieldCount:
			if v.Min < 0 || v.Max < 0 {
				return Set{}, fail("bounds must not be negative")
			}
			if v.Min > v.Max {
				return Set{}, fail("min %d is greater than max %d", v.Min, v.Max)
			}
			if v.Min > guaranteed {
				guaranteed = v.Min
			}
			continue
		case FieldLength:
			if v.Min < 0 || v.Max < 0 {
				return Set{}, fail("bounds must not be negative")
			}
			if v.Min > v.Max {
				return Set{}, fail("min %d is greater than max %d", v.Min, v.Max)
			}
		}

		idx, ok := r.(Indexed)
		if !ok {
			continue
		}
		if idx.FieldIndex() < 0 {
			return Set{}, fail("field index must not be negative")
		}
		if idx.FieldIndex() >= guaranteed {
			return Set{}, fail("field %d is not guaranteed to exist; records are only known to have %d field(s) here, add a %s rule with min > %d before it",
				idx.FieldIndex(), guaranteed, KindFieldCount, idx.FieldIndex())
		}
	}

	return Set{rules: append([]Rule(nil), rules...)}, nil
}

// MustSet is like NewSet but panics on error.
func MustSet(rules ...Rule) Set {
	s, err := NewSet(rules...)
	if err != nil {
		panic(err)
	}
	return s
}

// Default returns the rule set used when nothing else is configured:
// user:pass records with an email user and a non-hash password.
func Default() Set {
	return MustSet(
		FieldCount{Min: 2, Max: 3},
		FieldLength{Index: 0, Min: 5, Max: 40},  // user
		FieldLength{Index: 1, Min: 5, Max: 137}, // pass
		Lowercase{Index: 0},
		Email{Index: 0},
		Hash{Index: 1},
	)
}

// Rules returns a copy of the rules in evaluation order.
func (s Set) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Len returns the number of rules.
func (s Set) Len() int {
	return len(s.rules)
}

// At returns the rule at position i.
func (s Set) At(i int) Rule {
	return s.rules[i]
}

// String renders the set as a comma separated list.
func (s Set) String() string {
	parts := make([]string, len(s.rules))
	for i, r := range s.rules {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
