// Package hashcat classifies strings into hash families by byte length and
// regular expression.
//
// A Catalog is an immutable table from byte length to an ordered list of
// compiled patterns. Build it once with New and share it by pointer; it has no
// mutable state and is safe for concurrent use.
//
// The match is a heuristic. Lengths with several candidate patterns are
// disambiguated only by declaration order.
package hashcat

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Pattern is a compiled hash matcher.
type Pattern struct {
	Type   string
	Label  string
	Length int
	Regex  *regexp.Regexp
}

// Result describes how a value relates to the catalog.
type Result int

const (
	// NoEntry means the catalog has no pattern for the value's byte length.
	NoEntry Result = iota
	// Unrecognized means patterns exist for the length but none matched.
	Unrecognized
	// Matched means a pattern matched.
	Matched
)

// String returns a human readable form of the result.
func (r Result) String() string {
	switch r {
	case Matched:
		return "matched"
	case Unrecognized:
		return "unrecognized"
	default:
		return "no_entry"
	}
}

// Catalog is a length-indexed table of hash patterns.
type Catalog struct {
	byLength map[int][]Pattern
	lengths  []int
}

// New compiles a catalog from the built-in patterns whose type is listed in
// types (all built-ins when types is empty), followed by custom definitions.
// Custom patterns are tried after the built-ins of the same length.
func New(types []string, custom ...Definition) (*Catalog, error) {
	selected, err := selectBuiltins(types)
	if err != nil {
		return nil, err
	}

	c := &Catalog{byLength: make(map[int][]Pattern)}
	for _, def := range append(selected, custom...) {
		p, err := compile(def)
		if err != nil {
			return nil, err
		}
		if _, ok := c.byLength[p.Length]; !ok {
			c.lengths = append(c.lengths, p.Length)
		}
		c.byLength[p.Length] = append(c.byLength[p.Length], p)
	}
	sort.Ints(c.lengths)

	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(types []string, custom ...Definition) *Catalog {
	c, err := New(types, custom...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the patterns registered for a byte length in match order.
// The returned slice must not be modified.
func (c *Catalog) Lookup(length int) []Pattern {
	return c.byLength[length]
}

// Match classifies value. The first pattern of the value's byte length whose
// expression matches wins; later patterns for that length are not tried.
func (c *Catalog) Match(value string) (Pattern, Result) {
	candidates, ok := c.byLength[len(value)]
	if !ok {
		return Pattern{}, NoEntry
	}
	for _, p := range candidates {
		if p.Regex.MatchString(value) {
			return p, Matched
		}
	}
	return Pattern{}, Unrecognized
}

// Patterns returns every pattern ordered by length, then match order.
func (c *Catalog) Patterns() []Pattern {
	var out []Pattern
	for _, l := range c.lengths {
		out = append(out, c.byLength[l]...)
	}
	return out
}

// Len returns the number of patterns in the catalog.
func (c *Catalog) Len() int {
	n := 0
	for _, ps := range c.byLength {
		n += len(ps)
	}
	return n
}

// NormalizeType folds a user supplied type name to the selector form
// ("Half_MD5" -> "half-md5").
func NormalizeType(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

func selectBuiltins(types []string) ([]Definition, error) {
	if len(types) == 0 {
		return Builtins(), nil
	}

	want := make(map[string]bool, len(types))
	for _, t := range types {
		name := NormalizeType(t)
		if name == "" {
			continue
		}
		if !isBuiltin(name) {
			return nil, fmt.Errorf("unknown hash type: %s (available: %s)", t, strings.Join(TypeNames(), ", "))
		}
		want[name] = true
	}

	// Keep declaration order regardless of the order types were given in.
	selected := make([]Definition, 0, len(want))
	for _, d := range builtins {
		if want[d.Type] {
			selected = append(selected, d)
		}
	}
	return selected, nil
}

func isBuiltin(name string) bool {
	for _, d := range builtins {
		if d.Type == name {
			return true
		}
	}
	return false
}

func compile(def Definition) (Pattern, error) {
	if strings.TrimSpace(def.Type) == "" {
		return Pattern{}, fmt.Errorf("hash pattern %q: type is required", def.Label)
	}
	if err := ValidateLabel(def.Label); err != nil {
		return Pattern{}, fmt.Errorf("hash pattern %s: %w", def.Type, err)
	}
	if def.Length <= 0 {
		return Pattern{}, fmt.Errorf("hash pattern %s: length must be positive, got %d", def.Type, def.Length)
	}
	re, err := regexp.Compile(def.Expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("hash pattern %s: invalid regex: %w", def.Type, err)
	}
	return Pattern{Type: def.Type, Label: def.Label, Length: def.Length, Regex: re}, nil
}

// ValidateLabel reports whether label can be embedded in an output file name.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("label is required")
	}
	if strings.ContainsAny(label, "/\\\x00") {
		return fmt.Errorf("label %q contains a path separator or NUL byte", label)
	}
	if label == "." || label == ".." {
		return fmt.Errorf("label %q is not a valid file name component", label)
	}
	return nil
}
