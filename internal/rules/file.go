package rules

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/bimmerbailey/credsift/internal/hashcat"
	"gopkg.in/yaml.v3"
)

// File is the decoded form of a rules file:
//
//	rules:
//	  - field_count: {min: 2, max: 3}
//	  - field_length: {index: 0, min: 5, max: 40}
//	  - lowercase: {index: 0}
//	  - email: {index: 0}
//	  - hash: {index: 1}
//	hash_patterns:
//	  - type: vbulletin
//	    label: "[VBULLETIN]_[2711]"
//	    regex: '^[a-f0-9]{32}:.{30}$'
//	    length: 63
type File struct {
	Rules        Set
	HashPatterns []hashcat.Definition
}

type fileDoc struct {
	Rules        yaml.Node            `yaml:"rules"`
	HashPatterns []hashcat.Definition `yaml:"hash_patterns"`
}

type rangeParams struct {
	Index *int `yaml:"index,omitempty"`
	Min   *int `yaml:"min,omitempty"`
	Max   *int `yaml:"max,omitempty"`
}

// LoadFile reads and validates a rules file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode reads a rules file from r. A file without a rules key yields an
// empty Set.
func Decode(r io.Reader) (File, error) {
	var doc fileDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return File{}, fmt.Errorf("parse rules file: %w", err)
	}

	list, err := decodeRules(&doc.Rules)
	if err != nil {
		return File{}, err
	}
	set, err := NewSet(list...)
	if err != nil {
		return File{}, err
	}
	return File{Rules: set, HashPatterns: doc.HashPatterns}, nil
}

func decodeRules(node *yaml.Node) ([]Rule, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: rules must be a list", node.Line)
	}

	out := make([]Rule, 0, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
			return nil, fmt.Errorf("line %d: rule %d must be a mapping with exactly one key", item.Line, i)
		}
		key, value := item.Content[0], item.Content[1]

		var p rangeParams
		if value.Kind != yaml.ScalarNode || value.Tag != "!!null" {
			if err := value.Decode(&p); err != nil {
				return nil, fmt.Errorf("line %d: rule %d: %w", value.Line, i, err)
			}
		}

		r, err := buildRule(Kind(key.Value), p)
		if err != nil {
			return nil, fmt.Errorf("line %d: rule %d: %w", key.Line, i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func buildRule(kind Kind, p rangeParams) (Rule, error) {
	index := func() (int, error) {
		if p.Index == nil {
			return 0, fmt.Errorf("%s requires index", kind)
		}
		return *p.Index, nil
	}
	orDefault := func(v *int, def int) int {
		if v == nil {
			return def
		}
		return *v
	}

	switch kind {
	case KindFieldCount:
		if p.Index != nil {
			return nil, fmt.Errorf("%s does not take an index", kind)
		}
		return FieldCount{Min: orDefault(p.Min, 0), Max: orDefault(p.Max, Unbounded)}, nil
	case KindFieldLength:
		i, err := index()
		if err != nil {
			return nil, err
		}
		return FieldLength{Index: i, Min: orDefault(p.Min, 0), Max: orDefault(p.Max, Unbounded)}, nil
	case KindLowercase, KindEmail, KindHash:
		i, err := index()
		if err != nil {
			return nil, err
		}
		if p.Min != nil || p.Max != nil {
			return nil, fmt.Errorf("%s only takes an index", kind)
		}
		switch kind {
		case KindLowercase:
			return Lowercase{Index: i}, nil
		case KindEmail:
			return Email{Index: i}, nil
		default:
			return Hash{Index: i}, nil
		}
	default:
		return nil, fmt.Errorf("unknown rule %q", kind)
	}
}

// MarshalYAML renders the set in rules file form.
func (s Set) MarshalYAML() (interface{}, error) {
	out := make([]map[string]rangeParams, 0, len(s.rules))
	for _, r := range s.rules {
		var p rangeParams
		switch v := r.(type) {
		case FieldCount:
			p = rangeParams{Min: intPtr(v.Min), Max: maxPtr(v.Max)}
		case FieldLength:
			p = rangeParams{Index: intPtr(v.Index), Min: intPtr(v.Min), Max: maxPtr(v.Max)}
		case Indexed:
			p = rangeParams{Index: intPtr(v.FieldIndex())}
		}
		out = append(out, map[string]rangeParams{string(r.Kind()): p})
	}
	return out, nil
}

// EncodeYAML writes the set, and optional custom patterns, as a rules file.
func EncodeYAML(w io.Writer, s Set, patterns []hashcat.Definition) error {
	doc := struct {
		Rules        Set                  `yaml:"rules"`
		HashPatterns []hashcat.Definition `yaml:"hash_patterns,omitempty"`
	}{s, patterns}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func intPtr(v int) *int { return &v }

// maxPtr omits unbounded maxima so they round-trip to the default.
func maxPtr(v int) *int {
	if v >= Unbounded {
		return nil
	}
	return &v
}
