// Package classify evaluates a rule set against records and decides which
// bucket each record belongs to.
package classify

import (
	"regexp"
	"strings"

	"github.com/bimmerbailey/credsift/internal/hashcat"
	"github.com/bimmerbailey/credsift/internal/parser"
	"github.com/bimmerbailey/credsift/internal/rules"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Labels of bad outcomes produced by rules other than hash matches.
const (
	LabelSplitLimiter     = "split_limiter"
	LabelLenLimit         = "len_limit"
	LabelNotEmail         = "not_email"
	LabelUnrecognizedHash = "unrecognized_hash"

	// SaltSuffix is appended to hash labels of records with more than two
	// fields; the extra column is taken to be a salt.
	SaltSuffix = "_[SALT]"

	goodLabel = "good"
)

// Outcome is the classification of one record: Good, or Bad with a label.
// The zero value is Good. Outcomes are comparable and used as map keys.
type Outcome struct {
	bad   bool
	label string
}

// Good is the outcome of a record that passed every rule.
var Good = Outcome{}

// Bad returns the outcome for a record rejected under label.
func Bad(label string) Outcome {
	return Outcome{bad: true, label: label}
}

// IsGood reports whether the outcome is Good.
func (o Outcome) IsGood() bool {
	return !o.bad
}

// Label returns the bad label, or "good".
func (o Outcome) Label() string {
	if !o.bad {
		return goodLabel
	}
	return o.label
}

func (o Outcome) String() string {
	if !o.bad {
		return "Good"
	}
	return "Bad(" + o.label + ")"
}

var emailPattern = regexp.MustCompile(`(?i)^\b[A-Za-z0-9._+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,7}\b$`)

// IsEmail reports whether s is shaped like an email address.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Classifier applies a rule set to records.
//
// The rule set and catalog are read-only and may be shared. A Classifier
// itself keeps case-mapping state and must not be used from more than one
// goroutine; create one per file run.
type Classifier struct {
	rules              rules.Set
	catalog            *hashcat.Catalog
	rejectUnrecognized bool
	lower              cases.Caser
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRejectUnrecognized makes a Hash rule reject values whose byte length
// has catalog entries but that match none of them.
func WithRejectUnrecognized(reject bool) Option {
	return func(c *Classifier) {
		c.rejectUnrecognized = reject
	}
}

// New creates a Classifier. A nil catalog means every built-in pattern.
func New(set rules.Set, catalog *hashcat.Catalog, opts ...Option) *Classifier {
	if catalog == nil {
		catalog = hashcat.MustNew(nil)
	}
	c := &Classifier{
		rules:   set,
		catalog: catalog,
		lower:   cases.Lower(language.Und),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify runs the rules in order against rec and returns the first bad
// outcome, or Good. Rules after a bad outcome are not evaluated. Lowercase
// rules modify rec in place and rebuild rec.Line joined with ":".
func (c *Classifier) Classify(rec *parser.Record) Outcome {
	for i := 0; i < c.rules.Len(); i++ {
		switch r := c.rules.At(i).(type) {
		case rules.FieldCount:
			n := len(rec.Fields)
			if n < r.Min || n > r.Max {
				return Bad(LabelSplitLimiter)
			}

		case rules.FieldLength:
			n := len(rec.Fields[r.Index])
			if n < r.Min || n > r.Max {
				return Bad(LabelLenLimit)
			}

		case rules.Lowercase:
			rec.Fields[r.Index] = c.lower.String(rec.Fields[r.Index])
			rec.Line = strings.Join(rec.Fields, ":")

		case rules.Email:
			if !emailPattern.MatchString(rec.Fields[r.Index]) {
				return Bad(LabelNotEmail)
			}

		case rules.Hash:
			p, res := c.catalog.Match(rec.Fields[r.Index])
			switch res {
			case hashcat.Matched:
				label := p.Label
				if len(rec.Fields) > 2 {
					label += SaltSuffix
				}
				return Bad(label)
			case hashcat.Unrecognized:
				if c.rejectUnrecognized {
					return Bad(LabelUnrecognizedHash)
				}
			}
		}
	}
	return Good
}
