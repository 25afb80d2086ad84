// Package parser turns raw dump lines into records.
//
// A Tokenizer splits a line on the first delimiter from a preference list
// that occurs in it. A Parser streams lines from a reader, applies the
// configured UTF-8 decode policy and hands each tokenized record to a callback.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Record is one input line split into fields.
type Record struct {
	Line   string
	Fields []string
	Num    int // 1-based line number in the source stream; 0 when tokenized directly
}

// Tokenizer splits lines using an ordered delimiter preference list.
type Tokenizer struct {
	delims []string
}

// NewTokenizer creates a Tokenizer. Delimiters are tried in the given order.
func NewTokenizer(delims []string) (*Tokenizer, error) {
	if len(delims) == 0 {
		return nil, errors.New("at least one delimiter is required")
	}
	for i, d := range delims {
		if d == "" {
			return nil, fmt.Errorf("delimiter %d is empty", i)
		}
	}
	return &Tokenizer{delims: append([]string(nil), delims...)}, nil
}

// Delimiter returns the first preferred delimiter present anywhere in line.
func (t *Tokenizer) Delimiter(line string) (string, bool) {
	for _, d := range t.delims {
		if strings.Contains(line, d) {
			return d, true
		}
	}
	return "", false
}

// Tokenize splits line on every occurrence of its chosen delimiter. A line
// without any delimiter yields a single field holding the whole line.
func (t *Tokenizer) Tokenize(line string) Record {
	d, ok := t.Delimiter(line)
	if !ok {
		return Record{Line: line, Fields: []string{line}}
	}
	return Record{Line: line, Fields: strings.Split(line, d)}
}

// DecodePolicy decides what happens to lines that are not valid UTF-8.
type DecodePolicy int

const (
	// DecodeReplace substitutes U+FFFD for invalid byte sequences.
	DecodeReplace DecodePolicy = iota
	// DecodeDrop logs the line and skips it.
	DecodeDrop
)

// String returns the configuration name of the policy.
func (p DecodePolicy) String() string {
	if p == DecodeDrop {
		return "drop"
	}
	return "replace"
}

// ParseDecodePolicy converts a configuration value to a DecodePolicy.
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "replace":
		return DecodeReplace, nil
	case "drop":
		return DecodeDrop, nil
	default:
		return DecodeReplace, fmt.Errorf("unknown decode policy: %s", s)
	}
}

// Stats summarises one stream.
type Stats struct {
	Lines   int // lines read, including dropped ones
	Dropped int
}

// Parser streams records out of line-oriented input.
type Parser struct {
	tokenizer *Tokenizer
	policy    DecodePolicy
	logger    *zap.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithDecodePolicy sets how invalid UTF-8 is handled. Default is DecodeReplace.
func WithDecodePolicy(p DecodePolicy) Option {
	return func(ps *Parser) {
		ps.policy = p
	}
}

// WithLogger sets the logger used to report dropped lines.
func WithLogger(l *zap.Logger) Option {
	return func(ps *Parser) {
		if l != nil {
			ps.logger = l
		}
	}
}

// New creates a Parser around the given tokenizer.
func New(t *Tokenizer, opts ...Option) *Parser {
	p := &Parser{
		tokenizer: t,
		policy:    DecodeReplace,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tokenizer returns the tokenizer used by the parser.
func (p *Parser) Tokenizer() *Tokenizer {
	return p.tokenizer
}

// ParseFileStream opens path and streams its records to fn.
func (p *Parser) ParseFileStream(path string, fn func(Record) error) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()

	return p.ParseStream(f, path, fn)
}

// ParseStream reads r line by line and calls fn for every record in file
// order. name identifies the stream in log output. An error from fn stops
// the stream and is returned unchanged.
func (p *Parser) ParseStream(r io.Reader, name string, fn func(Record) error) (Stats, error) {
	var stats Stats
	reader := bufio.NewReaderSize(r, 64*1024)

	for {
		raw, err := reader.ReadBytes('\n')
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, err
		}
		stats.Lines++

		raw = bytes.TrimSuffix(raw, []byte("\n"))
		raw = bytes.TrimSuffix(raw, []byte("\r"))

		line, ok := p.decode(raw)
		if !ok {
			stats.Dropped++
			p.logger.Warn("dropping line with invalid UTF-8",
				zap.String("file", name),
				zap.Int("line", stats.Lines))
		} else {
			rec := p.tokenizer.Tokenize(line)
			rec.Num = stats.Lines
			if ferr := fn(rec); ferr != nil {
				return stats, ferr
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, err
		}
	}
}

func (p *Parser) decode(raw []byte) (string, bool) {
	if utf8.Valid(raw) {
		return string(raw), true
	}
	if p.policy == DecodeDrop {
		return "", false
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD"), true
}
