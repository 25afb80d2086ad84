// Package bucket routes classified records to per-outcome output files.
//
// A Router belongs to a single file run. It opens the good sink up front and
// every bad sink the first time a record with that label arrives. Sinks are
// opened in append mode, so re-running over the same input adds to earlier
// output instead of replacing it.
package bucket

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bimmerbailey/credsift/internal/classify"
)

const defaultBufSize = 64 * 1024

// ErrClosed is returned by Route after Close.
var ErrClosed = errors.New("router closed")

// Opener creates the underlying writer for a sink path.
type Opener func(path string) (io.WriteCloser, error)

// AppendOpener opens path for appending, creating it with mode 0644.
func AppendOpener(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// DiscardOpener returns sinks that drop everything written to them.
func DiscardOpener(string) (io.WriteCloser, error) {
	return nopCloser{io.Discard}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// SinkName returns the file name for outcome o:
// <stem>_<prefix>_good.txt or <stem>_<prefix>_<label>_bad.txt.
func SinkName(stem, prefix string, o classify.Outcome) string {
	if o.IsGood() {
		return fmt.Sprintf("%s_%s_good.txt", stem, prefix)
	}
	return fmt.Sprintf("%s_%s_%s_bad.txt", stem, prefix, o.Label())
}

type sink struct {
	path string
	f    io.WriteCloser
	w    *bufio.Writer
	n    int
}

// Router maps outcomes to sinks. It is not safe for concurrent use.
type Router struct {
	dir    string
	stem   string
	prefix string
	open   Opener
	bufSz  int

	sinks  map[classify.Outcome]*sink
	order  []classify.Outcome
	closed bool
}

// Option configures a Router.
type Option func(*Router)

// WithOpener replaces the sink factory. The default is AppendOpener.
func WithOpener(open Opener) Option {
	return func(r *Router) {
		r.open = open
	}
}

// WithBufferSize sets the per-sink write buffer size.
func WithBufferSize(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.bufSz = n
		}
	}
}

// New creates a Router writing into dir and opens the good sink.
func New(dir, stem, prefix string, opts ...Option) (*Router, error) {
	r := &Router{
		dir:    dir,
		stem:   stem,
		prefix: prefix,
		open:   AppendOpener,
		bufSz:  defaultBufSize,
		sinks:  make(map[classify.Outcome]*sink),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := r.sink(classify.Good); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Router) sink(o classify.Outcome) (*sink, error) {
	if s, ok := r.sinks[o]; ok {
		return s, nil
	}
	path := filepath.Join(r.dir, SinkName(r.stem, r.prefix, o))
	f, err := r.open(path)
	if err != nil {
		return nil, fmt.Errorf("open sink %s: %w", path, err)
	}
	s := &sink{path: path, f: f, w: bufio.NewWriterSize(f, r.bufSz)}
	r.sinks[o] = s
	r.order = append(r.order, o)
	return s, nil
}

// Route appends line to the sink for o, opening it if needed.
func (r *Router) Route(o classify.Outcome, line string) error {
	if r.closed {
		return ErrClosed
	}
	s, err := r.sink(o)
	if err != nil {
		return err
	}
	if _, err := s.w.WriteString(line); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.n++
	return nil
}

// Counts returns the number of records routed to each outcome. The good
// outcome is always present. Counts stay readable after Close.
func (r *Router) Counts() map[classify.Outcome]int {
	out := make(map[classify.Outcome]int, len(r.sinks))
	for o, s := range r.sinks {
		out[o] = s.n
	}
	return out
}

// Paths returns the sink paths in the order they were opened.
func (r *Router) Paths() []string {
	out := make([]string, 0, len(r.order))
	for _, o := range r.order {
		out = append(out, r.sinks[o].path)
	}
	return out
}

// Close flushes and closes every sink. It keeps going after a failure and
// returns all errors joined. Closing twice is a no-op.
func (r *Router) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, o := range r.order {
		s := r.sinks[o]
		if err := s.w.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", s.path, err))
		}
		if err := s.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.path, err))
		}
	}
	return errors.Join(errs...)
}
