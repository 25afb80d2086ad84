// Package output provides formatted output rendering for sort statistics,
// search matches, run history and the hash catalog. It supports text, JSON,
// and table formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bimmerbailey/credsift/internal/analyzer"
	"github.com/bimmerbailey/credsift/internal/classify"
	"github.com/bimmerbailey/credsift/internal/hashcat"
	"github.com/bimmerbailey/credsift/internal/ledger"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

var goodLabel = classify.Good.Label()

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	color  bool
}

// New creates a new output Writer. Color is off until SetColor is called.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// SetColor enables color for text output according to mode.
func (wr *Writer) SetColor(mode ColorMode) {
	wr.color = shouldColorize(mode, wr.w)
}

// Format returns the configured format.
func (wr *Writer) Format() Format {
	return wr.format
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteStats outputs run statistics in the configured format.
func (wr *Writer) WriteStats(s analyzer.Stats) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(s)
	case FormatTable:
		return wr.writeStatsTable(s)
	default:
		return wr.writeStatsText(s)
	}
}

func (wr *Writer) count(good bool, n int) string {
	if wr.color {
		return colorizeCount(good, n)
	}
	return fmt.Sprintf("%d", n)
}

func (wr *Writer) writeStatsText(s analyzer.Stats) error {
	heading := "Sort Summary"
	if wr.color {
		heading = bold(heading)
	}
	fmt.Fprintln(wr.w, heading)
	fmt.Fprintln(wr.w, strings.Repeat("=", 40))
	fmt.Fprintf(wr.w, "Files:       %d", s.Files)
	if s.Failed > 0 {
		fmt.Fprintf(wr.w, " (%d failed)", s.Failed)
	}
	fmt.Fprintln(wr.w)
	fmt.Fprintf(wr.w, "Lines:       %d\n", s.TotalLines)
	fmt.Fprintf(wr.w, "Dropped:     %d\n", s.Dropped)
	fmt.Fprintf(wr.w, "Good:        %s (%.1f%%)\n", wr.count(true, s.Good), s.GoodRate*100)
	fmt.Fprintf(wr.w, "Bad:         %s\n", wr.count(false, s.Bad))
	fmt.Fprintf(wr.w, "Elapsed:     %s\n", s.Elapsed.Round(time.Millisecond))

	if len(s.Buckets) > 0 {
		fmt.Fprintln(wr.w)
		fmt.Fprintln(wr.w, "Buckets:")
		for _, b := range s.Buckets {
			fmt.Fprintf(wr.w, "  %-32s %8d  %5.1f%%\n", b.Label, b.Count, b.Percent)
		}
	}

	var failed []analyzer.FileSummary
	for _, f := range s.PerFile {
		if f.Error != "" {
			failed = append(failed, f)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(wr.w)
		fmt.Fprintln(wr.w, "Failed:")
		for _, f := range failed {
			fmt.Fprintf(wr.w, "  %s\n", f.Error)
		}
	}
	return nil
}

func (wr *Writer) writeStatsTable(s analyzer.Stats) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BUCKET\tCOUNT\tPERCENT")
	fmt.Fprintln(tw, "------\t-----\t-------")
	for _, b := range s.Buckets {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", b.Label, b.Count, b.Percent)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.PerFile) == 0 {
		return nil
	}
	fmt.Fprintln(wr.w)

	tw = tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINES\tGOOD\tBAD\tDROPPED\tERROR")
	fmt.Fprintln(tw, "----\t-----\t----\t---\t-------\t-----")
	for _, f := range s.PerFile {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", f.Path, f.Lines, f.Good, f.Bad, f.Dropped, f.Error)
	}
	return tw.Flush()
}

// Match is one record selected by a search.
type Match struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Label  string `json:"label"`
	Record string `json:"record"`
}

// WriteMatches outputs search matches. In text mode each record is printed
// as is, prefixed with its file when withFile is set.
func (wr *Writer) WriteMatches(matches []Match, withFile bool) error {
	switch wr.format {
	case FormatJSON:
		if matches == nil {
			matches = []Match{}
		}
		return wr.WriteJSON(matches)
	case FormatTable:
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		if withFile {
			fmt.Fprintln(tw, "FILE\tLINE\tLABEL\tRECORD")
			fmt.Fprintln(tw, "----\t----\t-----\t------")
		} else {
			fmt.Fprintln(tw, "LINE\tLABEL\tRECORD")
			fmt.Fprintln(tw, "----\t-----\t------")
		}
		for _, m := range matches {
			if withFile {
				fmt.Fprintf(tw, "%s\t", m.File)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Line, m.Label, m.Record)
		}
		return tw.Flush()
	default:
		for _, m := range matches {
			rec := m.Record
			if wr.color {
				rec = ColorizeLabel(m.Label, rec)
			}
			if withFile {
				fmt.Fprintf(wr.w, "%s:%s\n", m.File, rec)
			} else {
				fmt.Fprintln(wr.w, rec)
			}
		}
		return nil
	}
}

// WriteHistory outputs ledger entries.
func (wr *Writer) WriteHistory(entries []ledger.Entry) error {
	if wr.format == FormatJSON {
		if entries == nil {
			entries = []ledger.Entry{}
		}
		return wr.WriteJSON(entries)
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tFILE\tLINES\tGOOD\tDROPPED\tELAPSED\tSTATUS")
	fmt.Fprintln(tw, "-------\t---\t----\t-----\t----\t-------\t-------\t------")
	for _, e := range entries {
		status := "ok"
		if e.Error != "" {
			status = e.Error
		}
		if wr.color {
			status = ColorizeLabel(statusLabel(e.Error), status)
		}
		runID := e.RunID
		if len(runID) > 8 {
			runID = runID[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			e.StartedAt.Local().Format("2006-01-02 15:04:05"), runID, e.Path,
			e.Lines, e.Good, e.Dropped, e.Elapsed.Round(time.Millisecond), status)
	}
	return tw.Flush()
}

func statusLabel(errText string) string {
	if errText == "" {
		return goodLabel
	}
	return "error"
}

// WriteCatalog outputs hash patterns in match order.
func (wr *Writer) WriteCatalog(patterns []hashcat.Pattern) error {
	if wr.format == FormatJSON {
		type row struct {
			Length int    `json:"length"`
			Type   string `json:"type"`
			Label  string `json:"label"`
			Regex  string `json:"regex"`
		}
		rows := make([]row, 0, len(patterns))
		for _, p := range patterns {
			rows = append(rows, row{p.Length, p.Type, p.Label, p.Regex.String()})
		}
		return wr.WriteJSON(rows)
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LENGTH\tTYPE\tLABEL\tREGEX")
	fmt.Fprintln(tw, "------\t----\t-----\t-----")
	for _, p := range patterns {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.Length, p.Type, p.Label, p.Regex.String())
	}
	return tw.Flush()
}
