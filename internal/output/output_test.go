package output

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bimmerbailey/credsift/internal/analyzer"
	"github.com/bimmerbailey/credsift/internal/hashcat"
	"github.com/bimmerbailey/credsift/internal/ledger"
)

func sampleStats() analyzer.Stats {
	return analyzer.Stats{
		Files:      2,
		Failed:     1,
		TotalLines: 10,
		Dropped:    1,
		Good:       6,
		Bad:        3,
		GoodRate:   6.0 / 9.0,
		Elapsed:    1500 * time.Millisecond,
		Buckets: []analyzer.BucketCount{
			{Label: "good", Count: 6, Percent: 66.7},
			{Label: "len_limit", Count: 3, Percent: 33.3},
		},
		PerFile: []analyzer.FileSummary{
			{Path: "a.txt", Lines: 10, Good: 6, Bad: 3, Dropped: 1},
			{Path: "dir", Error: "dir: not a regular file"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json":  FormatJSON,
		"TABLE": FormatTable,
		"text":  FormatText,
		"bogus": FormatText,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteStatsText(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatText).WriteStats(sampleStats()); err != nil {
		t.Fatalf("WriteStats() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Sort Summary",
		"Files:       2 (1 failed)",
		"Lines:       10",
		"Good:        6 (66.7%)",
		"Bad:         3",
		"len_limit",
		"dir: not a regular file",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("expected no color codes, got:\n%s", out)
	}
}

func TestWriteStatsText_Color(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, FormatText)
	w.SetColor(ColorAlways)
	if err := w.WriteStats(sampleStats()); err != nil {
		t.Fatalf("WriteStats() error = %v", err)
	}
	if !strings.Contains(buf.String(), colorGreen+"6"+colorReset) {
		t.Errorf("expected green good count, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), colorRed+"3"+colorReset) {
		t.Errorf("expected red bad count, got:\n%s", buf.String())
	}
}

func TestWriteStatsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatJSON).WriteStats(sampleStats()); err != nil {
		t.Fatalf("WriteStats() error = %v", err)
	}

	var got analyzer.Stats
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.Good != 6 || len(got.Buckets) != 2 || got.Buckets[1].Label != "len_limit" {
		t.Errorf("unexpected decoded stats: %+v", got)
	}
}

func TestWriteStatsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, FormatTable).WriteStats(sampleStats()); err != nil {
		t.Fatalf("WriteStats() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"BUCKET", "COUNT", "PERCENT", "FILE", "DROPPED", "a.txt", "not a regular file"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q, got:\n%s", want, out)
		}
	}
}

func TestWriteMatches(t *testing.T) {
	matches := []Match{
		{File: "a.txt", Line: 1, Label: "good", Record: "user@example.com:Passw0rd!"},
		{File: "a.txt", Line: 3, Label: "len_limit", Record: "abc:Passw0rd!"},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := New(&buf, FormatText).WriteMatches(matches, false); err != nil {
			t.Fatal(err)
		}
		want := "user@example.com:Passw0rd!\nabc:Passw0rd!\n"
		if buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})

	t.Run("text with file", func(t *testing.T) {
		var buf bytes.Buffer
		if err := New(&buf, FormatText).WriteMatches(matches[:1], true); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "a.txt:user@example.com:Passw0rd!\n" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("json empty", func(t *testing.T) {
		var buf bytes.Buffer
		if err := New(&buf, FormatJSON).WriteMatches(nil, false); err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("got %q, want []", buf.String())
		}
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := New(&buf, FormatTable).WriteMatches(matches, true); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "LABEL") || !strings.Contains(buf.String(), "len_limit") {
			t.Errorf("unexpected table:\n%s", buf.String())
		}
	})
}

func TestWriteHistory(t *testing.T) {
	entries := []ledger.Entry{
		{RunID: "0123456789abcdef", Path: "a.txt", Lines: 10, Good: 6, StartedAt: time.Now(), Elapsed: time.Second},
		{RunID: "0123456789abcdef", Path: "dir", Error: "dir: not a regular file", StartedAt: time.Now()},
	}

	var buf bytes.Buffer
	if err := New(&buf, FormatText).WriteHistory(entries); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "01234567 ") || strings.Contains(out, "0123456789") {
		t.Errorf("expected run id shortened to 8 chars:\n%s", out)
	}
	if !strings.Contains(out, "ok") || !strings.Contains(out, "not a regular file") {
		t.Errorf("missing status column:\n%s", out)
	}
}

func TestWriteCatalog(t *testing.T) {
	patterns := []hashcat.Pattern{
		{Type: "md5", Label: "[MD5]_[0]", Length: 32, Regex: regexp.MustCompile(`(?i)^[a-f0-9]{32}$`)},
	}

	var buf bytes.Buffer
	if err := New(&buf, FormatTable).WriteCatalog(patterns); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[MD5]_[0]") || !strings.Contains(buf.String(), "LENGTH") {
		t.Errorf("unexpected catalog table:\n%s", buf.String())
	}

	buf.Reset()
	if err := New(&buf, FormatJSON).WriteCatalog(patterns); err != nil {
		t.Fatal(err)
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) != 1 || rows[0]["type"] != "md5" {
		t.Errorf("unexpected rows: %v", rows)
	}
}
