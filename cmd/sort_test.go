package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bimmerbailey/credsift/internal/analyzer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sampleLines = []string{
	"User@Example.com:Passw0rd!",
	"only-one-field",
	"abc:Passw0rd!",
	"notanemail:Passw0rd!",
	"user@example.com:5f4dcc3b5aa765d61d8327deb882cf99",
	"user@example.com:5f4dcc3b5aa765d61d8327deb882cf99:salt",
}

func writeTempFile(t *testing.T, dir string, name string, lines []string) string {
	path := filepath.Join(dir, name)
	content := []byte(joinLines(lines) + "\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func joinLines(lines []string) string {
	buf := bytes.Buffer{}
	for i, line := range lines {
		buf.WriteString(line)
		if i < len(lines)-1 {
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	return string(data)
}

// newBatchTestCmd mirrors the flags sort and stats see at runtime, including
// the rule flags inherited from the root command.
func newBatchTestCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{Use: "sort"}
	cmd.SetOut(out)
	cmd.Flags().Int("top", 0, "number of buckets to list")
	cmd.Flags().Bool("no-color", false, "disable colored output")
	addRuleFlags(cmd)
	cmd.Flags().AddFlagSet(cmd.PersistentFlags())
	return cmd
}

func TestSortDefaultPipeline(t *testing.T) {
	viper.Reset()
	viper.Set("format", "text")

	dir := t.TempDir()
	file := writeTempFile(t, dir, "dump.txt", sampleLines)

	var out bytes.Buffer
	if err := runSort(newBatchTestCmd(&out), []string{file}); err != nil {
		t.Fatalf("runSort() error = %v", err)
	}

	output := out.String()
	for _, want := range []string{"Files:       1", "Lines:       6", "Good:        1", "Bad:         5"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}

	if got := readFile(t, filepath.Join(dir, "dump_result_good.txt")); got != "user@example.com:Passw0rd!\n" {
		t.Errorf("good file = %q", got)
	}
	for _, name := range []string{
		"dump_result_split_limiter_bad.txt",
		"dump_result_len_limit_bad.txt",
		"dump_result_not_email_bad.txt",
		"dump_result_[MD5]_[0]_bad.txt",
		"dump_result_[MD5]_[0]_[SALT]_bad.txt",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected output file %s: %v", name, err)
		}
	}
}

func TestSortSkipsOutputFiles(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	writeTempFile(t, dir, "dump.txt", []string{"a@example.com:Passw0rd!"})
	pattern := filepath.Join(dir, "*.txt")

	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		if err := runSort(newBatchTestCmd(&out), []string{pattern}); err != nil {
			t.Fatalf("run %d: runSort() error = %v", i, err)
		}
		if !strings.Contains(out.String(), "Files:       1") {
			t.Fatalf("run %d: expected a single input file:\n%s", i, out.String())
		}
	}

	// The second run appends to the first run's output.
	if got := readFile(t, filepath.Join(dir, "dump_result_good.txt")); got != "a@example.com:Passw0rd!\na@example.com:Passw0rd!\n" {
		t.Errorf("good file = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "dump_result_good_result_good.txt")); err == nil {
		t.Error("output file was sorted as input")
	}
}

func TestSortPrefixAndOutputDir(t *testing.T) {
	viper.Reset()
	outDir := t.TempDir()
	viper.Set("prefix", "run2")
	viper.Set("output_dir", outDir)

	file := writeTempFile(t, t.TempDir(), "leak.txt", []string{"a@example.com:Passw0rd!"})

	var out bytes.Buffer
	if err := runSort(newBatchTestCmd(&out), []string{file}); err != nil {
		t.Fatalf("runSort() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "leak_run2_good.txt")); err != nil {
		t.Errorf("expected output in --output-dir: %v", err)
	}
}

func TestSortRuleFlags(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	file := writeTempFile(t, dir, "dump.txt", []string{
		"a@example.com:x",
		"a@example.com:x:y",
		"nope:x",
	})

	var out bytes.Buffer
	cmd := newBatchTestCmd(&out)
	for flag, value := range map[string]string{"split-min": "2", "split-max": "2", "email-index": "0"} {
		if err := cmd.Flags().Set(flag, value); err != nil {
			t.Fatalf("Set(%s) error = %v", flag, err)
		}
	}

	if err := runSort(cmd, []string{file}); err != nil {
		t.Fatalf("runSort() error = %v", err)
	}

	if got := readFile(t, filepath.Join(dir, "dump_result_good.txt")); got != "a@example.com:x\n" {
		t.Errorf("good file = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "dump_result_split_limiter_bad.txt")); got != "a@example.com:x:y\n" {
		t.Errorf("split_limiter file = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "dump_result_not_email_bad.txt")); got != "nope:x\n" {
		t.Errorf("not_email file = %q", got)
	}
}

func TestSortInvalidRuleFlags(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	file := writeTempFile(t, dir, "dump.txt", sampleLines)

	var out bytes.Buffer
	cmd := newBatchTestCmd(&out)
	if err := cmd.Flags().Set("hash-index", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	err := runSort(cmd, []string{file})
	if err == nil || !strings.Contains(err.Error(), "invalid rule flags") {
		t.Fatalf("expected rule flag error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("configuration error must stop before any output is written, found %d files", len(entries))
	}
}

func TestSortRulesFile(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	rulesYAML := `rules:
  - field_count: {min: 2, max: 2}
  - hash: {index: 1}
hash_patterns:
  - type: pin
    label: "[PIN]_[0]"
    regex: '^[0-9]{4}$'
    length: 4
`
	if err := os.WriteFile(rulesPath, []byte(rulesYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	viper.Set("rules_file", rulesPath)

	file := writeTempFile(t, dir, "dump.txt", []string{"bob:1234", "bob:hunter2"})

	var out bytes.Buffer
	if err := runSort(newBatchTestCmd(&out), []string{file}); err != nil {
		t.Fatalf("runSort() error = %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "dump_result_[PIN]_[0]_bad.txt")); got != "bob:1234\n" {
		t.Errorf("custom hash bucket = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "dump_result_good.txt")); got != "bob:hunter2\n" {
		t.Errorf("good file = %q", got)
	}
}

func TestSortFailedFile(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	good := writeTempFile(t, dir, "a.txt", []string{"a@example.com:Passw0rd!"})
	bad := filepath.Join(dir, "b.txt")
	if err := os.Mkdir(bad, 0o755); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := runSort(newBatchTestCmd(&out), []string{good, bad})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 files failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a_result_good.txt")); err != nil {
		t.Errorf("healthy file must still be sorted: %v", err)
	}
	if !strings.Contains(out.String(), "not a regular file") {
		t.Errorf("expected failure in summary:\n%s", out.String())
	}
}

func TestSortLedgerAndHistory(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	viper.Set("ledger", filepath.Join(dir, "ledger.db"))
	file := writeTempFile(t, dir, "dump.txt", sampleLines)

	var out bytes.Buffer
	if err := runSort(newBatchTestCmd(&out), []string{file}); err != nil {
		t.Fatalf("runSort() error = %v", err)
	}

	viper.Set("format", "json")
	out.Reset()
	hist := &cobra.Command{Use: "history"}
	hist.SetOut(&out)
	hist.Flags().IntP("limit", "n", 20, "number of runs to show")
	if err := runHistory(hist, nil); err != nil {
		t.Fatalf("runHistory() error = %v", err)
	}

	var entries []struct {
		Path  string `json:"path"`
		Lines int    `json:"lines"`
		Good  int    `json:"good"`
	}
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if len(entries) != 1 || entries[0].Path != file || entries[0].Lines != 6 || entries[0].Good != 1 {
		t.Errorf("unexpected history: %+v", entries)
	}
}

func TestHistoryWithoutLedger(t *testing.T) {
	viper.Reset()

	var out bytes.Buffer
	hist := &cobra.Command{Use: "history"}
	hist.SetOut(&out)
	hist.Flags().IntP("limit", "n", 20, "number of runs to show")
	if err := runHistory(hist, nil); err == nil {
		t.Fatal("expected error without a ledger")
	}
}

func TestStatsDryRun(t *testing.T) {
	viper.Reset()
	viper.Set("format", "json")

	dir := t.TempDir()
	file := writeTempFile(t, dir, "dump.txt", sampleLines)

	var out bytes.Buffer
	if err := runStats(newBatchTestCmd(&out), []string{file}); err != nil {
		t.Fatalf("runStats() error = %v", err)
	}

	var stats analyzer.Stats
	if err := json.Unmarshal(out.Bytes(), &stats); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if stats.TotalLines != 6 || stats.Good != 1 || stats.Bad != 5 || len(stats.Buckets) != 6 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("stats must not write output files, found %d entries", len(entries))
	}
}

func TestStatsTable(t *testing.T) {
	viper.Reset()
	viper.Set("format", "table")

	file := writeTempFile(t, t.TempDir(), "dump.txt", sampleLines)

	var out bytes.Buffer
	cmd := newBatchTestCmd(&out)
	if err := cmd.Flags().Set("top", "2"); err != nil {
		t.Fatal(err)
	}
	if err := runStats(cmd, []string{file}); err != nil {
		t.Fatalf("runStats() error = %v", err)
	}
	if !strings.Contains(out.String(), "BUCKET") || !strings.Contains(out.String(), "dump.txt") {
		t.Errorf("unexpected table:\n%s", out.String())
	}
}

func TestRuleBuilderIgnoresMissingFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "bare"}
	if !ruleBuilder(cmd).Empty() {
		t.Error("a command without rule flags must yield an empty builder")
	}

	cmd = newBatchTestCmd(&bytes.Buffer{})
	b := ruleBuilder(cmd)
	if !b.Empty() {
		t.Error("default len bounds alone must not select a custom rule set")
	}
	if len(b.LenMin) != 1 || b.LenMin[0] != 5 || b.LenMax[0] != 40 {
		t.Errorf("unexpected default len bounds: %v %v", b.LenMin, b.LenMax)
	}
}
