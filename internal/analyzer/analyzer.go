// Package analyzer aggregates file run results into run statistics.
package analyzer

import (
	"sort"
	"time"

	"github.com/bimmerbailey/credsift/internal/classify"
	"github.com/bimmerbailey/credsift/internal/sorter"
)

// Stats holds aggregate statistics for a set of file runs.
type Stats struct {
	Files      int           `json:"files"`
	Failed     int           `json:"failed"`
	TotalLines int           `json:"total_lines"`
	Dropped    int           `json:"dropped"`
	Good       int           `json:"good"`
	Bad        int           `json:"bad"`
	GoodRate   float64       `json:"good_rate"`
	Elapsed    time.Duration `json:"elapsed"`
	Buckets    []BucketCount `json:"buckets,omitempty"`
	PerFile    []FileSummary `json:"per_file,omitempty"`
}

// BucketCount tracks a bucket label and how many records it received.
type BucketCount struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// FileSummary is the per-file line of a multi-file run.
type FileSummary struct {
	Path    string `json:"path"`
	Lines   int    `json:"lines"`
	Good    int    `json:"good"`
	Bad     int    `json:"bad"`
	Dropped int    `json:"dropped"`
	Error   string `json:"error,omitempty"`
}

// Analyzer aggregates run results.
type Analyzer struct{}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// ComputeStats sums results and returns the topN buckets by count. A topN
// of 0 or less keeps every bucket. Failed results count toward Files and
// Failed only.
func (a *Analyzer) ComputeStats(results []sorter.Result, topN int) Stats {
	stats := Stats{Files: len(results)}
	counts := make(map[string]int)

	for _, r := range results {
		summary := FileSummary{Path: r.Path}
		if r.Err != nil {
			stats.Failed++
			summary.Error = r.Err.Error()
			stats.PerFile = append(stats.PerFile, summary)
			continue
		}

		stats.TotalLines += r.Lines
		stats.Dropped += r.Dropped
		stats.Elapsed += r.Elapsed
		for label, n := range r.Buckets {
			counts[label] += n
		}

		summary.Lines = r.Lines
		summary.Good = r.Good()
		summary.Bad = r.Bad()
		summary.Dropped = r.Dropped
		stats.PerFile = append(stats.PerFile, summary)
	}

	stats.Good = counts[classify.Good.Label()]
	for label, n := range counts {
		if label != classify.Good.Label() {
			stats.Bad += n
		}
	}
	if routed := stats.Good + stats.Bad; routed > 0 {
		stats.GoodRate = float64(stats.Good) / float64(routed)
	}

	stats.Buckets = topBuckets(counts, stats.Good+stats.Bad, topN)
	return stats
}

// topBuckets orders buckets by count descending, then label, and keeps n.
func topBuckets(counts map[string]int, total, n int) []BucketCount {
	out := make([]BucketCount, 0, len(counts))
	for label, count := range counts {
		bc := BucketCount{Label: label, Count: count}
		if total > 0 {
			bc.Percent = float64(count) * 100 / float64(total)
		}
		out = append(out, bc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
