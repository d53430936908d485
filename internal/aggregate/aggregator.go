package aggregate

import (
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"logtriage/internal/classify"
	"logtriage/internal/config"
	"logtriage/internal/types"
)

// Aggregator owns the single piece of mutable state in the pipeline. Observe
// folds classified lines into it; Snapshot hands out an immutable Report.
// Safe for concurrent Observe calls, though the pipeline prefers one
// Aggregator per shard plus a Merge.
type Aggregator struct {
	mu sync.Mutex

	bucketBy   string
	categories []string // configuration order

	totalLines    int
	degradedLines int
	severities    map[types.Severity]int
	categoryHits  map[string]int
	buckets       map[string]int
	extracted     map[string][]string
	windowStart   *time.Time
	windowEnd     *time.Time
}

// New creates an empty Aggregator for the given bucketing mode and category set
func New(bucketBy string, categories []string) *Aggregator {
	return &Aggregator{
		bucketBy:     bucketBy,
		categories:   append([]string{}, categories...),
		severities:   make(map[types.Severity]int),
		categoryHits: make(map[string]int),
		buckets:      make(map[string]int),
		extracted:    make(map[string][]string),
	}
}

// Observe folds one classified line into the aggregate state. Each matching
// category is incremented exactly once per line; the severity and bucket
// dimensions are always incremented, so both sum to the total line count.
func (a *Aggregator) Observe(res classify.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalLines++
	a.severities[res.Line.Severity]++

	if a.bucketBy != config.BucketByNone {
		a.buckets[a.bucketKey(res.Line.Timestamp)]++
	}

	if res.Line.Timestamp == nil {
		a.degradedLines++
	} else {
		ts := *res.Line.Timestamp
		if a.windowStart == nil || ts.Before(*a.windowStart) {
			a.windowStart = &ts
		}
		if a.windowEnd == nil || ts.After(*a.windowEnd) {
			a.windowEnd = &ts
		}
	}

	for _, name := range res.Categories {
		a.categoryHits[name]++
		if val, ok := res.Extracted[name]; ok {
			a.extracted[name] = append(a.extracted[name], val)
		}
	}
}

// bucketKey derives the histogram key for a timestamp. Total by construction:
// every parseable timestamp maps to exactly one key, nil maps to "unknown".
// Caller must hold the lock (reads bucketBy only, but kept uniform).
func (a *Aggregator) bucketKey(ts *time.Time) string {
	if ts == nil {
		return types.UnknownBucket
	}
	switch a.bucketBy {
	case config.BucketByDate:
		return ts.Format("2006-01-02")
	default:
		return fmt.Sprintf("%02d", ts.Hour())
	}
}

// Merge folds another Aggregator into this one. Counts are summed and
// extracted-value lists concatenated, so merging shard aggregators in shard
// order reproduces the sequential result exactly.
func (a *Aggregator) Merge(other *Aggregator) {
	other.mu.Lock()
	defer other.mu.Unlock()
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalLines += other.totalLines
	a.degradedLines += other.degradedLines
	for sev, n := range other.severities {
		a.severities[sev] += n
	}
	for name, n := range other.categoryHits {
		a.categoryHits[name] += n
	}
	for key, n := range other.buckets {
		a.buckets[key] += n
	}
	for name, vals := range other.extracted {
		a.extracted[name] = append(a.extracted[name], vals...)
	}
	if other.windowStart != nil && (a.windowStart == nil || other.windowStart.Before(*a.windowStart)) {
		a.windowStart = other.windowStart
	}
	if other.windowEnd != nil && (a.windowEnd == nil || other.windowEnd.After(*a.windowEnd)) {
		a.windowEnd = other.windowEnd
	}
}

// Snapshot returns an immutable Report of the current state. Every map and
// slice is copied, so later Observe calls never mutate a returned Report.
func (a *Aggregator) Snapshot(inputs []string) types.Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	severities := make(map[types.Severity]int, len(a.severities))
	for sev, n := range a.severities {
		severities[sev] = n
	}
	categoryHits := make(map[string]int, len(a.categoryHits))
	for name, n := range a.categoryHits {
		categoryHits[name] = n
	}
	buckets := make(map[string]int, len(a.buckets))
	for key, n := range a.buckets {
		buckets[key] = n
	}
	extracted := make(map[string][]string, len(a.extracted))
	for name, vals := range a.extracted {
		extracted[name] = append([]string{}, vals...)
	}

	var start, end *time.Time
	if a.windowStart != nil {
		ts := *a.windowStart
		start = &ts
	}
	if a.windowEnd != nil {
		ts := *a.windowEnd
		end = &ts
	}

	return types.Report{
		ID:             ulid.Make().String(),
		GeneratedAt:    time.Now(),
		Inputs:         append([]string{}, inputs...),
		TotalLines:     a.totalLines,
		DegradedLines:  a.degradedLines,
		WindowStart:    start,
		WindowEnd:      end,
		Categories:     append([]string{}, a.categories...),
		SeverityCounts: severities,
		CategoryCounts: categoryHits,
		BucketCounts:   buckets,
		Extracted:      extracted,
	}
}
