package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"logtriage/internal/aggregate"
	"logtriage/internal/classify"
	"logtriage/internal/config"
	"logtriage/internal/types"
)

// maxLineSize bounds a single scanned line (1 MiB)
const maxLineSize = 1024 * 1024

// Pipeline runs the one-shot batch fold: read lines, classify, aggregate,
// snapshot. It holds no per-run state and may be reused.
type Pipeline struct {
	classifier *classify.Classifier
	cfg        *config.Config
	workers    int
	logger     *zap.Logger
}

// New creates a Pipeline. workers < 2 selects the sequential fold.
func New(classifier *classify.Classifier, cfg *config.Config, workers int, logger *zap.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		classifier: classifier,
		cfg:        cfg,
		workers:    workers,
		logger:     logger,
	}
}

// Run processes the named input and returns the final Report. The input is a
// file path, a doublestar glob matching several files (processed in sorted
// path order), or "-" for stdin. Exhausting the input is the only way to get
// a Report: fatal errors surface immediately and no partial Report is built.
func (p *Pipeline) Run(ctx context.Context, input string) (types.Report, error) {
	agg := aggregate.New(p.cfg.BucketBy, p.cfg.CategoryNames())

	if input == "-" {
		if err := p.fold(ctx, os.Stdin, "stdin", agg); err != nil {
			return types.Report{}, err
		}
		return agg.Snapshot([]string{"stdin"}), nil
	}

	paths, err := expandInput(input)
	if err != nil {
		return types.Report{}, err
	}

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return types.Report{}, fmt.Errorf("%w: %v", types.ErrUnreadableInput, err)
		}
		err = p.fold(ctx, f, path, agg)
		f.Close()
		if err != nil {
			return types.Report{}, err
		}
		p.logger.Debug("Processed input file", zap.String("path", path))
	}

	return agg.Snapshot(paths), nil
}

// fold streams one reader into the aggregator
func (p *Pipeline) fold(ctx context.Context, r io.Reader, source string, agg *aggregate.Aggregator) error {
	if p.workers > 1 {
		return p.foldParallel(ctx, r, source, agg)
	}

	scanner := newScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		agg.Observe(p.classifier.Classify(scanner.Text(), source))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: reading %s: %v", types.ErrUnreadableInput, source, err)
	}
	return nil
}

// foldParallel shards the input into contiguous chunks, folds each chunk into
// a private Aggregator, and merges in chunk order. Classification is pure per
// line, so the merged result is byte-identical to the sequential fold,
// including extracted-value order.
func (p *Pipeline) foldParallel(ctx context.Context, r io.Reader, source string, agg *aggregate.Aggregator) error {
	lines, err := readAll(r, source)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	workers := p.workers
	if workers > len(lines) {
		workers = len(lines)
	}
	chunkSize := (len(lines) + workers - 1) / workers

	shards := make([]*aggregate.Aggregator, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		lo := i * chunkSize
		hi := lo + chunkSize
		if hi > len(lines) {
			hi = len(lines)
		}
		shards[i] = aggregate.New(p.cfg.BucketBy, p.cfg.CategoryNames())

		wg.Add(1)
		go func(chunk []string, shard *aggregate.Aggregator) {
			defer wg.Done()
			for _, line := range chunk {
				shard.Observe(p.classifier.Classify(line, source))
			}
		}(lines[lo:hi], shards[i])
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	// Shard order is chunk order, which preserves original line order.
	for _, shard := range shards {
		agg.Merge(shard)
	}
	return nil
}

// expandInput resolves a path or doublestar glob to a sorted list of files
func expandInput(input string) ([]string, error) {
	// Plain paths are checked directly so permission errors and typos get a
	// precise message instead of "no files matched".
	if !hasGlobMeta(input) {
		if _, err := os.Stat(input); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrUnreadableInput, err)
		}
		return []string{input}, nil
	}

	paths, err := doublestar.FilepathGlob(input, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("%w: glob %q: %v", types.ErrUnreadableInput, input, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files matched %q", types.ErrUnreadableInput, input)
	}
	sort.Strings(paths)
	return paths, nil
}

func hasGlobMeta(path string) bool {
	for _, r := range path {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func readAll(r io.Reader, source string) ([]string, error) {
	var lines []string
	scanner := newScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", types.ErrUnreadableInput, source, err)
	}
	return lines, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}
