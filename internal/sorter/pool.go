package sorter

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pool sorts many files concurrently, one task per file.
type Pool struct {
	Sorter  *Sorter
	Workers int // values below 1 mean 1
	Logger  *zap.Logger

	// OnResult, if set, is called after each file finishes. Calls may come
	// from several goroutines at once.
	OnResult func(Result)
}

// Run sorts files and returns one Result per file in input order. A failing
// file does not stop the others; all failures are returned joined. Once ctx
// is done no further files are started and the remaining results carry the
// context error.
func (p Pool) Run(ctx context.Context, files []string) ([]Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(workers)

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Path: path, Err: err}
			errs[i] = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err}
				errs[i] = err
				return nil
			}
			res, err := p.Sorter.SortFile(path)
			results[i] = res
			if err != nil {
				errs[i] = err
				logger.Error("sort failed", zap.String("file", path), zap.Error(err))
			}
			if p.OnResult != nil {
				p.OnResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}
