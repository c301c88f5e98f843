package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ironsheep/chart-ohlc/internal/imaging"
	"github.com/ironsheep/chart-ohlc/internal/ohlc"
)

// BatchOptions controls parallelism and per-image deadlines.
type BatchOptions struct {
	// MaxWorkers is the number of images processed at once.
	MaxWorkers int

	// Timeout bounds each image. Zero disables the deadline.
	Timeout time.Duration

	// OnResult, when set, is called from the worker goroutine as each image
	// finishes. index is the image's position in the input.
	OnResult func(index int, r ohlc.Result)
}

// DefaultBatchOptions returns 4 workers and a 30 second per-image deadline.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{MaxWorkers: 4, Timeout: 30 * time.Second}
}

// Batch applies a Recognizer to many images.
type Batch struct {
	rec  *Recognizer
	opts BatchOptions
}

// NewBatch returns a Batch using rec. MaxWorkers below 1 is treated as 1.
func NewBatch(rec *Recognizer, opts BatchOptions) *Batch {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	return &Batch{rec: rec, opts: opts}
}

// ListImages returns the supported image files directly inside dir, sorted
// by name. An unreadable directory is an error.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsSupported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// RunDir recognizes every supported image in dir. Only an unreadable
// directory fails the call; per-image failures are recorded in the results.
func (b *Batch) RunDir(ctx context.Context, dir string) ([]ohlc.Result, error) {
	paths, err := ListImages(dir)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] batch: %d images in %s, %d workers", len(paths), dir, b.opts.MaxWorkers)
	return b.Run(ctx, paths), nil
}

// Run recognizes paths with a worker pool and returns results in input order.
//
// Each image gets its own deadline. An image that overruns it, or panics,
// gets a failed result; the other results are unaffected. Canceling ctx
// fails every image not yet finished.
func (b *Batch) Run(ctx context.Context, paths []string) []ohlc.Result {
	results := make([]ohlc.Result, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := b.opts.MaxWorkers
	if workers > len(paths) {
		workers = len(paths)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.one(ctx, paths[i])
				if b.opts.OnResult != nil {
					b.opts.OnResult(i, results[i])
				}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// one runs a single image under its deadline. The recognition goroutine is
// not interrupted on timeout; its late result is discarded.
func (b *Batch) one(ctx context.Context, path string) ohlc.Result {
	name := filepath.Base(path)

	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	done := make(chan ohlc.Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Printf("[ERROR] %s: panic during recognition: %v", name, p)
				done <- ohlc.Failed(name, fmt.Errorf("panic during recognition: %v", p))
			}
		}()
		done <- b.rec.RecognizeFile(ctx, path)
	}()

	select {
	case r := <-done:
		if !r.OK() {
			log.Printf("[WARN] %s: %s", name, r.Error)
		}
		return r
	case <-ctx.Done():
		err := fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		log.Printf("[WARN] %s: %v", name, err)
		return ohlc.Failed(name, err)
	}
}
