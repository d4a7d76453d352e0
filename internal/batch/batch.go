// Package batch evaluates directories of sensor frames and aggregates
// the per-file flare metrics.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/banshee-data/flare.report/internal/flare"
	"github.com/banshee-data/flare.report/internal/frame"
	"github.com/banshee-data/flare.report/internal/history"
	"github.com/banshee-data/flare.report/internal/monitoring"
	"github.com/banshee-data/flare.report/internal/report"
)

// Options configures a batch run.
type Options struct {
	// Params are the evaluation thresholds applied to every frame.
	Params flare.Params
	// BitDepth is used when decoding PNG input.
	BitDepth int
	// Workers bounds concurrent evaluations; 0 means NumCPU.
	Workers int
	// Advanced enables postprocessed metrics per frame.
	Advanced bool
	// Store, when non-nil, records every successful evaluation.
	Store *history.RunStore
}

// Item is the outcome for a single input file.
type Item struct {
	File     string
	Result   *flare.Result
	Advanced *flare.AdvancedMetrics
	Err      error
}

// Summary collects the outcomes of a batch run in input order.
type Summary struct {
	Items []Item
}

// Failed returns the items whose evaluation failed.
func (s *Summary) Failed() []Item {
	var failed []Item
	for _, it := range s.Items {
		if it.Err != nil {
			failed = append(failed, it)
		}
	}
	return failed
}

// Entries converts the successful items into report batch entries.
func (s *Summary) Entries() []report.BatchEntry {
	var entries []report.BatchEntry
	for _, it := range s.Items {
		if it.Err != nil {
			continue
		}
		entries = append(entries, report.BatchEntry{
			File:     filepath.Base(it.File),
			Result:   it.Result,
			Advanced: it.Advanced,
		})
	}
	return entries
}

// Run evaluates every supported frame file directly under dir. Files
// are processed concurrently but reported in name order. Run returns
// an error only when the directory itself cannot be used; per-file
// failures are carried in the summary.
func Run(dir string, opts Options) (*Summary, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	files, err := listFrameFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frame files (.csv, .pgm, .png) found in %s", dir)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) {
		workers = len(files)
	}

	summary := &Summary{Items: make([]Item, len(files))}
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				summary.Items[i] = evaluateFile(files[i], opts)
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, it := range summary.Items {
		if it.Err != nil {
			monitoring.Logf("batch: %s: %v", it.File, it.Err)
		}
	}

	return summary, nil
}

func evaluateFile(path string, opts Options) Item {
	item := Item{File: path}

	f, err := frame.Load(path, opts.BitDepth)
	if err != nil {
		item.Err = fmt.Errorf("load: %w", err)
		return item
	}

	res, err := flare.Evaluate(f, opts.Params)
	if err != nil {
		item.Err = fmt.Errorf("evaluate: %w", err)
		return item
	}
	item.Result = res

	if opts.Advanced {
		item.Advanced = flare.ComputeAdvanced(res, opts.Params)
	}

	if opts.Store != nil {
		run, err := history.NewRun(filepath.Base(path), res, item.Advanced, opts.Params)
		if err == nil {
			err = opts.Store.Insert(run)
		}
		if err != nil {
			item.Err = fmt.Errorf("record run: %w", err)
		}
	}

	return item
}

func listFrameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !frame.SupportedExt(filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
