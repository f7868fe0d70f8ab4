// Package execmode provides strategies for running a batch of workload items:
// sequential, fixed-width worker pool, and data-parallel fan-out.
//
// Every mode visits every item exactly once. Per-item failures are caught
// and aggregated into a BatchError; no mode aborts sibling work when a
// single item fails.
package execmode

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/heapbench/heapbench/internal/errors"
	"github.com/heapbench/heapbench/internal/workload"
)

// ItemFunc processes a single workload item.
type ItemFunc func(*workload.Item) error

// Mode runs a batch of items through an ItemFunc.
type Mode interface {
	// Name identifies the mode in configuration and reports.
	Name() string

	// Run applies fn to every item in the batch and returns only after every
	// item has been visited. Per-item failures are aggregated into a
	// *BatchError. Cancellation is honored only before the batch starts;
	// a started batch always drains.
	Run(ctx context.Context, batch []*workload.Item, fn ItemFunc) error
}

// ItemFailure records a single item's processing failure.
type ItemFailure struct {
	ItemID int
	Err    error
}

// BatchError aggregates per-item failures from one batch execution.
type BatchError struct {
	Failures []ItemFailure
}

// Error summarizes the aggregate failure.
func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("batch: 1 item failed: item %d: %v", e.Failures[0].ItemID, e.Failures[0].Err)
	}
	return fmt.Sprintf("batch: %d items failed (first: item %d: %v)",
		len(e.Failures), e.Failures[0].ItemID, e.Failures[0].Err)
}

// Is matches the generic item-failure error for errors.Is.
func (e *BatchError) Is(target error) bool {
	return errors.GetCode(target) == errors.CodeItemFailed
}

// applyItem runs fn over one item, converting a panic into an error so a
// misbehaving processor cannot take down sibling workers.
func applyItem(fn ItemFunc, item *workload.Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(item)
}

// batchResult turns collected failures into the mode's return value.
func batchResult(failures []ItemFailure) error {
	if len(failures) == 0 {
		return nil
	}
	return &BatchError{Failures: failures}
}

// sequential applies fn on the calling goroutine in input order.
type sequential struct{}

// Sequential returns the single-goroutine, input-order mode.
func Sequential() Mode {
	return sequential{}
}

func (sequential) Name() string { return "sequential" }

func (sequential) Run(ctx context.Context, batch []*workload.Item, fn ItemFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var failures []ItemFailure
	for _, item := range batch {
		if err := applyItem(fn, item); err != nil {
			failures = append(failures, ItemFailure{ItemID: item.ID, Err: err})
		}
	}
	return batchResult(failures)
}

// workerPool partitions the batch across a fixed number of workers.
type workerPool struct {
	width int
}

// WorkerPool returns a mode that splits the batch into width contiguous
// partitions processed concurrently, preserving order within each partition.
// Width must be positive.
func WorkerPool(width int) (Mode, error) {
	if width <= 0 {
		return nil, errors.NewInvalidConfiguration(
			fmt.Sprintf("execmode: worker pool width must be positive, got %d", width))
	}
	return &workerPool{width: width}, nil
}

func (p *workerPool) Name() string { return fmt.Sprintf("pool(%d)", p.width) }

func (p *workerPool) Run(ctx context.Context, batch []*workload.Item, fn ItemFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	width := p.width
	if width > len(batch) {
		width = len(batch)
	}

	failuresByWorker := make([][]ItemFailure, width)
	chunk := (len(batch) + width - 1) / width

	var wg sync.WaitGroup
	for w := 0; w < width; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(batch) {
			end = len(batch)
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w int, part []*workload.Item) {
			defer wg.Done()
			for _, item := range part {
				if err := applyItem(fn, item); err != nil {
					failuresByWorker[w] = append(failuresByWorker[w], ItemFailure{ItemID: item.ID, Err: err})
				}
			}
		}(w, batch[start:end])
	}
	wg.Wait()

	var failures []ItemFailure
	for _, fs := range failuresByWorker {
		failures = append(failures, fs...)
	}
	return batchResult(failures)
}

// dataParallel fans out per item with bounded concurrency.
type dataParallel struct {
	limit int
}

// DataParallel returns a mode that applies fn across all items with an
// implementation-chosen level of parallelism and no ordering guarantee.
func DataParallel() Mode {
	return &dataParallel{limit: runtime.GOMAXPROCS(0)}
}

func (d *dataParallel) Name() string { return "parallel" }

func (d *dataParallel) Run(ctx context.Context, batch []*workload.Item, fn ItemFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		failures []ItemFailure
	)

	var g errgroup.Group
	g.SetLimit(d.limit)
	for _, item := range batch {
		item := item
		g.Go(func() error {
			if err := applyItem(fn, item); err != nil {
				mu.Lock()
				failures = append(failures, ItemFailure{ItemID: item.ID, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	return batchResult(failures)
}

// FromName builds a mode from its configuration name: "sequential",
// "pool" (with the given width), or "parallel".
func FromName(name string, width int) (Mode, error) {
	switch name {
	case "sequential":
		return Sequential(), nil
	case "pool":
		return WorkerPool(width)
	case "parallel":
		return DataParallel(), nil
	default:
		return nil, errors.NewInvalidConfiguration(
			fmt.Sprintf("execmode: unknown mode %q (must be sequential, pool, or parallel)", name))
	}
}
