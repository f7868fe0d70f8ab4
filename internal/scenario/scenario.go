// Package scenario provides the named workload presets, one per collector
// demonstration the harness reproduces.
package scenario

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/heapbench/heapbench/internal/errors"
	"github.com/heapbench/heapbench/internal/loadgen"
	"github.com/heapbench/heapbench/internal/workload"
)

// Scenario bundles a workload shape, an execution mode, and the cycle
// parameters of one named preset.
type Scenario struct {
	// Name is the preset identifier used on the command line.
	Name string

	// Description is a one-line summary for the startup banner.
	Description string

	// Shape describes each workload item.
	Shape workload.Shape

	// Mode is the execution mode name: sequential, pool, or parallel.
	Mode string

	// Workers is the pool width for pool mode. Zero means one worker per
	// available processor.
	Workers int

	// Run holds the cycle loop parameters.
	Run loadgen.Config
}

// EffectiveWorkers resolves the pool width, defaulting to the host's
// processor count.
func (s Scenario) EffectiveWorkers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Lookup returns the preset for name.
func Lookup(name string) (Scenario, error) {
	switch name {
	case "small-object":
		// Many short-lived tiny objects, single-threaded.
		return Scenario{
			Name:        "small-object",
			Description: "small short-lived objects, single-threaded churn",
			Shape:       workload.Shape{PayloadBytes: 32, PayloadFloats: 1, ComputePasses: 1},
			Mode:        "sequential",
			Run: loadgen.Config{
				Cycles:       50,
				BatchSize:    5000,
				SampleEvery:  10,
				ForceGCEvery: 15,
			},
		}, nil

	case "parallel-batch":
		// High-throughput batch processing across a fixed thread pool.
		workers := runtime.GOMAXPROCS(0)
		return Scenario{
			Name:        "parallel-batch",
			Description: "parallel batch processing, one partition per processor",
			Shape:       workload.Shape{PayloadBytes: 64, PayloadFloats: 50, ComputePasses: 2},
			Mode:        "pool",
			Workers:     workers,
			Run: loadgen.Config{
				Cycles:       20,
				BatchSize:    2000 * workers,
				SampleEvery:  5,
				ForceGCEvery: 5,
			},
		}, nil

	case "game-loop":
		// Fixed-tick updates with steady object churn and a mutating set of
		// resident game state.
		return Scenario{
			Name:        "game-loop",
			Description: "simulated game server ticks with resident state churn",
			Shape:       workload.Shape{PayloadBytes: 256, PayloadFloats: 10, ComputePasses: 1},
			Mode:        "pool",
			Workers:     4,
			Run: loadgen.Config{
				Cycles:             100,
				BatchSize:          1000,
				InsertEvery:        10,
				InsertCount:        20,
				InsertPayloadBytes: 256,
				EvictEvery:         20,
				EvictFraction:      0.1,
				SampleEvery:        10,
				ForceGCEvery:       10,
			},
		}, nil

	case "large-heap":
		// A resident multi-hundred-megabyte dataset plus data-parallel
		// bursts of large objects.
		return Scenario{
			Name:        "large-heap",
			Description: "massive resident dataset with data-parallel bursts",
			Shape:       workload.Shape{PayloadBytes: 4096, PayloadFloats: 100, ComputePasses: 2},
			Mode:        "parallel",
			Run: loadgen.Config{
				Cycles:              50,
				BatchSize:           1000,
				SampleEvery:         10,
				ForceGCEvery:        10,
				PreloadEntries:      100000,
				PreloadPayloadBytes: 4096,
			},
		}, nil

	case "web-cache":
		// Web request bursts feeding a long-lived cache with periodic
		// randomized eviction.
		return Scenario{
			Name:        "web-cache",
			Description: "request bursts over a long-lived cache with random eviction",
			Shape:       workload.Shape{PayloadBytes: 128, PayloadFloats: 5, ComputePasses: 1},
			Mode:        "sequential",
			Run: loadgen.Config{
				Cycles:             100,
				BatchSize:          200,
				InsertEvery:        5,
				InsertCount:        10,
				InsertPayloadBytes: 1024,
				EvictEvery:         20,
				EvictFraction:      0.3,
				SampleEvery:        10,
				ForceGCEvery:       10,
			},
		}, nil

	default:
		return Scenario{}, errors.New(errors.ErrCategoryValidation, errors.CodeUnknownScenario,
			fmt.Sprintf("scenario: unknown scenario %q (known: %v)", name, Names()))
	}
}

// Names returns the known scenario names in sorted order.
func Names() []string {
	names := []string{"small-object", "parallel-batch", "game-loop", "large-heap", "web-cache"}
	sort.Strings(names)
	return names
}
