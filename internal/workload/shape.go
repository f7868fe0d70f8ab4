// Package workload provides synthetic workload generation for the harness.
// A Shape describes one unit of synthetic work: how big each item's payload
// is and how much compute Apply burns per item.
package workload

import (
	"math"
	"math/rand"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/heapbench/heapbench/internal/errors"
)

// Item is a single unit of synthetic work. Items are owned exclusively by
// the cycle that created them and are never shared across worker boundaries,
// so no field needs synchronization.
type Item struct {
	// ID is monotonic within the batch that created the item.
	ID int

	// Blob is a fixed-size byte payload sized per the shape.
	Blob []byte

	// Values is a fixed-size float payload sized per the shape.
	Values []float64

	// Fingerprint is a murmur3 hash of Blob, written by Apply.
	Fingerprint uint64

	// Processed is set by Apply once the item has been visited.
	Processed bool
}

// Shape describes the payload and compute cost of one workload item.
// The zero value generates empty payloads and performs no compute.
type Shape struct {
	// PayloadBytes is the size of each item's byte payload.
	PayloadBytes int `json:"payload_bytes" yaml:"payload_bytes"`

	// PayloadFloats is the number of float64 values in each item's payload.
	PayloadFloats int `json:"payload_floats" yaml:"payload_floats"`

	// ComputePasses is how many transformation passes Apply performs over
	// the float payload. Cost scales linearly with PayloadFloats × ComputePasses.
	ComputePasses int `json:"compute_passes" yaml:"compute_passes"`
}

// Generator produces batches of items for a shape.
type Generator struct {
	shape Shape
	rng   *rand.Rand
}

// NewGenerator creates a generator for the given shape.
func NewGenerator(shape Shape) *Generator {
	return &Generator{
		shape: shape,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewGeneratorWithSeed creates a generator with a fixed seed for tests.
func NewGeneratorWithSeed(shape Shape, seed int64) *Generator {
	return &Generator{
		shape: shape,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Shape returns the generator's shape.
func (g *Generator) Shape() Shape {
	return g.shape
}

// Generate produces exactly count items, each with a payload sized per the
// shape. IDs are monotonic starting at 0. A negative count is an
// InvalidConfiguration error; count zero yields an empty batch.
func (g *Generator) Generate(count int) ([]*Item, error) {
	if count < 0 {
		return nil, errors.NewInvalidConfiguration("workload: item count must be non-negative")
	}

	items := make([]*Item, count)
	for i := 0; i < count; i++ {
		item := &Item{
			ID:     i,
			Blob:   make([]byte, g.shape.PayloadBytes),
			Values: make([]float64, g.shape.PayloadFloats),
		}
		g.rng.Read(item.Blob)
		for j := range item.Values {
			item.Values[j] = g.rng.Float64() * 1000
		}
		items[i] = item
	}
	return items, nil
}

// Apply performs the shape's compute over a single item and marks it
// processed. The transformation is deterministic in cost and has no side
// effects outside the item.
func (g *Generator) Apply(item *Item) error {
	for pass := 0; pass < g.shape.ComputePasses; pass++ {
		for i := 0; i+1 < len(item.Values); i++ {
			item.Values[i] = math.Sqrt(math.Abs(item.Values[i])) + math.Sin(item.Values[i+1])
		}
		if n := len(item.Values); n > 0 {
			item.Values[n-1] = math.Pow(math.Abs(item.Values[n-1]), 0.5)
		}
	}

	if len(item.Blob) > 0 {
		item.Fingerprint = murmur3.Sum64(item.Blob)
	}
	item.Processed = true
	return nil
}
