package workload

import (
	"testing"

	"github.com/heapbench/heapbench/internal/errors"
)

func TestGenerateExactCount(t *testing.T) {
	g := NewGeneratorWithSeed(Shape{PayloadBytes: 64, PayloadFloats: 8}, 1)

	for _, count := range []int{0, 1, 5, 5000} {
		items, err := g.Generate(count)
		if err != nil {
			t.Fatalf("Generate(%d): %v", count, err)
		}
		if len(items) != count {
			t.Errorf("Generate(%d) yielded %d items", count, len(items))
		}
	}
}

func TestGenerateNegativeCount(t *testing.T) {
	g := NewGenerator(Shape{})
	_, err := g.Generate(-1)
	if err == nil {
		t.Fatal("expected error for negative count")
	}
	if !errors.IsInvalidConfiguration(err) {
		t.Errorf("expected InvalidConfiguration, got %v", err)
	}
}

func TestGeneratePayloadSizes(t *testing.T) {
	shape := Shape{PayloadBytes: 4096, PayloadFloats: 100}
	g := NewGeneratorWithSeed(shape, 42)

	items, err := g.Generate(10)
	if err != nil {
		t.Fatal(err)
	}
	for i, item := range items {
		if item.ID != i {
			t.Errorf("item %d has ID %d, IDs must be monotonic from 0", i, item.ID)
		}
		if len(item.Blob) != shape.PayloadBytes {
			t.Errorf("item %d blob size %d, want %d", i, len(item.Blob), shape.PayloadBytes)
		}
		if len(item.Values) != shape.PayloadFloats {
			t.Errorf("item %d value count %d, want %d", i, len(item.Values), shape.PayloadFloats)
		}
		if item.Processed {
			t.Errorf("item %d marked processed before Apply", i)
		}
	}
}

func TestApplyMarksProcessed(t *testing.T) {
	g := NewGeneratorWithSeed(Shape{PayloadBytes: 256, PayloadFloats: 50, ComputePasses: 2}, 7)
	items, err := g.Generate(20)
	if err != nil {
		t.Fatal(err)
	}

	for _, item := range items {
		if err := g.Apply(item); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	for i, item := range items {
		if !item.Processed {
			t.Errorf("item %d not marked processed", i)
		}
		if item.Fingerprint == 0 {
			t.Errorf("item %d fingerprint not set", i)
		}
	}
}

func TestApplyMutatesValues(t *testing.T) {
	g := NewGeneratorWithSeed(Shape{PayloadFloats: 10, ComputePasses: 1}, 3)
	items, err := g.Generate(1)
	if err != nil {
		t.Fatal(err)
	}

	before := make([]float64, len(items[0].Values))
	copy(before, items[0].Values)

	if err := g.Apply(items[0]); err != nil {
		t.Fatal(err)
	}

	changed := false
	for i := range before {
		if before[i] != items[0].Values[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("Apply should transform the float payload")
	}
}

func TestApplyEmptyPayload(t *testing.T) {
	g := NewGenerator(Shape{})
	items, err := g.Generate(1)
	if err != nil {
		t.Fatal(err)
	}
	// Zero-size payloads must not panic; the item is still processed.
	if err := g.Apply(items[0]); err != nil {
		t.Fatal(err)
	}
	if !items[0].Processed {
		t.Error("empty item should still be marked processed")
	}
}
