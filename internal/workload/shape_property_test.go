package workload

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_GenerateExactness validates that for all count >= 0 the
// generator yields exactly count items, each with a payload of the
// configured fixed size.
func TestProperty_GenerateExactness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Generate yields exactly count items with fixed payloads", prop.ForAll(
		func(count, payloadBytes, payloadFloats int) bool {
			g := NewGeneratorWithSeed(Shape{
				PayloadBytes:  payloadBytes,
				PayloadFloats: payloadFloats,
			}, int64(count)+1)

			items, err := g.Generate(count)
			if err != nil {
				return false
			}
			if len(items) != count {
				return false
			}
			for i, item := range items {
				if item.ID != i {
					return false
				}
				if len(item.Blob) != payloadBytes || len(item.Values) != payloadFloats {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 500),
		gen.IntRange(0, 1024),
		gen.IntRange(0, 128),
	))

	properties.Property("negative counts always fail", prop.ForAll(
		func(count int) bool {
			g := NewGenerator(Shape{})
			_, err := g.Generate(count)
			return err != nil
		},
		gen.IntRange(-1000, -1),
	))

	properties.TestingRun(t)
}
