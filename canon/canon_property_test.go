package canon_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agentbackplane/abp/canon"
)

// genFlatObject builds a flat map[string]any whose keys are non-empty
// alphabetic strings and whose values are ints; gopter chooses the size.
func genFlatObject() gopter.Gen {
	return gen.MapOf(gen.AlphaString().SuchThat(func(s string) bool { return s != "" }), gen.Int()).
		Map(func(m map[string]int) map[string]any {
			out := make(map[string]any, len(m))
			for k, v := range m {
				out[k] = v
			}
			return out
		})
}

// TestCanonicalJSONKeyOrderInsensitiveProperty verifies spec invariant 3 and
// the canonical-JSON round-trip law: canon.JSON's output bytes never depend
// on the order keys were inserted into the source map, since Go already
// randomizes map iteration order on every run.
func TestCanonicalJSONKeyOrderInsensitiveProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("re-encoding the same logical object is byte-identical", prop.ForAll(
		func(m map[string]any) bool {
			a, err := canon.JSON(m)
			if err != nil {
				return false
			}
			// Re-marshal through a fresh map literal built by iterating the
			// original — Go's randomized map iteration order means this
			// reconstruction very likely differs in insertion order from m.
			rebuilt := make(map[string]any, len(m))
			for k, v := range m {
				rebuilt[k] = v
			}
			b, err := canon.JSON(rebuilt)
			if err != nil {
				return false
			}
			return string(a) == string(b)
		},
		genFlatObject(),
	))

	properties.TestingRun(t)
}

// TestHashIdempotenceProperty verifies that hashing the same value twice
// always yields the same 64-character digest.
func TestHashIdempotenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Hash is a pure function of its canonical bytes", prop.ForAll(
		func(m map[string]any) bool {
			h1, err := canon.Hash(m)
			if err != nil {
				return false
			}
			h2, err := canon.Hash(m)
			if err != nil {
				return false
			}
			return h1 == h2 && len(h1) == 64
		},
		genFlatObject(),
	))

	properties.TestingRun(t)
}
