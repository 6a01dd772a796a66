package mapping

import (
	"testing"

	"github.com/agentbackplane/abp/ir/dialect"
	"github.com/stretchr/testify/require"
)

func TestIdentityMappingAlwaysLossless(t *testing.T) {
	r := NewRegistry()
	f, ok := r.Lookup(dialect.Claude, dialect.Claude, "anything")
	require.True(t, ok)
	require.Equal(t, Lossless, f.Kind)
}

func TestAbsentRuleIsUnknownNotUnsupported(t *testing.T) {
	r := NewRegistry()
	f, ok := r.Lookup(dialect.Claude, dialect.OpenAI, "never_registered")
	require.False(t, ok)
	require.Equal(t, Fidelity{}, f)
}

func TestKnownRulesSeedsThinkingMapping(t *testing.T) {
	r := KnownRules()
	f, ok := r.Lookup(dialect.Claude, dialect.OpenAI, "thinking")
	require.True(t, ok)
	require.Equal(t, LossyLabeled, f.Kind)
	require.NotEmpty(t, f.Warning)
}

func TestValidateMappingDistinguishesUnknownFromRegistered(t *testing.T) {
	r := KnownRules()
	results := ValidateMapping(r, dialect.Claude, dialect.OpenAI, []string{"thinking", "never_registered"})
	require.Len(t, results, 2)
	require.True(t, results[0].Known)
	require.False(t, results[1].Known)
}

func TestMatrixIdentityAlwaysCompatible(t *testing.T) {
	m := BuildMatrix(KnownRules())
	for _, d := range dialect.All {
		require.True(t, m.Compatible(d, d))
	}
}

func TestMatrixReflectsLossyLabeledRule(t *testing.T) {
	m := BuildMatrix(KnownRules())
	require.True(t, m.Compatible(dialect.Claude, dialect.OpenAI))
}

func TestMatrixUnsupportedRuleDoesNotMarkCompatible(t *testing.T) {
	r := NewRegistry()
	r.Set(dialect.OpenAI, dialect.Kimi, "image_input", Fidelity{Kind: Unsupported, Reason: "no image part"})
	m := BuildMatrix(r)
	require.False(t, m.Compatible(dialect.OpenAI, dialect.Kimi))
}

func TestValidateVendorConfigAcceptsMatchingPayload(t *testing.T) {
	schema := []byte(`{"type":"object","properties":{"temperature":{"type":"number"}},"required":["temperature"]}`)
	require.NoError(t, ValidateVendorConfig(schema, map[string]any{"temperature": 0.5}))
}

func TestValidateVendorConfigRejectsMismatchedPayload(t *testing.T) {
	schema := []byte(`{"type":"object","properties":{"temperature":{"type":"number"}},"required":["temperature"]}`)
	require.Error(t, ValidateVendorConfig(schema, map[string]any{}))
}

func TestValidateVendorConfigEmptySchemaAlwaysPasses(t *testing.T) {
	require.NoError(t, ValidateVendorConfig(nil, map[string]any{"anything": true}))
}
