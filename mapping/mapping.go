// Package mapping tracks, per (source dialect, target dialect, feature)
// triple, how faithfully a feature translates — and validates vendor config
// payloads against JSON Schemas supplied alongside a mapping rule.
package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/agentbackplane/abp/ir/dialect"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// FidelityKind is the closed tag distinguishing how well a feature survives
// translation between two dialects.
type FidelityKind int

const (
	Lossless FidelityKind = iota
	LossyLabeled
	Unsupported
)

// Fidelity records a translation quality verdict. Warning is set only for
// LossyLabeled; Reason only for Unsupported.
type Fidelity struct {
	Kind    FidelityKind
	Warning string
	Reason  string
}

type ruleKey struct {
	source, target dialect.Name
	feature        string
}

// Registry stores Fidelity rules keyed by the full (source, target,
// feature) triple. A zero-value Registry and NewRegistry have no rules;
// KnownRules returns one seeded from the static table. Identity mappings are
// never stored: Lookup answers them implicitly.
type Registry struct {
	rules map[ruleKey]Fidelity
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[ruleKey]Fidelity)}
}

// Set records the fidelity for a (source, target, feature) triple,
// overwriting any existing entry.
func (r *Registry) Set(source, target dialect.Name, feature string, f Fidelity) {
	if r.rules == nil {
		r.rules = make(map[ruleKey]Fidelity)
	}
	r.rules[ruleKey{source, target, feature}] = f
}

// Lookup returns the Fidelity registered for the triple and true, or a zero
// Fidelity and false if no rule is registered. Identity mappings (source ==
// target) are implicitly lossless even without an explicit entry, so the
// distinction between "unknown" and "unsupported" is preserved for every
// other pair: absence of a rule for a cross-dialect pair means "unknown",
// never silently "unsupported".
func (r *Registry) Lookup(source, target dialect.Name, feature string) (Fidelity, bool) {
	if source == target {
		return Fidelity{Kind: Lossless}, true
	}
	f, ok := r.rules[ruleKey{source, target, feature}]
	return f, ok
}

// KnownRules returns a Registry seeded from the static table of mapping
// rules this implementation ships with.
func KnownRules() *Registry {
	r := NewRegistry()
	for _, row := range staticRules {
		r.Set(row.source, row.target, row.feature, row.fidelity)
	}
	return r
}

type staticRule struct {
	source, target dialect.Name
	feature        string
	fidelity       Fidelity
}

var staticRules = []staticRule{
	{dialect.Claude, dialect.OpenAI, "thinking", Fidelity{Kind: LossyLabeled, Warning: "thinking blocks are folded into assistant text"}},
	{dialect.OpenAI, dialect.Claude, "thinking", Fidelity{Kind: Unsupported, Reason: "OpenAI chat completions has no reasoning content to source from"}},
	{dialect.Claude, dialect.Gemini, "thinking", Fidelity{Kind: LossyLabeled, Warning: "thinking blocks are folded into a text part"}},
	{dialect.Claude, dialect.OpenAI, "tool_result_nested_content", Fidelity{Kind: LossyLabeled, Warning: "nested content blocks are flattened to text"}},
	{dialect.Claude, dialect.Kimi, "image_input", Fidelity{Kind: Unsupported, Reason: "Kimi chat completions has no image content part"}},
	{dialect.OpenAI, dialect.Kimi, "image_input", Fidelity{Kind: Unsupported, Reason: "Kimi chat completions has no image content part"}},
	{dialect.OpenAI, dialect.Codex, "system_role", Fidelity{Kind: LossyLabeled, Warning: "system role is renamed to developer"}},
	{dialect.Claude, dialect.Copilot, "tool_result_nested_content", Fidelity{Kind: LossyLabeled, Warning: "nested content blocks are flattened to text"}},
}

// ValidateMapping looks up Fidelity for (from, to, feature) for each feature
// in features, returning a parallel slice of results in the same order.
func ValidateMapping(reg *Registry, from, to dialect.Name, features []string) []FeatureResult {
	out := make([]FeatureResult, 0, len(features))
	for _, feature := range features {
		f, ok := reg.Lookup(from, to, feature)
		out = append(out, FeatureResult{Feature: feature, Fidelity: f, Known: ok})
	}
	return out
}

// FeatureResult is one row of ValidateMapping's output: Known is false when
// no rule is registered for the triple ("unknown", not "unsupported").
type FeatureResult struct {
	Feature  string
	Fidelity Fidelity
	Known    bool
}

// Matrix is a precomputed (source × target) → bool table recording whether
// at least one lossless or lossy-labeled mapping is known between the pair.
type Matrix struct {
	compatible map[[2]dialect.Name]bool
}

// BuildMatrix derives a Matrix from every rule in reg plus the implicit
// identity mappings for every dialect in dialect.All.
func BuildMatrix(reg *Registry) *Matrix {
	m := &Matrix{compatible: make(map[[2]dialect.Name]bool)}
	for _, d := range dialect.All {
		m.compatible[[2]dialect.Name{d, d}] = true
	}
	for key, fidelity := range reg.rules {
		if fidelity.Kind == Lossless || fidelity.Kind == LossyLabeled {
			m.compatible[[2]dialect.Name{key.source, key.target}] = true
		}
	}
	return m
}

// Compatible reports whether at least one lossless or lossy-labeled mapping
// is known from source to target.
func (m *Matrix) Compatible(source, target dialect.Name) bool {
	return m.compatible[[2]dialect.Name{source, target}]
}

// ValidateVendorConfig compiles schemaJSON and validates payload against it,
// the boundary where a WorkOrder's opaque vendor config is checked against a
// dialect's expected shape. A nil or empty schema is treated as "anything
// goes" and always succeeds.
func ValidateVendorConfig(schemaJSON []byte, payload any) error {
	if len(schemaJSON) == 0 {
		return nil
	}
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fmt.Errorf("mapping: unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("vendor-config.json", schemaDoc); err != nil {
		return fmt.Errorf("mapping: add schema resource: %w", err)
	}
	schema, err := c.Compile("vendor-config.json")
	if err != nil {
		return fmt.Errorf("mapping: compile schema: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("mapping: vendor config failed schema validation: %w", err)
	}
	return nil
}
