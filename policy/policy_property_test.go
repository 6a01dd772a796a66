package policy

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agentbackplane/abp/contract"
)

func genToolName() gopter.Gen {
	return gen.AlphaString().SuchThat(func(s string) bool { return s != "" })
}

// TestCanWritePathDenyOnlyNeverBlocksReadsProperty verifies that a
// DenyWrite pattern never affects CanReadPath, for any tool/path names the
// generator produces — deny_read and deny_write are independent glob sets.
func TestCanWritePathDenyOnlyNeverBlocksReadsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("deny_write never denies a read of the same path", prop.ForAll(
		func(path string) bool {
			e, err := Compile(contract.PolicyProfile{DenyWrite: []string{path}})
			if err != nil {
				return false
			}
			return e.CanReadPath(path).Allowed
		},
		genToolName(),
	))

	properties.TestingRun(t)
}

// TestDisallowedAlwaysWinsOverAllowedProperty verifies that whenever a tool
// name appears in both AllowedTools and DisallowedTools, CanUseTool always
// denies it — disallow wins regardless of what else is in either list.
func TestDisallowedAlwaysWinsOverAllowedProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("a tool named in both lists is always denied", prop.ForAll(
		func(name string, allowStar bool) bool {
			allowed := []string{name}
			if allowStar {
				allowed = []string{"*"}
			}
			e, err := Compile(contract.PolicyProfile{AllowedTools: allowed, DisallowedTools: []string{name}})
			if err != nil {
				return false
			}
			return !e.CanUseTool(name).Allowed
		},
		genToolName(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestEmptyAllowListPermitsAnyUndisallowedToolProperty verifies that an
// empty AllowedTools list, combined with an empty DisallowedTools list,
// permits any tool name.
func TestEmptyAllowListPermitsAnyUndisallowedToolProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("no allow/deny lists at all means every tool name is permitted", prop.ForAll(
		func(name string) bool {
			e, err := Compile(contract.PolicyProfile{})
			if err != nil {
				return false
			}
			return e.CanUseTool(name).Allowed
		},
		genToolName(),
	))

	properties.TestingRun(t)
}
