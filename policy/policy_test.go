package policy

import (
	"testing"

	"github.com/agentbackplane/abp/contract"
	"github.com/stretchr/testify/require"
)

func TestCanUseToolDisallowedWins(t *testing.T) {
	e, err := Compile(contract.PolicyProfile{
		AllowedTools:    []string{"*"},
		DisallowedTools: []string{"bash"},
	})
	require.NoError(t, err)
	require.False(t, e.CanUseTool("bash").Allowed)
	require.True(t, e.CanUseTool("read").Allowed)
}

func TestCanUseToolEmptyAllowListPermitsAll(t *testing.T) {
	e, err := Compile(contract.PolicyProfile{})
	require.NoError(t, err)
	require.True(t, e.CanUseTool("anything").Allowed)
}

func TestCanUseToolAllowListRestricts(t *testing.T) {
	e, err := Compile(contract.PolicyProfile{AllowedTools: []string{"read", "grep"}})
	require.NoError(t, err)
	require.True(t, e.CanUseTool("read").Allowed)
	require.False(t, e.CanUseTool("bash").Allowed)
}

func TestDenyWriteGit(t *testing.T) {
	e, err := Compile(contract.PolicyProfile{DenyWrite: []string{"**/.git/**"}})
	require.NoError(t, err)
	require.False(t, e.CanWritePath(".git/HEAD").Allowed)
	require.True(t, e.CanWritePath("src/main.go").Allowed)
}

func TestCanReadPathUnaffectedByWriteDeny(t *testing.T) {
	e, err := Compile(contract.PolicyProfile{DenyWrite: []string{"secrets/**"}})
	require.NoError(t, err)
	require.True(t, e.CanReadPath("secrets/key.pem").Allowed)
}

func TestCompileRejectsInvalidPattern(t *testing.T) {
	_, err := Compile(contract.PolicyProfile{DenyRead: []string{"["}})
	require.Error(t, err)
}
