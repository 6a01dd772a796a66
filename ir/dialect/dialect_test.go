package dialect

import (
	"testing"

	"github.com/agentbackplane/abp/ir"
	"github.com/stretchr/testify/require"
)

func sampleConversation() ir.Conversation {
	return ir.Conversation{
		{Role: ir.RoleSystem, Content: []ir.ContentBlock{ir.Text{Text: "be terse"}}},
		{Role: ir.RoleUser, Content: []ir.ContentBlock{ir.Text{Text: "list files"}}},
		{Role: ir.RoleAssistant, Content: []ir.ContentBlock{
			ir.ToolUse{ID: "tu_1", Name: "bash", Input: map[string]any{"command": "ls"}},
		}},
		{Role: ir.RoleTool, Content: []ir.ContentBlock{
			ir.ToolResult{ToolUseID: "tu_1", Content: []ir.ContentBlock{ir.Text{Text: "a.go b.go"}}},
		}},
	}
}

func TestClaudeRoundTrip(t *testing.T) {
	tr := NewClaudeTranslator()
	payload, err := tr.ToDialect(sampleConversation())
	require.NoError(t, err)
	back, err := tr.FromDialect(payload)
	require.NoError(t, err)
	require.Len(t, back, len(sampleConversation()))
}

func TestOpenAIRoundTrip(t *testing.T) {
	tr := NewOpenAITranslator()
	payload, err := tr.ToDialect(sampleConversation())
	require.NoError(t, err)
	msgs := payload.([]OpenAIMessage)
	require.True(t, len(msgs) >= len(sampleConversation()), "tool results expand into trailing messages")

	back, err := tr.FromDialect(msgs)
	require.NoError(t, err)
	require.NotEmpty(t, back)
}

func TestGeminiLiftsAssistantToModelRole(t *testing.T) {
	tr := NewGeminiTranslator()
	payload, err := tr.ToDialect(sampleConversation())
	require.NoError(t, err)
	contents := payload.([]GeminiContent)
	var sawModel bool
	for _, c := range contents {
		if c.Role == "model" {
			sawModel = true
		}
	}
	require.True(t, sawModel)
}

func TestCodexRewritesSystemToDeveloper(t *testing.T) {
	tr := NewCodexTranslator()
	payload, err := tr.ToDialect(sampleConversation())
	require.NoError(t, err)
	msgs := payload.([]OpenAIMessage)
	require.Equal(t, "developer", msgs[0].Role)
}

func TestKimiDropsImageBlocks(t *testing.T) {
	conv := ir.Conversation{
		{Role: ir.RoleUser, Content: []ir.ContentBlock{
			ir.Text{Text: "what's in this"},
			ir.Image{MediaType: "image/png", Data: "Zm9v"},
		}},
	}
	tr := NewKimiTranslator()
	payload, err := tr.ToDialect(conv)
	require.NoError(t, err)
	msgs := payload.([]OpenAIMessage)
	require.Len(t, msgs, 1)
}

func TestLookupUnknownDialect(t *testing.T) {
	_, err := Lookup(Name("not_a_dialect"))
	require.Error(t, err)
}

func TestAllDialectsRegistered(t *testing.T) {
	reg := Translators()
	require.Len(t, reg, len(All))
	for _, n := range All {
		_, ok := reg[n]
		require.True(t, ok, n)
	}
}
