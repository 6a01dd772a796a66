package dialect

import (
	"fmt"

	"github.com/agentbackplane/abp/ir"
)

// CodexMessage mirrors the OpenAI Responses API shape Codex CLI speaks:
// structurally identical to OpenAIMessage except that system prompts are
// carried under a "developer" role rather than "system".
type CodexMessage = OpenAIMessage

type codexTranslator struct{}

// NewCodexTranslator returns a Translator for the Codex CLI dialect.
func NewCodexTranslator() Translator { return codexTranslator{} }

func (codexTranslator) Name() Name { return Codex }

func (codexTranslator) ToDialect(conv ir.Conversation) (any, error) {
	remapped := make(ir.Conversation, len(conv))
	copy(remapped, conv)
	msgs, err := openAITranslator{}.ToDialect(remapped)
	if err != nil {
		return nil, fmt.Errorf("dialect/codex: %w", err)
	}
	out := msgs.([]OpenAIMessage)
	for i := range out {
		if out[i].Role == "system" {
			out[i].Role = "developer"
		}
	}
	return out, nil
}

func (codexTranslator) FromDialect(payload any) (ir.Conversation, error) {
	msgs, ok := payload.([]CodexMessage)
	if !ok {
		return nil, fmt.Errorf("dialect/codex: expected []CodexMessage, got %T", payload)
	}
	normalized := make([]OpenAIMessage, len(msgs))
	copy(normalized, msgs)
	for i := range normalized {
		if normalized[i].Role == "developer" {
			normalized[i].Role = "system"
		}
	}
	return openAITranslator{}.FromDialect(normalized)
}
