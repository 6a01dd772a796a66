package dialect

import (
	"fmt"

	"github.com/agentbackplane/abp/ir"
)

// CopilotMessage is GitHub Copilot Chat's message shape: OpenAI-compatible
// content and roles, plus an optional list of workspace file references
// that have no IR equivalent and round-trip as empty.
type CopilotMessage struct {
	OpenAIMessage
	CopilotReferences []CopilotReference `json:"copilot_references,omitempty"`
}

// CopilotReference points at a workspace file Copilot attached as context.
type CopilotReference struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type copilotTranslator struct{}

// NewCopilotTranslator returns a Translator for the GitHub Copilot Chat
// dialect.
func NewCopilotTranslator() Translator { return copilotTranslator{} }

func (copilotTranslator) Name() Name { return Copilot }

func (copilotTranslator) ToDialect(conv ir.Conversation) (any, error) {
	msgs, err := openAITranslator{}.ToDialect(conv)
	if err != nil {
		return nil, fmt.Errorf("dialect/copilot: %w", err)
	}
	base := msgs.([]OpenAIMessage)
	out := make([]CopilotMessage, len(base))
	for i, m := range base {
		out[i] = CopilotMessage{OpenAIMessage: m}
	}
	return out, nil
}

func (copilotTranslator) FromDialect(payload any) (ir.Conversation, error) {
	msgs, ok := payload.([]CopilotMessage)
	if !ok {
		return nil, fmt.Errorf("dialect/copilot: expected []CopilotMessage, got %T", payload)
	}
	base := make([]OpenAIMessage, len(msgs))
	for i, m := range msgs {
		base[i] = m.OpenAIMessage
	}
	return openAITranslator{}.FromDialect(base)
}
