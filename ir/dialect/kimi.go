package dialect

import (
	"fmt"

	"github.com/agentbackplane/abp/ir"
)

// KimiMessage is Moonshot AI's Kimi chat-completions message, which is
// wire-compatible with OpenAI's except it lacks multi-part image content —
// image blocks have no representation and are dropped by ToDialect.
type KimiMessage = OpenAIMessage

type kimiTranslator struct{}

// NewKimiTranslator returns a Translator for the Kimi dialect.
func NewKimiTranslator() Translator { return kimiTranslator{} }

func (kimiTranslator) Name() Name { return Kimi }

func (kimiTranslator) ToDialect(conv ir.Conversation) (any, error) {
	stripped := make(ir.Conversation, 0, len(conv))
	for _, msg := range conv {
		filtered := msg
		filtered.Content = nil
		for _, b := range msg.Content {
			if _, isImage := b.(ir.Image); isImage {
				continue
			}
			filtered.Content = append(filtered.Content, b)
		}
		stripped = append(stripped, filtered)
	}
	msgs, err := openAITranslator{}.ToDialect(stripped)
	if err != nil {
		return nil, fmt.Errorf("dialect/kimi: %w", err)
	}
	return msgs.([]OpenAIMessage), nil
}

func (kimiTranslator) FromDialect(payload any) (ir.Conversation, error) {
	msgs, ok := payload.([]KimiMessage)
	if !ok {
		return nil, fmt.Errorf("dialect/kimi: expected []KimiMessage, got %T", payload)
	}
	return openAITranslator{}.FromDialect([]OpenAIMessage(msgs))
}
