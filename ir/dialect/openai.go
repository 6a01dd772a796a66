package dialect

import (
	"encoding/json"
	"fmt"

	"github.com/agentbackplane/abp/ir"
)

// OpenAIMessage mirrors a Chat Completions message: content is either a
// plain string or a list of typed parts, and tool calls/results are
// expressed through dedicated fields rather than content blocks.
type OpenAIMessage struct {
	Role       string           `json:"role"`
	Content    json.RawMessage  `json:"content,omitempty"`
	ToolCalls  []OpenAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// OpenAIToolCall is an assistant-issued function call.
type OpenAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function OpenAIFunctionCall `json:"function"`
}

// OpenAIFunctionCall carries the name and JSON-encoded arguments of a call.
type OpenAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// OpenAIContentPart is one element of a multi-part content array.
type OpenAIContentPart struct {
	Type     string             `json:"type"`
	Text     string             `json:"text,omitempty"`
	ImageURL *OpenAIImageURL    `json:"image_url,omitempty"`
}

// OpenAIImageURL carries an inline data-URL image reference.
type OpenAIImageURL struct {
	URL string `json:"url"`
}

type openAITranslator struct{}

// NewOpenAITranslator returns a Translator for the OpenAI Chat Completions
// dialect.
func NewOpenAITranslator() Translator { return openAITranslator{} }

func (openAITranslator) Name() Name { return OpenAI }

func (openAITranslator) ToDialect(conv ir.Conversation) (any, error) {
	out := make([]OpenAIMessage, 0, len(conv))
	for _, msg := range conv {
		m, extra, err := openAIMessageFromIR(msg)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		out = append(out, extra...)
	}
	return out, nil
}

// openAIMessageFromIR renders one IR message into a primary OpenAI message
// plus zero or more trailing tool-role messages, since OpenAI represents
// each ToolResult as its own message rather than as nested content.
func openAIMessageFromIR(msg ir.Message) (OpenAIMessage, []OpenAIMessage, error) {
	role := string(msg.Role)
	var parts []OpenAIContentPart
	var calls []OpenAIToolCall
	var trailing []OpenAIMessage

	for _, b := range msg.Content {
		switch v := b.(type) {
		case ir.Text:
			parts = append(parts, OpenAIContentPart{Type: "text", Text: v.Text})
		case ir.Thinking:
			parts = append(parts, OpenAIContentPart{Type: "text", Text: v.Text})
		case ir.Image:
			parts = append(parts, OpenAIContentPart{
				Type:     "image_url",
				ImageURL: &OpenAIImageURL{URL: fmt.Sprintf("data:%s;base64,%s", v.MediaType, v.Data)},
			})
		case ir.ToolUse:
			args, err := json.Marshal(v.Input)
			if err != nil {
				return OpenAIMessage{}, nil, fmt.Errorf("dialect/openai: marshal tool args: %w", err)
			}
			calls = append(calls, OpenAIToolCall{
				ID: v.ID, Type: "function",
				Function: OpenAIFunctionCall{Name: v.Name, Arguments: string(args)},
			})
		case ir.ToolResult:
			text := toolResultText(v)
			trailing = append(trailing, OpenAIMessage{
				Role: "tool", ToolCallID: v.ToolUseID,
				Content: mustRaw(text),
			})
		default:
			return OpenAIMessage{}, nil, fmt.Errorf("dialect/openai: unsupported content block %T", b)
		}
	}

	var content json.RawMessage
	if len(parts) == 1 && parts[0].Type == "text" {
		content = mustRaw(parts[0].Text)
	} else if len(parts) > 0 {
		raw, err := json.Marshal(parts)
		if err != nil {
			return OpenAIMessage{}, nil, err
		}
		content = raw
	}

	return OpenAIMessage{Role: role, Content: content, ToolCalls: calls}, trailing, nil
}

func toolResultText(v ir.ToolResult) string {
	var s string
	for _, b := range v.Content {
		if t, ok := b.(ir.Text); ok {
			s += t.Text
		}
	}
	return s
}

func mustRaw(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}

func (openAITranslator) FromDialect(payload any) (ir.Conversation, error) {
	msgs, ok := payload.([]OpenAIMessage)
	if !ok {
		return nil, fmt.Errorf("dialect/openai: expected []OpenAIMessage, got %T", payload)
	}
	conv := make(ir.Conversation, 0, len(msgs))
	for _, m := range msgs {
		content, role, err := openAIMessageToIR(m)
		if err != nil {
			return nil, err
		}
		conv = append(conv, ir.Message{Role: role, Content: content})
	}
	return conv, nil
}

func openAIMessageToIR(m OpenAIMessage) ([]ir.ContentBlock, ir.Role, error) {
	role := ir.Role(m.Role)
	var content []ir.ContentBlock

	if m.Role == "tool" {
		var text string
		_ = json.Unmarshal(m.Content, &text)
		content = append(content, ir.ToolResult{
			ToolUseID: m.ToolCallID,
			Content:   []ir.ContentBlock{ir.Text{Text: text}},
		})
		return content, ir.RoleTool, nil
	}

	if len(m.Content) > 0 {
		var asString string
		if err := json.Unmarshal(m.Content, &asString); err == nil {
			content = append(content, ir.Text{Text: asString})
		} else {
			var parts []OpenAIContentPart
			if err := json.Unmarshal(m.Content, &parts); err != nil {
				return nil, "", fmt.Errorf("dialect/openai: unrecognized content shape: %w", err)
			}
			for _, p := range parts {
				switch p.Type {
				case "text":
					content = append(content, ir.Text{Text: p.Text})
				case "image_url":
					content = append(content, ir.Image{MediaType: "image/unknown", Data: p.ImageURL.URL})
				}
			}
		}
	}

	for _, call := range m.ToolCalls {
		var input any
		_ = json.Unmarshal([]byte(call.Function.Arguments), &input)
		content = append(content, ir.ToolUse{ID: call.ID, Name: call.Function.Name, Input: input})
	}

	return content, role, nil
}
