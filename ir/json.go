package ir

import (
	"encoding/json"
	"fmt"
)

// marshalContentBlock flattens a ContentBlock's fields alongside its "type" tag,
// matching the externally-tagged style used throughout the wire formats.
func marshalContentBlock(b ContentBlock) ([]byte, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("ir: marshal content block: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("ir: flatten content block: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["type"] = b.Type()
	return json.Marshal(fields)
}

type contentBlockEnvelope struct {
	Type string `json:"type"`
}

func unmarshalContentBlock(data []byte) (ContentBlock, error) {
	var env contentBlockEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("ir: unmarshal content block envelope: %w", err)
	}
	switch env.Type {
	case "text":
		var b Text
		return b, json.Unmarshal(data, &b)
	case "image":
		var b Image
		return b, json.Unmarshal(data, &b)
	case "tool_use":
		var b ToolUse
		return b, json.Unmarshal(data, &b)
	case "tool_result":
		var raw struct {
			ToolUseID string            `json:"tool_use_id"`
			Content   []json.RawMessage `json:"content"`
			IsError   bool              `json:"is_error"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		content := make([]ContentBlock, 0, len(raw.Content))
		for _, item := range raw.Content {
			child, err := unmarshalContentBlock(item)
			if err != nil {
				return nil, err
			}
			content = append(content, child)
		}
		return ToolResult{ToolUseID: raw.ToolUseID, Content: content, IsError: raw.IsError}, nil
	case "thinking":
		var b Thinking
		return b, json.Unmarshal(data, &b)
	default:
		return nil, fmt.Errorf("ir: unknown content block type %q", env.Type)
	}
}

// MarshalJSON implements json.Marshaler for Message, flattening each content
// block through marshalContentBlock.
func (m Message) MarshalJSON() ([]byte, error) {
	blocks := make([]json.RawMessage, 0, len(m.Content))
	for _, b := range m.Content {
		raw, err := marshalContentBlock(b)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, raw)
	}
	return json.Marshal(struct {
		Role     Role              `json:"role"`
		Content  []json.RawMessage `json:"content"`
		Metadata map[string]any    `json:"metadata,omitempty"`
	}{Role: m.Role, Content: blocks, Metadata: m.Metadata})
}

// UnmarshalJSON implements json.Unmarshaler for Message.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role     Role              `json:"role"`
		Content  []json.RawMessage `json:"content"`
		Metadata map[string]any    `json:"metadata,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content := make([]ContentBlock, 0, len(raw.Content))
	for _, item := range raw.Content {
		block, err := unmarshalContentBlock(item)
		if err != nil {
			return err
		}
		content = append(content, block)
	}
	m.Role = raw.Role
	m.Content = content
	m.Metadata = raw.Metadata
	return nil
}
