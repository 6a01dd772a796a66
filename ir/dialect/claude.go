package dialect

import (
	"fmt"

	"github.com/agentbackplane/abp/ir"
)

// ClaudeMessage mirrors the message shape used by the Anthropic Messages
// API: a role plus a list of typed content blocks.
type ClaudeMessage struct {
	Role    string        `json:"role"`
	Content []ClaudeBlock `json:"content"`
}

// ClaudeBlock is a single content block in the Anthropic wire format. Only
// one of its fields is populated, selected by Type.
type ClaudeBlock struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	Source *ClaudeImageSource `json:"source,omitempty"`

	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`

	ToolUseID string        `json:"tool_use_id,omitempty"`
	Content   []ClaudeBlock `json:"content,omitempty"`
	IsError   bool          `json:"is_error,omitempty"`

	Thinking string `json:"thinking,omitempty"`
}

// ClaudeImageSource is the Anthropic base64 image source shape.
type ClaudeImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeTranslator struct{}

// NewClaudeTranslator returns a Translator for the Anthropic Messages API
// dialect.
func NewClaudeTranslator() Translator { return claudeTranslator{} }

func (claudeTranslator) Name() Name { return Claude }

func (claudeTranslator) ToDialect(conv ir.Conversation) (any, error) {
	out := make([]ClaudeMessage, 0, len(conv))
	for _, msg := range conv {
		role := string(msg.Role)
		if msg.Role == ir.RoleTool {
			// Anthropic has no dedicated tool role; tool_result blocks are
			// carried inside a user turn.
			role = "user"
		}
		blocks, err := claudeBlocksFromIR(msg.Content)
		if err != nil {
			return nil, err
		}
		out = append(out, ClaudeMessage{Role: role, Content: blocks})
	}
	return out, nil
}

func claudeBlocksFromIR(content []ir.ContentBlock) ([]ClaudeBlock, error) {
	blocks := make([]ClaudeBlock, 0, len(content))
	for _, b := range content {
		switch v := b.(type) {
		case ir.Text:
			blocks = append(blocks, ClaudeBlock{Type: "text", Text: v.Text})
		case ir.Image:
			blocks = append(blocks, ClaudeBlock{Type: "image", Source: &ClaudeImageSource{
				Type: "base64", MediaType: v.MediaType, Data: v.Data,
			}})
		case ir.ToolUse:
			blocks = append(blocks, ClaudeBlock{Type: "tool_use", ID: v.ID, Name: v.Name, Input: v.Input})
		case ir.ToolResult:
			inner, err := claudeBlocksFromIR(v.Content)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, ClaudeBlock{Type: "tool_result", ToolUseID: v.ToolUseID, Content: inner, IsError: v.IsError})
		case ir.Thinking:
			blocks = append(blocks, ClaudeBlock{Type: "thinking", Thinking: v.Text})
		default:
			return nil, fmt.Errorf("dialect/claude: unsupported content block %T", b)
		}
	}
	return blocks, nil
}

func (claudeTranslator) FromDialect(payload any) (ir.Conversation, error) {
	msgs, ok := payload.([]ClaudeMessage)
	if !ok {
		return nil, fmt.Errorf("dialect/claude: expected []ClaudeMessage, got %T", payload)
	}
	conv := make(ir.Conversation, 0, len(msgs))
	for _, m := range msgs {
		content, err := claudeBlocksToIR(m.Content)
		if err != nil {
			return nil, err
		}
		conv = append(conv, ir.Message{Role: ir.Role(m.Role), Content: content})
	}
	return conv, nil
}

func claudeBlocksToIR(blocks []ClaudeBlock) ([]ir.ContentBlock, error) {
	out := make([]ir.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "text":
			out = append(out, ir.Text{Text: b.Text})
		case "image":
			if b.Source == nil {
				return nil, fmt.Errorf("dialect/claude: image block missing source")
			}
			out = append(out, ir.Image{MediaType: b.Source.MediaType, Data: b.Source.Data})
		case "tool_use":
			out = append(out, ir.ToolUse{ID: b.ID, Name: b.Name, Input: b.Input})
		case "tool_result":
			inner, err := claudeBlocksToIR(b.Content)
			if err != nil {
				return nil, err
			}
			out = append(out, ir.ToolResult{ToolUseID: b.ToolUseID, Content: inner, IsError: b.IsError})
		case "thinking":
			out = append(out, ir.Thinking{Text: b.Thinking})
		default:
			return nil, fmt.Errorf("dialect/claude: unknown block type %q", b.Type)
		}
	}
	return out, nil
}
