// Package ir defines the cross-dialect intermediate representation that
// vendor dialect adapters translate into and out of. A conversation
// expressed in IR can be rendered into any dialect the mapping registry
// has rules for.
package ir

import "fmt"

// Role is the closed set of message roles.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentBlock is the closed tagged union of message content. Each concrete
// kind implements Type to report its wire tag.
type ContentBlock interface {
	Type() string
	isContentBlock()
}

// Text is a plain text block.
type Text struct {
	Text string `json:"text"`
}

// Image is inline image data.
type Image struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ToolUse requests invocation of a named tool.
type ToolUse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input any    `json:"input"`
}

// ToolResult carries the outcome of a prior ToolUse.
type ToolResult struct {
	ToolUseID string         `json:"tool_use_id"`
	Content   []ContentBlock `json:"content"`
	IsError   bool           `json:"is_error"`
}

// Thinking is a model's private reasoning trace, surfaced when a dialect
// exposes it.
type Thinking struct {
	Text string `json:"text"`
}

func (Text) Type() string       { return "text" }
func (Image) Type() string      { return "image" }
func (ToolUse) Type() string    { return "tool_use" }
func (ToolResult) Type() string { return "tool_result" }
func (Thinking) Type() string   { return "thinking" }

func (Text) isContentBlock()       {}
func (Image) isContentBlock()      {}
func (ToolUse) isContentBlock()    {}
func (ToolResult) isContentBlock() {}
func (Thinking) isContentBlock()   {}

// Message is one turn in a Conversation.
type Message struct {
	Role     Role
	Content  []ContentBlock
	Metadata map[string]any
}

// Conversation is an ordered sequence of Messages.
type Conversation []Message

// Usage is normalized token accounting. NewUsage enforces the
// TotalTokens == InputTokens + OutputTokens invariant at construction; a
// Usage built as a struct literal is not checked until Validate is called.
type Usage struct {
	InputTokens      int
	OutputTokens      int
	TotalTokens      int
	CacheReadTokens  int
	CacheWriteTokens int
}

// NewUsage constructs a Usage with TotalTokens derived from input+output.
func NewUsage(input, output, cacheRead, cacheWrite int) Usage {
	return Usage{
		InputTokens:      input,
		OutputTokens:     output,
		TotalTokens:      input + output,
		CacheReadTokens:  cacheRead,
		CacheWriteTokens: cacheWrite,
	}
}

// Validate reports whether u satisfies the total-tokens invariant. Usage
// values built outside NewUsage (e.g. decoded from a dialect's raw wire
// format) should be checked before being trusted.
func (u Usage) Validate() error {
	if u.TotalTokens != u.InputTokens+u.OutputTokens {
		return fmt.Errorf("ir: usage total_tokens %d != input %d + output %d",
			u.TotalTokens, u.InputTokens, u.OutputTokens)
	}
	return nil
}
