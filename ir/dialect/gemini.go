package dialect

import (
	"fmt"

	"github.com/agentbackplane/abp/ir"
)

// GeminiContent mirrors a Gemini `Content` entry: a role plus a list of
// typed parts.
type GeminiContent struct {
	Role  string       `json:"role"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart is one part of a GeminiContent. Exactly one field is set.
type GeminiPart struct {
	Text             string                  `json:"text,omitempty"`
	InlineData       *GeminiBlob             `json:"inlineData,omitempty"`
	FunctionCall     *GeminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *GeminiFunctionResponse `json:"functionResponse,omitempty"`
}

// GeminiBlob is inline base64 media.
type GeminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GeminiFunctionCall requests a tool invocation.
type GeminiFunctionCall struct {
	Name string `json:"name"`
	Args any    `json:"args"`
}

// GeminiFunctionResponse carries a tool's return value.
type GeminiFunctionResponse struct {
	Name     string `json:"name"`
	Response any    `json:"response"`
}

type geminiTranslator struct{}

// NewGeminiTranslator returns a Translator for the Gemini generateContent
// dialect.
func NewGeminiTranslator() Translator { return geminiTranslator{} }

func (geminiTranslator) Name() Name { return Gemini }

func (geminiTranslator) ToDialect(conv ir.Conversation) (any, error) {
	out := make([]GeminiContent, 0, len(conv))
	for _, msg := range conv {
		role := "user"
		switch msg.Role {
		case ir.RoleAssistant:
			role = "model"
		case ir.RoleSystem:
			// Gemini has no system content entry; callers lift system
			// messages into GenerateContentConfig.SystemInstruction
			// instead. We still render it as a user-role turn here so no
			// information is silently dropped.
			role = "user"
		}
		parts, err := geminiPartsFromIR(msg.Content)
		if err != nil {
			return nil, err
		}
		out = append(out, GeminiContent{Role: role, Parts: parts})
	}
	return out, nil
}

func geminiPartsFromIR(content []ir.ContentBlock) ([]GeminiPart, error) {
	parts := make([]GeminiPart, 0, len(content))
	for _, b := range content {
		switch v := b.(type) {
		case ir.Text:
			parts = append(parts, GeminiPart{Text: v.Text})
		case ir.Thinking:
			parts = append(parts, GeminiPart{Text: v.Text})
		case ir.Image:
			parts = append(parts, GeminiPart{InlineData: &GeminiBlob{MimeType: v.MediaType, Data: v.Data}})
		case ir.ToolUse:
			parts = append(parts, GeminiPart{FunctionCall: &GeminiFunctionCall{Name: v.Name, Args: v.Input}})
		case ir.ToolResult:
			var response any = toolResultText(v)
			parts = append(parts, GeminiPart{FunctionResponse: &GeminiFunctionResponse{Name: v.ToolUseID, Response: response}})
		default:
			return nil, fmt.Errorf("dialect/gemini: unsupported content block %T", b)
		}
	}
	return parts, nil
}

func (geminiTranslator) FromDialect(payload any) (ir.Conversation, error) {
	contents, ok := payload.([]GeminiContent)
	if !ok {
		return nil, fmt.Errorf("dialect/gemini: expected []GeminiContent, got %T", payload)
	}
	conv := make(ir.Conversation, 0, len(contents))
	for _, c := range contents {
		role := ir.RoleUser
		if c.Role == "model" {
			role = ir.RoleAssistant
		}
		blocks := make([]ir.ContentBlock, 0, len(c.Parts))
		for _, p := range c.Parts {
			switch {
			case p.FunctionCall != nil:
				blocks = append(blocks, ir.ToolUse{Name: p.FunctionCall.Name, Input: p.FunctionCall.Args})
			case p.FunctionResponse != nil:
				blocks = append(blocks, ir.ToolResult{ToolUseID: p.FunctionResponse.Name})
			case p.InlineData != nil:
				blocks = append(blocks, ir.Image{MediaType: p.InlineData.MimeType, Data: p.InlineData.Data})
			default:
				blocks = append(blocks, ir.Text{Text: p.Text})
			}
		}
		conv = append(conv, ir.Message{Role: role, Content: blocks})
	}
	return conv, nil
}
