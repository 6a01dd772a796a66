// Package vendorsdk adapts direct-to-vendor LLM SDKs into backend.Backend,
// translating a WorkOrder into a single non-streaming vendor call per run.
// This package constructs requests/responses only; the HTTP wire transport
// itself is each SDK's own concern, kept thin per spec.md §1's explicit
// non-goal of owning vendor wire protocols.
package vendorsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentbackplane/abp/backend"
	"github.com/agentbackplane/abp/contract"
)

// MessagesClient is the subset of the Anthropic SDK client this adapter
// calls, so tests can substitute a stub for the real *sdk.MessageService.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// ClaudeBackend implements backend.Backend on top of the Anthropic Messages
// API via github.com/anthropics/anthropic-sdk-go. It issues one
// Messages.New call per run: the task plus any inline snippets become a
// single user turn, and the reply becomes one assistant_message event.
type ClaudeBackend struct {
	msg          MessagesClient
	defaultModel string
	maxTokens    int
}

// NewClaudeBackend wraps an existing Anthropic messages client.
// defaultModel is used when WorkOrder.Config.Model is empty.
func NewClaudeBackend(msg MessagesClient, defaultModel string, maxTokens int) (*ClaudeBackend, error) {
	if msg == nil {
		return nil, fmt.Errorf("vendorsdk: anthropic client is required")
	}
	if defaultModel == "" {
		return nil, fmt.Errorf("vendorsdk: default model is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &ClaudeBackend{msg: msg, defaultModel: defaultModel, maxTokens: maxTokens}, nil
}

// NewClaudeBackendFromAPIKey constructs a ClaudeBackend using the SDK's
// default HTTP client, authenticated with apiKey.
func NewClaudeBackendFromAPIKey(apiKey, defaultModel string) (*ClaudeBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("vendorsdk: api key is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewClaudeBackend(&client.Messages, defaultModel, 4096)
}

// Identity reports this backend as the Claude vendor-SDK dialect.
func (b *ClaudeBackend) Identity() backend.Identity {
	return backend.Identity{ID: "vendorsdk-claude", Version: b.defaultModel}
}

// Capabilities reports what a single non-streaming Messages.New call can
// provide: tool_use is native (the SDK can surface tool_use blocks), but
// this adapter does not implement a tool-execution loop, streaming, or
// session resumption.
func (b *ClaudeBackend) Capabilities() *contract.CapabilityManifest {
	m := contract.NewCapabilityManifest()
	m.Set(contract.CapToolUse, contract.Native())
	m.Set(contract.CapExtendedThinking, contract.Native())
	m.Set(contract.CapImageInput, contract.Native())
	m.Set(contract.CapPDFInput, contract.Native())
	m.Set(contract.CapStopSequences, contract.Native())
	m.Set(contract.CapStreaming, contract.Unsupported())
	m.Set(contract.CapSessionResume, contract.Unsupported())
	return m
}

// Run issues one Messages.New call derived from wo.Task and wo.Context,
// emits run_started/assistant_message/run_completed events, and returns a
// complete receipt carrying the vendor's raw usage blob alongside the
// normalized contract.Usage.
func (b *ClaudeBackend) Run(ctx context.Context, runID string, wo contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error) {
	started := time.Now()
	model := wo.Config.Model
	if model == "" {
		model = b.defaultModel
	}

	if err := emit(ctx, events, contract.RunStarted{Message: "vendorsdk/claude: dispatching to " + model}); err != nil {
		return contract.Receipt{}, err
	}

	params := sdk.MessageNewParams{
		MaxTokens: int64(b.maxTokens),
		Model:     sdk.Model(model),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(renderPrompt(wo))),
		},
	}

	msg, err := b.msg.New(ctx, params)
	if err != nil {
		_ = emit(ctx, events, contract.ErrorEvent{Message: err.Error()})
		return contract.Receipt{}, fmt.Errorf("vendorsdk/claude: messages.new: %w", err)
	}

	text := firstText(msg)
	if err := emit(ctx, events, contract.AssistantMessage{Text: text}); err != nil {
		return contract.Receipt{}, err
	}
	if err := emit(ctx, events, contract.RunCompleted{Message: "vendorsdk/claude: run complete"}); err != nil {
		return contract.Receipt{}, err
	}

	finished := time.Now()
	usageRaw, _ := json.Marshal(msg.Usage)

	return contract.Receipt{
		Meta: contract.Meta{
			RunID: runID, WorkOrderID: wo.ID, ContractVersion: contract.ContractVersion,
			StartedAt: started, FinishedAt: finished, DurationMs: clampNonNegative(finished.Sub(started)),
		},
		Backend:      contract.BackendInfo{ID: b.Identity().ID, BackendVersion: model},
		Capabilities: b.Capabilities(),
		Mode:         contract.ModeMapped,
		UsageRaw:     usageRaw,
		Usage: contract.Usage{
			InputTokens:      int(msg.Usage.InputTokens),
			OutputTokens:     int(msg.Usage.OutputTokens),
			CacheReadTokens:  int(msg.Usage.CacheReadInputTokens),
			CacheWriteTokens: int(msg.Usage.CacheCreationInputTokens),
		},
		Trace: []contract.AgentEvent{
			{Ts: started, Kind: contract.RunStarted{Message: "vendorsdk/claude: dispatching to " + model}},
			{Ts: finished, Kind: contract.AssistantMessage{Text: text}},
			{Ts: finished, Kind: contract.RunCompleted{Message: "vendorsdk/claude: run complete"}},
		},
		Outcome: contract.OutcomeComplete,
	}, nil
}

func firstText(msg *sdk.Message) string {
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

func renderPrompt(wo contract.WorkOrder) string {
	prompt := wo.Task
	for _, s := range wo.Context.Snippets {
		prompt += "\n\n# " + s.Name + "\n" + s.Content
	}
	return prompt
}

func emit(ctx context.Context, events chan<- contract.AgentEvent, kind contract.EventKind) error {
	select {
	case events <- contract.AgentEvent{Ts: time.Now(), Kind: kind}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func clampNonNegative(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}
