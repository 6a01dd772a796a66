package vendorsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agentbackplane/abp/backend"
	"github.com/agentbackplane/abp/contract"
)

// ChatClient is the subset of the OpenAI SDK client this adapter calls, so
// tests can substitute a stub for the real chat completions service.
type ChatClient interface {
	New(ctx context.Context, body oai.ChatCompletionNewParams, opts ...option.RequestOption) (*oai.ChatCompletion, error)
}

// OpenAIBackend implements backend.Backend on top of the OpenAI Chat
// Completions API via github.com/openai/openai-go. Like ClaudeBackend, it
// issues one non-streaming call per run.
type OpenAIBackend struct {
	chat         ChatClient
	defaultModel string
}

// NewOpenAIBackend wraps an existing chat completions client. defaultModel
// is used when WorkOrder.Config.Model is empty.
func NewOpenAIBackend(chat ChatClient, defaultModel string) (*OpenAIBackend, error) {
	if chat == nil {
		return nil, fmt.Errorf("vendorsdk: openai client is required")
	}
	if defaultModel == "" {
		return nil, fmt.Errorf("vendorsdk: default model is required")
	}
	return &OpenAIBackend{chat: chat, defaultModel: defaultModel}, nil
}

// NewOpenAIBackendFromAPIKey constructs an OpenAIBackend using the SDK's
// default HTTP client, authenticated with apiKey.
func NewOpenAIBackendFromAPIKey(apiKey, defaultModel string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("vendorsdk: api key is required")
	}
	client := oai.NewClient(option.WithAPIKey(apiKey))
	return NewOpenAIBackend(&client.Chat.Completions, defaultModel)
}

// Identity reports this backend as the OpenAI vendor-SDK dialect.
func (b *OpenAIBackend) Identity() backend.Identity {
	return backend.Identity{ID: "vendorsdk-openai", Version: b.defaultModel}
}

// Capabilities reports what a single non-streaming chat completion call
// can provide.
func (b *OpenAIBackend) Capabilities() *contract.CapabilityManifest {
	m := contract.NewCapabilityManifest()
	m.Set(contract.CapToolUse, contract.Native())
	m.Set(contract.CapStructuredOutputJSONSchema, contract.Native())
	m.Set(contract.CapLogprobs, contract.Native())
	m.Set(contract.CapSeedDeterminism, contract.Native())
	m.Set(contract.CapStopSequences, contract.Native())
	m.Set(contract.CapStreaming, contract.Unsupported())
	m.Set(contract.CapSessionResume, contract.Unsupported())
	return m
}

// Run issues one chat completion derived from wo.Task and wo.Context,
// emits run_started/assistant_message/run_completed events, and returns a
// complete receipt.
func (b *OpenAIBackend) Run(ctx context.Context, runID string, wo contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error) {
	started := time.Now()
	model := wo.Config.Model
	if model == "" {
		model = b.defaultModel
	}

	if err := emit(ctx, events, contract.RunStarted{Message: "vendorsdk/openai: dispatching to " + model}); err != nil {
		return contract.Receipt{}, err
	}

	params := oai.ChatCompletionNewParams{
		Model: oai.ChatModel(model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(renderPrompt(wo)),
		},
	}

	completion, err := b.chat.New(ctx, params)
	if err != nil {
		_ = emit(ctx, events, contract.ErrorEvent{Message: err.Error()})
		return contract.Receipt{}, fmt.Errorf("vendorsdk/openai: chat completion: %w", err)
	}

	text := ""
	if len(completion.Choices) > 0 {
		text = completion.Choices[0].Message.Content
	}
	if err := emit(ctx, events, contract.AssistantMessage{Text: text}); err != nil {
		return contract.Receipt{}, err
	}
	if err := emit(ctx, events, contract.RunCompleted{Message: "vendorsdk/openai: run complete"}); err != nil {
		return contract.Receipt{}, err
	}

	finished := time.Now()
	usageRaw, _ := json.Marshal(completion.Usage)

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
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
		Trace: []contract.AgentEvent{
			{Ts: started, Kind: contract.RunStarted{Message: "vendorsdk/openai: dispatching to " + model}},
			{Ts: finished, Kind: contract.AssistantMessage{Text: text}},
			{Ts: finished, Kind: contract.RunCompleted{Message: "vendorsdk/openai: run complete"}},
		},
		Outcome: contract.OutcomeComplete,
	}, nil
}
