package vendorsdk

import (
	"context"
	"testing"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/agentbackplane/abp/contract"
	"github.com/stretchr/testify/require"
)

type stubChatClient struct {
	lastParams oai.ChatCompletionNewParams
	resp       *oai.ChatCompletion
	err        error
}

func (s *stubChatClient) New(_ context.Context, body oai.ChatCompletionNewParams, _ ...option.RequestOption) (*oai.ChatCompletion, error) {
	s.lastParams = body
	return s.resp, s.err
}

func TestOpenAIBackendRunEmitsAssistantMessageAndCompleteReceipt(t *testing.T) {
	stub := &stubChatClient{
		resp: &oai.ChatCompletion{
			Choices: []oai.ChatCompletionChoice{
				{Message: oai.ChatCompletionMessage{Content: "hello from gpt"}},
			},
			Usage: oai.CompletionUsage{PromptTokens: 7, CompletionTokens: 3},
		},
	}
	b, err := NewOpenAIBackend(stub, "gpt-4o")
	require.NoError(t, err)

	events := make(chan contract.AgentEvent, 8)
	wo := contract.WorkOrder{ID: "wo-1", Task: "say hello"}

	receipt, err := b.Run(context.Background(), "run-1", wo, events)
	require.NoError(t, err)
	close(events)

	require.Equal(t, contract.OutcomeComplete, receipt.Outcome)
	require.Equal(t, 7, receipt.Usage.InputTokens)
	require.Equal(t, 3, receipt.Usage.OutputTokens)
	require.Equal(t, "gpt-4o", string(stub.lastParams.Model))

	var kinds []string
	for e := range events {
		kinds = append(kinds, e.Kind.Type())
	}
	require.Equal(t, []string{"run_started", "assistant_message", "run_completed"}, kinds)
}

func TestNewOpenAIBackendRequiresClientAndModel(t *testing.T) {
	_, err := NewOpenAIBackend(nil, "model")
	require.Error(t, err)

	_, err = NewOpenAIBackend(&stubChatClient{}, "")
	require.Error(t, err)
}
