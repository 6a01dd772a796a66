package vendorsdk

import (
	"context"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentbackplane/abp/contract"
	"github.com/stretchr/testify/require"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.lastParams = body
	return s.resp, s.err
}

func TestClaudeBackendRunEmitsAssistantMessageAndCompleteReceipt(t *testing.T) {
	stub := &stubMessagesClient{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{{Type: "text", Text: "hello from claude"}},
			Usage:   sdk.Usage{InputTokens: 10, OutputTokens: 5},
		},
	}
	b, err := NewClaudeBackend(stub, "claude-3.5-sonnet", 256)
	require.NoError(t, err)

	events := make(chan contract.AgentEvent, 8)
	wo := contract.WorkOrder{ID: "wo-1", Task: "say hello"}

	receipt, err := b.Run(context.Background(), "run-1", wo, events)
	require.NoError(t, err)
	close(events)

	require.Equal(t, contract.OutcomeComplete, receipt.Outcome)
	require.Equal(t, 10, receipt.Usage.InputTokens)
	require.Equal(t, 5, receipt.Usage.OutputTokens)
	require.Equal(t, "claude-3.5-sonnet", string(stub.lastParams.Model))

	var kinds []string
	for e := range events {
		kinds = append(kinds, e.Kind.Type())
	}
	require.Equal(t, []string{"run_started", "assistant_message", "run_completed"}, kinds)
}

func TestNewClaudeBackendRequiresClientAndModel(t *testing.T) {
	_, err := NewClaudeBackend(nil, "model", 1)
	require.Error(t, err)

	_, err = NewClaudeBackend(&stubMessagesClient{}, "", 1)
	require.Error(t, err)
}
