package mockbackend

import (
	"context"
	"testing"
	"time"

	"github.com/agentbackplane/abp/contract"
	"github.com/stretchr/testify/require"
)

func TestRunEmitsScenarioS1Sequence(t *testing.T) {
	b := New()
	events := make(chan contract.AgentEvent, 8)
	wo := contract.WorkOrder{
		ID:   "wo-1",
		Task: "e2e test",
		Workspace: contract.WorkspaceSpec{
			Root: ".",
			Mode: contract.WorkspacePassThrough,
		},
	}

	receipt, err := b.Run(context.Background(), "run-1", wo, events)
	require.NoError(t, err)
	close(events)

	var kinds []string
	for e := range events {
		kinds = append(kinds, e.Kind.Type())
	}
	require.Equal(t, []string{"run_started", "assistant_message", "assistant_message", "run_completed"}, kinds)

	require.Equal(t, contract.OutcomeComplete, receipt.Outcome)
	require.Equal(t, "run-1", receipt.Meta.RunID)
	require.Equal(t, contract.ContractVersion, receipt.Meta.ContractVersion)
	require.Nil(t, receipt.ReceiptSHA256, "sealing is the runtime's job, not the backend's")

	sealed, err := receipt.WithHash()
	require.NoError(t, err)
	require.NotNil(t, sealed.ReceiptSHA256)
	require.Len(t, *sealed.ReceiptSHA256, 64)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	b := New()
	unbuffered := make(chan contract.AgentEvent) // never drained

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Run(ctx, "run-1", contract.WorkOrder{Task: "t"}, unbuffered)
	require.ErrorIs(t, err, context.Canceled)
}

func TestIdentityAndCapabilities(t *testing.T) {
	b := New()
	require.Equal(t, "mock", b.Identity().ID)

	caps := b.Capabilities()
	require.True(t, caps.Has(contract.CapStreaming))
	require.Equal(t, contract.Native(), caps.Get(contract.CapStreaming))
}

func TestRunUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &Backend{Now: func() time.Time { return fixed }}
	events := make(chan contract.AgentEvent, 8)

	receipt, err := b.Run(context.Background(), "run-1", contract.WorkOrder{Task: "t"}, events)
	require.NoError(t, err)
	require.True(t, receipt.Meta.StartedAt.Equal(fixed))
	require.True(t, receipt.Meta.FinishedAt.Equal(fixed))
	require.Equal(t, int64(0), receipt.Meta.DurationMs)
}
