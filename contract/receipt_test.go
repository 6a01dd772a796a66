package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleReceipt() Receipt {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	finished := started.Add(1500 * time.Millisecond)
	caps := NewCapabilityManifest()
	caps.Set(CapStreaming, Native())
	caps.Set(CapToolEdit, Emulated())
	return Receipt{
		Meta: Meta{
			RunID: "run-1", WorkOrderID: "wo-1", ContractVersion: ContractVersion,
			StartedAt: started, FinishedAt: finished, DurationMs: 1500,
		},
		Backend:      BackendInfo{ID: "mock"},
		Capabilities: caps,
		Mode:         ModePassthrough,
		Usage:        Usage{InputTokens: 10, OutputTokens: 5},
		Trace: []AgentEvent{
			{Ts: started, Kind: RunStarted{Message: "go"}},
			{Ts: finished, Kind: RunCompleted{Message: "done"}},
		},
		Outcome: OutcomeComplete,
	}
}

func TestWithHashIdempotent(t *testing.T) {
	r := sampleReceipt()
	sealed, err := r.WithHash()
	require.NoError(t, err)
	require.NotNil(t, sealed.ReceiptSHA256)
	require.Len(t, *sealed.ReceiptSHA256, 64)

	sealedAgain, err := sealed.WithHash()
	require.NoError(t, err)
	require.Equal(t, *sealed.ReceiptSHA256, *sealedAgain.ReceiptSHA256)
}

func TestReceiptHashStableAcrossFieldOrder(t *testing.T) {
	r1 := sampleReceipt()
	r2 := sampleReceipt()
	reordered := NewCapabilityManifest()
	reordered.Set(CapToolEdit, Emulated())
	reordered.Set(CapStreaming, Native())
	r2.Capabilities = reordered
	h1, err := ReceiptHash(r1)
	require.NoError(t, err)
	h2, err := ReceiptHash(r2)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestDurationNonNegativeInvariant(t *testing.T) {
	r := sampleReceipt()
	require.True(t, r.Meta.DurationMs >= 0)
	require.False(t, r.Meta.FinishedAt.Before(r.Meta.StartedAt))
}

func TestCapabilityManifestRoundTrip(t *testing.T) {
	r := sampleReceipt()
	sealed, err := r.WithHash()
	require.NoError(t, err)

	data, err := sealed.Capabilities.MarshalJSON()
	require.NoError(t, err)

	restored := NewCapabilityManifest()
	require.NoError(t, restored.UnmarshalJSON(data))
	require.Equal(t, Native(), restored.Get(CapStreaming))
	require.Equal(t, Emulated(), restored.Get(CapToolEdit))
	require.Equal(t, Unsupported(), restored.Get(CapToolBash))
}

func TestContractVersionMatches(t *testing.T) {
	r := sampleReceipt()
	require.Equal(t, "abp/v0.1", r.Meta.ContractVersion)
}
