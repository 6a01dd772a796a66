package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentbackplane/abp/backend"
	"github.com/agentbackplane/abp/backend/mockbackend"
	"github.com/agentbackplane/abp/capability"
	"github.com/agentbackplane/abp/contract"
	"github.com/agentbackplane/abp/receiptstore"
)

func newTestWorkOrder(t *testing.T) contract.WorkOrder {
	t.Helper()
	return contract.WorkOrder{
		ID:   "wo-1",
		Task: "say hello",
		Workspace: contract.WorkspaceSpec{
			Root: t.TempDir(),
			Mode: contract.WorkspacePassThrough,
		},
	}
}

func newTestRuntime() (*Runtime, *backend.Registry) {
	reg := backend.NewRegistry()
	reg.Register("mock", mockbackend.New())
	return New(reg, nil, nil, RuntimeOptions{}), reg
}

// S1: a run against the mock backend completes end to end with a sealed
// receipt appended to the chain.
func TestRunStreamingMockBackendCompletes(t *testing.T) {
	rt, _ := newTestRuntime()
	wo := newTestWorkOrder(t)

	handle, err := rt.RunStreaming(context.Background(), "mock", wo)
	require.NoError(t, err)
	require.NotEmpty(t, handle.RunID)

	var kinds []string
	for e := range handle.Events {
		kinds = append(kinds, e.Kind.Type())
	}
	require.Equal(t, []string{"run_started", "assistant_message", "assistant_message", "run_completed"}, kinds)

	receipt, err := handle.Wait()
	require.NoError(t, err)
	require.Equal(t, contract.OutcomeComplete, receipt.Outcome)
	require.NotNil(t, receipt.ReceiptSHA256)
	require.Len(t, *receipt.ReceiptSHA256, 64)

	require.Equal(t, 1, rt.Chain().Len())
	snapshot := rt.counters.Snapshot()
	require.Equal(t, int64(1), snapshot.Started)
	require.Equal(t, int64(1), snapshot.Completed)
	require.Equal(t, int64(0), snapshot.Failed)
	require.Equal(t, int64(4), snapshot.Events)
}

// S2: dispatching against an unregistered backend name fails before
// anything is spawned, with no run_id minted.
func TestRunStreamingUnknownBackend(t *testing.T) {
	rt, _ := newTestRuntime()
	wo := newTestWorkOrder(t)

	handle, err := rt.RunStreaming(context.Background(), "does-not-exist", wo)
	require.Error(t, err)
	require.Nil(t, handle)
	require.Equal(t, 0, rt.Chain().Len())
}

// S3: a work order that requires a capability the backend cannot satisfy is
// rejected synchronously by RunStreaming, never reaching the backend.
func TestRunStreamingUnsatisfiableCapability(t *testing.T) {
	rt, _ := newTestRuntime()
	wo := newTestWorkOrder(t)
	wo.Requirements = []contract.Requirement{
		{Capability: contract.CapSessionResume, MinSupport: contract.SupportNative},
	}

	handle, err := rt.RunStreaming(context.Background(), "mock", wo)
	require.Error(t, err)
	require.Nil(t, handle)

	var unsatisfied *capability.UnsatisfiedError
	require.ErrorAs(t, err, &unsatisfied)
	require.Equal(t, "mock", unsatisfied.Backend)
	require.Equal(t, 0, rt.Chain().Len())
}

// S5: pushing a receipt with a tampered hash onto the chain is rejected,
// even when the runtime itself sealed and pushed a prior, valid receipt for
// a different run.
func TestChainRejectsTamperedReceiptAfterValidRun(t *testing.T) {
	rt, _ := newTestRuntime()
	wo := newTestWorkOrder(t)

	handle, err := rt.RunStreaming(context.Background(), "mock", wo)
	require.NoError(t, err)
	for range handle.Events {
	}
	receipt, err := handle.Wait()
	require.NoError(t, err)
	require.Equal(t, 1, rt.Chain().Len())

	tampered := receipt
	tampered.Meta.RunID = "run-tampered"
	tampered.Usage.InputTokens += 1000 // mutate payload without re-sealing

	err = rt.Chain().Push(tampered)
	var invalidHash *receiptstore.ErrInvalidHash
	require.ErrorAs(t, err, &invalidHash)
	require.Equal(t, 1, rt.Chain().Len())
}

func TestRunBlocksUntilReceiptReady(t *testing.T) {
	rt, _ := newTestRuntime()
	wo := newTestWorkOrder(t)

	receipt, err := rt.Run(context.Background(), "mock", wo)
	require.NoError(t, err)
	require.Equal(t, contract.OutcomeComplete, receipt.Outcome)
}

func TestSubmitAndRunQueueDispatchesQueuedRun(t *testing.T) {
	rt, _ := newTestRuntime()
	wo := newTestWorkOrder(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.RunQueue(ctx)

	resultCh, err := rt.Submit(ctx, 0, "mock", wo)
	require.NoError(t, err)

	select {
	case handle := <-resultCh:
		require.NotNil(t, handle)
		for range handle.Events {
		}
		receipt, err := handle.Wait()
		require.NoError(t, err)
		require.Equal(t, contract.OutcomeComplete, receipt.Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for queued run to dispatch")
	}
}
