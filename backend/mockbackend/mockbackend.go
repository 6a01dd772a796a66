// Package mockbackend implements a deterministic, in-process backend.Backend
// used for local development and the runtime's own test suite (scenario S1
// in spec.md §8): it emits a fixed event sequence and a complete receipt
// without spawning any process or calling any vendor API.
package mockbackend

import (
	"context"
	"time"

	"github.com/agentbackplane/abp/backend"
	"github.com/agentbackplane/abp/contract"
)

// Backend is a deterministic mock that always completes successfully. It
// emits two assistant_message events, the first echoing the work order's
// task.
type Backend struct {
	// Now, if set, is used instead of time.Now for event/receipt timestamps,
	// so tests can assert on exact values.
	Now func() time.Time
}

// New returns a ready-to-register mock Backend.
func New() *Backend { return &Backend{} }

func (b *Backend) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Identity reports the mock's fixed identity.
func (b *Backend) Identity() backend.Identity {
	return backend.Identity{ID: "mock", Version: "0.1.0"}
}

// Capabilities reports a manifest with native support for streaming,
// stop_sequences and the basic tools except tool_edit, emulated support for
// tool_edit and session_resume, and no entry for anything vendor-specific
// (MCP, extended thinking, and similar).
func (b *Backend) Capabilities() *contract.CapabilityManifest {
	m := contract.NewCapabilityManifest()
	m.Set(contract.CapStreaming, contract.Native())
	m.Set(contract.CapToolRead, contract.Native())
	m.Set(contract.CapToolWrite, contract.Native())
	m.Set(contract.CapToolEdit, contract.Emulated())
	m.Set(contract.CapToolBash, contract.Native())
	m.Set(contract.CapToolGlob, contract.Native())
	m.Set(contract.CapToolGrep, contract.Native())
	m.Set(contract.CapSessionResume, contract.Emulated())
	m.Set(contract.CapStopSequences, contract.Native())
	return m
}

// Run emits [run_started, assistant_message, assistant_message,
// run_completed] on events, then returns a complete, unsealed receipt.
// Sealing (receipt_sha256) is the runtime's job, not the backend's.
func (b *Backend) Run(ctx context.Context, runID string, wo contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error) {
	started := b.now()

	emit := func(kind contract.EventKind) error {
		select {
		case events <- contract.AgentEvent{Ts: b.now(), Kind: kind}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := emit(contract.RunStarted{Message: "mock backend starting: " + wo.Task}); err != nil {
		return contract.Receipt{}, err
	}
	if err := emit(contract.AssistantMessage{Text: "acknowledged task: " + wo.Task}); err != nil {
		return contract.Receipt{}, err
	}
	if err := emit(contract.AssistantMessage{Text: "done."}); err != nil {
		return contract.Receipt{}, err
	}
	if err := emit(contract.RunCompleted{Message: "mock run complete"}); err != nil {
		return contract.Receipt{}, err
	}

	finished := b.now()
	dur := finished.Sub(started)
	if dur < 0 {
		dur = 0
	}

	trace := []contract.AgentEvent{
		{Ts: started, Kind: contract.RunStarted{Message: "mock backend starting: " + wo.Task}},
		{Ts: started, Kind: contract.AssistantMessage{Text: "acknowledged task: " + wo.Task}},
		{Ts: started, Kind: contract.AssistantMessage{Text: "done."}},
		{Ts: finished, Kind: contract.RunCompleted{Message: "mock run complete"}},
	}

	return contract.Receipt{
		Meta: contract.Meta{
			RunID:           runID,
			WorkOrderID:     wo.ID,
			ContractVersion: contract.ContractVersion,
			StartedAt:       started,
			FinishedAt:      finished,
			DurationMs:      dur.Milliseconds(),
		},
		Backend:      contract.BackendInfo{ID: b.Identity().ID, BackendVersion: b.Identity().Version},
		Capabilities: b.Capabilities(),
		Mode:         contract.ModePassthrough,
		Usage:        contract.Usage{InputTokens: 12, OutputTokens: 8},
		Trace:        trace,
		Outcome:      contract.OutcomeComplete,
	}, nil
}
