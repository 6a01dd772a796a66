// Package sidecarbackend adapts a spawned sidecar.Client into the uniform
// backend.Backend interface, so the runtime can dispatch to a subprocess
// agent exactly the way it dispatches to the mock or a vendor SDK backend.
package sidecarbackend

import (
	"context"
	"fmt"

	"github.com/agentbackplane/abp/backend"
	"github.com/agentbackplane/abp/contract"
	"github.com/agentbackplane/abp/sidecar"
)

// Backend wraps one already-spawned sidecar.Client. Spawn the client first
// (so handshake failures surface before the backend is registered) and pass
// the result to New.
type Backend struct {
	client *sidecar.Client
}

// New wraps client, which must have already completed its handshake via
// sidecar.Spawn.
func New(client *sidecar.Client) *Backend {
	return &Backend{client: client}
}

// Identity reports the identity the sidecar declared in its hello frame.
func (b *Backend) Identity() backend.Identity {
	hello := b.client.Hello()
	return backend.Identity{ID: hello.Backend.ID, Version: hello.Backend.Version}
}

// Capabilities reports the manifest the sidecar declared in its hello frame.
func (b *Backend) Capabilities() *contract.CapabilityManifest {
	return b.client.Hello().Capabilities
}

// Run delegates to the sidecar.Client's run protocol. Protocol-level
// failures (sidecar.ProtocolError, sidecar.HostError) are wrapped in a
// backend.Error so callers can handle any backend's failure uniformly,
// while still being able to errors.As down to the sidecar-specific cause.
func (b *Backend) Run(ctx context.Context, runID string, wo contract.WorkOrder, events chan<- contract.AgentEvent) (contract.Receipt, error) {
	receipt, err := b.client.Run(ctx, runID, wo, events)
	if err != nil {
		return contract.Receipt{}, &backend.Error{BackendID: b.Identity().ID, Err: fmt.Errorf("run %q: %w", runID, err)}
	}
	return receipt, nil
}
