// Package contract defines the Agent Backplane data model: work orders,
// capabilities, policy profiles, agent events, and receipts. These types are
// the immutable vocabulary every other package (runtime, sidecar, backend,
// policy) is built around.
package contract

// ContractVersion is the wire-format version every receipt and sidecar
// handshake must agree on. A mismatch between peers is a fatal protocol
// error (see sidecar.ProtocolError).
const ContractVersion = "abp/v0.1"
