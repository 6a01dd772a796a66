package contract

import (
	"encoding/json"
	"time"

	"github.com/agentbackplane/abp/canon"
)

// Outcome is the terminal status of a run.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomePartial  Outcome = "partial"
	OutcomeFailed   Outcome = "failed"
)

// Mode records whether the receipt was produced against a mapped
// (cross-dialect) or passthrough backend invocation.
type Mode string

const (
	ModeMapped      Mode = "mapped"
	ModePassthrough Mode = "passthrough"
)

// Meta carries run identity and timing.
type Meta struct {
	RunID           string    `json:"run_id"`
	WorkOrderID     string    `json:"work_order_id"`
	ContractVersion string    `json:"contract_version"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationMs      int64     `json:"duration_ms"`
}

// BackendInfo identifies the backend that executed a run.
type BackendInfo struct {
	ID             string `json:"id"`
	BackendVersion string `json:"backend_version,omitempty"`
	AdapterVersion string `json:"adapter_version,omitempty"`
}

// Usage is normalized token/cost accounting, derived from a backend's raw
// usage blob.
type Usage struct {
	InputTokens      int     `json:"input_tokens"`
	OutputTokens     int     `json:"output_tokens"`
	CacheReadTokens  int     `json:"cache_read_tokens"`
	CacheWriteTokens int     `json:"cache_write_tokens"`
	RequestUnits     float64 `json:"request_units"`
	EstCostUSD       float64 `json:"est_cost_usd"`
}

// Artifact references a file produced or modified during a run.
type Artifact struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Verification carries post-run checks performed against the workspace.
type Verification struct {
	GitDiff   string `json:"git_diff,omitempty"`
	GitStatus string `json:"git_status,omitempty"`
	HarnessOK bool   `json:"harness_ok"`
}

// Receipt is the terminal, hash-sealed record of a completed run.
type Receipt struct {
	Meta           Meta               `json:"meta"`
	Backend        BackendInfo        `json:"backend"`
	Capabilities   *CapabilityManifest `json:"capabilities"`
	Mode           Mode               `json:"mode"`
	UsageRaw       json.RawMessage    `json:"usage_raw,omitempty"`
	Usage          Usage              `json:"usage"`
	Trace          []AgentEvent       `json:"trace"`
	Artifacts      []Artifact         `json:"artifacts"`
	Verification   Verification       `json:"verification"`
	Outcome        Outcome            `json:"outcome"`
	ReceiptSHA256  *string            `json:"receipt_sha256"`
}

// receiptForHash is the JSON shape hashed to produce/verify receipt_sha256:
// identical to Receipt but with ReceiptSHA256 always forced to null, so
// sealing is idempotent (hashing a sealed receipt reproduces the same hash
// that sealed it).
type receiptForHash struct {
	Meta          Meta                `json:"meta"`
	Backend       BackendInfo         `json:"backend"`
	Capabilities  *CapabilityManifest `json:"capabilities"`
	Mode          Mode                `json:"mode"`
	UsageRaw      json.RawMessage     `json:"usage_raw,omitempty"`
	Usage         Usage               `json:"usage"`
	Trace         []AgentEvent        `json:"trace"`
	Artifacts     []Artifact          `json:"artifacts"`
	Verification  Verification        `json:"verification"`
	Outcome       Outcome             `json:"outcome"`
	ReceiptSHA256 *string             `json:"receipt_sha256"`
}

// MarshalJSON gives CapabilityManifest a stable, sorted-by-name wire form
// since the zero value (nil map) must still serialize as an empty object.
func (m *CapabilityManifest) MarshalJSON() ([]byte, error) {
	entries := m.Entries()
	out := make(map[string]levelJSON, len(entries))
	for _, e := range entries {
		out[string(e.Capability)] = toLevelJSON(e.Level)
	}
	return json.Marshal(out)
}

type levelJSON struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

func toLevelJSON(l SupportLevel) levelJSON {
	switch l.Kind {
	case SupportNative:
		return levelJSON{Kind: "native"}
	case SupportEmulated:
		return levelJSON{Kind: "emulated"}
	case SupportRestricted:
		return levelJSON{Kind: "restricted", Reason: l.Reason}
	default:
		return levelJSON{Kind: "unsupported"}
	}
}

// UnmarshalJSON restores a CapabilityManifest from its wire form.
func (m *CapabilityManifest) UnmarshalJSON(data []byte) error {
	var raw map[string]levelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.levels = make(map[Capability]SupportLevel, len(raw))
	for k, v := range raw {
		switch v.Kind {
		case "native":
			m.levels[Capability(k)] = Native()
		case "emulated":
			m.levels[Capability(k)] = Emulated()
		case "restricted":
			m.levels[Capability(k)] = Restricted(v.Reason)
		default:
			m.levels[Capability(k)] = Unsupported()
		}
	}
	return nil
}

// ReceiptHash computes the SHA-256 hex digest of the canonical JSON encoding
// of r with ReceiptSHA256 cleared to null. Hashing is total except for a
// serialization failure from non-serializable UsageRaw/Ext content.
func ReceiptHash(r Receipt) (string, error) {
	forHash := receiptForHash{
		Meta: r.Meta, Backend: r.Backend, Capabilities: r.Capabilities,
		Mode: r.Mode, UsageRaw: r.UsageRaw, Usage: r.Usage, Trace: r.Trace,
		Artifacts: r.Artifacts, Verification: r.Verification, Outcome: r.Outcome,
		ReceiptSHA256: nil,
	}
	return canon.Hash(forHash)
}

// WithHash returns a copy of r with ReceiptSHA256 set to the freshly
// recomputed hash. Calling WithHash twice yields the same hash both times,
// since ReceiptHash always hashes the null-hash form.
func (r Receipt) WithHash() (Receipt, error) {
	h, err := ReceiptHash(r)
	if err != nil {
		return Receipt{}, err
	}
	r.ReceiptSHA256 = &h
	return r, nil
}
