// Package sidecar implements the JSONL-framed envelope protocol a sidecar
// subprocess backend speaks over stdin/stdout: one tagged JSON object per
// line, LF-terminated.
package sidecar

import (
	"encoding/json"
	"fmt"

	"github.com/agentbackplane/abp/contract"
)

// EnvelopeKind is the closed tag set for sidecar wire frames, carried under
// the field named "t".
type EnvelopeKind interface {
	Tag() string
	isEnvelope()
}

// Hello is the sidecar's first frame after spawn, declaring its identity,
// capabilities, and contract version.
type Hello struct {
	ContractVersion string                       `json:"contract_version"`
	Backend         HelloBackend                 `json:"backend"`
	Capabilities    *contract.CapabilityManifest `json:"capabilities"`
	Mode            string                       `json:"mode"`
}

// HelloBackend identifies the sidecar process itself.
type HelloBackend struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
}

// Run is sent host → sidecar to start a work order.
type Run struct {
	ID        string             `json:"id"`
	WorkOrder contract.WorkOrder `json:"work_order"`
}

// Event carries one streamed AgentEvent, tagged with the run ID it belongs
// to so frames for a stale/different run can be dropped.
type Event struct {
	RefID string               `json:"ref_id"`
	Event contract.AgentEvent  `json:"event"`
}

// Final is the terminal success frame, carrying the run's receipt.
type Final struct {
	RefID   string           `json:"ref_id"`
	Receipt contract.Receipt `json:"receipt"`
}

// Fatal is a terminal error frame, sendable in either direction.
type Fatal struct {
	RefID string `json:"ref_id,omitempty"`
	Error string `json:"error"`
}

// Cancel is sent host → sidecar to request early termination.
type Cancel struct {
	RefID  string `json:"ref_id"`
	Reason string `json:"reason,omitempty"`
}

// Ping and Pong are liveness frames, sendable in either direction.
type Ping struct {
	Nonce string `json:"nonce"`
}
type Pong struct {
	Nonce string `json:"nonce"`
}

func (Hello) Tag() string  { return "hello" }
func (Run) Tag() string    { return "run" }
func (Event) Tag() string  { return "event" }
func (Final) Tag() string  { return "final" }
func (Fatal) Tag() string  { return "fatal" }
func (Cancel) Tag() string { return "cancel" }
func (Ping) Tag() string   { return "ping" }
func (Pong) Tag() string   { return "pong" }

func (Hello) isEnvelope()  {}
func (Run) isEnvelope()    {}
func (Event) isEnvelope()  {}
func (Final) isEnvelope()  {}
func (Fatal) isEnvelope()  {}
func (Cancel) isEnvelope() {}
func (Ping) isEnvelope()   {}
func (Pong) isEnvelope()   {}

// Envelope is one framed line on the sidecar wire: a tag plus its payload.
type Envelope struct {
	Kind EnvelopeKind
}

// MarshalJSON flattens Kind's fields alongside the "t" tag field.
func (e Envelope) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(e.Kind)
	if err != nil {
		return nil, fmt.Errorf("sidecar: marshal envelope payload: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("sidecar: flatten envelope payload: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["t"] = e.Kind.Tag()
	return json.Marshal(fields)
}

// UnmarshalJSON reconstructs an Envelope from a single wire line.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var tagged struct {
		T string `json:"t"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("sidecar: unmarshal envelope tag: %w", err)
	}
	kind, err := decodeEnvelopeKind(tagged.T, data)
	if err != nil {
		return err
	}
	e.Kind = kind
	return nil
}

func decodeEnvelopeKind(tag string, data []byte) (EnvelopeKind, error) {
	switch tag {
	case "hello":
		var k Hello
		return k, json.Unmarshal(data, &k)
	case "run":
		var k Run
		return k, json.Unmarshal(data, &k)
	case "event":
		var k Event
		return k, json.Unmarshal(data, &k)
	case "final":
		var k Final
		return k, json.Unmarshal(data, &k)
	case "fatal":
		var k Fatal
		return k, json.Unmarshal(data, &k)
	case "cancel":
		var k Cancel
		return k, json.Unmarshal(data, &k)
	case "ping":
		var k Ping
		return k, json.Unmarshal(data, &k)
	case "pong":
		var k Pong
		return k, json.Unmarshal(data, &k)
	default:
		return nil, fmt.Errorf("sidecar: unknown envelope tag %q", tag)
	}
}
