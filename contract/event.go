package contract

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind is the closed tagged union of AgentEvent payload shapes. Each
// concrete kind serializes with its own snake_case tag name under the "kind"
// field, with its fields flattened alongside "ts" and "ext".
type EventKind interface {
	// Type returns the snake_case tag name used on the wire.
	Type() string
	isEventKind()
}

type (
	// RunStarted signals the beginning of a run.
	RunStarted struct {
		Message string `json:"message"`
	}
	// RunCompleted signals the terminal end of a run.
	RunCompleted struct {
		Message string `json:"message"`
	}
	// AssistantDelta carries an incremental fragment of assistant text.
	AssistantDelta struct {
		Text string `json:"text"`
	}
	// AssistantMessage carries a complete assistant message.
	AssistantMessage struct {
		Text string `json:"text"`
	}
	// ToolCallEvent records a tool invocation requested by the backend.
	ToolCallEvent struct {
		ToolName        string `json:"tool_name"`
		ToolUseID       string `json:"tool_use_id,omitempty"`
		ParentToolUseID string `json:"parent_tool_use_id,omitempty"`
		Input           any    `json:"input"`
	}
	// ToolResultEvent records the outcome of a tool invocation.
	ToolResultEvent struct {
		ToolName  string `json:"tool_name"`
		ToolUseID string `json:"tool_use_id,omitempty"`
		Output    any    `json:"output"`
		IsError   bool   `json:"is_error"`
	}
	// FileChanged records a filesystem mutation observed during the run.
	FileChanged struct {
		Path    string `json:"path"`
		Summary string `json:"summary"`
	}
	// CommandExecuted records a shell command the backend ran.
	CommandExecuted struct {
		Command       string `json:"command"`
		ExitCode      *int   `json:"exit_code,omitempty"`
		OutputPreview string `json:"output_preview,omitempty"`
	}
	// WarningEvent carries a non-fatal diagnostic.
	WarningEvent struct {
		Message string `json:"message"`
	}
	// ErrorEvent carries a fatal diagnostic.
	ErrorEvent struct {
		Message string `json:"message"`
	}
)

func (RunStarted) Type() string       { return "run_started" }
func (RunCompleted) Type() string     { return "run_completed" }
func (AssistantDelta) Type() string   { return "assistant_delta" }
func (AssistantMessage) Type() string { return "assistant_message" }
func (ToolCallEvent) Type() string    { return "tool_call" }
func (ToolResultEvent) Type() string  { return "tool_result" }
func (FileChanged) Type() string      { return "file_changed" }
func (CommandExecuted) Type() string  { return "command_executed" }
func (WarningEvent) Type() string     { return "warning" }
func (ErrorEvent) Type() string       { return "error" }

func (RunStarted) isEventKind()       {}
func (RunCompleted) isEventKind()     {}
func (AssistantDelta) isEventKind()   {}
func (AssistantMessage) isEventKind() {}
func (ToolCallEvent) isEventKind()    {}
func (ToolResultEvent) isEventKind()  {}
func (FileChanged) isEventKind()      {}
func (CommandExecuted) isEventKind()  {}
func (WarningEvent) isEventKind()     {}
func (ErrorEvent) isEventKind()       {}

// AgentEvent is a single timestamped occurrence in a run's trace.
type AgentEvent struct {
	Ts   time.Time
	Kind EventKind
	Ext  map[string]any
}

// MarshalJSON flattens Kind's fields alongside "ts", "kind", and "ext" so the
// wire form is a single flat object rather than a nested payload.
func (e AgentEvent) MarshalJSON() ([]byte, error) {
	fieldsRaw, err := json.Marshal(e.Kind)
	if err != nil {
		return nil, fmt.Errorf("contract: marshal event kind: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
		return nil, fmt.Errorf("contract: flatten event kind: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["ts"] = e.Ts.UTC().Format(time.RFC3339Nano)
	fields["kind"] = e.Kind.Type()
	if len(e.Ext) > 0 {
		fields["ext"] = e.Ext
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reconstructs an AgentEvent from its flattened wire form.
func (e *AgentEvent) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Ts   string         `json:"ts"`
		Kind string         `json:"kind"`
		Ext  map[string]any `json:"ext"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("contract: unmarshal event envelope: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, envelope.Ts)
	if err != nil {
		return fmt.Errorf("contract: parse event timestamp: %w", err)
	}

	kind, err := decodeEventKind(envelope.Kind, data)
	if err != nil {
		return err
	}

	e.Ts = ts
	e.Kind = kind
	e.Ext = envelope.Ext
	return nil
}

func decodeEventKind(tag string, data []byte) (EventKind, error) {
	switch tag {
	case "run_started":
		var k RunStarted
		return k, json.Unmarshal(data, &k)
	case "run_completed":
		var k RunCompleted
		return k, json.Unmarshal(data, &k)
	case "assistant_delta":
		var k AssistantDelta
		return k, json.Unmarshal(data, &k)
	case "assistant_message":
		var k AssistantMessage
		return k, json.Unmarshal(data, &k)
	case "tool_call":
		var k ToolCallEvent
		return k, json.Unmarshal(data, &k)
	case "tool_result":
		var k ToolResultEvent
		return k, json.Unmarshal(data, &k)
	case "file_changed":
		var k FileChanged
		return k, json.Unmarshal(data, &k)
	case "command_executed":
		var k CommandExecuted
		return k, json.Unmarshal(data, &k)
	case "warning":
		var k WarningEvent
		return k, json.Unmarshal(data, &k)
	case "error":
		var k ErrorEvent
		return k, json.Unmarshal(data, &k)
	default:
		return nil, fmt.Errorf("contract: unknown event kind %q", tag)
	}
}
