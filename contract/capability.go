package contract

import "sort"

// Capability names a feature a backend may natively support, emulate,
// restrict, or lack. This is a closed enumeration: callers should treat any
// other string as invalid rather than silently accepting it.
type Capability string

// The closed set of capabilities recognized by ABP.
const (
	CapStreaming                    Capability = "streaming"
	CapToolRead                     Capability = "tool_read"
	CapToolWrite                    Capability = "tool_write"
	CapToolEdit                     Capability = "tool_edit"
	CapToolBash                     Capability = "tool_bash"
	CapToolGlob                     Capability = "tool_glob"
	CapToolGrep                     Capability = "tool_grep"
	CapToolWebSearch                Capability = "tool_web_search"
	CapToolWebFetch                 Capability = "tool_web_fetch"
	CapToolAskUser                  Capability = "tool_ask_user"
	CapHooksPreToolUse              Capability = "hooks_pre_tool_use"
	CapHooksPostToolUse             Capability = "hooks_post_tool_use"
	CapSessionResume                Capability = "session_resume"
	CapSessionFork                  Capability = "session_fork"
	CapCheckpointing                Capability = "checkpointing"
	CapStructuredOutputJSONSchema   Capability = "structured_output_json_schema"
	CapMCPClient                    Capability = "mcp_client"
	CapMCPServer                    Capability = "mcp_server"
	CapToolUse                      Capability = "tool_use"
	CapExtendedThinking             Capability = "extended_thinking"
	CapImageInput                   Capability = "image_input"
	CapPDFInput                     Capability = "pdf_input"
	CapCodeExecution                Capability = "code_execution"
	CapLogprobs                     Capability = "logprobs"
	CapSeedDeterminism              Capability = "seed_determinism"
	CapStopSequences                Capability = "stop_sequences"
)

// AllCapabilities lists every recognized Capability, in declaration order.
// DiffManifests iterates it, so capabilities outside this list are not
// compared.
var AllCapabilities = []Capability{
	CapStreaming, CapToolRead, CapToolWrite, CapToolEdit, CapToolBash,
	CapToolGlob, CapToolGrep, CapToolWebSearch, CapToolWebFetch,
	CapToolAskUser, CapHooksPreToolUse, CapHooksPostToolUse,
	CapSessionResume, CapSessionFork, CapCheckpointing,
	CapStructuredOutputJSONSchema, CapMCPClient, CapMCPServer, CapToolUse,
	CapExtendedThinking, CapImageInput, CapPDFInput, CapCodeExecution,
	CapLogprobs, CapSeedDeterminism, CapStopSequences,
}

// SupportLevel describes how well a backend supports a Capability. Levels are
// totally ordered by Rank: Native > Emulated > Restricted > Unsupported.
type SupportLevel struct {
	Kind SupportKind
	// Reason explains a Restricted level. Empty for other kinds.
	Reason string
}

// SupportKind is the discriminant for SupportLevel.
type SupportKind int

const (
	// SupportUnsupported means the backend cannot provide the capability at all.
	SupportUnsupported SupportKind = iota
	// SupportRestricted means the capability is available but limited; Reason
	// explains the restriction.
	SupportRestricted
	// SupportEmulated means the backend fakes the capability on top of
	// something else (e.g. emulating tool_edit via tool_write + tool_read).
	SupportEmulated
	// SupportNative means the backend implements the capability directly.
	SupportNative
)

// Rank returns the total order used for negotiation comparisons: higher is
// better. Native=3, Emulated=2, Restricted=1, Unsupported=0.
func (s SupportLevel) Rank() int {
	switch s.Kind {
	case SupportNative:
		return 3
	case SupportEmulated:
		return 2
	case SupportRestricted:
		return 1
	default:
		return 0
	}
}

// Native, Emulated, and Unsupported construct the corresponding SupportLevel.
func Native() SupportLevel    { return SupportLevel{Kind: SupportNative} }
func Emulated() SupportLevel  { return SupportLevel{Kind: SupportEmulated} }
func Unsupported() SupportLevel { return SupportLevel{Kind: SupportUnsupported} }

// Restricted constructs a SupportLevel with the given restriction reason.
func Restricted(reason string) SupportLevel {
	return SupportLevel{Kind: SupportRestricted, Reason: reason}
}

// CapabilityManifest is an ordered mapping from Capability to SupportLevel.
// Construction is via NewCapabilityManifest/Set; iteration (Entries) is
// always sorted by Capability name regardless of insertion order.
type CapabilityManifest struct {
	levels map[Capability]SupportLevel
}

// NewCapabilityManifest constructs an empty manifest.
func NewCapabilityManifest() *CapabilityManifest {
	return &CapabilityManifest{levels: make(map[Capability]SupportLevel)}
}

// Set records the support level for a capability, overwriting any prior
// entry.
func (m *CapabilityManifest) Set(cap Capability, level SupportLevel) {
	if m.levels == nil {
		m.levels = make(map[Capability]SupportLevel)
	}
	m.levels[cap] = level
}

// Get returns the recorded support level for cap, or SupportUnsupported if
// absent.
func (m *CapabilityManifest) Get(cap Capability) SupportLevel {
	if m == nil {
		return Unsupported()
	}
	if lvl, ok := m.levels[cap]; ok {
		return lvl
	}
	return Unsupported()
}

// Has reports whether cap has an explicit entry in the manifest (as opposed
// to the implicit Unsupported default Get falls back to).
func (m *CapabilityManifest) Has(cap Capability) bool {
	if m == nil {
		return false
	}
	_, ok := m.levels[cap]
	return ok
}

// ManifestEntry pairs a Capability with its SupportLevel for ordered
// iteration.
type ManifestEntry struct {
	Capability Capability
	Level      SupportLevel
}

// Entries returns every recorded (Capability, SupportLevel) pair sorted
// lexicographically by Capability name.
func (m *CapabilityManifest) Entries() []ManifestEntry {
	if m == nil {
		return nil
	}
	out := make([]ManifestEntry, 0, len(m.levels))
	for cap, lvl := range m.levels {
		out = append(out, ManifestEntry{Capability: cap, Level: lvl})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Capability < out[j].Capability })
	return out
}
