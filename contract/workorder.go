package contract

import "fmt"

// ValidationError reports that a value failed a structural check at a
// trust boundary (a WorkOrder arriving from a caller, a manifest decoded
// off the wire), naming the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("contract: invalid %s: %s", e.Field, e.Reason)
}

// Lane selects the high-level strategy a backend should use to satisfy a
// work order.
type Lane string

const (
	// LanePatchFirst asks the backend to prefer minimal, reviewable diffs.
	LanePatchFirst Lane = "patch-first"
	// LaneWorkspaceFirst asks the backend to freely restructure the workspace.
	LaneWorkspaceFirst Lane = "workspace-first"
)

// WorkspaceMode selects how the runtime prepares the filesystem a backend
// operates on.
type WorkspaceMode string

const (
	// WorkspacePassThrough runs directly against the caller's working tree.
	WorkspacePassThrough WorkspaceMode = "pass-through"
	// WorkspaceStaged runs against a fresh, git-initialized copy.
	WorkspaceStaged WorkspaceMode = "staged"
)

// WorkspaceSpec describes the filesystem root a backend should operate on and
// how it should be prepared.
type WorkspaceSpec struct {
	Root    string
	Mode    WorkspaceMode
	Include []string
	Exclude []string
}

// Snippet is an inline, named piece of context supplied alongside file paths.
type Snippet struct {
	Name    string
	Content string
}

// Context carries auxiliary material a backend may read while executing a
// work order.
type Context struct {
	Files    []string
	Snippets []Snippet
}

// Requirement pins a minimum support level a backend must meet for a given
// capability. MinSupport is meaningful only as SupportNative or
// SupportEmulated; requirements never demand Restricted or Unsupported.
type Requirement struct {
	Capability Capability
	MinSupport SupportKind
}

// Config carries model selection and vendor-specific knobs for a run.
// Vendor and Env are treated opaquely by the core: schema validation for
// vendor-specific fields happens at the vendor-SDK boundary, not here.
type Config struct {
	Model        string
	Vendor       map[string]any
	Env          map[string]string
	MaxBudgetUSD *float64
	MaxTurns     *int
}

// VendorValue looks up a single key in Config.Vendor, returning ok=false when
// the key is absent. This is the sanctioned way for backend adapters to read
// vendor-specific configuration without the core needing to understand its
// shape.
func (c Config) VendorValue(key string) (any, bool) {
	if c.Vendor == nil {
		return nil, false
	}
	v, ok := c.Vendor[key]
	return v, ok
}

// WorkOrder is the immutable input to a run.
type WorkOrder struct {
	ID           string
	Task         string
	Lane         Lane
	Workspace    WorkspaceSpec
	Context      Context
	Policy       PolicyProfile
	Requirements []Requirement
	Config       Config
}

// Validate checks the structural requirements every WorkOrder must meet
// before a runtime will dispatch it: a non-empty ID and Task, and a
// non-empty workspace root. It does not check policy glob syntax or
// capability satisfiability; those are policy.Compile's and
// capability.Negotiate's jobs respectively.
func (wo WorkOrder) Validate() error {
	if wo.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if wo.Task == "" {
		return &ValidationError{Field: "task", Reason: "must not be empty"}
	}
	if wo.Workspace.Root == "" {
		return &ValidationError{Field: "workspace.root", Reason: "must not be empty"}
	}
	return nil
}
