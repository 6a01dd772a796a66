// Package policy compiles a contract.PolicyProfile into an Engine that
// answers allow/deny decisions for tool use and filesystem paths.
package policy

import (
	"fmt"

	"github.com/agentbackplane/abp/contract"
	"github.com/agentbackplane/abp/globmatch"
)

// Decision is the result of a single policy question.
type Decision struct {
	Allowed bool
	Reason  string
}

// CompileError wraps a pattern compilation failure from Compile, naming
// which pattern group (tool, deny_read, deny_write) failed.
type CompileError struct {
	Group string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("policy: compile %s patterns: %v", e.Group, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Engine answers policy questions against a compiled PolicyProfile. Compiled
// matchers are cached at construction time; Engine never recompiles patterns
// per-request.
type Engine struct {
	tools *globmatch.IncludeExcludeGlobs
	read  *globmatch.IncludeExcludeGlobs
	write *globmatch.IncludeExcludeGlobs
}

// Compile builds an Engine from profile, eagerly compiling every glob
// pattern it references. A malformed pattern fails compilation rather than
// surfacing later as a decision-time error.
func Compile(profile contract.PolicyProfile) (*Engine, error) {
	tools, err := globmatch.New(profile.AllowedTools, profile.DisallowedTools)
	if err != nil {
		return nil, &CompileError{Group: "tool", Err: err}
	}
	read, err := globmatch.New(nil, profile.DenyRead)
	if err != nil {
		return nil, &CompileError{Group: "deny_read", Err: err}
	}
	write, err := globmatch.New(nil, profile.DenyWrite)
	if err != nil {
		return nil, &CompileError{Group: "deny_write", Err: err}
	}
	return &Engine{tools: tools, read: read, write: write}, nil
}

// CanUseTool reports whether name is permitted. A disallowed-tools match
// denies regardless of the allow list; an empty allow list permits
// everything not explicitly disallowed, matching PolicyProfile's "*"
// shorthand.
func (e *Engine) CanUseTool(name string) Decision {
	switch e.tools.Decide(name) {
	case globmatch.DeniedByExclude:
		return Decision{Allowed: false, Reason: fmt.Sprintf("tool %q is disallowed", name)}
	case globmatch.DeniedByMissingInclude:
		return Decision{Allowed: false, Reason: fmt.Sprintf("tool %q is not in the allowed set", name)}
	default:
		return Decision{Allowed: true, Reason: "permitted"}
	}
}

// CanReadPath reports whether path may be read. Only deny_read excludes can
// deny; there is no allow list for reads.
func (e *Engine) CanReadPath(path string) Decision {
	return decideDenyOnly(e.read, path, "read")
}

// CanWritePath reports whether path may be written. Only deny_write excludes
// can deny; there is no allow list for writes.
func (e *Engine) CanWritePath(path string) Decision {
	return decideDenyOnly(e.write, path, "write")
}

func decideDenyOnly(g *globmatch.IncludeExcludeGlobs, path, verb string) Decision {
	if g.Decide(path) == globmatch.DeniedByExclude {
		return Decision{Allowed: false, Reason: fmt.Sprintf("path %q matches a deny_%s pattern", path, verb)}
	}
	return Decision{Allowed: true, Reason: "permitted"}
}
