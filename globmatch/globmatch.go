// Package globmatch compiles include/exclude glob pattern sets and decides
// whether a given path is allowed, following Unix glob semantics where "*"
// matches within a path segment, "**" matches zero or more segments, and "?"
// matches a single character.
package globmatch

import "github.com/bmatcuk/doublestar/v4"

// Decision is the outcome of evaluating a path against an IncludeExcludeGlobs.
type Decision int

const (
	// Allowed means no excludes matched, and either includes is empty or at
	// least one include matched.
	Allowed Decision = iota
	// DeniedByExclude means at least one exclude pattern matched. Exclude
	// always wins over include.
	DeniedByExclude
	// DeniedByMissingInclude means includes is non-empty and no include
	// pattern matched the path.
	DeniedByMissingInclude
)

// String renders the Decision for logging and test failure messages.
func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedByExclude:
		return "denied_by_exclude"
	case DeniedByMissingInclude:
		return "denied_by_missing_include"
	default:
		return "unknown"
	}
}

// IncludeExcludeGlobs is a compiled pair of include/exclude pattern sets.
// Compilation is eager: pattern validity is checked once in New, not on every
// Decide call. The order of patterns within a list never affects the result.
type IncludeExcludeGlobs struct {
	include []string
	exclude []string
}

// New compiles include and exclude pattern lists. It returns an error if any
// pattern is not a valid doublestar glob.
func New(include, exclude []string) (*IncludeExcludeGlobs, error) {
	for _, p := range include {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p, Set: "include"}
		}
	}
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p, Set: "exclude"}
		}
	}
	return &IncludeExcludeGlobs{include: include, exclude: exclude}, nil
}

// Decide evaluates path against the compiled pattern sets. Decide is pure and
// deterministic: the same path always yields the same Decision.
func (g *IncludeExcludeGlobs) Decide(path string) Decision {
	for _, p := range g.exclude {
		if match(p, path) {
			return DeniedByExclude
		}
	}
	if len(g.include) == 0 {
		return Allowed
	}
	for _, p := range g.include {
		if match(p, path) {
			return Allowed
		}
	}
	return DeniedByMissingInclude
}

func match(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

// PatternError reports an invalid glob pattern supplied to New.
type PatternError struct {
	Pattern string
	Set     string
}

func (e *PatternError) Error() string {
	return "globmatch: invalid " + e.Set + " pattern: " + e.Pattern
}
