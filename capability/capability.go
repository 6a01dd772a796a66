// Package capability negotiates a WorkOrder's capability requirements
// against a backend's declared manifest, and diffs manifests across
// backends or over time.
package capability

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentbackplane/abp/contract"
)

// NegotiationResult reports which requirements a manifest satisfies.
type NegotiationResult struct {
	Satisfied    []contract.Requirement
	Unsatisfied  []contract.Requirement
	IsCompatible bool
}

// UnsatisfiedError reports that a backend's manifest cannot meet one or
// more requirements a caller demanded. Callers that need the individual
// requirements back can read Unsatisfied directly rather than parsing
// Error's text.
type UnsatisfiedError struct {
	Backend     string
	Unsatisfied []contract.Requirement
}

func (e *UnsatisfiedError) Error() string {
	names := make([]string, len(e.Unsatisfied))
	for i, r := range e.Unsatisfied {
		names[i] = string(r.Capability)
	}
	return fmt.Sprintf("capability: backend %q cannot satisfy: %s", e.Backend, strings.Join(names, ", "))
}

// RequireCompatible negotiates manifest against requirements and returns an
// *UnsatisfiedError naming backend if any requirement is unmet, or nil if
// every requirement is satisfied.
func RequireCompatible(backend string, manifest *contract.CapabilityManifest, requirements []contract.Requirement) error {
	result := Negotiate(manifest, requirements)
	if result.IsCompatible {
		return nil
	}
	return &UnsatisfiedError{Backend: backend, Unsatisfied: result.Unsatisfied}
}

// Negotiate compares each requirement against manifest, treating an absent
// capability entry as Unsupported. A requirement is satisfied when the
// manifest's rank for that capability is at least the requirement's
// MinSupport rank.
func Negotiate(manifest *contract.CapabilityManifest, requirements []contract.Requirement) NegotiationResult {
	result := NegotiationResult{IsCompatible: true}
	for _, req := range requirements {
		have := manifest.Get(req.Capability)
		want := contract.SupportLevel{Kind: req.MinSupport}
		if have.Rank() >= want.Rank() {
			result.Satisfied = append(result.Satisfied, req)
		} else {
			result.Unsatisfied = append(result.Unsatisfied, req)
			result.IsCompatible = false
		}
	}
	return result
}

// Candidate pairs a backend name with its declared manifest, for BestMatch.
type Candidate struct {
	Name     string
	Manifest *contract.CapabilityManifest
}

// BestMatch returns the name of the compatible candidate whose negotiation
// satisfies the most requirements, breaking ties by lexicographically
// smallest name for determinism. ok is false if no candidate is compatible.
func BestMatch(requirements []contract.Requirement, candidates []Candidate) (name string, ok bool) {
	type scored struct {
		name  string
		score int
	}
	var best []scored
	for _, c := range candidates {
		res := Negotiate(c.Manifest, requirements)
		if !res.IsCompatible {
			continue
		}
		best = append(best, scored{name: c.Name, score: len(res.Satisfied)})
	}
	if len(best) == 0 {
		return "", false
	}
	sort.Slice(best, func(i, j int) bool {
		if best[i].score != best[j].score {
			return best[i].score > best[j].score
		}
		return best[i].name < best[j].name
	})
	return best[0].name, true
}

// Change describes a capability whose support level moved between two
// manifests.
type Change struct {
	Capability contract.Capability
	OldLevel   contract.SupportLevel
	NewLevel   contract.SupportLevel
}

// Diff is the result of comparing two manifests.
type Diff struct {
	Added      []contract.Capability
	Removed    []contract.Capability
	Upgraded   []Change
	Downgraded []Change
}

// DiffManifests compares old against new across the closed set of known
// capabilities, classifying each change as an addition, removal, upgrade, or
// downgrade.
func DiffManifests(old, newM *contract.CapabilityManifest) Diff {
	var d Diff
	for _, cap := range contract.AllCapabilities {
		hadOld, hasNew := old.Has(cap), newM.Has(cap)
		oldLevel, newLevel := old.Get(cap), newM.Get(cap)
		switch {
		case !hadOld && hasNew:
			d.Added = append(d.Added, cap)
		case hadOld && !hasNew:
			d.Removed = append(d.Removed, cap)
		case hadOld && hasNew && newLevel.Rank() > oldLevel.Rank():
			d.Upgraded = append(d.Upgraded, Change{Capability: cap, OldLevel: oldLevel, NewLevel: newLevel})
		case hadOld && hasNew && newLevel.Rank() < oldLevel.Rank():
			d.Downgraded = append(d.Downgraded, Change{Capability: cap, OldLevel: oldLevel, NewLevel: newLevel})
		}
	}
	return d
}
