package risk

import (
	"fmt"

	"appctl/internal/api"
)

// Policy adjusts how findings are classified for a run.
type Policy struct {
	// Strict escalates every advisory finding to blocking.
	Strict bool

	// AdvisoryKinds are reclassified from blocking to advisory. Fixed kinds
	// are never reclassified.
	AdvisoryKinds []api.FindingKind
}

// Validate rejects unknown and fixed kinds in AdvisoryKinds.
func (p Policy) Validate() error {
	for _, kind := range p.AdvisoryKinds {
		if !Known(kind) {
			return fmt.Errorf("unknown finding kind %q", kind)
		}
		if IsFixed(kind) {
			return fmt.Errorf("finding kind %q always blocks and cannot be advisory", kind)
		}
	}
	return nil
}

func (p Policy) advisory(kind api.FindingKind) bool {
	for _, k := range p.AdvisoryKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Apply returns a copy of result with the policy applied. Fixed kinds stay
// blocking; Strict runs after reclassification and therefore wins.
func (p Policy) Apply(result api.DryRunResult) api.DryRunResult {
	out := result
	out.Blocking = make(map[api.FindingKind]api.Finding, len(result.Blocking))
	out.Advisory = make(map[api.FindingKind]api.Finding, len(result.Advisory))

	for kind, f := range result.Blocking {
		if !IsFixed(kind) && p.advisory(kind) {
			out.Advisory[kind] = f
			continue
		}
		out.Blocking[kind] = f
	}
	for kind, f := range result.Advisory {
		if IsFixed(kind) {
			out.Blocking[kind] = f
			continue
		}
		out.Advisory[kind] = f
	}

	if p.Strict {
		for kind, f := range out.Advisory {
			out.Blocking[kind] = f
		}
		out.Advisory = map[api.FindingKind]api.Finding{}
	}
	return out
}

// ApplyAll applies the policy to every result of a run.
func (p Policy) ApplyAll(results map[api.PairKey]api.DryRunResult) map[api.PairKey]api.DryRunResult {
	out := make(map[api.PairKey]api.DryRunResult, len(results))
	for key, r := range results {
		out[key] = p.Apply(r)
	}
	return out
}
