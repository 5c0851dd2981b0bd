package smiles

import (
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
)

// Status classifies a round trip.
type Status string

const (
	// StatusPerfect means parse then emit returned the input.
	StatusPerfect Status = "perfect"
	// StatusStabilized means the first emission differs from the input but
	// is a fixed point itself.
	StatusStabilized Status = "stabilized"
	// StatusUnstable means the second emission differs from the first.
	StatusUnstable Status = "unstable"
)

// RoundTrip is the outcome of ValidateRoundTrip.
type RoundTrip struct {
	Status Status `json:"status"`
	Input  string `json:"input"`
	First  string `json:"first"`
	Second string `json:"second"`
	Advice string `json:"advice,omitempty"`
}

// ValidateRoundTrip parses and emits s twice. It fails only when s itself
// does not parse; later failures are reported as an unstable result.
func ValidateRoundTrip(s string) (*RoundTrip, error) {
	n, err := Parse(s)
	if err != nil {
		return nil, err
	}
	rt := &RoundTrip{Input: s}
	if rt.First, err = ast.BuildSMILES(n); err != nil {
		rt.Status = StatusUnstable
		rt.Advice = "the parsed structure does not render: " + err.Error()
		return rt, nil
	}
	again, err := Parse(rt.First)
	if err != nil {
		rt.Status = StatusUnstable
		rt.Advice = "the first emission does not parse: " + err.Error()
		return rt, nil
	}
	if rt.Second, err = ast.BuildSMILES(again); err != nil {
		rt.Status = StatusUnstable
		rt.Advice = "the reparsed structure does not render: " + err.Error()
		return rt, nil
	}

	switch {
	case rt.First == s:
		rt.Status = StatusPerfect
	case rt.Second == rt.First:
		rt.Status = StatusStabilized
		rt.Advice = "use the stabilized form " + rt.First + " as the canonical spelling"
	default:
		rt.Status = StatusUnstable
		rt.Advice = "emission is not a fixed point; compare first and second for the drifting ring labels"
	}
	return rt, nil
}
