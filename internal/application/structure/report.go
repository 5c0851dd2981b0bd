package structure

import (
	stderrors "errors"
	"time"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles"
	"github.com/turtacn/smiles-algebra/pkg/smiles/lexer"
)

// Decompile results.
const (
	DecompileOK       = "ok"
	DecompileMismatch = "mismatch"
	DecompileError    = "error"
)

// Engine verdicts.
const (
	VerdictAgree    = "agree"
	VerdictDisagree = "disagree"
	VerdictError    = "error"
)

// Problem is a serialisable view of an *errors.AppError.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Offset  *int   `json:"offset,omitempty"`
}

// ProblemOf flattens err for reports; nil stays nil.
func ProblemOf(err error) *Problem {
	if err == nil {
		return nil
	}
	p := &Problem{Code: string(errors.GetCode(err)), Message: err.Error()}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		p.Message = ae.Message
		if ae.Detail != "" {
			p.Message += ": " + ae.Detail
		}
	}
	if off, ok := errors.GetOffset(err); ok {
		p.Offset = &off
	}
	return p
}

// Stats counts tokens of the input.
type Stats struct {
	Atoms         int   `json:"atoms"`
	AromaticAtoms int   `json:"aromatic_atoms"`
	BracketAtoms  int   `json:"bracket_atoms"`
	Bonds         int   `json:"bonds"`
	Branches      int   `json:"branches"`
	RingClosures  int   `json:"ring_closures"`
	RingNumbers   []int `json:"ring_numbers,omitempty"`
	Components    int   `json:"components"`
	// Partial marks counts that stop at a lexical error.
	Partial bool `json:"partial,omitempty"`
}

func countTokens(tokens []lexer.Token) Stats {
	var st Stats
	markers := 0
	for _, t := range tokens {
		switch t.Kind {
		case lexer.Atom:
			st.Atoms++
			switch t.Class {
			case lexer.Aromatic:
				st.AromaticAtoms++
			case lexer.Bracket:
				st.BracketAtoms++
			}
		case lexer.Bond:
			st.Bonds++
		case lexer.BranchOpen:
			st.Branches++
		case lexer.RingMarker:
			markers++
		}
	}
	st.RingClosures = markers / 2
	return st
}

// Decompile records whether the generated script rebuilds the same string.
type Decompile struct {
	Result  string   `json:"result"`
	Rebuilt string   `json:"rebuilt,omitempty"`
	Error   *Problem `json:"error,omitempty"`
}

// EngineVerdict compares the external engine's canonical form of the input
// with that of the emitted string.
type EngineVerdict struct {
	Engine          string   `json:"engine"`
	Verdict         string   `json:"verdict"`
	InputCanonical  string   `json:"input_canonical,omitempty"`
	OutputCanonical string   `json:"output_canonical,omitempty"`
	Error           *Problem `json:"error,omitempty"`
}

// Report is the analysis of one SMILES string.
type Report struct {
	Input     string            `json:"input"`
	Valid     bool              `json:"valid"`
	Error     *Problem          `json:"error,omitempty"`
	Kind      string            `json:"kind,omitempty"`
	SMILES    string            `json:"smiles,omitempty"`
	RoundTrip *smiles.RoundTrip `json:"roundtrip,omitempty"`
	Code      string            `json:"code,omitempty"`
	GoSource  string            `json:"go_source,omitempty"`
	Decompile *Decompile        `json:"decompile,omitempty"`
	Stats     Stats             `json:"stats"`
	Engine    *EngineVerdict    `json:"engine,omitempty"`
	Cached    bool              `json:"cached"`
	Duration  time.Duration     `json:"duration_ns"`
}

// Summary aggregates a batch.
type Summary struct {
	Total       int `json:"total"`
	Valid       int `json:"valid"`
	Invalid     int `json:"invalid"`
	Perfect     int `json:"perfect"`
	Stabilized  int `json:"stabilized"`
	Unstable    int `json:"unstable"`
	DecompileOK int `json:"decompile_ok"`
	Skipped     int `json:"skipped"`
}

func (s *Summary) add(r *Report) {
	if r == nil {
		s.Skipped++
		return
	}
	if !r.Valid {
		s.Invalid++
		return
	}
	s.Valid++
	if r.RoundTrip != nil {
		switch r.RoundTrip.Status {
		case smiles.StatusPerfect:
			s.Perfect++
		case smiles.StatusStabilized:
			s.Stabilized++
		case smiles.StatusUnstable:
			s.Unstable++
		}
	}
	if r.Decompile != nil && r.Decompile.Result == DecompileOK {
		s.DecompileOK++
	}
}

// BatchResult holds the reports of a batch in input order. Reports of
// inputs that never ran after a fail-fast stop are nil.
type BatchResult struct {
	RunID    string        `json:"run_id"`
	Reports  []*Report     `json:"reports"`
	Summary  Summary       `json:"summary"`
	Duration time.Duration `json:"duration_ns"`
}
