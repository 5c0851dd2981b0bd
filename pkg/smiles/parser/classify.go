package parser

import (
	"sort"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
)

type interval struct{ start, end int }

// convert classifies a chain whose ring pairs are all closed inside it.
func convert(c *chain) (ast.Node, error) {
	if len(c.atoms) == 0 {
		return nil, errors.InvalidAST("empty chain")
	}
	if c.crossing() {
		return nil, errors.InvalidAST("chain holds a ring closed outside it")
	}
	segments := merge(owned(c))

	var comps []ast.Node
	next := 0
	for _, s := range segments {
		if next < s.start {
			run, err := convertRun(c.atoms[next:s.start])
			if err != nil {
				return nil, err
			}
			comps = append(comps, run)
		}
		seg, err := convertSegment(c.atoms[s.start : s.end+1])
		if err != nil {
			return nil, err
		}
		comps = append(comps, seg)
		next = s.end + 1
	}
	if next < len(c.atoms) {
		run, err := convertRun(c.atoms[next:])
		if err != nil {
			return nil, err
		}
		comps = append(comps, run)
	}
	if len(comps) == 1 {
		return comps[0], nil
	}
	return ast.NewMolecule(comps...)
}

// owned projects every pair this chain owns onto the chain atoms whose
// subtrees hold its two markers. A pair whose markers both sit inside one
// branch belongs to that branch instead.
func owned(c *chain) []interval {
	first := make(map[int]int)
	last := make(map[int]int)
	for i, a := range c.atoms {
		for p := range a.pairs {
			if _, ok := first[p]; !ok {
				first[p] = i
			}
			last[p] = i
		}
	}
	var out []interval
	for p, i := range first {
		j := last[p]
		if i == j && insideOneBranch(c.atoms[i], p) {
			continue
		}
		out = append(out, interval{start: i, end: j})
	}
	return out
}

func insideOneBranch(a *atom, pair int) bool {
	for _, br := range a.branches {
		if br.pairs[pair] == 2 {
			return true
		}
	}
	return false
}

// merge joins intervals that share at least one atom.
func merge(list []interval) []interval {
	if len(list) == 0 {
		return nil
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].start != list[j].start {
			return list[i].start < list[j].start
		}
		return list[i].end > list[j].end
	})
	out := []interval{list[0]}
	for _, iv := range list[1:] {
		cur := &out[len(out)-1]
		if iv.start <= cur.end {
			if iv.end > cur.end {
				cur.end = iv.end
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func convertBranches(branches []*chain) ([]ast.Attachment, error) {
	var out []ast.Attachment
	for _, br := range branches {
		n, err := convert(br)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.Attachment{Node: n})
	}
	return out, nil
}

func convertRun(atoms []*atom) (*ast.Linear, error) {
	cfg := ast.LinearConfig{LeadingBond: atoms[0].bond}
	for i, a := range atoms {
		cfg.Atoms = append(cfg.Atoms, a.text)
		if i > 0 {
			cfg.Bonds = append(cfg.Bonds, a.bond)
		}
		if len(a.branches) == 0 {
			continue
		}
		atts, err := convertBranches(a.branches)
		if err != nil {
			return nil, err
		}
		if cfg.Attachments == nil {
			cfg.Attachments = make(map[int][]ast.Attachment)
		}
		cfg.Attachments[i+1] = atts
	}
	return ast.NewLinear(cfg)
}

// convertSegment captures a ring segment as an exact layout and lets the ast
// package pick the most specific node that writes the same way.
func convertSegment(atoms []*atom) (ast.Node, error) {
	f := &flattener{}
	if err := f.chain(atoms, 0, false); err != nil {
		return nil, err
	}
	return ast.FromLayout(f.out)
}

// flattener writes atoms into a layout. A branch is flattened when it holds a
// marker closed outside it, and so is every later sibling branch so that the
// written order is kept. Other branches become attachments.
type flattener struct {
	out []ast.LayoutAtom
}

func (f *flattener) chain(atoms []*atom, depth int, branch bool) error {
	for i, a := range atoms {
		la := ast.LayoutAtom{
			Value:  a.text,
			Bond:   a.bond,
			Depth:  depth,
			Branch: branch && i == 0,
		}
		for _, m := range a.marks {
			la.Rings = append(la.Rings, ast.RingMark{Number: m.number, Bond: m.bond})
		}
		flat := len(a.branches)
		for j, br := range a.branches {
			if br.crossing() {
				flat = j
				break
			}
		}
		atts, err := convertBranches(a.branches[:flat])
		if err != nil {
			return err
		}
		la.Attachments = atts
		f.out = append(f.out, la)
		for _, br := range a.branches[flat:] {
			if err := f.chain(br.atoms, depth+1, true); err != nil {
				return err
			}
		}
	}
	return nil
}
