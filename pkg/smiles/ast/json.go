package ast

import (
	"encoding/json"
	"strconv"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// nodeJSON is the wire shape shared by all variants. Absent data is omitted.
type nodeJSON struct {
	Type string `json:"type"`

	Atoms []string `json:"atoms,omitempty"`

	Atom          string            `json:"atom,omitempty"`
	Size          int               `json:"size,omitempty"`
	RingNumber    int               `json:"ring_number,omitempty"`
	Offset        int               `json:"offset,omitempty"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
	OpenBond      Bond              `json:"open_bond,omitempty"`
	BranchDepths  []int             `json:"branch_depths,omitempty"`

	Bonds       []Bond                      `json:"bonds,omitempty"`
	LeadingBond Bond                        `json:"leading_bond,omitempty"`
	Attachments map[string][]attachmentJSON `json:"attachments,omitempty"`

	Rings  []*nodeJSON      `json:"rings,omitempty"`
	Layout []layoutAtomJSON `json:"layout,omitempty"`

	Components []*nodeJSON `json:"components,omitempty"`
}

type attachmentJSON struct {
	Node   *nodeJSON `json:"node"`
	Inline bool      `json:"inline,omitempty"`
}

type markJSON struct {
	Number int  `json:"number"`
	Bond   Bond `json:"bond,omitempty"`
}

type layoutAtomJSON struct {
	Value       string           `json:"value"`
	Bond        Bond             `json:"bond,omitempty"`
	Depth       int              `json:"depth,omitempty"`
	Branch      bool             `json:"branch,omitempty"`
	Rings       []markJSON       `json:"rings,omitempty"`
	Attachments []attachmentJSON `json:"attachments,omitempty"`
}

// MarshalNode encodes n as JSON.
func MarshalNode(n Node) ([]byte, error) {
	j, err := toJSON(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(j)
}

// UnmarshalNode decodes JSON produced by MarshalNode, validating every node
// through its constructor.
func UnmarshalNode(data []byte) (Node, error) {
	var j nodeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode AST JSON")
	}
	return fromJSON(&j)
}

func (l *Linear) MarshalJSON() ([]byte, error)    { return MarshalNode(l) }
func (r *Ring) MarshalJSON() ([]byte, error)      { return MarshalNode(r) }
func (f *FusedRing) MarshalJSON() ([]byte, error) { return MarshalNode(f) }
func (m *Molecule) MarshalJSON() ([]byte, error)  { return MarshalNode(m) }

func toJSON(n Node) (*nodeJSON, error) {
	switch v := n.(type) {
	case *Linear:
		j := &nodeJSON{Type: KindLinear.String(), Atoms: v.Atoms(), LeadingBond: v.leading}
		if !allImplicit(v.bonds) {
			j.Bonds = v.Bonds()
		}
		atts, err := attachmentsJSON(v.attachments)
		if err != nil {
			return nil, err
		}
		j.Attachments = atts
		return j, nil
	case *Ring:
		return ringJSON(v)
	case *FusedRing:
		j := &nodeJSON{Type: KindFusedRing.String()}
		if v.layout != nil {
			for _, a := range v.layout {
				aj := layoutAtomJSON{Value: a.Value, Bond: a.Bond, Depth: a.Depth, Branch: a.Branch}
				for _, m := range a.Rings {
					aj.Rings = append(aj.Rings, markJSON{Number: m.Number, Bond: m.Bond})
				}
				list, err := attachmentListJSON(a.Attachments)
				if err != nil {
					return nil, err
				}
				aj.Attachments = list
				j.Layout = append(j.Layout, aj)
			}
			return j, nil
		}
		for _, r := range v.rings {
			rj, err := ringJSON(r)
			if err != nil {
				return nil, err
			}
			j.Rings = append(j.Rings, rj)
		}
		return j, nil
	case *Molecule:
		j := &nodeJSON{Type: KindMolecule.String()}
		for _, c := range v.components {
			cj, err := toJSON(c)
			if err != nil {
				return nil, err
			}
			j.Components = append(j.Components, cj)
		}
		return j, nil
	}
	return nil, errors.InvalidAST("cannot encode nil node")
}

func ringJSON(r *Ring) (*nodeJSON, error) {
	j := &nodeJSON{
		Type:         KindRing.String(),
		Atom:         r.atom,
		Size:         r.size,
		RingNumber:   r.number,
		Offset:       r.offset,
		OpenBond:     r.openBond,
		LeadingBond:  r.leading,
		Bonds:        r.Bonds(),
		BranchDepths: r.BranchDepths(),
	}
	if len(r.subs) > 0 {
		j.Substitutions = make(map[string]string, len(r.subs))
		for k, v := range r.subs {
			j.Substitutions[strconv.Itoa(k)] = v
		}
	}
	atts, err := attachmentsJSON(r.attachments)
	if err != nil {
		return nil, err
	}
	j.Attachments = atts
	return j, nil
}

func attachmentListJSON(list []Attachment) ([]attachmentJSON, error) {
	var out []attachmentJSON
	for _, a := range list {
		cj, err := toJSON(a.Node)
		if err != nil {
			return nil, err
		}
		out = append(out, attachmentJSON{Node: cj, Inline: a.Inline})
	}
	return out, nil
}

func attachmentsJSON(m map[int][]Attachment) (map[string][]attachmentJSON, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string][]attachmentJSON, len(m))
	for _, pos := range sortedPositions(m) {
		list, err := attachmentListJSON(m[pos])
		if err != nil {
			return nil, err
		}
		out[strconv.Itoa(pos)] = list
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// decoding
// ─────────────────────────────────────────────────────────────────────────────

func fromJSON(j *nodeJSON) (Node, error) {
	if j == nil {
		return nil, errors.InvalidAST("missing node")
	}
	switch j.Type {
	case KindLinear.String():
		atts, err := attachmentsFromJSON(j.Attachments)
		if err != nil {
			return nil, err
		}
		return NewLinear(LinearConfig{Atoms: j.Atoms, Bonds: j.Bonds, LeadingBond: j.LeadingBond, Attachments: atts})
	case KindRing.String():
		return ringFromJSON(j)
	case KindFusedRing.String():
		if len(j.Layout) > 0 {
			atoms := make([]LayoutAtom, len(j.Layout))
			for i, aj := range j.Layout {
				atoms[i] = LayoutAtom{Value: aj.Value, Bond: aj.Bond, Depth: aj.Depth, Branch: aj.Branch}
				for _, m := range aj.Rings {
					atoms[i].Rings = append(atoms[i].Rings, RingMark{Number: m.Number, Bond: m.Bond})
				}
				list, err := attachmentListFromJSON(aj.Attachments)
				if err != nil {
					return nil, err
				}
				atoms[i].Attachments = list
			}
			return NewFusedRingLayout(atoms)
		}
		rings := make([]*Ring, len(j.Rings))
		for i, rj := range j.Rings {
			r, err := ringFromJSON(rj)
			if err != nil {
				return nil, err
			}
			rings[i] = r
		}
		return NewFusedRing(rings...)
	case KindMolecule.String():
		comps := make([]Node, len(j.Components))
		for i, cj := range j.Components {
			c, err := fromJSON(cj)
			if err != nil {
				return nil, err
			}
			comps[i] = c
		}
		return NewMolecule(comps...)
	}
	return nil, errors.Newf(errors.ErrCodeInvalidAST, "unknown node type %q", j.Type)
}

func ringFromJSON(j *nodeJSON) (*Ring, error) {
	if j == nil || j.Type != KindRing.String() {
		return nil, errors.InvalidAST("expected a ring")
	}
	subs := make(map[int]string, len(j.Substitutions))
	for k, v := range j.Substitutions {
		pos, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "substitution key is not a position")
		}
		subs[pos] = v
	}
	atts, err := attachmentsFromJSON(j.Attachments)
	if err != nil {
		return nil, err
	}
	return NewRing(RingConfig{
		Atom:          j.Atom,
		Size:          j.Size,
		RingNumber:    j.RingNumber,
		Offset:        j.Offset,
		Substitutions: subs,
		Attachments:   atts,
		Bonds:         j.Bonds,
		OpenBond:      j.OpenBond,
		LeadingBond:   j.LeadingBond,
		BranchDepths:  j.BranchDepths,
	})
}

func attachmentListFromJSON(list []attachmentJSON) ([]Attachment, error) {
	var out []Attachment
	for _, aj := range list {
		c, err := fromJSON(aj.Node)
		if err != nil {
			return nil, err
		}
		out = append(out, Attachment{Node: c, Inline: aj.Inline})
	}
	return out, nil
}

func attachmentsFromJSON(m map[string][]attachmentJSON) (map[int][]Attachment, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[int][]Attachment, len(m))
	for k, list := range m {
		pos, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "attachment key is not a position")
		}
		atts, err := attachmentListFromJSON(list)
		if err != nil {
			return nil, err
		}
		out[pos] = atts
	}
	return out, nil
}
