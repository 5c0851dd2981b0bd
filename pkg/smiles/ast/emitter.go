package ast

import (
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// BuildSMILES writes n as a SMILES string.
//
// Every variant is first lowered to a layout. A ring number that is still
// open in an enclosing node when a child uses it again is replaced, for that
// child only, by the lowest number free in both; a number closed earlier is
// reused as written.
func BuildSMILES(n Node) (string, error) {
	e := &emitter{live: roaring.New()}
	if err := e.node(n); err != nil {
		return "", err
	}
	return e.sb.String(), nil
}

// MustBuildSMILES is BuildSMILES that panics on error.
func MustBuildSMILES(n Node) string {
	s, err := BuildSMILES(n)
	if err != nil {
		panic(err)
	}
	return s
}

type emitter struct {
	sb   strings.Builder
	live *roaring.Bitmap
}

func (e *emitter) node(n Node) error {
	switch v := n.(type) {
	case *Molecule:
		if v == nil || len(v.components) == 0 {
			return errors.InvalidAST("zero-value molecule")
		}
		for _, c := range v.components {
			if err := e.node(c); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return errors.InvalidAST("nil node")
	}
	atoms, err := lowerForEmit(n)
	if err != nil {
		return err
	}
	return e.layout(atoms, setOf(n))
}

func lowerForEmit(n Node) ([]LayoutAtom, error) {
	switch v := n.(type) {
	case *Linear:
		if v == nil {
			break
		}
		return lowerLinear(v)
	case *Ring:
		if v == nil {
			break
		}
		return lowerRing(v)
	case *FusedRing:
		if v == nil {
			break
		}
		if v.layout != nil {
			return v.layout, nil
		}
		return lowerArray(v.rings)
	}
	return nil, errors.InvalidAST("nil node")
}

// layout renders atoms. subtree holds every ring number used by the node and
// its descendants so that replacements never collide with them.
func (e *emitter) layout(atoms []LayoutAtom, subtree *roaring.Bitmap) error {
	if len(atoms) == 0 {
		return errors.InvalidAST("empty layout")
	}
	mapping, err := e.liveCollisions(atoms, subtree)
	if err != nil {
		return err
	}

	opened := make(map[int]bool)
	depth := 0
	for i, a := range atoms {
		if a.Value == "" {
			return errors.InvalidAST("layout atom without value")
		}
		switch {
		case i == 0 && (a.Depth != 0 || a.Branch):
			return errors.InvalidAST("layout must start at depth 0 outside a branch")
		case a.Branch:
			if a.Depth < 1 || a.Depth > depth+1 {
				return errors.InvalidAST("branch opens more than one level")
			}
			e.sb.WriteString(strings.Repeat(")", depth-(a.Depth-1)))
			e.sb.WriteByte('(')
		default:
			if a.Depth < 0 || a.Depth > depth {
				return errors.InvalidAST("layout enters a branch without opening it")
			}
			e.sb.WriteString(strings.Repeat(")", depth-a.Depth))
		}
		depth = a.Depth

		e.sb.WriteString(string(a.Bond))
		e.sb.WriteString(a.Value)
		for _, m := range a.Rings {
			num := remap(mapping, m.Number)
			label, err := FormatRingNumber(num)
			if err != nil {
				return err
			}
			e.sb.WriteString(string(m.Bond))
			e.sb.WriteString(label)
			if opened[num] {
				delete(opened, num)
				e.live.Remove(uint32(num))
			} else {
				opened[num] = true
				e.live.Add(uint32(num))
			}
		}
		for _, att := range a.Attachments {
			if att.Node == nil {
				return errors.InvalidAST("attachment without a node")
			}
			if !att.Inline {
				e.sb.WriteByte('(')
			}
			if err := e.node(att.Node); err != nil {
				return err
			}
			if !att.Inline {
				e.sb.WriteByte(')')
			}
		}
	}
	if len(opened) > 0 {
		return errors.InvalidAST("ring left open at the end of a layout")
	}
	e.sb.WriteString(strings.Repeat(")", depth))
	return nil
}

// liveCollisions maps the layout's own ring numbers that are currently open in
// an enclosing node onto free numbers.
func (e *emitter) liveCollisions(atoms []LayoutAtom, subtree *roaring.Bitmap) (map[int]int, error) {
	if e.live.IsEmpty() {
		return nil, nil
	}
	own := roaring.New()
	for _, a := range atoms {
		for _, m := range a.Rings {
			if m.Number >= 0 {
				own.Add(uint32(m.Number))
			}
		}
	}
	clash := roaring.And(own, e.live)
	if clash.IsEmpty() {
		return nil, nil
	}
	alloc := &RingAllocator{used: roaring.Or(e.live, subtree)}
	mapping := make(map[int]int, clash.GetCardinality())
	for _, n := range clash.ToArray() {
		next, err := alloc.Next()
		if err != nil {
			return nil, err
		}
		mapping[int(n)] = next
	}
	return mapping, nil
}
