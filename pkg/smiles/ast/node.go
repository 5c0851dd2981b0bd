// Package ast defines the immutable structural tree for SMILES strings: linear
// chains, single rings, fused ring systems and molecules. Every value is built
// through a validating constructor, is never mutated after construction, and
// every transformation returns a fresh value.
package ast

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	KindLinear Kind = iota + 1
	KindRing
	KindFusedRing
	KindMolecule
)

func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindRing:
		return "ring"
	case KindFusedRing:
		return "fused_ring"
	case KindMolecule:
		return "molecule"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is implemented by *Linear, *Ring, *FusedRing and *Molecule.
type Node interface {
	Kind() Kind
	// Clone returns a deep copy.
	Clone() Node
	// RingNumbers lists every ring number used in the subtree, ascending.
	RingNumbers() []int

	ringSet() *roaring.Bitmap
	renumber(mapping map[int]int) Node
}

// Attachment hangs a child node off an atom. Sibling attachments (the default)
// are written in parentheses; an Inline attachment continues the chain after
// the atom and is only allowed at the last position.
type Attachment struct {
	Node   Node
	Inline bool
}

// AttachOptions tune Attach.
type AttachOptions struct {
	// Inline renders the child as a continuation instead of a branch.
	Inline bool
}

func mergeAttachOptions(opts []AttachOptions) AttachOptions {
	var out AttachOptions
	for _, o := range opts {
		if o.Inline {
			out.Inline = true
		}
	}
	return out
}

func setOf(n Node) *roaring.Bitmap {
	if n == nil {
		return roaring.New()
	}
	if s := n.ringSet(); s != nil {
		return s
	}
	return roaring.New()
}

func numbersOf(set *roaring.Bitmap) []int {
	if set == nil {
		return []int{}
	}
	arr := set.ToArray()
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// attachment maps
// ─────────────────────────────────────────────────────────────────────────────

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedPositions(m map[int][]Attachment) []int {
	keys := make([]int, 0, len(m))
	for k, v := range m {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)
	return keys
}

// checkAttachmentList validates children at one position. last tells whether
// the position is the final atom of its owner.
func checkAttachmentList(list []Attachment, last bool) error {
	for i, a := range list {
		if a.Node == nil {
			return errors.InvalidAST("attachment without a node")
		}
		if a.Inline {
			if !last {
				return errors.InvalidAST("inline attachment is only allowed at the last position")
			}
			if i != len(list)-1 {
				return errors.InvalidAST("inline attachment must follow the sibling branches")
			}
		}
	}
	return nil
}

func checkAttachments(m map[int][]Attachment, size int) error {
	for _, pos := range sortedPositions(m) {
		if pos < 1 || pos > size {
			return errors.InvalidPosition(pos, size)
		}
		if err := checkAttachmentList(m[pos], pos == size); err != nil {
			return err
		}
	}
	return nil
}

func copyAttachments(m map[int][]Attachment) map[int][]Attachment {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int][]Attachment, len(m))
	for k, v := range m {
		if len(v) == 0 {
			continue
		}
		out[k] = append([]Attachment(nil), v...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneAttachmentList(list []Attachment) []Attachment {
	if len(list) == 0 {
		return nil
	}
	out := make([]Attachment, len(list))
	for i, a := range list {
		out[i] = Attachment{Node: a.Node.Clone(), Inline: a.Inline}
	}
	return out
}

func cloneAttachments(m map[int][]Attachment) map[int][]Attachment {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int][]Attachment, len(m))
	for k, v := range m {
		if len(v) > 0 {
			out[k] = cloneAttachmentList(v)
		}
	}
	return out
}

func renumberAttachmentList(list []Attachment, mapping map[int]int) []Attachment {
	if len(list) == 0 {
		return nil
	}
	out := make([]Attachment, len(list))
	for i, a := range list {
		out[i] = Attachment{Node: a.Node.renumber(mapping), Inline: a.Inline}
	}
	return out
}

func renumberAttachments(m map[int][]Attachment, mapping map[int]int) map[int][]Attachment {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int][]Attachment, len(m))
	for k, v := range m {
		if len(v) > 0 {
			out[k] = renumberAttachmentList(v, mapping)
		}
	}
	return out
}

// appendAttachment keeps an inline continuation at the end of the list.
func appendAttachment(list []Attachment, a Attachment) ([]Attachment, error) {
	out := make([]Attachment, 0, len(list)+1)
	var inline *Attachment
	for i := range list {
		if list[i].Inline {
			inline = &list[i]
			continue
		}
		out = append(out, list[i])
	}
	if a.Inline && inline != nil {
		return nil, errors.InvalidAST("position already continues inline")
	}
	out = append(out, a)
	if inline != nil {
		out = append(out, *inline)
	}
	return out, nil
}

func appendAttachments(list []Attachment, more []Attachment) ([]Attachment, error) {
	out := list
	var err error
	for _, a := range more {
		if out, err = appendAttachment(out, a); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// withAttachment returns a copy of m with child appended at pos.
func withAttachment(m map[int][]Attachment, pos int, a Attachment) (map[int][]Attachment, error) {
	out := copyAttachments(m)
	if out == nil {
		out = make(map[int][]Attachment, 1)
	}
	list, err := appendAttachment(out[pos], a)
	if err != nil {
		return nil, err
	}
	out[pos] = list
	return out, nil
}

func attachmentSet(m map[int][]Attachment) *roaring.Bitmap {
	set := roaring.New()
	for _, list := range m {
		for _, a := range list {
			set.Or(setOf(a.Node))
		}
	}
	return set
}

// demoteInline turns inline attachments into sibling branches.
func demoteInline(list []Attachment) []Attachment {
	out := make([]Attachment, len(list))
	for i, a := range list {
		out[i] = Attachment{Node: a.Node, Inline: false}
	}
	return out
}
