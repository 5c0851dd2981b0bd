package ast

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// Ring is a single ring of Size atoms opened and closed by RingNumber.
//
// Positions are 1-based. Bonds, when present, has Size entries: Bonds[i] for
// i < Size-1 precedes position i+2 and Bonds[Size-1] is written before the
// closing ring marker. OpenBond is written before the opening marker and
// LeadingBond before the first atom. BranchDepths, when present, gives the
// parenthesis depth of every position so that a ring may close inside a branch
// as in "C1CC(CC1)".
type Ring struct {
	atom        string
	size        int
	number      int
	offset      int
	subs        map[int]string
	attachments map[int][]Attachment
	bonds       []Bond
	openBond    Bond
	leading     Bond
	depths      []int
	rings       *roaring.Bitmap
}

// RingConfig carries the constructor arguments of NewRing. A zero RingNumber
// defaults to 1.
type RingConfig struct {
	Atom          string
	Size          int
	RingNumber    int
	Offset        int
	Substitutions map[int]string
	Attachments   map[int][]Attachment
	Bonds         []Bond
	OpenBond      Bond
	LeadingBond   Bond
	BranchDepths  []int
}

// NewRing validates cfg and builds a ring.
func NewRing(cfg RingConfig) (*Ring, error) {
	if cfg.Atom == "" {
		return nil, errors.InvalidAST("ring needs a base atom")
	}
	if cfg.Size < 3 {
		return nil, errors.Newf(errors.ErrCodeInvalidAST, "ring size %d is below 3", cfg.Size)
	}
	number := cfg.RingNumber
	if number == 0 {
		number = 1
	}
	if number < 1 || number > MaxRingNumber {
		return nil, errors.Newf(errors.ErrCodeInvalidRingNumber, "ring number %d outside 1..%d", number, MaxRingNumber)
	}
	if cfg.Offset < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPosition, "negative ring offset %d", cfg.Offset)
	}

	subs := make(map[int]string, len(cfg.Substitutions))
	for pos, atom := range cfg.Substitutions {
		if pos < 1 || pos > cfg.Size {
			return nil, errors.InvalidPosition(pos, cfg.Size)
		}
		if atom == "" {
			return nil, errors.InvalidAST("empty substitution atom")
		}
		if atom != cfg.Atom {
			subs[pos] = atom
		}
	}
	if len(subs) == 0 {
		subs = nil
	}

	var bonds []Bond
	if len(cfg.Bonds) > 0 {
		if len(cfg.Bonds) != cfg.Size {
			return nil, errors.Newf(errors.ErrCodeInvalidAST, "ring of size %d needs %d bonds, got %d", cfg.Size, cfg.Size, len(cfg.Bonds))
		}
		if err := checkBonds(cfg.Bonds...); err != nil {
			return nil, err
		}
		if !allImplicit(cfg.Bonds) {
			bonds = append([]Bond(nil), cfg.Bonds...)
		}
	}
	if err := checkBonds(cfg.OpenBond, cfg.LeadingBond); err != nil {
		return nil, err
	}

	var depths []int
	if len(cfg.BranchDepths) > 0 {
		if len(cfg.BranchDepths) != cfg.Size {
			return nil, errors.Newf(errors.ErrCodeInvalidAST, "ring of size %d needs %d branch depths, got %d", cfg.Size, cfg.Size, len(cfg.BranchDepths))
		}
		flat := true
		for i, d := range cfg.BranchDepths {
			prev := 0
			if i > 0 {
				prev = cfg.BranchDepths[i-1]
			}
			if d < prev || d > prev+1 || (i == 0 && d != 0) {
				return nil, errors.Newf(errors.ErrCodeInvalidAST, "branch depth %d at position %d does not follow %d", d, i+1, prev)
			}
			if d != 0 {
				flat = false
			}
		}
		if !flat {
			depths = append([]int(nil), cfg.BranchDepths...)
		}
	}

	if err := checkAttachments(cfg.Attachments, cfg.Size); err != nil {
		return nil, err
	}

	r := &Ring{
		atom:        cfg.Atom,
		size:        cfg.Size,
		number:      number,
		offset:      cfg.Offset,
		subs:        subs,
		attachments: copyAttachments(cfg.Attachments),
		bonds:       bonds,
		openBond:    cfg.OpenBond,
		leading:     cfg.LeadingBond,
		depths:      depths,
	}
	r.rings = r.computeSet()
	return r, nil
}

// MustRing is NewRing for a plain ring. It panics on invalid input.
func MustRing(atom string, size, number int) *Ring {
	r, err := NewRing(RingConfig{Atom: atom, Size: size, RingNumber: number})
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Ring) computeSet() *roaring.Bitmap {
	set := attachmentSet(r.attachments)
	set.Add(uint32(r.number))
	return set
}

func (r *Ring) Kind() Kind { return KindRing }

// Atom returns the base element text.
func (r *Ring) Atom() string { return r.atom }

func (r *Ring) Size() int { return r.size }

func (r *Ring) RingNumber() int { return r.number }

// Offset is the aggregate index this ring fuses at inside a FusedRing.
func (r *Ring) Offset() int { return r.offset }

// AtomAt returns the text at a 1-based position, substitution included.
func (r *Ring) AtomAt(pos int) string {
	if s, ok := r.subs[pos]; ok {
		return s
	}
	return r.atom
}

// Substitution reports the substituted text at pos, if any.
func (r *Ring) Substitution(pos int) (string, bool) {
	s, ok := r.subs[pos]
	return s, ok
}

// Substitutions returns a copy of the substitution map.
func (r *Ring) Substitutions() map[int]string {
	out := make(map[int]string, len(r.subs))
	for k, v := range r.subs {
		out[k] = v
	}
	return out
}

func copySubs(m map[int]string) map[int]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Attachments returns the children at a 1-based position.
func (r *Ring) Attachments(pos int) []Attachment {
	return append([]Attachment(nil), r.attachments[pos]...)
}

// AttachmentPositions lists the positions carrying children, ascending.
func (r *Ring) AttachmentPositions() []int { return sortedPositions(r.attachments) }

// Bonds returns the explicit bond vector, or nil when every bond is implicit.
func (r *Ring) Bonds() []Bond { return append([]Bond(nil), r.bonds...) }

// BondBefore returns the bond written before position pos (2..Size).
func (r *Ring) BondBefore(pos int) Bond {
	if r.bonds == nil || pos < 2 || pos > r.size {
		return BondImplicit
	}
	return r.bonds[pos-2]
}

// ClosureBond is written before the closing ring marker.
func (r *Ring) ClosureBond() Bond {
	if r.bonds == nil {
		return BondImplicit
	}
	return r.bonds[r.size-1]
}

func (r *Ring) OpenBond() Bond { return r.openBond }

func (r *Ring) LeadingBond() Bond { return r.leading }

// BranchDepths returns the per-position depths, or nil for a flat ring.
func (r *Ring) BranchDepths() []int { return append([]int(nil), r.depths...) }

func (r *Ring) depthAt(pos int) int {
	if r.depths == nil {
		return 0
	}
	return r.depths[pos-1]
}

func (r *Ring) RingNumbers() []int { return numbersOf(r.rings) }

func (r *Ring) ringSet() *roaring.Bitmap { return r.rings }

// Config returns the constructor arguments that rebuild r.
func (r *Ring) Config() RingConfig {
	return RingConfig{
		Atom:          r.atom,
		Size:          r.size,
		RingNumber:    r.number,
		Offset:        r.offset,
		Substitutions: r.Substitutions(),
		Attachments:   copyAttachments(r.attachments),
		Bonds:         r.Bonds(),
		OpenBond:      r.openBond,
		LeadingBond:   r.leading,
		BranchDepths:  r.BranchDepths(),
	}
}

func (r *Ring) Clone() Node {
	out := *r
	out.subs = copySubs(r.subs)
	out.attachments = cloneAttachments(r.attachments)
	out.bonds = r.Bonds()
	out.depths = r.BranchDepths()
	out.rings = out.computeSet()
	return &out
}

func (r *Ring) renumber(mapping map[int]int) Node {
	out := *r
	out.number = remap(mapping, r.number)
	out.attachments = renumberAttachments(r.attachments, mapping)
	out.rings = out.computeSet()
	return &out
}

// ─────────────────────────────────────────────────────────────────────────────
// transformations
// ─────────────────────────────────────────────────────────────────────────────

// Attach hangs child off the 1-based position.
func (r *Ring) Attach(pos int, child Node, opts ...AttachOptions) (*Ring, error) {
	if pos < 1 || pos > r.size {
		return nil, errors.InvalidPosition(pos, r.size)
	}
	if child == nil {
		return nil, errors.InvalidAST("attach requires a child")
	}
	o := mergeAttachOptions(opts)
	if o.Inline && pos != r.size {
		return nil, errors.InvalidPosition(pos, r.size).WithDetail("inline attachment needs the last position")
	}
	atts, err := withAttachment(r.attachments, pos, Attachment{Node: child, Inline: o.Inline})
	if err != nil {
		return nil, err
	}
	cfg := r.Config()
	cfg.Attachments = atts
	return NewRing(cfg)
}

// Substitute replaces the element at pos. Substituting the base atom removes
// the substitution.
func (r *Ring) Substitute(pos int, atom string) (*Ring, error) {
	return r.SubstituteMultiple(map[int]string{pos: atom})
}

// SubstituteMultiple applies several substitutions at once.
func (r *Ring) SubstituteMultiple(m map[int]string) (*Ring, error) {
	cfg := r.Config()
	for _, pos := range sortedKeys(m) {
		if pos < 1 || pos > r.size {
			return nil, errors.InvalidPosition(pos, r.size)
		}
		atom := m[pos]
		if atom == "" {
			return nil, errors.InvalidAST("empty substitution atom")
		}
		if atom == r.atom {
			delete(cfg.Substitutions, pos)
			continue
		}
		cfg.Substitutions[pos] = atom
	}
	return NewRing(cfg)
}

// WithRingNumber returns a copy closed by n.
func (r *Ring) WithRingNumber(n int) (*Ring, error) {
	cfg := r.Config()
	cfg.RingNumber = n
	if n == 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidRingNumber, "ring number %d outside 1..%d", n, MaxRingNumber)
	}
	return NewRing(cfg)
}

// WithOffset returns a copy fusing at aggregate index offset.
func (r *Ring) WithOffset(offset int) (*Ring, error) {
	cfg := r.Config()
	cfg.Offset = offset
	return NewRing(cfg)
}

// FuseOptions tune Fuse.
type FuseOptions struct {
	// RingNumber forces the number of the fused ring; 0 allocates the lowest
	// number free in both operands.
	RingNumber int
}

// Fuse shares the edge between aggregate atoms offset and offset+1 of r with
// the first and last atoms of other.
func (r *Ring) Fuse(offset int, other *Ring, opts ...FuseOptions) (*FusedRing, error) {
	if other == nil {
		return nil, errors.InvalidAST("fuse requires a ring")
	}
	fr, err := r.asFused()
	if err != nil {
		return nil, err
	}
	return fr.AddRingWith(offset, other, opts...)
}

// FusedRepeat fuses n copies of r into a linear poly-ring. The second copy
// fuses at aggregate index offset and each later copy offset-1 atoms past the
// previous one, which for hexagons and offset 3 yields the acenes.
func (r *Ring) FusedRepeat(n, offset int) (*FusedRing, error) {
	if n < 1 {
		return nil, errors.Newf(errors.CodeInvalidParam, "repeat count %d below 1", n)
	}
	if offset < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidPosition, "fused repeat offset %d below 1", offset)
	}
	fr, err := r.asFused()
	if err != nil {
		return nil, err
	}
	for k := 1; k < n; k++ {
		at := offset + (k-1)*(offset-1)
		if fr, err = fr.AddRing(at, r); err != nil {
			return nil, err
		}
	}
	return fr, nil
}

// Concat joins other after the ring.
func (r *Ring) Concat(other Node) (Node, error) {
	return Concat(r, other)
}

// Mirror reflects substitutions and attachments across the axis through pivot
// (0 selects position 1) so that both halves carry the same features. Copied
// attachments receive fresh ring numbers.
func (r *Ring) Mirror(pivot int) (*Ring, error) {
	if pivot == 0 {
		pivot = 1
	}
	if pivot < 1 || pivot > r.size {
		return nil, errors.InvalidPosition(pivot, r.size)
	}
	reflect := func(p int) int {
		m := (2*pivot - p - 1) % r.size
		if m < 0 {
			m += r.size
		}
		return m + 1
	}
	cfg := r.Config()
	for _, pos := range sortedKeys(r.subs) {
		if q := reflect(pos); q != pos {
			if _, taken := cfg.Substitutions[q]; !taken {
				cfg.Substitutions[q] = r.subs[pos]
			}
		}
	}
	alloc := NewRingAllocator(r)
	if cfg.Attachments == nil {
		cfg.Attachments = make(map[int][]Attachment)
	}
	for _, pos := range sortedPositions(r.attachments) {
		q := reflect(pos)
		if q == pos || len(r.attachments[q]) > 0 {
			continue
		}
		list := r.attachments[pos]
		if q != r.size {
			list = demoteInline(list)
		}
		copies, err := freshCopies(list, alloc)
		if err != nil {
			return nil, err
		}
		cfg.Attachments[q] = copies
	}
	return NewRing(cfg)
}

// Repeat chains n copies; see RepeatNode.
func (r *Ring) Repeat(n, leftID, rightID int) (Node, error) {
	return RepeatNode(r, n, leftID, rightID)
}

// AddSequentialRings starts a layout-form FusedRing from r; see
// FusedRing.AddSequentialRings.
func (r *Ring) AddSequentialRings(specs []SequentialRing, opts ...SequentialOptions) (*FusedRing, error) {
	fr, err := r.asFused()
	if err != nil {
		return nil, err
	}
	return fr.AddSequentialRings(specs, opts...)
}

// asFused wraps r as the first ring of an array-form system.
func (r *Ring) asFused() (*FusedRing, error) {
	base, err := r.WithOffset(0)
	if err != nil {
		return nil, err
	}
	return NewFusedRing(base)
}
