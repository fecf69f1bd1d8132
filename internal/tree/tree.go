// Package tree implements the generic N-ary hash tree used by both the
// credential data model and the revocation registry: a flat array of
// B^depth leaves followed by every internal level up to the root, with
// point and batch update paths that rehash only the affected nodes.
package tree

import (
	"errors"
	"math/big"

	"heimdall/internal/hashfn"
)

// ErrIndexOutOfBounds is returned when a leaf index falls outside the tree.
var ErrIndexOutOfBounds = errors.New("tree: index out of bounds")

// ErrBadLeafCount is returned when the leaf count is not an exact power
// of the branching factor.
var ErrBadLeafCount = errors.New("tree: leaf count must be branching^depth")

// ErrUnsupportedBranching is returned by operations (proof generation)
// that are only defined for binary trees.
var ErrUnsupportedBranching = errors.New("tree: operation requires branching factor 2")

// Tree is a fixed-shape, B-ary hash tree stored as a single flat slice:
// indices [0, numLeaves) hold leaf hashes, followed by level 1, level 2,
// ..., with the final single element the root.
type Tree struct {
	branching int
	depth     int
	hasher    hashfn.Capability
	leaves    []string
	data      []*big.Int
}

// New builds a tree over leaves, whose length must equal branching^depth
// for some non-negative integer depth. Each leaf is hashed with
// hash_string; internal nodes are hashed with hash_field over their B
// children.
func New(leaves []string, branching int, hasher hashfn.Capability) (*Tree, error) {
	depth, ok := integerLog(len(leaves), branching)
	if !ok {
		return nil, ErrBadLeafCount
	}
	t := &Tree{
		branching: branching,
		depth:     depth,
		hasher:    hasher,
		leaves:    append([]string(nil), leaves...),
	}
	t.generate()
	return t, nil
}

// integerLog returns d such that b^d == n, if one exists.
func integerLog(n, b int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	d := 0
	v := 1
	for v < n {
		v *= b
		d++
	}
	if v != n {
		return 0, false
	}
	return d, true
}

// FillVec right-pads values with "" so its length becomes the smallest
// power of branching that is >= len(values). Used to make arbitrary
// attribute vectors fit a fixed-shape tree.
func FillVec(values []string, branching int) []string {
	if len(values) <= 1 {
		out := make([]string, 1)
		copy(out, values)
		return out
	}
	leafCount := 1
	for leafCount < len(values) {
		leafCount *= branching
	}
	out := make([]string, leafCount)
	copy(out, values)
	return out
}

// generate recomputes the entire tree from t.leaves.
func (t *Tree) generate() {
	numLeaves := len(t.leaves)
	size := numLeaves
	if t.branching > 1 {
		size = (pow(t.branching, t.depth+1) - 1) / (t.branching - 1)
	}
	data := make([]*big.Int, numLeaves, size)
	for i, leaf := range t.leaves {
		data[i] = t.hasher.HashString(leaf)
	}
	for j := t.branching - 1; j < size; j += t.branching {
		children := data[j+1-t.branching : j+1]
		data = append(data, t.hasher.Hash(children...))
	}
	t.data = data
}

func pow(b, e int) int {
	r := 1
	for i := 0; i < e; i++ {
		r *= b
	}
	return r
}

// GetRoot returns the tree's root hash.
func (t *Tree) GetRoot() *big.Int {
	return t.data[len(t.data)-1]
}

// Leaves returns the tree's current raw leaf values.
func (t *Tree) Leaves() []string {
	return append([]string(nil), t.leaves...)
}

// Depth returns the tree's depth.
func (t *Tree) Depth() int {
	return t.depth
}

// Branching returns the tree's branching factor.
func (t *Tree) Branching() int {
	return t.branching
}

// Update replaces the leaf at index and walks the single path to the
// root, rehashing exactly one node per level.
func (t *Tree) Update(index int, newLeaf string) error {
	n := len(t.leaves)
	if index < 0 || index >= n {
		return ErrIndexOutOfBounds
	}
	t.leaves[index] = newLeaf
	t.data[index] = t.hasher.HashString(newLeaf)

	b := t.branching
	i := (index / b) * b
	s := 0
	levelSize := n
	for k := 0; k < t.depth; k++ {
		iN := i / b
		sN := s + levelSize
		children := t.data[s+i : s+i+b]
		t.data[sN+iN] = t.hasher.Hash(children...)
		i = (iN / b) * b
		s = sN
		levelSize = levelSize / b
	}
	return nil
}

// UpdateBatch replaces the contiguous leaf range [start, start+len(newLeaves))
// and, level by level, rehashes exactly the sibling groups that cover the
// changed range.
func (t *Tree) UpdateBatch(start int, newLeaves []string) error {
	n := len(t.leaves)
	d := len(newLeaves)
	if d == 0 {
		return nil
	}
	if start < 0 || start+d > n {
		return ErrIndexOutOfBounds
	}
	for k := 0; k < d; k++ {
		t.leaves[start+k] = newLeaves[k]
		t.data[start+k] = t.hasher.HashString(newLeaves[k])
	}

	b := t.branching
	loLocal, hiLocal := start, start+d-1
	levelStart := 0
	levelSize := n
	for k := 0; k < t.depth; k++ {
		parentStart := levelStart + levelSize
		parentSize := levelSize / b
		loGroup := loLocal / b
		hiGroup := hiLocal / b
		for g := loGroup; g <= hiGroup; g++ {
			children := t.data[levelStart+g*b : levelStart+g*b+b]
			t.data[parentStart+g] = t.hasher.Hash(children...)
		}
		loLocal, hiLocal = loGroup, hiGroup
		levelStart, levelSize = parentStart, parentSize
	}
	return nil
}

// Proof is an inclusion proof for one leaf, valid only for binary
// (branching == 2) trees. Path holds the leaf-to-root bit sequence
// (LSB first); Lemma holds [leafHash, sibling_0, ..., sibling_{depth-1}, root].
type Proof struct {
	Path  []int
	Lemma []*big.Int
}

// GenerateProof builds an inclusion proof for the leaf at index. It is
// only defined for binary trees.
func (t *Tree) GenerateProof(index int) (*Proof, error) {
	if t.branching != 2 {
		return nil, ErrUnsupportedBranching
	}
	n := len(t.leaves)
	if index < 0 || index >= n {
		return nil, ErrIndexOutOfBounds
	}

	path := make([]int, t.depth)
	for i := 0; i < t.depth; i++ {
		path[i] = (index >> uint(i)) & 1
	}

	lemma := make([]*big.Int, 0, t.depth+2)
	lemma = append(lemma, t.data[index])

	offset := 0
	pos := index
	width := n
	for i := 0; i < t.depth; i++ {
		if path[i] == 1 {
			lemma = append(lemma, t.data[offset+pos-1])
		} else {
			lemma = append(lemma, t.data[offset+pos+1])
		}
		pos /= 2
		offset += width
		width /= 2
	}
	lemma = append(lemma, t.GetRoot())

	return &Proof{Path: path, Lemma: lemma}, nil
}

// Verify checks the proof against its own embedded root, recomputing the
// path bottom-up with hasher.
func (p *Proof) Verify(hasher hashfn.Field) bool {
	if len(p.Lemma) != len(p.Path)+2 {
		return false
	}
	cur := p.Lemma[0]
	for i, bit := range p.Path {
		sib := p.Lemma[i+1]
		if bit == 0 {
			cur = hasher.Hash(cur, sib)
		} else {
			cur = hasher.Hash(sib, cur)
		}
	}
	return cur.Cmp(p.Lemma[len(p.Lemma)-1]) == 0
}

// Root returns the root embedded in the proof's lemma.
func (p *Proof) Root() *big.Int {
	return p.Lemma[len(p.Lemma)-1]
}
