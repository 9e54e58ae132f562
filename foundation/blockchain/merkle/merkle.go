// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain.
package merkle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable interface {
	Hash() signature.Hash
}

// Tree represents a merkle tree built level by level from the hashes of
// values of some type T. Odd levels duplicate their last node.
type Tree[T Hashable] struct {
	values []T
	levels [][]signature.Hash
}

// NewTree constructs a new merkle tree from the specified values.
func NewTree[T Hashable](values []T) (*Tree[T], error) {
	if len(values) == 0 {
		return nil, errors.New("cannot construct tree with no content")
	}

	leafs := make([]signature.Hash, len(values))
	for i, value := range values {
		leafs[i] = value.Hash()
	}

	t := Tree[T]{
		values: values,
		levels: [][]signature.Hash{leafs},
	}

	for level := leafs; len(level) > 1 || len(t.levels) == 1; {
		level = buildIntermediate(level)
		t.levels = append(t.levels, level)
	}

	return &t, nil
}

// Root returns the merkle root of the tree.
func (t *Tree[T]) Root() signature.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Values returns a slice of unique values stored in the tree.
func (t *Tree[T]) Values() []T {
	return t.values
}

// Depth returns the number of levels above the leafs.
func (t *Tree[T]) Depth() int {
	return len(t.levels) - 1
}

// Proof returns the sibling hashes needed to recompute the root from the
// value at the given index. The order slice reports for each sibling
// whether it sits on the left.
func (t *Tree[T]) Proof(index int) ([]signature.Hash, []bool, error) {
	if index < 0 || index >= len(t.values) {
		return nil, nil, fmt.Errorf("index %d out of range for %d values", index, len(t.values))
	}

	var (
		proof []signature.Hash
		left  []bool
	)

	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling >= len(level) {
			sibling = index
		}

		proof = append(proof, level[sibling])
		left = append(left, sibling < index)
		index /= 2
	}

	return proof, left, nil
}

// String returns a string representation of the tree levels.
func (t *Tree[T]) String() string {
	var b strings.Builder
	for i, level := range t.levels {
		fmt.Fprintf(&b, "level %d:", i)
		for _, h := range level {
			fmt.Fprintf(&b, " %s", h)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// =============================================================================

// Root computes the merkle root for the values without keeping the tree.
func Root[T Hashable](values []T) (signature.Hash, error) {
	t, err := NewTree(values)
	if err != nil {
		return signature.Hash{}, err
	}

	return t.Root(), nil
}

// VerifyProof recomputes the root from a leaf hash and its proof.
func VerifyProof(leaf signature.Hash, proof []signature.Hash, left []bool, root signature.Hash) bool {
	if len(proof) != len(left) {
		return false
	}

	h := leaf
	for i, sibling := range proof {
		switch left[i] {
		case true:
			h = signature.Sum(sibling[:], h[:])
		default:
			h = signature.Sum(h[:], sibling[:])
		}
	}

	return h == root
}

// buildIntermediate hashes pairs of nodes into the next level up. A
// trailing node without a partner is paired with itself.
func buildIntermediate(level []signature.Hash) []signature.Hash {
	next := make([]signature.Hash, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		right := i + 1
		if right == len(level) {
			right = i
		}

		next = append(next, signature.Sum(level[i][:], level[right][:]))
	}

	return next
}
