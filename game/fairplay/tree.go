package fairplay

import (
	"errors"
	"math/big"
)

// Tree is a fixed-size binary Merkle tree stored level by level.
// Levels[0] holds the leaves and the last level holds the root.
type Tree struct {
	Levels [][]*big.Int
}

// BuildTree hashes the bits into leaves, pads to the next power of two with
// zero leaves and merges pairwise up to the root.
func BuildTree(bits []uint8) (*Tree, error) {
	if len(bits) == 0 {
		return nil, errors.New("no leaves")
	}
	size := 1
	for size < len(bits) {
		size <<= 1
	}

	zero := hashLeaf(0)
	one := hashLeaf(1)
	leaves := make([]*big.Int, size)
	for i := range leaves {
		switch {
		case i < len(bits) && bits[i] != 0:
			leaves[i] = one
		default:
			leaves[i] = zero
		}
	}

	levels := [][]*big.Int{leaves}
	for n := size; n > 1; n /= 2 {
		prev := levels[len(levels)-1]
		up := make([]*big.Int, n/2)
		for i := range up {
			up[i] = hashNode(prev[2*i], prev[2*i+1])
		}
		levels = append(levels, up)
	}
	return &Tree{Levels: levels}, nil
}

// Root returns a copy of the root hash
func (t *Tree) Root() *big.Int {
	return new(big.Int).Set(t.Levels[len(t.Levels)-1][0])
}
