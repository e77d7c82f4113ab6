// Package fairplay commits to a hidden fleet layout before combat starts so
// a player can check afterwards that the engine never moved its ships.
//
// The layout is flattened to one occupancy bit per cell, hashed into a
// fixed-size MiMC Merkle tree over BN254 and the root is salted. The salted
// root is published when the match starts; the salt and the layout are
// revealed once it is finished.
package fairplay

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	bnmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"github.com/wricardo/seabattle/game/engine"
)

var (
	ErrMismatch    = errors.New("layout does not match commitment")
	ErrBadEncoding = errors.New("malformed commitment value")
)

// saltBytes keeps the salt below the BN254 scalar field modulus
const saltBytes = 31

// Commitment is a salted Merkle root over a board's occupancy bits
type Commitment struct {
	Root   string `json:"root"`
	Salt   string `json:"salt,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Occupancy flattens a fleet to one bit per cell in row-major order
func Occupancy(ships []engine.ShipInfo, width, height int) []uint8 {
	bits := make([]uint8, width*height)
	for _, s := range ships {
		for i := 0; i < s.Length; i++ {
			x, y := s.X, s.Y+i
			if s.Horizontal {
				x, y = s.X+i, s.Y
			}
			if x >= 0 && y >= 0 && x < width && y < height {
				bits[y*width+x] = 1
			}
		}
	}
	return bits
}

// Commit builds a commitment to the fleet using salt read from rnd.
// A nil reader uses crypto/rand.
func Commit(rnd io.Reader, ships []engine.ShipInfo, width, height int) (*Commitment, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid board size %dx%d", width, height)
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	buf := make([]byte, saltBytes)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}
	salt := new(big.Int).SetBytes(buf)

	root, err := saltedRoot(salt, Occupancy(ships, width, height))
	if err != nil {
		return nil, err
	}
	return &Commitment{
		Root:   toHex(root),
		Salt:   toHex(salt),
		Width:  width,
		Height: height,
	}, nil
}

// Verify checks a revealed fleet against a commitment that carries its salt
func Verify(c *Commitment, ships []engine.ShipInfo) error {
	if c == nil || c.Salt == "" {
		return fmt.Errorf("%w: salt not revealed", ErrBadEncoding)
	}
	salt, err := fromHex(c.Salt)
	if err != nil {
		return err
	}
	want, err := fromHex(c.Root)
	if err != nil {
		return err
	}
	got, err := saltedRoot(salt, Occupancy(ships, c.Width, c.Height))
	if err != nil {
		return err
	}
	if got.Cmp(want) != 0 {
		return ErrMismatch
	}
	return nil
}

func saltedRoot(salt *big.Int, bits []uint8) (*big.Int, error) {
	tree, err := BuildTree(bits)
	if err != nil {
		return nil, err
	}
	return hashNode(salt, tree.Root()), nil
}

func toHex(v *big.Int) string { return fmt.Sprintf("0x%x", v) }

func fromHex(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadEncoding, s)
	}
	return v, nil
}

// feBytes encodes a field element as 32 big-endian bytes
func feBytes(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) == 32 {
		return b
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func hashLeaf(bit uint8) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(new(big.Int).SetUint64(uint64(bit))))
	return new(big.Int).SetBytes(h.Sum(nil))
}

func hashNode(left, right *big.Int) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(left))
	h.Write(feBytes(right))
	return new(big.Int).SetBytes(h.Sum(nil))
}
