package utils

import (
	"hash"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	_ "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	gnark_hash "github.com/consensys/gnark-crypto/hash"
)

var (
	CURVEID = ecc.BN254
)

func MiMCHasher() hash.Hash {
	return gnark_hash.MIMC_BN254.New()
}

// MiMCHashElements hashes each input as one field element, in order.
// It matches std/hash/mimc in a circuit fed with the same variables.
func MiMCHashElements(ins ...[]byte) []byte {
	hasher := MiMCHasher()
	hasher.Reset()
	for _, in := range ins {
		// SetBytes reduces; inputs here are limbs and bytes, always below the modulus
		var elem fr.Element
		elem.SetBytes(in)
		b := elem.Marshal()
		if _, err := hasher.Write(b); err != nil {
			panic(err)
		}
	}
	return hasher.Sum(nil)
}

// SplitBytes returns b as a slice of one-byte slices.
func SplitBytes(b []byte) [][]byte {
	ret := make([][]byte, len(b))
	for i := range b {
		ret[i] = b[i : i+1]
	}
	return ret
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
