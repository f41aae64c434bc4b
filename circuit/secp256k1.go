package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/algopts"
	"github.com/consensys/gnark/std/algebra/emulated/sw_emulated"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/kysee/zkk/attest"
	"github.com/kysee/zkk/keys"
)

const Secp256k1ID = "secp256k1-v1"

// Secp256k1Circuit proves PubKey = (PrivKeyHi*2^128 + PrivKeyLo) * G on secp256k1,
// with PubKey given as the 33 SEC1 compressed bytes.
type Secp256k1Circuit struct {
	PrivKeyLo frontend.Variable
	PrivKeyHi frontend.Variable

	PubKey [keys.PublicKeySize]frontend.Variable `gnark:",public"`
}

func (cc *Secp256k1Circuit) Define(api frontend.API) error {
	curve, err := sw_emulated.New[emulated.Secp256k1Fp, emulated.Secp256k1Fr](api, sw_emulated.GetSecp256k1Params())
	if err != nil {
		return err
	}
	scalars, err := emulated.NewField[emulated.Secp256k1Fr](api)
	if err != nil {
		return err
	}
	coords, err := emulated.NewField[emulated.Secp256k1Fp](api)
	if err != nil {
		return err
	}

	// little-endian bits: lo first, then hi
	bits := api.ToBinary(cc.PrivKeyLo, 128)
	bits = append(bits, api.ToBinary(cc.PrivKeyHi, 128)...)
	sk := scalars.FromBits(bits...)

	// complete formulas: the incomplete ones divide by zero for small scalars such as 1
	pub := curve.ScalarMulBase(sk, algopts.WithCompleteArithmetic())

	xBits := coords.ToBitsCanonical(&pub.X)
	yBits := coords.ToBitsCanonical(&pub.Y)

	// prefix 0x02 for even y, 0x03 for odd y
	api.AssertIsEqual(cc.PubKey[0], api.Add(2, yBits[0]))
	for i := 0; i < 32; i++ {
		lsb := 8 * (31 - i)
		api.AssertIsEqual(cc.PubKey[1+i], api.FromBinary(xBits[lsb:lsb+8]...))
	}
	return nil
}

type Secp256k1 struct{}

func (Secp256k1) ID() string { return Secp256k1ID }

func (Secp256k1) Placeholder() frontend.Circuit { return &Secp256k1Circuit{} }

func (Secp256k1) NbPublic() int { return keys.PublicKeySize }

func (Secp256k1) Assign(in *attest.Input) (frontend.Circuit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var assignment Secp256k1Circuit
	assignment.PrivKeyLo = in.PrivateKeyLo[:]
	assignment.PrivKeyHi = in.PrivateKeyHi[:]
	assignPubKey(&assignment.PubKey, in.PublicKey)
	return &assignment, nil
}
