package circuit

import (
	"github.com/consensys/gnark/frontend"
	std_mimc "github.com/consensys/gnark/std/hash/mimc"
	"github.com/kysee/zkk/attest"
	"github.com/kysee/zkk/keys"
	"github.com/kysee/zkk/utils"
)

const KeyHashID = "mimc-v1"

// KeyHashCircuit proves knowledge of x such that KeyHash = MiMC(x.hi, x.lo, PubKey...).
// It does not relate x to PubKey by curve arithmetic; it binds them by hash only.
type KeyHashCircuit struct {
	PrivKeyLo frontend.Variable
	PrivKeyHi frontend.Variable

	PubKey  [keys.PublicKeySize]frontend.Variable `gnark:",public"`
	KeyHash frontend.Variable                     `gnark:",public"`
}

func (cc *KeyHashCircuit) Define(api frontend.API) error {
	_ = api.ToBinary(cc.PrivKeyLo, 128)
	_ = api.ToBinary(cc.PrivKeyHi, 128)
	for i := range cc.PubKey {
		_ = api.ToBinary(cc.PubKey[i], 8)
	}

	hasher, err := std_mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(cc.PrivKeyHi, cc.PrivKeyLo)
	hasher.Write(cc.PubKey[:]...)
	api.AssertIsEqual(cc.KeyHash, hasher.Sum())
	return nil
}

type KeyHash struct{}

func (KeyHash) ID() string { return KeyHashID }

func (KeyHash) Placeholder() frontend.Circuit { return &KeyHashCircuit{} }

func (KeyHash) NbPublic() int { return keys.PublicKeySize + 1 }

func (KeyHash) Assign(in *attest.Input) (frontend.Circuit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var assignment KeyHashCircuit
	assignment.PrivKeyLo = in.PrivateKeyLo[:]
	assignment.PrivKeyHi = in.PrivateKeyHi[:]
	assignPubKey(&assignment.PubKey, in.PublicKey)
	assignment.KeyHash = ComputeKeyHash(in)
	return &assignment, nil
}

// ComputeKeyHash is the off-circuit value of KeyHashCircuit.KeyHash.
func ComputeKeyHash(in *attest.Input) []byte {
	ins := [][]byte{in.PrivateKeyHi[:], in.PrivateKeyLo[:]}
	ins = append(ins, utils.SplitBytes(in.PublicKey[:])...)
	return utils.MiMCHashElements(ins...)
}

func assignPubKey(dst *[keys.PublicKeySize]frontend.Variable, pubKey [keys.PublicKeySize]byte) {
	for i := range dst {
		dst[i] = pubKey[i : i+1]
	}
}
