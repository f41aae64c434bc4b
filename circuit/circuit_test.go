package circuit

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
	"github.com/consensys/gnark/test"
	"github.com/kysee/zkk/attest"
	"github.com/kysee/zkk/errs"
	"github.com/kysee/zkk/keys"
	"github.com/kysee/zkk/utils"
	"github.com/stretchr/testify/require"
)

func key1Input(t *testing.T) *attest.Input {
	km, err := keys.Load("KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn", nil)
	require.NoError(t, err)
	defer km.Destroy()
	return attest.Build(km.Secret, km.PublicKey)
}

func randomInput(t *testing.T) *attest.Input {
	sk, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)
	wif, err := btcutil.NewWIF(sk, &chaincfg.MainNetParams, true)
	require.NoError(t, err)

	km, err := keys.Load(wif.String(), nil)
	require.NoError(t, err)
	defer km.Destroy()
	return attest.Build(km.Secret, km.PublicKey)
}

func TestRegistry(t *testing.T) {
	require.Equal(t, []string{KeyHashID, Secp256k1ID}, IDs())

	def, err := Lookup(KeyHashID)
	require.NoError(t, err)
	require.Equal(t, KeyHashID, def.ID())
	require.Equal(t, 34, def.NbPublic())

	_, err = Lookup("sha256-v1")
	require.ErrorContains(t, err, "unknown circuit")

	b, err := ParseBackend("PLONK")
	require.NoError(t, err)
	require.Equal(t, Plonk, b)
	_, err = ParseBackend("stark")
	require.Error(t, err)
}

func TestKeyHashCircuit(t *testing.T) {
	in := key1Input(t)

	assignment, err := KeyHash{}.Assign(in)
	require.NoError(t, err)
	require.NoError(t, test.IsSolved(&KeyHashCircuit{}, assignment, utils.CURVEID.ScalarField()))

	// a different public key must not satisfy the commitment
	bad := *in
	bad.PublicKey[5] ^= 0x01
	wrong := assignment.(*KeyHashCircuit)
	assignPubKey(&wrong.PubKey, bad.PublicKey)
	require.Error(t, test.IsSolved(&KeyHashCircuit{}, wrong, utils.CURVEID.ScalarField()))
}

func TestAssignRejectsInvalidInput(t *testing.T) {
	in := key1Input(t)
	in.Version = "other"
	_, err := KeyHash{}.Assign(in)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = Secp256k1{}.Assign(in)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func scalarInput(t *testing.T, scalar *big.Int) *attest.Input {
	raw := make([]byte, 32)
	scalar.FillBytes(raw)
	sk, _ := btcec.PrivKeyFromBytes(btcec.S256(), raw)
	wif, err := btcutil.NewWIF(sk, &chaincfg.MainNetParams, true)
	require.NoError(t, err)

	km, err := keys.Load(wif.String(), nil)
	require.NoError(t, err)
	defer km.Destroy()
	return attest.Build(km.Secret, km.PublicKey)
}

func TestSecp256k1Circuit(t *testing.T) {
	if testing.Short() {
		t.Skip("emulated secp256k1 arithmetic is slow")
	}
	n := btcec.S256().N
	inputs := map[string]*attest.Input{
		"one":    scalarInput(t, big.NewInt(1)),
		"two":    scalarInput(t, big.NewInt(2)),
		"n-1":    scalarInput(t, new(big.Int).Sub(n, big.NewInt(1))),
		"random": randomInput(t),
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			assignment, err := Secp256k1{}.Assign(in)
			require.NoError(t, err)
			require.NoError(t, test.IsSolved(&Secp256k1Circuit{}, assignment, utils.CURVEID.ScalarField()))

			// flip the parity prefix
			wrong := assignment.(*Secp256k1Circuit)
			wrong.PubKey[0] = []byte{in.PublicKey[0] ^ 0x01}
			require.Error(t, test.IsSolved(&Secp256k1Circuit{}, wrong, utils.CURVEID.ScalarField()))
		})
	}
}

func TestSetupArtifacts(t *testing.T) {
	for _, backend := range []Backend{Groth16, Plonk} {
		s, err := RunSetup(KeyHash{}, backend)
		require.NoError(t, err)

		paths := DefaultPaths(filepath.Join(t.TempDir(), string(backend)))
		require.NoError(t, s.WriteTo(paths))

		loaded, err := Load(backend, paths.Circuit, paths.ProvingKey)
		require.NoError(t, err)
		require.Equal(t, s.CCS.GetNbConstraints(), loaded.CCS.GetNbConstraints())
		require.Len(t, loaded.Digest, 64)

		_, err = LoadVerifyingKey(backend, paths.VerifyingKey)
		require.NoError(t, err)

		var sol bytes.Buffer
		require.NoError(t, s.ExportSolidity(&sol))
		require.Contains(t, sol.String(), "pragma solidity")
	}
}

func TestLoadMissing(t *testing.T) {
	paths := DefaultPaths(t.TempDir())
	_, err := Load(Groth16, paths.Circuit, paths.ProvingKey)
	require.ErrorIs(t, err, errs.ErrMissingArtifact)
	require.ErrorContains(t, err, paths.Circuit)

	_, err = LoadVerifyingKey(Groth16, paths.VerifyingKey)
	require.ErrorIs(t, err, errs.ErrMissingArtifact)
}

func TestLoadCorrupt(t *testing.T) {
	s, err := RunSetup(KeyHash{}, Groth16)
	require.NoError(t, err)
	paths := DefaultPaths(t.TempDir())
	require.NoError(t, s.WriteTo(paths))

	truncate := func(path string) {
		bz, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, bz[:len(bz)/2], 0o644))
	}
	truncate(paths.VerifyingKey)
	truncate(paths.ProvingKey)

	_, err = LoadVerifyingKey(Groth16, paths.VerifyingKey)
	require.ErrorIs(t, err, errs.ErrVerificationFailed)
	require.NotErrorIs(t, err, errs.ErrProofGenerationFailed)
	require.ErrorContains(t, err, "corrupt artifact")

	_, err = Load(Groth16, paths.Circuit, paths.ProvingKey)
	require.ErrorIs(t, err, errs.ErrProofGenerationFailed)
}

func TestDigest(t *testing.T) {
	require.Equal(t, Digest([]byte("ab"), []byte("c")), Digest([]byte("ab"), []byte("c")))
	require.NotEqual(t, Digest([]byte("ab"), []byte("c")), Digest([]byte("a"), []byte("bc")))
}
