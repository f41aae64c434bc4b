package verifier

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/plonk"
	plonk_bn254 "github.com/consensys/gnark/backend/plonk/bn254"
	"github.com/consensys/gnark/backend/witness"
	"github.com/kysee/zkk/attest"
	"github.com/kysee/zkk/circuit"
	"github.com/kysee/zkk/errs"
	"github.com/kysee/zkk/utils"
)

// Verify checks a against vk. It needs nothing but the proof, the public
// signals and the verifying key; the circuit definition is not consulted.
func Verify(a *attest.Attestation, vk circuit.Key) error {
	if a.Curve != attest.CurveBN254 {
		return fmt.Errorf("%w: unsupported curve %q", errs.ErrVerificationFailed, a.Curve)
	}
	backend, err := circuit.ParseBackend(a.Backend)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrVerificationFailed, err)
	}

	pubWtn, err := publicWitness(a)
	if err != nil {
		return fmt.Errorf("%w: public signals: %v", errs.ErrVerificationFailed, err)
	}

	// gnark's Verify casts to the concrete bn254 key; an interface check alone
	// lets a groth16 key through to plonk.Verify, which then panics
	switch backend {
	case circuit.Groth16:
		_vk, ok := vk.(*groth16_bn254.VerifyingKey)
		if !ok {
			return fmt.Errorf("%w: not a groth16 bn254 verifying key", errs.ErrVerificationFailed)
		}
		proof := groth16.NewProof(utils.CURVEID)
		if _, err := proof.ReadFrom(bytes.NewReader(a.Proof)); err != nil {
			return fmt.Errorf("%w: proof: %v", errs.ErrVerificationFailed, err)
		}
		err = groth16.Verify(proof, _vk, pubWtn)
	case circuit.Plonk:
		_vk, ok := vk.(*plonk_bn254.VerifyingKey)
		if !ok {
			return fmt.Errorf("%w: not a plonk bn254 verifying key", errs.ErrVerificationFailed)
		}
		proof := plonk.NewProof(utils.CURVEID)
		if _, err := proof.ReadFrom(bytes.NewReader(a.Proof)); err != nil {
			return fmt.Errorf("%w: proof: %v", errs.ErrVerificationFailed, err)
		}
		err = plonk.Verify(proof, _vk, pubWtn)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrVerificationFailed, err)
	}
	return nil
}

// VerifyFor is Verify plus a check that the attestation is about pubKey.
func VerifyFor(a *attest.Attestation, vk circuit.Key, pubKey []byte) error {
	got, ok := a.PublicKey()
	if !ok || !bytes.Equal(got, pubKey) {
		return fmt.Errorf("%w: attestation is for a different public key", errs.ErrVerificationFailed)
	}
	return Verify(a, vk)
}

func publicWitness(a *attest.Attestation) (witness.Witness, error) {
	w, err := witness.New(utils.CURVEID.ScalarField())
	if err != nil {
		return nil, err
	}
	values := make(chan any, len(a.PublicSignals))
	for _, s := range a.PublicSignals {
		values <- s.ToBig()
	}
	close(values)
	if err := w.Fill(len(a.PublicSignals), 0, values); err != nil {
		return nil, err
	}
	return w, nil
}
