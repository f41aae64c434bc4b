package verifier

import (
	"bytes"
	"fmt"
	"io"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/kysee/zkk/attest"
	"github.com/kysee/zkk/circuit"
	"github.com/kysee/zkk/errs"
	"github.com/kysee/zkk/utils"
)

// ProofData is an attestation laid out for the exported Solidity verifier.
type ProofData struct {
	Proof        string   `json:"proof"`        // hex, as MarshalSolidity lays it out
	PublicInputs []string `json:"publicInputs"` // in circuit order
}

type solidityProof interface {
	io.ReaderFrom
	MarshalSolidity() []byte
}

func SolidityCalldata(a *attest.Attestation) (*ProofData, error) {
	backend, err := circuit.ParseBackend(a.Backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEncodingFailed, err)
	}

	var proof any
	switch backend {
	case circuit.Groth16:
		proof = groth16.NewProof(utils.CURVEID)
	case circuit.Plonk:
		proof = plonk.NewProof(utils.CURVEID)
	}
	sp, ok := proof.(solidityProof)
	if !ok {
		return nil, fmt.Errorf("%w: %s proof has no solidity layout", errs.ErrEncodingFailed, backend)
	}
	if _, err := sp.ReadFrom(bytes.NewReader(a.Proof)); err != nil {
		return nil, fmt.Errorf("%w: proof: %v", errs.ErrEncodingFailed, err)
	}

	pd := &ProofData{
		Proof:        fmt.Sprintf("0x%x", sp.MarshalSolidity()),
		PublicInputs: make([]string, len(a.PublicSignals)),
	}
	for i, s := range a.PublicSignals {
		pd.PublicInputs[i] = fmt.Sprintf("0x%064x", s.ToBig())
	}
	return pd, nil
}
