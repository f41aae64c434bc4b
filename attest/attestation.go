package attest

import (
	"bytes"

	"github.com/holiman/uint256"
)

const CurveBN254 = "bn254"

// Attestation is a produced proof plus its public signals, in circuit order.
type Attestation struct {
	Circuit       string
	Backend       string
	Curve         string
	Digest        string
	Proof         []byte
	PublicSignals []*uint256.Int
}

func (a *Attestation) Equal(o *Attestation) bool {
	if a.Circuit != o.Circuit || a.Backend != o.Backend || a.Curve != o.Curve || a.Digest != o.Digest {
		return false
	}
	if !bytes.Equal(a.Proof, o.Proof) || len(a.PublicSignals) != len(o.PublicSignals) {
		return false
	}
	for i := range a.PublicSignals {
		if !a.PublicSignals[i].Eq(o.PublicSignals[i]) {
			return false
		}
	}
	return true
}

// PublicKey reads the compressed public key from the leading 33 signals,
// which every keyproof/v1 circuit exposes first.
func (a *Attestation) PublicKey() ([]byte, bool) {
	if len(a.PublicSignals) < 33 {
		return nil, false
	}
	pub := make([]byte, 33)
	for i := range pub {
		s := a.PublicSignals[i]
		if !s.IsUint64() || s.Uint64() > 0xff {
			return nil, false
		}
		pub[i] = byte(s.Uint64())
	}
	return pub, true
}
