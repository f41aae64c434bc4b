package attest

import (
	"encoding/hex"
	"fmt"

	"github.com/kysee/zkk/errs"
	"github.com/kysee/zkk/keys"
	"github.com/kysee/zkk/utils"
)

// InterfaceVersion names the circuit input layout the fields below follow.
// Changing a field here means a new version and new circuit artifacts.
const InterfaceVersion = "zkk/keyproof/v1"

const (
	SignalPrivateKey = "privateKey"
	SignalPublicKey  = "publicKey"
)

// Input is the named-signal assignment handed to the prover.
//
//	privateKey -> PrivateKeyHi*2^128 + PrivateKeyLo
//	publicKey  -> PublicKey (SEC1 compressed)
type Input struct {
	Version      string
	PrivateKeyLo [16]byte
	PrivateKeyHi [16]byte
	PublicKey    [keys.PublicKeySize]byte
}

func Build(secret *keys.Secret, pubKey [keys.PublicKeySize]byte) *Input {
	lo, hi := secret.Limbs()
	return &Input{
		Version:      InterfaceVersion,
		PrivateKeyLo: lo,
		PrivateKeyHi: hi,
		PublicKey:    pubKey,
	}
}

func (in *Input) Validate() error {
	if in == nil {
		return fmt.Errorf("%w: nil input", errs.ErrInvalidInput)
	}
	if in.Version != InterfaceVersion {
		return fmt.Errorf("%w: interface %q, expected %q", errs.ErrInvalidInput, in.Version, InterfaceVersion)
	}
	if isZero(in.PrivateKeyLo[:]) && isZero(in.PrivateKeyHi[:]) {
		return fmt.Errorf("%w: %s is not set", errs.ErrInvalidInput, SignalPrivateKey)
	}
	if p := in.PublicKey[0]; p != 0x02 && p != 0x03 {
		return fmt.Errorf("%w: %s is not a compressed point", errs.ErrInvalidInput, SignalPublicKey)
	}
	return nil
}

// Fields returns the named signals with the private value redacted.
func (in *Input) Fields() map[string]string {
	return map[string]string{
		SignalPrivateKey: "[redacted]",
		SignalPublicKey:  hex.EncodeToString(in.PublicKey[:]),
	}
}

func (in *Input) Destroy() {
	utils.Zero(in.PrivateKeyLo[:])
	utils.Zero(in.PrivateKeyHi[:])
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
