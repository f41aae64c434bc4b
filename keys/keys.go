package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
	"github.com/kysee/zkk/errs"
	"github.com/kysee/zkk/utils"
)

const (
	ScalarSize    = 32
	PublicKeySize = 33
)

// Secret holds a private key scalar for the lifetime of one invocation.
type Secret struct {
	scalar    [ScalarSize]byte
	destroyed bool
}

// Limbs returns the scalar as two 128-bit big-endian halves: sk = hi*2^128 + lo.
func (s *Secret) Limbs() (lo, hi [16]byte) {
	copy(hi[:], s.scalar[:16])
	copy(lo[:], s.scalar[16:])
	return
}

func (s *Secret) IsZero() bool {
	for _, b := range s.scalar {
		if b != 0 {
			return false
		}
	}
	return true
}

func (s *Secret) Destroy() {
	utils.Zero(s.scalar[:])
	s.destroyed = true
}

func (s *Secret) Destroyed() bool {
	return s.destroyed
}

// String never prints key material.
func (s *Secret) String() string {
	return "[redacted]"
}

type KeyMaterial struct {
	Secret    *Secret
	PublicKey [PublicKeySize]byte
	Address   string
}

func (km *KeyMaterial) PublicKeyHex() string {
	return hex.EncodeToString(km.PublicKey[:])
}

func (km *KeyMaterial) Destroy() {
	if km.Secret != nil {
		km.Secret.Destroy()
	}
}

// Load decodes a WIF private key and derives its compressed public key and P2PKH address.
// Errors wrap errs.ErrInvalidKeyFormat and never carry any part of the input.
func Load(wif string, net *chaincfg.Params) (*KeyMaterial, error) {
	if net == nil {
		net = &chaincfg.MainNetParams
	}

	w, err := btcutil.DecodeWIF(strings.TrimSpace(wif))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidKeyFormat, decodeReason(err))
	}
	defer wipeBig(w.PrivKey.D)

	if !w.IsForNet(net) {
		return nil, fmt.Errorf("%w: not a %s key", errs.ErrInvalidKeyFormat, net.Name)
	}
	if w.PrivKey.D.Sign() == 0 || w.PrivKey.D.Cmp(btcec.S256().N) >= 0 {
		return nil, fmt.Errorf("%w: scalar out of range", errs.ErrInvalidKeyFormat)
	}

	km := &KeyMaterial{Secret: &Secret{}}
	w.PrivKey.D.FillBytes(km.Secret.scalar[:])
	copy(km.PublicKey[:], w.PrivKey.PubKey().SerializeCompressed())

	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(w.SerializePubKey()), net)
	if err != nil {
		km.Destroy()
		return nil, fmt.Errorf("%w: address derivation", errs.ErrInvalidKeyFormat)
	}
	km.Address = addr.EncodeAddress()
	return km, nil
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, btcutil.ErrChecksumMismatch):
		return "checksum mismatch"
	case errors.Is(err, btcutil.ErrMalformedPrivateKey):
		return "malformed encoding"
	default:
		return "undecodable"
	}
}

func wipeBig(b *big.Int) {
	if b == nil {
		return
	}
	words := b.Bits()
	for i := range words {
		words[i] = 0
	}
	b.SetInt64(0)
}

// Network maps a network name to its chain parameters.
func Network(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(name) {
	case "", "mainnet", "main":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	}
	return nil, fmt.Errorf("unknown network: %s", name)
}
