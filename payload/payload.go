package payload

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/kysee/zkk/attest"
	"github.com/kysee/zkk/errs"
)

const (
	Version = 1

	FormatJSON    = "json"
	FormatCompact = "compact"

	compactPrefix  = "zk"
	compactVersion = 0x01
)

// document fixes the JSON field order; encoding/json emits struct fields in declaration order.
type document struct {
	Version       int      `json:"version"`
	Circuit       string   `json:"circuit"`
	Backend       string   `json:"backend"`
	Curve         string   `json:"curve"`
	Digest        string   `json:"digest"`
	Proof         string   `json:"proof"`
	PublicSignals []string `json:"publicSignals"`
}

// Encode returns the canonical JSON form of a.
func Encode(a *attest.Attestation) (string, error) {
	doc := document{
		Version:       Version,
		Circuit:       a.Circuit,
		Backend:       a.Backend,
		Curve:         a.Curve,
		Digest:        a.Digest,
		Proof:         "0x" + hex.EncodeToString(a.Proof),
		PublicSignals: make([]string, len(a.PublicSignals)),
	}
	for i, s := range a.PublicSignals {
		if s == nil {
			return "", fmt.Errorf("%w: public signal %d is nil", errs.ErrEncodingFailed, i)
		}
		doc.PublicSignals[i] = s.Dec()
	}

	buf := bytes.NewBuffer(nil)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrEncodingFailed, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// EncodeAs encodes a in the named format.
func EncodeAs(format string, a *attest.Attestation) (string, error) {
	switch format {
	case "", FormatJSON:
		return Encode(a)
	case FormatCompact:
		return EncodeCompact(a)
	}
	return "", fmt.Errorf("%w: unknown payload format %q", errs.ErrEncodingFailed, format)
}

// Decode accepts either form produced by this package.
func Decode(s string) (*attest.Attestation, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "{"):
		return decodeJSON(s)
	case strings.HasPrefix(s, compactPrefix):
		return DecodeCompact(s)
	}
	return nil, fmt.Errorf("%w: unrecognized payload", errs.ErrEncodingFailed)
}

func decodeJSON(s string) (*attest.Attestation, error) {
	var doc document
	dec := json.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEncodingFailed, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: payload version %d, expected %d", errs.ErrEncodingFailed, doc.Version, Version)
	}
	if !strings.HasPrefix(doc.Proof, "0x") {
		return nil, fmt.Errorf("%w: proof is not 0x-hex", errs.ErrEncodingFailed)
	}
	proof, err := hex.DecodeString(doc.Proof[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: proof: %v", errs.ErrEncodingFailed, err)
	}

	a := &attest.Attestation{
		Circuit:       doc.Circuit,
		Backend:       doc.Backend,
		Curve:         doc.Curve,
		Digest:        doc.Digest,
		Proof:         proof,
		PublicSignals: make([]*uint256.Int, len(doc.PublicSignals)),
	}
	for i, d := range doc.PublicSignals {
		v, err := uint256.FromDecimal(d)
		if err != nil {
			return nil, fmt.Errorf("%w: public signal %d: %v", errs.ErrEncodingFailed, i, err)
		}
		a.PublicSignals[i] = v
	}
	return a, nil
}

type compactDocument struct {
	Version       uint
	Circuit       string
	Backend       string
	Curve         string
	Digest        []byte
	Proof         []byte
	PublicSignals []*big.Int
}

// EncodeCompact returns "zk" + Base58Check(RLP(a)).
func EncodeCompact(a *attest.Attestation) (string, error) {
	digest, err := hex.DecodeString(a.Digest)
	if err != nil {
		return "", fmt.Errorf("%w: digest: %v", errs.ErrEncodingFailed, err)
	}
	doc := compactDocument{
		Version:       Version,
		Circuit:       a.Circuit,
		Backend:       a.Backend,
		Curve:         a.Curve,
		Digest:        digest,
		Proof:         a.Proof,
		PublicSignals: make([]*big.Int, len(a.PublicSignals)),
	}
	for i, s := range a.PublicSignals {
		if s == nil {
			return "", fmt.Errorf("%w: public signal %d is nil", errs.ErrEncodingFailed, i)
		}
		doc.PublicSignals[i] = s.ToBig()
	}
	bz, err := rlp.EncodeToBytes(&doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrEncodingFailed, err)
	}
	return compactPrefix + base58.CheckEncode(bz, compactVersion), nil
}

func DecodeCompact(s string) (*attest.Attestation, error) {
	if !strings.HasPrefix(s, compactPrefix) {
		return nil, fmt.Errorf("%w: wrong prefix", errs.ErrEncodingFailed)
	}
	bz, ver, err := base58.CheckDecode(s[len(compactPrefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEncodingFailed, err)
	}
	if ver != compactVersion {
		return nil, fmt.Errorf("%w: wrong version: expected(%d), got(%d)", errs.ErrEncodingFailed, compactVersion, ver)
	}

	var doc compactDocument
	if err := rlp.DecodeBytes(bz, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEncodingFailed, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: payload version %d, expected %d", errs.ErrEncodingFailed, doc.Version, Version)
	}

	a := &attest.Attestation{
		Circuit:       doc.Circuit,
		Backend:       doc.Backend,
		Curve:         doc.Curve,
		Digest:        hex.EncodeToString(doc.Digest),
		Proof:         doc.Proof,
		PublicSignals: make([]*uint256.Int, len(doc.PublicSignals)),
	}
	for i, b := range doc.PublicSignals {
		v, overflow := uint256.FromBig(b)
		if overflow {
			return nil, fmt.Errorf("%w: public signal %d overflows uint256", errs.ErrEncodingFailed, i)
		}
		a.PublicSignals[i] = v
	}
	return a, nil
}
