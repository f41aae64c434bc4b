package keys

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/btcutil/base58"
	"github.com/kysee/zkk/errs"
	"github.com/stretchr/testify/require"
)

// private key 1
const (
	wifCompressed   = "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"
	wifUncompressed = "5HpHagT65TZzG1PH3CSu63k8DbpvD8s5ip4nEB3kEsreAnchuDf"
	pubKey1         = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	addrCompressed  = "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"
	addrUncompress  = "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm"
)

func TestLoadKnownVectors(t *testing.T) {
	km, err := Load(wifCompressed, nil)
	require.NoError(t, err)
	require.Equal(t, pubKey1, km.PublicKeyHex())
	require.Equal(t, addrCompressed, km.Address)

	lo, hi := km.Secret.Limbs()
	require.Equal(t, [16]byte{}, hi)
	require.Equal(t, byte(1), lo[15])

	km, err = Load(wifUncompressed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	// the circuit interface always takes the compressed key
	require.Equal(t, pubKey1, km.PublicKeyHex())
	require.Equal(t, addrUncompress, km.Address)
}

func TestLoadDeterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		raw := make([]byte, 32)
		raw[0] = byte(i + 1)
		raw[31] = byte(7 * i)
		priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), raw)
		w, err := btcutil.NewWIF(priv, &chaincfg.MainNetParams, true)
		require.NoError(t, err)

		km0, err := Load(w.String(), nil)
		require.NoError(t, err)
		km1, err := Load(w.String(), nil)
		require.NoError(t, err)

		require.Equal(t, km0.PublicKey, km1.PublicKey)
		require.Equal(t, km0.Address, km1.Address)
		require.Equal(t, priv.PubKey().SerializeCompressed(), km0.PublicKey[:])
	}
}

func TestLoadMalformed(t *testing.T) {
	last := wifCompressed[len(wifCompressed)-1]
	swapped := byte('o')
	if last == swapped {
		swapped = 'p'
	}

	testnetKey, _ := btcec.PrivKeyFromBytes(btcec.S256(), bytes.Repeat([]byte{0x11}, 32))
	testnetWIF, err := btcutil.NewWIF(testnetKey, &chaincfg.TestNet3Params, true)
	require.NoError(t, err)

	cases := map[string]string{
		"bad checksum":   wifCompressed[:len(wifCompressed)-1] + string(swapped),
		"bad alphabet":   "0OIl" + wifCompressed[4:],
		"too short":      wifCompressed[:20],
		"too long":       wifCompressed + "1111",
		"empty":          "",
		"wrong network":  testnetWIF.String(),
		"zero scalar":    base58.CheckEncode(append(make([]byte, 32), 0x01), chaincfg.MainNetParams.PrivateKeyID),
		"scalar above n": base58.CheckEncode(append(bytes.Repeat([]byte{0xff}, 32), 0x01), chaincfg.MainNetParams.PrivateKeyID),
		"bad compress":   base58.CheckEncode(append(bytes.Repeat([]byte{0x11}, 32), 0x02), chaincfg.MainNetParams.PrivateKeyID),
	}
	for name, wif := range cases {
		km, err := Load(wif, nil)
		require.ErrorIs(t, err, errs.ErrInvalidKeyFormat, name)
		require.Nil(t, km, name)
		if len(wif) > 8 {
			require.False(t, strings.Contains(err.Error(), wif[4:len(wif)-4]), name)
		}
	}
}

func TestLoadTestnet(t *testing.T) {
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), bytes.Repeat([]byte{0x22}, 32))
	w, err := btcutil.NewWIF(priv, &chaincfg.TestNet3Params, true)
	require.NoError(t, err)

	net, err := Network("testnet")
	require.NoError(t, err)
	km, err := Load(w.String(), net)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(km.Address, "m") || strings.HasPrefix(km.Address, "n"))

	_, err = Network("litecoin")
	require.Error(t, err)
}

func TestSecretDestroy(t *testing.T) {
	km, err := Load(wifCompressed, nil)
	require.NoError(t, err)
	require.False(t, km.Secret.IsZero())
	require.Equal(t, "[redacted]", km.Secret.String())

	km.Destroy()
	require.True(t, km.Secret.IsZero())
	require.True(t, km.Secret.Destroyed())
	// idempotent
	km.Destroy()
	require.True(t, km.Secret.IsZero())

	// public parts survive
	require.Equal(t, pubKey1, hex.EncodeToString(km.PublicKey[:]))
}
