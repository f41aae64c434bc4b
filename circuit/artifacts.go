package circuit

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"
	"github.com/kysee/zkk/errs"
	"github.com/kysee/zkk/utils"
	"golang.org/x/crypto/blake2s"
)

const (
	DefaultDir              = "circuit"
	DefaultCircuitFile      = "circuit.ccs"
	DefaultProvingKeyFile   = "circuit.pk"
	DefaultVerifyingKeyFile = "circuit.vk"
	SolidityFile            = "Verifier.sol"
)

// Key is the part of groth16/plonk proving and verifying keys used for storage.
type Key interface {
	io.WriterTo
	io.ReaderFrom
}

type Setup struct {
	CircuitID    string
	Backend      Backend
	CCS          constraint.ConstraintSystem
	ProvingKey   Key
	VerifyingKey Key
}

func Compile(def Definition, backend Backend) (constraint.ConstraintSystem, error) {
	var builder frontend.NewBuilder
	switch backend {
	case Groth16:
		builder = r1cs.NewBuilder
	case Plonk:
		builder = scs.NewBuilder
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
	ccs, err := frontend.Compile(utils.CURVEID.ScalarField(), builder, def.Placeholder())
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", def.ID(), err)
	}
	return ccs, nil
}

// RunSetup compiles def and runs a single-party setup.
// The keys are only as trustworthy as the machine that ran it.
func RunSetup(def Definition, backend Backend) (*Setup, error) {
	ccs, err := Compile(def, backend)
	if err != nil {
		return nil, err
	}

	s := &Setup{CircuitID: def.ID(), Backend: backend, CCS: ccs}
	switch backend {
	case Groth16:
		pk, vk, err := groth16.Setup(ccs)
		if err != nil {
			return nil, err
		}
		s.ProvingKey, s.VerifyingKey = pk, vk
	case Plonk:
		// todo: load a ceremony SRS instead of the unsafe one
		srs, srsLagrange, err := unsafekzg.NewSRS(ccs)
		if err != nil {
			return nil, err
		}
		pk, vk, err := plonk.Setup(ccs, srs, srsLagrange)
		if err != nil {
			return nil, err
		}
		s.ProvingKey, s.VerifyingKey = pk, vk
	}
	return s, nil
}

type Paths struct {
	Circuit      string
	ProvingKey   string
	VerifyingKey string
}

func DefaultPaths(dir string) Paths {
	if dir == "" {
		dir = DefaultDir
	}
	return Paths{
		Circuit:      filepath.Join(dir, DefaultCircuitFile),
		ProvingKey:   filepath.Join(dir, DefaultProvingKeyFile),
		VerifyingKey: filepath.Join(dir, DefaultVerifyingKeyFile),
	}
}

func (s *Setup) WriteTo(p Paths) error {
	if err := writeArtifact(p.Circuit, s.CCS); err != nil {
		return err
	}
	if err := writeArtifact(p.ProvingKey, s.ProvingKey); err != nil {
		return err
	}
	return writeArtifact(p.VerifyingKey, s.VerifyingKey)
}

// ExportSolidity writes a Solidity verifier for the verifying key.
func (s *Setup) ExportSolidity(w io.Writer) error {
	switch vk := s.VerifyingKey.(type) {
	case groth16.VerifyingKey:
		return vk.ExportSolidity(w)
	case plonk.VerifyingKey:
		return vk.ExportSolidity(w)
	}
	return errors.New("verifying key cannot be exported")
}

func writeArtifact(path string, v io.WriterTo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrFileWriteFailed, path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrFileWriteFailed, path, err)
	}
	defer f.Close()
	if _, err := v.WriteTo(f); err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrFileWriteFailed, path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %s: %v", errs.ErrFileWriteFailed, path, err)
	}
	return nil
}

// readArtifact loads path into dst and returns the raw bytes. A file that does
// not parse is reported as kind.
func readArtifact(path string, dst io.ReaderFrom, kind error) ([]byte, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrMissingArtifact, path)
	}
	if _, err := dst.ReadFrom(bytes.NewReader(bz)); err != nil {
		return nil, fmt.Errorf("%w: corrupt artifact %s: %v", kind, path, err)
	}
	return bz, nil
}

// Loaded is a constraint system and proving key read from disk.
type Loaded struct {
	Backend    Backend
	CCS        constraint.ConstraintSystem
	ProvingKey Key
	// Digest fingerprints the circuit and proving key files.
	Digest string
}

func Load(backend Backend, circuitPath, provingKeyPath string) (*Loaded, error) {
	var (
		ccs constraint.ConstraintSystem
		pk  Key
	)
	switch backend {
	case Groth16:
		ccs, pk = groth16.NewCS(utils.CURVEID), groth16.NewProvingKey(utils.CURVEID)
	case Plonk:
		ccs, pk = plonk.NewCS(utils.CURVEID), plonk.NewProvingKey(utils.CURVEID)
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}

	// check both files exist before parsing either; proving keys are large
	for _, p := range []string{circuitPath, provingKeyPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %s", errs.ErrMissingArtifact, p)
		}
	}

	ccsBytes, err := readArtifact(circuitPath, ccs, errs.ErrProofGenerationFailed)
	if err != nil {
		return nil, err
	}
	pkBytes, err := readArtifact(provingKeyPath, pk, errs.ErrProofGenerationFailed)
	if err != nil {
		return nil, err
	}
	return &Loaded{
		Backend:    backend,
		CCS:        ccs,
		ProvingKey: pk,
		Digest:     Digest(ccsBytes, pkBytes),
	}, nil
}

func LoadVerifyingKey(backend Backend, path string) (Key, error) {
	var vk Key
	switch backend {
	case Groth16:
		vk = groth16.NewVerifyingKey(utils.CURVEID)
	case Plonk:
		vk = plonk.NewVerifyingKey(utils.CURVEID)
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
	if _, err := readArtifact(path, vk, errs.ErrVerificationFailed); err != nil {
		return nil, err
	}
	return vk, nil
}

// Digest is the hex BLAKE2s-256 of the concatenated artifacts, each length-prefixed.
func Digest(artifacts ...[]byte) string {
	h, _ := blake2s.New256(nil)
	for _, a := range artifacts {
		var l [8]byte
		binary.BigEndian.PutUint64(l[:], uint64(len(a)))
		h.Write(l[:])
		h.Write(a)
	}
	return hex.EncodeToString(h.Sum(nil))
}
