package prover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/plonk"
	plonk_bn254 "github.com/consensys/gnark/backend/plonk/bn254"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"
	"github.com/holiman/uint256"
	"github.com/kysee/zkk/attest"
	"github.com/kysee/zkk/circuit"
	"github.com/kysee/zkk/errs"
	"github.com/kysee/zkk/utils"
	"github.com/rs/zerolog"
)

type Config struct {
	CircuitID      string
	Backend        circuit.Backend
	CircuitPath    string
	ProvingKeyPath string
	// Timeout bounds proof generation; zero means no bound.
	Timeout time.Duration
}

type Prover struct {
	cfg    Config
	logger zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Prover {
	return &Prover{cfg: cfg, logger: logger.With().Str("module", "prover").Logger()}
}

// Prove loads the circuit artifacts and proves in. The private limbs of in are
// only copied into the witness, which is zeroed as soon as proving ends.
func (p *Prover) Prove(ctx context.Context, in *attest.Input) (*attest.Attestation, error) {
	def, err := circuit.Lookup(p.cfg.CircuitID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrProofGenerationFailed, err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	loaded, err := circuit.Load(p.cfg.Backend, p.cfg.CircuitPath, p.cfg.ProvingKeyPath)
	if err != nil {
		return nil, err
	}
	p.logger.Debug().
		Str("circuit", def.ID()).
		Str("backend", string(loaded.Backend)).
		Int("constraints", loaded.CCS.GetNbConstraints()).
		Str("digest", loaded.Digest).
		Msg("artifacts loaded")

	assignment, err := def.Assign(in)
	if err != nil {
		return nil, err
	}
	wtn, err := frontend.NewWitness(assignment, utils.CURVEID.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: witness: %v", errs.ErrProofGenerationFailed, err)
	}

	// public signals are copied out first; the witness is wiped once proving ends
	pubWtn, err := wtn.Public()
	if err != nil {
		wipeWitness(wtn)
		return nil, fmt.Errorf("%w: public witness: %v", errs.ErrProofGenerationFailed, err)
	}
	signals, err := signalsOf(pubWtn)
	if err != nil {
		wipeWitness(wtn)
		return nil, err
	}
	if len(signals) != def.NbPublic() {
		wipeWitness(wtn)
		return nil, fmt.Errorf("%w: %d public signals, circuit %s declares %d",
			errs.ErrProofGenerationFailed, len(signals), def.ID(), def.NbPublic())
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	proof, err := p.proveWithContext(ctx, loaded, wtn)
	if err != nil {
		return nil, err
	}
	p.logger.Debug().Dur("elapsed", time.Since(start)).Msg("proof generated")

	bufProof := bytes.NewBuffer(nil)
	if _, err := proof.WriteTo(bufProof); err != nil {
		return nil, fmt.Errorf("%w: serialize proof: %v", errs.ErrProofGenerationFailed, err)
	}

	return &attest.Attestation{
		Circuit:       def.ID(),
		Backend:       string(loaded.Backend),
		Curve:         attest.CurveBN254,
		Digest:        loaded.Digest,
		Proof:         bufProof.Bytes(),
		PublicSignals: signals,
	}, nil
}

func (p *Prover) proveWithContext(ctx context.Context, loaded *circuit.Loaded, wtn witness.Witness) (io.WriterTo, error) {
	type result struct {
		proof io.WriterTo
		err   error
	}
	if err := ctx.Err(); err != nil {
		wipeWitness(wtn)
		return nil, fmt.Errorf("%w: %v", errs.ErrProofGenerationFailed, err)
	}

	done := make(chan result, 1)
	go func() {
		proof, err := p.prove(loaded, wtn)
		wipeWitness(wtn)
		done <- result{proof, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", errs.ErrProofGenerationFailed, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrProofGenerationFailed, r.err)
		}
		return r.proof, nil
	}
}

func (p *Prover) prove(loaded *circuit.Loaded, wtn witness.Witness) (io.WriterTo, error) {
	// solver output can carry witness values; only let it through at trace
	solverLogger := zerolog.Nop()
	if p.logger.GetLevel() == zerolog.TraceLevel {
		solverLogger = p.logger.With().Str("module", "solver").Logger()
	}
	opt := backend.WithSolverOptions(solver.WithLogger(solverLogger))

	switch loaded.Backend {
	case circuit.Groth16:
		pk, ok := loaded.ProvingKey.(*groth16_bn254.ProvingKey)
		if !ok {
			return nil, fmt.Errorf("proving key is not a groth16 key")
		}
		return groth16.Prove(loaded.CCS, pk, wtn, opt)
	case circuit.Plonk:
		pk, ok := loaded.ProvingKey.(*plonk_bn254.ProvingKey)
		if !ok {
			return nil, fmt.Errorf("proving key is not a plonk key")
		}
		return plonk.Prove(loaded.CCS, pk, wtn, opt)
	}
	return nil, fmt.Errorf("unknown backend: %s", loaded.Backend)
}

func signalsOf(pubWtn witness.Witness) ([]*uint256.Int, error) {
	vec, ok := pubWtn.Vector().(fr.Vector)
	if !ok {
		return nil, fmt.Errorf("%w: public witness is not a bn254 vector", errs.ErrProofGenerationFailed)
	}
	signals := make([]*uint256.Int, len(vec))
	for i := range vec {
		b := vec[i].Bytes()
		signals[i] = new(uint256.Int).SetBytes32(b[:])
	}
	return signals, nil
}

func wipeWitness(wtn witness.Witness) {
	if vec, ok := wtn.Vector().(fr.Vector); ok {
		for i := range vec {
			vec[i].SetZero()
		}
	}
}
