package pipeline

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kysee/zkk/attest"
	"github.com/kysee/zkk/config"
	"github.com/kysee/zkk/errs"
	"github.com/kysee/zkk/keys"
	"github.com/kysee/zkk/payload"
	"github.com/kysee/zkk/prover"
	"github.com/kysee/zkk/qr"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
)

type Options struct {
	Network       *chaincfg.Params
	Prover        prover.Config
	PayloadFormat string
	QRLevel       qrcode.RecoveryLevel
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	net, err := keys.Network(cfg.Network)
	if err != nil {
		return Options{}, err
	}
	level, err := qr.ParseLevel(cfg.QR.Level)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Network: net,
		Prover: prover.Config{
			CircuitID:      cfg.Circuit.ID,
			Backend:        cfg.Backend(),
			CircuitPath:    cfg.Artifacts.Circuit,
			ProvingKeyPath: cfg.Artifacts.ProvingKey,
			Timeout:        cfg.Prover.Timeout,
		},
		PayloadFormat: cfg.Payload.Format,
		QRLevel:       level,
	}, nil
}

type Result struct {
	PublicKey   []byte
	Address     string
	Attestation *attest.Attestation
	Payload     string
	Path        string
}

type Pipeline struct {
	opts     Options
	prover   *prover.Prover
	reporter Reporter
	logger   zerolog.Logger
}

func New(opts Options, reporter Reporter, logger zerolog.Logger) *Pipeline {
	if opts.Network == nil {
		opts.Network = &chaincfg.MainNetParams
	}
	return &Pipeline{
		opts:     opts,
		prover:   prover.New(opts.Prover, logger),
		reporter: reporter,
		logger:   logger.With().Str("module", "pipeline").Logger(),
	}
}

// Run takes wif through load, build, prove, encode and present, writing the
// QR code to outPath. The first failing stage ends the run; its error is a
// *errs.StageError and has been reported already.
func (p *Pipeline) Run(ctx context.Context, wif, outPath string) (*Result, error) {
	if outPath == "" {
		outPath = qr.DefaultOutput
	}
	res, err := p.run(ctx, wif, outPath)
	if err != nil {
		p.reporter.Failed(err)
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, wif, outPath string) (*Result, error) {
	res := &Result{Path: outPath}

	// load
	var km *keys.KeyMaterial
	err := p.stage(errs.StageLoad, func() (err error) {
		km, err = keys.Load(wif, p.opts.Network)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer km.Destroy()
	res.PublicKey = append([]byte(nil), km.PublicKey[:]...)
	res.Address = km.Address
	p.reporter.KeyLoaded(km.PublicKeyHex(), km.Address)

	// build
	var in *attest.Input
	err = p.stage(errs.StageBuild, func() error {
		in = attest.Build(km.Secret, km.PublicKey)
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer in.Destroy()
	km.Destroy()

	// prove; input validation failures surface here
	err = p.stage(errs.StageProve, func() (err error) {
		res.Attestation, err = p.prover.Prove(ctx, in)
		return err
	})
	in.Destroy()
	if err != nil {
		return nil, err
	}

	// encode
	var sym *qr.Symbol
	err = p.stage(errs.StageEncode, func() (err error) {
		if res.Payload, err = payload.EncodeAs(p.opts.PayloadFormat, res.Attestation); err != nil {
			return err
		}
		sym, err = qr.New(res.Payload, p.opts.QRLevel)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.reporter.Payload(res.Payload)

	// present
	err = p.stage(errs.StagePresent, func() error {
		p.reporter.QR(sym.Terminal())
		return sym.WriteSVG(outPath)
	})
	if err != nil {
		return nil, err
	}
	p.reporter.FileWritten(outPath)
	return res, nil
}

func (p *Pipeline) stage(stage errs.Stage, fn func() error) error {
	p.reporter.StageStarted(stage)
	start := time.Now()
	if err := fn(); err != nil {
		p.logger.Debug().Str("stage", string(stage)).Dur("elapsed", time.Since(start)).Msg("stage failed")
		return errs.AtStage(stage, err)
	}
	p.reporter.StageFinished(stage, time.Since(start))
	return nil
}
