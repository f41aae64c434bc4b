// Command zkk proves knowledge of the private key behind a Bitcoin WIF and
// hands the proof out as a QR code.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kysee/zkk/circuit"
	"github.com/kysee/zkk/config"
	"github.com/kysee/zkk/logging"
	"github.com/kysee/zkk/payload"
	"github.com/kysee/zkk/pipeline"
	"github.com/kysee/zkk/qr"
	"github.com/kysee/zkk/verifier"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	cfg        *config.Config
	logger     zerolog.Logger
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var outPath string

	rootCmd := &cobra.Command{
		Use:   "zkk <WIF>",
		Short: "Prove ownership of a Bitcoin private key without revealing it",
		Long: `zkk decodes a WIF private key, proves in zero knowledge that it knows the
scalar behind the derived public key, and prints the proof as JSON and as a
QR code. The QR code is also written to an SVG file.

Circuit artifacts must exist first; create them with "zkk setup".`,
		Args:              cobra.ExactArgs(1),
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := pipeline.OptionsFromConfig(a.cfg)
			if err != nil {
				return err
			}
			reporter := pipeline.NewConsoleReporter(cmd.OutOrStdout(), a.logger)
			// the pipeline reports its own failure
			cmd.SilenceErrors = true
			_, err = pipeline.New(opts, reporter, a.logger).Run(context.Background(), args[0], outPath)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $"+config.EnvConfigPath+")")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", qr.DefaultOutput, "output SVG file for the QR code")

	rootCmd.AddCommand(
		setupCmd(a),
		verifyCmd(a),
	)
	return rootCmd
}

func setupCmd(a *app) *cobra.Command {
	var (
		circuitID string
		backend   string
		outDir    string
		solidity  bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Compile a circuit and generate its proving and verifying keys",
		Long: `Compile the chosen circuit and run a single-party setup.
This writes circuit.ccs, circuit.pk and circuit.vk to the output directory.

The setup is test grade: whoever ran it could forge proofs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if circuitID == "" {
				circuitID = a.cfg.Circuit.ID
			}
			if backend == "" {
				backend = a.cfg.Circuit.Backend
			}
			def, err := circuit.Lookup(circuitID)
			if err != nil {
				return err
			}
			b, err := circuit.ParseBackend(backend)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Compiling %s for %s...\n", def.ID(), b)
			s, err := circuit.RunSetup(def, b)
			if err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
			fmt.Fprintf(out, "Constraints: %d\n", s.CCS.GetNbConstraints())

			paths := circuit.DefaultPaths(outDir)
			if err := s.WriteTo(paths); err != nil {
				return err
			}
			fmt.Fprintf(out, "Constraint system saved to: %s\n", paths.Circuit)
			fmt.Fprintf(out, "Proving key saved to: %s\n", paths.ProvingKey)
			fmt.Fprintf(out, "Verifying key saved to: %s\n", paths.VerifyingKey)

			if solidity {
				solPath := filepath.Join(filepath.Dir(paths.VerifyingKey), circuit.SolidityFile)
				if err := writeSolidity(s, solPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Solidity verifier saved to: %s\n", solPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&circuitID, "circuit", "", "circuit id (default from config)")
	cmd.Flags().StringVar(&backend, "backend", "", "proof system: groth16 or plonk (default from config)")
	cmd.Flags().StringVar(&outDir, "out", circuit.DefaultDir, "output directory for the artifacts")
	cmd.Flags().BoolVar(&solidity, "solidity", false, "also export a Solidity verifier")
	return cmd
}

func writeSolidity(s *circuit.Setup, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.ExportSolidity(f)
}

func verifyCmd(a *app) *cobra.Command {
	var (
		payloadPath string
		qrPath      string
		vkPath      string
		pubKeyHex   string
		calldata    bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a proof from a payload file or a QR code SVG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var encoded string
			switch {
			case payloadPath != "" && qrPath != "":
				return fmt.Errorf("use one of --payload and --qr")
			case payloadPath != "":
				bz, err := os.ReadFile(payloadPath)
				if err != nil {
					return err
				}
				encoded = string(bz)
			case qrPath != "":
				var err error
				if encoded, err = qr.DecodeSVG(qrPath); err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --payload and --qr is required")
			}

			att, err := payload.Decode(encoded)
			if err != nil {
				return err
			}
			backend, err := circuit.ParseBackend(att.Backend)
			if err != nil {
				return err
			}
			if vkPath == "" {
				vkPath = a.cfg.Artifacts.VerifyingKey
			}
			vk, err := circuit.LoadVerifyingKey(backend, vkPath)
			if err != nil {
				return err
			}

			if pubKeyHex != "" {
				pub, err := hex.DecodeString(pubKeyHex)
				if err != nil {
					return fmt.Errorf("--pubkey: %w", err)
				}
				if err := verifier.VerifyFor(att, vk, pub); err != nil {
					return err
				}
			} else if err := verifier.Verify(att, vk); err != nil {
				return err
			}

			a.logger.Debug().Str("circuit", att.Circuit).Str("digest", att.Digest).Msg("proof verified")
			fmt.Fprintf(cmd.OutOrStdout(), "Proof valid (%s, %s)\n", att.Circuit, att.Backend)
			if pub, ok := att.PublicKey(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "  public key: %x\n", pub)
			}
			if calldata {
				pd, err := verifier.SolidityCalldata(att)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(pd)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&payloadPath, "payload", "", "file holding the encoded payload")
	cmd.Flags().StringVar(&qrPath, "qr", "", "QR code SVG written by zkk")
	cmd.Flags().StringVar(&vkPath, "vk", "", "verifying key (default from config)")
	cmd.Flags().BoolVar(&calldata, "calldata", false, "print the proof and inputs laid out for the Solidity verifier")
	cmd.Flags().StringVar(&pubKeyHex, "pubkey", "", "also require the proof to be about this compressed public key (hex)")
	return cmd
}
