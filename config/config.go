// Package config loads zkk settings: defaults, then an optional YAML file,
// then .env, then ZKK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kysee/zkk/circuit"
	"github.com/kysee/zkk/keys"
	"github.com/kysee/zkk/payload"
	"github.com/kysee/zkk/qr"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix     = "ZKK_"
	EnvConfigPath = EnvPrefix + "CONFIG"
)

type Config struct {
	Network   string          `yaml:"network"`
	Circuit   CircuitConfig   `yaml:"circuit"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Prover    ProverConfig    `yaml:"prover"`
	QR        QRConfig        `yaml:"qr"`
	Payload   PayloadConfig   `yaml:"payload"`
	Log       LogConfig       `yaml:"log"`
}

type CircuitConfig struct {
	ID      string `yaml:"id"`
	Backend string `yaml:"backend"`
}

type ArtifactsConfig struct {
	Circuit      string `yaml:"circuit"`
	ProvingKey   string `yaml:"proving_key"`
	VerifyingKey string `yaml:"verifying_key"`
}

type ProverConfig struct {
	// zero disables the bound
	Timeout time.Duration `yaml:"timeout"`
}

type QRConfig struct {
	Level string `yaml:"level"`
}

type PayloadConfig struct {
	Format string `yaml:"format"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	paths := circuit.DefaultPaths("")
	return &Config{
		Network: "mainnet",
		Circuit: CircuitConfig{
			ID:      circuit.DefaultID,
			Backend: string(circuit.Groth16),
		},
		Artifacts: ArtifactsConfig{
			Circuit:      paths.Circuit,
			ProvingKey:   paths.ProvingKey,
			VerifyingKey: paths.VerifyingKey,
		},
		QR:      QRConfig{Level: qr.DefaultLevel},
		Payload: PayloadConfig{Format: payload.FormatJSON},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path (or $ZKK_CONFIG when path is empty) over the defaults.
// A missing .env is fine; a named config file that is missing is not.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config env %s: %w", f, err)
		}
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config unmarshal: %w", err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(c *Config) error {
	strs := map[string]*string{
		"NETWORK":                 &c.Network,
		"CIRCUIT_ID":              &c.Circuit.ID,
		"CIRCUIT_BACKEND":         &c.Circuit.Backend,
		"ARTIFACTS_CIRCUIT":       &c.Artifacts.Circuit,
		"ARTIFACTS_PROVING_KEY":   &c.Artifacts.ProvingKey,
		"ARTIFACTS_VERIFYING_KEY": &c.Artifacts.VerifyingKey,
		"QR_LEVEL":                &c.QR.Level,
		"PAYLOAD_FORMAT":          &c.Payload.Format,
		"LOG_LEVEL":               &c.Log.Level,
		"LOG_FORMAT":              &c.Log.Format,
	}
	for key, dst := range strs {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv(EnvPrefix + "PROVER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config %sPROVER_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Prover.Timeout = d
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := keys.Network(c.Network); err != nil {
		return fmt.Errorf("config network: %w", err)
	}
	if _, err := circuit.Lookup(c.Circuit.ID); err != nil {
		return fmt.Errorf("config circuit.id: %w", err)
	}
	if _, err := circuit.ParseBackend(c.Circuit.Backend); err != nil {
		return fmt.Errorf("config circuit.backend: %w", err)
	}
	if _, err := qr.ParseLevel(c.QR.Level); err != nil {
		return fmt.Errorf("config qr.level: %w", err)
	}
	c.Payload.Format = strings.ToLower(c.Payload.Format)
	switch c.Payload.Format {
	case payload.FormatJSON, payload.FormatCompact:
	default:
		return fmt.Errorf("config payload.format: unknown format %q", c.Payload.Format)
	}
	if c.Prover.Timeout < 0 {
		return fmt.Errorf("config prover.timeout: negative duration %s", c.Prover.Timeout)
	}
	return nil
}

func (c *Config) Backend() circuit.Backend {
	b, _ := circuit.ParseBackend(c.Circuit.Backend)
	return b
}
