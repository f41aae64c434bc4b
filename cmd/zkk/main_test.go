package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/kysee/zkk/circuit"
	"github.com/kysee/zkk/config"
	"github.com/stretchr/testify/require"
)

const key1WIF = "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn"

func run(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd()
	buf := bytes.NewBuffer(nil)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSetupProveVerify(t *testing.T) {
	dir := t.TempDir()
	paths := circuit.DefaultPaths(filepath.Join(dir, "artifacts"))
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv("ZKK_CIRCUIT_ID", circuit.KeyHashID)
	t.Setenv("ZKK_ARTIFACTS_CIRCUIT", paths.Circuit)
	t.Setenv("ZKK_ARTIFACTS_PROVING_KEY", paths.ProvingKey)
	t.Setenv("ZKK_ARTIFACTS_VERIFYING_KEY", paths.VerifyingKey)
	t.Setenv("ZKK_LOG_LEVEL", "warn")

	out, err := run(t, "setup", "--out", filepath.Dir(paths.Circuit), "--solidity")
	require.NoError(t, err, out)
	require.Contains(t, out, "Verifying key saved to: "+paths.VerifyingKey)
	sol, err := os.ReadFile(filepath.Join(filepath.Dir(paths.Circuit), circuit.SolidityFile))
	require.NoError(t, err)
	require.Contains(t, string(sol), "pragma solidity")

	svg := filepath.Join(dir, "proof.svg")
	out, err = run(t, key1WIF, "-o", svg)
	require.NoError(t, err, out)
	require.Contains(t, out, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH")
	require.Contains(t, out, "QR code saved as "+svg)
	require.NotContains(t, out, key1WIF)

	out, err = run(t, "verify", "--qr", svg,
		"--pubkey", "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.NoError(t, err, out)
	require.Contains(t, out, "Proof valid (mimc-v1, groth16)")

	out, err = run(t, "verify", "--qr", svg, "--calldata")
	require.NoError(t, err, out)
	require.Contains(t, out, `"publicInputs": [`)

	out, err = run(t, "verify", "--qr", svg,
		"--pubkey", "03"+"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.Error(t, err, out)
}

func TestProveFailures(t *testing.T) {
	dir := t.TempDir()
	paths := circuit.DefaultPaths(filepath.Join(dir, "absent"))
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv("ZKK_CIRCUIT_ID", circuit.KeyHashID)
	t.Setenv("ZKK_ARTIFACTS_CIRCUIT", paths.Circuit)
	t.Setenv("ZKK_ARTIFACTS_PROVING_KEY", paths.ProvingKey)

	svg := filepath.Join(dir, "proof.svg")
	out, err := run(t, key1WIF, "-o", svg)
	require.Error(t, err)
	require.Contains(t, out, "Generating proof failed")
	_, statErr := os.Stat(svg)
	require.True(t, os.IsNotExist(statErr))

	out, err = run(t, "not-a-wif", "-o", svg)
	require.Error(t, err)
	require.Contains(t, out, "Loading key failed")

	_, err = run(t)
	require.Error(t, err)
	_, err = run(t, "verify")
	require.Error(t, err)
}
