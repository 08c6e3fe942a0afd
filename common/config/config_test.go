// Copyright (C) 2020 Finogeeks Co., Ltd
//
// This program is free software: you can redistribute it and/or  modify
// it under the terms of the GNU Affero General Public License, version 3,
// as published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.


package config

import (
	"bytes"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

const testConfig = `
version: 0
matrix:
  server_name: origin.example
  private_key: matrix_key.pem
transport:
  scheme: http
  timeout: 5
  retry_count: 2
  root_ca: certs/ca.pem
  servers:
    remote.example: 127.0.0.1:8448
log:
  level: debug
metrics:
  enabled: true
  addr: ":9092"
tracing:
  enabled: false
  jaeger:
    serviceName: fedapi
`

func testKeyPEM(t *testing.T, keyID string) ([]byte, ed25519.PrivateKey) {
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	_, priv, err := ed25519.GenerateKey(bytes.NewReader(seed))
	require.NoError(t, err)
	headers := map[string]string{}
	if keyID != "" {
		headers["Key-ID"] = keyID
	}
	return pem.EncodeToMemory(&pem.Block{Type: "MATRIX PRIVATE KEY", Headers: headers, Bytes: seed}), priv
}

func TestLoadConfig(t *testing.T) {
	keyData, priv := testKeyPEM(t, "ed25519:auto")
	var readPath string
	readFile := func(path string) ([]byte, error) {
		readPath = path
		return keyData, nil
	}

	cfg, err := loadConfig("/etc/fedapi", []byte(testConfig), readFile)
	require.NoError(t, err)

	assert.Equal(t, "/etc/fedapi/matrix_key.pem", readPath)
	assert.EqualValues(t, "origin.example", cfg.Matrix.ServerName)
	assert.EqualValues(t, "ed25519:auto", cfg.Matrix.KeyID)
	assert.Equal(t, priv, cfg.Matrix.PrivateKey)

	assert.Equal(t, "http", cfg.Transport.Underlying)
	assert.Equal(t, "http", cfg.Transport.Scheme)
	assert.EqualValues(t, 5, cfg.Transport.Timeout)
	assert.Equal(t, 2, cfg.Transport.RetryCount)
	assert.EqualValues(t, "/etc/fedapi/certs/ca.pem", cfg.Transport.RootCA)
	assert.Equal(t, map[string]string{"remote.example": "127.0.0.1:8448"}, cfg.Transport.Servers)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "fedapi", cfg.Tracing.Jaeger.ServiceName)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("/", []byte("matrix:\n  server_name: a.example\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "https", cfg.Transport.Scheme)
	assert.EqualValues(t, 15, cfg.Transport.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Nil(t, cfg.Matrix.PrivateKey)
}

func TestCheckCollectsProblems(t *testing.T) {
	data := `
transport:
  scheme: gopher
  retry_count: -1
  cert_pem: cert.pem
metrics:
  enabled: true
`
	_, err := loadConfig("/", []byte(data), nil)
	require.Error(t, err)
	cerr, ok := err.(Error)
	require.True(t, ok)
	assert.Len(t, cerr.Problems, 5)
	assert.Contains(t, cerr.Problems, `missing config key "matrix.server_name"`)
	assert.Contains(t, cerr.Error(), "(and 4 other problems)")

	_, err = loadConfig("/", []byte("version: 3\n"), nil)
	assert.EqualError(t, err, "unknown config version 3, expected 0")
}

func TestReadKeyPEM(t *testing.T) {
	_, _, err := readKeyPEM("k.pem", []byte("not pem"))
	assert.Error(t, err)

	data, _ := testKeyPEM(t, "")
	_, _, err = readKeyPEM("k.pem", data)
	assert.Error(t, err)

	data, _ = testKeyPEM(t, "rsa:1")
	_, _, err = readKeyPEM("k.pem", data)
	assert.Error(t, err)

	other := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1}})
	data, priv := testKeyPEM(t, "ed25519:a1")
	id, key, err := readKeyPEM("k.pem", append(other, data...))
	require.NoError(t, err)
	assert.EqualValues(t, "ed25519:a1", id)
	assert.Equal(t, priv, key)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	keyData, _ := testKeyPEM(t, "ed25519:auto")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "matrix_key.pem"), keyData, 0600))
	path := filepath.Join(dir, "fedapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Same(t, cfg, GetConfig())
	assert.EqualValues(t, "ed25519:auto", cfg.Matrix.KeyID)
	SetConfig(nil)
}

func TestSetupTracingDisabled(t *testing.T) {
	cfg := &Fedapi{}
	cfg.Tracing.Jaeger.ServiceName = "fedapi"
	closer, err := cfg.SetupTracing("fedapi")
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
}
