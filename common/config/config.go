// Copyright 2017 Vector Creations Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Modifications copyright (C) 2020 Finogeeks Co., Ltd

package config

import (
	"bytes"
	"encoding/pem"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"
	"time"

	"github.com/finogeeks/fedapi/skunkworks/gomatrixserverlib"
	log "github.com/finogeeks/fedapi/skunkworks/log"
	jaegerconfig "github.com/uber/jaeger-client-go/config"
	jaegermetrics "github.com/uber/jaeger-lib/metrics"
	"golang.org/x/crypto/ed25519"
	"gopkg.in/yaml.v2"
)

// Version is the current version of the config format.
// This will change whenever we make breaking changes to the config format.
const Version = 0

var config *Fedapi

// A Path on the filesystem.
type Path string

// TransportConf configures how federation messages leave this process.
// Durations are in seconds.
type TransportConf struct {
	// Underlying selects a transport registered with core.RegisterTransport.
	Underlying string `yaml:"underlying"`
	// Scheme is "https" unless overridden, tests and local setups use "http".
	Scheme           string `yaml:"scheme"`
	Timeout          int64  `yaml:"timeout"`
	RetryCount       int    `yaml:"retry_count"`
	RetryWaitTime    int64  `yaml:"retry_wait_time"`
	RetryMaxWaitTime int64  `yaml:"retry_max_wait_time"`

	RootCA             Path `yaml:"root_ca"`
	CertPEM            Path `yaml:"cert_pem"`
	KeyPEM             Path `yaml:"key_pem"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// Servers maps a server name to a fixed "host:port", bypassing discovery.
	Servers map[string]string `yaml:"servers"`
}

// Fedapi contains all the config used by a fedapi process.
// Relative paths are resolved relative to the current working directory.
type Fedapi struct {
	// The version of the configuration file.
	// If the version in a file doesn't match the current fedapi config
	// version then we can give a clear error message telling the user
	// to update their config file to the current version.
	Version int `yaml:"version"`

	Matrix struct {
		// The name of the server. This is usually the domain name, e.g 'matrix.org', 'localhost'.
		ServerName gomatrixserverlib.ServerName `yaml:"server_name"`
		// Path to the private key which will be used to sign requests.
		PrivateKeyPath Path `yaml:"private_key"`
		// The private key which will be used to sign requests.
		PrivateKey ed25519.PrivateKey `yaml:"-"`
		// An arbitrary string used to uniquely identify the PrivateKey. Must start with the
		// prefix "ed25519:".
		KeyID gomatrixserverlib.KeyID `yaml:"-"`
	} `yaml:"matrix"`

	Transport TransportConf `yaml:"transport"`

	Log log.LogConfig `yaml:"log"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	// The config for tracing the fedapi servers.
	Tracing struct {
		Enabled bool `yaml:"enabled"`
		// The config for the jaeger opentracing reporter.
		Jaeger jaegerconfig.Configuration `yaml:"jaeger"`
	} `yaml:"tracing"`
}

func GetConfig() *Fedapi {
	return config
}

func SetConfig(cfg *Fedapi) {
	config = cfg
}

// Load a yaml config file and check that it is valid. The loaded config
// also becomes the one returned by GetConfig.
func Load(configPath string) (*Fedapi, error) {
	configData, err := ioutil.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	basePath, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, err
	}
	// Pass the config directory and ioutil.ReadFile so that they can
	// be mocked in the tests
	cfg, err := loadConfig(basePath, configData, ioutil.ReadFile)
	if err != nil {
		return nil, err
	}
	SetConfig(cfg)
	return cfg, nil
}

// An Error indicates a problem parsing the config.
type Error struct {
	// List of problems encountered parsing the config.
	Problems []string
}

func loadConfig(
	basePath string,
	configData []byte,
	readFile func(string) ([]byte, error),
) (*Fedapi, error) {
	cfg := new(Fedapi)
	if err := yaml.Unmarshal(configData, cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.check(); err != nil {
		return nil, err
	}

	if err := cfg.derive(basePath, readFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (config *Fedapi) setDefaults() {
	if config.Transport.Underlying == "" {
		config.Transport.Underlying = "http"
	}
	if config.Transport.Scheme == "" {
		config.Transport.Scheme = "https"
	}
	if config.Transport.Timeout == 0 {
		config.Transport.Timeout = 15
	}
	if config.Metrics.Path == "" {
		config.Metrics.Path = "/metrics"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

// derive loads the data the config only names by path.
func (config *Fedapi) derive(basePath string, readFile func(string) ([]byte, error)) error {
	if config.Matrix.PrivateKeyPath != "" {
		path := absPath(basePath, config.Matrix.PrivateKeyPath)
		data, err := readFile(path)
		if err != nil {
			return err
		}
		config.Matrix.KeyID, config.Matrix.PrivateKey, err = readKeyPEM(path, data)
		if err != nil {
			return err
		}
	}
	for _, p := range []*Path{&config.Transport.RootCA, &config.Transport.CertPEM, &config.Transport.KeyPEM} {
		if *p != "" {
			*p = Path(absPath(basePath, *p))
		}
	}
	return nil
}

// Error returns a string detailing how many errors were contained within an
// Error type.
func (e Error) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0]
	}
	return fmt.Sprintf(
		"%s (and %d other problems)", e.Problems[0], len(e.Problems)-1,
	)
}

// check returns an error type containing all errors found within the config
// file.
func (config *Fedapi) check() error {
	var problems []string

	if config.Version != Version {
		return Error{[]string{fmt.Sprintf(
			"unknown config version %d, expected %d", config.Version, Version,
		)}}
	}

	checkNotEmpty := func(key string, value string) {
		if value == "" {
			problems = append(problems, fmt.Sprintf("missing config key %q", key))
		}
	}

	checkPositive := func(key string, value int64) {
		if value < 0 {
			problems = append(problems, fmt.Sprintf("invalid value for config key %q: %d", key, value))
		}
	}

	checkNotEmpty("matrix.server_name", string(config.Matrix.ServerName))

	switch config.Transport.Scheme {
	case "http", "https":
	default:
		problems = append(problems, fmt.Sprintf("invalid value for config key %q: %s", "transport.scheme", config.Transport.Scheme))
	}
	checkPositive("transport.timeout", config.Transport.Timeout)
	checkPositive("transport.retry_count", int64(config.Transport.RetryCount))
	checkPositive("transport.retry_wait_time", config.Transport.RetryWaitTime)
	checkPositive("transport.retry_max_wait_time", config.Transport.RetryMaxWaitTime)
	if (config.Transport.CertPEM == "") != (config.Transport.KeyPEM == "") {
		problems = append(problems, "transport.cert_pem and transport.key_pem must be set together")
	}

	if config.Metrics.Enabled {
		checkNotEmpty("metrics.addr", config.Metrics.Addr)
	}

	if problems != nil {
		return Error{problems}
	}

	return nil
}

// TimeoutDuration returns the configured transport timeout.
func (c *TransportConf) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// absPath returns the absolute path for a given relative or absolute path.
func absPath(dir string, path Path) string {
	if filepath.IsAbs(string(path)) {
		// filepath.Join cleans the path so we should clean the absolute paths as well for consistency.
		return filepath.Clean(string(path))
	}
	return filepath.Join(dir, string(path))
}

func readKeyPEM(path string, data []byte) (gomatrixserverlib.KeyID, ed25519.PrivateKey, error) {
	for {
		var keyBlock *pem.Block
		keyBlock, data = pem.Decode(data)
		if keyBlock == nil {
			return "", nil, fmt.Errorf("no matrix private key PEM data in %q", path)
		}
		if keyBlock.Type == "MATRIX PRIVATE KEY" {
			keyID := keyBlock.Headers["Key-ID"]
			if keyID == "" {
				return "", nil, fmt.Errorf("missing key ID in PEM data in %q", path)
			}
			if !strings.HasPrefix(keyID, "ed25519:") {
				return "", nil, fmt.Errorf("key ID %q doesn't start with \"ed25519:\" in %q", keyID, path)
			}
			_, privKey, err := ed25519.GenerateKey(bytes.NewReader(keyBlock.Bytes))
			if err != nil {
				return "", nil, err
			}
			return gomatrixserverlib.KeyID(keyID), privKey, nil
		}
	}
}

// SetupTracing configures the opentracing using the supplied configuration.
// A disabled tracer is still installed so spans are cheap no-ops.
func (config *Fedapi) SetupTracing(serviceName string) (closer io.Closer, err error) {
	cfg := config.Tracing.Jaeger
	cfg.Disabled = cfg.Disabled || !config.Tracing.Enabled
	return cfg.InitGlobalTracer(
		serviceName,
		jaegerconfig.Logger(Logger{}),
		jaegerconfig.Metrics(jaegermetrics.NullFactory),
	)
}

// Logger is a small wrapper that implements jaeger.Logger.
type Logger struct {
}

func (l Logger) Error(msg string) {
	log.Error(msg)
}

func (l Logger) Infof(msg string, args ...interface{}) {
	log.Infof(msg, args...)
}
