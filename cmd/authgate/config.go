package main

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values for serve configuration.
const (
	defaultListenAddr  = ":8080"
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultLogFormat   = "json"
	defaultLogLevel    = "info"
)

// providerConfig configures the identity provider client.
type providerConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// retryConfig configures the retry policy for identity calls.
type retryConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay"`
	Multiplier  float64       `koanf:"multiplier"`
}

// tlsConfig configures HTTPS for the gateway listener. Dev generates a
// self-signed localhost certificate instead of loading a pair.
type tlsConfig struct {
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	Dev      bool   `koanf:"dev"`
}

// serveConfig holds configuration for the serve command. Precedence:
// flags over config file over defaults.
type serveConfig struct {
	ListenAddr  string         `koanf:"listen_addr"`
	MetricsAddr string         `koanf:"metrics_addr"`
	LogFormat   string         `koanf:"log_format"`
	LogLevel    string         `koanf:"log_level"`
	Provider    providerConfig `koanf:"provider"`
	Retry       retryConfig    `koanf:"retry"`
	TLS         tlsConfig      `koanf:"tls"`
}

// flagKeys maps flag names to koanf config paths.
var flagKeys = map[string]string{
	"listen-addr":        "listen_addr",
	"metrics-addr":       "metrics_addr",
	"log-format":         "log_format",
	"log-level":          "log_level",
	"provider-base-url":  "provider.base_url",
	"provider-api-key":   "provider.api_key",
	"provider-timeout":   "provider.timeout",
	"retry-max-attempts": "retry.max_attempts",
	"retry-base-delay":   "retry.base_delay",
	"retry-multiplier":   "retry.multiplier",
	"tls-cert-file":      "tls.cert_file",
	"tls-key-file":       "tls.key_file",
	"tls-dev":            "tls.dev",
}

// defaultServeConfig returns the built-in defaults. Retry fields left
// zero take the auth package defaults.
func defaultServeConfig() serveConfig {
	return serveConfig{
		ListenAddr:  defaultListenAddr,
		MetricsAddr: defaultMetricsAddr,
		LogFormat:   defaultLogFormat,
		LogLevel:    defaultLogLevel,
	}
}

// loadServeConfig merges defaults, the optional YAML config file, and
// explicitly set flags.
func loadServeConfig(path string, flags *pflag.FlagSet) (serveConfig, error) {
	cfg := defaultServeConfig()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			if mapped, ok := flagKeys[key]; ok {
				return mapped, value
			}
			return key, value
		})
		if err := k.Load(provider, nil); err != nil {
			return cfg, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "flags").
				Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c serveConfig) validate() error {
	if c.ListenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen_addr is required")
	}
	if c.Provider.BaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("provider.base_url is required")
	}
	if c.Provider.APIKey == "" {
		return oops.Code("CONFIG_INVALID").Errorf("provider.api_key is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be json or text")
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return oops.Code("CONFIG_INVALID").
			Errorf("tls.cert_file and tls.key_file must be set together")
	}
	if c.TLS.Dev && c.TLS.CertFile != "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("tls.dev and tls.cert_file are mutually exclusive")
	}
	return nil
}
