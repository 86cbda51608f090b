package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authgate/pkg/errutil"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
listen_addr: ":8081"
log_format: text
provider:
  base_url: https://idp.example.com/auth/v1
  api_key: anon-key
  timeout: 5s
retry:
  max_attempts: 5
  base_delay: 200ms
  multiplier: 1.5
`

func TestLoadServeConfig_FromFile(t *testing.T) {
	path := writeConfigFile(t, validConfig)

	cfg, err := loadServeConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.ListenAddr)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, defaultMetricsAddr, cfg.MetricsAddr, "unset keys keep defaults")
	assert.Equal(t, "https://idp.example.com/auth/v1", cfg.Provider.BaseURL)
	assert.Equal(t, "anon-key", cfg.Provider.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.BaseDelay)
	assert.InDelta(t, 1.5, cfg.Retry.Multiplier, 0.001)
}

func TestLoadServeConfig_FlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, validConfig)

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("listen-addr", ":9999"))
	require.NoError(t, cmd.Flags().Set("retry-max-attempts", "2"))

	cfg, err := loadServeConfig(path, cmd.Flags())
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr, "explicit flags win over the file")
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, "anon-key", cfg.Provider.APIKey, "file values survive unset flags")
}

func TestLoadServeConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{
			name: "missing provider base URL",
			config: `
provider:
  api_key: anon-key
`,
		},
		{
			name: "missing API key",
			config: `
provider:
  base_url: https://idp.example.com/auth/v1
`,
		},
		{
			name: "bad log format",
			config: `
log_format: xml
provider:
  base_url: https://idp.example.com/auth/v1
  api_key: anon-key
`,
		},
		{
			name: "TLS cert without key",
			config: `
provider:
  base_url: https://idp.example.com/auth/v1
  api_key: anon-key
tls:
  cert_file: /etc/authgate/tls.crt
`,
		},
		{
			name: "TLS dev with cert pair",
			config: `
provider:
  base_url: https://idp.example.com/auth/v1
  api_key: anon-key
tls:
  dev: true
  cert_file: /etc/authgate/tls.crt
  key_file: /etc/authgate/tls.key
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.config)
			_, err := loadServeConfig(path, nil)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}

func TestLoadServeConfig_MissingFile(t *testing.T) {
	_, err := loadServeConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}
