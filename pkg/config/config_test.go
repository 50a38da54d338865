package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakemoor/gostratus/pkg/bucket"
)

// isolateCredentialChain pins the AWS chain to a known state so tests never
// pick up real credentials or call the instance metadata service.
func isolateCredentialChain(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "absent"))
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "absent"))
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_PROFILE", "")
}

func TestLoadFromEnv(t *testing.T) {
	isolateCredentialChain(t)
	t.Setenv("STRATUS_BUCKET", "bottle")
	t.Setenv("STRATUS_ACCESS_KEY", "ak")
	t.Setenv("STRATUS_SECRET_KEY", "sk")
	t.Setenv("STRATUS_RATE_LIMIT", "2.5")
	t.Setenv("STRATUS_MAX_ATTEMPTS", "3")

	cfg, err := Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "bottle", cfg.Name)
	assert.Equal(t, "ak", cfg.AccessKey)
	assert.Equal(t, "sk", cfg.SecretKey)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Nil(t, cfg.Transport)
}

func TestLoadFromFile(t *testing.T) {
	isolateCredentialChain(t)

	path := filepath.Join(t.TempDir(), "stratus.yaml")
	doc := `bucket: pail
provider: oss
access_key: file-ak
secret_key: file-sk
transient_status: 503
response_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(t.Context(), WithFile(path))
	require.NoError(t, err)
	assert.Equal(t, "pail", cfg.Name)
	assert.Equal(t, bucket.ProviderOSS, cfg.Provider)
	assert.Equal(t, "file-ak", cfg.AccessKey)
	assert.Equal(t, "file-sk", cfg.SecretKey)
	assert.Equal(t, 503, cfg.TransientStatus)

	// A response timeout materializes a dedicated transport.
	require.NotNil(t, cfg.Transport)
	ht, ok := cfg.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, "30s", ht.ResponseHeaderTimeout.String())
}

func TestLoadFileMissing(t *testing.T) {
	isolateCredentialChain(t)
	_, err := Load(t.Context(), WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestLoadCredentialChain(t *testing.T) {
	isolateCredentialChain(t)
	t.Setenv("STRATUS_BUCKET", "bottle")
	// No explicit pair; the chain supplies the standard AWS variables.
	t.Setenv("AWS_ACCESS_KEY_ID", "chain-ak")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "chain-sk")

	cfg, err := Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "chain-ak", cfg.AccessKey)
	assert.Equal(t, "chain-sk", cfg.SecretKey)
}

func TestLoadExplicitKeysWinOverChain(t *testing.T) {
	isolateCredentialChain(t)
	t.Setenv("STRATUS_BUCKET", "bottle")
	t.Setenv("STRATUS_ACCESS_KEY", "explicit-ak")
	t.Setenv("STRATUS_SECRET_KEY", "explicit-sk")
	t.Setenv("AWS_ACCESS_KEY_ID", "chain-ak")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "chain-sk")

	cfg, err := Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "explicit-ak", cfg.AccessKey)
	assert.Equal(t, "explicit-sk", cfg.SecretKey)
}

func TestLoadAnonymous(t *testing.T) {
	isolateCredentialChain(t)
	t.Setenv("STRATUS_BUCKET", "public-data")

	// An empty chain is not an error: anonymous access to public buckets.
	cfg, err := Load(t.Context())
	require.NoError(t, err)
	assert.Empty(t, cfg.AccessKey)
	assert.Empty(t, cfg.SecretKey)
}

func TestLoadCustomEnvPrefix(t *testing.T) {
	isolateCredentialChain(t)
	t.Setenv("MYAPP_BUCKET", "bottle")
	t.Setenv("MYAPP_ACCESS_KEY", "ak")
	t.Setenv("MYAPP_SECRET_KEY", "sk")

	cfg, err := Load(t.Context(), WithEnvPrefix("MYAPP"))
	require.NoError(t, err)
	assert.Equal(t, "bottle", cfg.Name)
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	isolateCredentialChain(t)
	// Missing bucket name fails validation.
	_, err := Load(t.Context())
	var ce *bucket.ConfigError
	assert.ErrorAs(t, err, &ce)
}
