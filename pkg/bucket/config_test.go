package bucket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{
			name: "valid minimal",
			cfg:  Config{Name: "bottle"},
		},
		{
			name: "valid with credentials",
			cfg:  Config{Name: "bottle", AccessKey: "ak", SecretKey: "sk"},
		},
		{
			name:      "missing name",
			cfg:       Config{},
			wantField: "Name",
		},
		{
			name:      "access key without secret",
			cfg:       Config{Name: "bottle", AccessKey: "ak"},
			wantField: "AccessKey/SecretKey",
		},
		{
			name:      "secret key without access",
			cfg:       Config{Name: "bottle", SecretKey: "sk"},
			wantField: "AccessKey/SecretKey",
		},
		{
			name:      "negative max attempts",
			cfg:       Config{Name: "bottle", MaxAttempts: -1},
			wantField: "MaxAttempts",
		},
		{
			name:      "negative rate limit",
			cfg:       Config{Name: "bottle", RateLimit: -0.5},
			wantField: "RateLimit",
		},
		{
			name:      "unknown provider",
			cfg:       Config{Name: "bottle", Provider: "gcs"},
			wantField: "Provider",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
		})
	}
}

func TestConfigBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "aws default",
			cfg:  Config{Name: "bottle"},
			want: "https://s3.amazonaws.com/bottle",
		},
		{
			name: "oss provider",
			cfg:  Config{Name: "pail", Provider: ProviderOSS},
			want: "http://oss.aliyun.com/pail",
		},
		{
			name: "bucket name quoted",
			cfg:  Config{Name: "my bucket"},
			want: "https://s3.amazonaws.com/my%20bucket",
		},
		{
			name: "explicit base wins, name not appended",
			cfg:  Config{Name: "bottle", BaseURL: "https://files.example.com"},
			want: "https://files.example.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.baseURL())
		})
	}
}

func TestConfigHeaderPrefix(t *testing.T) {
	assert.Equal(t, "x-amz-", (&Config{Name: "b"}).headerPrefix())
	assert.Equal(t, "x-oss-", (&Config{Name: "b", Provider: ProviderOSS}).headerPrefix())
	assert.Equal(t, "x-test-", (&Config{Name: "b", HeaderPrefix: "x-test-"}).headerPrefix())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}
