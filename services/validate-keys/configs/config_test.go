package configs

import (
	"testing"

	"github.com/nimeshabuddhika/payment-key-validator/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_DefaultsAPIURL(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("AUTH_TOKEN", "Bearer abc")

	cfg, err := Load(zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, "Bearer abc", cfg.AuthToken)
}

func TestLoad_ReadsUnprefixedEnv(t *testing.T) {
	t.Setenv("API_URL", "https://payments.example.com")
	t.Setenv("AUTH_TOKEN", "Bearer xyz")
	t.Setenv("APP_AUTH_TOKEN", "Bearer ignored")

	cfg, err := Load(zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, "https://payments.example.com", cfg.APIURL)
	assert.Equal(t, "Bearer xyz", cfg.AuthToken)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("AUTH_TOKEN", "")

	cfg, err := Load(zap.NewNop())

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, pkg.ErrMissingCredential)
}
