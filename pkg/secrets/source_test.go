package secrets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsProvider(t *testing.T) {
	src, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "env", src.Name())

	src, err = New(" ENV ")
	require.NoError(t, err)
	assert.Equal(t, "env", src.Name())

	_, err = New("consul")
	assert.EqualError(t, err, "unknown secrets provider: consul")
}

func TestNew_VaultRequiresAddressAndToken(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	t.Setenv("VAULT_TOKEN", "")

	_, err := New("vault")
	assert.Error(t, err)
}

func TestEnvSource_Get(t *testing.T) {
	t.Setenv("PKV_TOKEN", "Bearer from-env")
	src := NewEnvSource()

	val, err := src.Get(context.Background(), "PKV_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-env", val)

	_, err = src.Get(context.Background(), "PKV_TOKEN_MISSING")
	assert.Error(t, err)
}

func newFakeVault(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		data, ok := secrets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data": data,
				"metadata": map[string]any{
					"created_time":  "2024-05-01T10:00:00Z",
					"deletion_time": "",
					"destroyed":     false,
					"version":       1,
				},
			},
		})
	}))
}

func TestVaultSource_Get(t *testing.T) {
	srv := newFakeVault(t, map[string]map[string]any{
		"/v1/kv/data/backend-token": {"value": "Bearer from-vault"},
		"/v1/kv/data/empty":         {"other": "x"},
	})
	defer srv.Close()

	src, err := NewVaultSource(VaultConfig{Address: srv.URL, Token: "root-token", MountPath: "kv"})
	require.NoError(t, err)
	assert.Equal(t, "vault", src.Name())

	val, err := src.Get(context.Background(), "backend-token")
	require.NoError(t, err)
	assert.Equal(t, "Bearer from-vault", val)

	_, err = src.Get(context.Background(), "empty")
	assert.ErrorContains(t, err, "no 'value' field")

	_, err = src.Get(context.Background(), "missing")
	assert.ErrorContains(t, err, "vault read error")
}
