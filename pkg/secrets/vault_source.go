package secrets

import (
	"context"
	"fmt"
	"os"

	vault "github.com/hashicorp/vault/api"
)

// VaultConfig points at a KV v2 mount.
type VaultConfig struct {
	Address   string
	Token     string
	MountPath string
}

func VaultConfigFromEnv() VaultConfig {
	mount := os.Getenv("VAULT_PATH")
	if mount == "" {
		mount = "secret"
	}
	return VaultConfig{
		Address:   os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		MountPath: mount,
	}
}

// VaultSource reads credentials from a HashiCorp Vault KV v2 backend. It only reads.
type VaultSource struct {
	client    *vault.Client
	mountPath string
}

func NewVaultSource(cfg VaultConfig) (*VaultSource, error) {
	if cfg.Address == "" || cfg.Token == "" {
		return nil, fmt.Errorf("vault config requires VAULT_ADDR and VAULT_TOKEN")
	}
	if cfg.MountPath == "" {
		cfg.MountPath = "secret"
	}

	client, err := vault.NewClient(&vault.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("vault client init error: %w", err)
	}
	client.SetToken(cfg.Token)
	return &VaultSource{
		client:    client,
		mountPath: cfg.MountPath,
	}, nil
}

func (v *VaultSource) Name() string {
	return "vault"
}

// Get fetches "<mount>/data/{key}" and returns its "value" field.
func (v *VaultSource) Get(ctx context.Context, key string) (string, error) {
	secret, err := v.client.KVv2(v.mountPath).Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("vault read error: %w", err)
	}
	if val, ok := secret.Data["value"].(string); ok && val != "" {
		return val, nil
	}
	return "", fmt.Errorf("no 'value' field found in vault secret: %s", key)
}
