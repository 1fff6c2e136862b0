package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Source describes a backend that can provide a credential by key.
type Source interface {
	Get(ctx context.Context, key string) (string, error)
	Name() string
}

// New returns the source selected by provider ("env" when empty).
func New(provider string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "env":
		return NewEnvSource(), nil
	case "vault":
		return NewVaultSource(VaultConfigFromEnv())
	default:
		return nil, fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// EnvSource loads values from environment variables (.env in dev).
type EnvSource struct{}

func NewEnvSource() *EnvSource {
	return &EnvSource{}
}

func (e *EnvSource) Name() string {
	return "env"
}

func (e *EnvSource) Get(_ context.Context, key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("env %s not set", key)
	}
	return val, nil
}
