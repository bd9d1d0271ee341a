package config

import (
	"fmt"
	"os"
	"strings"

	"neuraresume/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets lists the KVv2 paths (for example "secret/data/neuraresume/api")
// secrets are read from. Empty paths are skipped.
type VaultSecrets struct {
	APIKeys      string `mapstructure:"apiKeys"`      // field "keys": comma-separated, all equally valid
	GeminiKey    string `mapstructure:"geminiKey"`    // field "api_key"
	BackendToken string `mapstructure:"backendToken"` // field "token": bearer token for the remote backend
	TLSCerts     string `mapstructure:"tlsCerts"`     // fields "cert", "key", "ca" as PEM
}

// secretStore reads KVv2 secrets through an authenticated Vault client
type secretStore struct {
	logical *api.Logical
	logger  *errors.Logger
}

// connectVault builds a Vault client from cfg and checks that the server answers
func connectVault(cfg VaultConfig, logger *errors.Logger) (*secretStore, error) {
	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := vaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", client.Address(), err)
	}
	logger.Info("Connected to Vault",
		"address", client.Address(),
		"namespace", cfg.Namespace,
		"version", health.Version,
		"sealed", health.Sealed)

	return &secretStore{logical: client.Logical(), logger: logger}, nil
}

// vaultToken returns the configured token, falling back to the token file
func vaultToken(cfg VaultConfig) (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	if cfg.TokenFile == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled (set vault.token or vault.tokenFile)")
	}

	raw, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return "", fmt.Errorf("failed to read vault token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("vault token file %s is empty", cfg.TokenFile)
	}
	return token, nil
}

// fields returns the data of the KVv2 secret at path
func (s *secretStore) fields(path string) (map[string]any, error) {
	secret, err := s.logical.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault secret %s not found", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("vault secret %s is not a KVv2 secret (no data field)", path)
	}
	return data, nil
}

// field returns the string field key of the secret at path
func (s *secretStore) field(path, key string) (string, error) {
	data, err := s.fields(path)
	if err != nil {
		return "", err
	}
	value, ok := data[key].(string)
	if !ok {
		return "", fmt.Errorf("vault secret %s has no string field %q", path, key)
	}
	s.logger.Debug("Read secret field from Vault", "path", path, "key", key, "value", maskSecret(value))
	return value, nil
}

func maskSecret(v string) string {
	switch {
	case v == "":
		return ""
	case len(v) <= 8:
		return "****"
	default:
		return v[:4] + "****" + v[len(v)-4:]
	}
}

// ApplyVaultSecrets overlays the secrets stored in Vault onto cfg. It is a
// no-op when Vault is disabled. A configured path that cannot be read fails
// the whole load.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	store, err := connectVault(cfg.Vault, logger)
	if err != nil {
		logger.LogError(err, "Failed to initialize Vault client")
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	paths := cfg.Vault.Secrets
	loaders := []struct {
		name string
		path string
		load func(*secretStore, string) error
	}{
		{"API keys", paths.APIKeys, cfg.loadVaultAPIKeys},
		{"Gemini API key", paths.GeminiKey, cfg.loadVaultGeminiKey},
		{"backend token", paths.BackendToken, cfg.loadVaultBackendToken},
		{"TLS certificates", paths.TLSCerts, cfg.loadVaultTLS},
	}

	for _, l := range loaders {
		if l.path == "" {
			continue
		}
		logger.Debug("Loading secret from Vault", "secret", l.name, "path", l.path)
		if err := l.load(store, l.path); err != nil {
			logger.LogError(err, "Failed to load secret from Vault", "secret", l.name, "path", l.path)
			return fmt.Errorf("failed to load %s from vault: %w", l.name, err)
		}
	}

	logger.Info("Secrets applied from Vault")
	return nil
}

func (c *Config) loadVaultAPIKeys(s *secretStore, path string) error {
	raw, err := s.field(path, "keys")
	if err != nil {
		return err
	}
	keys := splitAndTrim(raw)
	if len(keys) == 0 {
		s.logger.Warn("No API keys found in Vault", "path", path)
		return nil
	}
	c.Server.APIKeys = keys
	s.logger.Info("API keys loaded from Vault", "count", len(keys))
	return nil
}

func (c *Config) loadVaultGeminiKey(s *secretStore, path string) error {
	key, err := s.field(path, "api_key")
	if err != nil {
		return err
	}
	if key == "" {
		s.logger.Warn("Empty Gemini API key found in Vault", "path", path)
		return nil
	}
	c.useGeminiKey(key)
	s.logger.Info("Gemini API key loaded from Vault")
	return nil
}

// useGeminiKey sets the shared Gemini key and fills operations without their own
func (c *Config) useGeminiKey(key string) {
	c.AI.APIKey = key
	for _, op := range []*OperationAIConfig{&c.AI.Analyze, &c.AI.Answers} {
		if op.APIKey == "" {
			op.APIKey = key
		}
	}
}

func (c *Config) loadVaultBackendToken(s *secretStore, path string) error {
	token, err := s.field(path, "token")
	if err != nil {
		return err
	}
	if token == "" {
		s.logger.Warn("Empty backend token found in Vault", "path", path)
		return nil
	}
	c.Backend.Remote.APIToken = token
	s.logger.Info("Remote backend token loaded from Vault")
	return nil
}

func (c *Config) loadVaultTLS(s *secretStore, path string) error {
	data, err := s.fields(path)
	if err != nil {
		return err
	}
	n := c.useTLSContent(data)
	s.logger.Info("TLS certificates loaded from Vault", "certificates_loaded", n)
	return nil
}

// useTLSContent copies the PEM fields of data into the TLS config. Content
// from Vault replaces the matching file path. It returns how many were set.
func (c *Config) useTLSContent(data map[string]any) int {
	tls := &c.Server.TLS
	slots := []struct {
		field   string
		content *string
		file    *string
	}{
		{"cert", &tls.CertContent, &tls.CertFile},
		{"key", &tls.KeyContent, &tls.KeyFile},
		{"ca", &tls.CAContent, &tls.CAFile},
	}

	n := 0
	for _, slot := range slots {
		pem, _ := data[slot.field].(string)
		if pem == "" {
			continue
		}
		*slot.content = pem
		*slot.file = ""
		n++
	}
	return n
}
