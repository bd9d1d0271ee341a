package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neuraresume/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVaultToken = "hvs.test-token"

// newKVServer serves KVv2 reads for secrets, keyed by the path after /v1/
func newKVServer(t *testing.T, secrets map[string]map[string]any) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sys/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"initialized":  true,
			"sealed":       false,
			"standby":      false,
			"version":      "1.17.0",
			"cluster_name": "test",
		})
	})
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != testVaultToken {
			writeJSON(w, http.StatusForbidden, map[string]any{"errors": []string{"permission denied"}})
			return
		}
		data, ok := secrets[strings.TrimPrefix(r.URL.Path, "/v1/")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"errors": []string{}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 3},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func vaultConfigFor(srv *httptest.Server, secrets VaultSecrets) VaultConfig {
	return VaultConfig{
		Enabled: true,
		Address: srv.URL,
		Token:   testVaultToken,
		Secrets: secrets,
	}
}

func TestApplyVaultSecrets(t *testing.T) {
	srv := newKVServer(t, map[string]map[string]any{
		"secret/data/neuraresume/api":     {"keys": "alpha, beta,,gamma"},
		"secret/data/neuraresume/gemini":  {"api_key": "gemini-from-vault"},
		"secret/data/neuraresume/backend": {"token": "backend-from-vault"},
		"secret/data/neuraresume/tls":     {"cert": "CERT PEM", "key": "KEY PEM", "ca": "CA PEM"},
	})

	cfg := &Config{
		Vault: vaultConfigFor(srv, VaultSecrets{
			APIKeys:      "secret/data/neuraresume/api",
			GeminiKey:    "secret/data/neuraresume/gemini",
			BackendToken: "secret/data/neuraresume/backend",
			TLSCerts:     "secret/data/neuraresume/tls",
		}),
	}
	cfg.AI.Answers.APIKey = "answers-own-key"
	cfg.Backend.Remote.APIToken = "from-env"
	cfg.Server.TLS = TLSConfig{
		Mode:     "mutual",
		CertFile: "/etc/neuraresume/server.crt",
		KeyFile:  "/etc/neuraresume/server.key",
		CAFile:   "/etc/neuraresume/ca.crt",
	}

	require.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-from-vault", cfg.AI.APIKey)
	assert.Equal(t, "gemini-from-vault", cfg.AI.Analyze.APIKey)
	assert.Equal(t, "answers-own-key", cfg.AI.Answers.APIKey)
	assert.Equal(t, "backend-from-vault", cfg.Backend.Remote.APIToken)

	tls := cfg.Server.TLS
	assert.Equal(t, "CERT PEM", tls.CertContent)
	assert.Equal(t, "KEY PEM", tls.KeyContent)
	assert.Equal(t, "CA PEM", tls.CAContent)
	assert.Empty(t, tls.CertFile)
	assert.Empty(t, tls.KeyFile)
	assert.Empty(t, tls.CAFile)
	assert.NoError(t, cfg.ValidateTLSConfig())
}

func TestApplyVaultSecretsPartialTLS(t *testing.T) {
	srv := newKVServer(t, map[string]map[string]any{
		"secret/data/tls": {"cert": "CERT PEM", "key": ""},
	})
	cfg := &Config{Vault: vaultConfigFor(srv, VaultSecrets{TLSCerts: "secret/data/tls"})}
	cfg.Server.TLS = TLSConfig{CertFile: "server.crt", KeyFile: "server.key"}

	require.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))

	assert.Equal(t, "CERT PEM", cfg.Server.TLS.CertContent)
	assert.Empty(t, cfg.Server.TLS.CertFile)
	assert.Empty(t, cfg.Server.TLS.KeyContent)
	assert.Equal(t, "server.key", cfg.Server.TLS.KeyFile, "file path stays without Vault content")
}

func TestApplyVaultSecretsErrors(t *testing.T) {
	srv := newKVServer(t, map[string]map[string]any{
		"secret/data/backend": {"token": 42},
	})

	tests := []struct {
		name     string
		mutate   func(*VaultConfig)
		errorMsg string
	}{
		{
			name:     "missing secret",
			mutate:   func(v *VaultConfig) { v.Secrets.GeminiKey = "secret/data/absent" },
			errorMsg: "failed to load Gemini API key from vault",
		},
		{
			name:     "non string field",
			mutate:   func(v *VaultConfig) { v.Secrets.BackendToken = "secret/data/backend" },
			errorMsg: `no string field "token"`,
		},
		{
			name: "rejected token",
			mutate: func(v *VaultConfig) {
				v.Token = "wrong"
				v.Secrets.BackendToken = "secret/data/backend"
			},
			errorMsg: "failed to read vault secret",
		},
		{
			name:     "no token",
			mutate:   func(v *VaultConfig) { v.Token = "" },
			errorMsg: "vault token is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Vault: vaultConfigFor(srv, VaultSecrets{})}
			tt.mutate(&cfg.Vault)

			err := ApplyVaultSecrets(cfg, errors.NewNopLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestApplyVaultSecretsTokenFile(t *testing.T) {
	srv := newKVServer(t, map[string]map[string]any{
		"secret/data/backend": {"token": "backend-from-vault"},
	})
	tokenFile := filepath.Join(t.TempDir(), "vault-token")
	require.NoError(t, os.WriteFile(tokenFile, []byte(testVaultToken+"\n"), 0600))

	cfg := &Config{Vault: vaultConfigFor(srv, VaultSecrets{BackendToken: "secret/data/backend"})}
	cfg.Vault.Token = ""
	cfg.Vault.TokenFile = tokenFile

	require.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))
	assert.Equal(t, "backend-from-vault", cfg.Backend.Remote.APIToken)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{}
	cfg.Backend.Remote.APIToken = "from-env"
	cfg.Vault.Secrets.BackendToken = "secret/data/backend"

	assert.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))
	assert.Equal(t, "from-env", cfg.Backend.Remote.APIToken)
}

func TestVaultToken(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}
	padded := write("padded", "  file-token  \n")
	blank := write("blank", "   \n  \n")

	tests := []struct {
		name     string
		cfg      VaultConfig
		want     string
		errorMsg string
	}{
		{name: "inline token wins", cfg: VaultConfig{Token: "inline", TokenFile: padded}, want: "inline"},
		{name: "token file is trimmed", cfg: VaultConfig{TokenFile: padded}, want: "file-token"},
		{name: "blank token file", cfg: VaultConfig{TokenFile: blank}, errorMsg: "is empty"},
		{name: "unreadable token file", cfg: VaultConfig{TokenFile: filepath.Join(dir, "absent")}, errorMsg: "failed to read vault token file"},
		{name: "no token", cfg: VaultConfig{}, errorMsg: "vault token is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vaultToken(tt.cfg)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUseTLSContent(t *testing.T) {
	cfg := &Config{}
	cfg.Server.TLS = TLSConfig{CertFile: "a.crt", KeyFile: "a.key", CAFile: "ca.crt"}

	n := cfg.useTLSContent(map[string]any{"key": "KEY PEM", "ca": 7})

	assert.Equal(t, 1, n)
	assert.Equal(t, "KEY PEM", cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.KeyFile)
	assert.Equal(t, "a.crt", cfg.Server.TLS.CertFile)
	assert.Equal(t, "ca.crt", cfg.Server.TLS.CAFile)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "abcd****wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
}
