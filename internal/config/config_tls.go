package config

import (
	"fmt"
	"strconv"
)

// validateServer checks listener, session, rate limit and TLS settings
func (c *Config) validateServer() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be numeric: %s", c.Server.Port)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server sessionTTL must be positive")
	}
	if c.Server.MaxRequestSize > 0 && c.Server.MaxRequestSize < c.App.MaxFileSize {
		return fmt.Errorf("server maxRequestSize (%d) must not be smaller than app maxFileSize (%d)",
			c.Server.MaxRequestSize, c.App.MaxFileSize)
	}

	// A keyed server only serves the UI with an explicit opt-in
	keyed := len(c.Server.APIKeys) > 0 || c.vaultProvides(c.Vault.Secrets.APIKeys)
	if c.Server.EnableUI && keyed && !c.Server.UIPublic {
		return fmt.Errorf("server enableUI bypasses apiKeys: disable the UI or set server.uiPublic to serve it without authentication")
	}

	if rl := c.Server.RateLimit; rl.Enabled {
		if rl.RequestsPerMin <= 0 || rl.BurstCapacity <= 0 {
			return fmt.Errorf("rate limit requestsPerMin and burstCapacity must be positive")
		}
		if !rl.ByIP && !rl.ByAPIKey {
			return fmt.Errorf("rate limit must be keyed by IP, API key, or both")
		}
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}
	return nil
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "disabled", "":
		return nil
	case "server":
		if err := requireSource(tls.CertFile, tls.CertContent, "certificate"); err != nil {
			return err
		}
		if err := requireSource(tls.KeyFile, tls.KeyContent, "private key"); err != nil {
			return err
		}
	case "mutual":
		for _, src := range []struct{ file, content, what string }{
			{tls.CertFile, tls.CertContent, "certificate"},
			{tls.KeyFile, tls.KeyContent, "private key"},
			{tls.CAFile, tls.CAContent, "CA certificate"},
		} {
			if err := requireSource(src.file, src.content, src.what); err != nil {
				return err
			}
		}
		switch tls.ClientAuthPolicy {
		case "require", "request", "verify", "":
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}

	return nil
}

// requireSource checks that exactly one of a file path or inline content is set
func requireSource(file, content, what string) error {
	if file == "" && content == "" {
		return fmt.Errorf("TLS %s is required (provide either a file or content)", what)
	}
	if file != "" && content != "" {
		return fmt.Errorf("cannot specify both a file and content for the TLS %s - choose one", what)
	}
	return nil
}
