package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyBackendDefaults()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks parses a comma-separated key list from the environment
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("NEURARESUME_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitAndTrim(apiKeysEnv)
		}
	}
}

// applyBackendDefaults normalizes the remote endpoint and picks up the
// conventional GEMINI_API_KEY variable
func (c *Config) applyBackendDefaults() {
	c.Backend.Mode = strings.ToLower(strings.TrimSpace(c.Backend.Mode))
	c.Backend.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.Remote.BaseURL), "/")

	for _, path := range []*string{&c.Backend.Remote.AnalyzePath, &c.Backend.Remote.AnswersPath} {
		if *path != "" && !strings.HasPrefix(*path, "/") {
			*path = "/" + *path
		}
	}

	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	c.Export.Pagination = strings.ToLower(strings.TrimSpace(c.Export.Pagination))
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}

	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"NEURARESUME_BACKEND_MODE",
		"NEURARESUME_BACKEND_REMOTE_BASEURL",
		"NEURARESUME_BACKEND_REMOTE_APITOKEN",
		"NEURARESUME_AI_APIKEY",
		"NEURARESUME_AI_MODEL",
		"NEURARESUME_SERVER_PORT",
		"NEURARESUME_SERVER_HOST",
		"NEURARESUME_APP_LOGLEVEL",
		"NEURARESUME_VAULT_ENABLED",
		"GEMINI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			lower := strings.ToLower(envVar)
			if strings.Contains(lower, "key") || strings.Contains(lower, "token") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] Backend Mode: %s", c.Backend.Mode)
	if c.Backend.Mode == BackendRemote {
		log.Printf("[CONFIG] Remote Backend: %s", c.Backend.Remote.BaseURL)
		if c.Backend.Remote.APIToken != "" {
			log.Println("[CONFIG] Remote API Token: ***CONFIGURED***")
		}
	} else {
		log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
		if c.AI.APIKey != "" {
			log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
		} else {
			log.Println("[CONFIG] AI API Key: ***NOT SET***")
		}
	}
	log.Printf("[CONFIG] Server: %s:%s (TLS %s)", c.Server.Host, c.Server.Port, c.Server.TLS.Mode)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Export Pagination: %s", c.Export.Pagination)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
