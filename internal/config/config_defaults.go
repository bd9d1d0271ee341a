package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultBackendURL is the hosted analysis service
const DefaultBackendURL = "https://neuraresume-backend-mkvq.onrender.com"

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Backend selection
	v.SetDefault("backend.mode", BackendRemote)
	v.SetDefault("backend.remote.baseURL", DefaultBackendURL)
	v.SetDefault("backend.remote.analyzePath", "/analyze")
	v.SetDefault("backend.remote.answersPath", "/generate-answers")
	v.SetDefault("backend.remote.timeout", 120*time.Second) // hosted backend cold starts are slow
	v.SetDefault("backend.remote.apiToken", "")
	v.SetDefault("backend.remote.maxResponseSize", 4*1024*1024)
	v.SetDefault("backend.remote.circuitBreaker.enabled", true)
	v.SetDefault("backend.remote.circuitBreaker.maxRequests", 1)
	v.SetDefault("backend.remote.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("backend.remote.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("backend.remote.circuitBreaker.minRequests", 3)
	v.SetDefault("backend.remote.circuitBreaker.failureThreshold", 0.6)

	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI Configuration - Analyze operation defaults
	v.SetDefault("ai.analyze.provider", "gemini")
	v.SetDefault("ai.analyze.model", "")
	v.SetDefault("ai.analyze.timeout", 90*time.Second) // three module calls per run
	v.SetDefault("ai.analyze.apiKey", "")
	v.SetDefault("ai.analyze.maxRetries", 2)
	v.SetDefault("ai.analyze.temperature", 0.2)
	v.SetDefault("ai.analyze.useSystemPrompts", true)

	// AI Configuration - Answers operation defaults
	v.SetDefault("ai.answers.provider", "gemini")
	v.SetDefault("ai.answers.model", "")
	v.SetDefault("ai.answers.timeout", 75*time.Second)
	v.SetDefault("ai.answers.apiKey", "")
	v.SetDefault("ai.answers.maxRetries", 2)
	v.SetDefault("ai.answers.temperature", 0.5)
	v.SetDefault("ai.answers.useSystemPrompts", true)

	for _, op := range []string{"analyze", "answers"} {
		prefix := "ai." + op + ".circuitBreaker."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"maxRequests", 3)
		v.SetDefault(prefix+"interval", 60*time.Second)
		v.SetDefault(prefix+"timeout", 60*time.Second)
		v.SetDefault(prefix+"minRequests", 3)
		v.SetDefault(prefix+"failureThreshold", 0.6)
	}

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 180*time.Second) // must outlive backend.remote.timeout
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 12*1024*1024)
	v.SetDefault("server.sessionTTL", 30*time.Minute)
	v.SetDefault("server.enableUI", true)
	v.SetDefault("server.uiPublic", false)

	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.debounceDelay", time.Second)

	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})

	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 30)
	v.SetDefault("server.rateLimit.burstCapacity", 5)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "yaml", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB

	// Export Configuration
	v.SetDefault("export.fileName", "NeuraResume_Interview_Prep.pdf")
	v.SetDefault("export.title", "Interview Preparation Guide")
	v.SetDefault("export.pagination", "line")
	v.SetDefault("export.verifyAlignment", true)
	v.SetDefault("export.fontFile", "")
	v.SetDefault("export.boldFontFile", "")

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.backendToken", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "neuraresume")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.backendOperations.enabled", true)
	v.SetDefault("observability.customMetrics.backendOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.backendOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCertReload", true)

	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
