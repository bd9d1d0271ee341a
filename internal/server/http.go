package server

import (
	"html/template"
	"time"

	"neuraresume/internal/backend"
	"neuraresume/internal/config"
	"neuraresume/internal/errors"
	"neuraresume/internal/observability"
	"neuraresume/internal/session"
)

// ErrorResponse is the error body of the API routes
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Server holds configuration and collaborators of the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Backend       backend.Backend
	Orchestrator  *session.Orchestrator
	Sessions      *session.Store
	Observability *observability.ObservabilityManager

	Logger *errors.Logger

	pages *template.Template
}

// Dependencies are the collaborators a Server is built around.
// Observability may be nil.
type Dependencies struct {
	Version       string
	Backend       backend.Backend
	Observability *observability.ObservabilityManager
}

// NewServer creates a Server from the application configuration
func NewServer(appCfg *config.Config, deps Dependencies, logger *errors.Logger) (*Server, error) {
	cfg := appCfg.Server

	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	metrics := deps.Observability.Metrics()

	orchestrator, err := session.New(appCfg, deps.Backend, metrics, logger)
	if err != nil {
		return nil, err
	}

	pages, err := parsePages()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidConfig, "failed to parse UI templates", err)
	}

	var rateLimiter *RateLimiter
	rateLimit := cfg.RateLimit
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        deps.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		Backend:        deps.Backend,
		Orchestrator:   orchestrator,
		Sessions:       session.NewStore(cfg.SessionTTL, logger),
		Observability:  deps.Observability,
		Logger:         logger,
		pages:          pages,
	}, nil
}

// Close releases the session store and rate limiter
func (s *Server) Close() {
	s.Sessions.Close()
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
