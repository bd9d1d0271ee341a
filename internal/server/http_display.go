package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayTLSInfo()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	scheme := "http"
	if s.CertificateManager != nil {
		scheme = "https"
	}
	fmt.Printf("NeuraResume server on %s://%s:%s\n", scheme, s.Host, s.Port)
	fmt.Println("Available endpoints:")
	if s.AppConfig.Server.EnableUI {
		fmt.Println("  GET  /                  - Browser UI")
		fmt.Println("  POST /ui/analyze        - UI form submit")
		fmt.Println("  GET  /ui/answers.pdf    - Download interview guide")
	}
	fmt.Println("  POST /analyze           - Analyze resume (multipart)")
	fmt.Println("  POST /generate-answers  - Generate interview answers (JSON)")
	fmt.Println("  GET  /health            - Health check")
	fmt.Println("  GET  /stats             - Server statistics")
}

func (s *Server) displayTLSInfo() {
	switch s.TLSConfig.Mode {
	case "server":
		fmt.Println("TLS mode: Server-only (no client certificates required)")
	case "mutual":
		fmt.Printf("TLS mode: Mutual (client auth policy: %s)\n", clientAuthName(s.TLSConfig.ClientAuthPolicy))
	default:
		fmt.Println("TLS mode: Disabled (HTTP only)")
		return
	}
	if s.CertificateManager != nil && s.CertificateManager.fileWatcher != nil {
		fmt.Println("TLS auto-reload: ENABLED (watching certificate files)")
	}
}

func clientAuthName(policy string) string {
	if policy == "" {
		return "require"
	}
	return policy
}

func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /analyze and /generate-answers")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimiter == nil {
		fmt.Println("Rate limiting: DISABLED")
		return
	}
	fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	if s.RateLimit.ByAPIKey {
		fmt.Println("  - Per API key rate limiting enabled")
	}
	if s.RateLimit.ByIP {
		fmt.Println("  - Per IP address rate limiting enabled")
	}
}
