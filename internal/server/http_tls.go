package server

import (
	"crypto/tls"
	"fmt"
	"net/http"
)

// configureTLS sets up TLS on httpServer according to the configured mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	switch s.TLSConfig.Mode {
	case "disabled", "":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	certManager := NewCertificateManager(s.TLSConfig, s.Observability.Metrics(), s.Logger)
	if err := certManager.Start(); err != nil {
		return err
	}
	s.CertificateManager = certManager

	httpServer.TLSConfig = s.buildTLSConfig(certManager)
	return nil
}

// buildTLSConfig creates a TLS configuration that always serves the
// certificate manager's current material
func (s *Server) buildTLSConfig(cm *CertificateManager) *tls.Config {
	tlsConfig := &tls.Config{
		MinVersion:     tlsVersion(s.TLSConfig.MinVersion),
		GetCertificate: cm.GetServerCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if s.TLSConfig.Mode != "mutual" {
		return tlsConfig
	}

	tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
	// Each handshake gets the CA pool in effect at that moment
	tlsConfig.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
		c := tlsConfig.Clone()
		c.GetConfigForClient = nil
		c.ClientCAs = cm.CACertPool()
		return c, nil
	}
	return tlsConfig
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
