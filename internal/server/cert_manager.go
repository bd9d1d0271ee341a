package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"neuraresume/internal/config"
	"neuraresume/internal/errors"
	"neuraresume/internal/observability"
)

const expiryReportInterval = time.Minute

// CertificateManager holds the serving certificate and client CA pool and
// swaps them when the files on disk change
type CertificateManager struct {
	mu sync.RWMutex

	cfg config.TLSConfig

	serverCert   *tls.Certificate
	serverExpiry time.Time
	caCertPool   *x509.CertPool

	fileWatcher *CertWatcher
	stop        chan struct{}
	stopOnce    sync.Once

	metrics *observability.Metrics
	logger  *errors.Logger

	reloadCount        int64
	reloadSuccessCount int64
	reloadFailureCount int64
	lastReloadTime     time.Time
	lastReloadError    string
}

// CertificateMetrics holds counters about certificate reloads
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadError    string
}

// NewCertificateManager creates a certificate manager. metrics may be nil.
func NewCertificateManager(cfg config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) *CertificateManager {
	return &CertificateManager{
		cfg:     cfg,
		stop:    make(chan struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// Start loads the certificates and, when auto reload is enabled for
// file-based certificates, starts watching them
func (cm *CertificateManager) Start() error {
	if err := cm.Reload(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	go cm.reportExpiry()

	if !cm.cfg.AutoReload.Enabled {
		return nil
	}
	files := cm.watchedFiles()
	if len(files) == 0 {
		return nil
	}

	watcher := NewCertWatcher(files, cm.cfg.AutoReload.DebounceDelay, cm.triggerReload, cm.logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}
	cm.fileWatcher = watcher
	return nil
}

// Stop stops the watcher and expiry reporting
func (cm *CertificateManager) Stop() error {
	cm.stopOnce.Do(func() { close(cm.stop) })
	if cm.fileWatcher != nil {
		if err := cm.fileWatcher.Stop(); err != nil {
			return err
		}
	}
	cm.logger.Info("Certificate manager stopped")
	return nil
}

func (cm *CertificateManager) watchedFiles() []string {
	var files []string
	for _, f := range []string{cm.cfg.CertFile, cm.cfg.KeyFile} {
		if f != "" {
			files = append(files, f)
		}
	}
	if cm.cfg.Mode == "mutual" && cm.cfg.CAFile != "" {
		files = append(files, cm.cfg.CAFile)
	}
	return files
}

// Reload loads the certificate pair and, for mutual TLS, the CA pool. The
// current material stays in use when loading fails.
func (cm *CertificateManager) Reload() error {
	cert, expiry, pool, err := cm.load()

	cm.mu.Lock()
	cm.reloadCount++
	cm.lastReloadTime = time.Now()
	if err != nil {
		cm.reloadFailureCount++
		cm.lastReloadError = err.Error()
	} else {
		cm.reloadSuccessCount++
		cm.lastReloadError = ""
		cm.serverCert = cert
		cm.serverExpiry = expiry
		cm.caCertPool = pool
	}
	cm.mu.Unlock()

	ctx := context.Background()
	cm.metrics.RecordCertReload(ctx, err == nil)
	if err != nil {
		return err
	}
	cm.metrics.RecordCertExpiry(ctx, expiry)

	cm.logger.Info("Certificates loaded", "server_cert_expiry", expiry)
	return nil
}

func (cm *CertificateManager) load() (*tls.Certificate, time.Time, *x509.CertPool, error) {
	var cert tls.Certificate
	var err error
	if cm.cfg.CertContent != "" && cm.cfg.KeyContent != "" {
		cert, err = tls.X509KeyPair([]byte(cm.cfg.CertContent), []byte(cm.cfg.KeyContent))
	} else {
		cert, err = tls.LoadX509KeyPair(cm.cfg.CertFile, cm.cfg.KeyFile)
	}
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, time.Time{}, nil, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf

	if cm.cfg.Mode != "mutual" {
		return &cert, leaf.NotAfter, nil, nil
	}

	caPEM := []byte(cm.cfg.CAContent)
	if len(caPEM) == 0 {
		if caPEM, err = os.ReadFile(cm.cfg.CAFile); err != nil {
			return nil, time.Time{}, nil, fmt.Errorf("failed to read CA file: %w", err)
		}
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, time.Time{}, nil, fmt.Errorf("failed to parse CA certificate")
	}
	return &cert, leaf.NotAfter, pool, nil
}

func (cm *CertificateManager) triggerReload() {
	if err := cm.Reload(); err != nil {
		cm.logger.LogError(err, "Failed to reload certificates, keeping the current ones")
		return
	}
	cm.logger.Info("TLS certificates reloaded successfully")
}

func (cm *CertificateManager) reportExpiry() {
	ticker := time.NewTicker(expiryReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cm.mu.RLock()
			expiry := cm.serverExpiry
			cm.mu.RUnlock()
			cm.metrics.RecordCertExpiry(context.Background(), expiry)
		case <-cm.stop:
			return
		}
	}
}

// GetServerCertificate is the tls.Config GetCertificate hook
func (cm *CertificateManager) GetServerCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}
	return cm.serverCert, nil
}

// CACertPool returns the current client CA pool, nil outside mutual TLS
func (cm *CertificateManager) CACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// CheckExpiry returns the time until the serving certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverExpiry.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(cm.serverExpiry), nil
}

// GetMetrics returns reload counters
func (cm *CertificateManager) GetMetrics() CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return CertificateMetrics{
		ReloadCount:        cm.reloadCount,
		ReloadSuccessCount: cm.reloadSuccessCount,
		ReloadFailureCount: cm.reloadFailureCount,
		LastReloadTime:     cm.lastReloadTime,
		LastReloadError:    cm.lastReloadError,
	}
}
