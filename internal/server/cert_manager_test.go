package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"neuraresume/internal/config"
	"neuraresume/internal/errors"
)

// writeCertPair writes a self-signed certificate and key and returns their paths
func writeCertPair(t *testing.T, dir string, serial int64, notAfter time.Time) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey: %v", err)
	}

	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certFile, keyFile
}

func servedSerial(t *testing.T, cm *CertificateManager) int64 {
	t.Helper()
	cert, err := cm.GetServerCertificate(&tls.ClientHelloInfo{})
	if err != nil {
		t.Fatalf("GetServerCertificate: %v", err)
	}
	return cert.Leaf.SerialNumber.Int64()
}

func TestCertificateManagerReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertPair(t, dir, 1, time.Now().Add(30*24*time.Hour))

	cm := NewCertificateManager(config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, errors.NewNopLogger())
	if err := cm.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := servedSerial(t, cm); got != 1 {
		t.Errorf("Expected serial 1, got %d", got)
	}
	if left, err := cm.CheckExpiry(); err != nil || left < 29*24*time.Hour {
		t.Errorf("Unexpected expiry %v (%v)", left, err)
	}

	writeCertPair(t, dir, 2, time.Now().Add(60*24*time.Hour))
	if err := cm.Reload(); err != nil {
		t.Fatalf("second Reload failed: %v", err)
	}
	if got := servedSerial(t, cm); got != 2 {
		t.Errorf("Expected the new certificate, got serial %d", got)
	}

	if err := os.WriteFile(certFile, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := cm.Reload(); err == nil {
		t.Fatal("Expected reload of a broken certificate to fail")
	}
	if got := servedSerial(t, cm); got != 2 {
		t.Errorf("A failed reload must keep the current certificate, got serial %d", got)
	}

	m := cm.GetMetrics()
	if m.ReloadCount != 3 || m.ReloadSuccessCount != 2 || m.ReloadFailureCount != 1 || m.LastReloadError == "" {
		t.Errorf("Unexpected reload metrics %+v", m)
	}
}

func TestCertificateManagerMutualTLS(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertPair(t, dir, 7, time.Now().Add(24*time.Hour*10))
	caPEM, err := os.ReadFile(certFile)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	tlsCfg := config.TLSConfig{Mode: "mutual", CertFile: certFile, KeyFile: keyFile, CAContent: string(caPEM), ClientAuthPolicy: "verify"}
	cm := NewCertificateManager(tlsCfg, nil, errors.NewNopLogger())
	if err := cm.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if cm.CACertPool() == nil {
		t.Fatal("Expected a CA pool in mutual mode")
	}

	s := &Server{TLSConfig: tlsCfg}
	built := s.buildTLSConfig(cm)
	if built.ClientAuth != tls.VerifyClientCertIfGiven {
		t.Errorf("Unexpected client auth %v", built.ClientAuth)
	}
	perConn, err := built.GetConfigForClient(&tls.ClientHelloInfo{})
	if err != nil {
		t.Fatalf("GetConfigForClient: %v", err)
	}
	if perConn.ClientCAs == nil || perConn.GetConfigForClient != nil {
		t.Error("Per-connection config should carry the current CA pool")
	}
}

func TestCertificateManagerMissingFiles(t *testing.T) {
	cm := NewCertificateManager(config.TLSConfig{Mode: "server", CertFile: "/nonexistent.crt", KeyFile: "/nonexistent.key"}, nil, errors.NewNopLogger())
	if err := cm.Start(); err == nil {
		t.Error("Expected Start to fail without certificates")
	}
	if _, err := cm.CheckExpiry(); err == nil {
		t.Error("Expected CheckExpiry to fail with nothing loaded")
	}
}

func TestCertWatcherTriggersReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCertPair(t, dir, 1, time.Now().Add(24*time.Hour))

	changed := make(chan struct{}, 1)
	watcher := NewCertWatcher([]string{certFile, keyFile}, 50*time.Millisecond, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, errors.NewNopLogger())
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = watcher.Stop() }()

	// Make sure the new modification time differs on coarse filesystems
	time.Sleep(20 * time.Millisecond)
	writeCertPair(t, dir, 2, time.Now().Add(48*time.Hour))
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(certFile, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a reload after the certificate changed")
	}

	if !watcher.IsRunning() || len(watcher.WatchedFiles()) != 2 {
		t.Error("Unexpected watcher state")
	}
	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if watcher.IsRunning() {
		t.Error("Watcher should be stopped")
	}
}
