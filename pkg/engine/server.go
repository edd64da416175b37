// Package engine provides the core mock server engine.
package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/phiremock/phiremock/pkg/config"
	"github.com/phiremock/phiremock/pkg/logging"
)

// Server binds the dispatcher to a TCP listener, optionally with TLS, and
// handles graceful shutdown.
type Server struct {
	cfg        *config.Config
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener
	log        *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewServer creates a Server serving the given handler.
func NewServer(cfg *config.Config, handler http.Handler, log *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		log:     log,
	}
}

// Start binds the listener and begins serving in the background. Bind and
// TLS setup failures are returned synchronously so the caller can abort
// startup with a non-zero exit.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	addr := net.JoinHostPort(s.cfg.IP, fmt.Sprintf("%d", s.cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
	}

	serveTLS := s.cfg.Certificate != ""
	if serveTLS {
		tlsConfig, err := buildTLSConfig(s.cfg)
		if err != nil {
			_ = listener.Close()
			return fmt.Errorf("TLS setup: %w", err)
		}
		listener = tls.NewListener(listener, tlsConfig)
	}

	s.listener = listener
	s.running = true

	s.log.Info("server listening", "addr", addr, "tls", serveTLS)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down: stop accepting connections, wait
// for in-flight requests up to the grace period, then terminate. Idempotent.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	grace := time.Duration(s.cfg.ShutdownGrace) * time.Second
	if grace <= 0 {
		grace = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildTLSConfig loads the configured certificate and key, decrypting the
// key with the passphrase when one is given.
func buildTLSConfig(cfg *config.Config) (*tls.Config, error) {
	var cert tls.Certificate
	var err error

	if cfg.CertPassphrase != "" {
		cert, err = loadEncryptedKeyPair(cfg.Certificate, cfg.CertificateKey, cfg.CertPassphrase)
	} else {
		cert, err = tls.LoadX509KeyPair(cfg.Certificate, cfg.CertificateKey)
	}
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// loadEncryptedKeyPair loads a certificate whose private key PEM block is
// passphrase-protected.
func loadEncryptedKeyPair(certFile, keyFile, passphrase string) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, err
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, err
	}

	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return tls.Certificate{}, fmt.Errorf("no PEM block in %s", keyFile)
	}

	//nolint:staticcheck // legacy encrypted PEM keys are part of the config surface
	if x509.IsEncryptedPEMBlock(block) {
		//nolint:staticcheck
		der, err := x509.DecryptPEMBlock(block, []byte(passphrase))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("decrypt key: %w", err)
		}
		keyPEM = pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der})
	}

	return tls.X509KeyPair(certPEM, keyPEM)
}
