package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/blescan/internal/discovery"
	"github.com/muurk/blescan/internal/logging"
	"github.com/muurk/blescan/internal/scan"
	"github.com/muurk/blescan/internal/snapshot"
	"github.com/muurk/blescan/internal/version"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds graceful shutdown when Config leaves it unset
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host            string // Empty listens on all interfaces
	Port            int
	ShutdownTimeout time.Duration

	// Advertise registers the server via mDNS once listening
	Advertise bool
	Instance  string
}

// ScanStatus reports scan loop health. *scan.Loop implements it.
type ScanStatus interface {
	Stats() scan.Stats
}

// Server serves the current device snapshot over HTTP
type Server struct {
	config     *Config
	store      *snapshot.Store
	status     ScanStatus
	httpServer *http.Server
	listener   net.Listener
	advertiser *discovery.Advertiser

	wg       sync.WaitGroup
	mu       sync.Mutex
	closing  chan struct{}
	closed   bool
	streams  map[string]*websocket.Conn
	shutdown sync.Once
}

// New creates a new Server. status may be nil.
func New(config *Config, store *snapshot.Store, status ScanStatus) (*Server, error) {
	if store == nil {
		return nil, errors.New("snapshot store is required")
	}
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", config.Port)
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		config:  config,
		store:   store,
		status:  status,
		closing: make(chan struct{}),
		streams: make(map[string]*websocket.Conn),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler with all routes and request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /devices", s.handleDevices)
	mux.HandleFunc("GET /devices/stream", s.handleStream)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return logRequests(mux)
}

// Listen binds the listener without serving
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	logging.Info("Server listening for connections", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve serves on the bound listener until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}

	if s.config.Advertise {
		port := s.listener.Addr().(*net.TCPAddr).Port
		adv, err := discovery.Advertise(s.config.Instance, port, version.Version)
		if err != nil {
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			s.advertiser = adv
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdown.Do(func() {
		logging.Info("Shutting down server...")

		s.advertiser.Shutdown()

		s.mu.Lock()
		s.closed = true
		close(s.closing)
		s.mu.Unlock()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			logging.Error("Error shutting down HTTP server", zap.Error(err))
			shutdownErr = err
		}

		// Streams are hijacked connections; http.Server does not wait for them.
		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			logging.Info("All connections closed gracefully")
		case <-ctx.Done():
			logging.Warn("Shutdown timeout, forcing close")
			s.mu.Lock()
			for addr, conn := range s.streams {
				logging.Info("Closing stream", zap.String("remote_addr", addr))
				_ = conn.Close()
			}
			s.mu.Unlock()
		}

		logging.Sync()
	})

	return shutdownErr
}

// GetActiveConnections returns the number of open streams
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// trackStream registers a stream. It returns false once shutdown began.
func (s *Server) trackStream(remoteAddr string, conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.streams[remoteAddr] = conn
	s.wg.Add(1)
	return true
}

func (s *Server) untrackStream(remoteAddr string) {
	s.mu.Lock()
	delete(s.streams, remoteAddr)
	s.mu.Unlock()
	s.wg.Done()
}
