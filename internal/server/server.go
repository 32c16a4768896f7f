package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/muurk/stouch/internal/automation"
	"github.com/muurk/stouch/internal/discovery"
	"github.com/muurk/stouch/internal/display"
	"github.com/muurk/stouch/internal/logging"
	"github.com/muurk/stouch/internal/metrics"
	"github.com/muurk/stouch/internal/session"
	"github.com/muurk/stouch/internal/urls"
	"github.com/muurk/stouch/internal/version"
	"go.uber.org/zap"
)

// Config holds the server configuration
type Config struct {
	Host      string
	Port      int
	Advertise bool   // register the front-end via mDNS
	Instance  string // mDNS instance name, defaults to the hostname
	Metrics   bool   // serve /metrics

	// Automation limits for /api/touch/automation
	StepDelay time.Duration
	MaxLoops  int
}

// Panel is the emulated touch panel behind the API. *session.Session
// implements it.
type Panel interface {
	automation.Device
	Status() session.Status
	Display() *display.Model
	SetEndpoint(ep session.Endpoint)
}

// Finder searches the network for controllers. *discovery.Searcher
// implements it.
type Finder interface {
	Search(ctx context.Context) ([]*discovery.DeviceInfo, error)
}

// Option configures optional collaborators
type Option func(*Server)

// WithFinder enables /api/touch/findsystacomfort
func WithFinder(f Finder) Option {
	return func(s *Server) { s.finder = f }
}

// WithMetrics records request metrics and serves /metrics when enabled
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Server is the REST front-end of one emulated panel
type Server struct {
	config     *Config
	panel      Panel
	finder     Finder
	metrics    *metrics.Metrics
	router     chi.Router
	httpServer *http.Server
	listener   net.Listener
	advertiser *discovery.Advertiser
	upgrader   websocket.Upgrader

	// sequences drive the same panel, so only one runs at a time
	automationMu sync.Mutex

	wg      sync.WaitGroup
	mu      sync.Mutex
	streams map[*websocket.Conn]struct{}
}

// New creates a Server for panel
func New(config *Config, panel Panel, opts ...Option) *Server {
	s := &Server{
		config:  config,
		panel:   panel,
		streams: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // browsers on the LAN open the stream cross-origin
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	logging.Info("Starting S-Touch REST server",
		zap.String("addr", addr),
		zap.Bool("advertise", s.config.Advertise),
		zap.Bool("metrics", s.config.Metrics && s.metrics != nil),
	)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	logging.Info("Server listening for connections", zap.String("addr", listener.Addr().String()))

	if s.config.Advertise {
		s.advertise(listener.Addr())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (s *Server) advertise(addr net.Addr) {
	port := s.config.Port
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}
	instance := s.config.Instance
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "stouch"
		}
		instance = "S-Touch Emulator on " + host
	}

	adv, err := discovery.Advertise(instance, port, []string{
		"version=" + version.Version,
		"path=" + urls.APIPath,
	})
	if err != nil {
		logging.Warn("mDNS advertisement failed", zap.Error(err))
		return
	}
	s.advertiser = adv
	logging.Info("Advertising via mDNS",
		zap.String("instance", instance),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.advertiser.Shutdown()

	// hijacked stream connections are not tracked by http.Server
	s.mu.Lock()
	for conn := range s.streams {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	s.mu.Unlock()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		logging.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

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
	}

	if s.panel.Status().State != session.Disconnected {
		confirmed := s.panel.Disconnect(ctx)
		logging.Info("Panel disconnected", zap.Bool("confirmed", confirmed))
	}

	logging.Sync()
	return err
}

// ActiveStreams returns the number of connected stream clients
func (s *Server) ActiveStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}
