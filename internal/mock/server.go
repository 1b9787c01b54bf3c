package mock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Server is an in-process HTTP target that answers every request from its
// route table. It counts accepted connections so callers can check reuse.
type Server struct {
	config     *Config
	httpServer *http.Server
	listener   net.Listener
	logger     *zap.Logger
	routes     []compiledRoute

	registry    *prometheus.Registry
	connections prometheus.Counter
	requests    *prometheus.CounterVec
	hangups     prometheus.Counter
}

type compiledRoute struct {
	Route
	re *regexp.Regexp
}

// NewServer creates a new target server
func NewServer(config *Config, logger *zap.Logger) *Server {
	if config.Host == "" {
		config.Host = "127.0.0.1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	s := &Server{
		config:   config,
		logger:   logger,
		registry: reg,
		connections: factory.NewCounter(prometheus.CounterOpts{
			Name: "sockbench_target_connections_total",
			Help: "Total number of accepted TCP connections",
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sockbench_target_requests_total",
			Help: "Total number of requests served",
		}, []string{"route", "status"}),
		hangups: factory.NewCounter(prometheus.CounterOpts{
			Name: "sockbench_target_hangups_total",
			Help: "Total number of connections closed without a response",
		}),
	}

	for _, route := range config.Routes {
		cr := compiledRoute{Route: route}
		if route.PathType == "regex" {
			cr.re = regexp.MustCompile(route.Path)
		}
		s.routes = append(s.routes, cr)
	}
	return s
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ConnState: func(_ net.Conn, state http.ConnState) {
			if state == http.StateNew {
				s.connections.Inc()
			}
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("target server error", zap.Error(err))
		}
	}()

	s.logger.Info("target server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the server down
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound host:port, or the configured one before Start
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Port returns the bound port
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// Registry returns the Prometheus registry holding the server counters
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Connections returns the number of accepted connections
func (s *Server) Connections() prometheus.Counter {
	return s.connections
}

// Hangups returns the number of connections dropped without a response
func (s *Server) Hangups() prometheus.Counter {
	return s.hangups
}

// Requests returns the request counter for a route name and status
func (s *Server) Requests(route string, status int) prometheus.Counter {
	return s.requests.WithLabelValues(route, strconv.Itoa(status))
}

// handleRequest answers one request from the route table
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	route := s.findMatchingRoute(r.Method, r.URL.Path)
	if route == nil {
		body := fmt.Sprintf("No route configured for %s %s", r.Method, r.URL.Path)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(body))
		s.requests.WithLabelValues("none", strconv.Itoa(http.StatusNotFound)).Inc()
		return
	}

	name := route.Name
	if name == "" {
		name = route.Method + " " + route.Path
	}

	if route.Delay > 0 {
		time.Sleep(time.Duration(route.Delay) * time.Millisecond)
	}

	if route.Hangup {
		s.hangup(w)
		return
	}

	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}

	for key, value := range route.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Length") == "" {
		w.Header().Set("Content-Length", strconv.Itoa(len(route.Body)))
	}

	w.WriteHeader(status)
	w.Write([]byte(route.Body))
	s.requests.WithLabelValues(name, strconv.Itoa(status)).Inc()

	if s.config.Logging {
		s.logger.Debug("served request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", name),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)))
	}
}

// hangup closes the underlying connection without writing a byte
func (s *Server) hangup(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		s.logger.Error("response writer does not support hijacking")
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		s.logger.Error("hijack failed", zap.Error(err))
		return
	}
	s.hangups.Inc()
	conn.Close()
}

// findMatchingRoute finds the first route that matches the method and path
func (s *Server) findMatchingRoute(method, path string) *compiledRoute {
	for i := range s.routes {
		route := &s.routes[i]
		if !strings.EqualFold(route.Method, method) {
			continue
		}

		matched := false
		switch route.PathType {
		case "", "exact":
			matched = route.Path == path
		case "prefix":
			matched = strings.HasPrefix(path, route.Path)
		case "regex":
			matched = route.re.MatchString(path)
		}

		if matched {
			return route
		}
	}

	return nil
}
