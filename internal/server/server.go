package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/database"
	"github.com/omriShneor/taskquest/internal/notify"
)

// Workflow runs one task submission
type Workflow interface {
	Run(ctx context.Context, req agent.TaskRequest) (*agent.WorkflowSummary, error)
}

type Server struct {
	db            *database.DB
	workflow      Workflow
	notifyService *notify.Service
	logger        *zap.Logger
	devMode       bool
	httpSrv       *http.Server
	port          int
}

// ServerConfig holds configuration for server creation
type ServerConfig struct {
	DB            *database.DB
	Workflow      Workflow
	NotifyService *notify.Service
	Logger        *zap.Logger
	Port          int
	DevMode       bool
	// WriteTimeout must outlast a workflow run
	WriteTimeout time.Duration
}

func New(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * agent.DefaultTimeout
	}

	s := &Server{
		db:            cfg.DB,
		workflow:      cfg.Workflow,
		notifyService: cfg.NotifyService,
		logger:        cfg.Logger,
		devMode:       cfg.DevMode,
		port:          cfg.Port,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.corsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health check and metrics
	mux.HandleFunc("GET /health", s.handleHealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Chat page
	mux.HandleFunc("GET /{$}", s.handleIndex)

	// Sessions API
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)

	// Tasks and history API
	mux.HandleFunc("POST /api/sessions/{id}/tasks", s.handleSubmitTask)
	mux.HandleFunc("GET /api/sessions/{id}/history", s.handleListHistory)
	mux.HandleFunc("DELETE /api/sessions/{id}/history", s.handleClearHistory)
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("url", fmt.Sprintf("http://localhost:%d", s.port)))
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// corsMiddleware adds CORS headers so the chat page can be served elsewhere
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
