package calendarapi

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/gcal"
)

// EventCreator inserts events into the user's calendar
type EventCreator interface {
	CreateEvent(ctx context.Context, input gcal.EventInput) (*gcal.CreatedEvent, error)
}

// Server is the calendar scheduling service
type Server struct {
	events   EventCreator
	validate *validator.Validate
	logger   *zap.Logger
	httpSrv  *http.Server
	port     int
}

// Config holds configuration for the calendar service
type Config struct {
	Events EventCreator
	Port   int
	Logger *zap.Logger
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Server{
		events:   cfg.Events,
		validate: newValidator(),
		logger:   cfg.Logger,
		port:     cfg.Port,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealthCheck)
	mux.HandleFunc("POST /schedule", s.handleSchedule)
}

func (s *Server) Start() error {
	s.logger.Info("calendar service listening", zap.Int("port", s.port))
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
