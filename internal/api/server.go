package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/pinpanel/internal/api/models"
	"github.com/smazurov/pinpanel/internal/events"
	"github.com/smazurov/pinpanel/internal/gpio"
	"github.com/smazurov/pinpanel/internal/logging"
	"github.com/smazurov/pinpanel/internal/pins"
	"github.com/smazurov/pinpanel/internal/sysinfo"
	"github.com/smazurov/pinpanel/internal/version"
)

// PinService is the subset of pins.Manager the API drives.
type PinService interface {
	ListState() []pins.PinRecord
	AddPin(pin int, name string, mode gpio.Mode, initial int) (pins.PinRecord, error)
	SetValue(pin, value int) (pins.PinRecord, error)
	RenamePin(pin int, name string) (pins.PinRecord, error)
	UpdatePin(pin int, name *string, value *int) (pins.PinRecord, error)
	RemovePin(pin int) error
	BackendName() string
}

// SnapshotStore resolves dated configuration snapshots.
type SnapshotStore interface {
	ListSnapshots(excludeToday bool) ([]string, error)
	ResolveSnapshot(date string) (string, error)
}

// Sampler reports host resource usage.
type Sampler interface {
	Sample() (sysinfo.Snapshot, error)
}

// Options configures the API server.
type Options struct {
	Pins           PinService
	Snapshots      SnapshotStore
	EventBus       *events.Bus
	LogDir         string
	Sampler        Sampler
	MetricsHandler http.Handler // optional Prometheus handler
	Now            func() time.Time
}

// Server is the Huma v2 API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	pins       PinService
	snapshots  SnapshotStore
	eventBus   *events.Bus
	logDir     string
	sampler    Sampler
	now        func() time.Time
	logger     *slog.Logger
}

// NewServer creates the API server using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("Pinpanel API", version.String())
	config.Info.Description = "GPIO control panel for single-board computers"
	// Relative paths work with any host
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	server := newServer(api, opts)
	server.mux = mux

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(NewHTTPLoggingMiddleware(logging.GetLogger("http"), logging.GetLogger("api")))

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	server.registerRoutes()
	return server
}

func newServer(api huma.API, opts *Options) *Server {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		api:       api,
		pins:      opts.Pins,
		snapshots: opts.Snapshots,
		eventBus:  opts.EventBus,
		logDir:    opts.LogDir,
		sampler:   opts.Sampler,
		now:       now,
		logger:    logging.GetLogger("api"),
	}
}

// GetMux returns the underlying HTTP ServeMux for additional setup
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting pinpanel API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down. SSE streams never finish on their own, so
// connections still open when ctx expires are closed forcibly.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		backend := ""
		if s.pins != nil {
			backend = s.pins.BackendName()
		}
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
				Backend: backend,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		versionInfo := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   versionInfo.Version,
				GitCommit: versionInfo.GitCommit,
				BuildDate: versionInfo.BuildDate,
				BuildID:   versionInfo.BuildID,
				GoVersion: versionInfo.GoVersion,
				Compiler:  versionInfo.Compiler,
				Platform:  versionInfo.Platform,
			},
		}, nil
	})

	s.registerPinRoutes()
	s.registerSnapshotRoutes()
	s.registerLogRoutes()
	s.registerSysRoutes()
	s.registerSSERoutes()
}
