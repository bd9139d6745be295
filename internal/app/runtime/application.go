package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/R3E-Network/heroapps/internal/app/httpapi"
	"github.com/R3E-Network/heroapps/internal/app/metrics"
	"github.com/R3E-Network/heroapps/internal/app/monitor"
	appsvc "github.com/R3E-Network/heroapps/internal/app/services/apps"
	"github.com/R3E-Network/heroapps/internal/app/storage"
	"github.com/R3E-Network/heroapps/internal/app/storage/memory"
	"github.com/R3E-Network/heroapps/internal/app/storage/mongodb"
	"github.com/R3E-Network/heroapps/internal/app/system"
	"github.com/R3E-Network/heroapps/internal/config"
	"github.com/R3E-Network/heroapps/internal/middleware"
	"github.com/R3E-Network/heroapps/pkg/logger"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

const rateLimitCleanupInterval = time.Minute

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg      *config.Config
	log      *logger.Logger
	store    storage.Store
	manager  *system.Manager
	handler  http.Handler
	server   *http.Server
	stopJobs chan struct{}

	mu       sync.Mutex
	listener net.Listener
}

// NewApplication connects to storage and builds the HTTP stack. A storage
// connection failure aborts construction.
func NewApplication(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = logger.NewDefault("heroapps")
	}

	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure store: %w", err)
	}

	svc := appsvc.New(store, log, appsvc.WithMaxLimit(cfg.Listing.MaxLimit))
	mon := monitor.New(store, cfg.HealthCheck.Schedule, log)

	manager := system.NewManager()
	manager.Register(mon)

	opts := httpapi.Options{
		Storage: mon,
		Process: system.NewProcessReporter(),
		Version: Version,
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
		opts.MetricsPath = metricsPath
		opts.MetricsHandler = metrics.Handler()
	}

	a := &Application{
		cfg:      cfg,
		log:      log,
		store:    store,
		manager:  manager,
		stopJobs: make(chan struct{}),
	}

	var h http.Handler = httpapi.NewHandler(svc, opts)
	if cfg.RateLimit.RPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
		rl.StartCleanup(rateLimitCleanupInterval, a.stopJobs)
		h = rl.Handler(h)
	}
	h = middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins).Handler(h)
	h = metrics.InstrumentHandler(metricsPath, h)
	h = middleware.NewTracingMiddleware(log).Handler(h)
	h = middleware.Recovery(log)(h)
	a.handler = h

	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Addr returns the bound listen address once Run has started listening.
func (a *Application) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Run starts background services and the HTTP server, and blocks until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("Hero Apps Server listening %d", a.cfg.Server.Port)
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown drains the HTTP server, stops background services and closes the
// store.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-a.stopJobs:
	default:
		close(a.stopJobs)
	}

	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := a.manager.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error closing storage connection")
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}

func buildStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		if cfg.Storage.SeedFile == "" {
			log.Info("using empty in-memory store")
			return memory.New(), nil
		}
		store, err := memory.LoadFile(cfg.Storage.SeedFile)
		if err != nil {
			return nil, err
		}
		log.WithField("records", store.Len()).Infof("loaded in-memory store from %s", cfg.Storage.SeedFile)
		return store, nil

	case config.DriverMongo, "":
		store, err := mongodb.Connect(ctx, mongodb.Config{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			Collection:     cfg.Mongo.Collection,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
		if err != nil {
			log.WithError(err).Error("failed to connect with DB")
			return nil, err
		}
		log.Info("connected with DB")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
