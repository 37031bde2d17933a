package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/circuitstash/core/internal/audit"
	"github.com/circuitstash/core/internal/auth"
	"github.com/circuitstash/core/internal/infrastructure/config"
	"github.com/circuitstash/core/internal/infrastructure/database"
	"github.com/circuitstash/core/internal/infrastructure/logging"
	"github.com/circuitstash/core/internal/inventory"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// limiterSweepInterval is how often idle login limiters are dropped.
const limiterSweepInterval = time.Minute

// Deps wires the server to the services it fronts.
type Deps struct {
	Config    config.APIConfig
	Storage   config.StorageConfig
	Logger    *logging.Logger
	DB        *database.DB // optional: health check and pool metrics
	Accounts  *auth.Service
	Guard     *auth.Guard
	Inventory *inventory.Engine
	Audit     audit.Repository // optional: records changes made through the API
	Version   string
}

// Server is the Circuit Stash HTTP API. It implements http.Handler, so
// tests drive it without a listener.
type Server struct {
	cfg       config.APIConfig
	storage   config.StorageConfig
	logger    *logging.Logger
	db        *database.DB
	accounts  *auth.Service
	guard     *auth.Guard
	inventory *inventory.Engine
	version   string
	startTime time.Time
	metrics   *metrics
	limiter   *loginLimiter // nil when login throttling is disabled
	audit     *auditWriter  // nil when no audit repository is configured
	handler   http.Handler
	server    *http.Server
	cancel    context.CancelFunc
}

// New validates deps and builds the router. Nothing listens until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if deps.Guard == nil {
		return nil, fmt.Errorf("access guard is required")
	}
	if deps.Inventory == nil {
		return nil, fmt.Errorf("inventory engine is required")
	}

	s := &Server{
		cfg:       deps.Config,
		storage:   deps.Storage,
		logger:    deps.Logger,
		db:        deps.DB,
		accounts:  deps.Accounts,
		guard:     deps.Guard,
		inventory: deps.Inventory,
		version:   deps.Version,
		startTime: time.Now(),
	}
	if deps.Audit != nil {
		s.audit = newAuditWriter(deps.Audit, deps.Logger)
	}

	s.metrics = newMetrics(deps.Version, deps.DB)
	if rl := deps.Config.LoginRateLimit; rl.Enabled {
		s.limiter = newLoginLimiter(rl.RequestsPerMinute, rl.Burst)
	}
	s.handler = s.buildRouter()

	return s, nil
}

// ServeHTTP dispatches a request through the router and middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start listens in the background. Stop it with Close.
//
// Background workers keep ctx's values but not its cancellation: they run
// until Close, so requests finishing during a graceful shutdown are still
// audited.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	if s.limiter != nil {
		go s.sweepLimiterLoop(srvCtx)
	}
	if s.audit != nil {
		go s.audit.run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Timeouts.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.Timeouts.ReadTimeout(),
		WriteTimeout:      s.cfg.Timeouts.WriteTimeout(),
		IdleTimeout:       s.cfg.Timeouts.IdleTimeout(),
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API listener failed", "error", err)
		}
	}()

	return nil
}

// Close shuts the listener down, giving in-flight requests
// gracefulShutdownTimeout to finish, then stops background workers once
// queued audit entries are written.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("stopping API server")
	err := s.server.Shutdown(ctx)

	// In-flight requests are done; let the audit writer empty its queue.
	s.cancel()
	if s.audit != nil {
		<-s.audit.done
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and its database answers.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api health check: %w", err)
		}
	}
	return nil
}

// sweepLimiterLoop drops idle login limiters until the context is cancelled.
func (s *Server) sweepLimiterLoop(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.sweep()
		}
	}
}
