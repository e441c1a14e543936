package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/upb/task-tracker/config"
	"github.com/upb/task-tracker/google"
	"github.com/upb/task-tracker/internal/auth"
	"github.com/upb/task-tracker/internal/observability"
	"github.com/upb/task-tracker/middleware"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/repositories/postgres"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Observability
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	Roles     repositories.RoleRepository
	Projects  repositories.ProjectRepository
	Tasks     repositories.TaskRepository
	TxManager repositories.TransactionManager

	// Services
	Directory      *services.Directory
	AuthService    *services.AuthService
	ProjectService *services.ProjectService
	TaskService    *services.TaskService
	UserService    *services.UserService
	RoleService    *services.RoleService

	// Auth
	Sessions     *auth.SessionIssuer // nil without JWT_SECRET_KEY
	Verifier     *google.IDTokenVerifier
	Gate         *middleware.AccessGate
	LoginLimiter *middleware.RateLimiter
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.wire(cfg); err != nil {
		_ = deps.RepoFactory.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesWithDB wires the application over an already opened pool
func NewDependenciesWithDB(cfg *config.Config, db *postgres.DB, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		RepoFactory: postgres.NewRepositoryFactoryWithDB(db, logger),
	}

	if err := deps.wire(cfg); err != nil {
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) wire(cfg *config.Config) error {
	d.initObservability()
	d.initRepositories()

	if err := d.initAuth(cfg); err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}

	d.initServices()
	return nil
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.PingContext(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

func (d *Dependencies) initObservability() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Roles = repos.Roles
	d.Projects = repos.Projects
	d.Tasks = repos.Tasks
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initAuth builds the session issuer, the Google verifier and the access gate.
// Missing settings leave login answering a configuration error and protected
// routes answering 401.
func (d *Dependencies) initAuth(cfg *config.Config) error {
	var validator middleware.SessionValidator = rejectAllValidator{}

	if cfg.Session.SecretKey != "" {
		issuer, err := auth.NewSessionIssuer(cfg.Session.SecretKey, cfg.Session.TTL)
		if err != nil {
			return err
		}
		d.Sessions = issuer
		validator = issuer
	} else {
		d.Logger.Warn("JWT_SECRET_KEY not set, protected endpoints will reject every request")
	}

	if cfg.Google.ClientID != "" {
		verifier, err := google.NewIDTokenVerifier(google.Config{
			ClientID:           cfg.Google.ClientID,
			JWKSURL:            cfg.Google.JWKSURL,
			CacheTTL:           cfg.Google.KeyCacheTTL,
			MinRefreshInterval: cfg.Google.MinRefreshInterval,
			HTTPTimeout:        cfg.Google.HTTPTimeout,
			OnRefresh:          d.Metrics.RecordKeyRefresh,
		}, d.Logger)
		if err != nil {
			return err
		}
		d.Verifier = verifier
	} else {
		d.Logger.Warn("GOOGLE_CLIENT_ID not set, google sign-in disabled")
	}

	d.Gate = middleware.NewAccessGate(validator, d.Logger, d.Metrics)
	d.LoginLimiter = middleware.NewRateLimiter(
		middleware.PerMinute(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),
		d.Logger,
	)

	d.Logger.Info("auth initialized", zap.Bool("login_enabled", cfg.AuthConfigured()))
	return nil
}

// initServices initializes the domain services
func (d *Dependencies) initServices() {
	d.Directory = services.NewDirectory(d.TxManager, d.Users, d.Roles, d.Logger, d.Metrics)

	// Typed nils must not reach the service as non-nil interfaces
	var verifier services.IdentityVerifier
	var minter services.SessionMinter
	if d.Verifier != nil && d.Sessions != nil {
		verifier = d.Verifier
		minter = d.Sessions
	}
	d.AuthService = services.NewAuthService(verifier, d.Directory, minter, d.Users, d.Logger, d.Metrics)

	d.ProjectService = services.NewProjectService(d.Projects, d.Logger)
	d.TaskService = services.NewTaskService(d.Tasks, d.Logger)
	d.UserService = services.NewUserService(d.Users, d.Logger)
	d.RoleService = services.NewRoleService(d.Roles, d.Logger)

	d.Logger.Info("services initialized")
}

// rejectAllValidator rejects every session token (used when no secret is configured)
type rejectAllValidator struct{}

func (rejectAllValidator) Validate(string) (*auth.SessionClaims, error) {
	return nil, auth.ErrTokenInvalid
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.LoginLimiter != nil {
		d.LoginLimiter.Stop()
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
