package main

import (
	"context"
	"fmt"

	"mrk/internal/domain/project"
	"mrk/internal/domain/reconciliation"
	"mrk/internal/domain/timeline"
	"mrk/internal/infrastructure/postgres"
	httphandlers "mrk/internal/interfaces/http"
	"mrk/internal/shared/auth"
	"mrk/internal/shared/config"
	"mrk/internal/shared/logger"
	"mrk/internal/shared/middleware"
)

// Login attempts allowed per client address.
const (
	loginRatePerMinute = 10
	loginBurst         = 5
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	HealthHandler    *httphandlers.HealthHandler
	AuthHandler      *httphandlers.AuthHandler
	StatementHandler *httphandlers.StatementHandler
	ProjectHandler   *httphandlers.ProjectHandler

	// Auth
	JWT *auth.JWT

	// Throttling
	UploadLimiter *middleware.RateLimiter
	LoginLimiter  *middleware.RateLimiter

	// Services shared with the scheduler
	ReconciliationService *reconciliation.Service
	ProjectService        *project.Service
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	l := logger.FromContext(ctx)

	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	l.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("connected to database")

	if cfg.Database.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		l.Info().Msg("database schema ensured")
	}

	clock := timeline.ZoneClock{Location: cfg.Server.Location()}

	// Repositories
	statementRepo := postgres.NewStatementRepository(db)
	projectRepo := postgres.NewProjectRepository(db)
	movementRepo := postgres.NewMovementRepository(db)

	// Domain services
	projectService := project.NewService(projectRepo, clock, cfg.Cache.ProjectsTTL)
	reconciliationService := reconciliation.NewService(statementRepo, movementRepo, projectRepo, clock)

	// Auth
	jwt := auth.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)
	authenticator := auth.NewAuthenticator(cfg.Admin.Username, cfg.Admin.PasswordHash, jwt)

	return &Dependencies{
		DB:                    db,
		HealthHandler:         httphandlers.NewHealthHandler(db),
		AuthHandler:           httphandlers.NewAuthHandler(authenticator, cfg.TLS.Enabled),
		StatementHandler:      httphandlers.NewStatementHandler(reconciliationService, cfg.Upload.MaxBytes),
		ProjectHandler:        httphandlers.NewProjectHandler(projectService),
		JWT:                   jwt,
		UploadLimiter:         middleware.NewRateLimiter(cfg.Upload.RatePerMinute, cfg.Upload.RateBurst),
		LoginLimiter:          middleware.NewRateLimiter(loginRatePerMinute, loginBurst),
		ReconciliationService: reconciliationService,
		ProjectService:        projectService,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
